package otel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestOperationsWithNoopProviders(t *testing.T) {
	ops, err := NewOperations()
	require.NoError(t, err)
	ctx, finish := ops.Start(context.Background(), "placeHardBid", attribute.Int64("lot", 1))
	require.NotNil(t, ctx)
	finish(errors.New("boom"))

	var nilOps *Operations
	_, finish = nilOps.Start(context.Background(), "noop")
	finish(nil)
}

func TestParseHeaders(t *testing.T) {
	headers := ParseHeaders("api-key=abc, ,broken,x = y ")
	require.Equal(t, map[string]string{"api-key": "abc", "x": "y"}, headers)
}

func TestInitRequiresServiceName(t *testing.T) {
	_, err := Init(context.Background(), Config{})
	require.Error(t, err)
}

func TestParseHeadersDecodesValues(t *testing.T) {
	headers := ParseHeaders("authorization=Bearer%20abc,tenant=auction%2Fprod")
	require.Equal(t, "Bearer abc", headers["authorization"])
	require.Equal(t, "auction/prod", headers["tenant"])
}

func TestResolveEndpoint(t *testing.T) {
	cases := []struct {
		raw      string
		insecure bool
		endpoint string
		wantTLS  bool
		ok       bool
	}{
		{raw: "", ok: false},
		{raw: "collector:4318", endpoint: "collector:4318", wantTLS: true, ok: true},
		{raw: "http://collector:4318/", endpoint: "collector:4318", ok: true},
		{raw: "https://otel.example.com", endpoint: "otel.example.com", wantTLS: true, ok: true},
		{raw: "collector:4318", insecure: true, endpoint: "collector:4318", ok: true},
	}
	for _, tc := range cases {
		endpoint, insecure, ok := resolveEndpoint(tc.raw, tc.insecure)
		require.Equal(t, tc.ok, ok, tc.raw)
		if !ok {
			continue
		}
		require.Equal(t, tc.endpoint, endpoint, tc.raw)
		require.Equal(t, !tc.wantTLS, insecure, tc.raw)
	}
}

func TestResourceCarriesAuctionModule(t *testing.T) {
	res, err := newResource(Config{
		ServiceName: "auctiond",
		Environment: "test",
		Auction: AuctionResource{
			ModuleAddress:  "0x00000000000000000000000000000000000000aa",
			BondBps:        50,
			ProtocolFeeBps: 250,
			GraceWindow:    600,
		},
	})
	require.NoError(t, err)

	set := res.Set()
	module, ok := set.Value(attribute.Key("auction.module"))
	require.True(t, ok)
	require.Equal(t, "0x00000000000000000000000000000000000000aa", module.AsString())
	bond, ok := set.Value(attribute.Key("auction.bond_bps"))
	require.True(t, ok)
	require.Equal(t, int64(50), bond.AsInt64())
	grace, ok := set.Value(attribute.Key("auction.grace_window_seconds"))
	require.True(t, ok)
	require.Equal(t, int64(600), grace.AsInt64())
}

func TestInitWithoutEndpointRegistersOperations(t *testing.T) {
	tel, err := Init(context.Background(), Config{ServiceName: "auctiond"})
	require.NoError(t, err)
	require.False(t, tel.Exporting)
	require.NotNil(t, tel.Operations)

	_, finish := tel.Operations.Start(context.Background(), "depositBond")
	finish(nil)
	require.NoError(t, tel.Shutdown(context.Background()))

	var nilTel *Telemetry
	require.NoError(t, nilTel.Shutdown(context.Background()))
}
