package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"domaauction/core/types"
	"domaauction/native/auction"
)

func TestAuctionMetricsFromEvents(t *testing.T) {
	m := Auction()
	before := testutil.ToFloat64(m.bondVolume.WithLabelValues("forfeited"))

	m.Emit(&types.Event{Type: auction.EventTypeBondForfeited, Attributes: map[string]string{"amount": "2500000000000000"}})
	m.Emit(&types.Event{Type: auction.EventTypeLotSettled, Attributes: map[string]string{
		"clearingPrice": "460000000000000000",
		"fee":           "11500000000000000",
	}})
	m.Emit(&types.Event{Type: auction.EventTypeLoyaltySkipped, Attributes: map[string]string{}})

	require.InDelta(t, 0.0025, testutil.ToFloat64(m.bondVolume.WithLabelValues("forfeited"))-before, 1e-12)
	require.GreaterOrEqual(t, testutil.ToFloat64(m.feesCollected), 0.0115)
	require.GreaterOrEqual(t, testutil.ToFloat64(m.loyalty.WithLabelValues("skipped")), 1.0)
	require.GreaterOrEqual(t, testutil.ToFloat64(m.events.WithLabelValues(auction.EventTypeLotSettled)), 1.0)
}

func TestWeiToEther(t *testing.T) {
	require.InDelta(t, 0.55, weiToEther("550000000000000000"), 1e-12)
	require.Zero(t, weiToEther("garbage"))
	require.Zero(t, weiToEther("-1"))
}
