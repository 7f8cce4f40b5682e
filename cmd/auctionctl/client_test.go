package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"domaauction/gateway/middleware"
)

func TestClientSendsCallerAndDecodes(t *testing.T) {
	var gotCaller, gotAuth string
	var body map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCaller = r.Header.Get(middleware.CallerHeader)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"lotId":1,"amount":"2750000000000000"}`))
	}))
	defer srv.Close()

	c := newClient(srv.URL+"/", "0x00000000000000000000000000000000000000b1", "")
	wei, err := weiString("amount", "0.00275")
	require.NoError(t, err)
	var out map[string]interface{}
	require.NoError(t, c.do(context.Background(), http.MethodPost, "/v1/lots/1/bonds", map[string]string{"amount": wei}, &out))

	require.Equal(t, "0x00000000000000000000000000000000000000b1", gotCaller)
	require.Empty(t, gotAuth)
	require.Equal(t, "2750000000000000", body["amount"])
	require.Equal(t, "0.00275", toEther(out).(map[string]interface{})["amount"])
}

func TestClientPrefersToken(t *testing.T) {
	var gotCaller, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotCaller = r.Header.Get(middleware.CallerHeader)
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := newClient(srv.URL, "0x00000000000000000000000000000000000000b1", "abc")
	require.NoError(t, c.do(context.Background(), http.MethodGet, "/v1/info", nil, nil))
	require.Empty(t, gotCaller)
	require.Equal(t, "Bearer abc", gotAuth)
}

func TestClientSurfacesAPIErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"auction: bid below clearing price","code":"bid_below_clearing_price"}`))
	}))
	defer srv.Close()

	err := newClient(srv.URL, "", "").do(context.Background(), http.MethodPost, "/v1/lots/1/bids", map[string]string{}, nil)
	var apiErr *apiError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, http.StatusUnprocessableEntity, apiErr.Status)
	require.Equal(t, "bid_below_clearing_price", apiErr.Code)
}

func TestToEtherLeavesIdentifiers(t *testing.T) {
	in := map[string]interface{}{
		"assets":   []interface{}{"1000000000000000000"},
		"tokenId":  "1000000000000000000",
		"lot":      map[string]interface{}{"startPrice": "1000000000000000000"},
		"rewarded": []interface{}{"0xabc"},
	}
	out := toEther(in).(map[string]interface{})
	require.Equal(t, "1000000000000000000", out["tokenId"])
	require.Equal(t, []interface{}{"1000000000000000000"}, out["assets"])
	require.Equal(t, "1", out["lot"].(map[string]interface{})["startPrice"])
}

func TestLotPathValidates(t *testing.T) {
	path, err := lotPath("7", "/bids")
	require.NoError(t, err)
	require.Equal(t, "/v1/lots/7/bids", path)
	_, err = lotPath("0", "")
	require.Error(t, err)
}
