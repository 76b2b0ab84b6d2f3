package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMOEXFetchSpot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/iss/engines/currency/markets/selt/securities.json", r.URL.Path)
		fmt.Fprint(w, `{"securities": {
			"columns": ["SECID", "BOARDID", "PREVPRICE", "STATUS"],
			"data": [
				["USD000UTSTOM", "CETS", 92.5, "A"],
				["EUR_RUB__TOM", "CETS", null, "A"],
				["CNYRUB_TOM", "CETS", 12.7, "N"],
				["AEDRUB_TOD", "CETS", 25.1, "A"],
				["GLDRUB_TOM", "CETS", 8000, "A"]
			]}}`)
	}))
	defer srv.Close()

	f := NewMOEXFetcher(srv.URL, "")
	prices, err := f.FetchSpot(context.Background(), []string{"usd", "EUR", "CNY"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"USD": 92.5}, prices)
}

func TestMOEXFetchSpot_MissingColumns(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"securities": {"columns": ["SECID"], "data": []}}`)
	}))
	defer srv.Close()

	_, err := NewMOEXFetcher(srv.URL, "").FetchSpot(context.Background(), []string{"USD"})
	assert.Error(t, err)
}

func TestMOEXFetchSpot_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewMOEXFetcher(srv.URL, "").FetchSpot(context.Background(), []string{"USD"})
	assert.ErrorContains(t, err, "status 503")
}
