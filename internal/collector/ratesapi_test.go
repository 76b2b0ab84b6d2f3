package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RateBoard/internal/model"
	"RateBoard/internal/repository"
)

func TestRatesAPIFetchHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/rates/", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		switch r.URL.Query().Get("short_name") {
		case "EUR":
			fmt.Fprint(w, `[{"timestamp": "2025-02-01T10:00:00Z", "cost": "101,5"}, {"timestamp": "2025-02-03", "cost": 102.5}]`)
		case "BAD":
			fmt.Fprint(w, `"oops"`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := NewRatesAPIFetcher(srv.URL, "secret", "")

	rec, err := f.FetchHistory(context.Background(), "eur")
	require.NoError(t, err)
	assert.Equal(t, model.Present(102), rec.Years[2025][1])
	require.NotNil(t, rec.Daily)
	assert.Len(t, rec.Daily.Days, 3)

	_, err = f.FetchHistory(context.Background(), "bad")
	assert.True(t, errors.Is(err, repository.ErrDataFormat))

	_, err = f.FetchHistory(context.Background(), "XYZ")
	assert.ErrorContains(t, err, "status 404")
}
