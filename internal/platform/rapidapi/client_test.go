package rapidapi_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sarish05/AIvestor/internal/domain"
	"github.com/Sarish05/AIvestor/internal/platform/rapidapi"
)

func TestQuote(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/market/get-quotes", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("X-RapidAPI-Key"))
		assert.Equal(t, rapidapi.DefaultHost, r.Header.Get("X-RapidAPI-Host"))
		if r.URL.Query().Get("symbols") != "TCS.NS" {
			fmt.Fprint(w, `{"quoteResponse":{"result":[]}}`)
			return
		}
		fmt.Fprint(w, `{"quoteResponse":{"result":[{"symbol":"TCS.NS","shortName":"TATA CONSULTANCY","currency":"INR",
			"regularMarketPrice":4120.5,"regularMarketPreviousClose":4100,"regularMarketVolume":99}]}}`)
	}))
	defer srv.Close()

	c := rapidapi.NewClient("key", "", srv.URL, srv.Client())
	q, err := c.Quote(t.Context(), "TCS.NS")
	require.NoError(t, err)
	assert.Equal(t, "TATA CONSULTANCY", q.DisplayName)
	assert.InDelta(t, 4120.5, q.Price.Float64, 1e-9)
	assert.InDelta(t, 4100.0, q.PreviousClose.Float64, 1e-9)
	assert.False(t, q.Open.Valid)
	assert.Equal(t, "rapidapi", q.Source)

	_, err = c.Quote(t.Context(), "NOPE.NS")
	require.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
}
