package yahoo_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sarish05/AIvestor/internal/domain"
	"github.com/Sarish05/AIvestor/internal/platform/yahoo"
)

const chartBody = `{"chart":{"result":[{
  "meta":{"symbol":"RELIANCE.NS","currency":"INR","shortName":"RELIANCE INDUSTRIES","regularMarketPrice":2470.75,
          "chartPreviousClose":2465.0,"regularMarketDayHigh":2480.1,"regularMarketDayLow":2455.3,
          "regularMarketVolume":5123456,"regularMarketTime":1735790400},
  "timestamp":[1735617600,1735704000,1735790400],
  "indicators":{"quote":[{"open":[2440.0,null,2466.0],"high":[2450.0,null,2480.1],"low":[2430.0,null,2455.3],
                           "close":[2445.0,null,2470.75],"volume":[100,null,5123456]}]}
}],"error":null}}`

func TestQuoteAndHistory(t *testing.T) {
	t.Parallel()

	var gotQuery []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v8/finance/chart/RELIANCE.NS", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		gotQuery = append(gotQuery, r.URL.Query().Get("range")+"/"+r.URL.Query().Get("interval"))
		fmt.Fprint(w, chartBody)
	}))
	defer srv.Close()

	c := yahoo.NewClient(srv.URL, srv.Client())
	q, err := c.Quote(t.Context(), "RELIANCE.NS")
	require.NoError(t, err)
	assert.Equal(t, "yahoo", q.Source)
	assert.Equal(t, "RELIANCE INDUSTRIES", q.DisplayName)
	assert.InDelta(t, 2470.75, q.Price.Float64, 1e-9)
	assert.InDelta(t, 2465.0, q.PreviousClose.Float64, 1e-9)
	assert.InDelta(t, 2466.0, q.Open.Float64, 1e-9)
	assert.Equal(t, int64(5123456), q.Volume.Int64)
	assert.Equal(t, "INR", q.Currency)
	assert.False(t, q.Change.Valid, "derived fields are filled by the chain")

	bars, err := c.History(t.Context(), "RELIANCE.NS", domain.HistoryRange{Period: "1mo", Interval: "1d"})
	require.NoError(t, err)
	require.Len(t, bars, 2, "bar with null close is skipped")
	assert.InDelta(t, 2445.0, bars[0].Close, 1e-9)
	assert.True(t, bars[0].Date.Before(bars[1].Date))

	assert.Equal(t, []string{"5d/1d", "1mo/1d"}, gotQuery)
}

func TestQuoteFailures(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		status int
		body   string
	}{
		"server error": {http.StatusInternalServerError, `oops`},
		"chart error":  {http.StatusOK, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`},
		"empty":        {http.StatusOK, `{"chart":{"result":[]}}`},
		"no price":     {http.StatusOK, `{"chart":{"result":[{"meta":{"currency":"INR"}}]}}`},
		"malformed":    {http.StatusOK, `{"chart":`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				fmt.Fprint(w, tc.body)
			}))
			defer srv.Close()

			_, err := yahoo.NewClient(srv.URL, srv.Client()).Quote(t.Context(), "NOPE.NS")
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
		})
	}
}
