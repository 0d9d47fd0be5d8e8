package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"reverse_dcf/pkg/api/respond"
	"reverse_dcf/pkg/core/config"
	"reverse_dcf/pkg/core/ingest"
	"reverse_dcf/pkg/models"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLookup struct {
	metrics map[string]*models.CompanyMetrics
	calls   int
}

func (f *fakeLookup) Lookup(ctx context.Context, symbol string) (*models.CompanyMetrics, error) {
	f.calls++
	symbol = ingest.NormalizeSymbol(symbol)
	if m, ok := f.metrics[symbol]; ok {
		return m, nil
	}
	if symbol == "DOWN" {
		return nil, fmt.Errorf("%w: unexpected status code 503", ingest.ErrUpstream)
	}
	return nil, fmt.Errorf("%s: %w", symbol, ingest.ErrNotFound)
}

func floatPtr(f float64) *float64 { return &f }

func newTestServer(t *testing.T) (*httptest.Server, *fakeLookup) {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	lookup := &fakeLookup{metrics: map[string]*models.CompanyMetrics{
		"NESTLEIND": {Symbol: "NESTLEIND", CurrentPE: floatPtr(75.4), ReferencePE: floatPtr(68.1), ROCE: floatPtr(135.6)},
		"CHEAP":     {Symbol: "CHEAP", CurrentPE: floatPtr(2.1)},
		"NOPE":      {Symbol: "NOPE", ROCE: floatPtr(20)},
	}}

	h, err := NewRouter(config.Default(), lookup, log)
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv, lookup
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestConfigEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/config")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(respond.RequestIDHeader))

	var body map[string]interface{}
	decode(t, resp, &body)
	assert.Equal(t, 0.25, body["tax_rate"])
	assert.Contains(t, body, "inputs")
	assert.Contains(t, body, "gauge")
}

func TestCompanyEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/company/nestleind")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var m models.CompanyMetrics
	decode(t, resp, &m)
	assert.Equal(t, "NESTLEIND", m.Symbol)
	require.NotNil(t, m.CurrentPE)
	assert.Equal(t, 75.4, *m.CurrentPE)

	for symbol, status := range map[string]int{"UNKNOWN": http.StatusNotFound, "DOWN": http.StatusBadGateway} {
		resp, err := http.Get(srv.URL + "/api/company/" + symbol)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, status, resp.StatusCode, symbol)
	}
}

func TestValuationEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	t.Run("with current PE", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/valuation", `{"symbol":"NESTLEIND","inputs":{"cost_of_capital":10,"roce":15,"growth_rate":10,"high_growth_period":15,"fade_period":15,"terminal_growth":3},"current_pe":75.4}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var rep models.ValuationReport
		decode(t, resp, &rep)
		assert.InDelta(t, 3.9679994221965917, rep.IntrinsicPE, 1e-9)
		assert.Equal(t, "overvalued", string(rep.Verdict))
		assert.Len(t, rep.Projection, 30)
	})

	t.Run("defaults and no current PE", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/valuation", `{}`)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var rep models.ValuationReport
		decode(t, resp, &rep)
		assert.InDelta(t, 3.9679994221965917, rep.IntrinsicPE, 1e-9)
		assert.Empty(t, rep.Verdict)
		assert.NotEmpty(t, rep.VerdictSkipped)
	})

	t.Run("out of range input", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/valuation", `{"inputs":{"terminal_growth":9}}`)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body respond.ErrorBody
		decode(t, resp, &body)
		assert.Equal(t, "terminal_growth", body.Param)
		assert.NotEmpty(t, body.Reason)
		assert.NotEmpty(t, body.RequestID)
	})

	t.Run("cost of capital equal to terminal growth", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/valuation", `{"inputs":{"cost_of_capital":5,"terminal_growth":5}}`)
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body respond.ErrorBody
		decode(t, resp, &body)
		assert.Equal(t, "cost_of_capital", body.Param)
	})

	t.Run("malformed body", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/valuation", `{"inputs":`)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}

func TestGaugeEndpoint(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/valuation/gauge.svg?value=27.5")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/svg+xml", resp.Header.Get("Content-Type"))
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "<svg")

	resp2, err := http.Get(srv.URL + "/api/valuation/gauge.svg?value=abc")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}

func TestCORSPreflight(t *testing.T) {
	srv, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/valuation", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func postForm(t *testing.T, u string, form url.Values) (int, string) {
	t.Helper()
	resp, err := http.PostForm(u, form)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestDashboard_Index(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "DCF Valuation Dashboard")
	assert.Contains(t, string(body), `name="cost_of_capital"`)
	assert.Contains(t, string(body), `value="NESTLEIND"`)
}

func TestDashboard_FetchThenCalculate(t *testing.T) {
	srv, _ := newTestServer(t)

	status, body := postForm(t, srv.URL+"/dashboard/fetch", url.Values{"symbol": {"nestleind"}})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "Current PE: 75.4")
	assert.Contains(t, body, `name="current_pe" value="75.4"`)

	// The calculate action only knows what the form carries back
	status, body = postForm(t, srv.URL+"/dashboard/calculate", url.Values{
		"symbol":             {"NESTLEIND"},
		"current_pe":         {"75.4"},
		"cost_of_capital":    {"10"},
		"roce":               {"15"},
		"growth_rate":        {"10"},
		"high_growth_period": {"15"},
		"fade_period":        {"15"},
		"terminal_growth":    {"3"},
	})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "3.97")
	assert.Contains(t, body, "The stock is overvalued")
	assert.Contains(t, body, "gauge.svg?value=3.9680")
}

func TestDashboard_FetchKeepsInputs(t *testing.T) {
	srv, _ := newTestServer(t)

	status, body := postForm(t, srv.URL+"/dashboard/fetch", url.Values{
		"symbol":      {"NESTLEIND"},
		"roce":        {"20"},
		"fade_period": {"10"},
	})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `name="roce" min="5" max="50" step="0.1" value="20"`)
	assert.Contains(t, body, `name="fade_period" min="5" max="25" step="1" value="10"`)
	assert.Contains(t, body, `name="cost_of_capital" min="5" max="20" step="0.1" value="10"`)
}

func TestDashboard_CalculateWithoutFetch(t *testing.T) {
	srv, lookup := newTestServer(t)

	status, body := postForm(t, srv.URL+"/dashboard/calculate", url.Values{"roce": {"20"}})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "The calculated intrinsic PE is")
	assert.NotContains(t, body, "The stock is")
	assert.Equal(t, 0, lookup.calls)
}

func TestDashboard_CalculateUndervalued(t *testing.T) {
	srv, _ := newTestServer(t)

	status, body := postForm(t, srv.URL+"/dashboard/calculate", url.Values{
		"symbol":     {"CHEAP"},
		"current_pe": {"2.1"},
	})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, "The stock is undervalued")
}

func TestDashboard_Errors(t *testing.T) {
	srv, _ := newTestServer(t)

	status, body := postForm(t, srv.URL+"/dashboard/fetch", url.Values{"symbol": {"MISSING"}})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Contains(t, body, "Failed to fetch data for MISSING")

	status, body = postForm(t, srv.URL+"/dashboard/calculate", url.Values{"fade_period": {"three"}})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, body, "fade_period")
}

func TestHealthz(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	decode(t, resp, &body)
	assert.Equal(t, "ok", body["status"])
}
