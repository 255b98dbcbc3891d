package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Jrdheeraj/tirupati-geoai/internal/core"
	"github.com/Jrdheeraj/tirupati-geoai/internal/domain/model"
)

var (
	period2018 = model.Period{Start: 2018, End: 2025}
	errOffline = errors.New("backend offline")
)

type stubClient struct {
	change *model.ChangeResponse
	lulc   *model.LULCResponse
	err    error
}

func (s *stubClient) GetChange(_ context.Context, _ model.Period) (*model.ChangeResponse, error) {
	return s.change, s.err
}

func (s *stubClient) GetLULC(_ context.Context, _ int) (*model.LULCResponse, error) {
	if s.lulc == nil {
		return nil, errOffline
	}
	return s.lulc, nil
}

func (s *stubClient) GetConfidence(_ context.Context, _ int) (*model.ConfidenceSummary, error) {
	return nil, errOffline
}

func (s *stubClient) GetConfidenceByClass(_ context.Context, year int) (*model.ConfidenceByClass, error) {
	mean := 91.0
	return &model.ConfidenceByClass{Year: year, Classes: map[string]model.ConfidenceStat{
		"Forest": {MeanConfidence: &mean, PixelCount: 42},
	}}, nil
}

func (s *stubClient) GetChangeConfidence(_ context.Context, _ model.Period) (*model.ChangeConfidence, error) {
	return nil, errOffline
}

func (s *stubClient) GetMapBounds(_ context.Context) (*model.MapBounds, error) {
	return &model.MapBounds{{13.29, 78.98}, {14.26, 80.26}}, nil
}

func newTestServer(t *testing.T, client *stubClient) *httptest.Server {
	t.Helper()
	logger := zaptest.NewLogger(t)
	svc := core.NewInsightService(client, nil, core.Taxonomy{
		Labels:  model.ClassLabels{"Forest", "Agri", "Built-up"},
		Insight: model.InsightConfig{BuiltupIndex: 2, FootprintIndices: []int{0, 1}},
		Periods: core.DefaultPeriods,
	}, logger)
	t.Cleanup(svc.Close)

	srv := httptest.NewServer(NewHandler(svc, "Tirupati", logger).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func scenarioClient() *stubClient {
	return &stubClient{change: &model.ChangeResponse{MatrixArea: model.TransitionMatrix{
		{100, 0, 0},
		{0, 50, 10},
		{5, 0, 45},
	}}}
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &stubClient{})
	resp := get(t, srv.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestInsightsEndpoint(t *testing.T) {
	srv := newTestServer(t, scenarioClient())

	resp := get(t, srv.URL+"/api/insights/2018/2025")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body InsightResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, period2018, body.Run.Period)
	assert.Equal(t, "Forest", body.Run.Result.StableClass)
	assert.Equal(t, "Forest remains the most stable land class with 100.0% retention.", body.Narrative.Stability)
	assert.Contains(t, body.Narrative.Transition, "Agri")
}

func TestInsightsEndpointErrors(t *testing.T) {
	tests := []struct {
		name       string
		client     *stubClient
		path       string
		wantStatus int
		wantBody   string
	}{
		{name: "missing data", client: &stubClient{err: errOffline}, path: "/api/insights/2018/2025", wantStatus: http.StatusNotFound, wantBody: `"unavailable"`},
		{name: "nil matrix", client: &stubClient{change: &model.ChangeResponse{}}, path: "/api/insights/2018/2025", wantStatus: http.StatusNotFound, wantBody: `"unavailable"`},
		{name: "unsupported period", client: scenarioClient(), path: "/api/insights/2020/2021", wantStatus: http.StatusBadRequest, wantBody: "invalid period"},
		{name: "bad year", client: scenarioClient(), path: "/api/insights/abc/2025", wantStatus: http.StatusBadRequest, wantBody: "start year"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.client)
			resp := get(t, srv.URL+tt.path)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)

			var buf strings.Builder
			_, err := io.Copy(&buf, resp.Body)
			require.NoError(t, err)
			assert.Contains(t, buf.String(), tt.wantBody)
			assert.NotContains(t, buf.String(), "stable_class")
		})
	}
}

func TestSelectionEndpoints(t *testing.T) {
	srv := newTestServer(t, scenarioClient())

	resp := get(t, srv.URL+"/api/selection")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	post, err := http.Post(srv.URL+"/api/selection/2018/2025", "application/json", nil)
	require.NoError(t, err)
	defer post.Body.Close()
	require.Equal(t, http.StatusOK, post.StatusCode)

	resp = get(t, srv.URL+"/api/selection")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body InsightResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, period2018, body.Run.Period)
}

func TestReportEndpoint(t *testing.T) {
	srv := newTestServer(t, scenarioClient())

	resp := get(t, srv.URL+"/api/report/2018/2025")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var report model.Report
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&report))
	assert.Equal(t, 5.0, report.Insights.ExpansionDelta)
	assert.Nil(t, report.StartLULC)
	assert.Nil(t, report.Confidence)
}

func TestExportAnalysis(t *testing.T) {
	srv := newTestServer(t, scenarioClient())

	resp := get(t, srv.URL+"/api/export/2018/2025")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, `attachment; filename="tirupati_change_analysis_2018_2025.json"`, resp.Header.Get("Content-Disposition"))

	resp = get(t, srv.URL+"/api/export/2018/2025?format=csv")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="tirupati_insights_2018_2025.csv"`, resp.Header.Get("Content-Disposition"))
	var buf strings.Builder
	_, err := io.Copy(&buf, resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(buf.String(), "Class,Retention,Start (Ha),End (Ha),Delta (Ha)\nForest,1,100,105,5\n"))

	resp = get(t, srv.URL+"/api/export/2018/2025?format=pdf")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExportMatrix(t *testing.T) {
	srv := newTestServer(t, scenarioClient())

	resp := get(t, srv.URL+"/api/export/2018/2025/matrix")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var buf strings.Builder
	_, err := io.Copy(&buf, resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "From / To,Forest,Agri,Built-up\nForest,100,0,0\nAgri,0,50,10\nBuilt-up,5,0,45\n", buf.String())
}

func TestExportLULC(t *testing.T) {
	client := scenarioClient()
	client.lulc = &model.LULCResponse{TotalAreaHa: 100, Stats: []model.LULCStat{{ClassName: "Forest", AreaHa: 100, Percentage: 100}}}
	srv := newTestServer(t, client)

	resp := get(t, srv.URL+"/api/export/lulc/2025")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `attachment; filename="tirupati_lulc_stats_2025.csv"`, resp.Header.Get("Content-Disposition"))

	resp = get(t, srv.URL+"/api/export/lulc/twenty")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestConfidenceAndBounds(t *testing.T) {
	srv := newTestServer(t, scenarioClient())

	resp := get(t, srv.URL+"/api/confidence/lulc/2024")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var conf map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&conf))
	assert.Equal(t, 2024.0, conf["year"])
	assert.Contains(t, conf, "Forest")

	resp = get(t, srv.URL+"/api/bounds")
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHistoryWithoutRecorder(t *testing.T) {
	srv := newTestServer(t, scenarioClient())

	resp := get(t, srv.URL+"/api/history?limit=5")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var runs []model.InsightRun
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&runs))
	assert.Empty(t, runs)

	resp = get(t, srv.URL+"/api/history?limit=-1")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
