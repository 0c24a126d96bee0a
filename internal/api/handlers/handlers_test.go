package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"safesphere/internal/domain/models"
	"safesphere/internal/domain/services"
	"safesphere/internal/domain/services/analyzer"
	"safesphere/internal/domain/services/history"
	"safesphere/internal/domain/services/remote"
	"safesphere/pkg/logger"
)

const phishing = "URGENT: Your account has been suspended. Verify your password immediately at http://paypal-verify.tk/login"

type fakeRemote struct {
	outcome *remote.Outcome
	err     error
}

func (f *fakeRemote) Classify(ctx context.Context, content string) (*remote.Outcome, error) {
	if strings.TrimSpace(content) == "" {
		return nil, remote.ErrEmptyContent
	}
	return f.outcome, f.err
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(ctx context.Context) error { return s.err }

func newTestService(store history.Store) *services.ScanService {
	return services.NewScanService(analyzer.New(nil), store, nil,
		services.ScanServiceConfig{MaxBatchSize: 3, MaxContentLength: 500}, logger.NewNop())
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst), rec.Body.String())
}

func TestAnalyze(t *testing.T) {
	h := NewAnalyzeHandler(newTestService(history.NewMemoryStore()), nil, logger.NewNop())

	tests := []struct {
		name    string
		body    any
		status  int
		errText string
	}{
		{"phishing", AnalyzeRequest{Content: phishing}, http.StatusOK, ""},
		{"empty content", AnalyzeRequest{Content: "  "}, http.StatusBadRequest, "Content is required"},
		{"missing body", "", http.StatusBadRequest, "request body is empty"},
		{"malformed body", "{not json", http.StatusBadRequest, "invalid request body"},
		{"too long", AnalyzeRequest{Content: strings.Repeat("a", 501)}, http.StatusRequestEntityTooLarge, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Analyze(rec, jsonRequest(t, http.MethodPost, "/api/v1/analyze", tt.body))

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			if tt.errText != "" {
				var body map[string]string
				decodeBody(t, rec, &body)
				assert.Equal(t, tt.errText, body["error"])
			}
		})
	}
}

func TestAnalyze_ResultShape(t *testing.T) {
	h := NewAnalyzeHandler(newTestService(history.NewMemoryStore()), nil, logger.NewNop())

	rec := httptest.NewRecorder()
	h.Analyze(rec, jsonRequest(t, http.MethodPost, "/api/v1/analyze", AnalyzeRequest{Content: phishing}))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	decodeBody(t, rec, &body)
	assert.Equal(t, "high", body["riskLevel"])
	assert.NotEmpty(t, body["scanId"])
	assert.Contains(t, body, "riskScore")
	assert.Contains(t, body, "flags")
	assert.Contains(t, body, "recommendations")
}

func TestAnalyzeBatch(t *testing.T) {
	h := NewAnalyzeHandler(newTestService(nil), nil, logger.NewNop())

	rec := httptest.NewRecorder()
	h.AnalyzeBatch(rec, jsonRequest(t, http.MethodPost, "/api/v1/analyze/batch",
		AnalyzeBatchRequest{Messages: []string{phishing, "See you at lunch", ""}}))
	require.Equal(t, http.StatusOK, rec.Code)

	var batch services.BatchResult
	decodeBody(t, rec, &batch)
	assert.Equal(t, 3, batch.TotalCount)
	assert.Equal(t, 1, batch.SuspiciousCount)
	assert.Equal(t, 1, batch.FailedCount)
	require.Len(t, batch.Results, 3)
	assert.Equal(t, analyzer.ErrEmptyContent.Error(), batch.Results[2].Error)

	for name, msgs := range map[string][]string{
		"empty":     nil,
		"too large": {"a", "b", "c", "d"},
	} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.AnalyzeBatch(rec, jsonRequest(t, http.MethodPost, "/api/v1/analyze/batch", AnalyzeBatchRequest{Messages: msgs}))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestAnalyzeAI(t *testing.T) {
	svc := newTestService(nil)
	parsed := &remote.Outcome{
		Kind:     remote.OutcomeParsed,
		Result:   &models.AnalysisResult{RiskScore: 88, RiskLevel: models.RiskLevelHigh},
		Provider: "gemini",
	}

	tests := []struct {
		name    string
		remote  RemoteClassifier
		content string
		status  int
		errText string
	}{
		{"disabled", nil, phishing, http.StatusServiceUnavailable, "AI analysis is not enabled"},
		{"empty", &fakeRemote{outcome: parsed}, "", http.StatusBadRequest, "Content is required"},
		{"upstream down", &fakeRemote{err: &remote.UpstreamError{Provider: "gemini", StatusCode: 503, Err: errors.New("overloaded")}},
			phishing, http.StatusBadGateway, "Failed to analyze content with AI"},
		{"other failure", &fakeRemote{err: errors.New("boom")}, phishing, http.StatusInternalServerError, "Failed to analyze content with AI"},
		{"parsed", &fakeRemote{outcome: parsed}, phishing, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAnalyzeHandler(svc, tt.remote, logger.NewNop())
			rec := httptest.NewRecorder()
			h.AnalyzeAI(rec, jsonRequest(t, http.MethodPost, "/api/v1/analyze/ai", AnalyzeRequest{Content: tt.content}))

			assert.Equal(t, tt.status, rec.Code)
			if tt.errText != "" {
				var body map[string]string
				decodeBody(t, rec, &body)
				assert.Equal(t, tt.errText, body["error"])
				return
			}
			var out remote.Outcome
			decodeBody(t, rec, &out)
			assert.Equal(t, remote.OutcomeParsed, out.Kind)
			assert.Equal(t, 88, out.Result.RiskScore)
		})
	}
}

func TestCheckURLs(t *testing.T) {
	h := NewURLHandler(analyzer.DefaultLibrary(), logger.NewNop())

	rec := httptest.NewRecorder()
	h.CheckURLs(rec, jsonRequest(t, http.MethodPost, "/api/v1/url/check", URLCheckRequest{
		URLs:    []string{"http://bit.ly/x123", " "},
		Content: "Visit https://www.example.com/page today",
	}))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp URLCheckResponse
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Verdicts, 2)
	assert.Equal(t, 1, resp.SuspiciousCount)
	assert.True(t, resp.Verdicts[0].Suspicious)
	assert.Equal(t, "https://www.example.com/page", resp.Verdicts[1].URL)
	assert.False(t, resp.Verdicts[1].Suspicious)

	rec = httptest.NewRecorder()
	h.CheckURLs(rec, jsonRequest(t, http.MethodPost, "/api/v1/url/check", URLCheckRequest{Content: "nothing to see"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestScans_ListAndStats(t *testing.T) {
	svc := newTestService(history.NewMemoryStore())
	for _, msg := range []string{phishing, "Dinner at 7?", phishing} {
		_, err := svc.Scan(context.Background(), msg, services.SourceAPI)
		require.NoError(t, err)
	}
	h := NewScansHandler(svc, logger.NewNop())

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/scans?limit=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var list struct {
		Scans []models.ScanRecord `json:"scans"`
		Count int                 `json:"count"`
	}
	decodeBody(t, rec, &list)
	assert.Equal(t, 2, list.Count)
	assert.Equal(t, models.RiskLevelHigh, list.Scans[0].RiskLevel)
	assert.True(t, strings.HasSuffix(list.Scans[0].ContentPreview, "..."))

	rec = httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/scans?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.Stats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var stats models.ScanStats
	decodeBody(t, rec, &stats)
	assert.Equal(t, int64(3), stats.TotalScans)
	assert.Equal(t, int64(2), stats.SuspiciousCases)
	assert.Equal(t, int64(1), stats.SafeScans)
}

func TestScans_HistoryDisabled(t *testing.T) {
	h := NewScansHandler(newTestService(nil), logger.NewNop())

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/scans", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.Stats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScans_Patterns(t *testing.T) {
	h := NewScansHandler(newTestService(nil), logger.NewNop())

	tests := []struct {
		format      string
		status      int
		contentType string
	}{
		{"", http.StatusOK, "application/json"},
		{"json", http.StatusOK, "application/json"},
		{"yaml", http.StatusOK, "application/yaml"},
		{"toml", http.StatusOK, "application/toml"},
		{"xml", http.StatusBadRequest, "application/json"},
	}

	for _, tt := range tests {
		t.Run("format="+tt.format, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.Patterns(rec, httptest.NewRequest(http.MethodGet, "/api/v1/patterns?format="+tt.format, nil))

			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			if tt.status == http.StatusOK {
				assert.Contains(t, rec.Body.String(), "paypal.com")
			}
		})
	}
}

func TestAdmin(t *testing.T) {
	svc := newTestService(history.NewMemoryStore())
	for _, msg := range []string{phishing, "Dinner at 7?"} {
		_, err := svc.Scan(context.Background(), msg, services.SourceAPI)
		require.NoError(t, err)
	}
	h := NewAdminHandler(svc, logger.NewNop())

	rec := httptest.NewRecorder()
	h.Dashboard(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/dashboard?period=today", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var d models.Dashboard
	decodeBody(t, rec, &d)
	assert.Equal(t, models.ScanPeriodToday, d.Period)
	assert.Equal(t, 50, d.DetectionRate)
	assert.Len(t, d.RecentActivity, 2)

	rec = httptest.NewRecorder()
	h.Export(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/export", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment; filename=\"safesphere-export-")

	var exp models.ScanExport
	decodeBody(t, rec, &exp)
	assert.Len(t, exp.Scans, 2)

	rec = httptest.NewRecorder()
	h.Clear(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/admin/scans", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalScans)
}

func TestAdmin_HistoryDisabled(t *testing.T) {
	h := NewAdminHandler(newTestService(nil), logger.NewNop())

	for name, fn := range map[string]http.HandlerFunc{
		"dashboard": h.Dashboard,
		"export":    h.Export,
		"clear":     h.Clear,
	} {
		t.Run(name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			fn(rec, httptest.NewRequest(http.MethodGet, "/", nil))
			assert.Equal(t, http.StatusNotFound, rec.Code)
		})
	}
}

func TestHealth(t *testing.T) {
	h := NewHealthHandler(map[string]Pinger{"redis": stubPinger{}, "skipped": nil}, "1.2.3", logger.NewNop())

	rec := httptest.NewRecorder()
	h.Check(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp HealthResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "1.2.3", resp.Version)

	rec = httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &resp)
	assert.Equal(t, map[string]string{"analyzer": "healthy", "redis": "healthy"}, resp.Checks)
}

func TestHealth_NotReady(t *testing.T) {
	h := NewHealthHandler(map[string]Pinger{"postgres": stubPinger{err: errors.New("connection refused")}}, "dev", logger.NewNop())

	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var resp HealthResponse
	decodeBody(t, rec, &resp)
	assert.Equal(t, "not ready", resp.Status)
	assert.Equal(t, "unhealthy: connection refused", resp.Checks["postgres"])
}

func TestStreaming_Unavailable(t *testing.T) {
	h := NewStreamingHandler(nil, nil, logger.NewNop())

	rec := httptest.NewRecorder()
	h.HandleWebSocket(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/events/ws", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	h.GetStats(rec, httptest.NewRequest(http.MethodGet, "/api/v1/admin/events/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var stats map[string]int
	decodeBody(t, rec, &stats)
	assert.Equal(t, 0, stats["websocket_clients"])
}
