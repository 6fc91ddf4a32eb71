package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bantay-panahon/stormwatch/internal/config"
	"github.com/bantay-panahon/stormwatch/internal/engine"
	"github.com/bantay-panahon/stormwatch/internal/model"
	"github.com/bantay-panahon/stormwatch/internal/store"
)

func newTestAPIServer(t *testing.T) (*apiServer, store.Store) {
	t.Helper()

	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	// No AI client wired; the advisor degrades to the deterministic scorer.
	advisor := engine.NewAdvisor(nil, config.AnthropicConfig{}, engine.DefaultEngineConfig())
	return &apiServer{store: st, advisor: advisor}, st
}

func doRequest(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServeHealth(t *testing.T) {
	api, _ := newTestAPIServer(t)
	rec := doRequest(t, api.routes(), http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestServeSubmitReport(t *testing.T) {
	api, st := newTestAPIServer(t)
	ctx := context.Background()

	// A stored snapshot lets the verifier corroborate the claim.
	require.NoError(t, st.UpsertSnapshot(ctx, model.WeatherSnapshot{
		City:       "Marikina",
		Rainfall:   15,
		Condition:  "Rain",
		ObservedAt: time.Now().UTC(),
	}))

	rec := doRequest(t, api.routes(), http.MethodPost, "/reports", model.Report{
		City:        "Marikina",
		Category:    model.CategoryFlooding,
		Description: "knee-deep water on Sumulong Highway",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Report      model.Report            `json:"report"`
		Credibility model.CredibilityResult `json:"credibility"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.NotEmpty(t, resp.Report.ID)
	assert.Equal(t, model.StatusPending, resp.Report.Status)
	assert.True(t, resp.Credibility.IsCredible)
	assert.GreaterOrEqual(t, resp.Credibility.Confidence, 90)

	// The verdict is persisted alongside the report.
	saved, err := st.GetCredibility(ctx, resp.Report.ID)
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, resp.Credibility.Confidence, saved.Confidence)
}

func TestServeSubmitReport_Invalid(t *testing.T) {
	api, _ := newTestAPIServer(t)

	rec := doRequest(t, api.routes(), http.MethodPost, "/reports", model.Report{
		Description: "no city given",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/reports", bytes.NewBufferString("{not json"))
	rr := httptest.NewRecorder()
	api.routes().ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestServeListReports(t *testing.T) {
	api, st := newTestAPIServer(t)
	ctx := context.Background()

	_, err := st.CreateReport(ctx, model.Report{City: "Pasig", Category: model.CategoryFlooding, Description: "flooded street"})
	require.NoError(t, err)
	_, err = st.CreateReport(ctx, model.Report{City: "Makati", Category: model.CategoryPowerOutage, Description: "brownout"})
	require.NoError(t, err)

	rec := doRequest(t, api.routes(), http.MethodGet, "/reports?city=Pasig", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var reports []model.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &reports))
	require.Len(t, reports, 1)
	assert.Equal(t, "Pasig", reports[0].City)

	// Empty result is an empty array, not null.
	rec = doRequest(t, api.routes(), http.MethodGet, "/reports?city=Baguio", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestServeAnalyze(t *testing.T) {
	api, st := newTestAPIServer(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertSnapshot(ctx, model.WeatherSnapshot{
		City:       "Quezon City",
		Rainfall:   25,
		WindSpeed:  45,
		Condition:  "Thunderstorm",
		ObservedAt: time.Now().UTC(),
	}))

	rec := doRequest(t, api.routes(), http.MethodPost, "/analyze", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var a model.RiskAssessment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
	assert.Equal(t, model.SourceFallback, a.Source)
	assert.Equal(t, 60, a.WeatherScore)
	assert.Contains(t, a.AffectedCities, "Quezon City")

	// The run is archived and served back on GET.
	rec = doRequest(t, api.routes(), http.MethodGet, "/assessment", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var latest model.RiskAssessment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &latest))
	assert.Equal(t, a.CombinedScore, latest.CombinedScore)
}

func TestServeAssessment_None(t *testing.T) {
	api, _ := newTestAPIServer(t)

	rec := doRequest(t, api.routes(), http.MethodGet, "/assessment", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServeCandidates(t *testing.T) {
	api, st := newTestAPIServer(t)
	ctx := context.Background()

	require.NoError(t, st.UpsertSnapshot(ctx, model.WeatherSnapshot{
		City:       "Marikina",
		Rainfall:   32,
		WindSpeed:  20,
		Condition:  "Rain",
		ObservedAt: time.Now().UTC(),
	}))

	rec := doRequest(t, api.routes(), http.MethodGet, "/candidates", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var candidates []model.SuspensionCandidate
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &candidates))
	require.Len(t, candidates, 1)
	assert.Equal(t, "Marikina", candidates[0].City)
	assert.Equal(t, 60, candidates[0].RiskScore)
	assert.True(t, candidates[0].HasWeatherRisk)
}

func TestServeCandidates_Empty(t *testing.T) {
	api, _ := newTestAPIServer(t)

	rec := doRequest(t, api.routes(), http.MethodGet, "/candidates", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestServeSuspensionLifecycle(t *testing.T) {
	api, _ := newTestAPIServer(t)
	router := api.routes()

	rec := doRequest(t, router, http.MethodPost, "/suspensions/Marikina", map[string]string{"reason": "severe flooding"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/suspensions", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var suspensions []store.Suspension
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &suspensions))
	require.Len(t, suspensions, 1)
	assert.Equal(t, "Marikina", suspensions[0].City)
	assert.True(t, suspensions[0].Active)

	rec = doRequest(t, router, http.MethodDelete, "/suspensions/Marikina", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// Lifting an already-lifted city fails.
	rec = doRequest(t, router, http.MethodDelete, "/suspensions/Marikina", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
