package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bantay-panahon/stormwatch/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

// --- Reports ---

func TestSQLite_CreateAndGetReport(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := st.CreateReport(ctx, model.Report{
		City:        "Marikina",
		Barangay:    "Tumana",
		Category:    model.CategoryFlooding,
		Description: "Knee-deep water along the riverside road",
		Severity:    model.SeverityHigh,
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, model.StatusPending, created.Status)

	got, err := st.GetReport(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Marikina", got.City)
	assert.Equal(t, "Tumana", got.Barangay)
	assert.Equal(t, model.CategoryFlooding, got.Category)
	assert.Equal(t, model.SeverityHigh, got.Severity)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestSQLite_CreateReport_RequiresCityAndDescription(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.CreateReport(ctx, model.Report{Description: "no city"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "city is required")

	_, err = st.CreateReport(ctx, model.Report{City: "Pasig"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "description is required")
}

func TestSQLite_CreateReport_InvalidCategoryDefaultsToOther(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := st.CreateReport(ctx, model.Report{
		City:        "Pasig",
		Category:    "volcano",
		Description: "ashfall",
	})
	require.NoError(t, err)
	assert.Equal(t, model.CategoryOther, created.Category)
}

func TestSQLite_GetReport_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetReport(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLite_ListReports_Filters(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	seed := []model.Report{
		{City: "Marikina", Category: model.CategoryFlooding, Description: "a", Severity: model.SeverityCritical},
		{City: "Marikina", Category: model.CategoryStrongWind, Description: "b", Severity: model.SeverityLow},
		{City: "Pasig", Category: model.CategoryFlooding, Description: "c", Severity: model.SeverityHigh},
	}
	for _, r := range seed {
		_, err := st.CreateReport(ctx, r)
		require.NoError(t, err)
	}

	all, err := st.ListReports(ctx, ReportFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	marikina, err := st.ListReports(ctx, ReportFilter{City: "Marikina"})
	require.NoError(t, err)
	assert.Len(t, marikina, 2)

	flooding, err := st.ListReports(ctx, ReportFilter{Category: model.CategoryFlooding})
	require.NoError(t, err)
	assert.Len(t, flooding, 2)

	critical, err := st.ListReports(ctx, ReportFilter{Severity: model.SeverityCritical})
	require.NoError(t, err)
	require.Len(t, critical, 1)
	assert.Equal(t, "a", critical[0].Description)

	limited, err := st.ListReports(ctx, ReportFilter{Limit: 2})
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestSQLite_UpdateReportStatus(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := st.CreateReport(ctx, model.Report{City: "Pasig", Description: "x"})
	require.NoError(t, err)

	require.NoError(t, st.UpdateReportStatus(ctx, created.ID, model.StatusVerified))

	got, err := st.GetReport(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusVerified, got.Status)

	err = st.UpdateReportStatus(ctx, "nonexistent", model.StatusResolved)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLite_UpdateReportSeverity(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := st.CreateReport(ctx, model.Report{City: "Pasig", Description: "x"})
	require.NoError(t, err)

	require.NoError(t, st.UpdateReportSeverity(ctx, created.ID, model.SeverityCritical))

	got, err := st.GetReport(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SeverityCritical, got.Severity)
}

// --- Credibility ---

func TestSQLite_Credibility_SaveAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	created, err := st.CreateReport(ctx, model.Report{City: "Marikina", Description: "flooded street"})
	require.NoError(t, err)

	// No credibility recorded yet.
	cr, err := st.GetCredibility(ctx, created.ID)
	require.NoError(t, err)
	assert.Nil(t, cr)

	saved := model.CredibilityResult{IsCredible: true, Confidence: 95, Reason: "active rainfall supports the report"}
	require.NoError(t, st.SaveCredibility(ctx, created.ID, saved))

	cr, err = st.GetCredibility(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, cr)
	assert.Equal(t, 95, cr.Confidence)
	assert.True(t, cr.IsCredible)
}

func TestSQLite_Credibility_ReportNotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.SaveCredibility(context.Background(), "nonexistent", model.CredibilityResult{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

// --- Snapshots ---

func TestSQLite_Snapshot_UpsertAndGet(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	w := model.WeatherSnapshot{
		City:        "Marikina",
		Temperature: 28.5,
		Humidity:    85,
		Rainfall:    12.5,
		WindSpeed:   30,
		Condition:   "Rain",
		ObservedAt:  time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, st.UpsertSnapshot(ctx, w))

	got, err := st.GetSnapshot(ctx, "Marikina")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 12.5, got.Rainfall)

	// Upsert replaces the existing row for the city.
	w.Rainfall = 22
	require.NoError(t, st.UpsertSnapshot(ctx, w))

	snapshots, err := st.ListSnapshots(ctx)
	require.NoError(t, err)
	require.Len(t, snapshots, 1)
	assert.Equal(t, 22.0, snapshots[0].Rainfall)
}

func TestSQLite_Snapshot_Missing(t *testing.T) {
	st := newTestSQLiteStore(t)

	got, err := st.GetSnapshot(context.Background(), "Atlantis")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLite_SaveSnapshots_Batch(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	batch := []model.WeatherSnapshot{
		{City: "Marikina", Rainfall: 10, Condition: "Rain"},
		{City: "Pasig", Rainfall: 2, Condition: "Clouds"},
	}
	require.NoError(t, st.SaveSnapshots(ctx, batch))

	snapshots, err := st.ListSnapshots(ctx)
	require.NoError(t, err)
	assert.Len(t, snapshots, 2)
	// Sorted by city.
	assert.Equal(t, "Marikina", snapshots[0].City)
}

// --- Assessments ---

func TestSQLite_Assessment_SaveAndLatest(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	latest, err := st.LatestAssessment(ctx)
	require.NoError(t, err)
	assert.Nil(t, latest)

	older := model.RiskAssessment{CombinedScore: 30, OverallRisk: model.RiskModerate, GeneratedAt: time.Now().UTC().Add(-time.Hour)}
	newer := model.RiskAssessment{CombinedScore: 60, OverallRisk: model.RiskHigh, GeneratedAt: time.Now().UTC()}
	require.NoError(t, st.SaveAssessment(ctx, older))
	require.NoError(t, st.SaveAssessment(ctx, newer))

	latest, err = st.LatestAssessment(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, 60, latest.CombinedScore)
}

// --- Suspensions ---

func TestSQLite_Suspension_Lifecycle(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SuspendCity(ctx, "Marikina", "critical flood risk"))
	require.NoError(t, st.SuspendCity(ctx, "Pasig", "high wind risk"))

	suspended, err := st.SuspendedCities(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"Marikina": true, "Pasig": true}, suspended)

	require.NoError(t, st.LiftSuspension(ctx, "Pasig"))

	suspended, err = st.SuspendedCities(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"Marikina": true}, suspended)

	all, err := st.ListSuspensions(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestSQLite_LiftSuspension_NotActive(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.LiftSuspension(context.Background(), "Atlantis")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestSQLite_SuspendCity_ReissueReactivates(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, st.SuspendCity(ctx, "Marikina", "first"))
	require.NoError(t, st.LiftSuspension(ctx, "Marikina"))
	require.NoError(t, st.SuspendCity(ctx, "Marikina", "second"))

	suspended, err := st.SuspendedCities(ctx)
	require.NoError(t, err)
	assert.True(t, suspended["Marikina"])
}
