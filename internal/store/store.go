// Package store persists reports, telemetry snapshots, assessments, and
// suspension state behind a driver-agnostic interface.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/bantay-panahon/stormwatch/internal/config"
	"github.com/bantay-panahon/stormwatch/internal/model"
)

// ReportFilter specifies criteria for listing reports.
type ReportFilter struct {
	City     string               `json:"city,omitempty"`
	Category model.ReportCategory `json:"category,omitempty"`
	Status   model.ReportStatus   `json:"status,omitempty"`
	Severity model.Severity       `json:"severity,omitempty"`
	Limit    int                  `json:"limit,omitempty"`
	Offset   int                  `json:"offset,omitempty"`
}

// Suspension is an active or lifted class suspension for one city.
type Suspension struct {
	City     string    `json:"city"`
	Reason   string    `json:"reason,omitempty"`
	Active   bool      `json:"active"`
	IssuedAt time.Time `json:"issued_at"`
}

// Store defines the persistence interface for the decision engine.
type Store interface {
	// Reports
	CreateReport(ctx context.Context, r model.Report) (*model.Report, error)
	GetReport(ctx context.Context, id string) (*model.Report, error)
	ListReports(ctx context.Context, filter ReportFilter) ([]model.Report, error)
	UpdateReportStatus(ctx context.Context, id string, status model.ReportStatus) error
	UpdateReportSeverity(ctx context.Context, id string, severity model.Severity) error
	SaveCredibility(ctx context.Context, reportID string, res model.CredibilityResult) error
	GetCredibility(ctx context.Context, reportID string) (*model.CredibilityResult, error)

	// Telemetry
	UpsertSnapshot(ctx context.Context, w model.WeatherSnapshot) error
	SaveSnapshots(ctx context.Context, snapshots []model.WeatherSnapshot) error
	ListSnapshots(ctx context.Context) ([]model.WeatherSnapshot, error)
	GetSnapshot(ctx context.Context, city string) (*model.WeatherSnapshot, error)

	// Assessments
	SaveAssessment(ctx context.Context, a model.RiskAssessment) error
	LatestAssessment(ctx context.Context) (*model.RiskAssessment, error)

	// Suspensions
	SuspendCity(ctx context.Context, city, reason string) error
	LiftSuspension(ctx context.Context, city string) error
	SuspendedCities(ctx context.Context) (map[string]bool, error)
	ListSuspensions(ctx context.Context) ([]Suspension, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Open constructs a Store from config. The sqlite driver is the default;
// postgres is selected explicitly.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return NewSQLite(cfg.DatabaseURL)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}
