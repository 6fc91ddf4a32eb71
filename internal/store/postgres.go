package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/bantay-panahon/stormwatch/internal/db"
	"github.com/bantay-panahon/stormwatch/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_report":        `INSERT INTO reports (id, city, barangay, category, description, severity, status, user_id, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
	"get_report":           `SELECT id, city, barangay, category, description, severity, status, user_id, created_at FROM reports WHERE id = $1`,
	"update_report_status": `UPDATE reports SET status = $1 WHERE id = $2`,
	"save_credibility":     `UPDATE reports SET credibility = $1 WHERE id = $2`,
	"upsert_snapshot":      `INSERT INTO weather_snapshots (city, temperature, humidity, rainfall, wind_speed, condition, observed_at) VALUES ($1, $2, $3, $4, $5, $6, $7) ON CONFLICT (city) DO UPDATE SET temperature = $2, humidity = $3, rainfall = $4, wind_speed = $5, condition = $6, observed_at = $7`,
	"save_assessment":      `INSERT INTO assessments (id, assessment, generated_at) VALUES ($1, $2, $3)`,
	"latest_assessment":    `SELECT assessment FROM assessments ORDER BY generated_at DESC LIMIT 1`,
	"suspend_city":         `INSERT INTO suspensions (city, reason, active, issued_at) VALUES ($1, $2, true, $3) ON CONFLICT (city) DO UPDATE SET reason = $2, active = true, issued_at = $3`,
	"suspended_cities":     `SELECT city FROM suspensions WHERE active`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Tests use this with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Pool returns the underlying database pool for subsystems that need direct
// query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS reports (
	id          TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	city        TEXT NOT NULL,
	barangay    TEXT,
	category    TEXT NOT NULL,
	description TEXT NOT NULL,
	severity    TEXT,
	status      TEXT NOT NULL DEFAULT 'pending',
	credibility JSONB,
	user_id     TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS weather_snapshots (
	city        TEXT PRIMARY KEY,
	temperature DOUBLE PRECISION NOT NULL,
	humidity    DOUBLE PRECISION NOT NULL,
	rainfall    DOUBLE PRECISION NOT NULL,
	wind_speed  DOUBLE PRECISION NOT NULL,
	condition   TEXT NOT NULL,
	observed_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS assessments (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	assessment   JSONB NOT NULL,
	generated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS suspensions (
	city      TEXT PRIMARY KEY,
	reason    TEXT,
	active    BOOLEAN NOT NULL DEFAULT true,
	issued_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_reports_city ON reports(city);
CREATE INDEX IF NOT EXISTS idx_reports_status ON reports(status);
CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_assessments_generated_at ON assessments(generated_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) CreateReport(ctx context.Context, r model.Report) (*model.Report, error) {
	r.ApplyDefaults()
	if r.City == "" {
		return nil, eris.New("postgres: report city is required")
	}
	if r.Description == "" {
		return nil, eris.New("postgres: report description is required")
	}

	r.ID = uuid.New().String()
	r.CreatedAt = time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO reports (id, city, barangay, category, description, severity, status, user_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		r.ID, r.City, r.Barangay, string(r.Category), r.Description,
		string(r.Severity), string(r.Status), r.UserID, r.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert report")
	}
	return &r, nil
}

func (s *PostgresStore) GetReport(ctx context.Context, id string) (*model.Report, error) {
	var r model.Report
	var barangay, severity, userID *string

	err := s.pool.QueryRow(ctx,
		`SELECT id, city, barangay, category, description, severity, status, user_id, created_at
		 FROM reports WHERE id = $1`,
		id,
	).Scan(&r.ID, &r.City, &barangay, &r.Category, &r.Description, &severity, &r.Status, &userID, &r.CreatedAt)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get report %s", id)
	}

	if barangay != nil {
		r.Barangay = *barangay
	}
	if severity != nil {
		r.Severity = model.Severity(*severity)
	}
	if userID != nil {
		r.UserID = *userID
	}
	return &r, nil
}

func (s *PostgresStore) ListReports(ctx context.Context, filter ReportFilter) ([]model.Report, error) {
	query := `SELECT id, city, barangay, category, description, severity, status, user_id, created_at
	          FROM reports WHERE true`
	args := []any{}
	argIdx := 1

	if filter.City != "" {
		query += fmt.Sprintf(` AND city = $%d`, argIdx)
		args = append(args, filter.City)
		argIdx++
	}
	if filter.Category != "" {
		query += fmt.Sprintf(` AND category = $%d`, argIdx)
		args = append(args, string(filter.Category))
		argIdx++
	}
	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Severity != "" {
		query += fmt.Sprintf(` AND severity = $%d`, argIdx)
		args = append(args, string(filter.Severity))
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
		argIdx++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list reports")
	}
	defer rows.Close()

	var reports []model.Report
	for rows.Next() {
		var r model.Report
		var barangay, severity, userID *string

		if err := rows.Scan(&r.ID, &r.City, &barangay, &r.Category, &r.Description, &severity, &r.Status, &userID, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan report")
		}
		if barangay != nil {
			r.Barangay = *barangay
		}
		if severity != nil {
			r.Severity = model.Severity(*severity)
		}
		if userID != nil {
			r.UserID = *userID
		}
		reports = append(reports, r)
	}
	return reports, eris.Wrap(rows.Err(), "postgres: list reports iterate")
}

func (s *PostgresStore) UpdateReportStatus(ctx context.Context, id string, status model.ReportStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE reports SET status = $1 WHERE id = $2`,
		string(status), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update report status %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("report not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) UpdateReportSeverity(ctx context.Context, id string, severity model.Severity) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE reports SET severity = $1 WHERE id = $2`,
		string(severity), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update report severity %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("report not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) SaveCredibility(ctx context.Context, reportID string, cr model.CredibilityResult) error {
	crJSON, err := json.Marshal(cr)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal credibility")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE reports SET credibility = $1 WHERE id = $2`,
		crJSON, reportID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: save credibility %s", reportID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("report not found: %s", reportID)
	}
	return nil
}

func (s *PostgresStore) GetCredibility(ctx context.Context, reportID string) (*model.CredibilityResult, error) {
	var crJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT credibility FROM reports WHERE id = $1`,
		reportID,
	).Scan(&crJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Errorf("report not found: %s", reportID)
		}
		return nil, eris.Wrapf(err, "postgres: get credibility %s", reportID)
	}
	if crJSON == nil {
		return nil, nil
	}

	var cr model.CredibilityResult
	if err := json.Unmarshal(crJSON, &cr); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal credibility")
	}
	return &cr, nil
}

func (s *PostgresStore) UpsertSnapshot(ctx context.Context, w model.WeatherSnapshot) error {
	if w.City == "" {
		return eris.New("postgres: snapshot city is required")
	}
	if w.ObservedAt.IsZero() {
		w.ObservedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO weather_snapshots (city, temperature, humidity, rainfall, wind_speed, condition, observed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (city) DO UPDATE SET
		   temperature = $2, humidity = $3, rainfall = $4, wind_speed = $5, condition = $6, observed_at = $7`,
		w.City, w.Temperature, w.Humidity, w.Rainfall, w.WindSpeed, w.Condition, w.ObservedAt,
	)
	return eris.Wrapf(err, "postgres: upsert snapshot %s", w.City)
}

// snapshotColumns is the column order used by the bulk telemetry upsert.
var snapshotColumns = []string{"city", "temperature", "humidity", "rainfall", "wind_speed", "condition", "observed_at"}

func (s *PostgresStore) SaveSnapshots(ctx context.Context, snapshots []model.WeatherSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(snapshots))
	for _, w := range snapshots {
		if w.City == "" {
			continue
		}
		observedAt := w.ObservedAt
		if observedAt.IsZero() {
			observedAt = now
		}
		rows = append(rows, []any{w.City, w.Temperature, w.Humidity, w.Rainfall, w.WindSpeed, w.Condition, observedAt})
	}

	_, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "weather_snapshots",
		Columns:      snapshotColumns,
		ConflictKeys: []string{"city"},
	}, rows)
	return err
}

func (s *PostgresStore) ListSnapshots(ctx context.Context) ([]model.WeatherSnapshot, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT city, temperature, humidity, rainfall, wind_speed, condition, observed_at
		 FROM weather_snapshots ORDER BY city`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list snapshots")
	}
	defer rows.Close()

	var snapshots []model.WeatherSnapshot
	for rows.Next() {
		var w model.WeatherSnapshot
		if err := rows.Scan(&w.City, &w.Temperature, &w.Humidity, &w.Rainfall, &w.WindSpeed, &w.Condition, &w.ObservedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan snapshot")
		}
		snapshots = append(snapshots, w)
	}
	return snapshots, eris.Wrap(rows.Err(), "postgres: list snapshots iterate")
}

func (s *PostgresStore) GetSnapshot(ctx context.Context, city string) (*model.WeatherSnapshot, error) {
	var w model.WeatherSnapshot
	err := s.pool.QueryRow(ctx,
		`SELECT city, temperature, humidity, rainfall, wind_speed, condition, observed_at
		 FROM weather_snapshots WHERE city = $1`,
		city,
	).Scan(&w.City, &w.Temperature, &w.Humidity, &w.Rainfall, &w.WindSpeed, &w.Condition, &w.ObservedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get snapshot %s", city)
	}
	return &w, nil
}

func (s *PostgresStore) SaveAssessment(ctx context.Context, a model.RiskAssessment) error {
	aJSON, err := json.Marshal(a)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal assessment")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO assessments (id, assessment, generated_at) VALUES ($1, $2, $3)`,
		uuid.New().String(), aJSON, a.GeneratedAt,
	)
	return eris.Wrap(err, "postgres: save assessment")
}

func (s *PostgresStore) LatestAssessment(ctx context.Context) (*model.RiskAssessment, error) {
	var aJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT assessment FROM assessments ORDER BY generated_at DESC LIMIT 1`,
	).Scan(&aJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrap(err, "postgres: latest assessment")
	}

	var a model.RiskAssessment
	if err := json.Unmarshal(aJSON, &a); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal assessment")
	}
	return &a, nil
}

func (s *PostgresStore) SuspendCity(ctx context.Context, city, reason string) error {
	if city == "" {
		return eris.New("postgres: suspension city is required")
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO suspensions (city, reason, active, issued_at) VALUES ($1, $2, true, $3)
		 ON CONFLICT (city) DO UPDATE SET reason = $2, active = true, issued_at = $3`,
		city, reason, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: suspend city %s", city)
}

func (s *PostgresStore) LiftSuspension(ctx context.Context, city string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE suspensions SET active = false WHERE city = $1 AND active`,
		city,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: lift suspension %s", city)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("suspension not found: %s", city)
	}
	return nil
}

func (s *PostgresStore) SuspendedCities(ctx context.Context) (map[string]bool, error) {
	rows, err := s.pool.Query(ctx, `SELECT city FROM suspensions WHERE active`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: suspended cities")
	}
	defer rows.Close()

	suspended := make(map[string]bool)
	for rows.Next() {
		var city string
		if err := rows.Scan(&city); err != nil {
			return nil, eris.Wrap(err, "postgres: scan suspended city")
		}
		suspended[city] = true
	}
	return suspended, eris.Wrap(rows.Err(), "postgres: suspended cities iterate")
}

func (s *PostgresStore) ListSuspensions(ctx context.Context) ([]Suspension, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT city, reason, active, issued_at FROM suspensions ORDER BY issued_at DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list suspensions")
	}
	defer rows.Close()

	var suspensions []Suspension
	for rows.Next() {
		var sp Suspension
		var reason *string
		if err := rows.Scan(&sp.City, &reason, &sp.Active, &sp.IssuedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan suspension")
		}
		if reason != nil {
			sp.Reason = *reason
		}
		suspensions = append(suspensions, sp)
	}
	return suspensions, eris.Wrap(rows.Err(), "postgres: list suspensions iterate")
}
