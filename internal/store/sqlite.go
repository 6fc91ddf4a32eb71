package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/bantay-panahon/stormwatch/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	if dsn == "" {
		dsn = "stormwatch.db"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS reports (
	id          TEXT PRIMARY KEY,
	city        TEXT NOT NULL,
	barangay    TEXT,
	category    TEXT NOT NULL,
	description TEXT NOT NULL,
	severity    TEXT,
	status      TEXT NOT NULL DEFAULT 'pending',
	credibility TEXT,
	user_id     TEXT,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS weather_snapshots (
	city        TEXT PRIMARY KEY,
	temperature REAL NOT NULL,
	humidity    REAL NOT NULL,
	rainfall    REAL NOT NULL,
	wind_speed  REAL NOT NULL,
	condition   TEXT NOT NULL,
	observed_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS assessments (
	id           TEXT PRIMARY KEY,
	assessment   TEXT NOT NULL,
	generated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS suspensions (
	city      TEXT PRIMARY KEY,
	reason    TEXT,
	active    INTEGER NOT NULL DEFAULT 1,
	issued_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_reports_city ON reports(city);
CREATE INDEX IF NOT EXISTS idx_reports_status ON reports(status);
CREATE INDEX IF NOT EXISTS idx_reports_created_at ON reports(created_at);
CREATE INDEX IF NOT EXISTS idx_assessments_generated_at ON assessments(generated_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateReport(ctx context.Context, r model.Report) (*model.Report, error) {
	r.ApplyDefaults()
	if r.City == "" {
		return nil, eris.New("sqlite: report city is required")
	}
	if r.Description == "" {
		return nil, eris.New("sqlite: report description is required")
	}

	r.ID = uuid.New().String()
	r.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO reports (id, city, barangay, category, description, severity, status, user_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.City, r.Barangay, string(r.Category), r.Description,
		string(r.Severity), string(r.Status), r.UserID, r.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert report")
	}
	return &r, nil
}

func (s *SQLiteStore) GetReport(ctx context.Context, id string) (*model.Report, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, city, barangay, category, description, severity, status, user_id, created_at
		 FROM reports WHERE id = ?`,
		id,
	)
	return scanReport(row)
}

func (s *SQLiteStore) ListReports(ctx context.Context, filter ReportFilter) ([]model.Report, error) {
	query := `SELECT id, city, barangay, category, description, severity, status, user_id, created_at
	          FROM reports WHERE 1=1`
	var args []any

	if filter.City != "" {
		query += ` AND city = ?`
		args = append(args, filter.City)
	}
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, string(filter.Category))
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Severity != "" {
		query += ` AND severity = ?`
		args = append(args, string(filter.Severity))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list reports")
	}
	defer rows.Close()

	var reports []model.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *r)
	}
	return reports, eris.Wrap(rows.Err(), "sqlite: list reports iterate")
}

func (s *SQLiteStore) UpdateReportStatus(ctx context.Context, id string, status model.ReportStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reports SET status = ? WHERE id = ?`,
		string(status), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update report status %s", id)
	}
	return checkRowsAffected(res, "report", id)
}

func (s *SQLiteStore) UpdateReportSeverity(ctx context.Context, id string, severity model.Severity) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE reports SET severity = ? WHERE id = ?`,
		string(severity), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update report severity %s", id)
	}
	return checkRowsAffected(res, "report", id)
}

func (s *SQLiteStore) SaveCredibility(ctx context.Context, reportID string, cr model.CredibilityResult) error {
	crJSON, err := json.Marshal(cr)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal credibility")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE reports SET credibility = ? WHERE id = ?`,
		string(crJSON), reportID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: save credibility %s", reportID)
	}
	return checkRowsAffected(res, "report", reportID)
}

func (s *SQLiteStore) GetCredibility(ctx context.Context, reportID string) (*model.CredibilityResult, error) {
	var crJSON sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT credibility FROM reports WHERE id = ?`,
		reportID,
	).Scan(&crJSON)
	if err == sql.ErrNoRows {
		return nil, eris.Errorf("report not found: %s", reportID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get credibility %s", reportID)
	}
	if !crJSON.Valid {
		return nil, nil
	}

	var cr model.CredibilityResult
	if err := json.Unmarshal([]byte(crJSON.String), &cr); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal credibility")
	}
	return &cr, nil
}

func (s *SQLiteStore) UpsertSnapshot(ctx context.Context, w model.WeatherSnapshot) error {
	if w.City == "" {
		return eris.New("sqlite: snapshot city is required")
	}
	if w.ObservedAt.IsZero() {
		w.ObservedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO weather_snapshots (city, temperature, humidity, rainfall, wind_speed, condition, observed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (city) DO UPDATE SET
		   temperature = excluded.temperature, humidity = excluded.humidity,
		   rainfall = excluded.rainfall, wind_speed = excluded.wind_speed,
		   condition = excluded.condition, observed_at = excluded.observed_at`,
		w.City, w.Temperature, w.Humidity, w.Rainfall, w.WindSpeed, w.Condition, w.ObservedAt,
	)
	return eris.Wrapf(err, "sqlite: upsert snapshot %s", w.City)
}

func (s *SQLiteStore) SaveSnapshots(ctx context.Context, snapshots []model.WeatherSnapshot) error {
	for _, w := range snapshots {
		if err := s.UpsertSnapshot(ctx, w); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) ListSnapshots(ctx context.Context) ([]model.WeatherSnapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT city, temperature, humidity, rainfall, wind_speed, condition, observed_at
		 FROM weather_snapshots ORDER BY city`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list snapshots")
	}
	defer rows.Close()

	var snapshots []model.WeatherSnapshot
	for rows.Next() {
		var w model.WeatherSnapshot
		if err := rows.Scan(&w.City, &w.Temperature, &w.Humidity, &w.Rainfall, &w.WindSpeed, &w.Condition, &w.ObservedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan snapshot")
		}
		snapshots = append(snapshots, w)
	}
	return snapshots, eris.Wrap(rows.Err(), "sqlite: list snapshots iterate")
}

func (s *SQLiteStore) GetSnapshot(ctx context.Context, city string) (*model.WeatherSnapshot, error) {
	var w model.WeatherSnapshot
	err := s.db.QueryRowContext(ctx,
		`SELECT city, temperature, humidity, rainfall, wind_speed, condition, observed_at
		 FROM weather_snapshots WHERE city = ?`,
		city,
	).Scan(&w.City, &w.Temperature, &w.Humidity, &w.Rainfall, &w.WindSpeed, &w.Condition, &w.ObservedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get snapshot %s", city)
	}
	return &w, nil
}

func (s *SQLiteStore) SaveAssessment(ctx context.Context, a model.RiskAssessment) error {
	aJSON, err := json.Marshal(a)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal assessment")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO assessments (id, assessment, generated_at) VALUES (?, ?, ?)`,
		uuid.New().String(), string(aJSON), a.GeneratedAt,
	)
	return eris.Wrap(err, "sqlite: save assessment")
}

func (s *SQLiteStore) LatestAssessment(ctx context.Context) (*model.RiskAssessment, error) {
	var aJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT assessment FROM assessments ORDER BY generated_at DESC LIMIT 1`,
	).Scan(&aJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: latest assessment")
	}

	var a model.RiskAssessment
	if err := json.Unmarshal([]byte(aJSON), &a); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal assessment")
	}
	return &a, nil
}

func (s *SQLiteStore) SuspendCity(ctx context.Context, city, reason string) error {
	if city == "" {
		return eris.New("sqlite: suspension city is required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO suspensions (city, reason, active, issued_at) VALUES (?, ?, 1, ?)
		 ON CONFLICT (city) DO UPDATE SET reason = excluded.reason, active = 1, issued_at = excluded.issued_at`,
		city, reason, time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: suspend city %s", city)
}

func (s *SQLiteStore) LiftSuspension(ctx context.Context, city string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE suspensions SET active = 0 WHERE city = ? AND active = 1`,
		city,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: lift suspension %s", city)
	}
	return checkRowsAffected(res, "suspension", city)
}

func (s *SQLiteStore) SuspendedCities(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT city FROM suspensions WHERE active = 1`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: suspended cities")
	}
	defer rows.Close()

	suspended := make(map[string]bool)
	for rows.Next() {
		var city string
		if err := rows.Scan(&city); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan suspended city")
		}
		suspended[city] = true
	}
	return suspended, eris.Wrap(rows.Err(), "sqlite: suspended cities iterate")
}

func (s *SQLiteStore) ListSuspensions(ctx context.Context) ([]Suspension, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT city, reason, active, issued_at FROM suspensions ORDER BY issued_at DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list suspensions")
	}
	defer rows.Close()

	var suspensions []Suspension
	for rows.Next() {
		var sp Suspension
		var reason sql.NullString
		if err := rows.Scan(&sp.City, &reason, &sp.Active, &sp.IssuedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan suspension")
		}
		sp.Reason = reason.String
		suspensions = append(suspensions, sp)
	}
	return suspensions, eris.Wrap(rows.Err(), "sqlite: list suspensions iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanReport(row scannable) (*model.Report, error) {
	var r model.Report
	var barangay, severity, userID sql.NullString

	err := row.Scan(&r.ID, &r.City, &barangay, &r.Category, &r.Description, &severity, &r.Status, &userID, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("report not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan report")
	}

	r.Barangay = barangay.String
	r.Severity = model.Severity(severity.String)
	r.UserID = userID.String
	return &r, nil
}
