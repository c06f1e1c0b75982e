package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/application/port"
	_ "github.com/lib/pq"
)

// Schema создает таблицу аудита тревог, если ее нет
const Schema = `
CREATE TABLE IF NOT EXISTS alert_events (
	id           UUID PRIMARY KEY,
	camera_id    VARCHAR(64)  NOT NULL,
	category     VARCHAR(32)  NOT NULL,
	reason       TEXT,
	snapshot_key TEXT,
	snapshot_url TEXT,
	detections   INTEGER      NOT NULL DEFAULT 0,
	occurred_at  TIMESTAMPTZ  NOT NULL,
	recorded_at  TIMESTAMPTZ  NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_alert_events_camera_time ON alert_events (camera_id, occurred_at DESC);
CREATE INDEX IF NOT EXISTS idx_alert_events_time ON alert_events (occurred_at DESC);
`

const selectColumns = `id, camera_id, category, reason, snapshot_key, snapshot_url, detections, occurred_at, recorded_at`

// PoolConfig - параметры пула соединений
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Open открывает пул соединений PostgreSQL и проверяет доступность БД
func Open(ctx context.Context, dsn string, pool PoolConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(pool.MaxOpenConns)
	db.SetMaxIdleConns(pool.MaxIdleConns)
	db.SetConnMaxLifetime(pool.ConnMaxLifetime)
	db.SetConnMaxIdleTime(pool.ConnMaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// PostgresAlertRepository реализует port.AlertRepository для PostgreSQL
type PostgresAlertRepository struct {
	db *sql.DB
}

// NewPostgresAlertRepository создает новый PostgreSQL repository
func NewPostgresAlertRepository(db *sql.DB) *PostgresAlertRepository {
	return &PostgresAlertRepository{
		db: db,
	}
}

// EnsureSchema применяет Schema
func (r *PostgresAlertRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

// Save сохраняет запись аудита; повторная запись того же события игнорируется
func (r *PostgresAlertRepository) Save(ctx context.Context, record port.AlertRecord) error {
	model := ToDBModel(record)

	query := `
		INSERT INTO alert_events (id, camera_id, category, reason, snapshot_key, snapshot_url, detections, occurred_at, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.db.ExecContext(ctx, query,
		model.ID,
		model.CameraID,
		model.Category,
		model.Reason,
		model.SnapshotKey,
		model.SnapshotURL,
		model.Detections,
		model.OccurredAt,
		model.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert alert: %w", err)
	}

	return nil
}

// ListByCamera возвращает последние тревоги камеры, новые первыми; пустой cameraID - все камеры
func (r *PostgresAlertRepository) ListByCamera(ctx context.Context, cameraID string, limit int) ([]port.AlertRecord, error) {
	var (
		rows *sql.Rows
		err  error
	)

	if cameraID == "" {
		rows, err = r.db.QueryContext(ctx, `
			SELECT `+selectColumns+`
			FROM alert_events
			ORDER BY occurred_at DESC
			LIMIT $1
		`, limit)
	} else {
		rows, err = r.db.QueryContext(ctx, `
			SELECT `+selectColumns+`
			FROM alert_events
			WHERE camera_id = $1
			ORDER BY occurred_at DESC
			LIMIT $2
		`, cameraID, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	return r.scanAlerts(rows)
}

// scanAlerts сканирует несколько строк в слайс записей
func (r *PostgresAlertRepository) scanAlerts(rows *sql.Rows) ([]port.AlertRecord, error) {
	var records []port.AlertRecord

	for rows.Next() {
		model, err := ScanAlertRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert row: %w", err)
		}
		records = append(records, ToRecord(model))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return records, nil
}
