package postgres

import (
	"database/sql"
	"time"

	"github.com/PavithraS-567/Video-Surveillance-System/internal/application/port"
)

// AlertDBModel представляет запись аудита тревоги в БД
type AlertDBModel struct {
	ID          string
	CameraID    string
	Category    string
	Reason      sql.NullString
	SnapshotKey sql.NullString
	SnapshotURL sql.NullString
	Detections  int
	OccurredAt  time.Time
	RecordedAt  time.Time
}

// ToDBModel конвертирует запись аудита в DB Model
func ToDBModel(record port.AlertRecord) *AlertDBModel {
	recordedAt := record.RecordedAt
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}

	return &AlertDBModel{
		ID:          record.ID,
		CameraID:    record.CameraID,
		Category:    record.Category,
		Reason:      nullString(record.Reason),
		SnapshotKey: nullString(record.SnapshotKey),
		SnapshotURL: nullString(record.SnapshotURL),
		Detections:  record.Detections,
		OccurredAt:  record.OccurredAt.UTC(),
		RecordedAt:  recordedAt.UTC(),
	}
}

// ToRecord конвертирует DB Model обратно в запись аудита
func ToRecord(model *AlertDBModel) port.AlertRecord {
	return port.AlertRecord{
		ID:          model.ID,
		CameraID:    model.CameraID,
		Category:    model.Category,
		Reason:      model.Reason.String,
		SnapshotKey: model.SnapshotKey.String,
		SnapshotURL: model.SnapshotURL.String,
		Detections:  model.Detections,
		OccurredAt:  model.OccurredAt,
		RecordedAt:  model.RecordedAt,
	}
}

// ScanAlertRow сканирует строку БД в AlertDBModel
func ScanAlertRow(row interface {
	Scan(dest ...interface{}) error
}) (*AlertDBModel, error) {
	var model AlertDBModel

	err := row.Scan(
		&model.ID,
		&model.CameraID,
		&model.Category,
		&model.Reason,
		&model.SnapshotKey,
		&model.SnapshotURL,
		&model.Detections,
		&model.OccurredAt,
		&model.RecordedAt,
	)
	if err != nil {
		return nil, err
	}

	return &model, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
