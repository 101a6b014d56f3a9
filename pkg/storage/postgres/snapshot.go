package postgres

import (
	"context"
	"time"

	"gorm.io/gorm/clause"
)

// UpsertSnapshot stores record, replacing any previous row for the same name.
// Older versions never overwrite newer ones; a rewrite with the same
// version replaces the row.
func (p *PostgresClient) UpsertSnapshot(ctx context.Context, record *SnapshotRecord) error {
	return p.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "name"}},
		DoUpdates: clause.AssignmentColumns([]string{"content", "version", "written_at"}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "snapshot_record.version <= excluded.version"},
		}},
	}).Create(record).Error
}

// StoreSnapshot mirrors one written artifact.
func (p *PostgresClient) StoreSnapshot(ctx context.Context, name string, content []byte, version int64, writtenAt time.Time) error {
	return p.UpsertSnapshot(ctx, &SnapshotRecord{
		Name:      name,
		Content:   string(content),
		Version:   version,
		WrittenAt: writtenAt.UTC(),
	})
}

func (p *PostgresClient) GetSnapshot(ctx context.Context, name string) (*SnapshotRecord, error) {
	var record SnapshotRecord
	err := p.DB.WithContext(ctx).
		Where("name = ?", name).
		First(&record).Error

	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (p *PostgresClient) ListSnapshots(ctx context.Context) ([]SnapshotRecord, error) {
	var records []SnapshotRecord
	err := p.DB.WithContext(ctx).Order("name").Find(&records).Error
	return records, err
}
