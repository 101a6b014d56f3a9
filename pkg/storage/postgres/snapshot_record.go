package postgres

import "time"

// SnapshotRecord mirrors the latest written content of one artifact.
type SnapshotRecord struct {
	Name      string    `gorm:"primaryKey;type:varchar(64)"`
	Content   string    `gorm:"type:text;not null"`
	Version   int64     `gorm:"not null"`
	WrittenAt time.Time `gorm:"not null;index:idx_snapshot_written_at"`
}

// TableName overrides the default table name for GORM.
func (SnapshotRecord) TableName() string {
	return "snapshot_record"
}
