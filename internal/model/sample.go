package model

import "time"

// MeterageEntry is one timestamped meterage reading (meters of product
// output). Entries are immutable once created.
type MeterageEntry struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	RecordedAt time.Time `gorm:"not null;index" json:"recordedAt"`
	Meters     float64   `gorm:"type:decimal(12,3);not null" json:"meters"`
	Note       *string   `gorm:"size:40" json:"note"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SpeedSample is one timestamped line-speed reading. Samples are
// immutable once created.
type SpeedSample struct {
	ID         int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	RecordedAt time.Time `gorm:"not null;index" json:"recordedAt"`
	Speed      float64   `gorm:"type:decimal(10,3);not null" json:"speed"`
	Note       *string   `gorm:"size:40" json:"note"`
	CreatedAt  time.Time `json:"createdAt"`
}
