package model

import (
	"time"

	"line-monitor-backend/internal/parse"
	"line-monitor-backend/internal/shift"
)

// Stop is one recorded stoppage interval of the production line.
// Times are stored as the operator entered them: a calendar day plus
// clock times. A nil StopTime means the stoppage is still ongoing.
//
// DurationSeconds and Equipe are derived from the clock times on every
// read and never persisted, so they can not drift out of sync with
// StartTime/StopTime regardless of how the row was written.
type Stop struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Day       string    `gorm:"size:10;not null;index:idx_stops_day_start" json:"day"`
	StartTime string    `gorm:"size:8;not null;index:idx_stops_day_start" json:"startTime"`
	StopTime  *string   `gorm:"size:8" json:"stopTime"`
	CauseCode string    `gorm:"size:32;not null;index" json:"causeCode"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// StartSeconds returns the start clock as seconds from midnight.
func (s *Stop) StartSeconds() int {
	secs, _ := parse.Clock(s.StartTime)
	return secs
}

// StopSeconds returns the stop clock as seconds from midnight, or nil
// while the stoppage is open.
func (s *Stop) StopSeconds() *int {
	if s.StopTime == nil {
		return nil
	}
	secs, _ := parse.Clock(*s.StopTime)
	return &secs
}

// DurationSeconds returns the wall-clock duration, nil while open.
// A stop clock earlier than the start clock means the interval crossed
// midnight and the duration is taken mod 24h.
func (s *Stop) DurationSeconds() *int {
	return shift.Duration(s.StartSeconds(), s.StopSeconds())
}

// Equipe returns the shift (1..3) the stop started in.
func (s *Stop) Equipe() int {
	return shift.Of(s.StartSeconds())
}
