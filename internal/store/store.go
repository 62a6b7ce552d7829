package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"line-monitor-backend/internal/apperr"
	"line-monitor-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB

	CreateCause(ctx context.Context, cause *model.Cause) error
	UpdateCause(ctx context.Context, id string, apply func(*model.Cause) error) (*model.Cause, error)
	CauseByID(ctx context.Context, id string) (*model.Cause, error)
	FindCauseByCode(ctx context.Context, code string) (*model.Cause, error)
	ListCauses(ctx context.Context, f CauseFilter) ([]model.Cause, int64, error)

	CreateStop(ctx context.Context, stop *model.Stop) error
	UpdateStop(ctx context.Context, id int64, apply func(*model.Stop) error) (*model.Stop, error)
	StopByID(ctx context.Context, id int64) (*model.Stop, error)
	ListStops(ctx context.Context, f StopFilter) ([]model.Stop, int64, error)
	StopsInRange(ctx context.Context, r StopRange) ([]model.Stop, error)
	OpenStops(ctx context.Context) ([]model.Stop, error)

	CreateMeterage(ctx context.Context, entry *model.MeterageEntry) error
	MeterageInRange(ctx context.Context, r SampleRange) ([]model.MeterageEntry, error)
	CreateSpeed(ctx context.Context, sample *model.SpeedSample) error
	ListSpeed(ctx context.Context, r SampleRange, page, limit int) ([]model.SpeedSample, int64, error)
	SpeedInRange(ctx context.Context, r SampleRange) ([]model.SpeedSample, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DB exposes the underlying connection for callers that need it
// (migrations, subscription handlers, tests).
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

// --- Causes ---

func (s *gormStore) CreateCause(ctx context.Context, cause *model.Cause) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Cause{}).Where("code = ?", cause.Code).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperr.Conflictf("cause with code %q already exists", cause.Code)
		}
		return tx.Create(cause).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Conflictf("cause with code %q already exists", cause.Code)
	}
	return err
}

// UpdateCause loads the cause, applies the mutation and persists it as
// a single logical unit. Code uniqueness is re-checked when the code
// changed.
func (s *gormStore) UpdateCause(ctx context.Context, id string, apply func(*model.Cause) error) (*model.Cause, error) {
	var cause model.Cause
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&cause, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("cause id=%s not found", id)
			}
			return err
		}

		oldCode := cause.Code
		if err := apply(&cause); err != nil {
			return err
		}

		if cause.Code != oldCode {
			var count int64
			if err := tx.Model(&model.Cause{}).
				Where("code = ? AND id <> ?", cause.Code, id).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return apperr.Conflictf("cause with code %q already exists", cause.Code)
			}
		}

		return tx.Save(&cause).Error
	})
	if err != nil {
		return nil, err
	}
	return &cause, nil
}

func (s *gormStore) CauseByID(ctx context.Context, id string) (*model.Cause, error) {
	var cause model.Cause
	if err := s.db.WithContext(ctx).First(&cause, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("cause id=%s not found", id)
		}
		return nil, err
	}
	return &cause, nil
}

// FindCauseByCode resolves a cause code. A missing cause is reported as
// (nil, nil) so the classifier can distinguish absence from failure.
func (s *gormStore) FindCauseByCode(ctx context.Context, code string) (*model.Cause, error) {
	var cause model.Cause
	err := s.db.WithContext(ctx).First(&cause, "code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cause, nil
}

func (s *gormStore) ListCauses(ctx context.Context, f CauseFilter) ([]model.Cause, int64, error) {
	q := s.db.WithContext(ctx).Model(&model.Cause{})

	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.IsActive != nil {
		q = q.Where("is_active = ?", *f.IsActive)
	}
	if f.AffectTRS != nil {
		q = q.Where("affect_trs = ?", *f.AffectTRS)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		like := "%" + search + "%"
		q = q.Where("code LIKE ? OR name LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var causes []model.Cause
	if err := q.Order("code ASC").Order("id ASC").
		Limit(f.Limit).Offset((f.Page - 1) * f.Limit).
		Find(&causes).Error; err != nil {
		return nil, 0, err
	}
	return causes, total, nil
}

// --- Stops ---

func (s *gormStore) CreateStop(ctx context.Context, stop *model.Stop) error {
	return s.db.WithContext(ctx).Create(stop).Error
}

// UpdateStop loads the stop, applies the mutation (where the caller
// re-runs classification) and persists it as a single logical unit.
func (s *gormStore) UpdateStop(ctx context.Context, id int64, apply func(*model.Stop) error) (*model.Stop, error) {
	var stop model.Stop
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&stop, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("stop id=%d not found", id)
			}
			return err
		}
		if err := apply(&stop); err != nil {
			return err
		}
		return tx.Save(&stop).Error
	})
	if err != nil {
		return nil, err
	}
	return &stop, nil
}

func (s *gormStore) StopByID(ctx context.Context, id int64) (*model.Stop, error) {
	var stop model.Stop
	if err := s.db.WithContext(ctx).First(&stop, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("stop id=%d not found", id)
		}
		return nil, err
	}
	return &stop, nil
}

// applyStopFilters adds the shared day-range / shift / cause predicates.
// The shift filter is pushed down as a clock range on start_time so SQL
// pagination and counts stay correct; équipe 3 wraps midnight and
// becomes a disjunction.
func applyStopFilters(q *gorm.DB, from, to string, equipe int, causeCode string) *gorm.DB {
	if from != "" {
		q = q.Where("day >= ?", from)
	}
	if to != "" {
		q = q.Where("day <= ?", to)
	}
	if causeCode != "" {
		q = q.Where("cause_code = ?", causeCode)
	}
	switch equipe {
	case 1:
		q = q.Where("start_time >= ? AND start_time < ?", "06:00:00", "14:00:00")
	case 2:
		q = q.Where("start_time >= ? AND start_time < ?", "14:00:00", "22:00:00")
	case 3:
		q = q.Where("(start_time >= ? OR start_time < ?)", "22:00:00", "06:00:00")
	}
	return q
}

func (s *gormStore) ListStops(ctx context.Context, f StopFilter) ([]model.Stop, int64, error) {
	q := s.db.WithContext(ctx).Model(&model.Stop{})
	q = applyStopFilters(q, f.From, f.To, f.Equipe, f.CauseCode)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var stops []model.Stop
	if err := q.Order("day DESC").Order("start_time DESC").
		Limit(f.Limit).Offset((f.Page - 1) * f.Limit).
		Find(&stops).Error; err != nil {
		return nil, 0, err
	}
	return stops, total, nil
}

func (s *gormStore) StopsInRange(ctx context.Context, r StopRange) ([]model.Stop, error) {
	q := s.db.WithContext(ctx).Model(&model.Stop{})
	q = applyStopFilters(q, r.From, r.To, r.Equipe, r.CauseCode)

	var stops []model.Stop
	if err := q.Order("day ASC").Order("start_time ASC").Find(&stops).Error; err != nil {
		return nil, err
	}
	return stops, nil
}

func (s *gormStore) OpenStops(ctx context.Context) ([]model.Stop, error) {
	var stops []model.Stop
	if err := s.db.WithContext(ctx).
		Where("stop_time IS NULL").
		Order("day ASC").Order("start_time ASC").
		Find(&stops).Error; err != nil {
		return nil, err
	}
	return stops, nil
}

// --- Samples ---

// sampleBounds converts an inclusive day range into recorded_at bounds.
func sampleBounds(r SampleRange) (from *time.Time, to *time.Time, err error) {
	if r.From != "" {
		t, err := time.Parse("2006-01-02", r.From)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid from day %q: %w", r.From, err)
		}
		from = &t
	}
	if r.To != "" {
		t, err := time.Parse("2006-01-02", r.To)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid to day %q: %w", r.To, err)
		}
		t = t.Add(24 * time.Hour)
		to = &t
	}
	return from, to, nil
}

func applySampleRange(q *gorm.DB, r SampleRange) (*gorm.DB, error) {
	from, to, err := sampleBounds(r)
	if err != nil {
		return nil, err
	}
	if from != nil {
		q = q.Where("recorded_at >= ?", *from)
	}
	if to != nil {
		q = q.Where("recorded_at < ?", *to)
	}
	return q, nil
}

func (s *gormStore) CreateMeterage(ctx context.Context, entry *model.MeterageEntry) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

func (s *gormStore) MeterageInRange(ctx context.Context, r SampleRange) ([]model.MeterageEntry, error) {
	q, err := applySampleRange(s.db.WithContext(ctx).Model(&model.MeterageEntry{}), r)
	if err != nil {
		return nil, err
	}
	var entries []model.MeterageEntry
	if err := q.Order("recorded_at ASC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (s *gormStore) CreateSpeed(ctx context.Context, sample *model.SpeedSample) error {
	return s.db.WithContext(ctx).Create(sample).Error
}

func (s *gormStore) ListSpeed(ctx context.Context, r SampleRange, page, limit int) ([]model.SpeedSample, int64, error) {
	q, err := applySampleRange(s.db.WithContext(ctx).Model(&model.SpeedSample{}), r)
	if err != nil {
		return nil, 0, err
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var samples []model.SpeedSample
	if err := q.Order("recorded_at DESC").
		Limit(limit).Offset((page - 1) * limit).
		Find(&samples).Error; err != nil {
		return nil, 0, err
	}
	return samples, total, nil
}

func (s *gormStore) SpeedInRange(ctx context.Context, r SampleRange) ([]model.SpeedSample, error) {
	q, err := applySampleRange(s.db.WithContext(ctx).Model(&model.SpeedSample{}), r)
	if err != nil {
		return nil, err
	}
	var samples []model.SpeedSample
	if err := q.Order("recorded_at ASC").Find(&samples).Error; err != nil {
		return nil, err
	}
	return samples, nil
}
