package analytics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"line-monitor-backend/config"
	"line-monitor-backend/internal/apperr"
	"line-monitor-backend/internal/model"
	"line-monitor-backend/internal/store"
)

func newTestStore(t *testing.T) store.Store {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.Cause{},
		&model.Stop{},
		&model.MeterageEntry{},
		&model.SpeedSample{},
	))
	return store.NewGormStore(db)
}

func newTestAggregator(t *testing.T, s store.Store, now time.Time) *Aggregator {
	t.Helper()
	agg := NewAggregator(s, config.ClassifierConfig{})
	agg.now = func() time.Time { return now }
	return agg
}

func seedCauses(t *testing.T, s store.Store) {
	t.Helper()
	ctx := context.Background()
	causes := []model.Cause{
		{ID: "id-nc", Code: "NC", Name: "Non considéré", Category: "Système", AffectTRS: false, IsActive: true},
		{ID: "id-mec", Code: "MEC", Name: "Panne mécanique", Category: "Machine", AffectTRS: true, IsActive: true},
		{ID: "id-ele", Code: "ELE", Name: "Panne électrique", Category: "Machine", AffectTRS: true, IsActive: true},
	}
	for i := range causes {
		require.NoError(t, s.CreateCause(ctx, &causes[i]))
	}
}

func addStop(t *testing.T, s store.Store, day, start string, stop *string, cause string) {
	t.Helper()
	require.NoError(t, s.CreateStop(context.Background(), &model.Stop{
		Day: day, StartTime: start, StopTime: stop, CauseCode: cause,
	}))
}

func strp(s string) *string { return &s }

func TestDowntimeByCause(t *testing.T) {
	s := newTestStore(t)
	seedCauses(t, s)

	addStop(t, s, "2026-01-20", "08:00:00", strp("08:10:00"), "MEC") // 600s
	addStop(t, s, "2026-01-20", "15:00:00", strp("15:05:00"), "MEC") // 300s
	addStop(t, s, "2026-01-21", "09:00:00", strp("09:01:00"), "ELE") // 60s

	now := time.Date(2026, 1, 22, 12, 0, 0, 0, time.UTC)
	agg := newTestAggregator(t, s, now)

	rows, err := agg.DowntimeByCause(context.Background(), Filter{})
	require.NoError(t, err)
	require.Len(t, rows, 3, "zero-downtime causes still appear")

	assert.Equal(t, "MEC", rows[0].CauseCode)
	assert.Equal(t, int64(900), rows[0].TotalDowntimeSeconds)
	assert.Equal(t, 2, rows[0].Stops)
	assert.Equal(t, "ELE", rows[1].CauseCode)
	assert.Equal(t, int64(60), rows[1].TotalDowntimeSeconds)
	assert.Equal(t, "NC", rows[2].CauseCode)
	assert.Equal(t, int64(0), rows[2].TotalDowntimeSeconds)
	assert.Equal(t, 0, rows[2].Stops)
}

func TestDowntimeByCauseShiftFilter(t *testing.T) {
	s := newTestStore(t)
	seedCauses(t, s)

	addStop(t, s, "2026-01-20", "08:00:00", strp("08:10:00"), "MEC") // équipe 1
	addStop(t, s, "2026-01-20", "15:00:00", strp("15:05:00"), "MEC") // équipe 2
	addStop(t, s, "2026-01-20", "23:00:00", strp("23:02:00"), "ELE") // équipe 3

	agg := newTestAggregator(t, s, time.Date(2026, 1, 22, 12, 0, 0, 0, time.UTC))

	rows, err := agg.DowntimeByCause(context.Background(), Filter{Equipe: 2})
	require.NoError(t, err)
	assert.Equal(t, "MEC", rows[0].CauseCode)
	assert.Equal(t, int64(300), rows[0].TotalDowntimeSeconds)
	assert.Equal(t, 1, rows[0].Stops)
}

func TestDowntimeByCauseOpenStopUsesQueryTime(t *testing.T) {
	s := newTestStore(t)
	seedCauses(t, s)

	addStop(t, s, "2026-01-22", "11:00:00", nil, "MEC")

	now := time.Date(2026, 1, 22, 11, 30, 0, 0, time.UTC)
	agg := newTestAggregator(t, s, now)

	rows, err := agg.DowntimeByCause(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Equal(t, "MEC", rows[0].CauseCode)
	assert.Equal(t, int64(1800), rows[0].TotalDowntimeSeconds)
}

func TestDowntimeByCauseOpenStopsExcludedByPolicy(t *testing.T) {
	s := newTestStore(t)
	seedCauses(t, s)

	addStop(t, s, "2026-01-22", "11:00:00", nil, "MEC")

	agg := newTestAggregator(t, s, time.Date(2026, 1, 22, 11, 30, 0, 0, time.UTC))
	agg.countOpenStops = false

	rows, err := agg.DowntimeByCause(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows[0].TotalDowntimeSeconds)
}

func TestDailySummaryCapsWorkTime(t *testing.T) {
	s := newTestStore(t)
	seedCauses(t, s)

	// 30000s of downtime recorded against équipe 1 on one day.
	addStop(t, s, "2026-01-20", "06:00:00", strp("13:50:00"), "MEC") // 28200s
	addStop(t, s, "2026-01-20", "06:10:00", strp("06:40:00"), "ELE") // 1800s

	agg := newTestAggregator(t, s, time.Date(2026, 1, 22, 12, 0, 0, 0, time.UTC))

	rows, err := agg.DailySummary(context.Background(), Filter{Equipe: 1})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(30000), rows[0].TotalDowntimeSeconds)
	assert.Equal(t, int64(0), rows[0].TotalWorkSeconds, "work time is capped, never negative")
}

func TestDailySummaryFullDay(t *testing.T) {
	s := newTestStore(t)
	seedCauses(t, s)

	addStop(t, s, "2026-01-20", "08:00:00", strp("09:00:00"), "MEC") // 3600s, affects TRS
	addStop(t, s, "2026-01-20", "15:00:10", strp("15:00:25"), "NC")  // 15s, no TRS impact

	agg := newTestAggregator(t, s, time.Date(2026, 1, 22, 12, 0, 0, 0, time.UTC))

	rows, err := agg.DailySummary(context.Background(), Filter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "2026-01-20", row.Day)
	assert.Equal(t, 2, row.StopsCount)
	assert.Equal(t, int64(3615), row.TotalDowntimeSeconds)
	assert.Equal(t, int64(3600), row.TRSDowntimeSeconds)
	assert.Equal(t, int64(86400-3615), row.TotalWorkSeconds)
	assert.Equal(t, int64(86400), row.AvailableSeconds, "past day gets the full reference")
	// (86400 - 3600) / 86400 * 100 = 95.83...
	assert.InDelta(t, 95.8, row.TRSPercent, 0.01)
}

func TestDailySummaryOrderedByDayDescending(t *testing.T) {
	s := newTestStore(t)
	seedCauses(t, s)

	addStop(t, s, "2026-01-19", "08:00:00", strp("08:05:00"), "MEC")
	addStop(t, s, "2026-01-21", "08:00:00", strp("08:05:00"), "MEC")
	addStop(t, s, "2026-01-20", "08:00:00", strp("08:05:00"), "MEC")

	agg := newTestAggregator(t, s, time.Date(2026, 1, 22, 12, 0, 0, 0, time.UTC))

	rows, err := agg.DailySummary(context.Background(), Filter{})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "2026-01-21", rows[0].Day)
	assert.Equal(t, "2026-01-20", rows[1].Day)
	assert.Equal(t, "2026-01-19", rows[2].Day)
}

func TestDailySummaryAvailableSecondsToday(t *testing.T) {
	s := newTestStore(t)
	seedCauses(t, s)

	addStop(t, s, "2026-01-22", "08:00:00", strp("08:05:00"), "MEC")

	// 10:00 within équipe 1: two hours elapsed since 06:00.
	now := time.Date(2026, 1, 22, 10, 0, 0, 0, time.UTC)
	agg := newTestAggregator(t, s, now)

	rows, err := agg.DailySummary(context.Background(), Filter{Equipe: 1})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(14400), rows[0].AvailableSeconds)
	// (14400 - 300) / 28800 * 100 = 48.95...
	assert.InDelta(t, 49.0, rows[0].TRSPercent, 0.01)
}

func TestDailySummaryFutureDayHasNoAvailableTime(t *testing.T) {
	s := newTestStore(t)
	seedCauses(t, s)

	addStop(t, s, "2026-02-01", "08:00:00", strp("08:05:00"), "MEC")

	agg := newTestAggregator(t, s, time.Date(2026, 1, 22, 12, 0, 0, 0, time.UTC))

	rows, err := agg.DailySummary(context.Background(), Filter{Equipe: 1})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(0), rows[0].AvailableSeconds)
	assert.Equal(t, float64(0), rows[0].TRSPercent)
}

func TestInvalidRangeIsRejected(t *testing.T) {
	s := newTestStore(t)
	agg := newTestAggregator(t, s, time.Now())
	ctx := context.Background()

	f := Filter{From: "2026-01-22", To: "2026-01-20"}

	_, err := agg.DowntimeByCause(ctx, f)
	assert.True(t, apperr.IsValidation(err))
	_, err = agg.DailySummary(ctx, f)
	assert.True(t, apperr.IsValidation(err))
	_, err = agg.MeterageDailySeries(ctx, f)
	assert.True(t, apperr.IsValidation(err))
	_, err = agg.MeterageSum(ctx, f)
	assert.True(t, apperr.IsValidation(err))
	_, err = agg.SpeedDailySeries(ctx, f)
	assert.True(t, apperr.IsValidation(err))
	_, err = agg.SpeedStats(ctx, f)
	assert.True(t, apperr.IsValidation(err))
}

func TestMeterageAggregates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	at := func(day string, hour int) time.Time {
		d, _ := time.Parse("2006-01-02", day)
		return d.Add(time.Duration(hour) * time.Hour)
	}
	for _, e := range []model.MeterageEntry{
		{RecordedAt: at("2026-01-20", 8), Meters: 120.5},
		{RecordedAt: at("2026-01-20", 16), Meters: 80.25},
		{RecordedAt: at("2026-01-21", 9), Meters: 200},
	} {
		entry := e
		require.NoError(t, s.CreateMeterage(ctx, &entry))
	}

	agg := newTestAggregator(t, s, time.Now())

	series, err := agg.MeterageDailySeries(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, "2026-01-20", series[0].Day)
	assert.Equal(t, 200.75, series[0].TotalMeters)
	assert.Equal(t, "2026-01-21", series[1].Day)
	assert.Equal(t, 200.0, series[1].TotalMeters)

	total, err := agg.MeterageSum(ctx, Filter{From: "2026-01-20", To: "2026-01-20"})
	require.NoError(t, err)
	assert.Equal(t, 200.75, total.TotalMeters)
}

func TestSpeedAggregates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	at := func(day string, hour int) time.Time {
		d, _ := time.Parse("2006-01-02", day)
		return d.Add(time.Duration(hour) * time.Hour)
	}
	for _, sp := range []model.SpeedSample{
		{RecordedAt: at("2026-01-20", 8), Speed: 10},
		{RecordedAt: at("2026-01-20", 12), Speed: 20},
		{RecordedAt: at("2026-01-21", 9), Speed: 12.5},
	} {
		sample := sp
		require.NoError(t, s.CreateSpeed(ctx, &sample))
	}

	agg := newTestAggregator(t, s, time.Now())

	series, err := agg.SpeedDailySeries(ctx, Filter{})
	require.NoError(t, err)
	require.Len(t, series, 2)
	assert.Equal(t, 15.0, series[0].AvgSpeed)
	assert.Equal(t, 20.0, series[0].MaxSpeed)
	assert.Equal(t, 2, series[0].Samples)

	summary, err := agg.SpeedStats(ctx, Filter{})
	require.NoError(t, err)
	assert.InDelta(t, 14.167, summary.AvgSpeed, 0.001)
	assert.Equal(t, 20.0, summary.MaxSpeed)
	assert.Equal(t, 3, summary.Samples)

	empty, err := agg.SpeedStats(ctx, Filter{From: "2027-01-01", To: "2027-01-02"})
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Samples)
	assert.Equal(t, 0.0, empty.AvgSpeed)
}
