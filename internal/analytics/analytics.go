// Package analytics computes downtime and throughput aggregates over
// committed records. Aggregation happens in-process over raw rows so
// the capped work-time and TRS rules behave identically on every
// storage backend.
package analytics

import (
	"context"
	"math"
	"sort"
	"time"

	"line-monitor-backend/config"
	"line-monitor-backend/internal/apperr"
	"line-monitor-backend/internal/model"
	"line-monitor-backend/internal/parse"
	"line-monitor-backend/internal/shift"
	"line-monitor-backend/internal/store"
)

// Filter narrows an aggregate query to a closed day range and/or one
// équipe.
type Filter struct {
	From   string // day, inclusive
	To     string // day, inclusive
	Equipe int    // 0 = all
}

// Validate checks the range and shift filter.
func (f Filter) Validate() error {
	if f.From != "" {
		if _, err := parse.Day(f.From); err != nil {
			return apperr.Validationf("%v", err)
		}
	}
	if f.To != "" {
		if _, err := parse.Day(f.To); err != nil {
			return apperr.Validationf("%v", err)
		}
	}
	if f.From != "" && f.To != "" && f.From > f.To {
		return apperr.Validationf("from must be <= to")
	}
	if f.Equipe != 0 && !shift.Valid(f.Equipe) {
		return apperr.Validationf("equipe must be 1, 2 or 3")
	}
	return nil
}

// CauseDowntime is one row of the downtime-by-cause aggregate.
type CauseDowntime struct {
	CauseCode            string `json:"causeCode"`
	CauseName            string `json:"causeName"`
	Category             string `json:"category"`
	TotalDowntimeSeconds int64  `json:"totalDowntimeSeconds"`
	Stops                int    `json:"stops"`
}

// DailySummaryRow is one day of the daily stop summary.
type DailySummaryRow struct {
	Day                  string  `json:"day"`
	StopsCount           int     `json:"stopsCount"`
	TotalDowntimeSeconds int64   `json:"totalDowntimeSeconds"`
	TRSDowntimeSeconds   int64   `json:"trsDowntimeSeconds"`
	TotalWorkSeconds     int64   `json:"totalWorkSeconds"`
	AvailableSeconds     int64   `json:"availableSeconds"`
	TRSPercent           float64 `json:"trsPercent"`
}

// Aggregator runs read-only aggregate queries against the store.
type Aggregator struct {
	store          store.Store
	countOpenStops bool
	now            func() time.Time
}

// NewAggregator creates an Aggregator applying the configured
// open-stop policy.
func NewAggregator(s store.Store, policy config.ClassifierConfig) *Aggregator {
	return &Aggregator{
		store:          s,
		countOpenStops: policy.CountOpenStopsEnabled(),
		now:            time.Now,
	}
}

// effectiveDuration returns the seconds a stop contributes to downtime
// sums. Open stops use the query time as a stand-in stop instant when
// the policy counts them; otherwise they contribute nothing.
func (a *Aggregator) effectiveDuration(s *model.Stop, now time.Time) int64 {
	if d := s.DurationSeconds(); d != nil {
		return int64(*d)
	}
	if !a.countOpenStops {
		return 0
	}
	startOfDay, err := time.ParseInLocation("2006-01-02", s.Day, now.Location())
	if err != nil {
		return 0
	}
	start := startOfDay.Add(time.Duration(s.StartSeconds()) * time.Second)
	elapsed := int64(now.Sub(start).Seconds())
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// DowntimeByCause sums effective downtime per cause over the matching
// stops. Every cause appears, zero-downtime ones included, ordered
// descending by total.
func (a *Aggregator) DowntimeByCause(ctx context.Context, f Filter) ([]CauseDowntime, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	causes, _, err := a.store.ListCauses(ctx, store.CauseFilter{Page: 1, Limit: 1000})
	if err != nil {
		return nil, err
	}
	stops, err := a.store.StopsInRange(ctx, store.StopRange{From: f.From, To: f.To, Equipe: f.Equipe})
	if err != nil {
		return nil, err
	}

	now := a.now()
	type agg struct {
		total int64
		count int
	}
	byCode := make(map[string]*agg, len(causes))
	for i := range stops {
		s := &stops[i]
		e := byCode[s.CauseCode]
		if e == nil {
			e = &agg{}
			byCode[s.CauseCode] = e
		}
		e.total += a.effectiveDuration(s, now)
		e.count++
	}

	rows := make([]CauseDowntime, 0, len(causes))
	for _, c := range causes {
		row := CauseDowntime{CauseCode: c.Code, CauseName: c.Name, Category: c.Category}
		if e, ok := byCode[c.Code]; ok {
			row.TotalDowntimeSeconds = e.total
			row.Stops = e.count
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalDowntimeSeconds != rows[j].TotalDowntimeSeconds {
			return rows[i].TotalDowntimeSeconds > rows[j].TotalDowntimeSeconds
		}
		return rows[i].CauseCode < rows[j].CauseCode
	})
	return rows, nil
}

// DailySummary groups matching stops by calendar day of their start and
// derives per-day downtime, TRS downtime, capped work time, available
// time and the TRS percentage. Rows are ordered by day descending.
//
// The work-time cap is one shift length when a single équipe is
// selected, a full three-shift day otherwise; downtime is capped
// before subtracting so work time is never negative.
func (a *Aggregator) DailySummary(ctx context.Context, f Filter) ([]DailySummaryRow, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	causes, _, err := a.store.ListCauses(ctx, store.CauseFilter{Page: 1, Limit: 1000})
	if err != nil {
		return nil, err
	}
	affectTRS := make(map[string]bool, len(causes))
	for _, c := range causes {
		affectTRS[c.Code] = c.AffectTRS
	}

	stops, err := a.store.StopsInRange(ctx, store.StopRange{From: f.From, To: f.To, Equipe: f.Equipe})
	if err != nil {
		return nil, err
	}

	now := a.now()
	byDay := make(map[string]*DailySummaryRow)
	for i := range stops {
		s := &stops[i]
		row := byDay[s.Day]
		if row == nil {
			row = &DailySummaryRow{Day: s.Day}
			byDay[s.Day] = row
		}
		row.StopsCount++
		d := a.effectiveDuration(s, now)
		row.TotalDowntimeSeconds += d
		if affectTRS[s.CauseCode] {
			row.TRSDowntimeSeconds += d
		}
	}

	shiftsPerDay := int64(3)
	if f.Equipe != 0 {
		shiftsPerDay = 1
	}
	cappedMax := int64(shift.Length) * shiftsPerDay

	rows := make([]DailySummaryRow, 0, len(byDay))
	for _, row := range byDay {
		capped := row.TotalDowntimeSeconds
		if capped > cappedMax {
			capped = cappedMax
		}
		row.TotalWorkSeconds = cappedMax - capped

		row.AvailableSeconds = a.availableSeconds(row.Day, f.Equipe, cappedMax, now)
		row.TRSPercent = trsPercent(row.AvailableSeconds, row.TRSDowntimeSeconds, cappedMax)
		rows = append(rows, *row)
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].Day > rows[j].Day })
	return rows, nil
}

// availableSeconds is the reference time the line could have run on the
// given day: the full reference for past days, zero for future days,
// and the elapsed portion for today (clamped within the selected
// équipe when one is active).
func (a *Aggregator) availableSeconds(day string, equipe int, reference int64, now time.Time) int64 {
	today := now.Format("2006-01-02")
	switch {
	case day < today:
		return reference
	case day > today:
		return 0
	}

	nowClock := now.Hour()*3600 + now.Minute()*60 + now.Second()
	if equipe != 0 {
		return int64(shift.Elapsed(equipe, nowClock))
	}
	elapsed := int64(nowClock)
	if elapsed > reference {
		return reference
	}
	return elapsed
}

// trsPercent derives the efficiency percentage from available time and
// TRS-impacting downtime, rounded to one decimal.
func trsPercent(available, trsDowntime, reference int64) float64 {
	if reference <= 0 {
		return 0
	}
	if trsDowntime > available {
		trsDowntime = available
	}
	pct := float64(available-trsDowntime) / float64(reference) * 100
	return math.Round(pct*10) / 10
}
