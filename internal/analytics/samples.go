package analytics

import (
	"context"
	"math"
	"sort"

	"line-monitor-backend/internal/store"
)

// MeterageDay is one day of the meterage series.
type MeterageDay struct {
	Day         string  `json:"day"`
	TotalMeters float64 `json:"totalMeters"`
}

// MeterageTotal is the meterage sum over a filtered range.
type MeterageTotal struct {
	From        string  `json:"from"`
	To          string  `json:"to"`
	TotalMeters float64 `json:"totalMeters"`
}

// SpeedDay is one day of the speed series.
type SpeedDay struct {
	Day      string  `json:"day"`
	AvgSpeed float64 `json:"avgSpeed"`
	MaxSpeed float64 `json:"maxSpeed"`
	Samples  int     `json:"samples"`
}

// SpeedSummary aggregates speed samples over a filtered range.
type SpeedSummary struct {
	From     string  `json:"from"`
	To       string  `json:"to"`
	AvgSpeed float64 `json:"avgSpeed"`
	MaxSpeed float64 `json:"maxSpeed"`
	Samples  int     `json:"samples"`
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// MeterageDailySeries sums meterage per calendar day, ascending.
func (a *Aggregator) MeterageDailySeries(ctx context.Context, f Filter) ([]MeterageDay, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	entries, err := a.store.MeterageInRange(ctx, store.SampleRange{From: f.From, To: f.To})
	if err != nil {
		return nil, err
	}

	byDay := make(map[string]float64)
	for _, e := range entries {
		byDay[e.RecordedAt.Format("2006-01-02")] += e.Meters
	}

	rows := make([]MeterageDay, 0, len(byDay))
	for day, total := range byDay {
		rows = append(rows, MeterageDay{Day: day, TotalMeters: round3(total)})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Day < rows[j].Day })
	return rows, nil
}

// MeterageSum totals meterage over the filtered range.
func (a *Aggregator) MeterageSum(ctx context.Context, f Filter) (MeterageTotal, error) {
	if err := f.Validate(); err != nil {
		return MeterageTotal{}, err
	}
	entries, err := a.store.MeterageInRange(ctx, store.SampleRange{From: f.From, To: f.To})
	if err != nil {
		return MeterageTotal{}, err
	}

	var total float64
	for _, e := range entries {
		total += e.Meters
	}
	return MeterageTotal{From: f.From, To: f.To, TotalMeters: round3(total)}, nil
}

// SpeedDailySeries computes average, maximum and sample count per
// calendar day, ascending.
func (a *Aggregator) SpeedDailySeries(ctx context.Context, f Filter) ([]SpeedDay, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	samples, err := a.store.SpeedInRange(ctx, store.SampleRange{From: f.From, To: f.To})
	if err != nil {
		return nil, err
	}

	type agg struct {
		sum, max float64
		count    int
	}
	byDay := make(map[string]*agg)
	for _, s := range samples {
		day := s.RecordedAt.Format("2006-01-02")
		e := byDay[day]
		if e == nil {
			e = &agg{}
			byDay[day] = e
		}
		e.sum += s.Speed
		if s.Speed > e.max {
			e.max = s.Speed
		}
		e.count++
	}

	rows := make([]SpeedDay, 0, len(byDay))
	for day, e := range byDay {
		rows = append(rows, SpeedDay{
			Day:      day,
			AvgSpeed: round3(e.sum / float64(e.count)),
			MaxSpeed: round3(e.max),
			Samples:  e.count,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Day < rows[j].Day })
	return rows, nil
}

// SpeedStats aggregates speed over the filtered range.
func (a *Aggregator) SpeedStats(ctx context.Context, f Filter) (SpeedSummary, error) {
	if err := f.Validate(); err != nil {
		return SpeedSummary{}, err
	}
	samples, err := a.store.SpeedInRange(ctx, store.SampleRange{From: f.From, To: f.To})
	if err != nil {
		return SpeedSummary{}, err
	}

	out := SpeedSummary{From: f.From, To: f.To}
	if len(samples) == 0 {
		return out, nil
	}

	var sum, max float64
	for _, s := range samples {
		sum += s.Speed
		if s.Speed > max {
			max = s.Speed
		}
	}
	out.AvgSpeed = round3(sum / float64(len(samples)))
	out.MaxSpeed = round3(max)
	out.Samples = len(samples)
	return out, nil
}
