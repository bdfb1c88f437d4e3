package pipeline

import (
	"fmt"
	"time"

	engerrors "go-metric-engine/internal/errors"
	"go-metric-engine/internal/model"
)

// Granularity is the bucket width for time grouping.
type Granularity int

const (
	ByHour Granularity = iota + 1
	ByDay
	ByWeek
	ByMonth
	ByYear
)

func ParseGranularity(name string, allowYear bool) (Granularity, error) {
	switch name {
	case "hour":
		return ByHour, nil
	case "", "day":
		return ByDay, nil
	case "week":
		return ByWeek, nil
	case "month":
		return ByMonth, nil
	case "year":
		if allowYear {
			return ByYear, nil
		}
	}
	return 0, engerrors.InvalidParam("groupBy", "unsupported granularity "+name)
}

// bucketStart truncates t to the start of its period in t's location. Weeks start on Sunday.
// Hours are truncated on the instant, so the repeated hour of a DST fall-back is its own bucket.
func (g Granularity) bucketStart(t time.Time) time.Time {
	y, m, d := t.Date()
	loc := t.Location()
	switch g {
	case ByHour:
		_, offset := t.Zone()
		shift := time.Duration(offset) * time.Second
		return t.Add(shift).Truncate(time.Hour).Add(-shift).In(loc)
	case ByWeek:
		return time.Date(y, m, d-int(t.Weekday()), 0, 0, 0, 0, loc)
	case ByMonth:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	case ByYear:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	}
}

func (g Granularity) key(start time.Time) string {
	switch g {
	case ByHour:
		return start.Format("2006-01-02T15")
	case ByMonth:
		return start.Format("2006-01")
	case ByYear:
		return start.Format("2006")
	default:
		return start.Format("2006-01-02")
	}
}

func (g Granularity) label(start time.Time) string {
	switch g {
	case ByHour:
		return start.Format("3 PM")
	case ByWeek:
		return "Week of " + start.Format("Jan 2")
	case ByMonth:
		return start.Format("Jan 2006")
	case ByYear:
		return start.Format("2006")
	default:
		return start.Format("Jan 2")
	}
}

// next returns the start of the following period.
func (g Granularity) next(start time.Time) time.Time {
	switch g {
	case ByHour:
		return start.Add(time.Hour)
	case ByWeek:
		return start.AddDate(0, 0, 7)
	case ByMonth:
		return start.AddDate(0, 1, 0)
	case ByYear:
		return start.AddDate(1, 0, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

// window is the span of whole calendar days ending with today.
type window struct {
	start time.Time // midnight, days-1 days before today
	end   time.Time // midnight after today
}

func dayWindow(now time.Time, days int) window {
	today := startOfDay(now)
	return window{start: today.AddDate(0, 0, -(days - 1)), end: today.AddDate(0, 0, 1)}
}

func (w window) contains(t time.Time) bool {
	return !t.Before(w.start) && t.Before(w.end)
}

// clampHours ends an hourly window with the current hour.
func (w window) clampHours(now time.Time) window {
	if end := ByHour.bucketStart(now).Add(time.Hour); end.Before(w.end) {
		w.end = end
	}
	return w
}

// periods lists every bucket start overlapping the window, in order.
func (g Granularity) periods(w window) []time.Time {
	var out []time.Time
	for p := g.bucketStart(w.start); p.Before(w.end); p = g.next(p) {
		out = append(out, p)
	}
	return out
}

// maxSeriesDays bounds the window of one time series.
const maxSeriesDays = 3660

// extractTimeSeries emits a dense, chronological series of counts per period over the `days`
// calendar days ending today. Day granularity yields exactly `days` rows; hour, week and month
// yield one row per period overlapping the window (hours stop at the current hour, so 30 days
// by hour is 29*24 hours plus today's elapsed hours). Records outside the window are dropped.
func extractTimeSeries(records []model.Record, p model.Params, env runEnv) ([]model.Row, error) {
	field, err := requiredField(p, "field")
	if err != nil {
		return nil, err
	}
	days := p.Int("days", 30)
	if days <= 0 {
		return nil, engerrors.InvalidParam("days", "must be positive")
	}
	if days > maxSeriesDays {
		return nil, engerrors.InvalidParam("days", fmt.Sprintf("must be at most %d", maxSeriesDays))
	}
	g, err := ParseGranularity(p.String("groupBy", "day"), false)
	if err != nil {
		return nil, err
	}
	fallback := p.String("fallbackField", "")

	now := env.now.In(env.loc)
	w := dayWindow(now, days)
	if g == ByHour {
		w = w.clampHours(now)
	}

	counts := make(map[int64]int)
	for _, rec := range records {
		ts, ok := recordTime(rec, field, fallback, env.loc)
		if !ok {
			continue
		}
		ts = ts.In(env.loc)
		if !w.contains(ts) {
			continue
		}
		counts[g.bucketStart(ts).Unix()]++
	}

	periods := g.periods(w)
	out := make([]model.Row, 0, len(periods))
	seen := make(map[string]bool, len(periods))
	for _, start := range periods {
		key := g.key(start)
		if seen[key] {
			// repeated wall-clock hour after a DST fall-back
			key += start.Format("-07:00")
		}
		seen[key] = true
		out = append(out, model.Row{
			"date":  key,
			"value": counts[start.Unix()],
			"label": g.label(start),
		})
	}
	return out, nil
}
