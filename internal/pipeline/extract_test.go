package pipeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engerrors "go-metric-engine/internal/errors"
	"go-metric-engine/internal/model"
)

// Friday 2024-03-15 14:30 UTC
var fixedNow = time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

func testEnv() runEnv {
	return runEnv{now: fixedNow, loc: time.UTC, snap: model.NewSnapshot(nil)}
}

func daysAgo(n int) string {
	return fixedNow.AddDate(0, 0, -n).Format(time.RFC3339)
}

func TestExtractDistribution_Example(t *testing.T) {
	records := []model.Record{{"category": "A"}, {"category": "A"}, {"category": "B"}}

	rows := extractDistribution(records, "category")
	require.Len(t, rows, 2)
	assert.Equal(t, "A", rows[0]["name"])
	assert.Equal(t, 2, rows[0]["value"])
	assert.InDelta(t, 66.67, rows[0]["percentage"], 0.01)
	assert.Equal(t, "B", rows[1]["name"])
	assert.Equal(t, 1, rows[1]["value"])
	assert.InDelta(t, 33.33, rows[1]["percentage"], 0.01)
}

func TestExtractDistribution_PartitionsRecords(t *testing.T) {
	records := []model.Record{
		{"agent": "x"}, {"agent": ""}, {"agent": nil}, {}, {"agent": "y"}, {"agent": "x"}, {"agent": 7},
	}

	rows := extractDistribution(records, "agent")
	total := 0
	pct := 0.0
	names := map[string]int{}
	for _, r := range rows {
		total += r["value"].(int)
		pct += r["percentage"].(float64)
		names[r["name"].(string)] = r["value"].(int)
	}
	assert.Equal(t, len(records), total)
	assert.InDelta(t, 100, pct, 1e-9)
	assert.Equal(t, 3, names["Unknown"])
	assert.Equal(t, 1, names["7"])

	for i := 1; i < len(rows); i++ {
		assert.GreaterOrEqual(t, rows[i-1]["value"].(int), rows[i]["value"].(int))
	}
}

func TestExtractDistribution_Empty(t *testing.T) {
	assert.Empty(t, extractDistribution(nil, "agent"))
}

func TestExtractTopN_StableTies(t *testing.T) {
	records := []model.Record{
		{"lang": "c"}, {"lang": "b"}, {"lang": "a"}, {"lang": "d"}, {"lang": "d"},
	}

	rows := extractTopN(records, "lang", 3)
	require.Len(t, rows, 3)
	assert.Equal(t, "d", rows[0]["name"])
	assert.Equal(t, 2, rows[0]["count"])
	assert.Equal(t, "c", rows[1]["name"])
	assert.Equal(t, "b", rows[2]["name"])
	assert.InDelta(t, 40.0, rows[0]["percentage"], 1e-9)

	assert.Len(t, extractTopN(records, "lang", 10), 4)
	assert.Empty(t, extractTopN(records, "lang", 0))
}

func TestExtractVolume_AllToday(t *testing.T) {
	var records []model.Record
	for i := 0; i < 5; i++ {
		records = append(records, model.Record{"dateOfIncident": fixedNow.Add(-time.Duration(i) * time.Hour).Format(time.RFC3339)})
	}

	got := extractVolume(records, nil, testEnv())
	assert.Equal(t, model.Row{"total": 5, "today": 5, "thisWeek": 5, "thisMonth": 5}, got)
}

func TestExtractVolume_Buckets(t *testing.T) {
	records := []model.Record{
		{"dateOfIncident": daysAgo(0)},
		{"dateOfIncident": daysAgo(5)},
		{"dateOfIncident": daysAgo(20)},
		{"_creationTime": float64(fixedNow.UnixMilli())}, // fallback field, epoch millis
		{"dateOfIncident": "garbage"},
		{},
	}

	got := extractVolume(records, nil, testEnv())
	assert.Equal(t, 6, got["total"])
	assert.Equal(t, 2, got["today"])
	assert.Equal(t, 3, got["thisWeek"])
	assert.Equal(t, 3, got["thisMonth"])
}

func TestExtractVolume_CustomFields(t *testing.T) {
	records := []model.Record{{"opened": daysAgo(0)}, {"dateOfIncident": daysAgo(0)}}
	got := extractVolume(records, model.Params{"field": "opened", "fallbackField": ""}, testEnv())
	assert.Equal(t, 1, got["today"])
}

func TestExtractTimeSeries_DenseDays(t *testing.T) {
	records := []model.Record{
		{"created": daysAgo(0)},
		{"created": daysAgo(0)},
		{"created": daysAgo(3)},
		{"created": daysAgo(29)},
		{"created": daysAgo(30)}, // outside a 30 day window
		{"created": "not a date"},
		{},
	}

	rows, err := extractTimeSeries(records, model.Params{"field": "created", "days": 30}, testEnv())
	require.NoError(t, err)
	require.Len(t, rows, 30)

	assert.Equal(t, "2024-02-15", rows[0]["date"])
	assert.Equal(t, 1, rows[0]["value"])
	last := rows[len(rows)-1]
	assert.Equal(t, "2024-03-15", last["date"])
	assert.Equal(t, "Mar 15", last["label"])
	assert.Equal(t, 2, last["value"])
	assert.Equal(t, 1, rows[26]["value"])

	sum := 0
	for _, r := range rows {
		v := r["value"].(int)
		assert.GreaterOrEqual(t, v, 0)
		sum += v
	}
	assert.Equal(t, 4, sum)
}

func TestExtractTimeSeries_LengthIndependentOfData(t *testing.T) {
	for _, days := range []int{1, 7, 30, 90} {
		rows, err := extractTimeSeries(nil, model.Params{"field": "created", "days": days}, testEnv())
		require.NoError(t, err)
		assert.Len(t, rows, days)
	}
}

func TestExtractTimeSeries_Granularities(t *testing.T) {
	tests := []struct {
		groupBy string
		days    int
		want    int
		first   string
		label   string
	}{
		{"day", 30, 30, "2024-02-15", "Feb 15"},
		{"week", 30, 5, "2024-02-11", "Week of Feb 11"},
		{"month", 30, 2, "2024-02", "Feb 2024"},
		{"hour", 1, 15, "2024-03-15T00", "12 AM"},
		// 29 full days plus hours 00..14 of today
		{"hour", 30, 29*24 + 15, "2024-02-15T00", "12 AM"},
	}
	for _, tt := range tests {
		t.Run(tt.groupBy, func(t *testing.T) {
			rows, err := extractTimeSeries(nil, model.Params{"field": "created", "days": tt.days, "groupBy": tt.groupBy}, testEnv())
			require.NoError(t, err)
			require.Len(t, rows, tt.want)
			assert.Equal(t, tt.first, rows[0]["date"])
			assert.Equal(t, tt.label, rows[0]["label"])
		})
	}
}

func TestExtractTimeSeries_Location(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	env := runEnv{now: time.Date(2024, 3, 15, 2, 0, 0, 0, time.UTC), loc: ny}

	// 01:00 UTC on the 15th is still the 14th in New York.
	records := []model.Record{{"created": "2024-03-15T01:00:00Z"}}
	rows, err := extractTimeSeries(records, model.Params{"field": "created", "days": 2}, env)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024-03-14", rows[1]["date"])
	assert.Equal(t, 1, rows[1]["value"])
}

func TestExtractTimeSeries_BadParams(t *testing.T) {
	_, err := extractTimeSeries(nil, model.Params{"days": 3}, testEnv())
	assert.True(t, engerrors.IsCategory(err, engerrors.CategoryConfig))

	_, err = extractTimeSeries(nil, model.Params{"field": "x", "days": 0}, testEnv())
	assert.Error(t, err)

	_, err = extractTimeSeries(nil, model.Params{"field": "x", "groupBy": "year"}, testEnv())
	assert.Error(t, err)

	_, err = extractTimeSeries(nil, model.Params{"field": "x", "days": maxSeriesDays + 1}, testEnv())
	assert.True(t, engerrors.IsCategory(err, engerrors.CategoryConfig))

	rows, err := extractTimeSeries(nil, model.Params{"field": "x", "days": maxSeriesDays}, testEnv())
	require.NoError(t, err)
	assert.Len(t, rows, maxSeriesDays)
}

func TestExtractTimeSeries_HoursStopAtCurrentHour(t *testing.T) {
	records := []model.Record{
		{"created": "2024-03-15T10:15:00Z"},
		{"created": "2024-03-15T14:45:00Z"},
		{"created": "2024-03-15T20:00:00Z"},
	}
	rows, err := extractTimeSeries(records, model.Params{"field": "created", "days": 1, "groupBy": "hour"}, testEnv())
	require.NoError(t, err)
	require.Len(t, rows, 15)
	assert.Equal(t, "2024-03-15T14", rows[14]["date"])
	assert.Equal(t, 1, rows[10]["value"])
	assert.Equal(t, 1, rows[14]["value"])

	total := 0
	for _, r := range rows {
		total += r["value"].(int)
	}
	assert.Equal(t, 2, total)
}

func TestExtractTimeSeries_HoursAcrossFallBack(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	// 2024-11-03 03:30 EST; clocks went from 02:00 EDT back to 01:00 EST
	env := runEnv{now: time.Date(2024, 11, 3, 8, 30, 0, 0, time.UTC), loc: ny}
	records := []model.Record{
		{"created": "2024-11-03T05:15:00Z"}, // 01:15 EDT
		{"created": "2024-11-03T05:45:00Z"}, // 01:45 EDT
		{"created": "2024-11-03T06:15:00Z"}, // 01:15 EST
	}
	rows, err := extractTimeSeries(records, model.Params{"field": "created", "days": 1, "groupBy": "hour"}, env)
	require.NoError(t, err)

	dates := make([]interface{}, 0, len(rows))
	for _, r := range rows {
		dates = append(dates, r["date"])
	}
	assert.Equal(t, []interface{}{
		"2024-11-03T00", "2024-11-03T01", "2024-11-03T01-05:00", "2024-11-03T02", "2024-11-03T03",
	}, dates)
	assert.Equal(t, 2, rows[1]["value"])
	assert.Equal(t, 1, rows[2]["value"])
	assert.Equal(t, 0, rows[3]["value"])
}

func TestExtractComparison(t *testing.T) {
	series := []model.Row{{"value": 2}, {"value": 2}, {"value": 2}, {"value": 2}}
	env := testEnv()
	env.snap = model.NewSnapshot(map[string]interface{}{"volume-trend": series})

	records := []model.Record{
		{"dateOfIncident": daysAgo(0)}, {"dateOfIncident": daysAgo(0)},
		{"dateOfIncident": daysAgo(0)}, {"dateOfIncident": daysAgo(0)},
	}
	card, err := extractComparison(records, model.Params{"against": "volume-trend", "label": "Issues Today"}, env)
	require.NoError(t, err)
	assert.Equal(t, 4, card["value"])
	assert.Equal(t, "Issues Today", card["label"])
	trend := card["trend"].(model.Row)
	assert.InDelta(t, 100.0, trend["value"], 1e-9)
	assert.Equal(t, "up", trend["direction"])
	assert.Equal(t, "vs daily avg", trend["label"])
}

func TestExtractComparison_MissingReferenceIsNeutral(t *testing.T) {
	card, err := extractComparison(nil, model.Params{"against": "volume-trend"}, testEnv())
	require.NoError(t, err)
	assert.Equal(t, 0, card["value"])
	assert.Equal(t, "neutral", card["trend"].(model.Row)["direction"])

	_, err = extractComparison(nil, model.Params{"bucket": "yesterday"}, testEnv())
	assert.Error(t, err)
}

func TestExtractAggregation(t *testing.T) {
	records := []model.Record{
		{"agent": "b", "duration": 10, "status": "open"},
		{"agent": "a", "duration": 4, "status": "open"},
		{"agent": "b", "duration": 20, "status": "closed"},
		{"duration": 1},
	}

	rows, err := extractAggregation(records, model.Params{
		"groupBy": "agent",
		"metrics": []interface{}{"count", "sum", "avg", "min", "max", "first", "last"},
		"fields":  []interface{}{"duration"},
	})
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, "Unknown", rows[0]["group"])
	assert.Equal(t, "a", rows[1]["group"])
	b := rows[2]
	assert.Equal(t, "b", b["group"])
	assert.Equal(t, 2, b["count"])
	assert.Equal(t, 30.0, b["sum_duration"])
	assert.Equal(t, 15.0, b["avg_duration"])
	assert.Equal(t, 10.0, b["min_duration"])
	assert.Equal(t, 20.0, b["max_duration"])
	assert.Equal(t, 10, b["first_duration"])
	assert.Equal(t, 20, b["last_duration"])
}

func TestExtractAggregation_Errors(t *testing.T) {
	_, err := extractAggregation(nil, model.Params{})
	assert.Error(t, err)
	_, err = extractAggregation(nil, model.Params{"groupBy": "a", "metrics": "p99"})
	assert.Error(t, err)
}

func TestExtract_DispatchAndInline(t *testing.T) {
	_, err := extract(model.ExtractorSpec{Type: "nope"}, nil, testEnv())
	assert.True(t, engerrors.IsCategory(err, engerrors.CategoryConfig))

	_, err = extract(model.ExtractorSpec{Type: "distribution"}, nil, testEnv())
	assert.Error(t, err)

	v, err := extract(model.ExtractorSpec{
		Type: "nope",
		Func: func(records []model.Record, params model.Params, snap model.Snapshot) (interface{}, error) {
			return len(records), nil
		},
	}, []model.Record{{}, {}}, testEnv())
	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestParseExtractorKind(t *testing.T) {
	for name, kind := range extractorNames {
		got, err := ParseExtractorKind(name)
		require.NoError(t, err)
		assert.Equal(t, kind, got)
		assert.Equal(t, name, kind.String())
	}
}
