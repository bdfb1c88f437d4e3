package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	engerrors "go-metric-engine/internal/errors"
	"go-metric-engine/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "metrics.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestRecords_SaveListCountDelete(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	n, err := s.SaveRecords(ctx, []model.Record{
		{"id": "r1", "category": "Billing", "duration": 12.5},
		{"id": "r2", "category": "Outage"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Upsert keeps the row count stable.
	_, err = s.SaveRecords(ctx, []model.Record{{"id": "r1", "category": "Refund"}})
	require.NoError(t, err)

	count, err := s.CountRecords(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	all, err := s.ListRecords(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Refund", all[0]["category"])
	assert.NotContains(t, all[0], "duration")

	first, err := s.ListRecords(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, first, 1)

	require.NoError(t, s.DeleteRecord(ctx, "r2"))
	assert.ErrorIs(t, s.DeleteRecord(ctx, "r2"), ErrNotFound)
}

func TestSaveRecords_RequiresID(t *testing.T) {
	s := openTestStore(t)
	_, err := s.SaveRecords(context.Background(), []model.Record{{"category": "Billing"}})
	require.Error(t, err)
	assert.True(t, engerrors.IsCategory(err, engerrors.CategoryStorage))

	count, err := s.CountRecords(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestDashboards_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	set := &model.DeclarationSet{
		Name:    "ops",
		Version: "1",
		Metrics: []model.MetricDeclaration{
			{ID: "total", Category: model.CategoryVolume, Extractor: model.ExtractorSpec{Type: "volume"}},
			{
				ID:           "top",
				Dependencies: []string{"total"},
				Extractor:    model.ExtractorSpec{Type: "distribution", Params: model.Params{"field": "agent"}},
				Transforms:   []model.TransformSpec{{Type: "topN", Params: model.Params{"n": 5}}},
			},
		},
	}
	require.NoError(t, s.SaveDashboard(ctx, set))

	got, err := s.GetDashboard(ctx, "ops")
	require.NoError(t, err)
	assert.Equal(t, []string{"total", "top"}, got.IDs())
	top, ok := got.Find("top")
	require.True(t, ok)
	assert.Equal(t, 5, top.Transforms[0].Params.Int("n", 0))
	assert.Equal(t, "agent", top.Extractor.Params.String("field", ""))

	set.Version = "2"
	require.NoError(t, s.SaveDashboard(ctx, set))
	list, err := s.ListDashboards(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "2", list[0].Version)
	assert.Equal(t, 2, list[0].Metrics)

	_, err = s.GetDashboard(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Error(t, s.SaveDashboard(ctx, &model.DeclarationSet{}))
}
