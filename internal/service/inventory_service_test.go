package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/showtime-inventory-bench/internal/inventory"
	"github.com/iliyamo/showtime-inventory-bench/internal/logging"
	"github.com/iliyamo/showtime-inventory-bench/internal/metrics"
	"github.com/iliyamo/showtime-inventory-bench/internal/model"
	"github.com/iliyamo/showtime-inventory-bench/internal/queue"
	"github.com/iliyamo/showtime-inventory-bench/internal/repository"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []queue.DatasetEvent
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, ev queue.DatasetEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return f.err
}

type fakeRecorder struct {
	mu   sync.Mutex
	runs []model.Run
}

func (f *fakeRecorder) Record(_ context.Context, run *model.Run) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, *run)
	return nil
}

type fakeCache struct {
	mu  sync.Mutex
	ids []string
}

func (f *fakeCache) InvalidateDataset(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, id)
	return nil
}

type fixture struct {
	svc     *InventoryService
	pub     *fakePublisher
	runs    *fakeRecorder
	cache   *fakeCache
	metrics *metrics.Metrics
}

func newFixture(t *testing.T, maxItems int64) fixture {
	t.Helper()
	f := fixture{
		pub:     &fakePublisher{},
		runs:    &fakeRecorder{},
		cache:   &fakeCache{},
		metrics: metrics.New(prometheus.NewRegistry()),
	}
	f.svc = NewInventoryService(Deps{
		Repo:     repository.NewDatasetRepo(),
		Runs:     f.runs,
		Events:   f.pub,
		Cache:    f.cache,
		Metrics:  f.metrics,
		Log:      logging.Nop(),
		MaxItems: maxItems,
	})
	return f
}

func intp(v int) *int       { return &v }
func strp(v string) *string { return &v }
func boolp(v bool) *bool    { return &v }
func int64p(v int64) *int64 { return &v }

func smallParams() *inventory.RawParams {
	return &inventory.RawParams{
		LanguagesCount:       intp(2),
		FormatsPerLanguage:   intp(2),
		DateStart:            strp("2025-01-01"),
		DateEnd:              strp("2025-01-03"),
		CinemasCount:         intp(4),
		ShowsPerCinemaPerDay: intp(3),
		IncludeSeatClasses:   boolp(true),
		Seed:                 int64p(42),
	}
}

func TestGenerateAndIndex_Lifecycle(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	res, err := f.svc.GenerateAndIndex(ctx, smallParams(), GenerateOptions{DatasetID: "bench"})
	require.NoError(t, err)
	assert.Equal(t, "bench", res.DatasetID)
	assert.Equal(t, 3, res.Counts.Days)
	assert.Equal(t, 2*2*3*4*3, res.Counts.Items)
	assert.GreaterOrEqual(t, res.Timings.TotalMs, res.Timings.GenerateMs)

	langs, err := f.svc.GetLanguages("bench")
	require.NoError(t, err)
	assert.Equal(t, []string{"en", "hi"}, langs)

	formats, err := f.svc.GetFormats("bench", "en")
	require.NoError(t, err)
	assert.Len(t, formats, 2)

	dates, err := f.svc.GetDates("bench", "en", formats[0])
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-01-01", "2025-01-02", "2025-01-03"}, dates)

	slice, err := f.svc.GetInventoryFor("bench", "en", formats[0], dates[0])
	require.NoError(t, err)
	assert.Equal(t, 4, slice.Meta.Theatres)
	assert.Equal(t, 12, slice.Meta.Shows)

	removed, err := f.svc.DestroyDataset(ctx, "bench")
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = f.svc.GetLanguages("bench")
	assert.ErrorIs(t, err, inventory.ErrNotFound)
	assert.ErrorIs(t, err, repository.ErrDatasetNotFound)

	// destroy is idempotent
	removed, err = f.svc.DestroyDataset(ctx, "bench")
	require.NoError(t, err)
	assert.False(t, removed)

	require.Len(t, f.pub.events, 2)
	assert.Equal(t, queue.EventGenerated, f.pub.events[0].Type)
	assert.Equal(t, res.Counts.Items, f.pub.events[0].Items)
	assert.NotEmpty(t, f.pub.events[0].OccurredAt)
	assert.Equal(t, queue.EventDestroyed, f.pub.events[1].Type)
	assert.Equal(t, []string{"bench"}, f.cache.ids)

	require.Len(t, f.runs.runs, 1)
	assert.Equal(t, ModeIndexed, f.runs.runs[0].Mode)
	assert.Contains(t, f.runs.runs[0].ParamsJSON, `"seed":42`)

	assert.Equal(t, float64(0), testutil.ToFloat64(f.metrics.Datasets))
	assert.Equal(t, float64(res.Counts.Items), testutil.ToFloat64(f.metrics.GeneratedItems.WithLabelValues(ModeIndexed)))
}

func TestGenerateAndIndex_GeneratedID(t *testing.T) {
	f := newFixture(t, 0)
	res, err := f.svc.GenerateAndIndex(context.Background(), smallParams(), GenerateOptions{})
	require.NoError(t, err)
	assert.Regexp(t, `^ds_[0-9a-f]{8}$`, res.DatasetID)
}

func TestGenerateAndIndex_Collision(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	_, err := f.svc.GenerateAndIndex(ctx, smallParams(), GenerateOptions{DatasetID: "x"})
	require.NoError(t, err)

	_, err = f.svc.GenerateAndIndex(ctx, smallParams(), GenerateOptions{DatasetID: "x"})
	require.Error(t, err)
	assert.True(t, IsConflict(err))
	assert.Equal(t, float64(1), testutil.ToFloat64(f.metrics.GenerationErrors.WithLabelValues("conflict")))

	raw := smallParams()
	raw.LanguagesCount = intp(1)
	_, err = f.svc.GenerateAndIndex(ctx, raw, GenerateOptions{DatasetID: "x", Overwrite: true})
	require.NoError(t, err)
	langs, err := f.svc.GetLanguages("x")
	require.NoError(t, err)
	assert.Equal(t, []string{"en"}, langs)
	assert.Equal(t, []string{"x"}, f.cache.ids)
}

func TestGenerateAndIndex_Errors(t *testing.T) {
	f := newFixture(t, 100)
	ctx := context.Background()

	_, err := f.svc.GenerateAndIndex(ctx, nil, GenerateOptions{})
	assert.ErrorIs(t, err, inventory.ErrMissingParameter)

	raw := smallParams()
	raw.DateStart = strp("2025-02-30")
	_, err = f.svc.GenerateAndIndex(ctx, raw, GenerateOptions{})
	assert.ErrorIs(t, err, inventory.ErrInvalidDate)

	// 2*2*3*4*3 = 144 > 100
	_, err = f.svc.GenerateAndIndex(ctx, smallParams(), GenerateOptions{DatasetID: "big"})
	assert.ErrorIs(t, err, inventory.ErrInvalidRange)
	assert.Empty(t, f.svc.ListDatasets())
	assert.Empty(t, f.pub.events)
}

func TestGetters_RequireDatasetID(t *testing.T) {
	f := newFixture(t, 0)
	_, err := f.svc.GetLanguages("")
	assert.ErrorIs(t, err, inventory.ErrMissingParameter)
	_, err = f.svc.GetInventoryFor("", "en", "2d", "2025-01-01")
	assert.ErrorIs(t, err, inventory.ErrMissingParameter)
	_, err = f.svc.DestroyDataset(context.Background(), "")
	assert.ErrorIs(t, err, inventory.ErrMissingParameter)
	_, err = f.svc.GetDates("nope", "en", "2d")
	assert.ErrorIs(t, err, inventory.ErrNotFound)
}

func TestGetInventoryFor_MissingLevelsAreEmpty(t *testing.T) {
	f := newFixture(t, 0)
	_, err := f.svc.GenerateAndIndex(context.Background(), smallParams(), GenerateOptions{DatasetID: "a"})
	require.NoError(t, err)

	slice, err := f.svc.GetInventoryFor("a", "zz", "2d", "2025-01-01")
	require.NoError(t, err)
	assert.NotNil(t, slice.Theatres)
	assert.Empty(t, slice.Theatres)
	assert.Zero(t, slice.Meta.Shows)

	formats, err := f.svc.GetFormats("a", "zz")
	require.NoError(t, err)
	assert.NotNil(t, formats)
	assert.Empty(t, formats)
}

func TestListAndClear(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	for _, id := range []string{"b", "a"} {
		_, err := f.svc.GenerateAndIndex(ctx, smallParams(), GenerateOptions{DatasetID: id})
		require.NoError(t, err)
	}
	list := f.svc.ListDatasets()
	require.Len(t, list, 2)
	assert.Equal(t, "a", list[0].ID)
	assert.Equal(t, int32(42), list[0].Params.Seed)

	assert.Equal(t, []string{"a", "b"}, f.svc.ClearDatasets(ctx))
	assert.Empty(t, f.svc.ListDatasets())
	assert.ElementsMatch(t, []string{"a", "b"}, f.cache.ids)
}

func TestGenerateBulk(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()

	flat, err := f.svc.GenerateBulk(ctx, smallParams(), false)
	require.NoError(t, err)
	assert.Nil(t, flat.Tree)
	assert.Len(t, flat.Response.Items, 144)
	assert.Zero(t, flat.Timings.ReduceMs)

	withTree, err := f.svc.GenerateBulk(ctx, smallParams(), true)
	require.NoError(t, err)
	assert.Equal(t, 144, withTree.Tree.Shows())
	assert.Equal(t, f.svc.Reduce(flat.Response), withTree.Tree)

	// bulk runs never touch the registry
	assert.Empty(t, f.svc.ListDatasets())
	require.Len(t, f.runs.runs, 2)
	assert.Equal(t, ModeBulk, f.runs.runs[0].Mode)
	assert.Empty(t, f.runs.runs[0].DatasetID)
}

func TestGenerateAndIndex_MatchesBulk(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	_, err := f.svc.GenerateAndIndex(ctx, smallParams(), GenerateOptions{DatasetID: "same"})
	require.NoError(t, err)
	bulk, err := f.svc.GenerateBulk(ctx, smallParams(), true)
	require.NoError(t, err)

	for _, lang := range []string{"en", "hi"} {
		formats, err := f.svc.GetFormats("same", lang)
		require.NoError(t, err)
		for _, fm := range formats {
			slice, err := f.svc.GetInventoryFor("same", lang, fm, "2025-01-02")
			require.NoError(t, err)
			assert.Equal(t, inventory.SliceOf(bulk.Tree, lang, fm, "2025-01-02"), slice)
		}
	}
}

func TestSideEffectFailuresDoNotFailRequests(t *testing.T) {
	f := newFixture(t, 0)
	f.pub.err = errors.New("broker down")
	_, err := f.svc.GenerateAndIndex(context.Background(), smallParams(), GenerateOptions{DatasetID: "ok"})
	require.NoError(t, err)
	_, err = f.svc.DestroyDataset(context.Background(), "ok")
	require.NoError(t, err)
}

func TestConcurrentGenerateAndQuery(t *testing.T) {
	f := newFixture(t, 0)
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := NewDatasetID()
			_, err := f.svc.GenerateAndIndex(ctx, smallParams(), GenerateOptions{DatasetID: id})
			assert.NoError(t, err)
			_, err = f.svc.GetInventoryFor(id, "en", "2d", "2025-01-01")
			assert.NoError(t, err)
			if i%2 == 0 {
				_, err = f.svc.DestroyDataset(ctx, id)
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()
	assert.Len(t, f.svc.ListDatasets(), 4)
}
