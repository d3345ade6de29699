// Package service implements the two façades over the inventory engine: the
// stateful one, which generates a dataset once, keeps it in the registry and
// answers index and slice lookups against it, and the bulk one, which returns
// a whole generation in a single call and keeps nothing.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/iliyamo/showtime-inventory-bench/internal/inventory"
	"github.com/iliyamo/showtime-inventory-bench/internal/metrics"
	"github.com/iliyamo/showtime-inventory-bench/internal/model"
	"github.com/iliyamo/showtime-inventory-bench/internal/queue"
	"github.com/iliyamo/showtime-inventory-bench/internal/repository"
)

// Run modes recorded in telemetry and metrics.
const (
	ModeIndexed = "indexed"
	ModeBulk    = "bulk"
)

// sideEffectTimeout bounds telemetry writes and event publishing.
const sideEffectTimeout = 5 * time.Second

// EventPublisher receives dataset lifecycle events.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.DatasetEvent) error
}

// RunRecorder persists run telemetry.
type RunRecorder interface {
	Record(ctx context.Context, run *model.Run) error
}

// CacheInvalidator drops cached responses derived from a dataset.
type CacheInvalidator interface {
	InvalidateDataset(ctx context.Context, datasetID string) error
}

// Deps are the collaborators of an InventoryService. Only Repo is required;
// every other field may be left zero.
type Deps struct {
	Repo     *repository.DatasetRepo
	Runs     RunRecorder
	Events   EventPublisher
	Cache    CacheInvalidator
	Metrics  *metrics.Metrics
	Log      zerolog.Logger
	MaxItems int64 // 0 disables the limit
}

// InventoryService is safe for concurrent use; all state lives in the registry.
type InventoryService struct {
	repo     *repository.DatasetRepo
	runs     RunRecorder
	events   EventPublisher
	cache    CacheInvalidator
	metrics  *metrics.Metrics
	log      zerolog.Logger
	maxItems int64

	now   func() time.Time
	newID func() string
}

// NewInventoryService wires a service from d.
func NewInventoryService(d Deps) *InventoryService {
	repo := d.Repo
	if repo == nil {
		repo = repository.NewDatasetRepo()
	}
	return &InventoryService{
		repo:     repo,
		runs:     d.Runs,
		events:   d.Events,
		cache:    d.Cache,
		metrics:  d.Metrics,
		log:      d.Log,
		maxItems: d.MaxItems,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    NewDatasetID,
	}
}

// NewDatasetID returns "ds_" followed by the first 8 hex characters of a
// random UUID.
func NewDatasetID() string {
	return "ds_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// GenerateOptions control registry insertion.
type GenerateOptions struct {
	DatasetID string `json:"datasetId"`
	Overwrite bool   `json:"overwrite"`
}

// GenerateResult is returned by GenerateAndIndex.
type GenerateResult struct {
	DatasetID string        `json:"datasetId"`
	Timings   model.Timings `json:"timings"`
	Counts    model.Counts  `json:"counts"`
}

// BulkResult is returned by GenerateBulk. Tree is only set when the caller
// asked for the nested shape.
type BulkResult struct {
	Response *inventory.Response `json:"response"`
	Tree     inventory.Tree      `json:"tree,omitempty"`
	Timings  model.Timings       `json:"timings"`
}

// GenerateAndIndex normalizes raw, generates the flat inventory, reduces it
// into the nested tree, builds the indexes and registers the dataset. The
// registry is only touched once everything else succeeded.
func (s *InventoryService) GenerateAndIndex(ctx context.Context, raw *inventory.RawParams, opts GenerateOptions) (*GenerateResult, error) {
	start := time.Now()

	p, err := s.prepare(raw)
	if err != nil {
		return nil, s.fail(err)
	}
	id := strings.TrimSpace(opts.DatasetID)
	if id == "" {
		id = s.newID()
	}
	if !opts.Overwrite && s.repo.Exists(id) {
		return nil, s.fail(fmt.Errorf("%w: %s", repository.ErrDatasetExists, id))
	}

	t0 := time.Now()
	resp, err := inventory.Generate(p)
	if err != nil {
		return nil, s.fail(err)
	}
	t1 := time.Now()
	tree := inventory.BuildTree(resp)
	t2 := time.Now()
	idx := inventory.BuildIndexes(tree)
	t3 := time.Now()

	ds := &model.Dataset{
		ID:        id,
		Params:    p,
		Tree:      tree,
		Indexes:   idx,
		Counts:    model.Counts{Items: len(resp.Items), Days: resp.Days},
		CreatedAt: s.now(),
	}
	ds.Timings = model.Timings{
		GenerateMs: t1.Sub(t0).Milliseconds(),
		ReduceMs:   t2.Sub(t1).Milliseconds(),
		IndexMs:    t3.Sub(t2).Milliseconds(),
	}
	total := time.Since(start)
	ds.Timings.TotalMs = total.Milliseconds()

	if err := s.repo.Create(ds, opts.Overwrite); err != nil {
		return nil, s.fail(fmt.Errorf("%w: %s", err, id))
	}
	if opts.Overwrite {
		s.invalidate(ctx, id)
	}

	s.metrics.ObservePhase("generate", t1.Sub(t0))
	s.metrics.ObservePhase("reduce", t2.Sub(t1))
	s.metrics.ObservePhase("index", t3.Sub(t2))
	s.metrics.ObservePhase("total", total)
	s.metrics.AddItems(ModeIndexed, ds.Counts.Items)
	s.metrics.SetDatasets(s.repo.Len())

	s.log.Info().
		Str("dataset_id", id).
		Int("items", ds.Counts.Items).
		Int("days", ds.Counts.Days).
		Int64("generate_ms", ds.Timings.GenerateMs).
		Int64("reduce_ms", ds.Timings.ReduceMs).
		Int64("index_ms", ds.Timings.IndexMs).
		Int64("total_ms", ds.Timings.TotalMs).
		Msg("dataset generated")

	s.record(ctx, id, ModeIndexed, p, ds.Counts, ds.Timings)
	timings := ds.Timings
	s.publish(ctx, queue.DatasetEvent{
		Type:      queue.EventGenerated,
		DatasetID: id,
		Items:     ds.Counts.Items,
		Days:      ds.Counts.Days,
		Timings:   &timings,
	})

	return &GenerateResult{DatasetID: id, Timings: ds.Timings, Counts: ds.Counts}, nil
}

// GetLanguages returns the sorted language codes of a dataset.
func (s *InventoryService) GetLanguages(datasetID string) ([]string, error) {
	ds, err := s.dataset(datasetID)
	if err != nil {
		return nil, err
	}
	s.metrics.Query("languages")
	return ds.Indexes.LanguageList(), nil
}

// GetFormats returns the sorted format codes of lang; an unknown language
// yields an empty list.
func (s *InventoryService) GetFormats(datasetID, lang string) ([]string, error) {
	ds, err := s.dataset(datasetID)
	if err != nil {
		return nil, err
	}
	s.metrics.Query("formats")
	return ds.Indexes.Formats(lang), nil
}

// GetDates returns the sorted dates of (lang, format).
func (s *InventoryService) GetDates(datasetID, lang, format string) ([]string, error) {
	ds, err := s.dataset(datasetID)
	if err != nil {
		return nil, err
	}
	s.metrics.Query("dates")
	return ds.Indexes.Dates(lang, format), nil
}

// GetInventoryFor returns the theatre/showtime slice of one triple. Missing
// levels produce an empty slice, not an error.
func (s *InventoryService) GetInventoryFor(datasetID, lang, format, date string) (inventory.Slice, error) {
	ds, err := s.dataset(datasetID)
	if err != nil {
		return inventory.Slice{}, err
	}
	s.metrics.Query("inventory")
	return inventory.SliceOf(ds.Tree, lang, format, date), nil
}

// DestroyDataset removes a dataset. Destroying an unknown id is not an
// error; the return value reports whether anything was removed.
func (s *InventoryService) DestroyDataset(ctx context.Context, datasetID string) (bool, error) {
	if datasetID == "" {
		return false, fmt.Errorf("%w: datasetId", inventory.ErrMissingParameter)
	}
	removed := s.repo.Delete(datasetID)
	if !removed {
		return false, nil
	}
	s.invalidate(ctx, datasetID)
	s.metrics.SetDatasets(s.repo.Len())
	s.log.Info().Str("dataset_id", datasetID).Msg("dataset destroyed")
	s.publish(ctx, queue.DatasetEvent{Type: queue.EventDestroyed, DatasetID: datasetID})
	return true, nil
}

// ListDatasets returns the summaries of all registered datasets sorted by id.
func (s *InventoryService) ListDatasets() []model.Summary {
	return s.repo.List()
}

// ClearDatasets empties the registry and returns the removed ids.
func (s *InventoryService) ClearDatasets(ctx context.Context) []string {
	ids := s.repo.Clear()
	for _, id := range ids {
		s.invalidate(ctx, id)
		s.publish(ctx, queue.DatasetEvent{Type: queue.EventDestroyed, DatasetID: id})
	}
	s.metrics.SetDatasets(0)
	if len(ids) > 0 {
		s.log.Info().Int("datasets", len(ids)).Msg("registry cleared")
	}
	return ids
}

// GenerateBulk runs one generation and returns the flat response without
// touching the registry. With withTree the response is also reduced into the
// nested tree and ReduceMs is measured.
func (s *InventoryService) GenerateBulk(ctx context.Context, raw *inventory.RawParams, withTree bool) (*BulkResult, error) {
	start := time.Now()
	p, err := s.prepare(raw)
	if err != nil {
		return nil, s.fail(err)
	}

	t0 := time.Now()
	resp, err := inventory.Generate(p)
	if err != nil {
		return nil, s.fail(err)
	}
	t1 := time.Now()
	out := &BulkResult{Response: resp}
	out.Timings.GenerateMs = t1.Sub(t0).Milliseconds()
	s.metrics.ObservePhase("generate", t1.Sub(t0))
	if withTree {
		out.Tree = inventory.BuildTree(resp)
		d := time.Since(t1)
		out.Timings.ReduceMs = d.Milliseconds()
		s.metrics.ObservePhase("reduce", d)
	}
	total := time.Since(start)
	out.Timings.TotalMs = total.Milliseconds()
	s.metrics.ObservePhase("total", total)
	s.metrics.AddItems(ModeBulk, len(resp.Items))

	s.log.Debug().
		Int("items", len(resp.Items)).
		Bool("tree", withTree).
		Int64("total_ms", out.Timings.TotalMs).
		Msg("bulk generation")
	s.record(ctx, "", ModeBulk, p, model.Counts{Items: len(resp.Items), Days: resp.Days}, out.Timings)
	return out, nil
}

// Reduce folds a flat response into the nested tree.
func (s *InventoryService) Reduce(resp *inventory.Response) inventory.Tree {
	return inventory.BuildTree(resp)
}

// prepare normalizes raw and enforces the item limit.
func (s *InventoryService) prepare(raw *inventory.RawParams) (inventory.GenerateParams, error) {
	p, err := inventory.Normalize(raw)
	if err != nil {
		return p, err
	}
	if s.maxItems > 0 {
		dates, err := inventory.ExpandDates(p.DateStart, p.DateEnd)
		if err != nil {
			return p, err
		}
		if n := p.ExpectedItems(len(dates)); n > s.maxItems {
			return p, fmt.Errorf("%w: %d expected items exceed the limit of %d", inventory.ErrInvalidRange, n, s.maxItems)
		}
	}
	return p, nil
}

func (s *InventoryService) dataset(id string) (*model.Dataset, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: datasetId", inventory.ErrMissingParameter)
	}
	ds, err := s.repo.Get(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err, id)
	}
	return ds, nil
}

// IsConflict reports whether err is a dataset id collision.
func IsConflict(err error) bool { return errors.Is(err, repository.ErrDatasetExists) }

func (s *InventoryService) fail(err error) error {
	code := inventory.Code(err)
	if code == "internal" && IsConflict(err) {
		code = "conflict"
	}
	s.metrics.GenerationFailed(code)
	s.log.Warn().Err(err).Str("code", code).Msg("generation rejected")
	return err
}

func (s *InventoryService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidateDataset(ctx, id); err != nil {
		s.log.Warn().Err(err).Str("dataset_id", id).Msg("cache invalidation failed")
	}
}

func (s *InventoryService) record(ctx context.Context, id, mode string, p inventory.GenerateParams, counts model.Counts, t model.Timings) {
	if s.runs == nil {
		return
	}
	params, err := json.Marshal(p)
	if err != nil {
		s.log.Error().Err(err).Msg("marshal run params")
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()
	run := &model.Run{
		DatasetID:  id,
		Mode:       mode,
		ParamsJSON: string(params),
		Items:      counts.Items,
		Days:       counts.Days,
		Timings:    t,
		CreatedAt:  s.now(),
	}
	if err := s.runs.Record(ctx, run); err != nil {
		s.log.Warn().Err(err).Str("mode", mode).Msg("run telemetry not recorded")
	}
}

func (s *InventoryService) publish(ctx context.Context, ev queue.DatasetEvent) {
	if s.events == nil {
		return
	}
	ev.OccurredAt = s.now().Format(time.RFC3339)
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sideEffectTimeout)
	defer cancel()
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn().Err(err).Str("type", ev.Type).Str("dataset_id", ev.DatasetID).Msg("event not published")
	}
}
