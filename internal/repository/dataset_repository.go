package repository

import (
	"sort"
	"sync"

	"github.com/iliyamo/showtime-inventory-bench/internal/model"
)

// DatasetRepo is the in-memory dataset registry. It is constructed and owned
// by the caller (one per server, one per test) and guarded by a RWMutex, so
// requests for different dataset ids may run concurrently. There is no
// eviction; entries live until Delete or Clear.
type DatasetRepo struct {
	mu       sync.RWMutex
	datasets map[string]*model.Dataset
}

// NewDatasetRepo returns an empty registry.
func NewDatasetRepo() *DatasetRepo {
	return &DatasetRepo{datasets: make(map[string]*model.Dataset)}
}

// Create stores ds under ds.ID. An existing entry is replaced only when
// overwrite is true; otherwise ErrDatasetExists is returned and the registry
// is left unchanged.
func (r *DatasetRepo) Create(ds *model.Dataset, overwrite bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, taken := r.datasets[ds.ID]; taken && !overwrite {
		return ErrDatasetExists
	}
	r.datasets[ds.ID] = ds
	return nil
}

// Exists reports whether id is registered.
func (r *DatasetRepo) Exists(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.datasets[id]
	return ok
}

// Get returns the dataset registered under id or ErrDatasetNotFound. The
// returned dataset must be treated as read-only.
func (r *DatasetRepo) Get(id string) (*model.Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ds, ok := r.datasets[id]
	if !ok {
		return nil, ErrDatasetNotFound
	}
	return ds, nil
}

// Delete removes id and reports whether it was present. Deleting an unknown
// id is a no-op.
func (r *DatasetRepo) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.datasets[id]
	delete(r.datasets, id)
	return ok
}

// List returns summaries of every dataset ordered by id.
func (r *DatasetRepo) List() []model.Summary {
	r.mu.RLock()
	out := make([]model.Summary, 0, len(r.datasets))
	for _, ds := range r.datasets {
		out = append(out, ds.Summarize())
	}
	r.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Len returns the number of registered datasets.
func (r *DatasetRepo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.datasets)
}

// Clear drops every dataset and returns the ids that were removed.
func (r *DatasetRepo) Clear() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.datasets))
	for id := range r.datasets {
		ids = append(ids, id)
	}
	r.datasets = make(map[string]*model.Dataset)
	sort.Strings(ids)
	return ids
}
