package model

import (
	"time"

	"github.com/iliyamo/showtime-inventory-bench/internal/inventory"
)

// Timings holds the advisory phase durations of one generation, in
// milliseconds, measured on the monotonic clock.
//
// Fields:
//
//	GenerateMs – nested generation loop producing the flat list.
//	ReduceMs   – reduction of the flat list into the nested tree.
//	IndexMs    – index construction over the tree.
//	TotalMs    – wall time of the whole call.
type Timings struct {
	GenerateMs int64 `json:"generateMs"`
	ReduceMs   int64 `json:"reduceMs"`
	IndexMs    int64 `json:"indexMs"`
	TotalMs    int64 `json:"totalMs"`
}

// Counts are the derived sizes of a dataset.
type Counts struct {
	Items int `json:"items"` // total show records
	Days  int `json:"days"`  // size of the expanded date range
}

// Dataset is one generated inventory tree with its indexes and metadata.
// A Dataset is owned by the registry; callers only ever receive projections.
//
// Fields:
//
//	ID        – opaque identifier, caller supplied or generated.
//	Params    – normalized parameters the tree was generated from.
//	Tree      – nested language -> format -> date -> cinema mapping.
//	Indexes   – sorted lookup lists rebuilt from Tree.
//	Timings   – phase durations of the generating call.
//	Counts    – item and day counts.
//	CreatedAt – UTC time the dataset entered the registry.
type Dataset struct {
	ID        string
	Params    inventory.GenerateParams
	Tree      inventory.Tree
	Indexes   inventory.Indexes
	Timings   Timings
	Counts    Counts
	CreatedAt time.Time
}

// Summary is the listing view of a dataset.
type Summary struct {
	ID        string                   `json:"datasetId"`
	Params    inventory.GenerateParams `json:"params"`
	Timings   Timings                  `json:"timings"`
	Counts    Counts                   `json:"counts"`
	CreatedAt time.Time                `json:"createdAt"`
}

// Summarize returns the listing view of d.
func (d *Dataset) Summarize() Summary {
	return Summary{ID: d.ID, Params: d.Params, Timings: d.Timings, Counts: d.Counts, CreatedAt: d.CreatedAt}
}

// Run is one recorded generation, persisted as telemetry in benchmark_runs.
//
// Fields:
//
//	ID         – benchmark_runs.id
//	DatasetID  – dataset id, empty for bulk runs.
//	Mode       – "indexed" for registry runs, "bulk" for one-shot runs.
//	ParamsJSON – normalized parameters as JSON.
//	Items      – generated show records.
//	Days       – expanded date count.
//	Timings    – phase durations.
//	CreatedAt  – benchmark_runs.created_at
type Run struct {
	ID         uint64    `json:"id"`
	DatasetID  string    `json:"datasetId,omitempty"`
	Mode       string    `json:"mode"`
	ParamsJSON string    `json:"params"`
	Items      int       `json:"items"`
	Days       int       `json:"days"`
	Timings    Timings   `json:"timings"`
	CreatedAt  time.Time `json:"createdAt"`
}
