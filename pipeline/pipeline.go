// Package pipeline models aggregation pipelines as immutable values. Every
// method and stage function returns a new Pipeline and leaves its receiver
// untouched.
package pipeline

import (
	"github.com/goliatone/go-records/filter"
	"github.com/goliatone/go-records/pkg/types"
)

// Kind identifies a stage.
type Kind uint8

const (
	KindMatch Kind = iota + 1
	KindSkip
	KindLimit
	KindSort
	KindCount
)

func (k Kind) String() string {
	switch k {
	case KindMatch:
		return "match"
	case KindSkip:
		return "skip"
	case KindLimit:
		return "limit"
	case KindSort:
		return "sort"
	case KindCount:
		return "count"
	default:
		return "unknown"
	}
}

// SortKey orders by one document path.
type SortKey struct {
	Field      string
	Descending bool
}

// Stage is one step of a pipeline. Only the fields relevant to Kind are set.
// Sort stages order by Field first and by ThenBy to break ties.
type Stage struct {
	Kind       Kind
	Predicate  filter.Predicate
	N          int64
	Field      string
	Descending bool
	ThenBy     []SortKey
}

// SortKeys returns every key of a sort stage, primary first.
func (s Stage) SortKeys() []SortKey {
	if s.Kind != KindSort {
		return nil
	}
	keys := make([]SortKey, 0, len(s.ThenBy)+1)
	keys = append(keys, SortKey{Field: s.Field, Descending: s.Descending})
	return append(keys, s.ThenBy...)
}

// Pipeline is an ordered sequence of stages.
type Pipeline struct {
	stages []Stage
}

// New returns a pipeline holding the given stages.
func New(stages ...Stage) Pipeline {
	cp := make([]Stage, len(stages))
	copy(cp, stages)
	return Pipeline{stages: cp}
}

// Stages returns a copy of the stages in order.
func (p Pipeline) Stages() []Stage {
	out := make([]Stage, len(p.stages))
	copy(out, p.stages)
	return out
}

// Len returns the number of stages.
func (p Pipeline) Len() int { return len(p.stages) }

// Match appends a match stage.
func (p Pipeline) Match(pred filter.Predicate) Pipeline {
	return p.with(Stage{Kind: KindMatch, Predicate: pred})
}

// Skip appends a skip stage.
func (p Pipeline) Skip(n int64) Pipeline {
	return p.with(Stage{Kind: KindSkip, N: n})
}

// Limit appends a limit stage.
func (p Pipeline) Limit(n int64) Pipeline {
	return p.with(Stage{Kind: KindLimit, N: n})
}

// SortBy appends a sort stage on field, with then as tie breakers.
func (p Pipeline) SortBy(field string, direction types.SortDirection, then ...SortKey) Pipeline {
	stage := Stage{Kind: KindSort, Field: field, Descending: !direction.Ascending()}
	if len(then) > 0 {
		stage.ThenBy = append([]SortKey(nil), then...)
	}
	return p.with(stage)
}

// Count appends a stage that replaces the stream with one document holding
// the number of input documents under field.
func (p Pipeline) Count(field string) Pipeline {
	return p.with(Stage{Kind: KindCount, Field: field})
}

func (p Pipeline) with(stage Stage) Pipeline {
	stages := make([]Stage, len(p.stages), len(p.stages)+1)
	copy(stages, p.stages)
	return Pipeline{stages: append(stages, stage)}
}
