package filter

import (
	"sort"
	"strings"
	"time"
)

// Integer covers the underlying kinds accepted as enum values.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64 | ~uint8 | ~uint16 | ~uint32
}

// Bound covers the types accepted by range predicates.
type Bound interface {
	~int | ~int32 | ~int64 | ~float32 | ~float64 | time.Time
}

// MatchIfNotEmpty matches field equal to value unless value is blank.
func MatchIfNotEmpty(field, value string) Predicate {
	if strings.TrimSpace(value) == "" {
		return Empty()
	}
	return Eq(field, value)
}

// MatchIfNotEmptyTime matches field equal to the exact instant.
func MatchIfNotEmptyTime(field string, value *time.Time) Predicate {
	if value == nil || value.IsZero() {
		return Empty()
	}
	return Eq(field, value.UTC())
}

// MatchIfNotEmptyDate matches field equal to the UTC midnight of value.
func MatchIfNotEmptyDate(field string, value *time.Time) Predicate {
	if value == nil || value.IsZero() {
		return Empty()
	}
	y, m, d := value.UTC().Date()
	return Eq(field, time.Date(y, m, d, 0, 0, 0, 0, time.UTC))
}

// MatchIfNotEmptyEnum matches field equal to the integer value of an enum.
func MatchIfNotEmptyEnum[E Integer](field string, value *E) Predicate {
	if value == nil {
		return Empty()
	}
	return Eq(field, int64(*value))
}

// MatchIfContains matches field against pattern case-insensitively. The
// pattern is used as given; callers quote literal input themselves.
func MatchIfContains(field, pattern string) Predicate {
	if strings.TrimSpace(pattern) == "" {
		return Empty()
	}
	return Regex(field, pattern, "i")
}

// MatchBool always produces an equality match, falling back to def when
// value is nil.
func MatchBool(field string, value *bool, def bool) Predicate {
	if value == nil {
		return Eq(field, def)
	}
	return Eq(field, *value)
}

// MustBeWithinIfNotNull constrains field to [lower, upper], skipping nil bounds.
func MustBeWithinIfNotNull[T Bound](field string, lower, upper *T) Predicate {
	preds := make([]Predicate, 0, 2)
	if lower != nil {
		preds = append(preds, Gte(field, boundValue(*lower)))
	}
	if upper != nil {
		preds = append(preds, Lte(field, boundValue(*upper)))
	}
	return And(preds...)
}

// MustBeInIfNotEmpty matches field against any of values.
func MustBeInIfNotEmpty[T any](field string, values []T) Predicate {
	if len(values) == 0 {
		return Empty()
	}
	items := make([]any, 0, len(values))
	for _, v := range values {
		items = append(items, v)
	}
	return In(field, items...)
}

// MatchIfNotEmptyDictionary matches every entry of values at field.key.
// Keys are visited in sorted order.
func MatchIfNotEmptyDictionary(field string, values map[string]any) Predicate {
	if len(values) == 0 {
		return Empty()
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	preds := make([]Predicate, 0, len(keys))
	for _, k := range keys {
		preds = append(preds, Eq(field+"."+k, values[k]))
	}
	return And(preds...)
}

func boundValue[T Bound](v T) any {
	if t, ok := any(v).(time.Time); ok {
		return t.UTC()
	}
	return v
}
