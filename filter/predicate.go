// Package filter builds backend neutral match predicates. Every builder maps
// an absent input to the neutral predicate so fragments can be ANDed
// unconditionally.
package filter

// Op identifies the operator of a predicate node.
type Op string

const (
	OpAnd   Op = "and"
	OpEq    Op = "eq"
	OpLt    Op = "lt"
	OpLte   Op = "lte"
	OpGt    Op = "gt"
	OpGte   Op = "gte"
	OpIn    Op = "in"
	OpRegex Op = "regex"
)

// Predicate is an immutable match expression over document field paths.
type Predicate struct {
	op       Op
	field    string
	value    any
	values   []any
	options  string
	children []Predicate
}

// Empty returns the neutral, always true predicate.
func Empty() Predicate {
	return Predicate{op: OpAnd}
}

// IsEmpty reports whether the predicate matches every document.
func (p Predicate) IsEmpty() bool {
	return p.op == "" || (p.op == OpAnd && len(p.children) == 0)
}

// Op returns the operator. The zero Predicate reports OpAnd.
func (p Predicate) Op() Op {
	if p.op == "" {
		return OpAnd
	}
	return p.op
}

// Field returns the document path a comparison applies to.
func (p Predicate) Field() string { return p.field }

// Value returns the operand of a comparison or the pattern of a regex.
func (p Predicate) Value() any { return p.value }

// Options returns the regex options.
func (p Predicate) Options() string { return p.options }

// Values returns a copy of the operands of an In predicate.
func (p Predicate) Values() []any {
	out := make([]any, len(p.values))
	copy(out, p.values)
	return out
}

// Children returns a copy of the operands of an And predicate.
func (p Predicate) Children() []Predicate {
	out := make([]Predicate, len(p.children))
	copy(out, p.children)
	return out
}

// And combines predicates. Neutral operands are dropped and nested Ands are
// flattened, so the result is neutral when every operand is.
func And(preds ...Predicate) Predicate {
	children := make([]Predicate, 0, len(preds))
	for _, pred := range preds {
		if pred.IsEmpty() {
			continue
		}
		if pred.op == OpAnd {
			children = append(children, pred.children...)
			continue
		}
		children = append(children, pred)
	}
	if len(children) == 1 {
		return children[0]
	}
	return Predicate{op: OpAnd, children: children}
}

// Eq matches documents whose field equals value.
func Eq(field string, value any) Predicate {
	return compare(OpEq, field, value)
}

// Lt matches documents whose field is strictly below value.
func Lt(field string, value any) Predicate {
	return compare(OpLt, field, value)
}

// Lte matches documents whose field is at most value.
func Lte(field string, value any) Predicate {
	return compare(OpLte, field, value)
}

// Gt matches documents whose field is strictly above value.
func Gt(field string, value any) Predicate {
	return compare(OpGt, field, value)
}

// Gte matches documents whose field is at least value.
func Gte(field string, value any) Predicate {
	return compare(OpGte, field, value)
}

// In matches documents whose field equals one of values.
func In(field string, values ...any) Predicate {
	cp := make([]any, len(values))
	copy(cp, values)
	return Predicate{op: OpIn, field: field, values: cp}
}

// Regex matches documents whose field matches pattern.
func Regex(field, pattern, options string) Predicate {
	return Predicate{op: OpRegex, field: field, value: pattern, options: options}
}

func compare(op Op, field string, value any) Predicate {
	return Predicate{op: op, field: field, value: value}
}
