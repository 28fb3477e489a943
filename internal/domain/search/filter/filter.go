package filter

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Op is a comparison operator of the Data API filter language.
type Op string

// Comparison operators.
const (
	OpEq  Op = "$eq"
	OpNe  Op = "$ne"
	OpGt  Op = "$gt"
	OpGte Op = "$gte"
	OpLt  Op = "$lt"
	OpLte Op = "$lte"
	OpIn  Op = "$in"
)

// Kind distinguishes predicates from logical groups.
type Kind int

// Expression kinds.
const (
	KindEmpty Kind = iota
	KindPredicate
	KindAnd
	KindOr
)

// MaxConditionsPerGroup is the maximum number of children per logical group.
const MaxConditionsPerGroup = 32

// Expr is an immutable filter expression tree. The zero value matches everything.
type Expr struct {
	kind     Kind
	field    string
	op       Op
	value    any
	children []Expr
}

func predicate(field string, op Op, value any) Expr {
	return Expr{kind: KindPredicate, field: field, op: op, value: value}
}

// Eq matches field == value. Rendered in the implicit {field: value} form.
func Eq(field string, value any) Expr { return predicate(field, OpEq, value) }

// Ne matches field != value.
func Ne(field string, value any) Expr { return predicate(field, OpNe, value) }

// Gt matches field > value.
func Gt(field string, value any) Expr { return predicate(field, OpGt, value) }

// Gte matches field >= value.
func Gte(field string, value any) Expr { return predicate(field, OpGte, value) }

// Lt matches field < value.
func Lt(field string, value any) Expr { return predicate(field, OpLt, value) }

// Lte matches field <= value.
func Lte(field string, value any) Expr { return predicate(field, OpLte, value) }

// In matches field equal to any of values.
func In(field string, values ...any) Expr { return predicate(field, OpIn, values) }

// And combines exprs conjunctively. Empty children are dropped and a single child is returned as-is.
func And(exprs ...Expr) Expr { return group(KindAnd, exprs) }

// Or combines exprs disjunctively with the same collapsing rules as And.
func Or(exprs ...Expr) Expr { return group(KindOr, exprs) }

func group(k Kind, exprs []Expr) Expr {
	kept := make([]Expr, 0, len(exprs))
	for _, e := range exprs {
		if !e.IsEmpty() {
			kept = append(kept, e)
		}
	}
	switch len(kept) {
	case 0:
		return Expr{}
	case 1:
		return kept[0]
	}
	return Expr{kind: k, children: kept}
}

// Kind returns the expression kind.
func (e Expr) Kind() Kind { return e.kind }

// Field returns the predicate field path.
func (e Expr) Field() string { return e.field }

// Op returns the predicate operator.
func (e Expr) Op() Op { return e.op }

// Value returns the predicate operand.
func (e Expr) Value() any { return e.value }

// Children returns the members of a logical group.
func (e Expr) Children() []Expr { return e.children }

// IsEmpty reports whether the expression has no conditions.
func (e Expr) IsEmpty() bool { return e.kind == KindEmpty }

// Validate checks group sizes across the tree.
func (e Expr) Validate() error {
	switch e.kind {
	case KindPredicate:
		if e.field == "" {
			return fmt.Errorf("filter field is required")
		}
	case KindAnd, KindOr:
		if len(e.children) > MaxConditionsPerGroup {
			return fmt.Errorf("too many conditions in group (max %d)", MaxConditionsPerGroup)
		}
		for _, c := range e.children {
			if err := c.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// reservedFields are top-level document fields that are never nested under a prefix.
var reservedFields = map[string]struct{}{
	"_id":        {},
	"$vector":    {},
	"$vectorize": {},
}

// WithFieldPrefix returns a copy with every non-reserved field path prefixed.
// Already-prefixed fields are left alone.
func (e Expr) WithFieldPrefix(prefix string) Expr {
	switch e.kind {
	case KindPredicate:
		out := e
		if _, ok := reservedFields[e.field]; !ok && !strings.HasPrefix(e.field, prefix) {
			out.field = prefix + e.field
		}
		return out
	case KindAnd, KindOr:
		out := Expr{kind: e.kind, children: make([]Expr, len(e.children))}
		for i, c := range e.children {
			out.children[i] = c.WithFieldPrefix(prefix)
		}
		return out
	}
	return e
}

// Document renders the expression as a Data API filter document.
func (e Expr) Document() map[string]any {
	switch e.kind {
	case KindPredicate:
		if e.op == OpEq {
			return map[string]any{e.field: encodeValue(e.value)}
		}
		return map[string]any{e.field: map[string]any{string(e.op): encodeValue(e.value)}}
	case KindAnd, KindOr:
		key := "$and"
		if e.kind == KindOr {
			key = "$or"
		}
		items := make([]any, len(e.children))
		for i, c := range e.children {
			items[i] = c.Document()
		}
		return map[string]any{key: items}
	}
	return map[string]any{}
}

// MarshalJSON implements json.Marshaler.
func (e Expr) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.Document())
}

// String renders the filter document as JSON for logging.
func (e Expr) String() string {
	b, err := e.MarshalJSON()
	if err != nil {
		return "<invalid filter>"
	}
	return string(b)
}

// DateValue is the Data API date literal.
type DateValue struct {
	Millis int64 `json:"$date"`
}

func encodeValue(v any) any {
	switch x := v.(type) {
	case time.Time:
		return DateValue{Millis: x.UnixMilli()}
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = encodeValue(item)
		}
		return out
	}
	return v
}
