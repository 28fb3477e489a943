package filter

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Condition is one entry of the node's JSON filter list.
type Condition struct {
	Field    string `json:"field"`
	Operator string `json:"operator"`
	Value    any    `json:"value"`
}

var operators = map[string]Op{
	"eq":  OpEq,
	"neq": OpNe,
	"gt":  OpGt,
	"gte": OpGte,
	"lt":  OpLt,
	"lte": OpLte,
}

// ParseConditions parses `[{"field": ..., "operator": ..., "value": ...}]`.
// Blank input yields the empty expression. Entries missing a field, an operator
// or a value, or using an unknown operator, are skipped. Conditions are AND-ed.
func ParseConditions(raw string) (Expr, error) {
	if strings.TrimSpace(raw) == "" {
		return Expr{}, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return Expr{}, fmt.Errorf("search filter must be a JSON list of conditions: %w", err)
	}

	exprs := make([]Expr, 0, len(items))
	for _, item := range items {
		var c Condition
		if err := json.Unmarshal(item, &c); err != nil {
			continue
		}
		e, ok := c.Expr()
		if !ok {
			continue
		}
		exprs = append(exprs, e)
	}

	expr := And(exprs...)
	if err := expr.Validate(); err != nil {
		return Expr{}, err
	}
	return expr, nil
}

// Expr converts the condition into a predicate. ok is false for incomplete conditions.
func (c Condition) Expr() (Expr, bool) {
	if c.Field == "" || c.Operator == "" || c.Value == nil {
		return Expr{}, false
	}
	op, ok := operators[c.Operator]
	if !ok {
		return Expr{}, false
	}
	return predicate(c.Field, op, c.Value), true
}
