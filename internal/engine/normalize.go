package engine

import (
	"fmt"
	"strconv"
)

// CodeRuleKind selects how a rule builds the land-use code for a feature.
type CodeRuleKind int

const (
	// CodeConstant assigns the same code to every feature.
	CodeConstant CodeRuleKind = iota

	// CodePrefixColumn builds the code as Prefix + value(Column).
	CodePrefixColumn

	// CodePrefixTwoColumns builds the code as
	// Prefix + value(Column) + "_" + value(SecondColumn), substituting
	// MissingValue when the second column has no value.
	CodePrefixTwoColumns
)

// CodeRule describes how the land-use code is constructed for one dataset.
type CodeRule struct {
	Kind         CodeRuleKind
	Prefix       string // for CodeConstant this is the whole code
	Column       string
	SecondColumn string
	MissingValue string // substituted for an absent second column, e.g. "None"
}

// RowFilter drops or keeps rows based on one column's value.
//
// When Keep is true only rows whose value is in Values survive; when false,
// rows whose value is in Values are excluded.
type RowFilter struct {
	Column string
	Values []string
	Keep   bool
}

func (f *RowFilter) match(value string) bool {
	for _, v := range f.Values {
		if v == value {
			return true
		}
	}
	return false
}

// Rule is the declarative normalization recipe for one dataset: which
// columns the rule touches, an optional row filter, and the code
// construction variant. Adding a dataset is a data change, not a code
// change.
type Rule struct {
	Dataset string
	Filter  *RowFilter
	Code    CodeRule
}

// columns returns every source column the rule references.
func (r Rule) columns() []string {
	var cols []string
	if r.Filter != nil {
		cols = append(cols, r.Filter.Column)
	}
	switch r.Code.Kind {
	case CodePrefixColumn:
		cols = append(cols, r.Code.Column)
	case CodePrefixTwoColumns:
		cols = append(cols, r.Code.Column, r.Code.SecondColumn)
	}
	return cols
}

// Normalize applies a dataset rule to a raw feature collection, producing
// features that carry exactly one attribute, the land-use code. The input
// collection is not mutated.
//
// Returns ErrMissingColumn when the rule references a column no feature in
// the collection has. The schema check runs before any row is emitted so a
// bad rule never produces a partial result.
func Normalize(features []Feature, rule Rule) ([]NormalizedFeature, error) {
	if err := checkSchema(features, rule); err != nil {
		return nil, err
	}

	out := make([]NormalizedFeature, 0, len(features))
	for _, f := range features {
		if rule.Filter != nil {
			value, ok := attrString(f.Attributes, rule.Filter.Column)
			matched := ok && rule.Filter.match(value)
			if rule.Filter.Keep != matched {
				continue
			}
		}

		code, ok := buildCode(f.Attributes, rule.Code)
		if !ok {
			continue // code column empty for this row
		}
		out = append(out, NormalizedFeature{Geometry: f.Geometry, Code: code})
	}
	return out, nil
}

// checkSchema verifies every column the rule references exists somewhere in
// the collection's attribute schema. An empty collection passes: there is no
// schema to violate and nothing to rasterize.
func checkSchema(features []Feature, rule Rule) error {
	if len(features) == 0 {
		return nil
	}
	for _, col := range rule.columns() {
		found := false
		for _, f := range features {
			if _, ok := f.Attributes[col]; ok {
				found = true
				break
			}
		}
		if !found {
			return &ErrMissingColumn{Dataset: rule.Dataset, Column: col}
		}
	}
	return nil
}

func buildCode(attrs map[string]interface{}, cr CodeRule) (string, bool) {
	switch cr.Kind {
	case CodeConstant:
		return cr.Prefix, true
	case CodePrefixColumn:
		v, ok := attrString(attrs, cr.Column)
		if !ok {
			return "", false
		}
		return cr.Prefix + v, true
	case CodePrefixTwoColumns:
		first, ok := attrString(attrs, cr.Column)
		if !ok {
			return "", false
		}
		second, ok := attrString(attrs, cr.SecondColumn)
		if !ok {
			second = cr.MissingValue
		}
		return cr.Prefix + first + "_" + second, true
	default:
		return "", false
	}
}

// attrString reads an attribute as its string form. Returns false for absent
// or null values so callers can apply per-rule missing-value handling.
func attrString(attrs map[string]interface{}, column string) (string, bool) {
	v, ok := attrs[column]
	if !ok || v == nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case float64:
		// JSON numbers decode as float64; integral values print without
		// a fractional part.
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10), true
		}
		return strconv.FormatFloat(t, 'g', -1, 64), true
	case int:
		return strconv.Itoa(t), true
	case int64:
		return strconv.FormatInt(t, 10), true
	case bool:
		return strconv.FormatBool(t), true
	default:
		return fmt.Sprint(t), true
	}
}
