package hcl

import (
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/xpigraph/internal/task"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// isExprDefined checks if an HCL expression was actually present in the
// source. gohcl populates omitted optional expression fields with a
// zero-width placeholder, so a nil check is insufficient.
func isExprDefined(expr hcl.Expression) bool {
	if expr == nil {
		return false
	}
	r := expr.Range()
	return r.End.Byte > r.Start.Byte
}

// decodeKeyed decodes either a plain string or a single-key
// `{ "by-<key>" = { <match> = <value>, ... } }` object.
func decodeKeyed(expr hcl.Expression, attr string) (task.Keyed, error) {
	if !isExprDefined(expr) {
		return task.Keyed{}, nil
	}
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return task.Keyed{}, fmt.Errorf("invalid value for '%s': %w", attr, diags)
	}
	if val.IsNull() {
		return task.Keyed{}, nil
	}

	ty := val.Type()
	if ty == cty.String {
		return task.Plain(val.AsString()), nil
	}
	if !ty.IsObjectType() && !ty.IsMapType() {
		return task.Keyed{}, fmt.Errorf("'%s' must be a string or a by-* object, got %s", attr, ty.FriendlyName())
	}

	outer := val.AsValueMap()
	if len(outer) != 1 {
		return task.Keyed{}, fmt.Errorf("'%s' must have exactly one by-* key, got %d", attr, len(outer))
	}
	for key, inner := range outer {
		by, ok := strings.CutPrefix(key, "by-")
		if !ok || by == "" {
			return task.Keyed{}, fmt.Errorf("'%s': key '%s' must look like by-<name>", attr, key)
		}
		innerTy := inner.Type()
		if !innerTy.IsObjectType() && !innerTy.IsMapType() {
			return task.Keyed{}, fmt.Errorf("'%s': '%s' must be an object, got %s", attr, key, innerTy.FriendlyName())
		}
		values := make(map[string]string)
		for match, v := range inner.AsValueMap() {
			str, err := convert.Convert(v, cty.String)
			if err != nil || str.IsNull() {
				return task.Keyed{}, fmt.Errorf("'%s': value for '%s' must be a string", attr, match)
			}
			values[match] = str.AsString()
		}
		return task.ByKey(by, values), nil
	}
	return task.Keyed{}, nil // unreachable: outer has exactly one entry
}

// decodeAttributes evaluates an attributes expression into a Go map.
func decodeAttributes(expr hcl.Expression) (map[string]any, error) {
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid value for 'attributes': %w", diags)
	}
	if val.IsNull() {
		return nil, nil
	}
	ty := val.Type()
	if !ty.IsObjectType() && !ty.IsMapType() {
		return nil, fmt.Errorf("'attributes' must be an object, got %s", ty.FriendlyName())
	}
	goVal, err := ctyToGo(val)
	if err != nil {
		return nil, fmt.Errorf("in 'attributes': %w", err)
	}
	return goVal.(map[string]any), nil
}

// ctyToGo converts a known cty value into plain Go values: string, bool,
// int64 or float64, []any and map[string]any.
func ctyToGo(val cty.Value) (any, error) {
	if val.IsNull() {
		return nil, nil
	}
	if !val.IsKnown() {
		return nil, fmt.Errorf("value is not known")
	}

	ty := val.Type()
	switch {
	case ty == cty.String:
		return val.AsString(), nil
	case ty == cty.Bool:
		return val.True(), nil
	case ty == cty.Number:
		bf := val.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == 0 {
				return i, nil
			}
		}
		f, _ := bf.Float64()
		return f, nil
	case ty.IsListType() || ty.IsTupleType() || ty.IsSetType():
		out := make([]any, 0, val.LengthInt())
		for it := val.ElementIterator(); it.Next(); {
			_, ev := it.Element()
			v, err := ctyToGo(ev)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case ty.IsMapType() || ty.IsObjectType():
		out := make(map[string]any)
		for k, ev := range val.AsValueMap() {
			v, err := ctyToGo(ev)
			if err != nil {
				return nil, fmt.Errorf("in '%s': %w", k, err)
			}
			out[k] = v
		}
		return out, nil
	}
	return nil, fmt.Errorf("unsupported value type %s", ty.FriendlyName())
}
