package task

import (
	"encoding/json"
	"fmt"
	"maps"
	"regexp"
	"slices"
)

const defaultKey = "default"

// Keyed is a string that is either given directly or selected by the value
// of a named context key, such as the deployment level:
//
//	worker_type = { "by-level" = { "3" = "signing", default = "dep-signing" } }
type Keyed struct {
	Value  string
	By     string
	Values map[string]string
}

// Plain returns a Keyed holding a fixed value.
func Plain(value string) Keyed {
	return Keyed{Value: value}
}

// ByKey returns a Keyed that selects among values by the context key by.
func ByKey(by string, values map[string]string) Keyed {
	return Keyed{By: by, Values: values}
}

// IsKeyed reports whether the value still has to be resolved.
func (k Keyed) IsKeyed() bool {
	return k.By != ""
}

// IsZero reports whether nothing was set.
func (k Keyed) IsZero() bool {
	return k.Value == "" && k.By == ""
}

// String returns the fixed value, or a description of an unresolved one.
func (k Keyed) String() string {
	if k.IsKeyed() {
		return fmt.Sprintf("by-%s%v", k.By, k.Values)
	}
	return k.Value
}

// Resolve selects the value for the given context. Resolution tries an exact
// key first, then keys used as whole-string regular expressions, then
// "default". More than one matching regular expression is an error.
func (k Keyed) Resolve(item string, context map[string]string) (Keyed, error) {
	if !k.IsKeyed() {
		return k, nil
	}
	key, ok := context[k.By]
	if !ok {
		return Keyed{}, fmt.Errorf("no %q in context while determining %s", k.By, item)
	}
	if v, ok := k.Values[key]; ok {
		return Plain(v), nil
	}

	var matched []string
	for _, pattern := range slices.Sorted(maps.Keys(k.Values)) {
		if pattern == defaultKey {
			continue
		}
		re, err := regexp.Compile(`^(?:` + pattern + `)$`)
		if err != nil {
			continue
		}
		if re.MatchString(key) {
			matched = append(matched, pattern)
		}
	}
	switch len(matched) {
	case 0:
	case 1:
		return Plain(k.Values[matched[0]]), nil
	default:
		return Keyed{}, fmt.Errorf("multiple matching values for %s %q (%v) while determining %s", k.By, key, matched, item)
	}

	if v, ok := k.Values[defaultKey]; ok {
		return Plain(v), nil
	}
	return Keyed{}, fmt.Errorf("no %s matching %q nor 'default' found while determining %s", k.By, key, item)
}

func (k Keyed) clone() Keyed {
	k.Values = maps.Clone(k.Values)
	return k
}

func (k Keyed) marshalValue() any {
	if k.IsKeyed() {
		return map[string]map[string]string{"by-" + k.By: k.Values}
	}
	return k.Value
}

// MarshalJSON renders a fixed value as a string and an unresolved one as a
// by-* object.
func (k Keyed) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.marshalValue())
}

// MarshalYAML implements yaml.Marshaler.
func (k Keyed) MarshalYAML() (any, error) {
	return k.marshalValue(), nil
}
