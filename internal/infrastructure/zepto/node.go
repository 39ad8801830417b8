package zepto

import (
	"encoding/json"
	"strconv"

	"github.com/shopspring/decimal"
)

// node wraps one decoded JSON value (decoded with UseNumber) and gives typed
// access to it. Every accessor returns the zero value of its type when the
// value is absent or has an unexpected shape, so callers never branch on errors.
type node struct {
	v any
}

func newNode(v any) node {
	return node{v: v}
}

// get walks object keys. A missing key or a non-object segment yields an empty node.
func (n node) get(path ...string) node {
	cur := n.v
	for _, key := range path {
		obj, ok := cur.(map[string]any)
		if !ok {
			return node{}
		}
		cur = obj[key]
	}
	return node{v: cur}
}

func (n node) object() (map[string]any, bool) {
	obj, ok := n.v.(map[string]any)
	return obj, ok
}

func (n node) isList() bool {
	_, ok := n.v.([]any)
	return ok
}

func (n node) list() []node {
	items, ok := n.v.([]any)
	if !ok {
		return nil
	}
	nodes := make([]node, len(items))
	for i, item := range items {
		nodes[i] = node{v: item}
	}
	return nodes
}

func (n node) first() node {
	items := n.list()
	if len(items) == 0 {
		return node{}
	}
	return items[0]
}

// str renders strings as-is and numbers in their source form, so numeric ids survive.
func (n node) str() string {
	switch v := n.v.(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func (n node) int() int64 {
	switch v := n.v.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i
		}
		if f, err := v.Float64(); err == nil {
			return int64(f)
		}
	case float64:
		return int64(v)
	}
	return 0
}

func (n node) float() float64 {
	switch v := n.v.(type) {
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f
		}
	case float64:
		return v
	}
	return 0
}

func (n node) boolean() bool {
	b, _ := n.v.(bool)
	return b
}

func (n node) decimal() decimal.Decimal {
	switch v := n.v.(type) {
	case json.Number:
		if d, err := decimal.NewFromString(v.String()); err == nil {
			return d
		}
	case float64:
		return decimal.NewFromFloat(v)
	}
	return decimal.Zero
}

// truthy reports whether the value is present and not a zero number, empty
// string, false, or an empty object or list.
func (n node) truthy() bool {
	switch v := n.v.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case json.Number:
		return !n.decimal().IsZero()
	case float64:
		return v != 0
	case map[string]any:
		return len(v) > 0
	case []any:
		return len(v) > 0
	}
	return true
}

// firstTruthy returns the first truthy candidate, or the last one when none is.
func firstTruthy(candidates ...node) node {
	for _, c := range candidates {
		if c.truthy() {
			return c
		}
	}
	if len(candidates) == 0 {
		return node{}
	}
	return candidates[len(candidates)-1]
}
