package gojabridge

import (
	"sort"
	"strconv"

	"github.com/dop251/goja"
)

// toJS converts decoded values (JSON shaped Go values) to native JS
// values, so that responses behave like the result of JSON.parse.
func (m *Module) toJS(v any) goja.Value {
	switch v := v.(type) {
	case nil:
		return goja.Null()
	case goja.Value:
		return v
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := m.runtime.NewObject()
		for _, k := range keys {
			_ = obj.Set(k, m.toJS(v[k]))
		}
		return obj
	case []any:
		arr := m.runtime.NewArray()
		for i, val := range v {
			_ = arr.Set(strconv.Itoa(i), m.toJS(val))
		}
		return arr
	default:
		return m.runtime.ToValue(v)
	}
}

// fromJS exports a JS value for the bridge. undefined and null both map to
// nil.
func fromJS(v goja.Value) any {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	return v.Export()
}

// argsFromJS exports an argument list. undefined and null are an empty
// list, and any other non-array is a list of one.
func argsFromJS(v goja.Value) []any {
	switch v := fromJS(v).(type) {
	case nil:
		return []any{}
	case []any:
		return v
	default:
		return []any{v}
	}
}

// isPresent reports whether v is neither undefined nor null.
func isPresent(v goja.Value) bool {
	return v != nil && !goja.IsUndefined(v) && !goja.IsNull(v)
}
