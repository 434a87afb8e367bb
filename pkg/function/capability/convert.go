package capability

import (
	"encoding/json"
	"reflect"
	"sort"
	"time"

	"github.com/dop251/goja"
)

// ToValue converts host data into plain JavaScript values. Maps and slices
// become fresh JS objects and arrays rather than wrappers around Go memory,
// so guest code cannot reach back into host state.
func ToValue(rt *goja.Runtime, v interface{}) goja.Value {
	switch x := v.(type) {
	case nil:
		return goja.Null()
	case goja.Value:
		return x
	case time.Time:
		return rt.ToValue(x.UTC().Format(time.RFC3339Nano))
	case *time.Time:
		if x == nil {
			return goja.Null()
		}
		return rt.ToValue(x.UTC().Format(time.RFC3339Nano))
	case json.Number:
		if f, err := x.Float64(); err == nil {
			return rt.ToValue(f)
		}
		return rt.ToValue(x.String())
	case string, bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return rt.ToValue(x)
	case map[string]interface{}:
		obj := rt.NewObject()
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			_ = obj.Set(k, ToValue(rt, x[k]))
		}
		return obj
	case []interface{}:
		items := make([]interface{}, len(x))
		for i, item := range x {
			items[i] = ToValue(rt, item)
		}
		return rt.NewArray(items...)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr:
		if rv.IsNil() {
			return goja.Null()
		}
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return rt.NewArray()
		}
		items := make([]interface{}, rv.Len())
		for i := range items {
			items[i] = ToValue(rt, rv.Index(i).Interface())
		}
		return rt.NewArray(items...)
	}

	// structs and other maps go through their JSON form
	data, err := json.Marshal(v)
	if err != nil {
		return rt.ToValue(v)
	}
	var generic interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		return rt.ToValue(v)
	}
	return ToValue(rt, generic)
}

// exportObject returns the properties of a guest object argument, or nil
// when the argument is missing or not an object.
func exportObject(v goja.Value) map[string]interface{} {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil
	}
	m, _ := v.Export().(map[string]interface{})
	return m
}

func stringField(m map[string]interface{}, key string) (string, bool) {
	v, ok := m[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func intField(m map[string]interface{}, key string) int {
	switch n := m[key].(type) {
	case int64:
		return int(n)
	case float64:
		return int(n)
	case int:
		return n
	}
	return 0
}

func stringsField(m map[string]interface{}, key string) ([]string, bool) {
	raw, ok := m[key]
	if !ok || raw == nil {
		return nil, false
	}
	items, ok := raw.([]interface{})
	if !ok {
		if s, isString := raw.(string); isString {
			return []string{s}, true
		}
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out, true
}

// argString returns the i-th call argument as a string.
func argString(call goja.FunctionCall, i int) string {
	v := call.Argument(i)
	if goja.IsUndefined(v) || goja.IsNull(v) {
		return ""
	}
	return v.String()
}
