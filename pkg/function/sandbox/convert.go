package sandbox

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/dop251/goja"
)

// exportJSON turns a guest value into JSON-compatible host data using the
// runtime's own JSON.stringify, captured before guest code ran. Dates become
// ISO 8601 strings, functions and undefined become nil, and cyclic or
// otherwise unserializable values fail.
func exportJSON(stringify goja.Callable, v goja.Value) (any, error) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return nil, nil
	}
	out, err := stringify(goja.Undefined(), v)
	if err != nil {
		return nil, fmt.Errorf("return value is not serializable: %w", err)
	}
	if goja.IsUndefined(out) {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(out.String())))
	dec.UseNumber()
	var data any
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("return value is not serializable: %w", err)
	}
	return numbers(data), nil
}

// numbers replaces json.Number with int64 for integral values and float64
// otherwise.
func numbers(v any) any {
	switch x := v.(type) {
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		f, _ := x.Float64()
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return int64(f)
		}
		return f
	case map[string]any:
		for k, item := range x {
			x[k] = numbers(item)
		}
		return x
	case []any:
		for i, item := range x {
			x[i] = numbers(item)
		}
		return x
	}
	return v
}

// thrownMessage extracts the guest-provided message of a thrown value.
// Thrown null or undefined have none.
func thrownMessage(v goja.Value) (string, bool) {
	if v == nil || goja.IsUndefined(v) || goja.IsNull(v) {
		return "", false
	}
	if obj, ok := v.(*goja.Object); ok {
		if msg := obj.Get("message"); msg != nil && !goja.IsUndefined(msg) {
			name := ""
			if n := obj.Get("name"); n != nil && !goja.IsUndefined(n) {
				name = n.String()
			}
			if name != "" && name != "Error" && name != "GoError" {
				return name + ": " + msg.String(), true
			}
			return msg.String(), true
		}
	}
	return v.String(), true
}
