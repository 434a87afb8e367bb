package capability

import (
	"encoding/json"
	"strings"

	"github.com/dop251/goja"
)

// ConsoleCapability exposes console.log/info/warn/error/debug. Output goes
// to Env.Log and ends up in the execution result.
type ConsoleCapability struct{}

func (ConsoleCapability) Name() Name { return Console }

func (ConsoleCapability) Build(env *Env) (*goja.Object, error) {
	rt := env.Runtime
	obj := rt.NewObject()
	for _, level := range []string{"log", "info", "warn", "error", "debug"} {
		level := level
		_ = obj.Set(level, func(call goja.FunctionCall) goja.Value {
			if env.Log != nil {
				env.Log(level, formatArgs(call.Arguments))
			}
			return goja.Undefined()
		})
	}
	return obj, nil
}

func formatArgs(args []goja.Value) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = formatValue(arg)
	}
	return strings.Join(parts, " ")
}

func formatValue(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}
	if goja.IsNull(v) {
		return "null"
	}
	if _, isFunc := goja.AssertFunction(v); isFunc {
		return "[Function]"
	}
	if obj, ok := v.(*goja.Object); ok {
		if obj.ClassName() == "Error" {
			return v.String()
		}
		if data, err := json.Marshal(v.Export()); err == nil {
			return string(data)
		}
	}
	return v.String()
}
