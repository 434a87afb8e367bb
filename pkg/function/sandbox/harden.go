package sandbox

import (
	"fmt"

	"github.com/dop251/goja"
)

// samples whose prototypes carry a constructor that compiles strings
var constructorSamples = []string{
	"(function () {})",
	"(async function () {})",
}

// harden removes every path from guest code back to the compiler: eval is
// deleted and the Function constructors, both the global and the ones
// reachable through .constructor, are replaced by a stub that throws.
func harden(vm *goja.Runtime, maxCallStack int) error {
	if maxCallStack > 0 {
		vm.SetMaxCallStackSize(maxCallStack)
	}

	global := vm.GlobalObject()
	if err := global.Delete("eval"); err != nil {
		return fmt.Errorf("remove eval: %w", err)
	}

	stub := vm.ToValue(func(goja.FunctionCall) goja.Value {
		panic(vm.NewTypeError("code generation from strings is not allowed"))
	}).ToObject(vm)

	for _, src := range constructorSamples {
		v, err := vm.RunString(src)
		if err != nil {
			return fmt.Errorf("inspect %s: %w", src, err)
		}
		proto := v.ToObject(vm).Prototype()
		if proto == nil {
			continue
		}
		if err := proto.DefineDataProperty("constructor", stub, goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_FALSE); err != nil {
			return fmt.Errorf("replace constructor: %w", err)
		}
	}

	// keep instanceof Function working against the stub
	if fnCtor := global.Get("Function"); fnCtor != nil {
		if proto := fnCtor.ToObject(vm).Get("prototype"); proto != nil {
			_ = stub.DefineDataProperty("prototype", proto, goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_FALSE)
		}
	}
	if err := global.DefineDataProperty("Function", stub, goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_FALSE); err != nil {
		return fmt.Errorf("replace Function: %w", err)
	}
	return nil
}
