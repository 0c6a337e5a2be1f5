package vm

import "github.com/xirelogy/go-calc/internal/value"

// Duplicate returns a new VM seeded with a copy of this VM's globals and
// configuration, for a host that wants to fork independent sessions
// cheaply. Since every Value in this language is by-value (no arrays,
// objects, or closures), the clone is a flat map copy with no cycle
// tracking, unlike a language whose globals could hold reference types.
func (vm *VM) Duplicate() *VM {
	if vm == nil {
		return nil
	}
	dup := New(vm.out)
	dup.instLimit = vm.instLimit
	dup.traceHook = vm.traceHook

	dup.globals = make(map[string]value.Value, len(vm.globals))
	dup.globalOrder = make([]string, len(vm.globalOrder))
	copy(dup.globalOrder, vm.globalOrder)
	for name, v := range vm.globals {
		dup.globals[name] = v
	}
	return dup
}
