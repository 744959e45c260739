package mirror

import (
	"fmt"
	"reflect"

	"github.com/ygrebnov/mirror/internal/access"
)

// router installs one dispatching closure per resolved binding into the
// mirror's func fields. After install the mirror is complete: every func
// field is non-nil and routes through its binding.
type router struct {
	mirrorPtr reflect.Value // *M, the attached mirror
	bindings  map[string]*memberBinding
	cap       *access.Capability
}

func (rt *router) install() {
	elem := rt.mirrorPtr.Elem()
	for name, b := range rt.bindings {
		fn := reflect.MakeFunc(b.fieldType, rt.dispatcher(name, b))
		rt.cap.Write(elem, b.fieldIndex, fn)
	}
}

// dispatcher builds the closure behind one func field. Arguments that are
// themselves attached mirrors are unwrapped to their bound instances before
// the binding runs; fluent bindings return the mirror pointer in place of
// the member's result.
func (rt *router) dispatcher(name string, b *memberBinding) func([]reflect.Value) []reflect.Value {
	mirrorPtr := rt.mirrorPtr
	return func(args []reflect.Value) []reflect.Value {
		if b.call == nil {
			panic(fmt.Sprintf("mirror: %s: binding has no call path", name))
		}
		for i, a := range args {
			args[i] = unwrapMirrorArg(a)
		}
		results := b.call(args)
		if b.fluent {
			return []reflect.Value{mirrorPtr}
		}
		return results
	}
}

// unwrapMirrorArg replaces an attached mirror argument with the instance it
// is bound to. Unattached mirrors and everything else pass through as-is.
func unwrapMirrorArg(v reflect.Value) reflect.Value {
	t := v.Type()
	if t.Kind() == reflect.Interface {
		if v.IsNil() || !isMirrorValue(v.Elem().Type()) {
			return v
		}
		return unwrapMirrorArg(v.Elem())
	}
	if !isMirrorValue(t) || (v.Kind() == reflect.Ptr && v.IsNil()) {
		return v
	}
	a, ok := v.Interface().(attachable)
	if !ok {
		return v
	}
	inst, bound := a.boundInstance()
	if !bound || inst == nil {
		return v
	}
	return reflect.ValueOf(inst)
}
