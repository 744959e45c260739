package mirror

import "reflect"

// bindingKind tags the resolved variant of a member binding.
type bindingKind uint8

const (
	bindFieldGet bindingKind = iota
	bindFieldSet
	bindConstructor
	bindInstanceMethod
	bindStaticMethod
	bindSuperMethod
)

func (k bindingKind) String() string {
	switch k {
	case bindFieldGet:
		return "field-get"
	case bindFieldSet:
		return "field-set"
	case bindConstructor:
		return "constructor"
	case bindInstanceMethod:
		return "instance-method"
	case bindStaticMethod:
		return "static-method"
	case bindSuperMethod:
		return "super-method"
	default:
		return "unknown"
	}
}

// callShape is the parameter/result signature of a func field or a member.
type callShape struct {
	in       []reflect.Type
	out      []reflect.Type
	variadic bool
}

func shapeOf(ft reflect.Type) callShape {
	s := callShape{
		in:       make([]reflect.Type, ft.NumIn()),
		out:      make([]reflect.Type, ft.NumOut()),
		variadic: ft.IsVariadic(),
	}
	for i := range s.in {
		s.in[i] = ft.In(i)
	}
	for i := range s.out {
		s.out[i] = ft.Out(i)
	}
	return s
}

// dropFirst returns the shape without its leading parameter. Used to peel
// the explicit target parameter off API-mode fields.
func (s callShape) dropFirst() callShape {
	out := s
	out.in = s.in[1:]
	return out
}

// memberBinding is the resolved, immutable binding of one func field to one
// member of the target type. It is created during Attach and owned by the
// router that dispatches through it.
type memberBinding struct {
	kind   bindingKind
	target reflect.Type // resolved target type for this member
	name   string       // resolved member name on the target

	// location of the func field inside the mirror struct, possibly
	// through embedded structs.
	fieldIndex []int
	fieldType  reflect.Type

	// fluent: the field's declared result is the mirror type itself; the
	// member's own result is discarded and the mirror is returned instead.
	fluent bool
	// presence: the declared results are (value, ok) over a nilable member
	// value.
	presence bool

	declared callShape

	// call invokes the member with arguments already unwrapped by the
	// router. It performs the signature adaptation negotiated at
	// construction time and returns results in the declared shape (for
	// fluent bindings the results are discarded by the router).
	call func(args []reflect.Value) []reflect.Value
}
