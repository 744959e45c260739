package mirror

import (
	"fmt"
	"reflect"
)

var boolType = reflect.TypeOf(false)

// nilableKind reports whether values of kind k have a nil state that
// presence-wrapping can test.
func nilableKind(k reflect.Kind) bool {
	switch k {
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return true
	default:
		return false
	}
}

// basicKind reports whether k is a primitive kind that cannot carry a
// target type in API mode.
func basicKind(k reflect.Kind) bool {
	switch k {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128,
		reflect.String:
		return true
	default:
		return false
	}
}

// looselyConvertible limits reflect convertibility to conversions that keep
// the value's meaning: numeric widening/narrowing, named-type changes,
// string/byte-slice moves. Numeric-to-string conversions (which produce a
// one-rune string) are excluded.
func looselyConvertible(from, to reflect.Type) bool {
	if from.Kind() == reflect.Interface || to.Kind() == reflect.Interface {
		return false
	}
	if !from.ConvertibleTo(to) {
		return false
	}
	if to.Kind() == reflect.String && from.Kind() != reflect.String &&
		!(from.Kind() == reflect.Slice && (from.Elem().Kind() == reflect.Uint8 || from.Elem().Kind() == reflect.Int32)) {
		return false
	}
	return true
}

func signedKind(k reflect.Kind) bool {
	return k >= reflect.Int && k <= reflect.Int64
}

func unsignedKind(k reflect.Kind) bool {
	return k >= reflect.Uint && k <= reflect.Uint64
}

func floatKind(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

// losslessWidening reports whether converting src to dst preserves every
// possible value. Field copies between struct versions use this instead of
// the looser call-time rules: a narrowing conversion would truncate data
// silently where the copy should fail instead.
func losslessWidening(src, dst reflect.Type) bool {
	sk, dk := src.Kind(), dst.Kind()
	switch {
	case signedKind(sk) && signedKind(dk),
		unsignedKind(sk) && unsignedKind(dk),
		floatKind(sk) && floatKind(dk):
		return src.Bits() <= dst.Bits()
	case unsignedKind(sk) && signedKind(dk):
		return src.Bits() < dst.Bits()
	case sk == dk:
		// Named-type moves over an identical representation.
		return src.ConvertibleTo(dst)
	default:
		return false
	}
}

// compatible is the construction-time check that a value declared as `from`
// can be delivered where `to` is expected, either statically or through a
// per-call dynamic check.
func compatible(from, to reflect.Type) bool {
	if from == to || from.AssignableTo(to) {
		return true
	}
	// Dynamic cases, verified per call: interface values carry their
	// concrete type; mirror values are unwrapped to their bound instance.
	if from.Kind() == reflect.Interface || to.Kind() == reflect.Interface {
		return true
	}
	if isMirrorValue(from) {
		return true
	}
	return looselyConvertible(from, to)
}

// adaptValue delivers v as a value of type want, applying the dynamic half
// of the compatibility rules. ok is false when the runtime value cannot be
// delivered.
func adaptValue(v reflect.Value, want reflect.Type) (reflect.Value, bool) {
	if !v.IsValid() {
		return reflect.Zero(want), true
	}
	if v.Type() == want {
		return v, true
	}
	if v.Kind() == reflect.Interface {
		if v.IsNil() {
			return reflect.Zero(want), true
		}
		return adaptValue(v.Elem(), want)
	}
	if v.Type().AssignableTo(want) {
		return v.Convert(want), true
	}
	if looselyConvertible(v.Type(), want) {
		return v.Convert(want), true
	}
	if v.Type().Kind() == reflect.Slice && want.Kind() == reflect.Slice {
		// Variadic tails land here when element types differ.
		out := reflect.MakeSlice(want, v.Len(), v.Len())
		for i := 0; i < v.Len(); i++ {
			ev, ok := adaptValue(v.Index(i), want.Elem())
			if !ok {
				return reflect.Value{}, false
			}
			out.Index(i).Set(ev)
		}
		return out, true
	}
	return reflect.Value{}, false
}

// mustAdapt is adaptValue for positions already cleared at construction
// time; a failure here means the caller passed a dynamic value the member
// cannot accept, which surfaces as an invocation panic.
func mustAdapt(v reflect.Value, want reflect.Type, member string, what string, pos int) reflect.Value {
	out, ok := adaptValue(v, want)
	if !ok {
		panic(fmt.Sprintf("mirror: %s: %s %d: cannot adapt %s to %s",
			member, what, pos, v.Type(), want))
	}
	return out
}

var attachableType = reflect.TypeOf((*attachable)(nil)).Elem()

// isMirrorValue reports whether values of type t are themselves mirrors
// (carry the attachable capability) and are therefore unwrapped to their
// bound instance before invocation.
func isMirrorValue(t reflect.Type) bool {
	return t.Implements(attachableType)
}

// planArgs verifies, parameter by parameter, that the declared signature
// can feed the member's. Both variadic flags must agree.
func planArgs(declared, member callShape) bool {
	if declared.variadic != member.variadic {
		return false
	}
	if len(declared.in) != len(member.in) {
		return false
	}
	for i := range declared.in {
		if !compatible(declared.in[i], member.in[i]) {
			return false
		}
	}
	return true
}

// adaptArgs converts the already-unwrapped call arguments to the member's
// parameter types.
func adaptArgs(args []reflect.Value, member callShape, name string) []reflect.Value {
	out := make([]reflect.Value, len(args))
	for i, a := range args {
		out[i] = mustAdapt(a, member.in[i], name, "argument", i)
	}
	return out
}

// resultAdapter converts member results to the declared result shape.
// presence reports that the trailing-bool wrapping form was negotiated.
func resultAdapter(member []reflect.Type, declared []reflect.Type, name string) (func([]reflect.Value) []reflect.Value, bool, bool) {
	switch {
	case len(declared) == 0:
		// Declared as result-less: member results, if any, are discarded.
		return func([]reflect.Value) []reflect.Value { return nil }, false, true

	case len(declared) == len(member):
		for i := range declared {
			if !compatible(member[i], declared[i]) {
				return nil, false, false
			}
		}
		out := make([]reflect.Type, len(declared))
		copy(out, declared)
		return func(results []reflect.Value) []reflect.Value {
			adapted := make([]reflect.Value, len(results))
			for i, rv := range results {
				adapted[i] = mustAdapt(rv, out[i], name, "result", i)
			}
			return adapted
		}, false, true

	case len(declared) == 2 && declared[1] == boolType && len(member) == 1:
		inner := member[0]
		if !nilableKind(inner.Kind()) {
			return nil, false, false
		}
		unwrapped := inner
		if inner.Kind() == reflect.Ptr {
			unwrapped = inner.Elem()
		}
		if inner.Kind() != reflect.Interface && !compatible(unwrapped, declared[0]) {
			return nil, false, false
		}
		want := declared[0]
		return func(results []reflect.Value) []reflect.Value {
			return wrapPresence(results[0], want, name)
		}, true, true

	default:
		return nil, false, false
	}
}

// wrapPresence turns a nilable member value into the (value, ok) shape.
func wrapPresence(v reflect.Value, want reflect.Type, name string) []reflect.Value {
	if nilableKind(v.Kind()) && v.IsNil() {
		return []reflect.Value{reflect.Zero(want), reflect.ValueOf(false)}
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		v = v.Elem()
	}
	return []reflect.Value{mustAdapt(v, want, name, "result", 0), reflect.ValueOf(true)}
}
