// Package mirror builds, at runtime, objects that forward calls to members
// of an unrelated target type. A mirror is a caller-defined struct whose
// func-typed fields stand in for the methods of the mirrored type; Attach
// resolves every field once against the target's fields, methods and
// registered package-level members, and installs closures that route calls
// through the resolved bindings. This allows adding type-safe, fluent or
// presence-aware accessors to types the caller does not control, including
// their unexported fields.
//
// Which member a func field binds to is declared with `mirror:"..."` struct
// tags and with marker types embedded into the mirror struct:
//
//	type TimerMirror struct {
//		mirror.Of[*timer]
//
//		GetInterval func() time.Duration                `mirror:"field"`
//		SetInterval func(time.Duration) *TimerMirror    `mirror:"field"`
//		Reset       func()                              // instance method
//		New         func(time.Duration) *timer          `mirror:"constructor"`
//	}
//
// Bindings are resolved eagerly: Attach either returns a mirror in which
// every func field is callable, or an error naming the first field that
// could not be bound. There are no partially built mirrors. Once built, a
// mirror is immutable and safe for concurrent calls; whether the calls
// themselves are safe depends entirely on the target type.
package mirror

import "reflect"

// Of declares the target type of the mirror struct embedding it and makes
// the mirror attachable: Attach stores the bound instance here, and
// Instance hands it back without any routing. Setter fields declared to
// return the mirror type and mirror-typed arguments of other mirrors rely
// on this capability for fluent chaining.
type Of[T any] struct {
	instance T
	attached bool
}

// Instance returns the bound target instance. For mirrors built with
// AttachStatic it returns the zero value of T.
func (o *Of[T]) Instance() T { return o.instance }

func (o *Of[T]) targetType() reflect.Type { return reflect.TypeOf((*T)(nil)).Elem() }

func (o *Of[T]) bindInstance(v any) bool {
	t, ok := v.(T)
	if !ok {
		return false
	}
	o.instance = t
	o.attached = true
	return true
}

func (o *Of[T]) boundInstance() (any, bool) {
	if !o.attached {
		return nil, false
	}
	return o.instance, true
}

// OfInstance declares that the target type is taken from the runtime type
// of the instance supplied to Attach. Use it when the target type is not
// visible to the mirror's package.
type OfInstance struct {
	instance any
	attached bool
}

// Instance returns the bound target instance.
func (o *OfInstance) Instance() any { return o.instance }

func (o *OfInstance) targetFromInstance() {}

func (o *OfInstance) bindInstance(v any) bool {
	o.instance = v
	o.attached = true
	return true
}

func (o *OfInstance) boundInstance() (any, bool) { return o.instance, o.attached }

// API puts the mirror into per-member target mode: no single target type is
// resolved for the mirror. Instance-level func fields carry their target as
// an explicit first parameter; static and constructor fields name theirs
// with a `target=` directive referring to a registered type. API mirrors
// are built with AttachStatic only.
type API struct{}

func (API) apiMode() {}

// attachable is satisfied by mirrors embedding Of or OfInstance. It is the
// capability the router uses to unwrap mirror-typed arguments into their
// bound instances.
type attachable interface {
	bindInstance(v any) bool
	boundInstance() (any, bool)
}

type typedTarget interface{ targetType() reflect.Type }

type instanceTarget interface{ targetFromInstance() }

type apiTarget interface{ apiMode() }
