package mirror

import (
	"reflect"

	"github.com/ygrebnov/errorc"

	"github.com/ygrebnov/mirror/errors"
)

// targetResolution is the outcome of resolving which concrete type a mirror
// forwards to. In API mode typ is nil and each member resolves its own
// target.
type targetResolution struct {
	typ      reflect.Type
	api      bool
	instance any
	instVal  reflect.Value // valid only when instance != nil
}

// resolveTarget determines the target type for the mirror m (a pointer to
// the mirror struct). First match wins:
//
//  1. an embedded Of[T] supplies T;
//  2. an embedded OfInstance takes the runtime type of the supplied
//     instance;
//  3. an embedded API defers resolution to each member.
//
// A supplied instance must be assignable to the resolved target type.
func resolveTarget(m any, mirrorType reflect.Type, instance any) (targetResolution, error) {
	res := targetResolution{instance: instance}

	switch v := m.(type) {
	case typedTarget:
		res.typ = v.targetType()
	case instanceTarget:
		if instance == nil {
			// Nothing to take the type from; same failure as having no
			// directive at all.
			return res, errorc.With(
				errors.ErrNoTargetType,
				errorc.String(errors.ErrorFieldMirrorType, mirrorType.String()),
			)
		}
		res.typ = reflect.TypeOf(instance)
	case apiTarget:
		if instance != nil {
			return res, errorc.With(
				errors.ErrInstanceWithAPI,
				errorc.String(errors.ErrorFieldMirrorType, mirrorType.String()),
			)
		}
		res.api = true
		return res, nil
	default:
		return res, errorc.With(
			errors.ErrNoTargetType,
			errorc.String(errors.ErrorFieldMirrorType, mirrorType.String()),
		)
	}

	if instance != nil {
		it := reflect.TypeOf(instance)
		if !it.AssignableTo(res.typ) {
			return res, errorc.With(
				errors.ErrTargetTypeMismatch,
				errorc.String(errors.ErrorFieldMirrorType, mirrorType.String()),
				errorc.String(errors.ErrorFieldTargetType, res.typ.String()),
				errorc.String(errors.ErrorFieldMemberType, it.String()),
			)
		}
		res.instVal = reflect.ValueOf(instance)
	}

	return res, nil
}

// structType returns the struct type underlying the resolved target, for
// member kinds that address struct fields or embedded ancestors.
func (r targetResolution) structType() (reflect.Type, bool) {
	t := indirectType(r.typ)
	if t == nil || t.Kind() != reflect.Struct {
		return nil, false
	}
	return t, true
}

// instanceStruct returns an addressable view of the bound instance's struct
// value when the instance is a pointer; ok is false otherwise.
func (r targetResolution) instanceStruct() (reflect.Value, bool) {
	if !r.instVal.IsValid() {
		return reflect.Value{}, false
	}
	v := r.instVal
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return reflect.Value{}, false
	}
	return v, true
}
