package mirror

import (
	"reflect"

	"github.com/ygrebnov/errorc"

	"github.com/ygrebnov/mirror/errors"
	"github.com/ygrebnov/mirror/internal/access"
)

// options collects construction-time configuration shared by Attach,
// AttachStatic and the upgrade entry points.
type options struct {
	registry *Registry
	cap      *access.Capability
	remap    map[string]string
}

// Option configures an attach or upgrade call.
type Option func(*options)

// WithRegistry resolves static members, constructors and target= directives
// against reg instead of the package-level default registry.
func WithRegistry(reg *Registry) Option {
	return func(o *options) {
		if reg != nil {
			o.registry = reg
		}
	}
}

// WithFieldMapping renames source fields during Upgrade and Clone: a source
// field named from is copied into the destination field named to.
func WithFieldMapping(from, to string) Option {
	return func(o *options) {
		if o.remap == nil {
			o.remap = make(map[string]string)
		}
		o.remap[from] = to
	}
}

func buildOptions(opts []Option) options {
	o := options{
		registry: DefaultRegistry(),
		cap:      access.Default(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Attach binds every func field of a fresh mirror M to a member of the
// target type, resolved against instance. All fields resolve or none do:
// the first resolution failure returns an error and no mirror.
//
// instance must be assignable to the mirror's target type; for mirrors
// carrying OfInstance the target type is instance's own dynamic type.
func Attach[M any](instance any, opts ...Option) (*M, error) {
	if instance == nil {
		return nil, errorc.With(
			errors.ErrNilInstance,
			errorc.String(errors.ErrorFieldMirrorType, reflect.TypeOf((*M)(nil)).Elem().String()),
		)
	}
	return attach[M](instance, opts)
}

// AttachStatic binds a mirror without an instance. Every func field must
// resolve to a member that needs none: a static field, a static method, a
// constructor, or (in API mode) a member taking its target explicitly.
func AttachStatic[M any](opts ...Option) (*M, error) {
	return attach[M](nil, opts)
}

func attach[M any](instance any, opts []Option) (*M, error) {
	o := buildOptions(opts)

	m := new(M)
	mt := reflect.TypeOf(m).Elem()
	if mt.Kind() != reflect.Struct {
		return nil, errorc.With(
			errors.ErrNotStruct,
			errorc.String(errors.ErrorFieldMirrorType, mt.String()),
		)
	}

	res, err := resolveTarget(m, mt, instance)
	if err != nil {
		return nil, err
	}
	if instance != nil {
		if a, ok := any(m).(attachable); ok && !a.bindInstance(instance) {
			return nil, errorc.With(
				errors.ErrTargetTypeMismatch,
				errorc.String(errors.ErrorFieldMirrorType, mt.String()),
				errorc.String(errors.ErrorFieldTargetType, res.typ.String()),
			)
		}
	}

	r := &resolver{
		mirrorType: mt,
		fluentType: reflect.TypeOf(m),
		res:        res,
		registry:   o.registry,
		cap:        o.cap,
	}
	bindings, err := r.resolve()
	if err != nil {
		return nil, err
	}

	rt := &router{mirrorPtr: reflect.ValueOf(m), bindings: bindings, cap: o.cap}
	rt.install()
	return m, nil
}
