package mirror

import (
	"reflect"
	"sync"

	"github.com/ygrebnov/errorc"

	"github.com/ygrebnov/mirror/errors"
)

// memberKey identifies a registered function or variable by the target type
// it belongs to and its name. Target types are keyed by their struct type,
// so registering with a pointer sample and resolving through a pointer
// target land on the same entry.
type memberKey struct {
	target reflect.Type
	name   string
}

// Registry is the explicit table of package-level members. Go reflection
// cannot enumerate package-level functions or variables, so anything a
// mirror refers to as a static member, a constructor, or a per-member
// target type in API mode has to be registered here first.
//
// A Registry is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	types map[string]reflect.Type
	funcs map[memberKey]reflect.Value
	vars  map[memberKey]reflect.Value // pointers to package-level variables
}

func NewRegistry() *Registry {
	return &Registry{
		types: make(map[string]reflect.Type),
		funcs: make(map[memberKey]reflect.Value),
		vars:  make(map[memberKey]reflect.Value),
	}
}

var (
	defaultRegistryOnce sync.Once
	defaultRegistry     *Registry
)

// DefaultRegistry returns the registry used by Attach and AttachStatic when
// no WithRegistry option is given.
func DefaultRegistry() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// RegisterType makes a target type referable by name from a `target=`
// directive. sample may be a zero value or a pointer to one; its type is
// what gets registered.
func (r *Registry) RegisterType(name string, sample any) error {
	if name == "" || sample == nil {
		return errors.ErrInvalidDirective
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[name] = reflect.TypeOf(sample)
	return nil
}

// RegisterFunc registers a package-level function as a member of the target
// type. Mirrors resolve it through `static` and `constructor` directives.
func (r *Registry) RegisterFunc(target any, name string, fn any) error {
	if name == "" || fn == nil {
		return errors.ErrInvalidDirective
	}
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func {
		return errorc.With(
			errors.ErrInvalidDirective,
			errorc.String(errors.ErrorFieldMemberName, name),
			errorc.String(errors.ErrorFieldMemberType, fv.Kind().String()),
		)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[memberKey{indirectType(reflect.TypeOf(target)), name}] = fv
	return nil
}

// RegisterVar registers a pointer to a package-level variable as a static
// field member of the target type. Mirrors resolve it through a
// `field,static` directive.
func (r *Registry) RegisterVar(target any, name string, ptr any) error {
	if name == "" || ptr == nil {
		return errors.ErrInvalidDirective
	}
	pv := reflect.ValueOf(ptr)
	if pv.Kind() != reflect.Ptr {
		return errorc.With(
			errors.ErrInvalidDirective,
			errorc.String(errors.ErrorFieldMemberName, name),
			errorc.String(errors.ErrorFieldMemberType, pv.Kind().String()),
		)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.vars[memberKey{indirectType(reflect.TypeOf(target)), name}] = pv.Elem()
	return nil
}

func (r *Registry) typeByName(name string) (reflect.Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	return t, ok
}

func (r *Registry) funcFor(target reflect.Type, name string) (reflect.Value, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fv, ok := r.funcs[memberKey{indirectType(target), name}]
	return fv, ok
}

func (r *Registry) varFor(target reflect.Type, name string) (reflect.Value, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	vv, ok := r.vars[memberKey{indirectType(target), name}]
	return vv, ok
}

// indirectType peels pointers off t so *T and T share registry entries.
func indirectType(t reflect.Type) reflect.Type {
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t
}
