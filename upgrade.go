package mirror

import (
	"reflect"

	"github.com/ygrebnov/errorc"

	"github.com/ygrebnov/mirror/errors"
)

// fieldEntry locates one named field in a flattened struct view.
type fieldEntry struct {
	typ   reflect.Type
	index []int
}

// Upgrade allocates a T, bypassing any constructor functions, and copies
// the fields of source into it by name, unexported fields included. T must
// transitively embed source's struct type; upgrading to an unrelated type
// is rejected (use UpgradeIndirect for that).
//
// Source fields with no same-named destination field are skipped silently.
// A name that exists on both sides with incompatible types fails the whole
// upgrade. WithFieldMapping renames source fields before matching.
func Upgrade[T any](source any, opts ...Option) (*T, error) {
	destType := reflect.TypeOf((*T)(nil)).Elem()
	srcType, _, err := sourceStruct(source)
	if err != nil {
		return nil, err
	}
	if destType.Kind() != reflect.Struct {
		return nil, errorc.With(
			errors.ErrNotConcrete,
			errorc.String(errors.ErrorFieldDest, destType.String()),
		)
	}
	if !embedsTransitively(destType, srcType) {
		return nil, errorc.With(
			errors.ErrNotSubtype,
			errorc.String(errors.ErrorFieldSource, srcType.String()),
			errorc.String(errors.ErrorFieldDest, destType.String()),
		)
	}
	return upgrade[T](source, opts)
}

// UpgradeIndirect is Upgrade without the embedding requirement: fields move
// between any two struct types by name. The caller vouches for the
// relationship between the types.
func UpgradeIndirect[T any](source any, opts ...Option) (*T, error) {
	destType := reflect.TypeOf((*T)(nil)).Elem()
	if _, _, err := sourceStruct(source); err != nil {
		return nil, err
	}
	if destType.Kind() != reflect.Struct {
		return nil, errorc.With(
			errors.ErrNotConcrete,
			errorc.String(errors.ErrorFieldDest, destType.String()),
		)
	}
	return upgrade[T](source, opts)
}

// Clone allocates a new T and copies every field of source into it,
// unexported fields included. No constructor functions run.
func Clone[T any](source *T, opts ...Option) (*T, error) {
	if source == nil {
		return nil, errors.ErrNilInstance
	}
	return upgrade[T](source, opts)
}

func upgrade[T any](source any, opts []Option) (*T, error) {
	o := buildOptions(opts)
	destType := reflect.TypeOf((*T)(nil)).Elem()

	srcType, srcVal, err := sourceStruct(source)
	if err != nil {
		return nil, err
	}
	srcPtr := addressableCopy(srcVal)

	dest := o.cap.Allocate(destType).(*T)
	destPtr := reflect.ValueOf(dest)

	srcFields := flattenFields(srcType)
	destFields := flattenFields(destType)

	for name, sf := range srcFields {
		destName := name
		if mapped, ok := o.remap[name]; ok {
			destName = mapped
		}
		df, ok := destFields[destName]
		if !ok {
			continue // no counterpart; dropped by the upgrade
		}
		if sf.typ != df.typ && !sf.typ.AssignableTo(df.typ) && !losslessWidening(sf.typ, df.typ) {
			return nil, errorc.With(
				errors.ErrFieldTypeMismatch,
				errorc.String(errors.ErrorFieldFieldName, destName),
				errorc.String(errors.ErrorFieldSourceType, sf.typ.String()),
				errorc.String(errors.ErrorFieldDestType, df.typ.String()),
			)
		}
		o.cap.Copy(destPtr, srcPtr, df.index, sf.index)
	}
	return dest, nil
}

// sourceStruct validates the upgrade source and returns its struct type and
// value.
func sourceStruct(source any) (reflect.Type, reflect.Value, error) {
	if source == nil {
		return nil, reflect.Value{}, errors.ErrNilInstance
	}
	v := reflect.ValueOf(source)
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, reflect.Value{}, errors.ErrNilInstance
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, reflect.Value{}, errorc.With(
			errors.ErrNotStruct,
			errorc.String(errors.ErrorFieldSource, reflect.TypeOf(source).String()),
		)
	}
	return v.Type(), v, nil
}

// addressableCopy returns a pointer to a struct value equal to v. Copying
// through field pointers requires the source to live at a stable address.
func addressableCopy(v reflect.Value) reflect.Value {
	if v.CanAddr() {
		return v.Addr()
	}
	p := reflect.New(v.Type())
	p.Elem().Set(v)
	return p
}

// flattenFields maps field names to their entries for t and, recursively,
// for its embedded structs. Embedded recursion runs after own fields and
// overwrites on collision, so an ancestor's field wins over a same-named
// own field.
func flattenFields(t reflect.Type) map[string]fieldEntry {
	out := make(map[string]fieldEntry)
	collectFields(t, nil, out)
	return out
}

func collectFields(t reflect.Type, prefix []int, out map[string]fieldEntry) {
	var anon []reflect.StructField
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if f.Anonymous && f.Type.Kind() == reflect.Struct {
			anon = append(anon, f)
			continue
		}
		index := append(append([]int(nil), prefix...), i)
		out[f.Name] = fieldEntry{typ: f.Type, index: index}
	}
	for _, f := range anon {
		index := append(append([]int(nil), prefix...), f.Index[0])
		collectFields(f.Type, index, out)
	}
}

// embedsTransitively reports whether dest reaches src through a chain of
// anonymous struct fields.
func embedsTransitively(dest, src reflect.Type) bool {
	if dest == src {
		return true
	}
	queue := []reflect.Type{dest}
	seen := map[reflect.Type]bool{dest: true}
	for len(queue) > 0 {
		t := queue[0]
		queue = queue[1:]
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.Anonymous {
				continue
			}
			ft := indirectType(f.Type)
			if ft == src {
				return true
			}
			if ft.Kind() == reflect.Struct && !seen[ft] {
				seen[ft] = true
				queue = append(queue, ft)
			}
		}
	}
	return false
}
