package mirror

import (
	"reflect"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ygrebnov/errorc"

	"github.com/ygrebnov/mirror/constants"
	"github.com/ygrebnov/mirror/errors"
	"github.com/ygrebnov/mirror/internal/access"
)

// resolver produces one memberBinding per func-typed field of a mirror
// struct. It runs once, during Attach; every check it can make eagerly it
// makes here, so dispatch never re-validates.
type resolver struct {
	mirrorType reflect.Type // the mirror struct type
	fluentType reflect.Type // pointer to the mirror struct
	res        targetResolution
	registry   *Registry
	cap        *access.Capability
}

// funcField is one bindable field found while walking the mirror struct,
// including fields promoted from embedded non-marker structs.
type funcField struct {
	field reflect.StructField
	index []int
	depth int
}

func (r *resolver) resolve() (map[string]*memberBinding, error) {
	fields, err := collectFuncFields(r.mirrorType)
	if err != nil {
		return nil, err
	}

	bindings := make(map[string]*memberBinding, len(fields))
	for _, ff := range fields {
		raw, ok := ff.field.Tag.Lookup(constants.TagKey)
		var d directive
		if ok {
			if d, err = parseDirective(raw); err != nil {
				return nil, errorc.With(err,
					errorc.String(errors.ErrorFieldMemberName, ff.field.Name))
			}
		}
		if d.skip {
			continue
		}
		b, err := r.bind(ff.field, d)
		if err != nil {
			return nil, err
		}
		b.fieldIndex = ff.index
		b.fieldType = ff.field.Type
		bindings[ff.field.Name] = b
	}
	return bindings, nil
}

// collectFuncFields walks t breadth-first so that, matching Go's own
// promotion rules, a shallower field shadows a deeper one of the same name.
// Two fields of the same name at the same depth are ambiguous.
func collectFuncFields(t reflect.Type) ([]funcField, error) {
	type level struct {
		typ   reflect.Type
		index []int
	}

	type claim struct {
		depth int
		fn    bool
	}

	var out []funcField
	seen := make(map[string]claim)
	current := []level{{typ: t}}
	depth := 0

	for len(current) > 0 {
		var next []level
		for _, l := range current {
			for i := 0; i < l.typ.NumField(); i++ {
				f := l.typ.Field(i)
				idx := append(append([]int(nil), l.index...), i)

				if f.Anonymous {
					if isMarkerField(f.Type) {
						continue
					}
					et := f.Type
					if et.Kind() == reflect.Ptr {
						et = et.Elem()
					}
					if et.Kind() == reflect.Struct {
						next = append(next, level{typ: et, index: idx})
					}
					continue
				}
				fn := f.Type.Kind() == reflect.Func

				if prev, dup := seen[f.Name]; dup {
					if prev.depth == depth && (fn || prev.fn) {
						return nil, errorc.With(
							errors.ErrAmbiguousMember,
							errorc.String(errors.ErrorFieldMemberName, f.Name),
							errorc.String(errors.ErrorFieldMirrorType, t.String()),
						)
					}
					continue // shadowed by a shallower field
				}
				seen[f.Name] = claim{depth: depth, fn: fn}
				if !fn {
					continue // a plain field still claims its name
				}
				out = append(out, funcField{field: f, index: idx, depth: depth})
			}
		}
		current = next
		depth++
	}
	return out, nil
}

func isMarkerField(t reflect.Type) bool {
	pt := reflect.PointerTo(t)
	return pt.Implements(reflect.TypeOf((*typedTarget)(nil)).Elem()) ||
		pt.Implements(reflect.TypeOf((*instanceTarget)(nil)).Elem()) ||
		pt.Implements(reflect.TypeOf((*apiTarget)(nil)).Elem())
}

// bind resolves a single func field into a memberBinding.
func (r *resolver) bind(f reflect.StructField, d directive) (*memberBinding, error) {
	declared := shapeOf(f.Type)
	kind := bindingKindOf(d)

	if !r.res.api && !d.static && !d.constructor && r.res.instance == nil {
		return nil, memberError(errors.ErrNoInstance, f.Name, kind, r.res.typ)
	}
	if d.targetName != "" && !r.res.api {
		// target= names a registered type per member; outside API mode the
		// mirror already has one target for all members.
		return nil, errorc.With(
			errors.ErrInvalidDirective,
			errorc.String(errors.ErrorFieldMemberName, f.Name),
			errorc.String(errors.ErrorFieldDirective, constants.DirectiveTarget+"="+d.targetName),
		)
	}

	target := r.res.typ
	memberShape := declared
	apiSelf := false

	if r.res.api {
		if d.static || d.constructor {
			if d.targetName == "" {
				return nil, memberError(errors.ErrInvalidDirective, f.Name, kind, nil)
			}
			t, ok := r.registry.typeByName(d.targetName)
			if !ok {
				return nil, errorc.With(
					errors.ErrInvalidDirective,
					errorc.String(errors.ErrorFieldMemberName, f.Name),
					errorc.String(errors.ErrorFieldDirective, constants.DirectiveTarget+"="+d.targetName),
				)
			}
			target = t
		} else {
			if len(declared.in) < 1 || basicKind(declared.in[0].Kind()) {
				return nil, memberError(errors.ErrSignatureMismatch, f.Name, kind, nil)
			}
			target = declared.in[0]
			memberShape = declared.dropFirst()
			apiSelf = true
		}
	}

	switch {
	case d.field:
		return r.bindField(f, d, declared, memberShape, target, apiSelf)
	case d.constructor:
		return r.bindRegistered(f, d, declared, memberShape, target, bindConstructor)
	case d.superField != "":
		return r.bindSuper(f, d, declared, memberShape, target)
	case d.static:
		return r.bindRegistered(f, d, declared, memberShape, target, bindStaticMethod)
	default:
		return r.bindMethod(f, d, declared, memberShape, target, apiSelf)
	}
}

func bindingKindOf(d directive) bindingKind {
	switch {
	case d.field:
		return bindFieldGet // refined into get or set by parameter count
	case d.constructor:
		return bindConstructor
	case d.superField != "":
		return bindSuperMethod
	case d.static:
		return bindStaticMethod
	default:
		return bindInstanceMethod
	}
}

// memberName returns the target member name for non-field bindings: the
// name= directive when present, the func field name otherwise.
func memberName(f reflect.StructField, d directive) string {
	if d.memberName != "" {
		return d.memberName
	}
	return f.Name
}

// deriveFieldName strips a Get/Set/Is accessor prefix from the func field
// name; without a prefix the name is used verbatim.
func deriveFieldName(name string) string {
	for _, prefix := range []string{constants.PrefixGet, constants.PrefixSet, constants.PrefixIs} {
		if rest := strings.TrimPrefix(name, prefix); rest != name && rest != "" {
			return rest
		}
	}
	return name
}

// findStructField locates a target struct field by its derived name. Go and
// the mirrored code base may disagree on capitalization (mirror fields are
// exported, target fields often are not), so the lookup tries the exact
// name, the first-rune-lowered name, and finally a unique case-insensitive
// match.
func findStructField(st reflect.Type, name string) (reflect.StructField, bool) {
	if f, ok := st.FieldByName(name); ok {
		return f, true
	}
	if lowered := lowerFirst(name); lowered != name {
		if f, ok := st.FieldByName(lowered); ok {
			return f, true
		}
	}
	return st.FieldByNameFunc(func(n string) bool { return strings.EqualFold(n, name) })
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError || !unicode.IsUpper(r) {
		return s
	}
	return string(unicode.ToLower(r)) + s[size:]
}

// bindField resolves direct field access, bypassing any accessor methods
// the target may have. Parameter count decides getter versus setter: zero
// parameters read the field, one writes it.
func (r *resolver) bindField(f reflect.StructField, d directive, declared, memberShape callShape, target reflect.Type, apiSelf bool) (*memberBinding, error) {
	name := d.memberName
	if name == "" {
		name = deriveFieldName(f.Name)
	}

	switch len(memberShape.in) {
	case 0:
		return r.bindFieldGet(f, d, declared, target, name, apiSelf)
	case 1:
		return r.bindFieldSet(f, d, declared, memberShape, target, name, apiSelf)
	default:
		return nil, memberError(errors.ErrSignatureMismatch, f.Name, bindFieldGet, target)
	}
}

func (r *resolver) bindFieldGet(f reflect.StructField, d directive, declared callShape, target reflect.Type, name string, apiSelf bool) (*memberBinding, error) {
	if len(declared.out) == 0 {
		return nil, memberError(errors.ErrSignatureMismatch, f.Name, bindFieldGet, target)
	}

	b := &memberBinding{kind: bindFieldGet, target: target, name: name, declared: declared}

	if d.static {
		vv, ok := r.registry.varFor(target, name)
		if !ok {
			return nil, memberError(errors.ErrMemberNotFound, f.Name, bindFieldGet, target)
		}
		adapt, presence, ok := resultAdapter([]reflect.Type{vv.Type()}, declared.out, f.Name)
		if !ok {
			return nil, memberError(errors.ErrSignatureMismatch, f.Name, bindFieldGet, target)
		}
		b.presence = presence
		b.call = func([]reflect.Value) []reflect.Value {
			return adapt([]reflect.Value{vv})
		}
		return b, nil
	}

	st := indirectType(target)
	if st == nil || st.Kind() != reflect.Struct {
		return nil, memberError(errors.ErrMemberNotFound, f.Name, bindFieldGet, target)
	}
	sf, ok := findStructField(st, name)
	if !ok {
		return nil, memberError(errors.ErrMemberNotFound, f.Name, bindFieldGet, target)
	}
	adapt, presence, ok := resultAdapter([]reflect.Type{sf.Type}, declared.out, f.Name)
	if !ok {
		return nil, memberError(errors.ErrSignatureMismatch, f.Name, bindFieldGet, target)
	}
	b.presence = presence

	acc := r.cap
	if apiSelf {
		index := sf.Index
		b.call = func(args []reflect.Value) []reflect.Value {
			sv := structValueOf(args[0])
			return adapt([]reflect.Value{acc.Read(sv, index)})
		}
		return b, nil
	}

	sv, ok := r.res.instanceStruct()
	if !ok {
		return nil, memberError(errors.ErrNoInstance, f.Name, bindFieldGet, target)
	}
	index := sf.Index
	b.call = func([]reflect.Value) []reflect.Value {
		return adapt([]reflect.Value{acc.Read(sv, index)})
	}
	return b, nil
}

func (r *resolver) bindFieldSet(f reflect.StructField, d directive, declared, memberShape callShape, target reflect.Type, name string, apiSelf bool) (*memberBinding, error) {
	fluent := len(declared.out) == 1 && declared.out[0] == r.fluentType
	if len(declared.out) != 0 && !fluent {
		// Setters return nothing or the mirror itself for chaining.
		return nil, memberError(errors.ErrSignatureMismatch, f.Name, bindFieldSet, target)
	}

	b := &memberBinding{kind: bindFieldSet, target: target, name: name, declared: declared, fluent: fluent}
	argType := memberShape.in[0]

	if d.static {
		vv, ok := r.registry.varFor(target, name)
		if !ok {
			return nil, memberError(errors.ErrMemberNotFound, f.Name, bindFieldSet, target)
		}
		if !compatible(argType, vv.Type()) {
			return nil, memberError(errors.ErrSignatureMismatch, f.Name, bindFieldSet, target)
		}
		want := vv.Type()
		memberLabel := f.Name
		b.call = func(args []reflect.Value) []reflect.Value {
			vv.Set(mustAdapt(args[0], want, memberLabel, "argument", 0))
			return nil
		}
		return b, nil
	}

	st := indirectType(target)
	if st == nil || st.Kind() != reflect.Struct {
		return nil, memberError(errors.ErrMemberNotFound, f.Name, bindFieldSet, target)
	}
	sf, ok := findStructField(st, name)
	if !ok {
		return nil, memberError(errors.ErrMemberNotFound, f.Name, bindFieldSet, target)
	}
	if !compatible(argType, sf.Type) {
		return nil, memberError(errors.ErrSignatureMismatch, f.Name, bindFieldSet, target)
	}

	acc := r.cap
	index := sf.Index
	want := sf.Type
	memberLabel := f.Name

	if apiSelf {
		if target.Kind() != reflect.Ptr {
			return nil, memberError(errors.ErrNotAddressable, f.Name, bindFieldSet, target)
		}
		b.call = func(args []reflect.Value) []reflect.Value {
			sv := structValueOf(args[0])
			acc.Write(sv, index, mustAdapt(args[1], want, memberLabel, "argument", 0))
			return nil
		}
		return b, nil
	}

	sv, ok := r.res.instanceStruct()
	if !ok {
		return nil, memberError(errors.ErrNoInstance, f.Name, bindFieldSet, target)
	}
	if !sv.CanAddr() {
		return nil, memberError(errors.ErrNotAddressable, f.Name, bindFieldSet, target)
	}
	b.call = func(args []reflect.Value) []reflect.Value {
		acc.Write(sv, index, mustAdapt(args[0], want, memberLabel, "argument", 0))
		return nil
	}
	return b, nil
}

// bindRegistered resolves constructor and static-method bindings through
// the registry's function table.
func (r *resolver) bindRegistered(f reflect.StructField, d directive, declared, memberShape callShape, target reflect.Type, kind bindingKind) (*memberBinding, error) {
	name := memberName(f, d)
	fv, ok := r.registry.funcFor(target, name)
	if !ok {
		return nil, memberError(errors.ErrMemberNotFound, f.Name, kind, target)
	}
	member := shapeOf(fv.Type())

	if kind == bindConstructor {
		// The first result is the constructed value; it may be the target
		// itself or a pointer to it.
		if len(member.out) == 0 ||
			(indirectType(member.out[0]) != indirectType(target) && !member.out[0].AssignableTo(target)) {
			return nil, memberError(errors.ErrSignatureMismatch, f.Name, kind, target)
		}
	}

	return r.finishBinding(f, kind, target, name, declared, memberShape, member, callCore(fv, member.variadic))
}

// bindSuper resolves a method on a named embedded ancestor of the target,
// bypassing the outer type's override of the same method.
func (r *resolver) bindSuper(f reflect.StructField, d directive, declared, memberShape callShape, target reflect.Type) (*memberBinding, error) {
	st, ok := r.res.structType()
	if !ok {
		return nil, memberError(errors.ErrMemberNotFound, f.Name, bindSuperMethod, target)
	}
	ancestor, ok := st.FieldByName(d.superField)
	if !ok || !ancestor.Anonymous {
		return nil, errorc.With(
			errors.ErrMemberNotFound,
			errorc.String(errors.ErrorFieldMemberName, f.Name),
			errorc.String(errors.ErrorFieldMemberKind, bindSuperMethod.String()),
			errorc.String(errors.ErrorFieldDirective, constants.DirectiveSuper+"="+d.superField),
		)
	}
	sv, ok := r.res.instanceStruct()
	if !ok {
		return nil, memberError(errors.ErrNoInstance, f.Name, bindSuperMethod, target)
	}

	base := r.cap.Read(sv, ancestor.Index)
	name := memberName(f, d)
	m := reflect.Value{}
	if base.CanAddr() {
		m = base.Addr().MethodByName(name)
	}
	if !m.IsValid() {
		m = base.MethodByName(name)
	}
	if !m.IsValid() {
		return nil, memberError(errors.ErrMemberNotFound, f.Name, bindSuperMethod, ancestor.Type)
	}
	member := shapeOf(m.Type())

	return r.finishBinding(f, bindSuperMethod, ancestor.Type, name, declared, memberShape, member, callCore(m, member.variadic))
}

// bindMethod resolves an ordinary method from the target's method set.
func (r *resolver) bindMethod(f reflect.StructField, d directive, declared, memberShape callShape, target reflect.Type, apiSelf bool) (*memberBinding, error) {
	name := memberName(f, d)

	if apiSelf {
		mt, ok := target.MethodByName(name)
		if !ok {
			return nil, memberError(errors.ErrMemberNotFound, f.Name, bindInstanceMethod, target)
		}
		member := shapeOf(mt.Func.Type()).dropFirst() // drop receiver
		recvType := target
		idx := mt.Index
		core := func(args []reflect.Value) []reflect.Value {
			recv := mustAdapt(args[0], recvType, name, "argument", 0)
			m := recv.Method(idx)
			if member.variadic {
				return m.CallSlice(args[1:])
			}
			return m.Call(args[1:])
		}
		return r.finishBinding(f, bindInstanceMethod, target, name, declared, memberShape, member, core)
	}

	m := r.res.instVal.MethodByName(name)
	if !m.IsValid() {
		return nil, memberError(errors.ErrMemberNotFound, f.Name, bindInstanceMethod, target)
	}
	member := shapeOf(m.Type())
	return r.finishBinding(f, bindInstanceMethod, target, name, declared, memberShape, member, callCore(m, member.variadic))
}

// callCore wraps a bound callable value.
func callCore(fn reflect.Value, variadic bool) func([]reflect.Value) []reflect.Value {
	if variadic {
		return fn.CallSlice
	}
	return fn.Call
}

// finishBinding performs the signature negotiation shared by constructor,
// static, super and instance method bindings and assembles the final
// memberBinding.
func (r *resolver) finishBinding(f reflect.StructField, kind bindingKind, target reflect.Type, name string, declared, memberShape callShape, member callShape, core func([]reflect.Value) []reflect.Value) (*memberBinding, error) {
	fluent := len(declared.out) == 1 && declared.out[0] == r.fluentType

	if !planArgs(memberShape, member) {
		return nil, memberError(errors.ErrSignatureMismatch, f.Name, kind, target)
	}

	var adapt func([]reflect.Value) []reflect.Value
	presence := false
	if !fluent {
		var ok bool
		adapt, presence, ok = resultAdapter(member.out, declared.out, f.Name)
		if !ok {
			return nil, memberError(errors.ErrSignatureMismatch, f.Name, kind, target)
		}
	}

	b := &memberBinding{
		kind:     kind,
		target:   target,
		name:     name,
		fluent:   fluent,
		presence: presence,
		declared: declared,
	}

	selfArgs := len(declared.in) - len(memberShape.in) // 1 in API instance mode
	label := f.Name
	b.call = func(args []reflect.Value) []reflect.Value {
		adapted := adaptArgs(args[selfArgs:], member, label)
		if selfArgs > 0 {
			adapted = append(args[:selfArgs:selfArgs], adapted...)
		}
		results := core(adapted)
		if fluent {
			return nil // router substitutes the mirror pointer
		}
		return adapt(results)
	}
	return b, nil
}

func memberError(sentinel error, fieldName string, kind bindingKind, target reflect.Type) error {
	targetName := "<none>"
	if target != nil {
		targetName = target.String()
	}
	return errorc.With(
		sentinel,
		errorc.String(errors.ErrorFieldMemberName, fieldName),
		errorc.String(errors.ErrorFieldMemberKind, kind.String()),
		errorc.String(errors.ErrorFieldTargetType, targetName),
	)
}

// structValueOf peels pointers off an instance value to reach its struct.
// Used by API-mode field bindings, whose instance arrives per call.
func structValueOf(v reflect.Value) reflect.Value {
	if v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	return v
}
