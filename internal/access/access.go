// Package access holds the privileged reflection capability used by mirror
// construction and instance upgrading. It can read and write struct fields
// regardless of export status and allocate values without running any
// initialization code. The capability is passed explicitly to the components
// that need it, so every privileged use is visible at a call site.
package access

import (
	"reflect"
	"sync"
	"unsafe"

	"github.com/modern-go/reflect2"
)

// Capability grants raw field access and constructor-free allocation.
type Capability struct{}

func New() *Capability { return &Capability{} }

var (
	defaultOnce sync.Once
	defaultCap  *Capability
)

// Default returns the process-wide capability. It is created once and never
// changes afterwards.
func Default() *Capability {
	defaultOnce.Do(func() { defaultCap = New() })
	return defaultCap
}

// Allocate returns a pointer to a new zero value of t. No initialization
// function runs; invariants normally established by a constructor func are
// the caller's responsibility.
func (c *Capability) Allocate(t reflect.Type) any {
	return reflect2.Type2(t).New()
}

// Value returns a fully usable view of v even when v refers to an unexported
// field. v must be addressable.
func (c *Capability) Value(v reflect.Value) reflect.Value {
	if v.CanInterface() && v.CanSet() {
		return v
	}
	return reflect.NewAt(v.Type(), unsafe.Pointer(v.UnsafeAddr())).Elem()
}

// Read returns the value of the struct field at the given index path in s.
// Unexported fields of a non-addressable struct are read from an addressable
// copy.
func (c *Capability) Read(s reflect.Value, index []int) reflect.Value {
	if !s.CanAddr() {
		tmp := reflect.New(s.Type()).Elem()
		tmp.Set(s)
		s = tmp
	}
	f := s.FieldByIndex(index)
	if !f.CanInterface() {
		f = reflect.NewAt(f.Type(), unsafe.Pointer(f.UnsafeAddr())).Elem()
	}
	return f
}

// Write stores val into the struct field at the given index path in s.
// s must be an addressable struct value. val must be assignable or
// convertible to the field type; the caller is expected to have verified
// assignability.
func (c *Capability) Write(s reflect.Value, index []int, val reflect.Value) {
	f := c.Value(s.FieldByIndex(index))
	if val.Type() != f.Type() {
		val = val.Convert(f.Type())
	}
	f.Set(val)
}

// Copy transfers one field value between two struct pointers. Fields are
// addressed by index path relative to the pointed-to structs. Identical
// top-level fields are moved with a raw memory copy; everything else goes
// through a privileged reflect view with conversion where the types differ.
func (c *Capability) Copy(dstPtr, srcPtr reflect.Value, dstIndex, srcIndex []int) {
	dstField := dstPtr.Elem().FieldByIndex(dstIndex)
	srcField := srcPtr.Elem().FieldByIndex(srcIndex)

	if len(dstIndex) == 1 && len(srcIndex) == 1 && dstField.Type() == srcField.Type() {
		dstStruct := reflect2.Type2(dstPtr.Type().Elem()).(reflect2.StructType)
		srcStruct := reflect2.Type2(srcPtr.Type().Elem()).(reflect2.StructType)
		dstStruct.Field(dstIndex[0]).UnsafeSet(
			dstPtr.UnsafePointer(),
			srcStruct.Field(srcIndex[0]).UnsafeGet(srcPtr.UnsafePointer()),
		)
		return
	}

	v := c.Value(srcField)
	d := c.Value(dstField)
	if v.Type() != d.Type() {
		v = v.Convert(d.Type())
	}
	d.Set(v)
}
