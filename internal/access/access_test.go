package access

import (
	"reflect"
	"testing"
)

type sealed struct {
	name  string
	count int
}

type outer struct {
	sealed
	label string
}

func TestCapability_Allocate(t *testing.T) {
	c := New()

	v := c.Allocate(reflect.TypeOf(sealed{}))
	s, ok := v.(*sealed)
	if !ok {
		t.Fatalf("expected *sealed, got %T", v)
	}
	if s.name != "" || s.count != 0 {
		t.Fatalf("expected zero value, got %+v", *s)
	}
}

func TestCapability_ReadWrite(t *testing.T) {
	c := New()
	s := &sealed{name: "a", count: 1}
	sv := reflect.ValueOf(s).Elem()

	if got := c.Read(sv, []int{0}).String(); got != "a" {
		t.Fatalf("expected a, got %q", got)
	}

	c.Write(sv, []int{0}, reflect.ValueOf("b"))
	if s.name != "b" {
		t.Fatalf("expected b, got %q", s.name)
	}

	// Converting writes.
	c.Write(sv, []int{1}, reflect.ValueOf(int32(7)))
	if s.count != 7 {
		t.Fatalf("expected 7, got %d", s.count)
	}
}

func TestCapability_ReadNonAddressable(t *testing.T) {
	c := New()
	sv := reflect.ValueOf(sealed{name: "a"})

	if got := c.Read(sv, []int{0}).String(); got != "a" {
		t.Fatalf("expected a, got %q", got)
	}
}

func TestCapability_Copy(t *testing.T) {
	c := New()

	t.Run("identical top-level fields", func(t *testing.T) {
		src := &sealed{name: "a", count: 1}
		dst := &sealed{}
		c.Copy(reflect.ValueOf(dst), reflect.ValueOf(src), []int{0}, []int{0})
		if dst.name != "a" {
			t.Fatalf("expected a, got %q", dst.name)
		}
		if dst.count != 0 {
			t.Fatalf("expected untouched count, got %d", dst.count)
		}
	})

	t.Run("nested index paths", func(t *testing.T) {
		src := &sealed{name: "a"}
		dst := &outer{}
		c.Copy(reflect.ValueOf(dst), reflect.ValueOf(src), []int{0, 0}, []int{0})
		if dst.sealed.name != "a" {
			t.Fatalf("expected a, got %q", dst.sealed.name)
		}
	})

	t.Run("converting copy", func(t *testing.T) {
		type wide struct{ count int64 }
		src := &sealed{count: 9}
		dst := &wide{}
		c.Copy(reflect.ValueOf(dst), reflect.ValueOf(src), []int{0}, []int{1})
		if dst.count != 9 {
			t.Fatalf("expected 9, got %d", dst.count)
		}
	})
}

func TestDefault(t *testing.T) {
	if Default() == nil {
		t.Fatal("expected a capability")
	}
	if Default() != Default() {
		t.Fatal("expected a single shared capability")
	}
}
