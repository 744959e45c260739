package mirror

import (
	"strings"
	"testing"
)

// device is the embedded ancestor of gadget; gadget overrides Describe.
type device struct {
	id string
}

func (d *device) Describe() string { return "device " + d.id }

// gadget is the mirrored target shared by the construction tests. All of
// its fields are unexported; SetWidth has a side effect that direct field
// access is expected to bypass.
type gadget struct {
	device
	name    string
	width   int
	note    *string
	resizes int
}

func (g *gadget) Describe() string { return "gadget " + g.name }

func (g *gadget) Rename(n string) { g.name = n }

func (g *gadget) SetWidth(w int) {
	g.width = w
	g.resizes++
}

func (g *gadget) Width() int { return g.width }

func (g *gadget) SameAs(o *gadget) bool { return g.name == o.name }

func (g *gadget) Join(sep string, parts ...string) string {
	return strings.Join(append([]string{g.name}, parts...), sep)
}

// Package-level members of gadget, reachable only through a registry.

func newGadget(name string, width int) *gadget {
	return &gadget{name: name, width: width}
}

func combinedWidth(gs ...*gadget) int {
	total := 0
	for _, g := range gs {
		total += g.width
	}
	return total
}

var defaultWidth = 100

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg := NewRegistry()
	for _, err := range []error{
		reg.RegisterType("gadget", &gadget{}),
		reg.RegisterFunc(&gadget{}, "NewGadget", newGadget),
		reg.RegisterFunc(&gadget{}, "CombinedWidth", combinedWidth),
		reg.RegisterVar(&gadget{}, "DefaultWidth", &defaultWidth),
	} {
		if err != nil {
			t.Fatalf("registry setup: %v", err)
		}
	}
	return reg
}
