package mirror

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mirrorerrors "github.com/ygrebnov/mirror/errors"
)

// gadgetFactory exercises the member kinds that need no instance.
type gadgetFactory struct {
	Of[*gadget]

	New             func(string, int) *gadget `mirror:"constructor,name=NewGadget"`
	CombinedWidth   func(...*gadget) int      `mirror:"static"`
	DefaultWidth    func() int                `mirror:"field,static"`
	SetDefaultWidth func(int)                 `mirror:"field,static"`
}

func TestAttachStatic(t *testing.T) {
	reg := newTestRegistry(t)
	f, err := AttachStatic[gadgetFactory](WithRegistry(reg))
	require.NoError(t, err)

	t.Run("constructor", func(t *testing.T) {
		g := f.New("built", 12)
		require.NotNil(t, g)
		assert.Equal(t, "built", g.name)
		assert.Equal(t, 12, g.width)
	})

	t.Run("static method with variadic arguments", func(t *testing.T) {
		total := f.CombinedWidth(&gadget{width: 3}, &gadget{width: 4})
		assert.Equal(t, 7, total)
	})

	t.Run("static field get and set", func(t *testing.T) {
		assert.Equal(t, defaultWidth, f.DefaultWidth())

		f.SetDefaultWidth(256)
		assert.Equal(t, 256, defaultWidth)
		assert.Equal(t, 256, f.DefaultWidth())
		defaultWidth = 100
	})
}

func TestAttachStatic_InstanceMemberFails(t *testing.T) {
	type needsInstance struct {
		Of[*gadget]
		Describe func() string
	}

	m, err := AttachStatic[needsInstance]()
	require.ErrorIs(t, err, mirrorerrors.ErrNoInstance)
	require.Nil(t, m)
}

func TestAttachStatic_UnregisteredMember(t *testing.T) {
	type unregistered struct {
		Of[*gadget]
		New func(string, int) *gadget `mirror:"constructor"`
	}

	// The default registry knows nothing about gadget.
	m, err := AttachStatic[unregistered]()
	require.ErrorIs(t, err, mirrorerrors.ErrMemberNotFound)
	require.Nil(t, m)
}

func TestAttachStatic_ConstructorResultMismatch(t *testing.T) {
	reg := newTestRegistry(t)
	require.NoError(t, reg.RegisterFunc(&gadget{}, "NewDevice", func() *device { return &device{} }))

	type wrongResult struct {
		Of[*gadget]
		New func() *gadget `mirror:"constructor,name=NewDevice"`
	}

	_, err := AttachStatic[wrongResult](WithRegistry(reg))
	require.ErrorIs(t, err, mirrorerrors.ErrSignatureMismatch)
}

// gadgetAPI binds members in per-member target mode: instance members take
// their target as the first parameter, statics name theirs by registered
// type.
type gadgetAPI struct {
	API

	Width   func(*gadget) int         `mirror:"field"`
	SetName func(*gadget, string)     `mirror:"field"`
	Rename  func(*gadget, string)
	Make    func(string, int) *gadget `mirror:"constructor,target=gadget,name=NewGadget"`
}

func TestAttachStatic_APIMode(t *testing.T) {
	reg := newTestRegistry(t)
	api, err := AttachStatic[gadgetAPI](WithRegistry(reg))
	require.NoError(t, err)

	g := api.Make("api", 21)
	require.NotNil(t, g)
	assert.Equal(t, 21, api.Width(g))

	api.SetName(g, "renamed-field")
	assert.Equal(t, "renamed-field", g.name)

	api.Rename(g, "renamed-method")
	assert.Equal(t, "renamed-method", g.name)
}

func TestAttachStatic_APIModeErrors(t *testing.T) {
	reg := newTestRegistry(t)

	t.Run("instance member needs a non-basic first parameter", func(t *testing.T) {
		type badSelf struct {
			API
			Width func(int) int `mirror:"field"`
		}
		_, err := AttachStatic[badSelf](WithRegistry(reg))
		require.ErrorIs(t, err, mirrorerrors.ErrSignatureMismatch)
	})

	t.Run("constructor without target directive", func(t *testing.T) {
		type noTarget struct {
			API
			Make func(string, int) *gadget `mirror:"constructor,name=NewGadget"`
		}
		_, err := AttachStatic[noTarget](WithRegistry(reg))
		require.ErrorIs(t, err, mirrorerrors.ErrInvalidDirective)
	})

	t.Run("unknown target name", func(t *testing.T) {
		type unknownTarget struct {
			API
			Make func(string, int) *gadget `mirror:"constructor,target=widget,name=NewGadget"`
		}
		_, err := AttachStatic[unknownTarget](WithRegistry(reg))
		require.ErrorIs(t, err, mirrorerrors.ErrInvalidDirective)
	})

	t.Run("attach with instance is rejected", func(t *testing.T) {
		_, err := Attach[gadgetAPI](&gadget{}, WithRegistry(reg))
		require.ErrorIs(t, err, mirrorerrors.ErrInstanceWithAPI)
	})
}
