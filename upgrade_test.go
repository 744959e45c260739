package mirror

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mirrorerrors "github.com/ygrebnov/mirror/errors"
)

type animal struct {
	name string
	legs int
}

type dog struct {
	animal
	breed string
}

type cyborgDog struct {
	dog
	firmware string
}

func TestUpgrade(t *testing.T) {
	t.Run("embedding subtype", func(t *testing.T) {
		d, err := Upgrade[dog](&animal{name: "rex", legs: 4})
		require.NoError(t, err)
		assert.Equal(t, "rex", d.name)
		assert.Equal(t, 4, d.legs)
		assert.Empty(t, d.breed)
	})

	t.Run("transitive embedding", func(t *testing.T) {
		c, err := Upgrade[cyborgDog](&animal{name: "rex", legs: 4})
		require.NoError(t, err)
		assert.Equal(t, "rex", c.name)
		assert.Empty(t, c.firmware)
	})

	t.Run("source passed by value", func(t *testing.T) {
		d, err := Upgrade[dog](animal{name: "rex", legs: 4})
		require.NoError(t, err)
		assert.Equal(t, "rex", d.name)
	})

	t.Run("upgraded instance is independent of the source", func(t *testing.T) {
		src := &animal{name: "rex", legs: 4}
		d, err := Upgrade[dog](src)
		require.NoError(t, err)

		src.name = "mutated"
		assert.Equal(t, "rex", d.name)
	})

	t.Run("unrelated destination", func(t *testing.T) {
		_, err := Upgrade[animal](&gadget{})
		require.ErrorIs(t, err, mirrorerrors.ErrNotSubtype)
	})

	t.Run("downgrade is not an upgrade", func(t *testing.T) {
		_, err := Upgrade[animal](&dog{})
		require.ErrorIs(t, err, mirrorerrors.ErrNotSubtype)
	})

	t.Run("nil source", func(t *testing.T) {
		_, err := Upgrade[dog](nil)
		require.ErrorIs(t, err, mirrorerrors.ErrNilInstance)

		var src *animal
		_, err = Upgrade[dog](src)
		require.ErrorIs(t, err, mirrorerrors.ErrNilInstance)
	})

	t.Run("non-struct source", func(t *testing.T) {
		_, err := Upgrade[dog](42)
		require.ErrorIs(t, err, mirrorerrors.ErrNotStruct)
	})

	t.Run("non-struct destination", func(t *testing.T) {
		_, err := Upgrade[int](&animal{})
		require.ErrorIs(t, err, mirrorerrors.ErrNotConcrete)
	})

	t.Run("constructor functions do not run", func(t *testing.T) {
		d, err := Upgrade[trackedDog](&animal{name: "rex"})
		require.NoError(t, err)
		assert.False(t, d.constructed)
	})
}

type trackedDog struct {
	animal
	constructed bool
}

// newTrackedDog is the only way to get a constructed trackedDog through
// normal code paths.
func newTrackedDog() *trackedDog {
	return &trackedDog{constructed: true}
}

type recordV1 struct {
	id    string
	title string
	count int32
}

type recordV2 struct {
	id    string
	name  string
	count int64
	extra []string
}

func TestUpgradeIndirect(t *testing.T) {
	t.Run("matching fields move, the rest are skipped", func(t *testing.T) {
		r, err := UpgradeIndirect[recordV2](&recordV1{id: "r1", title: "dropped", count: 9})
		require.NoError(t, err)
		assert.Equal(t, "r1", r.id)
		assert.Empty(t, r.name) // title has no counterpart without a mapping
		assert.Equal(t, int64(9), r.count)
		assert.Nil(t, r.extra)
	})

	t.Run("field mapping renames on the way over", func(t *testing.T) {
		r, err := UpgradeIndirect[recordV2](
			&recordV1{id: "r1", title: "kept", count: 9},
			WithFieldMapping("title", "name"),
		)
		require.NoError(t, err)
		assert.Equal(t, "kept", r.name)
	})

	t.Run("matched name with incompatible types fails the upgrade", func(t *testing.T) {
		type v1 struct{ payload int }
		type v2 struct{ payload map[string]int }

		_, err := UpgradeIndirect[v2](&v1{payload: 1})
		require.ErrorIs(t, err, mirrorerrors.ErrFieldTypeMismatch)
	})

	t.Run("narrowing a matched field fails instead of truncating", func(t *testing.T) {
		type wide struct{ n int64 }
		type slim struct{ n int8 }

		_, err := UpgradeIndirect[slim](&wide{n: 300})
		require.ErrorIs(t, err, mirrorerrors.ErrFieldTypeMismatch)
	})
}

func TestClone(t *testing.T) {
	t.Run("copies all fields including unexported", func(t *testing.T) {
		g := &gadget{device: device{id: "d1"}, name: "g1", width: 10, resizes: 2}
		clone, err := Clone(g)
		require.NoError(t, err)
		require.NotSame(t, g, clone)
		assert.Equal(t, "d1", clone.id)
		assert.Equal(t, "g1", clone.name)
		assert.Equal(t, 10, clone.width)
		assert.Equal(t, 2, clone.resizes)

		g.name = "mutated"
		assert.Equal(t, "g1", clone.name)
	})

	t.Run("pointer fields stay shared", func(t *testing.T) {
		text := "shared"
		g := &gadget{note: &text}
		clone, err := Clone(g)
		require.NoError(t, err)
		assert.Same(t, g.note, clone.note)
	})

	t.Run("nil source", func(t *testing.T) {
		_, err := Clone[gadget](nil)
		require.ErrorIs(t, err, mirrorerrors.ErrNilInstance)
	})
}

// A field of an embedded struct and a same-named own field collapse to one
// entry, the embedded one. The shadowed own field does not travel.
func TestUpgrade_EmbeddedFieldWinsCollision(t *testing.T) {
	type legacy struct {
		label string
	}
	type current struct {
		legacy
		label string
	}

	src := &current{label: "own"}
	src.legacy.label = "embedded"

	clone, err := Clone(src)
	require.NoError(t, err)
	assert.Equal(t, "embedded", clone.legacy.label)
	assert.Empty(t, clone.label)
}
