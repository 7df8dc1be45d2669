package block

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryRegisterGet(t *testing.T) {
	r := NewRegistry()

	id, err := r.Register(Def{ID: Stone, Name: "stone", Temperature: 12})
	require.NoError(t, err)
	assert.Equal(t, Stone, id)

	def, err := r.Get(Stone)
	require.NoError(t, err)
	assert.Equal(t, "stone", def.Name)
	assert.Equal(t, 12.0, def.Temperature)

	_, err = r.Get(Water)
	assert.ErrorIs(t, err, ErrUnknownBlockID)
}

func TestRegistryDuplicate(t *testing.T) {
	r := NewRegistry()
	_, err := r.Register(Def{ID: Stone, Name: "stone"})
	require.NoError(t, err)

	_, err = r.Register(Def{ID: Stone, Name: "stone_again"})
	assert.ErrorIs(t, err, ErrDuplicateDefinition)
}

func TestRegistryFreeze(t *testing.T) {
	r := NewRegistry()
	_, err := r.Register(Def{ID: Air, Name: "air"})
	require.NoError(t, err)

	r.Freeze()
	_, err = r.Register(Def{ID: Stone, Name: "stone"})
	assert.ErrorIs(t, err, ErrRegistryFrozen)

	// Чтение после заморозки работает
	def, err := r.Get(Air)
	require.NoError(t, err)
	assert.Equal(t, "air", def.Name)
}

func TestDefaultRegistryCatalogue(t *testing.T) {
	r, err := DefaultRegistry()
	require.NoError(t, err)

	// Воздух с нулевым ID: пустой чанк состоит из воздуха
	air, err := r.Get(Air)
	require.NoError(t, err)
	assert.False(t, air.Flammable)

	wood, err := r.Get(Wood)
	require.NoError(t, err)
	assert.True(t, wood.Flammable)
	assert.Equal(t, []ID{CharredWood, Ash}, wood.CharStages)
	assert.Greater(t, wood.IgnitionTemp, wood.Temperature)
	assert.Greater(t, wood.BurnEnergy, 0.0)

	// Цепочка обугливания замкнута на зарегистрированные блоки
	charred, err := r.Get(CharredWood)
	require.NoError(t, err)
	assert.Equal(t, []ID{Ash}, charred.CharStages)
	ash, err := r.Get(Ash)
	require.NoError(t, err)
	assert.Empty(t, ash.CharStages)

	// Реестр по умолчанию заморожен
	_, err = r.Register(Def{ID: 999, Name: "custom"})
	assert.ErrorIs(t, err, ErrRegistryFrozen)
}

func TestFlagsOps(t *testing.T) {
	var f Flags
	assert.False(t, f.Has(FlagBurning))

	f = f.With(FlagBurning).With(FlagHot)
	assert.True(t, f.Has(FlagBurning))
	assert.True(t, f.Has(FlagHot))
	assert.False(t, f.Has(FlagWet))

	f = f.Without(FlagBurning)
	assert.False(t, f.Has(FlagBurning))
	assert.True(t, f.Has(FlagHot))
}
