package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSparseStoreSetGet(t *testing.T) {
	st := NewSparseStore(16)

	_, ok := st.Get(5)
	assert.False(t, ok)

	require.NoError(t, st.Set(5, Value{A: 1.5, B: 2.5}))
	v, ok := st.Get(5)
	require.True(t, ok)
	assert.Equal(t, float32(1.5), v.A)
	assert.Equal(t, float32(2.5), v.B)

	st.Remove(5)
	_, ok = st.Get(5)
	assert.False(t, ok)
	assert.Equal(t, 0, st.Len())
}

func TestSparseStoreOverflow(t *testing.T) {
	st := NewSparseStore(2)
	require.NoError(t, st.Set(1, Value{A: 1}))
	require.NoError(t, st.Set(2, Value{A: 2}))

	err := st.Set(3, Value{A: 3})
	assert.ErrorIs(t, err, ErrStoreOverflow)

	// Обновление существующего ключа проходит и на пределе
	require.NoError(t, st.Set(2, Value{A: 20}))
	v, _ := st.Get(2)
	assert.Equal(t, float32(20), v.A)

	// Освобождение места разблокирует запись
	st.Remove(1)
	require.NoError(t, st.Set(3, Value{A: 3}))
}

func TestSparseStoreIndicesSorted(t *testing.T) {
	st := NewSparseStore(16)
	for _, idx := range []int{42, 7, 100, 3} {
		require.NoError(t, st.Set(idx, Value{A: float32(idx)}))
	}
	assert.Equal(t, []int{3, 7, 42, 100}, st.Indices())
}

func TestDenseStoreLifecycle(t *testing.T) {
	st := NewDenseStore()
	assert.Equal(t, 0, st.Len())

	require.NoError(t, st.Set(10, Value{A: 300}))
	require.NoError(t, st.Set(11, Value{A: 301}))
	assert.Equal(t, 2, st.Len())

	v, ok := st.Get(10)
	require.True(t, ok)
	assert.Equal(t, float32(300), v.A)

	st.Remove(10)
	st.Remove(11)
	assert.Equal(t, 0, st.Len())
	_, ok = st.Get(10)
	assert.False(t, ok)
}

func TestStoreCloneIndependent(t *testing.T) {
	for name, st := range map[string]Store{
		"sparse": NewSparseStore(16),
		"dense":  NewDenseStore(),
	} {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, st.Set(1, Value{A: 1}))
			clone := st.Clone()

			require.NoError(t, st.Set(1, Value{A: 99}))
			require.NoError(t, st.Set(2, Value{A: 2}))

			v, ok := clone.Get(1)
			require.True(t, ok)
			assert.Equal(t, float32(1), v.A)
			_, ok = clone.Get(2)
			assert.False(t, ok)
		})
	}
}

func TestScratchCandidates(t *testing.T) {
	s := NewScratch()

	_, ok := s.Candidate(Thermal, 5)
	assert.False(t, ok)

	s.SetCandidate(Thermal, 5, 42.5)
	v, ok := s.Candidate(Thermal, 5)
	require.True(t, ok)
	assert.Equal(t, 42.5, v)

	// Кандидаты доменов не пересекаются
	_, ok = s.Candidate(MoistureField, 5)
	assert.False(t, ok)

	s.Reset()
	_, ok = s.Candidate(Thermal, 5)
	assert.False(t, ok)
}

func TestScratchOutgoing(t *testing.T) {
	s := NewScratch()
	s.StageOutgoing(Thermal, Emit{Face: FacePosX, Cmd: AddHeat{Idx: 3, Heat: 1}})
	s.StageOutgoing(Thermal, Emit{Face: FaceNegY, Cmd: AddHeat{Idx: 4, Heat: 2}})

	out := s.DrainOutgoing(Thermal)
	require.Len(t, out, 2)
	assert.Equal(t, FacePosX, out[0].Face)

	assert.Empty(t, s.DrainOutgoing(Thermal))
}
