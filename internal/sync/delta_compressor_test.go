package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleChanges() []Change {
	return []Change{
		{Data: []byte("alpha"), Priority: 1},
		{Data: []byte{}, Priority: 5},
		{Data: []byte("gamma-longer-payload-0123456789"), Priority: 9},
	}
}

func TestPassthroughRoundtrip(t *testing.T) {
	c := NewPassthroughCompressor()

	payload, err := c.Compress(sampleChanges())
	require.NoError(t, err)

	got, err := c.Decompress(payload)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []byte("alpha"), got[0].Data)
	assert.Empty(t, got[1].Data)
	assert.Equal(t, []byte("gamma-longer-payload-0123456789"), got[2].Data)
}

func TestPassthroughEmpty(t *testing.T) {
	c := NewPassthroughCompressor()
	payload, err := c.Compress(nil)
	require.NoError(t, err)

	got, err := c.Decompress(payload)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPassthroughTruncatedTail(t *testing.T) {
	c := NewPassthroughCompressor()
	payload, err := c.Compress(sampleChanges())
	require.NoError(t, err)

	// Битый хвост отбрасывается, целые пакеты выживают
	got, err := c.Decompress(payload[:len(payload)-3])
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []byte("alpha"), got[0].Data)
}

func TestZstdRoundtrip(t *testing.T) {
	c, err := NewZstdCompressor()
	require.NoError(t, err)

	payload, err := c.Compress(sampleChanges())
	require.NoError(t, err)

	got, err := c.Decompress(payload)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, ch := range sampleChanges() {
		assert.Equal(t, ch.Data, got[i].Data)
	}
}

func TestZstdCompressesRepetitiveData(t *testing.T) {
	c, err := NewZstdCompressor()
	require.NoError(t, err)

	// Однотипные записи журналов хорошо жмутся
	data := make([]byte, 0, 16*1024)
	for i := 0; i < 1024; i++ {
		data = append(data, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
			0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08)
	}
	payload, err := c.Compress([]Change{{Data: data}})
	require.NoError(t, err)
	assert.Less(t, len(payload), len(data)/4)

	got, err := c.Decompress(payload)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, data, got[0].Data)
}

func TestZstdRejectsGarbage(t *testing.T) {
	c, err := NewZstdCompressor()
	require.NoError(t, err)

	_, err = c.Decompress([]byte("definitely not zstd"))
	assert.Error(t, err)
}

func TestBatchManagerEvictsLowestPriority(t *testing.T) {
	bm := NewBatchManager(nil, "node-a", 2, time.Hour, NewPassthroughCompressor())
	defer close(bm.quit)

	bm.AddChange(Change{Data: []byte("low"), Priority: 1})
	bm.AddChange(Change{Data: []byte("mid"), Priority: 5})
	bm.AddChange(Change{Data: []byte("high"), Priority: 9})

	bm.mu.Lock()
	defer bm.mu.Unlock()
	require.Len(t, bm.buf, 2)
	priorities := []int{bm.buf[0].Priority, bm.buf[1].Priority}
	assert.ElementsMatch(t, []int{5, 9}, priorities)
}

func TestBatchManagerDropsBelowFloor(t *testing.T) {
	bm := NewBatchManager(nil, "node-a", 1, time.Hour, NewPassthroughCompressor())
	defer close(bm.quit)

	bm.AddChange(Change{Data: []byte("high"), Priority: 9})
	// Буфер полон, кандидат слабее всех — отбрасывается
	bm.AddChange(Change{Data: []byte("low"), Priority: 1})

	bm.mu.Lock()
	defer bm.mu.Unlock()
	require.Len(t, bm.buf, 1)
	assert.Equal(t, []byte("high"), bm.buf[0].Data)
}
