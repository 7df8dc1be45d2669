package sync

import (
	"time"

	"github.com/klauspost/compress/zstd"
)

// Change один пакет журнала изменений чанка, подготовленный к отправке.
// Data содержит пакет в бинарном формате protocol.EncodeBatch.
type Change struct {
	Data      []byte    // Сериализованный пакет изменений
	Priority  int       // Приоритизация при переполнении буфера
	Timestamp time.Time // Время создания
}

// DeltaCompressor кодирует набор пакетов в единый блоб для шины и обратно
type DeltaCompressor interface {
	Compress(changes []Change) ([]byte, error)
	Decompress(payload []byte) ([]Change, error)
}

// frameChanges простой контейнер: [len u32 BE][data]...
func frameChanges(changes []Change) []byte {
	buf := make([]byte, 0)
	for _, c := range changes {
		n := uint32(len(c.Data))
		buf = append(buf, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
		buf = append(buf, c.Data...)
	}
	return buf
}

func unframeChanges(payload []byte) []Change {
	var res []Change
	i := 0
	for i < len(payload) {
		if i+4 > len(payload) {
			break // битый хвост игнорируем
		}
		n := uint32(payload[i])<<24 | uint32(payload[i+1])<<16 | uint32(payload[i+2])<<8 | uint32(payload[i+3])
		i += 4
		if i+int(n) > len(payload) {
			break
		}
		res = append(res, Change{Data: payload[i : i+int(n)]})
		i += int(n)
	}
	return res
}

// passthroughCompressor контейнер без сжатия
type passthroughCompressor struct{}

// NewPassthroughCompressor возвращает компрессор без сжатия
func NewPassthroughCompressor() DeltaCompressor { return &passthroughCompressor{} }

func (p *passthroughCompressor) Compress(changes []Change) ([]byte, error) {
	return frameChanges(changes), nil
}

func (p *passthroughCompressor) Decompress(payload []byte) ([]Change, error) {
	return unframeChanges(payload), nil
}

// zstdCompressor сжимает контейнер zstd.
// Журналы изменений хорошо жмутся: однотипные записи соседних вокселей.
type zstdCompressor struct {
	enc *zstd.Encoder
	dec *zstd.Decoder
}

// NewZstdCompressor возвращает компрессор на zstd
func NewZstdCompressor() (DeltaCompressor, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	return &zstdCompressor{enc: enc, dec: dec}, nil
}

func (z *zstdCompressor) Compress(changes []Change) ([]byte, error) {
	return z.enc.EncodeAll(frameChanges(changes), nil), nil
}

func (z *zstdCompressor) Decompress(payload []byte) ([]Change, error) {
	raw, err := z.dec.DecodeAll(payload, nil)
	if err != nil {
		return nil, err
	}
	return unframeChanges(raw), nil
}
