package protocol

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dyzdyz010/voxworld/internal/vec"
	"github.com/dyzdyz010/voxworld/internal/world/block"
	"github.com/dyzdyz010/voxworld/internal/world/domain"
)

// Бинарный формат пакета журнала изменений одного чанка.
//
// Заголовок: magic u16, version u8, coords 3*i32, count u32.
// Запись: idx u16, kind u8, полезная нагрузка по виду записи:
//
//	set_block            block u16
//	add_flag/remove_flag flag u16
//	set_variant          variant u8
//	domain_state         domain u8, present u8, value 2*f32
//	conflict             dropped u8, winner u8
//
// Все числа little-endian. Формат версионируется: декодер отвергает
// чужой magic и неизвестную версию.

const (
	batchMagic   uint16 = 0x5658 // "VX"
	batchVersion uint8  = 1
)

// Ошибки кодека
var (
	ErrBadMagic      = errors.New("неизвестный формат пакета изменений")
	ErrBadVersion    = errors.New("неподдерживаемая версия пакета изменений")
	ErrTruncated     = errors.New("пакет изменений обрезан")
	ErrUnknownOpKind = errors.New("неизвестный вид записи")
)

// EncodeBatch сериализует журнал изменений чанка
func EncodeBatch(coords vec.Vec3, ops []domain.ChangeOp) ([]byte, error) {
	var buf bytes.Buffer

	write := func(v any) {
		_ = binary.Write(&buf, binary.LittleEndian, v)
	}

	write(batchMagic)
	write(batchVersion)
	write(int32(coords.X))
	write(int32(coords.Y))
	write(int32(coords.Z))
	write(uint32(len(ops)))

	for _, op := range ops {
		write(op.Idx)
		write(uint8(op.Kind))
		switch op.Kind {
		case domain.OpSetBlock:
			write(uint16(op.Block))
		case domain.OpAddFlag, domain.OpRemoveFlag:
			write(uint16(op.Flag))
		case domain.OpSetVariant:
			write(op.Variant)
		case domain.OpDomainState:
			write(uint8(op.Domain))
			if op.Present {
				write(uint8(1))
			} else {
				write(uint8(0))
			}
			write(op.Value.A)
			write(op.Value.B)
		case domain.OpConflict:
			write(uint8(op.Dropped))
			write(uint8(op.Winner))
		default:
			return nil, fmt.Errorf("%w: %d", ErrUnknownOpKind, op.Kind)
		}
	}

	return buf.Bytes(), nil
}

// DecodeBatch восстанавливает журнал изменений чанка
func DecodeBatch(data []byte) (vec.Vec3, []domain.ChangeOp, error) {
	r := bytes.NewReader(data)
	var coords vec.Vec3

	read := func(v any) error {
		if err := binary.Read(r, binary.LittleEndian, v); err != nil {
			return ErrTruncated
		}
		return nil
	}

	var magic uint16
	var version uint8
	if err := read(&magic); err != nil {
		return coords, nil, err
	}
	if magic != batchMagic {
		return coords, nil, ErrBadMagic
	}
	if err := read(&version); err != nil {
		return coords, nil, err
	}
	if version != batchVersion {
		return coords, nil, fmt.Errorf("%w: %d", ErrBadVersion, version)
	}

	var cx, cy, cz int32
	var count uint32
	if err := read(&cx); err != nil {
		return coords, nil, err
	}
	if err := read(&cy); err != nil {
		return coords, nil, err
	}
	if err := read(&cz); err != nil {
		return coords, nil, err
	}
	if err := read(&count); err != nil {
		return coords, nil, err
	}
	coords = vec.Vec3{X: int(cx), Y: int(cy), Z: int(cz)}

	ops := make([]domain.ChangeOp, 0, count)
	for i := uint32(0); i < count; i++ {
		var op domain.ChangeOp
		var kind uint8
		if err := read(&op.Idx); err != nil {
			return coords, nil, err
		}
		if err := read(&kind); err != nil {
			return coords, nil, err
		}
		op.Kind = domain.OpKind(kind)

		switch op.Kind {
		case domain.OpSetBlock:
			var b uint16
			if err := read(&b); err != nil {
				return coords, nil, err
			}
			op.Block = block.ID(b)
		case domain.OpAddFlag, domain.OpRemoveFlag:
			var f uint16
			if err := read(&f); err != nil {
				return coords, nil, err
			}
			op.Flag = block.Flags(f)
		case domain.OpSetVariant:
			if err := read(&op.Variant); err != nil {
				return coords, nil, err
			}
		case domain.OpDomainState:
			var d, present uint8
			if err := read(&d); err != nil {
				return coords, nil, err
			}
			if err := read(&present); err != nil {
				return coords, nil, err
			}
			op.Domain = domain.ID(d)
			op.Present = present != 0
			if err := read(&op.Value.A); err != nil {
				return coords, nil, err
			}
			if err := read(&op.Value.B); err != nil {
				return coords, nil, err
			}
		case domain.OpConflict:
			var dropped, winner uint8
			if err := read(&dropped); err != nil {
				return coords, nil, err
			}
			if err := read(&winner); err != nil {
				return coords, nil, err
			}
			op.Dropped = domain.CommandKind(dropped)
			op.Winner = domain.CommandKind(winner)
		default:
			return coords, nil, fmt.Errorf("%w: %d", ErrUnknownOpKind, kind)
		}

		ops = append(ops, op)
	}

	return coords, ops, nil
}
