package domain

import (
	"github.com/dyzdyz010/voxworld/internal/world/block"
)

// OpKind вид записи в журнале изменений чанка
type OpKind uint8

const (
	OpSetBlock OpKind = iota
	OpAddFlag
	OpRemoveFlag
	OpSetVariant
	OpDomainState
	OpConflict
)

// String имя вида записи
func (k OpKind) String() string {
	switch k {
	case OpSetBlock:
		return "set_block"
	case OpAddFlag:
		return "add_flag"
	case OpRemoveFlag:
		return "remove_flag"
	case OpSetVariant:
		return "set_variant"
	case OpDomainState:
		return "domain_state"
	case OpConflict:
		return "conflict"
	}
	return "unknown"
}

// ChangeOp запись журнала изменений: факт уже применённого изменения
// одного вокселя. Журнал append-only, повторное применение последовательности
// к реплике даёт идентичное состояние чанка.
//
// Заполненность полей зависит от Kind:
//
//	OpSetBlock     — Block
//	OpAddFlag      — Flag
//	OpRemoveFlag   — Flag
//	OpSetVariant   — Variant
//	OpDomainState  — Domain, Value, Present
//	OpConflict     — Dropped, Winner (изменения состояния нет, запись
//	                 фиксирует отброшенную в конфликте команду)
type ChangeOp struct {
	Idx  uint16
	Kind OpKind

	Block   block.ID
	Flag    block.Flags
	Variant uint8

	Domain  ID
	Value   Value
	Present bool // false — доменное переопределение снято

	Dropped CommandKind
	Winner  CommandKind
}

// NeedsRemesh сообщает, требует ли запись перестроения меша чанка.
// Геометрию меняют только тип блока и вариант.
func (op ChangeOp) NeedsRemesh() bool {
	return op.Kind == OpSetBlock || op.Kind == OpSetVariant
}
