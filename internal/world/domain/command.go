package domain

import (
	"github.com/dyzdyz010/voxworld/internal/world/block"
)

// CommandKind тип команды из закрытого набора.
// Новые виды команд добавляются только здесь, вместе с обработкой в Commit.
type CommandKind uint8

const (
	KindSetBlock CommandKind = iota
	KindAddFlag
	KindRemoveFlag
	KindSetVariant
	KindIncrementVariant
	KindDecrementVariant
	KindSetTemp
	KindAddHeat
	KindSetMoisture
	KindAddMoisture
	KindIgnite
	KindExtinguish
	KindConsumeFuel
)

// String имя вида команды для логов и заметок о конфликтах
func (k CommandKind) String() string {
	switch k {
	case KindSetBlock:
		return "set_block"
	case KindAddFlag:
		return "add_flag"
	case KindRemoveFlag:
		return "remove_flag"
	case KindSetVariant:
		return "set_variant"
	case KindIncrementVariant:
		return "increment_variant"
	case KindDecrementVariant:
		return "decrement_variant"
	case KindSetTemp:
		return "set_temp"
	case KindAddHeat:
		return "add_heat"
	case KindSetMoisture:
		return "set_moisture"
	case KindAddMoisture:
		return "add_moisture"
	case KindIgnite:
		return "ignite"
	case KindExtinguish:
		return "extinguish"
	case KindConsumeFuel:
		return "consume_fuel"
	}
	return "unknown"
}

// Rank позиция вида команды в порядке применения внутри одного вокселя.
// Меньший ранг применяется раньше. Полный порядок:
// SetBlock, ConsumeFuel, Extinguish, Ignite, AddFlag, RemoveFlag,
// SetVariant, IncrementVariant, DecrementVariant, SetTemp, SetMoisture,
// AddHeat, AddMoisture. Аддитивные команды идут последними, поэтому
// абсолютные записи того же тика их не теряют.
func (k CommandKind) Rank() int {
	switch k {
	case KindSetBlock:
		return 0
	case KindConsumeFuel:
		return 1
	case KindExtinguish:
		return 2
	case KindIgnite:
		return 3
	case KindAddFlag:
		return 4
	case KindRemoveFlag:
		return 5
	case KindSetVariant:
		return 6
	case KindIncrementVariant:
		return 7
	case KindDecrementVariant:
		return 8
	case KindSetTemp:
		return 9
	case KindSetMoisture:
		return 10
	case KindAddHeat:
		return 11
	case KindAddMoisture:
		return 12
	}
	return 255
}

// Command единица намерения изменить воксель.
// Команды производятся реакциями и внешними действиями, но применяются
// только на стадии Commit. Прямых мутаций состояния команды не делают.
type Command interface {
	Kind() CommandKind
	Index() int
}

// SetBlock замена типа блока вокселя
type SetBlock struct {
	Idx   int
	Block block.ID
}

func (c SetBlock) Kind() CommandKind { return KindSetBlock }
func (c SetBlock) Index() int        { return c.Idx }

// AddFlag установка флага состояния
type AddFlag struct {
	Idx  int
	Flag block.Flags
}

func (c AddFlag) Kind() CommandKind { return KindAddFlag }
func (c AddFlag) Index() int        { return c.Idx }

// RemoveFlag сброс флага состояния
type RemoveFlag struct {
	Idx  int
	Flag block.Flags
}

func (c RemoveFlag) Kind() CommandKind { return KindRemoveFlag }
func (c RemoveFlag) Index() int        { return c.Idx }

// SetVariant установка варианта вокселя
type SetVariant struct {
	Idx     int
	Variant uint8
}

func (c SetVariant) Kind() CommandKind { return KindSetVariant }
func (c SetVariant) Index() int        { return c.Idx }

// IncrementVariant инкремент варианта с насыщением на 255
type IncrementVariant struct {
	Idx int
}

func (c IncrementVariant) Kind() CommandKind { return KindIncrementVariant }
func (c IncrementVariant) Index() int        { return c.Idx }

// DecrementVariant декремент варианта с насыщением на 0
type DecrementVariant struct {
	Idx int
}

func (c DecrementVariant) Kind() CommandKind { return KindDecrementVariant }
func (c DecrementVariant) Index() int        { return c.Idx }

// SetTemp абсолютная запись температуры, °C
type SetTemp struct {
	Idx  int
	Temp float64
}

func (c SetTemp) Kind() CommandKind { return KindSetTemp }
func (c SetTemp) Index() int        { return c.Idx }

// AddHeat добавление энергии. Прирост температуры зависит от
// теплоёмкости блока: dT = Q / C.
type AddHeat struct {
	Idx  int
	Heat float64
}

func (c AddHeat) Kind() CommandKind { return KindAddHeat }
func (c AddHeat) Index() int        { return c.Idx }

// SetMoisture абсолютная запись влажности (0..1)
type SetMoisture struct {
	Idx      int
	Moisture float64
}

func (c SetMoisture) Kind() CommandKind { return KindSetMoisture }
func (c SetMoisture) Index() int        { return c.Idx }

// AddMoisture добавление влаги
type AddMoisture struct {
	Idx   int
	Delta float64
}

func (c AddMoisture) Kind() CommandKind { return KindAddMoisture }
func (c AddMoisture) Index() int        { return c.Idx }

// Ignite поджиг вокселя. Power масштабирует интенсивность горения.
// Поджиг уже горящего вокселя идемпотентен.
type Ignite struct {
	Idx   int
	Power float64
}

func (c Ignite) Kind() CommandKind { return KindIgnite }
func (c Ignite) Index() int        { return c.Idx }

// ExtinguishReason причина тушения
type ExtinguishReason uint8

const (
	ReasonExternal ExtinguishReason = iota // внешнее действие
	ReasonBurnedOut                        // топливо выгорело
	ReasonSoaked                           // пропитан влагой
)

// String имя причины для логов
func (r ExtinguishReason) String() string {
	switch r {
	case ReasonBurnedOut:
		return "burned_out"
	case ReasonSoaked:
		return "soaked"
	}
	return "external"
}

// Extinguish тушение вокселя. Побеждает Ignite и AddHeat того же тика.
type Extinguish struct {
	Idx    int
	Reason ExtinguishReason
}

func (c Extinguish) Kind() CommandKind { return KindExtinguish }
func (c Extinguish) Index() int        { return c.Idx }

// ConsumeFuel расход топлива горящего вокселя за тик.
// Отдельная команда, потому что состояние горения, как и всё остальное,
// меняется только на Commit.
type ConsumeFuel struct {
	Idx    int
	Amount float64
}

func (c ConsumeFuel) Kind() CommandKind { return KindConsumeFuel }
func (c ConsumeFuel) Index() int        { return c.Idx }

// Emit команда с адресом назначения. Face == FaceNone означает
// текущий чанк; иначе команда маршрутизируется в чанк за гранью,
// и Index команды уже задан в координатах целевого чанка.
type Emit struct {
	Face Face
	Cmd  Command
}

// Local упаковывает команду для текущего чанка
func Local(cmd Command) Emit {
	return Emit{Face: FaceNone, Cmd: cmd}
}
