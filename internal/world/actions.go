package world

import (
	"github.com/dyzdyz010/voxworld/internal/vec"
	"github.com/dyzdyz010/voxworld/internal/world/block"
	"github.com/dyzdyz010/voxworld/internal/world/domain"
)

// Внешние действия над миром в мировых координатах вокселей.
// Каждое действие нормализуется в команду и попадает во входную
// очередь чанка; применение происходит на Commit следующего тика.

// Locate переводит мировую позицию вокселя в координаты чанка
// и линейный индекс внутри него
func Locate(pos vec.Vec3) (vec.Vec3, int) {
	local := pos.LocalInChunk()
	return pos.ToChunkCoords(), domain.Idx(local.X, local.Y, local.Z)
}

// IgniteAt поджигает воксель
func (wm *WorldManager) IgniteAt(pos vec.Vec3, power float64) error {
	cc, idx := Locate(pos)
	return wm.SubmitAction(cc, domain.Ignite{Idx: idx, Power: power})
}

// ExtinguishAt гасит воксель
func (wm *WorldManager) ExtinguishAt(pos vec.Vec3) error {
	cc, idx := Locate(pos)
	return wm.SubmitAction(cc, domain.Extinguish{Idx: idx, Reason: domain.ReasonExternal})
}

// SetBlockAt заменяет блок
func (wm *WorldManager) SetBlockAt(pos vec.Vec3, id block.ID) error {
	cc, idx := Locate(pos)
	return wm.SubmitAction(cc, domain.SetBlock{Idx: idx, Block: id})
}

// AddHeatAt подводит энергию к вокселю
func (wm *WorldManager) AddHeatAt(pos vec.Vec3, heat float64) error {
	cc, idx := Locate(pos)
	return wm.SubmitAction(cc, domain.AddHeat{Idx: idx, Heat: heat})
}

// SetTempAt выставляет температуру вокселя
func (wm *WorldManager) SetTempAt(pos vec.Vec3, temp float64) error {
	cc, idx := Locate(pos)
	return wm.SubmitAction(cc, domain.SetTemp{Idx: idx, Temp: temp})
}

// SoakAt выставляет влажность вокселя
func (wm *WorldManager) SoakAt(pos vec.Vec3, m float64) error {
	cc, idx := Locate(pos)
	return wm.SubmitAction(cc, domain.SetMoisture{Idx: idx, Moisture: m})
}

// BlockAt читает тип блока по мировой позиции
func (wm *WorldManager) BlockAt(pos vec.Vec3) (block.ID, error) {
	cc, idx := Locate(pos)
	c, ok := wm.GetChunk(cc)
	if !ok {
		return 0, ErrChunkNotLoaded
	}
	return c.Block(idx)
}

// FlagsAt читает маску состояний по мировой позиции
func (wm *WorldManager) FlagsAt(pos vec.Vec3) (block.Flags, error) {
	cc, idx := Locate(pos)
	c, ok := wm.GetChunk(cc)
	if !ok {
		return 0, ErrChunkNotLoaded
	}
	return c.Flags(idx)
}

// TemperatureAt читает эффективную температуру по мировой позиции
func (wm *WorldManager) TemperatureAt(pos vec.Vec3) (float64, error) {
	cc, idx := Locate(pos)
	c, ok := wm.GetChunk(cc)
	if !ok {
		return 0, ErrChunkNotLoaded
	}
	v, present, err := c.Value(domain.Thermal, idx)
	if err != nil {
		return 0, err
	}
	if present {
		return float64(v.A), nil
	}
	id, err := c.Block(idx)
	if err != nil {
		return 0, err
	}
	return wm.reg.MustGet(id).Temperature, nil
}
