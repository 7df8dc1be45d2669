package combustion

import (
	"github.com/dyzdyz010/voxworld/internal/world/block"
	"github.com/dyzdyz010/voxworld/internal/world/domain"
)

const (
	// SelfHeatShare доля тепловыделения, уходящая в сам воксель.
	// Остальное поровну делится между шестью соседями.
	SelfHeatShare = 0.5
)

// Domain состояние горения.
// Value: A — остаток топлива, B — интенсивность.
// Одновременно горят единицы вокселей на чанк, хранилище разреженное.
type Domain struct{}

// New создаёт домен горения
func New() *Domain {
	return &Domain{}
}

// ID идентификатор домена
func (d *Domain) ID() domain.ID { return domain.Combustion }

// NewStore разреженное хранилище состояний горения
func (d *Domain) NewStore(maxOverrides int) domain.Store {
	return domain.NewSparseStore(maxOverrides)
}

// FieldUpdate горение не является полем, кандидатов нет
func (d *Domain) FieldUpdate(v domain.View, s *domain.Scratch, dt float64) {}

// Tick выгорание топлива и деградация обугленных вокселей.
// Горящий воксель расходует burn_rate * intensity * dt топлива и
// выделяет тепло: половина себе, половина соседям поровну.
// Когда топливо заканчивается, эмитится Extinguish(burned_out).
// Обугленный воксель с ненулевым вариантом переходит на следующую
// стадию обугливания, по одной стадии за тик.
func (d *Domain) Tick(v domain.View, s *domain.Scratch, dt float64) []domain.Emit {
	var out []domain.Emit

	for _, idx := range v.Active(domain.Combustion) {
		flags := v.Flags(idx)

		if flags.Has(block.FlagBurning) {
			st, ok := v.Value(domain.Combustion, idx)
			if !ok {
				continue
			}
			def := v.Def(idx)
			fuel := float64(st.A)
			intensity := float64(st.B)

			burned := def.BurnRate * intensity * dt
			if burned > fuel {
				burned = fuel
			}
			out = append(out, domain.Local(domain.ConsumeFuel{Idx: idx, Amount: burned}))

			heat := burned * def.HeatRelease
			if heat > 0 {
				out = append(out, domain.Local(domain.AddHeat{Idx: idx, Heat: heat * SelfHeatShare}))
				share := heat * (1 - SelfHeatShare) / 6
				for _, n := range domain.Neighbors(idx) {
					out = append(out, domain.Emit{
						Face: n.Face,
						Cmd:  domain.AddHeat{Idx: n.Idx, Heat: share},
					})
				}
			}

			if fuel-burned <= 0 {
				out = append(out, domain.Local(domain.Extinguish{
					Idx:    idx,
					Reason: domain.ReasonBurnedOut,
				}))
			}
			continue
		}

		// Деградация после тушения: стадии обугливания по варианту
		if flags.Has(block.FlagCharred) && v.Variant(idx) > 0 {
			def := v.Def(idx)
			if len(def.CharStages) > 0 {
				out = append(out, domain.Local(domain.SetBlock{Idx: idx, Block: def.CharStages[0]}))
			}
			out = append(out, domain.Local(domain.DecrementVariant{Idx: idx}))
		}
	}

	return out
}

// EmitReactions тушение пропитанных влагой вокселей
func (d *Domain) EmitReactions(v domain.View, s *domain.Scratch) []domain.Emit {
	var out []domain.Emit
	for _, idx := range v.Active(domain.Combustion) {
		flags := v.Flags(idx)
		if flags.Has(block.FlagBurning) && flags.Has(block.FlagSoaked) {
			out = append(out, domain.Local(domain.Extinguish{
				Idx:    idx,
				Reason: domain.ReasonSoaked,
			}))
		}
	}
	return out
}

// KeepActive воксель активен, пока горит или дотлевает по стадиям
func (d *Domain) KeepActive(v domain.View, idx int) bool {
	flags := v.Flags(idx)
	if flags.Has(block.FlagBurning) {
		return true
	}
	return flags.Has(block.FlagCharred) && v.Variant(idx) > 0
}
