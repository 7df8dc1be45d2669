package moisture

import (
	"math"

	"github.com/dyzdyz010/voxworld/internal/world/block"
	"github.com/dyzdyz010/voxworld/internal/world/domain"
)

const (
	// Epsilon изменения влажности меньше порога не записываются
	Epsilon = 0.001
	// WetThreshold влажность установки флага Wet
	WetThreshold = 0.5
	// SoakedThreshold влажность установки флага Soaked
	SoakedThreshold = 0.9
)

// Domain поле влажности.
// Переопределений обычно единицы на чанк (дождь, тушение, лужи),
// поэтому хранилище разреженное.
type Domain struct{}

// New создаёт домен влажности
func New() *Domain {
	return &Domain{}
}

// ID идентификатор домена
func (d *Domain) ID() domain.ID { return domain.MoistureField }

// NewStore разреженное хранилище влажности с лимитом переопределений
func (d *Domain) NewStore(maxOverrides int) domain.Store {
	return domain.NewSparseStore(maxOverrides)
}

// At эффективная влажность вокселя
func At(v domain.View, idx int) float64 {
	if val, ok := v.Value(domain.MoistureField, idx); ok {
		return float64(val.A)
	}
	return v.Def(idx).Humidity
}

// FieldUpdate релаксация влажности к фоновой влажности блока
// со скоростью испарения. Пересушенный воксель набирает влагу
// из среды тем же коэффициентом.
func (d *Domain) FieldUpdate(v domain.View, s *domain.Scratch, dt float64) {
	for _, idx := range v.Active(domain.MoistureField) {
		def := v.Def(idx)
		m := At(v, idx)

		rate := def.EvaporationRate
		if rate <= 0 {
			rate = 0.01
		}
		step := rate * dt
		diff := def.Humidity - m
		if math.Abs(diff) < step {
			step = math.Abs(diff)
		}
		if diff < 0 {
			step = -step
		}
		s.SetCandidate(domain.MoistureField, idx, m+step)
	}
}

// Tick влага не имеет пошаговой логики
func (d *Domain) Tick(v domain.View, s *domain.Scratch, dt float64) []domain.Emit {
	return nil
}

// EmitReactions записывает изменившуюся влажность
func (d *Domain) EmitReactions(v domain.View, s *domain.Scratch) []domain.Emit {
	var out []domain.Emit
	for _, idx := range v.Active(domain.MoistureField) {
		cand, ok := s.Candidate(domain.MoistureField, idx)
		if !ok {
			continue
		}
		if math.Abs(cand-At(v, idx)) > Epsilon {
			out = append(out, domain.Local(domain.SetMoisture{Idx: idx, Moisture: cand}))
		}
	}
	return out
}

// KeepActive воксель активен, пока влажность не вернулась к фоновой
func (d *Domain) KeepActive(v domain.View, idx int) bool {
	return math.Abs(At(v, idx)-v.Def(idx).Humidity) > Epsilon
}

// FlagsFor маска влажностных флагов для значения влажности.
// Используется на Commit при записи влажности.
func FlagsFor(m float64) block.Flags {
	var f block.Flags
	if m > WetThreshold {
		f = f.With(block.FlagWet)
	}
	if m > SoakedThreshold {
		f = f.With(block.FlagSoaked)
	}
	return f
}
