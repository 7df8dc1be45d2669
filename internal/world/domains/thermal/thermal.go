package thermal

import (
	"math"

	"github.com/dyzdyz010/voxworld/internal/world/block"
	"github.com/dyzdyz010/voxworld/internal/world/domain"
)

const (
	// TempEpsilon изменения температуры меньше порога не записываются
	TempEpsilon = 0.1
	// GradientThreshold градиент к соседу, удерживающий воксель активным, °C
	GradientThreshold = 5.0
	// RestThreshold отклонение от дефолтной температуры блока,
	// при котором воксель ещё считается покоящимся, °C
	RestThreshold = 1.0
	// FluxEpsilon межчанковые потоки энергии меньше порога не маршрутизируются
	FluxEpsilon = 0.01
	// HotThreshold температура установки флага Hot, °C
	HotThreshold = 100.0
	// ColdThreshold температура установки флага Cold, °C
	ColdThreshold = 0.0
)

// Domain температурное поле.
// Хранит температуру плотно: после пожара или смены сезона
// переопределения покрывают значительную часть чанка.
type Domain struct {
	envTemp float64
}

// New создаёт термальный домен с заданной температурой среды
func New(envTemp float64) *Domain {
	return &Domain{envTemp: envTemp}
}

// ID идентификатор домена
func (d *Domain) ID() domain.ID { return domain.Thermal }

// NewStore плотное хранилище температур на чанк
func (d *Domain) NewStore(maxOverrides int) domain.Store {
	return domain.NewDenseStore()
}

// TempAt эффективная температура вокселя: переопределение
// или дефолт из определения блока.
func TempAt(v domain.View, idx int) float64 {
	if val, ok := v.Value(domain.Thermal, idx); ok {
		return float64(val.A)
	}
	return v.Def(idx).Temperature
}

// FieldUpdate считает кандидатов температуры для активных вокселей.
// Перенос между соседями: Q = k_avg * dT * dt, прирост температуры Q / C.
// Потоки через грань чанка откладываются как AddHeat соседу,
// чтобы энергия на границе не терялась.
func (d *Domain) FieldUpdate(v domain.View, s *domain.Scratch, dt float64) {
	for _, idx := range v.Active(domain.Thermal) {
		def := v.Def(idx)
		t := TempAt(v, idx)

		var energy float64
		for _, n := range domain.Neighbors(idx) {
			var nt, nk float64
			if n.Face == domain.FaceNone {
				nt = TempAt(v, n.Idx)
				nk = v.Def(n.Idx).Conductivity
			} else {
				nv := v.Neighbor(n.Face)
				if nv == nil {
					continue
				}
				nt = TempAt(nv, n.Idx)
				nk = nv.Def(n.Idx).Conductivity
			}

			k := (def.Conductivity + nk) / 2
			q := k * (nt - t) * dt
			energy += q

			// Симметричный отток в соседний чанк: сосед получает -q
			if n.Face != domain.FaceNone && math.Abs(q) > FluxEpsilon {
				s.StageOutgoing(domain.Thermal, domain.Emit{
					Face: n.Face,
					Cmd:  domain.AddHeat{Idx: n.Idx, Heat: -q},
				})
			}
		}

		heatCap := def.HeatCapacity
		if heatCap <= 0 {
			heatCap = 1
		}
		next := t + energy/heatCap
		next += def.EnvExchangeCoef * (d.envTemp - t) * dt
		s.SetCandidate(domain.Thermal, idx, next)
	}
}

// Tick термика не имеет пошаговой логики, всё решают поле и реакции
func (d *Domain) Tick(v domain.View, s *domain.Scratch, dt float64) []domain.Emit {
	return nil
}

// EmitReactions записывает изменившиеся температуры и поджигает
// воксели, разогретые выше температуры воспламенения
func (d *Domain) EmitReactions(v domain.View, s *domain.Scratch) []domain.Emit {
	var out []domain.Emit

	for _, idx := range v.Active(domain.Thermal) {
		cand, ok := s.Candidate(domain.Thermal, idx)
		if !ok {
			continue
		}
		cur := TempAt(v, idx)
		if math.Abs(cand-cur) > TempEpsilon {
			out = append(out, domain.Local(domain.SetTemp{Idx: idx, Temp: cand}))
		}

		def := v.Def(idx)
		flags := v.Flags(idx)
		if def.Flammable && !flags.Has(block.FlagBurning) && cand >= def.IgnitionTemp {
			out = append(out, domain.Local(domain.Ignite{Idx: idx, Power: 1.0}))
		}
	}

	out = append(out, s.DrainOutgoing(domain.Thermal)...)
	return out
}

// KeepActive воксель остаётся активным, пока не вернулся к дефолтной
// температуре, горит или держит заметный градиент с соседом
func (d *Domain) KeepActive(v domain.View, idx int) bool {
	flags := v.Flags(idx)
	if flags.Has(block.FlagBurning) {
		return true
	}

	t := TempAt(v, idx)
	if math.Abs(t-v.Def(idx).Temperature) > RestThreshold {
		return true
	}

	for _, n := range domain.Neighbors(idx) {
		var nt float64
		var nFlags block.Flags
		if n.Face == domain.FaceNone {
			nt = TempAt(v, n.Idx)
			nFlags = v.Flags(n.Idx)
		} else {
			nv := v.Neighbor(n.Face)
			if nv == nil {
				continue
			}
			nt = TempAt(nv, n.Idx)
			nFlags = nv.Flags(n.Idx)
		}
		if nFlags.Has(block.FlagBurning) {
			return true
		}
		if math.Abs(nt-t) > GradientThreshold {
			return true
		}
	}

	return false
}
