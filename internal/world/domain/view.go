package domain

import (
	"github.com/dyzdyz010/voxworld/internal/vec"
	"github.com/dyzdyz010/voxworld/internal/world/block"
)

// View неизменяемый срез чанка на момент начала тика.
// Все стадии до Commit читают мир только через View: пока воркеры
// считают реакции, живое состояние чанков может меняться только
// однописательским Commit, и срезы это скрывают.
type View interface {
	// Coords координаты чанка в сетке чанков
	Coords() vec.Vec3
	// Block тип блока вокселя
	Block(idx int) block.ID
	// Def определение блока вокселя
	Def(idx int) *block.Def
	// Flags маска состояний вокселя
	Flags(idx int) block.Flags
	// Variant вариант вокселя
	Variant(idx int) uint8
	// Value доменное переопределение вокселя.
	// false — действует дефолт из определения блока.
	Value(d ID, idx int) (Value, bool)
	// Active отсортированный активный набор домена
	Active(d ID) []int
	// Neighbor срез соседнего чанка или nil, если сосед не загружен
	Neighbor(f Face) View
}

// Scratch тиковый буфер кандидатов полевых величин.
// FieldUpdate пишет сюда новые значения полей, не трогая чанк;
// EmitReactions читает кандидатов и превращает их в команды.
// Буфер живёт один тик и переиспользуется.
type Scratch struct {
	candidates map[ID]map[int]float64
	outgoing   map[ID][]Emit
}

// NewScratch создаёт пустой буфер кандидатов
func NewScratch() *Scratch {
	return &Scratch{
		candidates: make(map[ID]map[int]float64),
		outgoing:   make(map[ID][]Emit),
	}
}

// SetCandidate записывает кандидата значения поля для вокселя
func (s *Scratch) SetCandidate(d ID, idx int, v float64) {
	m, ok := s.candidates[d]
	if !ok {
		m = make(map[int]float64)
		s.candidates[d] = m
	}
	m[idx] = v
}

// Candidate возвращает кандидата значения поля, если он был записан
func (s *Scratch) Candidate(d ID, idx int) (float64, bool) {
	m, ok := s.candidates[d]
	if !ok {
		return 0, false
	}
	v, ok := m[idx]
	return v, ok
}

// StageOutgoing откладывает команду для чужого чанка, вычисленную
// во время полевого расчёта. Команды забирает EmitReactions:
// сама стадия FieldUpdate команд не производит.
func (s *Scratch) StageOutgoing(d ID, e Emit) {
	s.outgoing[d] = append(s.outgoing[d], e)
}

// DrainOutgoing возвращает отложенные команды домена и очищает буфер
func (s *Scratch) DrainOutgoing(d ID) []Emit {
	out := s.outgoing[d]
	delete(s.outgoing, d)
	return out
}

// Reset очищает буфер перед следующим тиком
func (s *Scratch) Reset() {
	for d, m := range s.candidates {
		if len(m) > 0 {
			s.candidates[d] = make(map[int]float64)
		}
	}
	for d := range s.outgoing {
		delete(s.outgoing, d)
	}
}
