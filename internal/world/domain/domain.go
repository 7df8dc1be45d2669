package domain

import (
	"errors"
	"fmt"
)

// ErrDuplicateDomain повторная регистрация домена с тем же ID
var ErrDuplicateDomain = errors.New("домен с таким ID уже зарегистрирован")

// ID идентификатор домена состояния
type ID uint8

const (
	// Thermal температурное поле
	Thermal ID = 1
	// MoistureField поле влажности
	MoistureField ID = 2
	// Combustion состояние горения
	Combustion ID = 3
)

// String имя домена для логов и сериализации
func (d ID) String() string {
	switch d {
	case Thermal:
		return "thermal"
	case MoistureField:
		return "moisture"
	case Combustion:
		return "combustion"
	}
	return fmt.Sprintf("domain(%d)", uint8(d))
}

// Domain поведение одного домена состояния.
// Домен владеет форматом своего Value, правилами полевого расчёта
// и реакциями. Мутировать чанк домен не может: все стадии получают
// неизменяемый View и возвращают команды.
type Domain interface {
	// ID идентификатор домена
	ID() ID
	// NewStore создаёт хранилище состояния домена для одного чанка
	NewStore(maxOverrides int) Store

	// FieldUpdate считает кандидатов полевых величин для активных
	// вокселей и пишет их в Scratch. Команды не эмитятся.
	FieldUpdate(v View, s *Scratch, dt float64)

	// Tick пошаговая логика активных вокселей (расход топлива,
	// деградация). Возвращает команды.
	Tick(v View, s *Scratch, dt float64) []Emit

	// EmitReactions превращает кандидатов и пороговые условия
	// в команды для активных вокселей.
	EmitReactions(v View, s *Scratch) []Emit

	// KeepActive решает, остаётся ли воксель в активном наборе
	// после применения изменений тика
	KeepActive(v View, idx int) bool
}

// Registry упорядоченный набор доменов.
// Порядок регистрации фиксирует порядок обхода доменов на всех стадиях,
// что делает порядок эмиссии команд воспроизводимым.
type Registry struct {
	ordered []Domain
	byID    map[ID]Domain
}

// NewRegistry создаёт реестр из доменов в заданном порядке
func NewRegistry(domains ...Domain) (*Registry, error) {
	r := &Registry{
		ordered: make([]Domain, 0, len(domains)),
		byID:    make(map[ID]Domain, len(domains)),
	}
	for _, d := range domains {
		if _, exists := r.byID[d.ID()]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateDomain, d.ID())
		}
		r.ordered = append(r.ordered, d)
		r.byID[d.ID()] = d
	}
	return r, nil
}

// Ordered возвращает домены в порядке регистрации
func (r *Registry) Ordered() []Domain {
	return r.ordered
}

// Get возвращает домен по ID
func (r *Registry) Get(id ID) (Domain, bool) {
	d, ok := r.byID[id]
	return d, ok
}

// Len количество зарегистрированных доменов
func (r *Registry) Len() int {
	return len(r.ordered)
}
