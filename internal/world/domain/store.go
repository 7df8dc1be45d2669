package domain

import (
	"errors"
	"sort"
)

// ErrStoreOverflow лимит sparse-переопределений исчерпан
var ErrStoreOverflow = errors.New("превышен лимит переопределений доменного состояния")

// Value значение доменного состояния вокселя.
// Семантика компонент определяется доменом:
// термика — {температура, 0}, влага — {влажность, 0},
// горение — {остаток топлива, интенсивность}.
type Value struct {
	A float32
	B float32
}

// Store хранилище доменного состояния вокселей одного чанка.
// Get возвращает false, если для индекса нет переопределения и
// действует значение по умолчанию из определения блока.
type Store interface {
	// Get возвращает переопределение для вокселя
	Get(idx int) (Value, bool)
	// Set записывает переопределение. Возвращает ErrStoreOverflow,
	// если разреженное хранилище заполнено.
	Set(idx int, v Value) error
	// Remove снимает переопределение, воксель возвращается к дефолту
	Remove(idx int)
	// Len количество переопределённых вокселей
	Len() int
	// Indices отсортированные индексы переопределённых вокселей
	Indices() []int
	// Clone глубокая копия для снапшота тика
	Clone() Store
}

// sparseStore разреженное хранилище: только переопределения.
// Подходит доменам, где большинство вокселей живёт на дефолте блока.
type sparseStore struct {
	overrides map[int]Value
	max       int
}

// NewSparseStore создаёт разреженное хранилище с лимитом переопределений.
// maxOverrides <= 0 снимает лимит.
func NewSparseStore(maxOverrides int) Store {
	return &sparseStore{
		overrides: make(map[int]Value),
		max:       maxOverrides,
	}
}

func (s *sparseStore) Get(idx int) (Value, bool) {
	v, ok := s.overrides[idx]
	return v, ok
}

func (s *sparseStore) Set(idx int, v Value) error {
	if _, exists := s.overrides[idx]; !exists {
		if s.max > 0 && len(s.overrides) >= s.max {
			return ErrStoreOverflow
		}
	}
	s.overrides[idx] = v
	return nil
}

func (s *sparseStore) Remove(idx int) {
	delete(s.overrides, idx)
}

func (s *sparseStore) Len() int {
	return len(s.overrides)
}

func (s *sparseStore) Indices() []int {
	out := make([]int, 0, len(s.overrides))
	for idx := range s.overrides {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

func (s *sparseStore) Clone() Store {
	c := &sparseStore{
		overrides: make(map[int]Value, len(s.overrides)),
		max:       s.max,
	}
	for idx, v := range s.overrides {
		c.overrides[idx] = v
	}
	return c
}

// denseStore плотное хранилище с ленивой аллокацией.
// Массив значений выделяется при первой записи; до этого чанк
// без переопределений не тратит память.
type denseStore struct {
	values  []Value
	present []bool
	count   int
}

// NewDenseStore создаёт плотное хранилище на чанк.
// Используется доменами, где переопределение быстро расползается
// по большой доле вокселей (термика).
func NewDenseStore() Store {
	return &denseStore{}
}

func (s *denseStore) alloc() {
	if s.values == nil {
		s.values = make([]Value, Volume)
		s.present = make([]bool, Volume)
	}
}

func (s *denseStore) Get(idx int) (Value, bool) {
	if s.values == nil || !s.present[idx] {
		return Value{}, false
	}
	return s.values[idx], true
}

func (s *denseStore) Set(idx int, v Value) error {
	s.alloc()
	if !s.present[idx] {
		s.present[idx] = true
		s.count++
	}
	s.values[idx] = v
	return nil
}

func (s *denseStore) Remove(idx int) {
	if s.values == nil || !s.present[idx] {
		return
	}
	s.present[idx] = false
	s.values[idx] = Value{}
	s.count--
	if s.count == 0 {
		s.values = nil
		s.present = nil
	}
}

func (s *denseStore) Len() int {
	return s.count
}

func (s *denseStore) Indices() []int {
	out := make([]int, 0, s.count)
	for idx := range s.present {
		if s.present[idx] {
			out = append(out, idx)
		}
	}
	return out
}

func (s *denseStore) Clone() Store {
	c := &denseStore{count: s.count}
	if s.values != nil {
		c.values = make([]Value, Volume)
		c.present = make([]bool, Volume)
		copy(c.values, s.values)
		copy(c.present, s.present)
	}
	return c
}
