package block

import (
	"errors"
	"fmt"
)

// Ошибки реестра блоков
var (
	// ErrUnknownBlockID блок с таким ID никогда не регистрировался
	ErrUnknownBlockID = errors.New("неизвестный ID блока")
	// ErrDuplicateDefinition повторная регистрация ID с другим определением
	ErrDuplicateDefinition = errors.New("повторная регистрация ID блока")
	// ErrRegistryFrozen попытка регистрации после заморозки реестра
	ErrRegistryFrozen = errors.New("реестр блоков заморожен")
)

// Registry таблица определений блоков.
// Заполняется при старте через Register, после Freeze только читается —
// конкурентные чтения безопасны без синхронизации.
type Registry struct {
	defs   map[ID]*Def
	frozen bool
}

// NewRegistry создаёт пустой реестр блоков
func NewRegistry() *Registry {
	return &Registry{
		defs: make(map[ID]*Def),
	}
}

// Register добавляет определение блока в реестр.
// Возвращает ErrDuplicateDefinition, если ID уже занят,
// и ErrRegistryFrozen после заморозки.
func (r *Registry) Register(def Def) (ID, error) {
	if r.frozen {
		return 0, ErrRegistryFrozen
	}
	if _, exists := r.defs[def.ID]; exists {
		return 0, fmt.Errorf("%w: id=%d (%s)", ErrDuplicateDefinition, def.ID, def.Name)
	}

	d := def
	r.defs[def.ID] = &d
	return def.ID, nil
}

// Get возвращает определение для указанного ID.
// Возвращает ErrUnknownBlockID, если блок не зарегистрирован.
func (r *Registry) Get(id ID) (*Def, error) {
	def, exists := r.defs[id]
	if !exists {
		return nil, fmt.Errorf("%w: id=%d", ErrUnknownBlockID, id)
	}
	return def, nil
}

// MustGet возвращает определение или определение воздуха для неизвестного ID.
// Используется на горячем пути симуляции, где промах реестра уже залогирован.
func (r *Registry) MustGet(id ID) *Def {
	if def, exists := r.defs[id]; exists {
		return def
	}
	return r.defs[Air]
}

// Contains проверяет, зарегистрирован ли ID
func (r *Registry) Contains(id ID) bool {
	_, exists := r.defs[id]
	return exists
}

// Len возвращает количество зарегистрированных блоков
func (r *Registry) Len() int {
	return len(r.defs)
}

// Freeze запрещает дальнейшую регистрацию.
// После вызова реестр безопасен для конкурентного чтения.
func (r *Registry) Freeze() {
	r.frozen = true
}
