package block

// ID представляет идентификатор типа блока.
// Стабилен на протяжении жизни реестра.
type ID uint16

// Константы ID блоков
const (
	// Базовые типы блоков
	Air   ID = iota // 0
	Grass             // 1
	Dirt              // 2
	Stone             // 3
	Sand              // 4
	Gravel            // 5
	Snow              // 6
	Ice               // 7
	Water             // 8

	// Древесина и растительность (начиная с 100)
	Wood        ID = 100 // Бревно
	Leaves      ID = 101 // Листва
	CharredWood ID = 102 // Обугленное дерево
	Ash         ID = 103 // Пепел
	Flower      ID = 104 // Цветок
	TallGrass   ID = 105 // Высокая трава
)

// Flags битовая маска состояний вокселя.
// Каждый воксель чанка несёт ровно одно такое значение.
type Flags uint16

const (
	FlagNone Flags = 0

	// Горение
	FlagBurning    Flags = 1 << 0 // Воксель горит
	FlagCharred    Flags = 1 << 1 // Обуглен
	FlagSmoldering Flags = 1 << 2 // Тлеет без открытого огня

	// Температура
	FlagHot  Flags = 1 << 3 // Температура выше 100°C
	FlagCold Flags = 1 << 4 // Температура ниже 0°C

	// Влажность
	FlagWet    Flags = 1 << 5 // Влажность выше 0.5
	FlagSoaked Flags = 1 << 6 // Влажность выше 0.9
	FlagFrozen Flags = 1 << 7 // Заморожен

	// Фазовые переходы
	FlagMelting     Flags = 1 << 8  // Плавится
	FlagEvaporating Flags = 1 << 9  // Испаряется
	FlagCondensing  Flags = 1 << 10 // Конденсируется

	// Структура
	FlagDamaged  Flags = 1 << 11 // Повреждён
	FlagUnstable Flags = 1 << 12 // Нестабилен, может обрушиться
	FlagCorroded Flags = 1 << 13 // Корродирован

	// Биология
	FlagGrowing   Flags = 1 << 14 // Растёт
	FlagWithering Flags = 1 << 15 // Увядает
)

// Has проверяет наличие флага в маске
func (f Flags) Has(flag Flags) bool {
	return f&flag != 0
}

// With возвращает маску с установленным флагом
func (f Flags) With(flag Flags) Flags {
	return f | flag
}

// Without возвращает маску со сброшенным флагом
func (f Flags) Without(flag Flags) Flags {
	return f &^ flag
}
