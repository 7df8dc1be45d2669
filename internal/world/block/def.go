package block

// Def описывает статические физические свойства типа блока.
// Таблица заполняется один раз при старте и далее только читается;
// на воксель хранится только ID, свойства никогда не дублируются.
type Def struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`

	// Термика
	Temperature     float64 `json:"temperature"`      // Температура по умолчанию, °C
	HeatCapacity    float64 `json:"heat_capacity"`    // Теплоёмкость, усл. ед./К
	Conductivity    float64 `json:"conductivity"`     // Коэффициент теплопроводности
	EnvExchangeCoef float64 `json:"env_exchange"`     // Скорость теплообмена со средой (0..1)

	// Влажность
	Humidity         float64 `json:"humidity"`          // Влажность по умолчанию (0..1)
	MoistureCapacity float64 `json:"moisture_capacity"` // Способность впитывать влагу (0..1)
	EvaporationRate  float64 `json:"evaporation_rate"`  // Скорость испарения, 1/с

	// Горение
	Flammable    bool    `json:"flammable"`     // Может ли гореть
	IgnitionTemp float64 `json:"ignition_temp"` // Температура воспламенения, °C
	BurnEnergy   float64 `json:"burn_energy"`   // Запас топлива (условные единицы)
	BurnRate     float64 `json:"burn_rate"`     // Скорость выгорания, 1/с
	HeatRelease  float64 `json:"heat_release"`  // Тепловыделение при горении, Вт

	// Стадии обугливания: во что превращается воксель после выгорания.
	// Пустой список — блок выгорает без остатка (SetBlock в Air).
	CharStages []ID `json:"char_stages,omitempty"`

	// Фазовые переходы (0 — перехода нет)
	MeltingPoint  float64 `json:"melting_point,omitempty"`
	FreezingPoint float64 `json:"freezing_point,omitempty"`
	BoilingPoint  float64 `json:"boiling_point,omitempty"`
	LiquidForm    ID      `json:"liquid_form,omitempty"`
	SolidForm     ID      `json:"solid_form,omitempty"`

	// Структура
	Hardness            float64 `json:"hardness"`             // Прочность (0..1)
	Integrity           float64 `json:"integrity"`            // Целостность (0..1)
	CorrosionResistance float64 `json:"corrosion_resistance"` // Стойкость к коррозии (0..1)

	// Рост
	Growable       bool    `json:"growable"`
	GrowthRate     float64 `json:"growth_rate"`
	MaxGrowthStage uint8   `json:"max_growth_stage"`
}
