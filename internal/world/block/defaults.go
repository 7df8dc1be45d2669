package block

// DefaultRegistry создаёт реестр со стандартным каталогом блоков.
// Теплоёмкости заданы в условных единицах энергии на градус, чтобы
// горение прогревало соседей за считанные тики; точная термодинамика
// не является целью симуляции.
func DefaultRegistry() (*Registry, error) {
	r := NewRegistry()

	defs := []Def{
		{
			ID: Air, Name: "air",
			Temperature: 20.0, HeatCapacity: 1.0, Conductivity: 0.026,
			Humidity: 0.5,
		},
		{
			ID: Grass, Name: "grass",
			Temperature: 18.0, HeatCapacity: 1.2, Conductivity: 0.25, EnvExchangeCoef: 0.1,
			Humidity: 0.6, MoistureCapacity: 0.4, EvaporationRate: 0.05,
			Flammable: true, IgnitionTemp: 400.0, BurnEnergy: 3.0, BurnRate: 0.3, HeatRelease: 50.0,
			Hardness: 0.2, Integrity: 0.8, CorrosionResistance: 0.5,
		},
		{
			ID: Dirt, Name: "dirt",
			Temperature: 16.0, HeatCapacity: 1.8, Conductivity: 0.8, EnvExchangeCoef: 0.05,
			Humidity: 0.4, MoistureCapacity: 0.6,
			Hardness: 0.35, Integrity: 0.9, CorrosionResistance: 0.6,
		},
		{
			ID: Stone, Name: "stone",
			Temperature: 12.0, HeatCapacity: 2.5, Conductivity: 2.5, EnvExchangeCoef: 0.02,
			Humidity: 0.1,
			MeltingPoint: 1200.0,
			Hardness:     0.9, Integrity: 1.0, CorrosionResistance: 0.9,
		},
		{
			ID: Sand, Name: "sand",
			Temperature: 28.0, HeatCapacity: 1.0, Conductivity: 0.25, EnvExchangeCoef: 0.15,
			Humidity: 0.05, EvaporationRate: 0.2,
			MeltingPoint: 1700.0,
			Hardness:     0.25, Integrity: 0.3, CorrosionResistance: 0.7,
		},
		{
			ID: Gravel, Name: "gravel",
			Temperature: 14.0, HeatCapacity: 1.6, Conductivity: 1.5, EnvExchangeCoef: 0.05,
			Humidity: 0.15,
			Hardness: 0.4, Integrity: 0.4, CorrosionResistance: 0.7,
		},
		{
			ID: Snow, Name: "snow",
			Temperature: -5.0, HeatCapacity: 2.1, Conductivity: 0.1, EnvExchangeCoef: 0.3,
			Humidity: 0.9, MoistureCapacity: 1.0,
			MeltingPoint: 0.0, LiquidForm: Water,
			Hardness:     0.1, Integrity: 0.2, CorrosionResistance: 0.5,
		},
		{
			ID: Ice, Name: "ice",
			Temperature: -10.0, HeatCapacity: 2.1, Conductivity: 2.2, EnvExchangeCoef: 0.1,
			Humidity: 1.0, MoistureCapacity: 1.0,
			MeltingPoint: 0.0, LiquidForm: Water,
			Hardness:     0.5, Integrity: 0.6, CorrosionResistance: 0.8,
		},
		{
			ID: Water, Name: "water",
			Temperature: 10.0, HeatCapacity: 4.2, Conductivity: 0.6, EnvExchangeCoef: 0.2,
			Humidity: 1.0, MoistureCapacity: 1.0, EvaporationRate: 0.01,
			FreezingPoint: 0.0, BoilingPoint: 100.0, SolidForm: Ice,
			Hardness:      0.0, Integrity: 1.0, CorrosionResistance: 1.0,
		},
		{
			ID: Wood, Name: "wood",
			Temperature: 15.0, HeatCapacity: 1.7, Conductivity: 0.15, EnvExchangeCoef: 0.08,
			Humidity: 0.3, MoistureCapacity: 0.5, EvaporationRate: 0.02,
			Flammable: true, IgnitionTemp: 300.0, BurnEnergy: 10.0, BurnRate: 1.0, HeatRelease: 400.0,
			CharStages: []ID{CharredWood, Ash},
			Hardness:   0.6, Integrity: 0.9, CorrosionResistance: 0.4,
		},
		{
			ID: Leaves, Name: "leaves",
			Temperature: 17.0, HeatCapacity: 0.6, Conductivity: 0.1, EnvExchangeCoef: 0.25,
			Humidity: 0.7, MoistureCapacity: 0.6, EvaporationRate: 0.1,
			Flammable: true, IgnitionTemp: 250.0, BurnEnergy: 1.5, BurnRate: 1.5, HeatRelease: 120.0,
			Hardness: 0.05, Integrity: 0.2, CorrosionResistance: 0.3,
		},
		{
			ID: CharredWood, Name: "charred_wood",
			Temperature: 15.0, HeatCapacity: 1.0, Conductivity: 0.1, EnvExchangeCoef: 0.08,
			Humidity: 0.1, MoistureCapacity: 0.3,
			Flammable: true, IgnitionTemp: 500.0, BurnEnergy: 2.0, BurnRate: 0.5, HeatRelease: 100.0,
			CharStages: []ID{Ash},
			Hardness:   0.3, Integrity: 0.4, CorrosionResistance: 0.5,
		},
		{
			ID: Ash, Name: "ash",
			Temperature: 15.0, HeatCapacity: 0.8, Conductivity: 0.08, EnvExchangeCoef: 0.2,
			Humidity: 0.05, MoistureCapacity: 0.8,
			Hardness: 0.02, Integrity: 0.1, CorrosionResistance: 0.6,
		},
		{
			ID: Flower, Name: "flower",
			Temperature: 18.0, HeatCapacity: 0.5, Conductivity: 0.1, EnvExchangeCoef: 0.3,
			Humidity: 0.6, MoistureCapacity: 0.5, EvaporationRate: 0.1,
			Flammable: true, IgnitionTemp: 200.0, BurnEnergy: 0.5, BurnRate: 2.0, HeatRelease: 30.0,
			Growable: true, GrowthRate: 0.1, MaxGrowthStage: 3,
			Hardness: 0.02, Integrity: 0.1, CorrosionResistance: 0.2,
		},
		{
			ID: TallGrass, Name: "tall_grass",
			Temperature: 18.0, HeatCapacity: 0.5, Conductivity: 0.1, EnvExchangeCoef: 0.3,
			Humidity: 0.6, MoistureCapacity: 0.5, EvaporationRate: 0.1,
			Flammable: true, IgnitionTemp: 220.0, BurnEnergy: 0.8, BurnRate: 1.8, HeatRelease: 40.0,
			Growable: true, GrowthRate: 0.2, MaxGrowthStage: 2,
			Hardness: 0.02, Integrity: 0.1, CorrosionResistance: 0.2,
		},
	}

	for _, def := range defs {
		if _, err := r.Register(def); err != nil {
			return nil, err
		}
	}

	r.Freeze()
	return r, nil
}
