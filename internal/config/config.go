package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config корневая структура конфигурации приложения.

type Config struct {
	Sim      SimConfig      `yaml:"sim"`
	EventBus EventBusConfig `yaml:"eventbus"`
	Sync     SyncConfig     `yaml:"sync"`
	Storage  StorageConfig  `yaml:"storage"`
	Cache    CacheConfig    `yaml:"cache"`
	Server   ServerConfig   `yaml:"server"`
}

// SimConfig параметры симуляции
type SimConfig struct {
	Seed        int64   `yaml:"seed"`          // Сид генерации мира
	TickRate    int     `yaml:"tick_rate"`     // Тиков в секунду
	Workers     int     `yaml:"workers"`       // Горутин на стадии FieldUpdate/Reactions
	DiffLimit   int     `yaml:"diff_limit"`    // Максимум ChangeOp в журнале чанка до принудительного flush
	MaxOverride int     `yaml:"max_overrides"` // Лимит sparse-переопределений на домен в чанке
	EnvTemp     float64 `yaml:"env_temp"`      // Температура окружающей среды, °C
}

type EventBusConfig struct {
	URL       string `yaml:"url"`
	Stream    string `yaml:"stream"`
	Retention int    `yaml:"retention_hours"`
}

type SyncConfig struct {
	NodeID     string `yaml:"node_id"`
	BatchSize  int    `yaml:"batch_size"`
	FlushEvery int    `yaml:"flush_every_seconds"`
	UseZstd    bool   `yaml:"use_zstd_compression"`
}

type StorageConfig struct {
	DataPath string `yaml:"data_path"`
}

type CacheConfig struct {
	RedisURL string `yaml:"redis_url"`
	TTL      int    `yaml:"ttl_seconds"`
}

type ServerConfig struct {
	RESTPort    int `yaml:"rest_port"`
	MetricsPort int `yaml:"metrics_port"`
}

// GetRESTPort возвращает REST API порт с поддержкой fallback значений
func (s *ServerConfig) GetRESTPort() int {
	return getPortWithEnvFallback(s.RESTPort, "VOXWORLD_REST_PORT", 8088)
}

// GetMetricsPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "VOXWORLD_METRICS_PORT", 2112)
}

// TickRate возвращает частоту тиков или дефолтные 20 TPS
func (s *SimConfig) GetTickRate() int {
	if s.TickRate > 0 {
		return s.TickRate
	}
	return 20
}

// GetWorkers возвращает количество воркеров или дефолтные 4
func (s *SimConfig) GetWorkers() int {
	if s.Workers > 0 {
		return s.Workers
	}
	return 4
}

// GetDiffLimit возвращает лимит журнала изменений или дефолтные 8192
func (s *SimConfig) GetDiffLimit() int {
	if s.DiffLimit > 0 {
		return s.DiffLimit
	}
	return 8192
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	if configPort > 0 {
		return configPort
	}

	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	return defaultPort
}

// Load читает YAML файл конфигурации.
// Если path == "", пытается прочитать из ENV VOXWORLD_CONFIG или возвращает nil, nil.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("VOXWORLD_CONFIG")
		if path == "" {
			return nil, nil // конфиг не задан — использовать дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
