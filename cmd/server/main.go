package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/dyzdyz010/voxworld/internal/api"
	"github.com/dyzdyz010/voxworld/internal/cache"
	"github.com/dyzdyz010/voxworld/internal/config"
	"github.com/dyzdyz010/voxworld/internal/eventbus"
	"github.com/dyzdyz010/voxworld/internal/logging"
	"github.com/dyzdyz010/voxworld/internal/storage"
	vsync "github.com/dyzdyz010/voxworld/internal/sync"
	"github.com/dyzdyz010/voxworld/internal/vec"
	"github.com/dyzdyz010/voxworld/internal/world"
	"github.com/dyzdyz010/voxworld/internal/world/block"
	"github.com/dyzdyz010/voxworld/internal/world/domain"
	"github.com/dyzdyz010/voxworld/internal/world/domains/combustion"
	"github.com/dyzdyz010/voxworld/internal/world/domains/moisture"
	"github.com/dyzdyz010/voxworld/internal/world/domains/thermal"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации")
	preload := flag.Int("preload", 2, "радиус предзагрузки чанков вокруг нуля")
	flag.Parse()

	// Инициализируем систему логирования
	if err := logging.InitDefaultLogger("server"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	logging.Info("🌋 Запуск сервера симуляции мира...")

	// === КОНФИГУРАЦИЯ ===
	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Error("❌ Ошибка чтения конфигурации: %v", err)
		log.Fatalf("❌ Ошибка чтения конфигурации: %v", err)
	}
	if cfg == nil {
		cfg = &config.Config{}
	}
	if cfg.Sim.EnvTemp == 0 {
		cfg.Sim.EnvTemp = 20.0
	}

	restPort := fmt.Sprintf(":%d", cfg.Server.GetRESTPort())
	logging.Info("📡 Конфигурация: REST=%s, тиков/с=%d, воркеров=%d",
		restPort, cfg.Sim.GetTickRate(), cfg.Sim.GetWorkers())

	// === РЕЕСТРЫ БЛОКОВ И ДОМЕНОВ ===
	reg, err := block.DefaultRegistry()
	if err != nil {
		logging.Error("❌ Ошибка каталога блоков: %v", err)
		log.Fatalf("❌ Ошибка каталога блоков: %v", err)
	}

	domains, err := domain.NewRegistry(
		thermal.New(cfg.Sim.EnvTemp),
		moisture.New(),
		combustion.New(),
	)
	if err != nil {
		logging.Error("❌ Ошибка реестра доменов: %v", err)
		log.Fatalf("❌ Ошибка реестра доменов: %v", err)
	}

	// === МЕНЕДЖЕР МИРА ===
	wm := world.NewWorldManager(reg, domains, world.ManagerOptions{
		Seed:         cfg.Sim.Seed,
		Workers:      cfg.Sim.GetWorkers(),
		DiffLimit:    cfg.Sim.GetDiffLimit(),
		MaxOverrides: cfg.Sim.MaxOverride,
		TickRate:     cfg.Sim.GetTickRate(),
		EnvTemp:      cfg.Sim.EnvTemp,
	})

	// === ШИНА СОБЫТИЙ ===
	var bus eventbus.EventBus
	if cfg.EventBus.URL != "" {
		stream := cfg.EventBus.Stream
		if stream == "" {
			stream = "VOXWORLD"
		}
		retention := time.Duration(cfg.EventBus.Retention) * time.Hour
		bus, err = eventbus.NewJetStreamBus(cfg.EventBus.URL, stream, retention)
		if err != nil {
			logging.Error("❌ Ошибка подключения JetStream: %v", err)
			log.Fatalf("❌ Ошибка подключения JetStream: %v", err)
		}
	} else {
		bus = eventbus.NewMemoryBus(1024)
		logging.Info("Шина событий: in-memory (NATS не настроен)")
	}
	eventbus.Init(bus)
	wm.SetEventBus(bus)

	busMetrics := eventbus.NewMetricsExporter(bus)
	busMetrics.StartHTTP(fmt.Sprintf(":%d", cfg.Server.GetMetricsPort()))
	defer busMetrics.Stop()
	if err := eventbus.StartLoggingListener(bus); err != nil {
		logging.Warn("Слушатель логов шины не запущен: %v", err)
	}

	// === ХРАНИЛИЩЕ ЖУРНАЛОВ ===
	dataPath := cfg.Storage.DataPath
	if dataPath == "" {
		dataPath = "data/world"
	}
	store, err := storage.NewWorldStorage(dataPath)
	if err != nil {
		logging.Error("❌ Ошибка открытия хранилища: %v", err)
		log.Fatalf("❌ Ошибка открытия хранилища: %v", err)
	}
	defer store.Close()

	// === СИНХРОНИЗАЦИЯ УЗЛОВ ===
	var syncMgr *vsync.SyncManager
	var persister world.Persister = store
	if cfg.Sync.NodeID != "" {
		syncMgr, err = vsync.NewSyncManager(vsync.SyncConfig{
			NodeID:     cfg.Sync.NodeID,
			Bus:        bus,
			BatchSize:  cfg.Sync.BatchSize,
			FlushEvery: time.Duration(cfg.Sync.FlushEvery) * time.Second,
			UseZstd:    cfg.Sync.UseZstd,
			Applier:    wm,
		})
		if err != nil {
			logging.Error("❌ Ошибка запуска синхронизации: %v", err)
			log.Fatalf("❌ Ошибка запуска синхронизации: %v", err)
		}
		defer syncMgr.Stop()
		// Журналы дублируются в шину поверх записи в badger
		persister = syncMgr.Recorder(store)
	}
	wm.SetPersister(persister)

	// === КЕШ СВОДОК ===
	var chunkCache *cache.ChunkCache
	cacheTTL := time.Duration(cfg.Cache.TTL) * time.Second
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	if cfg.Cache.RedisURL != "" {
		redisCache, err := cache.NewRedisCache(cfg.Cache.RedisURL)
		if err != nil {
			logging.Warn("Redis недоступен, сводки кешируются в памяти: %v", err)
			chunkCache = cache.NewChunkCache(cache.NewMemoryCache(), cacheTTL)
		} else {
			defer redisCache.Close()
			var repo cache.CacheRepo = redisCache
			// Несколько узлов над общим Redis: инвалидации сводок
			// рассылаются через NATS
			if cfg.EventBus.URL != "" {
				node := cfg.Sync.NodeID
				if node == "" {
					node, _ = os.Hostname()
				}
				invalidator, err := cache.NewNatsInvalidator(cfg.EventBus.URL, node, redisCache)
				if err != nil {
					logging.Warn("Инвалидация кеша через NATS не запущена: %v", err)
				} else {
					defer invalidator.Close()
					repo = invalidator
				}
			}
			chunkCache = cache.NewChunkCache(repo, cacheTTL)
		}
	} else {
		chunkCache = cache.NewChunkCache(cache.NewMemoryCache(), cacheTTL)
	}

	// === ПРЕДЗАГРУЗКА МИРА ===
	r := *preload
	var toLoad []vec.Vec3
	for x := -r; x <= r; x++ {
		for z := -r; z <= r; z++ {
			for y := 0; y <= 1; y++ {
				toLoad = append(toLoad, vec.Vec3{X: x, Y: y, Z: z})
			}
		}
	}
	// Ближние к нулю чанки загружаются первыми
	origin := vec.Vec3{}
	sort.Slice(toLoad, func(i, j int) bool {
		return toLoad[i].ManhattanDistanceTo(origin) < toLoad[j].ManhattanDistanceTo(origin)
	})
	for _, cc := range toLoad {
		if _, err := wm.LoadChunk(cc); err != nil {
			logging.Error("❌ Ошибка предзагрузки чанка %v: %v", cc, err)
			log.Fatalf("❌ Ошибка предзагрузки чанка %v: %v", cc, err)
		}
	}
	logging.Info("🌍 Предзагружено чанков: %d (радиус %d)", len(toLoad), r)

	// === REST API ===
	restServer := api.NewRestServer(api.Config{
		Port:       restPort,
		World:      wm,
		ChunkCache: chunkCache,
	})
	go func() {
		if err := restServer.Start(); err != nil {
			logging.Error("❌ REST API остановлен с ошибкой: %v", err)
		}
	}()

	// === ЦИКЛ СИМУЛЯЦИИ ===
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		if err := wm.Run(ctx); err != nil && err != context.Canceled {
			logging.Error("❌ Цикл симуляции завершился с ошибкой: %v", err)
		}
	}()

	logging.Info("✅ Все сервисы запущены")
	logging.Info("   🌐 REST API: http://localhost%s", restPort)
	logging.Info("   ❤️  Health check: http://localhost%s/health", restPort)
	logging.Info("💡 Примеры:")
	logging.Info("   curl http://localhost%s/api/stats", restPort)
	logging.Info("   curl -X POST http://localhost%s/api/actions -H 'Content-Type: application/json' -d '{\"type\":\"ignite\",\"pos\":{\"x\":3,\"y\":20,\"z\":5}}'", restPort)

	// Ждем сигнала для завершения
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logging.Info("📡 Получен сигнал %v, завершение работы...", sig)

	// === GRACEFUL SHUTDOWN ===
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := restServer.Stop(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки REST API: %v", err)
	}

	// Досылаем несброшенные журналы в хранилище
	if n, err := wm.FlushChanges(); err != nil {
		logging.Error("❌ Ошибка финального сброса журналов: %v", err)
	} else if n > 0 {
		logging.Info("💾 Сброшено записей журнала: %d", n)
	}

	logging.Info("👋 Сервер успешно остановлен")
}
