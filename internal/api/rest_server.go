package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dyzdyz010/voxworld/internal/cache"
	"github.com/dyzdyz010/voxworld/internal/middleware"
	"github.com/dyzdyz010/voxworld/internal/observability"
	"github.com/dyzdyz010/voxworld/internal/vec"
	"github.com/dyzdyz010/voxworld/internal/world"
	"github.com/dyzdyz010/voxworld/internal/world/block"
	"github.com/dyzdyz010/voxworld/internal/world/domain"
)

// RestServer HTTP-интерфейс к миру: внешние действия, сводки чанков,
// журналы изменений и статистика узла.
type RestServer struct {
	router  *gin.Engine
	world   *world.WorldManager
	chunks  *cache.ChunkCache
	sysinfo *observability.SystemStats
	srv     *http.Server
	port    string
}

// Config содержит конфигурацию для REST сервера
type Config struct {
	Port       string              // порт для запуска сервера, например ":8080"
	World      *world.WorldManager // менеджер мира
	ChunkCache *cache.ChunkCache   // кеш сводок чанков (опционально)
}

// NewRestServer создает новый REST API сервер
func NewRestServer(config Config) *RestServer {
	if config.Port == "" {
		config.Port = ":8080"
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())

	// === Observability middleware ===
	loggerMw := middleware.NewRequestLogger()
	router.Use(loggerMw.Handler())

	promMw := middleware.NewPrometheusMiddleware("voxworld_rest")
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router)

	server := &RestServer{
		router:  router,
		world:   config.World,
		chunks:  config.ChunkCache,
		sysinfo: observability.NewSystemStats(),
		port:    config.Port,
	}

	server.setupRoutes()
	return server
}

// setupRoutes настраивает маршруты REST API
func (rs *RestServer) setupRoutes() {
	// Middleware для CORS
	rs.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	api := rs.router.Group("/api")
	{
		api.POST("/actions", rs.handleAction)
		api.GET("/chunks/:x/:y/:z", rs.handleChunkSummary)
		api.GET("/chunks/:x/:y/:z/changes", rs.handleChunkChanges)
		api.GET("/voxels/:x/:y/:z", rs.handleVoxel)
		api.GET("/stats", rs.handleStats)
	}

	rs.router.GET("/health", rs.handleHealth)
}

// GenericResponse представляет общий ответ API
type GenericResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ActionRequest внешнее действие над вокселем в мировых координатах
type ActionRequest struct {
	Type string `json:"type" binding:"required"` // ignite|extinguish|set_block|add_heat|set_temp|soak
	Pos  struct {
		X int `json:"x"`
		Y int `json:"y"`
		Z int `json:"z"`
	} `json:"pos"`
	BlockID  uint16  `json:"block_id,omitempty"`
	Power    float64 `json:"power,omitempty"`
	Heat     float64 `json:"heat,omitempty"`
	Temp     float64 `json:"temp,omitempty"`
	Moisture float64 `json:"moisture,omitempty"`
}

// handleAction ставит внешнее действие во входную очередь чанка.
// Действие применится на Commit следующего тика.
func (rs *RestServer) handleAction(c *gin.Context) {
	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверный формат запроса: " + err.Error(),
		})
		return
	}

	pos := vec.Vec3{X: req.Pos.X, Y: req.Pos.Y, Z: req.Pos.Z}

	// Чанк подгружается, чтобы действие можно было отправить
	// в любую точку мира
	coords, _ := world.Locate(pos)
	if _, err := rs.world.LoadChunk(coords); err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Ошибка загрузки чанка: " + err.Error(),
		})
		return
	}

	var err error
	switch req.Type {
	case "ignite":
		power := req.Power
		if power <= 0 {
			power = 1.0
		}
		err = rs.world.IgniteAt(pos, power)
	case "extinguish":
		err = rs.world.ExtinguishAt(pos)
	case "set_block":
		id := block.ID(req.BlockID)
		if !rs.world.Blocks().Contains(id) {
			c.JSON(http.StatusBadRequest, GenericResponse{
				Success: false,
				Message: fmt.Sprintf("Неизвестный тип блока: %d", req.BlockID),
			})
			return
		}
		err = rs.world.SetBlockAt(pos, id)
	case "add_heat":
		err = rs.world.AddHeatAt(pos, req.Heat)
	case "set_temp":
		err = rs.world.SetTempAt(pos, req.Temp)
	case "soak":
		m := req.Moisture
		if m <= 0 {
			m = 1.0
		}
		err = rs.world.SoakAt(pos, m)
	default:
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неизвестный тип действия: " + req.Type,
		})
		return
	}

	if err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: "Ошибка постановки действия: " + err.Error(),
		})
		return
	}

	// Сводка чанка устареет после применения действия
	if rs.chunks != nil {
		_ = rs.chunks.Invalidate(c.Request.Context(), coords)
	}

	c.JSON(http.StatusAccepted, GenericResponse{
		Success: true,
		Message: "Действие поставлено в очередь",
		Data: map[string]interface{}{
			"type":  req.Type,
			"chunk": coords,
			"tick":  rs.world.Tick(),
		},
	})
}

// handleChunkSummary возвращает сводку чанка.
// Сводка кешируется до следующего изменения чанка.
func (rs *RestServer) handleChunkSummary(c *gin.Context) {
	coords, ok := parseChunkCoords(c)
	if !ok {
		return
	}

	if rs.chunks != nil {
		if summary, err := rs.chunks.Get(c.Request.Context(), coords); err == nil {
			c.JSON(http.StatusOK, GenericResponse{
				Success: true,
				Message: "Сводка чанка (кеш)",
				Data:    summary,
			})
			return
		}
	}

	chunk, ok := rs.world.GetChunk(coords)
	if !ok {
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: fmt.Sprintf("Чанк %v не загружен", coords),
		})
		return
	}

	summary := rs.buildSummary(chunk)
	if rs.chunks != nil {
		_ = rs.chunks.Put(c.Request.Context(), summary)
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Сводка чанка",
		Data:    summary,
	})
}

// buildSummary считает сводку по живому чанку
func (rs *RestServer) buildSummary(chunk *world.Chunk) *cache.ChunkSummary {
	active := make(map[string]int)
	for _, d := range rs.world.Domains().Ordered() {
		active[d.ID().String()] = chunk.ActiveCount(d.ID())
	}

	blocks := make(map[string]int)
	for idx := 0; idx < domain.Volume; idx++ {
		id, err := chunk.Block(idx)
		if err != nil {
			continue
		}
		def, err := rs.world.Blocks().Get(id)
		if err != nil {
			blocks[fmt.Sprintf("block(%d)", id)]++
			continue
		}
		blocks[def.Name]++
	}

	return &cache.ChunkSummary{
		Coords:      chunk.Coords,
		Tick:        rs.world.Tick(),
		Active:      active,
		PendingOps:  chunk.ChangeCount(),
		DirtyVoxels: chunk.DirtyCount(),
		NeedsRemesh: chunk.NeedsRemesh(),
		Blocks:      blocks,
	}
}

// ChangeOpJSON запись журнала изменений в ответе API
type ChangeOpJSON struct {
	Idx     uint16  `json:"idx"`
	Kind    string  `json:"kind"`
	Block   *uint16 `json:"block,omitempty"`
	Flag    *uint16 `json:"flag,omitempty"`
	Variant *uint8  `json:"variant,omitempty"`
	Domain  string  `json:"domain,omitempty"`
	ValueA  float32 `json:"value_a,omitempty"`
	ValueB  float32 `json:"value_b,omitempty"`
	Present bool    `json:"present,omitempty"`
	Dropped string  `json:"dropped,omitempty"`
	Winner  string  `json:"winner,omitempty"`
}

func changeOpToJSON(op domain.ChangeOp) ChangeOpJSON {
	out := ChangeOpJSON{Idx: op.Idx, Kind: op.Kind.String()}
	switch op.Kind {
	case domain.OpSetBlock:
		b := uint16(op.Block)
		out.Block = &b
	case domain.OpAddFlag, domain.OpRemoveFlag:
		f := uint16(op.Flag)
		out.Flag = &f
	case domain.OpSetVariant:
		v := op.Variant
		out.Variant = &v
	case domain.OpDomainState:
		out.Domain = op.Domain.String()
		out.ValueA = op.Value.A
		out.ValueB = op.Value.B
		out.Present = op.Present
	case domain.OpConflict:
		out.Dropped = op.Dropped.String()
		out.Winner = op.Winner.String()
	}
	return out
}

// handleChunkChanges возвращает ещё не сброшенный журнал изменений чанка
func (rs *RestServer) handleChunkChanges(c *gin.Context) {
	coords, ok := parseChunkCoords(c)
	if !ok {
		return
	}

	chunk, found := rs.world.GetChunk(coords)
	if !found {
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: fmt.Sprintf("Чанк %v не загружен", coords),
		})
		return
	}

	ops := chunk.PendingChanges()
	out := make([]ChangeOpJSON, len(ops))
	for i, op := range ops {
		out[i] = changeOpToJSON(op)
	}

	// Активные воксели по доменам: какие индексы сейчас считаются
	active := make(map[string][]int)
	for _, d := range rs.world.Domains().Ordered() {
		active[d.ID().String()] = chunk.ActiveIndices(d.ID())
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Журнал изменений чанка",
		Data: map[string]interface{}{
			"coords":  coords,
			"tick":    rs.world.Tick(),
			"changes": out,
			"total":   len(out),
			"active":  active,
		},
	})
}

// handleVoxel возвращает состояние одного вокселя в мировых координатах
func (rs *RestServer) handleVoxel(c *gin.Context) {
	pos, ok := parseVoxelCoords(c)
	if !ok {
		return
	}

	id, err := rs.world.BlockAt(pos)
	if errors.Is(err, world.ErrChunkNotLoaded) {
		c.JSON(http.StatusNotFound, GenericResponse{
			Success: false,
			Message: "Чанк вокселя не загружен",
		})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, GenericResponse{
			Success: false,
			Message: err.Error(),
		})
		return
	}

	flags, _ := rs.world.FlagsAt(pos)
	temp, _ := rs.world.TemperatureAt(pos)

	name := fmt.Sprintf("block(%d)", id)
	if def, err := rs.world.Blocks().Get(id); err == nil {
		name = def.Name
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Состояние вокселя",
		Data: map[string]interface{}{
			"pos":         pos,
			"block_id":    id,
			"block":       name,
			"flags":       uint16(flags),
			"temperature": temp,
		},
	})
}

// handleStats возвращает статистику мира и узла
func (rs *RestServer) handleStats(c *gin.Context) {
	stats := make(map[string]interface{})

	stats["world"] = map[string]interface{}{
		"tick":   rs.world.Tick(),
		"chunks": rs.world.ChunkCount(),
	}
	stats["server"] = rs.sysinfo.Snapshot()
	stats["memory_details"] = rs.sysinfo.MemoryDetails()

	if rs.chunks != nil {
		// Метрики кеша сводок
		stats["cache"] = rs.chunks.RepoMetrics()
	}

	c.JSON(http.StatusOK, GenericResponse{
		Success: true,
		Message: "Статистика получена",
		Data:    stats,
	})
}

// handleHealth проверка состояния сервера
func (rs *RestServer) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"tick":   rs.world.Tick(),
		"time":   time.Now().Unix(),
	})
}

// parseChunkCoords разбирает координаты чанка из пути
func parseChunkCoords(c *gin.Context) (vec.Vec3, bool) {
	return parsePathCoords(c, "координаты чанка")
}

// parseVoxelCoords разбирает мировые координаты вокселя из пути
func parseVoxelCoords(c *gin.Context) (vec.Vec3, bool) {
	return parsePathCoords(c, "координаты вокселя")
}

func parsePathCoords(c *gin.Context, what string) (vec.Vec3, bool) {
	x, errX := strconv.Atoi(c.Param("x"))
	y, errY := strconv.Atoi(c.Param("y"))
	z, errZ := strconv.Atoi(c.Param("z"))
	if errX != nil || errY != nil || errZ != nil {
		c.JSON(http.StatusBadRequest, GenericResponse{
			Success: false,
			Message: "Неверные " + what,
		})
		return vec.Vec3{}, false
	}
	return vec.Vec3{X: x, Y: y, Z: z}, true
}

// Start запускает REST сервер
func (rs *RestServer) Start() error {
	rs.srv = &http.Server{
		Addr:    rs.port,
		Handler: rs.router,
	}
	err := rs.srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop останавливает REST сервер
func (rs *RestServer) Stop(ctx context.Context) error {
	if rs.srv == nil {
		return nil
	}
	return rs.srv.Shutdown(ctx)
}
