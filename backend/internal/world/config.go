package world

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/LeonardMeagher2/openmw-tes3mp/backend/internal/physics"
)

// ServerConfig сетевые настройки сервера
type ServerConfig struct {
	GRPCAddr string `yaml:"grpc_addr"`
	HTTPAddr string `yaml:"http_addr"`
	// TickRate частота игрового цикла (тиков в секунду)
	TickRate int `yaml:"tick_rate"`
	// DebugInterval минимальный интервал между кадрами отладочной отрисовки
	DebugInterval time.Duration `yaml:"debug_interval"`
}

// TerrainConfig параметры генерации тайлов террейна
type TerrainConfig struct {
	// Side количество сэмплов по стороне тайла
	Side         int     `yaml:"side"`
	TriangleSize float64 `yaml:"triangle_size"`
	MinHeight    float64 `yaml:"min_height"`
	MaxHeight    float64 `yaml:"max_height"`
	// NoiseScale размер детали рельефа в сэмплах
	NoiseScale float64 `yaml:"noise_scale"`
	Octaves    int     `yaml:"octaves"`
	Seed       int64   `yaml:"seed"`
	// Radius сколько тайлов вокруг (0,0) загружать при старте
	Radius int `yaml:"radius"`
}

// AssetsConfig пути к манифестам мешей и ячейкам
type AssetsConfig struct {
	ManifestDir string   `yaml:"manifest_dir"`
	Cells       []string `yaml:"cells"`
	Watch       bool     `yaml:"watch"`
}

// TelemetryConfig настройки сбора статистики
type TelemetryConfig struct {
	Enabled         bool          `yaml:"enabled"`
	MaxRecords      int           `yaml:"max_records"`
	SummaryInterval time.Duration `yaml:"summary_interval"`
}

// Config полная конфигурация движка
type Config struct {
	Physics   physics.Config  `yaml:"physics"`
	Server    ServerConfig    `yaml:"server"`
	Terrain   TerrainConfig   `yaml:"terrain"`
	Assets    AssetsConfig    `yaml:"assets"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// DefaultConfig конфигурация по умолчанию
func DefaultConfig() Config {
	return Config{
		Physics: physics.DefaultConfig(),
		Server: ServerConfig{
			GRPCAddr:      ":50051",
			HTTPAddr:      ":8080",
			TickRate:      60,
			DebugInterval: 100 * time.Millisecond,
		},
		Terrain: TerrainConfig{
			Side:         65,
			TriangleSize: 128,
			MinHeight:    -256,
			MaxHeight:    2048,
			NoiseScale:   32,
			Octaves:      4,
			Seed:         1,
			Radius:       1,
		},
		Assets: AssetsConfig{
			ManifestDir: "assets/meshes",
			Cells:       []string{"assets/cells/seyda_neen.yaml"},
			Watch:       true,
		},
		Telemetry: TelemetryConfig{
			Enabled:         true,
			MaxRecords:      1000,
			SummaryInterval: 30 * time.Second,
		},
	}
}

// Validate проверяет значения, без которых движок не запустится
func (c Config) Validate() error {
	if c.Server.TickRate <= 0 {
		return fmt.Errorf("server.tick_rate must be positive, got %d", c.Server.TickRate)
	}
	if c.Terrain.Side < 2 {
		return fmt.Errorf("terrain.side must be at least 2, got %d", c.Terrain.Side)
	}
	if c.Terrain.TriangleSize <= 0 {
		return fmt.Errorf("terrain.triangle_size must be positive, got %v", c.Terrain.TriangleSize)
	}
	if c.Terrain.MaxHeight < c.Terrain.MinHeight {
		return fmt.Errorf("terrain.max_height %v is below min_height %v", c.Terrain.MaxHeight, c.Terrain.MinHeight)
	}
	return nil
}

// LoadConfig накладывает YAML файл на значения по умолчанию.
// Отсутствующий файл не ошибка.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("world: read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("world: parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return DefaultConfig(), fmt.Errorf("world: config %s: %w", path, err)
	}
	return cfg, nil
}

// ConfigStore хранит текущую конфигурацию и уведомляет подписчиков о замене
type ConfigStore struct {
	mu          sync.RWMutex
	cfg         Config
	subscribers []func(Config)
}

func NewConfigStore(cfg Config) *ConfigStore {
	return &ConfigStore{cfg: cfg}
}

// Get возвращает текущую конфигурацию
func (s *ConfigStore) Get() Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Physics возвращает только физические параметры
func (s *ConfigStore) Physics() physics.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Physics
}

// Set заменяет конфигурацию и вызывает подписчиков вне блокировки
func (s *ConfigStore) Set(cfg Config) {
	s.mu.Lock()
	s.cfg = cfg
	subs := make([]func(Config), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	for _, fn := range subs {
		fn(cfg)
	}
}

// OnChange регистрирует обработчик замены конфигурации
func (s *ConfigStore) OnChange(fn func(Config)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}
