package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	World   WorldConfig   `toml:"world"`
	Pool    PoolConfig    `toml:"pool"`
	Sim     SimConfig     `toml:"sim"`
	Random  RandomConfig  `toml:"random"`
	Logging LoggingConfig `toml:"logging"`
	Data    DataConfig    `toml:"data"`
}

type WorldConfig struct {
	CellSize float64 `toml:"cell_size"` // spatial grid cell edge, pixels
	Width    float64 `toml:"width"`     // playfield extent, pixels
	Height   float64 `toml:"height"`
}

type PoolConfig struct {
	GrowthFactor float64 `toml:"growth_factor"` // fraction of pool size added on exhaustion
}

type SimConfig struct {
	TickRate     time.Duration `toml:"tick_rate"`
	Duration     time.Duration `toml:"duration"` // 0 = run until interrupted
	Gravity      float64       `toml:"gravity"`  // px/s^2, positive is down
	Fallers      int           `toml:"fallers"`  // pooled fallers kept in flight
	SnapshotPath string        `toml:"snapshot_path"`
}

type RandomConfig struct {
	Seed int64 `toml:"seed"` // 0 = seed from wall clock at boot
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

type DataConfig struct {
	Prefabs string `toml:"prefabs"` // YAML prefab list
	Scripts string `toml:"scripts"` // directory of Lua prefab scripts
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func Default() *Config {
	return &Config{
		World: WorldConfig{
			CellSize: 64,
			Width:    2048,
			Height:   1536,
		},
		Pool: PoolConfig{
			GrowthFactor: 0.25,
		},
		Sim: SimConfig{
			TickRate:     16 * time.Millisecond,
			Duration:     10 * time.Second,
			Gravity:      900,
			Fallers:      24,
			SnapshotPath: "escape-world.snap.json",
		},
		Random: RandomConfig{
			Seed: 0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Data: DataConfig{
			Prefabs: "data/prefabs.yaml",
			Scripts: "scripts/prefabs",
		},
	}
}
