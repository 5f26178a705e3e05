package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rangzgamez/escape-core/internal/collision"
	"github.com/rangzgamez/escape-core/internal/component"
	"github.com/rangzgamez/escape-core/internal/config"
	"github.com/rangzgamez/escape-core/internal/core/ecs"
	"github.com/rangzgamez/escape-core/internal/data"
	"github.com/rangzgamez/escape-core/internal/scripting"
	"github.com/rangzgamez/escape-core/internal/system"
	"github.com/rangzgamez/escape-core/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner() {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m           escape-core  v0.1.0             \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m      dungeon escape · ecs simulator       \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Simulation logic ───────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/sim.toml"
	if p := os.Getenv("ESCAPE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner()

	// 3. Load content: prefab templates from YAML, Lua scripts on top
	printSection("content")

	prefabs, err := data.LoadPrefabTable(cfg.Data.Prefabs)
	if err != nil {
		return fmt.Errorf("load prefabs: %w", err)
	}
	printStat("prefab templates", prefabs.Count())

	loader := scripting.NewPrefabLoader(log)
	defer loader.Close()
	scripted, err := loader.LoadDir(cfg.Data.Scripts, prefabs)
	if err != nil {
		return fmt.Errorf("load prefab scripts: %w", err)
	}
	printStat("scripted prefabs", scripted)
	fmt.Println()

	// 4. Build the world. Data-defined component kinds get their codecs
	// before any snapshot is read, or loading would drop them.
	printSection("world")
	w := world.New(cfg, log)
	defer w.Close()
	printOK(fmt.Sprintf("grid cell %.0f, seed %d", cfg.World.CellSize, w.Seed()))

	kinds, err := registerDataKinds(w, prefabs)
	if err != nil {
		return fmt.Errorf("register data kinds: %w", err)
	}
	printStat("data component kinds", kinds)

	// 5. Resume from the last snapshot, or spawn the scene fresh
	if _, err := os.Stat(cfg.Sim.SnapshotPath); err == nil {
		if err := w.LoadFromFile(cfg.Sim.SnapshotPath); err != nil {
			return fmt.Errorf("resume snapshot: %w", err)
		}
		printOK(fmt.Sprintf("resumed %d entities from %s", w.ActiveCount(), cfg.Sim.SnapshotPath))
	} else {
		spawned, err := spawnScene(w, prefabs, cfg)
		if err != nil {
			return fmt.Errorf("spawn scene: %w", err)
		}
		printStat("entities spawned", spawned)
	}
	fmt.Println()

	// 6. Systems and event wiring. Registered after any snapshot load so
	// they attach to the live bus and scheduler.
	w.RegisterSystem(system.NewMovementSystem(w, cfg.Sim.Gravity))
	bounds := system.NewBoundsSystem(w, cfg.World.Height)
	w.RegisterSystem(bounds)
	w.RegisterSystem(system.NewDebugDrawSystem(w))

	collisions := 0
	landings := 0
	w.On(collision.Topic, func(_ string, payload any) {
		if _, ok := payload.(collision.Event); ok {
			collisions++
		}
	})
	w.On(collision.TopicForPair("faller", "platform"), func(_ string, payload any) {
		ev, ok := payload.(collision.Event)
		if !ok || ev.Side != collision.SideTop {
			return
		}
		landings++
		landFaller(w, ev)
	})

	// 7. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Sim.TickRate)
	defer ticker.Stop()

	// Duration 0 runs until a signal arrives; a nil channel never fires.
	var stopC <-chan time.Time
	if cfg.Sim.Duration > 0 {
		stop := time.NewTimer(cfg.Sim.Duration)
		defer stop.Stop()
		stopC = stop.C
	}

	printSection("running")
	printReady(fmt.Sprintf("tick %s, gravity %.0f", cfg.Sim.TickRate, cfg.Sim.Gravity))
	printReady(fmt.Sprintf("duration %s, %d fallers", cfg.Sim.Duration, cfg.Sim.Fallers))
	fmt.Println()

	ticks := 0
	spawnCounter := 0
	const spawnInterval = 30 // top up the faller population every 30 ticks

loop:
	for {
		select {
		case <-ticker.C:
			w.Update(cfg.Sim.TickRate)
			ticks++
			spawnCounter++
			if spawnCounter >= spawnInterval {
				spawnCounter = 0
				topUpFallers(w, prefabs, cfg)
			}
		case <-stopC:
			log.Info("duration reached", zap.Duration("after", cfg.Sim.Duration))
			break loop
		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()))
			break loop
		}
	}

	// 8. Save and report
	if err := w.SaveToFile(cfg.Sim.SnapshotPath); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	tally := &tallyRenderer{}
	w.Draw(tally)

	printSection("results")
	printStat("ticks", ticks)
	printStat("collision events", collisions)
	printStat("faller landings", landings)
	printStat("culled below floor", bounds.Culled())
	printStat("entities alive", w.ActiveCount())
	printStat("debug draw rects", tally.rects)
	fmt.Println()
	printOK(fmt.Sprintf("snapshot saved to %s", cfg.Sim.SnapshotPath))
	return nil
}

// ── Scene spawning ─────────────────────────────────────────────────

// spawnScene builds the dungeon: a solid floor tiled across the world
// width, staggered one-way ledges, the first wave of pooled fallers,
// and one of everything else the content defines.
func spawnScene(w *world.World, prefabs *data.PrefabTable, cfg *config.Config) (int, error) {
	total := 0

	ground := prefabs.Get("ground")
	if ground == nil || ground.Collider == nil {
		return 0, fmt.Errorf("prefab %q missing or has no collider", "ground")
	}
	floorY := cfg.World.Height - ground.Collider.H
	for x := 0.0; x < cfg.World.Width; x += ground.Collider.W {
		spawnPrefab(w, ground, x, floorY)
		total++
	}

	platform := prefabs.Get("platform")
	if platform == nil {
		return 0, fmt.Errorf("prefab %q missing", "platform")
	}
	for row := 1; row <= 3; row++ {
		y := cfg.World.Height - float64(row)*320
		for i := 0; i < 4; i++ {
			x := (float64(i) + 0.5*float64(row%2)) * cfg.World.Width / 4
			spawnPrefab(w, platform, x, y)
			total++
		}
	}

	faller := prefabs.Get("faller")
	if faller == nil {
		return 0, fmt.Errorf("prefab %q missing", "faller")
	}
	if faller.Pool != "" && faller.PoolSize > 0 {
		w.Prewarm(faller.Pool, faller.PoolSize)
	}
	for i := 0; i < cfg.Sim.Fallers; i++ {
		spawnFaller(w, faller, cfg)
		total++
	}

	for _, name := range prefabs.Names() {
		switch name {
		case "ground", "platform", "faller":
			continue
		}
		p := prefabs.Get(name)
		h := 16.0
		if p.Collider != nil {
			h = p.Collider.H
		}
		x := w.Rand().Float64() * cfg.World.Width
		spawnPrefab(w, p, x, floorY-h)
		total++
	}
	return total, nil
}

// spawnPrefab instantiates one entity from a template. Component add
// errors are ignored: the entity was just created and is active.
func spawnPrefab(w *world.World, p *data.Prefab, x, y float64) ecs.EntityID {
	if p.Spread > 0 {
		x += (w.Rand().Float64()*2 - 1) * p.Spread
		y += (w.Rand().Float64()*2 - 1) * p.Spread
	}

	var id ecs.EntityID
	if p.Pool != "" {
		id = w.PooledEntity(p.Pool)
	} else {
		id = w.CreateEntity()
	}
	_ = w.AddComponent(id, component.KindTransform, component.NewTransform(x, y))
	if p.Collider != nil {
		_ = w.AddComponent(id, component.KindCollider, &component.Collider{
			W:       p.Collider.W,
			H:       p.Collider.H,
			OffsetX: p.Collider.OffsetX,
			OffsetY: p.Collider.OffsetY,
			Layer:   p.Collider.Layer,
			Mask:    p.Collider.Mask,
			Type:    p.Collider.Type,
			OneWay:  p.Collider.OneWay,
		})
	}
	if p.Velocity != nil {
		_ = w.AddComponent(id, component.KindVelocity, &component.Velocity{VX: p.Velocity.VX, VY: p.Velocity.VY})
	}
	for _, tag := range p.Tags {
		_ = w.AddTag(id, tag)
	}
	for kind, tree := range p.Components {
		_ = w.AddComponent(id, ecs.Kind(kind), data.CloneTree(tree))
	}
	return id
}

func spawnFaller(w *world.World, p *data.Prefab, cfg *config.Config) {
	x := w.Rand().Float64() * cfg.World.Width
	y := w.Rand().Float64() * 100
	spawnPrefab(w, p, x, y)
}

// topUpFallers respawns pooled fallers culled below the floor, keeping
// the active population at the configured count. Relies on the faller
// prefab carrying the "faller" tag.
func topUpFallers(w *world.World, prefabs *data.PrefabTable, cfg *config.Config) {
	faller := prefabs.Get("faller")
	if faller == nil {
		return
	}
	missing := cfg.Sim.Fallers - len(w.EntitiesWithTag("faller"))
	for i := 0; i < missing; i++ {
		spawnFaller(w, faller, cfg)
	}
}

// landFaller zeroes a faller's descent and lifts it out of the platform
// by the contact overlap, so it rests on top instead of sinking through.
func landFaller(w *world.World, ev collision.Event) {
	raw, ok := w.GetComponent(ev.A, component.KindVelocity)
	if !ok {
		return
	}
	vel, ok := raw.(*component.Velocity)
	if !ok || vel.VY < 0 {
		return
	}
	vel.VY = 0
	if x, y, ok := w.Position(ev.A); ok {
		_ = w.SetPosition(ev.A, x, y-ev.OverlapY)
	}
}

// registerDataKinds gives every component kind the content defines a
// pass-through codec, so YAML and scripted components survive
// snapshots. Built-in kinds already have real codecs.
func registerDataKinds(w *world.World, prefabs *data.PrefabTable) (int, error) {
	seen := map[ecs.Kind]bool{
		component.KindTransform: true,
		component.KindCollider:  true,
		component.KindVelocity:  true,
	}
	added := 0
	for _, name := range prefabs.Names() {
		for key := range prefabs.Get(name).Components {
			kind := ecs.Kind(key)
			if seen[kind] {
				continue
			}
			seen[kind] = true
			if err := w.Codec().RegisterKind(kind, treeCodec{}); err != nil {
				return added, err
			}
			added++
		}
	}
	return added, nil
}

// treeCodec persists content-defined component trees unchanged. They
// are already plain maps and lists, so each direction is a deep copy.
type treeCodec struct{}

func (treeCodec) Encode(comp any) (any, error) { return data.CloneTree(comp), nil }
func (treeCodec) Decode(raw any) (any, error)  { return data.CloneTree(raw), nil }

// tallyRenderer counts draw primitives; the sim has no real display.
type tallyRenderer struct {
	rects, circles, polys, quads int
}

func (r *tallyRenderer) Rect(float64, float64, float64, float64)         { r.rects++ }
func (r *tallyRenderer) Circle(float64, float64, float64)                { r.circles++ }
func (r *tallyRenderer) Polygon(...float64)                              { r.polys++ }
func (r *tallyRenderer) Quad(string, float64, float64, float64, float64) { r.quads++ }

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
