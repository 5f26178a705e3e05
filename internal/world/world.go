// Package world assembles the engine: registry, spatial grid, event
// bus, scheduler, collision pipeline, and snapshot codec behind one
// facade. Single-goroutine access only (game loop).
package world

import (
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/rangzgamez/escape-core/internal/collision"
	"github.com/rangzgamez/escape-core/internal/component"
	"github.com/rangzgamez/escape-core/internal/config"
	"github.com/rangzgamez/escape-core/internal/core/ecs"
	"github.com/rangzgamez/escape-core/internal/core/event"
	"github.com/rangzgamez/escape-core/internal/core/system"
	"github.com/rangzgamez/escape-core/internal/snapshot"
	"github.com/rangzgamez/escape-core/internal/spatial"
)

// ErrNoTransform is returned by position operations on entities that
// carry no transform component.
var ErrNoTransform = errors.New("entity has no transform")

// World owns every engine subsystem and keeps them consistent: grid
// occupancy rides the lifecycle events, the collision pass is a
// pre-registered system, and the reap runs at the end of every update.
type World struct {
	cfg   *config.Config
	log   *zap.Logger
	bus   *event.Bus
	reg   *ecs.Registry
	grid  *spatial.Grid
	sched *system.Scheduler
	pipe  *collision.Pipeline
	codec *snapshot.Codec
	rng   *rand.Rand
	seed  int64

	subs         []event.Subscription // host subscriptions via On
	internalSubs []event.Subscription // grid sync wiring

	// Reusable query buffers, valid until the next query of the same shape.
	radiusBuf []ecs.EntityID
	rectBuf   []ecs.EntityID
}

// New assembles a world from cfg and wires grid occupancy to the
// registry's lifecycle events. The collision pipeline comes
// pre-registered; everything else is up to the host.
func New(cfg *config.Config, log *zap.Logger) *World {
	bus := event.NewBus()
	reg := ecs.NewRegistry(bus)
	reg.SetPoolGrowth(cfg.Pool.GrowthFactor)

	seed := cfg.Random.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	w := &World{
		cfg:   cfg,
		log:   log,
		bus:   bus,
		reg:   reg,
		grid:  spatial.NewGrid(cfg.World.CellSize),
		sched: system.NewScheduler(reg, log),
		codec: snapshot.NewCodec(),
		rng:   rand.New(rand.NewSource(seed)),
		seed:  seed,
	}
	w.pipe = collision.NewPipeline(reg, w.grid, bus, log)
	w.sched.Register(w.pipe)
	w.wireGridSync()
	return w
}

// Update advances one tick: the system pass in priority order, then the
// reap of everything still inactive. Entities deactivated mid-tick die
// here, between frames, never under a running system.
func (w *World) Update(dt time.Duration) {
	w.sched.Update(dt)
	if n := w.reg.Reap(); n > 0 {
		w.log.Debug("reaped entities", zap.Int("count", n))
	}
}

// Draw runs the draw pass against r.
func (w *World) Draw(r system.Renderer) {
	w.sched.Draw(r)
}

// RegisterSystem adds a system to the scheduler.
func (w *World) RegisterSystem(sys system.System) {
	w.sched.Register(sys)
}

// On subscribes to a topic. The subscription is owned by the world and
// torn down on Close or snapshot load; call Off to drop it earlier.
func (w *World) On(topic string, h event.Handler) event.Subscription {
	sub := w.bus.Subscribe(topic, h)
	w.subs = append(w.subs, sub)
	return sub
}

// Off cancels a subscription made with On.
func (w *World) Off(sub event.Subscription) {
	sub.Close()
	for i, s := range w.subs {
		if s == sub {
			w.subs = append(w.subs[:i], w.subs[i+1:]...)
			break
		}
	}
}

// Publish puts an event on the world's bus.
func (w *World) Publish(topic string, payload any) {
	w.bus.Publish(topic, payload)
}

// Close drops every subscription the world holds. The registry and grid
// stay readable afterwards; only event delivery stops.
func (w *World) Close() {
	w.closeSubs()
}

func (w *World) closeSubs() {
	for _, sub := range w.subs {
		sub.Close()
	}
	w.subs = nil
	for _, sub := range w.internalSubs {
		sub.Close()
	}
	w.internalSubs = nil
}

// Registry exposes the entity registry for hosts that outgrow the
// facade methods below.
func (w *World) Registry() *ecs.Registry { return w.reg }

// Rand is the world's seeded random source.
func (w *World) Rand() *rand.Rand { return w.rng }

// Seed reports the seed the random source started from.
func (w *World) Seed() int64 { return w.seed }

// Codec exposes the snapshot codec so hosts can register kind codecs.
// Registered kinds survive snapshot loads.
func (w *World) Codec() *snapshot.Codec { return w.codec }

func (w *World) CreateEntity() ecs.EntityID           { return w.reg.CreateEntity() }
func (w *World) PooledEntity(key string) ecs.EntityID { return w.reg.PooledEntity(key) }
func (w *World) Prewarm(key string, n int)            { w.reg.Prewarm(key, n) }
func (w *World) ReturnToPool(id ecs.EntityID) error   { return w.reg.ReturnToPool(id) }
func (w *World) PoolKey(id ecs.EntityID) string       { return w.reg.PoolKey(id) }

func (w *World) Active(id ecs.EntityID) bool { return w.reg.Active(id) }
func (w *World) Valid(id ecs.EntityID) bool  { return w.reg.Valid(id) }
func (w *World) ActiveCount() int            { return w.reg.ActiveCount() }

func (w *World) SetActive(id ecs.EntityID, active bool) error {
	return w.reg.SetActive(id, active)
}

func (w *World) AddComponent(id ecs.EntityID, kind ecs.Kind, data any) error {
	return w.reg.AddComponent(id, kind, data)
}

func (w *World) GetComponent(id ecs.EntityID, kind ecs.Kind) (any, bool) {
	return w.reg.GetComponent(id, kind)
}

func (w *World) RemoveComponent(id ecs.EntityID, kind ecs.Kind) error {
	return w.reg.RemoveComponent(id, kind)
}

func (w *World) AddTag(id ecs.EntityID, tag string) error    { return w.reg.AddTag(id, tag) }
func (w *World) RemoveTag(id ecs.EntityID, tag string) error { return w.reg.RemoveTag(id, tag) }
func (w *World) HasTag(id ecs.EntityID, tag string) bool     { return w.reg.HasTag(id, tag) }

func (w *World) EntitiesWith(kinds ...ecs.Kind) []ecs.EntityID {
	return w.reg.EntitiesWith(kinds...)
}

func (w *World) EntitiesWithTag(tag string) []ecs.EntityID {
	return w.reg.EntitiesWithTag(tag)
}

// SetPosition moves an entity and refreshes its grid footprint. The
// previous-frame fields are untouched; the movement system owns that
// bookkeeping when it integrates.
func (w *World) SetPosition(id ecs.EntityID, x, y float64) error {
	if !w.reg.Active(id) {
		return ecs.ErrInvalidEntity
	}
	tr, ok := w.transformOf(id)
	if !ok {
		return ErrNoTransform
	}
	tr.X, tr.Y = x, y
	if rawCol, ok := w.reg.GetComponent(id, component.KindCollider); ok {
		if col, ok := rawCol.(*component.Collider); ok {
			w.grid.Update(id, col.Bounds(tr))
		}
	}
	return nil
}

// Position reads an entity's current transform position.
func (w *World) Position(id ecs.EntityID) (x, y float64, ok bool) {
	tr, found := w.transformOf(id)
	if !found {
		return 0, 0, false
	}
	return tr.X, tr.Y, true
}

func (w *World) transformOf(id ecs.EntityID) (*component.Transform, bool) {
	raw, ok := w.reg.GetComponent(id, component.KindTransform)
	if !ok {
		return nil, false
	}
	tr, ok := raw.(*component.Transform)
	return tr, ok
}

// EntitiesInRadius returns collidable entities within r of (x, y). The
// slice is a reusable buffer, valid until the next radius query.
func (w *World) EntitiesInRadius(x, y, r float64) []ecs.EntityID {
	w.radiusBuf = w.grid.QueryRadiusInto(x, y, r, w.radiusBuf)
	return w.radiusBuf
}

// EntitiesInRect returns collidable entities overlapping rect. The
// slice is a reusable buffer, valid until the next rect query.
func (w *World) EntitiesInRect(rect spatial.AABB) []ecs.EntityID {
	w.rectBuf = w.grid.QueryRectInto(rect, w.rectBuf)
	return w.rectBuf
}

// PotentialCollisionPairs returns the deduplicated, ordered broad-phase
// candidate pairs for the current grid state.
func (w *World) PotentialCollisionPairs() [][2]ecs.EntityID {
	return spatial.DedupPairs(w.grid.PotentialPairs())
}

// DebugCells returns the occupied grid cells as world-space rectangles.
func (w *World) DebugCells() []spatial.AABB {
	return w.grid.DebugCells()
}

// SaveToFile writes a snapshot next to its destination and renames it
// into place, so a crash mid-write never clobbers the previous save.
func (w *World) SaveToFile(path string) error {
	data, err := w.codec.Encode(w.reg)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snap-*")
	if err != nil {
		return fmt.Errorf("snapshot temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("snapshot write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("snapshot close: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("snapshot rename: %w", err)
	}
	w.log.Info("snapshot saved",
		zap.String("path", path),
		zap.Int("bytes", len(data)),
		zap.Int("entities", w.reg.ActiveCount()),
	)
	return nil
}

// LoadFromFile reads a snapshot and replaces the world's state with it.
func (w *World) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read snapshot %s: %w", path, err)
	}
	return w.LoadSnapshot(data)
}

// LoadSnapshot decodes into a scratch world and swaps it in, so a bad
// document leaves the live state untouched. Grid occupancy rebuilds
// itself through the scratch world's lifecycle events during decode.
//
// Registered systems and subscriptions do not survive the swap; hosts
// re-register both after a load. Kind codecs do survive: the codec is
// the one piece of wiring that carries over.
func (w *World) LoadSnapshot(data []byte) error {
	fresh := New(w.cfg, w.log)
	if err := w.codec.Decode(data, fresh.reg); err != nil {
		fresh.Close()
		return err
	}
	w.closeSubs()
	w.bus = fresh.bus
	w.reg = fresh.reg
	w.grid = fresh.grid
	w.sched = fresh.sched
	w.pipe = fresh.pipe
	w.internalSubs = fresh.internalSubs
	w.radiusBuf, w.rectBuf = nil, nil
	w.log.Info("snapshot loaded", zap.Int("entities", w.reg.ActiveCount()))
	return nil
}
