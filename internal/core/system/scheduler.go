package system

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/rangzgamez/escape-core/internal/core/ecs"
)

// Scheduler executes registered systems in priority order each tick.
// Systems capture their own dependencies at construction; the scheduler
// only hands them entities and the frame delta.
//
// A panicking system call is logged and abandoned; the tick continues
// with the next entity or system, and the offender runs again next tick.
type Scheduler struct {
	reg     *ecs.Registry
	log     *zap.Logger
	systems []System
	sorted  bool
}

func NewScheduler(reg *ecs.Registry, log *zap.Logger) *Scheduler {
	return &Scheduler{
		reg:     reg,
		log:     log,
		systems: make([]System, 0, 16),
	}
}

// Register adds a system. Equal priorities keep registration order.
func (s *Scheduler) Register(sys System) {
	s.systems = append(s.systems, sys)
	s.sorted = false
}

// Len reports the number of registered systems.
func (s *Scheduler) Len() int { return len(s.systems) }

// Update runs one tick: for each system in priority order, its frame
// hook, then its per-entity pass.
func (s *Scheduler) Update(dt time.Duration) {
	s.ensureSorted()
	for _, sys := range s.systems {
		if f, ok := sys.(FrameUpdater); ok {
			s.safeCall(sys, func() { f.UpdateFrame(dt) })
		}
		if u, ok := sys.(EntityUpdater); ok {
			s.runEntityPass(u, dt)
		}
	}
}

func (s *Scheduler) runEntityPass(u EntityUpdater, dt time.Duration) {
	// The matching set is fetched up front so the pass survives systems
	// that create or deactivate entities mid-walk. Entities deactivated
	// by an earlier iteration are skipped, not visited stale.
	for _, id := range s.reg.EntitiesWith(u.RequiredKinds()...) {
		if !s.reg.Active(id) {
			continue
		}
		s.safeCall(u, func() { u.UpdateEntity(id, dt) })
	}
}

// Draw runs every Drawer in priority order against r.
func (s *Scheduler) Draw(r Renderer) {
	s.ensureSorted()
	for _, sys := range s.systems {
		if d, ok := sys.(Drawer); ok {
			s.safeCall(sys, func() { d.Draw(r) })
		}
	}
}

func (s *Scheduler) ensureSorted() {
	if s.sorted {
		return
	}
	sort.SliceStable(s.systems, func(i, j int) bool {
		return s.systems[i].Priority() < s.systems[j].Priority()
	})
	s.sorted = true
}

func (s *Scheduler) safeCall(sys System, fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			s.log.Error("system panic",
				zap.String("system", fmt.Sprintf("%T", sys)),
				zap.Any("panic", rec),
			)
		}
	}()
	fn()
}
