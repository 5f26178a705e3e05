package spatial

// Grid is a uniform-cell spatial index over sparse cells. Cells exist
// only while occupied; removing the last entity deletes the cell. The
// grid keeps an inverse index from entity to covered cell range plus the
// last-synced bounds, so removal costs only the cells actually touched
// and queries can filter exactly without consulting the registry.
// Accessed only from the game loop goroutine, no locks.

import (
	"math"
	"sort"

	"github.com/rangzgamez/escape-core/internal/core/ecs"
)

// AABB is an axis-aligned box. Overlap is strict: boxes sharing only an
// edge or a corner do not overlap.
type AABB struct {
	X, Y, W, H float64
}

// Intersects reports strict overlap with o.
func (b AABB) Intersects(o AABB) bool {
	return b.X < o.X+o.W && b.X+b.W > o.X &&
		b.Y < o.Y+o.H && b.Y+b.H > o.Y
}

// DistSq returns the squared distance from (x, y) to the closest point
// of the box, zero when the point is inside.
func (b AABB) DistSq(x, y float64) float64 {
	cx := math.Max(b.X, math.Min(x, b.X+b.W))
	cy := math.Max(b.Y, math.Min(y, b.Y+b.H))
	dx := x - cx
	dy := y - cy
	return dx*dx + dy*dy
}

type cellKey struct {
	cx, cy int32
}

// cellRange is the inclusive cell rectangle covered by a box.
type cellRange struct {
	x0, y0, x1, y1 int32
}

type Grid struct {
	cellSize float64
	cells    map[cellKey]map[ecs.EntityID]struct{}
	ranges   map[ecs.EntityID]cellRange
	bounds   map[ecs.EntityID]AABB
	seen     map[ecs.EntityID]struct{} // query scratch, reused per call
}

// NewGrid builds an empty index. cellSize must be positive; it is tuned
// to the typical entity extent so most entities sit in one to four cells.
func NewGrid(cellSize float64) *Grid {
	return &Grid{
		cellSize: cellSize,
		cells:    make(map[cellKey]map[ecs.EntityID]struct{}),
		ranges:   make(map[ecs.EntityID]cellRange),
		bounds:   make(map[ecs.EntityID]AABB),
		seen:     make(map[ecs.EntityID]struct{}),
	}
}

func (g *Grid) cellCoord(v float64) int32 {
	return int32(math.Floor(v / g.cellSize))
}

// rangeOf is the inclusive cell rectangle the box touches. An edge lying
// exactly on a cell boundary claims the far cell too; queries filter
// exactly afterwards, so over-coverage only costs a map lookup.
func (g *Grid) rangeOf(b AABB) cellRange {
	return cellRange{
		x0: g.cellCoord(b.X),
		y0: g.cellCoord(b.Y),
		x1: g.cellCoord(b.X + b.W),
		y1: g.cellCoord(b.Y + b.H),
	}
}

// Insert records the entity under every cell its bounds touch.
// Inserting an entity already present re-syncs it, same as Update.
func (g *Grid) Insert(id ecs.EntityID, b AABB) {
	if _, ok := g.ranges[id]; ok {
		g.Update(id, b)
		return
	}
	cr := g.rangeOf(b)
	g.addRange(id, cr)
	g.ranges[id] = cr
	g.bounds[id] = b
}

// Remove drops the entity from every covered cell. Unknown entities
// no-op, so callers can remove on any teardown path without bookkeeping.
func (g *Grid) Remove(id ecs.EntityID) {
	cr, ok := g.ranges[id]
	if !ok {
		return
	}
	g.removeRange(id, cr)
	delete(g.ranges, id)
	delete(g.bounds, id)
}

// Update re-syncs the entity's bounds. When the covered cell rectangle
// is unchanged only the recorded bounds refresh, which is the common
// case for small per-frame movement. Updating an unknown entity inserts
// it.
func (g *Grid) Update(id ecs.EntityID, b AABB) {
	old, ok := g.ranges[id]
	if !ok {
		cr := g.rangeOf(b)
		g.addRange(id, cr)
		g.ranges[id] = cr
		g.bounds[id] = b
		return
	}
	nr := g.rangeOf(b)
	if nr == old {
		g.bounds[id] = b
		return
	}
	g.removeRange(id, old)
	g.addRange(id, nr)
	g.ranges[id] = nr
	g.bounds[id] = b
}

func (g *Grid) addRange(id ecs.EntityID, cr cellRange) {
	for cx := cr.x0; cx <= cr.x1; cx++ {
		for cy := cr.y0; cy <= cr.y1; cy++ {
			k := cellKey{cx, cy}
			cell := g.cells[k]
			if cell == nil {
				cell = make(map[ecs.EntityID]struct{})
				g.cells[k] = cell
			}
			cell[id] = struct{}{}
		}
	}
}

func (g *Grid) removeRange(id ecs.EntityID, cr cellRange) {
	for cx := cr.x0; cx <= cr.x1; cx++ {
		for cy := cr.y0; cy <= cr.y1; cy++ {
			k := cellKey{cx, cy}
			if cell := g.cells[k]; cell != nil {
				delete(cell, id)
				if len(cell) == 0 {
					delete(g.cells, k)
				}
			}
		}
	}
}

// QueryRadius returns the entities whose bounds truly intersect the
// circle, ordered by handle. The cell scan over-approximates; the
// closest-point distance test filters exactly.
func (g *Grid) QueryRadius(x, y, r float64) []ecs.EntityID {
	return g.QueryRadiusInto(x, y, r, nil)
}

// QueryRadiusInto appends matches to buf and returns it, so a caller
// holding one buffer per query site allocates only on high-water marks.
func (g *Grid) QueryRadiusInto(x, y, r float64, buf []ecs.EntityID) []ecs.EntityID {
	buf = buf[:0]
	if r < 0 {
		return buf
	}
	cr := cellRange{
		x0: g.cellCoord(x - r),
		y0: g.cellCoord(y - r),
		x1: g.cellCoord(x + r),
		y1: g.cellCoord(y + r),
	}
	rr := r * r
	clear(g.seen)
	for cx := cr.x0; cx <= cr.x1; cx++ {
		for cy := cr.y0; cy <= cr.y1; cy++ {
			for id := range g.cells[cellKey{cx, cy}] {
				if _, dup := g.seen[id]; dup {
					continue
				}
				g.seen[id] = struct{}{}
				if g.bounds[id].DistSq(x, y) <= rr {
					buf = append(buf, id)
				}
			}
		}
	}
	sort.Slice(buf, func(i, j int) bool { return buf[i] < buf[j] })
	return buf
}

// QueryRect returns the entities whose bounds strictly overlap the query
// box, ordered by handle.
func (g *Grid) QueryRect(b AABB) []ecs.EntityID {
	return g.QueryRectInto(b, nil)
}

// QueryRectInto appends matches to buf and returns it.
func (g *Grid) QueryRectInto(b AABB, buf []ecs.EntityID) []ecs.EntityID {
	buf = buf[:0]
	cr := g.rangeOf(b)
	clear(g.seen)
	for cx := cr.x0; cx <= cr.x1; cx++ {
		for cy := cr.y0; cy <= cr.y1; cy++ {
			for id := range g.cells[cellKey{cx, cy}] {
				if _, dup := g.seen[id]; dup {
					continue
				}
				g.seen[id] = struct{}{}
				if g.bounds[id].Intersects(b) {
					buf = append(buf, id)
				}
			}
		}
	}
	sort.Slice(buf, func(i, j int) bool { return buf[i] < buf[j] })
	return buf
}

// PotentialPairs emits every unordered pair sharing a cell, cell by
// cell. A pair sharing several cells repeats once per shared cell and
// the order is arbitrary: this is the raw broad phase, callers
// deduplicate (see DedupPairs).
func (g *Grid) PotentialPairs() [][2]ecs.EntityID {
	var out [][2]ecs.EntityID
	scratch := make([]ecs.EntityID, 0, 8)
	for _, cell := range g.cells {
		if len(cell) < 2 {
			continue
		}
		scratch = scratch[:0]
		for id := range cell {
			scratch = append(scratch, id)
		}
		for i := 0; i < len(scratch); i++ {
			for j := i + 1; j < len(scratch); j++ {
				out = append(out, [2]ecs.EntityID{scratch[i], scratch[j]})
			}
		}
	}
	return out
}

// DedupPairs normalizes each pair low-handle-first, drops duplicates,
// and sorts the result, making broad-phase output deterministic.
func DedupPairs(pairs [][2]ecs.EntityID) [][2]ecs.EntityID {
	if len(pairs) == 0 {
		return nil
	}
	seen := make(map[[2]ecs.EntityID]struct{}, len(pairs))
	out := make([][2]ecs.EntityID, 0, len(pairs))
	for _, p := range pairs {
		if p[1] < p[0] {
			p[0], p[1] = p[1], p[0]
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i][0] != out[j][0] {
			return out[i][0] < out[j][0]
		}
		return out[i][1] < out[j][1]
	})
	return out
}

// DebugCells returns the world rect of every occupied cell, ordered by
// cell coordinate. Debug overlay only; nothing else reads cell shapes.
func (g *Grid) DebugCells() []AABB {
	keys := make([]cellKey, 0, len(g.cells))
	for k := range g.cells {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].cy != keys[j].cy {
			return keys[i].cy < keys[j].cy
		}
		return keys[i].cx < keys[j].cx
	})
	out := make([]AABB, len(keys))
	for i, k := range keys {
		out[i] = AABB{
			X: float64(k.cx) * g.cellSize,
			Y: float64(k.cy) * g.cellSize,
			W: g.cellSize,
			H: g.cellSize,
		}
	}
	return out
}

// Len returns the number of indexed entities.
func (g *Grid) Len() int { return len(g.ranges) }

// Contains reports whether the entity is currently indexed.
func (g *Grid) Contains(id ecs.EntityID) bool {
	_, ok := g.ranges[id]
	return ok
}

// Bounds returns the last-synced box for an indexed entity.
func (g *Grid) Bounds(id ecs.EntityID) (AABB, bool) {
	b, ok := g.bounds[id]
	return b, ok
}
