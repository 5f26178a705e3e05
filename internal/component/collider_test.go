package component

import "testing"

func TestColliderBoundsFollowTransformAndOffset(t *testing.T) {
	tr := NewTransform(100, 50)
	c := &Collider{W: 16, H: 24, OffsetX: -8, OffsetY: 2}

	b := c.Bounds(tr)
	if b.X != 92 || b.Y != 52 || b.W != 16 || b.H != 24 {
		t.Fatalf("Bounds = %+v", b)
	}

	tr.X, tr.Y = 0, 0
	if b = c.Bounds(tr); b.X != -8 || b.Y != 2 {
		t.Fatalf("Bounds after move = %+v", b)
	}
}

func TestColliderMatchesIsDirectional(t *testing.T) {
	player := &Collider{Layer: 1 << 0, Mask: 1 << 1}
	spike := &Collider{Layer: 1 << 1, Mask: 0} // hits nothing itself

	if !player.Matches(spike) {
		t.Fatalf("player mask should accept spike layer")
	}
	if spike.Matches(player) {
		t.Fatalf("spike mask accepts nothing")
	}
}

func TestNewTransformStartsAtRest(t *testing.T) {
	tr := NewTransform(3, 7)
	if tr.PrevX != 3 || tr.PrevY != 7 {
		t.Fatalf("prev position = (%v, %v), want (3, 7)", tr.PrevX, tr.PrevY)
	}
}
