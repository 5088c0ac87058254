package types

import "testing"

func TestIVec3DivTruncatesTowardZero(t *testing.T) {
	specs := []struct {
		in  IVec3
		div int32
		exp IVec3
	}{
		{XYZi(70, 5, 5), 64, XYZi(1, 0, 0)},
		{XYZi(-70, -5, 5), 64, XYZi(-1, 0, 0)},
		{XYZi(63, -63, 0), 64, XYZi(0, 0, 0)},
	}

	for idx, spec := range specs {
		if got := spec.in.Div(spec.div); got != spec.exp {
			t.Fatalf("[spec %d] expected %v / %d to be %v; got %v", idx, spec.in, spec.div, spec.exp, got)
		}
	}
}

func TestDistanceSquared(t *testing.T) {
	a := XYZi(1, 2, 3)
	b := XYZi(4, 6, 3)

	var exp int64 = 9 + 16
	if got := a.DistanceSquared(b); got != exp {
		t.Fatalf("expected distance squared to be %d; got %d", exp, got)
	}
	if got := b.DistanceSquared(a); got != exp {
		t.Fatalf("expected distance squared to be symmetric; got %d", got)
	}
}

func TestIsqrt(t *testing.T) {
	specs := []struct {
		in  int64
		exp int64
	}{
		{0, 0},
		{1, 1},
		{3, 1},
		{4, 2},
		{8, 2},
		{9, 3},
		{1 << 40, 1 << 20},
		{(1 << 40) - 1, (1 << 20) - 1},
	}

	for idx, spec := range specs {
		if got := Isqrt(spec.in); got != spec.exp {
			t.Fatalf("[spec %d] expected isqrt(%d) to be %d; got %d", idx, spec.in, spec.exp, got)
		}
	}
}
