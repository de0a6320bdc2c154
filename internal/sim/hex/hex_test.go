package hex

import "testing"

func TestDistance(t *testing.T) {
	cases := []struct {
		a, b Pos
		want int
	}{
		{Pos{}, Pos{}, 0},
		{Pos{}, Pos{Q: 0, R: 3}, 3},
		{Pos{}, Pos{Q: 2, R: -1}, 2},
		{Pos{}, Pos{Q: 1, R: 1}, 2},
		{Pos{Q: -2, R: 3}, Pos{Q: 1, R: -1}, 4},
	}
	for _, c := range cases {
		if got := Distance(c.a, c.b); got != c.want {
			t.Fatalf("Distance(%v,%v)=%d want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestDirection_Neighbors(t *testing.T) {
	origin := Pos{Q: 3, R: -2}
	for f := N; f <= NW; f++ {
		if got := Direction(origin, origin.Neighbor(f)); got != f {
			t.Fatalf("Direction to neighbor %v = %v", f, got)
		}
	}
}

func TestDirection_SplitTieIsCounterClockwise(t *testing.T) {
	// (1,1) lies exactly between N and NE.
	if got := Direction(Pos{}, Pos{Q: 1, R: 1}); got != N {
		t.Fatalf("Direction=%v want N", got)
	}
	if got := Direction(Pos{}, Pos{Q: 0, R: 5}); got != N {
		t.Fatalf("Direction=%v want N", got)
	}
}

func TestFacing_TurnsTo(t *testing.T) {
	cases := []struct {
		from, to  Facing
		n         int
		clockwise bool
	}{
		{N, N, 0, true},
		{N, NE, 1, true},
		{N, NW, 1, false},
		{N, SE, 2, true},
		{N, SW, 2, false},
		{N, S, 3, true},
		{SW, N, 2, true},
	}
	for _, c := range cases {
		n, cw := c.from.TurnsTo(c.to)
		if n != c.n || cw != c.clockwise {
			t.Fatalf("%v->%v: got (%d,%v) want (%d,%v)", c.from, c.to, n, cw, c.n, c.clockwise)
		}
	}
	if got := NW.Right(); got != N {
		t.Fatalf("NW.Right()=%v", got)
	}
	if got := N.Left(); got != NW {
		t.Fatalf("N.Left()=%v", got)
	}
}

func TestLine_Straight(t *testing.T) {
	line := Line(Pos{}, Pos{Q: 0, R: 4})
	if len(line) != 5 {
		t.Fatalf("len=%d want 5", len(line))
	}
	for i, h := range line {
		if h.Split {
			t.Fatalf("unexpected split at %d", i)
		}
		if h.Pos != (Pos{Q: 0, R: i}) {
			t.Fatalf("line[%d]=%v", i, h.Pos)
		}
	}
}

func TestLine_SplitCandidates(t *testing.T) {
	line := Line(Pos{}, Pos{Q: 1, R: 1})
	if len(line) != 3 {
		t.Fatalf("len=%d want 3", len(line))
	}
	mid := line[1]
	if !mid.Split {
		t.Fatalf("expected split midpoint, got %+v", mid)
	}
	if mid.Left != (Pos{Q: 0, R: 1}) || mid.Right != (Pos{Q: 1, R: 0}) {
		t.Fatalf("left=%v right=%v", mid.Left, mid.Right)
	}
	if line[2].Pos != (Pos{Q: 1, R: 1}) || line[2].Split {
		t.Fatalf("end=%+v", line[2])
	}

	// Travelling the other way swaps the sides.
	back := Line(Pos{Q: 1, R: 1}, Pos{})
	if back[1].Left != (Pos{Q: 1, R: 0}) || back[1].Right != (Pos{Q: 0, R: 1}) {
		t.Fatalf("reverse left=%v right=%v", back[1].Left, back[1].Right)
	}
}

func TestVectors_Normalize(t *testing.T) {
	var v Vectors
	v[N] = 3
	v[S] = 1
	v[SE] = 1
	got := v.Normalize()
	// N3 + S1 -> N2; N2 + SE1 -> N1 + NE1.
	want := Vectors{1, 1, 0, 0, 0, 0}
	if got != want {
		t.Fatalf("Normalize=%v want %v", got, want)
	}
	if got.Displacement() != v.Displacement() {
		t.Fatalf("displacement changed: %v vs %v", got.Displacement(), v.Displacement())
	}
	if got.Velocity() != 2 {
		t.Fatalf("Velocity=%d want 2", got.Velocity())
	}
}

func TestVectors_Thrust(t *testing.T) {
	var v Vectors
	v = v.Thrust(N, 2)
	v = v.Thrust(N, -1)
	if v != (Vectors{1, 0, 0, 0, 0, 0}) {
		t.Fatalf("v=%v", v)
	}
}

func TestParseFacing(t *testing.T) {
	for f := N; f <= NW; f++ {
		got, err := ParseFacing(f.String())
		if err != nil || got != f {
			t.Fatalf("ParseFacing(%s)=%v,%v", f, got, err)
		}
	}
	if f, err := ParseFacing(" se "); err != nil || f != SE {
		t.Fatalf("lower case: %v %v", f, err)
	}
	if _, err := ParseFacing("UP"); err == nil {
		t.Fatalf("expected error")
	}
}
