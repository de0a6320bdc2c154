// Package hex implements the axial hex grid used by the movement rules.
//
// Hexes are flat-topped. R grows toward the north so that moving straight
// ahead while facing north increases R by one per hex.
package hex

import (
	"fmt"
	"math"
	"strings"
)

type Pos struct {
	Q int `json:"q" yaml:"q"`
	R int `json:"r" yaml:"r"`
}

func (p Pos) S() int { return -p.Q - p.R }

func (p Pos) Add(o Pos) Pos { return Pos{Q: p.Q + o.Q, R: p.R + o.R} }

func (p Pos) Sub(o Pos) Pos { return Pos{Q: p.Q - o.Q, R: p.R - o.R} }

func (p Pos) Scale(k int) Pos { return Pos{Q: p.Q * k, R: p.R * k} }

// Neighbor returns the adjacent hex in direction f.
func (p Pos) Neighbor(f Facing) Pos { return p.Add(offsets[f.Norm()]) }

// Translated moves n hexes in direction f.
func (p Pos) Translated(f Facing, n int) Pos { return p.Add(offsets[f.Norm()].Scale(n)) }

func (p Pos) String() string { return fmt.Sprintf("(%d,%d)", p.Q, p.R) }

// Pixel returns the hex center in a unit-size flat-top layout, y pointing north.
func (p Pos) Pixel() (x, y float64) {
	x = 1.5 * float64(p.Q)
	y = math.Sqrt(3) * (float64(p.R) + float64(p.Q)/2)
	return x, y
}

// Facing is one of the six hex directions, clockwise from north.
type Facing int

const (
	N Facing = iota
	NE
	SE
	S
	SW
	NW
)

// Fixed offset table, indexed by Facing. Order matters for Direction and Vectors.
var offsets = [6]Pos{
	{Q: 0, R: 1},
	{Q: 1, R: 0},
	{Q: 1, R: -1},
	{Q: 0, R: -1},
	{Q: -1, R: 0},
	{Q: -1, R: 1},
}

// Offset returns the unit axial step for f.
func Offset(f Facing) Pos { return offsets[f.Norm()] }

func (f Facing) Norm() Facing {
	v := int(f) % 6
	if v < 0 {
		v += 6
	}
	return Facing(v)
}

func (f Facing) Valid() bool { return f >= 0 && f < 6 }

func (f Facing) Turn(d int) Facing { return Facing(int(f) + d).Norm() }
func (f Facing) Right() Facing     { return f.Turn(1) }
func (f Facing) Left() Facing      { return f.Turn(-1) }
func (f Facing) Opposite() Facing  { return f.Turn(3) }

// Rel returns the clockwise distance from f to g in [0,5].
func (f Facing) Rel(g Facing) int { return int(g.Norm()-f.Norm()+6) % 6 }

// TurnsTo returns the fewest single-facing turns from f to g and whether they
// run clockwise. A half turn (3 steps either way) is resolved clockwise.
func (f Facing) TurnsTo(g Facing) (n int, clockwise bool) {
	d := f.Rel(g)
	if d <= 3 {
		return d, true
	}
	return 6 - d, false
}

var facingNames = [6]string{"N", "NE", "SE", "S", "SW", "NW"}

func ParseFacing(s string) (Facing, error) {
	for i, n := range facingNames {
		if strings.EqualFold(n, strings.TrimSpace(s)) {
			return Facing(i), nil
		}
	}
	return 0, fmt.Errorf("unknown facing %q", s)
}

func (f Facing) MarshalText() ([]byte, error) { return []byte(f.String()), nil }

func (f *Facing) UnmarshalText(b []byte) error {
	v, err := ParseFacing(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

func (f Facing) String() string {
	if !f.Valid() {
		return fmt.Sprintf("Facing(%d)", int(f))
	}
	return facingNames[f]
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

// Distance returns the hex distance between a and b.
func Distance(a, b Pos) int {
	d := a.Sub(b)
	m := abs(d.Q)
	if v := abs(d.R); v > m {
		m = v
	}
	if v := abs(d.S()); v > m {
		m = v
	}
	return m
}

// Direction returns the facing from a toward b: the nearest 60 degree sector
// by center-to-center angle. An exact 30 degree tie resolves counter-clockwise.
// Direction(a, a) is N.
func Direction(a, b Pos) Facing {
	if a == b {
		return N
	}
	ax, ay := a.Pixel()
	bx, by := b.Pixel()
	deg := math.Atan2(bx-ax, by-ay) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	k := int(math.Floor(deg/60 + 0.5 - 1e-9))
	return Facing(k).Norm()
}

func roundAxial(q, r float64) Pos {
	s := -q - r
	rq, rr, rs := math.Round(q), math.Round(r), math.Round(s)
	dq, dr, ds := math.Abs(rq-q), math.Abs(rr-r), math.Abs(rs-s)
	switch {
	case dq > dr && dq > ds:
		rq = -rr - rs
	case dr > ds:
		rr = -rq - rs
	}
	return Pos{Q: int(rq), R: int(rr)}
}
