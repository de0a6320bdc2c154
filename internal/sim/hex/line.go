package hex

// LineHex is one hex of a straight line. When the line runs exactly along the
// edge between two hexes, Split is set and Left/Right hold both candidates
// relative to the direction of travel; Pos defaults to Left.
type LineHex struct {
	Pos   Pos
	Split bool
	Left  Pos
	Right Pos
}

// Candidates returns the hexes the line may be considered to pass through.
func (h LineHex) Candidates() []Pos {
	if !h.Split {
		return []Pos{h.Pos}
	}
	return []Pos{h.Left, h.Right}
}

const (
	nudgeQ = 1e-6
	nudgeR = 2e-6
)

// Line interpolates the hexes from a to b inclusive, one per unit of distance.
func Line(a, b Pos) []LineHex {
	n := Distance(a, b)
	out := make([]LineHex, 0, n+1)
	out = append(out, LineHex{Pos: a})
	if n == 0 {
		return out
	}
	aq, ar := float64(a.Q), float64(a.R)
	bq, br := float64(b.Q), float64(b.R)
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		q := aq + (bq-aq)*t
		r := ar + (br-ar)*t
		p1 := roundAxial(q+nudgeQ, r+nudgeR)
		p2 := roundAxial(q-nudgeQ, r-nudgeR)
		if p1 == p2 {
			out = append(out, LineHex{Pos: p1})
			continue
		}
		left, right := orient(a, b, q, r, p1, p2)
		out = append(out, LineHex{Pos: left, Split: true, Left: left, Right: right})
	}
	return out
}

// orient sorts two split candidates into left/right of the travel direction.
func orient(a, b Pos, q, r float64, p1, p2 Pos) (left, right Pos) {
	ax, ay := a.Pixel()
	bx, by := b.Pixel()
	dx, dy := bx-ax, by-ay

	px := 1.5 * q
	py := 1.7320508075688772 * (r + q/2)
	cx, cy := p1.Pixel()
	if dx*(cy-py)-dy*(cx-px) > 0 {
		return p1, p2
	}
	return p2, p1
}
