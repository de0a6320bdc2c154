package hex

// Vectors holds per-direction velocity components, indexed by Facing.
type Vectors [6]int

// Normalize cancels opposing components and folds components 120 degrees
// apart into the direction between them, leaving at most two adjacent
// non-zero entries. The composed displacement is unchanged.
func (v Vectors) Normalize() Vectors {
	for changed := true; changed; {
		changed = false
		for d := 0; d < 3; d++ {
			o := d + 3
			if v[d] > 0 && v[o] > 0 {
				m := min(v[d], v[o])
				v[d] -= m
				v[o] -= m
				changed = true
			}
		}
		for d := 0; d < 6; d++ {
			e := (d + 2) % 6
			if v[d] > 0 && v[e] > 0 {
				m := min(v[d], v[e])
				v[d] -= m
				v[e] -= m
				v[(d+1)%6] += m
				changed = true
			}
		}
	}
	return v
}

// Displacement is the axial offset the components compose to.
func (v Vectors) Displacement() Pos {
	var p Pos
	for d, m := range v {
		p = p.Add(offsets[d].Scale(m))
	}
	return p
}

// Velocity is the hex length of the composed displacement.
func (v Vectors) Velocity() int { return Distance(Pos{}, v.Displacement()) }

// Thrust adds n points of thrust along f (negative n thrusts against f).
func (v Vectors) Thrust(f Facing, n int) Vectors {
	if n < 0 {
		f, n = f.Opposite(), -n
	}
	v[f.Norm()] += n
	return v.Normalize()
}
