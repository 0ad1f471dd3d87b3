package director

import "math"

// Curve maps elapsed play time to a difficulty multiplier. The
// response is exponential saturation: fast early growth that
// asymptotically approaches (and never exceeds) the ceiling.
type Curve struct {
	// Ceiling is the hard upper bound on the multiplier. Values at or
	// below 1 disable scaling.
	Ceiling float64
	// TimeConstant is the saturation time in seconds: at one time
	// constant the multiplier covers ~63% of the distance to the
	// ceiling.
	TimeConstant float64
}

// MultiplierAt returns the multiplier for the given elapsed seconds.
func (c Curve) MultiplierAt(elapsed float64) float64 {
	if elapsed < 0 {
		elapsed = 0
	}
	if c.Ceiling <= 1 {
		return 1
	}
	if c.TimeConstant <= 0 {
		return c.Ceiling
	}

	m := 1 + (c.Ceiling-1)*(1-math.Exp(-elapsed/c.TimeConstant))
	if m > c.Ceiling {
		m = c.Ceiling
	}
	return m
}

// Difficulty tracks elapsed play time and the current multiplier.
// The multiplier is monotonic non-decreasing: a re-derived value lower
// than the current one (which cannot happen with a saturating curve,
// but guards against curve swaps) is ignored.
type Difficulty struct {
	curve   Curve
	elapsed float64
	current float64
}

// NewDifficulty creates a difficulty tracker at multiplier 1.
func NewDifficulty(curve Curve) *Difficulty {
	return &Difficulty{curve: curve, current: 1}
}

// Advance accumulates dt simulated seconds and refreshes the
// multiplier.
func (d *Difficulty) Advance(dt float64) {
	if dt < 0 {
		return
	}
	d.elapsed += dt

	if m := d.curve.MultiplierAt(d.elapsed); m > d.current {
		d.current = m
	}
}

// Multiplier returns the current difficulty multiplier. Applied to
// newly spawned enemies only; already-active enemies keep the scaling
// they spawned with.
func (d *Difficulty) Multiplier() float64 {
	return d.current
}

// Elapsed returns accumulated play time in seconds.
func (d *Difficulty) Elapsed() float64 {
	return d.elapsed
}
