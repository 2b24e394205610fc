package confetti

// Vector is a mutable 2D value used for location, velocity, acceleration and forces.
type Vector struct {
	X float64
	Y float64
}

// Add adds other to v in place.
func (v *Vector) Add(other Vector) {
	v.X += other.X
	v.Y += other.Y
}

// Mult scales v in place.
func (v *Vector) Mult(s float64) {
	v.X *= s
	v.Y *= s
}

// Div divides v in place. Dividing by zero is a programmer error and panics.
func (v *Vector) Div(s float64) {
	if s == 0 {
		panic("confetti: vector divided by zero")
	}
	v.X /= s
	v.Y /= s
}

// Copy returns an independent vector with the same components.
func (v Vector) Copy() Vector {
	return Vector{X: v.X, Y: v.Y}
}
