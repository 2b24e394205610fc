package confetti

// SetRotationWidth lets tests pin the tumbling width.
func (c *Confetti) SetRotationWidth(w float64) {
	c.rotationWidth = w
}
