package process

// ProcessChannels runs fn on every output channel of the current range
func (c *Context) ProcessChannels(fn func(ch int, output []float32)) {
	for ch := range c.Output {
		fn(ch, c.Output[ch])
	}
}

// SpreadMono adds the mono buffer into every output channel with gain.
func (c *Context) SpreadMono(gain float32) {
	mono := c.Mono()
	for ch := range c.Output {
		out := c.Output[ch]
		for i, s := range mono {
			out[i] += s * gain
		}
	}
}

// Peak returns the largest absolute sample across the current range.
func (c *Context) Peak() float32 {
	var peak float32
	for ch := range c.Output {
		for _, s := range c.Output[ch] {
			if s < 0 {
				s = -s
			}
			if s > peak {
				peak = s
			}
		}
	}
	return peak
}
