// Package process drives sample-accurate block processing: the scheduler
// that splits blocks at event offsets, the resolved parameter view handed to
// DSP code, and the per-range processing context.
package process

// Context is the DSP view of one sub-range of a block. Output slices are
// re-pointed for every range; nothing here allocates after NewContext.
type Context struct {
	Output     [][]float32
	SampleRate float64
	Start      int
	Values     *Values

	block      [][]float32
	mono       []float32
	workBuffer []float32
}

// NewContext creates a context for up to maxBlockSize samples on channels
// output channels.
func NewContext(maxBlockSize, channels int, sampleRate float64, values *Values) *Context {
	return &Context{
		Output:     make([][]float32, channels),
		SampleRate: sampleRate,
		Values:     values,
		mono:       make([]float32, maxBlockSize),
		workBuffer: make([]float32, maxBlockSize),
	}
}

// Bind attaches the host's output buffers for the next block.
func (c *Context) Bind(block [][]float32) {
	c.block = block
}

// Block returns the bound host buffers.
func (c *Context) Block() [][]float32 {
	return c.block
}

// SetRange points Output at [start, start+length) of the bound block.
func (c *Context) SetRange(start, length int) {
	c.Start = start
	n := len(c.block)
	if n > len(c.Output) {
		n = len(c.Output)
	}
	c.Output = c.Output[:n]
	for ch := 0; ch < n; ch++ {
		c.Output[ch] = c.block[ch][start : start+length]
	}
}

// NumSamples returns the number of samples in the current range
func (c *Context) NumSamples() int {
	if len(c.Output) > 0 {
		return len(c.Output[0])
	}
	return 0
}

// NumOutputChannels returns the number of output channels
func (c *Context) NumOutputChannels() int {
	return len(c.Output)
}

// Mono returns the pre-allocated voice mix buffer sized to the range.
func (c *Context) Mono() []float32 {
	return c.mono[:c.NumSamples()]
}

// WorkBuffer returns a pre-allocated scratch buffer sized to the range.
func (c *Context) WorkBuffer() []float32 {
	return c.workBuffer[:c.NumSamples()]
}

// Clear zeros the current range
func (c *Context) Clear() {
	for ch := range c.Output {
		clear(c.Output[ch])
	}
}

// ClearFrom zeros every bound channel from start to the end of the block.
func (c *Context) ClearFrom(start int) {
	for ch := range c.block {
		if start < len(c.block[ch]) {
			clear(c.block[ch][start:])
		}
	}
}
