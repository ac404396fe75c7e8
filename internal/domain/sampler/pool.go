package sampler

// Pool is a pre-sampled sequence consumed front to back, one value per call.
type Pool struct {
	values []float64
	next   int
}

// NewPool wraps values as a pool.
func NewPool(values []float64) *Pool {
	return &Pool{values: values}
}

// Next returns the next unconsumed value. It panics when the pool is
// exhausted, which only happens if the pool was sized wrong.
func (p *Pool) Next() float64 {
	if p.next >= len(p.values) {
		panic(ErrPoolExhausted)
	}
	v := p.values[p.next]
	p.next++
	return v
}

// Len is the total pool size.
func (p *Pool) Len() int { return len(p.values) }

// Consumed is the number of values handed out so far.
func (p *Pool) Consumed() int { return p.next }

// Remaining is the number of values still available.
func (p *Pool) Remaining() int { return len(p.values) - p.next }

// Values returns the pool contents.
func (p *Pool) Values() []float64 { return p.values }
