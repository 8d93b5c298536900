package nlp

// VariableBounds constrains individual variables from one side.
// Rows are lower bounds (lo - x_i <= 0) or upper bounds (x_i - hi <= 0).
type VariableBounds struct {
	index []int
	value []float64
	sign  []float64 // +1 upper, -1 lower
}

// AddLower appends x[i] >= v.
func (b *VariableBounds) AddLower(i int, v float64) {
	b.index = append(b.index, i)
	b.value = append(b.value, v)
	b.sign = append(b.sign, -1)
}

// AddUpper appends x[i] <= v.
func (b *VariableBounds) AddUpper(i int, v float64) {
	b.index = append(b.index, i)
	b.value = append(b.value, v)
	b.sign = append(b.sign, 1)
}

// AddRange appends lo <= x[i] <= hi.
func (b *VariableBounds) AddRange(i int, lo, hi float64) {
	b.AddLower(i, lo)
	b.AddUpper(i, hi)
}

func (b *VariableBounds) Len() int { return len(b.index) }

func (b *VariableBounds) Eval(dst, x []float64) {
	for r, i := range b.index {
		dst[r] = b.sign[r] * (x[i] - b.value[r])
	}
}

func (b *VariableBounds) AddJacobianTransposeProduct(dst, _, v []float64) {
	for r, i := range b.index {
		dst[i] += b.sign[r] * v[r]
	}
}

// FixedVariables pins individual variables: x[i] - v = 0.
type FixedVariables struct {
	index []int
	value []float64
}

// Fix appends x[i] == v.
func (f *FixedVariables) Fix(i int, v float64) {
	f.index = append(f.index, i)
	f.value = append(f.value, v)
}

func (f *FixedVariables) Len() int { return len(f.index) }

func (f *FixedVariables) Eval(dst, x []float64) {
	for r, i := range f.index {
		dst[r] = x[i] - f.value[r]
	}
}

func (f *FixedVariables) AddJacobianTransposeProduct(dst, _, v []float64) {
	for r, i := range f.index {
		dst[i] += v[r]
	}
}

// LinearInequality is the single row a·x - b <= 0.
type LinearInequality struct {
	Coeffs []float64
	Bound  float64
}

func (l *LinearInequality) Len() int { return 1 }

func (l *LinearInequality) Eval(dst, x []float64) {
	var s float64
	for i, a := range l.Coeffs {
		s += a * x[i]
	}
	dst[0] = s - l.Bound
}

func (l *LinearInequality) AddJacobianTransposeProduct(dst, _, v []float64) {
	for i, a := range l.Coeffs {
		dst[i] += a * v[0]
	}
}

// Stack concatenates constraint sets row-wise. Nil and empty sets are skipped.
func Stack(sets ...Constraints) Constraints {
	s := &stacked{}
	for _, c := range sets {
		if c == nil || c.Len() == 0 {
			continue
		}
		s.sets = append(s.sets, c)
		s.rows += c.Len()
	}
	return s
}

type stacked struct {
	sets []Constraints
	rows int
}

func (s *stacked) Len() int { return s.rows }

func (s *stacked) Eval(dst, x []float64) {
	off := 0
	for _, c := range s.sets {
		n := c.Len()
		c.Eval(dst[off:off+n], x)
		off += n
	}
}

func (s *stacked) AddJacobianTransposeProduct(dst, x, v []float64) {
	off := 0
	for _, c := range s.sets {
		n := c.Len()
		c.AddJacobianTransposeProduct(dst, x, v[off:off+n])
		off += n
	}
}
