package ntbea

import (
	"fmt"
	"math"
	"strings"
)

//////
// Const, vars, types.
//////

// StatSummary is an online accumulator of count, mean, standard deviation,
// minimum and maximum. It keeps running totals (count, sum, sum of squares)
// instead of the raw samples, so memory use is constant.
//
// Fields:
// - Name: Optional label used by String
//
// Important notes:
// - Mean and SD are computed lazily and cached until the next Add or Merge
// - Mean is NaN when no sample has been added; that is the "no data" value
// - SD is 0 when fewer than two samples have been added
// - The zero value is an empty, usable accumulator
// - Not safe for concurrent mutation; callers serialise access.
type StatSummary struct {
	Name string

	n         int
	sum       float64
	sumsq     float64
	min       float64
	max       float64
	lastAdded float64

	valid bool
	mean  float64
	sd    float64

	keep     bool
	elements []float64
}

//////
// Factory.
//////

// NewStatSummary returns an empty accumulator with the given name.
func NewStatSummary(name string) *StatSummary {
	ss := &StatSummary{Name: name}
	ss.Reset()

	return ss
}

//////
// Methods.
//////

// Reset discards every sample. Min and max are set so that the first added
// value becomes both.
func (ss *StatSummary) Reset() {
	ss.n = 0
	ss.sum = 0
	ss.sumsq = 0
	ss.min = math.Inf(1)
	ss.max = math.Inf(-1)
	ss.lastAdded = 0
	ss.valid = false
	ss.elements = nil
}

// KeepElements makes the accumulator retain raw samples for diagnostics.
// Samples added before the call are not recovered. Merging an accumulator
// that did not retain every one of its samples turns retention off and
// drops the retained samples, so Elements never silently misses merged data.
func (ss *StatSummary) KeepElements() *StatSummary {
	ss.keep = true

	return ss
}

// Add records one sample.
func (ss *StatSummary) Add(v float64) {
	if ss.n == 0 {
		ss.min, ss.max = v, v
	}

	ss.n++
	ss.sum += v
	ss.sumsq += v * v
	ss.min = math.Min(ss.min, v)
	ss.max = math.Max(ss.max, v)
	ss.lastAdded = v
	ss.valid = false

	if ss.keep {
		ss.elements = append(ss.elements, v)
	}
}

// AddAll records every value in vs.
func (ss *StatSummary) AddAll(vs ...float64) {
	for _, v := range vs {
		ss.Add(v)
	}
}

// Merge folds other into ss. The result is the same as if every sample of
// other had been added to ss. Raw samples are carried over only when other
// retained all of them; see KeepElements. Merge is commutative and associative with
// respect to N, Mean, SD, Min and Max.
func (ss *StatSummary) Merge(other *StatSummary) {
	if other == nil || other.n == 0 {
		return
	}

	if ss.n == 0 {
		ss.min, ss.max = other.min, other.max
	}

	ss.n += other.n
	ss.sum += other.sum
	ss.sumsq += other.sumsq
	ss.min = math.Min(ss.min, other.min)
	ss.max = math.Max(ss.max, other.max)
	ss.lastAdded = other.lastAdded
	ss.valid = false

	switch {
	case !ss.keep:
	case len(other.elements) == other.n:
		ss.elements = append(ss.elements, other.elements...)
	default:
		// other did not retain all its samples.
		ss.keep = false
		ss.elements = nil
	}
}

func (ss *StatSummary) computeStats() {
	if ss.valid {
		return
	}

	if ss.n == 0 {
		ss.mean = math.NaN()
		ss.sd = 0
		ss.valid = true

		return
	}

	n := float64(ss.n)
	ss.mean = ss.sum / n

	if ss.n < 2 {
		ss.sd = 0
	} else {
		// Cancellation can leave a tiny negative number here.
		num := math.Max(0, ss.sumsq-n*ss.mean*ss.mean)
		ss.sd = math.Sqrt(num / (n - 1))
	}

	ss.valid = true
}

// Mean returns the sample mean, or NaN when N is 0.
func (ss *StatSummary) Mean() float64 {
	ss.computeStats()

	return ss.mean
}

// SD returns the sample standard deviation. It is 0 when N < 2 and is never
// negative or NaN for finite samples.
func (ss *StatSummary) SD() float64 {
	ss.computeStats()

	return ss.sd
}

// StdErr returns SD()/sqrt(N), or 0 when N is 0.
func (ss *StatSummary) StdErr() float64 {
	if ss.n == 0 {
		return 0
	}

	return ss.SD() / math.Sqrt(float64(ss.n))
}

// SumSquareDiff returns the sum of squared differences from the mean.
func (ss *StatSummary) SumSquareDiff() float64 {
	if ss.n == 0 {
		return 0
	}

	m := ss.Mean()

	return math.Max(0, ss.sumsq-float64(ss.n)*m*m)
}

// N returns the number of samples.
func (ss *StatSummary) N() int { return ss.n }

// Sum returns the running total.
func (ss *StatSummary) Sum() float64 { return ss.sum }

// Min returns the smallest sample, +Inf when empty.
func (ss *StatSummary) Min() float64 {
	if ss.n == 0 {
		return math.Inf(1)
	}

	return ss.min
}

// Max returns the largest sample, -Inf when empty.
func (ss *StatSummary) Max() float64 {
	if ss.n == 0 {
		return math.Inf(-1)
	}

	return ss.max
}

// LastAdded returns the most recent sample.
func (ss *StatSummary) LastAdded() float64 { return ss.lastAdded }

// Elements returns a copy of the retained raw samples. It is empty unless
// KeepElements was called.
func (ss *StatSummary) Elements() []float64 {
	return append([]float64(nil), ss.elements...)
}

// Copy returns an independent accumulator with the same totals.
func (ss *StatSummary) Copy() *StatSummary {
	c := *ss
	c.elements = append([]float64(nil), ss.elements...)

	return &c
}

// String returns a multi-line summary.
func (ss *StatSummary) String() string {
	var b strings.Builder

	if ss.Name != "" {
		b.WriteString(ss.Name)
		b.WriteByte('\n')
	}

	fmt.Fprintf(&b, " min   = %v\n", ss.Min())
	fmt.Fprintf(&b, " max   = %v\n", ss.Max())
	fmt.Fprintf(&b, " ave   = %v\n", ss.Mean())
	fmt.Fprintf(&b, " sd    = %v\n", ss.SD())
	fmt.Fprintf(&b, " se    = %v\n", ss.StdErr())
	fmt.Fprintf(&b, " sum   = %v\n", ss.sum)
	fmt.Fprintf(&b, " sumsq = %v\n", ss.sumsq)
	fmt.Fprintf(&b, " n     = %d\n", ss.n)

	return b.String()
}

// ShortString returns a one-line summary.
func (ss *StatSummary) ShortString() string {
	return fmt.Sprintf("%s: [%g, %g] avg=%.2f; sd=%.2f; se=%.2f",
		ss.Name, ss.Min(), ss.Max(), ss.Mean(), ss.SD(), ss.StdErr())
}
