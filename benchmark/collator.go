package benchmark

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/thalesfsp/ntbea"
)

// StatsCollator keeps running statistics per key. Keys added with AddDetailed
// also keep their raw values for percentiles. Safe for concurrent use.
type StatsCollator struct {
	mu    sync.Mutex
	stats map[string]*ntbea.StatSummary
}

// NewStatsCollator returns an empty collator.
func NewStatsCollator() *StatsCollator {
	return &StatsCollator{stats: make(map[string]*ntbea.StatSummary)}
}

// Clear removes every key.
func (c *StatsCollator) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats = make(map[string]*ntbea.StatSummary)
}

// Add records v under key.
func (c *StatsCollator) Add(key string, v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.summary(key, false).Add(v)
}

// AddDetailed records v under key and keeps it for percentiles.
func (c *StatsCollator) AddDetailed(key string, v float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.summary(key, true).Add(v)
}

// AddAll records every entry of values.
func (c *StatsCollator) AddAll(values map[string]float64) {
	for k, v := range values {
		c.Add(k, v)
	}
}

func (c *StatsCollator) summary(key string, detailed bool) *ntbea.StatSummary {
	ss, ok := c.stats[key]
	if !ok {
		ss = ntbea.NewStatSummary(key)
		c.stats[key] = ss
	}

	if detailed {
		ss.KeepElements()
	}

	return ss
}

// Keys returns the recorded keys in order.
func (c *StatsCollator) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.stats))
	for k := range c.stats {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}

// Get returns a copy of the statistics of key.
func (c *StatsCollator) Get(key string) (*ntbea.StatSummary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ss, ok := c.stats[key]
	if !ok {
		return nil, false
	}

	return ss.Copy(), true
}

// Mean returns the mean of key, or -1 when the key is unknown.
func (c *StatsCollator) Mean(key string) float64 {
	ss, ok := c.Get(key)
	if !ok {
		return -1
	}

	return ss.Mean()
}

// Percentile returns the q-th percentile, q in [0, 1], of the detailed
// values of key. The value at index floor(n*q) of the sorted values is used.
func (c *StatsCollator) Percentile(key string, q float64) (float64, error) {
	if q < 0 || q > 1 || math.IsNaN(q) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidPercentile, q)
	}

	ss, ok := c.Get(key)
	if !ok || len(ss.Elements()) == 0 {
		return 0, fmt.Errorf("%w: %q", ErrNoDetail, key)
	}

	values := ss.Elements()
	slices.Sort(values)

	return values[min(int(float64(len(values))*q), len(values)-1)], nil
}

// Summary returns one line per key, sorted: mean and standard error, plus
// median, inter-quartile and 95% ranges for detailed keys.
func (c *StatsCollator) Summary() string {
	var sb strings.Builder

	for _, key := range c.Keys() {
		ss, _ := c.Get(key)

		fmt.Fprintf(&sb, "%-20s = %.4g, SE = %.2g", key, ss.Mean(), ss.StdErr())

		if len(ss.Elements()) > 0 {
			p := func(q float64) float64 {
				v, _ := c.Percentile(key, q)

				return v
			}

			fmt.Fprintf(&sb, ", Median = %.4g, IQR = %.4g to %.4g, 95%% Range = %.4g to %.4g",
				p(0.5), p(0.25), p(0.75), p(0.025), p(0.975))
		}

		sb.WriteByte('\n')
	}

	return sb.String()
}
