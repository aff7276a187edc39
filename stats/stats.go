package stats

import (
	"sync"

	"github.com/montanaflynn/stats"
)

// DefaultWindowCapacity is the number of samples kept by a RateEstimator.
const DefaultWindowCapacity = 10

// RateEstimator keeps a rolling window of per-tick click deltas and derives
// a click rate from it.
type RateEstimator struct {
	mutex           sync.RWMutex
	window          []int64
	head            int
	size            int
	intervalSeconds float64
	lastTotal       int64
	rate            float64
}

// NewRateEstimator creates a RateEstimator holding up to capacity samples.
// Non-positive capacities fall back to DefaultWindowCapacity.
func NewRateEstimator(capacity int, intervalSeconds float64) *RateEstimator {
	if capacity <= 0 {
		capacity = DefaultWindowCapacity
	}
	return &RateEstimator{
		window:          make([]int64, capacity),
		intervalSeconds: intervalSeconds,
	}
}

// Reset primes the last observed total without recording a sample.
func (r *RateEstimator) Reset(currentTotal int64) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.lastTotal = currentTotal
}

// Tick records the delta since the previous tick and recomputes the rate.
func (r *RateEstimator) Tick(currentTotal int64) float64 {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	delta := currentTotal - r.lastTotal
	r.lastTotal = currentTotal

	capacity := len(r.window)
	r.window[(r.head+r.size)%capacity] = delta
	if r.size < capacity {
		r.size++
	} else {
		r.head = (r.head + 1) % capacity
	}

	r.rate = r.intervalSeconds * r.mean()
	return r.rate
}

// Rate returns the most recently computed rate.
func (r *RateEstimator) Rate() float64 {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.rate
}

// Window returns the buffered samples, oldest first.
func (r *RateEstimator) Window() []int64 {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	out := make([]int64, r.size)
	for i := range out {
		out[i] = r.window[(r.head+i)%len(r.window)]
	}
	return out
}

// Len returns the number of buffered samples.
func (r *RateEstimator) Len() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return r.size
}

// mean averages the buffered samples; callers hold the lock.
func (r *RateEstimator) mean() float64 {
	if r.size == 0 {
		return 0
	}
	data := make(stats.Float64Data, r.size)
	for i := range data {
		data[i] = float64(r.window[(r.head+i)%len(r.window)])
	}
	m, err := stats.Mean(data)
	if err != nil {
		return 0
	}
	return m
}
