package linkbin

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// TakenFilter tracks codes known to be allocated so the generate-check loop
// can skip the registry EXISTS query for codes that are definitely free.
// It is an optimization only: a miss here still ends at the registry's
// unique constraint, which is the authoritative signal.
type TakenFilter struct {
	filter *bloom.BloomFilter
	mu     sync.RWMutex
}

// NewTakenFilter sizes the filter for expectedItems at the given false
// positive rate (0.01 is fine; a false positive only costs one EXISTS query).
func NewTakenFilter(expectedItems uint, falsePositiveRate float64) *TakenFilter {
	return &TakenFilter{
		filter: bloom.NewWithEstimates(expectedItems, falsePositiveRate),
	}
}

func (f *TakenFilter) Add(code string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.filter.AddString(code)
}

// MightExist returns false only when the code was never added.
func (f *TakenFilter) MightExist(code string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.filter.TestString(code)
}
