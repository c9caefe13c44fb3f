package monitor

import (
	"sync"

	"github.com/cespare/xxhash/v2"
)

const lockStripes = 64

// keyLock serialises work per url using a fixed set of striped mutexes.
// Two urls may share a stripe; that only costs concurrency, never
// correctness.
type keyLock struct {
	stripes [lockStripes]sync.Mutex
}

func (k *keyLock) Lock(key string) (unlock func()) {
	mu := &k.stripes[xxhash.Sum64String(key)%lockStripes]
	mu.Lock()
	return mu.Unlock
}
