package tasks

import (
	"sync"

	"github.com/desertthunder/moodmix/internal/models"
)

// Merge returns the tracks of incoming whose ids are not in existing, in incoming order.
//
// Duplicates within incoming are collapsed as well, so the result can be appended to existing
// without breaking id uniqueness. Neither input is modified.
func Merge(existing, incoming []models.Track) []models.Track {
	seen := models.IDSet(existing)
	added := make([]models.Track, 0)
	for _, t := range incoming {
		if _, ok := seen[t.ID]; ok {
			continue
		}
		seen[t.ID] = struct{}{}
		added = append(added, t)
	}
	return added
}

// keyedMutex serializes work per key. Entries are dropped once no goroutine holds or waits on them.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

// Lock acquires the lock for key and returns its release func.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*keyedEntry)
	}
	e, ok := k.locks[key]
	if !ok {
		e = &keyedEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
