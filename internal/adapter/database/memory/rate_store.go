package memory

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

type rateEntry struct {
	Count     int
	ResetTime time.Time
}

// RateStore keeps fixed window counters in process memory. It is enough for a
// single instance; use the redis store when several instances share limits.
type RateStore struct {
	cache *cache.Cache
	mutex sync.Mutex
	now   func() time.Time
}

func NewRateStore() *RateStore {
	return &RateStore{
		cache: cache.New(5*time.Minute, 10*time.Minute),
		now:   time.Now,
	}
}

func (s *RateStore) Increment(_ context.Context, key string, window time.Duration) (int, time.Time, error) {
	now := s.now()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if item, found := s.cache.Get(key); found {
		entry := item.(rateEntry)
		if now.Before(entry.ResetTime) {
			entry.Count++
			s.cache.Set(key, entry, entry.ResetTime.Sub(now))
			return entry.Count, entry.ResetTime, nil
		}
	}

	entry := rateEntry{Count: 1, ResetTime: now.Add(window)}
	s.cache.Set(key, entry, window)

	return entry.Count, entry.ResetTime, nil
}

// ItemCount reports how many keys currently hold a counter.
func (s *RateStore) ItemCount() int {
	return s.cache.ItemCount()
}
