package memory

import (
	"hash/fnv"
	"sync"
	"time"

	"campus-chatbot-be/pkg/store"

	"github.com/patrickmn/go-cache"
)

const lockStripes = 32

// SessionRepository keeps conversation sessions in process memory.
// Expiry is driven by LastActivity, not by insertion time, so items are
// stored without a go-cache TTL and reaped by SweepExpired instead.
type SessionRepository struct {
	cache   *cache.Cache
	stripes [lockStripes]sync.Mutex
}

func NewSessionRepository() *SessionRepository {
	return &SessionRepository{
		cache: cache.New(cache.NoExpiration, 10*time.Minute),
	}
}

func (r *SessionRepository) stripe(sessionID string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(sessionID))
	return &r.stripes[h.Sum32()%lockStripes]
}

// WithLock serializes turn processing per session. Sessions sharing a
// stripe serialize against each other too, which is harmless.
func (r *SessionRepository) WithLock(sessionID string, fn func()) {
	mu := r.stripe(sessionID)
	mu.Lock()
	defer mu.Unlock()
	fn()
}

// GetOrCreate returns the session for the given id, creating a fresh one
// if none exists. The second return value reports whether it was created.
func (r *SessionRepository) GetOrCreate(sessionID string, now time.Time) (*store.Session, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*store.Session), false
	}
	s := store.NewSession(sessionID, now)
	r.cache.Set(sessionID, s, cache.NoExpiration)
	return s, true
}

func (r *SessionRepository) Get(sessionID string) (*store.Session, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*store.Session), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(sessionID string) bool {
	mu := r.stripe(sessionID)
	mu.Lock()
	defer mu.Unlock()

	_, found := r.cache.Get(sessionID)
	r.cache.Delete(sessionID)
	return found
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}

// List returns a point-in-time copy of every session. Each entry is
// snapshotted under its stripe so a concurrent turn never races the
// listing.
func (r *SessionRepository) List() []*store.Session {
	items := r.cache.Items()
	sessions := make([]*store.Session, 0, len(items))
	for id, item := range items {
		mu := r.stripe(id)
		mu.Lock()
		s := item.Object.(*store.Session)
		snapshot := *s
		snapshot.History = append([]store.ChatTurn(nil), s.History...)
		mu.Unlock()
		sessions = append(sessions, &snapshot)
	}
	return sessions
}

// SweepExpired removes every session whose LastActivity is older than
// ttl and returns the removed sessions so callers can emit expiry events.
// Each candidate is re-checked under its stripe, so an in-flight turn
// holding WithLock finishes before its session can be reaped.
func (r *SessionRepository) SweepExpired(now time.Time, ttl time.Duration) []*store.Session {
	var expired []*store.Session
	for id := range r.cache.Items() {
		mu := r.stripe(id)
		mu.Lock()
		if x, found := r.cache.Get(id); found {
			s := x.(*store.Session)
			if now.Sub(s.LastActivity) > ttl {
				r.cache.Delete(id)
				expired = append(expired, s)
			}
		}
		mu.Unlock()
	}
	return expired
}
