package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	HTTPRequests      uint64
	Logins            map[string]uint64
	Registrations     map[string]uint64
	TokenValidations  map[string]uint64
	OwnershipDenied   map[string]uint64
	BooksCreated      uint64
	BooksUpdated      uint64
	BooksDeleted      uint64
	BookListCacheHits uint64
	BookListCacheMiss uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	httpRequests      uint64
	booksCreated      uint64
	booksUpdated      uint64
	booksDeleted      uint64
	bookListCacheHits uint64
	bookListCacheMiss uint64

	mu       sync.Mutex
	labelled map[string]map[string]uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{labelled: make(map[string]map[string]uint64)}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		HTTPRequests:      atomic.LoadUint64(&m.httpRequests),
		Logins:            m.copyLabelled("login"),
		Registrations:     m.copyLabelled("registration"),
		TokenValidations:  m.copyLabelled("token"),
		OwnershipDenied:   m.copyLabelled("denied"),
		BooksCreated:      atomic.LoadUint64(&m.booksCreated),
		BooksUpdated:      atomic.LoadUint64(&m.booksUpdated),
		BooksDeleted:      atomic.LoadUint64(&m.booksDeleted),
		BookListCacheHits: atomic.LoadUint64(&m.bookListCacheHits),
		BookListCacheMiss: atomic.LoadUint64(&m.bookListCacheMiss),
	}
}

// ObserveHTTPRequest counts the request.
func (m *InMemoryRecorder) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	atomic.AddUint64(&m.httpRequests, 1)
}

// IncLogin counts a login attempt by outcome.
func (m *InMemoryRecorder) IncLogin(outcome string) {
	m.incLabelled("login", outcome)
}

// IncRegistration counts a registration attempt by outcome.
func (m *InMemoryRecorder) IncRegistration(outcome string) {
	m.incLabelled("registration", outcome)
}

// IncTokenValidation counts a bearer token check by outcome.
func (m *InMemoryRecorder) IncTokenValidation(outcome string) {
	m.incLabelled("token", outcome)
}

// IncOwnershipDenied counts a rejected cross-account access.
func (m *InMemoryRecorder) IncOwnershipDenied(resource string) {
	m.incLabelled("denied", resource)
}

// IncBookCreated increments book created counter.
func (m *InMemoryRecorder) IncBookCreated() {
	atomic.AddUint64(&m.booksCreated, 1)
}

// IncBookUpdated increments book updated counter.
func (m *InMemoryRecorder) IncBookUpdated() {
	atomic.AddUint64(&m.booksUpdated, 1)
}

// IncBookDeleted increments book deleted counter.
func (m *InMemoryRecorder) IncBookDeleted() {
	atomic.AddUint64(&m.booksDeleted, 1)
}

// IncBookListCacheHit increments cache hit counter.
func (m *InMemoryRecorder) IncBookListCacheHit() {
	atomic.AddUint64(&m.bookListCacheHits, 1)
}

// IncBookListCacheMiss increments cache miss counter.
func (m *InMemoryRecorder) IncBookListCacheMiss() {
	atomic.AddUint64(&m.bookListCacheMiss, 1)
}

func (m *InMemoryRecorder) incLabelled(name, label string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts, ok := m.labelled[name]
	if !ok {
		counts = make(map[string]uint64)
		m.labelled[name] = counts
	}
	counts[label]++
}

func (m *InMemoryRecorder) copyLabelled(name string) map[string]uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]uint64, len(m.labelled[name]))
	for k, v := range m.labelled[name] {
		out[k] = v
	}
	return out
}
