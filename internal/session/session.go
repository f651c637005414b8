// Package session implements the mediation layer between a
// presentation boundary (interactive shell or HTTP endpoints) and the
// indexed store (§4.7): a mutex-guarded map of opaque session ids to
// (Query, Iterator, cursor, total).
package session

import (
	"errors"
	"strconv"
	"sync"
	"time"
	"unsafe"

	"github.com/cespare/xxhash/v2"
	"github.com/dgraph-io/ristretto/v2"

	"github.com/lluisalemanypuig/chesspebase/internal/classtree"
	"github.com/lluisalemanypuig/chesspebase/internal/position"
	"github.com/lluisalemanypuig/chesspebase/internal/query"
)

// ErrSessionNotFound is returned when a session id is unknown. The
// HTTP boundary maps it to a client-error status and mutates no
// server state (§7).
var ErrSessionNotFound = errors.New("session: not found")

// Session is one entry of the session map: a query, the live pruning
// iterator bound to it, and the 1-based cursor over its results.
type Session struct {
	Query  *query.Query
	Iter   *classtree.Iterator
	Cursor int // 1-based index of the current result; 0 means before-begin
	Total  uint64
}

// Manager owns the store and the live session map.
type Manager struct {
	store *classtree.Tree

	mu       sync.Mutex
	sessions map[string]*Session

	fenCache *ristretto.Cache[uintptr, string]
}

// New builds a Manager bound to store. store is read-only from this
// point on and shared across sessions; iterators hold their own
// cursors and predicate closures, so sessions never alias each other.
func New(store *classtree.Tree) (*Manager, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[uintptr, string]{
		NumCounters: 1e4,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Manager{
		store:    store,
		sessions: make(map[string]*Session),
		fenCache: cache,
	}, nil
}

// newSessionID mints an opaque, process-local identifier. Nanosecond
// timestamps are sufficient here; uniqueness and unguessability are
// nonessential requirements for this system (§3.4).
func newSessionID() string {
	return strconv.FormatInt(time.Now().UnixNano(), 36)
}

// fingerprint hashes a Query's compiled shape for logging/metrics
// correlation (not used for lookup — two equal Querys still get
// distinct sessions if the caller asked for distinct ones).
func fingerprint(q *query.Query) uint64 {
	var buf []byte
	write := func(r *query.Range) {
		if r == nil {
			buf = append(buf, 0)
			return
		}
		buf = append(buf, 1, byte(r.Lo), byte(r.Lo>>8), byte(r.Hi), byte(r.Hi>>8))
	}
	for _, pr := range [5]query.PieceRanges{q.Pawn, q.Rook, q.Knight, q.Bishop, q.Queen} {
		write(pr.White)
		write(pr.Black)
		write(pr.Combined)
	}
	write(q.Total)
	if q.Side != nil {
		buf = append(buf, 2, byte(*q.Side))
	} else {
		buf = append(buf, 0)
	}
	return xxhash.Sum64(buf)
}

// Run creates a session if id is empty/unknown, or reuses an existing
// one, replacing its predicate closures in place via SetFunctions
// without reconstructing the iterator or the session id — exactly
// the "Replace predicates" step of §4.7. It computes the total match
// count and rewinds the iterator to the beginning.
func (m *Manager) Run(id string, q *query.Query) (sessionID string, s *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.sessions[id]
	if !ok {
		id = newSessionID()
		existing = &Session{
			Iter: classtree.RangeIteratorBegin(m.store, query.Compile(q)),
		}
		m.sessions[id] = existing
	} else {
		existing.Iter.SetFunctions(query.Compile(q))
	}
	existing.Query = q
	_ = fingerprint(q) // computed for log/metrics correlation only

	existing.Total = existing.Iter.Count()
	existing.Iter.Begin()
	existing.Cursor = 0

	return id, existing
}

// Get looks up a session by id. The returned pointer's mutable fields
// (Cursor, Total, Iter) are only safe to read while no other goroutine
// can be calling Next/Previous/Run for the same id; concurrent HTTP
// handlers should use Snapshot instead.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Snapshot reads a session's cursor and total match count under the
// manager's lock, for callers (the HTTP boundary) that must not touch
// Session fields directly from outside the lock.
func (m *Manager) Snapshot(id string) (cursor int, total uint64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return 0, 0, ErrSessionNotFound
	}
	return s.Cursor, s.Total, nil
}

// Next advances the session's cursor (§4.7's state machine). It
// returns the rendered FEN of the new current position, or ("end",
// false) when there is no further result — the iterator then steps
// back onto the last result so Cursor keeps naming it — plus the
// cursor/total pair under the same lock that
// mutated them — callers must not read Session.Cursor/Total directly,
// since those fields are only safe to touch while m.mu is held.
func (m *Manager) Next(id string) (fen string, ok bool, cursor int, total uint64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, found := m.sessions[id]
	if !found {
		return "", false, 0, 0, ErrSessionNotFound
	}
	if !s.Iter.Next() {
		s.Iter.Prev() // step back from the end sentinel onto the last result
		return "end", false, s.Cursor, s.Total, nil
	}
	s.Cursor++
	pos, _ := s.Iter.Current()
	return m.renderCached(pos), true, s.Cursor, s.Total, nil
}

// Previous steps the session's cursor back. From the first result it
// moves to the before-begin sentinel, resets Cursor to 0 and returns
// ("begin", false).
func (m *Manager) Previous(id string) (fen string, ok bool, cursor int, total uint64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, found := m.sessions[id]
	if !found {
		return "", false, 0, 0, ErrSessionNotFound
	}
	if !s.Iter.Prev() {
		s.Cursor = 0
		return "begin", false, s.Cursor, s.Total, nil
	}
	s.Cursor--
	pos, _ := s.Iter.Current()
	return m.renderCached(pos), true, s.Cursor, s.Total, nil
}

// renderCached renders a position's FEN, serving a cached render when
// the same leaf has been rendered before (stepping next/previous
// often revisits the same leaf range).
func (m *Manager) renderCached(p *position.Position) string {
	key := positionKey(p)
	if v, found := m.fenCache.Get(key); found {
		return v
	}
	fen := position.Render(p)
	m.fenCache.Set(key, fen, int64(len(fen)))
	return fen
}

func positionKey(p *position.Position) uintptr {
	return uintptr(unsafe.Pointer(p))
}
