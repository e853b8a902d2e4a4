package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/resume-studio/internal/draft"
	"github.com/jonathan/resume-studio/internal/export"
)

// DefaultSessionTTL is how long an untouched editor session is kept.
const DefaultSessionTTL = 2 * time.Hour

type sessionKey struct {
	userID  uuid.UUID
	draftID uuid.UUID
}

// session is one open editor. mu serializes edits; the save and export
// flows copy the draft under mu and run without it so their busy flags can
// be read while they work.
type session struct {
	mu       sync.Mutex
	editor   draft.Editor
	lastUsed time.Time

	coord  *export.Coordinator
	events *broadcaster
}

// touch records activity. Callers hold mu.
func (s *session) touch() {
	s.lastUsed = time.Now()
}

func (s *session) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed.Before(cutoff)
}

func (s *session) close() {
	s.coord.Close()
	s.events.close()
}

// sessions tracks the open editors by user and draft.
type sessions struct {
	mu sync.Mutex
	m  map[sessionKey]*session
}

func newSessions() *sessions {
	return &sessions{m: make(map[sessionKey]*session)}
}

// put installs s under key, closing any session it replaces.
func (ss *sessions) put(key sessionKey, s *session) {
	ss.mu.Lock()
	old := ss.m[key]
	ss.m[key] = s
	ss.mu.Unlock()
	if old != nil {
		old.close()
	}
}

func (ss *sessions) get(key sessionKey) (*session, bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	s, ok := ss.m[key]
	return s, ok
}

func (ss *sessions) drop(key sessionKey) {
	ss.mu.Lock()
	s := ss.m[key]
	delete(ss.m, key)
	ss.mu.Unlock()
	if s != nil {
		s.close()
	}
}

func (ss *sessions) len() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return len(ss.m)
}

// sweep closes sessions idle since before cutoff and returns how many.
func (ss *sessions) sweep(cutoff time.Time) int {
	ss.mu.Lock()
	var stale []*session
	for key, s := range ss.m {
		if s.idleSince(cutoff) {
			stale = append(stale, s)
			delete(ss.m, key)
		}
	}
	ss.mu.Unlock()

	for _, s := range stale {
		s.close()
	}
	return len(stale)
}

func (ss *sessions) closeAll() {
	ss.mu.Lock()
	all := ss.m
	ss.m = make(map[sessionKey]*session)
	ss.mu.Unlock()
	for _, s := range all {
		s.close()
	}
}

// broadcaster fans progress events out to SSE subscribers. Slow subscribers
// miss events rather than block a flow.
type broadcaster struct {
	mu     sync.Mutex
	subs   map[chan export.ProgressEvent]struct{}
	closed bool
}

func newBroadcaster() *broadcaster {
	return &broadcaster{subs: make(map[chan export.ProgressEvent]struct{})}
}

func (b *broadcaster) subscribe() (<-chan export.ProgressEvent, func()) {
	ch := make(chan export.ProgressEvent, 16)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch, func() {}
	}
	b.subs[ch] = struct{}{}
	return ch, func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[ch]; ok {
			delete(b.subs, ch)
			close(ch)
		}
	}
}

func (b *broadcaster) publish(ev export.ProgressEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (b *broadcaster) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for ch := range b.subs {
		delete(b.subs, ch)
		close(ch)
	}
}
