package types

import (
	"sort"
	"sync"
)

// IndexState is the in-memory copy of the persisted document: the fingerprint index and the
// sync cursor. The sync controller is the only writer; the read APIs go through the accessors.
type IndexState struct {
	mu     sync.RWMutex
	pairs  XfpPairs
	cursor Cursor
}

func NewIndexState(pairs XfpPairs, cursor Cursor) *IndexState {
	if pairs == nil {
		pairs = make(XfpPairs)
	}
	return &IndexState{pairs: pairs, cursor: cursor}
}

func (s *IndexState) Cursor() Cursor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor
}

func (s *IndexState) Height() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cursor.Height
}

// Lookup returns a copy of the ids stored under fingerprint, never nil.
func (s *IndexState) Lookup(fingerprint string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string{}, s.pairs[fingerprint]...)
}

// InscriptionIDs lists every distinct id in the index, sorted.
func (s *IndexState) InscriptionIDs() []string {
	s.mu.RLock()
	seen := make(map[string]struct{})
	for _, ids := range s.pairs {
		for _, id := range ids {
			seen[id] = struct{}{}
		}
	}
	s.mu.RUnlock()

	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (s *IndexState) FingerprintCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pairs.Count()
}

// Delta computes what merging pairs would change without touching the state.
func (s *IndexState) Delta(pairs XfpPairs) XfpPairs {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pairs.Delta(pairs)
}

// Apply installs already persisted full lists and moves the cursor.
func (s *IndexState) Apply(delta XfpPairs, cursor Cursor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for fingerprint, ids := range delta {
		s.pairs[fingerprint] = append([]string(nil), ids...)
	}
	s.cursor = cursor
}

func (s *IndexState) SetCursor(cursor Cursor) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursor = cursor
}

// Snapshot returns a deep copy of the index, mainly for dumps and tests.
func (s *IndexState) Snapshot() XfpPairs {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pairs.Clone()
}
