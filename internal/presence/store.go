// Package presence owns the per-connection participant records.
package presence

import (
	"sort"
	"sync"
	"time"

	"collabtext/internal/models"
)

// Participant is one live connection bound to a document.
type Participant struct {
	ID         string
	DocumentID string
	Name       string
	Color      string
	Cursor     *models.CursorPos
	IsTyping   bool
	JoinedAt   time.Time
	LastActive time.Time

	// seq breaks joinedAt ties so list order stays deterministic.
	seq uint64
}

// Activity is the diagnostics counter tracked per connection. It never
// affects correctness.
type Activity struct {
	JoinTime    time.Time
	LastAction  time.Time
	ActionCount int
}

// Updates carries the fields merged by Update; nil means leave unchanged.
type Updates struct {
	Name     *string
	Color    *string
	Cursor   *models.CursorPos
	IsTyping *bool
}

// Store holds all participants behind one lock.
type Store struct {
	mu       sync.RWMutex
	users    map[string]*Participant
	activity map[string]*Activity
	nextSeq  uint64
}

func NewStore() *Store {
	return &Store{
		users:    make(map[string]*Participant),
		activity: make(map[string]*Activity),
	}
}

// Add registers a participant for a connection. A previous record under the
// same connection id is replaced.
func (s *Store) Add(connectionID, documentID string, info models.UserInfo) Participant {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.nextSeq++
	p := &Participant{
		ID:         connectionID,
		DocumentID: documentID,
		Name:       info.Name,
		Color:      info.Color,
		JoinedAt:   now,
		LastActive: now,
		seq:        s.nextSeq,
	}
	s.users[connectionID] = p
	s.activity[connectionID] = &Activity{JoinTime: now, LastAction: now}
	return *p
}

// Get returns a copy of the participant record.
func (s *Store) Get(connectionID string) (Participant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.users[connectionID]
	if !ok {
		return Participant{}, false
	}
	return *p, true
}

// Remove drops the participant and its activity record.
func (s *Store) Remove(connectionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[connectionID]; !ok {
		return false
	}
	delete(s.users, connectionID)
	delete(s.activity, connectionID)
	return true
}

// Update merges the supplied fields and bumps the activity counters.
// Returns false without mutation if the connection is unknown.
func (s *Store) Update(connectionID string, updates Updates) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.users[connectionID]
	if !ok {
		return false
	}
	if updates.Name != nil {
		p.Name = *updates.Name
	}
	if updates.Color != nil {
		p.Color = *updates.Color
	}
	if updates.Cursor != nil {
		cursor := *updates.Cursor
		p.Cursor = &cursor
	}
	if updates.IsTyping != nil {
		p.IsTyping = *updates.IsTyping
	}
	now := time.Now()
	p.LastActive = now
	if a := s.activity[connectionID]; a != nil {
		a.LastAction = now
		a.ActionCount++
	}
	return true
}

// ListByDocument returns summaries of a document's participants in join
// order (oldest first).
func (s *Store) ListByDocument(documentID string) []models.ParticipantSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	members := make([]*Participant, 0)
	for _, p := range s.users {
		if p.DocumentID == documentID {
			members = append(members, p)
		}
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].JoinedAt.Equal(members[j].JoinedAt) {
			return members[i].seq < members[j].seq
		}
		return members[i].JoinedAt.Before(members[j].JoinedAt)
	})
	out := make([]models.ParticipantSummary, len(members))
	for i, p := range members {
		out[i] = Summarize(*p)
	}
	return out
}

// Count returns the number of live participants across all documents.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// CountByDocument returns the number of participants in one document.
func (s *Store) CountByDocument(documentID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, p := range s.users {
		if p.DocumentID == documentID {
			n++
		}
	}
	return n
}

// GetActivity returns the diagnostics counters for a connection.
func (s *Store) GetActivity(connectionID string) (Activity, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.activity[connectionID]
	if !ok {
		return Activity{}, false
	}
	return *a, true
}

// CleanupInactive removes participants idle for longer than maxIdle and
// returns their ids.
func (s *Store) CleanupInactive(maxIdle time.Duration) []string {
	cutoff := time.Now().Add(-maxIdle)
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed []string
	for id, p := range s.users {
		if p.LastActive.Before(cutoff) {
			delete(s.users, id)
			delete(s.activity, id)
			removed = append(removed, id)
		}
	}
	return removed
}

// Summarize converts a participant record to its wire shape.
func Summarize(p Participant) models.ParticipantSummary {
	return models.ParticipantSummary{
		ID:       p.ID,
		Name:     p.Name,
		Color:    p.Color,
		IsTyping: p.IsTyping,
		Cursor:   p.Cursor,
		JoinedAt: p.JoinedAt.UTC().Format(time.RFC3339Nano),
	}
}
