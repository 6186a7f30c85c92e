// Package docs owns the in-memory document set. All state is ephemeral;
// there is no persistence layer behind it.
package docs

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultTitle = "Untitled Document"

	// SeededID is the document every fresh store starts with. It is
	// exempt from cleanup so its seeded title and content survive.
	SeededID = "default"
)

// Document is the authoritative record for one collaboration room.
type Document struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Version int64  `json:"version"`

	// Membership is owned here; the broadcast layer mirrors it.
	Participants map[string]struct{} `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Summary is the listing shape served by the REST surface.
type Summary struct {
	ID               string    `json:"id"`
	Title            string    `json:"title"`
	ParticipantCount int       `json:"participantCount"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
	Version          int64     `json:"version"`
}

// Export is the full document plus its membership, for backup endpoints.
type Export struct {
	Document
	ParticipantIDs []string `json:"participantIds"`
}

// Updates carries the fields merged by Update; nil means leave unchanged.
type Updates struct {
	Title   *string
	Content *string
}

// Store holds all documents behind one lock.
type Store struct {
	mu   sync.RWMutex
	docs map[string]*Document
}

// NewStore creates an empty store and seeds the "default" document.
func NewStore() *Store {
	s := &Store{docs: make(map[string]*Document)}
	s.CreateWithID(SeededID, "Welcome Document", "")
	return s
}

// Create allocates a document under a fresh UUID, version 1.
func (s *Store) Create(title, content string) Document {
	return s.CreateWithID(uuid.NewString(), title, content)
}

// CreateWithID allocates a document under a caller-chosen id. An existing
// document with that id is returned unchanged.
func (s *Store) CreateWithID(id, title, content string) Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc, ok := s.docs[id]; ok {
		return snapshot(doc)
	}
	if title == "" {
		title = DefaultTitle
	}
	now := time.Now()
	doc := &Document{
		ID:           id,
		Title:        title,
		Content:      content,
		Version:      1,
		Participants: make(map[string]struct{}),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.docs[id] = doc
	return snapshot(doc)
}

// Get returns a copy of the document.
func (s *Store) Get(id string) (Document, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return Document{}, false
	}
	return snapshot(doc), true
}

// Has reports whether the id is known.
func (s *Store) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.docs[id]
	return ok
}

// Update merges the supplied fields, bumps the version and touches
// updatedAt. Returns false without mutation if the id is unknown.
func (s *Store) Update(id string, updates Updates) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return false
	}
	if updates.Title != nil {
		doc.Title = *updates.Title
	}
	if updates.Content != nil {
		doc.Content = *updates.Content
	}
	doc.Version++
	doc.UpdatedAt = time.Now()
	return true
}

// AddParticipant records membership; returns false if the id is unknown.
func (s *Store) AddParticipant(id, connectionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return false
	}
	doc.Participants[connectionID] = struct{}{}
	return true
}

// RemoveParticipant drops membership; a no-op for unknown ids or members.
func (s *Store) RemoveParticipant(id, connectionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if doc, ok := s.docs[id]; ok {
		delete(doc.Participants, connectionID)
	}
}

// ParticipantCount returns the room size, 0 for unknown ids.
func (s *Store) ParticipantCount(id string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return 0
	}
	return len(doc.Participants)
}

// List returns summaries ordered by updatedAt descending.
func (s *Store) List() []Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Summary, 0, len(s.docs))
	for _, doc := range s.docs {
		out = append(out, summarize(doc))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// Search returns summaries whose title or content contains the query,
// case-insensitive.
func (s *Store) Search(query string) []Summary {
	term := strings.ToLower(query)
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Summary, 0)
	for _, doc := range s.docs {
		if strings.Contains(strings.ToLower(doc.Title), term) ||
			strings.Contains(strings.ToLower(doc.Content), term) {
			out = append(out, summarize(doc))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

// Export returns the full document plus its participant ids.
func (s *Store) Export(id string) (Export, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return Export{}, false
	}
	ids := make([]string, 0, len(doc.Participants))
	for connID := range doc.Participants {
		ids = append(ids, connID)
	}
	sort.Strings(ids)
	return Export{Document: snapshot(doc), ParticipantIDs: ids}, true
}

// Delete removes a document outright. Returns false for unknown ids.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return false
	}
	delete(s.docs, id)
	return true
}

// Len returns the number of documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// CleanupOld deletes empty documents not touched within maxAge and returns
// their ids. The seeded document is never removed.
func (s *Store) CleanupOld(maxAge time.Duration) []string {
	cutoff := time.Now().Add(-maxAge)
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed []string
	for id, doc := range s.docs {
		if id == SeededID {
			continue
		}
		if len(doc.Participants) == 0 && doc.UpdatedAt.Before(cutoff) {
			delete(s.docs, id)
			removed = append(removed, id)
		}
	}
	return removed
}

func snapshot(doc *Document) Document {
	out := *doc
	out.Participants = make(map[string]struct{}, len(doc.Participants))
	for id := range doc.Participants {
		out.Participants[id] = struct{}{}
	}
	return out
}

func summarize(doc *Document) Summary {
	return Summary{
		ID:               doc.ID,
		Title:            doc.Title,
		ParticipantCount: len(doc.Participants),
		CreatedAt:        doc.CreatedAt,
		UpdatedAt:        doc.UpdatedAt,
		Version:          doc.Version,
	}
}
