package docs

import (
	"testing"
	"time"
)

func TestNewStoreSeedsDefaultDocument(t *testing.T) {
	s := NewStore()
	doc, ok := s.Get("default")
	if !ok {
		t.Fatalf("expected seeded default document")
	}
	if doc.Title != "Welcome Document" || doc.Content != "" || doc.Version != 1 {
		t.Fatalf("unexpected default document: %+v", doc)
	}
}

func TestCreateAllocatesUUID(t *testing.T) {
	s := NewStore()
	doc := s.Create("Notes", "body")
	if len(doc.ID) != 36 {
		t.Fatalf("expected uuid id, got %q", doc.ID)
	}
	if doc.Version != 1 || doc.Title != "Notes" || doc.Content != "body" {
		t.Fatalf("unexpected document: %+v", doc)
	}
	if doc.CreatedAt.IsZero() || !doc.CreatedAt.Equal(doc.UpdatedAt) {
		t.Fatalf("expected createdAt == updatedAt, got %v / %v", doc.CreatedAt, doc.UpdatedAt)
	}
}

func TestCreateEmptyTitleFallsBack(t *testing.T) {
	s := NewStore()
	doc := s.Create("", "")
	if doc.Title != DefaultTitle {
		t.Fatalf("expected fallback title, got %q", doc.Title)
	}
}

func TestCreateWithIDIsIdempotent(t *testing.T) {
	s := NewStore()
	first := s.CreateWithID("id-1", "One", "a")
	second := s.CreateWithID("id-1", "Two", "b")
	if second.Title != "One" || second.Content != "a" || second.Version != first.Version {
		t.Fatalf("expected existing document returned unchanged, got %+v", second)
	}
}

func TestUpdateBumpsVersionAndTimestamp(t *testing.T) {
	s := NewStore()
	doc := s.Create("Doc", "")

	title := "Renamed"
	if !s.Update(doc.ID, Updates{Title: &title}) {
		t.Fatalf("update failed")
	}
	content := "hello"
	if !s.Update(doc.ID, Updates{Content: &content}) {
		t.Fatalf("update failed")
	}

	got, _ := s.Get(doc.ID)
	if got.Title != "Renamed" || got.Content != "hello" {
		t.Fatalf("fields not merged: %+v", got)
	}
	if got.Version != 3 {
		t.Fatalf("expected version 3 after two updates, got %d", got.Version)
	}
	if got.UpdatedAt.Before(doc.UpdatedAt) {
		t.Fatalf("updatedAt went backwards")
	}
}

func TestUpdateUnknownID(t *testing.T) {
	s := NewStore()
	content := "x"
	if s.Update("missing", Updates{Content: &content}) {
		t.Fatalf("expected update of unknown id to fail")
	}
}

func TestParticipantMembership(t *testing.T) {
	s := NewStore()
	doc := s.Create("Doc", "")

	if !s.AddParticipant(doc.ID, "conn-1") || !s.AddParticipant(doc.ID, "conn-2") {
		t.Fatalf("add participant failed")
	}
	if s.AddParticipant("missing", "conn-3") {
		t.Fatalf("expected add on unknown doc to fail")
	}
	if count := s.ParticipantCount(doc.ID); count != 2 {
		t.Fatalf("expected 2 participants, got %d", count)
	}

	s.RemoveParticipant(doc.ID, "conn-1")
	s.RemoveParticipant(doc.ID, "never-joined")
	if count := s.ParticipantCount(doc.ID); count != 1 {
		t.Fatalf("expected 1 participant, got %d", count)
	}
}

func TestListOrderedByUpdatedAtDesc(t *testing.T) {
	s := NewStore()
	a := s.Create("A", "")
	b := s.Create("B", "")

	// Touch a after b so it sorts first.
	s.mu.Lock()
	s.docs[b.ID].UpdatedAt = time.Now().Add(-time.Hour)
	s.docs["default"].UpdatedAt = time.Now().Add(-2 * time.Hour)
	s.mu.Unlock()
	content := "newest"
	s.Update(a.ID, Updates{Content: &content})

	list := s.List()
	if len(list) != 3 {
		t.Fatalf("expected 3 documents, got %d", len(list))
	}
	if list[0].ID != a.ID || list[1].ID != b.ID || list[2].ID != "default" {
		t.Fatalf("unexpected order: %v %v %v", list[0].ID, list[1].ID, list[2].ID)
	}
}

func TestSearchMatchesTitleAndContent(t *testing.T) {
	s := NewStore()
	byTitle := s.Create("Meeting Notes", "agenda")
	byContent := s.Create("Scratch", "meeting follow-ups")
	s.Create("Other", "nothing here")

	got := s.Search("MEETING")
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(got))
	}
	ids := map[string]bool{got[0].ID: true, got[1].ID: true}
	if !ids[byTitle.ID] || !ids[byContent.ID] {
		t.Fatalf("unexpected matches: %+v", got)
	}
}

func TestExport(t *testing.T) {
	s := NewStore()
	doc := s.Create("Doc", "body")
	s.AddParticipant(doc.ID, "conn-b")
	s.AddParticipant(doc.ID, "conn-a")

	export, ok := s.Export(doc.ID)
	if !ok {
		t.Fatalf("expected export")
	}
	if export.Content != "body" || len(export.ParticipantIDs) != 2 {
		t.Fatalf("unexpected export: %+v", export)
	}
	if export.ParticipantIDs[0] != "conn-a" || export.ParticipantIDs[1] != "conn-b" {
		t.Fatalf("expected sorted participant ids, got %v", export.ParticipantIDs)
	}

	if _, ok := s.Export("missing"); ok {
		t.Fatalf("expected export of unknown id to fail")
	}
}

func TestDelete(t *testing.T) {
	s := NewStore()
	doc := s.Create("Doc", "")
	if !s.Delete(doc.ID) {
		t.Fatalf("delete failed")
	}
	if s.Delete(doc.ID) {
		t.Fatalf("expected second delete to fail")
	}
	if s.Has(doc.ID) {
		t.Fatalf("document still present")
	}
}

func TestCleanupOldSkipsOccupiedAndFresh(t *testing.T) {
	s := NewStore()
	idle := s.Create("Idle", "")
	occupied := s.Create("Occupied", "")
	fresh := s.Create("Fresh", "")
	s.AddParticipant(occupied.ID, "conn-1")

	old := time.Now().Add(-48 * time.Hour)
	s.mu.Lock()
	s.docs[idle.ID].UpdatedAt = old
	s.docs[occupied.ID].UpdatedAt = old
	s.mu.Unlock()

	removed := s.CleanupOld(24 * time.Hour)
	if len(removed) != 1 || removed[0] != idle.ID {
		t.Fatalf("expected only idle doc removed, got %v", removed)
	}
	if !s.Has(occupied.ID) || !s.Has(fresh.ID) {
		t.Fatalf("cleanup removed a live document")
	}
}

func TestCleanupOldSparesSeededDocument(t *testing.T) {
	s := NewStore()

	old := time.Now().Add(-48 * time.Hour)
	s.mu.Lock()
	s.docs[SeededID].UpdatedAt = old
	s.mu.Unlock()

	if removed := s.CleanupOld(24 * time.Hour); len(removed) != 0 {
		t.Fatalf("expected nothing removed, got %v", removed)
	}
	doc, ok := s.Get(SeededID)
	if !ok || doc.Title != "Welcome Document" {
		t.Fatalf("seeded document lost: %+v ok=%v", doc, ok)
	}
}

func TestSnapshotIsolation(t *testing.T) {
	s := NewStore()
	doc := s.Create("Doc", "")
	s.AddParticipant(doc.ID, "conn-1")

	got, _ := s.Get(doc.ID)
	got.Participants["conn-2"] = struct{}{}

	if count := s.ParticipantCount(doc.ID); count != 1 {
		t.Fatalf("snapshot mutation leaked into store, count=%d", count)
	}
}
