package session

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"collabtext/internal/config"
	"collabtext/internal/docs"
	"collabtext/internal/models"
	"collabtext/internal/presence"
	"collabtext/internal/validate"
)

// colorPalette are the presence colors handed to participants that do not
// bring their own.
var colorPalette = []string{
	"#FF6B6B", "#4ECDC4", "#45B7D1", "#96CEB4",
	"#FFEAA7", "#DDA0DD", "#98D8C8", "#F7DC6F",
	"#FF9FF3", "#54A0FF", "#5f27cd", "#00d2d3",
}

// Stats are the process-wide connection counters.
type Stats struct {
	TotalConnections  int `json:"totalConnections"`
	ActiveConnections int `json:"activeConnections"`
}

// StatsSnapshot is the periodic diagnostics record logged and optionally
// published to redis.
type StatsSnapshot struct {
	TotalConnections  int    `json:"totalConnections"`
	ActiveConnections int    `json:"activeConnections"`
	Documents         int    `json:"documents"`
	Participants      int    `json:"participants"`
	Timestamp         string `json:"timestamp"`
}

// StatsSink receives periodic snapshots.
type StatsSink interface {
	Publish(ctx context.Context, snap StatsSnapshot) error
}

// Hub is the session-synchronization core. Every mutating operation
// serializes on one mutex, which is what keeps document versions strictly
// increasing and makes last-write-wins well-defined. Broadcast fan-out and
// the REST read paths run outside this lock.
type Hub struct {
	mu       sync.Mutex
	cfg      *config.Config
	log      *zap.Logger
	docs     *docs.Store
	presence *presence.Store
	rooms    map[string]*Room
	clients  map[string]*Client
	stats    Stats
	sink     StatsSink
}

func NewHub(cfg *config.Config, log *zap.Logger, d *docs.Store, p *presence.Store) *Hub {
	return &Hub{
		cfg:      cfg,
		log:      log,
		docs:     d,
		presence: p,
		rooms:    make(map[string]*Room),
		clients:  make(map[string]*Client),
	}
}

// SetStatsSink wires an optional diagnostics publisher. Must be called
// before connections are accepted.
func (h *Hub) SetStatsSink(sink StatsSink) { h.sink = sink }

// Register admits a new connection. The caller sends the welcome frame.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.ID] = c
	h.stats.TotalConnections++
	h.stats.ActiveConnections++
	h.log.Info("connection opened",
		zap.String("connectionId", c.ID),
		zap.Int("total", h.stats.TotalConnections),
		zap.Int("active", h.stats.ActiveConnections))
}

// Join binds a connection to a document room, creating the document on
// first use. A connection already in a room leaves it first.
func (h *Hub) Join(c *Client, req models.JoinRequest) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	docID := req.DocumentID
	if !validate.DocumentID(docID) {
		return ErrInvalidDocumentID
	}
	if !h.docs.Has(docID) {
		h.docs.CreateWithID(docID, "Document "+shortID(docID), "")
	}
	if !validate.RoomUnderCapacity(h.docs.ParticipantCount(docID), h.cfg.MaxUsersPerDocument) {
		return ErrRoomFull
	}

	// Switching documents runs the full leave path for the old room first.
	if _, ok := h.presence.Get(c.ID); ok {
		h.leaveLocked(c, "switched document")
	}

	info := models.UserInfo{}
	if req.User != nil {
		if validate.Name(req.User.Name) {
			info.Name = req.User.Name
		}
		info.Color = req.User.Color
	}
	if info.Name == "" {
		info.Name = "User" + shortConnID(c.ID)
	}
	if info.Color == "" {
		info.Color = colorPalette[rand.Intn(len(colorPalette))]
	}

	p := h.presence.Add(c.ID, docID, info)
	h.docs.AddParticipant(docID, c.ID)
	room := h.roomLocked(docID)
	room.Register(c)

	doc, _ := h.docs.Get(docID)
	users := h.presence.ListByDocument(docID)

	c.Send(models.WSFrame{Type: "document-state", Data: models.DocumentState{
		Content:    doc.Content,
		Title:      doc.Title,
		DocumentID: doc.ID,
		Users:      users,
	}})
	room.Broadcast(c.ID, models.WSFrame{Type: "user-joined", Data: presence.Summarize(p)})
	room.BroadcastAll(models.WSFrame{Type: "users-update", Data: users})

	h.log.Info("participant joined",
		zap.String("connectionId", c.ID),
		zap.String("documentId", docID),
		zap.String("name", p.Name),
		zap.Int("roomSize", room.Size()))
	return nil
}

// ChangeContent overwrites the document body. This is whole-document
// last-write-wins: the most recently processed change is authoritative and
// earlier unapplied edits are superseded.
func (h *Hub) ChangeContent(c *Client, content string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.presence.Get(c.ID)
	if !ok {
		return nil // pre-join events are dropped silently
	}
	if !validate.ContentSize(content, h.cfg.MaxDocumentSize) {
		return ErrContentTooLarge
	}
	if !h.docs.Update(p.DocumentID, docs.Updates{Content: &content}) {
		return ErrDocumentNotFound
	}

	h.roomLocked(p.DocumentID).Broadcast(c.ID, models.WSFrame{Type: "text-update", Data: models.TextUpdate{
		Content:   content,
		UserID:    c.ID,
		User:      models.UserInfo{Name: p.Name, Color: p.Color},
		Timestamp: wireTime(),
	}})
	return nil
}

// MoveCursor relays a cursor position to the rest of the room. Disabled
// entirely when cursor sharing is off.
func (h *Hub) MoveCursor(c *Client, cursor models.CursorPos) error {
	if !h.cfg.EnableCursorSharing {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.presence.Get(c.ID)
	if !ok {
		return nil
	}
	h.presence.Update(c.ID, presence.Updates{Cursor: &cursor})

	h.roomLocked(p.DocumentID).Broadcast(c.ID, models.WSFrame{Type: "cursor-update", Data: models.CursorUpdate{
		UserID:    c.ID,
		User:      models.UserInfo{Name: p.Name, Color: p.Color},
		Cursor:    &cursor,
		Timestamp: wireTime(),
	}})
	return nil
}

// SetTyping relays the typing flag to the rest of the room, gated by the
// typing-indicator flag.
func (h *Hub) SetTyping(c *Client, isTyping bool) error {
	if !h.cfg.EnableTypingIndicators {
		return nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.presence.Get(c.ID)
	if !ok {
		return nil
	}
	h.presence.Update(c.ID, presence.Updates{IsTyping: &isTyping})

	h.roomLocked(p.DocumentID).Broadcast(c.ID, models.WSFrame{Type: "user-typing", Data: models.TypingUpdate{
		UserID:    c.ID,
		User:      models.UserInfo{Name: p.Name, Color: p.Color},
		IsTyping:  isTyping,
		Timestamp: wireTime(),
	}})
	return nil
}

// ChangeTitle renames the document. Unlike content updates the sender is
// included in the broadcast, so its title reflects the canonical value.
func (h *Hub) ChangeTitle(c *Client, title string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.presence.Get(c.ID)
	if !ok {
		return nil
	}
	if !validate.Title(title) {
		return ErrInvalidTitle
	}
	if !h.docs.Update(p.DocumentID, docs.Updates{Title: &title}) {
		return ErrDocumentNotFound
	}

	h.roomLocked(p.DocumentID).BroadcastAll(models.WSFrame{Type: "title-updated", Data: models.TitleUpdated{
		Title:     title,
		UpdatedBy: p.Name,
		Timestamp: wireTime(),
	}})
	return nil
}

// UpdateUserInfo applies name/color changes. Out-of-bounds values are
// ignored, not errored.
func (h *Hub) UpdateUserInfo(c *Client, info models.UserInfo) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	p, ok := h.presence.Get(c.ID)
	if !ok {
		return nil
	}
	updates := presence.Updates{}
	if info.Name != "" && validate.Name(info.Name) {
		updates.Name = &info.Name
	}
	if info.Color != "" {
		updates.Color = &info.Color
	}
	h.presence.Update(c.ID, updates)

	room := h.roomLocked(p.DocumentID)
	room.BroadcastAll(models.WSFrame{Type: "users-update", Data: h.presence.ListByDocument(p.DocumentID)})
	return nil
}

// Disconnect tears down a connection. Safe to call twice and on
// connections that never joined.
func (h *Hub) Disconnect(c *Client, reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.presence.Get(c.ID); ok {
		h.leaveLocked(c, reason)
	}
	if _, ok := h.clients[c.ID]; ok {
		delete(h.clients, c.ID)
		h.stats.ActiveConnections--
		h.log.Info("connection closed",
			zap.String("connectionId", c.ID),
			zap.String("reason", reason),
			zap.Int("active", h.stats.ActiveConnections))
	}
}

// leaveLocked removes the connection from its room and store membership in
// one step, then notifies the remaining members. Caller holds h.mu.
func (h *Hub) leaveLocked(c *Client, reason string) {
	p, ok := h.presence.Get(c.ID)
	if !ok {
		return
	}
	h.presence.Remove(c.ID)
	h.docs.RemoveParticipant(p.DocumentID, c.ID)

	room, ok := h.rooms[p.DocumentID]
	if !ok {
		return
	}
	if left := room.Unregister(c.ID); left == 0 {
		delete(h.rooms, p.DocumentID)
	}
	room.Broadcast(c.ID, models.WSFrame{Type: "user-left", Data: models.UserLeft{
		UserID:   c.ID,
		UserName: p.Name,
		Reason:   reason,
	}})
	room.BroadcastAll(models.WSFrame{Type: "users-update", Data: h.presence.ListByDocument(p.DocumentID)})

	h.log.Info("participant left",
		zap.String("connectionId", c.ID),
		zap.String("documentId", p.DocumentID),
		zap.String("reason", reason))
}

// Stats returns the connection counters.
func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats
}

// Snapshot builds the periodic diagnostics record.
func (h *Hub) Snapshot() StatsSnapshot {
	stats := h.Stats()
	return StatsSnapshot{
		TotalConnections:  stats.TotalConnections,
		ActiveConnections: stats.ActiveConnections,
		Documents:         h.docs.Len(),
		Participants:      h.presence.Count(),
		Timestamp:         wireTime(),
	}
}

// DocumentMaxIdle is the default age threshold for the idle-document
// cleanup operation.
const DocumentMaxIdle = 24 * time.Hour

// Run drives the periodic diagnostics until the context is cancelled.
// Documents are never reaped from here; cleanup only runs when a
// collaborator requests it.
func (h *Hub) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.tick(ctx)
		}
	}
}

func (h *Hub) tick(ctx context.Context) {
	snap := h.Snapshot()
	h.log.Info("connection stats",
		zap.Int("total", snap.TotalConnections),
		zap.Int("active", snap.ActiveConnections),
		zap.Int("documents", snap.Documents),
		zap.Int("participants", snap.Participants))
	if h.sink != nil {
		if err := h.sink.Publish(ctx, snap); err != nil {
			h.log.Warn("stats publish failed", zap.Error(err))
		}
	}
}

// CleanupIdleDocuments removes empty documents not touched within maxAge
// and returns how many were removed.
func (h *Hub) CleanupIdleDocuments(maxAge time.Duration) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	removed := h.docs.CleanupOld(maxAge)
	for _, id := range removed {
		delete(h.rooms, id) // always empty by the cleanup predicate
	}
	if len(removed) > 0 {
		h.log.Info("cleaned up idle documents", zap.Int("count", len(removed)))
	}
	return len(removed)
}

// RoomSize reports current room membership, 0 when the room is not live.
func (h *Hub) RoomSize(documentID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[documentID]
	if !ok {
		return 0
	}
	return room.Size()
}

func (h *Hub) roomLocked(documentID string) *Room {
	room, ok := h.rooms[documentID]
	if !ok {
		room = NewRoom(documentID)
		h.rooms[documentID] = room
	}
	return room
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func shortConnID(id string) string {
	if len(id) > 4 {
		return id[:4]
	}
	return id
}

func wireTime() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
