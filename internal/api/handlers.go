package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"collabtext/internal/config"
	"collabtext/internal/docs"
	"collabtext/internal/models"
	"collabtext/internal/presence"
	"collabtext/internal/session"
	"collabtext/internal/validate"
)

type Handlers struct {
	log      *zap.Logger
	cfg      *config.Config
	hub      *session.Hub
	docs     *docs.Store
	presence *presence.Store
}

func NewHandlers(log *zap.Logger, cfg *config.Config, hub *session.Hub, d *docs.Store, p *presence.Store) *Handlers {
	return &Handlers{log: log, cfg: cfg, hub: hub, docs: d, presence: p}
}

func (h *Handlers) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (h *Handlers) ListDocuments(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.docs.List())
}

type createDocumentRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (h *Handlers) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req createDocumentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title != "" && !validate.Title(req.Title) {
		writeError(w, http.StatusBadRequest, session.ErrInvalidTitle.Error())
		return
	}
	if !validate.ContentSize(req.Content, h.cfg.MaxDocumentSize) {
		writeError(w, http.StatusBadRequest, session.ErrContentTooLarge.Error())
		return
	}
	doc := h.docs.Create(req.Title, req.Content)
	h.log.Info("document created", zap.String("documentId", doc.ID), zap.String("title", doc.Title))
	writeJSON(w, http.StatusOK, doc)
}

func (h *Handlers) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.docs.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Document not found")
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *Handlers) SearchDocuments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.docs.Search(r.URL.Query().Get("q")))
}

func (h *Handlers) ExportDocument(w http.ResponseWriter, r *http.Request) {
	export, ok := h.docs.Export(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "Document not found")
		return
	}
	writeJSON(w, http.StatusOK, export)
}

func (h *Handlers) DocumentParticipants(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.docs.Has(id) {
		writeError(w, http.StatusNotFound, "Document not found")
		return
	}
	writeJSON(w, http.StatusOK, h.presence.ListByDocument(id))
}

// CleanupDocuments reaps empty documents idle past the default window.
// Nothing runs this on a schedule; documents only go away when a
// collaborator asks.
func (h *Handlers) CleanupDocuments(w http.ResponseWriter, _ *http.Request) {
	removed := h.hub.CleanupIdleDocuments(session.DocumentMaxIdle)
	h.log.Info("document cleanup requested", zap.Int("removed", removed))
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

func (h *Handlers) Stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.hub.Snapshot())
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// CollabWS upgrades the connection and runs its event loop until the
// transport drops. One bad connection never takes the hub down: every
// failure is answered on that connection only.
func (h *Handlers) CollabWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	client := session.NewClient(uuid.NewString(), conn)
	h.hub.Register(client)

	reason := "transport close"
	defer func() { h.hub.Disconnect(client, reason) }()

	client.Send(models.WSFrame{Type: "welcome", Data: models.Welcome{
		Message:      "Connected to collaborative platform",
		ServerTime:   time.Now().UTC().Format(time.RFC3339Nano),
		ConnectionID: client.ID,
	}})

	for {
		var frame models.WSFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				reason = "client disconnect"
			}
			return
		}
		h.dispatch(client, frame)
	}
}

func (h *Handlers) dispatch(client *session.Client, frame models.WSFrame) {
	var err error
	switch frame.Type {
	case "join-document":
		var req models.JoinRequest
		remarshal(frame.Data, &req)
		err = h.hub.Join(client, req)
	case "text-change":
		var change models.TextChange
		remarshal(frame.Data, &change)
		err = h.hub.ChangeContent(client, change.Content)
	case "cursor-move":
		var cursor models.CursorPos
		remarshal(frame.Data, &cursor)
		err = h.hub.MoveCursor(client, cursor)
	case "user-typing":
		var typing models.TypingState
		remarshal(frame.Data, &typing)
		err = h.hub.SetTyping(client, typing.IsTyping)
	case "title-change":
		var change models.TitleChange
		remarshal(frame.Data, &change)
		err = h.hub.ChangeTitle(client, change.Title)
	case "update-user-info":
		var info models.UserInfo
		remarshal(frame.Data, &info)
		err = h.hub.UpdateUserInfo(client, info)
	case "ping":
		client.Send(models.WSFrame{Type: "pong", Data: models.Pong{Timestamp: time.Now().UnixMilli()}})
	default:
		// Unrecognized event names are ignored, not errored.
	}
	if err != nil {
		client.SendError(err.Error())
	}
}

// remarshal moves a decoded frame payload into its typed shape. Malformed
// payloads decode to zero values and fail validation downstream.
func remarshal(in, out any) {
	b, _ := json.Marshal(in)
	_ = json.Unmarshal(b, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
