package models

// WSFrame is the envelope for every message on the collaboration socket.
type WSFrame struct {
	Type string      `json:"type"` // "join-document","text-change","users-update",...
	Data interface{} `json:"data,omitempty"`
}

// UserInfo is the client-supplied identity carried on join and info updates.
type UserInfo struct {
	Name  string `json:"name,omitempty"`
	Color string `json:"color,omitempty"`
}

// CursorPos is an editor-local cursor position; it is relayed, never validated.
type CursorPos struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Height float64 `json:"height,omitempty"`
}

/*** Inbound payloads ***/

type JoinRequest struct {
	DocumentID string    `json:"documentId"`
	User       *UserInfo `json:"user,omitempty"`
}

type TextChange struct {
	DocumentID string `json:"documentId,omitempty"`
	Content    string `json:"content"`
}

type TypingState struct {
	IsTyping bool `json:"isTyping"`
}

type TitleChange struct {
	Title string `json:"title"`
}

/*** Outbound payloads ***/

type Welcome struct {
	Message      string `json:"message"`
	ServerTime   string `json:"serverTime"`
	ConnectionID string `json:"connectionId"`
}

// DocumentState is the full snapshot sent to a connection right after it joins.
type DocumentState struct {
	Content    string               `json:"content"`
	Title      string               `json:"title"`
	DocumentID string               `json:"documentId"`
	Users      []ParticipantSummary `json:"users"`
}

type TextUpdate struct {
	Content   string   `json:"content"`
	UserID    string   `json:"userId"`
	User      UserInfo `json:"user"`
	Timestamp string   `json:"timestamp"`
}

type CursorUpdate struct {
	UserID    string     `json:"userId"`
	User      UserInfo   `json:"user"`
	Cursor    *CursorPos `json:"cursor"`
	Timestamp string     `json:"timestamp"`
}

type TypingUpdate struct {
	UserID    string   `json:"userId"`
	User      UserInfo `json:"user"`
	IsTyping  bool     `json:"isTyping"`
	Timestamp string   `json:"timestamp"`
}

type TitleUpdated struct {
	Title     string `json:"title"`
	UpdatedBy string `json:"updatedBy"`
	Timestamp string `json:"timestamp"`
}

type UserLeft struct {
	UserID   string `json:"userId"`
	UserName string `json:"userName"`
	Reason   string `json:"reason"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

type Pong struct {
	Timestamp int64 `json:"timestamp"` // unix milliseconds
}

// ParticipantSummary is the per-user record carried in document-state,
// user-joined and users-update frames, sorted by join time.
type ParticipantSummary struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Color    string     `json:"color"`
	IsTyping bool       `json:"isTyping"`
	Cursor   *CursorPos `json:"cursor"`
	JoinedAt string     `json:"joinedAt"`
}
