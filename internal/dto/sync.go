package dto

import "time"

// Credentials are the remote document id and access token.
type Credentials struct {
	DocumentID string `json:"documentID"`
	Token      string `json:"token"`
}

// SaveOptions controls a push to the remote store. Credentials override
// the locally cached ones field by field when set.
type SaveOptions struct {
	CreateNew   bool        `json:"createNew"`
	Silent      bool        `json:"silent"`
	Credentials Credentials `json:"credentials"`
}

// LoadOptions controls a pull from the remote store.
type LoadOptions struct {
	Silent      bool        `json:"silent"`
	Credentials Credentials `json:"credentials"`
}

// SyncState is the state of the synchronization layer.
type SyncState string

const (
	SyncIdle    SyncState = "idle"
	SyncSaving  SyncState = "saving"
	SyncLoading SyncState = "loading"
)

// SyncStatus is what the sync layer reports to the user.
type SyncStatus struct {
	State        SyncState `json:"state"`
	Message      string    `json:"message"`
	IsError      bool      `json:"isError"`
	DocumentID   string    `json:"documentID,omitempty"`
	HasToken     bool      `json:"hasToken"`
	LastSavedAt  time.Time `json:"lastSavedAt,omitzero"`
	LastLoadedAt time.Time `json:"lastLoadedAt,omitzero"`
	UpdatedAt    time.Time `json:"updatedAt,omitzero"`
	Saving       bool      `json:"saving"`
}

// RefreshEventKind names the lifecycle events that may trigger an auto-refresh.
type RefreshEventKind string

const (
	EventVisible  RefreshEventKind = "visible"
	EventFocus    RefreshEventKind = "focus"
	EventPageShow RefreshEventKind = "pageshow"
)

// RefreshEvent is a lifecycle event reported by the renderer. Persisted is
// only meaningful for pageshow: the page was restored from a cache.
type RefreshEvent struct {
	Kind      RefreshEventKind `json:"kind"`
	Persisted bool             `json:"persisted"`
}

// RefreshResult tells the caller whether a refresh ran and why not.
type RefreshResult struct {
	Refreshed  bool   `json:"refreshed"`
	SkipReason string `json:"skipReason,omitempty"`
}

// ExportResponse carries a backup file.
type ExportResponse struct {
	Filename string `json:"filename"`
	Content  []byte `json:"-"`
}
