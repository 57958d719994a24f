package services

import (
	"context"

	"github.com/SscSPs/stack_budget/internal/dto"
)

// SyncSvc reconciles the local document with the remote store.
type SyncSvc interface {
	// Save pushes the whole document. It never retries.
	Save(ctx context.Context, opts dto.SaveOptions) error

	// Autosave is a silent Save that is skipped when credentials are missing.
	Autosave(ctx context.Context) error

	// AutosaveAsync runs Autosave in the background.
	AutosaveAsync(ctx context.Context)

	// Load pulls the remote document and replaces the local one wholesale.
	Load(ctx context.Context, opts dto.LoadOptions) error

	// Status reports the last sync outcome.
	Status(ctx context.Context) dto.SyncStatus

	// SetCredentials stores the document id and access token locally.
	SetCredentials(ctx context.Context, creds dto.Credentials) error

	// SaveInFlight reports whether a push is outstanding.
	SaveInFlight() bool

	// LoadIfConfigured runs a silent Load when credentials are cached.
	LoadIfConfigured(ctx context.Context) error

	// ReloadLocal adopts a document another process wrote to the local cache.
	ReloadLocal(ctx context.Context) error

	// Wait blocks until every background autosave has finished.
	Wait()
}

// RefreshSvc pulls the remote document on lifecycle events.
type RefreshSvc interface {
	Trigger(ctx context.Context, event dto.RefreshEvent) dto.RefreshResult
}

// BackupSvc exports and imports the document as a file.
type BackupSvc interface {
	Export(ctx context.Context) (*dto.ExportResponse, error)
	// Import shallow-merges the top-level keys of data onto the document.
	// It fails with ErrConfirmationRequired unless confirmed.
	Import(ctx context.Context, data []byte, confirmed bool) error
}
