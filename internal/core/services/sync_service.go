package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SscSPs/stack_budget/internal/apperrors"
	"github.com/SscSPs/stack_budget/internal/core/derivation"
	"github.com/SscSPs/stack_budget/internal/core/domain"
	portsrepo "github.com/SscSPs/stack_budget/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/stack_budget/internal/core/ports/services"
	"github.com/SscSPs/stack_budget/internal/dto"
	"github.com/SscSPs/stack_budget/internal/metrics"
)

const (
	// PayloadFilename is the well-known file holding the document.
	PayloadFilename = "budget-data.json"
	// PayloadDescription describes documents created by this client.
	PayloadDescription = "Budget data"
)

// SyncService pushes and pulls the whole document. Save and Load share a
// single-flight lock, so a Save issued during a Load waits and then pushes
// the freshly loaded state.
type SyncService struct {
	BaseService
	state  *State
	local  *LocalPersistence
	remote portsrepo.RemoteStore

	flight  sync.Mutex
	saving  atomic.Int32
	pending sync.WaitGroup

	statusMu sync.Mutex
	status   dto.SyncStatus
}

// SyncOption is a functional option for configuring the sync service
type SyncOption func(*SyncService)

// WithSyncClock overrides the clock used for status timestamps.
func WithSyncClock(now func() time.Time) SyncOption {
	return func(s *SyncService) {
		s.Clock = now
	}
}

// WithSyncMetrics records save and load outcomes.
func WithSyncMetrics(m *metrics.Metrics) SyncOption {
	return func(s *SyncService) {
		s.Metrics = m
	}
}

// NewSyncService creates a new sync service with the provided options
func NewSyncService(state *State, local *LocalPersistence, remote portsrepo.RemoteStore, options ...SyncOption) *SyncService {
	svc := &SyncService{
		state:  state,
		local:  local,
		remote: remote,
		status: dto.SyncStatus{State: dto.SyncIdle},
	}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.SyncSvc = (*SyncService)(nil)

// credentials merges explicit overrides onto the cached credentials.
func (s *SyncService) credentials(ctx context.Context, override dto.Credentials) dto.Credentials {
	creds, err := s.local.Credentials(ctx)
	if err != nil {
		s.LogWarn(ctx, "Failed to read cached credentials", slog.String("error", err.Error()))
	}
	if override.DocumentID != "" {
		creds.DocumentID = override.DocumentID
	}
	if override.Token != "" {
		creds.Token = override.Token
	}
	return creds
}

// Save pushes the document. A missing token, or a missing document id
// without CreateNew, aborts before any network call.
func (s *SyncService) Save(ctx context.Context, opts dto.SaveOptions) error {
	creds := s.credentials(ctx, opts.Credentials)
	if creds.Token == "" {
		return s.precondition(ctx, opts.Silent, "Missing access token")
	}
	if creds.DocumentID == "" && !opts.CreateNew {
		return s.precondition(ctx, opts.Silent, "Missing document ID")
	}

	s.saving.Add(1)
	defer s.saving.Add(-1)

	s.flight.Lock()
	defer s.flight.Unlock()

	if !opts.Silent {
		s.setStatus(dto.SyncSaving, "Saving to remote...", false)
	} else {
		s.setState(dto.SyncSaving)
	}

	payload, err := domain.EncodeDocumentIndent(s.state.Snapshot())
	if err != nil {
		s.Metrics.ObserveSave(metrics.ResultFailure)
		return fmt.Errorf("failed to encode document: %w", err)
	}
	files := map[string]string{PayloadFilename: string(payload)}

	id := creds.DocumentID
	if opts.CreateNew || id == "" {
		id, err = s.remote.Create(ctx, creds.Token, PayloadDescription, files)
	} else {
		err = s.remote.Replace(ctx, creds.Token, id, files)
	}
	if err != nil {
		s.Metrics.ObserveSave(metrics.ResultFailure)
		s.LogError(ctx, err, "Remote save failed", slog.Bool("silent", opts.Silent))
		if opts.Silent {
			s.setState(dto.SyncIdle)
		} else {
			s.setStatus(dto.SyncIdle, "Save failed: "+remoteMessage(err), true)
		}
		return fmt.Errorf("save to remote store: %w", err)
	}

	if err := s.local.SaveCredentials(ctx, dto.Credentials{DocumentID: id, Token: creds.Token}); err != nil {
		s.LogError(ctx, err, "Failed to cache credentials after save")
	}
	s.Metrics.ObserveSave(metrics.ResultSuccess)
	s.LogInfo(ctx, "Saved document to remote store", slog.String("document_id", id), slog.Bool("silent", opts.Silent))

	s.statusMu.Lock()
	s.status.State = dto.SyncIdle
	s.status.DocumentID = id
	s.status.LastSavedAt = s.Now()
	if !opts.Silent {
		s.status.Message = "Saved to remote: " + id
		s.status.IsError = false
		s.status.UpdatedAt = s.Now()
	}
	s.statusMu.Unlock()
	return nil
}

// Autosave is a silent Save that quietly does nothing while sync is not
// configured.
func (s *SyncService) Autosave(ctx context.Context) error {
	creds := s.credentials(ctx, dto.Credentials{})
	if creds.Token == "" || creds.DocumentID == "" {
		s.Metrics.ObserveSave(metrics.ResultSkipped)
		return nil
	}
	return s.Save(ctx, dto.SaveOptions{Silent: true})
}

// AutosaveAsync starts an Autosave that outlives the caller's cancellation
// but keeps its logger.
func (s *SyncService) AutosaveAsync(ctx context.Context) {
	bg := context.WithoutCancel(ctx)
	// Counted before the goroutine starts so an auto-refresh arriving in
	// between still sees the outstanding push.
	s.saving.Add(1)
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		defer s.saving.Add(-1)
		if err := s.Autosave(bg); err != nil {
			s.LogWarn(bg, "Background autosave failed", slog.String("error", err.Error()))
		}
	}()
}

// Wait blocks until every background autosave has finished.
func (s *SyncService) Wait() {
	s.pending.Wait()
}

// Load pulls the remote document and replaces the local one wholesale.
// A payload that does not parse leaves the local document untouched.
func (s *SyncService) Load(ctx context.Context, opts dto.LoadOptions) error {
	creds := s.credentials(ctx, opts.Credentials)
	if creds.DocumentID == "" {
		return s.precondition(ctx, opts.Silent, "Missing document ID")
	}
	if creds.Token == "" {
		return s.precondition(ctx, opts.Silent, "Missing access token")
	}

	s.flight.Lock()
	defer s.flight.Unlock()

	if !opts.Silent {
		s.setStatus(dto.SyncLoading, "Loading from remote...", false)
	} else {
		s.setState(dto.SyncLoading)
	}

	remoteDoc, err := s.remote.Fetch(ctx, creds.Token, creds.DocumentID)
	if err != nil {
		s.Metrics.ObserveLoad(metrics.ResultFailure)
		s.LogError(ctx, err, "Remote load failed", slog.String("document_id", creds.DocumentID))
		s.setStatus(dto.SyncIdle, "Load failed: "+remoteMessage(err), true)
		return fmt.Errorf("load from remote store: %w", err)
	}

	file, ok := remoteDoc.File(PayloadFilename)
	if !ok {
		s.Metrics.ObserveLoad(metrics.ResultFailure)
		s.setStatus(dto.SyncIdle, "No files found in remote document", true)
		return fmt.Errorf("%w: remote document %s has no files", apperrors.ErrCorruptPayload, creds.DocumentID)
	}

	doc, err := domain.DecodeDocument([]byte(file.Content))
	if err != nil {
		s.Metrics.ObserveLoad(metrics.ResultFailure)
		s.LogError(ctx, err, "Remote payload is not a valid document", slog.String("file", file.Name))
		s.setStatus(dto.SyncIdle, "Invalid JSON in remote file", true)
		return fmt.Errorf("%w: %s: %v", apperrors.ErrCorruptPayload, file.Name, err)
	}

	s.state.Replace(doc, func(doc *domain.Document) {
		if err := s.local.SaveDocument(ctx, doc); err != nil {
			s.LogError(ctx, err, "Failed to persist loaded document locally")
		}
		s.Metrics.SetAvailable(derivation.Available(doc))
	})
	if err := s.local.SaveCredentials(ctx, creds); err != nil {
		s.LogError(ctx, err, "Failed to cache credentials after load")
	}
	s.Metrics.ObserveLoad(metrics.ResultSuccess)
	s.LogInfo(ctx, "Loaded document from remote store", slog.String("document_id", creds.DocumentID), slog.Bool("silent", opts.Silent))

	s.statusMu.Lock()
	s.status.DocumentID = creds.DocumentID
	s.status.LastLoadedAt = s.Now()
	s.statusMu.Unlock()
	s.setStatus(dto.SyncIdle, "Loaded data from remote", false)
	return nil
}

// LoadIfConfigured pulls once at start-up when both credentials are cached.
func (s *SyncService) LoadIfConfigured(ctx context.Context) error {
	if !s.HasCredentials(ctx) {
		return nil
	}
	return s.Load(ctx, dto.LoadOptions{Silent: true})
}

// ReloadLocal replaces the in-memory document with the cached one. A cache
// that is empty or does not parse keeps the current document.
func (s *SyncService) ReloadLocal(ctx context.Context) error {
	doc, found, err := s.local.LoadDocument(ctx)
	if err != nil {
		s.LogWarn(ctx, "Ignoring unreadable local document", slog.String("error", err.Error()))
		return err
	}
	if !found {
		return nil
	}
	s.state.Replace(doc, func(doc *domain.Document) {
		s.Metrics.SetAvailable(derivation.Available(doc))
	})
	s.LogInfo(ctx, "Reloaded document written by another process")
	return nil
}

// Status reports the last sync outcome.
func (s *SyncService) Status(ctx context.Context) dto.SyncStatus {
	creds := s.credentials(ctx, dto.Credentials{})

	s.statusMu.Lock()
	status := s.status
	s.statusMu.Unlock()

	status.DocumentID = creds.DocumentID
	status.HasToken = creds.Token != ""
	status.Saving = s.saving.Load() > 0
	return status
}

// SetCredentials stores the document id and access token.
func (s *SyncService) SetCredentials(ctx context.Context, creds dto.Credentials) error {
	if creds.DocumentID == "" && creds.Token == "" {
		return apperrors.Validationf("enter a document ID or an access token")
	}
	if err := s.local.SaveCredentials(ctx, creds); err != nil {
		s.LogError(ctx, err, "Failed to store credentials")
		return err
	}
	return nil
}

// SaveInFlight reports whether a push is outstanding.
func (s *SyncService) SaveInFlight() bool {
	return s.saving.Load() > 0
}

// HasCredentials reports whether both a document id and a token are cached.
func (s *SyncService) HasCredentials(ctx context.Context) bool {
	creds := s.credentials(ctx, dto.Credentials{})
	return creds.DocumentID != "" && creds.Token != ""
}

func (s *SyncService) precondition(ctx context.Context, silent bool, msg string) error {
	if !silent {
		s.setStatus(dto.SyncIdle, msg, true)
	}
	s.LogDebug(ctx, "Sync precondition failed", slog.String("reason", msg))
	return fmt.Errorf("%w: %s", apperrors.ErrPrecondition, msg)
}

func (s *SyncService) setStatus(state dto.SyncState, msg string, isError bool) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status.State = state
	s.status.Message = msg
	s.status.IsError = isError
	s.status.UpdatedAt = s.Now()
}

func (s *SyncService) setState(state dto.SyncState) {
	s.statusMu.Lock()
	defer s.statusMu.Unlock()
	s.status.State = state
}

// remoteMessage prefers the message the remote store returned.
func remoteMessage(err error) string {
	var remoteErr *apperrors.RemoteError
	if errors.As(err, &remoteErr) {
		if remoteErr.Message != "" {
			return remoteErr.Message
		}
		if remoteErr.Err != nil {
			return "network error"
		}
	}
	return err.Error()
}
