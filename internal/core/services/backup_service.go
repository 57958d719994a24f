package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/SscSPs/stack_budget/internal/apperrors"
	"github.com/SscSPs/stack_budget/internal/core/derivation"
	"github.com/SscSPs/stack_budget/internal/core/domain"
	portssvc "github.com/SscSPs/stack_budget/internal/core/ports/services"
	"github.com/SscSPs/stack_budget/internal/dto"
	"github.com/SscSPs/stack_budget/internal/metrics"
)

const backupDateLayout = "2006-01-02"

// BackupService exports and imports the document as a JSON file.
type BackupService struct {
	BaseService
	state     *State
	local     *LocalPersistence
	autosaver Autosaver
}

// BackupOption is a functional option for configuring the backup service
type BackupOption func(*BackupService)

// WithBackupClock overrides the clock used to date export files.
func WithBackupClock(now func() time.Time) BackupOption {
	return func(s *BackupService) {
		s.Clock = now
	}
}

// WithBackupMetrics updates the available gauge after an import.
func WithBackupMetrics(m *metrics.Metrics) BackupOption {
	return func(s *BackupService) {
		s.Metrics = m
	}
}

// NewBackupService creates the backup service.
func NewBackupService(state *State, local *LocalPersistence, autosaver Autosaver, options ...BackupOption) *BackupService {
	svc := &BackupService{state: state, local: local, autosaver: autosaver}
	for _, option := range options {
		option(svc)
	}
	return svc
}

var _ portssvc.BackupSvc = (*BackupService)(nil)

// Export serializes the whole document under a dated file name.
func (s *BackupService) Export(ctx context.Context) (*dto.ExportResponse, error) {
	data, err := domain.EncodeDocumentIndent(s.state.Snapshot())
	if err != nil {
		s.LogError(ctx, err, "Failed to encode backup")
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}
	return &dto.ExportResponse{
		Filename: "stack-backup-" + s.Now().Format(backupDateLayout) + ".json",
		Content:  data,
	}, nil
}

// Import shallow-merges the top-level keys of data onto the document: keys
// in the file win, keys absent from it are kept.
func (s *BackupService) Import(ctx context.Context, data []byte, confirmed bool) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return fmt.Errorf("%w: backup must be a JSON object", apperrors.ErrCorruptPayload)
	}
	var patch map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &patch); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrCorruptPayload, err)
	}
	if !confirmed {
		return fmt.Errorf("%w: importing replaces current data", apperrors.ErrConfirmationRequired)
	}

	_, err := s.state.Update(func(doc *domain.Document) error {
		merged, err := domain.MergeTopLevel(doc, patch)
		if err != nil {
			return fmt.Errorf("%w: %v", apperrors.ErrCorruptPayload, err)
		}
		*doc = *merged
		return nil
	}, func(doc *domain.Document) {
		if err := s.local.SaveDocument(ctx, doc); err != nil {
			s.LogError(ctx, err, "Failed to persist imported document")
		}
		s.Metrics.SetAvailable(derivation.Available(doc))
	})
	if err != nil {
		s.LogWarn(ctx, "Import rejected", slog.String("error", err.Error()))
		return err
	}
	s.LogInfo(ctx, "Imported backup", slog.Int("keys", len(patch)))
	s.autosaver.AutosaveAsync(ctx)
	return nil
}
