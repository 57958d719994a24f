package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SscSPs/stack_budget/internal/apperrors"
	"github.com/SscSPs/stack_budget/internal/core/domain"
	portsrepo "github.com/SscSPs/stack_budget/internal/core/ports/repositories"
	"github.com/SscSPs/stack_budget/internal/dto"
)

// Keys of the local cache.
const (
	DocumentKey   = "budget_data_v1"
	DocumentIDKey = "budget_gist_id"
	TokenKey      = "budget_gist_token"
)

// LocalPersistence reads and writes the document and the remote
// credentials through a KeyValueStore.
type LocalPersistence struct {
	BaseService
	store portsrepo.KeyValueStore
}

// NewLocalPersistence creates the local persistence over store.
func NewLocalPersistence(store portsrepo.KeyValueStore) *LocalPersistence {
	return &LocalPersistence{store: store}
}

// LoadDocument reads and migrates the cached document. found is false when
// nothing was cached. An unparsable cache yields ErrCorruptPayload.
func (p *LocalPersistence) LoadDocument(ctx context.Context) (doc *domain.Document, found bool, err error) {
	raw, found, err := p.store.Get(ctx, DocumentKey)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read local document: %w", err)
	}
	if !found || raw == "" {
		return nil, false, nil
	}
	doc, err = domain.DecodeDocument([]byte(raw))
	if err != nil {
		return nil, true, fmt.Errorf("%w: local document: %v", apperrors.ErrCorruptPayload, err)
	}
	return doc, true, nil
}

// LoadDocumentOrDefault loads the cached document, keeping fallback when
// the cache is empty, unreadable or corrupt. Corruption is a warning.
func (p *LocalPersistence) LoadDocumentOrDefault(ctx context.Context, fallback *domain.Document) *domain.Document {
	doc, found, err := p.LoadDocument(ctx)
	switch {
	case err != nil:
		p.LogWarn(ctx, "Invalid local data, keeping in-memory document", slog.String("error", err.Error()))
		return fallback
	case !found:
		return fallback
	}
	return doc
}

// SaveDocument writes the document snapshot.
func (p *LocalPersistence) SaveDocument(ctx context.Context, doc *domain.Document) error {
	data, err := domain.EncodeDocument(doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	if err := p.store.Set(ctx, DocumentKey, string(data)); err != nil {
		return fmt.Errorf("failed to write local document: %w", err)
	}
	return nil
}

// Credentials returns the cached document id and access token.
func (p *LocalPersistence) Credentials(ctx context.Context) (dto.Credentials, error) {
	id, _, err := p.store.Get(ctx, DocumentIDKey)
	if err != nil {
		return dto.Credentials{}, fmt.Errorf("failed to read document id: %w", err)
	}
	token, _, err := p.store.Get(ctx, TokenKey)
	if err != nil {
		return dto.Credentials{}, fmt.Errorf("failed to read access token: %w", err)
	}
	return dto.Credentials{DocumentID: id, Token: token}, nil
}

// SaveCredentials writes the non-empty fields of creds.
func (p *LocalPersistence) SaveCredentials(ctx context.Context, creds dto.Credentials) error {
	if creds.DocumentID != "" {
		if err := p.store.Set(ctx, DocumentIDKey, creds.DocumentID); err != nil {
			return fmt.Errorf("failed to write document id: %w", err)
		}
	}
	if creds.Token != "" {
		if err := p.store.Set(ctx, TokenKey, creds.Token); err != nil {
			return fmt.Errorf("failed to write access token: %w", err)
		}
	}
	return nil
}
