// Package gcs implements the remote document store on a Google Cloud
// Storage bucket. A document is an object prefix; each file is one object.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/SscSPs/stack_budget/internal/apperrors"
	portsrepo "github.com/SscSPs/stack_budget/internal/core/ports/repositories"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// APIHost is the host the storage client talks to.
const APIHost = "storage.googleapis.com"

const descriptionMetadataKey = "description"

// Store keeps documents under <bucket>/<id>/<file>.
type Store struct {
	bucket  string
	options []option.ClientOption
}

// NewStore creates a store for bucket. Extra client options (an emulator
// endpoint, for instance) apply to every call.
func NewStore(bucket string, options ...option.ClientOption) *Store {
	return &Store{bucket: bucket, options: options}
}

var _ portsrepo.RemoteStore = (*Store)(nil)

// ObjectName is the object holding one file of a document.
func ObjectName(id, file string) string {
	return path.Join(id, file)
}

func (s *Store) client(ctx context.Context, token string) (*storage.Client, error) {
	opts := append([]option.ClientOption{
		option.WithTokenSource(oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})),
	}, s.options...)
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return client, nil
}

// Create writes the files under a fresh id.
func (s *Store) Create(ctx context.Context, token string, description string, files map[string]string) (string, error) {
	client, err := s.client(ctx, token)
	if err != nil {
		return "", &apperrors.RemoteError{Op: "create", Err: err}
	}
	defer client.Close()

	id := uuid.NewString()
	if err := s.write(ctx, client, id, description, files); err != nil {
		return "", remoteError("create", err)
	}
	return id, nil
}

// Replace overwrites the named files of an existing document.
func (s *Store) Replace(ctx context.Context, token string, id string, files map[string]string) error {
	client, err := s.client(ctx, token)
	if err != nil {
		return &apperrors.RemoteError{Op: "replace", Err: err}
	}
	defer client.Close()

	names, err := s.list(ctx, client, id)
	if err != nil {
		return remoteError("replace", err)
	}
	if len(names) == 0 {
		return notFound("replace")
	}
	if err := s.write(ctx, client, id, "", files); err != nil {
		return remoteError("replace", err)
	}
	return nil
}

// Fetch reads every file of a document in object-name order.
func (s *Store) Fetch(ctx context.Context, token string, id string) (*portsrepo.RemoteDocument, error) {
	client, err := s.client(ctx, token)
	if err != nil {
		return nil, &apperrors.RemoteError{Op: "fetch", Err: err}
	}
	defer client.Close()

	names, err := s.list(ctx, client, id)
	if err != nil {
		return nil, remoteError("fetch", err)
	}
	if len(names) == 0 {
		return nil, notFound("fetch")
	}

	doc := &portsrepo.RemoteDocument{ID: id, Files: make([]portsrepo.RemoteFile, 0, len(names))}
	bkt := client.Bucket(s.bucket)
	for _, name := range names {
		r, err := bkt.Object(name).ReadCompressed(false).NewReader(ctx)
		if err != nil {
			return nil, remoteError("fetch", err)
		}
		data, err := io.ReadAll(r)
		r.Close()
		if err != nil {
			return nil, remoteError("fetch", err)
		}
		doc.Files = append(doc.Files, portsrepo.RemoteFile{Name: path.Base(name), Content: string(data)})
	}
	return doc, nil
}

func (s *Store) write(ctx context.Context, client *storage.Client, id, description string, files map[string]string) error {
	bkt := client.Bucket(s.bucket)
	for name, content := range files {
		w := bkt.Object(ObjectName(id, name)).NewWriter(ctx)
		w.ContentType = "application/json"
		w.CacheControl = "no-cache"
		if description != "" {
			w.Metadata = map[string]string{descriptionMetadataKey: description}
		}
		if _, err := io.Copy(w, strings.NewReader(content)); err != nil {
			_ = w.Close()
			return fmt.Errorf("copy %s to GCS writer: %w", name, err)
		}
		// Close to finalize the upload
		if err := w.Close(); err != nil {
			return fmt.Errorf("finalize upload of %s: %w", name, err)
		}
	}
	return nil
}

func (s *Store) list(ctx context.Context, client *storage.Client, id string) ([]string, error) {
	it := client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: id + "/"})
	var names []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list objects of %s: %w", id, err)
		}
		names = append(names, attrs.Name)
	}
	return names, nil
}

func notFound(op string) error {
	return &apperrors.RemoteError{Op: op, StatusCode: http.StatusNotFound, Message: "Not Found"}
}

// remoteError keeps the status and message of API errors.
func remoteError(op string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		msg := apiErr.Message
		if msg == "" {
			msg = http.StatusText(apiErr.Code)
		}
		return &apperrors.RemoteError{Op: op, StatusCode: apiErr.Code, Message: msg}
	}
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return notFound(op)
	}
	return &apperrors.RemoteError{Op: op, Err: err}
}
