package repositories

import (
	"context"
)

// RemoteFile is one named file of a remote document.
type RemoteFile struct {
	Name    string
	Content string
}

// RemoteDocument is a fetched remote document. Files keep the order the
// store returned them in.
type RemoteDocument struct {
	ID    string
	Files []RemoteFile
}

// File returns the named file, falling back to the first file present when
// the name is absent. ok is false for a document without files.
func (d *RemoteDocument) File(name string) (RemoteFile, bool) {
	if d == nil || len(d.Files) == 0 {
		return RemoteFile{}, false
	}
	for _, f := range d.Files {
		if f.Name == name {
			return f, true
		}
	}
	return d.Files[0], true
}

// RemoteStore is the hosted document store used for cross-device sync.
// Every call authenticates with the given bearer token.
type RemoteStore interface {
	// Create stores a new private document and returns its id.
	Create(ctx context.Context, token string, description string, files map[string]string) (string, error)
	// Replace overwrites the named files of an existing document.
	Replace(ctx context.Context, token string, id string, files map[string]string) error
	// Fetch retrieves a document, bypassing any caches.
	Fetch(ctx context.Context, token string, id string) (*RemoteDocument, error)
}
