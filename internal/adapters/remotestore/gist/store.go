// Package gist implements the remote document store on the GitHub Gist API.
package gist

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/SscSPs/stack_budget/internal/apperrors"
	portsrepo "github.com/SscSPs/stack_budget/internal/core/ports/repositories"
	"golang.org/x/oauth2"
)

// DefaultBaseURL is the public GitHub API.
const DefaultBaseURL = "https://api.github.com"

const maxResponseBytes = 10 << 20

// Store talks to the Gist API. Each call authenticates with the token it
// is given, so one Store serves any account.
type Store struct {
	baseURL  string
	client   *http.Client
	now      func() time.Time
	maxBytes int64
}

// Option is a functional option for configuring the store
type Option func(*Store)

// WithHTTPClient replaces the transport client, e.g. for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(s *Store) {
		s.client = c
	}
}

// WithClock overrides the clock used for cache-busting fetch parameters.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithMaxResponseBytes caps the size of any response body the store reads.
func WithMaxResponseBytes(n int64) Option {
	return func(s *Store) {
		s.maxBytes = n
	}
}

// NewStore creates a store for the API at baseURL.
func NewStore(baseURL string, timeout time.Duration, options ...Option) *Store {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	s := &Store{
		baseURL:  strings.TrimRight(baseURL, "/"),
		client:   &http.Client{Timeout: timeout},
		now:      time.Now,
		maxBytes: maxResponseBytes,
	}
	for _, option := range options {
		option(s)
	}
	return s
}

var _ portsrepo.RemoteStore = (*Store)(nil)

type fileContent struct {
	Content string `json:"content"`
}

type createRequest struct {
	Files       map[string]fileContent `json:"files"`
	Public      bool                   `json:"public"`
	Description string                 `json:"description"`
}

type updateRequest struct {
	Files map[string]fileContent `json:"files"`
}

type gistFile struct {
	Filename  string `json:"filename"`
	Content   string `json:"content"`
	Truncated bool   `json:"truncated"`
	RawURL    string `json:"raw_url"`
}

// orderedFiles decodes the files object keeping the order of its keys.
type orderedFiles []gistFile

func (o *orderedFiles) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("files: expected object, got %v", tok)
	}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := keyTok.(string)
		var f *gistFile
		if err := dec.Decode(&f); err != nil {
			return fmt.Errorf("file %s: %w", name, err)
		}
		if f == nil {
			continue
		}
		if f.Filename == "" {
			f.Filename = name
		}
		*o = append(*o, *f)
	}
	_, err = dec.Token()
	return err
}

type gistResponse struct {
	ID    string       `json:"id"`
	Files orderedFiles `json:"files"`
}

type errorResponse struct {
	Message string `json:"message"`
}

func toFiles(files map[string]string) map[string]fileContent {
	out := make(map[string]fileContent, len(files))
	for name, content := range files {
		out[name] = fileContent{Content: content}
	}
	return out
}

// Create stores a new private gist.
func (s *Store) Create(ctx context.Context, token string, description string, files map[string]string) (string, error) {
	body := createRequest{Files: toFiles(files), Public: false, Description: description}
	var resp gistResponse
	if err := s.do(ctx, token, "create", http.MethodPost, s.baseURL+"/gists", body, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", &apperrors.RemoteError{Op: "create", Message: "response carried no gist id"}
	}
	return resp.ID, nil
}

// Replace overwrites the named files of an existing gist.
func (s *Store) Replace(ctx context.Context, token string, id string, files map[string]string) error {
	body := updateRequest{Files: toFiles(files)}
	return s.do(ctx, token, "replace", http.MethodPatch, s.gistURL(id), body, nil)
}

// Fetch retrieves a gist, bypassing HTTP caches. Files the API truncated
// are fetched in full from their raw URL.
func (s *Store) Fetch(ctx context.Context, token string, id string) (*portsrepo.RemoteDocument, error) {
	url := s.gistURL(id) + "?t=" + strconv.FormatInt(s.now().UnixMilli(), 10)
	var resp gistResponse
	if err := s.do(ctx, token, "fetch", http.MethodGet, url, nil, &resp); err != nil {
		return nil, err
	}

	doc := &portsrepo.RemoteDocument{ID: resp.ID, Files: make([]portsrepo.RemoteFile, 0, len(resp.Files))}
	if doc.ID == "" {
		doc.ID = id
	}
	for _, f := range resp.Files {
		content := f.Content
		if f.Truncated && f.RawURL != "" {
			raw, err := s.fetchRaw(ctx, token, f.RawURL)
			if err != nil {
				return nil, err
			}
			content = raw
		}
		doc.Files = append(doc.Files, portsrepo.RemoteFile{Name: f.Filename, Content: content})
	}
	return doc, nil
}

func (s *Store) gistURL(id string) string {
	return s.baseURL + "/gists/" + id
}

// authClient returns a client that adds the bearer token to every request
// and reuses the store's transport and timeout.
func (s *Store) authClient(ctx context.Context, token string) *http.Client {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, s.client)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	client.Timeout = s.client.Timeout
	return client
}

func (s *Store) do(ctx context.Context, token, op, method, url string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("failed to build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Cache-Control", "no-cache")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := s.authClient(ctx, token).Do(req)
	if err != nil {
		return &apperrors.RemoteError{Op: op, Err: err}
	}
	defer res.Body.Close()

	data, err := s.readBody(op, res)
	if err != nil {
		return err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &apperrors.RemoteError{Op: op, StatusCode: res.StatusCode, Message: errorMessage(res, data)}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &apperrors.RemoteError{Op: op, StatusCode: res.StatusCode, Message: "unreadable response: " + err.Error()}
	}
	return nil
}

func (s *Store) fetchRaw(ctx context.Context, token, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build raw fetch request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache")
	res, err := s.authClient(ctx, token).Do(req)
	if err != nil {
		return "", &apperrors.RemoteError{Op: "fetch raw", Err: err}
	}
	defer res.Body.Close()

	data, err := s.readBody("fetch raw", res)
	if err != nil {
		return "", err
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", &apperrors.RemoteError{Op: "fetch raw", StatusCode: res.StatusCode, Message: errorMessage(res, data)}
	}
	return string(data), nil
}

// readBody reads at most maxBytes of the response. A longer body is an
// error rather than a silently truncated payload.
func (s *Store) readBody(op string, res *http.Response) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(res.Body, s.maxBytes+1))
	if err != nil {
		return nil, &apperrors.RemoteError{Op: op, Err: err}
	}
	if int64(len(data)) > s.maxBytes {
		return nil, &apperrors.RemoteError{
			Op:         op,
			StatusCode: res.StatusCode,
			Message:    fmt.Sprintf("response larger than %d bytes", s.maxBytes),
		}
	}
	return data, nil
}

// errorMessage prefers the API's message field over the status text.
func errorMessage(res *http.Response, body []byte) string {
	var e errorResponse
	if json.Unmarshal(body, &e) == nil && e.Message != "" {
		return e.Message
	}
	return http.StatusText(res.StatusCode)
}
