package services

import (
	"errors"
	"sync"

	"github.com/SscSPs/stack_budget/internal/core/domain"
)

// errNoChange aborts an Update without an error reaching the caller.
var errNoChange = errors.New("no change")

// State owns the single in-memory Document. All access goes through its
// lock, so a mutation is observed either completely or not at all.
type State struct {
	mu  sync.Mutex
	doc *domain.Document
}

// NewState wraps doc, or the empty default when doc is nil.
func NewState(doc *domain.Document) *State {
	if doc == nil {
		doc = domain.NewDocument()
	}
	return &State{doc: doc}
}

// Snapshot returns a deep copy of the document.
func (s *State) Snapshot() *domain.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// Read runs fn against the live document under the lock. fn must not
// retain or modify doc.
func (s *State) Read(fn func(doc *domain.Document)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.doc)
}

// Update runs fn against a copy of the document and swaps the copy in when
// fn succeeds, so a failed or aborted mutation leaves the document
// untouched. Returning errNoChange aborts silently. commit, when set, runs
// under the same lock after the swap.
func (s *State) Update(fn func(doc *domain.Document) error, commit func(doc *domain.Document)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.doc.Clone()
	if err := fn(next); err != nil {
		if errors.Is(err, errNoChange) {
			return false, nil
		}
		return false, err
	}
	s.doc = next
	if commit != nil {
		commit(next)
	}
	return true, nil
}

// Replace swaps in a new document wholesale.
func (s *State) Replace(doc *domain.Document, commit func(doc *domain.Document)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
	if commit != nil {
		commit(doc)
	}
}
