// Package memory provides an in-memory document source. It backs unit
// tests for the sync pipeline and serves as the reference
// DocumentSource implementation: per-user document sets that can be
// mutated between scan cycles.
package memory

import (
	"context"
	"sync"

	"github.com/halcyon-labs/nextfind/internal/core/domain"
	"github.com/halcyon-labs/nextfind/internal/core/ports/driven"
)

// Ensure Source implements the interface.
var _ driven.DocumentSource = (*Source)(nil)

// Document is a stored document: listing metadata plus content.
type Document struct {
	Doc     driven.SourceDocument
	Content driven.DocumentContent
}

// Source holds per-user document sets guarded by a mutex.
type Source struct {
	docType domain.DocType

	mu   sync.RWMutex
	docs map[string]map[string]Document // userID -> docID -> document

	// Hooks let tests inject failures; nil hooks are skipped.
	ListErr   error
	FetchErr  error
	VerifyErr error
}

// NewSource creates an empty source serving the given document type.
func NewSource(docType domain.DocType) *Source {
	return &Source{
		docType: docType,
		docs:    make(map[string]map[string]Document),
	}
}

// Put adds or replaces a document for a user.
func (s *Source) Put(userID string, doc driven.SourceDocument, content driven.DocumentContent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.docs[userID] == nil {
		s.docs[userID] = make(map[string]Document)
	}
	s.docs[userID][doc.ID] = Document{Doc: doc, Content: content}
}

// Remove deletes a document, simulating source-side deletion.
func (s *Source) Remove(userID, docID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs[userID], docID)
}

// Type returns the document type this source serves.
func (s *Source) Type() domain.DocType {
	return s.docType
}

// List enumerates the user's current documents.
func (s *Source) List(_ context.Context, userID string) ([]driven.SourceDocument, error) {
	if s.ListErr != nil {
		return nil, s.ListErr
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]driven.SourceDocument, 0, len(s.docs[userID]))
	for _, d := range s.docs[userID] {
		out = append(out, d.Doc)
	}
	return out, nil
}

// Fetch retrieves one document's content. Returns domain.ErrNotFound
// if the document is absent.
func (s *Source) Fetch(_ context.Context, userID string, task domain.DocumentTask) (driven.DocumentContent, error) {
	if s.FetchErr != nil {
		return driven.DocumentContent{}, s.FetchErr
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.docs[userID][task.DocID]
	if !ok {
		return driven.DocumentContent{}, domain.ErrNotFound
	}
	return d.Content, nil
}

// Verify reports whether the document currently exists for the user.
func (s *Source) Verify(_ context.Context, userID, docID string) (bool, error) {
	if s.VerifyErr != nil {
		return false, s.VerifyErr
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.docs[userID][docID]
	return ok, nil
}
