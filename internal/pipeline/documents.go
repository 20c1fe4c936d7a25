package pipeline

import (
	"container/list"
	"errors"
	"sync"
	"time"
	"unicode/utf8"
)

// ErrDocumentNotFound is returned for unknown or expired document IDs.
var ErrDocumentNotFound = errors.New("document not found")

// StoredDocument is extracted document text kept between requests.
type StoredDocument struct {
	ID         string    `json:"doc_id"`
	Title      string    `json:"title"`
	Filename   string    `json:"filename"`
	Format     string    `json:"format"`
	Pages      int       `json:"pages"`
	Chars      int       `json:"chars"`
	Text       string    `json:"-"`
	UploadedAt time.Time `json:"uploaded_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// DocumentStore is an in-memory LRU of documents with a per-entry TTL.
type DocumentStore struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
}

func NewDocumentStore(maxEntries int, ttl time.Duration) *DocumentStore {
	if maxEntries <= 0 {
		maxEntries = 64
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &DocumentStore{
		entries:    make(map[string]*list.Element, maxEntries),
		order:      list.New(),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Put stores doc under doc.ID, replacing any previous entry, and returns
// the stored copy with Chars and timestamps filled in.
func (s *DocumentStore) Put(doc StoredDocument) StoredDocument {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	doc.Chars = utf8.RuneCountInString(doc.Text)
	doc.UploadedAt = now
	doc.ExpiresAt = now.Add(s.ttl)

	if elem, ok := s.entries[doc.ID]; ok {
		elem.Value = &doc
		s.order.MoveToFront(elem)
	} else {
		s.entries[doc.ID] = s.order.PushFront(&doc)
	}

	s.evictExpiredLocked(now)
	for len(s.entries) > s.maxEntries {
		s.removeLocked(s.order.Back())
	}
	return doc
}

// Get returns the document and marks it recently used.
func (s *DocumentStore) Get(id string) (StoredDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.entries[id]
	if !ok {
		return StoredDocument{}, ErrDocumentNotFound
	}
	doc := elem.Value.(*StoredDocument)
	if s.now().After(doc.ExpiresAt) {
		s.removeLocked(elem)
		return StoredDocument{}, ErrDocumentNotFound
	}
	s.order.MoveToFront(elem)
	return *doc, nil
}

// Delete removes a document. It reports whether the document existed.
func (s *DocumentStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.entries[id]
	if !ok {
		return false
	}
	s.removeLocked(elem)
	return true
}

// Len returns the number of stored documents, expired ones included until
// the next sweep.
func (s *DocumentStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Cleanup drops expired documents.
func (s *DocumentStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictExpiredLocked(s.now())
}

func (s *DocumentStore) evictExpiredLocked(now time.Time) {
	for elem := s.order.Back(); elem != nil; {
		prev := elem.Prev()
		if now.After(elem.Value.(*StoredDocument).ExpiresAt) {
			s.removeLocked(elem)
		}
		elem = prev
	}
}

func (s *DocumentStore) removeLocked(elem *list.Element) {
	if elem == nil {
		return
	}
	delete(s.entries, elem.Value.(*StoredDocument).ID)
	s.order.Remove(elem)
}
