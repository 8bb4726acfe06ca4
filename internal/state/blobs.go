package state

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/google/uuid"

	"github.com/werdnum/telegram-bot-api-mock/pkg/constants"
)

// Blob is uploaded or simulated media content
type Blob struct {
	Data     []byte
	Filename string
	MimeType string
}

// BlobStore keeps media in memory under random uuid keys. Nothing is evicted.
type BlobStore struct {
	mu    sync.RWMutex
	blobs map[string]Blob
}

// NewBlobStore creates an empty store
func NewBlobStore() *BlobStore {
	return &BlobStore{blobs: make(map[string]Blob)}
}

// Store saves the content and returns its file id
func (s *BlobStore) Store(data []byte, filename, mimeType string) string {
	id := uuid.NewString()

	s.mu.Lock()
	s.blobs[id] = Blob{Data: data, Filename: filename, MimeType: mimeType}
	s.mu.Unlock()

	return id
}

// Get returns the blob stored under id
func (s *BlobStore) Get(id string) (Blob, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.blobs[id]
	return b, ok
}

// Delete removes id and reports whether it was present
func (s *BlobStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.blobs[id]; !ok {
		return false
	}
	delete(s.blobs, id)
	return true
}

// Clear removes every blob
func (s *BlobStore) Clear() {
	s.mu.Lock()
	s.blobs = make(map[string]Blob)
	s.mu.Unlock()
}

// Count returns the number of stored blobs
func (s *BlobStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

// FileUniqueID derives the stable file_unique_id shown next to a file id
func FileUniqueID(fileID string) string {
	sum := sha256.Sum256([]byte(fileID))
	return hex.EncodeToString(sum[:])[:constants.FileUniqueIDLength]
}
