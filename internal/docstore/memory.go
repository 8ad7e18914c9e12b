package docstore

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is an in-process Store for tests and local tooling.
type MemoryStore struct {
	mu         sync.RWMutex
	documents  map[Path]Document
	clock      func() time.Time
	readError  error
	writeError error
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		documents: make(map[Path]Document),
		clock:     time.Now,
	}
}

// FailReads makes every subsequent read return err; nil restores normal behaviour.
func (store *MemoryStore) FailReads(err error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.readError = err
}

// FailWrites makes every subsequent write return err; nil restores normal behaviour.
func (store *MemoryStore) FailWrites(err error) {
	store.mu.Lock()
	defer store.mu.Unlock()
	store.writeError = err
}

// Len returns the number of stored documents.
func (store *MemoryStore) Len() int {
	store.mu.RLock()
	defer store.mu.RUnlock()
	return len(store.documents)
}

func (store *MemoryStore) Get(_ context.Context, path Path) (Document, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()
	if store.readError != nil {
		return Document{}, newServiceError(opGet, reasonInjectedFailure, store.readError)
	}
	document, ok := store.documents[path]
	if !ok {
		return Document{}, newServiceError(opGet, reasonNotFound, ErrNotFound)
	}
	return copyDocument(document), nil
}

func (store *MemoryStore) Set(_ context.Context, path Path, value json.RawMessage) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.writeError != nil {
		return newServiceError(opSet, reasonInjectedFailure, store.writeError)
	}
	if path == "" {
		return newServiceError(opSet, reasonInvalidPath, ErrInvalidPath)
	}
	if err := validateValue(value); err != nil {
		return newServiceError(opSet, reasonInvalidValue, err)
	}
	store.documents[path] = Document{
		Path:             path,
		Value:            append(json.RawMessage(nil), value...),
		UpdatedAtSeconds: store.clock().UTC().Unix(),
	}
	return nil
}

func (store *MemoryStore) Delete(_ context.Context, path Path) error {
	store.mu.Lock()
	defer store.mu.Unlock()
	if store.writeError != nil {
		return newServiceError(opDelete, reasonInjectedFailure, store.writeError)
	}
	delete(store.documents, path)
	return nil
}

func (store *MemoryStore) List(_ context.Context, prefix Path) ([]Document, error) {
	store.mu.RLock()
	defer store.mu.RUnlock()
	if store.readError != nil {
		return nil, newServiceError(opList, reasonInjectedFailure, store.readError)
	}
	if prefix == "" {
		return nil, newServiceError(opList, reasonInvalidPath, ErrInvalidPath)
	}
	base := prefix.String() + pathSeparator
	documents := make([]Document, 0)
	for path, document := range store.documents {
		if strings.HasPrefix(path.String(), base) {
			documents = append(documents, copyDocument(document))
		}
	}
	sort.Slice(documents, func(i, j int) bool { return documents[i].Path < documents[j].Path })
	return documents, nil
}

func copyDocument(document Document) Document {
	document.Value = append(json.RawMessage(nil), document.Value...)
	return document
}
