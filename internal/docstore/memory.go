package docstore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore est une implémentation en mémoire du Store, utilisée par les
// tests et le mode développement (pas de document store externe à portée).
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]map[string]any

	// FailWith, si non nil, est consulté avant chaque opération et permet aux
	// tests d'injecter des pannes partielles. op ∈ {get,set,delete,list,query}.
	FailWith func(op, collection, id string) error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string]map[string]any)}
}

func (s *MemoryStore) fail(op, collection, id string) error {
	if s.FailWith != nil {
		return s.FailWith(op, collection, id)
	}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (map[string]any, bool, error) {
	if err := s.fail("get", collection, id); err != nil {
		return nil, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.collections[collection][id]
	if !ok {
		return nil, false, nil
	}
	return copyDoc(doc), true, nil
}

func (s *MemoryStore) Set(ctx context.Context, collection, id string, data map[string]any) error {
	if err := s.fail("set", collection, id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collections[collection] == nil {
		s.collections[collection] = make(map[string]map[string]any)
	}
	s.collections[collection][id] = copyDoc(data)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	if err := s.fail("delete", collection, id); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections[collection], id)
	return nil
}

func (s *MemoryStore) List(ctx context.Context, collection string) ([]Document, error) {
	if err := s.fail("list", collection, ""); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	docs := make([]Document, 0, len(s.collections[collection]))
	for id, data := range s.collections[collection] {
		docs = append(docs, Document{ID: id, Data: copyDoc(data)})
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

func (s *MemoryStore) QueryEqual(ctx context.Context, collection, field string, value any) ([]Document, error) {
	if err := s.fail("query", collection, ""); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var docs []Document
	for id, data := range s.collections[collection] {
		if data[field] == value {
			docs = append(docs, Document{ID: id, Data: copyDoc(data)})
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].ID < docs[j].ID })
	return docs, nil
}

// Add insère un document sous un id généré, comme le ferait le client mobile.
func (s *MemoryStore) Add(ctx context.Context, collection string, data map[string]any) (string, error) {
	id := uuid.NewString()
	return id, s.Set(ctx, collection, id, data)
}

// Count renvoie la taille d'une collection (aide de test).
func (s *MemoryStore) Count(collection string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.collections[collection])
}

func copyDoc(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
