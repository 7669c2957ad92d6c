package store

import "sync"

// BatchedStore buffers extraction inserts in memory using fake (negative)
// IDs. It implements DataStore so the indexer can write to it without
// knowing whether it is hitting SQLite or an in-memory buffer.
//
// Thread safety: the mutex protects fake ID allocation and slice appends.
// Read queries are passed through to the underlying Store, which is safe
// for concurrent reads.
type BatchedStore struct {
	store *Store // for read passthrough
	mu    sync.Mutex

	Declarations []Declaration
	Annotations  []Annotation

	nextFakeID int64 // starts at -1, decrements
}

// Compile-time check: *BatchedStore satisfies DataStore.
var _ DataStore = (*BatchedStore)(nil)

// NewBatchedStore creates a BatchedStore backed by the given Store for read queries.
func NewBatchedStore(s *Store) *BatchedStore {
	return &BatchedStore{
		store:      s,
		nextFakeID: -1,
	}
}

func (b *BatchedStore) allocFakeID() int64 {
	id := b.nextFakeID
	b.nextFakeID--
	return id
}

func (b *BatchedStore) InsertDeclaration(d *Declaration) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	d.ID = fakeID
	b.Declarations = append(b.Declarations, *d)
	return fakeID, nil
}

func (b *BatchedStore) InsertAnnotation(ann *Annotation) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fakeID := b.allocFakeID()
	ann.ID = fakeID
	b.Annotations = append(b.Annotations, *ann)
	return fakeID, nil
}

// DeclarationsByName passes through to the underlying Store, then adds any
// buffered declarations with the same name.
func (b *BatchedStore) DeclarationsByName(qualifiedName string) ([]*Declaration, error) {
	decls, err := b.store.DeclarationsByName(qualifiedName)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.Declarations {
		if b.Declarations[i].QualifiedName == qualifiedName {
			decls = append(decls, &b.Declarations[i])
		}
	}
	return decls, nil
}

// DeclarationsByFile returns declarations for a file, merging any buffered
// (not yet committed) declarations with those already in the database.
func (b *BatchedStore) DeclarationsByFile(fileID int64) ([]*Declaration, error) {
	decls, err := b.store.DeclarationsByFile(fileID)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range b.Declarations {
		if b.Declarations[i].FileID == fileID {
			decls = append(decls, &b.Declarations[i])
		}
	}
	return decls, nil
}
