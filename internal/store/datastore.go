package store

// DataStore is the interface for extraction-phase data access. Both Store
// (direct SQLite) and BatchedStore (in-memory buffering for parallel
// extraction) implement this interface.
type DataStore interface {
	// Extraction inserts. Each returns the assigned ID.
	InsertDeclaration(d *Declaration) (int64, error)
	InsertAnnotation(ann *Annotation) (int64, error)

	// Queries needed for cross-file lookups.
	DeclarationsByName(qualifiedName string) ([]*Declaration, error)
	DeclarationsByFile(fileID int64) ([]*Declaration, error)
}

// Compile-time check: *Store satisfies DataStore.
var _ DataStore = (*Store)(nil)
