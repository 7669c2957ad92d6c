package canon

import "github.com/jward/canon/internal/store"

// Public type aliases for internal store types used in the QueryBuilder API.
// They are identical to the internal types, so no conversion is needed.

type Store = store.Store
type File = store.File
type Declaration = store.Declaration
type Annotation = store.Annotation
type Run = store.Run
