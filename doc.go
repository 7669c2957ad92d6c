// Package canon renders Java annotations in a canonical textual form so that
// two annotations meaning the same thing against the same codebase compare
// equal as strings, however they were written in source.
//
// # Pipeline
//
// Canon operates in two phases:
//
//  1. Index: For each source file, parse with tree-sitter and write its
//     declarations and annotation sites to SQLite. Unchanged files are
//     skipped by content hash.
//
//  2. Canonicalize: Re-parse every indexed file, build an in-memory
//     codebase from all of them, and serialize each annotation with a
//     [Serializer]. Canonical text and per-declaration signature hashes are
//     stored and tagged with the run that produced them.
//
// # Canonical Form
//
// The [Serializer] writes annotation names through a naming policy, omits
// the default attribute name when it is the only attribute, keeps attribute
// order, and prints literals with their Java type markers (1L, 1.5f,
// (short) 3). References to public constants stay symbolic as qualified
// names; constants outside the public surface are replaced by their value.
// A value the serializer cannot resolve or evaluate is written as it
// appears in source.
//
// # Usage
//
//	e, err := canon.New("canon.db")
//	if err != nil { ... }
//	defer e.Close()
//
//	ctx := context.Background()
//	err = e.IndexDirectory(ctx, "path/to/project")
//	report, err := e.Canonicalize(ctx)
//
//	sig, err := e.Query().Signature()
//
// # Query API
//
// The [QueryBuilder] returned by [Engine.Query] provides:
//
//   - [QueryBuilder.Annotations]: filtered, paginated annotation listing.
//   - [QueryBuilder.AnnotationsOn]: annotations of one declaration or parameter.
//   - [QueryBuilder.Signature]: the public API surface with canonical
//     annotations, suitable for diffing between runs.
package canon
