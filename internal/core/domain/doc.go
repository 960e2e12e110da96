// Package domain defines the core business entities for pagemirror.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - SourceDatabase: A remote document database configured for mirroring
//   - RawRecord: A loosely-typed document fetched from the remote API
//   - NormalizedRecord: A record after variant normalisation
//   - PropertyEntity: A discrete option/value mirrored as its own row
//   - ItemEntity: A mirrored record with its attribute bag and relations
//   - MutationSet: The add/update/delete classification reconcilers emit
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
