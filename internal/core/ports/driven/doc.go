// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - RemoteSource: Fetches database metadata, records and child blocks
//   - SourceStore: Source database configuration persistence
//   - MirrorStore: Relational projection reads and mutation application
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
//   - BlobRelay: Re-uploads remote files to durable URLs. Without it,
//     files fields are skipped with a warning.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
