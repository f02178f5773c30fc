// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
//   - Synchronizer mirrors a Drive folder into a local cache
//   - IngestService rebuilds the collection or adds single documents
//   - RetrievalService answers queries with source attribution
//   - Watcher feeds newly dropped PDFs to IngestService
//
// Services are pure Go with no CGO or external dependencies.
package services
