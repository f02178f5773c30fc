// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - VectorStore / Collection: Named collections of embedded chunks (sqlite, memory)
//   - EmbeddingService: The collection's embedding function (Ollama, OpenAI)
//   - Normaliser / NormaliserRegistry: Text extraction from PDF and HTML
//   - PostProcessor / PostProcessorPipeline: Chunking
//   - LocalLibrary: Local PDF directories (listing, watching)
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the owning operation fails with a domain error instead:
//
//   - RemoteFileStore: Google Drive listing and download. Only needed for --sync-drive.
//   - Fetcher: HTTP GET for web articles. Only needed for --add-article.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
