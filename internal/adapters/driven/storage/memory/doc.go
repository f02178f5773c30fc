// Package memory provides an in-memory implementation of the vector store
// port. Nothing is persisted; service tests use it in place of the sqlite
// store.
package memory
