// Package pdf provides a Normaliser implementation for PDF books.
// Text is extracted page by page in pure Go; no external tools are needed.
package pdf
