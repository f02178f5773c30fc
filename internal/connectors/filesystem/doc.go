// Package filesystem provides the local PDF library: listing the books
// directories and watching them for newly added files.
package filesystem
