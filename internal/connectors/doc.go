// Package connectors holds the adapters that reach document sources: the
// local books directory, Google Drive and the web.
package connectors
