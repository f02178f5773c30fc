// Package drive implements driven.RemoteFileStore over the Google Drive v3
// API. It lists the PDFs directly inside one folder and streams their
// content, pacing every request through the shared Drive rate limiter.
package drive
