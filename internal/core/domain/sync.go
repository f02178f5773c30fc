package domain

import (
	"strings"
	"time"
)

// RemoteFile is one entry of a remote folder listing.
type RemoteFile struct {
	// ID is the provider's file identifier.
	ID string

	// Name is the remote display name (not yet sanitised).
	Name string

	// Size is the byte size reported by the provider, 0 when unknown.
	Size int64

	// ModifiedTime is the RFC 3339 modification timestamp, may be empty.
	ModifiedTime string
}

// ParsedModifiedTime parses ModifiedTime as RFC 3339 (fractional seconds
// and a trailing "Z" are accepted). The bool is false when absent or invalid.
func (f RemoteFile) ParsedModifiedTime() (time.Time, bool) {
	if strings.TrimSpace(f.ModifiedTime) == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, f.ModifiedTime)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// LocalFile describes a cached copy on disk.
type LocalFile struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// Stale reports whether local is out of date with respect to remote: the
// remote size is known and differs, or the remote modification time is
// strictly newer. An unparsable remote time never makes a file stale.
func (f RemoteFile) Stale(local LocalFile) bool {
	if f.Size > 0 && local.Size != f.Size {
		return true
	}
	if remoteTime, ok := f.ParsedModifiedTime(); ok && remoteTime.After(local.ModTime) {
		return true
	}
	return false
}

// SyncAction is the decision taken for one remote file.
type SyncAction string

// Sync decisions.
const (
	SyncActionDownload SyncAction = "download"
	SyncActionSkip     SyncAction = "up-to-date"
)
