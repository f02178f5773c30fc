package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/LeonardSibelius/engineroom-ai/internal/core/domain"
	"github.com/LeonardSibelius/engineroom-ai/internal/core/ports/driven"
	"github.com/LeonardSibelius/engineroom-ai/internal/core/ports/driving"
	"github.com/LeonardSibelius/engineroom-ai/internal/logger"
)

// Ensure Synchronizer implements the interface.
var _ driving.Synchronizer = (*Synchronizer)(nil)

const unknownPDFName = "unknown.pdf"

// Synchronizer mirrors the PDFs of a remote folder into a local directory.
type Synchronizer struct {
	store driven.RemoteFileStore
}

// NewSynchronizer creates a synchronizer backed by store. A nil store makes
// every Sync fail with ErrSync, which is how a missing Drive token surfaces.
func NewSynchronizer(store driven.RemoteFileStore) *Synchronizer {
	return &Synchronizer{store: store}
}

// Sync downloads new or changed PDFs from folderID into destDir and returns
// the local path of every remote PDF in listing order.
func (s *Synchronizer) Sync(ctx context.Context, folderID, destDir string, force bool) ([]string, error) {
	if strings.TrimSpace(folderID) == "" {
		return nil, fmt.Errorf("%w: no Drive folder id configured", domain.ErrSync)
	}
	if s.store == nil {
		return nil, fmt.Errorf("%w: Drive client not configured", domain.ErrSync)
	}

	logger.Info("Syncing PDFs from Google Drive folder: %s", folderID)

	files, err := s.store.ListFiles(ctx, folderID, domain.MIMETypePDF)
	if err != nil {
		return nil, fmt.Errorf("%w: list folder %s: %w", domain.ErrSync, folderID, err)
	}

	if len(files) == 0 {
		logger.Info("No PDFs found in that Drive folder.")
		return []string{}, nil
	}

	sort.SliceStable(files, func(i, j int) bool {
		return strings.ToLower(files[i].Name) < strings.ToLower(files[j].Name)
	})

	logger.Info("Found %d PDF(s) in Drive.", len(files))

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %w", domain.ErrSync, destDir, err)
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := LocalPDFName(f.Name)
		dest := filepath.Join(destDir, name)

		if DecideSync(f, dest, force) == domain.SyncActionDownload {
			logger.Info("  Downloading: %s", name)
			if err := s.download(ctx, f.ID, dest); err != nil {
				return nil, fmt.Errorf("%w: download %s: %w", domain.ErrSync, name, err)
			}
		} else {
			logger.Info("  Up-to-date: %s", name)
		}

		paths = append(paths, dest)
	}

	return paths, nil
}

// download writes the remote file to a temporary sibling of dest and
// renames it into place, so an interrupted transfer never leaves a
// truncated PDF behind.
func (s *Synchronizer) download(ctx context.Context, fileID, dest string) error {
	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*.pdf")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if err := s.store.Download(ctx, fileID, tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, dest); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return nil
}

// LocalPDFName derives the cache file name for a remote file name.
func LocalPDFName(remoteName string) string {
	name := domain.SafeFilename(remoteName)
	if name == "" {
		return unknownPDFName
	}
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name += ".pdf"
	}
	return name
}

// DecideSync reports whether remote must be downloaded to localPath.
//
// A file is downloaded when forced, when no local copy exists, or when the
// local copy is stale (see domain.RemoteFile.Stale).
func DecideSync(remote domain.RemoteFile, localPath string, force bool) domain.SyncAction {
	if force {
		return domain.SyncActionDownload
	}

	info, err := os.Stat(localPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug("sync: %s missing locally", localPath)
		} else {
			logger.Debug("sync: stat %s: %v", localPath, err)
		}
		return domain.SyncActionDownload
	}

	local := domain.LocalFile{Path: localPath, Size: info.Size(), ModTime: info.ModTime()}
	if remote.Stale(local) {
		logger.Debug("sync: %s (%d bytes, %s) is stale against remote (%d bytes, %s)",
			local.Path, local.Size, local.ModTime.UTC().Format(time.RFC3339), remote.Size, remote.ModifiedTime)
		return domain.SyncActionDownload
	}

	return domain.SyncActionSkip
}
