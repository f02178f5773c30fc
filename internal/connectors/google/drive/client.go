package drive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"github.com/LeonardSibelius/engineroom-ai/internal/connectors/google"
	"github.com/LeonardSibelius/engineroom-ai/internal/core/domain"
	"github.com/LeonardSibelius/engineroom-ai/internal/core/ports/driven"
)

// Ensure Client implements the interface.
var _ driven.RemoteFileStore = (*Client)(nil)

// Client lists and downloads Drive files.
type Client struct {
	svc         *drive.Service
	config      *Config
	rateLimiter *google.RateLimiter
}

// NewClient creates a Drive client. A nil config or limiter uses the defaults.
func NewClient(svc *drive.Service, cfg *Config, limiter *google.RateLimiter) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if limiter == nil {
		limiter = google.NewDriveRateLimiter()
	}
	return &Client{
		svc:         svc,
		config:      cfg,
		rateLimiter: limiter,
	}
}

// ListFiles returns every non-trashed file of mimeType directly inside
// folderID, following page tokens until the listing is exhausted.
func (c *Client) ListFiles(ctx context.Context, folderID, mimeType string) ([]domain.RemoteFile, error) {
	if folderID == "" {
		return nil, fmt.Errorf("%w: folder id is required", domain.ErrInvalidInput)
	}

	query := buildQuery(folderID, mimeType)
	var files []domain.RemoteFile
	pageToken := ""

	for {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return nil, err
		}

		call := c.svc.Files.List().
			Context(ctx).
			Q(query).
			Spaces("drive").
			Fields(listFields).
			PageSize(c.config.PageSize)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			return nil, c.handleError(fmt.Errorf("list files: %w", err))
		}

		for _, f := range resp.Files {
			files = append(files, toRemoteFile(f))
		}

		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	return files, nil
}

// Download streams the content of fileID into w.
func (c *Client) Download(ctx context.Context, fileID string, w io.Writer) error {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return err
	}

	resp, err := c.svc.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return c.handleError(fmt.Errorf("download file %s: %w", fileID, err))
	}
	defer resp.Body.Close()

	if _, err := io.Copy(w, resp.Body); err != nil {
		return fmt.Errorf("read file %s: %w", fileID, err)
	}
	return nil
}

// handleError records rate limit backoff and maps API errors to the
// package sentinels.
func (c *Client) handleError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusTooManyRequests {
		c.rateLimiter.RecordRateLimitError(retryAfter(gerr.Header))
	}
	return google.WrapError(err)
}

// retryAfter reads a Retry-After header given in seconds.
func retryAfter(h http.Header) time.Duration {
	if h == nil {
		return 0
	}
	secs, err := strconv.Atoi(h.Get("Retry-After"))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
