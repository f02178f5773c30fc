package driven

import (
	"context"

	"github.com/LeonardSibelius/engineroom-ai/internal/core/domain"
)

// Fetcher retrieves a web page.
type Fetcher interface {
	// Fetch performs an HTTP GET. Network failures and non-2xx
	// responses are reported as domain.ErrFetch.
	Fetch(ctx context.Context, url string) (*domain.FetchResponse, error)
}
