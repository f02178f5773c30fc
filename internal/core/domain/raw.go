package domain

// RawDocument represents opaque content handed to an extractor.
// For local files Content may be nil and URI is the path on disk;
// for fetched pages Content holds the response body.
type RawDocument struct {
	// URI is the original location (file path, URL, etc).
	URI string

	// MIMEType is the content type (e.g., "application/pdf").
	MIMEType string

	// Content is the raw bytes.
	Content []byte

	// Metadata contains fetch-specific key-value pairs.
	Metadata map[string]any
}

// Common MIME types handled by the extractors.
const (
	MIMETypePDF  = "application/pdf"
	MIMETypeHTML = "text/html"
)

// FetchResponse is the result of an HTTP GET.
type FetchResponse struct {
	// URL is the final URL after redirects.
	URL string

	// Status is the HTTP status code.
	Status int

	// ContentType is the response Content-Type header.
	ContentType string

	// Body is the response payload.
	Body []byte
}
