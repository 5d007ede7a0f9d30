package adapter

import (
	"context"
	"time"
)

// MIME types surfaced by the dashboard.
const (
	MIMETypePDF         = "application/pdf"
	MIMETypeDocument    = "application/vnd.google-apps.document"
	MIMETypeSpreadsheet = "application/vnd.google-apps.spreadsheet"
)

// SupportedMIMETypes is the fixed filter applied to every listing.
var SupportedMIMETypes = []string{MIMETypePDF, MIMETypeDocument, MIMETypeSpreadsheet}

var typeLabels = map[string]string{
	MIMETypePDF:         "PDF",
	MIMETypeDocument:    "Google Doc",
	MIMETypeSpreadsheet: "Google Sheet",
}

// TypeLabel returns the human-readable label for a MIME type. Unknown types
// are returned unchanged.
func TypeLabel(mimeType string) string {
	if label, ok := typeLabels[mimeType]; ok {
		return label
	}
	return mimeType
}

// FileMetadata represents metadata about a file stored in the cloud storage.
type FileMetadata struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	MIMEType     string    `json:"mimeType"`
	ModifiedTime time.Time `json:"modifiedTime"`
	WebViewLink  string    `json:"webViewLink"`
}

// ListOptions narrows a listing.
type ListOptions struct {
	// MIMETypes restricts results to these types. Empty means no filter.
	MIMETypes []string
	// PageSize caps the number of returned files.
	PageSize int64
}

// StorageAdapter lists files from a cloud storage service on behalf of one
// credential holder.
type StorageAdapter interface {
	// ListFiles lists the most recently modified files matching opts.
	ListFiles(ctx context.Context, opts ListOptions) ([]FileMetadata, error)
}
