package googledrive

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/arjunbector/OmniSearch/internal/adapter"
)

const listFields = "nextPageToken, files(id, name, mimeType, modifiedTime, webViewLink)"

// DriveAdapter implements adapter.StorageAdapter for Google Drive.
type DriveAdapter struct {
	service *drive.Service
	apiKey  string
}

// NewDriveAdapter creates a new DriveAdapter.
// client should already carry the user's credential. apiKey, when set, is
// sent as the key parameter for quota attribution.
func NewDriveAdapter(ctx context.Context, client *http.Client, apiKey string, opts ...option.ClientOption) (*DriveAdapter, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(client)}, opts...)
	srv, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Drive client: %w", err)
	}
	return &DriveAdapter{service: srv, apiKey: apiKey}, nil
}

// buildQuery restricts a listing to mimeTypes and excludes trashed files.
func buildQuery(mimeTypes []string) string {
	if len(mimeTypes) == 0 {
		return "trashed = false"
	}
	terms := make([]string, 0, len(mimeTypes))
	for _, m := range mimeTypes {
		terms = append(terms, fmt.Sprintf("mimeType = '%s'", strings.ReplaceAll(m, "'", `\'`)))
	}
	return fmt.Sprintf("(%s) and trashed = false", strings.Join(terms, " or "))
}

// ListFiles lists the most recently modified files matching opts.
func (d *DriveAdapter) ListFiles(ctx context.Context, opts adapter.ListOptions) ([]adapter.FileMetadata, error) {
	if opts.PageSize <= 0 {
		return nil, adapter.ErrInvalidPageSize
	}

	var callOpts []googleapi.CallOption
	if d.apiKey != "" {
		callOpts = append(callOpts, googleapi.QueryParameter("key", d.apiKey))
	}

	r, err := d.service.Files.List().
		Q(buildQuery(opts.MIMETypes)).
		PageSize(opts.PageSize).
		OrderBy("modifiedTime desc").
		Fields(googleapi.Field(listFields)).
		Context(ctx).
		Do(callOpts...)
	if err != nil {
		return nil, fmt.Errorf("unable to list files: %w", err)
	}

	files := make([]adapter.FileMetadata, 0, len(r.Files))
	for _, f := range r.Files {
		modTime, err := time.Parse(time.RFC3339, f.ModifiedTime)
		if err != nil {
			log.Printf("Drive file %s has malformed modifiedTime %q: %v", f.Id, f.ModifiedTime, err)
		}
		files = append(files, adapter.FileMetadata{
			ID:           f.Id,
			Name:         f.Name,
			MIMEType:     f.MimeType,
			ModifiedTime: modTime,
			WebViewLink:  f.WebViewLink,
		})
	}
	return files, nil
}
