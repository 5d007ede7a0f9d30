package googledrive

import (
	"context"
	"fmt"

	"google.golang.org/api/option"

	"github.com/arjunbector/OmniSearch/internal/adapter"
	"github.com/arjunbector/OmniSearch/internal/auth"
)

// Provider implements adapter.StorageProvider for Google Drive.
type Provider struct {
	apiKey  string
	options []option.ClientOption
}

// NewProvider creates a new Google Drive provider. options are passed to the
// Drive client, e.g. to override the endpoint.
func NewProvider(apiKey string, options ...option.ClientOption) *Provider {
	return &Provider{apiKey: apiKey, options: options}
}

// GetAdapter returns a DriveAdapter acting with accessToken.
func (p *Provider) GetAdapter(ctx context.Context, accessToken string) (adapter.StorageAdapter, error) {
	if accessToken == "" {
		return nil, adapter.ErrEmptyCredential
	}

	storage, err := NewDriveAdapter(ctx, auth.HTTPClient(ctx, accessToken), p.apiKey, p.options...)
	if err != nil {
		return nil, fmt.Errorf("failed to create drive adapter: %w", err)
	}
	return storage, nil
}
