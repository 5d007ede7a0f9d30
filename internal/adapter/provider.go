package adapter

import (
	"context"
)

// StorageProvider builds a StorageAdapter for a bearer credential.
type StorageProvider interface {
	// GetAdapter returns a StorageAdapter that acts with accessToken.
	GetAdapter(ctx context.Context, accessToken string) (StorageAdapter, error)
}
