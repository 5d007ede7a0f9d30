package handler

import (
	"context"
	"errors"
	"log"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"github.com/arjunbector/OmniSearch/internal/adapter"
	"github.com/arjunbector/OmniSearch/internal/auth"
	"github.com/arjunbector/OmniSearch/internal/config"
	"github.com/arjunbector/OmniSearch/internal/metrics"
	"github.com/arjunbector/OmniSearch/internal/model"
)

// DriveHandler lists the caller's documents.
type DriveHandler struct {
	storageProvider adapter.StorageProvider
	settings        config.Settings
	metrics         *metrics.Metrics
}

// NewDriveHandler creates a new DriveHandler. m may be nil.
func NewDriveHandler(sp adapter.StorageProvider, settings config.Settings, m *metrics.Metrics) *DriveHandler {
	return &DriveHandler{storageProvider: sp, settings: settings, metrics: m}
}

// ListFiles lists PDFs, Docs and Sheets, most recently modified first.
func (h *DriveHandler) ListFiles(ctx context.Context, req events.APIGatewayProxyRequest, token string) (events.APIGatewayProxyResponse, error) {
	backend := "google"
	if h.settings.DemoMode && auth.IsDemoToken(token) {
		backend = "memory"
	}

	storage, err := h.storageProvider.GetAdapter(ctx, token)
	if errors.Is(err, adapter.ErrInvalidCredential) {
		log.Printf("GetAdapter rejected token %s: %v", redact(token), err)
		h.metrics.RecordDriveList(backend, "rejected")
		return ErrorResponse(Unauthenticated()), nil
	}
	if err != nil {
		log.Printf("GetAdapter error: %v", err)
		h.metrics.RecordDriveList(backend, "error")
		return ErrorResponse(UpstreamFailed(err.Error())), nil
	}

	files, err := storage.ListFiles(ctx, adapter.ListOptions{
		MIMETypes: adapter.SupportedMIMETypes,
		PageSize:  h.settings.DrivePageSize,
	})
	if err != nil {
		log.Printf("ListFiles error for token %s: %v", redact(token), err)
		h.metrics.RecordDriveList(backend, "error")
		return ErrorResponse(UpstreamFailed(err.Error())), nil
	}
	h.metrics.RecordDriveList(backend, "success")

	return JSONResponse(http.StatusOK, toFileList(files)), nil
}

func toFileList(files []adapter.FileMetadata) model.FileList {
	records := make([]model.FileRecord, 0, len(files))
	for _, f := range files {
		records = append(records, model.FileRecord{
			ID:       f.ID,
			Name:     f.Name,
			Type:     adapter.TypeLabel(f.MIMEType),
			Modified: f.ModifiedTime,
			ViewLink: f.WebViewLink,
		})
	}
	return model.FileList{Files: records}
}
