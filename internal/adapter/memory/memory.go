package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/arjunbector/OmniSearch/internal/adapter"
)

// maxDemoItemCount bounds the files a demo session can hold.
const maxDemoItemCount = 50

// MemoryAdapter implements adapter.StorageAdapter over an in-process file set.
// It backs demo sessions and tests.
type MemoryAdapter struct {
	files map[string]adapter.FileMetadata
	mu    sync.RWMutex
}

// NewMemoryAdapter creates an empty MemoryAdapter.
func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{files: make(map[string]adapter.FileMetadata)}
}

// AddFile stores f, assigning an ID and view link when missing.
func (m *MemoryAdapter) AddFile(f adapter.FileMetadata) (adapter.FileMetadata, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.files) >= maxDemoItemCount {
		return adapter.FileMetadata{}, fmt.Errorf("demo storage is limited to %d files", maxDemoItemCount)
	}
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.WebViewLink == "" {
		f.WebViewLink = fmt.Sprintf("https://drive.google.com/file/d/%s/view", f.ID)
	}
	if f.ModifiedTime.IsZero() {
		f.ModifiedTime = time.Now().UTC()
	}
	m.files[f.ID] = f
	return f, nil
}

// ListFiles lists files matching opts, most recently modified first.
func (m *MemoryAdapter) ListFiles(_ context.Context, opts adapter.ListOptions) ([]adapter.FileMetadata, error) {
	if opts.PageSize <= 0 {
		return nil, adapter.ErrInvalidPageSize
	}

	allowed := make(map[string]bool, len(opts.MIMETypes))
	for _, t := range opts.MIMETypes {
		allowed[t] = true
	}

	m.mu.RLock()
	files := make([]adapter.FileMetadata, 0, len(m.files))
	for _, f := range m.files {
		if len(allowed) > 0 && !allowed[f.MIMEType] {
			continue
		}
		files = append(files, f)
	}
	m.mu.RUnlock()

	sort.Slice(files, func(i, j int) bool {
		if files[i].ModifiedTime.Equal(files[j].ModifiedTime) {
			return files[i].ID < files[j].ID
		}
		return files[i].ModifiedTime.After(files[j].ModifiedTime)
	})
	if int64(len(files)) > opts.PageSize {
		files = files[:opts.PageSize]
	}
	return files, nil
}

// demoFiles seeds every new demo session. The image is never listed because
// it falls outside the supported MIME types.
func demoFiles(now time.Time) []adapter.FileMetadata {
	return []adapter.FileMetadata{
		{Name: "Welcome to OmniSearch.pdf", MIMEType: adapter.MIMETypePDF, ModifiedTime: now.Add(-1 * time.Hour)},
		{Name: "Meeting Notes", MIMEType: adapter.MIMETypeDocument, ModifiedTime: now.Add(-26 * time.Hour)},
		{Name: "Quarterly Budget", MIMEType: adapter.MIMETypeSpreadsheet, ModifiedTime: now.Add(-72 * time.Hour)},
		{Name: "Product Roadmap", MIMEType: adapter.MIMETypeDocument, ModifiedTime: now.Add(-7 * 24 * time.Hour)},
		{Name: "team-photo.png", MIMEType: "image/png", ModifiedTime: now.Add(-2 * time.Hour)},
	}
}

// DefaultSessionTTL is how long a demo session's files are kept.
const DefaultSessionTTL = time.Hour

// maxDemoSessions bounds the number of live demo sessions.
const maxDemoSessions = 1000

type session struct {
	store     *MemoryAdapter
	createdAt time.Time
}

// Provider implements adapter.StorageProvider with one seeded MemoryAdapter
// per demo token. Sessions expire after ttl and at most maxSessions are kept;
// the oldest is evicted first.
type Provider struct {
	sessions    map[string]session
	ttl         time.Duration
	maxSessions int
	mu          sync.Mutex
	now         func() time.Time
}

// NewProvider creates a demo storage Provider whose sessions live for ttl.
func NewProvider(ttl time.Duration) *Provider {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Provider{
		sessions:    make(map[string]session),
		ttl:         ttl,
		maxSessions: maxDemoSessions,
		now:         time.Now,
	}
}

// GetAdapter returns the adapter for accessToken, seeding it on first use.
// Callers are expected to have verified accessToken.
func (p *Provider) GetAdapter(_ context.Context, accessToken string) (adapter.StorageAdapter, error) {
	if accessToken == "" {
		return nil, adapter.ErrEmptyCredential
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	if s, ok := p.sessions[accessToken]; ok && now.Sub(s.createdAt) < p.ttl {
		return s.store, nil
	}
	p.evict(now)

	store := NewMemoryAdapter()
	for _, f := range demoFiles(now.UTC()) {
		if _, err := store.AddFile(f); err != nil {
			return nil, fmt.Errorf("failed to seed demo storage: %w", err)
		}
	}
	p.sessions[accessToken] = session{store: store, createdAt: now}
	return store, nil
}

// evict drops expired sessions, then the oldest ones until there is room for
// one more.
func (p *Provider) evict(now time.Time) {
	for token, s := range p.sessions {
		if now.Sub(s.createdAt) >= p.ttl {
			delete(p.sessions, token)
		}
	}
	for len(p.sessions) >= p.maxSessions {
		var oldest string
		var oldestAt time.Time
		for token, s := range p.sessions {
			if oldest == "" || s.createdAt.Before(oldestAt) {
				oldest, oldestAt = token, s.createdAt
			}
		}
		delete(p.sessions, oldest)
	}
}

// Len returns the number of live sessions.
func (p *Provider) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}
