package app

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/yourusername/quickdl-go/internal/domain"
)

// memoryIdentityStore implements domain.IdentityStore for testing
type memoryIdentityStore struct {
	mu      sync.Mutex
	cookies map[string]*domain.Cookie
	gets    int
	writes  int
	getErr  error
}

func newMemoryIdentityStore() *memoryIdentityStore {
	return &memoryIdentityStore{cookies: make(map[string]*domain.Cookie)}
}

func (s *memoryIdentityStore) Get(ctx context.Context, name, path string) (*domain.Cookie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.getErr != nil {
		return nil, s.getErr
	}
	c, ok := s.cookies[name+path]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (s *memoryIdentityStore) SetIfAbsent(ctx context.Context, cookie *domain.Cookie) (*domain.Cookie, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := cookie.Name + cookie.Path
	if c, ok := s.cookies[key]; ok && !c.Expired(time.Now()) {
		cp := *c
		return &cp, nil
	}
	s.writes++
	cp := *cookie
	s.cookies[key] = &cp
	return cookie, nil
}

// fakeExtractionService implements domain.ExtractionService for testing
type fakeExtractionService struct {
	mu            sync.Mutex
	metadata      *domain.MetadataResponse
	metadataErr   error
	file          []byte
	fileErr       error
	metadataCalls int
	fileCalls     int
	lastRequest   *domain.DownloadRequest
	lastDesc      domain.PlatformDescriptor
	lastFilePath  string
	// gate blocks FetchMetadata until closed when non-nil
	gate    chan struct{}
	entered chan struct{}
}

func (f *fakeExtractionService) FetchMetadata(ctx context.Context, desc domain.PlatformDescriptor, req *domain.DownloadRequest) (*domain.MetadataResponse, error) {
	f.mu.Lock()
	f.metadataCalls++
	f.lastRequest = req
	f.lastDesc = desc
	gate, entered := f.gate, f.entered
	resp, err := f.metadata, f.metadataErr
	f.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	cp := *resp
	return &cp, nil
}

func (f *fakeExtractionService) FetchFile(ctx context.Context, desc domain.PlatformDescriptor, filePath string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fileCalls++
	f.lastFilePath = filePath
	if f.fileErr != nil {
		return nil, f.fileErr
	}
	return io.NopCloser(bytes.NewReader(f.file)), nil
}

func (f *fakeExtractionService) BaseURL() string {
	return "http://service.test"
}

func (f *fakeExtractionService) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.metadataCalls, f.fileCalls
}

// fakeRatingService implements domain.RatingService for testing
type fakeRatingService struct {
	mu          sync.Mutex
	stored      map[string]int
	getErr      error
	submitErr   error
	average     *domain.AverageRating
	getCalls    int
	submitCalls int
	// getGate blocks GetUserRating until closed or ctx is done when non-nil
	getGate chan struct{}
}

func newFakeRatingService() *fakeRatingService {
	return &fakeRatingService{stored: make(map[string]int)}
}

func (f *fakeRatingService) GetUserRating(ctx context.Context, identity domain.SessionIdentity, platform domain.Platform) (*domain.Rating, error) {
	f.mu.Lock()
	gate := f.getGate
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	v, ok := f.stored[identity.Token+"/"+string(platform)]
	if !ok {
		return nil, nil
	}
	return &domain.Rating{Identity: identity.Token, Platform: platform, Value: v}, nil
}

func (f *fakeRatingService) SubmitRating(ctx context.Context, rating domain.Rating) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submitCalls++
	if f.submitErr != nil {
		return f.submitErr
	}
	key := rating.Identity + "/" + string(rating.Platform)
	if _, ok := f.stored[key]; ok {
		return &domain.ServiceError{Sentinel: domain.ErrServiceRejected, Operation: "rating", Status: 400, Detail: "You have already rated this platform"}
	}
	f.stored[key] = rating.Value
	return nil
}

func (f *fakeRatingService) GetAverageRating(ctx context.Context, platform domain.Platform) (*domain.AverageRating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.average == nil {
		return nil, errors.New("no average")
	}
	cp := *f.average
	return &cp, nil
}

func (f *fakeRatingService) counts() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getCalls, f.submitCalls
}

// memorySink implements domain.FileSink for testing
type memorySink struct {
	mu    sync.Mutex
	files map[string][]byte
	err   error
}

func newMemorySink() *memorySink {
	return &memorySink{files: make(map[string][]byte)}
}

func (s *memorySink) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[name] = data
	return "/saved/" + name, nil
}

// recordingSink implements domain.NotificationSink for testing
type recordingSink struct {
	mu   sync.Mutex
	seen []domain.Notification
}

func (s *recordingSink) Deliver(n domain.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, n)
}

func (s *recordingSink) all() []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Notification(nil), s.seen...)
}

// memoryHistory implements domain.HistoryRepository for testing
type memoryHistory struct {
	mu      sync.Mutex
	records map[string]*domain.DownloadRecord
}

func newMemoryHistory() *memoryHistory {
	return &memoryHistory{records: make(map[string]*domain.DownloadRecord)}
}

func (m *memoryHistory) Create(record *domain.DownloadRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *record
	m.records[record.ID] = &cp
	return nil
}

func (m *memoryHistory) Update(record *domain.DownloadRecord) error {
	return m.Create(record)
}

func (m *memoryHistory) FindByID(id string) (*domain.DownloadRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.records[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, nil
}

func (m *memoryHistory) FindRecent(platform domain.Platform, limit int) ([]*domain.DownloadRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.DownloadRecord
	for _, r := range m.records {
		if platform == "" || r.Platform == platform {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memoryHistory) GetStats() (*domain.HistoryStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &domain.HistoryStats{ByPlatform: make(map[domain.Platform]int64)}
	for _, r := range m.records {
		stats.Total++
		stats.ByPlatform[r.Platform]++
		if r.IsRetrieved() {
			stats.Retrieved++
		}
	}
	return stats, nil
}
