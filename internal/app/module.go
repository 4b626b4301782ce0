package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/yourusername/quickdl-go/internal/domain"
	"go.uber.org/zap"
)

// User-facing outcome messages
const (
	MsgRatingThanks     = "Thank you for your feedback!"
	MsgRatingFailed     = "Failed to submit feedback. Please try again."
	MsgRetrieveFailed   = "Failed to download file"
	msgRetrieveComplete = "Saved %s"
	msgResultReady      = "%s file ready"

	// ratingLoadTimeout bounds the rating lookup that follows a submit
	ratingLoadTimeout = 10 * time.Second
)

// ModuleDeps are the collaborators shared by every platform module
type ModuleDeps struct {
	Service     domain.ExtractionService
	Ratings     domain.RatingService
	Identity    IdentityResolver
	History     domain.HistoryRepository // optional
	Sinks       []domain.NotificationSink
	AutoDismiss time.Duration
	Logger      *zap.Logger
}

// IdentityResolver yields the session identity consulted at mount
type IdentityResolver interface {
	GetOrCreate(ctx context.Context) (domain.SessionIdentity, error)
}

// FixedIdentity resolves to an identity established elsewhere, such as a
// request cookie read by the gateway
type FixedIdentity domain.SessionIdentity

// GetOrCreate implements IdentityResolver
func (f FixedIdentity) GetOrCreate(ctx context.Context) (domain.SessionIdentity, error) {
	if f.Token == "" {
		return domain.SessionIdentity{}, fmt.Errorf("no session identity")
	}
	return domain.SessionIdentity(f), nil
}

// ModuleState is a snapshot of a platform module for display
type ModuleState struct {
	Platform      domain.Platform        `json:"platform"`
	DisplayName   string                 `json:"display_name"`
	Mounted       bool                   `json:"mounted"`
	Result        *domain.DownloadResult `json:"result,omitempty"`
	Submitting    bool                   `json:"submitting"`
	Retrieving    bool                   `json:"retrieving"`
	Rating        bool                   `json:"rating_in_progress"`
	RatingVisible bool                   `json:"rating_visible"`
	RatingState   domain.RatingState     `json:"rating_state"`
	RatingValue   int                    `json:"rating_value,omitempty"`
	Notification  *domain.Notification   `json:"notification,omitempty"`
}

// Module is the download workflow for one platform: validate, fetch
// metadata, retrieve on request, then offer a one-time rating.
type Module struct {
	desc     domain.PlatformDescriptor
	deps     ModuleDeps
	logger   *zap.Logger
	notifier *NotificationChannel

	ratingLoadTimeout time.Duration

	mu           sync.Mutex
	generation   uint64
	mounted      bool
	identity     domain.SessionIdentity
	orchestrator *Orchestrator
	gate         *RatingGate
	result       *domain.DownloadResult
	record       *domain.DownloadRecord
	submitting   bool
	retrieving   bool
	rating       bool
}

// NewModule creates an unmounted module for desc
func NewModule(desc domain.PlatformDescriptor, deps ModuleDeps) *Module {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	logger := deps.Logger.With(zap.String("platform", string(desc.Platform)))
	sinks := append([]domain.NotificationSink{LogSink{Logger: deps.Logger, Platform: desc.Platform}}, deps.Sinks...)
	return &Module{
		desc:     desc,
		deps:     deps,
		logger:   logger,
		notifier: NewNotificationChannel(deps.AutoDismiss, sinks...),

		ratingLoadTimeout: ratingLoadTimeout,
	}
}

// Descriptor returns the platform the module serves
func (m *Module) Descriptor() domain.PlatformDescriptor {
	return m.desc
}

// Notifications returns the module's notification channel
func (m *Module) Notifications() *NotificationChannel {
	return m.notifier
}

// Mount resolves the session identity and resets the workflow. Mounting an
// already mounted module starts a fresh mount.
func (m *Module) Mount(ctx context.Context) error {
	identity, err := m.deps.Identity.GetOrCreate(ctx)
	if err != nil {
		m.logger.Error("Failed to resolve session identity", zap.Error(err))
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.generation++
	m.mounted = true
	m.identity = identity
	m.orchestrator = NewOrchestrator(m.deps.Service, m.desc, m.deps.Logger)
	m.gate = NewRatingGate(m.deps.Ratings, identity, m.desc.Platform, m.deps.Logger)
	m.result = nil
	m.record = nil
	m.submitting, m.retrieving, m.rating = false, false, false

	m.logger.Debug("Module mounted", zap.Uint64("generation", m.generation))
	return nil
}

// Unmount discards the workflow state. Requests still in flight complete on
// the network but their outcome is dropped.
func (m *Module) Unmount() {
	m.mu.Lock()
	m.generation++
	m.mounted = false
	m.orchestrator = nil
	m.gate = nil
	m.result = nil
	m.record = nil
	m.submitting, m.retrieving, m.rating = false, false, false
	m.mu.Unlock()

	m.notifier.Dismiss()
	m.logger.Debug("Module unmounted")
}

// Identity returns the identity resolved at mount
func (m *Module) Identity() domain.SessionIdentity {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.identity
}

// Result returns the displayed download result, if any
func (m *Module) Result() *domain.DownloadResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.result
}

// Submit validates the input and runs the metadata phase. On failure the
// previously displayed result, if any, is left untouched.
func (m *Module) Submit(ctx context.Context, sourceURL string, mode domain.DownloadMode, options map[string]string) (*domain.DownloadResult, error) {
	m.mu.Lock()
	if !m.mounted {
		m.mu.Unlock()
		return nil, domain.ErrUnmounted
	}
	if m.submitting {
		m.mu.Unlock()
		return nil, domain.ErrBusy
	}

	req, err := domain.NewDownloadRequest(m.desc.Platform, sourceURL, mode, options)
	if err != nil {
		m.mu.Unlock()
		m.notifier.Error(domain.UserMessage(err, ""))
		return nil, err
	}

	m.submitting = true
	gen := m.generation
	orchestrator := m.orchestrator
	gate := m.gate
	m.mu.Unlock()

	result, err := orchestrator.FetchMetadata(ctx, req)

	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		m.logger.Debug("Dropping metadata completion from a previous mount")
		return nil, domain.ErrUnmounted
	}
	m.submitting = false
	if err != nil {
		m.mu.Unlock()
		m.notifier.Error(domain.UserMessage(err, ""))
		return nil, err
	}
	m.result = result
	m.record = nil
	m.mu.Unlock()

	m.recordHistory(gen, result)
	message := result.Message
	if strings.TrimSpace(message) == "" {
		message = fmt.Sprintf(msgResultReady, m.desc.DisplayName)
	}
	m.notifier.Success(message)

	gate.Show()
	if state, _ := gate.State(); state == domain.RatingUnknown {
		// a failed or slow lookup leaves the gate Unknown; Rate loads again
		loadCtx, cancel := context.WithTimeout(ctx, m.ratingLoadTimeout)
		_, _ = gate.Load(loadCtx)
		cancel()
	}

	return result, nil
}

// Retrieve runs the retrieval phase for the displayed result. A failure keeps
// the result so the user can retry.
func (m *Module) Retrieve(ctx context.Context, sink domain.FileSink) (string, error) {
	m.mu.Lock()
	if !m.mounted {
		m.mu.Unlock()
		return "", domain.ErrUnmounted
	}
	if m.result == nil {
		m.mu.Unlock()
		return "", domain.ErrNoResult
	}
	if m.retrieving {
		m.mu.Unlock()
		return "", domain.ErrBusy
	}
	m.retrieving = true
	gen := m.generation
	result := m.result
	record := m.record
	orchestrator := m.orchestrator
	m.mu.Unlock()

	saved, err := orchestrator.Retrieve(ctx, result, sink)

	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		m.logger.Debug("Dropping retrieval completion from a previous mount")
		return "", domain.ErrUnmounted
	}
	m.retrieving = false
	m.mu.Unlock()

	if err != nil {
		m.notifier.Error(domain.UserMessage(err, MsgRetrieveFailed))
		return "", err
	}

	if record != nil && m.deps.History != nil {
		record.MarkRetrieved(saved)
		if err := m.deps.History.Update(record); err != nil {
			m.logger.Warn("Failed to update download history", zap.Error(err))
		}
	}
	m.notifier.Success(fmt.Sprintf(msgRetrieveComplete, result.Filename()))
	return saved, nil
}

// Rate submits the one-time rating. It is available only after a
// successful metadata phase.
func (m *Module) Rate(ctx context.Context, value int) error {
	m.mu.Lock()
	if !m.mounted {
		m.mu.Unlock()
		return domain.ErrUnmounted
	}
	gate := m.gate
	if !gate.Visible() {
		m.mu.Unlock()
		return domain.ErrRatingHidden
	}
	if m.rating {
		m.mu.Unlock()
		return domain.ErrBusy
	}
	m.rating = true
	gen := m.generation
	m.mu.Unlock()

	err := gate.Submit(ctx, value)

	m.mu.Lock()
	if gen != m.generation {
		m.mu.Unlock()
		return domain.ErrUnmounted
	}
	m.rating = false
	m.mu.Unlock()

	switch {
	case err == nil:
		m.notifier.Success(MsgRatingThanks)
	case domain.IsValidationError(err), errors.Is(err, domain.ErrAlreadyRated):
		m.notifier.Error(domain.UserMessage(err, MsgRatingFailed))
	default:
		m.notifier.Error(MsgRatingFailed)
	}
	return err
}

// State returns a snapshot for display
func (m *Module) State() ModuleState {
	m.mu.Lock()
	state := ModuleState{
		Platform:    m.desc.Platform,
		DisplayName: m.desc.DisplayName,
		Mounted:     m.mounted,
		Result:      m.result,
		Submitting:  m.submitting,
		Retrieving:  m.retrieving,
		Rating:      m.rating,
		RatingState: domain.RatingUnknown,
	}
	gate := m.gate
	m.mu.Unlock()

	if gate != nil {
		state.RatingVisible = gate.Visible()
		state.RatingState, state.RatingValue = gate.State()
	}
	if n, ok := m.notifier.Current(); ok {
		state.Notification = &n
	}
	return state
}

// recordHistory stores a history row for a result of mount gen
func (m *Module) recordHistory(gen uint64, result *domain.DownloadResult) {
	if m.deps.History == nil {
		return
	}
	record := domain.NewDownloadRecord(result)
	if err := m.deps.History.Create(record); err != nil {
		m.logger.Warn("Failed to write download history", zap.Error(err))
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if gen == m.generation && m.result == result {
		m.record = record
	}
}
