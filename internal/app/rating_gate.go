package app

import (
	"context"
	"fmt"
	"sync"

	"github.com/yourusername/quickdl-go/internal/domain"
	"go.uber.org/zap"
)

// RatingGate lets an identity rate a platform at most once. Its state moves
// Unknown -> Unrated -> AlreadyRated and never back within a mount.
type RatingGate struct {
	ratings  domain.RatingService
	identity domain.SessionIdentity
	platform domain.Platform
	logger   *zap.Logger

	mu         sync.Mutex
	state      domain.RatingState
	value      int
	visible    bool
	submitting bool
	onRated    func(domain.Rating)
}

// NewRatingGate creates a hidden gate in the Unknown state
func NewRatingGate(ratings domain.RatingService, identity domain.SessionIdentity, platform domain.Platform, logger *zap.Logger) *RatingGate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RatingGate{
		ratings:  ratings,
		identity: identity,
		platform: platform,
		logger:   logger.With(zap.String("platform", string(platform))),
		state:    domain.RatingUnknown,
	}
}

// OnRated registers the callback invoked after an accepted submission
func (g *RatingGate) OnRated(fn func(domain.Rating)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onRated = fn
}

// State returns the gate state and, when already rated, the stored value
func (g *RatingGate) State() (domain.RatingState, int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state, g.value
}

// Show makes the gate available for input
func (g *RatingGate) Show() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.visible = true
}

// Visible reports whether the gate has been shown
func (g *RatingGate) Visible() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.visible
}

// Load fetches the existing rating for the identity and platform. A failed
// fetch leaves the gate Unknown.
func (g *RatingGate) Load(ctx context.Context) (domain.RatingState, error) {
	g.mu.Lock()
	if g.state == domain.RatingAlreadyRated {
		g.mu.Unlock()
		return domain.RatingAlreadyRated, nil
	}
	g.mu.Unlock()

	existing, err := g.ratings.GetUserRating(ctx, g.identity, g.platform)
	if err != nil {
		g.logger.Warn("Failed to load existing rating", zap.Error(err))
		return domain.RatingUnknown, fmt.Errorf("%w: %v", domain.ErrRatingNotLoaded, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	// a submission may have landed while the fetch was in flight
	if g.state == domain.RatingAlreadyRated {
		return g.state, nil
	}
	if existing != nil && existing.Value > 0 {
		g.state = domain.RatingAlreadyRated
		g.value = existing.Value
	} else {
		g.state = domain.RatingUnrated
	}
	return g.state, nil
}

// Submit records a rating. The existing rating is always fetched first, and
// an already rated pair is rejected without a network call.
func (g *RatingGate) Submit(ctx context.Context, value int) error {
	g.mu.Lock()
	if g.state == domain.RatingAlreadyRated {
		g.mu.Unlock()
		return domain.ErrAlreadyRated
	}
	if err := domain.ValidateRating(value); err != nil {
		g.mu.Unlock()
		return err
	}
	if g.submitting {
		g.mu.Unlock()
		return domain.ErrBusy
	}
	g.submitting = true
	state := g.state
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		g.submitting = false
		g.mu.Unlock()
	}()

	if state == domain.RatingUnknown {
		loaded, err := g.Load(ctx)
		if err != nil {
			return err
		}
		if loaded == domain.RatingAlreadyRated {
			return domain.ErrAlreadyRated
		}
	}

	rating := domain.Rating{
		Identity: g.identity.Token,
		Platform: g.platform,
		Value:    value,
	}
	if err := g.ratings.SubmitRating(ctx, rating); err != nil {
		g.logger.Warn("Rating submission failed", zap.Int("rating", value), zap.Error(err))
		return err
	}

	g.mu.Lock()
	g.state = domain.RatingAlreadyRated
	g.value = value
	onRated := g.onRated
	g.mu.Unlock()

	g.logger.Info("Rating submitted", zap.Int("rating", value))
	if onRated != nil {
		onRated(rating)
	}
	return nil
}
