package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yourusername/quickdl-go/internal/app"
	"github.com/yourusername/quickdl-go/internal/domain"
	"github.com/yourusername/quickdl-go/pkg/logger"
	"go.uber.org/zap"
)

const identityKey = "quickdl.identity"

// CookieStore is the browser cookie jar of one gateway request
type CookieStore struct {
	c   *gin.Context
	set *domain.Cookie
}

// NewCookieStore wraps the request's cookies
func NewCookieStore(c *gin.Context) *CookieStore {
	return &CookieStore{c: c}
}

// Get implements domain.IdentityStore
func (s *CookieStore) Get(ctx context.Context, name, path string) (*domain.Cookie, error) {
	if s.set != nil && s.set.Name == name {
		return s.set, nil
	}
	value, err := s.c.Cookie(name)
	if err != nil || value == "" {
		return nil, nil
	}
	return &domain.Cookie{Name: name, Path: path, Value: value}, nil
}

// SetIfAbsent implements domain.IdentityStore. The browser keeps the cookie;
// it is written to the response only when the request carried none.
func (s *CookieStore) SetIfAbsent(ctx context.Context, cookie *domain.Cookie) (*domain.Cookie, error) {
	if existing, _ := s.Get(ctx, cookie.Name, cookie.Path); existing != nil {
		return existing, nil
	}

	maxAge := int(time.Until(cookie.ExpiresAt).Seconds())
	if cookie.ExpiresAt.IsZero() {
		maxAge = 0
	}
	s.c.SetSameSite(http.SameSiteLaxMode)
	s.c.SetCookie(cookie.Name, cookie.Value, maxAge, cookie.Path, "", cookie.Secure, true)
	s.set = cookie
	return cookie, nil
}

// Identity resolves the session identity of every request, issuing the
// cookie on first contact
func Identity(config domain.IdentityConfig, secure bool, log *zap.Logger) gin.HandlerFunc {
	log = logger.OrNop(log)
	return func(c *gin.Context) {
		manager := app.NewIdentityManager(NewCookieStore(c), config, secure, log)
		identity, err := manager.GetOrCreate(c.Request.Context())
		if err != nil {
			log.Error("Failed to resolve session identity", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": domain.GenericErrorMessage,
			})
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

// IdentityFrom returns the identity resolved by the Identity middleware
func IdentityFrom(c *gin.Context) (domain.SessionIdentity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return domain.SessionIdentity{}, false
	}
	identity, ok := v.(domain.SessionIdentity)
	return identity, ok && !identity.IsZero()
}
