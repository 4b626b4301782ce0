package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/quickdl-go/internal/app"
	"github.com/yourusername/quickdl-go/internal/domain"
	"github.com/yourusername/quickdl-go/internal/infrastructure"
)

// newExtractionService serves the endpoints the gateway talks to
func newExtractionService(t *testing.T) *httptest.Server {
	t.Helper()
	var rated atomic.Bool

	router := gin.New()
	router.POST("/tiktok/download", func(c *gin.Context) {
		var body struct {
			URL string `json:"url"`
		}
		_ = c.ShouldBindJSON(&body)
		if strings.Contains(body.URL, "/video/slow") {
			time.Sleep(300 * time.Millisecond)
		}
		c.JSON(http.StatusOK, gin.H{"message": "TikTok video processed", "file_path": "downloads/clip.mp4", "title": "Clip"})
	})
	router.GET("/tiktok/download/file", func(c *gin.Context) {
		c.Data(http.StatusOK, "video/mp4", []byte("binary-data"))
	})
	router.GET("/api/ratings/user", func(c *gin.Context) {
		if !rated.Load() {
			c.JSON(http.StatusNotFound, gin.H{"detail": "No rating found for this user and download type."})
			return
		}
		c.JSON(http.StatusOK, gin.H{"rating": 5})
	})
	router.POST("/api/ratings", func(c *gin.Context) {
		rated.Store(true)
		c.JSON(http.StatusOK, gin.H{"message": "Rating saved successfully."})
	})
	router.GET("/api/ratings/average", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"average_rating": 8.5, "total_ratings": 2})
	})

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

type gateway struct {
	t      *testing.T
	router *gin.Engine
	cookie *http.Cookie
}

func newGateway(t *testing.T) *gateway {
	t.Helper()
	gin.SetMode(gin.TestMode)
	service := newExtractionService(t)

	config := domain.DefaultConfig()
	config.Server.AllowedOrigins = []string{"https://quickdl.example"}
	client := infrastructure.NewServiceClient(domain.ServiceConfig{BaseURL: service.URL, Timeout: 5 * time.Second}, config.Ratings.AverageScale, nil)
	registry := app.NewRegistry(config, app.ModuleDeps{Service: client, Ratings: client}, app.RegistryConfig{}, nil)

	return &gateway{t: t, router: SetupRouter(config, registry, client, nil)}
}

func (g *gateway) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	g.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(g.t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if g.cookie != nil {
		req.AddCookie(g.cookie)
	}
	rec := httptest.NewRecorder()
	g.router.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.Name == "PHPSESSID" {
			g.cookie = c
		}
	}
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRouter_Health(t *testing.T) {
	g := newGateway(t)

	rec := g.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])

	rec = g.do(http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_MountIssuesSessionCookie(t *testing.T) {
	g := newGateway(t)

	rec := g.do(http.MethodPost, "/api/v1/platforms/tiktok/mount", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, g.cookie)
	assert.Len(t, g.cookie.Value, 32)
	assert.Equal(t, "/", g.cookie.Path)
	assert.True(t, g.cookie.Secure)
	assert.True(t, g.cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, g.cookie.SameSite)

	state := decode(t, rec)
	assert.Equal(t, true, state["mounted"])
	assert.Equal(t, "TikTok", state["display_name"])

	// the cookie is reused, never reissued
	token := g.cookie.Value
	rec = g.do(http.MethodGet, "/api/v1/platforms/tiktok", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Result().Cookies())
	assert.Equal(t, token, g.cookie.Value)
}

func TestRouter_DownloadAndRateFlow(t *testing.T) {
	g := newGateway(t)
	require.Equal(t, http.StatusOK, g.do(http.MethodPost, "/api/v1/platforms/tiktok/mount", nil).Code)

	rec := g.do(http.MethodPost, "/api/v1/platforms/tiktok/rating", gin.H{"rating": 5})
	assert.Equal(t, http.StatusConflict, rec.Code, "rating is hidden before a result")

	rec = g.do(http.MethodPost, "/api/v1/platforms/tiktok/submit", gin.H{"url": "https://example.com/video"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid TikTok URL. Please provide a valid URL.", decode(t, rec)["error"])

	rec = g.do(http.MethodPost, "/api/v1/platforms/tiktok/submit", gin.H{"url": "https://www.tiktok.com/@u/video/1"})
	require.Equal(t, http.StatusOK, rec.Code)
	var submitted struct {
		Result domain.DownloadResult `json:"result"`
		State  app.ModuleState       `json:"state"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &submitted))
	assert.Equal(t, "downloads/clip.mp4", submitted.Result.FilePath)
	assert.Equal(t, "Clip", submitted.Result.Title)
	assert.True(t, submitted.State.RatingVisible)
	assert.Equal(t, domain.RatingUnrated, submitted.State.RatingState)

	rec = g.do(http.MethodGet, "/api/v1/platforms/tiktok/notification", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "TikTok video processed", decode(t, rec)["message"])

	rec = g.do(http.MethodGet, "/api/v1/platforms/tiktok/file", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="clip.mp4"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "binary-data", rec.Body.String())

	rec = g.do(http.MethodPost, "/api/v1/platforms/tiktok/rating", gin.H{"rating": 5})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "already_rated", decode(t, rec)["rating_state"])

	rec = g.do(http.MethodPost, "/api/v1/platforms/tiktok/rating", gin.H{"rating": 4})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Platform already rated.", decode(t, rec)["error"])

	rec = g.do(http.MethodDelete, "/api/v1/platforms/tiktok/notification", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = g.do(http.MethodGet, "/api/v1/platforms/tiktok/notification", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRouter_SubmitSurvivesClientDisconnect(t *testing.T) {
	g := newGateway(t)
	require.Equal(t, http.StatusOK, g.do(http.MethodPost, "/api/v1/platforms/tiktok/mount", nil).Code)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/platforms/tiktok/submit",
		strings.NewReader(`{"url":"https://www.tiktok.com/@u/video/slow"}`)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(g.cookie)
	time.AfterFunc(50*time.Millisecond, cancel)

	rec := httptest.NewRecorder()
	g.router.ServeHTTP(rec, req)
	require.Error(t, ctx.Err(), "client went away before the service answered")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = g.do(http.MethodGet, "/api/v1/platforms/tiktok", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var state app.ModuleState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	require.NotNil(t, state.Result)
	assert.Equal(t, "downloads/clip.mp4", state.Result.FilePath)
	require.NotNil(t, state.Notification)
	assert.Equal(t, domain.SeveritySuccess, state.Notification.Severity)
}

func TestRouter_InvalidRatingBody(t *testing.T) {
	g := newGateway(t)
	require.Equal(t, http.StatusOK, g.do(http.MethodPost, "/api/v1/platforms/tiktok/mount", nil).Code)

	rec := g.do(http.MethodPost, "/api/v1/platforms/tiktok/rating", gin.H{"rating": "five"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Rating must be between 1 and 5.", decode(t, rec)["error"])
}

func TestRouter_FileWithoutResult(t *testing.T) {
	g := newGateway(t)
	require.Equal(t, http.StatusOK, g.do(http.MethodPost, "/api/v1/platforms/tiktok/mount", nil).Code)

	rec := g.do(http.MethodGet, "/api/v1/platforms/tiktok/file", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
}

func TestRouter_PlatformErrors(t *testing.T) {
	g := newGateway(t)

	rec := g.do(http.MethodPost, "/api/v1/platforms/myspace/mount", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = g.do(http.MethodGet, "/api/v1/platforms/youtube", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Platform is not mounted.", decode(t, rec)["error"])

	require.Equal(t, http.StatusOK, g.do(http.MethodPost, "/api/v1/platforms/youtube/mount", nil).Code)
	require.Equal(t, http.StatusNoContent, g.do(http.MethodDelete, "/api/v1/platforms/youtube", nil).Code)
	rec = g.do(http.MethodGet, "/api/v1/platforms/youtube", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRouter_AverageRating(t *testing.T) {
	g := newGateway(t)

	rec := g.do(http.MethodGet, "/api/v1/ratings/average", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "overall", body["download_type"])
	assert.Equal(t, 8.5, body["average_rating"])
	assert.Equal(t, float64(10), body["scale"])

	rec = g.do(http.MethodGet, "/api/v1/ratings/average?download_type=myspace", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_CORS(t *testing.T) {
	g := newGateway(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/ratings/average", strings.NewReader(""))
	req.Header.Set("Origin", "https://quickdl.example")
	rec := httptest.NewRecorder()
	g.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://quickdl.example", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	g.router.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
