package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stwalsh4118/fairshare/internal/attribution"
	"github.com/stwalsh4118/fairshare/internal/catalog"
	"github.com/stwalsh4118/fairshare/internal/logger"
	"github.com/stwalsh4118/fairshare/internal/models"
	"github.com/stwalsh4118/fairshare/internal/playback"
	"github.com/stwalsh4118/fairshare/internal/studio"
)

const (
	defaultNoticeLimit = 50
	maxNoticeLimit     = 1000
	maxCatalogBytes    = 1 << 20
)

// sessionManager defines the session registry operations the handlers need
type sessionManager interface {
	Create(params studio.CreateParams) (*studio.Session, error)
	Get(id uuid.UUID) (*studio.Session, error)
	Delete(id uuid.UUID) error
	List() []*studio.Session
	Count() int
}

// noticeLister reads a session's notice log
type noticeLister interface {
	ListBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]*models.Notice, error)
}

// SessionListResponse represents the list of live sessions
type SessionListResponse struct {
	Sessions []studio.Info `json:"sessions"`
	Total    int           `json:"total"`
}

// SessionResponse is a session summary plus its clips
type SessionResponse struct {
	studio.Info
	Clips    []models.Clip     `json:"clips"`
	Warnings []catalog.Warning `json:"warnings"`
}

// SeekRequest moves the playhead. Exactly one field must be set.
type SeekRequest struct {
	Time     *int64 `json:"time,omitempty"`
	Timecode string `json:"timecode,omitempty"`
}

// OverlayCloseResponse reports whether an overlay was dismissed
type OverlayCloseResponse struct {
	Closed  bool                `json:"closed"`
	Overlay attribution.Overlay `json:"overlay"`
}

// NoticeResponse is one entry of a session's notice log
type NoticeResponse struct {
	ID        uuid.UUID         `json:"id"`
	Kind      models.NoticeKind `json:"kind"`
	Message   string            `json:"message"`
	ClipID    *string           `json:"clip_id,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	Age       string            `json:"age"`
}

// NoticeListResponse represents a session's recent notices, newest first
type NoticeListResponse struct {
	Notices []NoticeResponse `json:"notices"`
	Limit   int              `json:"limit"`
}

// SessionHandler handles studio session API requests
type SessionHandler struct {
	sessions sessionManager
	notices  noticeLister
}

// NewSessionHandler creates a new session handler. notices may be nil when
// the notice log is not persisted.
func NewSessionHandler(sessions sessionManager, notices noticeLister) *SessionHandler {
	return &SessionHandler{
		sessions: sessions,
		notices:  notices,
	}
}

// CreateSession handles POST /api/sessions. An empty body starts from the
// default catalog; otherwise the body is a JSON catalog document.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	body, ok := readCatalogBody(c)
	if !ok {
		return
	}

	var params studio.CreateParams
	if len(strings.TrimSpace(string(body))) > 0 {
		doc, ok := decodeCatalog(c, body, catalog.FormatJSON)
		if !ok {
			return
		}
		params = studio.CreateParams{Clips: doc.Clips, TotalDuration: doc.TotalDuration}
	}

	session, err := h.sessions.Create(params)
	if err != nil {
		logger.Log.Warn().
			Err(err).
			Msg("Failed to create session")
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, sessionResponse(session))
}

// ListSessions handles GET /api/sessions
func (h *SessionHandler) ListSessions(c *gin.Context) {
	sessions := h.sessions.List()
	infos := make([]studio.Info, 0, len(sessions))
	for _, s := range sessions {
		infos = append(infos, s.Info())
	}

	c.JSON(http.StatusOK, SessionListResponse{
		Sessions: infos,
		Total:    len(infos),
	})
}

// GetSession handles GET /api/sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	session, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, sessionResponse(session))
}

// DeleteSession handles DELETE /api/sessions/:id
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	if err := h.sessions.Delete(id); err != nil {
		writeError(c, err)
		return
	}

	logger.Log.Info().
		Str("session_id", id.String()).
		Msg("Session deleted")

	c.JSON(http.StatusOK, MessageResponse{Message: "Session deleted successfully"})
}

// TogglePlayback handles POST /api/sessions/:id/playback/toggle
func (h *SessionHandler) TogglePlayback(c *gin.Context) {
	h.playbackAction(c, (*studio.Session).PlayToggle)
}

// Rewind handles POST /api/sessions/:id/playback/rewind
func (h *SessionHandler) Rewind(c *gin.Context) {
	h.playbackAction(c, (*studio.Session).SeekToStart)
}

// Seek handles POST /api/sessions/:id/playback/seek
func (h *SessionHandler) Seek(c *gin.Context) {
	session, ok := h.lookup(c)
	if !ok {
		return
	}

	var req SeekRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
		return
	}

	var target int64
	switch {
	case req.Time != nil && req.Timecode == "":
		target = *req.Time
	case req.Time == nil && req.Timecode != "":
		t, err := models.ParseTimecode(req.Timecode)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "invalid_timecode",
				Message: err.Error(),
			})
			return
		}
		target = t
	default:
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Provide exactly one of time or timecode",
		})
		return
	}

	state, err := session.Seek(target)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// GetPlayback handles GET /api/sessions/:id/playback
func (h *SessionHandler) GetPlayback(c *gin.Context) {
	session, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.PlaybackSnapshot())
}

// GetTimeline handles GET /api/sessions/:id/timeline
func (h *SessionHandler) GetTimeline(c *gin.Context) {
	session, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.TimelineSnapshot())
}

// HitTest handles GET /api/sessions/:id/timeline/hit?x=0.5
func (h *SessionHandler) HitTest(c *gin.Context) {
	session, ok := h.lookup(c)
	if !ok {
		return
	}

	x, err := strconv.ParseFloat(c.Query("x"), 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_position",
			Message: "x must be a fraction of the timeline width",
		})
		return
	}

	rect, found := session.TimelineSnapshot().HitTest(x)
	if !found {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "no_clip",
			Message: "No clip at that position",
		})
		return
	}
	c.JSON(http.StatusOK, rect)
}

// GetRuler handles GET /api/sessions/:id/ruler
func (h *SessionHandler) GetRuler(c *gin.Context) {
	session, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"marks": session.Ruler()})
}

// GetOverlay handles GET /api/sessions/:id/overlay
func (h *SessionHandler) GetOverlay(c *gin.Context) {
	session, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.OverlaySnapshot())
}

// CloseOverlay handles DELETE /api/sessions/:id/overlay
func (h *SessionHandler) CloseOverlay(c *gin.Context) {
	session, ok := h.lookup(c)
	if !ok {
		return
	}

	closed, err := session.CloseOverlay()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, OverlayCloseResponse{
		Closed:  closed,
		Overlay: session.OverlaySnapshot(),
	})
}

// ReplaceCatalog handles PUT /api/sessions/:id/catalog with a JSON catalog
// document. Only the clips are replaced; the timeline scale is kept.
func (h *SessionHandler) ReplaceCatalog(c *gin.Context) {
	session, ok := h.lookup(c)
	if !ok {
		return
	}

	body, ok := readCatalogBody(c)
	if !ok {
		return
	}

	doc, ok := decodeCatalog(c, body, catalog.FormatJSON)
	if !ok {
		return
	}

	if err := session.SetClipCatalog(doc.Clips); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse(session))
}

// ImportCatalog handles POST /api/sessions/:id/catalog/import. The format
// comes from the format query parameter or the Content-Type header.
func (h *SessionHandler) ImportCatalog(c *gin.Context) {
	session, ok := h.lookup(c)
	if !ok {
		return
	}

	format, err := importFormat(c)
	if err != nil {
		writeError(c, err)
		return
	}

	body, ok := readCatalogBody(c)
	if !ok {
		return
	}

	doc, ok := decodeCatalog(c, body, format)
	if !ok {
		return
	}

	if err := session.Import(doc); err != nil {
		writeError(c, err)
		return
	}

	logger.Log.Info().
		Str("session_id", session.ID().String()).
		Str("format", string(format)).
		Int("clips", len(doc.Clips)).
		Msg("Catalog imported")

	c.JSON(http.StatusOK, sessionResponse(session))
}

// Export handles GET /api/sessions/:id/export
func (h *SessionHandler) Export(c *gin.Context) {
	session, ok := h.lookup(c)
	if !ok {
		return
	}

	sheet, err := session.Export()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, sheet)
}

// ListNotices handles GET /api/sessions/:id/notices
func (h *SessionHandler) ListNotices(c *gin.Context) {
	session, ok := h.lookup(c)
	if !ok {
		return
	}

	if h.notices == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   "notices_unavailable",
			Message: "Notice log is not enabled",
		})
		return
	}

	limit := defaultNoticeLimit
	if limitStr := c.Query("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
			if limit > maxNoticeLimit {
				limit = maxNoticeLimit
			}
		}
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	notices, err := h.notices.ListBySession(ctx, session.ID(), limit)
	if err != nil {
		logger.Log.Error().
			Err(err).
			Str("session_id", session.ID().String()).
			Msg("Failed to list notices")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "notices_failed",
			Message: "Failed to list notices",
		})
		return
	}

	response := NoticeListResponse{
		Notices: make([]NoticeResponse, 0, len(notices)),
		Limit:   limit,
	}
	for _, n := range notices {
		response.Notices = append(response.Notices, NoticeResponse{
			ID:        n.ID,
			Kind:      n.Kind,
			Message:   n.Message,
			ClipID:    n.ClipID,
			CreatedAt: n.CreatedAt,
			Age:       humanize.Time(n.CreatedAt),
		})
	}
	c.JSON(http.StatusOK, response)
}

// lookup resolves the :id parameter to a live session, writing the error
// response itself when it cannot
func (h *SessionHandler) lookup(c *gin.Context) (*studio.Session, bool) {
	id, ok := parseSessionID(c)
	if !ok {
		return nil, false
	}

	session, err := h.sessions.Get(id)
	if err != nil {
		writeError(c, err)
		return nil, false
	}
	return session, true
}

func (h *SessionHandler) playbackAction(c *gin.Context, action func(*studio.Session) (playback.State, error)) {
	session, ok := h.lookup(c)
	if !ok {
		return
	}

	state, err := action(session)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

func parseSessionID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid session ID format",
		})
		return uuid.Nil, false
	}
	return id, true
}

// readCatalogBody reads a catalog upload, writing a 413 when it exceeds
// maxCatalogBytes
func readCatalogBody(c *gin.Context) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxCatalogBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
				Error:   "catalog_too_large",
				Message: fmt.Sprintf("Catalog exceeds %d bytes", tooLarge.Limit),
			})
			return nil, false
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: "Failed to read request body",
		})
		return nil, false
	}
	return body, true
}

// decodeCatalog decodes a catalog body, writing a 400 for malformed input
// and the mapped error for schema problems
func decodeCatalog(c *gin.Context, body []byte, format catalog.Format) (*catalog.Document, bool) {
	doc, err := catalog.Decode(body, format)
	if err != nil {
		if catalog.IsInvalid(err) {
			writeError(c, err)
			return nil, false
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
		return nil, false
	}
	return doc, true
}

func importFormat(c *gin.Context) (catalog.Format, error) {
	if f := c.Query("format"); f != "" {
		return catalog.ParseFormat(f)
	}

	switch contentType := c.ContentType(); contentType {
	case "application/yaml", "application/x-yaml", "text/yaml":
		return catalog.FormatYAML, nil
	case "application/toml", "text/toml":
		return catalog.FormatTOML, nil
	default:
		return catalog.FormatJSON, nil
	}
}

func sessionResponse(s *studio.Session) SessionResponse {
	return SessionResponse{
		Info:     s.Info(),
		Clips:    s.Clips(),
		Warnings: s.Warnings(),
	}
}

// SetupSessionRoutes registers studio session routes
func SetupSessionRoutes(apiGroup *gin.RouterGroup, sessions sessionManager, notices noticeLister) {
	handler := NewSessionHandler(sessions, notices)

	apiGroup.POST("/sessions", handler.CreateSession)
	apiGroup.GET("/sessions", handler.ListSessions)
	apiGroup.GET("/sessions/:id", handler.GetSession)
	apiGroup.DELETE("/sessions/:id", handler.DeleteSession)

	apiGroup.GET("/sessions/:id/playback", handler.GetPlayback)
	apiGroup.POST("/sessions/:id/playback/toggle", handler.TogglePlayback)
	apiGroup.POST("/sessions/:id/playback/rewind", handler.Rewind)
	apiGroup.POST("/sessions/:id/playback/seek", handler.Seek)

	apiGroup.GET("/sessions/:id/timeline", handler.GetTimeline)
	apiGroup.GET("/sessions/:id/timeline/hit", handler.HitTest)
	apiGroup.GET("/sessions/:id/ruler", handler.GetRuler)

	apiGroup.GET("/sessions/:id/overlay", handler.GetOverlay)
	apiGroup.DELETE("/sessions/:id/overlay", handler.CloseOverlay)

	apiGroup.PUT("/sessions/:id/catalog", handler.ReplaceCatalog)
	apiGroup.POST("/sessions/:id/catalog/import", handler.ImportCatalog)

	apiGroup.GET("/sessions/:id/export", handler.Export)
	apiGroup.GET("/sessions/:id/notices", handler.ListNotices)
	apiGroup.GET("/sessions/:id/events", handler.Events)
}
