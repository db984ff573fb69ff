package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"stream_server/server/chat/domain"
	"stream_server/server/chat/service"
	commonauth "stream_server/server/common/auth"
	commonlog "stream_server/server/common/log"
	"stream_server/server/common/middleware"
	"stream_server/server/common/transport/httpresp"
)

const serviceName = "chat"

type ReadinessCheck func(ctx context.Context) error

type Handler struct {
	chat     *service.ChatService
	relay    *service.Relay
	auth     *commonauth.Service
	upgrader websocket.Upgrader
	checks   map[string]ReadinessCheck
}

func NewHandler(chat *service.ChatService, relay *service.Relay, auth *commonauth.Service, allowedOrigins []string, checks map[string]ReadinessCheck) *Handler {
	allowed := map[string]struct{}{}
	for _, origin := range allowedOrigins {
		allowed[strings.TrimRight(strings.TrimSpace(origin), "/")] = struct{}{}
	}
	return &Handler{
		chat:  chat,
		relay: relay,
		auth:  auth,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || len(allowed) == 0 {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
		checks: checks,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)
	r.GET("/api/health", h.health)
	r.GET("/health/ready", h.ready)
	r.GET("/ws", h.handleWS)
	r.GET("/api/chat/ws", h.handleWS)

	api := r.Group("/api/chat")
	api.Use(middleware.AuthRequired(h.auth))
	api.GET("/history/:videoId", h.history)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, httpresp.NewHealthResponse(serviceName, "ok"))
}

func (h *Handler) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	resp := httpresp.NewHealthResponse(serviceName, "ok")
	resp.Checks = map[string]string{}
	status := http.StatusOK
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			commonlog.Warnf("event=readiness action=check status=failed service=%s dependency=%s error=%v", serviceName, name, err)
			resp.Checks[name] = "unavailable"
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	c.JSON(status, resp)
}

// handleWS verifies the token before upgrading. A rejected caller gets a
// plain 401 and no websocket.
func (h *Handler) handleWS(c *gin.Context) {
	token, ok := middleware.TokenFromRequest(c.Request)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(httpresp.ErrMissingBearerToken))
		return
	}
	identity, err := h.auth.ParseIdentity(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(httpresp.ErrInvalidToken))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		commonlog.Warnf("event=chat_client action=upgrade status=failed user_id=%s error=%v", identity.UserID, err)
		return
	}
	h.relay.Serve(c.Request.Context(), conn, domain.Sender{
		UserID: identity.UserID,
		Name:   identity.Name,
		Role:   identity.Role,
	})
}

func (h *Handler) history(c *gin.Context) {
	videoID := strings.TrimSpace(c.Param("videoId"))
	if videoID == "" {
		c.JSON(http.StatusBadRequest, NewErrorResponse(service.ErrVideoIDRequired.Error()))
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	messages, err := h.chat.History(c.Request.Context(), videoID, limit)
	if err != nil {
		commonlog.Errorf("event=chat_history action=list status=failed video_id=%s error=%v", videoID, err)
		c.JSON(http.StatusInternalServerError, NewErrorResponse("error fetching chat history"))
		return
	}
	c.JSON(http.StatusOK, NewHistoryResponse(messages))
}
