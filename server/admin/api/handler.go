package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	adminservice "stream_server/server/admin/service"
	"stream_server/server/catalog/domain"
	catalogservice "stream_server/server/catalog/service"
	"stream_server/server/common/auth"
	commonlog "stream_server/server/common/log"
	"stream_server/server/common/middleware"
	"stream_server/server/common/transport/httpresp"
)

const serviceName = "admin"

type ReadinessCheck func(ctx context.Context) error

type Handler struct {
	videos *adminservice.VideoService
	auth   *auth.Service
	urls   catalogservice.URLBuilder
	checks map[string]ReadinessCheck
}

func NewHandler(videos *adminservice.VideoService, authSvc *auth.Service, urls catalogservice.URLBuilder, checks map[string]ReadinessCheck) *Handler {
	return &Handler{videos: videos, auth: authSvc, urls: urls, checks: checks}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)
	r.GET("/api/health", h.health)
	r.GET("/health/ready", h.ready)

	admin := r.Group("/api/admin")
	admin.Use(middleware.AuthRequired(h.auth), middleware.RequireRoles(auth.RoleAdmin))
	admin.GET("/videos", h.listVideos)
	admin.POST("/videos", h.createVideo)
	admin.GET("/videos/:id", h.getVideo)
	admin.PUT("/videos/:id", h.updateVideo)
	admin.PATCH("/videos/:id/featured", h.toggleFeatured)
	admin.DELETE("/videos/:id", h.deleteVideo)
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

func (h *Handler) present(v domain.Video) AdminVideo {
	v.ThumbnailURL = h.urls.ThumbnailURL(v)
	return AdminVideo{Video: v, StreamURL: h.urls.StreamURL(v.ID)}
}

// writeError maps service errors. Validation messages are returned as is.
func (h *Handler) writeError(c *gin.Context, action string, err error, fallback string) {
	switch {
	case errors.Is(err, adminservice.ErrInvalidInput):
		message := strings.TrimPrefix(err.Error(), adminservice.ErrInvalidInput.Error()+": ")
		c.JSON(http.StatusBadRequest, NewErrorResponse(message))
	case errors.Is(err, adminservice.ErrVideoNotFound):
		c.JSON(http.StatusNotFound, NewErrorResponse("video not found"))
	default:
		commonlog.Errorf("event=admin_video action=%s status=failed video_id=%s error=%v", action, c.Param("id"), err)
		c.JSON(http.StatusInternalServerError, NewErrorResponse(fallback))
	}
}

func (h *Handler) listVideos(c *gin.Context) {
	items, err := h.videos.List(c.Request.Context())
	if err != nil {
		h.writeError(c, "list", err, "error fetching videos")
		return
	}
	out := make([]AdminVideo, 0, len(items))
	for _, v := range items {
		out = append(out, h.present(v))
	}
	c.JSON(http.StatusOK, VideosResponse{Success: true, Videos: out})
}

func (h *Handler) getVideo(c *gin.Context) {
	v, err := h.videos.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeError(c, "get", err, "error fetching video")
		return
	}
	c.JSON(http.StatusOK, VideoResponse{Success: true, Video: h.present(v)})
}

func (h *Handler) createVideo(c *gin.Context) {
	var req createVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse("invalid request body"))
		return
	}
	identity, _ := middleware.IdentityFromContext(c)
	v, err := h.videos.Create(c.Request.Context(), identity.UserID, req.input())
	if err != nil {
		h.writeError(c, "create", err, "error creating video")
		return
	}
	c.JSON(http.StatusCreated, VideoResponse{Success: true, Video: h.present(v)})
}

func (h *Handler) updateVideo(c *gin.Context) {
	var req updateVideoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse("invalid request body"))
		return
	}
	v, err := h.videos.Update(c.Request.Context(), c.Param("id"), req.input())
	if err != nil {
		h.writeError(c, "update", err, "error updating video")
		return
	}
	c.JSON(http.StatusOK, VideoResponse{Success: true, Video: h.present(v)})
}

func (h *Handler) toggleFeatured(c *gin.Context) {
	var req featuredRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IsFeatured == nil {
		c.JSON(http.StatusBadRequest, NewErrorResponse("isFeatured must be a boolean"))
		return
	}
	v, err := h.videos.SetFeatured(c.Request.Context(), c.Param("id"), *req.IsFeatured)
	if err != nil {
		h.writeError(c, "feature", err, "error updating featured status")
		return
	}
	c.JSON(http.StatusOK, VideoResponse{Success: true, Video: h.present(v)})
}

func (h *Handler) deleteVideo(c *gin.Context) {
	report, err := h.videos.Delete(c.Request.Context(), c.Param("id"))
	if errors.Is(err, adminservice.ErrDeleteIncomplete) {
		c.JSON(http.StatusInternalServerError, DeleteFailedResponse{
			Success:  false,
			Message:  "error deleting video",
			Failures: report.Failures(),
		})
		return
	}
	if err != nil {
		h.writeError(c, "delete", err, "error deleting video")
		return
	}
	c.JSON(http.StatusOK, MessageResponse{Success: true, Message: "Video deleted successfully"})
}
