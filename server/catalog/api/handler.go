package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"stream_server/server/catalog/domain"
	"stream_server/server/catalog/service"
	"stream_server/server/common/infra/object"
	commonlog "stream_server/server/common/log"
	"stream_server/server/common/metrics"
	"stream_server/server/common/transport/httpresp"
)

const (
	serviceName    = "catalog"
	copyBufferSize = 64 * 1024
)

var copyBuffers = sync.Pool{New: func() any { b := make([]byte, copyBufferSize); return &b }}

// ReadinessCheck reports whether a dependency can serve requests.
type ReadinessCheck func(ctx context.Context) error

type Handler struct {
	catalog *service.CatalogService
	streams *service.StreamService
	urls    service.URLBuilder
	checks  map[string]ReadinessCheck
}

func NewHandler(catalog *service.CatalogService, streams *service.StreamService, urls service.URLBuilder, checks map[string]ReadinessCheck) *Handler {
	return &Handler{catalog: catalog, streams: streams, urls: urls, checks: checks}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)
	r.GET("/api/health", h.health)
	r.GET("/health/ready", h.ready)

	h.registerPublic(r.Group("/"))
	h.registerPublic(r.Group("/api/streaming"))
}

func (h *Handler) registerPublic(g *gin.RouterGroup) {
	g.GET("/videos", h.listVideos)
	g.GET("/videos/featured", h.featuredVideos)
	g.GET("/videos/by-genre", h.videosByGenre)
	g.GET("/videos/:videoId", h.getVideo)
	g.GET("/stream/:videoId", h.stream)
	g.GET("/thumbnails/*key", h.thumbnail)
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

func (h *Handler) listVideos(c *gin.Context) {
	items, err := h.catalog.List(c.Request.Context(), domain.Filter{Genre: c.Query("genre"), Search: c.Query("search")})
	if err != nil {
		commonlog.Errorf("event=catalog action=list status=failed error=%v", err)
		c.JSON(http.StatusInternalServerError, NewErrorResponse("error fetching videos"))
		return
	}
	c.JSON(http.StatusOK, NewVideosResponse(h.urls.PublicList(items)))
}

func (h *Handler) featuredVideos(c *gin.Context) {
	items, err := h.catalog.Featured(c.Request.Context())
	if err != nil {
		commonlog.Errorf("event=catalog action=featured status=failed error=%v", err)
		c.JSON(http.StatusInternalServerError, NewErrorResponse("error fetching featured videos"))
		return
	}
	c.JSON(http.StatusOK, NewVideosResponse(h.urls.PublicList(items)))
}

func (h *Handler) videosByGenre(c *gin.Context) {
	perGenre, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(service.DefaultPerGenre)))
	grouped, err := h.catalog.ByGenre(c.Request.Context(), perGenre)
	if err != nil {
		commonlog.Errorf("event=catalog action=by_genre status=failed error=%v", err)
		c.JSON(http.StatusInternalServerError, NewErrorResponse("error fetching videos by genre"))
		return
	}
	out := make(map[string][]domain.PublicVideo, len(grouped))
	for genre, items := range grouped {
		if len(items) > 0 {
			out[genre] = h.urls.PublicList(items)
		}
	}
	c.JSON(http.StatusOK, NewVideosByGenreResponse(out))
}

func (h *Handler) getVideo(c *gin.Context) {
	v, err := h.catalog.Get(c.Request.Context(), c.Param("videoId"))
	if err != nil {
		if errors.Is(err, service.ErrVideoNotFound) {
			c.JSON(http.StatusNotFound, NewErrorResponse("video not found"))
			return
		}
		commonlog.Errorf("event=catalog action=get status=failed video_id=%s error=%v", c.Param("videoId"), err)
		c.JSON(http.StatusInternalServerError, NewErrorResponse("error fetching video details"))
		return
	}
	c.JSON(http.StatusOK, NewVideoResponse(h.urls.Public(v)))
}

func streamErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrRangeRequired):
		return http.StatusBadRequest, "requires Range header"
	case errors.Is(err, service.ErrVideoNotFound):
		return http.StatusNotFound, "video not found"
	case errors.Is(err, service.ErrRangeNotSatisfiable):
		return http.StatusRequestedRangeNotSatisfiable, "requested range not satisfiable"
	case errors.Is(err, object.ErrStorageUnavailable):
		return http.StatusInternalServerError, "error fetching video"
	default:
		return http.StatusInternalServerError, httpresp.ErrInternal
	}
}

func (h *Handler) stream(c *gin.Context) {
	videoID := c.Param("videoId")
	startedAt := time.Now()
	st, err := h.streams.Open(c.Request.Context(), videoID, c.GetHeader("Range"))
	if err != nil {
		status, message := streamErrorStatus(err)
		if status >= http.StatusInternalServerError {
			commonlog.Errorf("event=stream action=open status=failed video_id=%s error=%v", videoID, err)
		} else {
			commonlog.Debugf("event=stream action=open status=rejected video_id=%s http_status=%d error=%v", videoID, status, err)
		}
		var rangeErr *service.RangeNotSatisfiableError
		if errors.As(err, &rangeErr) {
			c.Header("Content-Range", "bytes */"+strconv.FormatInt(rangeErr.Total, 10))
		}
		metrics.RecordStream(strconv.Itoa(status), 0)
		c.JSON(status, NewErrorResponse(message))
		return
	}
	defer st.Body.Close()

	header := c.Writer.Header()
	header.Set("Content-Range", st.Range.ContentRange())
	header.Set("Accept-Ranges", "bytes")
	header.Set("Content-Length", strconv.FormatInt(st.Range.Length(), 10))
	header.Set("Content-Type", st.ContentType)
	c.Status(http.StatusPartialContent)
	c.Writer.WriteHeaderNow()

	written, err := copyBody(c.Writer, st.Body)
	metrics.RecordStream(strconv.Itoa(http.StatusPartialContent), written)
	if err != nil {
		// The response is shorter than its Content-Length, so the server
		// closes the connection and the client reissues the range.
		commonlog.Warnf("event=stream action=copy status=aborted video_id=%s range=%s written=%d latency_ms=%d error=%v", videoID, st.Range.ContentRange(), written, time.Since(startedAt).Milliseconds(), err)
		c.Abort()
		return
	}
	commonlog.Debugf("event=stream action=copy status=ok video_id=%s range=%s written=%d latency_ms=%d", videoID, st.Range.ContentRange(), written, time.Since(startedAt).Milliseconds())
}

func copyBody(w io.Writer, r io.Reader) (int64, error) {
	buf := copyBuffers.Get().(*[]byte)
	defer copyBuffers.Put(buf)
	return io.CopyBuffer(w, r, *buf)
}

func (h *Handler) thumbnail(c *gin.Context) {
	key := c.Param("key")
	obj, err := h.streams.OpenThumbnail(c.Request.Context(), key)
	if err != nil {
		status, _ := streamErrorStatus(err)
		if errors.Is(err, object.ErrObjectNotFound) {
			status = http.StatusNotFound
		}
		if status >= http.StatusInternalServerError {
			commonlog.Errorf("event=thumbnail action=open status=failed key=%s error=%v", key, err)
			c.JSON(status, NewErrorResponse("error fetching thumbnail"))
			return
		}
		c.JSON(status, NewErrorResponse("thumbnail not found"))
		return
	}
	defer obj.Body.Close()

	c.Header("Cache-Control", "public, max-age=86400")
	c.DataFromReader(http.StatusOK, obj.Size, obj.ContentType, obj.Body, nil)
}
