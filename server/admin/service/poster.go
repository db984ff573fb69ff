package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"

	"stream_server/server/common/infra/object"
	commonlog "stream_server/server/common/log"
)

const (
	posterWidth    = 640
	posterHeight   = 360
	posterQuality  = 85
	posterMaxBytes = 20 << 20
	posterPrefix   = "thumbnails/"
	posterSuffix   = "_thumb.jpg"
	sniffBytes     = 3072
)

var errNotAnImage = errors.New("object is not an image")

// PosterMaker inspects uploaded objects. It sniffs video content types and
// rewrites uploaded thumbnails into bounded JPEG posters.
type PosterMaker struct {
	objects object.Gateway
}

func NewPosterMaker(objects object.Gateway) *PosterMaker {
	return &PosterMaker{objects: objects}
}

// PosterKey is where the poster of one video is stored. Each video owns
// exactly one poster object.
func PosterKey(videoID string) string {
	return posterPrefix + videoID + posterSuffix
}

func (p *PosterMaker) readHead(ctx context.Context, key string, limit int64) ([]byte, int64, error) {
	meta, err := p.objects.Head(ctx, key)
	if err != nil {
		return nil, 0, err
	}
	if meta.Size == 0 {
		return nil, 0, nil
	}
	end := min(meta.Size, limit) - 1
	rc, err := p.objects.GetRange(ctx, key, 0, end)
	if err != nil {
		return nil, meta.Size, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	return data, meta.Size, err
}

// SniffVideoType detects the content type from the leading bytes of the
// object. It returns "" when the object cannot be read.
func (p *PosterMaker) SniffVideoType(ctx context.Context, key string) string {
	data, _, err := p.readHead(ctx, key, sniffBytes)
	if err != nil {
		commonlog.Warnf("event=admin_video action=sniff status=failed storage_key=%s error=%v", key, err)
		return ""
	}
	if len(data) == 0 {
		return ""
	}
	detected := mimetype.Detect(data)
	commonlog.Debugf("event=admin_video action=sniff status=ok storage_key=%s content_type=%s", key, detected.String())
	return detected.String()
}

// Normalize stores a JPEG poster of the image at key for videoID and
// returns the poster key. Keys that already point at a poster are returned
// as is. The source image is left in place.
func (p *PosterMaker) Normalize(ctx context.Context, videoID, key string) (string, error) {
	if strings.HasPrefix(key, posterPrefix) && strings.HasSuffix(key, posterSuffix) {
		return key, nil
	}
	data, size, err := p.readHead(ctx, key, posterMaxBytes)
	if err != nil {
		return "", err
	}
	if size > posterMaxBytes {
		return "", fmt.Errorf("thumbnail %s too large: %d bytes", key, size)
	}
	if len(data) == 0 || !strings.HasPrefix(mimetype.Detect(data).String(), "image/") {
		return "", errNotAnImage
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("decode thumbnail: %w", err)
	}
	poster := imaging.Fit(img, posterWidth, posterHeight, imaging.Lanczos)
	buf := bytes.NewBuffer(nil)
	if err := imaging.Encode(buf, poster, imaging.JPEG, imaging.JPEGQuality(posterQuality)); err != nil {
		return "", fmt.Errorf("encode poster: %w", err)
	}

	posterKey := PosterKey(videoID)
	reader := bytes.NewReader(buf.Bytes())
	if err := p.objects.Put(ctx, posterKey, reader, int64(reader.Len()), "image/jpeg"); err != nil {
		return "", fmt.Errorf("upload poster: %w", err)
	}
	commonlog.Infof("event=admin_video action=poster status=ok video_id=%s thumbnail_key=%s poster_key=%s bytes=%d", videoID, key, posterKey, buf.Len())
	return posterKey, nil
}
