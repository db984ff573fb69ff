package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"stream_server/server/common/infra/mq"
	commonlog "stream_server/server/common/log"
	"stream_server/server/repository"
)

const (
	TargetVideoObject     = "video_object"
	TargetRecord          = "record"
	TargetThumbnailObject = "thumbnail_object"
)

var ErrDeleteIncomplete = errors.New("video deletion incomplete")

type DeleteOutcome struct {
	Target string `json:"target"`
	Key    string `json:"key,omitempty"`
	Error  string `json:"error,omitempty"`
}

func (o DeleteOutcome) OK() bool {
	return o.Error == ""
}

// DeleteReport lists the outcome of every removal attempted for one video.
type DeleteReport struct {
	VideoID  string          `json:"videoId"`
	Outcomes []DeleteOutcome `json:"outcomes"`
}

func (r DeleteReport) Failures() []DeleteOutcome {
	var failed []DeleteOutcome
	for _, o := range r.Outcomes {
		if !o.OK() {
			failed = append(failed, o)
		}
	}
	return failed
}

// Orphaned returns the object keys that may still be in the bucket.
func (r DeleteReport) Orphaned() []string {
	var keys []string
	for _, o := range r.Failures() {
		if o.Target != TargetRecord && o.Key != "" {
			keys = append(keys, o.Key)
		}
	}
	return keys
}

type deleteIncompleteEvent struct {
	VideoID  string          `json:"videoId"`
	Orphaned []string        `json:"orphaned"`
	Failures []DeleteOutcome `json:"failures"`
}

// Delete removes the video object, the record and the thumbnail object
// concurrently. Every removal is attempted even when another fails.
func (s *VideoService) Delete(ctx context.Context, id string) (DeleteReport, error) {
	v, err := s.store.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return DeleteReport{}, ErrVideoNotFound
	}
	if err != nil {
		return DeleteReport{}, fmt.Errorf("load video %s: %w", id, err)
	}

	report := DeleteReport{VideoID: v.ID}
	var mu sync.Mutex
	record := func(target, key string, err error) {
		outcome := DeleteOutcome{Target: target, Key: key}
		if err != nil {
			outcome.Error = err.Error()
		}
		mu.Lock()
		report.Outcomes = append(report.Outcomes, outcome)
		mu.Unlock()
	}

	var g errgroup.Group
	g.Go(func() error {
		record(TargetVideoObject, v.StorageKey, s.objects.Remove(ctx, v.StorageKey))
		return nil
	})
	g.Go(func() error {
		err := s.store.Delete(ctx, v.ID)
		if errors.Is(err, repository.ErrNotFound) {
			err = nil
		}
		record(TargetRecord, v.ID, err)
		return nil
	})
	if v.ThumbnailKey != "" {
		g.Go(func() error {
			record(TargetThumbnailObject, v.ThumbnailKey, s.objects.Remove(ctx, v.ThumbnailKey))
			return nil
		})
	}
	_ = g.Wait()

	if failures := report.Failures(); len(failures) > 0 {
		targets := make([]string, 0, len(failures))
		for _, f := range failures {
			targets = append(targets, f.Target)
		}
		commonlog.Errorf("event=admin_video action=delete status=incomplete video_id=%s failed=%s", v.ID, strings.Join(targets, ","))
		s.publish(ctx, mq.RoutingVideoDeleteIncomplete, deleteIncompleteEvent{
			VideoID:  v.ID,
			Orphaned: report.Orphaned(),
			Failures: failures,
		})
		return report, ErrDeleteIncomplete
	}

	commonlog.Infof("event=admin_video action=delete status=ok video_id=%s storage_key=%s thumbnail_key=%s", v.ID, v.StorageKey, v.ThumbnailKey)
	s.publish(ctx, mq.RoutingVideoDeleted, map[string]string{"videoId": v.ID, "s3Key": v.StorageKey})
	return report, nil
}
