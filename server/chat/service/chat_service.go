package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"stream_server/server/chat/domain"
	"stream_server/server/common/infra/mq"
	commonlog "stream_server/server/common/log"
)

const (
	DefaultHistoryLimit     = 50
	MaxHistoryLimit         = 200
	DefaultMaxMessageLength = 1000
	dedupeKeyPrefix         = "chat:message:idempotency"
)

var (
	ErrVideoIDRequired  = errors.New("videoId is required")
	ErrContentRequired  = errors.New("videoId and content are required")
	ErrNotJoined        = errors.New("you must join the room before sending messages")
	ErrEmptyMessage     = errors.New("message cannot be empty")
	ErrMessageTooLong   = errors.New("message is too long")
	ErrDuplicateMessage = errors.New("duplicate message")
)

type MessageStore interface {
	Create(ctx context.Context, m domain.Message) (domain.Message, error)
	Recent(ctx context.Context, videoID string, limit int) ([]domain.Message, error)
}

// Deduper suppresses repeated sends of the same client message id.
type Deduper interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type Options struct {
	HistoryLimit     int
	MaxMessageLength int
	Dedupe           Deduper
	Events           mq.Publisher
}

type ChatService struct {
	store        MessageStore
	dedupe       Deduper
	events       mq.Publisher
	historyLimit int
	maxLength    int
}

func NewChatService(store MessageStore, opts Options) *ChatService {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	if opts.MaxMessageLength <= 0 {
		opts.MaxMessageLength = DefaultMaxMessageLength
	}
	if opts.Events == nil {
		opts.Events = mq.NopPublisher{}
	}
	return &ChatService{
		store:        store,
		dedupe:       opts.Dedupe,
		events:       opts.Events,
		historyLimit: opts.HistoryLimit,
		maxLength:    opts.MaxMessageLength,
	}
}

// ClampHistoryLimit maps a requested page size into 1..MaxHistoryLimit.
// Zero or negative values fall back to the default.
func ClampHistoryLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	return min(limit, MaxHistoryLimit)
}

// Join returns the replay for a newly joined connection.
func (s *ChatService) Join(ctx context.Context, videoID string) ([]domain.Message, error) {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return nil, ErrVideoIDRequired
	}
	return s.History(ctx, videoID, s.historyLimit)
}

// History returns the newest limit messages, oldest first.
func (s *ChatService) History(ctx context.Context, videoID string, limit int) ([]domain.Message, error) {
	if strings.TrimSpace(videoID) == "" {
		return nil, ErrVideoIDRequired
	}
	items, err := s.store.Recent(ctx, videoID, ClampHistoryLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("load history %s: %w", videoID, err)
	}
	if items == nil {
		items = []domain.Message{}
	}
	return items, nil
}

// ValidateContent trims content and enforces the length cap in characters.
func (s *ChatService) ValidateContent(content string) (string, error) {
	text := strings.TrimSpace(content)
	if text == "" {
		return "", ErrEmptyMessage
	}
	if utf8.RuneCountInString(text) > s.maxLength {
		return "", ErrMessageTooLong
	}
	return text, nil
}

func dedupeKey(videoID, userID, clientMsgID string) string {
	return fmt.Sprintf("%s:%s:%s:%s", dedupeKeyPrefix, videoID, userID, clientMsgID)
}

// Post validates and persists one message. Membership is checked by the
// caller before Post is reached.
func (s *ChatService) Post(ctx context.Context, sender domain.Sender, videoID, content, clientMsgID string) (domain.Message, error) {
	text, err := s.ValidateContent(content)
	if err != nil {
		return domain.Message{}, err
	}

	key := ""
	clientMsgID = strings.TrimSpace(clientMsgID)
	if clientMsgID != "" && s.dedupe != nil {
		key = dedupeKey(videoID, sender.UserID, clientMsgID)
		fresh, err := s.dedupe.Claim(ctx, key)
		if err != nil {
			return domain.Message{}, fmt.Errorf("claim message id: %w", err)
		}
		if !fresh {
			return domain.Message{}, ErrDuplicateMessage
		}
	}

	startedAt := time.Now()
	created, err := s.store.Create(ctx, domain.Message{
		ID:       uuid.NewString(),
		VideoID:  videoID,
		UserID:   sender.UserID,
		UserName: sender.Name,
		Role:     sender.Role,
		Content:  text,
	})
	if err != nil {
		commonlog.Errorf("event=chat_message_persist action=create status=failed video_id=%s user_id=%s client_msg_id_present=%t latency_ms=%d error=%v", videoID, sender.UserID, clientMsgID != "", time.Since(startedAt).Milliseconds(), err)
		if key != "" {
			_ = s.dedupe.Release(ctx, key)
		}
		return domain.Message{}, fmt.Errorf("persist message: %w", err)
	}
	commonlog.Infof("event=chat_message_persist action=create status=ok video_id=%s user_id=%s message_id=%s client_msg_id_present=%t latency_ms=%d", videoID, sender.UserID, created.ID, clientMsgID != "", time.Since(startedAt).Milliseconds())

	if err := s.events.Publish(ctx, mq.RoutingChatMessageCreated, created); err != nil {
		commonlog.Warnf("event=chat_event action=publish status=failed message_id=%s error=%v", created.ID, err)
	}
	return created, nil
}
