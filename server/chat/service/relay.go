package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"stream_server/server/chat/domain"
	commonlog "stream_server/server/common/log"
	"stream_server/server/common/metrics"
)

const (
	EventJoin    = "chat:join"
	EventLeave   = "chat:leave"
	EventMessage = "chat:message"
	EventHistory = "chat:history"
	EventAck     = "ack"

	eventTimeout = 10 * time.Second
)

// Envelope is the frame format in both directions.
type Envelope struct {
	Event string          `json:"event"`
	AckID string          `json:"ack_id,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outbound struct {
	Event string `json:"event"`
	AckID string `json:"ack_id,omitempty"`
	Data  any    `json:"data"`
}

type roomPayload struct {
	VideoID     string  `json:"videoId"`
	Content     *string `json:"content"`
	ClientMsgID string  `json:"clientMsgId"`
}

type JoinAck struct {
	Success  bool             `json:"success"`
	Messages []domain.Message `json:"messages"`
}

type MessageAck struct {
	Success bool           `json:"success"`
	Message domain.Message `json:"message"`
}

type ErrorAck struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Relay runs authenticated websocket connections against one Registry.
type Relay struct {
	registry *Registry
	chat     *ChatService
}

func NewRelay(registry *Registry, chat *ChatService) *Relay {
	return &Relay{registry: registry, chat: chat}
}

func (r *Relay) Registry() *Registry {
	return r.registry
}

// Serve blocks until the connection ends. On return the client has left
// every room and the connection is closed.
func (r *Relay) Serve(ctx context.Context, conn *websocket.Conn, sender domain.Sender) {
	c := NewClient(conn, sender)
	metrics.ChatConnections.Inc()
	commonlog.Infof("event=chat_client action=connect status=ok client_id=%s user_id=%s", c.ID, sender.UserID)
	if !r.registry.Register(c) {
		commonlog.Infof("event=chat_client action=connect status=refused client_id=%s reason=shutting_down", c.ID)
	}
	defer func() {
		r.registry.Unregister(c)
		c.Close()
		_ = conn.Close()
		metrics.ChatConnections.Dec()
		commonlog.Infof("event=chat_client action=disconnect status=ok client_id=%s user_id=%s", c.ID, sender.UserID)
	}()

	go c.writePump()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				commonlog.Debugf("event=chat_client action=read status=closed client_id=%s error=%v", c.ID, err)
			}
			return
		}
		select {
		case <-c.Done():
			return
		default:
		}
		var env Envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			continue
		}
		r.dispatch(ctx, c, env)
	}
}

// Shutdown closes every connection the relay is serving.
func (r *Relay) Shutdown() {
	if n := r.registry.CloseAll(); n > 0 {
		commonlog.Infof("event=chat_relay action=shutdown status=ok closed_clients=%d", n)
	}
}

func (r *Relay) dispatch(ctx context.Context, c *Client, env Envelope) {
	ctx, cancel := context.WithTimeout(ctx, eventTimeout)
	defer cancel()

	var p roomPayload
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &p); err != nil {
			r.ackError(c, env.AckID, "invalid payload")
			return
		}
	}
	p.VideoID = strings.TrimSpace(p.VideoID)

	switch env.Event {
	case EventJoin:
		r.join(ctx, c, env.AckID, p)
	case EventMessage:
		r.message(ctx, c, env.AckID, p)
	case EventLeave:
		if p.VideoID != "" {
			r.registry.Leave(domain.RoomID(p.VideoID), c)
		}
	default:
		r.ackError(c, env.AckID, "unknown event")
	}
}

func (r *Relay) join(ctx context.Context, c *Client, ackID string, p roomPayload) {
	if p.VideoID == "" {
		r.ackError(c, ackID, ErrVideoIDRequired.Error())
		return
	}
	r.registry.Join(domain.RoomID(p.VideoID), c)

	messages, err := r.chat.Join(ctx, p.VideoID)
	if err != nil {
		commonlog.Errorf("event=chat_join action=history status=failed client_id=%s video_id=%s error=%v", c.ID, p.VideoID, err)
		r.ackError(c, ackID, "failed to load chat history")
		return
	}
	r.emit(c, outbound{Event: EventHistory, Data: messages})
	r.ack(c, ackID, JoinAck{Success: true, Messages: messages})
}

func (r *Relay) message(ctx context.Context, c *Client, ackID string, p roomPayload) {
	if p.VideoID == "" || p.Content == nil {
		r.ackError(c, ackID, ErrContentRequired.Error())
		return
	}
	roomID := domain.RoomID(p.VideoID)
	if !r.registry.IsMember(roomID, c) {
		metrics.RecordChatMessage("rejected")
		r.ackError(c, ackID, ErrNotJoined.Error())
		return
	}

	created, err := r.chat.Post(ctx, c.Sender, p.VideoID, *p.Content, p.ClientMsgID)
	if err != nil {
		switch {
		case errors.Is(err, ErrEmptyMessage), errors.Is(err, ErrMessageTooLong), errors.Is(err, ErrDuplicateMessage):
			metrics.RecordChatMessage("rejected")
			r.ackError(c, ackID, err.Error())
		default:
			metrics.RecordChatMessage("failed")
			r.ackError(c, ackID, "failed to send message")
		}
		return
	}

	frame, err := json.Marshal(outbound{Event: EventMessage, Data: created})
	if err != nil {
		r.ackError(c, ackID, "failed to send message")
		return
	}
	delivered := r.registry.Broadcast(roomID, frame)
	metrics.RecordChatMessage("ok")
	commonlog.Debugf("event=chat_message action=broadcast status=ok video_id=%s message_id=%s delivered=%d", p.VideoID, created.ID, delivered)
	r.ack(c, ackID, MessageAck{Success: true, Message: created})
}

func (r *Relay) ack(c *Client, ackID string, data any) {
	if ackID == "" {
		return
	}
	r.emit(c, outbound{Event: EventAck, AckID: ackID, Data: data})
}

func (r *Relay) ackError(c *Client, ackID, message string) {
	r.ack(c, ackID, ErrorAck{Success: false, Message: message})
}

func (r *Relay) emit(c *Client, frame outbound) {
	payload, err := json.Marshal(frame)
	if err != nil {
		commonlog.Errorf("event=chat_client action=encode status=failed client_id=%s error=%v", c.ID, err)
		return
	}
	if !c.trySend(payload) {
		r.registry.drop(c)
	}
}
