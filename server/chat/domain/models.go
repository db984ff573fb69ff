package domain

import "time"

// Message is one persisted chat line in a video's room.
type Message struct {
	ID        string    `json:"id"`
	VideoID   string    `json:"videoId"`
	UserID    string    `json:"userId"`
	UserName  string    `json:"userName"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// Sender is the authenticated author attached to a connection.
type Sender struct {
	UserID string
	Name   string
	Role   string
}

func RoomID(videoID string) string {
	return "video:" + videoID
}
