package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"stream_server/server/chat/domain"
)

type MessageRepository struct {
	pool *pgxpool.Pool
}

func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

func (r *MessageRepository) Create(ctx context.Context, m domain.Message) (domain.Message, error) {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO chat_messages(id, video_id, user_id, user_name, role, content)
		VALUES($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, m.ID, m.VideoID, m.UserID, m.UserName, m.Role, m.Content).Scan(&m.CreatedAt)
	return m, err
}

// Recent returns the newest limit messages of a video, oldest first.
func (r *MessageRepository) Recent(ctx context.Context, videoID string, limit int) ([]domain.Message, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, video_id, user_id, user_name, role, content, created_at
		FROM chat_messages
		WHERE video_id=$1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, videoID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Message, 0, limit)
	for rows.Next() {
		var m domain.Message
		if err := rows.Scan(&m.ID, &m.VideoID, &m.UserID, &m.UserName, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
	return items, nil
}
