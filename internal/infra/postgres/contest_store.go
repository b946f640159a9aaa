package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"studyhub-bot/internal/domain"
)

// ContestStore persists contests and submissions in Postgres.
type ContestStore struct {
	pool *pgxpool.Pool
}

func NewContestStore(pool *pgxpool.Pool) *ContestStore {
	return &ContestStore{pool: pool}
}

func (s *ContestStore) InsertContest(ctx context.Context, c *domain.MemeContest) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO meme_contests (channel_id, start_date, end_date, status, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		c.ChannelID, c.StartDate, c.EndDate, string(c.Status), c.CreatedAt,
	).Scan(&c.ID)
	if err != nil {
		return fmt.Errorf("insert contest: %w", err)
	}
	return nil
}

func (s *ContestStore) FindActiveContest(ctx context.Context) (*domain.MemeContest, error) {
	var c domain.MemeContest
	var status string
	var winnerUser, winnerMessage sql.NullString
	err := s.pool.QueryRow(ctx,
		`SELECT id, channel_id, start_date, end_date, status, winner_user_id, winner_message_id, created_at
		 FROM meme_contests
		 WHERE status = 'active'
		 ORDER BY created_at DESC
		 LIMIT 1`,
	).Scan(&c.ID, &c.ChannelID, &c.StartDate, &c.EndDate, &status, &winnerUser, &winnerMessage, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find active contest: %w", err)
	}
	c.Status = domain.ContestStatus(status)
	c.WinnerUserID = winnerUser.String
	c.WinnerMessageID = winnerMessage.String
	return &c, nil
}

func (s *ContestStore) MarkContestEnded(ctx context.Context, id int64, winnerUserID, winnerMessageID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE meme_contests
		 SET status = 'ended', winner_user_id = NULLIF($2, ''), winner_message_id = NULLIF($3, '')
		 WHERE id = $1`,
		id, winnerUserID, winnerMessageID)
	if err != nil {
		return fmt.Errorf("mark contest ended: %w", err)
	}
	return nil
}

func (s *ContestStore) InsertSubmission(ctx context.Context, sub domain.MemeSubmission) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO meme_submissions (contest_id, author_id, message_id, reaction_count, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (contest_id, message_id) DO NOTHING`,
		sub.ContestID, sub.AuthorID, sub.MessageID, sub.ReactionCount, sub.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert submission: %w", err)
	}
	return nil
}

func (s *ContestStore) UpdateReactionCount(ctx context.Context, contestID int64, messageID string, count int) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE meme_submissions SET reaction_count = $1
		 WHERE contest_id = $2 AND message_id = $3`,
		count, contestID, messageID)
	if err != nil {
		return fmt.Errorf("update reaction count: %w", err)
	}
	return nil
}

func (s *ContestStore) TopSubmissions(ctx context.Context, contestID int64, limit int) ([]domain.MemeSubmission, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT contest_id, author_id, message_id, reaction_count, created_at
		 FROM meme_submissions
		 WHERE contest_id = $1
		 ORDER BY reaction_count DESC, created_at ASC
		 LIMIT $2`,
		contestID, limit)
	if err != nil {
		return nil, fmt.Errorf("query top submissions: %w", err)
	}
	defer rows.Close()

	var subs []domain.MemeSubmission
	for rows.Next() {
		var sub domain.MemeSubmission
		if err := rows.Scan(&sub.ContestID, &sub.AuthorID, &sub.MessageID, &sub.ReactionCount, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}
