package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"studyhub-bot/internal/domain"
)

// ContestStore is an in-memory implementation of contest.Store, used in
// tests and database-less runs.
type ContestStore struct {
	mu          sync.Mutex
	nextID      int64
	contests    map[int64]*domain.MemeContest
	submissions map[int64][]domain.MemeSubmission // per contest, insertion order
}

func NewContestStore() *ContestStore {
	return &ContestStore{
		contests:    make(map[int64]*domain.MemeContest),
		submissions: make(map[int64][]domain.MemeSubmission),
	}
}

func (s *ContestStore) InsertContest(_ context.Context, c *domain.MemeContest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	c.ID = s.nextID
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	cp := *c
	s.contests[c.ID] = &cp
	return nil
}

func (s *ContestStore) FindActiveContest(_ context.Context) (*domain.MemeContest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var latest *domain.MemeContest
	for _, c := range s.contests {
		if c.Status != domain.ContestActive {
			continue
		}
		if latest == nil || c.CreatedAt.After(latest.CreatedAt) {
			latest = c
		}
	}
	if latest == nil {
		return nil, nil
	}
	cp := *latest
	return &cp, nil
}

func (s *ContestStore) MarkContestEnded(_ context.Context, id int64, winnerUserID, winnerMessageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contests[id]
	if !ok {
		return nil
	}
	c.Status = domain.ContestEnded
	c.WinnerUserID = winnerUserID
	c.WinnerMessageID = winnerMessageID
	return nil
}

func (s *ContestStore) InsertSubmission(_ context.Context, sub domain.MemeSubmission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.submissions[sub.ContestID] {
		if existing.MessageID == sub.MessageID {
			return nil // duplicate insert is a silent no-op
		}
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}
	s.submissions[sub.ContestID] = append(s.submissions[sub.ContestID], sub)
	return nil
}

func (s *ContestStore) UpdateReactionCount(_ context.Context, contestID int64, messageID string, count int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	subs := s.submissions[contestID]
	for i := range subs {
		if subs[i].MessageID == messageID {
			subs[i].ReactionCount = count
			return nil
		}
	}
	return nil
}

// TopSubmissions orders by reaction count descending; ties go to the
// earliest-created submission, falling back to insertion order.
func (s *ContestStore) TopSubmissions(_ context.Context, contestID int64, limit int) ([]domain.MemeSubmission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	subs := make([]domain.MemeSubmission, len(s.submissions[contestID]))
	copy(subs, s.submissions[contestID])
	sort.SliceStable(subs, func(i, j int) bool {
		if subs[i].ReactionCount != subs[j].ReactionCount {
			return subs[i].ReactionCount > subs[j].ReactionCount
		}
		return subs[i].CreatedAt.Before(subs[j].CreatedAt)
	})
	if len(subs) > limit {
		subs = subs[:limit]
	}
	return subs, nil
}
