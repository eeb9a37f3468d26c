package service

import (
	"context"
	"errors"
	"strings"

	"copyforge/internal/changefeed"
	"copyforge/internal/models"
	"copyforge/internal/repository"
)

var ErrInvalidUsage = errors.New("usage needs a tool name and a positive word count")

// UsageService records words consumed by generator tools. Usage drives the
// synthetic usage-tier notifications, so each record triggers a refresh.
type UsageService struct {
	repo  *repository.UsageRepository
	users *repository.UserRepository
	pub   changefeed.Publisher
}

func NewUsageService(repo *repository.UsageRepository, users *repository.UserRepository, pub changefeed.Publisher) *UsageService {
	return &UsageService{repo: repo, users: users, pub: pub}
}

func (s *UsageService) Record(ctx context.Context, userID uint, tool string, words int) (*models.User, error) {
	tool = strings.TrimSpace(tool)
	if tool == "" || len(tool) > 64 || words <= 0 {
		return nil, ErrInvalidUsage
	}
	u, err := s.repo.Record(ctx, &models.UsageEvent{UserID: userID, Tool: tool, Words: words})
	if err != nil {
		return nil, err
	}
	s.pub.Publish(changefeed.Event{Category: changefeed.CategoryProfiles, UserID: userID})
	return u, nil
}

func (s *UsageService) SetLimit(ctx context.Context, userID uint, limit int) error {
	if limit < 0 {
		return ErrInvalidUsage
	}
	if err := s.users.SetWordsLimit(ctx, userID, limit); err != nil {
		return err
	}
	s.pub.Publish(changefeed.Event{Category: changefeed.CategoryProfiles, UserID: userID})
	return nil
}

// ResetUsage zeroes the counter of userID, e.g. at the start of a billing period.
func (s *UsageService) ResetUsage(ctx context.Context, userID uint) error {
	if err := s.users.ResetWordsUsed(ctx, userID); err != nil {
		return err
	}
	s.pub.Publish(changefeed.Event{Category: changefeed.CategoryProfiles, UserID: userID})
	return nil
}

func (s *UsageService) History(ctx context.Context, userID uint, limit, offset int) ([]models.UsageEvent, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}
