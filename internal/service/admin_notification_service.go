package service

import (
	"context"
	"errors"
	"strings"

	"copyforge/internal/changefeed"
	"copyforge/internal/models"
	"copyforge/internal/notify"
	"copyforge/internal/repository"

	"github.com/sirupsen/logrus"
)

var ErrInvalidNotification = errors.New("notification needs a valid type, a title and a message")

type CreateNotificationInput struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	IsActive *bool  `json:"is_active"`
}

// AdminNotificationService manages admin-authored notifications. Every write
// is announced on the change feed so open panels refresh.
type AdminNotificationService struct {
	repo *repository.NotificationRepository
	pub  changefeed.Publisher
	log  logrus.FieldLogger
}

func NewAdminNotificationService(repo *repository.NotificationRepository, pub changefeed.Publisher, log logrus.FieldLogger) *AdminNotificationService {
	return &AdminNotificationService{repo: repo, pub: pub, log: log}
}

func (s *AdminNotificationService) Create(ctx context.Context, in CreateNotificationInput) (*models.Notification, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Message = strings.TrimSpace(in.Message)
	if in.Type == "" {
		in.Type = string(notify.TypeInfo)
	}
	if !notify.Type(in.Type).Valid() || in.Title == "" || in.Message == "" || len(in.Title) > 255 {
		return nil, ErrInvalidNotification
	}
	active := true
	if in.IsActive != nil {
		active = *in.IsActive
	}
	n := &models.Notification{
		Type:     in.Type,
		Title:    in.Title,
		Message:  in.Message,
		IsActive: active,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"notification_id": n.ID, "active": n.IsActive}).Info("notification created")
	s.changed()
	return n, nil
}

func (s *AdminNotificationService) SetActive(ctx context.Context, id string, active bool) (*models.Notification, error) {
	if err := s.repo.SetActive(ctx, id, active); err != nil {
		return nil, err
	}
	s.changed()
	return s.repo.GetByID(ctx, id)
}

func (s *AdminNotificationService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.WithField("notification_id", id).Info("notification deleted")
	s.changed()
	return nil
}

func (s *AdminNotificationService) List(ctx context.Context, page, limit int) ([]models.Notification, int64, error) {
	return s.repo.List(ctx, page, limit)
}

func (s *AdminNotificationService) changed() {
	s.pub.Publish(changefeed.Event{Category: changefeed.CategoryNotifications})
}
