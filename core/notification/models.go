package notification

import (
	"time"

	"github.com/pkg/errors"

	"github.com/colegiohq/backend/core"
)

var ErrNotFound = errors.New("notification not found")

// Notification is addressed to exactly one user; created as a side effect of
// report submission.
type Notification struct {
	ID        int                    `json:"id"`
	UserID    int                    `json:"user_id"`
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	ReadAt    *time.Time             `json:"read_at,omitempty"`
	CreatedAt time.Time              `json:"created_at"` // UTC
}

type (
	Repository interface {
		CreateNotification(n Notification) (Notification, error)
		GetNotificationByID(id int) (Notification, error)
		// NotificationsByUser is ordered by creation date descending.
		NotificationsByUser(userID int, page core.Page) ([]Notification, int, error)
		CountUnreadByUser(userID int) (int, error)
		MarkNotificationRead(id int, at time.Time) (Notification, error)
		MarkAllRead(userID int, at time.Time) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(n Notification) (Notification, error) {
	n.CreatedAt = time.Now().UTC()
	return svc.repo.CreateNotification(n)
}

func (svc *Service) GetByID(id int) (Notification, error) {
	return svc.repo.GetNotificationByID(id)
}

func (svc *Service) ByUser(userID int, page core.Page) ([]Notification, int, error) {
	return svc.repo.NotificationsByUser(userID, page)
}

func (svc *Service) UnreadCount(userID int) (int, error) {
	return svc.repo.CountUnreadByUser(userID)
}

func (svc *Service) MarkRead(id int) (Notification, error) {
	return svc.repo.MarkNotificationRead(id, time.Now().UTC())
}

func (svc *Service) MarkAllRead(userID int) error {
	return svc.repo.MarkAllRead(userID, time.Now().UTC())
}
