package dummydb

import (
	"sort"
	"time"

	"github.com/colegiohq/backend/core"
	"github.com/colegiohq/backend/core/notification"
)

type notificationRepository struct {
	db *DB
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *DB) notification.Repository {
	return &notificationRepository{db: db}
}

func (repo *notificationRepository) query() []notification.Notification {
	notifs := make([]notification.Notification, 0, len(repo.db.notifications))
	for _, n := range repo.db.notifications {
		notifs = append(notifs, *n)
	}
	sort.Slice(notifs, func(i, j int) bool { return notifs[i].ID < notifs[j].ID })
	return notifs
}

func (repo *notificationRepository) CreateNotification(n notification.Notification) (notification.Notification, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	n.ID = repo.db.nextID()
	repo.db.notifications[n.ID] = &n
	return n, nil
}

func (repo *notificationRepository) GetNotificationByID(id int) (notification.Notification, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if n, ok := repo.db.notifications[id]; ok {
		return *n, nil
	}
	return notification.Notification{}, notification.ErrNotFound
}

func (repo *notificationRepository) NotificationsByUser(userID int, page core.Page) ([]notification.Notification, int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var notifs []notification.Notification
	for _, n := range repo.query() {
		if n.UserID == userID {
			notifs = append(notifs, n)
		}
	}
	sort.Slice(notifs, func(i, j int) bool { return notifs[i].CreatedAt.After(notifs[j].CreatedAt) })

	total := len(notifs)
	start, end := paginate(total, page.Offset(), page.Size)
	return notifs[start:end], total, nil
}

func (repo *notificationRepository) CountUnreadByUser(userID int) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	count := 0
	for _, n := range repo.db.notifications {
		if n.UserID == userID && n.ReadAt == nil {
			count++
		}
	}
	return count, nil
}

func (repo *notificationRepository) MarkNotificationRead(id int, at time.Time) (notification.Notification, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	n, ok := repo.db.notifications[id]
	if !ok {
		return notification.Notification{}, notification.ErrNotFound
	}
	if n.ReadAt == nil {
		n.ReadAt = &at
	}
	return *n, nil
}

func (repo *notificationRepository) MarkAllRead(userID int, at time.Time) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, n := range repo.db.notifications {
		if n.UserID == userID && n.ReadAt == nil {
			readAt := at
			n.ReadAt = &readAt
		}
	}
	return nil
}
