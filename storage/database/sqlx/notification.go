package sqlxrepos

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/colegiohq/backend/core"
	"github.com/colegiohq/backend/core/notification"
)

type notificationRow struct {
	ID        int             `db:"id"`
	UserID    int             `db:"user_id"`
	Type      string          `db:"type"`
	Title     string          `db:"title"`
	Message   string          `db:"message"`
	Data      json.RawMessage `db:"data"`
	ReadAt    sql.NullTime    `db:"read_at"`
	CreatedAt time.Time       `db:"created_at"`
}

func (r notificationRow) toNotification() (notification.Notification, error) {
	n := notification.Notification{
		ID:        r.ID,
		UserID:    r.UserID,
		Type:      r.Type,
		Title:     r.Title,
		Message:   r.Message,
		CreatedAt: r.CreatedAt,
	}
	if r.ReadAt.Valid {
		at := r.ReadAt.Time
		n.ReadAt = &at
	}
	if len(r.Data) > 0 {
		if err := json.Unmarshal(r.Data, &n.Data); err != nil {
			return notification.Notification{}, errors.Wrap(err, "decoding notification data")
		}
	}
	return n, nil
}

type notificationRepository struct {
	db *sqlx.DB
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

var notificationOrdering = core.DBOrdering{Field: "created_at"}

func NewNotificationRepository(db *sqlx.DB) notification.Repository {
	return &notificationRepository{db: db}
}

func (repo *notificationRepository) CreateNotification(n notification.Notification) (notification.Notification, error) {
	var data []byte
	if n.Data != nil {
		var err error
		if data, err = json.Marshal(n.Data); err != nil {
			return notification.Notification{}, errors.Wrap(err, "encoding notification data")
		}
	}

	q := `INSERT INTO notifications (user_id, type, title, message, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`
	err := repo.db.QueryRow(q, n.UserID, n.Type, n.Title, n.Message, data, n.CreatedAt).Scan(&n.ID)
	if err != nil {
		return notification.Notification{}, errors.Wrap(err, "creating notification")
	}
	return n, nil
}

func (repo *notificationRepository) GetNotificationByID(id int) (notification.Notification, error) {
	var row notificationRow
	if err := repo.db.Get(&row, `SELECT * FROM notifications WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return notification.Notification{}, notification.ErrNotFound
		}
		return notification.Notification{}, errors.Wrap(err, "getting notification")
	}
	return row.toNotification()
}

func (repo *notificationRepository) NotificationsByUser(userID int, page core.Page) ([]notification.Notification, int, error) {
	var total int
	if err := repo.db.Get(&total, `SELECT COUNT(*) FROM notifications WHERE user_id = $1`, userID); err != nil {
		return nil, 0, errors.Wrap(err, "counting notifications")
	}

	q := `SELECT * FROM notifications WHERE user_id = $1 ORDER BY ` + notificationOrdering.String() + ` LIMIT $2 OFFSET $3`
	var rows []notificationRow
	if err := repo.db.Select(&rows, q, userID, page.Size, page.Offset()); err != nil {
		return nil, 0, errors.Wrap(err, "getting user notifications")
	}

	notifs := make([]notification.Notification, 0, len(rows))
	for _, row := range rows {
		n, err := row.toNotification()
		if err != nil {
			return nil, 0, err
		}
		notifs = append(notifs, n)
	}
	return notifs, total, nil
}

func (repo *notificationRepository) CountUnreadByUser(userID int) (int, error) {
	var count int
	q := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read_at IS NULL`
	if err := repo.db.Get(&count, q, userID); err != nil {
		return 0, errors.Wrap(err, "counting unread notifications")
	}
	return count, nil
}

func (repo *notificationRepository) MarkNotificationRead(id int, at time.Time) (notification.Notification, error) {
	_, err := repo.db.Exec(`UPDATE notifications SET read_at = $1 WHERE id = $2 AND read_at IS NULL`, at, id)
	if err != nil {
		return notification.Notification{}, errors.Wrap(err, "marking notification read")
	}
	return repo.GetNotificationByID(id)
}

func (repo *notificationRepository) MarkAllRead(userID int, at time.Time) error {
	_, err := repo.db.Exec(`UPDATE notifications SET read_at = $1 WHERE user_id = $2 AND read_at IS NULL`, at, userID)
	return errors.Wrap(err, "marking all notifications read")
}
