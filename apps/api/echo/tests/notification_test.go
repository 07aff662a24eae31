package tests

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colegiohq/backend/core/notification"
	"github.com/colegiohq/backend/core/report"
)

func Test_notificationApi(t *testing.T) {
	app := setup(t)
	fx := seed(t, app)

	// two reports fan out two notifications to the coordinator
	for i := 0; i < 2; i++ {
		_, err := app.reportSvc.Create(report.NewReport{
			Title:         fmt.Sprintf("Report %d", i+1),
			ClassProgress: "ok",
			Date:          time.Now().UTC(),
			Priority:      report.PriorityNormal,
		}, fx.teacher1.ID, fx.school1.ID)
		require.NoError(t, err)
	}
	coordToken := getToken(t, app, fx.coord1)

	var first notification.Notification
	t.Run("own list", func(t *testing.T) {
		rec, env := do(t, app, http.MethodGet, "/v1/notifications", coordToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var notifs []notification.Notification
		pg := decodePage(t, env, &notifs)
		require.Equal(t, 2, pg.Total)
		assert.Equal(t, "report", notifs[0].Type)
		first = notifs[0]
	})

	t.Run("other users see nothing", func(t *testing.T) {
		rec, env := do(t, app, http.MethodGet, "/v1/notifications", getToken(t, app, fx.coord2), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		pg := decodePage(t, env, nil)
		assert.Equal(t, 0, pg.Total)
	})

	t.Run("unread count", func(t *testing.T) {
		rec, env := do(t, app, http.MethodGet, "/v1/notifications/unread-count", coordToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var res struct {
			Unread int `json:"unread"`
		}
		decodeData(t, env, &res)
		assert.Equal(t, 2, res.Unread)
	})

	t.Run("mark one read", func(t *testing.T) {
		path := fmt.Sprintf("/v1/notifications/%d/read", first.ID)
		rec, env := do(t, app, http.MethodPost, path, coordToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var read notification.Notification
		decodeData(t, env, &read)
		assert.NotNil(t, read.ReadAt)

		count, err := app.notificationSvc.UnreadCount(fx.coord1.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("not even admins touch another user's notification", func(t *testing.T) {
		path := fmt.Sprintf("/v1/notifications/%d/read", first.ID)
		rec, env := do(t, app, http.MethodPost, path, getToken(t, app, fx.admin), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "no permissions to access this notification", env.messageString(t))
	})

	t.Run("mark all read", func(t *testing.T) {
		rec, _ := do(t, app, http.MethodPost, "/v1/notifications/read-all", coordToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		count, err := app.notificationSvc.UnreadCount(fx.coord1.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, count)
	})
}
