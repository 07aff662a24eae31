package tests

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colegiohq/backend/core/report"
	emailsvc "github.com/colegiohq/backend/services/email"
)

func reportBody(title string) map[string]interface{} {
	return map[string]interface{}{
		"title":          title,
		"class_progress": "Covered chapters 1 to 3.",
		"date":           time.Now().UTC().Format(time.RFC3339),
		"priority":       report.PriorityNormal,
	}
}

func Test_reportApi_create(t *testing.T) {
	app := setup(t)
	fx := seed(t, app)

	t.Run("teacher files a report", func(t *testing.T) {
		sentBefore := len(emailsvc.SentMessages)

		rec, env := do(t, app, http.MethodPost, "/v1/reports", getToken(t, app, fx.teacher1), reportBody("Week 12"))
		require.Equal(t, http.StatusCreated, rec.Code)
		var rpt report.Report
		decodeData(t, env, &rpt)
		assert.Equal(t, fx.teacher1.ID, rpt.TeacherID)
		assert.Equal(t, fx.school1.ID, rpt.SchoolID)
		assert.Equal(t, report.StatusUnread, rpt.Status)

		// the school's coordinator is notified in-app and by email
		count, err := app.notificationSvc.UnreadCount(fx.coord1.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
		require.Len(t, emailsvc.SentMessages, sentBefore+1)
		sent := emailsvc.SentMessages[len(emailsvc.SentMessages)-1]
		assert.Equal(t, fx.coord1.Email, sent.To[0].Address)
		assert.Contains(t, sent.Subject, "Week 12")
	})

	t.Run("student cannot file", func(t *testing.T) {
		rec, _ := do(t, app, http.MethodPost, "/v1/reports", getToken(t, app, fx.student1), reportBody("Nope"))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("coordinator cannot file", func(t *testing.T) {
		rec, _ := do(t, app, http.MethodPost, "/v1/reports", getToken(t, app, fx.coord1), reportBody("Nope"))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin files on behalf of a teacher", func(t *testing.T) {
		body := reportBody("On behalf")
		body["teacher_id"] = fx.teacher2.ID
		rec, env := do(t, app, http.MethodPost, "/v1/reports", getToken(t, app, fx.admin), body)
		require.Equal(t, http.StatusCreated, rec.Code)
		var rpt report.Report
		decodeData(t, env, &rpt)
		assert.Equal(t, fx.teacher2.ID, rpt.TeacherID)
		assert.Equal(t, fx.school2.ID, rpt.SchoolID)
	})
}

func Test_reportApi_accessAndRead(t *testing.T) {
	app := setup(t)
	fx := seed(t, app)

	rpt, err := app.reportSvc.Create(report.NewReport{
		Title:         "Incidents",
		ClassProgress: "Slow week.",
		Date:          time.Now().UTC(),
		Priority:      report.PriorityHigh,
	}, fx.teacher1.ID, fx.school1.ID)
	require.NoError(t, err)
	path := fmt.Sprintf("/v1/reports/%d", rpt.ID)

	t.Run("author reads own report", func(t *testing.T) {
		rec, _ := do(t, app, http.MethodGet, path, getToken(t, app, fx.teacher1), nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("same-school coordinator reads", func(t *testing.T) {
		rec, _ := do(t, app, http.MethodGet, path, getToken(t, app, fx.coord1), nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("other-school coordinator denied", func(t *testing.T) {
		rec, env := do(t, app, http.MethodGet, path, getToken(t, app, fx.coord2), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "no permissions to view this report", env.messageString(t))
	})

	t.Run("other teacher denied", func(t *testing.T) {
		teacher1b := createUser(t, app, "teacher1c", "teacher", fx.school1.ID)
		rec, _ := do(t, app, http.MethodGet, path, getToken(t, app, teacher1b), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("coordinator marks read", func(t *testing.T) {
		rec, env := do(t, app, http.MethodPost, path+"/read", getToken(t, app, fx.coord1), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var read report.Report
		decodeData(t, env, &read)
		assert.Equal(t, report.StatusRead, read.Status)
		require.NotNil(t, read.CoordinatorID)
		assert.Equal(t, fx.coord1.ID, *read.CoordinatorID)
	})

	t.Run("teacher cannot mark read", func(t *testing.T) {
		rec, _ := do(t, app, http.MethodPost, path+"/read", getToken(t, app, fx.teacher1), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("author deletes", func(t *testing.T) {
		rec, _ := do(t, app, http.MethodDelete, path, getToken(t, app, fx.teacher1), nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)
	})
}

func Test_reportApi_listScoping(t *testing.T) {
	app := setup(t)
	fx := seed(t, app)

	mk := func(teacher, school int, title string) report.Report {
		rpt, err := app.reportSvc.Create(report.NewReport{
			Title:         title,
			ClassProgress: "ok",
			Date:          time.Now().UTC(),
			Priority:      report.PriorityLow,
		}, teacher, school)
		require.NoError(t, err)
		return rpt
	}
	r1 := mk(fx.teacher1.ID, fx.school1.ID, "r1")
	mk(fx.teacher2.ID, fx.school2.ID, "r2")

	t.Run("teacher sees only own", func(t *testing.T) {
		rec, env := do(t, app, http.MethodGet, "/v1/reports", getToken(t, app, fx.teacher1), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var reports []report.Report
		pg := decodePage(t, env, &reports)
		require.Equal(t, 1, pg.Total)
		assert.Equal(t, r1.ID, reports[0].ID)
	})

	t.Run("coordinator sees school", func(t *testing.T) {
		rec, env := do(t, app, http.MethodGet, "/v1/reports", getToken(t, app, fx.coord1), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var reports []report.Report
		pg := decodePage(t, env, &reports)
		require.Equal(t, 1, pg.Total)
		assert.Equal(t, r1.ID, reports[0].ID)
	})

	t.Run("admin sees all", func(t *testing.T) {
		rec, env := do(t, app, http.MethodGet, "/v1/reports", getToken(t, app, fx.admin), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var reports []report.Report
		pg := decodePage(t, env, &reports)
		assert.Equal(t, 2, pg.Total)
	})

	t.Run("student denied", func(t *testing.T) {
		rec, _ := do(t, app, http.MethodGet, "/v1/reports", getToken(t, app, fx.student1), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
