package report

import (
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/colegiohq/backend/core"
	"github.com/colegiohq/backend/core/notification"
	"github.com/colegiohq/backend/core/user"
)

var ErrNotFound = errors.New("report not found")

type (
	Repository interface {
		CreateReport(rpt Report) (Report, error)
		GetReportByID(id int) (Report, error)
		// FilterReports ANDs the tenant scope with the available QueryFilter
		// fields, ordered by report date descending. Scope.TeacherID
		// restricts to the author's own reports, Scope.SchoolID to the
		// coordinator's school.
		FilterReports(filter QueryFilter, scope core.Scope, page core.Page) ([]Report, int, error)
		MarkReportRead(id, coordinatorID int) (Report, error)
		DeleteReportByID(id int) error
	}

	UserDirectory interface {
		GetByID(id int) (user.User, error)
		CoordinatorsBySchool(schoolID int) ([]user.User, error)
	}

	Service struct {
		repo    Repository
		users   UserDirectory
		notifs  *notification.Service
		mailSvc core.EmailService
	}
)

func NewService(repo Repository, users UserDirectory, notifs *notification.Service, mailSvc core.EmailService) *Service {
	return &Service{repo: repo, users: users, notifs: notifs, mailSvc: mailSvc}
}

// Create stores the report and fans out a notification (and an email) to each
// coordinator of the report's school.
func (svc *Service) Create(nr NewReport, teacherID, schoolID int) (Report, error) {
	now := time.Now().UTC()
	rpt := Report{
		TeacherID:            teacherID,
		SchoolID:             schoolID,
		Title:                nr.Title,
		ClassProgress:        nr.ClassProgress,
		StudentParticipation: nr.StudentParticipation,
		Incidents:            nr.Incidents,
		NextActivities:       nr.NextActivities,
		Date:                 nr.Date,
		Priority:             nr.Priority,
		Status:               StatusUnread,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	created, err := svc.repo.CreateReport(rpt)
	if err != nil {
		return Report{}, err
	}
	if err := svc.notifyCoordinators(created); err != nil {
		return Report{}, errors.Wrap(err, "notifying coordinators")
	}
	return created, nil
}

func (svc *Service) notifyCoordinators(rpt Report) error {
	teacher, err := svc.users.GetByID(rpt.TeacherID)
	if err != nil {
		return err
	}
	coords, err := svc.users.CoordinatorsBySchool(rpt.SchoolID)
	if err != nil {
		return err
	}

	msg := fmt.Sprintf("%s %s has submitted a daily report.", teacher.Name, teacher.Surname)
	emails := make([]*core.EmailMessage, 0, len(coords))
	for _, coord := range coords {
		if _, err := svc.notifs.Create(notification.Notification{
			UserID:  coord.ID,
			Type:    "report",
			Title:   "New daily report",
			Message: msg,
			Data: map[string]interface{}{
				"report_id": rpt.ID,
				"priority":  rpt.Priority,
			},
		}); err != nil {
			return err
		}
		emails = append(emails, &core.EmailMessage{
			To:      []mail.Address{{Name: coord.Name + " " + coord.Surname, Address: coord.Email}},
			Subject: "New daily report: " + rpt.Title,
			BodyStr: msg,
		})
	}
	svc.mailSvc.SendMessages(emails...)
	return nil
}

func (svc *Service) GetByID(id int) (Report, error) {
	return svc.repo.GetReportByID(id)
}

func (svc *Service) Filter(filter QueryFilter, scope core.Scope, page core.Page) ([]Report, int, error) {
	return svc.repo.FilterReports(filter, scope, page)
}

// MarkRead flags the report as read by the given coordinator.
func (svc *Service) MarkRead(id, coordinatorID int) (Report, error) {
	return svc.repo.MarkReportRead(id, coordinatorID)
}

func (svc *Service) Delete(id int) error {
	return svc.repo.DeleteReportByID(id)
}
