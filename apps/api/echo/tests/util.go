package tests

import (
	"bytes"
	"encoding/json"
	"io/ioutil"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	echoapi "github.com/colegiohq/backend/apps/api/echo"
	"github.com/colegiohq/backend/core"
	"github.com/colegiohq/backend/core/auth"
	"github.com/colegiohq/backend/core/course"
	"github.com/colegiohq/backend/core/enrollment"
	"github.com/colegiohq/backend/core/grade"
	"github.com/colegiohq/backend/core/notification"
	"github.com/colegiohq/backend/core/report"
	"github.com/colegiohq/backend/core/school"
	"github.com/colegiohq/backend/core/stats"
	"github.com/colegiohq/backend/core/subject"
	"github.com/colegiohq/backend/core/user"
	emailsvc "github.com/colegiohq/backend/services/email"
	logsvc "github.com/colegiohq/backend/services/logger"
	dummydb "github.com/colegiohq/backend/storage/database/dummy"
)

type testApp struct {
	server echoapi.Server
	conf   *core.Config

	authSvc         *auth.Service
	usrSvc          *user.Service
	schoolSvc       *school.Service
	courseSvc       *course.Service
	subjectSvc      *subject.Service
	enrollmentSvc   *enrollment.Service
	gradeSvc        *grade.Service
	notificationSvc *notification.Service
	reportSvc       *report.Service
	statsSvc        *stats.Service
}

func setup(t *testing.T) *testApp {
	t.Helper()

	conf := core.NewTestConfig()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("setup() failed: %v", err)
	}

	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	logger := logsvc.NewStdLogger(log.New(ioutil.Discard, "", 0))

	usrSvc := user.NewService(dummydb.NewUserRepository(db))
	authSvc := auth.NewService(conf, usrSvc)
	schoolSvc := school.NewService(dummydb.NewSchoolRepository(db))
	courseSvc := course.NewService(dummydb.NewCourseRepository(db), usrSvc)
	subjectSvc := subject.NewService(dummydb.NewSubjectRepository(db), usrSvc)
	enrollmentSvc := enrollment.NewService(dummydb.NewEnrollmentRepository(db), usrSvc, courseSvc)
	gradeSvc := grade.NewService(dummydb.NewGradeRepository(db))
	notificationSvc := notification.NewService(dummydb.NewNotificationRepository(db))
	reportSvc := report.NewService(dummydb.NewReportRepository(db), usrSvc, notificationSvc, mailSvc)
	statsSvc := stats.NewService(dummydb.NewStatsRepository(db))

	app := &testApp{
		conf:            conf,
		authSvc:         authSvc,
		usrSvc:          usrSvc,
		schoolSvc:       schoolSvc,
		courseSvc:       courseSvc,
		subjectSvc:      subjectSvc,
		enrollmentSvc:   enrollmentSvc,
		gradeSvc:        gradeSvc,
		notificationSvc: notificationSvc,
		reportSvc:       reportSvc,
		statsSvc:        statsSvc,
	}
	app.server = echoapi.NewServer(&echoapi.Options{
		DisableReqLogs:  true,
		Conf:            conf,
		Logger:          logger,
		AuthSvc:         authSvc,
		UserSvc:         usrSvc,
		SchoolSvc:       schoolSvc,
		CourseSvc:       courseSvc,
		SubjectSvc:      subjectSvc,
		EnrollmentSvc:   enrollmentSvc,
		GradeSvc:        gradeSvc,
		NotificationSvc: notificationSvc,
		ReportSvc:       reportSvc,
		StatsSvc:        statsSvc,
	})
	return app
}

// fixtures is the base data set most API tests share: two schools with a
// coordinator, a teacher and a student each, plus a platform admin.
type fixtures struct {
	school1, school2   school.School
	admin              user.User
	coord1, coord2     user.User
	teacher1, teacher2 user.User
	student1, student2 user.User
	course1, course2   course.Course
	subject1, subject2 subject.Subject
}

func seed(t *testing.T, app *testApp) *fixtures {
	t.Helper()
	fx := new(fixtures)

	fx.school1 = createSchool(t, app, "North", "north@test.cd")
	fx.school2 = createSchool(t, app, "South", "south@test.cd")

	fx.admin = createUser(t, app, "admin", user.RoleAdmin, fx.school1.ID)
	fx.coord1 = createUser(t, app, "coord1", user.RoleCoordinator, fx.school1.ID)
	fx.coord2 = createUser(t, app, "coord2", user.RoleCoordinator, fx.school2.ID)
	fx.teacher1 = createUser(t, app, "teacher1", user.RoleTeacher, fx.school1.ID)
	fx.teacher2 = createUser(t, app, "teacher2", user.RoleTeacher, fx.school2.ID)
	fx.student1 = createUser(t, app, "student1", user.RoleStudent, fx.school1.ID)
	fx.student2 = createUser(t, app, "student2", user.RoleStudent, fx.school2.ID)

	fx.course1 = createCourse(t, app, "Maths 101", fx.school1.ID, fx.teacher1.ID, fx.coord1.ID)
	fx.course2 = createCourse(t, app, "Bio 201", fx.school2.ID, fx.teacher2.ID, fx.coord2.ID)

	fx.subject1 = createSubject(t, app, "Algebra", fx.course1.ID, fx.teacher1.ID, fx.school1.ID)
	fx.subject2 = createSubject(t, app, "Genetics", fx.course2.ID, fx.teacher2.ID, fx.school2.ID)
	return fx
}

func createSchool(t *testing.T, app *testApp, name, email string) school.School {
	t.Helper()
	sch, err := app.schoolSvc.Create(school.NewSchool{Name: name, FullName: name + " High School", Email: email})
	if err != nil {
		t.Fatalf("createSchool() failed: %v", err)
	}
	return sch
}

func createUser(t *testing.T, app *testApp, uname, role string, schoolID int) user.User {
	t.Helper()
	usr, err := app.usrSvc.Create(user.NewUser{
		Name:     uname,
		Surname:  "Test",
		Username: uname,
		Email:    uname + "@test.cd",
		Password: "Str0ngPwd!",
		SchoolID: schoolID,
		Role:     role,
	})
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func createCourse(t *testing.T, app *testApp, name string, schoolID, teacherID, coordID int) course.Course {
	t.Helper()
	crs, err := app.courseSvc.Create(course.NewCourse{
		Name:         name,
		Description:  name + " description",
		Location:     "Room 1",
		AcademicYear: "2025-2026",
		StartDate:    time.Now().UTC(),
		TeacherID:    teacherID,
		CoordID:      coordID,
		SchoolID:     schoolID,
		Status:       course.StatusActive,
	})
	if err != nil {
		t.Fatalf("createCourse() failed: %v", err)
	}
	return crs
}

func createSubject(t *testing.T, app *testApp, name string, courseID, teacherID, schoolID int) subject.Subject {
	t.Helper()
	sub, err := app.subjectSvc.Create(subject.NewSubject{
		Name:         name,
		CourseID:     courseID,
		TeacherID:    teacherID,
		SchoolID:     schoolID,
		HoursPerWeek: 4,
		Status:       subject.StatusActive,
	})
	if err != nil {
		t.Fatalf("createSubject() failed: %v", err)
	}
	return sub
}

func createGrade(t *testing.T, app *testApp, userID, subjectID, schoolID, evaluation int, value float64) grade.Grade {
	t.Helper()
	g, err := app.gradeSvc.Create(grade.NewGrade{
		UserID:     userID,
		SubjectID:  subjectID,
		SchoolID:   schoolID,
		Evaluation: evaluation,
		Grade:      &value,
		GradeDate:  time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("createGrade() failed: %v", err)
	}
	return g
}

func enroll(t *testing.T, app *testApp, crs course.Course, userID int) enrollment.Enrollment {
	t.Helper()
	enr, err := app.enrollmentSvc.Enroll(crs, enrollment.EnrollStudent{
		UserID:         userID,
		AcademicYear:   "2025-2026",
		EnrollmentDate: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("enroll() failed: %v", err)
	}
	return enr
}

func getToken(t *testing.T, app *testApp, usr user.User) string {
	t.Helper()
	token, err := app.authSvc.Issue(usr)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

// envelope mirrors the API response wrappers.
type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Message json.RawMessage   `json:"message"`
	Errors  map[string]string `json:"errors"`
}

func (e envelope) messageString(t *testing.T) string {
	t.Helper()
	var s string
	if err := json.Unmarshal(e.Message, &s); err != nil {
		t.Fatalf("messageString() failed: %v; message: %s", err, e.Message)
	}
	return s
}

func do(t *testing.T, app *testApp, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("do() failed to encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.server.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 && rec.Code != http.StatusNoContent {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("do() failed to decode response: %v; body: %s", err, rec.Body.String())
		}
	}
	return rec, env
}

func decodeData(t *testing.T, env envelope, dst interface{}) {
	t.Helper()
	if err := json.Unmarshal(env.Data, dst); err != nil {
		t.Fatalf("decodeData() failed: %v; data: %s", err, env.Data)
	}
}

// paged mirrors the paginated data payload.
type paged struct {
	Items    json.RawMessage `json:"items"`
	Page     int             `json:"page"`
	LastPage int             `json:"last_page"`
	Total    int             `json:"total"`
}

func decodePage(t *testing.T, env envelope, items interface{}) paged {
	t.Helper()
	var pg paged
	decodeData(t, env, &pg)
	if items != nil {
		if err := json.Unmarshal(pg.Items, items); err != nil {
			t.Fatalf("decodePage() failed: %v; items: %s", err, pg.Items)
		}
	}
	return pg
}
