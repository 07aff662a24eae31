package main

import (
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"

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
	"github.com/colegiohq/backend/storage/database"
	sqlxrepos "github.com/colegiohq/backend/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	std := log.New(os.Stdout, conf.AppName+" ", log.LstdFlags|log.Lshortfile)

	var logger core.Logger
	if conf.Debug {
		logger = logsvc.NewStdLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, conf)
	}

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal("creating database", err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal("opening database", err)
	}
	defer func() { _ = db.Close() }()
	if err := database.Migrate(db); err != nil {
		logger.Fatal("migrating database", err)
	}
	dbx := sqlx.NewDb(db, conf.Database.Engine)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	usrSvc := user.NewService(sqlxrepos.NewUserRepository(dbx))
	authSvc := auth.NewService(conf, usrSvc)
	schoolSvc := school.NewService(sqlxrepos.NewSchoolRepository(dbx))
	courseSvc := course.NewService(sqlxrepos.NewCourseRepository(dbx), usrSvc)
	subjectSvc := subject.NewService(sqlxrepos.NewSubjectRepository(dbx), usrSvc)
	enrollmentSvc := enrollment.NewService(sqlxrepos.NewEnrollmentRepository(dbx), usrSvc, courseSvc)
	gradeSvc := grade.NewService(sqlxrepos.NewGradeRepository(dbx))
	notificationSvc := notification.NewService(sqlxrepos.NewNotificationRepository(dbx))
	reportSvc := report.NewService(sqlxrepos.NewReportRepository(dbx), usrSvc, notificationSvc, mailSvc)
	statsSvc := stats.NewService(sqlxrepos.NewStatsRepository(dbx))

	// start API server
	app := echoapi.NewServer(&echoapi.Options{
		Address:         fmt.Sprintf("%s:%d", conf.Server.Host, conf.Server.Port),
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
	app.Start()
}
