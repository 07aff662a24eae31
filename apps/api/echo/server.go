package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

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
)

type (
	Options struct {
		Address        string
		DisableReqLogs bool

		Conf   *core.Config
		Logger core.Logger

		AuthSvc         *auth.Service
		UserSvc         *user.Service
		SchoolSvc       *school.Service
		CourseSvc       *course.Service
		SubjectSvc      *subject.Service
		EnrollmentSvc   *enrollment.Service
		GradeSvc        *grade.Service
		NotificationSvc *notification.Service
		ReportSvc       *report.Service
		StatsSvc        *stats.Service
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts     *Options
		app      *echo.Echo
		shutdown chan os.Signal
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	s := &server{
		opts:     opts,
		app:      echo.New(),
		shutdown: make(chan os.Signal, 1),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	validate, translator := core.NewValidator()

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, translator, s.signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(middleware.JWTConfig{
		SigningKey:    conf.SecretKey,
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    claimsContextKey,
		Claims:        new(auth.Claims),
	})
	principal := principalMiddleware(s.opts.UserSvc)

	registerAuthAPI(v1, jwt, principal, s.opts.AuthSvc, s.opts.UserSvc, conf, validate)
	registerSchoolAPI(v1, jwt, principal, s.opts.SchoolSvc, conf, validate)
	registerUserAPI(v1, jwt, principal, s.opts.UserSvc, conf, validate)
	registerCourseAPI(v1, jwt, principal, s.opts.CourseSvc, s.opts.EnrollmentSvc, conf, validate)
	registerSubjectAPI(v1, jwt, principal, s.opts.SubjectSvc, conf, validate)
	registerEnrollmentAPI(v1, jwt, principal, s.opts.EnrollmentSvc, s.opts.CourseSvc, conf, validate)
	registerGradeAPI(v1, jwt, principal, s.opts.GradeSvc, s.opts.SubjectSvc, s.opts.UserSvc, conf, validate)
	registerReportAPI(v1, jwt, principal, s.opts.ReportSvc, s.opts.UserSvc, conf, validate)
	registerNotificationAPI(v1, jwt, principal, s.opts.NotificationSvc, conf)
	registerStatsAPI(v1, jwt, principal, s.opts.StatsSvc)
}

func (s *server) Start() {
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-s.shutdown
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.app.Shutdown(ctx); err != nil {
			s.app.Logger.Error(err)
		}
	}()

	if err := s.app.Start(s.opts.Address); err != nil && err != http.ErrServerClosed {
		s.app.Logger.Fatal(err)
	}
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

// signalShutdown is handed to the error handler so an unrecoverable error can
// trigger the same graceful stop as an OS signal.
func (s *server) signalShutdown() {
	s.shutdown <- syscall.SIGTERM
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to Colegio API!")
}
