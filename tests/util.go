// Package testutil wires the services over the in-memory storage for tests.
package testutil

import (
	"context"
	"testing"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/trezcool/academia/assets"
	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/account"
	"github.com/trezcool/academia/core/course"
	"github.com/trezcool/academia/core/enrollment"
	"github.com/trezcool/academia/core/model"
	"github.com/trezcool/academia/core/policy"
	"github.com/trezcool/academia/core/review"
	emailsvc "github.com/trezcool/academia/services/email"
	metricsvc "github.com/trezcool/academia/services/metrics"
	inmemdb "github.com/trezcool/academia/storage/database/inmem"
)

type Env struct {
	Conf       *core.Config
	Logger     core.Logger
	Validate   *validator.Validate
	Translator ut.Translator
	Metrics    *metricsvc.Metrics
	Mail       *emailsvc.ConsoleServiceMock

	DB          *inmemdb.DB
	AccountRepo account.Repository
	CourseRepo  course.Repository
	Engine      *policy.Engine

	Accounts    *account.Service
	Courses     *course.Service
	Enrollments *enrollment.Service
	Reviews     *review.Service
}

func NewEnv(t *testing.T) *Env {
	t.Helper()

	conf := core.NewTestConfig()
	logger := core.NewDiscardLogger()
	core.ParseEmailTemplates(assets.FS, conf, logger)

	translator := core.NewTranslator()
	validate := validator.New()
	core.InitValidators(validate, translator)

	db := inmemdb.New()
	metrics := metricsvc.NewMetrics()
	engine := policy.NewEngine(inmemdb.NewPolicyStore(db), logger, metrics)
	mail := emailsvc.NewConsoleServiceMock(conf)

	accRepo := inmemdb.NewAccountRepository(db)
	crsRepo := inmemdb.NewCourseRepository(db)

	return &Env{
		Conf:        conf,
		Logger:      logger,
		Validate:    validate,
		Translator:  translator,
		Metrics:     metrics,
		Mail:        mail,
		DB:          db,
		AccountRepo: accRepo,
		CourseRepo:  crsRepo,
		Engine:      engine,
		Accounts:    account.NewService(db, accRepo, engine, mail, logger, metrics),
		Courses:     course.NewService(db, crsRepo, engine, logger),
		Enrollments: enrollment.NewService(db, inmemdb.NewEnrollmentRepository(db), engine),
		Reviews:     review.NewService(db, inmemdb.NewReviewRepository(db), engine),
	}
}

// Student bootstraps a new principal, who therefore holds the student role.
func (env *Env) Student(t *testing.T, fullName string) policy.Actor {
	t.Helper()
	acct, err := env.Accounts.Bootstrap(context.Background(), account.SignupEvent{
		PrincipalID: uuid.NewString(),
		Metadata:    account.SignupMetadata{FullName: fullName},
	})
	if err != nil {
		t.Fatalf("Student() failed: %v", err)
	}
	return policy.Actor{ID: acct.Profile.ID}
}

// Admin bootstraps a new principal and grants them the admin role.
func (env *Env) Admin(t *testing.T, fullName string) policy.Actor {
	t.Helper()
	actor := env.Student(t, fullName)
	_, err := env.AccountRepo.CreateRoleGrant(context.Background(), model.RoleGrant{
		ID:          uuid.NewString(),
		PrincipalID: actor.ID,
		Role:        model.RoleAdmin,
	})
	if err != nil {
		t.Fatalf("Admin() failed: %v", err)
	}
	return actor
}

func (env *Env) CreateCourse(t *testing.T, admin policy.Actor, nc course.NewCourse) course.Outline {
	t.Helper()
	out, err := env.Courses.Create(context.Background(), admin, nc)
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return out
}

func (env *Env) Enroll(t *testing.T, admin, student policy.Actor, courseID string) model.Enrollment {
	t.Helper()
	enr, err := env.Enrollments.Enroll(context.Background(), admin, enrollment.NewEnrollment{
		PrincipalID: student.ID,
		CourseID:    courseID,
	})
	if err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}
	return enr
}

func IntPtr(i int) *int          { return &i }
func StringPtr(s string) *string { return &s }
func BoolPtr(b bool) *bool       { return &b }
