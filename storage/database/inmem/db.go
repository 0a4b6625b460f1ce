// Package inmemdb is an in-memory storage enforcing the same constraints as the Postgres schema.
// It backs the tests and the API in development.
package inmemdb

import (
	"context"
	"sync"
	"time"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/model"
)

// constraint names, as in the SQL migrations
const (
	profilesPKey           = "profiles_pkey"
	roleGrantsPKey         = "role_grants_pkey"
	roleGrantsRoleCheck    = "role_grants_role_check"
	roleGrantsUniqueKey    = "role_grants_principal_id_role_key"
	coursesPKey            = "courses_pkey"
	coursesSlugKey         = "courses_slug_key"
	coursesPriceCheck      = "courses_price_check"
	coursesOrigPriceCheck  = "courses_original_price_check"
	modulesPKey            = "modules_pkey"
	modulesCourseFKey      = "modules_course_id_fkey"
	lessonsPKey            = "lessons_pkey"
	lessonsModuleFKey      = "lessons_module_id_fkey"
	lessonsDurationCheck   = "lessons_duration_minutes_check"
	enrollmentsPKey        = "enrollments_pkey"
	enrollmentsCourseFKey  = "enrollments_course_id_fkey"
	enrollmentsStatusCheck = "enrollments_status_check"
	enrollmentsUniqueKey   = "enrollments_principal_id_course_id_key"
	reviewsPKey            = "reviews_pkey"
	reviewsCourseFKey      = "reviews_course_id_fkey"
	reviewsRatingCheck     = "reviews_rating_check"
	reviewsUniqueKey       = "reviews_principal_id_course_id_key"
)

type tables struct {
	profiles    map[string]model.Profile
	roleGrants  map[string]model.RoleGrant
	courses     map[string]model.Course
	modules     map[string]model.Module
	lessons     map[string]model.Lesson
	enrollments map[string]model.Enrollment
	reviews     map[string]model.Review
}

func newTables() *tables {
	return &tables{
		profiles:    make(map[string]model.Profile),
		roleGrants:  make(map[string]model.RoleGrant),
		courses:     make(map[string]model.Course),
		modules:     make(map[string]model.Module),
		lessons:     make(map[string]model.Lesson),
		enrollments: make(map[string]model.Enrollment),
		reviews:     make(map[string]model.Review),
	}
}

func (t *tables) clone() *tables {
	c := &tables{
		profiles:    make(map[string]model.Profile, len(t.profiles)),
		roleGrants:  make(map[string]model.RoleGrant, len(t.roleGrants)),
		courses:     make(map[string]model.Course, len(t.courses)),
		modules:     make(map[string]model.Module, len(t.modules)),
		lessons:     make(map[string]model.Lesson, len(t.lessons)),
		enrollments: make(map[string]model.Enrollment, len(t.enrollments)),
		reviews:     make(map[string]model.Review, len(t.reviews)),
	}
	for k, v := range t.profiles {
		c.profiles[k] = v
	}
	for k, v := range t.roleGrants {
		c.roleGrants[k] = v
	}
	for k, v := range t.courses {
		c.courses[k] = v
	}
	for k, v := range t.modules {
		c.modules[k] = v
	}
	for k, v := range t.lessons {
		c.lessons[k] = v
	}
	for k, v := range t.enrollments {
		c.enrollments[k] = v
	}
	for k, v := range t.reviews {
		c.reviews[k] = v
	}
	return c
}

// txKey scopes a transaction to the DB that opened it.
type txKey struct {
	db *DB
}

// DB is safe for concurrent use. Transactions are serialized: WithinTx holds the write lock
// and works on a copy of the tables that replaces them on success.
type DB struct {
	mu      sync.RWMutex
	data    *tables
	nowFunc func() time.Time
}

var _ core.Transactor = (*DB)(nil)

func New() *DB {
	return &DB{
		data:    newTables(),
		nowFunc: func() time.Time { return time.Now().UTC() },
	}
}

// Reset drops every row.
func (db *DB) Reset() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.data = newTables()
}

func (db *DB) txFrom(ctx context.Context) (*tables, bool) {
	t, ok := ctx.Value(txKey{db}).(*tables)
	return t, ok
}

func (db *DB) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := db.txFrom(ctx); ok {
		return fn(ctx)
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	snapshot := db.data.clone()
	if err := fn(context.WithValue(ctx, txKey{db}, snapshot)); err != nil {
		return err
	}
	db.data = snapshot
	return nil
}

// read runs fn on the transaction tables of ctx, or under the read lock.
func (db *DB) read(ctx context.Context, fn func(t *tables) error) error {
	if t, ok := db.txFrom(ctx); ok {
		return fn(t)
	}
	db.mu.RLock()
	defer db.mu.RUnlock()
	return fn(db.data)
}

// write runs fn on the transaction tables of ctx, or under the write lock.
// fn must check every constraint before mutating anything.
func (db *DB) write(ctx context.Context, fn func(t *tables) error) error {
	if t, ok := db.txFrom(ctx); ok {
		return fn(t)
	}
	db.mu.Lock()
	defer db.mu.Unlock()
	return fn(db.data)
}

func violation(constraint string) error {
	return core.NewConstraintError(constraint, nil)
}
