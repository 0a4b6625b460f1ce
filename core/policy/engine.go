// Package policy evaluates row-level access predicates for every entity of the platform.
//
// Each (entity, operation) pair has one predicate over the acting principal, the row and, when needed,
// the row's parent chain. The admin role is an unconditional override everywhere except on profiles.
// A denied row is reported as core.ErrNotFound so callers cannot tell it apart from a missing one.
package policy

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/model"
)

type Operation string

const (
	Select Operation = "select"
	Insert Operation = "insert"
	Update Operation = "update"
	Delete Operation = "delete"
)

type Entity string

const (
	EntityProfile    Entity = "profile"
	EntityRoleGrant  Entity = "role_grant"
	EntityCourse     Entity = "course"
	EntityModule     Entity = "module"
	EntityLesson     Entity = "lesson"
	EntityEnrollment Entity = "enrollment"
	EntityReview     Entity = "review"
)

var errUnknownEntity = errors.New("policy: no rule for row type")

type (
	// Store is the privileged read path used while evaluating predicates.
	// Implementations read storage directly: they are never themselves subject to the Engine.
	Store interface {
		// HasRole is the `has_role` existence check.
		HasRole(ctx context.Context, principalID string, role model.Role) (bool, error)
		CourseByID(ctx context.Context, id string) (model.Course, error)
		ModuleByID(ctx context.Context, id string) (model.Module, error)
		HasActiveEnrollment(ctx context.Context, principalID, courseID string) (bool, error)
	}

	// Recorder receives every decision taken by the Engine.
	Recorder interface {
		PolicyDecision(entity, operation string, allowed bool)
	}

	// Actor is the principal on whose behalf an operation runs. The zero value is the anonymous actor.
	Actor struct {
		ID string
	}

	// Predicate decides whether the actor of ev may apply an operation to row.
	Predicate func(ctx context.Context, ev *Evaluation, row interface{}) (bool, error)

	// Rule holds the predicates of one entity. A nil predicate denies.
	Rule struct {
		Select Predicate
		Insert Predicate
		Update Predicate
		Delete Predicate
	}
)

func Anonymous() Actor { return Actor{} }

func (a Actor) IsAnonymous() bool { return a.ID == "" }

func (r Rule) predicate(op Operation) Predicate {
	switch op {
	case Select:
		return r.Select
	case Insert:
		return r.Insert
	case Update:
		return r.Update
	case Delete:
		return r.Delete
	}
	return nil
}

type Engine struct {
	store    Store
	logger   core.Logger
	recorder Recorder
	rules    map[Entity]Rule
}

// NewEngine returns an Engine loaded with the platform rules. recorder may be nil.
func NewEngine(store Store, logger core.Logger, recorder Recorder) *Engine {
	return &Engine{
		store:    store,
		logger:   logger,
		recorder: recorder,
		rules:    defaultRules(),
	}
}

// For starts an Evaluation for actor. Role lookups are memoized for the Evaluation's lifetime,
// so keep one per request and do not share it across goroutines.
func (e *Engine) For(actor Actor) *Evaluation {
	return &Evaluation{engine: e, actor: actor, roles: make(map[model.Role]bool)}
}

// Check returns nil when actor may apply op to row, core.ErrNotFound when denied.
func (e *Engine) Check(ctx context.Context, actor Actor, op Operation, row interface{}) error {
	return e.For(actor).Check(ctx, op, row)
}

// Store exposes the privileged read path. Rows read from it must still be checked before being handed out.
func (e *Engine) Store() Store { return e.store }

// HasRole is the privileged role check; it bypasses every predicate.
func (e *Engine) HasRole(ctx context.Context, principalID string, role model.Role) (bool, error) {
	if principalID == "" {
		return false, nil
	}
	ok, err := e.store.HasRole(ctx, principalID, role)
	if err != nil {
		return false, errors.Wrap(err, "checking role")
	}
	return ok, nil
}

func (e *Engine) record(entity Entity, op Operation, allowed bool) {
	if e.recorder != nil {
		e.recorder.PolicyDecision(string(entity), string(op), allowed)
	}
}

// Evaluation is one actor's view of the Engine.
type Evaluation struct {
	engine *Engine
	actor  Actor
	roles  map[model.Role]bool
}

func (ev *Evaluation) Actor() Actor { return ev.actor }

func (ev *Evaluation) store() Store { return ev.engine.store }

// HasRole reports whether the actor holds role. Anonymous actors hold no role.
func (ev *Evaluation) HasRole(ctx context.Context, role model.Role) (bool, error) {
	if ev.actor.IsAnonymous() {
		return false, nil
	}
	if ok, cached := ev.roles[role]; cached {
		return ok, nil
	}
	ok, err := ev.engine.HasRole(ctx, ev.actor.ID, role)
	if err != nil {
		return false, err
	}
	ev.roles[role] = ok
	return ok, nil
}

func (ev *Evaluation) IsAdmin(ctx context.Context) (bool, error) {
	return ev.HasRole(ctx, model.RoleAdmin)
}

// Owns reports whether the authenticated actor is principalID.
func (ev *Evaluation) Owns(principalID string) bool {
	return !ev.actor.IsAnonymous() && ev.actor.ID == principalID
}

// Allowed evaluates the predicate of (row's entity, op).
func (ev *Evaluation) Allowed(ctx context.Context, op Operation, row interface{}) (bool, error) {
	entity, ok := EntityOf(row)
	if !ok {
		return false, errors.Wrap(errUnknownEntity, fmt.Sprintf("%T", row))
	}
	pred := ev.engine.rules[entity].predicate(op)

	var allowed bool
	if pred != nil {
		var err error
		if allowed, err = pred(ctx, ev, deref(row)); err != nil {
			return false, errors.Wrapf(err, "evaluating %s %s", op, entity)
		}
	}

	ev.engine.record(entity, op, allowed)
	if !allowed {
		ev.engine.logger.Debug(fmt.Sprintf("policy: %s %s denied", op, entity), ev.actor)
	}
	return allowed, nil
}

// Check is Allowed with denials turned into core.ErrNotFound.
func (ev *Evaluation) Check(ctx context.Context, op Operation, row interface{}) error {
	ok, err := ev.Allowed(ctx, op, row)
	if err != nil {
		return err
	}
	if !ok {
		return core.ErrNotFound
	}
	return nil
}

// EntityOf maps a row (value or pointer) to its entity.
func EntityOf(row interface{}) (Entity, bool) {
	switch deref(row).(type) {
	case model.Profile:
		return EntityProfile, true
	case model.RoleGrant:
		return EntityRoleGrant, true
	case model.Course:
		return EntityCourse, true
	case model.Module:
		return EntityModule, true
	case model.Lesson:
		return EntityLesson, true
	case model.Enrollment:
		return EntityEnrollment, true
	case model.Review:
		return EntityReview, true
	}
	return "", false
}

func deref(row interface{}) interface{} {
	switch r := row.(type) {
	case *model.Profile:
		return *r
	case *model.RoleGrant:
		return *r
	case *model.Course:
		return *r
	case *model.Module:
		return *r
	case *model.Lesson:
		return *r
	case *model.Enrollment:
		return *r
	case *model.Review:
		return *r
	}
	return row
}
