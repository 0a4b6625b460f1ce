package policy_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/model"
	"github.com/trezcool/academia/core/policy"
)

type fakeStore struct {
	grants      map[string][]model.Role
	courses     map[string]model.Course
	modules     map[string]model.Module
	enrollments []model.Enrollment
	roleLookups int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		grants:  make(map[string][]model.Role),
		courses: make(map[string]model.Course),
		modules: make(map[string]model.Module),
	}
}

func (s *fakeStore) HasRole(_ context.Context, principalID string, role model.Role) (bool, error) {
	s.roleLookups++
	for _, r := range s.grants[principalID] {
		if r == role {
			return true, nil
		}
	}
	return false, nil
}

func (s *fakeStore) CourseByID(_ context.Context, id string) (model.Course, error) {
	if crs, ok := s.courses[id]; ok {
		return crs, nil
	}
	return model.Course{}, core.ErrNotFound
}

func (s *fakeStore) ModuleByID(_ context.Context, id string) (model.Module, error) {
	if mod, ok := s.modules[id]; ok {
		return mod, nil
	}
	return model.Module{}, core.ErrNotFound
}

func (s *fakeStore) HasActiveEnrollment(_ context.Context, principalID, courseID string) (bool, error) {
	for _, e := range s.enrollments {
		if e.PrincipalID == principalID && e.CourseID == courseID && e.IsActive() {
			return true, nil
		}
	}
	return false, nil
}

type decision struct {
	entity, op string
	allowed    bool
}

type recorder struct {
	mu        sync.Mutex
	decisions []decision
}

func (r *recorder) PolicyDecision(entity, operation string, allowed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.decisions = append(r.decisions, decision{entity, operation, allowed})
}

var (
	admin     = policy.Actor{ID: "admin"}
	student   = policy.Actor{ID: "student"}
	enrolled  = policy.Actor{ID: "enrolled"}
	expired   = policy.Actor{ID: "expired"}
	noRoles   = policy.Actor{ID: "no-roles"}
	anonymous = policy.Anonymous()

	published   = model.Course{ID: "c-pub", Slug: "pub", IsPublished: true}
	unpublished = model.Course{ID: "c-draft", Slug: "draft"}

	pubModule   = model.Module{ID: "m-pub", CourseID: published.ID}
	draftModule = model.Module{ID: "m-draft", CourseID: unpublished.ID}

	pubPreview    = model.Lesson{ID: "l1", ModuleID: pubModule.ID, IsPreview: true}
	pubLocked     = model.Lesson{ID: "l2", ModuleID: pubModule.ID}
	draftPreview  = model.Lesson{ID: "l3", ModuleID: draftModule.ID, IsPreview: true}
	draftLocked   = model.Lesson{ID: "l4", ModuleID: draftModule.ID}
	orphanPreview = model.Lesson{ID: "l5", ModuleID: "gone", IsPreview: true}
)

func setup(t *testing.T) (*policy.Engine, *fakeStore, *recorder) {
	t.Helper()
	store := newFakeStore()
	store.grants[admin.ID] = []model.Role{model.RoleAdmin, model.RoleStudent}
	store.grants[student.ID] = []model.Role{model.RoleStudent}
	store.grants[enrolled.ID] = []model.Role{model.RoleStudent}
	store.grants[expired.ID] = []model.Role{model.RoleStudent}
	store.courses[published.ID] = published
	store.courses[unpublished.ID] = unpublished
	store.modules[pubModule.ID] = pubModule
	store.modules[draftModule.ID] = draftModule
	store.enrollments = []model.Enrollment{
		{ID: "e1", PrincipalID: enrolled.ID, CourseID: published.ID, Status: model.EnrollmentActive},
		{ID: "e2", PrincipalID: enrolled.ID, CourseID: unpublished.ID, Status: model.EnrollmentActive},
		{ID: "e3", PrincipalID: expired.ID, CourseID: published.ID, Status: model.EnrollmentExpired},
	}
	rec := new(recorder)
	return policy.NewEngine(store, core.NewDiscardLogger(), rec), store, rec
}

type policyTest struct {
	name  string
	actor policy.Actor
	op    policy.Operation
	row   interface{}
	want  bool
}

func runPolicyTests(t *testing.T, engine *policy.Engine, tests []policyTest) {
	t.Helper()
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got, err := engine.For(tt.actor).Allowed(context.Background(), tt.op, tt.row)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEngine_course(t *testing.T) {
	engine, _, _ := setup(t)

	runPolicyTests(t, engine, []policyTest{
		{name: "anonymous sees published", actor: anonymous, op: policy.Select, row: published, want: true},
		{name: "anonymous cannot see draft", actor: anonymous, op: policy.Select, row: unpublished},
		{name: "student sees published", actor: student, op: policy.Select, row: published, want: true},
		{name: "student cannot see draft", actor: student, op: policy.Select, row: unpublished},
		{name: "enrolled student cannot see draft", actor: enrolled, op: policy.Select, row: unpublished},
		{name: "principal without roles sees published", actor: noRoles, op: policy.Select, row: published, want: true},
		{name: "admin sees draft", actor: admin, op: policy.Select, row: unpublished, want: true},
		{name: "student cannot insert", actor: student, op: policy.Insert, row: published},
		{name: "student cannot update", actor: student, op: policy.Update, row: published},
		{name: "student cannot delete", actor: student, op: policy.Delete, row: published},
		{name: "admin inserts", actor: admin, op: policy.Insert, row: unpublished, want: true},
		{name: "admin updates", actor: admin, op: policy.Update, row: published, want: true},
		{name: "admin deletes", actor: admin, op: policy.Delete, row: published, want: true},
		{name: "pointer rows", actor: anonymous, op: policy.Select, row: &published, want: true},
	})
}

func TestEngine_module(t *testing.T) {
	engine, _, _ := setup(t)

	runPolicyTests(t, engine, []policyTest{
		{name: "anonymous sees module of published course", actor: anonymous, op: policy.Select, row: pubModule, want: true},
		{name: "anonymous cannot see module of draft", actor: anonymous, op: policy.Select, row: draftModule},
		{name: "student cannot see module of draft", actor: student, op: policy.Select, row: draftModule},
		{name: "admin sees module of draft", actor: admin, op: policy.Select, row: draftModule, want: true},
		{name: "module of missing course", actor: student, op: policy.Select, row: model.Module{ID: "x", CourseID: "gone"}},
		{name: "student cannot insert", actor: student, op: policy.Insert, row: pubModule},
		{name: "admin inserts", actor: admin, op: policy.Insert, row: pubModule, want: true},
		{name: "admin deletes", actor: admin, op: policy.Delete, row: draftModule, want: true},
	})
}

func TestEngine_lesson(t *testing.T) {
	engine, _, _ := setup(t)

	runPolicyTests(t, engine, []policyTest{
		// preview branch
		{name: "anonymous sees preview of published course", actor: anonymous, op: policy.Select, row: pubPreview, want: true},
		{name: "anonymous cannot see locked lesson", actor: anonymous, op: policy.Select, row: pubLocked},
		{name: "anonymous cannot see preview of draft", actor: anonymous, op: policy.Select, row: draftPreview},
		{name: "student sees preview of published course", actor: student, op: policy.Select, row: pubPreview, want: true},
		{name: "student cannot see locked lesson", actor: student, op: policy.Select, row: pubLocked},
		{name: "student cannot see preview of draft", actor: student, op: policy.Select, row: draftPreview},
		{name: "student cannot see locked lesson of draft", actor: student, op: policy.Select, row: draftLocked},
		{name: "principal without roles sees preview", actor: noRoles, op: policy.Select, row: pubPreview, want: true},
		{name: "lesson of missing module", actor: student, op: policy.Select, row: orphanPreview},
		// enrollment branch
		{name: "enrolled sees locked lesson", actor: enrolled, op: policy.Select, row: pubLocked, want: true},
		{name: "enrolled sees preview", actor: enrolled, op: policy.Select, row: pubPreview, want: true},
		{name: "enrolled sees lessons of draft", actor: enrolled, op: policy.Select, row: draftLocked, want: true},
		{name: "enrolled sees preview of draft", actor: enrolled, op: policy.Select, row: draftPreview, want: true},
		{name: "expired enrollment cannot see locked lesson", actor: expired, op: policy.Select, row: pubLocked},
		{name: "expired enrollment still sees preview", actor: expired, op: policy.Select, row: pubPreview, want: true},
		// admin override
		{name: "admin sees locked lesson of draft", actor: admin, op: policy.Select, row: draftLocked, want: true},
		{name: "enrolled cannot update", actor: enrolled, op: policy.Update, row: pubLocked},
		{name: "admin updates", actor: admin, op: policy.Update, row: pubLocked, want: true},
	})
}

func TestEngine_account(t *testing.T) {
	engine, _, _ := setup(t)

	ownProfile := model.Profile{ID: student.ID}
	ownGrant := model.RoleGrant{ID: "g1", PrincipalID: student.ID, Role: model.RoleStudent}
	adminGrant := model.RoleGrant{ID: "g2", PrincipalID: student.ID, Role: model.RoleAdmin}

	runPolicyTests(t, engine, []policyTest{
		{name: "owner reads profile", actor: student, op: policy.Select, row: ownProfile, want: true},
		{name: "owner updates profile", actor: student, op: policy.Update, row: ownProfile, want: true},
		{name: "owner inserts profile", actor: student, op: policy.Insert, row: ownProfile, want: true},
		{name: "owner cannot delete profile", actor: student, op: policy.Delete, row: ownProfile},
		{name: "other cannot read profile", actor: enrolled, op: policy.Select, row: ownProfile},
		{name: "admin cannot read other profile", actor: admin, op: policy.Select, row: ownProfile},
		{name: "admin cannot delete profile", actor: admin, op: policy.Delete, row: ownProfile},
		{name: "anonymous cannot read profile", actor: anonymous, op: policy.Select, row: model.Profile{}},
		{name: "owner reads grant", actor: student, op: policy.Select, row: ownGrant, want: true},
		{name: "other cannot read grant", actor: enrolled, op: policy.Select, row: ownGrant},
		{name: "admin reads grant", actor: admin, op: policy.Select, row: ownGrant, want: true},
		{name: "owner cannot grant themselves admin", actor: student, op: policy.Insert, row: adminGrant},
		{name: "owner cannot delete grant", actor: student, op: policy.Delete, row: ownGrant},
		{name: "admin grants", actor: admin, op: policy.Insert, row: adminGrant, want: true},
		{name: "admin revokes", actor: admin, op: policy.Delete, row: ownGrant, want: true},
	})
}

func TestEngine_enrollmentAndReview(t *testing.T) {
	engine, _, _ := setup(t)

	enr := model.Enrollment{ID: "e", PrincipalID: student.ID, CourseID: published.ID, Status: model.EnrollmentActive}
	pending := model.Review{ID: "r1", PrincipalID: student.ID, CourseID: published.ID, Rating: 4}
	approved := model.Review{ID: "r2", PrincipalID: enrolled.ID, CourseID: published.ID, Rating: 5, IsApproved: true}

	runPolicyTests(t, engine, []policyTest{
		{name: "owner reads enrollment", actor: student, op: policy.Select, row: enr, want: true},
		{name: "other cannot read enrollment", actor: enrolled, op: policy.Select, row: enr},
		{name: "admin reads enrollment", actor: admin, op: policy.Select, row: enr, want: true},
		{name: "owner cannot enroll themselves", actor: student, op: policy.Insert, row: enr},
		{name: "admin enrolls", actor: admin, op: policy.Insert, row: enr, want: true},
		{name: "admin changes status", actor: admin, op: policy.Update, row: enr, want: true},
		{name: "anonymous sees approved review", actor: anonymous, op: policy.Select, row: approved, want: true},
		{name: "anonymous cannot see pending review", actor: anonymous, op: policy.Select, row: pending},
		{name: "other cannot see pending review", actor: enrolled, op: policy.Select, row: pending},
		{name: "author sees own pending review", actor: student, op: policy.Select, row: pending, want: true},
		{name: "admin sees pending review", actor: admin, op: policy.Select, row: pending, want: true},
		{name: "author inserts review", actor: student, op: policy.Insert, row: pending, want: true},
		{name: "other cannot insert review for author", actor: enrolled, op: policy.Insert, row: pending},
		{name: "anonymous cannot insert review", actor: anonymous, op: policy.Insert, row: model.Review{CourseID: published.ID}},
		{name: "author updates review", actor: student, op: policy.Update, row: pending, want: true},
		{name: "author cannot delete review", actor: student, op: policy.Delete, row: pending},
		{name: "admin deletes review", actor: admin, op: policy.Delete, row: approved, want: true},
	})
}

func TestEvaluation_Check(t *testing.T) {
	engine, _, rec := setup(t)
	ctx := context.Background()

	assert.NoError(t, engine.Check(ctx, anonymous, policy.Select, published))
	assert.Equal(t, core.ErrNotFound, engine.Check(ctx, anonymous, policy.Select, unpublished))

	_, err := engine.For(admin).Allowed(ctx, policy.Select, "not a row")
	assert.Error(t, err)

	require.Len(t, rec.decisions, 2)
	assert.Equal(t, decision{"course", "select", true}, rec.decisions[0])
	assert.Equal(t, decision{"course", "select", false}, rec.decisions[1])
}

func TestEvaluation_memoizesRoles(t *testing.T) {
	engine, store, _ := setup(t)
	ctx := context.Background()

	ev := engine.For(student)
	for _, row := range []interface{}{unpublished, draftModule, pubLocked} {
		_, err := ev.Allowed(ctx, policy.Select, row)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, store.roleLookups)

	ok, err := engine.HasRole(ctx, "", model.RoleStudent)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = engine.HasRole(ctx, admin.ID, model.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, ok)
}
