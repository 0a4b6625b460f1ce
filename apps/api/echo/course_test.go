package echoapi_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core/course"
	"github.com/trezcool/academia/core/model"
	"github.com/trezcool/academia/core/review"
	testutils "github.com/trezcool/academia/tests"
)

func newCourse(slug string, published bool) course.NewCourse {
	return course.NewCourse{
		Title:       "Intro to " + slug,
		Slug:        slug,
		Price:       49.99,
		IsPublished: published,
		Modules: []course.NewModule{{
			Title: "Basics",
			Lessons: []course.NewLesson{
				{Title: "Welcome", IsPreview: true, DurationMinutes: testutils.IntPtr(5)},
				{Title: "Setup"},
			},
		}},
	}
}

func Test_courseApi_create(t *testing.T) {
	env, srv := setup(t)
	adminToken := getToken(t, env, env.Admin(t, "Root"))
	adaToken := getToken(t, env, env.Student(t, "Ada"))

	runHTTPTests(t, srv, []httpTest{
		{name: "without token", method: http.MethodPost, path: "/v1/courses", body: newCourse("go", true), wantCode: http.StatusUnauthorized, wantData: errMissingToken},
		{name: "by student", method: http.MethodPost, path: "/v1/courses", token: adaToken, body: newCourse("go", true), wantCode: http.StatusNotFound},
		{
			name: "invalid", method: http.MethodPost, path: "/v1/courses", token: adminToken,
			body: echoMap{"title": "Go", "slug": "Not A Slug", "price": -1},
			wantCode: http.StatusBadRequest,
		},
	})

	rec := serve(t, srv, http.MethodPost, "/v1/courses", adminToken, newCourse("go", true))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out course.Outline
	decode(t, rec, &out)
	assert.Equal(t, "go", out.Slug)
	require.Len(t, out.Modules, 1)
	assert.Len(t, out.Modules[0].Lessons, 2)

	rec = serve(t, srv, http.MethodPost, "/v1/courses", adminToken, newCourse("go", false))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"error":"constraint violation","constraint":"courses_slug_key"}`, rec.Body.String())
}

func Test_courseApi_visibility(t *testing.T) {
	env, srv := setup(t)
	admin := env.Admin(t, "Root")
	ada, bob := env.Student(t, "Ada"), env.Student(t, "Bob")
	adminToken, adaToken, bobToken := getToken(t, env, admin), getToken(t, env, ada), getToken(t, env, bob)

	pub := env.CreateCourse(t, admin, newCourse("go", true))
	draft := env.CreateCourse(t, admin, newCourse("rust", false))
	env.Enroll(t, admin, ada, pub.ID)

	t.Run("courses", func(t *testing.T) {
		var courses []model.Course
		rec := serve(t, srv, http.MethodGet, "/v1/courses", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		decode(t, rec, &courses)
		require.Len(t, courses, 1)
		assert.Equal(t, pub.ID, courses[0].ID)

		rec = serve(t, srv, http.MethodGet, "/v1/courses?ordering=title", adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		decode(t, rec, &courses)
		require.Len(t, courses, 2)
		assert.Equal(t, pub.ID, courses[0].ID) // "Intro to go" < "Intro to rust"

		rec = serve(t, srv, http.MethodGet, "/v1/courses?published=false", adminToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		decode(t, rec, &courses)
		require.Len(t, courses, 1)
		assert.Equal(t, draft.ID, courses[0].ID)

		assert.Equal(t, http.StatusBadRequest, serve(t, srv, http.MethodGet, "/v1/courses?published=maybe", "", nil).Code)
	})

	runHTTPTests(t, srv, []httpTest{
		{name: "published course", method: http.MethodGet, path: "/v1/courses/" + pub.ID, wantCode: http.StatusOK},
		{name: "published course by slug", method: http.MethodGet, path: "/v1/courses/go", wantCode: http.StatusOK},
		{name: "draft course", method: http.MethodGet, path: "/v1/courses/" + draft.ID, token: adaToken, wantCode: http.StatusNotFound},
		{name: "draft course by slug", method: http.MethodGet, path: "/v1/courses/rust", wantCode: http.StatusNotFound},
		{name: "draft course, admin", method: http.MethodGet, path: "/v1/courses/" + draft.ID, token: adminToken, wantCode: http.StatusOK},
		{name: "draft modules", method: http.MethodGet, path: "/v1/courses/" + draft.ID + "/modules", wantCode: http.StatusNotFound},
		{name: "unknown course", method: http.MethodGet, path: "/v1/courses/" + strings.Repeat("0", 8) + "-0000-0000-0000-000000000000", wantCode: http.StatusNotFound},
	})

	welcome, setupLsn := pub.Modules[0].Lessons[0], pub.Modules[0].Lessons[1]
	runHTTPTests(t, srv, []httpTest{
		{name: "preview lesson, anonymous", method: http.MethodGet, path: "/v1/lessons/" + welcome.ID, wantCode: http.StatusOK},
		{name: "lesson, anonymous", method: http.MethodGet, path: "/v1/lessons/" + setupLsn.ID, wantCode: http.StatusNotFound},
		{name: "lesson, not enrolled", method: http.MethodGet, path: "/v1/lessons/" + setupLsn.ID, token: bobToken, wantCode: http.StatusNotFound},
		{name: "lesson, enrolled", method: http.MethodGet, path: "/v1/lessons/" + setupLsn.ID, token: adaToken, wantCode: http.StatusOK},
		{name: "draft preview lesson", method: http.MethodGet, path: "/v1/lessons/" + draft.Modules[0].Lessons[0].ID, wantCode: http.StatusNotFound},
	})

	t.Run("outline", func(t *testing.T) {
		var out course.Outline
		rec := serve(t, srv, http.MethodGet, "/v1/courses/"+pub.ID+"/outline", bobToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		decode(t, rec, &out)
		require.Len(t, out.Modules, 1)
		require.Len(t, out.Modules[0].Lessons, 1)
		assert.Equal(t, welcome.ID, out.Modules[0].Lessons[0].ID)

		rec = serve(t, srv, http.MethodGet, "/v1/courses/"+pub.ID+"/outline", adaToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		decode(t, rec, &out)
		assert.Len(t, out.Modules[0].Lessons, 2)

		var lessons []model.Lesson
		rec = serve(t, srv, http.MethodGet, "/v1/modules/"+pub.Modules[0].ID+"/lessons", "", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		decode(t, rec, &lessons)
		assert.Len(t, lessons, 1)
	})
}

func Test_courseApi_update(t *testing.T) {
	env, srv := setup(t)
	admin := env.Admin(t, "Root")
	adminToken, adaToken := getToken(t, env, admin), getToken(t, env, env.Student(t, "Ada"))
	crs := env.CreateCourse(t, admin, newCourse("go", false))
	path := "/v1/courses/" + crs.ID

	assert.Equal(t, http.StatusNotFound, serve(t, srv, http.MethodPut, path, adaToken, echoMap{"title": "Mine"}).Code)

	rec := serve(t, srv, http.MethodPut, path, adminToken, echoMap{"title": "Go in depth", "is_published": true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out course.Outline
	decode(t, rec, &out)
	assert.Equal(t, "Go in depth", out.Title)
	assert.True(t, out.IsPublished)
	require.Len(t, out.Modules, 1) // untouched

	t.Run("original price", func(t *testing.T) {
		var crs model.Course
		rec := serve(t, srv, http.MethodPut, path, adminToken, echoMap{"original_price": 99})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		decode(t, rec, &crs)
		assert.True(t, crs.OriginalPrice.Valid)

		rec = serve(t, srv, http.MethodPut, path, adminToken, echoMap{"original_price": nil})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		decode(t, rec, &crs)
		assert.False(t, crs.OriginalPrice.Valid)

		assert.Equal(t, http.StatusBadRequest, serve(t, srv, http.MethodPut, path, adminToken, echoMap{"original_price": -5}).Code)
		assert.Equal(t, http.StatusBadRequest, serve(t, srv, http.MethodPut, path, adminToken, echoMap{"title": "   "}).Code)
	})

	t.Run("structure", func(t *testing.T) {
		structure := course.Structure{Modules: []course.NewModule{
			{Title: "One", Lessons: []course.NewLesson{{Title: "A"}}},
			{Title: "Two"},
		}}
		assert.Equal(t, http.StatusNotFound, serve(t, srv, http.MethodPut, path+"/structure", adaToken, structure).Code)

		// a failed re-save leaves the prior structure in place
		bad := course.Structure{Modules: []course.NewModule{
			{Title: "One", Lessons: []course.NewLesson{{Title: "A", DurationMinutes: testutils.IntPtr(-1)}}},
		}}
		rec := serve(t, srv, http.MethodPut, path+"/structure", adminToken, bad)
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = serve(t, srv, http.MethodPut, path+"/structure", adminToken, structure)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var mods []model.Module
		decode(t, rec, &mods)
		require.Len(t, mods, 2)
		assert.Equal(t, "One", mods[0].Title)
		assert.Equal(t, 1, mods[1].SortOrder)

		// the old lessons are gone
		assert.Equal(t, http.StatusNotFound, serve(t, srv, http.MethodGet, "/v1/lessons/"+crs.Modules[0].Lessons[0].ID, adminToken, nil).Code)
	})

	t.Run("delete", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, serve(t, srv, http.MethodDelete, path, adaToken, nil).Code)
		assert.Equal(t, http.StatusNoContent, serve(t, srv, http.MethodDelete, path, adminToken, nil).Code)
		assert.Equal(t, http.StatusNotFound, serve(t, srv, http.MethodGet, path, adminToken, nil).Code)
	})
}

func Test_courseApi_reviews(t *testing.T) {
	env, srv := setup(t)
	admin := env.Admin(t, "Root")
	ada, bob := env.Student(t, "Ada"), env.Student(t, "Bob")
	adminToken, adaToken, bobToken := getToken(t, env, admin), getToken(t, env, ada), getToken(t, env, bob)
	crs := env.CreateCourse(t, admin, newCourse("go", true))
	path := "/v1/courses/" + crs.ID + "/reviews"

	runHTTPTests(t, srv, []httpTest{
		{name: "anonymous", method: http.MethodPost, path: path, body: review.NewReview{Rating: 4}, wantCode: http.StatusUnauthorized},
		{name: "rating too high", method: http.MethodPost, path: path, token: adaToken, body: review.NewReview{Rating: 6}, wantCode: http.StatusConflict},
		{name: "rating missing", method: http.MethodPost, path: path, token: adaToken, body: echoMap{"comment": "meh"}, wantCode: http.StatusBadRequest},
	})

	rec := serve(t, srv, http.MethodPost, path, adaToken, review.NewReview{Rating: 4, Comment: " Great "})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var rev model.Review
	decode(t, rec, &rev)
	assert.Equal(t, "Great", rev.Comment)
	assert.False(t, rev.IsApproved)

	assert.Equal(t, http.StatusConflict, serve(t, srv, http.MethodPost, path, adaToken, review.NewReview{Rating: 5}).Code)

	list := func(token string) []model.Review {
		var revs []model.Review
		rec := serve(t, srv, http.MethodGet, path, token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		decode(t, rec, &revs)
		return revs
	}
	assert.Len(t, list(""), 0)
	assert.Len(t, list(bobToken), 0)
	assert.Len(t, list(adaToken), 1) // authors see their pending reviews

	revPath := "/v1/reviews/" + rev.ID
	runHTTPTests(t, srv, []httpTest{
		{name: "pending, anonymous", method: http.MethodGet, path: revPath, wantCode: http.StatusNotFound},
		{name: "pending, author", method: http.MethodGet, path: revPath, token: adaToken, wantCode: http.StatusOK},
		{name: "approve, author", method: http.MethodPut, path: revPath + "/approval", token: adaToken, body: review.Approval{IsApproved: true}, wantCode: http.StatusNotFound},
		{name: "edit, other", method: http.MethodPut, path: revPath, token: bobToken, body: echoMap{"rating": 1}, wantCode: http.StatusNotFound},
	})

	rec = serve(t, srv, http.MethodPut, revPath+"/approval", adminToken, review.Approval{IsApproved: true})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, list(""), 1)

	rec = serve(t, srv, http.MethodGet, "/v1/courses/"+crs.ID+"/rating", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"course_id":"`+crs.ID+`","count":1,"average":4}`, rec.Body.String())

	assert.Equal(t, http.StatusNotFound, serve(t, srv, http.MethodDelete, revPath, adaToken, nil).Code)
	assert.Equal(t, http.StatusNoContent, serve(t, srv, http.MethodDelete, revPath, adminToken, nil).Code)
	assert.Len(t, list(adminToken), 0)
}
