package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/course"
	"github.com/trezcool/academia/core/model"
	"github.com/trezcool/academia/core/review"
)

type courseApi struct {
	svc        *course.Service
	reviewSvc  *review.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerCourseAPI(
	g *echo.Group,
	auth authenticator,
	svc *course.Service,
	reviewSvc *review.Service,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := courseApi{
		svc:        svc,
		reviewSvc:  reviewSvc,
		validate:   validate,
		translator: translator,
	}

	cg := g.Group("/courses")
	cg.GET("", api.query, auth.optional)
	cg.POST("", api.create, auth.required)
	cg.GET("/:id", api.retrieve, auth.optional)
	cg.PUT("/:id", api.update, auth.required)
	cg.DELETE("/:id", api.destroy, auth.required)
	cg.PUT("/:id/structure", api.saveStructure, auth.required)
	cg.GET("/:id/outline", api.outline, auth.optional)
	cg.GET("/:id/modules", api.queryModules, auth.optional)
	cg.GET("/:id/reviews", api.queryReviews, auth.optional)
	cg.POST("/:id/reviews", api.createReview, auth.required)
	cg.GET("/:id/rating", api.rating, auth.optional)

	mg := g.Group("/modules")
	mg.GET("/:id/lessons", api.queryLessons, auth.optional)
	mg.DELETE("/:id", api.destroyModule, auth.required)

	lg := g.Group("/lessons")
	lg.GET("/:id", api.retrieveLesson, auth.optional)
	lg.DELETE("/:id", api.destroyLesson, auth.required)
}

// Handlers

func (api *courseApi) query(ctx echo.Context) error {
	filter, err := bindCourseFilter(ctx)
	if err != nil {
		return err
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	courses, err := api.svc.List(ctx.Request().Context(), contextActor(ctx), filter, ordering.Orderings...)
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	out, err := api.svc.Create(ctx.Request().Context(), contextActor(ctx), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, out)
}

// retrieve accepts either the id or the slug of the course.
func (api *courseApi) retrieve(ctx echo.Context) error {
	var (
		crs model.Course
		err error
	)
	key := ctx.Param("id")
	if _, pErr := uuid.Parse(key); pErr == nil {
		crs, err = api.svc.Get(ctx.Request().Context(), contextActor(ctx), key)
	} else {
		crs, err = api.svc.GetBySlug(ctx.Request().Context(), contextActor(ctx), key)
	}
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, crs)
}

func (api *courseApi) update(ctx echo.Context) error {
	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	out, err := api.svc.Update(ctx.Request().Context(), contextActor(ctx), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, out)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), contextActor(ctx), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// saveStructure replaces every module and lesson of the course.
func (api *courseApi) saveStructure(ctx echo.Context) error {
	var data course.Structure
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Structure")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	mods, err := api.svc.SaveStructure(ctx.Request().Context(), contextActor(ctx), ctx.Param("id"), data.Modules)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, mods)
}

func (api *courseApi) outline(ctx echo.Context) error {
	out, err := api.svc.Outline(ctx.Request().Context(), contextActor(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, out)
}

func (api *courseApi) queryModules(ctx echo.Context) error {
	mods, err := api.svc.ListModules(ctx.Request().Context(), contextActor(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, mods)
}

func (api *courseApi) queryLessons(ctx echo.Context) error {
	lessons, err := api.svc.ListLessons(ctx.Request().Context(), contextActor(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, lessons)
}

func (api *courseApi) retrieveLesson(ctx echo.Context) error {
	lsn, err := api.svc.GetLesson(ctx.Request().Context(), contextActor(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, lsn)
}

func (api *courseApi) destroyModule(ctx echo.Context) error {
	if err := api.svc.DeleteModule(ctx.Request().Context(), contextActor(ctx), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) destroyLesson(ctx echo.Context) error {
	if err := api.svc.DeleteLesson(ctx.Request().Context(), contextActor(ctx), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseApi) queryReviews(ctx echo.Context) error {
	filter, err := bindReviewFilter(ctx, ctx.Param("id"))
	if err != nil {
		return err
	}
	revs, err := api.reviewSvc.List(ctx.Request().Context(), contextActor(ctx), filter)
	if err != nil {
		return errors.Wrap(err, "querying reviews")
	}
	return ctx.JSON(http.StatusOK, revs)
}

func (api *courseApi) createReview(ctx echo.Context) error {
	var data review.NewReview
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewReview")
	}
	data.CourseID = ctx.Param("id")
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	rev, err := api.reviewSvc.Create(ctx.Request().Context(), contextActor(ctx), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, rev)
}

func (api *courseApi) rating(ctx echo.Context) error {
	sum, err := api.reviewSvc.RatingSummary(ctx.Request().Context(), contextActor(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sum)
}
