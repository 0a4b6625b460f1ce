package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/enrollment"
)

type enrollmentApi struct {
	svc        *enrollment.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerEnrollmentAPI(
	g *echo.Group,
	auth authenticator,
	svc *enrollment.Service,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := enrollmentApi{
		svc:        svc,
		validate:   validate,
		translator: translator,
	}

	eg := g.Group("/enrollments", auth.required)
	eg.GET("", api.query)
	eg.POST("", api.create)
	eg.GET("/:id", api.retrieve)
	eg.PUT("/:id", api.updateStatus)
	eg.DELETE("/:id", api.destroy)
}

// Handlers

func (api *enrollmentApi) query(ctx echo.Context) error {
	enrs, err := api.svc.List(ctx.Request().Context(), contextActor(ctx), bindEnrollmentFilter(ctx))
	if err != nil {
		return errors.Wrap(err, "querying enrollments")
	}
	return ctx.JSON(http.StatusOK, enrs)
}

func (api *enrollmentApi) create(ctx echo.Context) error {
	var data enrollment.NewEnrollment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEnrollment")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	enr, err := api.svc.Enroll(ctx.Request().Context(), contextActor(ctx), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *enrollmentApi) retrieve(ctx echo.Context) error {
	enr, err := api.svc.Get(ctx.Request().Context(), contextActor(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *enrollmentApi) updateStatus(ctx echo.Context) error {
	var data enrollment.UpdateStatus
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStatus")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	enr, err := api.svc.UpdateStatus(ctx.Request().Context(), contextActor(ctx), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *enrollmentApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), contextActor(ctx), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
