package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/review"
)

type reviewApi struct {
	svc        *review.Service
	validate   *validator.Validate
	translator ut.Translator
}

// registerReviewAPI mounts the review detail endpoints; listing and authoring live under /courses/:id/reviews.
func registerReviewAPI(
	g *echo.Group,
	auth authenticator,
	svc *review.Service,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := reviewApi{
		svc:        svc,
		validate:   validate,
		translator: translator,
	}

	rg := g.Group("/reviews")
	rg.GET("/:id", api.retrieve, auth.optional)
	rg.PUT("/:id", api.update, auth.required)
	rg.DELETE("/:id", api.destroy, auth.required)
	rg.PUT("/:id/approval", api.setApproval, auth.required)
}

// Handlers

func (api *reviewApi) retrieve(ctx echo.Context) error {
	rev, err := api.svc.Get(ctx.Request().Context(), contextActor(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rev)
}

func (api *reviewApi) update(ctx echo.Context) error {
	var data review.UpdateReview
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateReview")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	rev, err := api.svc.Update(ctx.Request().Context(), contextActor(ctx), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rev)
}

func (api *reviewApi) setApproval(ctx echo.Context) error {
	var data review.Approval
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Approval")
	}

	rev, err := api.svc.SetApproval(ctx.Request().Context(), contextActor(ctx), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rev)
}

func (api *reviewApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), contextActor(ctx), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
