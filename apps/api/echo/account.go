package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/account"
)

type accountApi struct {
	svc        *account.Service
	validate   *validator.Validate
	translator ut.Translator
}

func registerAccountAPI(
	g *echo.Group,
	auth authenticator,
	svc *account.Service,
	validate *validator.Validate,
	translator ut.Translator,
) {
	api := accountApi{
		svc:        svc,
		validate:   validate,
		translator: translator,
	}

	pg := g.Group("/profiles")
	pg.GET("/:id", api.retrieveProfile, auth.optional)
	pg.PUT("/:id", api.updateProfile, auth.required)

	rg := g.Group("/roles", auth.required)
	rg.GET("", api.queryRoles)
	rg.POST("", api.grantRole)
	rg.DELETE("/:id", api.revokeRole)
}

// Handlers

func (api *accountApi) retrieveProfile(ctx echo.Context) error {
	prof, err := api.svc.GetProfile(ctx.Request().Context(), contextActor(ctx), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, prof)
}

func (api *accountApi) updateProfile(ctx echo.Context) error {
	var data account.UpdateProfile
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateProfile")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	prof, err := api.svc.UpdateProfile(ctx.Request().Context(), contextActor(ctx), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, prof)
}

func (api *accountApi) queryRoles(ctx echo.Context) error {
	grants, err := api.svc.ListRoleGrants(ctx.Request().Context(), contextActor(ctx), bindRoleGrantFilter(ctx))
	if err != nil {
		return errors.Wrap(err, "querying role grants")
	}
	return ctx.JSON(http.StatusOK, grants)
}

func (api *accountApi) grantRole(ctx echo.Context) error {
	var data account.NewRoleGrant
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRoleGrant")
	}
	if err := data.Validate(api.validate, api.translator); err != nil {
		return err
	}

	grant, err := api.svc.GrantRole(ctx.Request().Context(), contextActor(ctx), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, grant)
}

func (api *accountApi) revokeRole(ctx echo.Context) error {
	if err := api.svc.RevokeRole(ctx.Request().Context(), contextActor(ctx), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
