package account

import (
	"context"
	"fmt"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/model"
)

type (
	Repository interface {
		CreateProfile(ctx context.Context, prof model.Profile) (model.Profile, error)
		GetProfile(ctx context.Context, id string) (model.Profile, error)
		UpdateProfile(ctx context.Context, prof model.Profile) (model.Profile, error)

		CreateRoleGrant(ctx context.Context, grant model.RoleGrant) (model.RoleGrant, error)
		GetRoleGrant(ctx context.Context, id string) (model.RoleGrant, error)
		QueryRoleGrants(ctx context.Context, filter RoleGrantFilter) ([]model.RoleGrant, error)
		DeleteRoleGrant(ctx context.Context, id string) error
	}

	RoleGrantFilter struct {
		PrincipalID string
		Role        model.Role
	}

	// Account is what a bootstrap provisions.
	Account struct {
		Profile model.Profile   `json:"profile"`
		Grant   model.RoleGrant `json:"role_grant"`
	}

	// SignupEvent is the "principal created" event posted by the identity provider.
	SignupEvent struct {
		PrincipalID string         `json:"id" validate:"required,uuid"`
		Email       string         `json:"email" validate:"omitempty,email"`
		Metadata    SignupMetadata `json:"user_metadata"`
	}

	SignupMetadata struct {
		FullName  string `json:"full_name"`
		AvatarURL string `json:"avatar_url" validate:"omitempty,url"`
	}

	UpdateProfile struct {
		FullName  *string `json:"full_name"`
		AvatarURL *string `json:"avatar_url" validate:"omitempty,url"`
	}

	NewRoleGrant struct {
		PrincipalID string     `json:"principal_id" validate:"required,uuid"`
		Role        model.Role `json:"role" validate:"required,oneof=admin student"`
	}
)

func (evt SignupEvent) Validate(validate *validator.Validate, translator ut.Translator) error {
	return core.ValidateStruct(validate, translator, evt)
}

func (up UpdateProfile) Validate(validate *validator.Validate, translator ut.Translator) error {
	return core.ValidateStruct(validate, translator, up)
}

func (ng NewRoleGrant) Validate(validate *validator.Validate, translator ut.Translator) error {
	return core.ValidateStruct(validate, translator, ng)
}

// BootstrapError reports a failed account bootstrap. Nothing was persisted.
type BootstrapError struct {
	PrincipalID string
	Step        string
	Err         error
}

func (err *BootstrapError) Error() string {
	return fmt.Sprintf("bootstrapping account %s: %s: %v", err.PrincipalID, err.Step, err.Err)
}

func (err *BootstrapError) Unwrap() error { return err.Err }

func optionalString(s string) null.String {
	s = core.CleanString(s)
	return null.NewString(s, s != "")
}
