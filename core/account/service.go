package account

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/model"
	"github.com/trezcool/academia/core/policy"
)

// BootstrapRecorder is notified of every bootstrap outcome.
type BootstrapRecorder interface {
	Bootstrap(ok bool)
}

type Service struct {
	tx       core.Transactor
	repo     Repository
	policy   *policy.Engine
	mailSvc  core.EmailService
	logger   core.Logger
	recorder BootstrapRecorder
	nowFunc  func() time.Time
}

// NewService returns the account service. recorder may be nil.
func NewService(
	tx core.Transactor,
	repo Repository,
	engine *policy.Engine,
	mailSvc core.EmailService,
	logger core.Logger,
	recorder BootstrapRecorder,
) *Service {
	return &Service{
		tx:       tx,
		repo:     repo,
		policy:   engine,
		mailSvc:  mailSvc,
		logger:   logger,
		recorder: recorder,
		nowFunc:  func() time.Time { return time.Now().UTC() },
	}
}

// Bootstrap provisions the Profile and the student RoleGrant of a newly signed-up principal, in one transaction.
// A replayed event fails on the storage uniqueness constraints.
func (svc *Service) Bootstrap(ctx context.Context, evt SignupEvent) (Account, error) {
	now := svc.nowFunc()
	var acct Account

	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		prof, err := svc.repo.CreateProfile(ctx, model.Profile{
			ID:        evt.PrincipalID,
			FullName:  optionalString(evt.Metadata.FullName),
			AvatarURL: optionalString(evt.Metadata.AvatarURL),
			CreatedAt: now,
			UpdatedAt: now,
		})
		if err != nil {
			return &BootstrapError{PrincipalID: evt.PrincipalID, Step: "creating profile", Err: err}
		}

		grant, err := svc.repo.CreateRoleGrant(ctx, model.RoleGrant{
			ID:          uuid.NewString(),
			PrincipalID: evt.PrincipalID,
			Role:        model.RoleStudent,
			CreatedAt:   now,
		})
		if err != nil {
			return &BootstrapError{PrincipalID: evt.PrincipalID, Step: "granting student role", Err: err}
		}

		acct = Account{Profile: prof, Grant: grant}
		return nil
	})
	if svc.recorder != nil {
		svc.recorder.Bootstrap(err == nil)
	}
	if err != nil {
		var bErr *BootstrapError
		if !errors.As(err, &bErr) {
			err = &BootstrapError{PrincipalID: evt.PrincipalID, Step: "committing", Err: err}
		}
		svc.logger.Error(err.Error(), err)
		return Account{}, err
	}

	svc.logger.Info(fmt.Sprintf("account %s bootstrapped", evt.PrincipalID))
	svc.sendWelcomeEmail(evt)
	return acct, nil
}

func (svc *Service) sendWelcomeEmail(evt SignupEvent) {
	if evt.Email == "" || svc.mailSvc == nil {
		return
	}
	name := core.CleanString(evt.Metadata.FullName)
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: name, Address: evt.Email}},
		Subject:      "Welcome",
		TemplateName: "welcome",
		TemplateData: struct{ Name string }{Name: name},
	})
}

func (svc *Service) GetProfile(ctx context.Context, actor policy.Actor, id string) (model.Profile, error) {
	prof, err := svc.repo.GetProfile(ctx, id)
	if err != nil {
		return model.Profile{}, errors.Wrap(err, "getting profile")
	}
	if err = svc.policy.Check(ctx, actor, policy.Select, prof); err != nil {
		return model.Profile{}, err
	}
	return prof, nil
}

func (svc *Service) UpdateProfile(ctx context.Context, actor policy.Actor, id string, up UpdateProfile) (model.Profile, error) {
	var prof model.Profile
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		orig, err := svc.repo.GetProfile(ctx, id)
		if err != nil {
			return errors.Wrap(err, "getting profile")
		}
		if err = svc.policy.Check(ctx, actor, policy.Update, orig); err != nil {
			return err
		}

		if up.FullName != nil {
			orig.FullName = optionalString(*up.FullName)
		}
		if up.AvatarURL != nil {
			orig.AvatarURL = optionalString(*up.AvatarURL)
		}
		prof, err = svc.repo.UpdateProfile(ctx, orig)
		return errors.Wrap(err, "updating profile")
	})
	return prof, err
}

// ListRoleGrants returns the grants visible to actor: their own, or everybody's for admins.
func (svc *Service) ListRoleGrants(ctx context.Context, actor policy.Actor, filter RoleGrantFilter) ([]model.RoleGrant, error) {
	grants, err := svc.repo.QueryRoleGrants(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying role grants")
	}

	ev := svc.policy.For(actor)
	visible := make([]model.RoleGrant, 0, len(grants))
	for _, g := range grants {
		ok, err := ev.Allowed(ctx, policy.Select, g)
		if err != nil {
			return nil, err
		}
		if ok {
			visible = append(visible, g)
		}
	}
	return visible, nil
}

func (svc *Service) GrantRole(ctx context.Context, actor policy.Actor, ng NewRoleGrant) (model.RoleGrant, error) {
	grant := model.RoleGrant{
		ID:          uuid.NewString(),
		PrincipalID: ng.PrincipalID,
		Role:        ng.Role,
		CreatedAt:   svc.nowFunc(),
	}
	if err := svc.policy.Check(ctx, actor, policy.Insert, grant); err != nil {
		return model.RoleGrant{}, err
	}
	grant, err := svc.repo.CreateRoleGrant(ctx, grant)
	if err != nil {
		return model.RoleGrant{}, errors.Wrap(err, "granting role")
	}
	return grant, nil
}

func (svc *Service) RevokeRole(ctx context.Context, actor policy.Actor, grantID string) error {
	return svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		grant, err := svc.repo.GetRoleGrant(ctx, grantID)
		if err != nil {
			return errors.Wrap(err, "getting role grant")
		}
		ev := svc.policy.For(actor)
		if err = ev.Check(ctx, policy.Select, grant); err != nil {
			return err
		}
		ok, err := ev.Allowed(ctx, policy.Delete, grant)
		if err != nil {
			return err
		}
		if !ok {
			// grantees may see their grants, but not revoke them
			return core.NewValidationError(errors.New("not enough rights to revoke this role"))
		}
		return errors.Wrap(svc.repo.DeleteRoleGrant(ctx, grantID), "revoking role")
	})
}

// HasRole is the privileged role check; no predicate applies to it.
func (svc *Service) HasRole(ctx context.Context, principalID string, role model.Role) (bool, error) {
	return svc.policy.HasRole(ctx, principalID, role)
}
