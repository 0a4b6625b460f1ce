package main

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/account"
	"github.com/trezcool/academia/core/model"
)

// grantRole writes the grant directly: the CLI is trusted, no policy applies.
func (cli *commandLine) grantRole(principalID, role string) error {
	ng := account.NewRoleGrant{PrincipalID: principalID, Role: model.Role(role)}
	if err := ng.Validate(cli.validate, cli.translator); err != nil {
		return err
	}

	grant, err := cli.grants.CreateRoleGrant(context.Background(), model.RoleGrant{
		ID:          uuid.NewString(),
		PrincipalID: ng.PrincipalID,
		Role:        ng.Role,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		return errors.Wrap(err, "granting role")
	}
	fmt.Printf("granted %s to %s (%s)\n", grant.Role, grant.PrincipalID, grant.ID)
	return nil
}

func (cli *commandLine) bootstrap(principalID, fullName, email string) error {
	evt := account.SignupEvent{
		PrincipalID: principalID,
		Email:       email,
		Metadata:    account.SignupMetadata{FullName: fullName},
	}
	if err := evt.Validate(cli.validate, cli.translator); err != nil {
		return err
	}

	acct, err := cli.accounts.Bootstrap(context.Background(), evt)
	if err != nil {
		return err
	}
	fmt.Printf("bootstrapped %s as %s\n", acct.Profile.ID, acct.Grant.Role)
	return nil
}
