package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/trezcool/academia/core/account"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	db         *sql.DB
	grants     account.Repository
	accounts   *account.Service
	validate   *validator.Validate
	translator ut.Translator
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate COMMAND [ARGS] - run a goose migration command (up, down, status, ...)")
	fmt.Println("  grantrole -principal ID -role admin|student - grant a role to a principal")
	fmt.Println("  bootstrap -principal ID [-name NAME] [-email EMAIL] - replay the signup of a principal")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	grantRoleCmd := flag.NewFlagSet("grantrole", flag.ExitOnError)
	grantRolePrincipal := grantRoleCmd.String("principal", "", "The principal id issued by the identity provider.")
	grantRoleRole := grantRoleCmd.String("role", "", "The role to grant: admin or student.")

	bootstrapCmd := flag.NewFlagSet("bootstrap", flag.ExitOnError)
	bootstrapPrincipal := bootstrapCmd.String("principal", "", "The principal id issued by the identity provider.")
	bootstrapName := bootstrapCmd.String("name", "", "The full name of the principal.")
	bootstrapEmail := bootstrapCmd.String("email", "", "The email address of the principal.")

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			fmt.Println("Usage: migrate COMMAND [ARGS]")
			return errHelp
		}
		return cli.migrate(args[2:])
	case "grantrole":
		if err := grantRoleCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *grantRolePrincipal == "" || *grantRoleRole == "" {
			grantRoleCmd.Usage()
			return errHelp
		}
		return cli.grantRole(*grantRolePrincipal, *grantRoleRole)
	case "bootstrap":
		if err := bootstrapCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *bootstrapPrincipal == "" {
			bootstrapCmd.Usage()
			return errHelp
		}
		return cli.bootstrap(*bootstrapPrincipal, *bootstrapName, *bootstrapEmail)
	default:
		cli.printUsage()
		return errHelp
	}
}
