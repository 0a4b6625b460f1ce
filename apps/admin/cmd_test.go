package main

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/model"
	testutils "github.com/trezcool/academia/tests"
)

func setup(t *testing.T) (*commandLine, *testutils.Env) {
	env := testutils.NewEnv(t)
	return &commandLine{
		grants:     env.AccountRepo,
		accounts:   env.Accounts,
		validate:   env.Validate,
		translator: env.Translator,
	}, env
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func runCLITests(t *testing.T, cli *commandLine, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					if err != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			} else if tt.wantErr != nil || tt.wantErrStr != "" {
				t.Errorf("cli.run() error = nil, want an error")
			}
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t)

	orig := gooseRunFunc
	t.Cleanup(func() { gooseRunFunc = orig })
	gooseRunFunc = func(db *sql.DB, command string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	runCLITests(t, cli, []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "course_tags", "sql"}},
	})
}

func Test_commandLine_grantRole(t *testing.T) {
	cli, env := setup(t)
	ada := env.Student(t, "Ada")

	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"grantrole"}, wantErr: errHelp},
		{name: "no role", args: []string{"grantrole", "-principal", ada.ID}, wantErr: errHelp},
		{name: "unknown role", args: []string{"grantrole", "-principal", ada.ID, "-role", "instructor"}, wantErrStr: "invalid role: role must be one of [admin student]"},
		{name: "admin", args: []string{"grantrole", "-principal", ada.ID, "-role", "admin"}},
		{name: "twice", args: []string{"grantrole", "-principal", ada.ID, "-role", "admin"}, wantErrStr: "granting role: constraint violation: role_grants_principal_id_role_key"},
	})

	ok, err := env.Accounts.HasRole(context.Background(), ada.ID, model.RoleAdmin)
	require.NoError(t, err)
	assert.True(t, ok)
}

func Test_commandLine_bootstrap(t *testing.T) {
	cli, env := setup(t)
	id := uuid.NewString()

	runCLITests(t, cli, []cliTest{
		{name: "no args", args: []string{"bootstrap"}, wantErr: errHelp},
		{name: "bad principal", args: []string{"bootstrap", "-principal", "nope"}, wantErrStr: "invalid id: id must be a valid UUID"},
		{name: "bootstrap", args: []string{"bootstrap", "-principal", id, "-name", "Ada"}},
	})

	prof, err := env.AccountRepo.GetProfile(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "Ada", prof.FullName.String)

	err = cli.run([]string{"admin", "bootstrap", "-principal", id})
	assert.True(t, core.IsConstraintViolation(err))
}
