package main

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"testing"

	"github.com/trezcool/confeval/core"
	"github.com/trezcool/confeval/core/user"
	dummydb "github.com/trezcool/confeval/storage/database/dummy"
)

func setup(t *testing.T) *commandLine {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}

	return &commandLine{
		conf: &core.Config{
			Database: core.DatabaseConfig{Engine: "postgres", MigrationsDir: "migrations"},
		},
		usrRepo: dummydb.NewUserRepository(db),
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, dir string, args ...string) error {
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

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "session", "sql"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
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
			}
		})
	}
}

func Test_commandLine_addAdmin(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("S3cr3t+Pass"), nil }

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"addadmin"}, wantErr: errHelp},
		{name: "missing email", args: []string{"addadmin", "-username", "root"}, wantErr: errHelp},
		{name: "ok", args: []string{"addadmin", "-username", "root", "-email", "root@test.cd"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("cli.run() unexpected error = %v", err)
			}

			usr, err := cli.usrRepo.GetUserByUsernameOrEmail(ctx, "root")
			if err != nil {
				t.Fatalf("GetUserByUsernameOrEmail() failed: %v", err)
			}
			if !usr.IsAdmin() {
				t.Errorf("expected an admin, got roles %v", usr.Roles)
			}
			if err := usr.CheckPassword("S3cr3t+Pass"); err != nil {
				t.Error("password not set")
			}
		})
	}

	// promoting an existing user keeps their other roles
	usr, err := cli.usrRepo.GetUserByUsernameOrEmail(ctx, "root")
	if err != nil {
		t.Fatalf("GetUserByUsernameOrEmail() failed: %v", err)
	}
	if err := cli.run([]string{"admin", "addadmin", "-username", "root", "-email", "root@test.cd"}); err != nil {
		t.Fatalf("cli.run() unexpected error = %v", err)
	}
	promoted, err := cli.usrRepo.GetUserByID(ctx, usr.ID)
	if err != nil {
		t.Fatalf("GetUserByID() failed: %v", err)
	}
	if !promoted.IsAdmin() {
		t.Errorf("expected an admin, got roles %v", promoted.Roles)
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)
	ctx := context.Background()

	usr := user.User{
		Name:       "Awe Some",
		Username:   "awesome",
		Email:      "awe@test.cd",
		IsActive:   true,
		IsApproved: true,
		Roles:      []string{user.RoleStudent},
	}
	if err := usr.SetPassword("0ld+Pass"); err != nil {
		t.Fatalf("SetPassword() failed: %v", err)
	}
	usr, err := cli.usrRepo.CreateUser(ctx, usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}

	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("N3w+Pass"), nil }

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "unknown user", args: []string{"resetpassword", "-username", "ghost"}, wantErr: user.ErrNotFound},
		{name: "reset by username", args: []string{"resetpassword", "-username", "awesome"}},
		{name: "reset by email", args: []string{"resetpassword", "-username", "awe@test.cd"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("cli.run() unexpected error = %v", err)
			}

			updated, err := cli.usrRepo.GetUserByID(ctx, usr.ID)
			if err != nil {
				t.Fatalf("GetUserByID() failed: %v", err)
			}
			if err := updated.CheckPassword("N3w+Pass"); err != nil {
				t.Error("password not reset")
			}
		})
	}
}
