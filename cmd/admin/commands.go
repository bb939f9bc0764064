package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"shop-catalog/internal/database"
	"shop-catalog/internal/domain"
	"shop-catalog/internal/service"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

// env is what commands operate on. It is built only once a command is
// about to run, so help output needs no database.
type env struct {
	out    io.Writer
	logger *zap.Logger
	db     *sql.DB
	users  service.UserService
}

// Command represents a CLI command
type Command struct {
	Name        string
	Description string
	Flags       *pflag.FlagSet
	Run         func(ctx context.Context, rt *env) error
}

// Root holds the subcommands of the admin binary
type Root struct {
	Name        string
	Subcommands map[string]*Command
	out         io.Writer
}

func newRoot(out io.Writer) *Root {
	root := &Root{
		Name:        "catalog-admin",
		Subcommands: make(map[string]*Command),
		out:         out,
	}

	for _, cmd := range []*Command{
		newMigrateCommand(),
		newRoleCommand("grant-role", "Grant a role to a user (ROLE_SUPER_ADMIN included)", func(ctx context.Context, rt *env, user string, role domain.Role) (*domain.User, error) {
			return rt.users.GrantRole(ctx, user, role)
		}),
		newRoleCommand("revoke-role", "Revoke a role from a user", func(ctx context.Context, rt *env, user string, role domain.Role) (*domain.User, error) {
			return rt.users.RevokeRole(ctx, user, role)
		}),
	} {
		cmd.Flags.SetOutput(out)
		root.Subcommands[cmd.Name] = cmd
	}

	return root
}

// Execute parses args and runs the selected command with the env built by connect
func (c *Root) Execute(ctx context.Context, args []string, connect func() (*env, error)) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" {
		c.usage()
		return nil
	}

	cmd, ok := c.Subcommands[args[0]]
	if !ok {
		c.usage()
		return fmt.Errorf("unknown command: %s", args[0])
	}

	if err := cmd.Flags.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	rt, err := connect()
	if err != nil {
		return err
	}
	return cmd.Run(ctx, rt)
}

func (c *Root) usage() {
	fmt.Fprintf(c.out, "Usage: %s <command> [flags]\n\nCommands:\n", c.Name)
	names := make([]string, 0, len(c.Subcommands))
	for name := range c.Subcommands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(c.out, "  %-15s %s\n", name, c.Subcommands[name].Description)
	}
}

func newMigrateCommand() *Command {
	flags := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	down := flags.Bool("down", false, "Roll back the most recent migration")
	status := flags.Bool("status", false, "Print the migration status")

	return &Command{
		Name:        "migrate",
		Description: "Apply database migrations",
		Flags:       flags,
		Run: func(ctx context.Context, rt *env) error {
			switch {
			case *status:
				return database.GetMigrationStatus(rt.db)
			case *down:
				return database.RollbackMigration(rt.db)
			default:
				return database.RunMigrations(rt.db, rt.logger)
			}
		},
	}
}

type roleEdit func(ctx context.Context, rt *env, user string, role domain.Role) (*domain.User, error)

func newRoleCommand(name, description string, edit roleEdit) *Command {
	flags := pflag.NewFlagSet(name, pflag.ContinueOnError)
	user := flags.StringP("user", "u", "", "Username or email of the account")
	roleName := flags.StringP("role", "r", "", "Role name, e.g. ROLE_SUPER_ADMIN")

	return &Command{
		Name:        name,
		Description: description,
		Flags:       flags,
		Run: func(ctx context.Context, rt *env) error {
			if *user == "" || *roleName == "" {
				return fmt.Errorf("%s: --user and --role are required", name)
			}
			role, ok := domain.ParseRole(*roleName)
			if !ok {
				return fmt.Errorf("%s: unknown role %q", name, *roleName)
			}

			updated, err := edit(ctx, rt, *user, role)
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}

			rt.logger.Info("Roles updated",
				zap.String("command", name),
				zap.Int64("user_id", updated.ID),
				zap.Strings("roles", updated.Roles),
			)
			fmt.Fprintf(rt.out, "%s: %s\n", updated.Username, strings.Join(updated.Roles, ", "))
			return nil
		},
	}
}
