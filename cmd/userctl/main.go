// Command userctl is a small admin CLI over the user datastore. It
// speaks to whichever backend USERSTORE_DRIVER selects (memory, mongo,
// or postgres) and prints entities as JSON on stdout.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/idkeep/userstore/internal/core/domain"
	"github.com/idkeep/userstore/internal/core/ports"
	"github.com/idkeep/userstore/internal/core/service"
	"github.com/idkeep/userstore/internal/infrastructure/config"
	"github.com/idkeep/userstore/internal/infrastructure/db/memory"
	mongodb "github.com/idkeep/userstore/internal/infrastructure/db/mongo"
	"github.com/idkeep/userstore/internal/infrastructure/db/postgres"
	redisdb "github.com/idkeep/userstore/internal/infrastructure/db/redis"
	"github.com/idkeep/userstore/pkg/logger"
)

const usage = `usage: userctl <command> [flags]

commands:
  create-user   -email <email> [-username <name>] [-inactive] [-roles a,b,c]
  create-role   -name <name> [-desc <text>]
  ensure-role   -name <name> [-desc <text>]
  add-role      -user <email> -role <name>
  remove-role   -user <email> -role <name>
  activate      -user <id|email|username>
  deactivate    -user <id|email|username>
  delete-user   -user <id|email|username>
  get           -user <id|email|username>
  roles
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	backend, cleanup, err := openBackend(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Driver).Msg("backend init failed")
	}
	defer cleanup()

	if cfg.CacheLookups {
		client, err := redisdb.Connect(ctx, redisdb.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("redis init failed")
		}
		defer client.Close()
		backend = redisdb.NewLookupCache(backend, client, log)
	}

	ds := service.NewUserDatastore(backend, log)
	if err := run(ctx, ds, backend, os.Args[1], os.Args[2:]); err != nil {
		log.Fatal().Err(err).Str("command", os.Args[1]).Msg("command failed")
	}
}

func openBackend(ctx context.Context, cfg *config.Config) (ports.UserBackend, func(), error) {
	switch cfg.Driver {
	case config.DriverMemory:
		return memory.New(domain.ReferenceMembership{}), func() {}, nil

	case config.DriverMongo:
		client, db, err := mongodb.Connect(ctx, mongodb.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
		})
		if err != nil {
			return nil, nil, err
		}
		backend := mongodb.NewUserBackend(db)
		if err := backend.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(ctx)
			return nil, nil, err
		}
		return backend, func() { _ = client.Disconnect(ctx) }, nil

	case config.DriverPostgres:
		db, err := postgres.Connect(postgres.Config{
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			DBName:   cfg.Postgres.DBName,
			SSLMode:  cfg.Postgres.SSLMode,
		})
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewUserBackend(db), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown driver %q", cfg.Driver)
	}
}

func run(ctx context.Context, ds *service.UserDatastore, backend ports.UserBackend, command string, args []string) error {
	switch command {
	case "create-user":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		email := fs.String("email", "", "user email (required)")
		username := fs.String("username", "", "optional username")
		inactive := fs.Bool("inactive", false, "create the user deactivated")
		roles := fs.String("roles", "", "comma-separated role names")
		_ = fs.Parse(args)

		attrs := service.UserAttrs{Email: *email, Username: *username}
		if *inactive {
			active := false
			attrs.Active = &active
		}
		for _, name := range splitList(*roles) {
			attrs.Roles = append(attrs.Roles, service.RoleNamed(name))
		}
		user, err := ds.CreateUser(ctx, attrs)
		if err != nil {
			return err
		}
		return print(user)

	case "create-role", "ensure-role":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		name := fs.String("name", "", "role name (required)")
		desc := fs.String("desc", "", "role description")
		_ = fs.Parse(args)

		var role *domain.Role
		var err error
		if command == "ensure-role" {
			role, err = ds.FindOrCreateRole(ctx, *name, service.RoleAttrs{Description: *desc})
		} else {
			role, err = ds.CreateRole(ctx, service.RoleAttrs{Name: *name, Description: *desc})
		}
		if err != nil {
			return err
		}
		return print(role)

	case "add-role", "remove-role":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		user := fs.String("user", "", "user email (required)")
		role := fs.String("role", "", "role name (required)")
		_ = fs.Parse(args)

		var changed bool
		var err error
		if command == "add-role" {
			changed, err = ds.AddRoleToUser(ctx, service.UserEmail(*user), service.RoleNamed(*role))
		} else {
			changed, err = ds.RemoveRoleFromUser(ctx, service.UserEmail(*user), service.RoleNamed(*role))
		}
		if err != nil {
			return err
		}
		return print(map[string]bool{"changed": changed})

	case "activate", "deactivate":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		ident := fs.String("user", "", "user id, email, or username (required)")
		_ = fs.Parse(args)

		user, err := ds.GetUser(ctx, parseIdent(*ident))
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("no user matches %q", *ident)
		}
		var changed bool
		if command == "activate" {
			changed = ds.ActivateUser(user)
		} else {
			changed = ds.DeactivateUser(user)
		}
		if changed {
			if _, err := ds.PutUser(ctx, user); err != nil {
				return err
			}
			if err := ds.Commit(ctx); err != nil {
				return err
			}
		}
		return print(user)

	case "delete-user":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		ident := fs.String("user", "", "user id, email, or username (required)")
		_ = fs.Parse(args)

		user, err := ds.GetUser(ctx, parseIdent(*ident))
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("no user matches %q", *ident)
		}
		return ds.DeleteUser(ctx, user)

	case "get":
		fs := flag.NewFlagSet(command, flag.ExitOnError)
		ident := fs.String("user", "", "user id, email, or username (required)")
		_ = fs.Parse(args)

		user, err := ds.GetUser(ctx, parseIdent(*ident))
		if err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("no user matches %q", *ident)
		}
		return print(user)

	case "roles":
		lister, ok := backend.(ports.RoleLister)
		if !ok {
			return fmt.Errorf("driver cannot enumerate roles")
		}
		roles, err := lister.Roles(ctx)
		if err != nil {
			return err
		}
		return print(roles)

	default:
		fmt.Fprint(os.Stderr, usage)
		return fmt.Errorf("unknown command %q", command)
	}
}

// parseIdent treats an all-digit argument as a numeric user ID and
// anything else as an email or username.
func parseIdent(s string) domain.Ident {
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return domain.IdentID(id)
	}
	return domain.IdentText(s)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func print(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
