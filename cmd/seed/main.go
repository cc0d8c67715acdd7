// Command seed bootstraps the authorization schema and, when ADMIN_EMAIL is
// set, an initial administrator: privilege catalog, a group-creator role and
// a password credential. Safe to run repeatedly.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"github.com/meristem/authcore/internal/audit"
	"github.com/meristem/authcore/internal/authz"
	authzentity "github.com/meristem/authcore/internal/authz/entity"
	authzrepo "github.com/meristem/authcore/internal/authz/repo"
	apperrors "github.com/meristem/authcore/internal/errors"
	"github.com/meristem/authcore/internal/user"
	userrepo "github.com/meristem/authcore/internal/user/repo"
	"github.com/meristem/authcore/pkg/database"
	"github.com/meristem/authcore/pkg/utilities"
)

func main() {
	// load .env file if present so os.Getenv picks values from it
	_ = godotenv.Load()

	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Info("seeding authcore")

	cfg := database.ConfigFromEnv()
	sqlDB, err := database.Connect(cfg)
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer sqlDB.Close()

	sqlxDB := sqlx.NewDb(sqlDB, "postgres")
	ctx := context.Background()

	userRepo := userrepo.NewUserRepo()
	credRepo := userrepo.NewCredentialRepo()
	privRepo := authzrepo.NewPrivilegeRepo()
	roleRepo := authzrepo.NewRoleRepo()
	groupRepo := authzrepo.NewGroupRepo()
	auditRepo := audit.NewRepo()

	// Table order matters: credentials and roles reference users/privileges.
	ensures := []func(context.Context, database.Querier) error{
		userRepo.EnsureSchema,
		credRepo.EnsureSchema,
		privRepo.EnsureSchema,
		roleRepo.EnsureSchema,
		groupRepo.EnsureSchema,
		auditRepo.EnsureSchema,
	}
	for _, ensure := range ensures {
		if err := ensure(ctx, sqlxDB); err != nil {
			sugar.Fatalf("ensure schema: %v", err)
		}
	}
	sugar.Info("schema ensured")

	directory := user.NewDirectory(nil, nil)
	creds := user.NewCredentialService(nil, nil)
	roleSvc := authz.NewRoleService(nil, nil)

	err = database.WithTx(ctx, sqlxDB, func(tx *sqlx.Tx) error {
		privs := map[string]authzentity.Privilege{}
		for _, name := range []string{
			authzentity.PrivCreateGroup,
			authzentity.PrivCreateRole,
			"view-resource",
			"edit-resource",
		} {
			p, err := privRepo.ByName(ctx, tx, name)
			if apperrors.IsNotFound(err) {
				p = &authzentity.Privilege{ID: utilities.NewUUID(), Name: name}
				if err := privRepo.Insert(ctx, tx, p); err != nil {
					return err
				}
				sugar.Infow("privilege seeded", "name", name)
			} else if err != nil {
				return err
			}
			privs[name] = *p
		}

		email := os.Getenv("ADMIN_EMAIL")
		if email == "" {
			sugar.Info("ADMIN_EMAIL not set; skipping admin bootstrap")
			return nil
		}
		if _, err := directory.ByEmail(ctx, tx, email); err == nil {
			sugar.Infow("admin already present", "email", email)
			return nil
		} else if !apperrors.IsNotFound(err) {
			return err
		}

		password := os.Getenv("ADMIN_PASSWORD")
		if password == "" {
			return errors.New("ADMIN_PASSWORD is required when bootstrapping an admin")
		}
		name := os.Getenv("ADMIN_NAME")
		if name == "" {
			name = "Administrator"
		}

		u, err := directory.Create(ctx, tx, email, name)
		if err != nil {
			return err
		}
		if _, err := creds.SetPassword(ctx, tx, *u, password); err != nil {
			return err
		}
		role, err := roleSvc.CreateRole(ctx, tx, "group-creator", []authzentity.Privilege{
			privs[authzentity.PrivCreateGroup],
			privs[authzentity.PrivCreateRole],
		})
		if err != nil {
			return err
		}
		if err := roleRepo.GrantUserRole(ctx, tx, u.ID, role.ID); err != nil {
			return err
		}
		sugar.Infow("admin bootstrapped", "user_id", u.ID, "email", email)
		return nil
	})
	if err != nil {
		sugar.Fatalf("seed: %v", err)
	}

	sugar.Info("done")
}
