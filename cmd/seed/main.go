package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"manpower/internal/auth"
	"manpower/internal/config"
	"manpower/internal/db"
	"manpower/internal/model"
	"manpower/internal/repository"
)

var (
	adminUsername string
	adminName     string
	adminPassword string
	usersFile     string
)

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed users into the manpower database",
	Long: `Seed users into the database selected by DB_DRIVER.

Examples:
  seed admin --username ops --password s3cret
  seed users --file users.json`,
	SilenceUsage: true,
}

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Create a persisted ADMIN unless one already exists",
	RunE:  runAdmin,
}

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Create users from a JSON file, skipping existing usernames",
	RunE:  runUsers,
}

func init() {
	adminCmd.Flags().StringVar(&adminUsername, "username", "superadmin", "admin username")
	adminCmd.Flags().StringVar(&adminName, "name", "Administrator", "admin display name")
	adminCmd.Flags().StringVar(&adminPassword, "password", "", "admin password")
	_ = adminCmd.MarkFlagRequired("password")

	usersCmd.Flags().StringVarP(&usersFile, "file", "f", "", "JSON array of {username, name, password, role}")
	_ = usersCmd.MarkFlagRequired("file")

	rootCmd.AddCommand(adminCmd, usersCmd)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// SeedUser is one entry of the users file.
type SeedUser struct {
	Username string     `json:"username"`
	Name     string     `json:"name"`
	Password string     `json:"password"`
	Role     model.Role `json:"role"`
}

func openRepo() (repository.UserRepository, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))

	gormDB, err := db.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := gormDB.AutoMigrate(&model.User{}, &model.Task{}); err != nil {
		return nil, fmt.Errorf("auto-migrate: %w", err)
	}
	return repository.NewUserRepository(gormDB), nil
}

func runAdmin(cmd *cobra.Command, args []string) error {
	repo, err := openRepo()
	if err != nil {
		return err
	}
	created, err := seedAdmin(cmd.Context(), repo, auth.NewPasswordHasher(auth.DefaultBcryptCost), SeedUser{
		Username: adminUsername,
		Name:     adminName,
		Password: adminPassword,
		Role:     model.RoleAdmin,
	})
	if err != nil {
		return err
	}
	if created {
		slog.Info("admin created", slog.String("username", adminUsername))
	} else {
		slog.Info("admin already exists, nothing to do")
	}
	return nil
}

func runUsers(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(usersFile)
	if err != nil {
		return fmt.Errorf("read users file: %w", err)
	}
	var users []SeedUser
	if err := json.Unmarshal(data, &users); err != nil {
		return fmt.Errorf("parse users file: %w", err)
	}

	repo, err := openRepo()
	if err != nil {
		return err
	}
	created, skipped, err := seedUsers(cmd.Context(), repo, auth.NewPasswordHasher(auth.DefaultBcryptCost), users)
	if err != nil {
		return err
	}
	slog.Info("seed completed", slog.Int("created", created), slog.Int("skipped", skipped))
	return nil
}

// seedAdmin creates u when no ADMIN user is stored yet.
func seedAdmin(ctx context.Context, repo repository.UserRepository, hasher *auth.PasswordHasher, u SeedUser) (bool, error) {
	_, err := repo.FindFirstByRole(ctx, model.RoleAdmin)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, fmt.Errorf("look up admin: %w", err)
	}
	created, _, err := seedUsers(ctx, repo, hasher, []SeedUser{u})
	return created == 1, err
}

// seedUsers creates users whose username is not taken yet.
func seedUsers(ctx context.Context, repo repository.UserRepository, hasher *auth.PasswordHasher, users []SeedUser) (created, skipped int, err error) {
	for _, u := range users {
		if u.Username == "" || u.Password == "" || !u.Role.Valid() {
			return created, skipped, fmt.Errorf("invalid seed user %q: username, password and a known role are required", u.Username)
		}

		_, err := repo.FindByUsername(ctx, u.Username)
		if err == nil {
			skipped++
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, skipped, fmt.Errorf("look up %s: %w", u.Username, err)
		}

		hash, err := hasher.Hash(u.Password)
		if err != nil {
			return created, skipped, fmt.Errorf("hash password for %s: %w", u.Username, err)
		}
		name := u.Name
		if name == "" {
			name = u.Username
		}
		if err := repo.Create(ctx, &model.User{
			Username:     u.Username,
			Name:         name,
			PasswordHash: hash,
			Role:         u.Role,
		}); err != nil {
			return created, skipped, fmt.Errorf("create %s: %w", u.Username, err)
		}
		created++
	}
	return created, skipped, nil
}
