// Command bookshelf-admin runs operator tasks against the Bookshelf database.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/bookshelf/bookshelf/internal/auth"
	"github.com/bookshelf/bookshelf/internal/model"
	"github.com/bookshelf/bookshelf/internal/repository"
)

const usage = `usage: bookshelf-admin <command> [flags]

commands:
  migrate          apply pending schema migrations
  rollback         revert the most recent migration
  version          print the applied schema version
  create-account   create an account with a password
  verify-password  check a password against a stored credential
`

// accountCreator is the storage needed by create-account.
type accountCreator interface {
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	CreateAccount(ctx context.Context, account *model.Account) error
}

type accountOutput struct {
	ID        int64  `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	var err error
	switch args[0] {
	case "migrate", "rollback", "version":
		err = runMigration(ctx, args[0], args[1:], stdout)
	case "create-account":
		err = runCreateAccount(ctx, args[1:], stdout, connectRepository)
	case "verify-password":
		err = runVerifyPassword(args[1:], os.Stdin, stdout)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err.Error())
		return 1
	}
	return 0
}

func databaseFlag(fs *flag.FlagSet) *string {
	return fs.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
}

func runMigration(ctx context.Context, command string, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	databaseURL := databaseFlag(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *databaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	switch command {
	case "migrate":
		if err := repository.Migrate(ctx, *databaseURL); err != nil {
			return err
		}
	case "rollback":
		if err := repository.Rollback(ctx, *databaseURL); err != nil {
			return err
		}
	}

	version, err := repository.MigrationVersion(ctx, *databaseURL)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "schema version %d\n", version)
	return nil
}

func connectRepository(ctx context.Context, databaseURL string) (accountCreator, func(), error) {
	repo, err := repository.New(ctx, databaseURL, repository.PoolOptions{MaxConns: 2, MinConns: -1})
	if err != nil {
		return nil, nil, fmt.Errorf("connect database: %w", err)
	}
	return repo, repo.Close, nil
}

type connectFunc func(ctx context.Context, databaseURL string) (accountCreator, func(), error)

func runCreateAccount(ctx context.Context, args []string, stdout io.Writer, connect connectFunc) error {
	fs := flag.NewFlagSet("create-account", flag.ContinueOnError)
	databaseURL := databaseFlag(fs)
	email := fs.String("email", "", "Account email")
	firstName := fs.String("first-name", "", "First name")
	lastName := fs.String("last-name", "", "Last name")
	password := fs.String("password", os.Getenv("BOOKSHELF_PASSWORD"), "Password (defaults to $BOOKSHELF_PASSWORD)")
	format := fs.String("format", "plain", "Output format: plain or json")
	if err := fs.Parse(args); err != nil {
		return err
	}

	account := &model.Account{
		FirstName: strings.TrimSpace(*firstName),
		LastName:  strings.TrimSpace(*lastName),
		Email:     model.NormalizeEmail(*email),
	}
	if account.Email == "" || account.FirstName == "" || account.LastName == "" {
		return errors.New("-email, -first-name and -last-name are required")
	}
	if err := auth.ValidatePassword(*password); err != nil {
		return err
	}
	if *databaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if *format != "plain" && *format != "json" {
		return errors.New("invalid format; use plain or json")
	}

	store, closeStore, err := connect(ctx, *databaseURL)
	if err != nil {
		return err
	}
	defer closeStore()

	exists, err := store.ExistsByEmail(ctx, account.Email)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if exists {
		return fmt.Errorf("email %s is already registered", account.Email)
	}

	account.PasswordHash, err = auth.HashPassword(*password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := store.CreateAccount(ctx, account); err != nil {
		return fmt.Errorf("create account: %w", err)
	}

	if *format == "json" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(accountOutput{
			ID:        account.ID,
			Email:     account.Email,
			FirstName: account.FirstName,
			LastName:  account.LastName,
		})
	}
	fmt.Fprintln(stdout, account.ID)
	return nil
}

// runVerifyPassword reads the password from stdin so it stays out of the
// process list.
func runVerifyPassword(args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("verify-password", flag.ContinueOnError)
	credential := fs.String("credential", "", "Stored credential (base64 salt and key)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *credential == "" {
		return errors.New("-credential is required")
	}

	raw, err := io.ReadAll(io.LimitReader(stdin, 4096))
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(string(raw), "\r\n")

	if !auth.VerifyPassword(password, *credential) {
		return errors.New("password does not match")
	}
	fmt.Fprintln(stdout, "ok")
	return nil
}
