// Command feedctl runs operator tasks against the configured backend.
//
//	feedctl setup-storage
//	feedctl promote -email ana@alumno.etec.um.edu.ar -role moderator
//	feedctl create-admin -email root@alumno.etec.um.edu.ar -username root
//
// It reads the same environment as the server.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"golang.org/x/term"

	"github.com/forgo/campusfeed/internal/config"
	"github.com/forgo/campusfeed/internal/model"
	"github.com/forgo/campusfeed/internal/repository"
	"github.com/forgo/campusfeed/internal/service"
	"github.com/forgo/campusfeed/internal/storage"
)

const usage = `usage: feedctl <command> [flags]

commands:
  setup-storage   create the upload bucket and make it publicly readable
  promote         change the role of an existing account
  create-admin    register an account and grant it the admin role
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fail("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	args := os.Args[2:]
	switch os.Args[1] {
	case "setup-storage":
		err = setupStorage(ctx, cfg, args)
	case "promote":
		err = promote(ctx, cfg, args)
	case "create-admin":
		err = createAdmin(ctx, cfg, args)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		fail("%s: %v", os.Args[1], err)
	}
}

func fail(format string, a ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", a...)
	os.Exit(1)
}

func setupStorage(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("setup-storage", flag.ExitOnError)
	bucket := fs.String("bucket", cfg.Storage.Bucket, "Bucket to create")
	_ = fs.Parse(args)

	if cfg.Storage.Driver != config.StorageS3 {
		fmt.Printf("Storage driver is %q, nothing to set up\n", cfg.Storage.Driver)
		return nil
	}

	store, err := storage.NewS3Store(ctx, storage.S3Config{
		Endpoint:  cfg.Storage.Endpoint,
		Region:    cfg.Storage.Region,
		Bucket:    *bucket,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		PublicURL: cfg.Storage.PublicURL,
	})
	if err != nil {
		return err
	}

	created, err := store.EnsureBucket(ctx)
	if err != nil {
		return err
	}
	if created {
		fmt.Printf("Created bucket %s\n", *bucket)
	} else {
		fmt.Printf("Bucket %s already exists\n", *bucket)
	}
	return nil
}

func promote(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("promote", flag.ExitOnError)
	email := fs.String("email", "", "Email of the account to promote")
	role := fs.String("role", string(model.RoleModerator), "Role to grant (user, moderator, admin)")
	_ = fs.Parse(args)

	if *email == "" {
		return errors.New("-email is required")
	}
	target := model.Role(*role)
	if !target.Valid() {
		return fmt.Errorf("unknown role %q", *role)
	}

	backend, err := repository.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = backend.Close() }()

	acc, err := backend.Accounts.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(*email)))
	if err != nil {
		return fmt.Errorf("find %s: %w", *email, err)
	}
	if err := backend.Accounts.SetRole(ctx, acc.ID, target); err != nil {
		return err
	}

	fmt.Printf("%s (%s) is now %s\n", acc.Username, acc.ID, target)
	return nil
}

func createAdmin(ctx context.Context, cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ExitOnError)
	email := fs.String("email", "", "Institutional email for the admin account")
	username := fs.String("username", "", "Display name")
	_ = fs.Parse(args)

	if *email == "" || *username == "" {
		return errors.New("-email and -username are required")
	}

	password, err := readPassword(os.Stdin)
	if err != nil {
		return err
	}

	backend, err := repository.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = backend.Close() }()

	auth, err := service.NewAuthService(service.AuthServiceConfig{
		Accounts:    backend.Accounts,
		EmailDomain: cfg.Account.EmailDomain,
		BcryptCost:  cfg.Account.BcryptCost,
	})
	if err != nil {
		return err
	}

	acc, err := auth.Register(ctx, service.RegisterRequest{
		Email:    *email,
		Username: *username,
		Password: password,
	})
	if err != nil {
		return err
	}
	if err := backend.Accounts.SetRole(ctx, acc.ID, model.RoleAdmin); err != nil {
		return err
	}

	fmt.Println("Admin Account Created")
	fmt.Println("=====================")
	fmt.Printf("ID:       %s\n", acc.ID)
	fmt.Printf("Email:    %s\n", acc.Email)
	fmt.Printf("Username: %s\n", acc.Username)
	return nil
}

// readPassword prompts without echo on a terminal and reads one line
// otherwise, so the command can be scripted.
func readPassword(in *os.File) (string, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return readLine(in)
	}

	fmt.Fprint(os.Stderr, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	fmt.Fprint(os.Stderr, "Repeat password: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", err
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("empty password on stdin")
	}
	return line, nil
}
