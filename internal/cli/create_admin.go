// Package cli implements the maintenance subcommands of the librarium
// binary.
package cli

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/mrlokans/librarium/internal/auth"
	"github.com/mrlokans/librarium/internal/config"
	"github.com/mrlokans/librarium/internal/database"
)

// CreateAdminCommand bootstraps or promotes a librarian account.
type CreateAdminCommand struct {
	Username     string
	Email        string
	DatabasePath string
	Promote      bool
}

func NewCreateAdminCommand() *CreateAdminCommand {
	return &CreateAdminCommand{}
}

func (cmd *CreateAdminCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ExitOnError)

	fs.StringVar(&cmd.Username, "username", "", "Username for the librarian account (required)")
	fs.StringVar(&cmd.Email, "email", "", "Email for the librarian account (required unless -promote)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the application database file")
	fs.BoolVar(&cmd.Promote, "promote", false, "Promote an existing user instead of creating a new one")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s create-admin -username <name> -email <email> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Create a librarian account, prompting for the password on stdin.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  # Bootstrap the first librarian:\n")
		fmt.Fprintf(os.Stderr, "  %s create-admin -username head_librarian -email admin@example.org\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  # Promote an existing reader:\n")
		fmt.Fprintf(os.Stderr, "  %s create-admin -username existing_user -promote\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Username == "" {
		return fmt.Errorf("required flag -username not provided")
	}
	if !cmd.Promote && cmd.Email == "" {
		return fmt.Errorf("required flag -email not provided")
	}

	return nil
}

func (cmd *CreateAdminCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	cfg := config.NewConfig()
	service := auth.NewService(db.DB, cfg.Auth)

	if cmd.Promote {
		user, err := service.PromoteToAdmin(cmd.Username)
		if err != nil {
			return fmt.Errorf("failed to promote user: %w", err)
		}
		fmt.Printf("User %q is now a librarian\n", user.Username)
		return nil
	}

	password, err := promptPassword()
	if err != nil {
		return err
	}

	user, err := service.CreateAdmin(cmd.Username, cmd.Email, password)
	if err != nil {
		return fmt.Errorf("failed to create librarian account: %w", err)
	}

	fmt.Printf("Created librarian account %q (%s)\n", user.Username, user.Email)
	return nil
}

// promptPassword reads the password twice without echoing it. Falls back
// to plain stdin reads when not attached to a terminal, for scripting.
func promptPassword() (string, error) {
	readOnce := func(prompt string) (string, error) {
		fmt.Print(prompt)
		fd := int(os.Stdin.Fd())
		if term.IsTerminal(fd) {
			defer fmt.Println()
			raw, err := term.ReadPassword(fd)
			if err != nil {
				return "", fmt.Errorf("failed to read password: %w", err)
			}
			return string(raw), nil
		}

		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	password, err := readOnce("Password: ")
	if err != nil {
		return "", err
	}
	confirm, err := readOnce("Confirm password: ")
	if err != nil {
		return "", err
	}
	if password != confirm {
		return "", fmt.Errorf("passwords do not match")
	}
	return password, nil
}
