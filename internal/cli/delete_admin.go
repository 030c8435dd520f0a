package cli

import (
	"flag"
	"fmt"
	"os"

	"github.com/mrlokans/librarium/internal/auth"
	"github.com/mrlokans/librarium/internal/config"
	"github.com/mrlokans/librarium/internal/database"
)

// DeleteAdminCommand demotes a librarian back to a regular reader.
type DeleteAdminCommand struct {
	Username     string
	DatabasePath string
}

func NewDeleteAdminCommand() *DeleteAdminCommand {
	return &DeleteAdminCommand{}
}

func (cmd *DeleteAdminCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("delete-admin", flag.ExitOnError)

	fs.StringVar(&cmd.Username, "username", "", "Username of the librarian to demote (required)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the application database file")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s delete-admin -username <name> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Demote a librarian to a regular reader. The account itself is kept.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Username == "" {
		return fmt.Errorf("required flag -username not provided")
	}

	return nil
}

func (cmd *DeleteAdminCommand) Run() error {
	db, err := database.NewDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	cfg := config.NewConfig()
	service := auth.NewService(db.DB, cfg.Auth)

	user, err := service.DemoteAdmin(cmd.Username)
	if err != nil {
		return fmt.Errorf("failed to demote user: %w", err)
	}

	fmt.Printf("User %q is no longer a librarian\n", user.Username)
	return nil
}
