package commands

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"animeHub/auth"
	"animeHub/config"
	"animeHub/crud"
	"animeHub/database"
	"animeHub/domain"
)

var (
	// Global flags
	configFile string
	verbose    bool
)

// operator is the requester of deletions issued from the command line.
// It holds admin rights without being a stored user.
var operator = &domain.User{Username: "forumctl", IsAdmin: true}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "forumctl",
	Short: "Administer the forum's users and database",
	Long: `forumctl administers the forum directly against its database.

It reads the same config.yml and ANIMEHUB_* environment variables as the server.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		} else {
			logrus.SetLevel(logrus.WarnLevel)
		}
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path of the config file (default: search config.yml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
}

// env is what a command works with: the open database and the services on top of it.
type env struct {
	cfg      config.Config
	db       *database.DB
	services *crud.Services
}

func (e *env) close() {
	if err := database.Close(e.db); err != nil {
		logrus.WithError(err).Warn("[forumctl] close database")
	}
}

// connect loads the config and opens the database, without migrating it.
func connect() (*env, error) {
	var cfg config.Config
	var err error
	if configFile != "" {
		cfg, err = config.LoadFile(configFile)
	} else {
		cfg, err = config.LoadConfig(false)
	}
	if err != nil {
		return nil, err
	}
	db := database.NewDB(cfg.Database.ConnectionInfo())
	// The command line never logs sql, whatever the environment.
	if err := database.Open(db, true); err != nil {
		return nil, err
	}
	services, err := newServices(db.Gorm, cfg)
	if err != nil {
		database.Close(db)
		return nil, errors.WithMessage(err, "start services")
	}
	return &env{cfg: cfg, db: db, services: services}, nil
}

func newServices(db *gorm.DB, cfg config.Config) (*crud.Services, error) {
	creds := auth.NewCredentials(cfg.Pepper, cfg.JWT.Secret, cfg.JWT.TTL)
	return crud.NewServices(db,
		crud.WithUser(creds),
		crud.WithAdmin(),
	)
}
