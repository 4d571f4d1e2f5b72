package controllers

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rios0rios0/snipbackup/internal/domain/commands"
	"github.com/rios0rios0/snipbackup/internal/domain/entities"
)

const (
	userEnvVar     = "BITBUCKET_USERNAME"
	passwordEnvVar = "BITBUCKET_APP_PASSWORD"
)

// PasswordPrompter asks the user for the app password.
type PasswordPrompter func() (string, error)

// BackupController handles the "backup" subcommand and the bare root command.
type BackupController struct {
	command commands.Backup
	prompt  PasswordPrompter
}

// NewBackupController creates a new BackupController.
func NewBackupController(command commands.Backup) *BackupController {
	return &BackupController{command: command, prompt: terminalPrompt}
}

// GetBind returns the Cobra command metadata for the backup controller.
func (it *BackupController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "backup",
		Short: "Back up snippets into a chronological Git history",
		Long: `Discover the snippets of a workspace, fetch their revisions and replay
them into a local Git repository, one commit per revision, ordered by date
across all snippets and carrying the original author and timestamp.

Without --historical only the current state of each snippet is committed.
Credentials can come from flags, the config file, the BITBUCKET_USERNAME and
BITBUCKET_APP_PASSWORD environment variables or an interactive prompt.`,
	}
}

// Execute runs a backup with the settings built from the config file and flags.
func (it *BackupController) Execute(cmd *cobra.Command, _ []string) {
	ctx := context.Background()

	verbose, _ := cmd.Flags().GetBool("verbose")
	noArchive, _ := cmd.Flags().GetBool("no-archive")

	settings, err := it.BuildSettings(cmd)
	if err != nil {
		logger.Errorf("Invalid configuration: %v", err)
		return
	}

	summary, err := it.command.Execute(ctx, settings, commands.BackupOptions{
		Verbose:     verbose,
		SkipArchive: noArchive,
	})
	if err != nil {
		logger.Errorf("Backup failed: %v", err)
		return
	}
	if summary.Failures() > 0 {
		logger.Warnf("Backup finished with %d degraded items, see the log above", summary.Failures())
	}
}

// BuildSettings loads the optional config file, applies the flags that were
// set explicitly, fills the defaults and validates the result.
func (it *BackupController) BuildSettings(cmd *cobra.Command) (*entities.Settings, error) {
	settings, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}

	applyFlags(cmd, settings)

	if settings.Auth.User == "" {
		settings.Auth.User = os.Getenv(userEnvVar)
	}
	if settings.Auth.Password == "" {
		settings.Auth.Password = os.Getenv(passwordEnvVar)
	}
	if settings.Auth.Password == "" && it.prompt != nil {
		password, promptErr := it.prompt()
		if promptErr != nil {
			logger.Debugf("No password prompt: %v", promptErr)
		}
		settings.Auth.Password = password
	}

	settings.ApplyDefaults()
	if err = settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// AddFlags adds the backup flags to the given Cobra command.
func (it *BackupController) AddFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.String("auth-user", "", "Username for the snippet host")
	flags.String("auth-pass", "", "App password (inline, ${ENV_VAR} or file path)")
	flags.String("workspace", "", "Workspace slug to back up (default: the auth user)")
	flags.String("output-dir", entities.DefaultOutputDir, "Local Git repository receiving the backup")
	flags.String("api-base-url", entities.DefaultAPIBaseURL, "API base URL")
	flags.String("role", "", "Only list snippets with this role (owner, contributor, member)")
	flags.Bool("historical", false, "Replay every revision instead of only the current state")
	flags.StringSlice("snippet-ids", nil, "Comma-separated snippet ids to back up instead of the listing")
	flags.String("committer-name", entities.DefaultCommitterName, "Committer name and fallback author name")
	flags.String("committer-email", entities.DefaultCommitterEmail, "Committer email and fallback author email")
	flags.String("vcs", entities.VCSBackendGit, "Version control backend (git, go-git)")
	flags.String("ledger", entities.LedgerSQLite, "Run ledger type (sqlite, memory, none)")
	flags.String("archive-bucket", "", "Upload a tar.gz of the backup to this S3 bucket")
	flags.Bool("no-archive", false, "Skip the archive upload even when a bucket is configured")
}

func loadSettings(cmd *cobra.Command) (*entities.Settings, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		found, err := entities.FindConfigFile()
		if err != nil {
			logger.Debugf("No config file found, using flags only: %v", err)
			return &entities.Settings{}, nil
		}
		configPath = found
	}

	logger.Infof("Using config file: %s", configPath)
	settings, err := entities.NewSettings(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return settings, nil
}

// applyFlags copies every explicitly set flag over the file settings.
func applyFlags(cmd *cobra.Command, settings *entities.Settings) {
	flags := cmd.Flags()
	stringFlags := map[string]*string{
		"auth-user":       &settings.Auth.User,
		"workspace":       &settings.Workspace,
		"output-dir":      &settings.OutputDir,
		"api-base-url":    &settings.APIBaseURL,
		"role":            &settings.Role,
		"committer-name":  &settings.Committer.Name,
		"committer-email": &settings.Committer.Email,
		"vcs":             &settings.VCS.Backend,
		"ledger":          &settings.Ledger.Type,
		"archive-bucket":  &settings.Archive.S3Bucket,
	}
	for name, target := range stringFlags {
		if flags.Lookup(name) == nil || !flags.Changed(name) {
			continue
		}
		value, _ := flags.GetString(name)
		*target = value
	}

	if flags.Lookup("auth-pass") != nil && flags.Changed("auth-pass") {
		value, _ := flags.GetString("auth-pass")
		settings.Auth.Password = entities.ResolveSecret(value)
	}
	if flags.Lookup("historical") != nil && flags.Changed("historical") {
		settings.Historical, _ = flags.GetBool("historical")
	}
	if flags.Lookup("snippet-ids") != nil && flags.Changed("snippet-ids") {
		ids, _ := flags.GetStringSlice("snippet-ids")
		settings.SnippetIDs = trimAll(ids)
	}
}

func trimAll(values []string) []string {
	trimmed := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			trimmed = append(trimmed, v)
		}
	}
	return trimmed
}

// terminalPrompt reads the password without echo when stdin is a terminal.
func terminalPrompt() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("stdin is not a terminal")
	}

	fmt.Fprint(os.Stderr, "App password: ")
	password, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimSpace(string(password)), nil
}
