package main

import (
	"os"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/snipbackup/internal"
	"github.com/rios0rios0/snipbackup/internal/infrastructure/controllers"
)

func buildRootCommand(backupController *controllers.BackupController) *cobra.Command {
	//nolint:exhaustruct // Minimal Command initialization with required fields only
	cmd := &cobra.Command{
		Use:   "snipbackup",
		Short: "Chronological Git backup of Bitbucket snippets",
		Long: `Back up every Bitbucket snippet of a workspace into one local Git
repository whose history is a single chronological stream of commits,
one per snippet revision, with the original author and date.

Usage modes:
  snipbackup --auth-user me               Back up the current state of every snippet
  snipbackup --auth-user me --historical  Replay the full revision history
  snipbackup backup --config cfg.yaml     Same as the root command, config file driven`,
		Args: cobra.NoArgs,
		Run: func(command *cobra.Command, args []string) {
			backupController.Execute(command, args)
		},
	}

	// Global persistent flags
	cmd.PersistentFlags().StringP("config", "c", "",
		"Path to config file (default: auto-detect)")
	cmd.PersistentFlags().BoolP("verbose", "v", false,
		"Enable verbose output")

	backupController.AddFlags(cmd)
	return cmd
}

func addSubcommands(rootCmd *cobra.Command, appContext *internal.AppInternal) {
	for _, controller := range appContext.GetControllers() {
		bind := controller.GetBind()
		ctrl := controller // capture for closure
		//nolint:exhaustruct // Minimal Command initialization with required fields only
		subCmd := &cobra.Command{
			Use:   bind.Use,
			Short: bind.Short,
			Long:  bind.Long,
			Run: func(command *cobra.Command, arguments []string) {
				ctrl.Execute(command, arguments)
			},
		}

		// Add controller-specific flags
		if bc, ok := ctrl.(*controllers.BackupController); ok {
			bc.AddFlags(subCmd)
		}

		rootCmd.AddCommand(subCmd)
	}
}

func main() {
	//nolint:exhaustruct // Minimal TextFormatter initialization with required fields only
	logger.SetFormatter(&logger.TextFormatter{
		ForceColors:   true,
		FullTimestamp: true,
	})
	if os.Getenv("DEBUG") == "true" {
		logger.SetLevel(logger.DebugLevel)
	}

	// Inject controllers via DIG
	backupController := injectBackupController()
	cobraRoot := buildRootCommand(backupController)

	// Add all subcommands
	appContext := injectAppContext()
	addSubcommands(cobraRoot, appContext)

	if err := cobraRoot.Execute(); err != nil {
		logger.Fatalf("Error executing 'snipbackup': %s", err)
	}
}
