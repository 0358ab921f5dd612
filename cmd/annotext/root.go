package main

import (
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/heartmarshall/annotext/internal/app"
	"github.com/heartmarshall/annotext/internal/config"
)

type commandContext struct {
	configFlag    string
	workbooksFlag string
	indexFileFlag string

	appOnce sync.Once
	app     *app.App
	appErr  error
}

func newCommandContext() *commandContext {
	return &commandContext{}
}

// ensureApp loads the configuration once, applies flag overrides and
// initializes logging.
func (c *commandContext) ensureApp() (*app.App, error) {
	c.appOnce.Do(func() {
		cfg, err := config.Load(strings.TrimSpace(c.configFlag))
		if err != nil {
			c.appErr = err
			return
		}
		if dir := strings.TrimSpace(c.workbooksFlag); dir != "" {
			cfg.Sheets.WorkbookDir = dir
		}
		if file := strings.TrimSpace(c.indexFileFlag); file != "" {
			cfg.Migration.IndexFile = file
		}

		logger := app.NewLogger(cfg.Log)
		logger.Debug("annotext starting", slog.String("version", app.BuildVersion()))
		c.app = app.New(cfg, logger)
	})
	return c.app, c.appErr
}

func (c *commandContext) close() {
	if c.app != nil {
		c.app.Close()
	}
}

func newRootCommand(ctx *commandContext) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "annotext",
		Short:         "Migrate annotated manuscript spreadsheets",
		Version:       app.BuildVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if shouldSkipConfig(cmd) {
				return nil
			}
			_, err := ctx.ensureApp()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVar(&ctx.workbooksFlag, "workbooks", "", "Read sheets from .xlsx workbooks in this directory")
	rootCmd.PersistentFlags().StringVar(&ctx.indexFileFlag, "index-file", "", "Read the migration index from this YAML manifest")

	rootCmd.AddCommand(newValidateCommand(ctx))
	rootCmd.AddCommand(newMigrateCommand(ctx))
	rootCmd.AddCommand(newStatusCommand(ctx))
	rootCmd.AddCommand(newDBMigrateCommand(ctx))
	rootCmd.AddCommand(newConvertCommand())

	return rootCmd
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
