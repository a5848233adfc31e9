package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"structa/internal/app"
	"structa/internal/blank"
	"structa/internal/config"
	"structa/internal/domain"
	appErrors "structa/internal/errors"
	"structa/internal/infra/archive"
	fsinfra "structa/internal/infra/fs"
	"structa/internal/logging"
	"structa/internal/manifest"
	"structa/internal/presentation"
	"structa/internal/settings"
	"structa/internal/tui"
)

func newRootCmd() *cobra.Command {
	cfg := &config.Config{}

	root := &cobra.Command{
		Use:   "structa",
		Short: "Create folder structures from a manifest",
		Long: heredoc.Doc(`
			Structa creates folders and files, copies and moves templates, and
			renames path segments with replacement rules, all described by a
			structure manifest.

			Settings are read from settings.toml in the config directory
			(override with STRUCTA_CONFIG_DIR), then from .env and STRUCTA_*
			environment variables, then from flags.
		`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	config.BindGlobal(root.PersistentFlags(), cfg)

	root.AddCommand(newPlanCmd(cfg), newApplyCmd(cfg), newCacheCmd(cfg), newSettingsCmd())
	return root
}

func newPlanCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show what a manifest would do without touching the disk",
		Example: heredoc.Doc(`
			structa plan -f structure.yaml
			structa plan -f structure.yaml --verbose
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := prepare(cmd, cfg)
			if err != nil {
				return err
			}
			req, err := loadManifest(cfg)
			if err != nil {
				return err
			}

			engine := app.NewEngine(fsinfra.OSFS{}, nil, cfg.Settings, logger)
			summary := engine.StructureCreationPlan(cmd.Context(), req)
			printer(cfg).PrintPlan(req, summary)
			return nil
		},
	}
	config.BindManifest(cmd.Flags(), cfg)
	return cmd
}

func newApplyCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Create the structure described by a manifest",
		Long: heredoc.Doc(`
			Apply runs every operation of the manifest in order. A failing
			operation is reported and the run continues; nothing is rolled back.
			The command exits non-zero when any operation failed.
		`),
		Example: heredoc.Doc(`
			structa apply -f structure.yaml
			structa apply -f structure.yaml --yes --no-functional-blanks
			structa apply -f structure.yaml --tui
		`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := prepare(cmd, cfg)
			if err != nil {
				return err
			}
			req, err := loadManifest(cfg)
			if err != nil {
				return err
			}

			var blanks app.BlankProvider
			if cfg.Settings.CreateFunctionalBlankFiles() {
				resolver, err := newResolver(cfg.Settings, logger)
				if err != nil {
					return appErrors.Wrap(appErrors.Internal, "blank resolver", cfg.Settings.CacheDir, err)
				}
				blanks = resolver
			}
			engine := app.NewEngine(fsinfra.OSFS{}, blanks, cfg.Settings, logger)

			if cfg.TUI {
				return applyInteractive(cmd.Context(), cfg, engine, req)
			}
			return applyPlain(cmd.Context(), cfg, engine, req)
		},
	}
	config.BindManifest(cmd.Flags(), cfg)
	config.BindApply(cmd.Flags(), cfg)
	return cmd
}

func newCacheCmd(cfg *config.Config) *cobra.Command {
	cache := &cobra.Command{
		Use:   "cache",
		Short: "Manage downloaded blank-file templates",
	}
	cache.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Remove cached templates and forget the remote catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := prepare(cmd, cfg)
			if err != nil {
				return err
			}
			resolver, err := newResolver(cfg.Settings, logger)
			if err != nil {
				return appErrors.Wrap(appErrors.Internal, "blank resolver", cfg.Settings.CacheDir, err)
			}
			if err := resolver.Clear(); err != nil {
				return appErrors.Wrap(appErrors.IOFailure, "cache clear", cfg.Settings.CacheDir, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared blank-file cache in %s\n", cfg.Settings.CacheDir)
			return nil
		},
	})
	return cache
}

func newSettingsCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or initialize the settings file",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the settings file location",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), settings.DefaultStore().Path)
		},
	})
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a settings file with the default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store := settings.DefaultStore()
			if _, err := os.Stat(store.Path); err == nil && !force {
				return appErrors.New(appErrors.InvalidConfig, "settings init", store.Path, "settings file exists, use --force to overwrite")
			}
			if err := store.Save(settings.Defaults()); err != nil {
				return appErrors.Wrap(appErrors.IOFailure, "settings init", store.Path, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", store.Path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing settings file")
	cmd.AddCommand(initCmd)
	return cmd
}

func applyPlain(ctx context.Context, cfg *config.Config, engine *app.Engine, req domain.Request) error {
	out := printer(cfg)
	summary := engine.StructureCreationPlan(ctx, req)
	out.PrintPlan(req, summary)
	fmt.Fprintln(os.Stdout)

	if summary.ExistingTargetCount > 0 && !cfg.Yes {
		confirmed, err := confirmOverwrite(summary.ExistingTargetCount)
		if err != nil {
			return appErrors.Wrap(appErrors.Internal, "prompt", "", err)
		}
		if !confirmed {
			fmt.Fprintln(os.Stdout, "Cancelled, nothing was changed.")
			return nil
		}
	}

	result, err := engine.CreateFoldersDetailed(ctx, req)
	if err != nil {
		return err
	}
	out.PrintResult(result)
	return failureError(result)
}

func applyInteractive(ctx context.Context, cfg *config.Config, engine *app.Engine, req domain.Request) error {
	model, err := tui.Run(tui.Config{
		BaseDir:      req.BaseDir,
		ManifestPath: cfg.ManifestPath,
		Verbose:      cfg.Verbose,
		AssumeYes:    cfg.Yes,
		Plan: func() domain.Summary {
			return engine.StructureCreationPlan(ctx, req)
		},
		Execute: func(progress func(int, int, domain.Operation)) (domain.ExecutionResult, error) {
			engine.Executor.OnProgress = progress
			return engine.CreateFoldersDetailed(ctx, req)
		},
	})
	if err != nil {
		return appErrors.Wrap(appErrors.Internal, "tui", "", err)
	}
	if model.Err != nil {
		return model.Err
	}
	if model.Cancelled || model.Quitting {
		return nil
	}
	return failureError(model.Result)
}

func failureError(result domain.ExecutionResult) error {
	if result.FailureCount == 0 {
		return nil
	}
	return appErrors.Wrap(appErrors.PartialFailure, "", "", app.FailureCountError(result.FailureCount))
}

func prepare(cmd *cobra.Command, cfg *config.Config) (logging.Logger, error) {
	if err := config.LoadEnv(); err != nil {
		return logging.Logger{}, appErrors.Wrap(appErrors.InvalidConfig, "env", ".env", err)
	}
	st, err := settings.DefaultStore().Load()
	if err != nil {
		return logging.Logger{}, appErrors.Wrap(appErrors.InvalidConfig, "settings", settings.DefaultStore().Path, err)
	}
	if err := config.Resolve(cmd.Flags(), cfg, st); err != nil {
		return logging.Logger{}, appErrors.Wrap(appErrors.InvalidConfig, "config", "", err)
	}
	return logging.New(os.Stderr, cfg.Verbose), nil
}

func loadManifest(cfg *config.Config) (domain.Request, error) {
	if err := cfg.RequireManifest(); err != nil {
		return domain.Request{}, appErrors.Wrap(appErrors.InvalidConfig, "config", "", err)
	}
	if _, err := os.Stat(cfg.ManifestPath); err != nil {
		return domain.Request{}, appErrors.Wrap(appErrors.NotFound, "stat", cfg.ManifestPath, err)
	}
	req, err := manifest.Load(cfg.ManifestPath)
	if err != nil {
		return domain.Request{}, appErrors.Wrap(appErrors.InvalidConfig, "manifest", cfg.ManifestPath, err)
	}
	return req, nil
}

func newResolver(st settings.Settings, logger logging.Logger) (*blank.Resolver, error) {
	client := blank.NewClient(&http.Client{Timeout: st.HTTPTimeout.Std()}).
		WithCatalogURL(st.CatalogURL).
		WithBaseURL(st.CatalogBaseURL)
	return blank.NewResolver(fsinfra.OSFS{}, client, archive.ZipExtractor{}, st.CacheDir, st.CatalogTTL.Std(), logger)
}

func printer(cfg *config.Config) presentation.Printer {
	return presentation.Printer{Writer: os.Stdout, Verbose: cfg.Verbose}
}
