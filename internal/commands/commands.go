// Package commands wires the studio command line.
package commands

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/novelstudio/internal/docstore"
	"github.com/nhle/novelstudio/internal/logging"
	"github.com/nhle/novelstudio/internal/model"
	"github.com/nhle/novelstudio/internal/store"
)

// rootOptions is shared by every subcommand.
type rootOptions struct {
	configPath string
	userID     string

	cfg *model.AppConfig
	log *logging.Logger
}

// New builds the root command.
func New() *cobra.Command {
	ro := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "studio",
		Short:         "A terminal studio for planning and drafting novels.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return ro.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if ro.log != nil {
				ro.log.Sync()
			}
		},
	}
	cmd.PersistentFlags().StringVar(&ro.configPath, "config", model.DefaultConfigPath(), "path to the config file")
	cmd.PersistentFlags().StringVar(&ro.userID, "user", "", "author id (defaults to user.id from the config)")

	ui := AddCommands(cmd, ro)
	cmd.RunE = ui.RunE
	return cmd
}

// AddCommands registers the subcommands on topLevel and returns the ui
// command, which also runs when no subcommand is given.
func AddCommands(topLevel *cobra.Command, ro *rootOptions) *cobra.Command {
	ui := addUI(topLevel, ro)
	addServe(topLevel, ro)
	addProjects(topLevel, ro)
	addChapters(topLevel, ro)
	addExport(topLevel, ro)
	addShare(topLevel, ro)
	addAccount(topLevel, ro)
	return ui
}

func (o *rootOptions) load() error {
	cfg, err := model.LoadConfig(o.configPath)
	if err != nil {
		return err
	}
	o.cfg = cfg
	if o.userID == "" {
		o.userID = cfg.User.ID
	}

	log, err := logging.New(logging.Options{Mode: cfg.Log.Mode, Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		return err
	}
	o.log = log.With("user_id", o.userID)
	return nil
}

func (o *rootOptions) openStore(ctx context.Context) (store.Store, error) {
	ds, err := docstore.Open(ctx, o.cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", o.cfg.Store.Driver, err)
	}
	return store.New(ds), nil
}

// findProject resolves ref as a project id or a case-insensitive title. An
// empty ref picks the only project when there is exactly one.
func findProject(ctx context.Context, s store.Store, userID, ref string) (model.Project, error) {
	projects, err := s.ListProjects(ctx, userID)
	if err != nil {
		return model.Project{}, err
	}
	if ref == "" {
		if len(projects) == 1 {
			return projects[0], nil
		}
		return model.Project{}, fmt.Errorf("%d projects found, pick one with --project", len(projects))
	}
	for _, p := range projects {
		if p.ID == ref || strings.EqualFold(p.Title, ref) {
			return p, nil
		}
	}
	return model.Project{}, fmt.Errorf("no project matches %q", ref)
}

// findChapter resolves ref as a chapter id, a 1-based chapter number or a
// case-insensitive title.
func findChapter(chapters []model.Chapter, ref string) (model.Chapter, error) {
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(chapters) {
		return chapters[n-1], nil
	}
	for _, ch := range chapters {
		if ch.ID == ref || strings.EqualFold(ch.Title, ref) {
			return ch, nil
		}
	}
	return model.Chapter{}, fmt.Errorf("no chapter matches %q", ref)
}
