package commands

import (
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/novelstudio/internal/app"
)

func addUI(topLevel *cobra.Command, ro *rootOptions) *cobra.Command {
	var exportDir string

	cmd := &cobra.Command{
		Use:     "ui",
		Aliases: []string{"tui"},
		Short:   "Open the interactive studio.",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ro.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			if exportDir == "" {
				if exportDir, err = os.Getwd(); err != nil {
					return err
				}
			}

			m := app.New(app.Options{
				Store:      s,
				UserID:     ro.userID,
				Config:     ro.cfg,
				Logger:     ro.log,
				ExportDir:  exportDir,
				ConfigPath: ro.configPath,
			})
			final, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context())).Run()
			if fm, ok := final.(app.Model); ok {
				fm.Shutdown()
			} else {
				m.Shutdown()
			}
			return err
		},
	}
	cmd.Flags().StringVar(&exportDir, "export-dir", "", "directory for exported manuscripts (default: working directory)")

	topLevel.AddCommand(cmd)
	return cmd
}
