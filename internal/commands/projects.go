package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/nhle/novelstudio/internal/model"
)

func addProjects(topLevel *cobra.Command, ro *rootOptions) {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project"},
		Short:   "List and create novels.",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List your novels with their word count progress.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ro.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			projects, err := s.ListProjects(cmd.Context(), ro.userID)
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No projects yet. Create one with: studio projects create <title>")
				return nil
			}

			bold := color.New(color.Bold)
			tbl := uitable.New()
			tbl.Separator = "  "
			tbl.AddRow(bold.Sprint("ID"), bold.Sprint("Title"), bold.Sprint("Status"), bold.Sprint("Words"))
			for _, p := range projects {
				tbl.AddRow(p.ID, p.Title, p.Status, fmt.Sprintf("%d / %d (%.1f%%)", p.CurrentWordCount, p.GoalWordCount, p.Progress()))
			}
			fmt.Fprintln(cmd.OutOrStdout(), tbl)
			return nil
		},
	}

	var goal int
	create := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a novel.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := ro.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			p, err := s.CreateProject(cmd.Context(), ro.userID, model.Project{
				Title:         args[0],
				Status:        model.ProjectStatusPlanning,
				GoalWordCount: goal,
			})
			if err != nil {
				return err
			}
			ro.log.Info("project created", "project_id", p.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "Created %q (%s)\n", p.Title, p.ID)
			return nil
		},
	}
	create.Flags().IntVar(&goal, "goal", 80000, "goal word count")

	cmd.AddCommand(list, create)
	topLevel.AddCommand(cmd)
}
