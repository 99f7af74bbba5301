package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/nhle/novelstudio/internal/chapter"
	"github.com/nhle/novelstudio/internal/manuscript"
	"github.com/nhle/novelstudio/internal/store"
)

func addChapters(topLevel *cobra.Command, ro *rootOptions) {
	var projectRef string

	cmd := &cobra.Command{
		Use:     "chapters",
		Aliases: []string{"chapter"},
		Short:   "List and add chapters of a novel.",
	}
	cmd.PersistentFlags().StringVar(&projectRef, "project", "", "project id or title")

	list := &cobra.Command{
		Use:   "list",
		Short: "List chapters in reading order.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := ro.openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			p, err := findProject(ctx, s, ro.userID, projectRef)
			if err != nil {
				return err
			}
			key := store.ProjectKey{UserID: ro.userID, ProjectID: p.ID}
			chapters, err := s.ListChapters(ctx, key)
			if err != nil {
				return err
			}

			bold := color.New(color.Bold)
			tbl := uitable.New()
			tbl.Separator = "  "
			tbl.AddRow(bold.Sprint("#"), bold.Sprint("Title"), bold.Sprint("Status"), bold.Sprint("Scenes"), bold.Sprint("Words"))
			for i, ch := range chapters {
				scenes, err := s.ListScenes(ctx, store.ChapterKey{ProjectKey: key, ChapterID: ch.ID})
				if err != nil {
					return err
				}
				words := manuscript.ChapterWords(scenes)
				target := ""
				if ch.TargetWordCount > 0 {
					target = fmt.Sprintf(" / %d", ch.TargetWordCount)
				}
				tbl.AddRow(i+1, ch.Title, ch.Status, len(scenes), fmt.Sprintf("%d%s", words, target))
			}
			fmt.Fprintln(cmd.OutOrStdout(), tbl)
			return nil
		},
	}

	add := &cobra.Command{
		Use:   "add [title]",
		Short: "Append a chapter; the title defaults to the next chapter number.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := ro.openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			p, err := findProject(ctx, s, ro.userID, projectRef)
			if err != nil {
				return err
			}
			ws := chapter.New(s, store.ProjectKey{UserID: ro.userID, ProjectID: p.ID}, chapter.WithLogger(ro.log))
			if err := ws.LoadChapters(ctx); err != nil {
				return err
			}
			title := ws.DefaultChapterTitle()
			if len(args) == 1 {
				title = args[0]
			}
			ch, err := ws.CreateChapter(ctx, title)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %q (%s)\n", ch.Title, ch.ID)
			return nil
		},
	}

	cmd.AddCommand(list, add)
	topLevel.AddCommand(cmd)
}
