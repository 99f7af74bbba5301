package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nhle/novelstudio/internal/chapter"
	"github.com/nhle/novelstudio/internal/manuscript"
	"github.com/nhle/novelstudio/internal/model"
	"github.com/nhle/novelstudio/internal/store"
)

// exportOptions selects what to render.
type exportOptions struct {
	project string
	scope   string
	chapter string
}

func (o *exportOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.project, "project", "", "project id or title")
	cmd.Flags().StringVar(&o.scope, "scope", manuscript.ScopeNovel, "chapter or novel")
	cmd.Flags().StringVar(&o.chapter, "chapter", "", "chapter id, number or title (required for --scope chapter)")
}

// render loads the project and returns the exported text, a suggested file
// name and the project.
func (o *exportOptions) render(ctx context.Context, ro *rootOptions, s store.Store) (string, string, model.Project, error) {
	p, err := findProject(ctx, s, ro.userID, o.project)
	if err != nil {
		return "", "", p, err
	}
	ws := chapter.New(s, store.ProjectKey{UserID: ro.userID, ProjectID: p.ID}, chapter.WithLogger(ro.log))
	if err := ws.LoadChapters(ctx); err != nil {
		return "", "", p, err
	}

	if o.scope == manuscript.ScopeChapter {
		if o.chapter == "" {
			return "", "", p, fmt.Errorf("--chapter is required for --scope chapter")
		}
		ch, err := findChapter(ws.Chapters(), o.chapter)
		if err != nil {
			return "", "", p, err
		}
		if err := ws.SelectChapter(ctx, ch.ID); err != nil {
			return "", "", p, err
		}
	}

	text, fileName, err := ws.ExportManuscript(ctx, o.scope)
	return text, fileName, p, err
}

func addExport(topLevel *cobra.Command, ro *rootOptions) {
	eo := &exportOptions{}
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a chapter or the whole novel as plain text.",
		Example: `
studio export --project "The Long Night"
studio export --scope chapter --chapter 3 --out -
`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := ro.openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			text, fileName, _, err := eo.render(ctx, ro, s)
			if err != nil {
				return err
			}

			if out == "-" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), text)
				return err
			}
			if out == "" {
				out = fileName
			} else if info, err := os.Stat(out); err == nil && info.IsDir() {
				out = filepath.Join(out, fileName)
			}
			if err := os.WriteFile(out, []byte(text), 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported to %s\n", out)
			return nil
		},
	}
	eo.addFlags(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file or directory; - writes to stdout")

	topLevel.AddCommand(cmd)
}
