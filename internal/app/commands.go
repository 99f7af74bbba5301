package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/novelstudio/internal/credential"
	"github.com/nhle/novelstudio/internal/model"
	"github.com/nhle/novelstudio/internal/share"
	"github.com/nhle/novelstudio/internal/store"
	"github.com/nhle/novelstudio/internal/ui/chapterform"
	"github.com/nhle/novelstudio/internal/ui/command"
)

// commandResultMsg reports the outcome of a palette command.
type commandResultMsg struct {
	status string
	err    error
}

func result(status string, f func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		if err := f(context.Background()); err != nil {
			return commandResultMsg{err: err}
		}
		return commandResultMsg{status: status}
	}
}

func failed(format string, args ...any) tea.Cmd {
	return func() tea.Msg { return commandResultMsg{err: fmt.Errorf(format, args...)} }
}

// executeCommand handles a line from the command palette.
func (m *Model) executeCommand(line string) tea.Cmd {
	name, args := command.Split(line)

	switch name {
	case "quit", "q":
		m.closeProject()
		return tea.Quit
	case "projects":
		m.currentView = ViewProjects
		return m.projectView.Init()
	}

	if m.open == nil {
		return failed("open a project first")
	}
	ws := m.open.ws

	switch name {
	case "reload":
		return result("Reloaded", ws.Reload)

	case "chapter":
		title := args
		if title == "" {
			title = ws.DefaultChapterTitle()
		}
		return result("Chapter created", func(ctx context.Context) error {
			_, err := ws.CreateChapter(ctx, title)
			return err
		})

	case "rename", "status":
		ch, ok := ws.Selected()
		if !ok {
			return failed("select a chapter first")
		}
		if args == "" {
			return failed("usage: %s <value>", name)
		}
		upd := store.ChapterUpdate{Title: &args}
		if name == "status" {
			upd = store.ChapterUpdate{Status: &args}
		}
		return result("Chapter updated", func(ctx context.Context) error {
			return ws.UpdateChapter(ctx, ch.ID, upd)
		})

	case "goal":
		goal, err := strconv.Atoi(args)
		if err != nil || goal < 0 {
			return failed("usage: goal <words>")
		}
		m.open.info.GoalWordCount = goal
		s, key := m.opts.Store, ws.Project()
		return result("Goal updated", func(ctx context.Context) error {
			return s.UpdateProject(ctx, key, store.ProjectUpdate{GoalWordCount: &goal})
		})

	case "export chapter", "export novel":
		scope := strings.TrimPrefix(name, "export ")
		dir := m.opts.ExportDir
		return func() tea.Msg {
			text, fileName, err := ws.ExportManuscript(context.Background(), scope)
			if err != nil {
				return commandResultMsg{err: err}
			}
			path := filepath.Join(dir, fileName)
			if args != "" {
				path = args
			}
			if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
				return commandResultMsg{err: fmt.Errorf("writing %s: %w", path, err)}
			}
			return commandResultMsg{status: "Exported to " + path}
		}

	case "share":
		if args == "" {
			return failed("usage: share <recipient>")
		}
		return m.shareNovel(args)

	case "comment", "highlight":
		sceneID, ok := m.open.board.SelectedSceneID()
		if !ok {
			return failed("select a scene on the board first")
		}
		if name == "comment" {
			// comment <selection> | <note>
			selection, note, found := strings.Cut(args, "|")
			if !found {
				note, selection = selection, ""
			}
			selection, note = strings.TrimSpace(selection), strings.TrimSpace(note)
			return result("Comment added", func(ctx context.Context) error {
				_, err := ws.AddComment(ctx, sceneID, note, selection)
				return err
			})
		}
		// highlight <color> <text>
		color, text, _ := strings.Cut(args, " ")
		if !model.ValidHighlightColor(color) {
			return failed("usage: highlight yellow|green|pink <text>")
		}
		return result("Highlight added", func(ctx context.Context) error {
			_, err := ws.AddHighlight(ctx, sceneID, strings.TrimSpace(text), color)
			return err
		})
	}

	return failed("unknown command %q", name)
}

// shareNovel exports the whole novel and stores it as a draft message in
// the configured IMAP mailbox.
func (m *Model) shareNovel(to string) tea.Cmd {
	ws, cfg, title := m.open.ws, m.opts.Config.Share, m.open.info.Title
	if cfg.IMAPHost == "" {
		return failed("configure sharing first (press s)")
	}
	return func() tea.Msg {
		ctx := context.Background()
		text, fileName, err := ws.ExportManuscript(ctx, "novel")
		if err != nil {
			return commandResultMsg{err: err}
		}
		password, err := credential.Get(credential.KeyIMAPPassword)
		if err != nil {
			return commandResultMsg{err: fmt.Errorf("no IMAP password stored: %w", err)}
		}
		sharer := share.NewSharer(share.NewIMAPClientFromConfig(cfg, password), cfg.Mailbox, cfg.From)
		if _, err := sharer.Share(ctx, title, fileName, text, to); err != nil {
			return commandResultMsg{err: err}
		}
		return commandResultMsg{status: "Draft saved to " + sharer.Mailbox()}
	}
}

// saveChapter applies a submitted chapter form. An empty ID creates a new
// chapter first.
func (m *Model) saveChapter(msg chapterform.SubmittedMsg) tea.Cmd {
	ws := m.open.ws
	return result("Chapter saved", func(ctx context.Context) error {
		id := msg.ID
		if id == "" {
			ch, err := ws.CreateChapter(ctx, msg.Title)
			if err != nil {
				return err
			}
			id = ch.ID
		}
		return ws.UpdateChapter(ctx, id, store.ChapterUpdate{
			Title:           &msg.Title,
			Status:          &msg.Status,
			TargetWordCount: &msg.TargetWordCount,
		})
	})
}
