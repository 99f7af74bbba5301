package editor

import (
	"context"
	"fmt"
	"strconv"

	"github.com/nhle/novelstudio/internal/common"
	"github.com/nhle/novelstudio/internal/events"
	"github.com/nhle/novelstudio/internal/model"
	"github.com/nhle/novelstudio/internal/store"
	"github.com/nhle/novelstudio/internal/version"
)

// sceneDraft captures the draft and the stored scene it belongs to.
func (s *Session) sceneDraft() (draft, model.Scene, error) {
	d, err := s.capture()
	if err != nil {
		return draft{}, model.Scene{}, err
	}
	if d.kind != model.KindScene {
		return draft{}, model.Scene{}, common.ErrNoEditorTarget
	}
	sc, ok := s.backend.Scene(d.id)
	if !ok {
		return draft{}, model.Scene{}, fmt.Errorf("scene %s: %w", d.id, common.ErrNotFound)
	}
	return d, sc, nil
}

// withEdited returns a copy of versions with the entry for ref rewritten to
// the draft. The label follows the title.
func withEdited(versions []model.SceneVersion, ref version.Ref, d draft) []model.SceneVersion {
	out := make([]model.SceneVersion, len(versions))
	copy(out, versions)
	for i := range out {
		if out[i].ID == ref.ID() {
			out[i].Title = d.title
			out[i].Label = d.title
			out[i].Text = d.body
		}
	}
	return out
}

// SaveCurrentVersion writes the draft into the version being edited. Saving
// the base version also makes the base the active version; saving a stored
// version leaves the active version alone.
func (s *Session) SaveCurrentVersion(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	d, sc, err := s.sceneDraft()
	if err != nil {
		return err
	}

	var upd store.SceneUpdate
	if d.ref.IsBase() {
		base := model.BaseVersionID
		upd = store.SceneUpdate{Title: &d.title, Text: &d.body, ActiveVersionID: &base}
	} else {
		if sc.FindVersion(d.ref.ID()) < 0 {
			return fmt.Errorf("version %s: %w", d.ref, common.ErrNotFound)
		}
		versions := withEdited(sc.Versions, d.ref, d)
		upd = store.SceneUpdate{Versions: &versions}
	}

	err = s.backend.UpdateScene(ctx, d.id, upd)
	if err != nil {
		s.log.Error("saving scene version failed", "scene_id", d.id, "version_id", d.ref.ID(), "error", err)
	}
	s.finish(d, Saved, err)
	if err == nil {
		s.backend.Notify(events.VersionSaved, d.id)
	}
	return err
}

// SaveNewVersion stores the draft text as a new version placed first among
// the scene's stored versions and switches the editor to it. The draft
// title is kept. The active version is not changed.
func (s *Session) SaveNewVersion(ctx context.Context) (model.SceneVersion, error) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	d, sc, err := s.sceneDraft()
	if err != nil {
		return model.SceneVersion{}, err
	}

	label := fmt.Sprintf("Version %d", len(sc.Versions)+2)
	now := s.now().UTC()
	v := model.SceneVersion{
		ID:        newVersionID(sc, now.UnixMilli()),
		Title:     d.title,
		Label:     label,
		Text:      d.body,
		CreatedAt: now,
	}
	versions := append([]model.SceneVersion{v}, sc.Versions...)

	if err := s.backend.UpdateScene(ctx, d.id, store.SceneUpdate{Versions: &versions}); err != nil {
		s.log.Error("creating scene version failed", "scene_id", d.id, "error", err)
		s.finish(d, Saved, err)
		return model.SceneVersion{}, err
	}

	s.mu.Lock()
	if s.gen == d.gen {
		s.ref = version.Stored(v.ID)
	}
	s.mu.Unlock()
	s.finish(d, Saved, nil)
	s.backend.Notify(events.VersionCreated, d.id)
	return v, nil
}

// newVersionID returns "ver-<ms>", suffixed when the scene already holds
// that id.
func newVersionID(sc model.Scene, ms int64) string {
	id := "ver-" + strconv.FormatInt(ms, 10)
	if sc.FindVersion(id) < 0 && id != model.BaseVersionID {
		return id
	}
	for n := 2; ; n++ {
		cand := id + "-" + strconv.Itoa(n)
		if sc.FindVersion(cand) < 0 {
			return cand
		}
	}
}

// Publish marks the version being edited as the scene's active version and
// copies the draft into the manuscript fields. Publishing the base version
// also writes the draft to the scene's own title and text.
func (s *Session) Publish(ctx context.Context) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	d, sc, err := s.sceneDraft()
	if err != nil {
		return err
	}

	active := d.ref.ID()
	var upd store.SceneUpdate
	if d.ref.IsBase() {
		upd = store.SceneUpdate{
			Title:           &d.title,
			Text:            &d.body,
			ManuscriptTitle: &d.title,
			ManuscriptText:  &d.body,
			ActiveVersionID: &active,
		}
	} else {
		if sc.FindVersion(active) < 0 {
			return fmt.Errorf("version %s: %w", d.ref, common.ErrNotFound)
		}
		versions := withEdited(sc.Versions, d.ref, d)
		v := versions[sc.FindVersion(active)]
		title := firstNonEmpty(v.Title, v.Label, sc.Title)
		text := firstNonEmpty(v.Text, sc.Text)
		upd = store.SceneUpdate{
			Versions:        &versions,
			ManuscriptTitle: &title,
			ManuscriptText:  &text,
			ActiveVersionID: &active,
		}
	}

	err = s.backend.UpdateScene(ctx, d.id, upd)
	if err != nil {
		s.log.Error("publishing scene version failed", "scene_id", d.id, "version_id", active, "error", err)
	}
	s.finish(d, Saved, err)
	if err == nil {
		s.backend.Notify(events.VersionPublished, d.id)
	}
	return err
}

// DeleteCurrentVersion removes the stored version being edited. confirm
// must be true. The base version cannot be deleted. When the deleted
// version was published, the base becomes active and the manuscript fields
// are cleared. The editor then reopens on the scene's active version.
func (s *Session) DeleteCurrentVersion(ctx context.Context, confirm bool) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	d, sc, err := s.sceneDraft()
	if err != nil {
		return err
	}
	if d.ref.IsBase() {
		return common.ErrBaseVersionPermanent
	}
	if !confirm {
		return common.ErrConfirmationRequired
	}
	if sc.FindVersion(d.ref.ID()) < 0 {
		return fmt.Errorf("version %s: %w", d.ref, common.ErrNotFound)
	}

	remaining := make([]model.SceneVersion, 0, len(sc.Versions))
	for _, v := range sc.Versions {
		if v.ID != d.ref.ID() {
			remaining = append(remaining, v)
		}
	}
	upd := store.SceneUpdate{Versions: &remaining}
	if version.Active(sc) == d.ref {
		base := model.BaseVersionID
		empty := ""
		upd.ActiveVersionID = &base
		upd.ManuscriptTitle = &empty
		upd.ManuscriptText = &empty
	}

	if err := s.backend.UpdateScene(ctx, d.id, upd); err != nil {
		s.log.Error("deleting scene version failed", "scene_id", d.id, "version_id", d.ref.ID(), "error", err)
		s.finish(d, Saved, err)
		return err
	}
	s.backend.Notify(events.VersionDeleted, d.id)

	s.mu.Lock()
	current := s.gen == d.gen
	s.mu.Unlock()
	if !current {
		return nil
	}
	if err := s.Open(model.KindScene, d.id, ""); err != nil {
		return err
	}
	s.mu.Lock()
	if s.gen == d.gen+1 {
		s.state = Saved
		s.savedAt = s.now()
	}
	s.mu.Unlock()
	return nil
}
