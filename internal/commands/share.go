package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nhle/novelstudio/internal/credential"
	"github.com/nhle/novelstudio/internal/share"
)

func addShare(topLevel *cobra.Command, ro *rootOptions) {
	eo := &exportOptions{}

	cmd := &cobra.Command{
		Use:   "share <recipient>...",
		Short: "Store an exported manuscript as a draft email in the configured IMAP mailbox.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ro.cfg.Share
			if cfg.IMAPHost == "" {
				return errors.New("share.imap_host is not configured")
			}
			password, err := credential.Get(credential.KeyIMAPPassword)
			if err != nil {
				return fmt.Errorf("no IMAP password stored, set one from the settings view: %w", err)
			}

			ctx := cmd.Context()
			s, err := ro.openStore(ctx)
			if err != nil {
				return err
			}
			defer s.Close()

			text, fileName, p, err := eo.render(ctx, ro, s)
			if err != nil {
				return err
			}

			sharer := share.NewSharer(share.NewIMAPClientFromConfig(cfg, password), cfg.Mailbox, cfg.From)
			uid, err := sharer.Share(ctx, p.Title, fileName, text, args...)
			if err != nil {
				return err
			}
			ro.log.Info("manuscript shared", "project_id", p.ID, "mailbox", sharer.Mailbox(), "uid", uid)
			fmt.Fprintf(cmd.OutOrStdout(), "Draft saved to %s\n", sharer.Mailbox())
			return nil
		},
	}
	eo.addFlags(cmd)

	topLevel.AddCommand(cmd)
}
