package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/novelstudio/internal/auth"
	"github.com/nhle/novelstudio/internal/credential"
)

type accountOptions struct {
	email    string
	password string
}

// promptPassword asks for the password when it was not passed as a flag.
func (o *accountOptions) promptPassword() error {
	if o.password != "" {
		return nil
	}
	return huh.NewInput().
		Title("Password").
		EchoMode(huh.EchoModePassword).
		Value(&o.password).
		Run()
}

func addAccount(topLevel *cobra.Command, ro *rootOptions) {
	run := func(name, short string, do func(*auth.Service, context.Context, string, string) (*auth.Session, error)) *cobra.Command {
		ao := &accountOptions{}
		cmd := &cobra.Command{
			Use:   name,
			Short: short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg := ro.cfg.Server
				if cfg.JWTSecret == "" {
					return errors.New("server.jwt_secret must be set")
				}
				if ao.email == "" {
					return errors.New("--email is required")
				}
				if err := ao.promptPassword(); err != nil {
					return err
				}

				ctx := cmd.Context()
				s, err := ro.openStore(ctx)
				if err != nil {
					return err
				}
				defer s.Close()

				svc := auth.NewService(s, cfg.JWTSecret, time.Duration(cfg.JWTTTLHours)*time.Hour, ro.log)
				sess, err := do(svc, ctx, ao.email, ao.password)
				if err != nil {
					return err
				}
				if err := credential.Set(credential.KeySessionToken, sess.Token); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s (user id %s), token valid until %s\n",
					sess.User.Email, sess.User.ID, sess.ExpiresAt.Format(time.RFC1123))
				return nil
			},
		}
		cmd.Flags().StringVar(&ao.email, "email", "", "account email")
		cmd.Flags().StringVar(&ao.password, "password", "", "account password (prompted when empty)")
		return cmd
	}

	topLevel.AddCommand(
		run("register", "Create an account and keep the session token in the keyring.", (*auth.Service).Register),
		run("login", "Sign in and keep the session token in the keyring.", (*auth.Service).Login),
	)
}
