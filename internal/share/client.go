package share

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/emersion/go-imap/v2"
	"github.com/emersion/go-imap/v2/imapclient"

	"github.com/nhle/novelstudio/internal/model"
)

// DefaultMailbox is used when no mailbox is configured.
const DefaultMailbox = "Drafts"

// AuthError reports a rejected IMAP login.
type AuthError struct {
	Username string
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed for %s: %v", e.Username, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// Appender stores a raw message in a mailbox and returns its UID.
type Appender interface {
	Append(ctx context.Context, mailbox string, msg []byte, flags []imap.Flag, t time.Time) (uint32, error)
}

// IMAPClient wraps go-imap v2 for appending messages to a mailbox.
type IMAPClient struct {
	host     string
	port     string
	username string
	password string
	tls      bool
}

// NewIMAPClient creates a new IMAP client configuration.
func NewIMAPClient(
	host, port, username, password string, tls bool,
) *IMAPClient {
	return &IMAPClient{
		host:     host,
		port:     port,
		username: username,
		password: password,
		tls:      tls,
	}
}

// NewIMAPClientFromConfig builds a client from the share settings.
func NewIMAPClientFromConfig(cfg model.ShareConfig, password string) *IMAPClient {
	port := cfg.IMAPPort
	if port == 0 {
		port = 993
	}
	return NewIMAPClient(cfg.IMAPHost, strconv.Itoa(port), cfg.Username, password, cfg.TLS)
}

// Connect establishes a connection to the IMAP server, authenticates,
// and returns the connected client. The caller is responsible for
// calling Logout/Close on the returned client.
func (c *IMAPClient) Connect(
	_ context.Context,
) (*imapclient.Client, error) {
	addr := c.host + ":" + c.port

	var client *imapclient.Client
	var err error

	if c.tls {
		client, err = imapclient.DialTLS(addr, nil)
	} else {
		client, err = imapclient.DialStartTLS(addr, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("connecting to IMAP %s: %w", addr, err)
	}

	if err := client.Login(c.username, c.password).Wait(); err != nil {
		_ = client.Logout().Wait()
		return nil, &AuthError{Username: c.username, Err: err}
	}

	return client, nil
}

// Append connects, appends msg to mailbox with the given flags, and
// returns the UID the server assigned, or 0 when the server does not
// report one.
func (c *IMAPClient) Append(
	ctx context.Context,
	mailbox string,
	msg []byte,
	flags []imap.Flag,
	t time.Time,
) (uint32, error) {
	client, err := c.Connect(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = client.Logout().Wait() }()

	cmd := client.Append(mailbox, int64(len(msg)), &imap.AppendOptions{
		Flags: flags,
		Time:  t,
	})
	if _, err := cmd.Write(msg); err != nil {
		_ = cmd.Close()
		return 0, fmt.Errorf("writing message to %s: %w", mailbox, err)
	}
	if err := cmd.Close(); err != nil {
		return 0, fmt.Errorf("closing append to %s: %w", mailbox, err)
	}
	data, err := cmd.Wait()
	if err != nil {
		return 0, fmt.Errorf("appending to %s: %w", mailbox, err)
	}
	return uint32(data.UID), nil
}

// Sharer turns exports into draft messages.
type Sharer struct {
	appender Appender
	mailbox  string
	from     string
	now      func() time.Time
}

// NewSharer creates a Sharer that appends to mailbox, or DefaultMailbox.
func NewSharer(a Appender, mailbox, from string) *Sharer {
	if mailbox == "" {
		mailbox = DefaultMailbox
	}
	return &Sharer{appender: a, mailbox: mailbox, from: from, now: time.Now}
}

// Share stores the export as a draft message and returns its UID.
func (s *Sharer) Share(ctx context.Context, subject, fileName, body string, to ...string) (uint32, error) {
	now := s.now()
	msg, err := BuildMessage(Draft{
		From:     s.from,
		To:       to,
		Subject:  subject,
		Body:     body,
		FileName: fileName,
		Date:     now,
	})
	if err != nil {
		return 0, err
	}
	// Draft and Seen keep the message out of unread counts.
	uid, err := s.appender.Append(ctx, s.mailbox, msg, []imap.Flag{imap.FlagDraft, imap.FlagSeen}, now)
	if err != nil {
		return 0, fmt.Errorf("sharing %q: %w", subject, err)
	}
	return uid, nil
}

// Validate logs in and out again, returning the authenticated username.
func (c *IMAPClient) Validate(ctx context.Context) (string, error) {
	client, err := c.Connect(ctx)
	if err != nil {
		return "", err
	}
	if err := client.Logout().Wait(); err != nil {
		return c.username, fmt.Errorf("logging out: %w", err)
	}
	return c.username, nil
}

// Mailbox returns the mailbox drafts are stored in.
func (s *Sharer) Mailbox() string { return s.mailbox }
