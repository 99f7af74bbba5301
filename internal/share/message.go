// Package share sends exported manuscripts to an IMAP mailbox as draft
// messages so they can be reviewed or forwarded from any mail client.
package share

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-message/mail"
)

// Draft is one exported manuscript ready to be shared.
type Draft struct {
	From     string
	To       []string
	Subject  string
	Body     string
	FileName string
	Date     time.Time
}

// BuildMessage renders the draft as a MIME message with the manuscript as
// the inline text part and, when FileName is set, as a text attachment.
func BuildMessage(d Draft) ([]byte, error) {
	var h mail.Header
	if d.Date.IsZero() {
		d.Date = time.Now()
	}
	h.SetDate(d.Date)
	h.SetSubject(d.Subject)
	if d.From != "" {
		h.SetAddressList("From", []*mail.Address{{Address: d.From}})
	}
	if len(d.To) > 0 {
		to := make([]*mail.Address, len(d.To))
		for i, a := range d.To {
			to[i] = &mail.Address{Address: a}
		}
		h.SetAddressList("To", to)
	}

	var buf bytes.Buffer
	mw, err := mail.CreateWriter(&buf, h)
	if err != nil {
		return nil, fmt.Errorf("creating message: %w", err)
	}

	tw, err := mw.CreateInline()
	if err != nil {
		return nil, fmt.Errorf("creating inline part: %w", err)
	}
	var th mail.InlineHeader
	th.Set("Content-Type", "text/plain; charset=utf-8")
	pw, err := tw.CreatePart(th)
	if err != nil {
		return nil, fmt.Errorf("creating text part: %w", err)
	}
	if _, err := io.WriteString(pw, d.Body); err != nil {
		return nil, fmt.Errorf("writing text part: %w", err)
	}
	if err := pw.Close(); err != nil {
		return nil, fmt.Errorf("closing text part: %w", err)
	}
	if err := tw.Close(); err != nil {
		return nil, fmt.Errorf("closing inline part: %w", err)
	}

	if d.FileName != "" {
		var ah mail.AttachmentHeader
		ah.Set("Content-Type", "text/plain; charset=utf-8")
		ah.SetFilename(d.FileName)
		aw, err := mw.CreateAttachment(ah)
		if err != nil {
			return nil, fmt.Errorf("creating attachment: %w", err)
		}
		if _, err := io.WriteString(aw, d.Body); err != nil {
			return nil, fmt.Errorf("writing attachment: %w", err)
		}
		if err := aw.Close(); err != nil {
			return nil, fmt.Errorf("closing attachment: %w", err)
		}
	}

	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("closing message: %w", err)
	}
	return buf.Bytes(), nil
}
