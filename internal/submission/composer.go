package submission

import (
	"fmt"
	"html"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/shineum/contact-relay/internal/email"
)

// DefaultSubjectPrefix is used when no prefix is configured.
const DefaultSubjectPrefix = "Contact form"

// ComposerConfig holds the fixed addresses and subject prefix for outgoing mail.
type ComposerConfig struct {
	From          string
	Destination   string
	SubjectPrefix string
}

// Composer builds email messages from validated records.
// It is safe for concurrent use.
type Composer struct {
	from          string
	destination   string
	subjectPrefix string
}

// NewComposer creates a Composer. An empty subject prefix falls back to
// DefaultSubjectPrefix.
func NewComposer(cfg ComposerConfig) *Composer {
	prefix := cfg.SubjectPrefix
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}

	return &Composer{
		from:          cfg.From,
		destination:   cfg.Destination,
		subjectPrefix: prefix,
	}
}

// Compose builds the message for a record that passed validation.
// Output depends only on the record, so equal records give equal messages.
func (c *Composer) Compose(rec Record) *email.Message {
	name := rec[FieldName]
	addr := rec[FieldEmail]

	return &email.Message{
		From:       c.from,
		To:         []string{c.destination},
		ReplyTo:    []string{addr},
		ReturnPath: c.from,
		Subject:    fmt.Sprintf("%s message from %s (%s)", c.subjectPrefix, name, addr),
		HTMLBody:   c.body(rec),
	}
}

func (c *Composer) body(rec Record) string {
	extra := lo.Without(lo.Keys(map[string]string(rec)), RequiredFields...)
	slices.Sort(extra)

	lines := make([]string, 0, len(extra))
	for _, field := range extra {
		lines = append(lines, line(field, rec[field]))
	}

	message := strings.ReplaceAll(escape(rec[FieldMessage]), "\n", "<br>")

	var b strings.Builder
	b.WriteString(line(FieldName, rec[FieldName]) + "\n")
	b.WriteString(line(FieldEmail, rec[FieldEmail]) + "\n")
	b.WriteString(strings.Join(lines, "\n") + "\n")
	b.WriteString("<p>\n")
	b.WriteString(message + "\n")
	b.WriteString("</p>\n")
	return b.String()
}

func line(label, value string) string {
	return fmt.Sprintf("<strong>%s</strong>: %s<br>", escape(label), escape(value))
}

// escape renders submitted text as literal characters inside the HTML body.
// Nothing is dropped: markup shows up as text.
func escape(s string) string {
	return html.EscapeString(s)
}
