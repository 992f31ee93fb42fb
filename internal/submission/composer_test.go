package submission

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestComposer() *Composer {
	return NewComposer(ComposerConfig{
		From:        "forms@example.com",
		Destination: "team@example.com",
	})
}

func TestCompose_Envelope(t *testing.T) {
	t.Parallel()

	msg := newTestComposer().Compose(Record{
		"name":    "Ana",
		"email":   "ana@x.com",
		"message": "Hi",
	})

	assert.Equal(t, "forms@example.com", msg.From)
	assert.Equal(t, []string{"team@example.com"}, msg.To)
	assert.Equal(t, []string{"ana@x.com"}, msg.ReplyTo)
	assert.Equal(t, "forms@example.com", msg.ReturnPath)
	assert.Equal(t, "Contact form message from Ana (ana@x.com)", msg.Subject)
}

func TestCompose_SubjectPrefix(t *testing.T) {
	t.Parallel()

	c := NewComposer(ComposerConfig{SubjectPrefix: "Acme website"})
	msg := c.Compose(Record{"name": "Ana", "email": "ana@x.com", "message": "Hi"})
	assert.Equal(t, "Acme website message from Ana (ana@x.com)", msg.Subject)
}

func TestCompose_Body(t *testing.T) {
	t.Parallel()

	msg := newTestComposer().Compose(Record{
		"name":    "Ana",
		"email":   "ana@x.com",
		"message": "Hi\nthere",
		"phone":   "123",
	})

	want := "<strong>name</strong>: Ana<br>\n" +
		"<strong>email</strong>: ana@x.com<br>\n" +
		"<strong>phone</strong>: 123<br>\n" +
		"<p>\n" +
		"Hi<br>there\n" +
		"</p>\n"
	assert.Equal(t, want, msg.HTMLBody)
}

func TestCompose_NoExtraFields(t *testing.T) {
	t.Parallel()

	msg := newTestComposer().Compose(Record{"name": "Ana", "email": "ana@x.com", "message": "Hi"})

	want := "<strong>name</strong>: Ana<br>\n" +
		"<strong>email</strong>: ana@x.com<br>\n" +
		"\n" +
		"<p>\n" +
		"Hi\n" +
		"</p>\n"
	assert.Equal(t, want, msg.HTMLBody)
}

func TestCompose_ExtraFieldsSorted(t *testing.T) {
	t.Parallel()

	msg := newTestComposer().Compose(Record{
		"name":    "Ana",
		"email":   "ana@x.com",
		"message": "Hi",
		"zeta":    "1",
		"alpha":   "2",
		"mid":     "3",
	})

	alpha := strings.Index(msg.HTMLBody, "<strong>alpha</strong>: 2<br>")
	mid := strings.Index(msg.HTMLBody, "<strong>mid</strong>: 3<br>")
	zeta := strings.Index(msg.HTMLBody, "<strong>zeta</strong>: 1<br>")
	email := strings.Index(msg.HTMLBody, "<strong>email</strong>")

	assert.Greater(t, alpha, email)
	assert.Greater(t, mid, alpha)
	assert.Greater(t, zeta, mid)
}

func TestCompose_Deterministic(t *testing.T) {
	t.Parallel()

	rec := Record{"name": "Ana", "email": "ana@x.com", "message": "Hi", "b": "1", "a": "2", "c": "3"}
	c := newTestComposer()

	first := c.Compose(rec)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, c.Compose(rec))
	}
}

func TestCompose_EscapesMarkup(t *testing.T) {
	t.Parallel()

	msg := newTestComposer().Compose(Record{
		"name":      "Ana <script>alert(1)</script>",
		"email":     "ana@x.com",
		"message":   "Our page breaks when I add <div class=x> around the form\nTitle reads <title>Acme</title> today",
		"<b>co</b>": "1 < 2 & 3",
	})

	want := "<strong>name</strong>: Ana &lt;script&gt;alert(1)&lt;/script&gt;<br>\n" +
		"<strong>email</strong>: ana@x.com<br>\n" +
		"<strong>&lt;b&gt;co&lt;/b&gt;</strong>: 1 &lt; 2 &amp; 3<br>\n" +
		"<p>\n" +
		"Our page breaks when I add &lt;div class=x&gt; around the form<br>" +
		"Title reads &lt;title&gt;Acme&lt;/title&gt; today\n" +
		"</p>\n"
	assert.Equal(t, want, msg.HTMLBody)
	assert.NotContains(t, msg.HTMLBody, "<script>")
}

func TestCompose_KeepsEveryCharacter(t *testing.T) {
	t.Parallel()

	msg := newTestComposer().Compose(Record{
		"name":    `O'Brien "Ana"`,
		"email":   "ana@x.com",
		"message": "<style>body{}</style>",
	})

	assert.Contains(t, msg.HTMLBody, "<strong>name</strong>: O&#39;Brien &#34;Ana&#34;<br>")
	assert.Contains(t, msg.HTMLBody, "<p>\n&lt;style&gt;body{}&lt;/style&gt;\n</p>\n")
}
