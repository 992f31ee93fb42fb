// Package email defines the outbound email data model handed to providers.
package email

// Message is a composed contact-form email, ready for delivery.
// It is built once per accepted submission and must not be modified after
// being passed to a provider.
type Message struct {
	From       string
	To         []string
	ReplyTo    []string
	ReturnPath string
	Subject    string
	HTMLBody   string
}
