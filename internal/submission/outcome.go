package submission

import "net/http"

// Kind classifies the result of handling a submission.
type Kind int

const (
	// Accepted means the submission was valid and may be forwarded.
	Accepted Kind = iota
	// BotDetected means the bot-trap field was present. The caller must
	// report success without sending anything.
	BotDetected
	// ValidationError is a client-caused rejection of the submitted fields.
	ValidationError
	// MalformedRequest means the request body could not be read as a record.
	MalformedRequest
	// GatewayError means the email provider failed or rejected the message.
	GatewayError
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case Accepted:
		return "accepted"
	case BotDetected:
		return "bot_detected"
	case ValidationError:
		return "validation_error"
	case MalformedRequest:
		return "malformed_request"
	case GatewayError:
		return "gateway_error"
	default:
		return "unknown"
	}
}

// Outcome is the tagged result of validating or forwarding a submission.
type Outcome struct {
	Kind    Kind
	Message string
}

// OK reports whether the outcome is a success from the caller's point of view.
func (o Outcome) OK() bool {
	return o.Kind == Accepted || o.Kind == BotDetected
}

// HTTPStatus maps the outcome to the response status code.
func (o Outcome) HTTPStatus() int {
	switch o.Kind {
	case Accepted, BotDetected:
		return http.StatusOK
	case ValidationError, MalformedRequest:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func accepted() Outcome { return Outcome{Kind: Accepted} }

func invalid(msg string) Outcome {
	return Outcome{Kind: ValidationError, Message: msg}
}

// Malformed returns a MalformedRequest outcome with the given message.
func Malformed(msg string) Outcome {
	return Outcome{Kind: MalformedRequest, Message: msg}
}

// Gateway returns a GatewayError outcome with the given message.
func Gateway(msg string) Outcome {
	return Outcome{Kind: GatewayError, Message: msg}
}
