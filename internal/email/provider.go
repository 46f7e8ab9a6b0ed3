package email

// Message is one outbound email. Bcc carries the fan-out recipients so
// addresses are not leaked between experiments.
type Message struct {
	To      []string
	Bcc     []string
	ReplyTo string
	Subject string
	Body    string
	HTML    bool
}

// Provider delivers messages. Implementations must be safe for
// concurrent use; delivery failures are the caller's to log, never to
// propagate to a request.
type Provider interface {
	Send(msg *Message) error
}
