package mail

import (
	"context"
	"fmt"
	"log"

	"github.com/dom/blog-api/internal/domain"
)

// Message is a rendered outgoing email.
type Message struct {
	From    string
	To      string
	Subject string
	Body    string
}

type Mailer interface {
	SendWelcome(ctx context.Context, user *domain.User) error
}

// WelcomeMessage renders the greeting sent after registration.
func WelcomeMessage(from string, user *domain.User) Message {
	return Message{
		From:    from,
		To:      user.Email,
		Subject: "Welcome to the blog",
		Body: fmt.Sprintf("Hi %s,\n\nThanks for signing up. You can now log in and start writing posts.\n",
			user.Name),
	}
}

// LogMailer writes messages to the process log instead of delivering them.
type LogMailer struct {
	from string
	logf func(format string, args ...any)
}

func NewLogMailer(from string) *LogMailer {
	return &LogMailer{from: from, logf: log.Printf}
}

func (m *LogMailer) SendWelcome(ctx context.Context, user *domain.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := WelcomeMessage(m.from, user)
	m.logf("INFO [mail.SendWelcome] from=%s to=%s subject=%q", msg.From, msg.To, msg.Subject)
	return nil
}
