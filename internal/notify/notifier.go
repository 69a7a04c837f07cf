package notify

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/skovtun/wayplan/pkg/mail"
	"github.com/skovtun/wayplan/pkg/metrics"
)

// Notifier dispatches the three transactional emails the application sends:
// account verification, password reset, and trip invitations. Delivery is
// fire-and-forget from the recipient's point of view; callers decide whether a
// dispatch failure is fatal for the surrounding operation.
type Notifier struct {
	mailer  mail.Mailer
	baseURL string
}

// New constructs a Notifier. baseURL is the public application URL used in links.
func New(mailer mail.Mailer, baseURL string) (*Notifier, error) {
	if mailer == nil {
		return nil, errors.New("notifier: mailer is required")
	}
	return &Notifier{
		mailer:  mailer,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// SendVerification emails a link confirming ownership of a freshly registered address.
func (n *Notifier) SendVerification(ctx context.Context, email, token string) error {
	link := n.link("/auth/verify-email", token)
	body := fmt.Sprintf(
		"Welcome to WayPlan!\n\nPlease confirm your email address by visiting the link below:\n%s\n\nThe link is valid for 24 hours. If you did not create an account, you can ignore this message.\n",
		link,
	)

	return n.send(ctx, "verification", email, "Confirm your WayPlan account", body)
}

// SendPasswordReset emails a time-limited link for choosing a new password.
func (n *Notifier) SendPasswordReset(ctx context.Context, email, token string) error {
	link := n.link("/auth/reset-password", token)
	body := fmt.Sprintf(
		"You requested a password reset for your WayPlan account.\n\nUse the link below to choose a new password:\n%s\n\nThe link is valid for 1 hour. If you did not request a reset, you can ignore this message.\n",
		link,
	)

	return n.send(ctx, "password_reset", email, "Reset your WayPlan password", body)
}

// SendInvitation emails a collaboration invite for a trip.
func (n *Notifier) SendInvitation(ctx context.Context, email, senderName, tripTitle, token string) error {
	link := n.link("/invitations/accept", token)
	body := fmt.Sprintf(
		"%s invited you to collaborate on the trip %q.\n\nAs a collaborator you can view the trip and add or edit its places.\n\nAccept the invitation here:\n%s\n\nThe invitation is valid for 24 hours.\n",
		senderName, tripTitle, link,
	)

	subject := fmt.Sprintf("Invitation to the trip %q", tripTitle)
	return n.send(ctx, "invitation", email, subject, body)
}

func (n *Notifier) send(ctx context.Context, template, to, subject, body string) error {
	err := n.mailer.Send(ctx, mail.Message{
		To:      []string{to},
		Subject: subject,
		Body:    body,
	})
	if err != nil && !errors.Is(err, mail.ErrSMTPDisabled) {
		metrics.EmailsSent.WithLabelValues(template, "error").Inc()
		return fmt.Errorf("notifier: send %s email: %w", template, err)
	}

	metrics.EmailsSent.WithLabelValues(template, "ok").Inc()
	return nil
}

func (n *Notifier) link(path, token string) string {
	if n.baseURL == "" {
		return token
	}
	return fmt.Sprintf("%s%s?token=%s", n.baseURL, path, url.QueryEscape(token))
}
