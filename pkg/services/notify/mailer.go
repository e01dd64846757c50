// Package notify delivers the rendered reports to the distribution list.
package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/jordan-wright/email"
)

// Message is one outgoing report notification.
type Message struct {
	Sender     string
	SenderName string
	Recipients []string
	Subject    string
	Body       string

	// Attachments are local file paths; each is attached by basename.
	Attachments []string
}

// Mailer sends a message and returns the transport's message id.
type Mailer interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// RawEmailAPI is the slice of the SES client the mailer uses.
type RawEmailAPI interface {
	SendRawEmail(
		ctx context.Context,
		params *ses.SendRawEmailInput,
		optFns ...func(*ses.Options),
	) (*ses.SendRawEmailOutput, error)
}

type mailer struct {
	client RawEmailAPI
}

func NewMailer(client RawEmailAPI) Mailer {
	return &mailer{client: client}
}

func (m *mailer) Send(ctx context.Context, msg Message) (string, error) {
	raw, err := BuildRaw(msg)
	if err != nil {
		return "", err
	}

	resp, err := m.client.SendRawEmail(ctx, &ses.SendRawEmailInput{
		RawMessage: &types.RawMessage{Data: raw},
	})
	if err != nil {
		return "", fmt.Errorf("failed to send notification: %w", err)
	}
	if resp.MessageId == nil {
		return "", nil
	}
	return *resp.MessageId, nil
}

// BuildRaw renders the multipart MIME payload for a message.
func BuildRaw(msg Message) ([]byte, error) {
	e := email.NewEmail()
	e.From = fmt.Sprintf("%s <%s>", msg.SenderName, msg.Sender)
	e.To = msg.Recipients
	e.Subject = msg.Subject
	e.Text = []byte(msg.Body)

	for _, path := range msg.Attachments {
		if _, err := e.AttachFile(path); err != nil {
			return nil, fmt.Errorf("failed to attach %s: %w", path, err)
		}
	}

	raw, err := e.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render notification: %w", err)
	}
	return raw, nil
}
