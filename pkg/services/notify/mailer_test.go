package notify

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	raw []byte
	err error
}

func (f *fakeSES) SendRawEmail(
	_ context.Context,
	params *ses.SendRawEmailInput,
	_ ...func(*ses.Options),
) (*ses.SendRawEmailOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.raw = params.RawMessage.Data
	return &ses.SendRawEmailOutput{MessageId: aws.String("msg-123")}, nil
}

func testMessage(t *testing.T) Message {
	dir := t.TempDir()
	usagePath := filepath.Join(dir, "daily_usage_per_user.csv")
	require.NoError(t, os.WriteFile(usagePath, []byte("User ID,2024-01-01\n111,2.3\n"), 0o644))

	return Message{
		Sender:      "ops@example.org",
		SenderName:  "Cluster Ops",
		Recipients:  []string{"a@example.org", "b@example.org"},
		Subject:     "Weekly Cluster Usage and Cost Report",
		Body:        "Hello,\n\nreports attached.\n",
		Attachments: []string{usagePath},
	}
}

func TestBuildRaw(t *testing.T) {
	raw, err := BuildRaw(testMessage(t))
	require.NoError(t, err)

	payload := string(raw)
	assert.Contains(t, payload, "ops@example.org")
	assert.Contains(t, payload, "Subject: Weekly Cluster Usage and Cost Report")
	assert.Contains(t, payload, "a@example.org")
	assert.Contains(t, payload, "b@example.org")
	assert.Contains(t, payload, "daily_usage_per_user.csv")
}

func TestBuildRaw_MissingAttachment(t *testing.T) {
	msg := testMessage(t)
	msg.Attachments = []string{filepath.Join(t.TempDir(), "absent.csv")}

	_, err := BuildRaw(msg)
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to attach")
}

func TestSend(t *testing.T) {
	client := &fakeSES{}
	id, err := NewMailer(client).Send(context.Background(), testMessage(t))
	require.NoError(t, err)
	assert.Equal(t, "msg-123", id)
	assert.NotEmpty(t, client.raw)
}

func TestSend_TransportError(t *testing.T) {
	client := &fakeSES{err: errors.New("rejected")}
	_, err := NewMailer(client).Send(context.Background(), testMessage(t))
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed to send notification")
}
