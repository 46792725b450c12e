package slack

import (
	"context"
	"errors"
	"testing"

	slackapi "github.com/slack-go/slack"
	"github.com/zulandar/taskyard/internal/notify"
)

type mockClient struct {
	posts   []string
	postErr error
}

func (m *mockClient) PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error) {
	if m.postErr != nil {
		return "", "", m.postErr
	}
	m.posts = append(m.posts, channelID)
	return channelID, "123.456", nil
}

func TestNewValidation(t *testing.T) {
	if _, err := New(Opts{ChannelID: "C123"}); err == nil {
		t.Error("expected error without token or client")
	}
	if _, err := New(Opts{BotToken: "xoxb-x"}); err == nil {
		t.Error("expected error without channel id")
	}
	if _, err := New(Opts{Client: &mockClient{}, ChannelID: "C123"}); err != nil {
		t.Errorf("injected client should not need a token: %v", err)
	}
}

func TestSend(t *testing.T) {
	client := &mockClient{}
	n, err := New(Opts{Client: client, ChannelID: "C123"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	err = n.Send(context.Background(), notify.Message{Title: "hello", Body: "world"})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if len(client.posts) != 1 || client.posts[0] != "C123" {
		t.Errorf("expected one post to C123, got %v", client.posts)
	}
}

func TestSendError(t *testing.T) {
	client := &mockClient{postErr: errors.New("rate limited")}
	n, _ := New(Opts{Client: client, ChannelID: "C123"})
	if err := n.Send(context.Background(), notify.Message{Title: "x"}); err == nil {
		t.Error("expected delivery error to propagate")
	}
}

func TestSendAfterClose(t *testing.T) {
	n, _ := New(Opts{Client: &mockClient{}, ChannelID: "C123"})
	if err := n.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := n.Send(context.Background(), notify.Message{Title: "x"}); err == nil {
		t.Error("expected error after close")
	}
}
