package app_test

import (
	"context"
	"testing"

	"reading-portal/internal/app"
	"reading-portal/internal/infra/memory"
)

func TestBotReplies(t *testing.T) {
	cases := []struct {
		message string
		want    string
	}{
		{"Hello there", "Hello! How can I help you today?"},
		{"hi", "Hello! How can I help you today?"},
		{"I need help", "Sure! What do you need help with?"},
		{"where is my lesson?", "You can view your lessons in the dashboard."},
		{"bye!", "Goodbye! Have a great day!"},
		{"what is the weather", "Sorry, I don't understand. Try asking something else!"},
	}
	for _, c := range cases {
		if got := app.BotReply(c.message); got != c.want {
			t.Fatalf("message %q: expected %q, got %q", c.message, c.want, got)
		}
	}
}

func TestSendAppendsMessageAndReply(t *testing.T) {
	ctx := context.Background()
	chat := app.NewChatService(memory.NewChatStore())

	reply, transcript, err := chat.Send(ctx, "sam", "hello")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if reply != "Hello! How can I help you today?" {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if len(transcript) != 2 || transcript[0] != "hello" || transcript[1] != reply {
		t.Fatalf("unexpected transcript: %v", transcript)
	}
}

func TestSendIgnoresBlankInput(t *testing.T) {
	ctx := context.Background()
	chat := app.NewChatService(memory.NewChatStore())

	reply, transcript, err := chat.Send(ctx, "sam", "   ")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if reply != "" || len(transcript) != 0 {
		t.Fatalf("expected blank input to be ignored, got reply=%q transcript=%v", reply, transcript)
	}
}

func TestClearEmptiesTranscript(t *testing.T) {
	ctx := context.Background()
	chat := app.NewChatService(memory.NewChatStore())

	if _, _, err := chat.Send(ctx, "sam", "hello"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if err := chat.Clear(ctx, "sam"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	transcript, err := chat.Transcript(ctx, "sam")
	if err != nil {
		t.Fatalf("transcript: %v", err)
	}
	if len(transcript) != 0 {
		t.Fatalf("expected empty transcript after clear, got %v", transcript)
	}
}
