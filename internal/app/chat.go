package app

import (
	"context"
	"strings"
)

// TranscriptStore keeps the offline chat transcript as plain strings per
// user. Implementations range from an in-process map to a Redis list; either
// way it is just a key-value string store for this one widget.
type TranscriptStore interface {
	Append(ctx context.Context, username string, messages ...string) error
	Messages(ctx context.Context, username string) ([]string, error)
	Clear(ctx context.Context, username string) error
}

// ChatService is the offline helper widget: a rule-based bot plus a
// persisted transcript. No network, no model, just keyword matching.
type ChatService struct {
	store TranscriptStore
}

func NewChatService(store TranscriptStore) *ChatService {
	return &ChatService{store: store}
}

// BotReply picks a canned response for a message.
func BotReply(message string) string {
	msg := strings.ToLower(message)
	switch {
	case strings.Contains(msg, "hello"), strings.Contains(msg, "hi"):
		return "Hello! How can I help you today?"
	case strings.Contains(msg, "help"):
		return "Sure! What do you need help with?"
	case strings.Contains(msg, "lesson"):
		return "You can view your lessons in the dashboard."
	case strings.Contains(msg, "bye"):
		return "Goodbye! Have a great day!"
	}
	return "Sorry, I don't understand. Try asking something else!"
}

// Send appends the user message and the bot reply to the transcript and
// returns the reply with the full transcript. Blank input is ignored.
func (s *ChatService) Send(ctx context.Context, username, message string) (string, []string, error) {
	trimmed := strings.TrimSpace(message)
	if trimmed == "" {
		transcript, err := s.store.Messages(ctx, username)
		return "", transcript, err
	}

	reply := BotReply(trimmed)
	if err := s.store.Append(ctx, username, trimmed, reply); err != nil {
		return "", nil, err
	}
	transcript, err := s.store.Messages(ctx, username)
	return reply, transcript, err
}

// Transcript returns the stored messages for a user.
func (s *ChatService) Transcript(ctx context.Context, username string) ([]string, error) {
	return s.store.Messages(ctx, username)
}

// Clear wipes a user's transcript (the widget's refresh button).
func (s *ChatService) Clear(ctx context.Context, username string) error {
	return s.store.Clear(ctx, username)
}
