package domain

import "context"

// ChatClient is the external language model collaborator.
// Chat sends one non-streaming request and returns the raw model text.
type ChatClient interface {
	Chat(ctx context.Context, systemPrompt string, userMessages []string) (string, error)
}
