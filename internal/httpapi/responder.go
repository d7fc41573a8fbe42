package httpapi

import (
	"context"
	"errors"
	"strings"

	"deepresearch/internal/openrouter"
	"deepresearch/internal/research"
)

type completionClient interface {
	Complete(ctx context.Context, req openrouter.CompletionRequest) (string, error)
}

// modelResponder adapts the OpenRouter client to the narrow PromptResponder
// surface the research capabilities consume, binding one model and system
// instruction per capability.
type modelResponder struct {
	client  completionClient
	modelID string
	system  string
}

func newModelResponder(client completionClient, modelID, system string) research.PromptResponder {
	if client == nil || strings.TrimSpace(modelID) == "" {
		return nil
	}
	return modelResponder{
		client:  client,
		modelID: strings.TrimSpace(modelID),
		system:  strings.TrimSpace(system),
	}
}

func (r modelResponder) Respond(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("prompt is empty")
	}

	messages := make([]openrouter.Message, 0, 2)
	if r.system != "" {
		messages = append(messages, openrouter.Message{Role: "system", Content: r.system})
	}
	messages = append(messages, openrouter.Message{Role: "user", Content: prompt})

	response, err := r.client.Complete(ctx, openrouter.CompletionRequest{
		Model:    r.modelID,
		Messages: messages,
	})
	if err != nil {
		return "", err
	}

	response = strings.TrimSpace(response)
	if response == "" {
		return "", errors.New("model response was empty")
	}
	return response, nil
}
