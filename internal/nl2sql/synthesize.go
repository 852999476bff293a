package nl2sql

import (
	"context"
	"fmt"
	"strings"
)

func (c *OpenAIClient) Synthesize(ctx context.Context, question, schemaText string) (string, error) {
	content, err := c.complete(ctx, "synthesize", chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: c.synthesizeSystemPrompt()},
			{Role: "user", Content: synthesizePrompt(question, schemaText)},
		},
		Temperature: c.synthesizeTemperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrSynthesisTransport, err)
	}
	return content, nil
}

func (c *OpenAIClient) synthesizeSystemPrompt() string {
	prompt := "You are a world class SQL assistant. Terminate every statement with a semicolon."
	if c.dialect != "" {
		prompt += " Write SQL for " + c.dialect + "."
	}
	return prompt
}

func synthesizePrompt(question, schemaText string) string {
	var b strings.Builder
	b.WriteString("Given the following schema information, what is the SQL query to answer the question? Just provide the SQL query.\n\n")
	b.WriteString(schemaText)
	b.WriteString("\n\nQuestion: ")
	b.WriteString(question)
	b.WriteString("\n\nSQL Query:")
	return b.String()
}
