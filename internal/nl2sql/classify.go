package nl2sql

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

const classifySystemPrompt = `You are a world class assistant that decides whether a question can be answered by querying a relational database.
Reply with a single JSON object and nothing else.
If the question can be answered with SQL, reply {"kind":"sql_query","keywords":[...],"sub_queries":[...]} where keywords are the schema terms and literal values the query needs and sub_queries are the smaller questions the query must answer.
Otherwise reply {"kind":"error","error_reason":"..."} explaining why no query can answer it.`

func (c *OpenAIClient) Classify(ctx context.Context, question string) (Intent, error) {
	content, err := c.complete(ctx, "classify", chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: classifySystemPrompt},
			{Role: "user", Content: question},
		},
		Temperature:    c.classifyTemperature,
		ResponseFormat: &chatResponseFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassificationTransport, err)
	}
	return ParseIntent(content)
}

type intentPayload struct {
	Kind        string         `json:"kind"`
	Keywords    []string       `json:"keywords"`
	SubQueries  []string       `json:"sub_queries"`
	ErrorReason string         `json:"error_reason"`
	Response    *intentPayload `json:"response"`
}

// ParseIntent turns a classifier reply into an Intent. It accepts the
// object bare, wrapped in a "response" field, or inside a markdown fence,
// and infers the kind when the reply omits it.
func ParseIntent(reply string) (Intent, error) {
	body := stripMarkdownFence(reply)
	if body == "" {
		return nil, fmt.Errorf("%w: empty reply", ErrClassificationFormat)
	}

	var payload intentPayload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrClassificationFormat, err)
	}
	if payload.Response != nil {
		payload = *payload.Response
	}

	reason := strings.TrimSpace(payload.ErrorReason)
	keywords := uniqueNonEmpty(payload.Keywords)
	if len(keywords) > 0 && reason != "" {
		return nil, fmt.Errorf("%w: reply carries both keywords and error_reason", ErrClassificationFormat)
	}

	switch kind := strings.ToLower(strings.TrimSpace(payload.Kind)); kind {
	case "sql_query", "sqlquery", "query":
		if len(keywords) == 0 {
			return nil, fmt.Errorf("%w: sql_query intent without keywords", ErrClassificationFormat)
		}
		return Queryable{Keywords: keywords, SubQueries: uniqueNonEmpty(payload.SubQueries)}, nil
	case "error", "unanswerable":
		if reason == "" {
			return nil, fmt.Errorf("%w: error intent without error_reason", ErrClassificationFormat)
		}
		return Unanswerable{Reason: reason}, nil
	case "":
		switch {
		case len(keywords) > 0:
			return Queryable{Keywords: keywords, SubQueries: uniqueNonEmpty(payload.SubQueries)}, nil
		case reason != "":
			return Unanswerable{Reason: reason}, nil
		default:
			return nil, fmt.Errorf("%w: reply matches neither intent", ErrClassificationFormat)
		}
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", ErrClassificationFormat, kind)
	}
}

func uniqueNonEmpty(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
