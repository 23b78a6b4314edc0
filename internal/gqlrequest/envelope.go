package gqlrequest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
)

// Envelope stores normalized request payload data used for GraphQL analysis.
type Envelope struct {
	Method      string
	ContentType string

	Query         string
	OperationName string
	VariablesRaw  json.RawMessage

	DocumentSizeBytes int
}

// DecodeEnvelope extracts GraphQL payload fields from an HTTP request and rewinds
// the body so downstream handlers can read it again.
func DecodeEnvelope(r *http.Request) (Envelope, error) {
	if r == nil {
		return Envelope{}, fmt.Errorf("request is nil")
	}

	env := Envelope{
		Method:      r.Method,
		ContentType: r.Header.Get("Content-Type"),
	}

	if r.Method == http.MethodGet {
		query := r.URL.Query()
		env.Query = query.Get("query")
		env.OperationName = query.Get("operationName")
		if vars := strings.TrimSpace(query.Get("variables")); vars != "" && vars != "null" {
			env.VariablesRaw = json.RawMessage(vars)
		}
		env.DocumentSizeBytes = len(env.Query)
		return env, nil
	}

	if r.Method != http.MethodPost || r.Body == nil {
		return env, nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return env, err
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	mediaType, _, parseErr := mime.ParseMediaType(env.ContentType)
	if parseErr != nil || mediaType == "" {
		mediaType = strings.TrimSpace(env.ContentType)
	}

	if mediaType == "application/graphql" {
		env.Query = string(body)
	} else if err := decodeJSONPayload(body, &env); err != nil {
		return env, err
	}

	env.DocumentSizeBytes = len(env.Query)
	return env, nil
}

// ParseEnvelope reads a request body that is either a JSON payload
// ({"query", "operationName", "variables"}) or a raw GraphQL document.
func ParseEnvelope(body []byte) (Envelope, error) {
	var env Envelope
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '{' && json.Valid(trimmed) {
		env.ContentType = "application/json"
		if err := decodeJSONPayload(trimmed, &env); err != nil {
			return env, err
		}
	} else {
		env.ContentType = "application/graphql"
		env.Query = string(body)
	}
	env.DocumentSizeBytes = len(env.Query)
	return env, nil
}

func decodeJSONPayload(body []byte, env *Envelope) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil
	}
	var payload struct {
		Query         string          `json:"query"`
		OperationName string          `json:"operationName"`
		Variables     json.RawMessage `json:"variables"`
	}
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return err
	}
	env.Query = payload.Query
	env.OperationName = payload.OperationName
	if len(payload.Variables) > 0 && !bytes.Equal(bytes.TrimSpace(payload.Variables), []byte("null")) {
		env.VariablesRaw = append(json.RawMessage(nil), payload.Variables...)
	}
	return nil
}
