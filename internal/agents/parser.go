package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kaptinlin/jsonrepair"

	finqaerrors "finqa/internal/errors"
	"finqa/internal/llm"
	"finqa/internal/logging"
)

// CandidateAnswer is a proposed answer with its rationale trace.
type CandidateAnswer struct {
	Steps  []string `json:"steps"`
	Answer string   `json:"answer"`
}

// correctiveInstruction is appended to the conversation when the model's
// output could not be parsed, describing the exact expected shape.
const correctiveInstruction = `Your previous reply could not be parsed. Reply again with a single JSON object of exactly this shape and nothing else:
{"steps": ["<calculation step>", "..."], "answer": "<final numeric answer>"}`

// ParseCandidate maps raw model text onto a CandidateAnswer. It tolerates
// markdown code fences and near-JSON damage (single quotes, trailing commas)
// by running the payload through jsonrepair before decoding. A payload that
// still cannot be decoded, or that lacks steps or a non-empty answer, fails
// with *errors.MalformedOutputError.
func ParseCandidate(raw string) (*CandidateAnswer, error) {
	payload := extractJSONPayload(raw)
	if strings.TrimSpace(payload) == "" {
		return nil, malformed(raw, "empty output")
	}

	repaired, err := jsonrepair.JSONRepair(payload)
	if err != nil {
		return nil, malformed(raw, fmt.Sprintf("not repairable JSON: %v", err))
	}

	var candidate CandidateAnswer
	if err := json.Unmarshal([]byte(repaired), &candidate); err != nil {
		return nil, malformed(raw, fmt.Sprintf("decode failed: %v", err))
	}

	if strings.TrimSpace(candidate.Answer) == "" {
		return nil, malformed(raw, "missing answer field")
	}
	if len(candidate.Steps) == 0 {
		return nil, malformed(raw, "missing steps field")
	}

	return &candidate, nil
}

func malformed(raw, reason string) error {
	const keepRaw = 500
	if len(raw) > keepRaw {
		raw = raw[:keepRaw]
	}
	return &finqaerrors.MalformedOutputError{Raw: raw, Reason: reason}
}

// extractJSONPayload strips a surrounding markdown code fence when present and
// otherwise narrows to the outermost object braces.
func extractJSONPayload(raw string) string {
	s := strings.TrimSpace(raw)

	if idx := strings.Index(s, "```"); idx >= 0 {
		rest := s[idx+3:]
		rest = strings.TrimPrefix(rest, "json")
		if end := strings.Index(rest, "```"); end >= 0 {
			s = strings.TrimSpace(rest[:end])
		} else {
			s = strings.TrimSpace(rest)
		}
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		return s[start : end+1]
	}
	return s
}

// generateCandidate calls the generation client and parses its output into a
// CandidateAnswer, re-invoking generation with a corrective instruction on
// parse failure, up to parseRetries extra attempts. Generation errors
// (transport, content filter) propagate unchanged; only parse failures are
// retried here.
func generateCandidate(ctx context.Context, client llm.Client, temperature float64, messages []llm.Message, parseRetries int, logger logging.Logger) (*CandidateAnswer, error) {
	logger = logging.OrNop(logger)
	conversation := messages

	var lastErr error
	for attempt := 0; attempt <= parseRetries; attempt++ {
		resp, err := client.Complete(ctx, llm.CompletionRequest{
			Messages:    conversation,
			Temperature: temperature,
		})
		if err != nil {
			return nil, err
		}

		candidate, parseErr := ParseCandidate(resp.Content)
		if parseErr == nil {
			return candidate, nil
		}
		if !finqaerrors.IsMalformed(parseErr) {
			return nil, parseErr
		}

		lastErr = parseErr
		logger.Debug("parse attempt %d/%d failed: %v", attempt+1, parseRetries+1, parseErr)

		conversation = append(conversation,
			llm.Message{Role: "assistant", Content: resp.Content},
			llm.Message{Role: "user", Content: correctiveInstruction},
		)
	}

	return nil, lastErr
}
