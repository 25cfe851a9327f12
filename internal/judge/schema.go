package judge

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/marketlens/brandscope-backend/internal/logger"
	"github.com/marketlens/brandscope-backend/internal/types"
)

// rawSuggestion is the wire form of one model-proposed correction. Field
// constraints mirror the JSON schema sent to the provider; validation here
// is the trust boundary for model output.
type rawSuggestion struct {
	TargetRef       string  `json:"target_ref" validate:"required"`
	Action          string  `json:"action" validate:"required,oneof=validate replace reject add"`
	WrongName       string  `json:"wrong_name" validate:"required_if=Action replace"`
	CorrectName     string  `json:"correct_name" validate:"required_if=Action replace,required_if=Action add"`
	Reason          string  `json:"reason" validate:"required"`
	EvidenceQuote   string  `json:"evidence_quote"`
	ConfidenceLevel string  `json:"confidence_level" validate:"required,oneof=LOW MEDIUM HIGH VERY_HIGH"`
	ConfidenceScore float64 `json:"confidence_score" validate:"gte=0,lte=1"`
}

type rawResponse struct {
	Suggestions []rawSuggestion `json:"suggestions"`
}

var validate = validator.New()

// responseSchema is the strict JSON schema the provider is constrained to.
func responseSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []string{"suggestions"},
		"properties": map[string]any{
			"suggestions": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"required": []string{
						"target_ref", "action", "wrong_name", "correct_name",
						"reason", "evidence_quote", "confidence_level", "confidence_score",
					},
					"properties": map[string]any{
						"target_ref":   map[string]any{"type": "string"},
						"action":       map[string]any{"type": "string", "enum": []string{"validate", "replace", "reject", "add"}},
						"wrong_name":   map[string]any{"type": "string"},
						"correct_name": map[string]any{"type": "string"},
						"reason":       map[string]any{"type": "string"},
						"evidence_quote": map[string]any{
							"type":        "string",
							"description": "verbatim quote from the provided evidence supporting the action",
						},
						"confidence_level": map[string]any{"type": "string", "enum": []string{"LOW", "MEDIUM", "HIGH", "VERY_HIGH"}},
						"confidence_score": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
					},
				},
			},
		},
	}
}

// parseSuggestions converts and validates the provider's structured payload.
// Violating entries are dropped and logged; the rest survive.
func parseSuggestions(log *logger.Logger, payload map[string]any) ([]*types.CorrectionSuggestion, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("re-encode payload: %w", err)
	}
	var resp rawResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode suggestions: %w", err)
	}

	out := make([]*types.CorrectionSuggestion, 0, len(resp.Suggestions))
	for i, s := range resp.Suggestions {
		if err := validate.Struct(s); err != nil {
			log.Warn("Discarding suggestion failing schema validation",
				"index", i,
				"target_ref", s.TargetRef,
				"action", s.Action,
				"error", err)
			continue
		}
		level := types.ConfidenceLevel(s.ConfidenceLevel)
		if !level.ScoreInBucket(s.ConfidenceScore) {
			log.Warn("Discarding suggestion with inconsistent confidence",
				"index", i,
				"target_ref", s.TargetRef,
				"level", s.ConfidenceLevel,
				"score", s.ConfidenceScore)
			continue
		}
		out = append(out, &types.CorrectionSuggestion{
			TargetRef:       s.TargetRef,
			Action:          types.CorrectionAction(s.Action),
			WrongName:       s.WrongName,
			CorrectName:     s.CorrectName,
			Reason:          s.Reason,
			EvidenceQuote:   s.EvidenceQuote,
			ConfidenceLevel: level,
			ConfidenceScore: s.ConfidenceScore,
			State:           types.SuggestionProposed,
		})
	}
	return out, nil
}
