package judge

import (
	"context"
	"fmt"
	"strings"

	"github.com/marketlens/brandscope-backend/internal/logger"
	"github.com/marketlens/brandscope-backend/internal/types"
)

// GenerateClient is the structured-output call this provider needs.
// Satisfied by clients/openai.Client.
type GenerateClient interface {
	GenerateJSON(ctx context.Context, system, user, schemaName string, schema map[string]any) (map[string]any, error)
	Model() string
}

const systemPrompt = `You are a meticulous brand-data auditor for a market research pipeline.
You receive consolidated brand and product entities for one vertical, each with evidence text.
Propose corrections only where the evidence supports them:
- "reject": the entity does not belong to this vertical or is not a real brand/product.
- "replace": the name is wrong; wrong_name must be the bad name, correct_name the right one.
- "validate": the entity is confirmed correct and worth recording.
- "add": a clearly evidenced entity is missing from the list; correct_name is its name.
Every suggestion must carry a verbatim evidence_quote copied from the provided evidence.
Be conservative: when unsure, lower the confidence_level rather than inventing support.`

// OpenAIJudge audits batches through an OpenAI-compatible structured-output
// endpoint.
type OpenAIJudge struct {
	log    *logger.Logger
	client GenerateClient
}

func NewOpenAIJudge(baseLog *logger.Logger, client GenerateClient) *OpenAIJudge {
	return &OpenAIJudge{
		log:    baseLog.With("component", "OpenAIJudge"),
		client: client,
	}
}

func (j *OpenAIJudge) Name() string {
	return "openai:" + j.client.Model()
}

func (j *OpenAIJudge) Evaluate(ctx context.Context, batch Batch) ([]*types.CorrectionSuggestion, error) {
	if len(batch.Entities) == 0 {
		return nil, nil
	}
	payload, err := j.client.GenerateJSON(ctx, systemPrompt, buildUserPrompt(batch), "entity_corrections", responseSchema())
	if err != nil {
		return nil, fmt.Errorf("judge call: %w", err)
	}
	suggestions, err := parseSuggestions(j.log, payload)
	if err != nil {
		return nil, err
	}
	// The proposing model is the reviewer of record for anything that
	// later auto-applies; durable records carry it as attribution.
	for _, s := range suggestions {
		s.Reviewer = j.Name()
	}
	j.log.Info("Batch audited",
		"vertical", batch.VerticalName,
		"entities", len(batch.Entities),
		"suggestions", len(suggestions))
	return suggestions, nil
}

func buildUserPrompt(batch Batch) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Vertical: %s\n\n", batch.VerticalName)

	if len(batch.Exemplars) > 0 {
		b.WriteString("Previously accepted corrections in this and related verticals:\n")
		for _, ex := range batch.Exemplars {
			fmt.Fprintf(&b, "- action=%s entity=%q", ex.Action, ex.EntityKey)
			if ex.CorrectValue != "" {
				fmt.Fprintf(&b, " corrected_to=%q", ex.CorrectValue)
			}
			if ex.Reason != "" {
				fmt.Fprintf(&b, " reason=%q", ex.Reason)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("Entities to audit:\n")
	for _, e := range batch.Entities {
		fmt.Fprintf(&b, "\n[%s] %s (%s)\n", e.TargetRef, e.Label, e.EntityType)
		if len(e.Aliases) > 0 {
			fmt.Fprintf(&b, "aliases: %s\n", strings.Join(e.Aliases, ", "))
		}
		if e.Evidence != "" {
			fmt.Fprintf(&b, "evidence: %s\n", e.Evidence)
		}
	}
	return b.String()
}
