package corrections

import (
	"strings"

	"github.com/marketlens/brandscope-backend/internal/logger"
	"github.com/marketlens/brandscope-backend/internal/types"
	"github.com/marketlens/brandscope-backend/internal/utils"
)

// ActionRule is the auto-apply bar for one correction action: both the
// numeric score and the categorical level must clear it.
type ActionRule struct {
	MinScore float64
	MinLevel types.ConfidenceLevel
}

// Policy decides whether a suggestion may be applied without a human in the
// loop. Rejections carry a lower bar than mutations: a wrong rejection loses
// one data point, a wrong replace corrupts the knowledge store.
type Policy struct {
	rules map[types.CorrectionAction]ActionRule
	// RequireEvidenceInSource demands that the judge's evidence quote appear
	// verbatim in the candidate's evidence text before auto-applying.
	RequireEvidenceInSource bool
}

func DefaultPolicy() *Policy {
	return &Policy{
		rules: map[types.CorrectionAction]ActionRule{
			types.ActionReject:   {MinScore: 0.85, MinLevel: types.ConfidenceHigh},
			types.ActionValidate: {MinScore: 0.95, MinLevel: types.ConfidenceVeryHigh},
			types.ActionReplace:  {MinScore: 0.95, MinLevel: types.ConfidenceVeryHigh},
			types.ActionAdd:      {MinScore: 0.95, MinLevel: types.ConfidenceVeryHigh},
		},
		RequireEvidenceInSource: true,
	}
}

// PolicyFromEnv builds the default policy with per-action threshold
// overrides, e.g. CORRECTION_REJECT_MIN_SCORE=0.9. Scores are freely
// tunable; the level bar can only be raised: auto-apply below HIGH is never
// allowed, so lower or unknown configured levels clamp to HIGH.
func PolicyFromEnv(log *logger.Logger) *Policy {
	p := DefaultPolicy()
	for action, rule := range p.rules {
		prefix := "CORRECTION_" + strings.ToUpper(string(action))
		rule.MinScore = utils.GetEnvAsFloat(prefix+"_MIN_SCORE", rule.MinScore, log)
		level := types.ConfidenceLevel(utils.GetEnv(prefix+"_MIN_LEVEL", string(rule.MinLevel), log))
		if level.Rank() < types.ConfidenceHigh.Rank() {
			log.Warn("Configured auto-apply level below HIGH, clamping",
				"action", action,
				"configured", level)
			level = types.ConfidenceHigh
		}
		rule.MinLevel = level
		p.rules[action] = rule
	}
	p.RequireEvidenceInSource = utils.GetEnvAsInt("CORRECTION_REQUIRE_EVIDENCE", 1, log) != 0
	return p
}

// Rule exposes the bar for one action; unknown actions get an impossible bar.
func (p *Policy) Rule(action types.CorrectionAction) ActionRule {
	if rule, ok := p.rules[action]; ok {
		return rule
	}
	return ActionRule{MinScore: 1.01, MinLevel: types.ConfidenceVeryHigh}
}

// AutoApplicable reports whether the suggestion clears the auto-apply bar.
// sourceText is the evidence the suggestion was judged against; pass "" when
// the evidence check is disabled upstream.
func (p *Policy) AutoApplicable(s *types.CorrectionSuggestion, sourceText string) bool {
	rule := p.Rule(s.Action)
	if s.ConfidenceScore < rule.MinScore {
		return false
	}
	if s.ConfidenceLevel.Rank() < rule.MinLevel.Rank() {
		return false
	}
	if p.RequireEvidenceInSource {
		quote := strings.TrimSpace(s.EvidenceQuote)
		if quote == "" {
			return false
		}
		if !strings.Contains(sourceText, quote) {
			return false
		}
	}
	return true
}
