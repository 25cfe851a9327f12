package crosslingual

import (
	"github.com/marketlens/brandscope-backend/internal/consolidate"
	"github.com/marketlens/brandscope-backend/internal/knowledge"
	"github.com/marketlens/brandscope-backend/internal/logger"
	"github.com/marketlens/brandscope-backend/internal/normalize"
	"github.com/marketlens/brandscope-backend/internal/types"
)

// Outcome classifies one entity's English/Chinese label pairing.
type Outcome string

const (
	OutcomeValidated   Outcome = "validated"
	OutcomeNeedsReview Outcome = "needs_review"
	OutcomeConflict    Outcome = "conflict"
	OutcomeSkipped     Outcome = "skipped"
)

// Result is the checker's verdict for one entity. When the claimed pairing
// contradicts an attested pair, AttestedLabel carries the label that should
// replace the invented side.
type Result struct {
	Entity        *consolidate.Entity
	Outcome       Outcome
	AttestedLabel string
}

// Checker validates English/Chinese label pairings against attested alias
// pairs. It never invents translations: an unknown pairing is routed to
// review, a contradicted one keeps the attested label and flags the entity.
type Checker struct {
	log      *logger.Logger
	snapshot *knowledge.Snapshot
}

func NewChecker(baseLog *logger.Logger, snapshot *knowledge.Snapshot) *Checker {
	return &Checker{
		log:      baseLog.With("component", "CrossLingualChecker"),
		snapshot: snapshot,
	}
}

// Check audits every entity carrying both an English and a Chinese label,
// then cross-checks the claims against each other: two entities claiming the
// same label on one side with different labels on the other are both flagged.
// Entities are mutated in place (review flags, attested label restoration).
func (c *Checker) Check(entities []*consolidate.Entity) []Result {
	results := make([]Result, 0, len(entities))
	enClaims := map[string][]*consolidate.Entity{}
	zhClaims := map[string][]*consolidate.Entity{}

	for _, e := range entities {
		if e.EnglishLabel == "" || e.ChineseLabel == "" {
			results = append(results, Result{Entity: e, Outcome: OutcomeSkipped})
			continue
		}
		if enKey := normalize.Key(e.EnglishLabel); enKey != "" {
			enClaims[enKey] = append(enClaims[enKey], e)
		}
		if zhKey := normalize.Key(e.ChineseLabel); zhKey != "" {
			zhClaims[zhKey] = append(zhClaims[zhKey], e)
		}
		results = append(results, c.checkPairing(e))
	}

	flagDuplicates(enClaims)
	flagDuplicates(zhClaims)
	return results
}

func (c *Checker) checkPairing(e *consolidate.Entity) Result {
	outcome, attested := c.snapshot.CheckPair(e.EnglishLabel, e.ChineseLabel)
	switch outcome {
	case knowledge.PairKnown:
		return Result{Entity: e, Outcome: OutcomeValidated}
	case knowledge.PairConflict:
		// The attested pair wins. Whichever side of the claim disagrees with
		// it was invented by some extraction pass; restore the attested label
		// and keep the invented one as an alias for audit.
		result := Result{Entity: e, Outcome: OutcomeConflict}
		if normalize.Key(attested.Chinese) == normalize.Key(e.ChineseLabel) {
			result.AttestedLabel = attested.English
			if attested.English != e.EnglishLabel {
				e.Aliases = append(e.Aliases, e.EnglishLabel)
				e.EnglishLabel = attested.English
			}
		} else {
			result.AttestedLabel = attested.Chinese
			if attested.Chinese != e.ChineseLabel {
				e.Aliases = append(e.Aliases, e.ChineseLabel)
				e.ChineseLabel = attested.Chinese
			}
		}
		setFlag(e, types.ReviewFlagConflictingTranslation)
		c.log.Warn("Claimed translation contradicts attested pair",
			"label", e.Label,
			"attested", result.AttestedLabel)
		return result
	default:
		// Unknown pairing. Nothing contradicts it, but nothing attests it
		// either, so a human decides.
		setFlag(e, types.ReviewFlagNeedsReview)
		return Result{Entity: e, Outcome: OutcomeNeedsReview}
	}
}

// flagDuplicates flags every entity group claiming the same label on one side
// while disagreeing on the other. No tie-break is attempted.
func flagDuplicates(claims map[string][]*consolidate.Entity) {
	for _, group := range claims {
		if len(group) < 2 {
			continue
		}
		for _, e := range group {
			setFlag(e, types.ReviewFlagConflictingAlias)
		}
	}
}

// setFlag upgrades an entity's review flag; conflict flags take precedence
// over a plain needs_review.
func setFlag(e *consolidate.Entity, flag string) {
	if e.ReviewFlag == types.ReviewFlagNone || e.ReviewFlag == types.ReviewFlagNeedsReview {
		e.ReviewFlag = flag
	}
}
