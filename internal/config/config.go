package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/marketlens/brandscope-backend/internal/logger"
	"github.com/marketlens/brandscope-backend/internal/utils"
)

// Calibration is the per-deployment tuning file. Every threshold here is
// data, not code: verticals differ and operators retune without rebuilding.
type Calibration struct {
	Consolidate struct {
		EmbedSimilarityThreshold float64 `yaml:"embed_similarity_threshold"`
		EmbedTimeoutMS           int     `yaml:"embed_timeout_ms"`
		EmbedConcurrency         int     `yaml:"embed_concurrency"`
		MaxEmbedPairs            int     `yaml:"max_embed_pairs"`
	} `yaml:"consolidate"`

	Gate struct {
		ProximityWindow int `yaml:"proximity_window"`
		// Keywords maps vertical name to its seed keyword list.
		Keywords map[string][]string `yaml:"keywords"`
	} `yaml:"gate"`

	Corrections struct {
		BatchSize     int `yaml:"batch_size"`
		RetentionDays int `yaml:"retention_days"`
	} `yaml:"corrections"`

	Knowledge struct {
		PropagationMinConfidence float64 `yaml:"propagation_min_confidence"`
		ExemplarLimit            int     `yaml:"exemplar_limit"`
	} `yaml:"knowledge"`
}

func defaults() *Calibration {
	c := &Calibration{}
	c.Consolidate.EmbedSimilarityThreshold = 0.88
	c.Consolidate.EmbedTimeoutMS = 2500
	c.Consolidate.EmbedConcurrency = 8
	c.Consolidate.MaxEmbedPairs = 2000
	c.Gate.ProximityWindow = 120
	c.Corrections.BatchSize = 25
	c.Corrections.RetentionDays = 14
	c.Knowledge.PropagationMinConfidence = 0.8
	c.Knowledge.ExemplarLimit = 12
	return c
}

// Load reads the calibration file named by CALIBRATION_PATH, falling back to
// built-in defaults when unset. Env overrides beat the file for the numeric
// thresholds so one-off tuning needs no file edit.
func Load(log *logger.Logger) (*Calibration, error) {
	c := defaults()

	path := utils.GetEnv("CALIBRATION_PATH", "", log)
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read calibration file: %w", err)
		}
		if err := yaml.Unmarshal(raw, c); err != nil {
			return nil, fmt.Errorf("parse calibration file: %w", err)
		}
		log.Info("Calibration loaded", "path", path)
	}

	c.Consolidate.EmbedSimilarityThreshold = utils.GetEnvAsFloat("EMBED_SIMILARITY_THRESHOLD", c.Consolidate.EmbedSimilarityThreshold, log)
	c.Gate.ProximityWindow = utils.GetEnvAsInt("GATE_PROXIMITY_WINDOW", c.Gate.ProximityWindow, log)
	c.Knowledge.PropagationMinConfidence = utils.GetEnvAsFloat("PROPAGATION_MIN_CONFIDENCE", c.Knowledge.PropagationMinConfidence, log)
	c.Knowledge.ExemplarLimit = utils.GetEnvAsInt("KNOWLEDGE_EXEMPLAR_LIMIT", c.Knowledge.ExemplarLimit, log)
	return c, nil
}

func (c *Calibration) EmbedTimeout() time.Duration {
	return time.Duration(c.Consolidate.EmbedTimeoutMS) * time.Millisecond
}

func (c *Calibration) Retention() time.Duration {
	return time.Duration(c.Corrections.RetentionDays) * 24 * time.Hour
}

// SeedKeywords returns the seed list for one vertical name; missing
// verticals get an empty list and rely on snapshot vocabulary alone.
func (c *Calibration) SeedKeywords(verticalName string) []string {
	return c.Gate.Keywords[verticalName]
}
