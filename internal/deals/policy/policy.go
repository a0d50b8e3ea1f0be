// Package policy loads the engagement scoring and automation tables.
//
// Compiled defaults are layered with an optional YAML file and DEALFLOW_POLICY_
// environment variables (double underscore separates levels, for example
// DEALFLOW_POLICY_THRESHOLDS__HOT=75).
package policy

import (
	"errors"
	"fmt"
	"strings"

	"dealflow_backend/internal/deals/automation"
	"dealflow_backend/internal/deals/engagement"
	"dealflow_backend/internal/deals/lifecycle"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "DEALFLOW_POLICY_"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid engagement policy")

// Policy is the full declarative configuration of the deal engine.
type Policy struct {
	Weights    engagement.Weights    `koanf:"weights" json:"weights"`
	Thresholds engagement.Thresholds `koanf:"thresholds" json:"thresholds"`
	Lifecycle  lifecycle.Policy      `koanf:"lifecycle" json:"lifecycle"`
	Automation automation.Policy     `koanf:"automation" json:"automation"`
}

// Default returns the compiled-in policy.
func Default() Policy {
	return Policy{
		Weights:    engagement.DefaultWeights(),
		Thresholds: engagement.DefaultThresholds,
		Lifecycle:  lifecycle.DefaultPolicy,
		Automation: automation.DefaultPolicy(),
	}
}

// Validate checks every table.
func (p Policy) Validate() error {
	if reason := p.Weights.Validate(); reason != "" {
		return fmt.Errorf("%w: weights: %s", ErrInvalid, reason)
	}
	if p.Thresholds.Warm < 0 || p.Thresholds.Hot <= p.Thresholds.Warm || p.Thresholds.Hot > engagement.MaxScore {
		return fmt.Errorf("%w: thresholds must satisfy 0 <= warm < hot <= %d", ErrInvalid, engagement.MaxScore)
	}
	if reason := p.Lifecycle.Validate(); reason != "" {
		return fmt.Errorf("%w: lifecycle: %s", ErrInvalid, reason)
	}
	if reason := p.Automation.Validate(); reason != "" {
		return fmt.Errorf("%w: automation: %s", ErrInvalid, reason)
	}
	return nil
}

// replaceable lists the keys holding tables that an override replaces
// wholesale rather than merging element by element.
var replaceable = []string{
	"weights.completion.bands",
	"weights.recency.bands",
	"automation.rules",
}

// Load builds the policy. path may be empty.
func Load(path string) (Policy, error) {
	k := koanf.New(".")

	if strings.TrimSpace(path) != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Policy{}, fmt.Errorf("load policy file %s: %w", path, err)
		}
	}

	envProvider := env.Provider(envPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, envPrefix)
		return strings.ReplaceAll(strings.ToLower(s), "__", ".")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return Policy{}, fmt.Errorf("load policy env: %w", err)
	}

	p := Default()
	for _, key := range replaceable {
		if !k.Exists(key) {
			continue
		}
		switch key {
		case "weights.completion.bands":
			p.Weights.Completion.Bands = nil
		case "weights.recency.bands":
			p.Weights.Recency.Bands = nil
		case "automation.rules":
			p.Automation.Rules = nil
		}
	}

	if err := k.UnmarshalWithConf("", &p, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Policy{}, fmt.Errorf("decode policy: %w", err)
	}

	if err := p.Validate(); err != nil {
		return Policy{}, err
	}
	return p, nil
}
