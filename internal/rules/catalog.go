package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/joescharf/cq/internal/models"
)

// Catalog is the shared, read-only rule registry. Build it once with
// NewCatalog and reuse it across analyzer invocations; per-call custom
// rules are layered on by the analyzer, never added here.
type Catalog struct {
	rules []Rule
}

// NewCatalog returns the built-in catalog with all rule groups in their
// canonical registration order. The order is part of the analyzer's
// determinism contract.
func NewCatalog() *Catalog {
	c := &Catalog{}
	c.rules = append(c.rules, securityRules()...)
	c.rules = append(c.rules, accessibilityRules()...)
	c.rules = append(c.rules, performanceRules()...)
	c.rules = append(c.rules, styleRules()...)
	return c
}

// All returns every registered rule in registration order.
func (c *Catalog) All() []Rule {
	out := make([]Rule, len(c.rules))
	copy(out, c.rules)
	return out
}

// RulesFor returns the rules applicable to the given file-type tag, in
// registration order. Rules with no applicability tags are generic and
// always included.
func (c *Catalog) RulesFor(fileType string) []Rule {
	var out []Rule
	for _, r := range c.rules {
		if Applies(r, fileType) {
			out = append(out, r)
		}
	}
	return out
}

// Applies reports whether the rule runs for the given file-type tag.
func Applies(r Rule, fileType string) bool {
	tags := r.AppliesTo()
	if len(tags) == 0 {
		return true
	}
	for _, t := range tags {
		if t == fileType {
			return true
		}
	}
	return false
}

// ruleFile is the YAML shape of a custom rules file.
type ruleFile struct {
	Rules []models.RuleSpec `yaml:"rules"`
}

// LoadSpecs reads custom rule specs from a YAML file. Individual specs
// are not compiled here; the analyzer compiles them per call so a bad
// pattern degrades that call instead of startup.
func LoadSpecs(path string) ([]models.RuleSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	var f ruleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse rules file %s: %w", path, err)
	}
	return f.Rules, nil
}
