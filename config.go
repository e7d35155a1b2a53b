package recordauth

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ============================================================================
// CONFIGURATION
// ============================================================================

// Config is the persisted deployment configuration: the tenant identifier
// grammar, cache sizing and one rule tree pair per record type. Rule
// validation happens when the registry is built, so a malformed tree
// fails at startup, not at first request.
type Config struct {
	Version        int                         `json:"version" yaml:"version"`
	TenantIDFormat string                      `json:"tenant_id_format" yaml:"tenant_id_format"`
	Engine         EngineConfig                `json:"engine" yaml:"engine"`
	RecordTypes    map[string]RecordTypeConfig `json:"record_types" yaml:"record_types"`
}

// RecordTypeConfig carries the two rule trees for one record type. Each
// tree is either an inline grammar object or a "@name" reference to a
// named template. Record type keys may contain '*' wildcards.
type RecordTypeConfig struct {
	Read  any `json:"read" yaml:"read"`
	Write any `json:"write" yaml:"write"`
}

// EngineConfig sizes the compiled-predicate cache.
type EngineConfig struct {
	PredicateCacheTTL   int64 `json:"predicate_cache_ttl_ms" yaml:"predicate_cache_ttl_ms"`
	RistrettoNumCounter int64 `json:"ristretto_num_counter" yaml:"ristretto_num_counter"`
	RistrettoMaxCost    int64 `json:"ristretto_max_cost" yaml:"ristretto_max_cost"`
	RistrettoBuffer     int64 `json:"ristretto_buffer" yaml:"ristretto_buffer"`
}

// ConfigLoader loads configuration from the supported formats.
type ConfigLoader struct{}

func NewConfigLoader() *ConfigLoader {
	return &ConfigLoader{}
}

func (l *ConfigLoader) LoadYAML(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l *ConfigLoader) LoadJSON(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ToYAML exports config to YAML.
func (c *Config) ToYAML() ([]byte, error) {
	return yaml.Marshal(c)
}

// ToJSON exports config to JSON.
func (c *Config) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

// Grammar returns the deployment's tenant identifier grammar.
func (c *Config) Grammar() (TenantIDGrammar, error) {
	return ParseTenantIDGrammar(c.TenantIDFormat)
}

// BuildRegistry parses and validates every record type's rule trees and
// returns the populated registry. The first malformed tree aborts the
// whole build: a deployment with a broken policy must not come up.
func (c *Config) BuildRegistry() (*Registry, error) {
	reg := NewRegistry()
	for recordType, rt := range c.RecordTypes {
		policy, err := rt.parse()
		if err != nil {
			return nil, fmt.Errorf("record type %q: %w", recordType, err)
		}
		if strings.ContainsRune(recordType, '*') {
			reg.RegisterPattern(recordType, policy)
		} else {
			reg.Register(recordType, policy)
		}
	}
	return reg, nil
}

func (rt RecordTypeConfig) parse() (RecordTypePolicy, error) {
	read, err := parseConfigRule(rt.Read)
	if err != nil {
		return RecordTypePolicy{}, fmt.Errorf("read: %w", err)
	}
	write, err := parseConfigRule(rt.Write)
	if err != nil {
		return RecordTypePolicy{}, fmt.Errorf("write: %w", err)
	}
	return RecordTypePolicy{Read: read, Write: write}, nil
}

// parseConfigRule accepts "@template-name" references and inline grammar
// objects. An omitted tree stays nil, which denies.
func parseConfigRule(v any) (Rule, error) {
	if v == nil {
		return nil, nil
	}
	if s, ok := v.(string); ok {
		name, ok := strings.CutPrefix(s, "@")
		if !ok {
			return nil, fmt.Errorf("%w: rule string must reference a template (\"@name\"), got %q", ErrMalformedRule, s)
		}
		return TemplateRule(name)
	}
	return ParseRuleValue(v)
}
