package fieldconfig

import (
	"bytes"
	"errors"
	"testing"
)

func TestValidateYAML(t *testing.T) {
	raw := []byte(`
fields:
  - name: policy_id
    keywords: [policy, ID]
    response_type: concise
    description: Policy identifier
  - keywords: [holder, insured]
`)
	v := NewValidator(1 << 20)
	cfg, err := v.Validate(raw, "config.yaml")
	if err != nil {
		t.Fatalf("expected valid config, got error: %v", err)
	}
	if len(cfg.Fields) != 2 {
		t.Fatalf("expected 2 fields, got %d", len(cfg.Fields))
	}
	if cfg.Fields[0].Name != "policy_id" {
		t.Errorf("expected name policy_id, got %q", cfg.Fields[0].Name)
	}
	if got := cfg.Fields[0].Keywords; len(got) != 2 || got[0] != "policy" || got[1] != "ID" {
		t.Errorf("unexpected keywords: %v", got)
	}
	if cfg.Fields[1].Name != "" {
		t.Errorf("expected empty name for second field, got %q", cfg.Fields[1].Name)
	}
	if got := cfg.Fields[1].DisplayName(1); got != "field_2" {
		t.Errorf("expected synthesized field_2, got %q", got)
	}
}

func TestValidateJSON(t *testing.T) {
	raw := []byte(`{"fields": [{"name": "total", "keywords": ["total", "amount"]}]}`)
	cfg, err := NewValidator(1<<20).Validate(raw, "config.json")
	if err != nil {
		t.Fatalf("expected valid config, got error: %v", err)
	}
	if len(cfg.Fields) != 1 || cfg.Fields[0].Name != "total" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestValidateFailureReasons(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		filename string
		reason   string
	}{
		{"malformed yaml", "fields: [unclosed", "config.yaml", ReasonMalformed},
		{"malformed json", `{"fields": `, "config.json", ReasonMalformed},
		{"top level not mapping", "- just\n- a list\n", "config.yaml", ReasonNotMapping},
		{"missing fields key", "other: value\n", "config.yaml", ReasonMissingFields},
		{"fields not a list", "fields: scalar\n", "config.yaml", ReasonFieldsNotList},
		{"fields empty", "fields: []\n", "config.yaml", ReasonFieldsEmpty},
		{"field not mapping", "fields:\n  - scalar\n", "config.yaml", ReasonFieldNotMapping},
		{"field missing keywords", "fields:\n  - name: x\n", "config.yaml", ReasonFieldMissingKeywords},
	}

	v := NewValidator(1 << 20)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Validate([]byte(tt.raw), tt.filename)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigError, got %T", err)
			}
			if cfgErr.Reason != tt.reason {
				t.Errorf("expected reason %q, got %q (%s)", tt.reason, cfgErr.Reason, cfgErr.Message)
			}
		})
	}
}

func TestValidateOversized(t *testing.T) {
	raw := bytes.Repeat([]byte("a"), 101)
	_, err := NewValidator(100).Validate(raw, "config.yaml")
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Reason != ReasonOversized {
		t.Fatalf("expected oversized error, got %v", err)
	}
}

func TestFieldNames(t *testing.T) {
	cfg := &ExtractionConfig{Fields: []FieldSpec{
		{Name: "policy_id", Keywords: []string{"policy"}},
		{Keywords: []string{"holder"}},
	}}
	names := cfg.FieldNames()
	if len(names) != 2 || names[0] != "policy_id" || names[1] != "field_2" {
		t.Errorf("unexpected field names: %v", names)
	}
}
