// Package fieldconfig parses and validates user-supplied field-extraction
// schemas. A schema is a YAML or JSON mapping with a `fields` sequence;
// every field entry must carry a `keywords` list.
package fieldconfig

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	ReasonOversized            = "oversized"
	ReasonMalformed            = "malformed"
	ReasonNotMapping           = "not_mapping"
	ReasonMissingFields        = "missing_fields"
	ReasonFieldsNotList        = "fields_not_list"
	ReasonFieldsEmpty          = "fields_empty"
	ReasonFieldNotMapping      = "field_not_mapping"
	ReasonFieldMissingKeywords = "field_missing_keywords"
)

// ConfigError reports why a schema was rejected. Reason is one of the
// Reason* constants so callers can tell failure modes apart without
// matching on message text.
type ConfigError struct {
	Reason  string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

func configErrorf(reason, format string, args ...interface{}) *ConfigError {
	return &ConfigError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}

// FieldSpec describes one extraction target.
type FieldSpec struct {
	Name         string   `json:"name,omitempty" yaml:"name,omitempty"`
	Keywords     []string `json:"keywords" yaml:"keywords"`
	ResponseType string   `json:"response_type,omitempty" yaml:"response_type,omitempty"`
	Description  string   `json:"description,omitempty" yaml:"description,omitempty"`
}

// DisplayName returns the field's name, or a synthesized "field_N" (1-based)
// when the schema did not provide one.
func (f FieldSpec) DisplayName(index int) string {
	if f.Name != "" {
		return f.Name
	}
	return fmt.Sprintf("field_%d", index+1)
}

type ExtractionConfig struct {
	Fields []FieldSpec `json:"fields" yaml:"fields"`
}

// FieldNames returns the display names of all fields, in schema order.
func (c *ExtractionConfig) FieldNames() []string {
	names := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		names[i] = f.DisplayName(i)
	}
	return names
}

// Validator checks raw schema bytes against the structural rules. MaxSize
// bounds the accepted payload in bytes.
type Validator struct {
	MaxSize int64
}

func NewValidator(maxSize int64) *Validator {
	return &Validator{MaxSize: maxSize}
}

// Validate parses raw as JSON when filename ends in .json, otherwise as
// YAML, and applies the structural checks in order. It is a pure function
// of its inputs; session creation is the caller's concern.
func (v *Validator) Validate(raw []byte, filename string) (*ExtractionConfig, error) {
	if int64(len(raw)) > v.MaxSize {
		return nil, configErrorf(ReasonOversized, "config file exceeds %dMB limit", v.MaxSize/1024/1024)
	}

	var parsed interface{}
	var err error
	if strings.HasSuffix(strings.ToLower(filename), ".json") {
		err = json.Unmarshal(raw, &parsed)
	} else {
		err = yaml.Unmarshal(raw, &parsed)
	}
	if err != nil {
		return nil, configErrorf(ReasonMalformed, "invalid config format: %v", err)
	}

	top, ok := asMapping(parsed)
	if !ok {
		return nil, configErrorf(ReasonNotMapping, "config must be a mapping")
	}

	fieldsValue, ok := top["fields"]
	if !ok {
		return nil, configErrorf(ReasonMissingFields, "config must contain 'fields' key")
	}

	fieldsList, ok := fieldsValue.([]interface{})
	if !ok {
		return nil, configErrorf(ReasonFieldsNotList, "fields must be a list")
	}
	if len(fieldsList) == 0 {
		return nil, configErrorf(ReasonFieldsEmpty, "fields must not be empty")
	}

	cfg := &ExtractionConfig{Fields: make([]FieldSpec, 0, len(fieldsList))}
	for _, entry := range fieldsList {
		fieldMap, ok := asMapping(entry)
		if !ok {
			return nil, configErrorf(ReasonFieldNotMapping, "each field must be a mapping")
		}
		if _, ok := fieldMap["keywords"]; !ok {
			return nil, configErrorf(ReasonFieldMissingKeywords, "field missing 'keywords' list")
		}
		cfg.Fields = append(cfg.Fields, decodeField(fieldMap))
	}

	return cfg, nil
}

// asMapping normalizes the mapping shapes produced by the JSON and YAML
// decoders into map[string]interface{}.
func asMapping(value interface{}) (map[string]interface{}, bool) {
	switch m := value.(type) {
	case map[string]interface{}:
		return m, true
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(m))
		for k, v := range m {
			out[fmt.Sprint(k)] = v
		}
		return out, true
	default:
		return nil, false
	}
}

func decodeField(m map[string]interface{}) FieldSpec {
	spec := FieldSpec{}
	if name, ok := m["name"].(string); ok {
		spec.Name = name
	}
	if rt, ok := m["response_type"].(string); ok {
		spec.ResponseType = rt
	}
	if desc, ok := m["description"].(string); ok {
		spec.Description = desc
	}
	if kws, ok := m["keywords"].([]interface{}); ok {
		for _, kw := range kws {
			spec.Keywords = append(spec.Keywords, fmt.Sprint(kw))
		}
	}
	return spec
}
