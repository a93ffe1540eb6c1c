package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
)

//go:embed schema.json
var embeddedSchema string

// schemaNode is the part of JSON schema needed to check config keys
type schemaNode struct {
	Ref        string                 `json:"$ref"`
	Properties map[string]*schemaNode `json:"properties"`
	Defs       map[string]*schemaNode `json:"$defs"`
}

// VerifyAgainstEmbeddedSchema validates the config against the embedded JSON schema.
// Checks that every config key is known to the schema and that required values are set.
func VerifyAgainstEmbeddedSchema(cfg *Config) error {
	var schema schemaNode
	if err := json.Unmarshal([]byte(embeddedSchema), &schema); err != nil {
		return fmt.Errorf("parse embedded schema: %w", err)
	}

	configData, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	var configMap map[string]any
	if err := json.Unmarshal(configData, &configMap); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	if err := checkKeys(&schema, schema.Defs, configMap, ""); err != nil {
		return err
	}

	if err := validateRequiredFields(cfg); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	return nil
}

// checkKeys walks config object and reports keys missing in the schema
func checkKeys(s *schemaNode, defs map[string]*schemaNode, obj map[string]any, prefix string) error {
	s = resolve(s, defs)
	if s == nil || s.Properties == nil {
		return nil
	}
	for key, val := range obj {
		prop, ok := s.Properties[key]
		if !ok {
			return fmt.Errorf("unknown config key %s%s", prefix, key)
		}
		if nested, isObj := val.(map[string]any); isObj {
			if err := checkKeys(prop, defs, nested, prefix+key+"."); err != nil {
				return err
			}
		}
	}
	return nil
}

func resolve(s *schemaNode, defs map[string]*schemaNode) *schemaNode {
	for s != nil && strings.HasPrefix(s.Ref, "#/$defs/") {
		s = defs[strings.TrimPrefix(s.Ref, "#/$defs/")]
	}
	return s
}

// validateRequiredFields performs basic validation of required fields
func validateRequiredFields(cfg *Config) error {
	if cfg.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}
	if cfg.Server.Timeout == 0 {
		return fmt.Errorf("server.timeout is required")
	}
	if cfg.Database.DSN == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if cfg.Server.BaseURL == "" {
		return fmt.Errorf("server.base_url is required")
	}
	return nil
}

// GenerateSchema generates a JSON schema for the Config struct
func GenerateSchema() *jsonschema.Schema {
	return jsonschema.Reflect(&Config{})
}
