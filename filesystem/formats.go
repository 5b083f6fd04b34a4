package filesystem

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
)

// ReadJSON reads and parses a JSON file.
func (s *Service) ReadJSON(path string, out interface{}) error {
	content, err := s.ReadFile(path)
	if err != nil {
		return err
	}
	if err := sonic.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("invalid JSON in %s: %w", path, err)
	}
	return nil
}

// WriteJSON writes value as indented JSON.
func (s *Service) WriteJSON(path string, value interface{}) error {
	data, err := sonic.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("JSON serialization failed for %s: %w", path, err)
	}
	return s.WriteFile(path, string(data))
}

// ReadYAML reads and parses a YAML file.
func (s *Service) ReadYAML(path string, out interface{}) error {
	content, err := s.ReadFile(path)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("invalid YAML in %s: %w", path, err)
	}
	return nil
}

// WriteYAML writes value as YAML.
func (s *Service) WriteYAML(path string, value interface{}) error {
	data, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("YAML serialization failed for %s: %w", path, err)
	}
	return s.WriteFile(path, string(data))
}

// ReadTOML reads and parses a TOML file.
func (s *Service) ReadTOML(path string, out interface{}) error {
	content, err := s.ReadFile(path)
	if err != nil {
		return err
	}
	if err := toml.Unmarshal([]byte(content), out); err != nil {
		return fmt.Errorf("invalid TOML in %s: %w", path, err)
	}
	return nil
}

// WriteTOML writes value as TOML.
func (s *Service) WriteTOML(path string, value interface{}) error {
	data, err := toml.Marshal(value)
	if err != nil {
		return fmt.Errorf("TOML serialization failed for %s: %w", path, err)
	}
	return s.WriteFile(path, string(data))
}
