package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// mergeFile overlays the YAML file at path onto c. Keys absent from the file
// keep their current value; unknown keys are an error so typos surface early.
//
// Example:
//
//	llm_provider: groq
//	groq:
//	  model: mixtral-8x7b-32768
//	retry:
//	  max_attempts: 5
//	  warmup_delay: 20s
//	loading_patterns:
//	  - "over capacity"
func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}
