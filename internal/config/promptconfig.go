// Package config provides configuration loading utilities for prompt presets.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// PromptConfig holds the system prompt and named presets for summarization.
type PromptConfig struct {
	SystemPrompt string            `yaml:"system_prompt"`
	Presets      map[string]string `yaml:"presets"`
}

// defaultSystemPrompt is used when no prompt file is configured or present.
const defaultSystemPrompt = `You are an assistant that summarizes meeting transcripts.
Produce a concise structured summary with these sections:
- Key points
- Decisions made
- Action items (with owners where stated)
Keep the summary factual; do not invent content absent from the transcript.`

// LoadPromptConfig loads the prompt configuration from a YAML file. A missing
// file is not an error: the built-in default prompt is returned so the server
// runs without any configs directory.
func LoadPromptConfig(path string) (*PromptConfig, error) {
	cfg := &PromptConfig{SystemPrompt: defaultSystemPrompt, Presets: map[string]string{}}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read prompt config %s: %w", path, err)
	}
	var file PromptConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse prompt config %s: %w", path, err)
	}
	if strings.TrimSpace(file.SystemPrompt) != "" {
		cfg.SystemPrompt = file.SystemPrompt
	}
	for name, preset := range file.Presets {
		if strings.TrimSpace(preset) != "" {
			cfg.Presets[name] = preset
		}
	}
	return cfg, nil
}

// Resolve returns the prompt to use for a request: a preset when customPrompt
// names one, the custom prompt verbatim otherwise, or the system prompt.
func (p *PromptConfig) Resolve(customPrompt string) string {
	customPrompt = strings.TrimSpace(customPrompt)
	if customPrompt == "" {
		return p.SystemPrompt
	}
	if preset, ok := p.Presets[customPrompt]; ok {
		return preset
	}
	return customPrompt
}
