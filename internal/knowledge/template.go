package knowledge

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Template wraps a question in the system prompt and the fixed text placed
// before and after it.
type Template struct {
	Name                   string          `yaml:"-"`
	SystemPrompt           string          `yaml:"system_prompt"`
	PreUserMessageContent  string          `yaml:"pre_user_message_content"`
	PostUserMessageContent string          `yaml:"post_user_message_content"`
	ResponseFormat         *ResponseFormat `yaml:"response_format,omitempty"`
}

// ResponseFormat is a JSON schema the answer must follow.
type ResponseFormat struct {
	Name        string         `yaml:"name" json:"name"`
	Strict      bool           `yaml:"strict" json:"strict"`
	Description string         `yaml:"description" json:"description,omitempty"`
	Schema      map[string]any `yaml:"schema" json:"schema"`
}

// LoadTemplate reads a template file. The name defaults to the file name
// without extension.
func LoadTemplate(path string) (*Template, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %s: %w", path, err)
	}
	var tpl Template
	if err := yaml.Unmarshal(raw, &tpl); err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", path, err)
	}
	tpl.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return &tpl, nil
}

// UserMessage is the full user turn: pre text, question, post text.
func (t *Template) UserMessage(question string) string {
	var parts []string
	for _, p := range []string{t.PreUserMessageContent, question, t.PostUserMessageContent} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "\n\n")
}
