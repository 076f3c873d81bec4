package config

import "fmt"

// TemplateOptions controls configuration template generation.
type TemplateOptions struct {
	// Full writes every setting with its default value. Otherwise the
	// template is a commented sketch.
	Full bool
}

// GenerateTemplate creates a configuration file template.
func GenerateTemplate(opts TemplateOptions) ([]byte, error) {
	if opts.Full {
		out, err := NewConfig().ToYAMLWithHeader(DefaultTemplateHeader())
		if err != nil {
			return nil, fmt.Errorf("generate template: %w", err)
		}
		return out, nil
	}
	return []byte(minimalTemplate), nil
}

const minimalTemplate = `# mdsync configuration
# See: https://github.com/yaklabco/mdsync

server:
  # Address the preview listens on
  addr: 127.0.0.1:7878
  # Open the preview in the system browser on start
  # open: true

render:
  # Chroma style for code blocks
  style: github
  # Guess the language of code blocks without one
  # detect_language: true
  # Render single newlines as line breaks
  # hard_wraps: true

# chunks:
#   single_chunk_threshold: 1000
#   target_lines: 500

# scroll:
#   edge_lines: 5
#   suppress: 200ms

# export:
#   browser: /usr/bin/chromium
#   paper: a4
`

// DefaultTemplateHeader returns the default header for generated configs.
func DefaultTemplateHeader() string {
	return `# mdsync configuration
# See: https://github.com/yaklabco/mdsync`
}
