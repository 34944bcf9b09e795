package config

import (
	"fmt"
	"os"
)

const exampleConfig = `# sitewatch configuration
build:
  # Build command run on every change. Leave empty to use the builtin
  # markdown renderer.
  command: "make html"
  output: "./site"

watch:
  patterns:
    - "docs/**/*.rst"
    - "docs/**/*.md"
  # ignore defaults cover editor swap/backup files; entries here replace them
  # ignore:
  #   - "**/*.tmp"
  interval: "500ms"
  # mode: poll | notify
  mode: "poll"

server:
  host: ""
  port: 8000
  live_reload: true

logging:
  level: "info"
  format: "text"

monitoring:
  metrics:
    enabled: false
    path: "/metrics"
`

// Init creates a new configuration file with example content
func Init(configPath string, force bool) error {
	if configPath == "" {
		configPath = DefaultConfigFile
	}
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}
	if err := os.WriteFile(configPath, []byte(exampleConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
