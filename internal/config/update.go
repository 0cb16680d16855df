package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileView is the on-disk shape of Config. Durations are written as
// strings like "5s" rather than yaml.v3's integer nanoseconds.
type fileView struct {
	Version int    `yaml:"version"`
	Host    string `yaml:"host"`
	Refresh struct {
		Interval    string `yaml:"interval"`
		DefaultView string `yaml:"default_view"`
		ShowStopped bool   `yaml:"show_stopped"`
	} `yaml:"refresh"`
	Timeouts struct {
		Call string `yaml:"call"`
		Stop string `yaml:"stop"`
	} `yaml:"timeouts"`
	Stats      StatsConfig     `yaml:"stats"`
	Logs       LogsConfig      `yaml:"logs"`
	Output     OutputConfig    `yaml:"output"`
	Thresholds ThresholdConfig `yaml:"thresholds"`
}

// keyComments are written above top-level keys by Render.
var keyComments = map[string]string{
	"host":       "Docker endpoint. Empty uses DOCKER_HOST or unix:///var/run/docker.sock.",
	"refresh":    "Dashboard polling. interval must be at least 500ms.",
	"timeouts":   "call bounds each daemon request; stop is the grace period before a kill.",
	"stats":      "Parallel stats requests when listing containers.",
	"logs":       "tail is the number of container log lines shown; file receives dockman's own logs.",
	"output":     "color: auto, always, or never.",
	"thresholds": "Usage percentages at which the dashboard turns yellow and red.",
}

// Render encodes cfg as commented YAML.
func Render(cfg *Config) ([]byte, error) {
	var view fileView
	view.Version = cfg.Version
	view.Host = cfg.Host
	view.Refresh.Interval = cfg.Refresh.Interval.String()
	view.Refresh.DefaultView = cfg.Refresh.DefaultView
	view.Refresh.ShowStopped = cfg.Refresh.ShowStopped
	view.Timeouts.Call = cfg.Timeouts.Call.String()
	view.Timeouts.Stop = cfg.Timeouts.Stop.String()
	view.Stats = cfg.Stats
	view.Logs = cfg.Logs
	view.Output = cfg.Output
	view.Thresholds = cfg.Thresholds

	var doc yaml.Node
	if err := doc.Encode(&view); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	for i := 0; i < len(doc.Content)-1; i += 2 {
		if c, ok := keyComments[doc.Content[i].Value]; ok {
			doc.Content[i].HeadComment = c
		}
	}

	return encode(&doc)
}

// WriteDefault writes the default config to path. It refuses to overwrite
// an existing file unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}

	data, err := Render(DefaultConfig())
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SetValue sets a dotted key such as "refresh.interval" in the config file.
// It preserves the existing YAML structure and comments, creating missing
// mappings along the way.
func SetValue(configPath, key, value string) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	if root.Kind == 0 {
		root = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return fmt.Errorf("invalid YAML document structure")
	}

	node := root.Content[0]
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("expected mapping at document root")
	}

	parts := strings.Split(key, ".")
	for i, part := range parts {
		if part == "" {
			return fmt.Errorf("invalid key %q", key)
		}
		last := i == len(parts)-1
		child := findMapValue(node, part)

		if last {
			if child == nil {
				node.Content = append(node.Content, scalar(part), scalar(value))
				break
			}
			if child.Kind != yaml.ScalarNode {
				return fmt.Errorf("'%s' is a section, not a value", strings.Join(parts[:i+1], "."))
			}
			child.Value = value
			child.Tag = ""
			child.Style = 0
			break
		}

		if child == nil {
			child = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			node.Content = append(node.Content, scalar(part), child)
		}
		if child.Kind != yaml.MappingNode {
			return fmt.Errorf("'%s' is a value, not a section", strings.Join(parts[:i+1], "."))
		}
		node = child
	}

	out, err := encode(&root)
	if err != nil {
		return err
	}
	if err := os.WriteFile(configPath, out, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func encode(node *yaml.Node) ([]byte, error) {
	var buf strings.Builder
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(node); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	encoder.Close()
	return []byte(buf.String()), nil
}

func scalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Value: v}
}

// findMapValue finds a value in a mapping node by key name.
func findMapValue(node *yaml.Node, key string) *yaml.Node {
	if node.Kind != yaml.MappingNode {
		return nil
	}

	for i := 0; i < len(node.Content)-1; i += 2 {
		keyNode := node.Content[i]
		valueNode := node.Content[i+1]

		if keyNode.Kind == yaml.ScalarNode && keyNode.Value == key {
			return valueNode
		}
	}

	return nil
}
