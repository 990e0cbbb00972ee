package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Defaults applied when neither flags, env vars nor settings.json say otherwise
const (
	DefaultAgentBinary         = "claude"
	DefaultEventBuffer         = 256
	DefaultPermissionMode      = "approve"
	DefaultPermissionTransport = "stdio"
	DefaultServerAddress       = "127.0.0.1:7420"
	DefaultStopGracePeriod     = 5 * time.Second
)

// Settings represents the structure of $GROVE_HOME/settings.json
type Settings struct {
	AgentArgs                StringArray `json:"agent_args,omitempty" example:"--model,sonnet"`
	AgentBinary              string      `json:"agent_binary,omitempty" example:"claude"`
	AuthorizedKeysPath       string      `json:"authorized_keys_path,omitempty" example:"~/.ssh/authorized_keys"`
	Debug                    *bool       `json:"debug,omitempty" example:"false"`
	DefaultPermissionMode    string      `json:"default_permission_mode,omitempty" example:"approve"`
	EventBuffer              *int        `json:"event_buffer,omitempty" example:"256"`
	MaxLogFiles              *int        `json:"max_log_files,omitempty" example:"1000"`
	PermissionTimeoutSeconds *int        `json:"permission_timeout_seconds,omitempty" example:"0"`
	PermissionTransport      string      `json:"permission_transport,omitempty" example:"stdio"`
	ServerAddress            string      `json:"server_address,omitempty" example:"127.0.0.1:7420"`
	SSHAddress               string      `json:"ssh_address,omitempty" example:"127.0.0.1:7421"`
	StopGracePeriodSeconds   *int        `json:"stop_grace_period_seconds,omitempty" example:"5"`
	WatchWorktrees           *bool       `json:"watch_worktrees,omitempty" example:"true"`
}

// StringArray supports both JSON arrays and comma-separated strings
type StringArray []string

// UnmarshalJSON implements custom unmarshaling for StringArray
func (sa *StringArray) UnmarshalJSON(data []byte) error {
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*sa = arr
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*sa = parseCommaSeparated(str)
	return nil
}

// parseCommaSeparated splits comma-separated string and trims whitespace
func parseCommaSeparated(s string) []string {
	if s == "" {
		return []string{}
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

// LoadSettings loads settings from $GROVE_HOME/settings.json.
// A missing file yields empty Settings, not an error.
func LoadSettings() (*Settings, error) {
	return LoadSettingsFrom(GetSettingsPath())
}

// LoadSettingsFrom loads settings from an explicit path
func LoadSettingsFrom(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Settings{}, nil
		}
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("invalid settings.json: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings.json: %w", err)
	}

	if settings.AgentBinary != "" {
		settings.AgentBinary = ExpandPath(settings.AgentBinary)
	}
	if settings.AuthorizedKeysPath != "" {
		settings.AuthorizedKeysPath = ExpandPath(settings.AuthorizedKeysPath)
	}

	return &settings, nil
}

// SaveSettings writes settings to $GROVE_HOME/settings.json
func SaveSettings(settings *Settings) error {
	path := GetSettingsPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	return nil
}

// Validate checks enumerated values
func (s *Settings) Validate() error {
	switch s.DefaultPermissionMode {
	case "", "ignore", "approve":
	default:
		return fmt.Errorf("default_permission_mode must be 'ignore' or 'approve', got '%s'", s.DefaultPermissionMode)
	}
	switch s.PermissionTransport {
	case "", "stdio", "mcp":
	default:
		return fmt.Errorf("permission_transport must be 'stdio' or 'mcp', got '%s'", s.PermissionTransport)
	}
	if s.StopGracePeriodSeconds != nil && *s.StopGracePeriodSeconds < 0 {
		return fmt.Errorf("stop_grace_period_seconds cannot be negative")
	}
	if s.PermissionTimeoutSeconds != nil && *s.PermissionTimeoutSeconds < 0 {
		return fmt.Errorf("permission_timeout_seconds cannot be negative")
	}
	return nil
}

// AgentBinaryOrDefault returns the configured agent binary
func (s *Settings) AgentBinaryOrDefault() string {
	if s.AgentBinary != "" {
		return s.AgentBinary
	}
	return DefaultAgentBinary
}

// PermissionModeOrDefault returns the permission mode new sessions get when none is requested
func (s *Settings) PermissionModeOrDefault() string {
	if s.DefaultPermissionMode != "" {
		return s.DefaultPermissionMode
	}
	return DefaultPermissionMode
}

// PermissionTransportOrDefault returns how permission prompts reach the broker
func (s *Settings) PermissionTransportOrDefault() string {
	if s.PermissionTransport != "" {
		return s.PermissionTransport
	}
	return DefaultPermissionTransport
}

// PermissionTimeout returns zero when requests wait for a decision indefinitely
func (s *Settings) PermissionTimeout() time.Duration {
	if s.PermissionTimeoutSeconds == nil {
		return 0
	}
	return time.Duration(*s.PermissionTimeoutSeconds) * time.Second
}

// StopGracePeriod returns how long stop waits between SIGTERM and SIGKILL
func (s *Settings) StopGracePeriod() time.Duration {
	if s.StopGracePeriodSeconds == nil {
		return DefaultStopGracePeriod
	}
	return time.Duration(*s.StopGracePeriodSeconds) * time.Second
}

// EventBufferOrDefault returns the per-subscriber event buffer size
func (s *Settings) EventBufferOrDefault() int {
	if s.EventBuffer == nil || *s.EventBuffer <= 0 {
		return DefaultEventBuffer
	}
	return *s.EventBuffer
}

// ServerAddressOrDefault returns the HTTP gateway listen address
func (s *Settings) ServerAddressOrDefault() string {
	if s.ServerAddress != "" {
		return s.ServerAddress
	}
	return DefaultServerAddress
}

// WatchWorktreesEnabled reports whether the daemon watches worktree folders (default on)
func (s *Settings) WatchWorktreesEnabled() bool {
	return s.WatchWorktrees == nil || *s.WatchWorktrees
}
