package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

type APIConfig struct {
	BaseURL   string `json:"base_url"`
	TimeoutMS int    `json:"timeout_ms"`
}

type ChatConfig struct {
	Mode              string `json:"mode"`
	RecentTurns       int    `json:"recent_turns"`
	ContextTokenLimit int    `json:"context_token_limit"`
}

type PlannerConfig struct {
	// DemoFallback 控制今日计划加载失败时是否展示带标记的演示数据。
	// DemoFallback controls whether a labeled demo plan is shown when the
	// today view cannot be fetched.
	DemoFallback bool `json:"demo_fallback"`
}

type StorageConfig struct {
	BaseDir string `json:"base_dir"`
}

type UIConfig struct {
	Locale string `json:"locale"`
	Theme  string `json:"theme"`
}

type Config struct {
	API     APIConfig     `json:"api"`
	Chat    ChatConfig    `json:"chat"`
	Planner PlannerConfig `json:"planner"`
	Storage StorageConfig `json:"storage"`
	UI      UIConfig      `json:"ui"`
}

type filePlannerConfig struct {
	DemoFallback *bool `json:"demo_fallback"`
}

type fileConfig struct {
	API     *APIConfig         `json:"api"`
	Chat    *ChatConfig        `json:"chat"`
	Planner *filePlannerConfig `json:"planner"`
	Storage *StorageConfig     `json:"storage"`
	UI      *UIConfig          `json:"ui"`
}

func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL:   "http://localhost:8001",
			TimeoutMS: 30000,
		},
		Chat: ChatConfig{
			Mode:              "general",
			RecentTurns:       8,
			ContextTokenLimit: 2000,
		},
		Planner: PlannerConfig{
			DemoFallback: true,
		},
		Storage: StorageConfig{
			BaseDir: "~/.sarathi",
		},
		UI: UIConfig{
			Theme: "dark",
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	for _, globalPath := range globalConfigPaths() {
		if err := mergeFromFile(&cfg, globalPath); err != nil {
			return Config{}, err
		}
	}

	resolvedPath := strings.TrimSpace(path)
	if envPath := strings.TrimSpace(os.Getenv("SARATHI_CONFIG_PATH")); envPath != "" {
		resolvedPath = envPath
	}
	if resolvedPath == "" {
		resolvedPath = findProjectConfigPath()
	}
	if err := mergeFromFile(&cfg, resolvedPath); err != nil {
		return Config{}, err
	}

	if err := normalize(&cfg); err != nil {
		return Config{}, err
	}
	return applyEnv(cfg)
}

func globalConfigPaths() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	return []string{filepath.Join(home, ".sarathi", "config.json")}
}

func findProjectConfigPath() string {
	candidates := []string{
		"sarathi.config.json",
		".sarathi/config.json",
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

func mergeFromFile(cfg *Config, path string) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}

	resolved, err := expandPath(path)
	if err != nil {
		return fmt.Errorf("expand config path %q: %w", path, err)
	}

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %q: %w", resolved, err)
	}

	cleaned := stripJSONComments(data)
	var fileCfg fileConfig
	if err := json.Unmarshal(cleaned, &fileCfg); err != nil {
		return fmt.Errorf("parse config %q: %w", resolved, err)
	}
	applyFileConfig(cfg, fileCfg)
	return nil
}

func applyFileConfig(cfg *Config, fc fileConfig) {
	if fc.API != nil {
		if strings.TrimSpace(fc.API.BaseURL) != "" {
			cfg.API.BaseURL = fc.API.BaseURL
		}
		if fc.API.TimeoutMS > 0 {
			cfg.API.TimeoutMS = fc.API.TimeoutMS
		}
	}
	if fc.Chat != nil {
		if strings.TrimSpace(fc.Chat.Mode) != "" {
			cfg.Chat.Mode = fc.Chat.Mode
		}
		if fc.Chat.RecentTurns > 0 {
			cfg.Chat.RecentTurns = fc.Chat.RecentTurns
		}
		if fc.Chat.ContextTokenLimit > 0 {
			cfg.Chat.ContextTokenLimit = fc.Chat.ContextTokenLimit
		}
	}
	if fc.Planner != nil {
		if fc.Planner.DemoFallback != nil {
			cfg.Planner.DemoFallback = *fc.Planner.DemoFallback
		}
	}
	if fc.Storage != nil {
		if strings.TrimSpace(fc.Storage.BaseDir) != "" {
			cfg.Storage.BaseDir = fc.Storage.BaseDir
		}
	}
	if fc.UI != nil {
		if strings.TrimSpace(fc.UI.Locale) != "" {
			cfg.UI.Locale = fc.UI.Locale
		}
		if strings.TrimSpace(fc.UI.Theme) != "" {
			cfg.UI.Theme = fc.UI.Theme
		}
	}
}

func normalize(cfg *Config) error {
	if strings.TrimSpace(cfg.API.BaseURL) == "" {
		cfg.API.BaseURL = Default().API.BaseURL
	}
	cfg.API.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.API.BaseURL), "/")
	if cfg.API.TimeoutMS <= 0 {
		cfg.API.TimeoutMS = Default().API.TimeoutMS
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Chat.Mode)) {
	case "general", "rag", "planner":
		cfg.Chat.Mode = strings.ToLower(strings.TrimSpace(cfg.Chat.Mode))
	default:
		cfg.Chat.Mode = Default().Chat.Mode
	}
	if cfg.Chat.RecentTurns <= 0 {
		cfg.Chat.RecentTurns = Default().Chat.RecentTurns
	}
	if cfg.Chat.ContextTokenLimit <= 0 {
		cfg.Chat.ContextTokenLimit = Default().Chat.ContextTokenLimit
	}

	baseDir, err := expandPath(cfg.Storage.BaseDir)
	if err != nil {
		return err
	}
	if baseDir == "" {
		baseDir, err = expandPath(Default().Storage.BaseDir)
		if err != nil {
			return err
		}
	}
	cfg.Storage.BaseDir = baseDir

	if strings.TrimSpace(cfg.UI.Theme) == "" {
		cfg.UI.Theme = Default().UI.Theme
	}
	cfg.UI.Locale = strings.TrimSpace(cfg.UI.Locale)
	return nil
}

func applyEnv(cfg Config) (Config, error) {
	if v := strings.TrimSpace(os.Getenv("SARATHI_BASE_URL")); v != "" {
		cfg.API.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv("SARATHI_TIMEOUT_MS")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid SARATHI_TIMEOUT_MS: %q", v)
		}
		cfg.API.TimeoutMS = n
	}
	if v := strings.TrimSpace(os.Getenv("SARATHI_BASE_DIR")); v != "" {
		cfg.Storage.BaseDir = v
	}
	if v := strings.TrimSpace(os.Getenv("SARATHI_LANG")); v != "" {
		cfg.UI.Locale = v
	}

	return cfg, normalize(&cfg)
}

func expandPath(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	if strings.HasPrefix(path, "~/") || path == "~" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		if path == "~" {
			path = home
		} else {
			path = filepath.Join(home, strings.TrimPrefix(path, "~/"))
		}
	}
	return filepath.Abs(path)
}

// stripJSONComments 去除 JSONC 中的行注释与块注释，字符串内部原样保留。
// stripJSONComments removes line and block comments from JSONC while leaving
// string contents untouched.
func stripJSONComments(data []byte) []byte {
	const (
		stateNormal = iota
		stateString
		stateLineComment
		stateBlockComment
	)

	state := stateNormal
	escaped := false
	out := bytes.Buffer{}

	for i := 0; i < len(data); i++ {
		c := data[i]
		next := byte(0)
		if i+1 < len(data) {
			next = data[i+1]
		}

		switch state {
		case stateNormal:
			if c == '"' {
				state = stateString
				out.WriteByte(c)
				continue
			}
			if c == '/' && next == '/' {
				state = stateLineComment
				i++
				continue
			}
			if c == '/' && next == '*' {
				state = stateBlockComment
				i++
				continue
			}
			out.WriteByte(c)
		case stateString:
			out.WriteByte(c)
			if escaped {
				escaped = false
				continue
			}
			if c == '\\' {
				escaped = true
				continue
			}
			if c == '"' {
				state = stateNormal
			}
		case stateLineComment:
			if c == '\n' {
				state = stateNormal
				out.WriteByte(c)
			}
		case stateBlockComment:
			if c == '*' && next == '/' {
				state = stateNormal
				i++
			}
		}
	}

	return out.Bytes()
}
