package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/evanschultz/lanes/internal/domain"
	toml "github.com/pelletier/go-toml/v2"
)

// MaxSeedCount bounds the synthetic seed size.
const MaxSeedCount = 1_000_000

type Config struct {
	Board   BoardConfig   `toml:"board"`
	Server  ServerConfig  `toml:"server"`
	UI      UIConfig      `toml:"ui"`
	Logging LoggingConfig `toml:"logging"`
}

type BoardConfig struct {
	Lanes         []LaneConfig `toml:"lanes"`
	SeedCount     int          `toml:"seed_count"`
	Seed          uint64       `toml:"seed"`
	Categories    []string     `toml:"categories"`
	DefaultFilter string       `toml:"default_filter"`
	ChangeLogSize int          `toml:"change_log_size"`
}

type LaneConfig struct {
	ID       string `toml:"id"`
	Name     string `toml:"name"`
	WIPLimit int    `toml:"wip_limit"`
}

type ServerConfig struct {
	HTTPBind        string `toml:"http_bind"`
	APIEndpoint     string `toml:"api_endpoint"`
	MCPEndpoint     string `toml:"mcp_endpoint"`
	MetricsEndpoint string `toml:"metrics_endpoint"`
}

type UIConfig struct {
	WindowRows int       `toml:"window_rows"`
	ShowHelp   bool      `toml:"show_help"`
	ShowCounts bool      `toml:"show_counts"`
	Keys       KeyConfig `toml:"keys"`
}

// KeyConfig overrides board key bindings. Blank values keep the defaults.
type KeyConfig struct {
	PickUp      string `toml:"pick_up"`
	Drop        string `toml:"drop"`
	CycleFilter string `toml:"cycle_filter"`
	AddTask     string `toml:"add_task"`
	CopyID      string `toml:"copy_id"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
}

func defaultLanes() []LaneConfig {
	out := make([]LaneConfig, 0, domain.LaneCount())
	for _, id := range domain.Lanes() {
		out = append(out, LaneConfig{ID: string(id), Name: id.Label()})
	}
	return out
}

func Default() Config {
	return Config{
		Board: BoardConfig{
			Lanes:         defaultLanes(),
			SeedCount:     1000,
			Categories:    []string{"design", "backend", "frontend", "ops"},
			DefaultFilter: "all",
			ChangeLogSize: 256,
		},
		Server: ServerConfig{
			HTTPBind:        "127.0.0.1:5437",
			APIEndpoint:     "/api/v1",
			MCPEndpoint:     "/mcp",
			MetricsEndpoint: "/metrics",
		},
		UI: UIConfig{
			WindowRows: 12,
			ShowHelp:   true,
			ShowCounts: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func Load(path string, defaults Config) (Config, error) {
	cfg := defaults
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if len(content) == 0 {
		return cfg, nil
	}

	// List tables replace the defaults instead of extending them.
	cfg.Board.Lanes = nil
	cfg.Board.Categories = nil
	if err := toml.Unmarshal(content, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}
	if len(cfg.Board.Lanes) == 0 {
		cfg.Board.Lanes = slices.Clone(defaults.Board.Lanes)
	}
	if len(cfg.Board.Categories) == 0 {
		cfg.Board.Categories = slices.Clone(defaults.Board.Categories)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	seenLane := map[domain.LaneID]struct{}{}
	for idx, lane := range c.Board.Lanes {
		id, ok := domain.ParseLaneID(lane.ID)
		if !ok {
			return fmt.Errorf("board.lanes[%d].id is unknown: %q", idx, lane.ID)
		}
		if lane.WIPLimit < 0 {
			return fmt.Errorf("board.lanes[%d].wip_limit must be >= 0", idx)
		}
		if _, ok := seenLane[id]; ok {
			return fmt.Errorf("board.lanes[%d].id is duplicated: %s", idx, id)
		}
		seenLane[id] = struct{}{}
	}
	if c.Board.SeedCount < 0 || c.Board.SeedCount > MaxSeedCount {
		return fmt.Errorf("board.seed_count must be between 0 and %d", MaxSeedCount)
	}
	if c.Board.ChangeLogSize < 0 {
		return errors.New("board.change_log_size must be >= 0")
	}
	for i, category := range c.Board.Categories {
		if strings.TrimSpace(category) == "" {
			return fmt.Errorf("board.categories[%d] is empty", i)
		}
	}
	filter := strings.TrimSpace(c.Board.DefaultFilter)
	if filter != "" && !strings.EqualFold(filter, "all") && len(c.Board.Categories) > 0 && !slices.Contains(c.Board.Categories, filter) {
		return fmt.Errorf("board.default_filter references unknown category %q", filter)
	}

	if strings.TrimSpace(c.Server.HTTPBind) == "" {
		return errors.New("server.http_bind is required")
	}
	for name, endpoint := range map[string]string{
		"api_endpoint":     c.Server.APIEndpoint,
		"mcp_endpoint":     c.Server.MCPEndpoint,
		"metrics_endpoint": c.Server.MetricsEndpoint,
	} {
		endpoint = strings.TrimSpace(endpoint)
		if endpoint != "" && !strings.HasPrefix(endpoint, "/") {
			return fmt.Errorf("server.%s must start with /: %q", name, endpoint)
		}
	}

	if c.UI.WindowRows < 1 {
		return errors.New("ui.window_rows must be >= 1")
	}

	switch strings.TrimSpace(strings.ToLower(c.Logging.Level)) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}

	return nil
}

// DomainLanes converts the lane table into domain lane metadata.
func (c Config) DomainLanes() ([]domain.Lane, error) {
	out := make([]domain.Lane, 0, len(c.Board.Lanes))
	for idx, lane := range c.Board.Lanes {
		id, ok := domain.ParseLaneID(lane.ID)
		if !ok {
			return nil, fmt.Errorf("board.lanes[%d]: %w", idx, domain.ErrInvalidLane)
		}
		meta, err := domain.NewLane(id, lane.Name, id.Index(), lane.WIPLimit)
		if err != nil {
			return nil, fmt.Errorf("board.lanes[%d]: %w", idx, err)
		}
		out = append(out, meta)
	}
	return out, nil
}

func EnsureConfigDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
