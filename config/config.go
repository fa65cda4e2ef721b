package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/kisy/omniui/pkg/model"
	"github.com/kisy/omniui/pkg/source"
)

// Config represents the application configuration
type Config struct {
	HTTPAddr     string   `toml:"http_addr"`
	APIPrefix    string   `toml:"api_prefix"`
	SyncInterval int      `toml:"sync_interval"`
	GCInterval   int      `toml:"gc_interval"`
	DataTTL      int      `toml:"data_ttl"`
	Source       string   `toml:"source"` // "ovs" or "netlink"
	UseSudo      bool     `toml:"use_sudo"`
	Bridges      []Bridge `toml:"bridges"`
	NetlinkDPID  string   `toml:"netlink_dpid"`
	TopologyFile string   `toml:"topology_file"`
	Metrics      bool     `toml:"metrics"` // Default true
}

// Bridge maps an OVS bridge to the datapath id it is reported as.
type Bridge struct {
	Name string `toml:"name"`
	DPID string `toml:"dpid"`
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		HTTPAddr:     ":8080",
		APIPrefix:    "/wm/omniui",
		SyncInterval: 5,
		GCInterval:   60,  // Check every 60s
		DataTTL:      300, // Forget silent switches after 5m
		Source:       "ovs",
		NetlinkDPID:  "00:00:00:00:00:00:00:01",
		Metrics:      true,
	}
}

func LoadConfig(path string, cfg *Config) error {
	if path != "" {
		_, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return fmt.Errorf("error decoding config file: %w", err)
		}
	}
	return nil
}

// Validate fills non-positive intervals with defaults and rejects settings
// the adapter cannot start with.
func (c *Config) Validate() error {
	def := DefaultConfig()
	if c.SyncInterval <= 0 {
		c.SyncInterval = def.SyncInterval
	}
	if c.GCInterval <= 0 {
		c.GCInterval = def.GCInterval
	}
	if c.DataTTL <= 0 {
		c.DataTTL = def.DataTTL
	}
	c.APIPrefix = strings.TrimSuffix(c.APIPrefix, "/")
	if c.APIPrefix != "" && !strings.HasPrefix(c.APIPrefix, "/") {
		return fmt.Errorf("api_prefix %q must start with /", c.APIPrefix)
	}

	switch c.Source {
	case "ovs":
		if len(c.Bridges) == 0 {
			return fmt.Errorf("source ovs needs at least one bridge")
		}
		if _, err := c.OVSBridges(); err != nil {
			return err
		}
	case "netlink":
		if _, err := model.ParseDPID(c.NetlinkDPID); err != nil {
			return fmt.Errorf("netlink_dpid: %w", err)
		}
	default:
		return fmt.Errorf("unknown source %q (want ovs or netlink)", c.Source)
	}
	return nil
}

// OVSBridges resolves the configured bridges to source.Bridge values.
func (c *Config) OVSBridges() ([]source.Bridge, error) {
	bridges := make([]source.Bridge, 0, len(c.Bridges))
	for _, b := range c.Bridges {
		if b.Name == "" {
			return nil, fmt.Errorf("bridge without a name")
		}
		dpid, err := model.ParseDPID(b.DPID)
		if err != nil {
			return nil, fmt.Errorf("bridge %s: %w", b.Name, err)
		}
		bridges = append(bridges, source.Bridge{Name: b.Name, DPID: dpid})
	}
	return bridges, nil
}

// ParseBridgeFlag parses a "name=dpid" command-line value.
func ParseBridgeFlag(value string) (Bridge, error) {
	name, dpid, ok := strings.Cut(value, "=")
	if !ok || name == "" || dpid == "" {
		return Bridge{}, fmt.Errorf("bridge %q: want name=dpid", value)
	}
	return Bridge{Name: name, DPID: dpid}, nil
}
