package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kisy/omniui/config"
	"github.com/kisy/omniui/pkg/model"
	"github.com/kisy/omniui/pkg/source"
)

func parseServe(t *testing.T, args ...string) (config.Config, error) {
	t.Helper()
	opts := &options{}
	root := newRootCmd(opts)
	serveCmd, _, err := root.Find([]string{"serve"})
	require.NoError(t, err)
	require.NoError(t, serveCmd.ParseFlags(args))
	return loadConfig(serveCmd, opts)
}

func TestLoadConfigPrecedence(t *testing.T) {
	file := filepath.Join(t.TempDir(), "omniui.toml")
	require.NoError(t, os.WriteFile(file, []byte(`
http_addr = ":9000"
sync_interval = 30
source = "netlink"
`), 0o644))

	cfg, err := parseServe(t, "-c", file, "-l", ":7000")
	require.NoError(t, err)
	require.Equal(t, ":7000", cfg.HTTPAddr, "flag wins over file")
	require.Equal(t, 30, cfg.SyncInterval, "file wins over default")
	require.Equal(t, "netlink", cfg.Source)
	require.True(t, cfg.Metrics)

	cfg, err = parseServe(t, "-c", file, "--source", "ovs", "-b", "br0=0x1", "-b", "br1=2", "--no-metrics")
	require.NoError(t, err)
	require.Equal(t, "ovs", cfg.Source)
	require.False(t, cfg.Metrics)
	bridges, err := cfg.OVSBridges()
	require.NoError(t, err)
	require.Equal(t, []source.Bridge{{Name: "br0", DPID: 1}, {Name: "br1", DPID: 2}}, bridges)
}

func TestLoadConfigRejects(t *testing.T) {
	_, err := parseServe(t, "--source", "ovs")
	require.ErrorContains(t, err, "at least one bridge")

	_, err = parseServe(t, "-b", "br0")
	require.ErrorContains(t, err, "name=dpid")
}

func TestNewSource(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Source = "netlink"
	src, err := newSource(cfg)
	require.NoError(t, err)
	require.IsType(t, &source.Netlink{}, src)

	cfg.Source = "ovs"
	cfg.Bridges = []config.Bridge{{Name: "br0", DPID: "1"}}
	src, err = newSource(cfg)
	require.NoError(t, err)
	require.IsType(t, &source.OVS{}, src)
}

func TestRenderTables(t *testing.T) {
	actions := []model.ActionRecord{{Type: "OUTPUT", Value: uint64(2)}, {Type: "SET_NW_DST", Value: "10.0.0.2"}}
	var buf bytes.Buffer
	renderTables(&buf,
		[]model.LinkRecord{{SrcSwitch: "00:00:00:00:00:00:00:01", SrcPort: 2, DstSwitch: "00:00:00:00:00:00:00:03", DstPort: 4}},
		[]model.SwitchRecord{{
			DPID:  "00:00:00:00:00:00:00:01",
			Ports: []model.PortRecord{{PortNumber: 2, TransmitBytes: 512}},
			Flows: []model.FlowRecord{{Duration: 5, Priority: 100, Actions: &actions}},
		}},
	)
	out := buf.String()
	require.Contains(t, out, "00:00:00:00:00:00:00:03")
	require.Contains(t, out, "512")
	require.Contains(t, out, "OUTPUT:2,SET_NW_DST:10.0.0.2")
}

func TestFormatActions(t *testing.T) {
	require.Equal(t, "-", formatActions(nil))
	require.Equal(t, "drop", formatActions(&[]model.ActionRecord{}))
}
