package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/kisy/omniui/pkg/model"
	"github.com/kisy/omniui/pkg/stats"
	"github.com/kisy/omniui/pkg/topology"
)

func newDumpCmd(opts *options) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Poll once and print links, ports and flows",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			discovery := topology.NewDiscovery(cfg.TopologyFile)
			if err := discovery.Reload(); err != nil {
				return err
			}
			src, err := newSource(cfg)
			if err != nil {
				return err
			}
			collector := stats.NewCollector(src)
			if err := collector.Update(cmd.Context()); err != nil {
				return err
			}

			links := stats.NormalizeLinks(discovery.AdjacencyList())
			switches := stats.NormalizeSwitches(collector)
			if asJSON {
				return json.NewEncoder(os.Stdout).Encode(struct {
					Links    []model.LinkRecord   `json:"links"`
					Switches []model.SwitchRecord `json:"switches"`
				}{links, switches})
			}
			renderTables(os.Stdout, links, switches)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the endpoint payloads as JSON instead of tables")
	return cmd
}

func renderTables(w io.Writer, links []model.LinkRecord, switches []model.SwitchRecord) {
	fmt.Fprintln(w, "Links:")
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Src Switch", "Src Port", "Dst Switch", "Dst Port"})
	for _, l := range links {
		table.Append([]string{l.SrcSwitch, strconv.Itoa(int(l.SrcPort)), l.DstSwitch, strconv.Itoa(int(l.DstPort))})
	}
	table.Render()

	fmt.Fprintln(w, "\nPorts:")
	table = tablewriter.NewWriter(w)
	table.SetHeader([]string{"DPID", "Port", "TX Packets", "TX Bytes", "RX Packets", "RX Bytes"})
	for _, sw := range switches {
		for _, p := range sw.Ports {
			table.Append([]string{
				sw.DPID,
				strconv.Itoa(int(p.PortNumber)),
				strconv.FormatUint(p.TransmitPackets, 10),
				strconv.FormatUint(p.TransmitBytes, 10),
				strconv.FormatUint(p.RecvPackets, 10),
				strconv.FormatUint(p.RecvBytes, 10),
			})
		}
	}
	table.Render()

	fmt.Fprintln(w, "\nFlows:")
	table = tablewriter.NewWriter(w)
	table.SetHeader([]string{"DPID", "Table", "Priority", "Duration", "Packets", "Bytes", "Actions"})
	for _, sw := range switches {
		for _, f := range sw.Flows {
			table.Append([]string{
				sw.DPID,
				strconv.FormatUint(f.TableID, 10),
				strconv.FormatUint(f.Priority, 10),
				strconv.FormatUint(f.Duration, 10) + "s",
				strconv.FormatUint(f.CounterPacket, 10),
				strconv.FormatUint(f.CounterByte, 10),
				formatActions(f.Actions),
			})
		}
	}
	table.Render()
}

func formatActions(actions *[]model.ActionRecord) string {
	if actions == nil {
		return "-"
	}
	if len(*actions) == 0 {
		return "drop"
	}
	parts := make([]string, 0, len(*actions))
	for _, a := range *actions {
		parts = append(parts, fmt.Sprintf("%s:%v", a.Type, a.Value))
	}
	return strings.Join(parts, ",")
}
