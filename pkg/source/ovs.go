package source

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/digitalocean/go-openvswitch/ovs"
	"k8s.io/klog/v2"

	"github.com/kisy/omniui/pkg/model"
)

// OpenFlowDumper is the part of ovs.OpenFlowService the OVS source uses.
type OpenFlowDumper interface {
	DumpPorts(bridge string) ([]*ovs.PortStats, error)
	DumpFlows(bridge string) ([]*ovs.Flow, error)
}

// Bridge binds an OVS bridge to the datapath id it is reported under.
type Bridge struct {
	Name string
	DPID uint64
}

// OVS reads port counters and flow tables of local Open vSwitch bridges
// through ovs-ofctl.
type OVS struct {
	ofctl   OpenFlowDumper
	bridges []Bridge
}

func NewOVS(client *ovs.Client, bridges []Bridge) *OVS {
	return &OVS{ofctl: client.OpenFlow, bridges: bridges}
}

func (o *OVS) Poll(ctx context.Context) (map[uint64]model.DatapathStats, error) {
	result := make(map[uint64]model.DatapathStats, len(o.bridges))
	for _, br := range o.bridges {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ports, err := o.ofctl.DumpPorts(br.Name)
		if err != nil {
			return nil, fmt.Errorf("dump ports on bridge %s: %w", br.Name, err)
		}
		flows, err := o.ofctl.DumpFlows(br.Name)
		if err != nil {
			return nil, fmt.Errorf("dump flows on bridge %s: %w", br.Name, err)
		}

		st := model.DatapathStats{
			Ports: make(model.PortTable, len(ports)),
			Flows: make([]model.RawFlow, 0, len(flows)),
		}
		for _, p := range ports {
			no, ok := portNumber(p.PortID)
			if !ok {
				klog.V(3).Infof("bridge %s: skipping port id %d", br.Name, p.PortID)
				continue
			}
			st.Ports[no] = convertPortStats(p)
		}
		for _, f := range flows {
			st.Flows = append(st.Flows, ConvertFlow(f))
		}
		result[br.DPID] = st
		klog.V(3).Infof("bridge %s: %d ports, %d flows", br.Name, len(st.Ports), len(st.Flows))
	}
	return result, nil
}

// portNumber maps an ovs-ofctl port id to an OpenFlow 1.0 port number.
// ovs-ofctl reports the LOCAL port as a negative id.
func portNumber(id int) (uint16, bool) {
	switch {
	case id < 0:
		return model.PortLocal, true
	case id > int(model.PortMax):
		return 0, false
	default:
		return uint16(id), true
	}
}

func convertPortStats(p *ovs.PortStats) model.PortCounters {
	return model.PortCounters{
		model.TxPackets: p.Transmitted.Packets,
		model.TxBytes:   p.Transmitted.Bytes,
		model.RxPackets: p.Received.Packets,
		model.RxBytes:   p.Received.Bytes,
	}
}

// ConvertFlow turns a flow dumped by ovs-ofctl into a raw flow. ovs-ofctl
// flows always carry a match and an action list, possibly empty.
// Packet and byte counters come from the n_packets/n_bytes fields of the
// dump. Duration and hard timeout are not part of ovs.Flow and are left unset.
func ConvertFlow(f *ovs.Flow) model.RawFlow {
	raw := model.RawFlow{
		Stats: map[model.FlowStat]uint64{
			model.Priority:    uint64(max(f.Priority, 0)),
			model.TableID:     uint64(max(f.Table, 0)),
			model.IdleTimeout: uint64(max(f.IdleTimeout, 0)),
			model.PacketCount: f.Stats.PacketCount,
			model.ByteCount:   f.Stats.ByteCount,
		},
		Match:   model.RawMatch{},
		Actions: make([]model.RawAction, 0, len(f.Actions)),
	}

	if f.InPort != 0 {
		if no, ok := portNumber(f.InPort); ok {
			raw.Match[model.InPort] = uint64(no)
		}
	}
	applyProtocol(raw.Match, f.Protocol)

	for _, m := range f.Matches {
		text, err := m.MarshalText()
		if err != nil {
			klog.V(3).Infof("skipping unprintable match %#v: %v", m, err)
			continue
		}
		applyMatch(raw.Match, string(text))
	}

	for _, a := range f.Actions {
		text, err := a.MarshalText()
		if err != nil {
			klog.V(3).Infof("skipping unprintable action %#v: %v", a, err)
			continue
		}
		raw.Actions = append(raw.Actions, parseAction(string(text)))
	}
	return raw
}

var protocols = map[ovs.Protocol]struct{ dlType, nwProto uint64 }{
	ovs.ProtocolARP:    {0x0806, 0},
	ovs.ProtocolIPv4:   {0x0800, 0},
	ovs.ProtocolICMPv4: {0x0800, 1},
	ovs.ProtocolTCPv4:  {0x0800, 6},
	ovs.ProtocolUDPv4:  {0x0800, 17},
	ovs.ProtocolIPv6:   {0x86dd, 0},
	ovs.ProtocolICMPv6: {0x86dd, 58},
	ovs.ProtocolTCPv6:  {0x86dd, 6},
	ovs.ProtocolUDPv6:  {0x86dd, 17},
}

func applyProtocol(m model.RawMatch, p ovs.Protocol) {
	proto, ok := protocols[p]
	if !ok {
		return
	}
	m[model.DlType] = proto.dlType
	if proto.nwProto != 0 {
		m[model.NwProto] = proto.nwProto
	}
}

// applyMatch records one "field=value[/mask]" match term. Terms that have
// no OpenFlow 1.0 counterpart are ignored.
func applyMatch(m model.RawMatch, term string) {
	key, value, ok := strings.Cut(term, "=")
	if !ok {
		return
	}
	value, mask, masked := strings.Cut(value, "/")

	switch key {
	case "in_port":
		if no, ok := parsePort(value); ok {
			m[model.InPort] = uint64(no)
		}
	case "dl_vlan":
		setUint(m, model.DlVlan, value)
	case "dl_vlan_pcp":
		setUint(m, model.DlVlanPcp, value)
	case "dl_type":
		setUint(m, model.DlType, value)
	case "nw_proto", "ip_proto":
		setUint(m, model.NwProto, value)
	case "nw_tos":
		setUint(m, model.NwTos, value)
	case "ip_dscp":
		// DSCP is the upper six bits of the ToS byte
		if v, err := strconv.ParseUint(value, 0, 6); err == nil {
			m[model.NwTos] = v << 2
		}
	case "tp_src", "tcp_src", "udp_src":
		setUint(m, model.TpSrc, value)
	case "tp_dst", "tcp_dst", "udp_dst":
		setUint(m, model.TpDst, value)
	case "dl_src", "eth_src":
		if mac, err := net.ParseMAC(value); err == nil {
			m[model.DlSrc] = model.MACToUint64(mac)
		}
	case "dl_dst", "eth_dst":
		if mac, err := net.ParseMAC(value); err == nil {
			m[model.DlDst] = model.MACToUint64(mac)
		}
	case "nw_src", "ip_src":
		setIPv4(m, model.NwSrc, model.NwSrcNWild, value, mask, masked)
	case "nw_dst", "ip_dst":
		setIPv4(m, model.NwDst, model.NwDstNWild, value, mask, masked)
	case "arp_spa":
		setIPv4(m, model.NwSrc, model.NwSrcNWild, value, mask, masked)
	case "arp_tpa":
		setIPv4(m, model.NwDst, model.NwDstNWild, value, mask, masked)
	}
}

func setUint(m model.RawMatch, field model.MatchField, value string) {
	if v, err := strconv.ParseUint(value, 0, 64); err == nil {
		m[field] = v
	}
}

// setIPv4 stores an address and the number of its low bits that are
// wildcarded. mask may be a prefix length or a dotted netmask.
func setIPv4(m model.RawMatch, addrField, wildField model.MatchField, value, mask string, masked bool) {
	raw, ok := model.IPToUint32(net.ParseIP(value))
	if !ok {
		return
	}
	m[addrField] = uint64(raw)

	wild := uint64(0)
	if masked {
		if bits, err := strconv.Atoi(mask); err == nil && bits >= 0 && bits <= 32 {
			wild = uint64(32 - bits)
		} else if ip := net.ParseIP(mask).To4(); ip != nil {
			ones, size := net.IPMask(ip).Size()
			if size == 32 {
				wild = uint64(32 - ones)
			}
		}
	}
	m[wildField] = wild
}

var namedPorts = map[string]uint16{
	"in_port":    model.PortInPort,
	"table":      model.PortTableReserved,
	"normal":     model.PortNormal,
	"flood":      model.PortFlood,
	"all":        model.PortAll,
	"controller": model.PortController,
	"local":      model.PortLocal,
	"none":       model.PortNone,
}

func parsePort(s string) (uint16, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if no, ok := namedPorts[s]; ok {
		return no, true
	}
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return 0, false
	}
	return uint16(v), true
}

// parseAction maps an ovs-ofctl action to its OpenFlow 1.0 form. Actions
// with no OpenFlow 1.0 equivalent become vendor actions.
func parseAction(text string) model.RawAction {
	text = strings.TrimSpace(text)
	name, arg, _ := strings.Cut(text, ":")
	name = strings.ToLower(name)

	if no, ok := namedPorts[name]; ok && arg == "" && name != "none" && name != "table" {
		return portAction(model.ActionOutput, no)
	}

	switch name {
	case "output":
		if no, ok := parsePort(arg); ok {
			return portAction(model.ActionOutput, no)
		}
	case "mod_dl_src":
		if mac, err := net.ParseMAC(arg); err == nil {
			return argAction(model.ActionSetDlSrc, model.ArgDlAddr, model.MACToUint64(mac))
		}
	case "mod_dl_dst":
		if mac, err := net.ParseMAC(arg); err == nil {
			return argAction(model.ActionSetDlDst, model.ArgDlAddr, model.MACToUint64(mac))
		}
	case "mod_nw_src":
		if raw, ok := model.IPToUint32(net.ParseIP(arg)); ok {
			return argAction(model.ActionSetNwSrc, model.ArgNwAddr, uint64(raw))
		}
	case "mod_nw_dst":
		if raw, ok := model.IPToUint32(net.ParseIP(arg)); ok {
			return argAction(model.ActionSetNwDst, model.ArgNwAddr, uint64(raw))
		}
	case "mod_nw_tos":
		if v, err := strconv.ParseUint(arg, 0, 8); err == nil {
			return argAction(model.ActionSetNwTos, model.ArgNwTos, v)
		}
	case "mod_tp_src":
		if v, err := strconv.ParseUint(arg, 0, 16); err == nil {
			return argAction(model.ActionSetTpSrc, model.ArgTpPort, v)
		}
	case "mod_tp_dst":
		if v, err := strconv.ParseUint(arg, 0, 16); err == nil {
			return argAction(model.ActionSetTpDst, model.ArgTpPort, v)
		}
	case "mod_vlan_vid":
		if v, err := strconv.ParseUint(arg, 0, 16); err == nil {
			return argAction(model.ActionSetVlanVid, model.ArgVlanVid, v)
		}
	case "mod_vlan_pcp":
		if v, err := strconv.ParseUint(arg, 0, 8); err == nil {
			return argAction(model.ActionSetVlanPcp, model.ArgVlanPcp, v)
		}
	case "strip_vlan", "pop_vlan":
		return model.RawAction{Type: model.ActionStripVlan}
	}
	return model.RawAction{Type: model.ActionVendor}
}

func portAction(t model.ActionType, port uint16) model.RawAction {
	return argAction(t, model.ArgPort, uint64(port))
}

func argAction(t model.ActionType, arg model.ActionArg, v uint64) model.RawAction {
	return model.RawAction{Type: t, Args: map[model.ActionArg]uint64{arg: v}}
}
