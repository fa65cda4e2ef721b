package stats

import (
	"sort"
	"strings"

	"github.com/kisy/omniui/pkg/model"
)

// LinkSource is the read side of a topology provider.
type LinkSource interface {
	AdjacencyList() []model.Link
}

// SwitchStats is the read side of a stats collector.
type SwitchStats interface {
	Datapaths() []uint64
	PortTable(dpid uint64) (model.PortTable, bool)
	FlowTable(dpid uint64) ([]model.RawFlow, bool)
}

type valueKind uint8

const (
	valueNumber valueKind = iota
	valueMAC
	valueIP
)

// actionKinds lists the action types that are reported and where their
// value comes from. Anything else is dropped.
var actionKinds = map[model.ActionType]struct {
	arg  model.ActionArg
	kind valueKind
}{
	model.ActionOutput:   {model.ArgPort, valueNumber},
	model.ActionSetDlSrc: {model.ArgDlAddr, valueMAC},
	model.ActionSetDlDst: {model.ArgDlAddr, valueMAC},
	model.ActionSetNwSrc: {model.ArgNwAddr, valueIP},
	model.ActionSetNwDst: {model.ArgNwAddr, valueIP},
	model.ActionSetNwTos: {model.ArgNwTos, valueNumber},
	model.ActionSetTpSrc: {model.ArgTpPort, valueNumber},
	model.ActionSetTpDst: {model.ArgTpPort, valueNumber},
}

func valueOr[K comparable](m map[K]uint64, key K, def uint64) uint64 {
	if v, ok := m[key]; ok {
		return v
	}
	return def
}

// NormalizeSwitches builds one record per datapath known to src, in the
// order src reports them.
func NormalizeSwitches(src SwitchStats) []model.SwitchRecord {
	dpids := src.Datapaths()
	switches := make([]model.SwitchRecord, 0, len(dpids))
	for _, dp := range dpids {
		sw := model.SwitchRecord{
			DPID:  model.FormatDPID(dp),
			Ports: []model.PortRecord{},
			Flows: []model.FlowRecord{},
		}
		if ports, ok := src.PortTable(dp); ok {
			sw.Ports = NormalizePorts(ports)
		}
		if flows, ok := src.FlowTable(dp); ok {
			for _, f := range flows {
				sw.Flows = append(sw.Flows, NormalizeFlow(f))
			}
		}
		switches = append(switches, sw)
	}
	return switches
}

// NormalizePorts returns the port records of a table ordered by port number.
func NormalizePorts(ports model.PortTable) []model.PortRecord {
	numbers := make([]uint16, 0, len(ports))
	for no := range ports {
		numbers = append(numbers, no)
	}
	sort.Slice(numbers, func(i, j int) bool { return numbers[i] < numbers[j] })

	records := make([]model.PortRecord, 0, len(numbers))
	for _, no := range numbers {
		records = append(records, NormalizePort(no, ports[no]))
	}
	return records
}

func NormalizePort(no uint16, c model.PortCounters) model.PortRecord {
	return model.PortRecord{
		PortNumber:      no,
		TransmitPackets: valueOr(c, model.TxPackets, 0),
		TransmitBytes:   valueOr(c, model.TxBytes, 0),
		RecvPackets:     valueOr(c, model.RxPackets, 0),
		RecvBytes:       valueOr(c, model.RxBytes, 0),
	}
}

// NormalizeFlow converts a raw flow entry. Duration keeps whole seconds only.
func NormalizeFlow(f model.RawFlow) model.FlowRecord {
	res := model.FlowRecord{
		Duration:      valueOr(f.Stats, model.DurationSec, 0) + valueOr(f.Stats, model.DurationNsec, 0)/1e9,
		CounterByte:   valueOr(f.Stats, model.ByteCount, 0),
		CounterPacket: valueOr(f.Stats, model.PacketCount, 0),
		HardTimeout:   valueOr(f.Stats, model.HardTimeout, 0),
		IdleTimeout:   valueOr(f.Stats, model.IdleTimeout, 0),
		Priority:      valueOr(f.Stats, model.Priority, 0),
		TableID:       valueOr(f.Stats, model.TableID, 0),
	}
	if f.Match != nil {
		res.MatchRecord = normalizeMatch(f.Match)
	}
	if f.Actions != nil {
		actions := NormalizeActions(f.Actions)
		res.Actions = &actions
	}
	return res
}

func normalizeMatch(m model.RawMatch) *model.MatchRecord {
	return &model.MatchRecord{
		Wildcards:   DecodeWildcards(WildcardMask(m)),
		IngressPort: valueOr(m, model.InPort, 0),
		Vlan:        valueOr(m, model.DlVlan, 0),
		DlType:      valueOr(m, model.DlType, 0),
		NetProtocol: valueOr(m, model.NwProto, 0),
		TosBits:     valueOr(m, model.NwTos, 0),
		SrcIPMask:   valueOr(m, model.NwSrcNWild, 0),
		DstIPMask:   valueOr(m, model.NwDstNWild, 0),
		SrcPort:     valueOr(m, model.TpSrc, 0),
		DstPort:     valueOr(m, model.TpDst, 0),
		SrcMac:      model.FormatMAC(valueOr(m, model.DlSrc, 0)),
		DstMac:      model.FormatMAC(valueOr(m, model.DlDst, 0)),
		SrcIP:       model.FormatIP(uint32(valueOr(m, model.NwSrc, 0))),
		DstIP:       model.FormatIP(uint32(valueOr(m, model.NwDst, 0))),
	}
}

// NormalizeActions keeps the known action kinds in input order. The result
// is never nil.
func NormalizeActions(raw []model.RawAction) []model.ActionRecord {
	actions := make([]model.ActionRecord, 0, len(raw))
	for _, act := range raw {
		kind, ok := actionKinds[act.Type]
		if !ok {
			continue
		}
		v := valueOr(act.Args, kind.arg, 0)
		rec := model.ActionRecord{Type: strings.TrimPrefix(act.Type.String(), "OFPAT_")}
		switch kind.kind {
		case valueMAC:
			rec.Value = model.FormatMAC(v)
		case valueIP:
			rec.Value = model.FormatIP(uint32(v))
		default:
			rec.Value = v
		}
		actions = append(actions, rec)
	}
	return actions
}

var wildcardFields = []struct {
	field model.MatchField
	bit   uint32
}{
	{model.InPort, model.WildcardInPort},
	{model.DlVlan, model.WildcardDlVlan},
	{model.DlSrc, model.WildcardDlSrc},
	{model.DlDst, model.WildcardDlDst},
	{model.DlType, model.WildcardDlType},
	{model.NwProto, model.WildcardNwProto},
	{model.TpSrc, model.WildcardTpSrc},
	{model.TpDst, model.WildcardTpDst},
	{model.DlVlanPcp, model.WildcardDlVlanPcp},
	{model.NwTos, model.WildcardNwTos},
}

// WildcardMask derives the ofp_match wildcards of a raw match: every absent
// field is wildcarded, an absent address wildcards all 32 bits and a present
// one wildcards its N_WILD count.
func WildcardMask(m model.RawMatch) uint32 {
	var mask uint32
	for _, wf := range wildcardFields {
		if _, ok := m[wf.field]; !ok {
			mask |= wf.bit
		}
	}
	mask |= addrWildcardBits(m, model.NwSrc, model.NwSrcNWild) << model.WildcardNwSrcShift
	mask |= addrWildcardBits(m, model.NwDst, model.NwDstNWild) << model.WildcardNwDstShift
	return mask
}

func addrWildcardBits(m model.RawMatch, addr, nwild model.MatchField) uint32 {
	if _, ok := m[addr]; !ok {
		return 32
	}
	return uint32(min(valueOr(m, nwild, 0), 32))
}

// DecodeWildcards splits a wildcard bitmask into named flags. Address
// wildcard counts of 32 or more mean the whole address is ignored and are
// reported as 32.
func DecodeWildcards(mask uint32) model.Wildcards {
	return model.Wildcards{
		InPort:    mask&model.WildcardInPort != 0,
		DlVlan:    mask&model.WildcardDlVlan != 0,
		DlSrc:     mask&model.WildcardDlSrc != 0,
		DlDst:     mask&model.WildcardDlDst != 0,
		DlType:    mask&model.WildcardDlType != 0,
		NwProto:   mask&model.WildcardNwProto != 0,
		TpSrc:     mask&model.WildcardTpSrc != 0,
		TpDst:     mask&model.WildcardTpDst != 0,
		DlVlanPcp: mask&model.WildcardDlVlanPcp != 0,
		NwTos:     mask&model.WildcardNwTos != 0,
		NwSrcBits: uint8(min((mask&model.WildcardNwSrcMask)>>model.WildcardNwSrcShift, 32)),
		NwDstBits: uint8(min((mask&model.WildcardNwDstMask)>>model.WildcardNwDstShift, 32)),
	}
}
