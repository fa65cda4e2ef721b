package model

// Link is one entry of the topology adjacency list.
// Order in the list is significant and preserved in output.
type Link struct {
	SrcDPID uint64
	SrcPort uint16
	DstDPID uint64
	DstPort uint16
}

// PortCounter names a counter in a raw per-port table.
type PortCounter uint8

const (
	TxPackets PortCounter = iota
	TxBytes
	RxPackets
	RxBytes
)

// PortCounters is the raw counter table of one port. Collectors only fill
// the counters they actually observed.
type PortCounters map[PortCounter]uint64

// PortTable maps port number to its raw counters.
type PortTable map[uint16]PortCounters

// FlowStat names a scalar field of a raw flow entry.
type FlowStat uint8

const (
	DurationSec FlowStat = iota
	DurationNsec
	ByteCount
	PacketCount
	HardTimeout
	IdleTimeout
	Priority
	TableID
)

// MatchField names a header field of an OpenFlow 1.0 match.
type MatchField uint8

const (
	InPort MatchField = iota
	DlVlan
	DlVlanPcp
	DlSrc
	DlDst
	DlType
	NwProto
	NwTos
	NwSrc
	NwDst
	NwSrcNWild
	NwDstNWild
	TpSrc
	TpDst
)

// RawMatch holds the fields a flow matches on. A field that is absent is
// wildcarded.
type RawMatch map[MatchField]uint64

// ActionArg names the argument carried by a raw action.
type ActionArg uint8

const (
	ArgPort ActionArg = iota
	ArgDlAddr
	ArgNwAddr
	ArgNwTos
	ArgTpPort
	ArgVlanVid
	ArgVlanPcp
	ArgQueueID
)

type RawAction struct {
	Type ActionType
	Args map[ActionArg]uint64
}

// RawFlow is a flow entry as reported by a switch.
// Match is nil when the entry carries no match specification and Actions is
// nil when it carries no action list; an empty non-nil Actions is a present,
// empty list.
type RawFlow struct {
	Stats   map[FlowStat]uint64
	Match   RawMatch
	Actions []RawAction
}

// LinkRecord is the JSON form of a Link.
type LinkRecord struct {
	SrcSwitch string `json:"src-switch"`
	SrcPort   uint16 `json:"src-port"`
	DstSwitch string `json:"dst-switch"`
	DstPort   uint16 `json:"dst-port"`
}

type PortRecord struct {
	PortNumber      uint16 `json:"PortNumber"`
	TransmitPackets uint64 `json:"transmitPackets"`
	TransmitBytes   uint64 `json:"transmitBytes"`
	RecvPackets     uint64 `json:"recvPackets"`
	RecvBytes       uint64 `json:"recvBytes"`
}

// Wildcards is the decoded form of an OpenFlow 1.0 wildcard bitmask.
type Wildcards struct {
	InPort    bool  `json:"inPort"`
	DlVlan    bool  `json:"dlVlan"`
	DlSrc     bool  `json:"dlSrc"`
	DlDst     bool  `json:"dlDst"`
	DlType    bool  `json:"dlType"`
	NwProto   bool  `json:"nwProto"`
	TpSrc     bool  `json:"tpSrc"`
	TpDst     bool  `json:"tpDst"`
	DlVlanPcp bool  `json:"dlVlanPcp"`
	NwTos     bool  `json:"nwTos"`
	NwSrcBits uint8 `json:"nwSrcBits"`
	NwDstBits uint8 `json:"nwDstBits"`
}

// MatchRecord carries the match-derived fields of a FlowRecord.
type MatchRecord struct {
	Wildcards   Wildcards `json:"wildcards"`
	IngressPort uint64    `json:"ingressPort"`
	Vlan        uint64    `json:"vlan"`
	DlType      uint64    `json:"dlType"`
	NetProtocol uint64    `json:"netProtocol"`
	TosBits     uint64    `json:"tosBits"`
	SrcIPMask   uint64    `json:"srcIPMask"`
	DstIPMask   uint64    `json:"dstIPMask"`
	SrcPort     uint64    `json:"srcPort"`
	DstPort     uint64    `json:"dstPort"`
	SrcMac      string    `json:"srcMac"`
	DstMac      string    `json:"dstMac"`
	SrcIP       string    `json:"srcIP"`
	DstIP       string    `json:"dstIP"`
}

// ActionRecord is one emitted action. Value is a string for address
// rewrites and a number otherwise.
type ActionRecord struct {
	Type  string `json:"type"`
	Value any    `json:"value"`
}

// FlowRecord is the JSON form of a RawFlow. The embedded match is nil, and
// its fields are left out of the JSON, when the raw flow had no match.
type FlowRecord struct {
	Duration      uint64 `json:"duration"`
	CounterByte   uint64 `json:"counterByte"`
	CounterPacket uint64 `json:"counterPacket"`
	HardTimeout   uint64 `json:"hardTimeout"`
	IdleTimeout   uint64 `json:"idleTimeout"`
	Priority      uint64 `json:"priority"`
	TableID       uint64 `json:"tableId"`
	*MatchRecord
	Actions *[]ActionRecord `json:"actions,omitempty"`
}

type SwitchRecord struct {
	DPID  string       `json:"dpid"`
	Ports []PortRecord `json:"ports"`
	Flows []FlowRecord `json:"flows"`
}

// DatapathStats is what a source reports for one datapath in one poll. A nil
// table means the source does not report that table.
type DatapathStats struct {
	Ports PortTable
	Flows []RawFlow
}
