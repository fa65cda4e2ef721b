package model

import "fmt"

// ActionType is an OpenFlow 1.0 action type (ofp_action_type).
type ActionType uint16

const (
	ActionOutput     ActionType = 0
	ActionSetVlanVid ActionType = 1
	ActionSetVlanPcp ActionType = 2
	ActionStripVlan  ActionType = 3
	ActionSetDlSrc   ActionType = 4
	ActionSetDlDst   ActionType = 5
	ActionSetNwSrc   ActionType = 6
	ActionSetNwDst   ActionType = 7
	ActionSetNwTos   ActionType = 8
	ActionSetTpSrc   ActionType = 9
	ActionSetTpDst   ActionType = 10
	ActionEnqueue    ActionType = 11
	ActionVendor     ActionType = 0xffff
)

var actionTypeNames = map[ActionType]string{
	ActionOutput:     "OFPAT_OUTPUT",
	ActionSetVlanVid: "OFPAT_SET_VLAN_VID",
	ActionSetVlanPcp: "OFPAT_SET_VLAN_PCP",
	ActionStripVlan:  "OFPAT_STRIP_VLAN",
	ActionSetDlSrc:   "OFPAT_SET_DL_SRC",
	ActionSetDlDst:   "OFPAT_SET_DL_DST",
	ActionSetNwSrc:   "OFPAT_SET_NW_SRC",
	ActionSetNwDst:   "OFPAT_SET_NW_DST",
	ActionSetNwTos:   "OFPAT_SET_NW_TOS",
	ActionSetTpSrc:   "OFPAT_SET_TP_SRC",
	ActionSetTpDst:   "OFPAT_SET_TP_DST",
	ActionEnqueue:    "OFPAT_ENQUEUE",
	ActionVendor:     "OFPAT_VENDOR",
}

func (t ActionType) String() string {
	if name, ok := actionTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("OFPAT_%d", uint16(t))
}

// OpenFlow 1.0 wildcard bits (ofp_flow_wildcards).
const (
	WildcardInPort  uint32 = 1 << 0
	WildcardDlVlan  uint32 = 1 << 1
	WildcardDlSrc   uint32 = 1 << 2
	WildcardDlDst   uint32 = 1 << 3
	WildcardDlType  uint32 = 1 << 4
	WildcardNwProto uint32 = 1 << 5
	WildcardTpSrc   uint32 = 1 << 6
	WildcardTpDst   uint32 = 1 << 7

	WildcardNwSrcShift        = 8
	WildcardNwSrcMask  uint32 = 0x3f << WildcardNwSrcShift
	WildcardNwDstShift        = 14
	WildcardNwDstMask  uint32 = 0x3f << WildcardNwDstShift

	WildcardDlVlanPcp uint32 = 1 << 20
	WildcardNwTos     uint32 = 1 << 21

	WildcardAll uint32 = (1 << 22) - 1
)

// Reserved OpenFlow 1.0 port numbers (ofp_port).
const (
	PortMax           uint16 = 0xff00
	PortInPort        uint16 = 0xfff8
	PortTableReserved uint16 = 0xfff9
	PortNormal        uint16 = 0xfffa
	PortFlood         uint16 = 0xfffb
	PortAll           uint16 = 0xfffc
	PortController    uint16 = 0xfffd
	PortLocal         uint16 = 0xfffe
	PortNone          uint16 = 0xffff
)
