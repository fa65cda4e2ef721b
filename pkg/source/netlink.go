package source

import (
	"context"
	"fmt"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
	"k8s.io/klog/v2"

	"github.com/kisy/omniui/pkg/model"
)

// Netlink reports the counters of the host's network interfaces as the
// ports of a single datapath, numbered by interface index. It has no flow
// table.
type Netlink struct {
	dpid     uint64
	linkList func() ([]netlink.Link, error)
}

func NewNetlink(dpid uint64) *Netlink {
	return &Netlink{dpid: dpid, linkList: netlink.LinkList}
}

func (n *Netlink) Poll(ctx context.Context) (map[uint64]model.DatapathStats, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	links, err := n.linkList()
	if err != nil {
		return nil, fmt.Errorf("listing links: %w", err)
	}
	return map[uint64]model.DatapathStats{n.dpid: {Ports: linkPortTable(links)}}, nil
}

func linkPortTable(links []netlink.Link) model.PortTable {
	ports := make(model.PortTable, len(links))
	for _, l := range links {
		attrs := l.Attrs()
		if attrs == nil || attrs.RawFlags&unix.IFF_LOOPBACK != 0 {
			continue
		}
		if attrs.Index <= 0 || attrs.Index > int(model.PortMax) {
			klog.V(3).Infof("skipping link %s with index %d", attrs.Name, attrs.Index)
			continue
		}
		counters := model.PortCounters{}
		if st := attrs.Statistics; st != nil {
			counters[model.TxPackets] = st.TxPackets
			counters[model.TxBytes] = st.TxBytes
			counters[model.RxPackets] = st.RxPackets
			counters[model.RxBytes] = st.RxBytes
		}
		ports[uint16(attrs.Index)] = counters
	}
	return ports
}
