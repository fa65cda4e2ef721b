package stats

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"k8s.io/klog/v2"

	"github.com/kisy/omniui/pkg/model"
)

// Source reports the current port and flow tables of the datapaths it can see.
type Source interface {
	Poll(ctx context.Context) (map[uint64]model.DatapathStats, error)
}

// Collector keeps the latest tables reported by a Source. Tables are
// replaced as a whole on every poll and never modified in place, so readers
// may hold on to what they get back.
type Collector struct {
	source Source

	mu         sync.RWMutex
	startTime  time.Time
	lastUpdate time.Time

	gcInterval time.Duration
	dataTTL    time.Duration
	nextGC     time.Time

	ports    map[uint64]model.PortTable
	flows    map[uint64][]model.RawFlow
	lastSeen map[uint64]time.Time

	now func() time.Time
}

func NewCollector(source Source) *Collector {
	now := time.Now()
	return &Collector{
		source:     source,
		startTime:  now,
		lastUpdate: now,
		gcInterval: 60 * time.Second,
		dataTTL:    300 * time.Second,
		nextGC:     now.Add(60 * time.Second),
		ports:      make(map[uint64]model.PortTable),
		flows:      make(map[uint64][]model.RawFlow),
		lastSeen:   make(map[uint64]time.Time),
		now:        time.Now,
	}
}

// SetConfig sets how often stale datapaths are looked for and how long a
// datapath may go unreported before it is dropped.
func (c *Collector) SetConfig(gcInterval, dataTTL time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gcInterval = gcInterval
	c.dataTTL = dataTTL
	c.nextGC = c.now().Add(gcInterval)
}

// Update polls the source once. On error the previous snapshot is kept.
func (c *Collector) Update(ctx context.Context) error {
	polled, err := c.source.Poll(ctx)
	if err != nil {
		return fmt.Errorf("polling switch stats: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for dp, st := range polled {
		if st.Ports != nil {
			c.ports[dp] = st.Ports
		} else {
			delete(c.ports, dp)
		}
		if st.Flows != nil {
			c.flows[dp] = st.Flows
		} else {
			delete(c.flows, dp)
		}
		c.lastSeen[dp] = now
	}
	klog.V(3).Infof("polled %d datapaths", len(polled))

	if now.After(c.nextGC) {
		for dp, seen := range c.lastSeen {
			if now.Sub(seen) > c.dataTTL {
				klog.Infof("dropping stale datapath %s, last seen %s ago", model.FormatDPID(dp), now.Sub(seen).Round(time.Second))
				delete(c.lastSeen, dp)
				delete(c.ports, dp)
				delete(c.flows, dp)
			}
		}
		c.nextGC = now.Add(c.gcInterval)
	}

	c.lastUpdate = now
	return nil
}

// Datapaths returns the known datapath ids in ascending order.
func (c *Collector) Datapaths() []uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	dps := make([]uint64, 0, len(c.lastSeen))
	for dp := range c.lastSeen {
		dps = append(dps, dp)
	}
	sort.Slice(dps, func(i, j int) bool { return dps[i] < dps[j] })
	return dps
}

func (c *Collector) PortTable(dpid uint64) (model.PortTable, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ports, ok := c.ports[dpid]
	return ports, ok
}

func (c *Collector) FlowTable(dpid uint64) ([]model.RawFlow, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	flows, ok := c.flows[dpid]
	return flows, ok
}

func (c *Collector) GetStartTime() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.startTime
}

func (c *Collector) GetLastUpdate() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastUpdate
}
