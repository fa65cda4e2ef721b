package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kisy/omniui/pkg/stats"
)

// Exporter publishes the same snapshot the REST endpoints serve as
// Prometheus metrics.
type Exporter struct {
	topo     stats.LinkSource
	switches stats.SwitchStats

	switchCount prometheus.Gauge
	linkCount   prometheus.Gauge
	uptime      prometheus.Gauge

	portBytes   *prometheus.GaugeVec
	portPackets *prometheus.GaugeVec
	flowCount   *prometheus.GaugeVec
	flowBytes   *prometheus.GaugeVec

	startTime time.Time
}

func NewExporter(topo stats.LinkSource, switches stats.SwitchStats) *Exporter {
	return &Exporter{
		topo:      topo,
		switches:  switches,
		startTime: time.Now(),

		switchCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "omniui_switches",
			Help: "Number of switches with statistics",
		}),
		linkCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "omniui_links",
			Help: "Number of links in the topology",
		}),
		uptime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "omniui_uptime_seconds",
			Help: "Adapter uptime in seconds",
		}),

		portBytes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "omniui_port_bytes",
				Help: "Bytes counted on a switch port",
			},
			[]string{"dpid", "port", "direction"}, // "transmit" or "receive"
		),
		portPackets: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "omniui_port_packets",
				Help: "Packets counted on a switch port",
			},
			[]string{"dpid", "port", "direction"},
		),
		flowCount: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "omniui_switch_flows",
				Help: "Number of flow entries installed on a switch",
			},
			[]string{"dpid"},
		),
		flowBytes: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "omniui_switch_flow_bytes",
				Help: "Sum of byte counters over the flow entries of a switch",
			},
			[]string{"dpid"},
		),
	}
}

// Describe implements prometheus.Collector
func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	e.switchCount.Describe(ch)
	e.linkCount.Describe(ch)
	e.uptime.Describe(ch)

	e.portBytes.Describe(ch)
	e.portPackets.Describe(ch)
	e.flowCount.Describe(ch)
	e.flowBytes.Describe(ch)
}

// Collect implements prometheus.Collector
func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	// Switches and ports come and go between polls
	e.portBytes.Reset()
	e.portPackets.Reset()
	e.flowCount.Reset()
	e.flowBytes.Reset()

	switches := stats.NormalizeSwitches(e.switches)
	e.switchCount.Set(float64(len(switches)))
	e.linkCount.Set(float64(len(e.topo.AdjacencyList())))

	for _, sw := range switches {
		for _, p := range sw.Ports {
			port := strconv.Itoa(int(p.PortNumber))
			e.portBytes.WithLabelValues(sw.DPID, port, "transmit").Set(float64(p.TransmitBytes))
			e.portBytes.WithLabelValues(sw.DPID, port, "receive").Set(float64(p.RecvBytes))
			e.portPackets.WithLabelValues(sw.DPID, port, "transmit").Set(float64(p.TransmitPackets))
			e.portPackets.WithLabelValues(sw.DPID, port, "receive").Set(float64(p.RecvPackets))
		}

		var bytes uint64
		for _, f := range sw.Flows {
			bytes += f.CounterByte
		}
		e.flowCount.WithLabelValues(sw.DPID).Set(float64(len(sw.Flows)))
		e.flowBytes.WithLabelValues(sw.DPID).Set(float64(bytes))
	}

	e.uptime.Set(time.Since(e.startTime).Seconds())

	e.switchCount.Collect(ch)
	e.linkCount.Collect(ch)
	e.uptime.Collect(ch)

	e.portBytes.Collect(ch)
	e.portPackets.Collect(ch)
	e.flowCount.Collect(ch)
	e.flowBytes.Collect(ch)
}
