package stats

import "github.com/kisy/omniui/pkg/model"

// NormalizeLinks renders the adjacency list in its original order.
func NormalizeLinks(links []model.Link) []model.LinkRecord {
	records := make([]model.LinkRecord, 0, len(links))
	for _, l := range links {
		records = append(records, model.LinkRecord{
			SrcSwitch: model.FormatDPID(l.SrcDPID),
			SrcPort:   l.SrcPort,
			DstSwitch: model.FormatDPID(l.DstDPID),
			DstPort:   l.DstPort,
		})
	}
	return records
}
