package topology

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
	"k8s.io/klog/v2"

	"github.com/kisy/omniui/pkg/model"
)

// LinkDesc is one link as written in a topology file. Switch ids accept
// any form model.ParseDPID understands.
type LinkDesc struct {
	SrcSwitch string `json:"src-switch" yaml:"src-switch"`
	SrcPort   uint16 `json:"src-port" yaml:"src-port"`
	DstSwitch string `json:"dst-switch" yaml:"dst-switch"`
	DstPort   uint16 `json:"dst-port" yaml:"dst-port"`
}

// TopoDesc is the on-disk topology description.
type TopoDesc struct {
	Links []LinkDesc `json:"links" yaml:"links"`
}

// Discovery holds the adjacency list served by the link endpoint.
type Discovery struct {
	file string

	mu    sync.RWMutex
	links []model.Link
}

// NewDiscovery returns a Discovery fed from file. An empty file name gives
// a Discovery that only changes through SetLinks.
func NewDiscovery(file string) *Discovery {
	return &Discovery{file: file}
}

// SetLinks replaces the adjacency list.
func (d *Discovery) SetLinks(links []model.Link) {
	cp := make([]model.Link, len(links))
	copy(cp, links)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.links = cp
}

// AdjacencyList returns a copy of the current adjacency list in discovery order.
func (d *Discovery) AdjacencyList() []model.Link {
	d.mu.RLock()
	defer d.mu.RUnlock()

	cp := make([]model.Link, len(d.links))
	copy(cp, d.links)
	return cp
}

// Reload re-reads the topology file. The current list is kept if the file
// cannot be read or parsed.
func (d *Discovery) Reload() error {
	if d.file == "" {
		return nil
	}
	links, err := ReadLinks(d.file, nil)
	if err != nil {
		return err
	}
	d.SetLinks(links)
	klog.V(3).Infof("loaded %d links from %s", len(links), d.file)
	return nil
}

// ReadLinks parses a topology description. When dict is empty the named
// file is read. Files ending in .json are decoded as JSON, anything else
// as YAML.
func ReadLinks(filename string, dict []byte) ([]model.Link, error) {
	var err error
	if len(dict) == 0 {
		dict, err = os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("reading topology file: %w", err)
		}
	}

	desc := TopoDesc{}
	if strings.EqualFold(path.Ext(filename), ".json") {
		err = json.Unmarshal(dict, &desc)
	} else {
		err = yaml.Unmarshal(dict, &desc)
	}
	if err != nil {
		return nil, fmt.Errorf("decoding topology file %s: %w", filename, err)
	}

	links := make([]model.Link, 0, len(desc.Links))
	for i, l := range desc.Links {
		src, err := model.ParseDPID(l.SrcSwitch)
		if err != nil {
			return nil, fmt.Errorf("link %d: src-switch: %w", i, err)
		}
		dst, err := model.ParseDPID(l.DstSwitch)
		if err != nil {
			return nil, fmt.Errorf("link %d: dst-switch: %w", i, err)
		}
		links = append(links, model.Link{SrcDPID: src, SrcPort: l.SrcPort, DstDPID: dst, DstPort: l.DstPort})
	}
	return links, nil
}
