package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"

	"github.com/gorilla/mux"
	"k8s.io/klog/v2"

	"github.com/kisy/omniui/pkg/stats"
)

// ErrUnresolvedDependency is returned when a collaborator the endpoints
// read from was not supplied.
var ErrUnresolvedDependency = errors.New("unresolved dependency")

// DefaultPrefix is where the endpoints are mounted unless configured otherwise.
const DefaultPrefix = "/wm/omniui"

type Server struct {
	topo     stats.LinkSource
	switches stats.SwitchStats
}

func NewServer(topo stats.LinkSource, switches stats.SwitchStats) (*Server, error) {
	if isNil(topo) {
		return nil, fmt.Errorf("%w: topology provider", ErrUnresolvedDependency)
	}
	if isNil(switches) {
		return nil, fmt.Errorf("%w: switch stats collector", ErrUnresolvedDependency)
	}
	return &Server{topo: topo, switches: switches}, nil
}

// isNil also catches interfaces holding a nil pointer or func.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Chan, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// RegisterHandlers mounts the link and switch endpoints under prefix.
func (s *Server) RegisterHandlers(root *Resource, prefix string) error {
	if err := Mount(root, prefix+"/link/json", http.HandlerFunc(s.handleLinks)); err != nil {
		return err
	}
	if err := Mount(root, prefix+"/switch/json", http.HandlerFunc(s.handleSwitches)); err != nil {
		return err
	}
	klog.Infof("mounted %s/link/json and %s/switch/json", prefix, prefix)
	return nil
}

func (s *Server) handleLinks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, stats.NormalizeLinks(s.topo.AdjacencyList()))
}

func (s *Server) handleSwitches(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, stats.NormalizeSwitches(s.switches))
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		klog.Errorf("failed to write response: %v", err)
	}
}

// NewRouter serves metrics at /metrics when metrics is not nil and hands
// every other path to the resource tree.
func NewRouter(root *Resource, metrics http.Handler) *mux.Router {
	router := mux.NewRouter()
	if metrics != nil {
		router.Handle("/metrics", metrics).Methods(http.MethodGet)
	}
	router.PathPrefix("/").Handler(root)
	return router
}
