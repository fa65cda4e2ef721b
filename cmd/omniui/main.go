package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/digitalocean/go-openvswitch/ovs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"

	"github.com/kisy/omniui/config"
	"github.com/kisy/omniui/pkg/metrics"
	"github.com/kisy/omniui/pkg/model"
	"github.com/kisy/omniui/pkg/source"
	"github.com/kisy/omniui/pkg/stats"
	"github.com/kisy/omniui/pkg/topology"
	"github.com/kisy/omniui/pkg/web"
)

// options holds command-line values. They are applied on top of the
// config file, but only when set explicitly.
type options struct {
	cfgFile      string
	httpAddr     string
	apiPrefix    string
	syncInterval int
	gcInterval   int
	dataTTL      int
	source       string
	useSudo      bool
	bridges      []string
	netlinkDPID  string
	topologyFile string
	noMetrics    bool
}

func main() {
	defer klog.Flush()
	if err := newRootCmd(&options{}).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(opts *options) *cobra.Command {
	def := config.DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "omniui",
		Short: "Serve SDN topology and switch statistics as JSON",
		Long: "omniui polls Open vSwitch bridges (or host interfaces) for port and flow statistics\n" +
			"and serves them, together with the switch topology, as a JSON REST API for dashboards.",
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&opts.cfgFile, "config", "c", "", "Path to TOML configuration file")
	pf.StringVarP(&opts.source, "source", "S", def.Source, "Stats source (ovs, netlink)")
	pf.StringArrayVarP(&opts.bridges, "bridge", "b", nil, "OVS bridge as name=dpid (can be specified multiple times)")
	pf.BoolVar(&opts.useSudo, "sudo", def.UseSudo, "Run ovs-ofctl through sudo")
	pf.StringVar(&opts.netlinkDPID, "netlink-dpid", def.NetlinkDPID, "Datapath id reported for host interfaces with --source netlink")
	pf.StringVarP(&opts.topologyFile, "topology", "t", def.TopologyFile, "YAML or JSON file with the link list")

	klogFlags := flag.NewFlagSet("klog", flag.ExitOnError)
	klog.InitFlags(klogFlags)
	pf.AddGoFlagSet(klogFlags)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Poll statistics and serve the REST API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}
	f := serveCmd.Flags()
	f.StringVarP(&opts.httpAddr, "listen", "l", def.HTTPAddr, "Web server address")
	f.StringVar(&opts.apiPrefix, "prefix", def.APIPrefix, "Path the REST endpoints are mounted under")
	f.IntVarP(&opts.syncInterval, "sync", "s", def.SyncInterval, "Stats sync interval in seconds")
	f.IntVar(&opts.gcInterval, "gc", def.GCInterval, "Garbage collection (GC) interval in seconds")
	f.IntVar(&opts.dataTTL, "ttl", def.DataTTL, "Seconds a switch may go unreported before it is dropped")
	f.BoolVar(&opts.noMetrics, "no-metrics", false, "Do not serve /metrics")

	rootCmd.AddCommand(serveCmd, newDumpCmd(opts))
	return rootCmd
}

// loadConfig merges defaults, the config file and explicitly set flags, in
// that order, and validates the result.
func loadConfig(cmd *cobra.Command, opts *options) (config.Config, error) {
	cfg := config.DefaultConfig()
	if err := config.LoadConfig(opts.cfgFile, &cfg); err != nil {
		return cfg, err
	}

	changed := cmd.Flags().Changed
	if changed("listen") {
		cfg.HTTPAddr = opts.httpAddr
	}
	if changed("prefix") {
		cfg.APIPrefix = opts.apiPrefix
	}
	if changed("sync") {
		cfg.SyncInterval = opts.syncInterval
	}
	if changed("gc") {
		cfg.GCInterval = opts.gcInterval
	}
	if changed("ttl") {
		cfg.DataTTL = opts.dataTTL
	}
	if changed("source") {
		cfg.Source = opts.source
	}
	if changed("sudo") {
		cfg.UseSudo = opts.useSudo
	}
	if changed("netlink-dpid") {
		cfg.NetlinkDPID = opts.netlinkDPID
	}
	if changed("topology") {
		cfg.TopologyFile = opts.topologyFile
	}
	if changed("no-metrics") {
		cfg.Metrics = !opts.noMetrics
	}
	for _, v := range opts.bridges {
		b, err := config.ParseBridgeFlag(v)
		if err != nil {
			return cfg, err
		}
		cfg.Bridges = append(cfg.Bridges, b)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newSource(cfg config.Config) (stats.Source, error) {
	switch cfg.Source {
	case "netlink":
		dpid, err := model.ParseDPID(cfg.NetlinkDPID)
		if err != nil {
			return nil, err
		}
		return source.NewNetlink(dpid), nil
	default:
		bridges, err := cfg.OVSBridges()
		if err != nil {
			return nil, err
		}
		var ovsOpts []ovs.OptionFunc
		if cfg.UseSudo {
			ovsOpts = append(ovsOpts, ovs.Sudo())
		}
		return source.NewOVS(ovs.New(ovsOpts...), bridges), nil
	}
}

func serve(cfg config.Config) error {
	klog.Infof("omniui starting: source=%s listen=%s prefix=%s sync=%ds", cfg.Source, cfg.HTTPAddr, cfg.APIPrefix, cfg.SyncInterval)

	discovery := topology.NewDiscovery(cfg.TopologyFile)
	if err := discovery.Reload(); err != nil {
		return err
	}

	src, err := newSource(cfg)
	if err != nil {
		return err
	}
	collector := stats.NewCollector(src)
	collector.SetConfig(time.Duration(cfg.GCInterval)*time.Second, time.Duration(cfg.DataTTL)*time.Second)

	server, err := web.NewServer(discovery, collector)
	if err != nil {
		return err
	}
	root := web.NewResource()
	if err := server.RegisterHandlers(root, cfg.APIPrefix); err != nil {
		return err
	}

	var metricsHandler http.Handler
	if cfg.Metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(metrics.NewExporter(discovery, collector))
		metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           web.NewRouter(root, metricsHandler),
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()
	klog.Infof("REST API available at http://%s%s/switch/json", cfg.HTTPAddr, cfg.APIPrefix)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(time.Duration(cfg.SyncInterval) * time.Second)
	defer ticker.Stop()

	sync := func() {
		if err := collector.Update(ctx); err != nil {
			klog.Errorf("failed to update stats: %v", err)
		}
		if err := discovery.Reload(); err != nil {
			klog.Errorf("failed to reload topology: %v", err)
		}
	}
	sync()

	for {
		select {
		case <-ticker.C:
			sync()
		case err := <-serveErr:
			return fmt.Errorf("web server: %w", err)
		case <-ctx.Done():
			klog.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		}
	}
}
