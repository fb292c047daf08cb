// fluxio-echo is a demo AF_XDP packet-loopback binary: it opens a
// socket on one interface/queue and bounces every received frame back
// out the same queue, exercising whichever bind mode its config
// selects.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fluxio/fluxio"
)

var (
	version   = "v0.1.0"
	buildTime = "unknown"
	gitHash   = "unknown"
)

func main() {
	var rootCmd = &cobra.Command{
		Use:   "fluxio-echo",
		Short: "fluxio-echo - AF_XDP packet loopback demo",
		Long: `fluxio-echo opens a zero-copy AF_XDP socket on one network
interface and queue and echoes every received frame back out the same
queue, unmodified.

It exists to exercise the library end to end: UMEM registration, ring
binding, the chosen bind mode (managed engine or split ownership), and
the Prometheus metrics and structured logging every mode carries.`,
		Version: fmt.Sprintf("%s (built: %s, commit: %s)", version, buildTime, gitHash),
		RunE:    runEcho,
	}

	rootCmd.Flags().String("config", "", "Configuration file path")
	rootCmd.Flags().String("interface", "", "Network interface to bind (required)")
	rootCmd.Flags().Uint32("queue-id", 0, "Queue index to bind")
	rootCmd.Flags().Uint32("frame-size", 2048, "UMEM frame size (2048 or 4096)")
	rootCmd.Flags().Uint32("frame-count", 4096, "UMEM frame count (power of two)")
	rootCmd.Flags().Uint32("rx-ring-size", 2048, "RX ring size (power of two)")
	rootCmd.Flags().Uint32("tx-ring-size", 2048, "TX ring size (power of two)")
	rootCmd.Flags().Uint32("fill-ring-size", 2048, "Fill ring size (power of two)")
	rootCmd.Flags().Uint32("completion-ring-size", 2048, "Completion ring size (power of two)")
	rootCmd.Flags().String("poller", "adaptive", "RX wait strategy: busy, adaptive, or syscall")
	rootCmd.Flags().Uint32("batch-size", 32, "Frames per callback invocation (engine mode only)")
	rootCmd.Flags().String("congestion", "drop_new", "TX backpressure policy: drop_new or block")
	rootCmd.Flags().Bool("load-xdp", false, "Reserved for an external XDP program loader")
	rootCmd.Flags().String("bind-mode", "engine", "Bind mode: engine or split")
	rootCmd.Flags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.Flags().String("admin-addr", ":9090", "Admin/metrics HTTP listen address")

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}

func runEcho(cmd *cobra.Command, args []string) error {
	cfg, err := fluxio.LoadConfig(cmd)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logger, err := fluxio.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	logger = logger.WithSocket(cfg.Interface, cfg.QueueID)
	logger.Infof("starting fluxio-echo %s", version)

	metricsCollector, metricsHandler := fluxio.NewMetricsCollector()

	adminAddr, _ := cmd.Flags().GetString("admin-addr")
	admin := startAdminServer(adminAddr, metricsHandler, logger)
	defer admin.Close()

	socket, err := fluxio.OpenWithLogger(*cfg, logger)
	if err != nil {
		logger.WithError(err).Error("failed to open socket")
		return err
	}
	defer socket.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		logger.Infof("received signal %s, shutting down", sig)
		cancel()
	}()

	bindMode, err := cfg.ResolveBindMode()
	if err != nil {
		return err
	}

	switch bindMode {
	case fluxio.BindSplit:
		return runSplit(ctx, socket, cfg, metricsCollector, logger)
	default:
		return runEngine(ctx, socket, metricsCollector, logger)
	}
}

// runEngine drives Mode A: one goroutine, one callback, every batch
// transmitted straight back where it came from. A second errgroup task
// logs counters every five seconds so the demo has visible output even
// at idle.
func runEngine(ctx context.Context, socket *fluxio.Socket, metricsCollector *fluxio.MetricsCollector, logger *fluxio.Logger) error {
	engine, err := socket.NewEngine(metricsCollector, logger)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	echo := func(batch *fluxio.Batch) {
		for _, ref := range batch.Refs() {
			ref.Send()
		}
	}

	statsLoop := func(taskCtx context.Context) error {
		ticker := time.NewTicker(5 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-taskCtx.Done():
				return taskCtx.Err()
			case <-ticker.C:
				s := engine.Stats()
				logger.WithFields(map[string]interface{}{
					"rx_packets":  s.RXPackets,
					"tx_packets":  s.TXPackets,
					"wakeups":     s.Wakeups,
					"frames_free": s.FramesFree,
				}).Info("engine stats")
			}
		}
	}

	err = engine.RunWithTasks(ctx, echo, statsLoop)
	if err != nil && err != context.Canceled {
		logger.WithError(err).Error("engine stopped with error")
		return err
	}
	logger.Info("engine stopped cleanly")
	return nil
}

// runSplit drives Mode B: a dedicated RX goroutine hands every
// received packet to a dedicated TX goroutine over a channel, which
// sends it straight back out the same queue.
func runSplit(ctx context.Context, socket *fluxio.Socket, cfg *fluxio.Config, metricsCollector *fluxio.MetricsCollector, logger *fluxio.Logger) error {
	rx, tx, err := fluxio.Split(socket, metricsCollector)
	if err != nil {
		return fmt.Errorf("split socket: %w", err)
	}

	pkts := make(chan *fluxio.Packet, cfg.BatchSize*4)

	rxDone := make(chan struct{})
	go func() {
		defer close(rxDone)
		if cfg.PinCPU != nil {
			if err := rx.PinCPU(*cfg.PinCPU); err != nil {
				logger.WithError(err).Warn("rx cpu pin failed")
			}
		}
		for {
			if ctx.Err() != nil {
				close(pkts)
				return
			}
			batch := rx.Recv(cfg.BatchSize)
			if len(batch) == 0 {
				time.Sleep(time.Microsecond * 50)
				continue
			}
			for _, p := range batch {
				select {
				case pkts <- p:
				case <-ctx.Done():
					p.Close()
				}
			}
		}
	}()

	txDone := make(chan struct{})
	go func() {
		defer close(txDone)
		if cfg.PinCPU != nil {
			if err := tx.PinCPU(*cfg.PinCPU); err != nil {
				logger.WithError(err).Warn("tx cpu pin failed")
			}
		}
		for p := range pkts {
			if err := tx.Send(p); err != nil {
				logger.WithError(err).Warn("tx send failed, dropping packet")
				p.Close()
			}
			if tx.Pending() >= int(cfg.BatchSize) {
				tx.Flush()
			}
		}
		tx.Flush()
	}()

	statsTicker := time.NewTicker(5 * time.Second)
	defer statsTicker.Stop()
	for {
		select {
		case <-ctx.Done():
			<-rxDone
			<-txDone
			logger.Info("split loops stopped cleanly")
			return nil
		case <-statsTicker.C:
			rs := rx.Stats()
			ts := tx.Stats()
			logger.WithFields(map[string]interface{}{
				"rx_packets": rs.Packets,
				"tx_packets": ts.Packets,
				"rx_wakeups": rs.Wakeups,
				"tx_wakeups": ts.Wakeups,
			}).Info("split stats")
		}
	}
}

// startAdminServer serves Prometheus metrics and a health check on
// addr, mirroring the teacher's admin server but with fluxio's own
// endpoints.
func startAdminServer(addr string, metricsHandler http.Handler, logger *fluxio.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","version":"%s"}`, version)
	})
	mux.Handle("/metrics", metricsHandler)

	server := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("admin server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("admin server failed")
		}
	}()
	return server
}
