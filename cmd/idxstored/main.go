// Command idxstored serves a registry over REST, with Prometheus metrics on /metrics.
package main

import (
	"context"
	"errors"
	"flag"
	log "log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/sharedcode/idxstore"
	"github.com/sharedcode/idxstore/metrics"
	"github.com/sharedcode/idxstore/registry"
	"github.com/sharedcode/idxstore/restapi"
)

func main() {
	configPath := flag.String("config", os.Getenv("IDXSTORE_CONFIG"), "JSON configuration file")
	snapshotPath := flag.String("load", "", "JSON snapshot to load at startup")
	checkEvery := flag.Duration("check-every", time.Minute, "integrity check period, 0 disables it")
	flag.Parse()

	idxstore.ConfigureLogging()
	if err := run(*configPath, *snapshotPath, *checkEvery); err != nil {
		log.Error("idxstored failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, snapshotPath string, checkEvery time.Duration) error {
	opts, err := idxstore.LoadOptions(configPath)
	if err != nil {
		return err
	}
	svc, err := registry.New(opts)
	if err != nil {
		return err
	}
	if snapshotPath != "" {
		snap, err := registry.ReadSnapshot(snapshotPath)
		if err != nil {
			return err
		}
		if err := svc.Reload(snap); err != nil {
			return err
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	if err := metrics.Register(reg, opts.MetricsNamespace, svc); err != nil {
		return err
	}

	router := gin.Default()
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	if err := restapi.Mount(router.Group("/api/v1"), svc, restapi.CountRequests(nil), restapi.VerifyBearer()); err != nil {
		return err
	}
	srv := &http.Server{Addr: opts.ListenAddress, Handler: router}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		log.Info("listening", "address", opts.ListenAddress)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	eg.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if checkEvery > 0 {
		eg.Go(func() error {
			t := time.NewTicker(checkEvery)
			defer t.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-t.C:
					if err := svc.CheckIntegrity(); err != nil {
						log.Warn("integrity check failed", "error", err)
					}
				}
			}
		})
	}
	return eg.Wait()
}
