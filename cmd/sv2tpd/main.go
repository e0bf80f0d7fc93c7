package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"sv2tpd/internal/audit"
	"sv2tpd/internal/config"
	"sv2tpd/internal/metrics"
	"sv2tpd/internal/miningrpc"
	"sv2tpd/internal/statusapi"
	"sv2tpd/internal/sv2"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	prom, err := metrics.NewPromRecorder("sv2tpd")
	if err != nil {
		log.Fatalf("init metrics: %v", err)
	}
	metrics.Default = prom

	mining, err := miningrpc.New(cfg.NodeRPCURL)
	if err != nil {
		log.Fatalf("init mining rpc: %v", err)
	}

	connman := sv2.NewTCPConnman(cfg.TLSCertPath, cfg.TLSKeyPath, prom)
	engine := sv2.New(mining, connman, sv2.Options{
		FeeCheckInterval: cfg.FeeCheckInterval,
		FeeDelta:         cfg.FeeDelta,
		IsTest:           cfg.IsTest,
		SkipIBDWait:      cfg.SkipIBDWait(),
		Metrics:          prom,
	})

	var auditStore *audit.Store
	if cfg.AuditDSN != "" {
		auditStore, err = audit.NewStore(cfg.AuditDSN)
		if err != nil {
			log.Fatalf("init audit store: %v", err)
		}
		defer auditStore.Close()

		store := auditStore
		engine.SetAuditHook(func(templateID uint64, height int64, blockHash chainhash.Hash) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := store.RecordSubmission(ctx, templateID, height, blockHash.String()); err != nil {
				log.Printf("audit: record submission: %v", err)
			}
		})

		var stopConfirm func()
		confirmWatch := audit.NewConfirmWatch(auditStore, mining, cfg.AuditConfirmationsRequired)
		stopConfirm = confirmWatch.Start()
		defer stopConfirm()

		retention := audit.NewRetentionJob(auditStore, cfg.AuditRetention, cfg.AuditRetentionCron)
		stopRetention, err := retention.Start()
		if err != nil {
			log.Fatalf("start audit retention job: %v", err)
		}
		defer stopRetention()
	} else {
		log.Println("WARNING: running without an audit store - solution submissions will not be persisted")
	}

	if cfg.MetricsListen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", prom.Handler())
		go func() {
			log.Printf("metrics listening on %s", cfg.MetricsListen)
			if err := http.ListenAndServe(cfg.MetricsListen, mux); err != nil {
				log.Printf("metrics server error: %v", err)
			}
		}()
	}

	if cfg.StatusListen != "" {
		var submissionSource statusapi.SubmissionSource
		if auditStore != nil {
			submissionSource = auditStore
		}
		statusSrv := statusapi.New(engine, submissionSource)
		go func() {
			log.Printf("status api listening on %s", cfg.StatusListen)
			if err := http.ListenAndServe(cfg.StatusListen, statusSrv.Handler()); err != nil {
				log.Printf("status server error: %v", err)
			}
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		if err := engine.Run(ctx, cfg.Host, cfg.Port); err != nil {
			log.Fatalf("run template provider: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received, stopping...")

	cancel()
	engine.Stop()
}
