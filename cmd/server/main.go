package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	audithandler "aurum/internal/audit/handler"
	"aurum/internal/authz"
	custodyhandler "aurum/internal/custody/handler"
	custodymetrics "aurum/internal/custody/metrics"
	custodysvc "aurum/internal/custody/service"
	assetstore "aurum/internal/custody/store/asset"
	httpapi "aurum/internal/http"
	jwttoken "aurum/internal/jwt_token"
	ledgerhandler "aurum/internal/ledger/handler"
	ledgermetrics "aurum/internal/ledger/metrics"
	ledgersvc "aurum/internal/ledger/service"
	accountstore "aurum/internal/ledger/store/account"
	"aurum/internal/platform/config"
	"aurum/internal/platform/httpserver"
	"aurum/internal/platform/kafka/producer"
	"aurum/internal/platform/logger"
	"aurum/internal/platform/postgres"
	"aurum/internal/platform/redis"
	"aurum/internal/platform/storetx"
	settlementhandler "aurum/internal/settlement/handler"
	settlementmetrics "aurum/internal/settlement/metrics"
	settlementsvc "aurum/internal/settlement/service"
	orderstore "aurum/internal/settlement/store/order"
	vaultreghandler "aurum/internal/vaultreg/handler"
	vaultregsvc "aurum/internal/vaultreg/service"
	vaultregmem "aurum/internal/vaultreg/store/memory"
	id "aurum/pkg/domain"
	"aurum/pkg/platform/audit"
	auditmem "aurum/pkg/platform/audit/store/memory"
	auditpg "aurum/pkg/platform/audit/store/postgres"
	auditworker "aurum/pkg/platform/audit/worker"
)

// main wires stores, services, and the HTTP surface, then runs everything
// under one errgroup until a signal arrives. Business logic lives in the
// internal slice packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Error("postgres connect failed", "error", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
		if err := postgres.Migrate(ctx, db); err != nil {
			log.Error("schema migration failed", "error", err)
			os.Exit(1)
		}
	}

	redisClient, err := redis.New(cfg.RedisURL)
	if err != nil {
		log.Error("redis connect failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	memberRegistry := authz.NewInMemory()
	if cfg.PlatformAddress != "" {
		memberRegistry.GrantRole(id.Address(cfg.PlatformAddress),
			id.RolePlatform|id.RoleMinter|id.RoleCustodian|id.RoleGovernance)
	}
	var registry authz.Registry = memberRegistry
	if redisClient != nil {
		registry = authz.NewCached(memberRegistry, redisClient)
	}

	// The audit publisher writes to the store inside the operation's
	// transaction; the inbox fans events out to Kafka after the fact.
	var auditStore audit.Store
	if db != nil {
		auditStore = auditpg.New(db)
	} else {
		auditStore = auditmem.NewInMemoryStore()
	}

	group, groupCtx := errgroup.WithContext(ctx)

	var publisherOpts []audit.Option
	if len(cfg.KafkaBrokers) > 0 {
		kafkaProducer, err := producer.New(ctx, cfg.KafkaBrokers, cfg.KafkaTopic)
		if err != nil {
			log.Error("kafka connect failed", "error", err)
			os.Exit(1)
		}
		defer kafkaProducer.Close()

		inbox := make(chan audit.Event, 256)
		publisherOpts = append(publisherOpts, audit.WithInbox(inbox))
		sink := auditworker.New(kafkaProducer, inbox, log)
		group.Go(func() error {
			if err := sink.Run(groupCtx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	publisher := audit.NewPublisher(auditStore, publisherOpts...)

	var (
		accounts ledgersvc.AccountStore
		assets   custodysvc.AssetStore
		orders   settlementsvc.OrderStore
		runner   storetx.Runner
	)
	if db != nil {
		accounts = accountstore.NewPostgres(db)
		assets = assetstore.NewPostgres(db)
		orders = orderstore.NewPostgres(db)
		runner = storetx.NewPostgres(db)
	} else {
		accounts = accountstore.NewInMemory()
		assets = assetstore.NewInMemory()
		orders = orderstore.NewInMemory()
		runner = storetx.NewInMemory()
	}

	ledger := ledgersvc.NewService(accounts, registry,
		ledgersvc.WithLogger(log),
		ledgersvc.WithAuditPublisher(publisher),
		ledgersvc.WithMetrics(ledgermetrics.New()),
		ledgersvc.WithTx(runner),
	)

	custody := custodysvc.NewService(assets, registry, ledger.GrantWriteCapability("custody"),
		custodysvc.WithLogger(log),
		custodysvc.WithAuditPublisher(publisher),
		custodysvc.WithMetrics(custodymetrics.New()),
		custodysvc.WithTx(runner),
	)

	settlement := settlementsvc.NewService(orders, registry,
		ledger, ledger.GrantWriteCapability("settlement"),
		custody, custody.GrantSettlementAuthority(),
		settlementsvc.WithLogger(log),
		settlementsvc.WithAuditPublisher(publisher),
		settlementsvc.WithMetrics(settlementmetrics.New()),
		settlementsvc.WithTx(runner),
		settlementsvc.WithExecutionOptions(settlementsvc.ExecutionOptions{
			OnChainTransfer:  cfg.EnableOnChainTransfer,
			AutoLedgerUpdate: cfg.EnableAutoLedgerUpdate,
		}),
	)

	vaultreg := vaultregsvc.NewService(vaultregmem.NewInMemoryStore(), registry,
		vaultregsvc.WithLogger(log),
	)

	jwtService := jwttoken.NewJWTService(cfg.JWTSigningKey, "aurum", "aurum-api")

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:       log,
		JWTValidator: jwttoken.NewJWTServiceAdapter(jwtService),
		Gatherer:     prometheus.DefaultGatherer,
		Ledger:       ledgerhandler.New(ledger, log),
		Custody:      custodyhandler.New(custody, log),
		Settlement:   settlementhandler.New(settlement, log),
		VaultReg:     vaultreghandler.New(vaultreg, log),
		Audit:        audithandler.New(publisher, registry, log),
	})

	srv := httpserver.New(cfg.Addr, router)

	group.Go(func() error {
		log.Info("starting aurum server", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
