package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"payhub-backend/internal/account"
	"payhub-backend/internal/config"
	"payhub-backend/internal/domain"
	"payhub-backend/internal/events"
	"payhub-backend/internal/lock"
	"payhub-backend/internal/logger"
	"payhub-backend/internal/repository/postgres"
	"payhub-backend/internal/service"
	"payhub-backend/internal/utils"
)

func main() {
	os.Exit(execute())
}

// execute runs one command and returns the process exit code once every
// resource it opened has been closed.
func execute() int {
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() == 0 {
		usage()
		return exitUsage
	}

	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		return exitFailed
	}
	logger.InitializeWithWriter(cfg.Log.Level, cfg.Log.Format, os.Stderr)

	db, err := sql.Open("postgres", cfg.GetDatabaseConnectionString())
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		return exitFailed
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", "error", err)
		return exitFailed
	}

	app, err := newApp(cfg, postgres.NewStore(db))
	if err != nil {
		logger.Error("Failed to initialize services", "error", err)
		return exitFailed
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return app.run(ctx, flag.Args(), os.Stdout)
}

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: payctl [-config path] <command> [flags]

Commands:
  create-ledger   Create a ledger with its fees
  ledger          Show a ledger
  list            List ledgers for a case
  status          Show the derived status of a ledger
  recalc          Recompute and store a ledger status
  remit           Apply a help-with-fees remission
  pay             Take a credit account (PBA) payment
  payment-status  Record a new status for a payment
  dispute         Raise or resolve a payment dispute
`)
}

// app holds the wired services used by the commands.
type app struct {
	ledgers   service.LedgerService
	payments  service.PaymentService
	publisher events.Publisher
	redis     *redis.Client
}

func newApp(cfg *config.Config, store *postgres.Store) (*app, error) {
	rule, err := utils.ParseStatusRule(cfg.Payment.StatusRule)
	if err != nil {
		return nil, err
	}
	refs := utils.NewReferenceGenerator()

	catalog, err := cfg.ServiceCatalog()
	if err != nil {
		return nil, err
	}

	accounts, err := newAccountClient(cfg.Accounts)
	if err != nil {
		return nil, err
	}

	a := &app{}

	var redisClient redis.UniversalClient
	if cfg.Idempotency.Lock == "redis" {
		client, err := lock.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return nil, err
		}
		a.redis = client
		redisClient = client
	}
	locker, err := lock.New(lock.Config{
		Type: cfg.Idempotency.Lock,
		TTL:  cfg.Idempotency.LockTTL(),
		Wait: cfg.Idempotency.LockWait(),
	}, redisClient)
	if err != nil {
		a.Close()
		return nil, err
	}

	policy, err := service.ParseConflictPolicy(cfg.Idempotency.ConflictPolicy)
	if err != nil {
		a.Close()
		return nil, err
	}

	broker := cfg.Events.Broker
	if !cfg.Events.Enabled {
		broker = "log"
	}
	publisher, err := events.New(events.Config{
		Broker:      broker,
		RabbitMQURL: cfg.Events.RabbitMQURL,
		Exchange:    cfg.Events.Exchange,
		RoutingKey:  cfg.Events.RoutingKey,
		Brokers:     cfg.Events.KafkaBrokers,
		Topic:       cfg.Events.KafkaTopic,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	a.publisher = publisher

	idempotency := service.NewIdempotencyService(store.IdempotencyRepository, locker, policy)
	a.ledgers = service.NewLedgerService(store.LedgerRepository, store, refs, rule)
	a.payments = service.NewPaymentService(
		store.LedgerRepository,
		store,
		idempotency,
		accounts,
		catalog,
		publisher,
		refs,
		service.PaymentOptions{
			StatusRule:       rule,
			Currency:         cfg.Payment.Currency,
			ApportionEnabled: cfg.Payment.ApportionEnabled,
			ApportionGoLive:  cfg.ApportionGoLive(),
			CallbacksEnabled: cfg.Events.Enabled,
		},
	)
	return a, nil
}

func (a *app) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			logger.Warn("Failed to close event publisher", "error", err)
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

// newAccountClient converts the configured fixtures into the account provider's form.
func newAccountClient(cfg config.AccountsConfig) (account.AccountClient, error) {
	fixtures := make([]account.Fixture, 0, len(cfg.Accounts))
	for _, a := range cfg.Accounts {
		balance, err := parseOptionalAmount(a.AvailableBalance)
		if err != nil {
			return nil, fmt.Errorf("account %s available_balance: %w", a.Number, err)
		}
		limit, err := parseOptionalAmount(a.CreditLimit)
		if err != nil {
			return nil, fmt.Errorf("account %s credit_limit: %w", a.Number, err)
		}
		status := domain.AccountStatus(a.Status)
		if status == "" {
			status = domain.AccountStatusActive
		}
		fixtures = append(fixtures, account.Fixture{
			Details: domain.AccountDetails{
				AccountNumber:    a.Number,
				AccountName:      a.Name,
				Status:           status,
				AvailableBalance: balance,
				CreditLimit:      limit,
			},
			Unavailable: a.Unavailable,
		})
	}
	return account.New(account.Config{Type: cfg.Type, Accounts: fixtures})
}
