package bootstrap

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/krobus00/arbitrage-service/internal/config"
	"github.com/krobus00/arbitrage-service/internal/constant"
	"github.com/krobus00/arbitrage-service/internal/crypto"
	"github.com/krobus00/arbitrage-service/internal/entity"
	"github.com/krobus00/arbitrage-service/internal/infrastructure"
	"github.com/krobus00/arbitrage-service/internal/repository"
	"github.com/krobus00/arbitrage-service/internal/service/arbitrage"
	"github.com/krobus00/arbitrage-service/internal/service/exchange"
	"github.com/krobus00/arbitrage-service/internal/service/notification"
	"github.com/krobus00/arbitrage-service/internal/service/quote"
	"github.com/krobus00/arbitrage-service/internal/util"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// arbitrageCore is the part of the object graph shared by the gateway and
// the detection worker.
type arbitrageCore struct {
	origin string

	db    *sqlx.DB
	redis *redis.Client
	nc    *nats.Conn
	js    nats.JetStreamContext

	cipher *crypto.Cipher

	tokenRepo       *repository.TokenRepository
	credentialRepo  *repository.ExchangeCredentialRepository
	opportunityRepo *repository.ArbitrageOpportunityRepository
	transactionRepo *repository.TransactionLogRepository
	walletRepo      *repository.WalletRepository

	registry         *exchange.Registry
	bus              *notification.Bus
	arbitrageService *arbitrage.Service
}

func newArbitrageCore(ctx context.Context, role string) *arbitrageCore {
	core := &arbitrageCore{
		origin: fmt.Sprintf("%s-%s", role, uuid.NewString()),
	}

	dbConfig := config.Env.Database[constant.DatabaseArbitrage]

	var err error
	core.db, err = infrastructure.NewPostgresConnection(ctx, dbConfig)
	util.ContinueOrFatal(err, logrus.Fields{"dependency": "postgres"})
	infrastructure.StartPostgresHealthCheck(ctx, core.db, dbConfig.PingInterval)

	core.redis, err = infrastructure.NewRedisClient(ctx, config.Env.Redis[constant.RedisCache].CacheDSN)
	util.ContinueOrFatal(err, logrus.Fields{"dependency": "redis"})

	core.nc, core.js, err = infrastructure.NewJetstream(config.Env.NatsJetstream, fmt.Sprintf("%s-%s", config.ServiceName, role))
	util.ContinueOrFatal(err, logrus.Fields{"dependency": "nats"})

	core.cipher, err = crypto.NewCipher(config.Env.Encryption.Secret, config.Env.Encryption.Salt)
	util.ContinueOrFatal(err)

	core.tokenRepo = repository.NewTokenRepository(core.db)
	core.credentialRepo = repository.NewExchangeCredentialRepository(core.db)
	core.opportunityRepo = repository.NewArbitrageOpportunityRepository(core.db)
	core.transactionRepo = repository.NewTransactionLogRepository(core.db)
	core.walletRepo = repository.NewWalletRepository(core.db)

	core.registry = exchange.NewRegistry(core.credentialRepo, core.cipher, exchange.NewClientFactory(config.Env.Exchanges))

	publisher := notification.NewJetstreamPublisher(core.js, core.origin)
	publishers := []entity.Publisher{publisher}
	for _, v := range publishers {
		err = v.JetstreamEventInit(ctx)
		util.ContinueOrFatal(err)
	}

	core.bus = notification.NewBus()
	core.bus.Subscribe(publisher)

	opts := []arbitrage.ServiceOption{arbitrage.WithOrigin(core.origin)}
	if core.redis != nil && config.Env.Arbitrage.DedupWindow > 0 {
		opts = append(opts, arbitrage.WithDeduplicator(arbitrage.NewRedisDeduplicator(core.redis, config.Env.Arbitrage.DedupWindow)))
	}

	core.arbitrageService = arbitrage.NewService(
		config.Env.Arbitrage,
		core.tokenRepo,
		core.credentialRepo,
		core.opportunityRepo,
		core.transactionRepo,
		quote.NewFetcher(core.registry, config.Env.Arbitrage.QuoteAsset),
		core.bus,
		opts...,
	)

	logrus.WithField("origin", core.origin).Info("arbitrage core initialized")

	return core
}

// shutdownOperations closes everything the core opened.
func (c *arbitrageCore) shutdownOperations(cancel context.CancelFunc) map[string]operation {
	return map[string]operation{
		"exchange clients": func(ctx context.Context) error {
			c.registry.CloseAll()
			return nil
		},
		"arbitrage database": func(ctx context.Context) error {
			cancel()
			return c.db.Close()
		},
		"redis": func(ctx context.Context) error {
			if c.redis == nil {
				return nil
			}
			return c.redis.Close()
		},
		"nats connection": func(ctx context.Context) error {
			return infrastructure.CloseJetstream(c.nc)
		},
	}
}
