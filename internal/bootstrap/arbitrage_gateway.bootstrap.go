package bootstrap

import (
	"context"
	"net/http"

	"github.com/krobus00/arbitrage-service/internal/config"
	"github.com/krobus00/arbitrage-service/internal/constant"
	"github.com/krobus00/arbitrage-service/internal/entity"
	httpHandler "github.com/krobus00/arbitrage-service/internal/handler/arbitrage/http"
	wsHandler "github.com/krobus00/arbitrage-service/internal/handler/arbitrage/ws"
	"github.com/krobus00/arbitrage-service/internal/infrastructure"
	"github.com/krobus00/arbitrage-service/internal/service/credential"
	"github.com/krobus00/arbitrage-service/internal/service/dashboard"
	"github.com/krobus00/arbitrage-service/internal/service/notification"
	"github.com/krobus00/arbitrage-service/internal/service/token"
	"github.com/krobus00/arbitrage-service/internal/service/wallet"
	"github.com/krobus00/arbitrage-service/internal/util"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func StartArbitrageGateway(cmd *cobra.Command, args []string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	core := newArbitrageCore(ctx, "arbitrage-gateway")

	relay := notification.NewJetstreamRelay(core.js, core.origin, core.bus)
	subscribers := []entity.Subscriber{relay}
	for _, v := range subscribers {
		err := v.JetstreamEventSubscribe(ctx)
		util.ContinueOrFatal(err)
	}

	tokenService := token.NewService(core.tokenRepo)
	credentialService := credential.NewService(core.credentialRepo, core.cipher, core.registry)
	walletService := wallet.NewService(core.walletRepo, core.cipher)
	dashboardService := dashboard.NewService(core.tokenRepo, core.credentialRepo, core.opportunityRepo, walletService, core.registry)

	arbitrageHTTPHandler := httpHandler.NewArbitrageHTTPHandler(
		core.arbitrageService,
		tokenService,
		credentialService,
		walletService,
		dashboardService,
	)
	hub := wsHandler.NewHub(core.bus, config.Env.CORSOrigins)

	httpMux := http.NewServeMux()
	arbitrageHTTPHandler.Register(httpMux)
	hub.Register(httpMux)

	httpServer := infrastructure.NewHTTPServer(infrastructure.HTTPServerConfig{
		Addr:            config.Env.Port[constant.PortArbitrageGatewayHTTP],
		CORSOrigins:     config.Env.CORSOrigins,
		ShutdownTimeout: config.Env.GracefulShutdownTimeout,
	}, httpMux)

	go func() {
		err := httpServer.Start()
		if err != nil {
			logrus.Error(err)
		}
	}()
	logrus.Infof("http server started on %s", httpServer.Addr())

	ops := core.shutdownOperations(cancel)
	ops["http"] = func(ctx context.Context) error {
		hub.Close()
		return httpServer.Shutdown(ctx)
	}
	ops["jetstream relay"] = func(ctx context.Context) error {
		return relay.Close()
	}

	wait := gracefulShutdown(ctx, config.Env.GracefulShutdownTimeout, ops)

	<-wait
}
