package dependency

import (
	"context"
	"fmt"
	"time"

	"github.com/swapspot/swapspot/internal/application/services/auth"
	"github.com/swapspot/swapspot/internal/application/services/box"
	"github.com/swapspot/swapspot/internal/application/services/center"
	"github.com/swapspot/swapspot/internal/application/services/exchange"
	"github.com/swapspot/swapspot/internal/application/services/front"
	"github.com/swapspot/swapspot/internal/application/services/item"
	"github.com/swapspot/swapspot/internal/application/services/notifications"
	"github.com/swapspot/swapspot/internal/application/services/user"
	"github.com/swapspot/swapspot/internal/infrastructure/config"
	"github.com/swapspot/swapspot/internal/infrastructure/docstore"
	"github.com/swapspot/swapspot/internal/infrastructure/jobs"
	"github.com/swapspot/swapspot/internal/infrastructure/logger"
	"github.com/swapspot/swapspot/internal/infrastructure/messaging"
	"github.com/swapspot/swapspot/internal/infrastructure/persistence/database"
	"github.com/swapspot/swapspot/internal/infrastructure/persistence/migration"
	repositories "github.com/swapspot/swapspot/internal/infrastructure/persistence/repository"
	"github.com/swapspot/swapspot/internal/infrastructure/rpc"
	"github.com/swapspot/swapspot/internal/infrastructure/sign"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Container builds one domain service process: shared infrastructure plus
// the service picked by name. Mongo and the broker are only brought up for
// the services that use them.
type Container struct {
	Config   *config.Config
	Logger   *logger.Logger
	Registry *rpc.Registry

	mongoClient *mongo.Client
	rabbit      *messaging.RabbitMQ
	scheduler   *jobs.Scheduler
}

func NewContainer() (*Container, error) {
	c := &Container{}
	c.Config = config.GetConfig()

	loggerInstance, err := logger.NewLogger(c.Config.Server.RunMode)
	if err != nil {
		return nil, fmt.Errorf("error initializing logger: %w", err)
	}
	c.Logger = loggerInstance

	if err := database.InitDb(c.Config, c.Logger.Log); err != nil {
		return nil, fmt.Errorf("error initializing database: %w", err)
	}
	migration.Up1()

	c.Registry = rpc.NewRegistry(c.Config, c.Logger)

	return c, nil
}

// BuildServer assembles the named service and returns its RPC server, ready
// to listen on the configured endpoint.
func (c *Container) BuildServer(name string) (*rpc.Server, error) {
	server := rpc.NewServer(name, c.Logger)
	db := database.GetDb()

	switch name {
	case "auth":
		jwtManager := sign.NewJWTManager(c.Config.JWT.Secret, c.Config.JWT.TTL)
		auth.NewService(repositories.NewUserRepository(db), jwtManager, c.Logger).Register(server)

	case "user":
		notifier, ok := c.Registry.Client("notifications")
		if !ok {
			return nil, fmt.Errorf("user service needs a notifications endpoint in config")
		}
		user.NewService(
			repositories.NewUserRepository(db),
			repositories.NewFriendRequestRepository(db),
			notifier,
			c.Logger,
		).Register(server)

	case "item":
		item.NewService(repositories.NewItemRepository(db), c.Logger).Register(server)

	case "center":
		center.NewService(repositories.NewCenterRepository(db), c.Logger).Register(server)

	case "front":
		front.NewService(repositories.NewFrontRepository(db), c.Logger).Register(server)

	case "exchange":
		fronts, ok := c.Registry.Client("front")
		if !ok {
			return nil, fmt.Errorf("exchange service needs a front endpoint in config")
		}
		exchange.NewService(repositories.NewExchangeRepository(db), fronts, c.Logger).Register(server)

	case "notifications":
		notifications.NewService(
			repositories.NewNotificationRepository(db),
			c.publisher(),
			c.Logger,
		).Register(server)

	case "box":
		fronts, ok := c.Registry.Client("front")
		if !ok {
			return nil, fmt.Errorf("box service needs a front endpoint in config")
		}
		exchanges, ok := c.Registry.Client("exchange")
		if !ok {
			return nil, fmt.Errorf("box service needs an exchange endpoint in config")
		}
		c.scheduler = jobs.NewScheduler(c.Logger)
		box.NewService(
			repositories.NewBoxRepository(db),
			fronts,
			exchanges,
			c.scheduler,
			c.auditLog(),
			box.Timing{
				PlacementWindow: c.Config.Box.PlacementWindow,
				CodeTTL:         c.Config.Box.CodeTTL,
				AutoCloseDelay:  c.Config.Box.AutoCloseDelay,
			},
			c.Logger,
		).Register(server)

	default:
		return nil, fmt.Errorf("unknown service %q", name)
	}

	return server, nil
}

// publisher connects to the broker, falling back to a nop when it is down so
// notification writes keep working.
func (c *Container) publisher() messaging.Publisher {
	rabbit, err := messaging.NewRabbitMQ(c.Config.Amqp.URI)
	if err != nil {
		c.Logger.Warn("broker unavailable, events disabled", zap.Error(err))
		return messaging.NopPublisher{}
	}
	c.rabbit = rabbit
	return messaging.NewPublisher(rabbit, c.Logger)
}

// auditLog connects to the document store, falling back to a nop when it is
// down so the box lifecycle keeps working without its audit trail.
func (c *Container) auditLog() docstore.BoxAuditLog {
	ctx, cancel := context.WithTimeout(context.Background(), c.Config.Mongo.ConnectionTimeout)
	defer cancel()

	client, err := docstore.NewMongoClient(ctx, c.Config)
	if err != nil {
		c.Logger.Warn("document store unavailable, box audit disabled", zap.Error(err))
		return docstore.NopBoxAuditLog{}
	}
	c.mongoClient = client
	return docstore.NewBoxAuditLog(docstore.GetDatabase(client, c.Config))
}

func (c *Container) Close() {
	if c.scheduler != nil {
		c.scheduler.Stop()
	}
	if c.rabbit != nil {
		c.rabbit.Close()
	}
	if c.mongoClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := docstore.Disconnect(ctx, c.mongoClient); err != nil {
			c.Logger.Warn("document store disconnect failed", zap.Error(err))
		}
	}
	c.Registry.Close()
	database.CloseDb()
}
