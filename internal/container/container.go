package container

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/rcmempresa/fieldforce-link-sub000/internal/auth"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/config"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/database"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/document"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/mailer"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/metrics"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/model"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/repository"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/service"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/storage"
	"github.com/rcmempresa/fieldforce-link-sub000/internal/websocket"
)

// notificationWorkers is the delivery worker pool size.
const notificationWorkers = 5

// metricsInterval is how often the gauge metrics are refreshed.
const metricsInterval = 15 * time.Second

// Container wires the application dependencies: database, object
// storage, mailer, WebSocket hub and the services on top of them.
type Container struct {
	cfg       *config.Config
	db        *gorm.DB
	logger    *logrus.Logger
	store     storage.ObjectStorage
	hub       *websocket.Hub
	validator *auth.TokenValidator

	stopMetrics chan struct{}

	users         repository.UserRepository
	workOrders    *service.WorkOrderService
	ledger        *service.LedgerService
	completion    *service.CompletionService
	attachments   *service.AttachmentService
	notifications *service.NotificationService
	audit         *service.AuditLogService
}

// NewContainer initializes every dependency from the configuration.
func NewContainer(cfg *config.Config, logger *logrus.Logger) (*Container, error) {
	// 1. database, with retry and migrations
	db, err := database.ConnectWithRetry(cfg.Database, 3, time.Second)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := database.Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	if err := database.CreateIndexes(db); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	// 2. object storage
	var store storage.ObjectStorage
	switch cfg.Storage.Driver {
	case "s3":
		store, err = storage.NewS3Storage(context.Background(), cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize s3 storage: %w", err)
		}
	default:
		store, err = storage.NewLocalStorage(cfg.Storage.LocalDir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize local storage: %w", err)
		}
	}

	// 3. mailer, nil when disabled
	var mail mailer.Mailer
	if cfg.SMTP.Enabled {
		mail = mailer.NewSMTPMailer(cfg.SMTP)
	}

	// 4. WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()

	// 5. token validator
	validator := auth.NewTokenValidator(cfg.Auth.Secret)

	// 6. repositories
	workOrderRepo := repository.NewWorkOrderRepository(db)
	entryRepo := repository.NewTimeEntryRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	userRepo := repository.NewUserRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	historyRepo := repository.NewStatusHistoryRepository(db)

	// 7. services
	notifications := service.NewNotificationService(notificationRepo, userRepo, mail, hub, logger, notificationWorkers)
	notifications.Start()

	audit := service.NewAuditLogService(auditRepo, logger)
	ledger := service.NewLedgerService(db, workOrderRepo, entryRepo, assignmentRepo, logger)
	workOrders := service.NewWorkOrderService(db, workOrderRepo, assignmentRepo, entryRepo, userRepo, historyRepo, notifications, logger)
	completion := service.NewCompletionService(db, workOrderRepo, entryRepo, assignmentRepo, userRepo, attachmentRepo,
		store, document.NewPDFRenderer(), notifications, logger)
	attachments := service.NewAttachmentService(attachmentRepo, workOrders, store)

	c := &Container{
		cfg:           cfg,
		db:            db,
		logger:        logger,
		store:         store,
		hub:           hub,
		validator:     validator,
		stopMetrics:   make(chan struct{}),
		users:         userRepo,
		workOrders:    workOrders,
		ledger:        ledger,
		completion:    completion,
		attachments:   attachments,
		notifications: notifications,
		audit:         audit,
	}
	go c.pollMetrics()

	return c, nil
}

// pollMetrics refreshes the db pool, websocket and per-status gauges.
func (c *Container) pollMetrics() {
	ticker := time.NewTicker(metricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopMetrics:
			return
		case <-ticker.C:
			if err := metrics.UpdateDatabaseConnections(c.db); err != nil {
				c.logger.WithField("error", err).Debug("failed to refresh db pool metrics")
			}
			metrics.UpdateWebsocketConnections(c.hub.GetClientCount())

			type statusCount struct {
				Status string
				Count  int64
			}
			var counts []statusCount
			if err := c.db.Model(&model.WorkOrder{}).
				Select("status, COUNT(*) AS count").
				Group("status").
				Scan(&counts).Error; err != nil {
				c.logger.WithField("error", err).Debug("failed to refresh work order metrics")
				continue
			}
			for _, sc := range counts {
				metrics.UpdateWorkOrdersByStatus(sc.Status, float64(sc.Count))
			}
		}
	}
}

// DB returns the database handle.
func (c *Container) DB() *gorm.DB {
	return c.db
}

// Hub returns the WebSocket hub.
func (c *Container) Hub() *websocket.Hub {
	return c.hub
}

// Validator returns the token validator.
func (c *Container) Validator() *auth.TokenValidator {
	return c.validator
}

// Users returns the user repository.
func (c *Container) Users() repository.UserRepository {
	return c.users
}

// WorkOrders returns the work order service.
func (c *Container) WorkOrders() *service.WorkOrderService {
	return c.workOrders
}

// Ledger returns the time entry ledger service.
func (c *Container) Ledger() *service.LedgerService {
	return c.ledger
}

// Completion returns the completion service.
func (c *Container) Completion() *service.CompletionService {
	return c.completion
}

// Attachments returns the attachment service.
func (c *Container) Attachments() *service.AttachmentService {
	return c.attachments
}

// Notifications returns the notification service.
func (c *Container) Notifications() *service.NotificationService {
	return c.notifications
}

// Audit returns the audit log service.
func (c *Container) Audit() *service.AuditLogService {
	return c.audit
}

// Close releases the container's resources.
func (c *Container) Close() error {
	if c.stopMetrics != nil {
		close(c.stopMetrics)
	}
	if c.notifications != nil {
		c.notifications.Stop()
	}
	if c.db != nil {
		sqlDB, err := c.db.DB()
		if err == nil {
			sqlDB.Close()
		}
	}
	return nil
}
