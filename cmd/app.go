package cmd

import (
	"context"
	"fmt"
	"time"

	"mesocratic/config"
	"mesocratic/database"
	"mesocratic/events"
	"mesocratic/notify"
	"mesocratic/repository"
	"mesocratic/service"

	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

// app holds the wired services for one command invocation
type app struct {
	cfg      *config.Config
	db       *database.DB
	bus      *events.Bus
	audit    *service.AuditRecorder
	nats     *notify.NATSNotifier
	auditLog *repository.AuditLogRepository

	reports      service.ReportService
	contributors service.ContributorService
	followUps    service.FollowUpService
	fees         service.FeeService
	ledger       service.LedgerService
}

// newApp connects to the database and wires repositories, services and
// bus subscribers
func newApp(ctx context.Context) (*app, error) {
	cfg := config.Get()

	log.Debug("Connecting to database...")
	db, err := database.NewConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	a := &app{cfg: cfg, db: db, bus: events.NewBus()}

	donorRepo := repository.NewDonorRepository(db)
	donationRepo := repository.NewDonationRepository(db)
	disbursementRepo := repository.NewDisbursementRepository(db)
	followUpRepo := repository.NewFollowUpRepository(db)
	a.auditLog = repository.NewAuditLogRepository(db)
	a.audit = service.NewAuditRecorder(a.auditLog)

	var notifier service.FollowUpNotifier = notify.NewLogNotifier()
	if cfg.NATSURL != "" {
		a.nats = notify.NewNATSNotifier(cfg.NATSURL, cfg.FollowUpSubject)
		if err := a.nats.Connect(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to connect follow-up notifier: %w", err)
		}
		notifier = a.nats
	}

	uowFactory := repository.NewUnitOfWorkFactory(db, a.bus)

	a.reports = service.NewReportService(donationRepo, disbursementRepo, cfg.Committee)
	a.contributors = service.NewContributorService(donorRepo, donationRepo)
	a.followUps = service.NewFollowUpService(donorRepo, donationRepo, followUpRepo, notifier, a.audit)
	a.fees = service.NewFeeService(disbursementRepo, a.audit, service.FeeSchedule{
		Rate:       cfg.FeeRate,
		FixedCents: cfg.FeeFixedCents,
		PayeeName:  cfg.FeePayeeName,
	})
	a.ledger = service.NewLedgerService(uowFactory, a.audit)

	service.RegisterSubscribers(a.bus, a.followUps, a.fees)

	log.WithField("environment", cfg.Environment).Debug("Services initialized")
	return a, nil
}

// Close waits for background subscribers and audit writes, then releases
// connections. Bus handlers may record audit entries, so the bus drains first.
func (a *app) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := a.bus.Drain(ctx); err != nil {
		log.WithError(err).Warn("Event handlers did not finish before shutdown")
	}
	if err := a.audit.Drain(ctx); err != nil {
		log.WithError(err).Warn("Audit writes did not finish before shutdown")
	}
	if a.nats != nil {
		a.nats.Close()
	}
	a.db.Close()
}
