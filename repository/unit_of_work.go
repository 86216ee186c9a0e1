package repository

import (
	"context"
	"errors"
	"fmt"

	"mesocratic/database"
	"mesocratic/events"
	"mesocratic/service"

	"github.com/jackc/pgx/v5"
)

// unitOfWork implements the UnitOfWork interface
type unitOfWork struct {
	db               *database.DB
	tx               pgx.Tx
	ctx              context.Context
	transactionalBus *events.TransactionalBus
	donorRepo        service.DonorRepository
	donationRepo     service.DonationRepository
	disbursementRepo service.DisbursementRepository
}

// NewUnitOfWorkFactory creates a new UnitOfWork factory
func NewUnitOfWorkFactory(db *database.DB, eventBus *events.Bus) service.UnitOfWorkFactory {
	return &unitOfWorkFactory{
		db:       db,
		eventBus: eventBus,
	}
}

type unitOfWorkFactory struct {
	db       *database.DB
	eventBus *events.Bus
}

func (f *unitOfWorkFactory) Create() service.UnitOfWork {
	return &unitOfWork{
		db:               f.db,
		transactionalBus: events.NewTransactionalBus(f.eventBus),
	}
}

// Begin starts a new transaction
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return fmt.Errorf("transaction already started")
	}

	tx, err := u.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	u.tx = tx
	u.ctx = ctx

	// Create repositories with the transaction
	u.donorRepo = newDonorRepositoryWithTx(tx)
	u.donationRepo = newDonationRepositoryWithTx(tx)
	u.disbursementRepo = newDisbursementRepositoryWithTx(tx)

	return nil
}

// Commit commits the transaction and hands pending events to the bus
func (u *unitOfWork) Commit() error {
	if u.tx == nil {
		return fmt.Errorf("no transaction to commit")
	}

	if err := u.tx.Commit(u.ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	u.tx = nil

	// Flush pending events after successful commit
	return u.transactionalBus.Flush(u.ctx)
}

// Rollback rolls back the transaction
func (u *unitOfWork) Rollback() error {
	if u.tx == nil {
		return nil // Nothing to rollback
	}

	err := u.tx.Rollback(u.ctx)
	if err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		return fmt.Errorf("failed to rollback transaction: %w", err)
	}

	u.tx = nil

	// Discard pending events on rollback
	u.transactionalBus.Discard()

	return nil
}

// DonorRepository returns the donor repository for this unit of work
func (u *unitOfWork) DonorRepository() service.DonorRepository {
	if u.donorRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.donorRepo
}

// DonationRepository returns the donation repository for this unit of work
func (u *unitOfWork) DonationRepository() service.DonationRepository {
	if u.donationRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.donationRepo
}

// DisbursementRepository returns the disbursement repository for this unit of work
func (u *unitOfWork) DisbursementRepository() service.DisbursementRepository {
	if u.disbursementRepo == nil {
		panic("unit of work not started - call Begin() first")
	}
	return u.disbursementRepo
}

// EventBus returns the transactional event bus for this unit of work
func (u *unitOfWork) EventBus() service.EventPublisher {
	return u.transactionalBus
}
