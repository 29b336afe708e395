package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/queue-service/internal/domain"
)

const defaultConflictRetries = 3

const serviceColumns = `id, name, code, category, status, affluence_level, current_queue_size,
       max_queue_size, avg_service_minutes, estimated_wait_minutes, total_tickets_served,
       requires_validation, created_at, updated_at`

const ticketColumns = `id, service_id, counter_id, requester_user_id, ticket_number,
       position_in_queue, status, created_at, called_at, started_at, completed_at,
       no_show_count, is_blacklisted, blacklist_until`

const counterColumns = `id, service_id, name, status, agent_id, current_ticket_id,
       tickets_processed_today, tickets_processed_total, max_tickets_per_day, created_at, updated_at`

type postgresQueueRepository struct {
	pool    *pgxpool.Pool
	retries int
}

// NewPostgresQueueRepository returns the production repository. Retries
// bounds how often a conflicting transaction is retried before
// domain.ErrConflict surfaces.
func NewPostgresQueueRepository(pool *pgxpool.Pool, retries int) QueueRepository {
	if retries <= 0 {
		retries = defaultConflictRetries
	}
	return &postgresQueueRepository{pool: pool, retries: retries}
}

func (r *postgresQueueRepository) CreateService(ctx context.Context, service *domain.Service) error {
	const query = `
        INSERT INTO services (name, code, category, status, affluence_level, current_queue_size,
            max_queue_size, avg_service_minutes, estimated_wait_minutes, total_tickets_served, requires_validation)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		service.Name,
		service.Code,
		service.Category,
		service.Status,
		service.AffluenceLevel,
		service.CurrentQueueSize,
		service.MaxQueueSize,
		service.AvgServiceMinutes,
		service.EstimatedWaitTime,
		service.TotalTicketsServed,
		service.RequiresValidation,
	).Scan(&service.ID, &service.CreatedAt, &service.UpdatedAt)
}

func (r *postgresQueueRepository) GetService(ctx context.Context, id string) (*domain.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services WHERE id=$1`
	service, err := scanService(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrServiceNotFound
		}
		return nil, err
	}
	return service, nil
}

func (r *postgresQueueRepository) ListServices(ctx context.Context) ([]domain.Service, error) {
	query := `SELECT ` + serviceColumns + ` FROM services ORDER BY name`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Service
	for rows.Next() {
		service, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *service)
	}
	return result, rows.Err()
}

func (r *postgresQueueRepository) DeleteService(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM services WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrServiceNotFound
	}
	return nil
}

func (r *postgresQueueRepository) CreateCounter(ctx context.Context, counter *domain.Counter) error {
	const query = `
        INSERT INTO counters (service_id, name, status, agent_id, current_ticket_id,
            tickets_processed_today, tickets_processed_total, max_tickets_per_day)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		counter.ServiceID,
		counter.Name,
		counter.Status,
		counter.AgentID,
		counter.CurrentTicketID,
		counter.TicketsProcessedToday,
		counter.TicketsProcessedTotal,
		counter.MaxTicketsPerDay,
	).Scan(&counter.ID, &counter.CreatedAt, &counter.UpdatedAt)
}

func (r *postgresQueueRepository) GetCounter(ctx context.Context, id string) (*domain.Counter, error) {
	query := `SELECT ` + counterColumns + ` FROM counters WHERE id=$1`
	counter, err := scanCounter(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCounterNotFound
		}
		return nil, err
	}
	return counter, nil
}

func (r *postgresQueueRepository) ListCounters(ctx context.Context, serviceID string) ([]domain.Counter, error) {
	query := `SELECT ` + counterColumns + ` FROM counters WHERE service_id=$1 ORDER BY name`
	rows, err := r.pool.Query(ctx, query, serviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCounters(rows)
}

func (r *postgresQueueRepository) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1`
	ticket, err := scanTicket(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTicketNotFound
		}
		return nil, err
	}
	return ticket, nil
}

func (r *postgresQueueRepository) ListActiveTickets(ctx context.Context, serviceID string) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets
        WHERE service_id=$1 AND status IN ('WAITING','CALLED','SERVING')
        ORDER BY position_in_queue, created_at`
	rows, err := r.pool.Query(ctx, query, serviceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTickets(rows)
}

// UpdateQueue serializes writers on the service row with FOR UPDATE and
// retries serialization/deadlock failures with fresh state.
func (r *postgresQueueRepository) UpdateQueue(ctx context.Context, serviceID string, fn func(ctx context.Context, tx QueueTx) error) error {
	var lastErr error
	for attempt := 0; attempt < r.retries; attempt++ {
		err := r.runQueueTx(ctx, serviceID, fn)
		if err == nil {
			return nil
		}
		if !isRetryablePgError(err) {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("%w: %v", domain.ErrConflict, lastErr)
}

func (r *postgresQueueRepository) runQueueTx(ctx context.Context, serviceID string, fn func(ctx context.Context, tx QueueTx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	query := `SELECT ` + serviceColumns + ` FROM services WHERE id=$1 FOR UPDATE`
	service, err := scanService(tx.QueryRow(ctx, query, serviceID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrServiceNotFound
		}
		return err
	}

	queueTx := &pgQueueTx{tx: tx, service: service}
	if err := fn(ctx, queueTx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func isRetryablePgError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	// serialization_failure and deadlock_detected
	return pgErr.Code == "40001" || pgErr.Code == "40P01"
}

type pgQueueTx struct {
	tx      pgx.Tx
	service *domain.Service
}

func (t *pgQueueTx) Service() *domain.Service {
	return t.service
}

func (t *pgQueueTx) SaveService(ctx context.Context) error {
	const query = `
        UPDATE services SET name=$1, code=$2, category=$3, status=$4, affluence_level=$5,
            current_queue_size=$6, max_queue_size=$7, avg_service_minutes=$8,
            estimated_wait_minutes=$9, total_tickets_served=$10, requires_validation=$11,
            updated_at=NOW()
        WHERE id=$12`
	_, err := t.tx.Exec(ctx, query,
		t.service.Name,
		t.service.Code,
		t.service.Category,
		t.service.Status,
		t.service.AffluenceLevel,
		t.service.CurrentQueueSize,
		t.service.MaxQueueSize,
		t.service.AvgServiceMinutes,
		t.service.EstimatedWaitTime,
		t.service.TotalTicketsServed,
		t.service.RequiresValidation,
		t.service.ID,
	)
	return err
}

func (t *pgQueueTx) ActiveTickets(ctx context.Context) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets
        WHERE service_id=$1 AND status IN ('WAITING','CALLED','SERVING')
        ORDER BY position_in_queue, created_at`
	rows, err := t.tx.Query(ctx, query, t.service.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTickets(rows)
}

func (t *pgQueueTx) TicketByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id=$1 AND service_id=$2`
	ticket, err := scanTicket(t.tx.QueryRow(ctx, query, id, t.service.ID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTicketNotFound
		}
		return nil, err
	}
	return ticket, nil
}

func (t *pgQueueTx) InsertTicket(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (service_id, counter_id, requester_user_id, ticket_number,
            position_in_queue, status, no_show_count, is_blacklisted, blacklist_until)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at`
	return t.tx.QueryRow(ctx, query,
		ticket.ServiceID,
		ticket.CounterID,
		ticket.RequesterID,
		ticket.TicketNumber,
		ticket.PositionInQueue,
		ticket.Status,
		ticket.NoShowCount,
		ticket.IsBlacklisted,
		ticket.BlacklistUntil,
	).Scan(&ticket.ID, &ticket.CreatedAt)
}

func (t *pgQueueTx) SaveTicket(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET counter_id=$1, position_in_queue=$2, status=$3, called_at=$4,
            started_at=$5, completed_at=$6, no_show_count=$7, is_blacklisted=$8, blacklist_until=$9
        WHERE id=$10`
	cmd, err := t.tx.Exec(ctx, query,
		ticket.CounterID,
		ticket.PositionInQueue,
		ticket.Status,
		ticket.CalledAt,
		ticket.StartedAt,
		ticket.CompletedAt,
		ticket.NoShowCount,
		ticket.IsBlacklisted,
		ticket.BlacklistUntil,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrTicketNotFound
	}
	return nil
}

func (t *pgQueueTx) TicketsCreatedToday(ctx context.Context) (int, error) {
	const query = `SELECT COUNT(*) FROM tickets WHERE service_id=$1 AND created_at >= date_trunc('day', NOW())`
	var count int
	if err := t.tx.QueryRow(ctx, query, t.service.ID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (t *pgQueueTx) Counters(ctx context.Context) ([]domain.Counter, error) {
	query := `SELECT ` + counterColumns + ` FROM counters WHERE service_id=$1 ORDER BY name`
	rows, err := t.tx.Query(ctx, query, t.service.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectCounters(rows)
}

func (t *pgQueueTx) CounterByID(ctx context.Context, id string) (*domain.Counter, error) {
	query := `SELECT ` + counterColumns + ` FROM counters WHERE id=$1 AND service_id=$2`
	counter, err := scanCounter(t.tx.QueryRow(ctx, query, id, t.service.ID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCounterNotFound
		}
		return nil, err
	}
	return counter, nil
}

func (t *pgQueueTx) SaveCounter(ctx context.Context, counter *domain.Counter) error {
	const query = `
        UPDATE counters SET name=$1, status=$2, agent_id=$3, current_ticket_id=$4,
            tickets_processed_today=$5, tickets_processed_total=$6, max_tickets_per_day=$7,
            updated_at=NOW()
        WHERE id=$8`
	cmd, err := t.tx.Exec(ctx, query,
		counter.Name,
		counter.Status,
		counter.AgentID,
		counter.CurrentTicketID,
		counter.TicketsProcessedToday,
		counter.TicketsProcessedTotal,
		counter.MaxTicketsPerDay,
		counter.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrCounterNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanService(row rowScanner) (*domain.Service, error) {
	var service domain.Service
	if err := row.Scan(
		&service.ID,
		&service.Name,
		&service.Code,
		&service.Category,
		&service.Status,
		&service.AffluenceLevel,
		&service.CurrentQueueSize,
		&service.MaxQueueSize,
		&service.AvgServiceMinutes,
		&service.EstimatedWaitTime,
		&service.TotalTicketsServed,
		&service.RequiresValidation,
		&service.CreatedAt,
		&service.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &service, nil
}

func scanTicket(row rowScanner) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.ID,
		&ticket.ServiceID,
		&ticket.CounterID,
		&ticket.RequesterID,
		&ticket.TicketNumber,
		&ticket.PositionInQueue,
		&ticket.Status,
		&ticket.CreatedAt,
		&ticket.CalledAt,
		&ticket.StartedAt,
		&ticket.CompletedAt,
		&ticket.NoShowCount,
		&ticket.IsBlacklisted,
		&ticket.BlacklistUntil,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanCounter(row rowScanner) (*domain.Counter, error) {
	var counter domain.Counter
	if err := row.Scan(
		&counter.ID,
		&counter.ServiceID,
		&counter.Name,
		&counter.Status,
		&counter.AgentID,
		&counter.CurrentTicketID,
		&counter.TicketsProcessedToday,
		&counter.TicketsProcessedTotal,
		&counter.MaxTicketsPerDay,
		&counter.CreatedAt,
		&counter.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &counter, nil
}

func collectTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}

func collectCounters(rows pgx.Rows) ([]domain.Counter, error) {
	var result []domain.Counter
	for rows.Next() {
		counter, err := scanCounter(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *counter)
	}
	return result, rows.Err()
}
