package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"rentify-backend/internal/domain"
	"rentify-backend/internal/repository"
)

type invoiceRepository struct {
	db *sql.DB
}

func NewInvoiceRepository(db *sql.DB) repository.InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, inv *domain.Invoice) error {
	query := `INSERT INTO invoices (id, reservation_id, amount, currency, issued_at)
	          VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.ExecContext(ctx, query, inv.ID, inv.ReservationID, inv.Amount, inv.Currency, inv.IssuedAt)
	if err != nil {
		// invoices.reservation_id carries a unique index: one invoice
		// per reservation, ever.
		if pqCode(err) == pqUniqueViolation {
			return &domain.DuplicateInvoiceError{ReservationID: inv.ReservationID}
		}
		return wrapPersistence("create invoice", err)
	}
	return nil
}

func (r *invoiceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Invoice, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, reservation_id, amount, currency, issued_at FROM invoices WHERE id = $1`, id)
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "invoice", ID: id}
		}
		return nil, wrapPersistence("get invoice", err)
	}
	if err := r.loadPayments(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *invoiceRepository) GetByReservationID(ctx context.Context, reservationID uuid.UUID) (*domain.Invoice, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, reservation_id, amount, currency, issued_at FROM invoices WHERE reservation_id = $1`, reservationID)
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "invoice for reservation", ID: reservationID}
		}
		return nil, wrapPersistence("get invoice by reservation", err)
	}
	if err := r.loadPayments(ctx, inv); err != nil {
		return nil, err
	}
	return inv, nil
}

func (r *invoiceRepository) AppendPayment(ctx context.Context, p *domain.Payment) error {
	query := `INSERT INTO payments (id, invoice_id, amount, method, reference_number, payment_date, notes, received_by, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, query,
		p.ID, p.InvoiceID, p.Amount, p.Method, p.ReferenceNumber, p.PaymentDate, p.Notes, p.ReceivedBy, p.CreatedAt)
	if err != nil {
		return wrapPersistence("append payment", err)
	}
	return nil
}

func (r *invoiceRepository) GetPayment(ctx context.Context, invoiceID, paymentID uuid.UUID) (*domain.Payment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, invoice_id, amount, method, reference_number, payment_date, notes, received_by, created_at
		 FROM payments WHERE id = $1 AND invoice_id = $2`, paymentID, invoiceID)
	var p domain.Payment
	err := row.Scan(&p.ID, &p.InvoiceID, &p.Amount, &p.Method, &p.ReferenceNumber, &p.PaymentDate, &p.Notes, &p.ReceivedBy, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &domain.NotFoundError{Entity: "payment", ID: paymentID}
		}
		return nil, wrapPersistence("get payment", err)
	}
	return &p, nil
}

func (r *invoiceRepository) ListUnpaidSince(ctx context.Context, issuedBefore time.Time) ([]domain.Invoice, error) {
	// Outstanding is recomputed from payment rows, never read from a
	// stored flag.
	query := `SELECT i.id, i.reservation_id, i.amount, i.currency, i.issued_at
	          FROM invoices i
	          WHERE i.issued_at < $1
	            AND i.amount > COALESCE((SELECT SUM(p.amount) FROM payments p WHERE p.invoice_id = i.id), 0)
	          ORDER BY i.issued_at`
	rows, err := r.db.QueryContext(ctx, query, issuedBefore)
	if err != nil {
		return nil, wrapPersistence("list unpaid invoices", err)
	}
	defer rows.Close()

	var out []domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, wrapPersistence("list unpaid invoices", err)
		}
		out = append(out, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapPersistence("list unpaid invoices", err)
	}
	for i := range out {
		if err := r.loadPayments(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *invoiceRepository) loadPayments(ctx context.Context, inv *domain.Invoice) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, invoice_id, amount, method, reference_number, payment_date, notes, received_by, created_at
		 FROM payments WHERE invoice_id = $1 ORDER BY created_at`, inv.ID)
	if err != nil {
		return wrapPersistence("load payments", err)
	}
	defer rows.Close()

	inv.Payments = inv.Payments[:0]
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(&p.ID, &p.InvoiceID, &p.Amount, &p.Method, &p.ReferenceNumber, &p.PaymentDate, &p.Notes, &p.ReceivedBy, &p.CreatedAt); err != nil {
			return wrapPersistence("load payments", err)
		}
		inv.Payments = append(inv.Payments, p)
	}
	return rows.Err()
}

func scanInvoice(row rowScanner) (*domain.Invoice, error) {
	var inv domain.Invoice
	if err := row.Scan(&inv.ID, &inv.ReservationID, &inv.Amount, &inv.Currency, &inv.IssuedAt); err != nil {
		return nil, err
	}
	return &inv, nil
}
