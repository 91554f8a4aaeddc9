package directory

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"plantwatch/internal/models"
)

// PostgresDirectory reads recipients from the personnel table.
//
// Schema:
//
//	recipients(id, name, phone, chat_handle, opt_sms, opt_chat, active)
type PostgresDirectory struct {
	pool *pgxpool.Pool
}

// NewPostgresDirectory connects to the database and verifies connectivity
func NewPostgresDirectory(ctx context.Context, dsn string) (*PostgresDirectory, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create directory pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping directory db: %w", err)
	}
	return &PostgresDirectory{pool: pool}, nil
}

// ListActiveRecipients returns every active recipient record
func (d *PostgresDirectory) ListActiveRecipients(ctx context.Context) ([]models.Recipient, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, name, COALESCE(phone, ''), COALESCE(chat_handle, ''),
		       opt_sms, opt_chat, active
		FROM recipients
		WHERE active
		ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("recipients query failed: %w", err)
	}
	defer rows.Close()

	var out []models.Recipient
	for rows.Next() {
		var r models.Recipient
		if err := rows.Scan(&r.ID, &r.Name, &r.Phone, &r.ChatHandle,
			&r.OptSMS, &r.OptChat, &r.Active); err != nil {
			return nil, fmt.Errorf("scan recipient: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close releases the connection pool
func (d *PostgresDirectory) Close() error {
	d.pool.Close()
	return nil
}
