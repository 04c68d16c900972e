package sink

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"plategate/pkg/models"
)

const insertEventQuery = `
	INSERT INTO anpr_events (
		id, ip_address, date_time, event_type, license_plate,
		vehicle_type, vehicle_color, vehicle_speed, received_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

// PostgresSink inserts one row per event into anpr_events.
type PostgresSink struct {
	db      *sql.DB
	timeout time.Duration
	now     func() time.Time
}

func NewPostgresSink(db *sql.DB, timeout time.Duration) *PostgresSink {
	return &PostgresSink{db: db, timeout: timeout, now: time.Now}
}

func (s *PostgresSink) Name() string { return "postgres" }

func (s *PostgresSink) Write(ctx context.Context, event models.StructuredEvent) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	_, err := s.db.ExecContext(ctx, insertEventQuery,
		uuid.NewString(),
		event.IPAddress,
		event.DateTime,
		event.EventType,
		event.LicensePlate,
		event.VehicleType,
		event.VehicleColor,
		event.VehicleSpeed,
		s.now().UTC(),
	)
	if err != nil {
		return unavailable(s.Name(), fmt.Errorf("insert event: %w", err))
	}
	return nil
}

// Close is a no-op; the pool belongs to whoever opened it.
func (s *PostgresSink) Close() error { return nil }
