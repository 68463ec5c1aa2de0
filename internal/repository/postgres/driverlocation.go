package postgres

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"ride-engine/internal/repository"
)

// DriverLocationRepository is a PostgreSQL implementation of
// repository.DriverLocationRepository. driver_locations is a
// time-partitioned, append-only table indexed on (driver_id, timestamp
// desc); this is the cold path the Location Ingest Pipeline flushes to.
type DriverLocationRepository struct{ db *sql.DB }

func NewDriverLocationRepository(db *sql.DB) *DriverLocationRepository {
	return &DriverLocationRepository{db: db}
}

// InsertBatch writes one multi-row insert for the whole batch. Per-driver
// ordering is preserved because the pipeline hands pings to InsertBatch in
// the order they were buffered, and a single INSERT...VALUES statement
// executes its rows in the listed order.
func (r *DriverLocationRepository) InsertBatch(ctx context.Context, pings []repository.DriverLocationPing) error {
	if len(pings) == 0 {
		return nil
	}

	const cols = 7
	var sb strings.Builder
	sb.WriteString(`INSERT INTO driver_locations (driver_id, lat, lng, heading, speed, accuracy, recorded_at) VALUES `)
	args := make([]any, 0, len(pings)*cols)

	for i, p := range pings {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for j := 0; j < cols; j++ {
			if j > 0 {
				sb.WriteByte(',')
			}
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(i*cols + j + 1))
		}
		sb.WriteByte(')')
		args = append(args, p.DriverID, p.Lat, p.Lng, p.Heading, p.Speed, p.Accuracy, p.Timestamp)
	}

	_, err := r.db.ExecContext(ctx, sb.String(), args...)
	return err
}

var _ repository.DriverLocationRepository = (*DriverLocationRepository)(nil)
