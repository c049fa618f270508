package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

const rideCols = `id, driver_id, origin_addr, origin_lat, origin_lng,
	dest_addr, dest_lat, dest_lng, departure_time, status, fare,
	seat_capacity, vehicle, created_at`

func scanRide(row pgx.Row) (Ride, error) {
	var r Ride
	err := row.Scan(&r.ID, &r.DriverID, &r.OriginAddr, &r.OriginLat, &r.OriginLng,
		&r.DestAddr, &r.DestLat, &r.DestLng, &r.DepartureTime, &r.Status, &r.Fare,
		&r.SeatCapacity, &r.Vehicle, &r.CreatedAt)
	return r, err
}

// CreateRide inserts a scheduled ride offered by driverID
func (p *Postgres) CreateRide(ctx context.Context, r Ride) (Ride, error) {
	row := p.pool.QueryRow(ctx, `
		INSERT INTO rides (driver_id, origin_addr, origin_lat, origin_lng,
			dest_addr, dest_lat, dest_lng, departure_time, fare, seat_capacity, vehicle)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+rideCols+`
	`, r.DriverID, r.OriginAddr, r.OriginLat, r.OriginLng,
		r.DestAddr, r.DestLat, r.DestLng, r.DepartureTime, r.Fare, r.SeatCapacity, r.Vehicle)
	return scanRide(row)
}

// GetRide fetches a ride by ID
func (p *Postgres) GetRide(ctx context.Context, id string) (Ride, error) {
	r, err := scanRide(p.pool.QueryRow(ctx, `SELECT `+rideCols+` FROM rides WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Ride{}, ErrNotFound
	}
	return r, err
}

// ListRides returns upcoming rides ordered by departure
func (p *Postgres) ListRides(ctx context.Context, limit, offset int) ([]Ride, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+rideCols+`
		FROM rides
		WHERE status = 'scheduled'
		ORDER BY departure_time
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRides(rows)
}

// SearchNearbyRides returns scheduled rides whose origin lies within
// radiusKm of (lat, lng), nearest first. Haversine on raw coordinates,
// good enough at city scale.
func (p *Postgres) SearchNearbyRides(ctx context.Context, lat, lng, radiusKm float64, limit int) ([]Ride, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT `+rideCols+`
		FROM rides
		WHERE status = 'scheduled'
		  AND 6371 * 2 * asin(sqrt(
				pow(sin(radians(origin_lat - $1) / 2), 2) +
				cos(radians($1)) * cos(radians(origin_lat)) *
				pow(sin(radians(origin_lng - $2) / 2), 2)
			)) <= $3
		ORDER BY 6371 * 2 * asin(sqrt(
				pow(sin(radians(origin_lat - $1) / 2), 2) +
				cos(radians($1)) * cos(radians(origin_lat)) *
				pow(sin(radians(origin_lng - $2) / 2), 2)
			))
		LIMIT $4
	`, lat, lng, radiusKm, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRides(rows)
}

// UpdateRideStatus moves a ride through its lifecycle
func (p *Postgres) UpdateRideStatus(ctx context.Context, id, status string) error {
	ct, err := p.pool.Exec(ctx, `UPDATE rides SET status = $2 WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func collectRides(rows pgx.Rows) ([]Ride, error) {
	var out []Ride
	for rows.Next() {
		r, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
