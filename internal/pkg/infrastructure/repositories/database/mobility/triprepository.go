package mobility

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/urbansense/smartcity-api/internal/pkg/infrastructure/repositories/database"
)

var ErrVehicleNotFound = fmt.Errorf("vehicle not found")

type TripRepository interface {
	CreateVehicle(ctx context.Context, vehicle *Vehicle) error
	CreateTrip(ctx context.Context, trip *Trip) error
	TopTrips(ctx context.Context, limit int) ([]Trip, error)
}

type tripRepository struct {
	db *gorm.DB
}

func NewTripRepository(connect database.ConnectorFunc) (TripRepository, error) {
	impl, err := connect()
	if err != nil {
		return nil, err
	}

	err = impl.AutoMigrate(&Vehicle{}, &Trip{})
	if err != nil {
		return nil, err
	}

	return &tripRepository{db: impl}, nil
}

func (r *tripRepository) CreateVehicle(ctx context.Context, vehicle *Vehicle) error {
	return r.db.WithContext(ctx).Create(vehicle).Error
}

func (r *tripRepository) CreateTrip(ctx context.Context, trip *Trip) error {
	if trip.Plate != nil {
		var count int64
		err := r.db.WithContext(ctx).Model(&Vehicle{}).Where("plate = ?", *trip.Plate).Count(&count).Error
		if err != nil {
			return err
		}
		if count == 0 {
			return ErrVehicleNotFound
		}
	}

	return r.db.WithContext(ctx).Create(trip).Error
}

// TopTrips returns the trips with the highest recorded CO2 savings.
// Trips without a CO2 figure are skipped, not treated as zero.
func (r *tripRepository) TopTrips(ctx context.Context, limit int) ([]Trip, error) {
	var trips []Trip
	err := r.db.WithContext(ctx).
		Where("co2_saved IS NOT NULL").
		Order("co2_saved DESC").
		Limit(limit).
		Find(&trips).Error
	return trips, err
}
