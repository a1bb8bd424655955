package mobility

import (
	"time"
)

type Vehicle struct {
	Plate  string `gorm:"primaryKey" json:"plaque"`
	Type   string `json:"type_vehicule"`
	Energy string `json:"energie"`

	Trips []Trip `gorm:"foreignKey:Plate;references:Plate" json:"-"`
}

// Trip records a single journey. A trip without a plate is allowed;
// when a plate is present it must reference a known vehicle.
type Trip struct {
	ID              uint64     `gorm:"primaryKey" json:"id_trajet"`
	Origin          string     `json:"origine"`
	Destination     string     `json:"destination"`
	DistanceKM      float64    `gorm:"column:distance_km" json:"distance_km"`
	DurationMinutes int        `json:"duree_minutes"`
	CO2Saved        *float64   `gorm:"column:co2_saved" json:"co2_economie,omitempty"`
	OccurredAt      *time.Time `json:"date_heure,omitempty"`
	Plate           *string    `json:"plaque,omitempty"`
}
