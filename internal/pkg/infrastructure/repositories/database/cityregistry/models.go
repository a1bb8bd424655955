package cityregistry

import (
	"time"
)

// SensorStatus enumerates the states a sensor moves through during its
// lifetime. The column on the sensor itself only holds the status at
// installation time; later transitions are appended to StatusEntry and
// the most recent entry wins.
type SensorStatus string

const (
	StatusActive       SensorStatus = "active"
	StatusMaintenance  SensorStatus = "maintenance"
	StatusOutOfService SensorStatus = "out_of_service"
	StatusFailed       SensorStatus = "failed"
)

func (s SensorStatus) IsValid() bool {
	switch s {
	case StatusActive, StatusMaintenance, StatusOutOfService, StatusFailed:
		return true
	}
	return false
}

type District struct {
	ID   uint   `gorm:"primaryKey" json:"id_arrondissement"`
	Name string `gorm:"uniqueIndex;not null" json:"nom"`
}

type Owner struct {
	ID      uint64 `gorm:"primaryKey" json:"id_proprietaire"`
	Name    string `gorm:"not null" json:"nom"`
	Address string `json:"adresse"`
	Phone   string `json:"telephone"`
	Email   string `gorm:"uniqueIndex" json:"email"`
	Type    string `json:"type_proprietaire"`
}

type Sensor struct {
	UUID        string       `gorm:"primaryKey;column:uuid" json:"uuid_capteur"`
	Type        string       `gorm:"not null" json:"type_capteur"`
	Latitude    *float64     `json:"latitude,omitempty"`
	Longitude   *float64     `json:"longitude,omitempty"`
	Status      SensorStatus `gorm:"default:active" json:"statut"`
	InstalledAt *time.Time   `json:"date_installation,omitempty"`
	OwnerID     *uint64      `json:"id_proprietaire,omitempty"`
	DistrictID  *uint        `json:"id_arrondissement,omitempty"`

	Measurements  []Measurement `gorm:"foreignKey:SensorUUID;references:UUID;constraint:OnDelete:CASCADE" json:"-"`
	StatusHistory []StatusEntry `gorm:"foreignKey:SensorUUID;references:UUID;constraint:OnDelete:CASCADE" json:"-"`
}

// StatusEntry is an append-only status transition. Rows are never
// updated; they disappear only when their sensor is deleted.
type StatusEntry struct {
	ID         uint64       `gorm:"primaryKey" json:"id"`
	SensorUUID string       `gorm:"index;not null" json:"uuid_capteur"`
	Status     SensorStatus `gorm:"not null" json:"status"`
	Timestamp  time.Time    `gorm:"column:ts;index;not null" json:"ts"`
}

type Measurement struct {
	ID         uint64    `gorm:"primaryKey" json:"id"`
	SensorUUID string    `gorm:"index;not null" json:"uuid_capteur"`
	Timestamp  time.Time `gorm:"column:ts;index;not null" json:"ts"`
	Pollutant  string    `gorm:"index;not null" json:"pollutant"`
	Value      float64   `gorm:"not null" json:"valeur"`
	Unit       string    `json:"unite"`
}
