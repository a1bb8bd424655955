package maintenance

import (
	"time"
)

// InterventionNature classifies why a maintenance intervention took
// place.
type InterventionNature string

const (
	NaturePredictive InterventionNature = "predictive"
	NatureCorrective InterventionNature = "corrective"
	NatureCurative   InterventionNature = "curative"
)

func (n InterventionNature) IsValid() bool {
	switch n {
	case NaturePredictive, NatureCorrective, NatureCurative:
		return true
	}
	return false
}

type Technician struct {
	ID            uint64 `gorm:"primaryKey" json:"id_technicien"`
	Name          string `gorm:"not null" json:"nom"`
	Phone         string `json:"telephone"`
	Certification string `json:"certification"`
}

type Intervention struct {
	ID              uint64             `gorm:"primaryKey" json:"id_intervention"`
	OccurredAt      time.Time          `gorm:"index;not null" json:"date_heure"`
	Nature          InterventionNature `gorm:"index" json:"nature"`
	DurationMinutes int                `json:"duree_minutes"`
	Cost            float64            `json:"cout"`
	CO2Impact       float64            `json:"impact_co2"`
	Validated       bool               `gorm:"default:false" json:"ia_valide"`
	SensorUUID      *string            `json:"uuid_capteur,omitempty"`

	Assignments []Assignment `gorm:"foreignKey:InterventionID;constraint:OnDelete:CASCADE" json:"-"`
}

// Assignment links a technician to an intervention. The pair is the
// primary key, so a technician can be assigned to an intervention at
// most once.
type Assignment struct {
	InterventionID uint64 `gorm:"primaryKey;autoIncrement:false" json:"id_intervention"`
	TechnicianID   uint64 `gorm:"primaryKey;autoIncrement:false" json:"id_technicien"`
	Role           string `gorm:"not null" json:"role"`
}
