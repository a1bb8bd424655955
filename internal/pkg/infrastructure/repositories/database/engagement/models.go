package engagement

import (
	"time"

	"gorm.io/datatypes"
)

type Citizen struct {
	ID                  uint64         `gorm:"primaryKey" json:"id_citoyen"`
	Name                string         `json:"nom"`
	Address             string         `json:"adresse"`
	Email               string         `gorm:"uniqueIndex" json:"email"`
	EngagementScore     float64        `gorm:"default:0" json:"score_engagement"`
	MobilityPreferences datatypes.JSON `json:"preferences_mobilite,omitempty"`
}

type Consultation struct {
	ID    uint64     `gorm:"primaryKey" json:"id_consultation"`
	Title string     `json:"titre"`
	Date  *time.Time `json:"date_consultation,omitempty"`
	Theme string     `json:"theme"`

	Participations []Participation `gorm:"foreignKey:ConsultationID;constraint:OnDelete:CASCADE" json:"-"`
}

// Participation links a citizen to a consultation; the pair is unique.
type Participation struct {
	CitizenID      uint64     `gorm:"primaryKey;autoIncrement:false" json:"id_citoyen"`
	ConsultationID uint64     `gorm:"primaryKey;autoIncrement:false" json:"id_consultation"`
	Opinion        string     `json:"avis"`
	Vote           int16      `json:"vote"`
	ParticipatedAt *time.Time `json:"date_participation,omitempty"`
}
