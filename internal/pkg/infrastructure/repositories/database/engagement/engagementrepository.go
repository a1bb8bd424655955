package engagement

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/urbansense/smartcity-api/internal/pkg/infrastructure/repositories/database"
)

var (
	ErrCitizenNotFound      = fmt.Errorf("citizen not found")
	ErrConsultationNotFound = fmt.Errorf("consultation not found")
	ErrDuplicateEmail       = fmt.Errorf("email already in use")
)

type EngagementRepository interface {
	CreateCitizen(ctx context.Context, citizen *Citizen) error
	GetCitizens(ctx context.Context, skip, limit int) ([]Citizen, error)
	MostEngaged(ctx context.Context, limit int) ([]Citizen, error)

	CreateConsultation(ctx context.Context, consultation *Consultation) error
	GetConsultations(ctx context.Context, skip, limit int) ([]Consultation, error)

	AddParticipation(ctx context.Context, participation *Participation) error
}

type engagementRepository struct {
	db *gorm.DB
}

func NewEngagementRepository(connect database.ConnectorFunc) (EngagementRepository, error) {
	impl, err := connect()
	if err != nil {
		return nil, err
	}

	err = impl.AutoMigrate(&Citizen{}, &Consultation{}, &Participation{})
	if err != nil {
		return nil, err
	}

	return &engagementRepository{db: impl}, nil
}

func (r *engagementRepository) CreateCitizen(ctx context.Context, citizen *Citizen) error {
	err := r.db.WithContext(ctx).Create(citizen).Error
	if err != nil && isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return err
}

func (r *engagementRepository) GetCitizens(ctx context.Context, skip, limit int) ([]Citizen, error) {
	var citizens []Citizen
	err := r.db.WithContext(ctx).Order("id").Offset(skip).Limit(limit).Find(&citizens).Error
	return citizens, err
}

// MostEngaged is a straight projection ordered by engagement score,
// capped at limit.
func (r *engagementRepository) MostEngaged(ctx context.Context, limit int) ([]Citizen, error) {
	var citizens []Citizen
	err := r.db.WithContext(ctx).Order("engagement_score DESC").Limit(limit).Find(&citizens).Error
	return citizens, err
}

func (r *engagementRepository) CreateConsultation(ctx context.Context, consultation *Consultation) error {
	return r.db.WithContext(ctx).Create(consultation).Error
}

func (r *engagementRepository) GetConsultations(ctx context.Context, skip, limit int) ([]Consultation, error) {
	var consultations []Consultation
	err := r.db.WithContext(ctx).Order("id").Offset(skip).Limit(limit).Find(&consultations).Error
	return consultations, err
}

func (r *engagementRepository) AddParticipation(ctx context.Context, participation *Participation) error {
	var count int64
	err := r.db.WithContext(ctx).Model(&Citizen{}).Where("id = ?", participation.CitizenID).Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrCitizenNotFound
	}

	err = r.db.WithContext(ctx).Model(&Consultation{}).Where("id = ?", participation.ConsultationID).Count(&count).Error
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrConsultationNotFound
	}

	return r.db.WithContext(ctx).Create(participation).Error
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}
