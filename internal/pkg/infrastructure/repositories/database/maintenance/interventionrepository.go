package maintenance

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/urbansense/smartcity-api/internal/pkg/infrastructure/repositories/database"
)

var (
	ErrInterventionNotFound = fmt.Errorf("intervention not found")
	ErrTechnicianNotFound   = fmt.Errorf("technician not found")
	ErrNotEnoughTechnicians = fmt.Errorf("intervention must have at least 2 technicians before closing")
	ErrInvalidNature        = fmt.Errorf("invalid intervention nature")
)

type InterventionRepository interface {
	CreateTechnician(ctx context.Context, technician *Technician) error
	GetTechnicians(ctx context.Context, skip, limit int) ([]Technician, error)

	CreateIntervention(ctx context.Context, intervention *Intervention) error
	GetInterventions(ctx context.Context, skip, limit int) ([]Intervention, error)
	GetInterventionByID(ctx context.Context, id uint64) (Intervention, error)
	CloseIntervention(ctx context.Context, id uint64) (Intervention, error)

	AddAssignment(ctx context.Context, assignment Assignment) (Assignment, error)
	RemoveAssignment(ctx context.Context, interventionID, technicianID uint64) (bool, error)
}

type interventionRepository struct {
	db *gorm.DB
}

func NewInterventionRepository(connect database.ConnectorFunc) (InterventionRepository, error) {
	impl, err := connect()
	if err != nil {
		return nil, err
	}

	err = impl.AutoMigrate(&Technician{}, &Intervention{}, &Assignment{})
	if err != nil {
		return nil, err
	}

	return &interventionRepository{db: impl}, nil
}

func (r *interventionRepository) CreateTechnician(ctx context.Context, technician *Technician) error {
	return r.db.WithContext(ctx).Create(technician).Error
}

func (r *interventionRepository) GetTechnicians(ctx context.Context, skip, limit int) ([]Technician, error) {
	var technicians []Technician
	err := r.db.WithContext(ctx).Order("id").Offset(skip).Limit(limit).Find(&technicians).Error
	return technicians, err
}

func (r *interventionRepository) CreateIntervention(ctx context.Context, intervention *Intervention) error {
	if intervention.Nature != "" && !intervention.Nature.IsValid() {
		return ErrInvalidNature
	}

	return r.db.WithContext(ctx).Create(intervention).Error
}

func (r *interventionRepository) GetInterventions(ctx context.Context, skip, limit int) ([]Intervention, error) {
	var interventions []Intervention
	err := r.db.WithContext(ctx).Order("occurred_at DESC").Offset(skip).Limit(limit).Find(&interventions).Error
	return interventions, err
}

func (r *interventionRepository) GetInterventionByID(ctx context.Context, id uint64) (Intervention, error) {
	var intervention Intervention
	err := r.db.WithContext(ctx).First(&intervention, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Intervention{}, ErrInterventionNotFound
		}
		return Intervention{}, err
	}
	return intervention, nil
}

// CloseIntervention marks an intervention as validated once at least
// two distinct technicians are assigned to it. Closing an already
// validated intervention succeeds without re-checking the assignment
// count, so the flag never flips back.
func (r *interventionRepository) CloseIntervention(ctx context.Context, id uint64) (Intervention, error) {
	intervention, err := r.GetInterventionByID(ctx, id)
	if err != nil {
		return Intervention{}, err
	}

	if intervention.Validated {
		return intervention, nil
	}

	var count int64
	err = r.db.WithContext(ctx).Model(&Assignment{}).Where("intervention_id = ?", id).Count(&count).Error
	if err != nil {
		return Intervention{}, err
	}

	if count < 2 {
		return Intervention{}, ErrNotEnoughTechnicians
	}

	err = r.db.WithContext(ctx).Model(&intervention).Update("validated", true).Error
	if err != nil {
		return Intervention{}, err
	}
	intervention.Validated = true

	return intervention, nil
}

// AddAssignment is idempotent: re-adding an existing pair returns the
// stored row untouched.
func (r *interventionRepository) AddAssignment(ctx context.Context, assignment Assignment) (Assignment, error) {
	_, err := r.GetInterventionByID(ctx, assignment.InterventionID)
	if err != nil {
		return Assignment{}, err
	}

	var count int64
	err = r.db.WithContext(ctx).Model(&Technician{}).Where("id = ?", assignment.TechnicianID).Count(&count).Error
	if err != nil {
		return Assignment{}, err
	}
	if count == 0 {
		return Assignment{}, ErrTechnicianNotFound
	}

	existing := Assignment{}
	result := r.db.WithContext(ctx).
		Where("intervention_id = ? AND technician_id = ?", assignment.InterventionID, assignment.TechnicianID).
		First(&existing)

	if result.Error == nil {
		return existing, nil
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return Assignment{}, result.Error
	}

	err = r.db.WithContext(ctx).Create(&assignment).Error
	if err != nil {
		return Assignment{}, err
	}

	return assignment, nil
}

func (r *interventionRepository) RemoveAssignment(ctx context.Context, interventionID, technicianID uint64) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("intervention_id = ? AND technician_id = ?", interventionID, technicianID).
		Delete(&Assignment{})

	return result.RowsAffected > 0, result.Error
}
