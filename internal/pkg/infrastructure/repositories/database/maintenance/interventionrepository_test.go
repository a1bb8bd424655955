package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/matryer/is"

	"github.com/urbansense/smartcity-api/internal/pkg/infrastructure/repositories/database"
)

func TestCloseRequiresTwoTechnicians(t *testing.T) {
	is, ctx, r := testSetupInterventionRepository(t)

	intervention := createIntervention(is, ctx, r, NatureCorrective)
	tech1 := createTechnician(is, ctx, r, "Ana")
	tech2 := createTechnician(is, ctx, r, "Bruno")

	_, err := r.CloseIntervention(ctx, intervention.ID)
	is.Equal(ErrNotEnoughTechnicians, err)

	_, err = r.AddAssignment(ctx, Assignment{InterventionID: intervention.ID, TechnicianID: tech1.ID, Role: "lead"})
	is.NoErr(err)

	_, err = r.CloseIntervention(ctx, intervention.ID)
	is.Equal(ErrNotEnoughTechnicians, err)

	_, err = r.AddAssignment(ctx, Assignment{InterventionID: intervention.ID, TechnicianID: tech2.ID, Role: "assistant"})
	is.NoErr(err)

	closed, err := r.CloseIntervention(ctx, intervention.ID)
	is.NoErr(err)
	is.True(closed.Validated)

	// re-closing is idempotent
	closed, err = r.CloseIntervention(ctx, intervention.ID)
	is.NoErr(err)
	is.True(closed.Validated)
}

func TestCloseStaysIdempotentAfterAssignmentRemoval(t *testing.T) {
	is, ctx, r := testSetupInterventionRepository(t)

	intervention := createIntervention(is, ctx, r, NatureCorrective)
	tech1 := createTechnician(is, ctx, r, "Ana")
	tech2 := createTechnician(is, ctx, r, "Bruno")

	_, err := r.AddAssignment(ctx, Assignment{InterventionID: intervention.ID, TechnicianID: tech1.ID, Role: "lead"})
	is.NoErr(err)
	_, err = r.AddAssignment(ctx, Assignment{InterventionID: intervention.ID, TechnicianID: tech2.ID, Role: "assistant"})
	is.NoErr(err)

	_, err = r.CloseIntervention(ctx, intervention.ID)
	is.NoErr(err)

	removed, err := r.RemoveAssignment(ctx, intervention.ID, tech2.ID)
	is.NoErr(err)
	is.True(removed)

	// validation never flips back, whatever happened to the assignments
	closed, err := r.CloseIntervention(ctx, intervention.ID)
	is.NoErr(err)
	is.True(closed.Validated)
}

func TestCloseUnknownInterventionReturnsNotFound(t *testing.T) {
	is, ctx, r := testSetupInterventionRepository(t)

	_, err := r.CloseIntervention(ctx, 4711)
	is.Equal(ErrInterventionNotFound, err)
}

func TestAddAssignmentIsIdempotent(t *testing.T) {
	is, ctx, r := testSetupInterventionRepository(t)

	intervention := createIntervention(is, ctx, r, NaturePredictive)
	tech := createTechnician(is, ctx, r, "Chloé")

	first, err := r.AddAssignment(ctx, Assignment{InterventionID: intervention.ID, TechnicianID: tech.ID, Role: "lead"})
	is.NoErr(err)

	again, err := r.AddAssignment(ctx, Assignment{InterventionID: intervention.ID, TechnicianID: tech.ID, Role: "other"})
	is.NoErr(err)
	is.Equal("lead", again.Role) // existing row wins
	is.Equal(first, again)
}

func TestAddAssignmentChecksReferences(t *testing.T) {
	is, ctx, r := testSetupInterventionRepository(t)

	intervention := createIntervention(is, ctx, r, NatureCurative)

	_, err := r.AddAssignment(ctx, Assignment{InterventionID: 999, TechnicianID: 1, Role: "lead"})
	is.Equal(ErrInterventionNotFound, err)

	_, err = r.AddAssignment(ctx, Assignment{InterventionID: intervention.ID, TechnicianID: 999, Role: "lead"})
	is.Equal(ErrTechnicianNotFound, err)
}

func TestRemoveAssignment(t *testing.T) {
	is, ctx, r := testSetupInterventionRepository(t)

	intervention := createIntervention(is, ctx, r, NatureCorrective)
	tech := createTechnician(is, ctx, r, "David")

	_, err := r.AddAssignment(ctx, Assignment{InterventionID: intervention.ID, TechnicianID: tech.ID, Role: "lead"})
	is.NoErr(err)

	removed, err := r.RemoveAssignment(ctx, intervention.ID, tech.ID)
	is.NoErr(err)
	is.True(removed)

	removed, err = r.RemoveAssignment(ctx, intervention.ID, tech.ID)
	is.NoErr(err)
	is.True(!removed)
}

func TestCreateInterventionRejectsUnknownNature(t *testing.T) {
	is, ctx, r := testSetupInterventionRepository(t)

	err := r.CreateIntervention(ctx, &Intervention{OccurredAt: time.Now(), Nature: "speculative"})
	is.Equal(ErrInvalidNature, err)
}

func createIntervention(is *is.I, ctx context.Context, r InterventionRepository, nature InterventionNature) *Intervention {
	intervention := &Intervention{
		OccurredAt:      time.Now().UTC(),
		Nature:          nature,
		DurationMinutes: 45,
		Cost:            120.50,
		CO2Impact:       3.2,
	}
	is.NoErr(r.CreateIntervention(ctx, intervention))
	return intervention
}

func createTechnician(is *is.I, ctx context.Context, r InterventionRepository, name string) *Technician {
	technician := &Technician{Name: name, Certification: "cert-a"}
	is.NoErr(r.CreateTechnician(ctx, technician))
	return technician
}

func testSetupInterventionRepository(t *testing.T) (*is.I, context.Context, InterventionRepository) {
	is := is.New(t)

	r, err := NewInterventionRepository(database.NewSQLiteConnector())
	is.NoErr(err)

	return is, context.Background(), r
}
