package engagement

import (
	"context"
	"testing"

	"github.com/matryer/is"
	"gorm.io/datatypes"

	"github.com/urbansense/smartcity-api/internal/pkg/infrastructure/repositories/database"
)

func TestMostEngagedOrdering(t *testing.T) {
	is, ctx, r := testSetupEngagementRepository(t)

	is.NoErr(r.CreateCitizen(ctx, &Citizen{Name: "Alice", Email: "alice@example.org", EngagementScore: 10}))
	is.NoErr(r.CreateCitizen(ctx, &Citizen{Name: "Karim", Email: "karim@example.org", EngagementScore: 42}))
	is.NoErr(r.CreateCitizen(ctx, &Citizen{Name: "Maud", Email: "maud@example.org", EngagementScore: 17}))

	top, err := r.MostEngaged(ctx, 2)
	is.NoErr(err)
	is.Equal(2, len(top))
	is.Equal("Karim", top[0].Name)
	is.Equal("Maud", top[1].Name)
}

func TestCreateCitizenWithPreferences(t *testing.T) {
	is, ctx, r := testSetupEngagementRepository(t)

	citizen := &Citizen{
		Name:                "Alice",
		Email:               "alice@example.org",
		MobilityPreferences: datatypes.JSON([]byte(`{"velo":true,"transports":["metro","bus"]}`)),
	}
	is.NoErr(r.CreateCitizen(ctx, citizen))

	citizens, err := r.GetCitizens(ctx, 0, 10)
	is.NoErr(err)
	is.Equal(1, len(citizens))

	err = r.CreateCitizen(ctx, &Citizen{Name: "Alias", Email: "alice@example.org"})
	is.Equal(ErrDuplicateEmail, err)
}

func TestAddParticipationChecksReferences(t *testing.T) {
	is, ctx, r := testSetupEngagementRepository(t)

	citizen := &Citizen{Name: "Alice", Email: "alice@example.org"}
	is.NoErr(r.CreateCitizen(ctx, citizen))

	consultation := &Consultation{Title: "Plan vélo 2027", Theme: "mobilité"}
	is.NoErr(r.CreateConsultation(ctx, consultation))

	err := r.AddParticipation(ctx, &Participation{CitizenID: 999, ConsultationID: consultation.ID})
	is.Equal(ErrCitizenNotFound, err)

	err = r.AddParticipation(ctx, &Participation{CitizenID: citizen.ID, ConsultationID: 999})
	is.Equal(ErrConsultationNotFound, err)

	err = r.AddParticipation(ctx, &Participation{
		CitizenID:      citizen.ID,
		ConsultationID: consultation.ID,
		Opinion:        "pour",
		Vote:           1,
	})
	is.NoErr(err)
}

func testSetupEngagementRepository(t *testing.T) (*is.I, context.Context, EngagementRepository) {
	is := is.New(t)

	r, err := NewEngagementRepository(database.NewSQLiteConnector())
	is.NoErr(err)

	return is, context.Background(), r
}
