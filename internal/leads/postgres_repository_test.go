package leads

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func leadRowColumns() []string {
	return []string{
		"id", "name", "email", "phone", "company", "source", "stage",
		"value_cents", "notes", "created_at", "updated_at",
	}
}

func TestPostgresCreateNormalizesPhone(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	now := time.Now().UTC()

	mock.ExpectQuery("INSERT INTO leads").
		WithArgs(pgxmock.AnyArg(), "Ana Lima", "ana@example.com", "11998765432",
			"", "site", StageNew, int64(250000), "").
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	lead, err := repo.Create(context.Background(), &CreateLeadRequest{
		Name:       "Ana Lima",
		Email:      "ana@example.com",
		Phone:      "(11) 99876-5432",
		Source:     "site",
		ValueCents: 250000,
	})
	require.NoError(t, err)
	assert.Equal(t, "11998765432", lead.Phone)
	assert.Equal(t, StageNew, lead.Stage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresListFiltersByStage(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	now := time.Now().UTC()

	rows := pgxmock.NewRows(leadRowColumns()).
		AddRow("l1", "Ana Lima", "ana@example.com", "11998765432", "", "site",
			StageProposal, int64(250000), "", now, now)
	mock.ExpectQuery("SELECT").WithArgs(StageProposal).WillReturnRows(rows)

	leads, err := repo.List(context.Background(), ListLeadsFilter{Stage: StageProposal})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, StageProposal, leads[0].Stage)
}

func TestPostgresUpdateStageRejectsUnknownStage(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)

	_, err = repo.UpdateStage(context.Background(), "l1", "limbo")
	assert.ErrorIs(t, err, ErrInvalidStage)
}

func TestPostgresUpdateStage(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := NewPostgresRepository(mock)
	now := time.Now().UTC()

	rows := pgxmock.NewRows(leadRowColumns()).
		AddRow("l1", "Ana Lima", "ana@example.com", "11998765432", "", "site",
			StageWon, int64(250000), "", now, now)
	mock.ExpectQuery("UPDATE leads").WithArgs("l1", StageWon).WillReturnRows(rows)

	lead, err := repo.UpdateStage(context.Background(), "l1", StageWon)
	require.NoError(t, err)
	assert.Equal(t, StageWon, lead.Stage)
	assert.NoError(t, mock.ExpectationsWereMet())
}
