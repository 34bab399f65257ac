package messaging

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreInsertMessage(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewStore(mock)
	id := uuid.New()

	mock.ExpectQuery("INSERT INTO messages").
		WithArgs("5511998765432", DirectionOutbound, "Ola!", "MSG-1", "PENDING", "").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow(id))

	got, err := store.InsertMessage(context.Background(), MessageRecord{
		Number:            "5511998765432",
		Direction:         DirectionOutbound,
		Body:              "Ola!",
		ProviderMessageID: "MSG-1",
		ProviderStatus:    "PENDING",
	})
	require.NoError(t, err)
	assert.Equal(t, id, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreHasProviderMessage(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewStore(mock)

	mock.ExpectQuery("SELECT 1 FROM messages").
		WithArgs("WAMID-1").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(1))
	exists, err := store.HasProviderMessage(context.Background(), "WAMID-1")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery("SELECT 1 FROM messages").
		WithArgs("WAMID-2").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}))
	exists, err = store.HasProviderMessage(context.Background(), "WAMID-2")
	require.NoError(t, err)
	assert.False(t, exists)

	// Blank ids never hit the database.
	exists, err = store.HasProviderMessage(context.Background(), "  ")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestStoreListByNumber(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store := NewStore(mock)
	now := time.Now().UTC()

	rows := pgxmock.NewRows([]string{"id", "number", "direction", "body", "provider_message_id", "provider_status", "sender_name", "created_at"}).
		AddRow(uuid.New(), "5511998765432", DirectionInbound, "Oi", "WAMID-1", "received", "Maria", now).
		AddRow(uuid.New(), "5511998765432", DirectionOutbound, "Ola!", "MSG-1", "delivered", "", now.Add(-time.Minute))
	mock.ExpectQuery("SELECT id, number, direction").
		WithArgs("5511998765432", 50).
		WillReturnRows(rows)

	messages, err := store.ListByNumber(context.Background(), "5511998765432", 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, DirectionInbound, messages[0].Direction)
	assert.Equal(t, "Maria", messages[0].SenderName)
}

func TestNewStoreNilPool(t *testing.T) {
	assert.Nil(t, NewStore(nil))
}
