package bundle

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStore_Migrate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS model_bundles").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	st := NewPostgresFromPool(mock)
	require.NoError(t, st.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Load(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT data FROM model_bundles").
		WithArgs("dedup").
		WillReturnRows(pgxmock.NewRows([]string{"data"}).AddRow([]byte(`{"name":"dedup"}`)))

	st := NewPostgresFromPool(mock)
	data, err := st.Load(context.Background(), "dedup")
	require.NoError(t, err)
	assert.Equal(t, `{"name":"dedup"}`, string(data))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LoadNotFound(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT data FROM model_bundles").
		WithArgs("scoring").
		WillReturnError(pgx.ErrNoRows)

	st := NewPostgresFromPool(mock)
	_, err = st.Load(context.Background(), "scoring")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Save(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO model_bundles").
		WithArgs("dedup", []byte("blob"), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	st := NewPostgresFromPool(mock)
	require.NoError(t, st.Save(context.Background(), "dedup", []byte("blob")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO model_bundles").
		WithArgs("dedup", []byte("blob"), pgxmock.AnyArg()).
		WillReturnError(errors.New("connection refused"))

	st := NewPostgresFromPool(mock)
	err = st.Save(context.Background(), "dedup", []byte("blob"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "save bundle dedup")
}
