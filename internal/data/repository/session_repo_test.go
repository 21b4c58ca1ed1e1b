package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSessionRepository_FindValidSession(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	token := uuid.New()
	userID := uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery(`FROM sessions`).WithArgs(token.String()).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "user_id", "token", "user_agent", "ip_address", "expires_at", "revoked_at", "created_at",
		}).AddRow(uuid.New(), userID, token, nil, nil, now.Add(time.Hour), nil, now))

	repo := NewSessionRepository(mock, zap.NewNop())
	session, err := repo.FindValidSession(context.Background(), token.String())

	require.NoError(t, err)
	require.NotNil(t, session)
	assert.Equal(t, userID, session.UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepository_UnknownOrMalformedToken(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	token := uuid.NewString()
	mock.ExpectQuery(`FROM sessions`).WithArgs(token).WillReturnError(pgx.ErrNoRows)

	repo := NewSessionRepository(mock, zap.NewNop())

	session, err := repo.FindValidSession(context.Background(), token)
	require.NoError(t, err)
	assert.Nil(t, session)

	// never reaches the database
	session, err = repo.FindValidSession(context.Background(), "not-a-uuid")
	require.NoError(t, err)
	assert.Nil(t, session)

	assert.NoError(t, mock.ExpectationsWereMet())
}
