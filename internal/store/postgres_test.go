package store

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresStore_Save(t *testing.T) {
	tests := []struct {
		name      string
		userID    string
		embedding []float64
		mockSetup func(mock pgxmock.PgxPoolIface)
		wantLoc   string
		wantErr   error
	}{
		{
			name:      "successful upsert",
			userID:    "alice",
			embedding: []float64{0.25, 0.5, 0.75},
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO reference_embeddings`).
					WithArgs("alice", pgvector.NewVector([]float32{0.25, 0.5, 0.75}), 3).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
			wantLoc: "reference_embeddings/alice",
		},
		{
			name:      "key is normalized before writing",
			userID:    "jose\u0301",
			embedding: []float64{1},
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO reference_embeddings`).
					WithArgs("jos\u00e9", pgxmock.AnyArg(), 1).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
			wantLoc: "reference_embeddings/jos\u00e9",
		},
		{
			name:      "invalid key never reaches the database",
			userID:    "../x",
			embedding: []float64{1},
			mockSetup: func(mock pgxmock.PgxPoolIface) {},
			wantErr:   ErrInvalidKey,
		},
		{
			name:      "database error",
			userID:    "alice",
			embedding: []float64{1},
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO reference_embeddings`).
					WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnError(errors.New("connection reset"))
			},
			wantErr: errors.New("save reference embedding: connection reset"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.mockSetup(mock)

			s := NewPostgresStore(mock)
			loc, err := s.Save(context.Background(), tt.userID, tt.embedding)

			if tt.wantErr != nil {
				require.Error(t, err)
				if errors.Is(tt.wantErr, ErrInvalidKey) {
					assert.ErrorIs(t, err, ErrInvalidKey)
				} else {
					assert.Contains(t, err.Error(), tt.wantErr.Error())
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantLoc, loc)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresStore_Load(t *testing.T) {
	tests := []struct {
		name      string
		mockSetup func(mock pgxmock.PgxPoolIface)
		want      []float64
		wantErr   error
	}{
		{
			name: "successful retrieval",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				embedding := pgvector.NewVector([]float32{0.5, 0.25})
				rows := pgxmock.NewRows([]string{"embedding"}).AddRow(&embedding)
				mock.ExpectQuery(`SELECT embedding FROM reference_embeddings WHERE user_id = \$1`).
					WithArgs("alice").
					WillReturnRows(rows)
			},
			want: []float64{0.5, 0.25},
		},
		{
			name: "not enrolled",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT embedding FROM reference_embeddings WHERE user_id = \$1`).
					WithArgs("alice").
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: ErrNotFound,
		},
		{
			name: "database error",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT embedding FROM reference_embeddings WHERE user_id = \$1`).
					WithArgs("alice").
					WillReturnError(errors.New("timeout"))
			},
			wantErr: errors.New("load reference embedding: timeout"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.mockSetup(mock)

			s := NewPostgresStore(mock)
			got, err := s.Load(context.Background(), "alice")

			if tt.wantErr != nil {
				require.Error(t, err)
				if errors.Is(tt.wantErr, ErrNotFound) {
					assert.ErrorIs(t, err, ErrNotFound)
				} else {
					assert.Contains(t, err.Error(), tt.wantErr.Error())
				}
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresStore_Delete(t *testing.T) {
	tests := []struct {
		name      string
		mockSetup func(mock pgxmock.PgxPoolIface)
		wantErr   error
	}{
		{
			name: "deleted",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`DELETE FROM reference_embeddings WHERE user_id = \$1`).
					WithArgs("alice").
					WillReturnResult(pgxmock.NewResult("DELETE", 1))
			},
		},
		{
			name: "nothing to delete",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`DELETE FROM reference_embeddings WHERE user_id = \$1`).
					WithArgs("alice").
					WillReturnResult(pgxmock.NewResult("DELETE", 0))
			},
			wantErr: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.mockSetup(mock)

			err = NewPostgresStore(mock).Delete(context.Background(), "alice")

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresStore_Ping(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectPing()
	mock.ExpectPing().WillReturnError(errors.New("down"))

	s := NewPostgresStore(mock)
	assert.NoError(t, s.Ping(context.Background()))
	assert.ErrorContains(t, s.Ping(context.Background()), "database unhealthy")

	assert.NoError(t, mock.ExpectationsWereMet())
}
