package members

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/ecopoints/internal/common"
	"github.com/dmitrijs2005/ecopoints/internal/server/models"
)

var memberColumns = []string{"id", "phone", "username", "password_hash", "first_name", "last_name", "email",
	"cumulative_weight", "point_balance", "created_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestFindByPhone_Found(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*phone,.*FROM\s+members\s+WHERE\s+phone\s*=\s*\$1\s*$`
	created := time.Now()
	rows := sqlmock.NewRows(memberColumns).
		AddRow(int64(7), "0812345678", nil, nil, nil, nil, nil, int64(3000), int64(15000), created)
	mock.ExpectQuery(q).WithArgs("0812345678").WillReturnRows(rows)

	got, err := repo.FindByPhone(context.Background(), "0812345678")
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.ID)
	assert.Equal(t, "", got.Username)
	assert.Equal(t, models.Units(3), got.CumulativeWeight)
	assert.Equal(t, models.Units(15), got.PointBalance)
	assert.False(t, got.Registered())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByPhone_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)FROM\s+members\s+WHERE\s+phone`).WithArgs("ghost").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByPhone(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestFindByUsername_Registered(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(memberColumns).
		AddRow(int64(1), "0800000000", "alice", "$2a$hash", "Alice", "A", "a@example.com", int64(0), int64(0), time.Now())
	mock.ExpectQuery(`(?s)FROM\s+members\s+WHERE\s+username\s*=\s*\$1`).WithArgs("alice").WillReturnRows(rows)

	got, err := repo.FindByUsername(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "Alice", got.FirstName)
	assert.True(t, got.Registered())
}

func TestFindByPhoneOrUsername_CombinedQuery(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)WHERE\s+phone\s*=\s*\$1\s+OR\s+username\s*=\s*\$2\s+LIMIT\s+1`
	mock.ExpectQuery(q).WithArgs("0800000000", "alice").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByPhoneOrUsername(context.Background(), "0800000000", "alice")
	assert.ErrorIs(t, err, common.ErrorNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByID_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)WHERE\s+id\s*=\s*\$1`).WithArgs(int64(3)).WillReturnError(errors.New("db err"))

	_, err := repo.GetByID(context.Background(), 3)
	if err == nil || !regexp.MustCompile(`db error: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestCreateMember_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+members\s*\(phone,\s*cumulative_weight,\s*point_balance\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*ON\s+CONFLICT\s*\(phone\)\s*DO\s+NOTHING\s*RETURNING\s+id,\s*created_at\s*$`
	mock.ExpectQuery(q).
		WithArgs("0812345678", int64(3000), int64(15000)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(1), time.Now()))

	got, err := repo.CreateMember(context.Background(), "0812345678", models.Units(3), models.Units(15))
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.ID)
	assert.Equal(t, models.Units(15), got.PointBalance)
}

func TestCreateMember_ConflictIsDuplicateKey(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+members`).
		WithArgs("0812345678", int64(1000), int64(5000)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}))

	_, err := repo.CreateMember(context.Background(), "0812345678", models.Units(1), models.Units(5))
	assert.ErrorIs(t, err, common.ErrDuplicateKey)
}

func TestCreateRegistered_UniqueViolation(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+members\s*\(phone,\s*username,\s*password_hash,\s*first_name,\s*last_name,\s*email\)`
	mock.ExpectQuery(q).
		WithArgs("0800000000", "alice", "hash", "Alice", "A", "a@example.com").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "members_username_key"})

	_, err := repo.CreateRegistered(context.Background(), &models.Member{
		Phone: "0800000000", Username: "alice", PasswordHash: "hash",
		FirstName: "Alice", LastName: "A", Email: "a@example.com",
	})
	assert.ErrorIs(t, err, common.ErrDuplicateKey)
}

func TestApplyDeposit_RelativeIncrement(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^UPDATE\s+members\s+SET\s+cumulative_weight\s*=\s*cumulative_weight\s*\+\s*\$2,\s*point_balance\s*=\s*point_balance\s*\+\s*\$3\s+WHERE\s+phone\s*=\s*\$1\s+RETURNING\s+id,\s*cumulative_weight,\s*point_balance\s*$`
	mock.ExpectQuery(q).
		WithArgs("0812345678", int64(2000), int64(10000)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "cumulative_weight", "point_balance"}).AddRow(int64(1), int64(5000), int64(25000)))

	got, err := repo.ApplyDeposit(context.Background(), "0812345678", models.Units(2), models.Units(10))
	require.NoError(t, err)
	assert.Equal(t, models.Units(5), got.CumulativeWeight)
	assert.Equal(t, models.Units(25), got.PointBalance)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyDeposit_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^UPDATE\s+members`).WillReturnError(sql.ErrNoRows)

	_, err := repo.ApplyDeposit(context.Background(), "ghost", models.Units(1), models.Units(5))
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestApplyDeposit_Timeout(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^UPDATE\s+members`).WillReturnError(context.DeadlineExceeded)

	_, err := repo.ApplyDeposit(context.Background(), "0812345678", models.Units(1), models.Units(5))
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
}

func TestApplyDeposit_OutOfRangeIsInvalidInput(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^UPDATE\s+members`).
		WillReturnError(&pgconn.PgError{Code: "22003", Message: "bigint out of range"})

	_, err := repo.ApplyDeposit(context.Background(), "0812345678", models.Units(1), models.Units(5))
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	assert.NotErrorIs(t, err, common.ErrStoreUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}
