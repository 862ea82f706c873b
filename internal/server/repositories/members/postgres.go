package members

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/ecopoints/internal/common"
	"github.com/dmitrijs2005/ecopoints/internal/dbx"
	"github.com/dmitrijs2005/ecopoints/internal/server/models"
)

const selectMember = `SELECT id, phone, username, password_hash, first_name, last_name, email,
		 cumulative_weight, point_balance, created_at
		 FROM members`

// PostgresRepository implements Repository over dbx.DBTX
// (satisfied by *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindByPhone(ctx context.Context, phone string) (*models.Member, error) {
	query := selectMember + `
		 WHERE phone = $1
		 `
	return r.queryOne(ctx, query, phone)
}

func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (*models.Member, error) {
	query := selectMember + `
		 WHERE username = $1
		 `
	return r.queryOne(ctx, query, username)
}

func (r *PostgresRepository) FindByPhoneOrUsername(ctx context.Context, phone, username string) (*models.Member, error) {
	query := selectMember + `
		 WHERE phone = $1 OR username = $2
		 LIMIT 1
		 `
	return r.queryOne(ctx, query, phone, username)
}

func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Member, error) {
	query := selectMember + `
		 WHERE id = $1
		 `
	return r.queryOne(ctx, query, id)
}

// CreateMember relies on ON CONFLICT DO NOTHING so that losing a creation race
// does not abort the surrounding transaction.
func (r *PostgresRepository) CreateMember(ctx context.Context, phone string, weight, points models.Quantity) (*models.Member, error) {
	query :=
		`INSERT INTO members (phone, cumulative_weight, point_balance)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (phone) DO NOTHING
		 RETURNING id, created_at
		 `
	m := &models.Member{Phone: phone, CumulativeWeight: weight, PointBalance: points}
	err := r.db.QueryRowContext(ctx, query, phone, int64(weight), int64(points)).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: phone already registered", common.ErrDuplicateKey)
		}
		return nil, dbx.Wrap(err)
	}
	return m, nil
}

func (r *PostgresRepository) CreateRegistered(ctx context.Context, m *models.Member) (*models.Member, error) {
	query :=
		`INSERT INTO members (phone, username, password_hash, first_name, last_name, email)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at
		 `
	err := r.db.QueryRowContext(ctx, query,
		m.Phone, m.Username, m.PasswordHash, m.FirstName, m.LastName, m.Email).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return nil, dbx.Wrap(err)
	}
	return m, nil
}

func (r *PostgresRepository) ApplyDeposit(ctx context.Context, phone string, weight, points models.Quantity) (*models.Balances, error) {
	query :=
		`UPDATE members
		 SET cumulative_weight = cumulative_weight + $2,
		     point_balance = point_balance + $3
		 WHERE phone = $1
		 RETURNING id, cumulative_weight, point_balance
		 `
	var b models.Balances
	var w, p int64
	err := r.db.QueryRowContext(ctx, query, phone, int64(weight), int64(points)).Scan(&b.MemberID, &w, &p)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, dbx.Wrap(err)
	}
	b.CumulativeWeight = models.Quantity(w)
	b.PointBalance = models.Quantity(p)
	return &b, nil
}

func (r *PostgresRepository) queryOne(ctx context.Context, query string, args ...any) (*models.Member, error) {
	var (
		m                                         models.Member
		username, hash, firstName, lastName, mail sql.NullString
		weight, points                            int64
	)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&m.ID, &m.Phone, &username, &hash, &firstName, &lastName, &mail, &weight, &points, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, dbx.Wrap(err)
	}
	m.Username = username.String
	m.PasswordHash = hash.String
	m.FirstName = firstName.String
	m.LastName = lastName.String
	m.Email = mail.String
	m.CumulativeWeight = models.Quantity(weight)
	m.PointBalance = models.Quantity(points)
	return &m, nil
}
