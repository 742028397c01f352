package projects

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a project does not exist or is soft-deleted.
var ErrNotFound = errors.New("project not found")

// Valid project statuses.
const (
	StatusPlanning = "planning"
	StatusActive   = "active"
	StatusOnHold   = "on_hold"
	StatusClosed   = "closed"
)

type Repo struct {
	db *pgxpool.Pool
}

func NewRepo(db *pgxpool.Pool) *Repo {
	return &Repo{db: db}
}

type Project struct {
	PublicID      string     `json:"public_id"`
	Name          string     `json:"name"`
	Address       string     `json:"address,omitempty"`
	Status        string     `json:"status"`
	ContractValue float64    `json:"contract_value"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	TargetDate    *time.Time `json:"target_date,omitempty"`
	Temporary     bool       `json:"is_temporary"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func ValidStatus(s string) bool {
	return s == StatusPlanning || s == StatusActive || s == StatusOnHold || s == StatusClosed
}

type CreateParams struct {
	Name          string
	Address       string
	ContractValue float64
	StartDate     *time.Time
	TargetDate    *time.Time
	Temporary     bool
}

const projectCols = `public_id, name, coalesce(address,''), status, contract_value, start_date, target_date, is_temporary, created_at, updated_at`

func scanProject(row pgx.Row) (*Project, error) {
	var p Project
	err := row.Scan(&p.PublicID, &p.Name, &p.Address, &p.Status, &p.ContractValue,
		&p.StartDate, &p.TargetDate, &p.Temporary, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) Create(ctx context.Context, userDBID string, in CreateParams) (*Project, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("name required")
	}

	for i := 0; i < 5; i++ {
		publicID, err := NewPublicID("hld")
		if err != nil {
			return nil, err
		}

		const q = `
insert into projects (public_id, user_id, name, address, status, contract_value, start_date, target_date, is_temporary)
values ($1, $2::uuid, $3, nullif($4,''), 'planning', $5, $6, $7, $8)
returning ` + projectCols + `;
`
		p, err := scanProject(r.db.QueryRow(ctx, q, publicID, userDBID, in.Name,
			in.Address, in.ContractValue, in.StartDate, in.TargetDate, in.Temporary))
		if err == nil {
			return p, nil
		}

		// unique violation on public_id → retry
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			continue
		}
		return nil, err
	}

	return nil, fmt.Errorf("failed to generate unique project id")
}

func (r *Repo) List(ctx context.Context, userDBID string) ([]Project, error) {
	const q = `
select ` + projectCols + `
from projects
where user_id = $1::uuid and deleted_at is null
order by created_at desc;
`
	rows, err := r.db.Query(ctx, q, userDBID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Project, 0, 16)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, userDBID, publicID string) (*Project, error) {
	const q = `
select ` + projectCols + `
from projects
where user_id = $1::uuid and public_id = $2 and deleted_at is null;
`
	p, err := scanProject(r.db.QueryRow(ctx, q, userDBID, publicID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

type UpdateParams struct {
	Name          *string
	Address       *string
	Status        *string
	ContractValue *float64
	StartDate     *time.Time
	TargetDate    *time.Time
}

func (r *Repo) Update(ctx context.Context, userDBID, publicID string, in UpdateParams) (*Project, error) {
	if in.Status != nil && !ValidStatus(*in.Status) {
		return nil, fmt.Errorf("invalid status %q", *in.Status)
	}

	const q = `
update projects
set name           = coalesce($3, name),
    address        = coalesce($4, address),
    status         = coalesce($5, status),
    contract_value = coalesce($6, contract_value),
    start_date     = coalesce($7, start_date),
    target_date    = coalesce($8, target_date),
    updated_at     = now()
where user_id = $1::uuid and public_id = $2 and deleted_at is null
returning ` + projectCols + `;
`
	p, err := scanProject(r.db.QueryRow(ctx, q, userDBID, publicID,
		in.Name, in.Address, in.Status, in.ContractValue, in.StartDate, in.TargetDate))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *Repo) SoftDelete(ctx context.Context, userDBID, publicID string) (bool, error) {
	const q = `
update projects
set deleted_at = now(), updated_at = now()
where user_id = $1::uuid and public_id = $2 and deleted_at is null;
`
	ct, err := r.db.Exec(ctx, q, userDBID, publicID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

// ResolveID maps a public ID to the internal project UUID. Feature modules
// (rfis, documents, bim, precon) key their rows on the internal id.
func (r *Repo) ResolveID(ctx context.Context, userDBID, publicID string) (string, error) {
	const q = `
select id::text from projects
where user_id = $1::uuid and public_id = $2 and deleted_at is null;
`
	var id string
	if err := r.db.QueryRow(ctx, q, userDBID, publicID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return id, nil
}

// ResolveIDAny is ResolveID without the owner check, for operator tooling
// that runs outside a request context.
func (r *Repo) ResolveIDAny(ctx context.Context, publicID string) (string, error) {
	const q = `
select id::text from projects
where public_id = $1 and deleted_at is null;
`
	var id string
	if err := r.db.QueryRow(ctx, q, publicID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return id, nil
}
