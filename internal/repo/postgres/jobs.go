package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/geocoder89/jobsapi/internal/domain/job"
	"github.com/geocoder89/jobsapi/internal/observability"
)

type JobsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewJobsRepo(pool *pgxpool.Pool, prom *observability.Prom) *JobsRepo {
	return &JobsRepo{pool: pool, prom: prom}
}

func (r *JobsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *JobsRepo) Create(ctx context.Context, userID string, req job.CreateRequest) (job.Job, error) {
	j := job.New(userID, req)

	err := r.observe("jobs.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO jobs(id, user_id, company, position, status, created_at, updated_at)
			 VALUES($1,$2,$3,$4,$5,$6,$7)`,
			j.ID, j.UserID, j.Company, j.Position, string(j.Status), j.CreatedAt, j.UpdatedAt,
		)
		return err
	})

	if err != nil {
		return job.Job{}, err
	}

	return j, nil
}

// ListByUser returns the user's jobs plus the unpaginated total via a window
// count, so one round trip serves both the page and the count.
func (r *JobsRepo) ListByUser(ctx context.Context, userID string, filter job.ListFilter) ([]job.Job, int, error) {
	baseQuery := `SELECT id,
		user_id,
		company,
		position,
		status,
		created_at,
		updated_at,
		COUNT(*) OVER() AS total
	FROM jobs
	`

	conds := []string{"user_id = $1"}
	args := []interface{}{userID}

	argsPosition := 2

	if filter.Status != nil {
		conds = append(conds, fmt.Sprintf("status = $%d", argsPosition))
		args = append(args, string(*filter.Status))
		argsPosition++
	}

	if filter.Company != nil {
		conds = append(conds, fmt.Sprintf("company ILIKE $%d", argsPosition))
		args = append(args, "%"+*filter.Company+"%")
		argsPosition++
	}

	query := baseQuery + " WHERE " + strings.Join(conds, " AND ")

	// stable ordering for pagination
	query += fmt.Sprintf(" ORDER BY created_at DESC, id ASC LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)

	args = append(args, filter.Limit, filter.Offset)

	var output []job.Job
	total := 0

	err := r.observe("jobs.list_by_user", func() error {
		rows, err := r.pool.Query(ctx, query, args...)

		if err != nil {
			return err
		}

		defer rows.Close()

		output = make([]job.Job, 0, filter.Limit)

		for rows.Next() {
			var j job.Job
			var status string
			var t int

			err = rows.Scan(&j.ID, &j.UserID, &j.Company, &j.Position, &status, &j.CreatedAt, &j.UpdatedAt, &t)

			if err != nil {
				return err
			}

			j.Status = job.Status(status)
			total = t
			output = append(output, j)
		}

		return rows.Err()
	})

	if err != nil {
		return nil, 0, err
	}

	return output, total, nil
}

func (r *JobsRepo) GetByID(ctx context.Context, userID, id string) (job.Job, error) {
	var j job.Job
	var status string

	err := r.observe("jobs.get_by_id", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, user_id, company, position, status, created_at, updated_at
			 FROM jobs
			 WHERE id = $1 AND user_id = $2`,
			id, userID,
		).Scan(&j.ID, &j.UserID, &j.Company, &j.Position, &status, &j.CreatedAt, &j.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return job.Job{}, job.ErrNotFound
		}
		return job.Job{}, err
	}

	j.Status = job.Status(status)
	return j, nil
}

func (r *JobsRepo) Update(ctx context.Context, userID, id string, req job.UpdateRequest) (job.Job, error) {
	var j job.Job
	var status string

	newStatus := req.Status

	if newStatus == "" {
		newStatus = job.StatusPending
	}

	err := r.observe("jobs.update", func() error {
		return r.pool.QueryRow(ctx,
			`UPDATE jobs
			 SET company = $3,
			     position = $4,
			     status = $5,
			     updated_at = NOW()
			 WHERE id = $1 AND user_id = $2
			 RETURNING id, user_id, company, position, status, created_at, updated_at`,
			id, userID, req.Company, req.Position, string(newStatus),
		).Scan(&j.ID, &j.UserID, &j.Company, &j.Position, &status, &j.CreatedAt, &j.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return job.Job{}, job.ErrNotFound
		}
		return job.Job{}, err
	}

	j.Status = job.Status(status)
	return j, nil
}

func (r *JobsRepo) Delete(ctx context.Context, userID, id string) error {
	var tag pgconn.CommandTag

	err := r.observe("jobs.delete", func() error {
		var err error
		tag, err = r.pool.Exec(ctx,
			`DELETE FROM jobs WHERE id = $1 AND user_id = $2`,
			id, userID,
		)
		return err
	})

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return job.ErrNotFound
	}
	return nil
}

// CountByStatus feeds the stats endpoint. Statuses with no rows are filled
// in with zero so the response shape stays constant.
func (r *JobsRepo) CountByStatus(ctx context.Context, userID string) (map[job.Status]int, error) {
	counts := map[job.Status]int{
		job.StatusPending:   0,
		job.StatusInterview: 0,
		job.StatusDeclined:  0,
	}

	err := r.observe("jobs.count_by_status", func() error {
		rows, err := r.pool.Query(ctx,
			`SELECT status, COUNT(*)
			 FROM jobs
			 WHERE user_id = $1
			 GROUP BY status`,
			userID,
		)

		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			var status string
			var n int

			if err := rows.Scan(&status, &n); err != nil {
				return err
			}

			counts[job.Status(status)] = n
		}

		return rows.Err()
	})

	if err != nil {
		return nil, err
	}

	return counts, nil
}
