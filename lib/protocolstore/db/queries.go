package db

import (
	"context"
)

const createRun = `-- name: CreateRun :exec
insert into scrape_run(id, time) values (?, ?)
`

type CreateRunParams struct {
	ID   string
	Time int64
}

func (q *Queries) CreateRun(ctx context.Context, arg CreateRunParams) error {
	_, err := q.db.ExecContext(ctx, createRun, arg.ID, arg.Time)
	return err
}

const createProtocol = `-- name: CreateProtocol :one
insert into protocol(run_id, position, number, car_number, date, violation_code, amount, status)
values (?, ?, ?, ?, ?, ?, ?, ?)
returning id
`

type CreateProtocolParams struct {
	RunID         string
	Position      int64
	Number        string
	CarNumber     string
	Date          int64
	ViolationCode string
	Amount        int64
	Status        ProtocolStatus
}

func (q *Queries) CreateProtocol(ctx context.Context, arg CreateProtocolParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, createProtocol,
		arg.RunID,
		arg.Position,
		arg.Number,
		arg.CarNumber,
		arg.Date,
		arg.ViolationCode,
		arg.Amount,
		arg.Status,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const createMedia = `-- name: CreateMedia :exec
insert into media(protocol_id, position, kind, blob) values (?, ?, ?, ?)
`

type CreateMediaParams struct {
	ProtocolID int64
	Position   int64
	Kind       MediaKind
	Blob       []byte
}

func (q *Queries) CreateMedia(ctx context.Context, arg CreateMediaParams) error {
	_, err := q.db.ExecContext(ctx, createMedia,
		arg.ProtocolID,
		arg.Position,
		arg.Kind,
		arg.Blob,
	)
	return err
}

const getLatestRun = `-- name: GetLatestRun :one
select id, time from scrape_run
order by time desc, rowid desc
limit 1
`

func (q *Queries) GetLatestRun(ctx context.Context) (ScrapeRun, error) {
	row := q.db.QueryRowContext(ctx, getLatestRun)
	var i ScrapeRun
	err := row.Scan(&i.ID, &i.Time)
	return i, err
}

const getRun = `-- name: GetRun :one
select id, time from scrape_run where id = ?
`

func (q *Queries) GetRun(ctx context.Context, id string) (ScrapeRun, error) {
	row := q.db.QueryRowContext(ctx, getRun, id)
	var i ScrapeRun
	err := row.Scan(&i.ID, &i.Time)
	return i, err
}

const getRunProtocols = `-- name: GetRunProtocols :many
select id, run_id, position, number, car_number, date, violation_code, amount, status
from protocol
where run_id = ?
order by position
`

func (q *Queries) GetRunProtocols(ctx context.Context, runID string) ([]Protocol, error) {
	rows, err := q.db.QueryContext(ctx, getRunProtocols, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Protocol
	for rows.Next() {
		var i Protocol
		if err := rows.Scan(
			&i.ID,
			&i.RunID,
			&i.Position,
			&i.Number,
			&i.CarNumber,
			&i.Date,
			&i.ViolationCode,
			&i.Amount,
			&i.Status,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getProtocolMedia = `-- name: GetProtocolMedia :many
select protocol_id, position, kind, blob
from media
where protocol_id = ?
order by position
`

func (q *Queries) GetProtocolMedia(ctx context.Context, protocolID int64) ([]Medium, error) {
	rows, err := q.db.QueryContext(ctx, getProtocolMedia, protocolID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Medium
	for rows.Next() {
		var i Medium
		if err := rows.Scan(
			&i.ProtocolID,
			&i.Position,
			&i.Kind,
			&i.Blob,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
