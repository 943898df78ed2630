package protocolstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"policevideos/lib/protocolstore/db"
	"policevideos/lib/scrapers/policege"
	"policevideos/lib/timezone"
	"time"

	"github.com/google/uuid"
)

var ErrNoRuns = errors.New("no scrape runs have been stored")

// Store keeps one snapshot of the account's protocols per scrape run,
// nothing is ever merged or deduplicated across runs.
type Store struct {
	db  *sql.DB
	qry *db.Queries
}

func NewStore(database *sql.DB) Store {
	return Store{
		db:  database,
		qry: db.New(database),
	}
}

type PushRequest struct {
	Time      time.Time
	Protocols []policege.Protocol
}

// Push stores a whole run in a single transaction and returns its id.
func (s Store) Push(ctx context.Context, req PushRequest) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	runId := uuid.NewString()
	err = txqry.CreateRun(ctx, db.CreateRunParams{
		ID:   runId,
		Time: req.Time.Unix(),
	})
	if err != nil {
		return "", err
	}

	for i, p := range req.Protocols {
		protocolId, err := txqry.CreateProtocol(ctx, db.CreateProtocolParams{
			RunID:         runId,
			Position:      int64(i),
			Number:        p.Number,
			CarNumber:     p.CarNumber,
			Date:          p.Date.Unix(),
			ViolationCode: p.ViolationCode,
			Amount:        p.Amount,
			Status:        statusToDb(p.Status),
		})
		if err != nil {
			return "", fmt.Errorf("protocol %s/%s: %w", p.CarNumber, p.Number, err)
		}

		for j, m := range p.Media {
			err = txqry.CreateMedia(ctx, db.CreateMediaParams{
				ProtocolID: protocolId,
				Position:   int64(j),
				Kind:       kindToDb(m.Kind),
				Blob:       m.Blob,
			})
			if err != nil {
				return "", fmt.Errorf("protocol %s/%s media %d: %w", p.CarNumber, p.Number, j, err)
			}
		}
	}

	return runId, tx.Commit()
}

type Snapshot struct {
	RunId     string
	Time      time.Time
	Protocols []policege.Protocol
}

// Latest returns the most recently stored run, ErrNoRuns if there is none.
func (s Store) Latest(ctx context.Context) (Snapshot, error) {
	run, err := s.qry.GetLatestRun(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, ErrNoRuns
	}
	if err != nil {
		return Snapshot{}, err
	}
	return s.snapshot(ctx, run)
}

// Get returns the run with the given id.
func (s Store) Get(ctx context.Context, runId string) (Snapshot, error) {
	run, err := s.qry.GetRun(ctx, runId)
	if err != nil {
		return Snapshot{}, err
	}
	return s.snapshot(ctx, run)
}

func (s Store) snapshot(ctx context.Context, run db.ScrapeRun) (Snapshot, error) {
	rows, err := s.qry.GetRunProtocols(ctx, run.ID)
	if err != nil {
		return Snapshot{}, err
	}

	protocols := make([]policege.Protocol, len(rows))
	for i, r := range rows {
		media, err := s.qry.GetProtocolMedia(ctx, r.ID)
		if err != nil {
			return Snapshot{}, err
		}

		protocol := policege.Protocol{
			Number:        r.Number,
			CarNumber:     r.CarNumber,
			Date:          time.Unix(r.Date, 0).In(timezone.Location),
			ViolationCode: r.ViolationCode,
			Amount:        r.Amount,
			Status:        statusFromDb(r.Status),
		}
		if len(media) > 0 {
			protocol.Media = make([]policege.Media, len(media))
			for j, m := range media {
				protocol.Media[j] = policege.Media{
					Blob: m.Blob,
					Kind: kindFromDb(m.Kind),
				}
			}
		}
		protocols[i] = protocol
	}

	return Snapshot{
		RunId:     run.ID,
		Time:      time.Unix(run.Time, 0).In(timezone.Location),
		Protocols: protocols,
	}, nil
}

func statusToDb(status policege.ProtocolStatus) db.ProtocolStatus {
	switch status {
	case policege.StatusPaidOnTime:
		return db.STATUS_PAID_ON_TIME
	case policege.StatusUnpaid:
		return db.STATUS_UNPAID
	default:
		return db.STATUS_UNKNOWN
	}
}

func statusFromDb(status db.ProtocolStatus) policege.ProtocolStatus {
	switch status {
	case db.STATUS_PAID_ON_TIME:
		return policege.StatusPaidOnTime
	case db.STATUS_UNPAID:
		return policege.StatusUnpaid
	default:
		return policege.StatusUnknown
	}
}

func kindToDb(kind policege.MediaKind) db.MediaKind {
	if kind == policege.MediaOGG {
		return db.MEDIA_OGG
	}
	return db.MEDIA_PNG
}

func kindFromDb(kind db.MediaKind) policege.MediaKind {
	if kind == db.MEDIA_OGG {
		return policege.MediaOGG
	}
	return policege.MediaPNG
}
