package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Fouche-Hugo/draft-together/internal/draftmodel"
)

// ErrDuplicateRoom is returned by Create when the driver reports a
// unique-constraint violation on client_id: someone else created the room
// concurrently, and the caller should reload instead of retrying the insert.
var ErrDuplicateRoom = errors.New("store: room already exists")

// ErrRoomNotFound is returned by Load when no draft row matches the room id.
var ErrRoomNotFound = errors.New("store: room not found")

// DraftStore persists draft boards, one row per room.
type DraftStore struct {
	db *sqlx.DB
}

// NewDraftStore wraps an already-connected database handle.
func NewDraftStore(db *sqlx.DB) *DraftStore {
	return &DraftStore{db: db}
}

type draftRow struct {
	ID       int    `db:"id"`
	ClientID string `db:"client_id"`

	BlueBan1 *int `db:"blue_ban_1"`
	BlueBan2 *int `db:"blue_ban_2"`
	BlueBan3 *int `db:"blue_ban_3"`
	BlueBan4 *int `db:"blue_ban_4"`
	BlueBan5 *int `db:"blue_ban_5"`

	RedBan1 *int `db:"red_ban_1"`
	RedBan2 *int `db:"red_ban_2"`
	RedBan3 *int `db:"red_ban_3"`
	RedBan4 *int `db:"red_ban_4"`
	RedBan5 *int `db:"red_ban_5"`

	Blue1 *int `db:"blue_1"`
	Blue2 *int `db:"blue_2"`
	Blue3 *int `db:"blue_3"`
	Blue4 *int `db:"blue_4"`
	Blue5 *int `db:"blue_5"`

	Red1 *int `db:"red_1"`
	Red2 *int `db:"red_2"`
	Red3 *int `db:"red_3"`
	Red4 *int `db:"red_4"`
	Red5 *int `db:"red_5"`
}

func (r draftRow) toDraft() draftmodel.Draft {
	return draftmodel.Draft{
		BlueChampions: [5]*int{r.Blue1, r.Blue2, r.Blue3, r.Blue4, r.Blue5},
		RedChampions:  [5]*int{r.Red1, r.Red2, r.Red3, r.Red4, r.Red5},
		BlueBans:      [5]*int{r.BlueBan1, r.BlueBan2, r.BlueBan3, r.BlueBan4, r.BlueBan5},
		RedBans:       [5]*int{r.RedBan1, r.RedBan2, r.RedBan3, r.RedBan4, r.RedBan5},
	}
}

// Exists reports whether a draft row for roomID is already present.
func (s *DraftStore) Exists(ctx context.Context, roomID string) (bool, error) {
	var found string
	err := s.db.GetContext(ctx, &found, `SELECT client_id FROM draft WHERE client_id = $1`, roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("store: check draft exists: %w", err)
	}
	return true, nil
}

// Create inserts a fresh, all-empty draft row for roomID and returns its
// internal numeric id. It returns ErrDuplicateRoom if client_id collides.
func (s *DraftStore) Create(ctx context.Context, roomID string) (int, error) {
	var id int
	err := s.db.GetContext(ctx, &id,
		`INSERT INTO draft (client_id) VALUES ($1) RETURNING id`, roomID)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateRoom
		}
		return 0, fmt.Errorf("store: create draft: %w", err)
	}
	return id, nil
}

// Load fetches the draft board for roomID.
func (s *DraftStore) Load(ctx context.Context, roomID string) (int, draftmodel.Draft, error) {
	var row draftRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM draft WHERE client_id = $1`, roomID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, draftmodel.Draft{}, ErrRoomNotFound
	}
	if err != nil {
		return 0, draftmodel.Draft{}, fmt.Errorf("store: load draft %s: %w", roomID, err)
	}
	return row.ID, row.toDraft(), nil
}

// Save overwrites the twenty board columns of the draft row identified by id.
func (s *DraftStore) Save(ctx context.Context, id int, d draftmodel.Draft) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE draft SET
			blue_ban_1 = $1, blue_ban_2 = $2, blue_ban_3 = $3, blue_ban_4 = $4, blue_ban_5 = $5,
			red_ban_1 = $6, red_ban_2 = $7, red_ban_3 = $8, red_ban_4 = $9, red_ban_5 = $10,
			blue_1 = $11, blue_2 = $12, blue_3 = $13, blue_4 = $14, blue_5 = $15,
			red_1 = $16, red_2 = $17, red_3 = $18, red_4 = $19, red_5 = $20
		 WHERE id = $21`,
		d.BlueBans[0], d.BlueBans[1], d.BlueBans[2], d.BlueBans[3], d.BlueBans[4],
		d.RedBans[0], d.RedBans[1], d.RedBans[2], d.RedBans[3], d.RedBans[4],
		d.BlueChampions[0], d.BlueChampions[1], d.BlueChampions[2], d.BlueChampions[3], d.BlueChampions[4],
		d.RedChampions[0], d.RedChampions[1], d.RedChampions[2], d.RedChampions[3], d.RedChampions[4],
		id)
	if err != nil {
		return fmt.Errorf("store: save draft id=%d: %w", id, err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
