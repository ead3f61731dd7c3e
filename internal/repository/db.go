package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	"github.com/Rani367/Hativon-sub000/internal/db"
	"github.com/Rani367/Hativon-sub000/internal/model"
	"github.com/Rani367/Hativon-sub000/internal/util/compression"
)

type DBDraftStore struct { // implements DraftStore
	db         db.DB
	compressor compression.Compressor
}

func NewDBDraftStore(db db.DB, compressor compression.Compressor) *DBDraftStore {
	if compressor == nil {
		compressor = compression.ZstdCompressor{}
	}
	return &DBDraftStore{
		db:         db,
		compressor: compressor,
	}
}

type draftRow struct {
	ID           string `db:"id"`
	Title        string `db:"title"`
	Content      []byte `db:"content"`
	Description  string `db:"description"`
	CoverImage   string `db:"cover_image"`
	CustomAuthor string `db:"custom_author"`
	Status       string `db:"status"`
	UserID       string `db:"user_id"`
	CreatedAt    string `db:"created_at"`
	UpdatedAt    string `db:"updated_at"`
}

const draftColumns = `id, title, content, description, cover_image, custom_author, status, user_id, created_at, updated_at`

func (r *DBDraftStore) toModel(row draftRow) (*model.Draft, error) {
	content, err := r.compressor.Decompress(row.Content)
	if err != nil {
		return nil, errors.Wrapf(err, "error decompressing content of draft %s", row.ID)
	}

	version, err := model.ParseVersion(row.UpdatedAt)
	if err != nil {
		return nil, errors.Wrapf(err, "error parsing version of draft %s", row.ID)
	}

	created, err := model.ParseVersion(row.CreatedAt)
	if err != nil {
		return nil, errors.Wrapf(err, "error parsing creation date of draft %s", row.ID)
	}

	return &model.Draft{
		ID:           model.DraftID(row.ID),
		Title:        row.Title,
		Content:      string(content),
		Description:  row.Description,
		CoverImage:   row.CoverImage,
		CustomAuthor: row.CustomAuthor,
		Status:       model.Status(row.Status),
		Owner:        model.UserID(row.UserID),
		CreatedDate:  created.Time(),
		Version:      version,
	}, nil
}

func (r *DBDraftStore) Create(ctx context.Context, draft *model.Draft) error {
	compressed, err := r.compressor.Compress([]byte(draft.Content))
	if err != nil {
		return errors.Wrap(err, "error compressing content")
	}

	status := draft.Status
	if status == "" {
		status = model.StatusDraft
	}
	created := model.NewVersion(draft.CreatedDate)
	if created.IsZero() {
		created = draft.Version
	}

	res, err := r.db.Exec(ctx,
		`INSERT INTO drafts (`+draftColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(draft.ID), draft.Title, compressed, draft.Description, draft.CoverImage, draft.CustomAuthor,
		string(status), string(draft.Owner), created.String(), draft.Version.String(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyExists
		}
		return errors.Wrap(err, "error saving draft")
	}

	repoLogger.Debug().Interface("result", res).Str("draft_id", string(draft.ID)).Msg("Draft created")
	return nil
}

func (r *DBDraftStore) Get(ctx context.Context, id model.DraftID) (*model.Draft, error) {
	var row draftRow
	err := r.db.QueryRowx(ctx, `SELECT `+draftColumns+` FROM drafts WHERE id = ?`, string(id)).StructScan(&row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "error loading draft %s", id)
	}
	return r.toModel(row)
}

func (r *DBDraftStore) CompareAndSwap(ctx context.Context, id model.DraftID, expected model.Version, changes model.Fields, next model.Version) (bool, error) {
	sets := make([]string, 0, 6)
	args := make([]interface{}, 0, 8)

	if changes.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *changes.Title)
	}
	if changes.Content != nil {
		compressed, err := r.compressor.Compress([]byte(*changes.Content))
		if err != nil {
			return false, errors.Wrap(err, "error compressing content")
		}
		sets = append(sets, "content = ?")
		args = append(args, compressed)
	}
	if changes.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *changes.Description)
	}
	if changes.CoverImage != nil {
		sets = append(sets, "cover_image = ?")
		args = append(args, *changes.CoverImage)
	}
	if changes.CustomAuthor != nil {
		sets = append(sets, "custom_author = ?")
		args = append(args, *changes.CustomAuthor)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, next.String(), string(id), expected.String())

	res, err := r.db.Exec(ctx,
		`UPDATE drafts SET `+strings.Join(sets, ", ")+` WHERE id = ? AND updated_at = ?`,
		args...,
	)
	if err != nil {
		return false, errors.Wrapf(err, "error updating draft %s", id)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, errors.Wrap(err, "error reading affected rows")
	}

	repoLogger.Debug().
		Str("draft_id", string(id)).
		Str("expected", expected.String()).
		Str("next", next.String()).
		Int64("affected", affected).
		Msg("Draft compare-and-swap")

	return affected == 1, nil
}

func (r *DBDraftStore) Delete(ctx context.Context, id model.DraftID) error {
	res, err := r.db.Exec(ctx, `DELETE FROM drafts WHERE id = ?`, string(id))
	if err != nil {
		return errors.Wrapf(err, "error deleting draft %s", id)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *DBDraftStore) ListByOwner(ctx context.Context, owner model.UserID) ([]model.Draft, error) {
	rows, err := r.db.Queryx(ctx,
		`SELECT `+draftColumns+` FROM drafts WHERE user_id = ? ORDER BY updated_at DESC`,
		string(owner),
	)
	if err != nil {
		return nil, errors.Wrap(err, "error querying drafts")
	}
	defer rows.Close()

	drafts := make([]model.Draft, 0)
	for rows.Next() {
		var row draftRow
		if err := rows.StructScan(&row); err != nil {
			return nil, errors.Wrap(err, "error scanning draft")
		}
		d, err := r.toModel(row)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, *d)
	}
	return drafts, errors.Wrap(rows.Err(), "error iterating drafts")
}

// isUniqueViolation matches both the sqlite and the postgres wording.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}
