package board

import (
	"context"
	"database/sql"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Posts is the post store. Lookup and listing take an explicit
// includeDeleted flag; rows excluded by the tombstone filter report as
// not-found, indistinguishable from absent rows.
type Posts interface {
	repository.Repository[*Post]

	Lookup(ctx context.Context, id uuid.UUID, includeDeleted bool) (*Post, error)
	LookupTx(ctx context.Context, tx bun.IDB, id uuid.UUID, includeDeleted bool) (*Post, error)

	ListPage(ctx context.Context, offset, limit int, includeDeleted bool) ([]*Post, error)
	ListByAuthor(ctx context.Context, authorID uuid.UUID, includeDeleted bool) ([]*Post, error)

	UpdateContentTx(ctx context.Context, tx bun.IDB, id uuid.UUID, upd PostUpdate) error
	MarkDeletedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
	PurgeTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error
}

type posts struct {
	repository.Repository[*Post]
	db *bun.DB
}

var (
	_ Posts                        = (*posts)(nil)
	_ repository.Repository[*Post] = (*posts)(nil)
)

func NewPostsRepository(db *bun.DB) Posts {
	repo := repository.NewRepository[*Post](db, repository.ModelHandlers[*Post]{
		NewRecord: func() *Post { return &Post{} },
		GetID: func(p *Post) uuid.UUID {
			if p == nil {
				return uuid.Nil
			}
			return p.ID
		},
		SetID: func(p *Post, id uuid.UUID) {
			if p != nil {
				p.ID = id
			}
		},
	})

	return &posts{
		Repository: repo,
		db:         db,
	}
}

func (p *posts) Lookup(ctx context.Context, id uuid.UUID, includeDeleted bool) (*Post, error) {
	return p.LookupTx(ctx, p.db, id, includeDeleted)
}

func (p *posts) LookupTx(ctx context.Context, tx bun.IDB, id uuid.UUID, includeDeleted bool) (*Post, error) {
	record := &Post{}

	q := tx.NewSelect().
		Model(record).
		Relation("Author").
		Where("?TableAlias.id = ?", id)

	if !includeDeleted {
		q = q.Where("?TableAlias.is_deleted = ?", false)
	}

	if err := q.Limit(1).Scan(ctx); err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"id": id.String(),
				})
		}
		return nil, err
	}

	return record, nil
}

func (p *posts) ListPage(ctx context.Context, offset, limit int, includeDeleted bool) ([]*Post, error) {
	records := []*Post{}

	q := p.db.NewSelect().
		Model(&records).
		Relation("Author").
		Order("pst.created_at DESC", "pst.id DESC").
		Offset(offset).
		Limit(limit)

	if !includeDeleted {
		q = q.Where("?TableAlias.is_deleted = ?", false)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	return records, nil
}

func (p *posts) ListByAuthor(ctx context.Context, authorID uuid.UUID, includeDeleted bool) ([]*Post, error) {
	records := []*Post{}

	q := p.db.NewSelect().
		Model(&records).
		Relation("Author").
		Where("?TableAlias.author_id = ?", authorID).
		Order("pst.created_at DESC")

	if !includeDeleted {
		q = q.Where("?TableAlias.is_deleted = ?", false)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	return records, nil
}

// UpdateContentTx applies a partial title/content update and stamps
// updated_at. The deleted-excluded filter is part of the statement, so a
// soft-deleted post reports not-found here.
func (p *posts) UpdateContentTx(ctx context.Context, tx bun.IDB, id uuid.UUID, upd PostUpdate) error {
	q := tx.NewUpdate().
		Model((*Post)(nil)).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Where("is_deleted = ?", false)

	if upd.Title != nil {
		q = q.Set("title = ?", *upd.Title)
	}
	if upd.Content != nil {
		q = q.Set("content = ?", *upd.Content)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return err
	}

	return requireRowTouched(res, id)
}

func (p *posts) MarkDeletedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	res, err := tx.NewUpdate().
		Model((*Post)(nil)).
		Set("is_deleted = ?", true).
		Where("id = ?", id).
		Where("is_deleted = ?", false).
		Exec(ctx)
	if err != nil {
		return err
	}

	return requireRowTouched(res, id)
}

// PurgeTx removes the row permanently, tombstoned or not.
func (p *posts) PurgeTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	res, err := tx.NewDelete().
		Model((*Post)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}

	return requireRowTouched(res, id)
}

func requireRowTouched(res sql.Result, id uuid.UUID) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}
	return nil
}
