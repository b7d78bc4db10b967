package board

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/inkwellhq/inkwell/auth"
	"github.com/uptrace/bun"
)

// Service runs every post operation inside a single transaction, with the
// policy check between lookup and mutation. Visibility rules:
//   - reads widen to tombstoned rows for admin actors only
//   - update and soft delete always look up with tombstones excluded, so a
//     soft-deleted post reports not-found to mutation regardless of actor
//   - hard delete looks up with tombstones included and is admin only
type Service struct {
	db     *bun.DB
	posts  Posts
	logger auth.Logger
}

func NewService(db *bun.DB, posts Posts, logger auth.Logger) *Service {
	if logger == nil {
		logger = noopLogger{}
	}
	return &Service{
		db:     db,
		posts:  posts,
		logger: logger,
	}
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

func (s *Service) Create(ctx context.Context, actor *auth.User, input PostInput) (*Post, error) {
	if actor == nil {
		return nil, auth.ErrIdentityNotFound
	}

	if err := input.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	post := &Post{
		ID:        uuid.New(),
		AuthorID:  actor.ID,
		Title:     strings.TrimSpace(input.Title),
		Content:   input.Content,
		CreatedAt: &now,
	}

	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := s.posts.CreateTx(ctx, tx, post)
		return err
	})
	if err != nil {
		return nil, err
	}

	post.Author = actor

	return post, nil
}

func (s *Service) Get(ctx context.Context, actor *auth.User, id uuid.UUID) (*Post, error) {
	post, err := s.posts.Lookup(ctx, id, IncludeDeletedFor(actor))
	if err != nil {
		return nil, notFoundOr(err)
	}

	if d := Authorize(actor, post, OpRead); !d.Allowed {
		return nil, ErrPostNotFound
	}

	return post, nil
}

// List returns one page of posts plus a has-next flag.
func (s *Service) List(ctx context.Context, actor *auth.User, page, perPage int) ([]*Post, bool, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPageSize
	}

	return s.ListRange(ctx, actor, (page-1)*perPage, perPage)
}

// ListRange is the offset/limit form of List. The has-next flag is probed by
// asking the store for one row past the window.
func (s *Service) ListRange(ctx context.Context, actor *auth.User, offset, limit int) ([]*Post, bool, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	records, err := s.posts.ListPage(ctx, offset, limit+1, IncludeDeletedFor(actor))
	if err != nil {
		return nil, false, err
	}

	hasNext := len(records) > limit
	if hasNext {
		records = records[:limit]
	}

	return records, hasNext, nil
}

func (s *Service) ListByAuthor(ctx context.Context, actor *auth.User, authorID uuid.UUID) ([]*Post, error) {
	return s.posts.ListByAuthor(ctx, authorID, IncludeDeletedFor(actor))
}

func (s *Service) Update(ctx context.Context, actor *auth.User, id uuid.UUID, upd PostUpdate) (*Post, error) {
	if err := upd.Validate(); err != nil {
		return nil, err
	}

	var post *Post

	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		current, err := s.posts.LookupTx(ctx, tx, id, false)
		if err != nil {
			return notFoundOr(err)
		}

		if d := Authorize(actor, current, OpUpdate); !d.Allowed {
			return ForbiddenError(d)
		}

		if err := s.posts.UpdateContentTx(ctx, tx, id, upd); err != nil {
			return notFoundOr(err)
		}

		post, err = s.posts.LookupTx(ctx, tx, id, false)
		return err
	})
	if err != nil {
		return nil, err
	}

	return post, nil
}

func (s *Service) SoftDelete(ctx context.Context, actor *auth.User, id uuid.UUID) error {
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		current, err := s.posts.LookupTx(ctx, tx, id, false)
		if err != nil {
			return notFoundOr(err)
		}

		if d := Authorize(actor, current, OpSoftDelete); !d.Allowed {
			return ForbiddenError(d)
		}

		if err := s.posts.MarkDeletedTx(ctx, tx, id); err != nil {
			return notFoundOr(err)
		}

		s.logger.Info("post soft deleted", "post_id", id.String(), "actor", actor.Username)
		return nil
	})
}

func (s *Service) HardDelete(ctx context.Context, actor *auth.User, id uuid.UUID) error {
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		current, err := s.posts.LookupTx(ctx, tx, id, true)
		if err != nil {
			return notFoundOr(err)
		}

		if d := Authorize(actor, current, OpHardDelete); !d.Allowed {
			return ForbiddenError(d)
		}

		if err := s.posts.PurgeTx(ctx, tx, id); err != nil {
			return notFoundOr(err)
		}

		s.logger.Warn("post purged", "post_id", id.String(), "actor", actor.Username)
		return nil
	})
}

func notFoundOr(err error) error {
	if err == nil {
		return nil
	}
	if repository.IsRecordNotFound(err) || errors.IsNotFound(err) {
		return ErrPostNotFound
	}
	return err
}
