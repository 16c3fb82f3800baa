package service

import (
	"context"
	"time"

	"threads/internal/cache"
	"threads/internal/featureflags"
	"threads/internal/middleware"
	"threads/internal/models"
	"threads/internal/repository"
	"threads/internal/validation"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// ThreadService creates, reads and deletes threads and comments.
type ThreadService struct {
	store       repository.Store
	revalidator Revalidator
	flags       *featureflags.Manager
	now         func() time.Time
}

type CreateThreadInput struct {
	Text     string
	AuthorID string
	// CommunityID is the community's external id. Unknown ids create the
	// thread without a community.
	CommunityID string
	Path        string
}

type AddCommentInput struct {
	ThreadID string
	Text     string
	AuthorID string
	Path     string
}

type DeleteThreadInput struct {
	ID   string
	Path string
	// RequesterID, when set, is the internal id of the user asking; it must
	// match the author.
	RequesterID string
}

func NewThreadService(store repository.Store, revalidator Revalidator, flags *featureflags.Manager) *ThreadService {
	return &ThreadService{
		store:       store,
		revalidator: revalidator,
		flags:       flags,
		now:         time.Now,
	}
}

// CreateThread stores a new top-level thread and links it to its author and
// community.
func (s *ThreadService) CreateThread(ctx context.Context, in CreateThreadInput) (thread *models.Thread, err error) {
	op, ctx := startOperation(ctx, "thread.create", attribute.String("author_id", in.AuthorID))
	defer func() { op.finish(ctx, err) }()

	if err := validation.ValidateText(in.Text, models.MaxThreadTextLength); err != nil {
		return nil, validationError(err)
	}
	if err := connect(ctx, s.store); err != nil {
		return nil, err
	}

	author, err := s.store.Users().GetByID(ctx, in.AuthorID)
	if err != nil {
		return nil, err
	}

	var community *models.Community
	if in.CommunityID != "" {
		community, err = s.store.Communities().GetByExternalID(ctx, in.CommunityID)
		if models.IsNotFound(err) {
			middleware.Logger.WarnContext(ctx, "unknown community, creating thread without one", "community", in.CommunityID)
			community, err = nil, nil
		}
		if err != nil {
			return nil, err
		}
	}

	thread = &models.Thread{
		ID:        uuid.NewString(),
		Text:      in.Text,
		AuthorID:  author.ID,
		Children:  []string{},
		CreatedAt: s.now().UTC(),
	}
	if community != nil {
		thread.CommunityID = &community.ID
	}

	if err := s.store.Threads().Create(ctx, thread); err != nil {
		return nil, err
	}
	if err := s.store.Users().PushThread(ctx, author.ID, thread.ID); err != nil {
		return nil, wrap("failed to link thread to author", err)
	}
	if community != nil {
		if err := s.store.Communities().PushThread(ctx, community.ID, thread.ID); err != nil {
			return nil, wrap("failed to link thread to community", err)
		}
	}

	stale := []string{cache.UserKey(author.ExternalID)}
	if community != nil {
		stale = append(stale, cache.CommunityKey(community.ExternalID))
	}
	revalidate(ctx, s.revalidator, in.Path, stale...)
	return thread, nil
}

// FetchPosts returns one page of top-level threads, newest first, each with
// its direct replies attached.
func (s *ThreadService) FetchPosts(ctx context.Context, page models.PageRequest) (out *models.PostsPage, err error) {
	op, ctx := startOperation(ctx, "thread.fetch_posts")
	defer func() { op.finish(ctx, err) }()

	if err := connect(ctx, s.store); err != nil {
		return nil, err
	}
	page = page.Normalize()

	roots, err := s.store.Threads().ListTopLevel(ctx, page.PageSize, page.Offset())
	if err != nil {
		return nil, err
	}
	total, err := s.store.Threads().CountTopLevel(ctx)
	if err != nil {
		return nil, err
	}

	posts, err := newPopulator(s.store).expand(ctx, roots, 1)
	if err != nil {
		return nil, err
	}
	return &models.PostsPage{
		Posts:  posts,
		IsNext: models.HasNext(total, page.Offset(), len(roots)),
	}, nil
}

// FetchThreadByID returns the thread with two generations of replies.
func (s *ThreadService) FetchThreadByID(ctx context.Context, id string) (node *models.ThreadNode, err error) {
	op, ctx := startOperation(ctx, "thread.fetch", attribute.String("thread_id", id))
	defer func() { op.finish(ctx, err) }()

	if err := connect(ctx, s.store); err != nil {
		return nil, err
	}

	var view models.ThreadNode
	err = cache.Aside(ctx, cache.ThreadKey(id), &view, cache.ThreadTTL, func() error {
		thread, err := s.store.Threads().GetByID(ctx, id)
		if err != nil {
			return err
		}
		nodes, err := newPopulator(s.store).expand(ctx, []*models.Thread{thread}, 2)
		if err != nil {
			return err
		}
		view = *nodes[0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// AddCommentToThread stores a reply and appends it to the parent's children.
// The two writes are not atomic. When the append fails and compensation is
// enabled the reply is removed again; otherwise the reconciler links it.
func (s *ThreadService) AddCommentToThread(ctx context.Context, in AddCommentInput) (comment *models.Thread, err error) {
	op, ctx := startOperation(ctx, "thread.add_comment",
		attribute.String("thread_id", in.ThreadID),
		attribute.String("author_id", in.AuthorID),
	)
	defer func() { op.finish(ctx, err) }()

	if err := validation.ValidateText(in.Text, models.MaxThreadTextLength); err != nil {
		return nil, validationError(err)
	}
	if err := connect(ctx, s.store); err != nil {
		return nil, err
	}

	parent, err := s.store.Threads().GetByID(ctx, in.ThreadID)
	if err != nil {
		return nil, err
	}
	author, err := s.store.Users().GetByID(ctx, in.AuthorID)
	if err != nil {
		return nil, err
	}

	comment = &models.Thread{
		ID:        uuid.NewString(),
		Text:      in.Text,
		AuthorID:  author.ID,
		ParentID:  &parent.ID,
		Children:  []string{},
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.Threads().Create(ctx, comment); err != nil {
		return nil, err
	}

	if err := s.store.Threads().AppendChild(ctx, parent.ID, comment.ID); err != nil {
		if s.flags.Enabled(featureflags.CompensateWrites, author.ID) {
			if _, delErr := s.store.Threads().DeleteByIDs(ctx, []string{comment.ID}); delErr != nil {
				middleware.Logger.ErrorContext(ctx, "failed to remove unlinked comment",
					"comment_id", comment.ID, "error", delErr)
			}
		} else {
			middleware.Logger.WarnContext(ctx, "comment stored but not linked to parent",
				"comment_id", comment.ID, "parent_id", parent.ID)
		}
		return nil, wrap("failed to link comment to thread", err)
	}

	stale, keyErr := ViewKeys(ctx, s.store.Threads(), parent)
	if keyErr != nil {
		middleware.Logger.WarnContext(ctx, "failed to resolve stale thread views",
			"parent_id", parent.ID, "error", keyErr)
	}
	revalidate(ctx, s.revalidator, in.Path, stale...)
	return comment, nil
}

// DeleteThread removes a thread and all of its descendants and cleans up
// every reference to them. It returns the number of threads removed.
func (s *ThreadService) DeleteThread(ctx context.Context, in DeleteThreadInput) (deleted int64, err error) {
	op, ctx := startOperation(ctx, "thread.delete", attribute.String("thread_id", in.ID))
	defer func() { op.finish(ctx, err) }()

	if err := connect(ctx, s.store); err != nil {
		return 0, wrap("failed to delete thread", err)
	}

	target, err := s.store.Threads().GetByID(ctx, in.ID)
	if err != nil {
		return 0, wrap("failed to delete thread", err)
	}
	if in.RequesterID != "" && target.AuthorID != in.RequesterID {
		return 0, models.NewUnauthorizedError("You can only delete your own threads")
	}

	res, err := cascadeDelete(ctx, s.store, target)
	if res != nil {
		deleted = res.Deleted
	}
	if err != nil {
		if res != nil {
			cache.Invalidate(ctx, res.StaleViews...)
		}
		return deleted, wrap("failed to delete thread", err)
	}

	revalidate(ctx, s.revalidator, in.Path, res.StaleViews...)
	return deleted, nil
}
