package service

import (
	"context"
	"strings"
	"time"

	"threads/internal/cache"
	"threads/internal/models"
	"threads/internal/repository"
	"threads/internal/validation"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// UserService manages profiles, the user directory and reply activity.
type UserService struct {
	store       repository.Store
	revalidator Revalidator
	now         func() time.Time
}

type UpdateUserInput struct {
	ExternalID string
	Username   string
	Name       string
	Bio        string
	Image      string
	Path       string
}

type FetchUsersInput struct {
	// UserID is the requesting user's external id; it never appears in results.
	UserID       string
	SearchString string
	PageNumber   int
	PageSize     int
	SortBy       string
}

func NewUserService(store repository.Store, revalidator Revalidator) *UserService {
	return &UserService{store: store, revalidator: revalidator, now: time.Now}
}

// FetchUser returns the profile for an external id with its communities.
func (s *UserService) FetchUser(ctx context.Context, externalID string) (profile *models.UserProfile, err error) {
	op, ctx := startOperation(ctx, "user.fetch", attribute.String("external_id", externalID))
	defer func() { op.finish(ctx, err) }()

	if err := connect(ctx, s.store); err != nil {
		return nil, err
	}

	var view models.UserProfile
	err = cache.Aside(ctx, cache.UserKey(externalID), &view, cache.UserTTL, func() error {
		user, err := s.store.Users().GetByExternalID(ctx, externalID)
		if err != nil {
			return err
		}
		communities, err := s.store.Communities().GetByIDs(ctx, user.Communities)
		if err != nil {
			return err
		}
		view.User = user
		view.Communities = make([]*models.CommunitySummary, 0, len(user.Communities))
		for _, c := range orderByIDs(user.Communities, communities, communityID) {
			view.Communities = append(view.Communities, models.NewCommunitySummary(c))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// UpdateUser creates or updates the profile for an external id and marks it
// onboarded. Only ProfileEditPath publishes a revalidation event.
func (s *UserService) UpdateUser(ctx context.Context, in UpdateUserInput) (user *models.User, err error) {
	op, ctx := startOperation(ctx, "user.update", attribute.String("external_id", in.ExternalID))
	defer func() { op.finish(ctx, err) }()

	if strings.TrimSpace(in.ExternalID) == "" {
		return nil, models.NewValidationError("external id is required")
	}
	username := validation.NormalizeUsername(in.Username)
	if err := validation.ValidateUsername(username); err != nil {
		return nil, validationError(err)
	}
	if err := validation.ValidateName(in.Name); err != nil {
		return nil, validationError(err)
	}

	if err := connect(ctx, s.store); err != nil {
		return nil, wrap("failed to update user", err)
	}

	user, err = s.store.Users().Upsert(ctx, &models.User{
		ID:         uuid.NewString(),
		ExternalID: in.ExternalID,
		Username:   username,
		Name:       strings.TrimSpace(in.Name),
		Bio:        in.Bio,
		Image:      in.Image,
		Onboarded:  true,
		CreatedAt:  s.now().UTC(),
	})
	if err != nil {
		return nil, wrap("failed to update user", err)
	}

	path := ""
	if in.Path == ProfileEditPath {
		path = in.Path
	}
	revalidate(ctx, s.revalidator, path, cache.UserKey(in.ExternalID))
	return user, nil
}

// FetchUserPosts returns the user's threads in list order with their direct
// replies attached.
func (s *UserService) FetchUserPosts(ctx context.Context, externalID string) (posts *models.UserPosts, err error) {
	op, ctx := startOperation(ctx, "user.fetch_posts", attribute.String("external_id", externalID))
	defer func() { op.finish(ctx, err) }()

	if err := connect(ctx, s.store); err != nil {
		return nil, err
	}

	user, err := s.store.Users().GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	threads, err := s.store.Threads().GetByIDs(ctx, user.Threads)
	if err != nil {
		return nil, err
	}

	nodes, err := newPopulator(s.store).expand(ctx, orderByIDs(user.Threads, threads, threadID), 1)
	if err != nil {
		return nil, err
	}
	return &models.UserPosts{User: models.NewAuthorSummary(user), Threads: nodes}, nil
}

// FetchAllUsers lists users other than the requester, optionally filtered by
// a case-insensitive substring of username or name.
func (s *UserService) FetchAllUsers(ctx context.Context, in FetchUsersInput) (out *models.UsersPage, err error) {
	op, ctx := startOperation(ctx, "user.fetch_all")
	defer func() { op.finish(ctx, err) }()

	if err := connect(ctx, s.store); err != nil {
		return nil, err
	}

	page := models.PageRequest{PageNumber: in.PageNumber, PageSize: in.PageSize}.Normalize()
	opts := repository.ListOptions{
		Search:            strings.TrimSpace(in.SearchString),
		ExcludeExternalID: in.UserID,
		SortDesc:          models.NormalizeSort(in.SortBy) == models.SortDesc,
		Limit:             page.PageSize,
		Offset:            page.Offset(),
	}

	users, err := s.store.Users().List(ctx, opts)
	if err != nil {
		return nil, err
	}
	total, err := s.store.Users().Count(ctx, opts)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []*models.User{}
	}
	return &models.UsersPage{Users: users, IsNext: models.HasNext(total, page.Offset(), len(users))}, nil
}

// GetUserActivity returns replies written by others on threads authored by
// userID, newest first.
func (s *UserService) GetUserActivity(ctx context.Context, userID string) (replies []*models.ThreadNode, err error) {
	op, ctx := startOperation(ctx, "user.activity", attribute.String("user_id", userID))
	defer func() { op.finish(ctx, err) }()

	if err := connect(ctx, s.store); err != nil {
		return nil, err
	}

	authored, err := s.store.Threads().ListByAuthor(ctx, userID)
	if err != nil {
		return nil, err
	}
	var childIDs []string
	seen := make(map[string]struct{})
	for _, t := range authored {
		for _, id := range t.Children {
			if _, ok := seen[id]; !ok {
				seen[id] = struct{}{}
				childIDs = append(childIDs, id)
			}
		}
	}

	found, err := s.store.Threads().ListRepliesExcludingAuthor(ctx, childIDs, userID)
	if err != nil {
		return nil, err
	}
	p := newPopulator(s.store)
	if err := p.load(ctx, found); err != nil {
		return nil, err
	}
	replies = make([]*models.ThreadNode, 0, len(found))
	for _, t := range found {
		replies = append(replies, p.node(t))
	}
	return replies, nil
}
