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

// CommunityService manages communities, their membership and their threads.
type CommunityService struct {
	store       repository.Store
	revalidator Revalidator
	now         func() time.Time
}

type FetchCommunitiesInput struct {
	SearchString string
	PageNumber   int
	PageSize     int
	SortBy       string
}

type CreateCommunityInput struct {
	ExternalID string
	Name       string
	Username   string
	Image      string
	Bio        string
	// CreatedBy is the creator's external user id.
	CreatedBy string
	Path      string
}

type UpdateCommunityInput struct {
	ExternalID string
	Name       string
	Username   string
	Image      string
	// RequesterID, when set, must be the creator's external user id.
	RequesterID string
	Path        string
}

type DeleteCommunityInput struct {
	ExternalID  string
	RequesterID string
	Path        string
}

func NewCommunityService(store repository.Store, revalidator Revalidator) *CommunityService {
	return &CommunityService{store: store, revalidator: revalidator, now: time.Now}
}

// FetchCommunities pages through communities with the same search and sort
// rules as the user directory.
func (s *CommunityService) FetchCommunities(ctx context.Context, in FetchCommunitiesInput) (out *models.CommunitiesPage, err error) {
	op, ctx := startOperation(ctx, "community.fetch_all")
	defer func() { op.finish(ctx, err) }()

	if err := connect(ctx, s.store); err != nil {
		return nil, err
	}

	page := models.PageRequest{PageNumber: in.PageNumber, PageSize: in.PageSize}.Normalize()
	opts := repository.ListOptions{
		Search:   strings.TrimSpace(in.SearchString),
		SortDesc: models.NormalizeSort(in.SortBy) == models.SortDesc,
		Limit:    page.PageSize,
		Offset:   page.Offset(),
	}

	communities, err := s.store.Communities().List(ctx, opts)
	if err != nil {
		return nil, err
	}
	total, err := s.store.Communities().Count(ctx, opts)
	if err != nil {
		return nil, err
	}
	if communities == nil {
		communities = []*models.Community{}
	}
	return &models.CommunitiesPage{
		Communities: communities,
		IsNext:      models.HasNext(total, page.Offset(), len(communities)),
	}, nil
}

// FetchCommunityPosts returns the community's threads in list order with
// their direct replies attached.
func (s *CommunityService) FetchCommunityPosts(ctx context.Context, externalID string) (out *models.CommunityPosts, err error) {
	op, ctx := startOperation(ctx, "community.fetch_posts", attribute.String("community", externalID))
	defer func() { op.finish(ctx, err) }()

	if err := connect(ctx, s.store); err != nil {
		return nil, err
	}

	community, err := s.store.Communities().GetByExternalID(ctx, externalID)
	if err != nil {
		return nil, err
	}
	threads, err := s.store.Threads().GetByIDs(ctx, community.Threads)
	if err != nil {
		return nil, err
	}
	nodes, err := newPopulator(s.store).expand(ctx, orderByIDs(community.Threads, threads, threadID), 1)
	if err != nil {
		return nil, err
	}
	return &models.CommunityPosts{Community: models.NewCommunitySummary(community), Threads: nodes}, nil
}

// FetchCommunityDetails returns the community with its creator and members.
func (s *CommunityService) FetchCommunityDetails(ctx context.Context, externalID string) (out *models.CommunityDetails, err error) {
	op, ctx := startOperation(ctx, "community.fetch", attribute.String("community", externalID))
	defer func() { op.finish(ctx, err) }()

	if err := connect(ctx, s.store); err != nil {
		return nil, err
	}

	var view models.CommunityDetails
	err = cache.Aside(ctx, cache.CommunityKey(externalID), &view, cache.CommunityTTL, func() error {
		community, err := s.store.Communities().GetByExternalID(ctx, externalID)
		if err != nil {
			return err
		}
		ids := community.Members
		if community.CreatedBy != "" && !community.HasMember(community.CreatedBy) {
			ids = append(append([]string{}, ids...), community.CreatedBy)
		}
		users, err := s.store.Users().GetByIDs(ctx, ids)
		if err != nil {
			return err
		}

		view.Community = community
		view.Members = make([]*models.AuthorSummary, 0, len(community.Members))
		for _, u := range orderByIDs(community.Members, users, userID) {
			view.Members = append(view.Members, models.NewAuthorSummary(u))
		}
		for _, u := range users {
			if u.ID == community.CreatedBy {
				view.Creator = models.NewAuthorSummary(u)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}

// CreateCommunity stores a community whose first member is its creator.
func (s *CommunityService) CreateCommunity(ctx context.Context, in CreateCommunityInput) (community *models.Community, err error) {
	op, ctx := startOperation(ctx, "community.create", attribute.String("community", in.ExternalID))
	defer func() { op.finish(ctx, err) }()

	if strings.TrimSpace(in.ExternalID) == "" {
		return nil, models.NewValidationError("community id is required")
	}
	username := validation.NormalizeUsername(in.Username)
	if err := validation.ValidateUsername(username); err != nil {
		return nil, validationError(err)
	}
	if err := validation.ValidateName(in.Name); err != nil {
		return nil, validationError(err)
	}
	if err := connect(ctx, s.store); err != nil {
		return nil, err
	}

	creator, err := s.store.Users().GetByExternalID(ctx, in.CreatedBy)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	community = &models.Community{
		ID:         uuid.NewString(),
		ExternalID: in.ExternalID,
		Username:   username,
		Name:       strings.TrimSpace(in.Name),
		Image:      in.Image,
		Bio:        in.Bio,
		CreatedBy:  creator.ID,
		Threads:    []string{},
		Members:    []string{creator.ID},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.Communities().Create(ctx, community); err != nil {
		return nil, err
	}
	if err := s.store.Users().AddCommunity(ctx, creator.ID, community.ID); err != nil {
		return nil, wrap("failed to add community to creator", err)
	}

	revalidate(ctx, s.revalidator, in.Path, cache.UserKey(creator.ExternalID))
	return community, nil
}

// UpdateCommunityInfo changes the name, handle and image of a community.
func (s *CommunityService) UpdateCommunityInfo(ctx context.Context, in UpdateCommunityInput) (community *models.Community, err error) {
	op, ctx := startOperation(ctx, "community.update", attribute.String("community", in.ExternalID))
	defer func() { op.finish(ctx, err) }()

	username := validation.NormalizeUsername(in.Username)
	if err := validation.ValidateUsername(username); err != nil {
		return nil, validationError(err)
	}
	if err := validation.ValidateName(in.Name); err != nil {
		return nil, validationError(err)
	}
	if err := connect(ctx, s.store); err != nil {
		return nil, err
	}

	community, err = s.store.Communities().GetByExternalID(ctx, in.ExternalID)
	if err != nil {
		return nil, err
	}
	if err := s.checkCreator(ctx, community, in.RequesterID); err != nil {
		return nil, err
	}

	community.Name = strings.TrimSpace(in.Name)
	community.Username = username
	community.Image = in.Image
	if err := s.store.Communities().Update(ctx, community); err != nil {
		return nil, err
	}

	revalidate(ctx, s.revalidator, in.Path, cache.CommunityKey(community.ExternalID))
	return community, nil
}

// AddMemberToCommunity adds a user to a community in both directions.
func (s *CommunityService) AddMemberToCommunity(ctx context.Context, communityExternalID, memberExternalID string) (community *models.Community, err error) {
	op, ctx := startOperation(ctx, "community.add_member", attribute.String("community", communityExternalID))
	defer func() { op.finish(ctx, err) }()

	if err := connect(ctx, s.store); err != nil {
		return nil, err
	}

	community, err = s.store.Communities().GetByExternalID(ctx, communityExternalID)
	if err != nil {
		return nil, err
	}
	user, err := s.store.Users().GetByExternalID(ctx, memberExternalID)
	if err != nil {
		return nil, err
	}
	if community.HasMember(user.ID) {
		return nil, models.NewConflictError("User is already a member of the community")
	}

	if err := s.store.Communities().AddMember(ctx, community.ID, user.ID); err != nil {
		return nil, err
	}
	if err := s.store.Users().AddCommunity(ctx, user.ID, community.ID); err != nil {
		return nil, wrap("failed to add community to user", err)
	}
	community.Members = append(community.Members, user.ID)

	revalidate(ctx, s.revalidator, "", cache.CommunityKey(community.ExternalID), cache.UserKey(user.ExternalID))
	return community, nil
}

// RemoveUserFromCommunity removes the membership in both directions.
func (s *CommunityService) RemoveUserFromCommunity(ctx context.Context, userExternalID, communityExternalID string) (err error) {
	op, ctx := startOperation(ctx, "community.remove_member", attribute.String("community", communityExternalID))
	defer func() { op.finish(ctx, err) }()

	if err := connect(ctx, s.store); err != nil {
		return err
	}

	user, err := s.store.Users().GetByExternalID(ctx, userExternalID)
	if err != nil {
		return err
	}
	community, err := s.store.Communities().GetByExternalID(ctx, communityExternalID)
	if err != nil {
		return err
	}

	if err := s.store.Communities().RemoveMember(ctx, community.ID, user.ID); err != nil {
		return err
	}
	if err := s.store.Users().RemoveCommunity(ctx, []string{user.ID}, community.ID); err != nil {
		return wrap("failed to remove community from user", err)
	}

	revalidate(ctx, s.revalidator, "", cache.CommunityKey(community.ExternalID), cache.UserKey(user.ExternalID))
	return nil
}

// DeleteCommunity cascade-deletes every thread of the community, drops it
// from its members and removes it.
func (s *CommunityService) DeleteCommunity(ctx context.Context, in DeleteCommunityInput) (community *models.Community, err error) {
	op, ctx := startOperation(ctx, "community.delete", attribute.String("community", in.ExternalID))
	defer func() { op.finish(ctx, err) }()

	if err := connect(ctx, s.store); err != nil {
		return nil, wrap("failed to delete community", err)
	}

	community, err = s.store.Communities().GetByExternalID(ctx, in.ExternalID)
	if err != nil {
		return nil, wrap("failed to delete community", err)
	}
	if err := s.checkCreator(ctx, community, in.RequesterID); err != nil {
		return nil, err
	}

	tagged, err := s.store.Threads().ListByCommunity(ctx, community.ID)
	if err != nil {
		return nil, wrap("failed to delete community", err)
	}
	stale := []string{cache.CommunityKey(community.ExternalID)}
	removed := make(map[string]struct{})
	for _, t := range tagged {
		if _, ok := removed[t.ID]; ok {
			continue
		}
		res, err := cascadeDelete(ctx, s.store, t)
		if err != nil {
			return nil, wrap("failed to delete community threads", err)
		}
		for _, id := range res.IDs {
			removed[id] = struct{}{}
		}
		stale = append(stale, res.StaleViews...)
	}

	memberIDs := community.Members
	if community.CreatedBy != "" && !community.HasMember(community.CreatedBy) {
		memberIDs = append(append([]string{}, memberIDs...), community.CreatedBy)
	}
	members, err := s.store.Users().GetByIDs(ctx, memberIDs)
	if err != nil {
		return nil, wrap("failed to delete community", err)
	}
	if err := s.store.Users().RemoveCommunity(ctx, memberIDs, community.ID); err != nil {
		return nil, wrap("failed to delete community", err)
	}
	for _, u := range members {
		stale = append(stale, cache.UserKey(u.ExternalID))
	}

	if err := s.store.Communities().Delete(ctx, community.ID); err != nil {
		return nil, wrap("failed to delete community", err)
	}

	revalidate(ctx, s.revalidator, in.Path, stale...)
	return community, nil
}

func (s *CommunityService) checkCreator(ctx context.Context, community *models.Community, requesterExternalID string) error {
	if requesterExternalID == "" {
		return nil
	}
	requester, err := s.store.Users().GetByExternalID(ctx, requesterExternalID)
	if err != nil {
		return err
	}
	if requester.ID != community.CreatedBy {
		return models.NewUnauthorizedError("Only the community creator can change it")
	}
	return nil
}
