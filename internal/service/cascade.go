package service

import (
	"context"

	"threads/internal/cache"
	"threads/internal/middleware"
	"threads/internal/models"
	"threads/internal/observability"
	"threads/internal/repository"
)

// cascadeResult lists what a cascade delete touched.
type cascadeResult struct {
	IDs        []string
	Deleted    int64
	StaleViews []string
}

// collectSubtree returns target followed by all of its transitive
// descendants, discovered one generation per query.
func collectSubtree(ctx context.Context, threads repository.ThreadRepository, target *models.Thread) ([]*models.Thread, error) {
	subtree := []*models.Thread{target}

	frontier := []string{target.ID}
	for len(frontier) > 0 {
		children, err := threads.ListByParents(ctx, frontier)
		if err != nil {
			return nil, err
		}
		frontier = nil
		for _, child := range children {
			subtree = append(subtree, child)
			frontier = append(frontier, child.ID)
		}
	}
	return subtree, nil
}

// ViewKeys returns the cache keys of every thread view that shows t's
// children or reply count: t itself and its two nearest ancestors.
func ViewKeys(ctx context.Context, threads repository.ThreadRepository, t *models.Thread) ([]string, error) {
	keys := []string{cache.ThreadKey(t.ID)}
	if t.ParentID == nil {
		return keys, nil
	}
	keys = append(keys, cache.ThreadKey(*t.ParentID))

	parent, err := threads.GetByID(ctx, *t.ParentID)
	if models.IsNotFound(err) {
		return keys, nil
	}
	if err != nil {
		return keys, err
	}
	if parent.ParentID != nil {
		keys = append(keys, cache.ThreadKey(*parent.ParentID))
	}
	return keys, nil
}

// ownerKeys returns the profile and details keys of the given users and
// communities.
func ownerKeys(ctx context.Context, store repository.Store, userIDs, communityIDs []string) ([]string, error) {
	var keys []string
	if len(userIDs) > 0 {
		users, err := store.Users().GetByIDs(ctx, userIDs)
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			keys = append(keys, cache.UserKey(u.ExternalID))
		}
	}
	if len(communityIDs) > 0 {
		communities, err := store.Communities().GetByIDs(ctx, communityIDs)
		if err != nil {
			return nil, err
		}
		for _, c := range communities {
			keys = append(keys, cache.CommunityKey(c.ExternalID))
		}
	}
	return keys, nil
}

// cascadeDelete removes target and every descendant, then pulls the removed
// ids from their authors, their communities and the target's parent. Steps
// run in order without a transaction; a failure returns after the completed
// steps.
func cascadeDelete(ctx context.Context, store repository.Store, target *models.Thread) (*cascadeResult, error) {
	subtree, err := collectSubtree(ctx, store.Threads(), target)
	if err != nil {
		return nil, err
	}

	res := &cascadeResult{IDs: make([]string, 0, len(subtree))}
	var authorIDs, communityIDs []string
	authors := make(map[string]struct{})
	communities := make(map[string]struct{})
	for _, t := range subtree {
		res.IDs = append(res.IDs, t.ID)
		if t.AuthorID != "" {
			if _, ok := authors[t.AuthorID]; !ok {
				authors[t.AuthorID] = struct{}{}
				authorIDs = append(authorIDs, t.AuthorID)
			}
		}
		if t.CommunityID != nil {
			if _, ok := communities[*t.CommunityID]; !ok {
				communities[*t.CommunityID] = struct{}{}
				communityIDs = append(communityIDs, *t.CommunityID)
			}
		}
	}
	owners, err := ownerKeys(ctx, store, authorIDs, communityIDs)
	if err != nil {
		return nil, err
	}
	res.StaleViews = append(cache.ThreadKeys(res.IDs...), owners...)

	deleted, err := store.Threads().DeleteByIDs(ctx, res.IDs)
	if err != nil {
		return nil, err
	}
	res.Deleted = deleted
	observability.CascadeDeleteSize.Observe(float64(deleted))

	if err := store.Users().PullThreads(ctx, authorIDs, res.IDs); err != nil {
		return res, err
	}
	if err := store.Communities().PullThreads(ctx, communityIDs, res.IDs); err != nil {
		return res, err
	}

	if target.ParentID != nil {
		parentID := *target.ParentID
		parent, err := store.Threads().GetByID(ctx, parentID)
		switch {
		case models.IsNotFound(err):
			res.StaleViews = append(res.StaleViews, cache.ThreadKey(parentID))
			middleware.Logger.WarnContext(ctx, "deleted comment had no parent", "thread_id", target.ID, "parent_id", parentID)
		case err != nil:
			res.StaleViews = append(res.StaleViews, cache.ThreadKey(parentID))
			return res, err
		default:
			keys, err := ViewKeys(ctx, store.Threads(), parent)
			res.StaleViews = append(res.StaleViews, keys...)
			if err != nil {
				return res, err
			}
			if err := store.Threads().PullChildren(ctx, parentID, []string{target.ID}); err != nil {
				return res, err
			}
		}
	}
	return res, nil
}
