package service

import (
	"context"

	"threads/internal/models"
	"threads/internal/repository"
)

// populator expands thread references with batched lookups. Records are
// fetched once per id across every load call.
type populator struct {
	store       repository.Store
	users       map[string]*models.User
	communities map[string]*models.Community
}

func newPopulator(store repository.Store) *populator {
	return &populator{
		store:       store,
		users:       make(map[string]*models.User),
		communities: make(map[string]*models.Community),
	}
}

func (p *populator) load(ctx context.Context, threads []*models.Thread) error {
	var userIDs, communityIDs []string
	seen := make(map[string]struct{})
	for _, t := range threads {
		if _, ok := p.users[t.AuthorID]; !ok {
			if _, dup := seen[t.AuthorID]; !dup {
				seen[t.AuthorID] = struct{}{}
				userIDs = append(userIDs, t.AuthorID)
			}
		}
		if t.CommunityID != nil {
			if _, ok := p.communities[*t.CommunityID]; !ok {
				if _, dup := seen[*t.CommunityID]; !dup {
					seen[*t.CommunityID] = struct{}{}
					communityIDs = append(communityIDs, *t.CommunityID)
				}
			}
		}
	}

	if len(userIDs) > 0 {
		users, err := p.store.Users().GetByIDs(ctx, userIDs)
		if err != nil {
			return err
		}
		for _, u := range users {
			p.users[u.ID] = u
		}
	}
	if len(communityIDs) > 0 {
		communities, err := p.store.Communities().GetByIDs(ctx, communityIDs)
		if err != nil {
			return err
		}
		for _, c := range communities {
			p.communities[c.ID] = c
		}
	}
	return nil
}

func (p *populator) node(t *models.Thread) *models.ThreadNode {
	n := &models.ThreadNode{
		ID:         t.ID,
		Text:       t.Text,
		ParentID:   t.ParentID,
		Author:     models.NewAuthorSummary(p.users[t.AuthorID]),
		Children:   []*models.ThreadNode{},
		ReplyCount: len(t.Children),
		CreatedAt:  t.CreatedAt,
	}
	if t.CommunityID != nil {
		n.Community = models.NewCommunitySummary(p.communities[*t.CommunityID])
	}
	return n
}

// expand returns roots as nodes with depth generations of replies attached,
// each generation fetched with one query by parent id.
func (p *populator) expand(ctx context.Context, roots []*models.Thread, depth int) ([]*models.ThreadNode, error) {
	levels := [][]*models.Thread{roots}
	for d := 0; d < depth; d++ {
		prev := levels[len(levels)-1]
		if len(prev) == 0 {
			break
		}
		ids := make([]string, len(prev))
		for i, t := range prev {
			ids[i] = t.ID
		}
		next, err := p.store.Threads().ListByParents(ctx, ids)
		if err != nil {
			return nil, err
		}
		levels = append(levels, next)
	}

	var all []*models.Thread
	for _, level := range levels {
		all = append(all, level...)
	}
	if err := p.load(ctx, all); err != nil {
		return nil, err
	}

	nodes := make(map[string]*models.ThreadNode, len(all))
	for _, t := range all {
		nodes[t.ID] = p.node(t)
	}
	for _, level := range levels[1:] {
		for _, t := range level {
			if parent, ok := nodes[*t.ParentID]; ok {
				parent.Children = append(parent.Children, nodes[t.ID])
			}
		}
	}

	out := make([]*models.ThreadNode, len(roots))
	for i, t := range roots {
		out[i] = nodes[t.ID]
	}
	return out, nil
}

// orderByIDs returns the records named by ids in that order, skipping ids
// that were not found.
func orderByIDs[T any](ids []string, records []*T, idOf func(*T) string) []*T {
	byID := make(map[string]*T, len(records))
	for _, r := range records {
		byID[idOf(r)] = r
	}
	out := make([]*T, 0, len(ids))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out = append(out, r)
		}
	}
	return out
}

func threadID(t *models.Thread) string       { return t.ID }
func userID(u *models.User) string           { return u.ID }
func communityID(c *models.Community) string { return c.ID }
