// Package reconcile repairs reference lists left inconsistent by partially
// completed multi-step writes.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"threads/internal/cache"
	"threads/internal/middleware"
	"threads/internal/models"
	"threads/internal/observability"
	"threads/internal/repository"
	"threads/internal/service"
)

const defaultBatchSize = 200

// Repair kinds, used as the metric label.
const (
	KindDanglingChild         = "dangling_child"
	KindUnlinkedComment       = "unlinked_comment"
	KindOrphanComment         = "orphan_comment"
	KindUnlinkedAuthorThread  = "unlinked_author_thread"
	KindUnlinkedCommunityPost = "unlinked_community_thread"
	KindDanglingUserRef       = "dangling_user_ref"
	KindDanglingCommunityRef  = "dangling_community_ref"
)

// Report counts the repairs made by one run.
type Report struct {
	ThreadsScanned     int            `json:"threads_scanned"`
	UsersScanned       int            `json:"users_scanned"`
	CommunitiesScanned int            `json:"communities_scanned"`
	Repairs            map[string]int `json:"repairs"`
	OrphansDeleted     int64          `json:"orphans_deleted"`
	Duration           time.Duration  `json:"duration"`

	stale []string
}

// Total is the number of repairs of any kind.
func (r *Report) Total() int {
	n := 0
	for _, v := range r.Repairs {
		n += v
	}
	return n
}

func (r *Report) add(kind string, n int) {
	if n == 0 {
		return
	}
	r.Repairs[kind] += n
	observability.ReconcileRepairs.WithLabelValues(kind).Add(float64(n))
}

// evict queues cached views that a repair made stale.
func (r *Report) evict(keys ...string) {
	r.stale = append(r.stale, keys...)
}

// ThreadDeleter removes a thread with its subtree.
type ThreadDeleter interface {
	DeleteThread(ctx context.Context, in service.DeleteThreadInput) (int64, error)
}

// Reconciler scans every collection in id order and fixes what it finds.
type Reconciler struct {
	store     repository.Store
	deleter   ThreadDeleter
	batchSize int
}

func New(store repository.Store, deleter ThreadDeleter, batchSize int) *Reconciler {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Reconciler{store: store, deleter: deleter, batchSize: batchSize}
}

// Run performs one full pass. Threads are checked first so that reference
// lists see the post-repair thread set.
func (r *Reconciler) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := &Report{Repairs: make(map[string]int)}
	defer func() { cache.Invalidate(ctx, dedupe(report.stale)...) }()

	if err := r.store.EnsureConnected(ctx); err != nil {
		return nil, fmt.Errorf("reconcile: connect: %w", err)
	}
	if !r.store.Connected() {
		return nil, models.NewConnectionUnavailableError()
	}

	orphans, err := r.checkThreads(ctx, report)
	if err != nil {
		return report, fmt.Errorf("reconcile threads: %w", err)
	}
	for _, id := range orphans {
		n, err := r.deleter.DeleteThread(ctx, service.DeleteThreadInput{ID: id})
		if models.IsNotFound(err) {
			continue
		}
		if err != nil {
			return report, fmt.Errorf("reconcile: delete orphan %s: %w", id, err)
		}
		report.OrphansDeleted += n
		report.add(KindOrphanComment, 1)
	}

	if err := r.checkUsers(ctx, report); err != nil {
		return report, fmt.Errorf("reconcile users: %w", err)
	}
	if err := r.checkCommunities(ctx, report); err != nil {
		return report, fmt.Errorf("reconcile communities: %w", err)
	}

	report.Duration = time.Since(start)
	middleware.Logger.InfoContext(ctx, "reconcile finished",
		"threads", report.ThreadsScanned,
		"users", report.UsersScanned,
		"communities", report.CommunitiesScanned,
		"repairs", report.Total(),
		"orphans_deleted", report.OrphansDeleted,
		"duration", report.Duration,
	)
	return report, nil
}

// checkThreads fixes parent and owner links batch by batch and returns the
// ids of comments whose parent no longer exists.
func (r *Reconciler) checkThreads(ctx context.Context, report *Report) ([]string, error) {
	threads := r.store.Threads()
	var orphans []string

	after := ""
	for {
		batch, err := threads.Scan(ctx, after, r.batchSize)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			return orphans, nil
		}
		after = batch[len(batch)-1].ID
		report.ThreadsScanned += len(batch)

		related, err := r.loadRelated(ctx, batch)
		if err != nil {
			return nil, err
		}

		for _, t := range batch {
			if t.ParentID != nil {
				parent, ok := related.threads[*t.ParentID]
				switch {
				case !ok:
					orphans = append(orphans, t.ID)
				case !contains(parent.Children, t.ID):
					if err := threads.AppendChild(ctx, parent.ID, t.ID); err != nil {
						return nil, err
					}
					parent.Children = append(parent.Children, t.ID)
					report.add(KindUnlinkedComment, 1)
					if err := r.evictThreadViews(ctx, report, parent); err != nil {
						return nil, err
					}
				}
			} else {
				if author, ok := related.users[t.AuthorID]; ok && !contains(author.Threads, t.ID) {
					if err := r.store.Users().PushThread(ctx, author.ID, t.ID); err != nil {
						return nil, err
					}
					author.Threads = append(author.Threads, t.ID)
					report.add(KindUnlinkedAuthorThread, 1)
					report.evict(cache.UserKey(author.ExternalID))
				}
				if t.CommunityID != nil {
					if c, ok := related.communities[*t.CommunityID]; ok && !contains(c.Threads, t.ID) {
						if err := r.store.Communities().PushThread(ctx, c.ID, t.ID); err != nil {
							return nil, err
						}
						c.Threads = append(c.Threads, t.ID)
						report.add(KindUnlinkedCommunityPost, 1)
						report.evict(cache.CommunityKey(c.ExternalID))
					}
				}
			}

			var stale []string
			for _, childID := range t.Children {
				child, ok := related.threads[childID]
				if !ok || child.ParentID == nil || *child.ParentID != t.ID {
					stale = append(stale, childID)
				}
			}
			if len(stale) > 0 {
				if err := threads.PullChildren(ctx, t.ID, stale); err != nil {
					return nil, err
				}
				report.add(KindDanglingChild, len(stale))
				if err := r.evictThreadViews(ctx, report, t); err != nil {
					return nil, err
				}
			}
		}

		if len(batch) < r.batchSize {
			return orphans, nil
		}
	}
}

// evictThreadViews queues every thread view showing t's children.
func (r *Reconciler) evictThreadViews(ctx context.Context, report *Report, t *models.Thread) error {
	keys, err := service.ViewKeys(ctx, r.store.Threads(), t)
	report.evict(keys...)
	return err
}

type related struct {
	threads     map[string]*models.Thread
	users       map[string]*models.User
	communities map[string]*models.Community
}

// loadRelated fetches the parents, children, authors and communities that a
// batch of threads points at.
func (r *Reconciler) loadRelated(ctx context.Context, batch []*models.Thread) (*related, error) {
	var threadIDs, userIDs, communityIDs []string
	for _, t := range batch {
		if t.ParentID != nil {
			threadIDs = append(threadIDs, *t.ParentID)
		} else {
			userIDs = append(userIDs, t.AuthorID)
			if t.CommunityID != nil {
				communityIDs = append(communityIDs, *t.CommunityID)
			}
		}
		threadIDs = append(threadIDs, t.Children...)
	}

	out := &related{
		threads:     make(map[string]*models.Thread),
		users:       make(map[string]*models.User),
		communities: make(map[string]*models.Community),
	}
	threads, err := r.store.Threads().GetByIDs(ctx, dedupe(threadIDs))
	if err != nil {
		return nil, err
	}
	for _, t := range threads {
		out.threads[t.ID] = t
	}
	users, err := r.store.Users().GetByIDs(ctx, dedupe(userIDs))
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		out.users[u.ID] = u
	}
	communities, err := r.store.Communities().GetByIDs(ctx, dedupe(communityIDs))
	if err != nil {
		return nil, err
	}
	for _, c := range communities {
		out.communities[c.ID] = c
	}
	return out, nil
}

func (r *Reconciler) checkUsers(ctx context.Context, report *Report) error {
	users := r.store.Users()
	after := ""
	for {
		batch, err := users.Scan(ctx, after, r.batchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		after = batch[len(batch)-1].ID
		report.UsersScanned += len(batch)

		lists := make(map[string][]string, len(batch))
		byID := make(map[string]*models.User, len(batch))
		for _, u := range batch {
			lists[u.ID] = u.Threads
			byID[u.ID] = u
		}
		missing, err := r.missingThreads(ctx, lists)
		if err != nil {
			return err
		}
		for id, refs := range missing {
			if err := users.PullThreads(ctx, []string{id}, refs); err != nil {
				return err
			}
			report.add(KindDanglingUserRef, len(refs))
			report.evict(cache.UserKey(byID[id].ExternalID))
		}

		if len(batch) < r.batchSize {
			return nil
		}
	}
}

func (r *Reconciler) checkCommunities(ctx context.Context, report *Report) error {
	communities := r.store.Communities()
	after := ""
	for {
		batch, err := communities.Scan(ctx, after, r.batchSize)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			return nil
		}
		after = batch[len(batch)-1].ID
		report.CommunitiesScanned += len(batch)

		lists := make(map[string][]string, len(batch))
		byID := make(map[string]*models.Community, len(batch))
		for _, c := range batch {
			lists[c.ID] = c.Threads
			byID[c.ID] = c
		}
		missing, err := r.missingThreads(ctx, lists)
		if err != nil {
			return err
		}
		for id, refs := range missing {
			if err := communities.PullThreads(ctx, []string{id}, refs); err != nil {
				return err
			}
			report.add(KindDanglingCommunityRef, len(refs))
			report.evict(cache.CommunityKey(byID[id].ExternalID))
		}

		if len(batch) < r.batchSize {
			return nil
		}
	}
}

// missingThreads returns, per owner, the listed thread ids that do not exist.
func (r *Reconciler) missingThreads(ctx context.Context, lists map[string][]string) (map[string][]string, error) {
	var all []string
	for _, refs := range lists {
		all = append(all, refs...)
	}
	found, err := r.store.Threads().GetByIDs(ctx, dedupe(all))
	if err != nil {
		return nil, err
	}
	exists := make(map[string]struct{}, len(found))
	for _, t := range found {
		exists[t.ID] = struct{}{}
	}

	out := make(map[string][]string)
	for owner, refs := range lists {
		for _, id := range refs {
			if _, ok := exists[id]; !ok {
				out[owner] = append(out[owner], id)
			}
		}
	}
	return out, nil
}

func contains(list []string, id string) bool {
	for _, v := range list {
		if v == id {
			return true
		}
	}
	return false
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
