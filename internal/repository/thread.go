package repository

import (
	"context"

	"threads/internal/models"

	"gorm.io/gorm"
)

type threadRepository struct {
	db *gorm.DB
}

// NewThreadRepository returns a GORM-backed ThreadRepository.
func NewThreadRepository(db *gorm.DB) ThreadRepository {
	return &threadRepository{db: db}
}

func (r *threadRepository) Create(ctx context.Context, thread *models.Thread) error {
	if thread.Children == nil {
		thread.Children = []string{}
	}
	if err := r.db.WithContext(ctx).Create(thread).Error; err != nil {
		return translateError(err, "Thread", thread.ID)
	}
	return nil
}

func (r *threadRepository) GetByID(ctx context.Context, id string) (*models.Thread, error) {
	var thread models.Thread
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&thread).Error; err != nil {
		return nil, translateError(err, "Thread", id)
	}
	return &thread, nil
}

func (r *threadRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.Thread, error) {
	var out []*models.Thread
	for _, batch := range chunk(ids, maxInParams) {
		var threads []*models.Thread
		if err := r.db.WithContext(ctx).Where("id IN ?", batch).Find(&threads).Error; err != nil {
			return nil, translateError(err, "Thread", batch)
		}
		out = append(out, threads...)
	}
	return out, nil
}

func (r *threadRepository) ListByParents(ctx context.Context, parentIDs []string) ([]*models.Thread, error) {
	var out []*models.Thread
	for _, batch := range chunk(parentIDs, maxInParams) {
		var threads []*models.Thread
		err := r.db.WithContext(ctx).
			Where("parent_id IN ?", batch).
			Order("created_at ASC, id ASC").
			Find(&threads).Error
		if err != nil {
			return nil, translateError(err, "Thread", batch)
		}
		out = append(out, threads...)
	}
	return out, nil
}

func (r *threadRepository) ListByAuthor(ctx context.Context, authorID string) ([]*models.Thread, error) {
	var threads []*models.Thread
	err := r.db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at DESC, id DESC").
		Find(&threads).Error
	if err != nil {
		return nil, translateError(err, "Thread", authorID)
	}
	return threads, nil
}

func (r *threadRepository) ListByCommunity(ctx context.Context, communityID string) ([]*models.Thread, error) {
	var threads []*models.Thread
	err := r.db.WithContext(ctx).
		Where("community_id = ?", communityID).
		Order("created_at DESC, id DESC").
		Find(&threads).Error
	if err != nil {
		return nil, translateError(err, "Thread", communityID)
	}
	return threads, nil
}

func (r *threadRepository) ListTopLevel(ctx context.Context, limit, offset int) ([]*models.Thread, error) {
	var threads []*models.Thread
	err := r.db.WithContext(ctx).
		Where("parent_id IS NULL").
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&threads).Error
	if err != nil {
		return nil, translateError(err, "Thread", nil)
	}
	return threads, nil
}

func (r *threadRepository) CountTopLevel(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Thread{}).Where("parent_id IS NULL").Count(&total).Error; err != nil {
		return 0, translateError(err, "Thread", nil)
	}
	return total, nil
}

func (r *threadRepository) ListRepliesExcludingAuthor(ctx context.Context, ids []string, authorID string) ([]*models.Thread, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []*models.Thread
	for _, batch := range chunk(ids, maxInParams) {
		var threads []*models.Thread
		err := r.db.WithContext(ctx).
			Where("id IN ? AND author_id <> ?", batch, authorID).
			Find(&threads).Error
		if err != nil {
			return nil, translateError(err, "Thread", authorID)
		}
		out = append(out, threads...)
	}
	SortNewestFirst(out)
	return out, nil
}

func (r *threadRepository) AppendChild(ctx context.Context, parentID, childID string) error {
	return translateError(mutateRefs(ctx, r.db, "threads", "children", []string{parentID}, addRef(childID)), "Thread", parentID)
}

func (r *threadRepository) PullChildren(ctx context.Context, parentID string, childIDs []string) error {
	if len(childIDs) == 0 {
		return nil
	}
	return translateError(mutateRefs(ctx, r.db, "threads", "children", []string{parentID}, pullRefs(childIDs)), "Thread", parentID)
}

func (r *threadRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	var deleted int64
	for _, batch := range chunk(ids, maxInParams) {
		res := r.db.WithContext(ctx).Where("id IN ?", batch).Delete(&models.Thread{})
		if res.Error != nil {
			return deleted, translateError(res.Error, "Thread", batch)
		}
		deleted += res.RowsAffected
	}
	return deleted, nil
}

func (r *threadRepository) Scan(ctx context.Context, afterID string, limit int) ([]*models.Thread, error) {
	var threads []*models.Thread
	err := r.db.WithContext(ctx).
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Find(&threads).Error
	if err != nil {
		return nil, translateError(err, "Thread", afterID)
	}
	return threads, nil
}
