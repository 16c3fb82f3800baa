package repository

import (
	"context"
	"time"

	"threads/internal/models"

	"gorm.io/gorm"
)

type communityRepository struct {
	db *gorm.DB
}

// NewCommunityRepository returns a GORM-backed CommunityRepository.
func NewCommunityRepository(db *gorm.DB) CommunityRepository {
	return &communityRepository{db: db}
}

func (r *communityRepository) Create(ctx context.Context, community *models.Community) error {
	if community.Threads == nil {
		community.Threads = []string{}
	}
	if community.Members == nil {
		community.Members = []string{}
	}
	if err := r.db.WithContext(ctx).Create(community).Error; err != nil {
		return translateError(err, "Community", community.ExternalID)
	}
	return nil
}

func (r *communityRepository) GetByID(ctx context.Context, id string) (*models.Community, error) {
	var community models.Community
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&community).Error; err != nil {
		return nil, translateError(err, "Community", id)
	}
	return &community, nil
}

func (r *communityRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Community, error) {
	var community models.Community
	if err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&community).Error; err != nil {
		return nil, translateError(err, "Community", externalID)
	}
	return &community, nil
}

func (r *communityRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.Community, error) {
	var out []*models.Community
	for _, batch := range chunk(ids, maxInParams) {
		var communities []*models.Community
		if err := r.db.WithContext(ctx).Where("id IN ?", batch).Find(&communities).Error; err != nil {
			return nil, translateError(err, "Community", batch)
		}
		out = append(out, communities...)
	}
	return out, nil
}

// Update writes the descriptive fields of community. Reference lists are
// only changed through the dedicated push/pull methods.
func (r *communityRepository) Update(ctx context.Context, community *models.Community) error {
	community.UpdatedAt = time.Now().UTC()
	res := r.db.WithContext(ctx).Model(&models.Community{}).
		Where("id = ?", community.ID).
		Updates(map[string]any{
			"name":       community.Name,
			"username":   community.Username,
			"image":      community.Image,
			"bio":        community.Bio,
			"updated_at": community.UpdatedAt,
		})
	if res.Error != nil {
		return translateError(res.Error, "Community", community.ExternalID)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Community", community.ExternalID)
	}
	return nil
}

func (r *communityRepository) Delete(ctx context.Context, id string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Community{}).Error; err != nil {
		return translateError(err, "Community", id)
	}
	return nil
}

func (r *communityRepository) List(ctx context.Context, opts ListOptions) ([]*models.Community, error) {
	var communities []*models.Community
	err := applyDirectory(r.db.WithContext(ctx).Model(&models.Community{}), opts).
		Order(directoryOrder(opts)).
		Limit(opts.Limit).
		Offset(opts.Offset).
		Find(&communities).Error
	if err != nil {
		return nil, translateError(err, "Community", nil)
	}
	return communities, nil
}

func (r *communityRepository) Count(ctx context.Context, opts ListOptions) (int64, error) {
	var total int64
	if err := applyDirectory(r.db.WithContext(ctx).Model(&models.Community{}), opts).Count(&total).Error; err != nil {
		return 0, translateError(err, "Community", nil)
	}
	return total, nil
}

func (r *communityRepository) PushThread(ctx context.Context, communityID, threadID string) error {
	return translateError(mutateRefs(ctx, r.db, "communities", "threads", []string{communityID}, addRef(threadID)), "Community", communityID)
}

func (r *communityRepository) PullThreads(ctx context.Context, communityIDs, threadIDs []string) error {
	if len(threadIDs) == 0 {
		return nil
	}
	return translateError(mutateRefs(ctx, r.db, "communities", "threads", communityIDs, pullRefs(threadIDs)), "Community", communityIDs)
}

func (r *communityRepository) AddMember(ctx context.Context, communityID, userID string) error {
	return translateError(mutateRefs(ctx, r.db, "communities", "members", []string{communityID}, addRef(userID)), "Community", communityID)
}

func (r *communityRepository) RemoveMember(ctx context.Context, communityID, userID string) error {
	return translateError(mutateRefs(ctx, r.db, "communities", "members", []string{communityID}, pullRefs([]string{userID})), "Community", communityID)
}

func (r *communityRepository) Scan(ctx context.Context, afterID string, limit int) ([]*models.Community, error) {
	var communities []*models.Community
	err := r.db.WithContext(ctx).
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Find(&communities).Error
	if err != nil {
		return nil, translateError(err, "Community", afterID)
	}
	return communities, nil
}
