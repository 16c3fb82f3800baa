package repository

import (
	"context"
	"time"

	"threads/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a GORM-backed UserRepository.
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		return nil, translateError(err, "User", id)
	}
	return &user, nil
}

func (r *userRepository) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&user).Error; err != nil {
		return nil, translateError(err, "User", externalID)
	}
	return &user, nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	var out []*models.User
	for _, batch := range chunk(ids, maxInParams) {
		var users []*models.User
		if err := r.db.WithContext(ctx).Where("id IN ?", batch).Find(&users).Error; err != nil {
			return nil, translateError(err, "User", batch)
		}
		out = append(out, users...)
	}
	return out, nil
}

// Upsert inserts user or, when its external id already exists, overwrites the
// profile fields in place. Reference lists and CreatedAt of an existing row
// are left untouched. The stored row is returned.
func (r *userRepository) Upsert(ctx context.Context, user *models.User) (*models.User, error) {
	if user.Threads == nil {
		user.Threads = []string{}
	}
	if user.Communities == nil {
		user.Communities = []string{}
	}
	user.UpdatedAt = time.Now().UTC()

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"username", "name", "bio", "image", "onboarded", "updated_at"}),
	}).Create(user).Error
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, &models.AppError{Code: models.CodeConflict, Message: "Username is already taken", Err: err}
		}
		return nil, translateError(err, "User", user.ExternalID)
	}
	return r.GetByExternalID(ctx, user.ExternalID)
}

func (r *userRepository) List(ctx context.Context, opts ListOptions) ([]*models.User, error) {
	var users []*models.User
	err := applyDirectory(r.db.WithContext(ctx).Model(&models.User{}), opts).
		Order(directoryOrder(opts)).
		Limit(opts.Limit).
		Offset(opts.Offset).
		Find(&users).Error
	if err != nil {
		return nil, translateError(err, "User", nil)
	}
	return users, nil
}

func (r *userRepository) Count(ctx context.Context, opts ListOptions) (int64, error) {
	var total int64
	if err := applyDirectory(r.db.WithContext(ctx).Model(&models.User{}), opts).Count(&total).Error; err != nil {
		return 0, translateError(err, "User", nil)
	}
	return total, nil
}

func (r *userRepository) PushThread(ctx context.Context, userID, threadID string) error {
	return translateError(mutateRefs(ctx, r.db, "users", "threads", []string{userID}, addRef(threadID)), "User", userID)
}

func (r *userRepository) PullThreads(ctx context.Context, userIDs, threadIDs []string) error {
	if len(threadIDs) == 0 {
		return nil
	}
	return translateError(mutateRefs(ctx, r.db, "users", "threads", userIDs, pullRefs(threadIDs)), "User", userIDs)
}

func (r *userRepository) AddCommunity(ctx context.Context, userID, communityID string) error {
	return translateError(mutateRefs(ctx, r.db, "users", "communities", []string{userID}, addRef(communityID)), "User", userID)
}

func (r *userRepository) RemoveCommunity(ctx context.Context, userIDs []string, communityID string) error {
	return translateError(mutateRefs(ctx, r.db, "users", "communities", userIDs, pullRefs([]string{communityID})), "User", userIDs)
}

func (r *userRepository) Scan(ctx context.Context, afterID string, limit int) ([]*models.User, error) {
	var users []*models.User
	err := r.db.WithContext(ctx).
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, translateError(err, "User", afterID)
	}
	return users, nil
}
