package docstore

import (
	"context"
	"time"

	"threads/internal/models"
	"threads/internal/repository"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type userRepository struct {
	coll *mongo.Collection
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, translateError(err, "User", id)
	}
	return &user, nil
}

func (r *userRepository) GetByExternalID(ctx context.Context, externalID string) (*models.User, error) {
	var user models.User
	if err := r.coll.FindOne(ctx, bson.M{"external_id": externalID}).Decode(&user); err != nil {
		return nil, translateError(err, "User", externalID)
	}
	return &user, nil
}

func (r *userRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	users, err := findAll[models.User](ctx, r.coll, bson.M{"_id": bson.M{"$in": ids}})
	return users, translateError(err, "User", ids)
}

func (r *userRepository) Upsert(ctx context.Context, user *models.User) (*models.User, error) {
	now := time.Now().UTC()
	createdAt := user.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}
	update := bson.M{
		"$set": bson.M{
			"username":   user.Username,
			"name":       user.Name,
			"bio":        user.Bio,
			"image":      user.Image,
			"onboarded":  user.Onboarded,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"_id":         user.ID,
			"threads":     []string{},
			"communities": []string{},
			"created_at":  createdAt,
		},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored models.User
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"external_id": user.ExternalID}, update, opts).Decode(&stored)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, &models.AppError{Code: models.CodeConflict, Message: "Username is already taken", Err: err}
		}
		return nil, translateError(err, "User", user.ExternalID)
	}
	return &stored, nil
}

func (r *userRepository) List(ctx context.Context, opts repository.ListOptions) ([]*models.User, error) {
	users, err := findAll[models.User](ctx, r.coll, directoryFilter(opts), directoryFind(opts))
	return users, translateError(err, "User", nil)
}

func (r *userRepository) Count(ctx context.Context, opts repository.ListOptions) (int64, error) {
	total, err := r.coll.CountDocuments(ctx, directoryFilter(opts))
	return total, translateError(err, "User", nil)
}

func (r *userRepository) PushThread(ctx context.Context, userID, threadID string) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$addToSet": bson.M{"threads": threadID}})
	return translateError(err, "User", userID)
}

func (r *userRepository) PullThreads(ctx context.Context, userIDs, threadIDs []string) error {
	if len(userIDs) == 0 || len(threadIDs) == 0 {
		return nil
	}
	_, err := r.coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": userIDs}},
		bson.M{"$pull": bson.M{"threads": bson.M{"$in": threadIDs}}},
	)
	return translateError(err, "User", userIDs)
}

func (r *userRepository) AddCommunity(ctx context.Context, userID, communityID string) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$addToSet": bson.M{"communities": communityID}})
	return translateError(err, "User", userID)
}

func (r *userRepository) RemoveCommunity(ctx context.Context, userIDs []string, communityID string) error {
	if len(userIDs) == 0 {
		return nil
	}
	_, err := r.coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": userIDs}},
		bson.M{"$pull": bson.M{"communities": communityID}},
	)
	return translateError(err, "User", userIDs)
}

func (r *userRepository) Scan(ctx context.Context, afterID string, limit int) ([]*models.User, error) {
	users, err := findAll[models.User](ctx, r.coll,
		bson.M{"_id": bson.M{"$gt": afterID}},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}).SetLimit(int64(limit)),
	)
	return users, translateError(err, "User", afterID)
}
