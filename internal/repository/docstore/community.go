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

type communityRepository struct {
	coll *mongo.Collection
}

func (r *communityRepository) Create(ctx context.Context, community *models.Community) error {
	if community.Threads == nil {
		community.Threads = []string{}
	}
	if community.Members == nil {
		community.Members = []string{}
	}
	now := time.Now().UTC()
	if community.CreatedAt.IsZero() {
		community.CreatedAt = now
	}
	community.UpdatedAt = now
	_, err := r.coll.InsertOne(ctx, community)
	return translateError(err, "Community", community.ExternalID)
}

func (r *communityRepository) GetByID(ctx context.Context, id string) (*models.Community, error) {
	var community models.Community
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&community); err != nil {
		return nil, translateError(err, "Community", id)
	}
	return &community, nil
}

func (r *communityRepository) GetByExternalID(ctx context.Context, externalID string) (*models.Community, error) {
	var community models.Community
	if err := r.coll.FindOne(ctx, bson.M{"external_id": externalID}).Decode(&community); err != nil {
		return nil, translateError(err, "Community", externalID)
	}
	return &community, nil
}

func (r *communityRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.Community, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	communities, err := findAll[models.Community](ctx, r.coll, bson.M{"_id": bson.M{"$in": ids}})
	return communities, translateError(err, "Community", ids)
}

func (r *communityRepository) Update(ctx context.Context, community *models.Community) error {
	community.UpdatedAt = time.Now().UTC()
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": community.ID}, bson.M{"$set": bson.M{
		"name":       community.Name,
		"username":   community.Username,
		"image":      community.Image,
		"bio":        community.Bio,
		"updated_at": community.UpdatedAt,
	}})
	if err != nil {
		return translateError(err, "Community", community.ExternalID)
	}
	if res.MatchedCount == 0 {
		return models.NewNotFoundError("Community", community.ExternalID)
	}
	return nil
}

func (r *communityRepository) Delete(ctx context.Context, id string) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	return translateError(err, "Community", id)
}

func (r *communityRepository) List(ctx context.Context, opts repository.ListOptions) ([]*models.Community, error) {
	communities, err := findAll[models.Community](ctx, r.coll, directoryFilter(opts), directoryFind(opts))
	return communities, translateError(err, "Community", nil)
}

func (r *communityRepository) Count(ctx context.Context, opts repository.ListOptions) (int64, error) {
	total, err := r.coll.CountDocuments(ctx, directoryFilter(opts))
	return total, translateError(err, "Community", nil)
}

func (r *communityRepository) PushThread(ctx context.Context, communityID, threadID string) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": communityID}, bson.M{"$addToSet": bson.M{"threads": threadID}})
	return translateError(err, "Community", communityID)
}

func (r *communityRepository) PullThreads(ctx context.Context, communityIDs, threadIDs []string) error {
	if len(communityIDs) == 0 || len(threadIDs) == 0 {
		return nil
	}
	_, err := r.coll.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": communityIDs}},
		bson.M{"$pull": bson.M{"threads": bson.M{"$in": threadIDs}}},
	)
	return translateError(err, "Community", communityIDs)
}

func (r *communityRepository) AddMember(ctx context.Context, communityID, userID string) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": communityID}, bson.M{"$addToSet": bson.M{"members": userID}})
	return translateError(err, "Community", communityID)
}

func (r *communityRepository) RemoveMember(ctx context.Context, communityID, userID string) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": communityID}, bson.M{"$pull": bson.M{"members": userID}})
	return translateError(err, "Community", communityID)
}

func (r *communityRepository) Scan(ctx context.Context, afterID string, limit int) ([]*models.Community, error) {
	communities, err := findAll[models.Community](ctx, r.coll,
		bson.M{"_id": bson.M{"$gt": afterID}},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}).SetLimit(int64(limit)),
	)
	return communities, translateError(err, "Community", afterID)
}
