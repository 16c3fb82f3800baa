package docstore

import (
	"context"

	"threads/internal/models"
	"threads/internal/repository"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var newestFirst = bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}

type threadRepository struct {
	coll *mongo.Collection
}

func (r *threadRepository) Create(ctx context.Context, thread *models.Thread) error {
	if thread.Children == nil {
		thread.Children = []string{}
	}
	_, err := r.coll.InsertOne(ctx, thread)
	return translateError(err, "Thread", thread.ID)
}

func (r *threadRepository) GetByID(ctx context.Context, id string) (*models.Thread, error) {
	var thread models.Thread
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&thread); err != nil {
		return nil, translateError(err, "Thread", id)
	}
	return &thread, nil
}

func (r *threadRepository) GetByIDs(ctx context.Context, ids []string) ([]*models.Thread, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	threads, err := findAll[models.Thread](ctx, r.coll, bson.M{"_id": bson.M{"$in": ids}})
	return threads, translateError(err, "Thread", ids)
}

func (r *threadRepository) ListByParents(ctx context.Context, parentIDs []string) ([]*models.Thread, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	threads, err := findAll[models.Thread](ctx, r.coll,
		bson.M{"parent_id": bson.M{"$in": parentIDs}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}),
	)
	return threads, translateError(err, "Thread", parentIDs)
}

func (r *threadRepository) ListByAuthor(ctx context.Context, authorID string) ([]*models.Thread, error) {
	threads, err := findAll[models.Thread](ctx, r.coll, bson.M{"author_id": authorID}, options.Find().SetSort(newestFirst))
	return threads, translateError(err, "Thread", authorID)
}

func (r *threadRepository) ListByCommunity(ctx context.Context, communityID string) ([]*models.Thread, error) {
	threads, err := findAll[models.Thread](ctx, r.coll, bson.M{"community_id": communityID}, options.Find().SetSort(newestFirst))
	return threads, translateError(err, "Thread", communityID)
}

func (r *threadRepository) ListTopLevel(ctx context.Context, limit, offset int) ([]*models.Thread, error) {
	threads, err := findAll[models.Thread](ctx, r.coll,
		bson.M{"parent_id": nil},
		options.Find().SetSort(newestFirst).SetSkip(int64(offset)).SetLimit(int64(limit)),
	)
	return threads, translateError(err, "Thread", nil)
}

func (r *threadRepository) CountTopLevel(ctx context.Context) (int64, error) {
	total, err := r.coll.CountDocuments(ctx, bson.M{"parent_id": nil})
	return total, translateError(err, "Thread", nil)
}

func (r *threadRepository) ListRepliesExcludingAuthor(ctx context.Context, ids []string, authorID string) ([]*models.Thread, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	threads, err := findAll[models.Thread](ctx, r.coll,
		bson.M{"_id": bson.M{"$in": ids}, "author_id": bson.M{"$ne": authorID}},
		options.Find().SetSort(newestFirst),
	)
	if err != nil {
		return nil, translateError(err, "Thread", authorID)
	}
	repository.SortNewestFirst(threads)
	return threads, nil
}

func (r *threadRepository) AppendChild(ctx context.Context, parentID, childID string) error {
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": parentID}, bson.M{"$addToSet": bson.M{"children": childID}})
	return translateError(err, "Thread", parentID)
}

func (r *threadRepository) PullChildren(ctx context.Context, parentID string, childIDs []string) error {
	if len(childIDs) == 0 {
		return nil
	}
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": parentID}, bson.M{"$pull": bson.M{"children": bson.M{"$in": childIDs}}})
	return translateError(err, "Thread", parentID)
}

func (r *threadRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, translateError(err, "Thread", ids)
	}
	return res.DeletedCount, nil
}

func (r *threadRepository) Scan(ctx context.Context, afterID string, limit int) ([]*models.Thread, error) {
	threads, err := findAll[models.Thread](ctx, r.coll,
		bson.M{"_id": bson.M{"$gt": afterID}},
		options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}).SetLimit(int64(limit)),
	)
	return threads, translateError(err, "Thread", afterID)
}
