package docstore

import (
	"regexp"
	"strings"

	"threads/internal/repository"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// directoryFilter matches the search term literally and case-insensitively
// against username or name.
func directoryFilter(opts repository.ListOptions) bson.M {
	filter := bson.M{}
	if search := strings.TrimSpace(opts.Search); search != "" {
		pattern := bson.Regex{Pattern: regexp.QuoteMeta(search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"username": pattern},
			bson.M{"name": pattern},
		}
	}
	if opts.ExcludeExternalID != "" {
		filter["external_id"] = bson.M{"$ne": opts.ExcludeExternalID}
	}
	return filter
}

func directoryFind(opts repository.ListOptions) *options.FindOptionsBuilder {
	dir := 1
	if opts.SortDesc {
		dir = -1
	}
	return options.Find().
		SetSort(bson.D{{Key: "created_at", Value: dir}, {Key: "_id", Value: dir}}).
		SetSkip(int64(opts.Offset)).
		SetLimit(int64(opts.Limit))
}
