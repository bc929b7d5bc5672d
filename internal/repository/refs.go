package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoRefs is the MongoDB-backed reference maintainer. It works directly on
// collections by name so one implementation serves every entity.
type MongoRefs struct {
	db *mongo.Database
}

// NewMongoRefs creates a maintainer on the given database.
func NewMongoRefs(db *mongo.Database) *MongoRefs {
	return &MongoRefs{db: db}
}

// AddRef adds sourceID to the named array field on every target document,
// with $addToSet semantics: documents already carrying the reference are left
// untouched and do not count as modified.
func (r *MongoRefs) AddRef(ctx context.Context, model Model, targetIDs []primitive.ObjectID, field string, sourceID primitive.ObjectID) (int64, error) {
	if len(targetIDs) == 0 {
		return 0, nil
	}
	res, err := r.db.Collection(string(model)).UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": targetIDs}},
		bson.M{"$addToSet": bson.M{field: sourceID}},
	)
	if err != nil {
		return 0, wrapWriteError(err)
	}
	return res.ModifiedCount, nil
}

// RemoveRef removes sourceID from the named array field on every target
// document; absent references are a no-op.
func (r *MongoRefs) RemoveRef(ctx context.Context, model Model, targetIDs []primitive.ObjectID, field string, sourceID primitive.ObjectID) (int64, error) {
	if len(targetIDs) == 0 {
		return 0, nil
	}
	res, err := r.db.Collection(string(model)).UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": targetIDs}},
		bson.M{"$pull": bson.M{field: sourceID}},
	)
	if err != nil {
		return 0, wrapWriteError(err)
	}
	return res.ModifiedCount, nil
}

// RemoveRefAll removes sourceID from the named array field on every document
// of the model that carries it.
func (r *MongoRefs) RemoveRefAll(ctx context.Context, model Model, field string, sourceID primitive.ObjectID) (int64, error) {
	res, err := r.db.Collection(string(model)).UpdateMany(ctx,
		bson.M{field: sourceID},
		bson.M{"$pull": bson.M{field: sourceID}},
	)
	if err != nil {
		return 0, wrapWriteError(err)
	}
	return res.ModifiedCount, nil
}

// ReapOrphans deletes every document of the model whose named array fields
// are all simultaneously empty or missing. Running it twice in a row deletes
// nothing on the second pass.
func (r *MongoRefs) ReapOrphans(ctx context.Context, model Model, fields ...string) (int64, error) {
	if len(fields) == 0 {
		return 0, nil
	}
	conds := make(bson.A, 0, len(fields))
	for _, f := range fields {
		conds = append(conds, bson.M{"$or": bson.A{
			bson.M{f: bson.M{"$exists": false}},
			bson.M{f: bson.M{"$size": 0}},
		}})
	}
	res, err := r.db.Collection(string(model)).DeleteMany(ctx, bson.M{"$and": conds})
	if err != nil {
		return 0, wrapWriteError(err)
	}
	return res.DeletedCount, nil
}
