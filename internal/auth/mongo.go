package auth

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/arsipku/arsipku/internal/apperr"
)

// MongoRepository implements Repository on a users collection. Unique indexes
// on username and email are created by database.EnsureIndexes.
type MongoRepository struct {
	col *mongo.Collection
}

func NewMongoRepository(col *mongo.Collection) *MongoRepository {
	return &MongoRepository{col: col}
}

func (r *MongoRepository) Insert(ctx context.Context, u *User) error {
	if _, err := r.col.InsertOne(ctx, u); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.Conflict("username or email already exists")
		}
		return apperr.Storage("insert user", err)
	}
	return nil
}

func (r *MongoRepository) GetByID(ctx context.Context, id string) (*User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoRepository) GetByLogin(ctx context.Context, usernameOrEmail string) (*User, error) {
	return r.findOne(ctx, bson.M{"$or": bson.A{
		bson.M{"username": usernameOrEmail},
		bson.M{"email": usernameOrEmail},
	}})
}

func (r *MongoRepository) findOne(ctx context.Context, filter bson.M) (*User, error) {
	var u User
	if err := r.col.FindOne(ctx, filter).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, apperr.Storage("find user", err)
	}
	return &u, nil
}

func (r *MongoRepository) RecordLoginFailure(ctx context.Context, id string, at time.Time) (int, error) {
	update := bson.M{
		"$inc": bson.M{"failedLogins": 1},
		"$set": bson.M{"lastFailedLogin": at, "updatedAt": at},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var u User
	if err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, apperr.NotFound("user not found")
		}
		return 0, apperr.Storage("record login failure", err)
	}
	return u.FailedLogins, nil
}

func (r *MongoRepository) RecordLoginSuccess(ctx context.Context, id string, s Session, maxSessions int) error {
	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"failedLogins": 0,
			"lastLogin":    now,
			"lastLoginIp":  s.SourceIP,
			"updatedAt":    now,
		},
		"$unset": bson.M{"lastFailedLogin": 1},
		"$push": bson.M{
			"sessions": bson.M{
				"$each":  bson.A{s},
				"$slice": -maxSessions,
			},
		},
	}
	return r.updateOne(ctx, id, update, "record login success")
}

func (r *MongoRepository) RemoveSession(ctx context.Context, id, token string) error {
	update := bson.M{"$pull": bson.M{"sessions": bson.M{"token": token}}}
	return r.updateOne(ctx, id, update, "remove session")
}

func (r *MongoRepository) SetPassword(ctx context.Context, id, hash, salt string, mustChange bool) error {
	now := time.Now().UTC()
	update := bson.M{"$set": bson.M{
		"passwordHash":       hash,
		"passwordSalt":       salt,
		"passwordChangedAt":  now,
		"mustChangePassword": mustChange,
		"sessions":           bson.A{},
		"updatedAt":          now,
	}}
	return r.updateOne(ctx, id, update, "set password")
}

func (r *MongoRepository) SetStatus(ctx context.Context, id string, st Status) error {
	update := bson.M{"$set": bson.M{"status": st, "updatedAt": time.Now().UTC()}}
	return r.updateOne(ctx, id, update, "set status")
}

func (r *MongoRepository) SetTOTPEnabled(ctx context.Context, id string, enabled bool) error {
	update := bson.M{"$set": bson.M{"totpEnabled": enabled, "updatedAt": time.Now().UTC()}}
	return r.updateOne(ctx, id, update, "set totp enabled")
}

func (r *MongoRepository) SetRole(ctx context.Context, id string, role Role, perms []Permission) error {
	update := bson.M{"$set": bson.M{
		"role":        role,
		"permissions": perms,
		"updatedAt":   time.Now().UTC(),
	}}
	return r.updateOne(ctx, id, update, "set role")
}

func (r *MongoRepository) GrantPermission(ctx context.Context, id string, p Permission) error {
	update := bson.M{
		"$addToSet": bson.M{"permissions": p},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	}
	return r.updateOne(ctx, id, update, "grant permission")
}

func (r *MongoRepository) SetPreferences(ctx context.Context, id string, prefs Preferences) error {
	update := bson.M{"$set": bson.M{"preferences": prefs, "updatedAt": time.Now().UTC()}}
	return r.updateOne(ctx, id, update, "set preferences")
}

func (r *MongoRepository) List(ctx context.Context, skip, limit int64) ([]*User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(skip).
		SetLimit(limit)
	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, apperr.Storage("list users", err)
	}
	defer cur.Close(ctx)
	out := []*User{}
	for cur.Next(ctx) {
		var u User
		if err := cur.Decode(&u); err != nil {
			return nil, apperr.Storage("decode user", err)
		}
		out = append(out, &u)
	}
	return out, cur.Err()
}

func (r *MongoRepository) updateOne(ctx context.Context, id string, update bson.M, op string) error {
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return apperr.Storage(op, err)
	}
	if res.MatchedCount == 0 {
		return apperr.NotFound("user not found")
	}
	return nil
}
