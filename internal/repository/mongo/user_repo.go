package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/novak29/thrive/internal/domain"
	"github.com/novak29/thrive/internal/repository"
)

// secretFields are excluded from every read unless the caller asks for
// credentials explicitly.
var secretFields = bson.D{
	{Key: "password_hash", Value: 0},
	{Key: "email_verification_token", Value: 0},
	{Key: "password_reset_token", Value: 0},
	{Key: "password_reset_expires", Value: 0},
}

type UserRepo struct {
	coll *mongo.Collection
}

func NewUserRepo(db *mongo.Database) *UserRepo {
	return &UserRepo{coll: db.Collection("users")}
}

// EnsureIndexes creates the unique email index plus the secondary indexes
// used by directory queries. Safe to call on every startup.
func (r *UserRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "profile.full_name", Value: 1}}},
		{Keys: bson.D{{Key: "membership_plan", Value: 1}}},
	})
	return err
}

func (r *UserRepo) Create(ctx context.Context, user *domain.User) error {
	_, err := r.coll.InsertOne(ctx, user)
	if mongo.IsDuplicateKeyError(err) {
		return repository.ErrDuplicateEmail
	}
	return err
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return r.findOne(ctx, bson.D{{Key: "_id", Value: id}}, false)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string, includeSecret bool) (*domain.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}}, includeSecret)
}

func (r *UserRepo) findOne(ctx context.Context, filter bson.D, includeSecret bool) (*domain.User, error) {
	opts := options.FindOne()
	if !includeSecret {
		opts.SetProjection(secretFields)
	}

	var u domain.User
	err := r.coll.FindOne(ctx, filter, opts).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) UpdateProfile(ctx context.Context, id string, patch domain.ProfilePatch) (*domain.User, error) {
	set := profileSet(patch)
	set["updated_at"] = time.Now().UTC()

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(secretFields)

	var u domain.User
	err := r.coll.FindOneAndUpdate(ctx,
		bson.D{{Key: "_id", Value: id}},
		bson.D{{Key: "$set", Value: set}},
		opts,
	).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	_, err := r.coll.UpdateByID(ctx, id, bson.D{{Key: "$set", Value: bson.M{
		"last_login": at,
		"updated_at": at,
	}}})
	return err
}

// profileSet maps the non-nil patch fields onto their stored paths. Email
// and password_hash have no patchable path through here.
func profileSet(patch domain.ProfilePatch) bson.M {
	set := bson.M{}
	if patch.FullName != nil {
		set["profile.full_name"] = *patch.FullName
	}
	if patch.AvatarURL != nil {
		set["profile.avatar_url"] = *patch.AvatarURL
	}
	if patch.Phone != nil {
		set["profile.phone"] = *patch.Phone
	}
	if patch.DateOfBirth != nil {
		set["profile.date_of_birth"] = *patch.DateOfBirth
	}
	if patch.Location != nil {
		set["profile.location"] = *patch.Location
	}
	if patch.Bio != nil {
		set["profile.bio"] = *patch.Bio
	}
	if patch.Interests != nil {
		set["preferences.interests"] = *patch.Interests
	}
	return set
}
