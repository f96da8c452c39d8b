package mongo

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sirpyerre/secrets/internal/core/domain"
)

const (
	usersCollection = "users"

	usernameIndex    = "username_unique"
	federatedIDIndex = "federated_id_unique"
)

type UserRepository struct {
	coll *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{coll: db.Collection(usersCollection)}
}

// userDocument is the stored shape of a user. Optional fields are omitted
// when empty so the partial unique indexes only cover documents that carry them.
type userDocument struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username,omitempty"`
	PasswordHash string             `bson:"password_hash,omitempty"`
	FederatedID  string             `bson:"federated_id,omitempty"`
	Secret       string             `bson:"secret,omitempty"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func toDocument(u *domain.User) userDocument {
	return userDocument{
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		FederatedID:  u.FederatedID,
		Secret:       u.Secret,
		CreatedAt:    u.CreatedAt.UTC(),
		UpdatedAt:    u.UpdatedAt.UTC(),
	}
}

func (d userDocument) toDomain() *domain.User {
	return &domain.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		PasswordHash: d.PasswordHash,
		FederatedID:  d.FederatedID,
		Secret:       d.Secret,
		CreatedAt:    d.CreatedAt.UTC(),
		UpdatedAt:    d.UpdatedAt.UTC(),
	}
}

// EnsureIndexes creates the uniqueness constraints the store relies on to
// reject racing duplicate registrations.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if _, err := r.coll.Indexes().CreateMany(ctx, userIndexes()); err != nil {
		return storeErr("ensure user indexes", err)
	}
	return nil
}

// userIndexes are partial so documents without a username (federated) or
// without a federated_id (local) never collide on a missing value.
func userIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "username", Value: 1}},
			Options: options.Index().
				SetName(usernameIndex).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"username": bson.M{"$exists": true}}),
		},
		{
			Keys: bson.D{{Key: "federated_id", Value: 1}},
			Options: options.Index().
				SetName(federatedIDIndex).
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"federated_id": bson.M{"$exists": true}}),
		},
		{Keys: bson.D{{Key: "secret", Value: 1}}},
	}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if err := user.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toDocument(user)
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, duplicateErr(err, doc)
		}
		return nil, storeErr("insert user", err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	if username == "" {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepository) FindByFederatedID(ctx context.Context, federatedID string) (*domain.User, error) {
	if federatedID == "" {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"federated_id": federatedID})
}

func (r *UserRepository) SetSecret(ctx context.Context, id, secret string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{"secret": secret, "updated_at": time.Now().UTC()}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return storeErr("set secret", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) ListWithSecret(ctx context.Context) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: 1}}).
		SetProjection(bson.M{"password_hash": 0})

	cur, err := r.coll.Find(ctx, withSecretFilter(), opts)
	if err != nil {
		return nil, storeErr("list secrets", err)
	}
	defer cur.Close(ctx)

	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, storeErr("decode secrets", err)
	}

	users := make([]*domain.User, 0, len(docs))
	for _, d := range docs {
		users = append(users, d.toDomain())
	}
	return users, nil
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDocument
	if err := r.coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, storeErr("find user", err)
	}
	return doc.toDomain(), nil
}

func withSecretFilter() bson.M {
	return bson.M{"secret": bson.M{"$exists": true, "$nin": bson.A{nil, ""}}}
}

// duplicateErr maps a duplicate key error to the sentinel of the violated index.
func duplicateErr(err error, doc userDocument) error {
	msg := err.Error()
	switch {
	case strings.Contains(msg, federatedIDIndex):
		return domain.ErrDuplicateFederatedID
	case strings.Contains(msg, usernameIndex):
		return domain.ErrDuplicateUsername
	case doc.FederatedID != "":
		return domain.ErrDuplicateFederatedID
	default:
		return domain.ErrDuplicateUsername
	}
}
