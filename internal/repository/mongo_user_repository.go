package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"useraccounts/internal/models"
)

const usersCollection = "users"

type avatarDocument struct {
	PublicID string `bson:"public_id"`
	URL      string `bson:"url"`
}

type userDocument struct {
	ID        bson.ObjectID   `bson:"_id,omitempty"`
	Name      string          `bson:"name"`
	Email     string          `bson:"email"`
	Password  string          `bson:"password,omitempty"`
	Avatar    *avatarDocument `bson:"avatar,omitempty"`
	Role      string          `bson:"role"`
	CreatedAt time.Time       `bson:"createdAt"`
	UpdatedAt time.Time       `bson:"updatedAt"`
}

func (d userDocument) toModel() models.User {
	user := models.User{
		ID:        d.ID.Hex(),
		Name:      d.Name,
		Email:     d.Email,
		Role:      models.UserRole(d.Role),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if d.Password != "" {
		user.PasswordHash = []byte(d.Password)
	}
	if d.Avatar != nil {
		user.Avatar = &models.Avatar{PublicID: d.Avatar.PublicID, URL: d.Avatar.URL}
	}
	return user
}

func newUserDocument(user models.User, now time.Time) userDocument {
	doc := userDocument{
		Name:      user.Name,
		Email:     user.Email,
		Password:  string(user.PasswordHash),
		Role:      string(user.Role),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if user.Avatar != nil {
		doc.Avatar = &avatarDocument{PublicID: user.Avatar.PublicID, URL: user.Avatar.URL}
	}
	return doc
}

// mongoError maps driver errors onto the repository sentinels.
func mongoError(op string, err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrUserNotFound
	case mongo.IsDuplicateKeyError(err):
		return ErrDuplicateEmail
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

// withoutPassword is applied to every read that does not need credentials.
var withoutPassword = bson.D{{Key: "password", Value: 0}}

type MongoUserRepository struct {
	users *mongo.Collection
	db    *mongo.Database
}

func NewMongoUserRepository(db *mongo.Database) *MongoUserRepository {
	return &MongoUserRepository{
		users: db.Collection(usersCollection),
		db:    db,
	}
}

func (r *MongoUserRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_unique"),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("created_at_desc"),
		},
	})
	if err != nil {
		return fmt.Errorf("create user indexes: %w", err)
	}
	return nil
}

func (r *MongoUserRepository) Create(ctx context.Context, user models.User) (models.User, error) {
	doc := newUserDocument(user, time.Now().UTC())

	res, err := r.users.InsertOne(ctx, doc)
	if err != nil {
		return models.User{}, mongoError("insert user", err)
	}

	id, ok := res.InsertedID.(bson.ObjectID)
	if !ok {
		return models.User{}, fmt.Errorf("insert user: unexpected id type %T", res.InsertedID)
	}
	doc.ID = id
	doc.Password = ""
	return doc.toModel(), nil
}

func (r *MongoUserRepository) GetByID(ctx context.Context, id string) (models.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return models.User{}, ErrUserNotFound
	}
	return r.findOne(ctx, bson.D{{Key: "_id", Value: oid}}, false)
}

func (r *MongoUserRepository) GetByIDWithPassword(ctx context.Context, id string) (models.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return models.User{}, ErrUserNotFound
	}
	return r.findOne(ctx, bson.D{{Key: "_id", Value: oid}}, true)
}

func (r *MongoUserRepository) FindByEmailWithPassword(ctx context.Context, email string) (models.User, error) {
	return r.findOne(ctx, bson.D{{Key: "email", Value: email}}, true)
}

func (r *MongoUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	count, err := r.users.CountDocuments(ctx, bson.D{{Key: "email", Value: email}}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return count > 0, nil
}

func (r *MongoUserRepository) List(ctx context.Context) ([]models.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetProjection(withoutPassword)

	cursor, err := r.users.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	users := make([]models.User, 0, len(docs))
	for _, doc := range docs {
		users = append(users, doc.toModel())
	}
	return users, nil
}

func (r *MongoUserRepository) UpdateName(ctx context.Context, id string, name string) (models.User, error) {
	return r.updateByID(ctx, id, bson.D{{Key: "name", Value: name}})
}

func (r *MongoUserRepository) UpdatePassword(ctx context.Context, id string, passwordHash []byte) (models.User, error) {
	return r.updateByID(ctx, id, bson.D{{Key: "password", Value: string(passwordHash)}})
}

func (r *MongoUserRepository) UpdateAvatar(ctx context.Context, id string, avatar models.Avatar) (models.User, error) {
	return r.updateByID(ctx, id, bson.D{{Key: "avatar", Value: avatarDocument{PublicID: avatar.PublicID, URL: avatar.URL}}})
}

func (r *MongoUserRepository) UpdateRoleByEmail(ctx context.Context, email string, role models.UserRole) (models.User, error) {
	return r.update(ctx, bson.D{{Key: "email", Value: email}}, bson.D{{Key: "role", Value: string(role)}})
}

func (r *MongoUserRepository) Delete(ctx context.Context, id string) (models.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return models.User{}, ErrUserNotFound
	}

	var doc userDocument
	err = r.users.FindOneAndDelete(ctx, bson.D{{Key: "_id", Value: oid}},
		options.FindOneAndDelete().SetProjection(withoutPassword),
	).Decode(&doc)
	if err != nil {
		return models.User{}, mongoError("delete user", err)
	}
	return doc.toModel(), nil
}

func (r *MongoUserRepository) Ping(ctx context.Context) error {
	return r.db.Client().Ping(ctx, readpref.Primary())
}

func (r *MongoUserRepository) findOne(ctx context.Context, filter bson.D, withPassword bool) (models.User, error) {
	opts := options.FindOne()
	if !withPassword {
		opts.SetProjection(withoutPassword)
	}

	var doc userDocument
	if err := r.users.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		return models.User{}, mongoError("find user", err)
	}
	return doc.toModel(), nil
}

func (r *MongoUserRepository) updateByID(ctx context.Context, id string, set bson.D) (models.User, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return models.User{}, ErrUserNotFound
	}
	return r.update(ctx, bson.D{{Key: "_id", Value: oid}}, set)
}

func (r *MongoUserRepository) update(ctx context.Context, filter bson.D, set bson.D) (models.User, error) {
	set = append(set, bson.E{Key: "updatedAt", Value: time.Now().UTC()})
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(withoutPassword)

	var doc userDocument
	err := r.users.FindOneAndUpdate(ctx, filter, bson.D{{Key: "$set", Value: set}}, opts).Decode(&doc)
	if err != nil {
		return models.User{}, mongoError("update user", err)
	}
	return doc.toModel(), nil
}
