package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/JoyBrar2001/advanced-auth/internal/core/domain"
)

const userCollection = "users"

// AccountRepository persists user records in MongoDB. Token consumption maps
// to a single FindOneAndUpdate, so two racing consumers can never both redeem
// the same token: the server picks exactly one winner.
type AccountRepository struct {
	coll *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{coll: db.Collection(userCollection)}
}

// EnsureIndexes creates the unique email index. Email uniqueness is enforced
// here, at write time, because the service's existence pre-check races with
// concurrent signups.
func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("ensure email index: %w", err)
	}
	return nil
}

type mongoUser struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty"`
	Email                 string             `bson:"email"`
	PasswordHash          string             `bson:"password_hash"`
	Name                  string             `bson:"name"`
	IsVerified            bool               `bson:"is_verified"`
	VerificationToken     string             `bson:"verification_token,omitempty"`
	VerificationExpiresAt int64              `bson:"verification_expires_at,omitempty"`
	ResetPasswordToken    string             `bson:"reset_password_token,omitempty"`
	ResetPasswordExpires  int64              `bson:"reset_password_expires_at,omitempty"`
	LastLogin             int64              `bson:"last_login,omitempty"`
	CreatedAt             int64              `bson:"created_at"`
	UpdatedAt             int64              `bson:"updated_at"`
}

func (r *AccountRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	doc := fromDomain(user)

	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return nil, fmt.Errorf("insert user: unexpected id type %T", res.InsertedID)
	}
	created := *user
	created.ID = oid.Hex()
	return &created, nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	var mu mongoUser
	if err := r.coll.FindOne(ctx, bson.M{"email": email}).Decode(&mu); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return toDomain(&mu), nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	var mu mongoUser
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&mu); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return toDomain(&mu), nil
}

func (r *AccountRepository) UpdateLastLogin(ctx context.Context, id string, at time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrUserNotFound
	}

	res, err := r.coll.UpdateByID(ctx, oid, bson.M{
		"$set": bson.M{"last_login": at.Unix(), "updated_at": at.Unix()},
	})
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *AccountRepository) SaveResetToken(ctx context.Context, id, token string, expiresAt time.Time) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrUserNotFound
	}

	res, err := r.coll.UpdateByID(ctx, oid, bson.M{
		"$set": bson.M{
			"reset_password_token":      token,
			"reset_password_expires_at": expiresAt.Unix(),
			"updated_at":                time.Now().UTC().Unix(),
		},
	})
	if err != nil {
		return fmt.Errorf("save reset token: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// ConsumeVerificationToken is the single conditional update that wins or
// loses the verification race: match on code and unexpired timestamp, flip
// is_verified, and drop both token fields in one server-side command.
func (r *AccountRepository) ConsumeVerificationToken(ctx context.Context, code string, now time.Time) (*domain.User, error) {
	filter := bson.M{
		"verification_token":      code,
		"verification_expires_at": bson.M{"$gt": now.Unix()},
	}
	update := bson.M{
		"$set":   bson.M{"is_verified": true, "updated_at": now.Unix()},
		"$unset": bson.M{"verification_token": "", "verification_expires_at": ""},
	}

	var mu mongoUser
	err := r.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&mu)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrTokenInvalid
		}
		return nil, fmt.Errorf("consume verification token: %w", err)
	}
	return toDomain(&mu), nil
}

// ConsumeResetToken swaps the password hash and clears the pending reset in
// the same conditional update that matched the token.
func (r *AccountRepository) ConsumeResetToken(ctx context.Context, token, passwordHash string, now time.Time) (*domain.User, error) {
	filter := bson.M{
		"reset_password_token":      token,
		"reset_password_expires_at": bson.M{"$gt": now.Unix()},
	}
	update := bson.M{
		"$set":   bson.M{"password_hash": passwordHash, "updated_at": now.Unix()},
		"$unset": bson.M{"reset_password_token": "", "reset_password_expires_at": ""},
	}

	var mu mongoUser
	err := r.coll.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&mu)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, domain.ErrTokenInvalid
		}
		return nil, fmt.Errorf("consume reset token: %w", err)
	}
	return toDomain(&mu), nil
}

func fromDomain(u *domain.User) *mongoUser {
	mu := &mongoUser{
		Email:              u.Email,
		PasswordHash:       u.PasswordHash,
		Name:               u.Name,
		IsVerified:         u.IsVerified,
		VerificationToken:  u.VerificationToken,
		ResetPasswordToken: u.ResetPasswordToken,
		CreatedAt:          u.CreatedAt.Unix(),
		UpdatedAt:          u.UpdatedAt.Unix(),
	}
	if u.VerificationTokenExpiresAt != nil {
		mu.VerificationExpiresAt = u.VerificationTokenExpiresAt.Unix()
	}
	if u.ResetPasswordExpiresAt != nil {
		mu.ResetPasswordExpires = u.ResetPasswordExpiresAt.Unix()
	}
	if u.LastLogin != nil {
		mu.LastLogin = u.LastLogin.Unix()
	}
	return mu
}

func toDomain(mu *mongoUser) *domain.User {
	u := &domain.User{
		ID:                 mu.ID.Hex(),
		Email:              mu.Email,
		PasswordHash:       mu.PasswordHash,
		Name:               mu.Name,
		IsVerified:         mu.IsVerified,
		VerificationToken:  mu.VerificationToken,
		ResetPasswordToken: mu.ResetPasswordToken,
		CreatedAt:          unixToTime(mu.CreatedAt),
		UpdatedAt:          unixToTime(mu.UpdatedAt),
	}
	if mu.VerificationExpiresAt != 0 {
		t := unixToTime(mu.VerificationExpiresAt)
		u.VerificationTokenExpiresAt = &t
	}
	if mu.ResetPasswordExpires != 0 {
		t := unixToTime(mu.ResetPasswordExpires)
		u.ResetPasswordExpiresAt = &t
	}
	if mu.LastLogin != 0 {
		t := unixToTime(mu.LastLogin)
		u.LastLogin = &t
	}
	return u
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
