package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cloudkenya/hostpanel/internal/core/domain"
)

const collectionAccounts = "accounts"

// AccountRepository implements ports.AccountRepository using MongoDB.
// Lockout fields are written with filters conditioned on the previously
// observed counter value, so concurrent failed attempts never drop an
// increment.
type AccountRepository struct {
	col *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{col: db.Collection(collectionAccounts)}
}

type accountDoc struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	Username     string             `bson:"username"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`

	Plan           string `bson:"plan"`
	Language       string `bson:"language"`
	Timezone       string `bson:"timezone"`
	DiskUsage      int64  `bson:"disk_usage"`
	DiskLimit      int64  `bson:"disk_limit"`
	BandwidthUsage int64  `bson:"bandwidth_usage"`
	BandwidthLimit int64  `bson:"bandwidth_limit"`

	TwoFactorEnabled bool   `bson:"two_factor_enabled"`
	TwoFactorSecret  string `bson:"two_factor_secret,omitempty"`

	FailedLoginCount int        `bson:"failed_login_count"`
	LockedUntil      *time.Time `bson:"locked_until,omitempty"`
	LastLoginAt      *time.Time `bson:"last_login_at,omitempty"`

	APIKey    string `bson:"api_key,omitempty"`
	APISecret string `bson:"api_secret,omitempty"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func toDoc(a *domain.Account) accountDoc {
	return accountDoc{
		Username:         a.Username,
		Email:            a.Email,
		PasswordHash:     a.PasswordHash,
		Plan:             string(a.Plan),
		Language:         a.Language,
		Timezone:         a.Timezone,
		DiskUsage:        a.Quota.DiskUsage,
		DiskLimit:        a.Quota.DiskLimit,
		BandwidthUsage:   a.Quota.BandwidthUsage,
		BandwidthLimit:   a.Quota.BandwidthLimit,
		TwoFactorEnabled: a.TwoFactorEnabled,
		TwoFactorSecret:  a.TwoFactorSecret,
		FailedLoginCount: a.FailedLoginCount,
		LockedUntil:      a.LockedUntil,
		LastLoginAt:      a.LastLoginAt,
		APIKey:           a.APIKey,
		APISecret:        a.APISecret,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
	}
}

func toAccount(d accountDoc) *domain.Account {
	return &domain.Account{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Plan:         domain.Plan(d.Plan),
		Language:     d.Language,
		Timezone:     d.Timezone,
		Quota: domain.Quota{
			DiskUsage:      d.DiskUsage,
			DiskLimit:      d.DiskLimit,
			BandwidthUsage: d.BandwidthUsage,
			BandwidthLimit: d.BandwidthLimit,
		},
		TwoFactorEnabled: d.TwoFactorEnabled,
		TwoFactorSecret:  d.TwoFactorSecret,
		FailedLoginCount: d.FailedLoginCount,
		LockedUntil:      d.LockedUntil,
		LastLoginAt:      d.LastLoginAt,
		APIKey:           d.APIKey,
		APISecret:        d.APISecret,
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}

// Create inserts a fully-initialized account. Uniqueness of username and
// email is enforced by the indexes, so the insert is the atomicity point:
// either a complete account becomes visible or nothing does.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.InsertOne(ctx, toDoc(account))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrDuplicateIdentity
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}

	created := *account
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		created.ID = oid.Hex()
	}
	return &created, nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrAccountNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d accountDoc
	if err := r.col.FindOne(ctx, filter).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return toAccount(d), nil
}

// UpdateProfile applies only the non-nil fields of upd.
func (r *AccountRepository) UpdateProfile(ctx context.Context, id string, upd domain.ProfileUpdate) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if upd.Email != nil {
		set["email"] = *upd.Email
	}
	if upd.Language != nil {
		set["language"] = *upd.Language
	}
	if upd.Timezone != nil {
		set["timezone"] = *upd.Timezone
	}

	err := r.updateByID(ctx, id, bson.M{"$set": set})
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrDuplicateIdentity
	}
	return err
}

func (r *AccountRepository) SetPasswordHash(ctx context.Context, id, hash string) error {
	return r.updateByID(ctx, id, bson.M{"$set": bson.M{
		"password_hash": hash,
		"updated_at":    time.Now().UTC(),
	}})
}

func (r *AccountRepository) SetTwoFactor(ctx context.Context, id, secret string, enabled bool) error {
	update := bson.M{
		"$set": bson.M{
			"two_factor_enabled": enabled,
			"updated_at":         time.Now().UTC(),
		},
	}
	if secret == "" {
		update["$unset"] = bson.M{"two_factor_secret": ""}
	} else {
		update["$set"].(bson.M)["two_factor_secret"] = secret
	}
	return r.updateByID(ctx, id, update)
}

// RecordFailure performs the compare-and-set transition of the lockout
// machine: the write only matches while the stored counter still holds
// observedCount.
func (r *AccountRepository) RecordFailure(ctx context.Context, id string, observedCount, newCount int, lockUntil *time.Time) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, domain.ErrAccountNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{"_id": oid, "failed_login_count": observedCount}
	update := bson.M{"$set": bson.M{
		"failed_login_count": newCount,
		"updated_at":         time.Now().UTC(),
	}}
	if lockUntil != nil {
		update["$set"].(bson.M)["locked_until"] = lockUntil.UTC()
	} else {
		update["$unset"] = bson.M{"locked_until": ""}
	}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, fmt.Errorf("record login failure: %w", err)
	}
	return res.MatchedCount == 1, nil
}

func (r *AccountRepository) RecordSuccess(ctx context.Context, id string, at time.Time) error {
	return r.updateByID(ctx, id, bson.M{
		"$set": bson.M{
			"failed_login_count": 0,
			"last_login_at":      at.UTC(),
			"updated_at":         at.UTC(),
		},
		"$unset": bson.M{"locked_until": ""},
	})
}

func (r *AccountRepository) updateByID(ctx context.Context, id string, update bson.M) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrAccountNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// EnsureIndexes creates the unique identity indexes. The email index carries
// a case-insensitive collation so uniqueness holds regardless of casing.
func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "email", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetCollation(&options.Collation{Locale: "en", Strength: 2}),
		},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
