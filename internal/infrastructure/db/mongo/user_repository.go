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

	"github.com/crediblehealth/clinic-console/internal/core/domain"
)

const collectionUsers = "users"

// UserRepository implements ports.UserRepository on MongoDB.
type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers)}
}

type mongoInterview struct {
	At       time.Time `bson:"at"`
	Location string    `bson:"location"`
}

type mongoStaffUser struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	FirstName    string             `bson:"first_name"`
	LastName     string             `bson:"last_name"`
	Email        string             `bson:"email"`
	PasswordHash string             `bson:"password_hash"`
	Role         string             `bson:"role"`
	Status       string             `bson:"status"`
	ClinicName   string             `bson:"clinic_name,omitempty"`
	Interview    *mongoInterview    `bson:"interview,omitempty"`
	CreatedAt    time.Time          `bson:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at"`
}

func (m *mongoStaffUser) toDomain() *domain.StaffUser {
	u := &domain.StaffUser{
		ID:           m.ID.Hex(),
		FirstName:    m.FirstName,
		LastName:     m.LastName,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Role:         domain.Role(m.Role),
		Status:       domain.UserStatus(m.Status),
		ClinicName:   m.ClinicName,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
	if m.Interview != nil {
		u.Interview = &domain.Interview{At: m.Interview.At, Location: m.Interview.Location}
	}
	return u
}

// Create inserts a new staff account. A duplicate email maps to ErrUserExists.
func (r *UserRepository) Create(ctx context.Context, user *domain.StaffUser) (*domain.StaffUser, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoStaffUser{
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		Email:        user.Email,
		PasswordHash: user.PasswordHash,
		Role:         string(user.Role),
		Status:       string(user.Status),
		ClinicName:   user.ClinicName,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	created := *user
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		created.ID = oid.Hex()
	}
	return &created, nil
}

// FindByID retrieves a staff account by its hex object id.
func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.StaffUser, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var m mongoStaffUser
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return m.toDomain(), nil
}

// FindByEmail retrieves a staff account by email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*domain.StaffUser, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var m mongoStaffUser
	if err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return m.toDomain(), nil
}

// List returns the full collection ordered by creation time.
func (r *UserRepository) List(ctx context.Context) ([]*domain.StaffUser, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cursor, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*domain.StaffUser
	for cursor.Next(ctx) {
		var m mongoStaffUser
		if err := cursor.Decode(&m); err != nil {
			return nil, fmt.Errorf("decode user: %w", err)
		}
		out = append(out, m.toDomain())
	}
	return out, cursor.Err()
}

// UpdateStatus sets the account's lifecycle status.
func (r *UserRepository) UpdateStatus(ctx context.Context, id string, status domain.UserStatus) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateByID(ctx, oid, bson.M{"$set": bson.M{
		"status":     string(status),
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return fmt.Errorf("update user status: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// SetInterview records interview details on the account.
func (r *UserRepository) SetInterview(ctx context.Context, id string, interview domain.Interview) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateByID(ctx, oid, bson.M{"$set": bson.M{
		"interview":  mongoInterview{At: interview.At, Location: interview.Location},
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return fmt.Errorf("set interview: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// EnsureIndexes creates necessary indexes on the users collection.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
