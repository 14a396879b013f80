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

const collectionDiagnoses = "diagnoses"

// DiagnosisRepository implements ports.DiagnosisRepository on MongoDB.
type DiagnosisRepository struct {
	col *mongo.Collection
}

func NewDiagnosisRepository(db *mongo.Database) *DiagnosisRepository {
	return &DiagnosisRepository{col: db.Collection(collectionDiagnoses)}
}

type mongoStaffRef struct {
	ID        string `bson:"id"`
	FirstName string `bson:"first_name"`
	LastName  string `bson:"last_name"`
	Email     string `bson:"email,omitempty"`
}

type mongoDiagnosis struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty"`
	ClientName         string             `bson:"client_name"`
	Date               time.Time          `bson:"date"`
	Status             string             `bson:"status"`
	Sex                string             `bson:"sex,omitempty"`
	PreferredTime      string             `bson:"preferred_time,omitempty"`
	Address            string             `bson:"address,omitempty"`
	Assessment         string             `bson:"assessment,omitempty"`
	ClientSignatureKey string             `bson:"client_signature_key,omitempty"`
	DoctorSignatureKey string             `bson:"doctor_signature_key,omitempty"`
	Doctor             *mongoStaffRef     `bson:"doctor,omitempty"`
	Marketer           *mongoStaffRef     `bson:"marketer,omitempty"`
	CreatedAt          time.Time          `bson:"created_at"`
	UpdatedAt          time.Time          `bson:"updated_at"`
}

func staffRefToDomain(m *mongoStaffRef) *domain.StaffRef {
	if m == nil {
		return nil
	}
	return &domain.StaffRef{ID: m.ID, FirstName: m.FirstName, LastName: m.LastName, Email: m.Email}
}

func staffRefToDoc(d *domain.StaffRef) *mongoStaffRef {
	if d == nil {
		return nil
	}
	return &mongoStaffRef{ID: d.ID, FirstName: d.FirstName, LastName: d.LastName, Email: d.Email}
}

func (m *mongoDiagnosis) toDomain() *domain.Diagnosis {
	return &domain.Diagnosis{
		ID:                 m.ID.Hex(),
		ClientName:         m.ClientName,
		Date:               m.Date,
		Status:             domain.DiagnosisStatus(m.Status),
		Sex:                m.Sex,
		PreferredTime:      m.PreferredTime,
		Address:            m.Address,
		Assessment:         m.Assessment,
		ClientSignatureKey: m.ClientSignatureKey,
		DoctorSignatureKey: m.DoctorSignatureKey,
		Doctor:             staffRefToDomain(m.Doctor),
		Marketer:           staffRefToDomain(m.Marketer),
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

// Create inserts a new diagnosis record.
func (r *DiagnosisRepository) Create(ctx context.Context, d *domain.Diagnosis) (*domain.Diagnosis, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoDiagnosis{
		ClientName:         d.ClientName,
		Date:               d.Date,
		Status:             string(d.Status),
		Sex:                d.Sex,
		PreferredTime:      d.PreferredTime,
		Address:            d.Address,
		Assessment:         d.Assessment,
		ClientSignatureKey: d.ClientSignatureKey,
		DoctorSignatureKey: d.DoctorSignatureKey,
		Doctor:             staffRefToDoc(d.Doctor),
		Marketer:           staffRefToDoc(d.Marketer),
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
	}

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert diagnosis: %w", err)
	}

	created := *d
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		created.ID = oid.Hex()
	}
	return &created, nil
}

// FindByID retrieves a diagnosis record by its hex object id.
func (r *DiagnosisRepository) FindByID(ctx context.Context, id string) (*domain.Diagnosis, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrDiagnosisNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var m mongoDiagnosis
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrDiagnosisNotFound
		}
		return nil, fmt.Errorf("find diagnosis: %w", err)
	}
	return m.toDomain(), nil
}

// List returns the full collection ordered by record date.
func (r *DiagnosisRepository) List(ctx context.Context) ([]*domain.Diagnosis, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cursor, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list diagnoses: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*domain.Diagnosis
	for cursor.Next(ctx) {
		var m mongoDiagnosis
		if err := cursor.Decode(&m); err != nil {
			return nil, fmt.Errorf("decode diagnosis: %w", err)
		}
		out = append(out, m.toDomain())
	}
	return out, cursor.Err()
}

// UpdateAssessment writes the assessment text, new status, and signature
// reference in a single update.
func (r *DiagnosisRepository) UpdateAssessment(ctx context.Context, id, assessment string, status domain.DiagnosisStatus, signatureKey string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrDiagnosisNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{
		"assessment": assessment,
		"status":     string(status),
		"updated_at": time.Now().UTC(),
	}
	if signatureKey != "" {
		set["doctor_signature_key"] = signatureKey
	}

	res, err := r.col.UpdateByID(ctx, oid, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update assessment: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrDiagnosisNotFound
	}
	return nil
}

// EnsureIndexes creates necessary indexes on the diagnoses collection.
func (r *DiagnosisRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "date", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
