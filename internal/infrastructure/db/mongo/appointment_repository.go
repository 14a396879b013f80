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

const collectionAppointments = "appointments"

// AppointmentRepository implements ports.AppointmentRepository on MongoDB.
type AppointmentRepository struct {
	col *mongo.Collection
}

func NewAppointmentRepository(db *mongo.Database) *AppointmentRepository {
	return &AppointmentRepository{col: db.Collection(collectionAppointments)}
}

type mongoAppointment struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	FormID    string             `bson:"form_id"`
	Date      time.Time          `bson:"date"`
	Time      string             `bson:"time"`
	Doctor    *mongoStaffRef     `bson:"doctor,omitempty"`
	Marketer  *mongoStaffRef     `bson:"marketer,omitempty"`
	CreatedAt time.Time          `bson:"created_at"`
}

func (m *mongoAppointment) toDomain() *domain.Appointment {
	return &domain.Appointment{
		ID:        m.ID.Hex(),
		FormID:    m.FormID,
		Date:      m.Date,
		Time:      m.Time,
		Doctor:    staffRefToDomain(m.Doctor),
		Marketer:  staffRefToDomain(m.Marketer),
		CreatedAt: m.CreatedAt,
	}
}

// Create inserts a new appointment.
func (r *AppointmentRepository) Create(ctx context.Context, a *domain.Appointment) (*domain.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoAppointment{
		FormID:    a.FormID,
		Date:      a.Date,
		Time:      a.Time,
		Doctor:    staffRefToDoc(a.Doctor),
		Marketer:  staffRefToDoc(a.Marketer),
		CreatedAt: a.CreatedAt,
	}

	res, err := r.col.InsertOne(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("insert appointment: %w", err)
	}

	created := *a
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		created.ID = oid.Hex()
	}
	return &created, nil
}

// FindByID retrieves an appointment by its hex object id.
func (r *AppointmentRepository) FindByID(ctx context.Context, id string) (*domain.Appointment, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrAppointmentNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var m mongoAppointment
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAppointmentNotFound
		}
		return nil, fmt.Errorf("find appointment: %w", err)
	}
	return m.toDomain(), nil
}

// List returns all appointments ordered by date.
func (r *AppointmentRepository) List(ctx context.Context) ([]*domain.Appointment, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cursor, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer cursor.Close(ctx)

	var out []*domain.Appointment
	for cursor.Next(ctx) {
		var m mongoAppointment
		if err := cursor.Decode(&m); err != nil {
			return nil, fmt.Errorf("decode appointment: %w", err)
		}
		out = append(out, m.toDomain())
	}
	return out, cursor.Err()
}

// EnsureIndexes creates necessary indexes on the appointments collection.
func (r *AppointmentRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "date", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
