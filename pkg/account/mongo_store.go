package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const usersCollection = "users"

// MongoStore persists account records in a MongoDB users collection.
type MongoStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

// NewMongoStore creates a store over the users collection of the given database.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		coll: db.Collection(usersCollection),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *MongoStore) Get(ctx context.Context, userID string) (*Record, error) {
	var rec Record
	err := s.coll.FindOne(ctx, bson.M{"_id": userID}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account record: %w", err)
	}
	return &rec, nil
}

func (s *MongoStore) GetByCustomerID(ctx context.Context, customerID string) (*Record, error) {
	var rec Record
	err := s.coll.FindOne(ctx, bson.M{"billingCustomerId": customerID}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account record by customer id: %w", err)
	}
	return &rec, nil
}

func (s *MongoStore) GetByEmail(ctx context.Context, email string) (*Record, error) {
	var rec Record
	err := s.coll.FindOne(ctx, bson.M{"email": email}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get account record by email: %w", err)
	}
	return &rec, nil
}

func (s *MongoStore) Create(ctx context.Context, rec *Record) error {
	if _, err := s.coll.InsertOne(ctx, rec); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to create account record: %w", err)
	}
	return nil
}

// Merge applies the update as a single $set, atomic at the document level.
// An empty update is a no-op and does not touch updatedAt.
func (s *MongoStore) Merge(ctx context.Context, userID string, upd Update) error {
	if upd.IsEmpty() {
		return nil
	}

	set := bson.M{"updatedAt": s.now()}
	if upd.Email != nil {
		set["email"] = *upd.Email
	}
	if upd.Plan != nil {
		set["plan"] = *upd.Plan
	}
	if upd.Status != nil {
		set["status"] = *upd.Status
	}
	if upd.BillingCustomerID != nil {
		set["billingCustomerId"] = *upd.BillingCustomerID
	}
	if upd.SubscriptionID != nil {
		set["subscriptionId"] = *upd.SubscriptionID
	}
	if upd.SubscriptionStart != nil {
		set["subscriptionStartDate"] = *upd.SubscriptionStart
	}
	if upd.SubscriptionEnd != nil {
		set["subscriptionEndDate"] = *upd.SubscriptionEnd
	}
	if upd.InvoiceID != nil {
		set["invoiceId"] = *upd.InvoiceID
	}
	if upd.Usage != nil {
		set["usage"] = *upd.Usage
	}

	res, err := s.coll.UpdateByID(ctx, userID, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("failed to merge account record: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementUsage increments the counter with $inc guarded by the day key and
// the cap, so two concurrent calls can never both observe and write the same
// count, and the stored count never passes the cap.
func (s *MongoStore) IncrementUsage(ctx context.Context, userID, day string, limit int) (int, error) {
	var rec Record
	err := s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": userID, "usage.date": day, "usage.count": bson.M{"$lt": limit}},
		bson.M{
			"$inc": bson.M{"usage.count": 1},
			"$set": bson.M{"updatedAt": s.now()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&rec)
	if err == nil {
		return rec.Usage.Count, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return 0, fmt.Errorf("failed to increment usage: %w", err)
	}

	// No match: the record is gone, the counter rolled to a new day, or the
	// cap is reached. Disambiguate with a read.
	cur, getErr := s.Get(ctx, userID)
	if getErr != nil {
		return 0, getErr
	}
	if cur.Usage.Date != day {
		return 0, ErrUsageDayMismatch
	}
	return 0, ErrUsageExhausted
}

// ResetUsage rolls the counter to the given day, but only while the stored
// counter still belongs to another day. A concurrent caller that already
// rolled the day wins; overwriting its increments would grant extra slots.
func (s *MongoStore) ResetUsage(ctx context.Context, userID, day string) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": userID, "usage.date": bson.M{"$ne": day}},
		bson.M{"$set": bson.M{"usage": Usage{Date: day, Count: 0}, "updatedAt": s.now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to reset usage: %w", err)
	}
	if res.MatchedCount == 0 {
		// Already on the requested day, or the record is gone.
		if _, getErr := s.Get(ctx, userID); getErr != nil {
			return getErr
		}
	}
	return nil
}
