package repository

import (
	"context"
	"errors"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// lineDocument is one persisted cart line. Lines are stored one per document
// so a single line can be updated or deleted by id.
type lineDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	UserID    string             `bson:"user_id"`
	Ref       domain.LineRef     `bson:"ref"`
	Quantity  int                `bson:"quantity"`
	UnitPrice int64              `bson:"unit_price"`
	Meta      domain.LineMeta    `bson:"meta"`
	AddedAt   time.Time          `bson:"added_at"`
}

func (d lineDocument) toLine() domain.CartLine {
	return domain.CartLine{
		ID:        d.ID.Hex(),
		Ref:       d.Ref,
		Quantity:  d.Quantity,
		UnitPrice: d.UnitPrice,
		Meta:      d.Meta,
		AddedAt:   d.AddedAt,
	}
}

type savedDocument struct {
	UserID    string    `bson:"user_id"`
	ProductID int64     `bson:"product_id"`
	SavedAt   time.Time `bson:"saved_at"`
}

// MongoCartRepository implements CartRepository on two collections.
type MongoCartRepository struct {
	lines *mongo.Collection
	saved *mongo.Collection
}

func NewMongoCartRepository(db *mongo.Database) *MongoCartRepository {
	return &MongoCartRepository{
		lines: db.Collection("cart_lines"),
		saved: db.Collection("saved_items"),
	}
}

func mongoError(op string, err error) error {
	if err == nil {
		return nil
	}
	code := CodeUnknown
	switch {
	case mongo.IsDuplicateKeyError(err):
		code = CodeDuplicate
	case mongo.IsNetworkError(err), mongo.IsTimeout(err):
		code = CodeUnavailable
	case errors.Is(err, mongo.ErrNoDocuments):
		code = CodeNotFound
	}
	return &Error{Op: op, Code: code, Err: err}
}

func (m *MongoCartRepository) ListLines(ctx context.Context, userID string) ([]domain.CartLine, error) {
	opts := options.Find().SetSort(bson.D{{Key: "added_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := m.lines.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, mongoError("list cart lines", err)
	}
	defer cur.Close(ctx)

	var docs []lineDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mongoError("decode cart lines", err)
	}

	lines := make([]domain.CartLine, 0, len(docs))
	for _, d := range docs {
		lines = append(lines, d.toLine())
	}
	return lines, nil
}

func (m *MongoCartRepository) InsertLine(ctx context.Context, userID string, line domain.CartLine) (string, error) {
	if line.AddedAt.IsZero() {
		line.AddedAt = time.Now()
	}
	doc := lineDocument{
		UserID:    userID,
		Ref:       line.Ref,
		Quantity:  line.Quantity,
		UnitPrice: line.UnitPrice,
		Meta:      line.Meta,
		AddedAt:   line.AddedAt,
	}

	res, err := m.lines.InsertOne(ctx, doc)
	if err != nil {
		return "", mongoError("insert cart line", err)
	}
	id, _ := res.InsertedID.(primitive.ObjectID)
	return id.Hex(), nil
}

func (m *MongoCartRepository) UpdateLineQuantity(ctx context.Context, userID, lineID string, quantity int) error {
	oid, err := primitive.ObjectIDFromHex(lineID)
	if err != nil {
		return ErrLineNotFound
	}

	filter := bson.M{"_id": oid, "user_id": userID}
	update := bson.M{"$set": bson.M{"quantity": quantity}}

	result, err := m.lines.UpdateOne(ctx, filter, update)
	if err != nil {
		return mongoError("update cart line quantity", err)
	}
	if result.MatchedCount == 0 {
		return ErrLineNotFound
	}
	return nil
}

// DeleteLine is idempotent: a missing line is not an error.
func (m *MongoCartRepository) DeleteLine(ctx context.Context, userID, lineID string) error {
	oid, err := primitive.ObjectIDFromHex(lineID)
	if err != nil {
		return nil
	}

	_, err = m.lines.DeleteOne(ctx, bson.M{"_id": oid, "user_id": userID})
	return mongoError("delete cart line", err)
}

func (m *MongoCartRepository) DeleteAllLines(ctx context.Context, userID string) error {
	_, err := m.lines.DeleteMany(ctx, bson.M{"user_id": userID})
	return mongoError("delete cart lines", err)
}

func (m *MongoCartRepository) ListSaved(ctx context.Context, userID string) ([]domain.SavedItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "saved_at", Value: 1}})
	cur, err := m.saved.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, mongoError("list saved items", err)
	}
	defer cur.Close(ctx)

	var docs []savedDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, mongoError("decode saved items", err)
	}

	items := make([]domain.SavedItem, 0, len(docs))
	for _, d := range docs {
		items = append(items, domain.SavedItem{ProductID: d.ProductID, SavedAt: d.SavedAt})
	}
	return items, nil
}

func (m *MongoCartRepository) InsertSaved(ctx context.Context, userID string, productID int64) error {
	filter := bson.M{"user_id": userID, "product_id": productID}
	update := bson.M{"$setOnInsert": savedDocument{UserID: userID, ProductID: productID, SavedAt: time.Now()}}
	opts := options.Update().SetUpsert(true)

	_, err := m.saved.UpdateOne(ctx, filter, update, opts)
	if mongo.IsDuplicateKeyError(err) {
		// concurrent upsert of the same pair, the row exists either way
		return nil
	}
	return mongoError("insert saved item", err)
}

func (m *MongoCartRepository) DeleteSaved(ctx context.Context, userID string, productID int64) error {
	_, err := m.saved.DeleteOne(ctx, bson.M{"user_id": userID, "product_id": productID})
	return mongoError("delete saved item", err)
}

func (m *MongoCartRepository) CreateIndexes(ctx context.Context) error {
	lineIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "ref.kind", Value: 1}, {Key: "ref.id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "added_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(90 * 24 * 60 * 60), // 90 days TTL
		},
	}
	if _, err := m.lines.Indexes().CreateMany(ctx, lineIndexes); err != nil {
		return mongoError("create cart line indexes", err)
	}

	savedIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "product_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	if _, err := m.saved.Indexes().CreateOne(ctx, savedIndex); err != nil {
		return mongoError("create saved item indexes", err)
	}
	return nil
}
