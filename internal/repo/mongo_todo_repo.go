package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	dom "todolist/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type todoDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Text      string             `bson:"text"`
	Completed bool               `bson:"completed"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func (d todoDocument) toDomain() dom.Todo {
	return dom.Todo{
		ID:        d.ID.Hex(),
		Text:      d.Text,
		Completed: d.Completed,
		CreatedAt: d.CreatedAt.UTC(),
	}
}

// listSort orders newest first; ObjectIDs grow with insertion order and break ties.
var listSort = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

type MongoTodoRepo struct {
	coll *mongo.Collection
}

func NewMongoTodoRepo(coll *mongo.Collection) *MongoTodoRepo {
	return &MongoTodoRepo{coll: coll}
}

// EnsureIndexes creates the index backing List. Safe to call on every start.
func (r *MongoTodoRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    listSort,
		Options: options.Index().SetName("createdAt_desc"),
	})
	if err != nil {
		return fmt.Errorf("mongo create index: %w", err)
	}
	return nil
}

func (r *MongoTodoRepo) Create(ctx context.Context, t dom.Todo) (dom.Todo, error) {
	doc := todoDocument{
		ID:        primitive.NewObjectID(),
		Text:      t.Text,
		Completed: t.Completed,
		// BSON dates carry millisecond precision.
		CreatedAt: t.CreatedAt.UTC().Truncate(time.Millisecond),
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return dom.Todo{}, err
	}
	return doc.toDomain(), nil
}

func (r *MongoTodoRepo) GetByID(ctx context.Context, id string) (dom.Todo, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return dom.Todo{}, ErrNotFound
	}
	var doc todoDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return dom.Todo{}, mapMongoErr(err)
	}
	return doc.toDomain(), nil
}

func (r *MongoTodoRepo) List(ctx context.Context) ([]dom.Todo, error) {
	cur, err := r.coll.Find(ctx, bson.D{}, options.Find().SetSort(listSort))
	if err != nil {
		return nil, err
	}
	var docs []todoDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	list := make([]dom.Todo, len(docs))
	for i := range docs {
		list[i] = docs[i].toDomain()
	}
	return list, nil
}

func (r *MongoTodoRepo) Update(ctx context.Context, id string, patch dom.TodoPatch) (dom.Todo, error) {
	if patch.Empty() {
		return r.GetByID(ctx, id)
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return dom.Todo{}, ErrNotFound
	}
	set := bson.M{}
	if patch.Text != nil {
		set["text"] = *patch.Text
	}
	if patch.Completed != nil {
		set["completed"] = *patch.Completed
	}
	var doc todoDocument
	err = r.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return dom.Todo{}, mapMongoErr(err)
	}
	return doc.toDomain(), nil
}

func (r *MongoTodoRepo) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func mapMongoErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
