package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"todo/internal/model"
)

// MongoTodoRepository stores todos as documents in a MongoDB collection.
type MongoTodoRepository struct {
	coll *mongo.Collection
}

func NewMongoTodoRepository(coll *mongo.Collection) *MongoTodoRepository {
	return &MongoTodoRepository{coll: coll}
}

// EnsureIndexes creates the index backing the order sort
func (r *MongoTodoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "order", Value: 1}},
	})
	return err
}

func (r *MongoTodoRepository) List(ctx context.Context) ([]model.Todo, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "order", Value: 1},
		{Key: "createdAt", Value: -1},
	})
	cur, err := r.coll.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, err
	}
	todos := []model.Todo{}
	if err := cur.All(ctx, &todos); err != nil {
		return nil, err
	}
	return todos, nil
}

func (r *MongoTodoRepository) NextOrder(ctx context.Context) (int, error) {
	opts := options.FindOne().
		SetSort(bson.D{{Key: "order", Value: -1}}).
		SetProjection(bson.D{{Key: "order", Value: 1}})

	var top struct {
		Order int `bson:"order"`
	}
	err := r.coll.FindOne(ctx, bson.D{}, opts).Decode(&top)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return top.Order + 1, nil
}

// Create inserts the todo, generating its id and creation time when unset
func (r *MongoTodoRepository) Create(ctx context.Context, todo *model.Todo) error {
	if todo.ID == "" {
		todo.ID = uuid.NewString()
	}
	if todo.CreatedAt.IsZero() {
		// BSON dates carry millisecond precision
		todo.CreatedAt = time.Now().UTC().Truncate(time.Millisecond)
	}
	_, err := r.coll.InsertOne(ctx, todo)
	return err
}

func (r *MongoTodoRepository) GetByID(ctx context.Context, id string) (*model.Todo, error) {
	var todo model.Todo
	err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: id}}).Decode(&todo)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrTodoNotFound
	}
	if err != nil {
		return nil, err
	}
	return &todo, nil
}

func (r *MongoTodoRepository) Update(ctx context.Context, id string, patch model.TodoPatch) (*model.Todo, error) {
	if patch.Empty() {
		return r.GetByID(ctx, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var todo model.Todo
	err := r.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: id}}, patchDocument(patch), opts).Decode(&todo)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrTodoNotFound
	}
	if err != nil {
		return nil, err
	}
	return &todo, nil
}

func (r *MongoTodoRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrTodoNotFound
	}
	return nil
}

// UpdateOrder has the same per-document, non-atomic semantics as
// TodoRepository.UpdateOrder.
func (r *MongoTodoRepository) UpdateOrder(ctx context.Context, updates []model.OrderUpdate) (int, error) {
	applied := 0
	for _, u := range updates {
		_, err := r.coll.UpdateOne(ctx,
			bson.D{{Key: "_id", Value: u.ID}},
			bson.D{{Key: "$set", Value: bson.D{{Key: "order", Value: u.Order}}}},
		)
		if err != nil {
			return applied, fmt.Errorf("update order of %s: %w", u.ID, err)
		}
		applied++
	}
	return applied, nil
}

func patchDocument(p model.TodoPatch) bson.D {
	set := bson.D{}
	if p.Title != nil {
		set = append(set, bson.E{Key: "title", Value: *p.Title})
	}
	if p.Content != nil {
		set = append(set, bson.E{Key: "content", Value: *p.Content})
	}
	if p.Completed != nil {
		set = append(set, bson.E{Key: "completed", Value: *p.Completed})
	}
	if p.DueDate != nil && !p.ClearDueDate {
		set = append(set, bson.E{Key: "dueDate", Value: *p.DueDate})
	}
	if p.Order != nil {
		set = append(set, bson.E{Key: "order", Value: *p.Order})
	}

	update := bson.D{}
	if len(set) > 0 {
		update = append(update, bson.E{Key: "$set", Value: set})
	}
	if p.ClearDueDate {
		update = append(update, bson.E{Key: "$unset", Value: bson.D{{Key: "dueDate", Value: ""}}})
	}
	return update
}
