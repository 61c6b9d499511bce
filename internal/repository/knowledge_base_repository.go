package repository

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stress-guru-go/internal/model"
)

// KnowledgeBaseRepository 以 user_id 为键存取用户的自适应知识库。
type KnowledgeBaseRepository interface {
	// Get 不存在时返回 nil, nil。
	Get(ctx context.Context, userID string) (*model.KnowledgeBase, error)
	Save(ctx context.Context, kb *model.KnowledgeBase) error
	// Insert 仅在用户没有知识库时写入，返回是否写入。
	Insert(ctx context.Context, kb *model.KnowledgeBase) (bool, error)
}

type mongoKnowledgeBaseRepository struct {
	collection *mongo.Collection
}

func NewKnowledgeBaseRepository(db *mongo.Database) KnowledgeBaseRepository {
	return &mongoKnowledgeBaseRepository{collection: db.Collection("user_knowledge_base")}
}

func (r *mongoKnowledgeBaseRepository) Get(ctx context.Context, userID string) (*model.KnowledgeBase, error) {
	var kb model.KnowledgeBase
	err := r.collection.FindOne(ctx, bson.M{"user_id": userID}).Decode(&kb)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &kb, nil
}

func (r *mongoKnowledgeBaseRepository) Save(ctx context.Context, kb *model.KnowledgeBase) error {
	_, err := r.collection.ReplaceOne(ctx, bson.M{"user_id": kb.UserID}, kb, options.Replace().SetUpsert(true))
	return err
}

func (r *mongoKnowledgeBaseRepository) Insert(ctx context.Context, kb *model.KnowledgeBase) (bool, error) {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"user_id": kb.UserID},
		bson.M{"$setOnInsert": kb},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, err
	}
	return res.UpsertedCount > 0, nil
}
