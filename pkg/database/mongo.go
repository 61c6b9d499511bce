package database

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stress-guru-go/pkg/log"
)

// Mongo 是自适应知识库所在的数据库。
var (
	MongoClient *mongo.Client
	Mongo       *mongo.Database
)

// InitMongo 连接 MongoDB 并确认可用。
func InitMongo(uri, database string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var err error
	MongoClient, err = mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		log.Fatal("failed to connect to mongodb", err)
	}
	if err := MongoClient.Ping(ctx, nil); err != nil {
		log.Fatal("failed to ping mongodb", err)
	}
	Mongo = MongoClient.Database(database)

	log.Infof("MongoDB connected successfully, database=%s", database)
}

// CloseMongo 断开 MongoDB 连接。
func CloseMongo(ctx context.Context) {
	if MongoClient == nil {
		return
	}
	if err := MongoClient.Disconnect(ctx); err != nil {
		log.Error("failed to disconnect mongodb", err)
	}
}
