package storage

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const mongoBansCollection = "bans"

type MongoStore struct {
	client *mongo.Client
	bans   *mongo.Collection
}

func NewMongoStore(uri, database string) (*MongoStore, error) {
	if uri == "" || database == "" {
		return nil, errors.New("database.mongodb.uri and database.mongodb.database must be set in config.json to use driver=mongodb")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "connect")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(err, "ping")
	}

	bans := client.Database(database).Collection(mongoBansCollection)
	_, err = bans.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(err, "create index")
	}

	return &MongoStore{client: client, bans: bans}, nil
}

func (m *MongoStore) IsBanned(userID string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	n, err := m.bans.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return false, errors.Wrap(err, "count ban")
	}
	return n > 0, nil
}

func (m *MongoStore) AddBan(userID, reason string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := m.bans.UpdateOne(
		ctx,
		bson.M{"user_id": userID},
		bson.M{"$setOnInsert": BanRecord{UserID: userID, Reason: reason, Timestamp: time.Now().UTC()}},
		options.UpdateOne().SetUpsert(true),
	)
	if err != nil {
		return false, errors.Wrap(err, "upsert ban")
	}
	return res.UpsertedCount > 0, nil
}

func (m *MongoStore) RemoveBan(userID string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := m.bans.DeleteOne(ctx, bson.M{"user_id": userID})
	if err != nil {
		return false, errors.Wrap(err, "delete ban")
	}
	return res.DeletedCount > 0, nil
}

func (m *MongoStore) List() ([]BanRecord, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cursor, err := m.bans.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "list bans")
	}
	defer cursor.Close(ctx)

	var bans []BanRecord
	if err := cursor.All(ctx, &bans); err != nil {
		return nil, errors.Wrap(err, "decode bans")
	}
	return bans, nil
}

func (m *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}
