package storage

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"subgate/entity"
	"subgate/internal/config"
	"subgate/lib/sl"
)

const collectionGates = "gates"

// MongoStore keeps the gate snapshot in a single collection. Connections are
// opened per operation; save replaces the whole collection so it carries the
// same overwrite semantics as the file driver.
type MongoStore struct {
	ctx           context.Context
	clientOptions *options.ClientOptions
	database      string
	log           *slog.Logger
}

func NewMongoStore(conf *config.Config, log *slog.Logger) *MongoStore {
	connectionUri := fmt.Sprintf("mongodb://%s:%s", conf.Storage.Mongo.Host, conf.Storage.Mongo.Port)
	clientOptions := options.Client().ApplyURI(connectionUri)
	if conf.Storage.Mongo.User != "" {
		clientOptions.SetAuth(options.Credential{
			Username:   conf.Storage.Mongo.User,
			Password:   conf.Storage.Mongo.Password,
			AuthSource: conf.Storage.Mongo.Database,
		})
	}
	return &MongoStore{
		ctx:           context.Background(),
		clientOptions: clientOptions,
		database:      conf.Storage.Mongo.Database,
		log:           log.With(sl.Module("storage.mongo")),
	}
}

func (m *MongoStore) connect() (*mongo.Client, error) {
	connection, err := mongo.Connect(m.ctx, m.clientOptions)
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	return connection, nil
}

func (m *MongoStore) disconnect(connection *mongo.Client) {
	_ = connection.Disconnect(m.ctx)
}

func (m *MongoStore) Load() ([]*entity.Gate, error) {
	connection, err := m.connect()
	if err != nil {
		return nil, err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionGates)
	cursor, err := collection.Find(m.ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("mongodb find: %w", err)
	}
	defer cursor.Close(m.ctx)

	var gates []*entity.Gate
	if err = cursor.All(m.ctx, &gates); err != nil {
		return nil, fmt.Errorf("mongodb decode: %w", err)
	}
	sortGates(gates)
	return gates, nil
}

func (m *MongoStore) Save(gates []*entity.Gate) error {
	connection, err := m.connect()
	if err != nil {
		return err
	}
	defer m.disconnect(connection)

	collection := connection.Database(m.database).Collection(collectionGates)
	if _, err = collection.DeleteMany(m.ctx, bson.D{}); err != nil {
		return fmt.Errorf("mongodb clear: %w", err)
	}
	if len(gates) == 0 {
		return nil
	}

	documents := make([]interface{}, 0, len(gates))
	for _, g := range gates {
		documents = append(documents, g)
	}
	if _, err = collection.InsertMany(m.ctx, documents); err != nil {
		return fmt.Errorf("mongodb insert: %w", err)
	}
	return nil
}
