package store

import (
	"context"
	stderrors "errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/graphnist/graphnist/pkg/errors"
	"github.com/graphnist/graphnist/pkg/topology"
)

const topologiesCollection = "topologies"

// MongoStore persists topologies as whole documents in a MongoDB
// collection, one document per name. Suited to the server deployment where
// several instances share state.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// mongoDoc is the stored shape: the wire Document plus bookkeeping fields.
type mongoDoc struct {
	Name      string            `bson:"_id"`
	Doc       topology.Document `bson:"doc"`
	UpdatedAt time.Time         `bson:"updated_at"`
}

// NewMongoStore connects to MongoDB at uri and uses the given database.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "failed to connect to mongodb at %s", uri)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStore, err, "failed to ping mongodb at %s", uri)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(database).Collection(topologiesCollection),
	}, nil
}

// Save upserts the named topology.
func (s *MongoStore) Save(ctx context.Context, name string, doc *topology.Document) error {
	if err := errors.ValidateTopologyName(name); err != nil {
		return err
	}

	stored := mongoDoc{
		Name:      name,
		Doc:       *doc,
		UpdatedAt: time.Now().UTC(),
	}
	stored.Doc.Name = name

	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"_id": name},
		stored,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "failed to save topology %s", name)
	}
	return nil
}

// Load reads the named topology.
func (s *MongoStore) Load(ctx context.Context, name string) (*topology.Document, error) {
	var stored mongoDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": name}).Decode(&stored)
	if stderrors.Is(err, mongo.ErrNoDocuments) {
		return nil, errors.New(errors.ErrCodeTopologyNotFound, "topology %q not found", name)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "failed to load topology %s", name)
	}
	return &stored.Doc, nil
}

// List returns summaries of every stored topology, most recent first.
func (s *MongoStore) List(ctx context.Context) ([]Info, error) {
	cursor, err := s.coll.Find(ctx, bson.M{},
		options.Find().SetSort(bson.M{"updated_at": -1}))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "failed to list topologies")
	}
	defer cursor.Close(ctx)

	var infos []Info
	for cursor.Next(ctx) {
		var stored mongoDoc
		if err := cursor.Decode(&stored); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStore, err, "failed to decode topology")
		}
		infos = append(infos, Info{
			Name:      stored.Name,
			Devices:   len(stored.Doc.Devices),
			UpdatedAt: stored.UpdatedAt,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "error iterating topologies")
	}
	return infos, nil
}

// Delete removes the named topology.
func (s *MongoStore) Delete(ctx context.Context, name string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": name})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "failed to delete topology %s", name)
	}
	if res.DeletedCount == 0 {
		return errors.New(errors.ErrCodeTopologyNotFound, "topology %q not found", name)
	}
	return nil
}

// SavePositions rewrites device coordinates in the stored document.
// Load-modify-save keeps the logic in one place; position updates are not
// contended enough to justify per-field update operators.
func (s *MongoStore) SavePositions(ctx context.Context, name string, positions map[string]topology.Point) error {
	doc, err := s.Load(ctx, name)
	if err != nil {
		return err
	}
	for i, d := range doc.Devices {
		if p, ok := positions[d.ID]; ok {
			doc.Devices[i].X = p.X
			doc.Devices[i].Y = p.Y
		}
	}
	return s.Save(ctx, name, doc)
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
