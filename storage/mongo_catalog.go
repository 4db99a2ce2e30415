package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"agriconnect/models"
	"agriconnect/utils"
)

const farmsCollection = "farms"

// MongoCatalog stores one document per farm, with a GeoJSON position so the
// collection can be queried spatially from the shell.
type MongoCatalog struct {
	client *mongo.Client
	coll   *mongo.Collection
}

type geoPoint struct {
	Type        string    `bson:"type"`
	Coordinates []float64 `bson:"coordinates"`
}

type farmDocument struct {
	models.Farm `bson:",inline"`
	Seq         int      `bson:"seq"`
	Position    geoPoint `bson:"position"`
}

// NewMongoCatalog connects and pings MongoDB, retrying while the server comes
// up, and ensures the collection indexes exist.
func NewMongoCatalog(ctx context.Context, uri, database string, retry utils.RetryConfig) (*MongoCatalog, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo: connect: %w", err)
	}

	err = retry.DoContext(ctx, "mongo ping", func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		return client.Ping(pingCtx, nil)
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: %w", err)
	}

	mc := &MongoCatalog{client: client, coll: client.Database(database).Collection(farmsCollection)}
	if err := mc.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo: indexes: %w", err)
	}
	return mc, nil
}

func (mc *MongoCatalog) ensureIndexes(ctx context.Context) error {
	_, err := mc.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "seq", Value: 1}}},
		{Keys: bson.D{{Key: "state", Value: 1}}},
		{Keys: bson.D{{Key: "position", Value: "2dsphere"}}},
	})
	return err
}

// Load returns the stored catalog in the order it was written.
func (mc *MongoCatalog) Load(ctx context.Context) ([]*models.Farm, error) {
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})
	cursor, err := mc.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("mongo: find farms: %w", err)
	}
	defer cursor.Close(ctx)

	farms := []*models.Farm{}
	for cursor.Next(ctx) {
		var doc farmDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("mongo: decode farm: %w", err)
		}
		farm := doc.Farm
		if farm.Crops == nil {
			farm.Crops = []models.Crop{}
		}
		farms = append(farms, &farm)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("mongo: cursor: %w", err)
	}
	return farms, nil
}

// Write replaces every stored farm document.
func (mc *MongoCatalog) Write(ctx context.Context, farms []*models.Farm) error {
	if _, err := mc.coll.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("mongo: clear: %w", err)
	}
	if len(farms) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(farms))
	for i, f := range farms {
		docs = append(docs, farmDocument{
			Farm:     *f,
			Seq:      i,
			Position: geoPoint{Type: "Point", Coordinates: []float64{f.Lon, f.Lat}},
		})
	}

	opts := options.InsertMany().SetOrdered(false)
	if _, err := mc.coll.InsertMany(ctx, docs, opts); err != nil {
		return fmt.Errorf("mongo: insert farms: %w", err)
	}
	return nil
}

func (mc *MongoCatalog) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return mc.client.Disconnect(ctx)
}
