package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	"github.com/iliyamo/movie-catalog/internal/model"
)

// movieDoc is the BSON shape of a movie in the movies collection.
type movieDoc struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	Title       string        `bson:"title"`
	Description string        `bson:"description"`
	ReleaseYear int           `bson:"release_year"`
	Genre       string        `bson:"genre"`
	Director    string        `bson:"director"`
	Rating      float64       `bson:"rating"`
	CreatedAt   time.Time     `bson:"created_at"`
	UpdatedAt   time.Time     `bson:"updated_at"`
}

func (d *movieDoc) toModel() *model.Movie {
	return &model.Movie{
		ID:          d.ID.Hex(),
		Title:       d.Title,
		Description: d.Description,
		ReleaseYear: d.ReleaseYear,
		Genre:       d.Genre,
		Director:    d.Director,
		Rating:      d.Rating,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
}

// MongoMovieRepo stores movies in a MongoDB collection.  Identifiers are
// 24-character hex ObjectIDs.
type MongoMovieRepo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoMovieRepo wraps an already connected client.
func NewMongoMovieRepo(client *mongo.Client, database, collection string) *MongoMovieRepo {
	return &MongoMovieRepo{
		client: client,
		coll:   client.Database(database).Collection(collection),
	}
}

// EnsureIndexes creates the lookup indexes the catalog relies on.  Creating an
// index that already exists is a no-op on the server.
func (r *MongoMovieRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "title", Value: 1}}},
		{Keys: bson.D{{Key: "genre", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create movie indexes: %w", err)
	}
	return nil
}

func (r *MongoMovieRepo) ValidID(id string) bool {
	_, err := bson.ObjectIDFromHex(id)
	return err == nil
}

func (r *MongoMovieRepo) Insert(ctx context.Context, m *model.Movie) (string, error) {
	doc := movieDoc{
		Title:       m.Title,
		Description: m.Description,
		ReleaseYear: m.ReleaseYear,
		Genre:       m.Genre,
		Director:    m.Director,
		Rating:      m.Rating,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
	res, err := r.coll.InsertOne(ctx, doc)
	if err != nil {
		return "", err
	}
	oid, ok := res.InsertedID.(bson.ObjectID)
	if !ok {
		return "", fmt.Errorf("unexpected inserted id type %T", res.InsertedID)
	}
	return oid.Hex(), nil
}

func (r *MongoMovieRepo) Get(ctx context.Context, id string) (*model.Movie, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrMovieNotFound
	}
	var doc movieDoc
	if err := r.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	return doc.toModel(), nil
}

func (r *MongoMovieRepo) ListAll(ctx context.Context) ([]*model.Movie, error) {
	return r.find(ctx, bson.D{})
}

func (r *MongoMovieRepo) Update(ctx context.Context, id string, patch model.MoviePatch, now time.Time) (*model.Movie, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrMovieNotFound
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc movieDoc
	err = r.coll.FindOneAndUpdate(ctx, bson.D{{Key: "_id", Value: oid}}, mongoUpdateDoc(patch, now), opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrMovieNotFound
		}
		return nil, err
	}
	return doc.toModel(), nil
}

func (r *MongoMovieRepo) Delete(ctx context.Context, id string) error {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return ErrMovieNotFound
	}
	res, err := r.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrMovieNotFound
	}
	return nil
}

func (r *MongoMovieRepo) Search(ctx context.Context, query string) ([]*model.Movie, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []*model.Movie{}, nil
	}
	return r.find(ctx, mongoSearchFilter(query))
}

func (r *MongoMovieRepo) Count(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.D{})
}

func (r *MongoMovieRepo) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, readpref.Primary())
}

func (r *MongoMovieRepo) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *MongoMovieRepo) find(ctx context.Context, filter bson.D) ([]*model.Movie, error) {
	opts := options.Find().SetSort(newestFirst)
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []movieDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*model.Movie, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toModel())
	}
	return out, nil
}

// newestFirst is the sort order of every listing.
var newestFirst = bson.D{{Key: "created_at", Value: -1}}

// mongoUpdateDoc builds the $set document for a patch.  Only supplied fields
// are written; updated_at always is.
func mongoUpdateDoc(patch model.MoviePatch, now time.Time) bson.D {
	set := bson.D{}
	add := func(key string, v any) { set = append(set, bson.E{Key: key, Value: v}) }
	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.Description != nil {
		add("description", *patch.Description)
	}
	if patch.ReleaseYear != nil {
		add("release_year", *patch.ReleaseYear)
	}
	if patch.Genre != nil {
		add("genre", *patch.Genre)
	}
	if patch.Director != nil {
		add("director", *patch.Director)
	}
	if patch.Rating != nil {
		add("rating", *patch.Rating)
	}
	add("updated_at", now)
	return bson.D{{Key: "$set", Value: set}}
}

// mongoSearchFilter escapes query so it is matched literally, then ORs a
// case-insensitive regex over every searchable field.
func mongoSearchFilter(query string) bson.D {
	pattern := bson.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	or := make(bson.A, 0, len(searchFields))
	for _, f := range searchFields {
		or = append(or, bson.D{{Key: f, Value: pattern}})
	}
	return bson.D{{Key: "$or", Value: or}}
}
