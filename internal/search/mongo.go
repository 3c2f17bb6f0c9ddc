package search

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRegex searches the document-store mirror with case-insensitive
// regular expressions. It is the fallback when the mirror runs on MongoDB.
type MongoRegex struct {
	db *mongo.Database
}

func NewMongoRegex(db *mongo.Database) *MongoRegex {
	return &MongoRegex{db: db}
}

func (m *MongoRegex) Healthy() bool {
	return true
}

type mongoHit struct {
	ID          primitive.ObjectID `bson:"_id"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Name        string             `bson:"name"`
	Subject     string             `bson:"subject"`
	Message     string             `bson:"message"`
	Status      string             `bson:"status"`
}

func (m *MongoRegex) Search(ctx context.Context, q Query) ([]Result, int, error) {
	text := strings.TrimSpace(q.Text)
	if text == "" {
		return nil, 0, nil
	}
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(text), Options: "i"}

	type target struct {
		collection string
		kind       ResultType
		fields     []string
	}
	targets := []target{
		{"projects", ResultProject, []string{"title", "description", "tags"}},
		{"contactmessages", ResultContact, []string{"name", "email", "subject", "message"}},
	}

	var results []Result
	total := 0
	for _, t := range targets {
		if !q.wants(t.kind) {
			continue
		}
		or := bson.A{}
		for _, f := range t.fields {
			or = append(or, bson.M{f: pattern})
		}
		filter := bson.M{"userId": q.UserID, "$or": or}
		coll := m.db.Collection(t.collection)

		n, err := coll.CountDocuments(ctx, filter)
		if err != nil {
			return nil, 0, fmt.Errorf("mongo search count %s: %w", t.collection, err)
		}
		total += int(n)

		cur, err := coll.Find(ctx, filter, options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: -1}}).
			SetSkip(int64(q.offset())).
			SetLimit(int64(q.limit())))
		if err != nil {
			return nil, 0, fmt.Errorf("mongo search %s: %w", t.collection, err)
		}
		var hits []mongoHit
		if err := cur.All(ctx, &hits); err != nil {
			return nil, 0, fmt.Errorf("mongo search decode %s: %w", t.collection, err)
		}
		for _, h := range hits {
			r := Result{Type: t.kind, ID: h.ID.Hex(), Status: h.Status}
			if t.kind == ResultProject {
				r.Title, r.Snippet = h.Title, h.Description
			} else {
				r.Title, r.Snippet = firstNonBlank(h.Subject, h.Name), h.Message
			}
			results = append(results, r)
		}
	}
	return results, total, nil
}
