// Package mongostore is the document-store backend of the remote mirror.
// It keeps the same records as the Postgres backend in the collections the
// original portfolio server used.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"folio/api/internal/portfolio"
	"folio/api/internal/store"
)

const (
	profilesCollection    = "profiles"
	projectsCollection    = "projects"
	contactsCollection    = "contactmessages"
	gitSettingsCollection = "gitsettings"
)

type profileDoc struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	UserID            string             `bson:"userId"`
	portfolio.Profile `bson:",inline"`
	CreatedAt         time.Time `bson:"createdAt"`
	UpdatedAt         time.Time `bson:"updatedAt"`
}

type projectDoc struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	UserID            string             `bson:"userId"`
	portfolio.Project `bson:",inline"`
	CreatedAt         time.Time `bson:"createdAt"`
	UpdatedAt         time.Time `bson:"updatedAt"`
}

type contactDoc struct {
	ID                       primitive.ObjectID `bson:"_id,omitempty"`
	UserID                   string             `bson:"userId"`
	portfolio.ContactMessage `bson:",inline"`
	CreatedAt                time.Time `bson:"createdAt"`
	UpdatedAt                time.Time `bson:"updatedAt"`
}

type gitSettingsDoc struct {
	ID                    primitive.ObjectID `bson:"_id,omitempty"`
	UserID                string             `bson:"userId"`
	portfolio.GitSettings `bson:",inline"`
	CreatedAt             time.Time `bson:"createdAt"`
	UpdatedAt             time.Time `bson:"updatedAt"`
}

type Store struct {
	client *mongo.Client
	db     *mongo.Database
	now    func() time.Time
}

// Connect configures a client without waiting for the server, so the API
// can start while the database is down.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(5 * time.Second)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	return New(client, database), nil
}

func New(client *mongo.Client, database string) *Store {
	return &Store{client: client, db: client.Database(database), now: time.Now}
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) Database() *mongo.Database {
	return s.db
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// EnsureIndexes creates the tenant, client-key and match indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	keyed := options.Index().
		SetUnique(true).
		SetPartialFilterExpression(bson.M{"clientKey": bson.M{"$gt": ""}})

	specs := map[string][]mongo.IndexModel{
		profilesCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		gitSettingsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		projectsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "clientKey", Value: 1}}, Options: keyed},
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "title", Value: 1}}},
			{Keys: bson.D{{Key: "title", Value: "text"}, {Key: "description", Value: "text"}, {Key: "tags", Value: "text"}}},
		},
		contactsCollection: {
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "clientKey", Value: 1}}, Options: keyed},
			{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "name", Value: 1}, {Key: "email", Value: 1}, {Key: "subject", Value: 1}}},
		},
	}
	for name, models := range specs {
		if _, err := s.db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create %s indexes: %w", name, err)
		}
	}
	return nil
}

// Profile

func (s *Store) GetOrCreateProfile(ctx context.Context, userID string) (store.ProfileRecord, error) {
	doc, err := s.findProfile(ctx, userID)
	if err == nil {
		return doc.record(), nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return store.ProfileRecord{}, err
	}
	return s.SaveProfile(ctx, userID, portfolio.DefaultProfile())
}

func (s *Store) PatchProfile(ctx context.Context, userID string, patch portfolio.ProfilePatch) (store.ProfileRecord, error) {
	base := portfolio.DefaultProfile()
	doc, err := s.findProfile(ctx, userID)
	switch {
	case err == nil:
		base = doc.Profile
	case !errors.Is(err, store.ErrNotFound):
		return store.ProfileRecord{}, err
	}
	return s.SaveProfile(ctx, userID, patch.Apply(base))
}

func (s *Store) SaveProfile(ctx context.Context, userID string, profile portfolio.Profile) (store.ProfileRecord, error) {
	now := s.now().UTC()
	update := bson.M{
		"$set":         bson.M{"userId": userID, "updatedAt": now},
		"$setOnInsert": bson.M{"createdAt": now},
	}
	for k, v := range flatten(profile) {
		update["$set"].(bson.M)[k] = v
	}
	var doc profileDoc
	err := s.db.Collection(profilesCollection).FindOneAndUpdate(ctx,
		bson.M{"userId": userID},
		update,
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return store.ProfileRecord{}, fmt.Errorf("save profile: %w", err)
	}
	return doc.record(), nil
}

func (s *Store) findProfile(ctx context.Context, userID string) (profileDoc, error) {
	doc := profileDoc{Profile: portfolio.DefaultProfile()}
	err := s.db.Collection(profilesCollection).FindOne(ctx, bson.M{"userId": userID}).Decode(&doc)
	if err != nil {
		return profileDoc{}, notFound(err, "find profile")
	}
	return doc, nil
}

// Projects

func (s *Store) ListProjects(ctx context.Context, userID string) ([]store.ProjectRecord, error) {
	cur, err := s.db.Collection(projectsCollection).Find(ctx,
		bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	var docs []projectDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode projects: %w", err)
	}
	items := make([]store.ProjectRecord, 0, len(docs))
	for _, doc := range docs {
		items = append(items, doc.record())
	}
	return items, nil
}

func (s *Store) GetProject(ctx context.Context, userID, id string) (store.ProjectRecord, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return store.ProjectRecord{}, store.ErrNotFound
	}
	var doc projectDoc
	if err := s.db.Collection(projectsCollection).FindOne(ctx, bson.M{"_id": oid, "userId": userID}).Decode(&doc); err != nil {
		return store.ProjectRecord{}, notFound(err, "get project")
	}
	return doc.record(), nil
}

func (s *Store) InsertProject(ctx context.Context, userID string, p portfolio.Project) (store.ProjectRecord, error) {
	now := s.now().UTC()
	doc := projectDoc{ID: primitive.NewObjectID(), UserID: userID, Project: p, CreatedAt: now, UpdatedAt: now}
	if _, err := s.db.Collection(projectsCollection).InsertOne(ctx, doc); err != nil {
		return store.ProjectRecord{}, fmt.Errorf("insert project: %w", err)
	}
	return doc.record(), nil
}

func (s *Store) UpdateProject(ctx context.Context, userID, id string, p portfolio.Project) (store.ProjectRecord, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return store.ProjectRecord{}, store.ErrNotFound
	}
	set := flatten(p)
	set["updatedAt"] = s.now().UTC()
	var doc projectDoc
	err = s.db.Collection(projectsCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "userId": userID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return store.ProjectRecord{}, notFound(err, "update project")
	}
	return doc.record(), nil
}

func (s *Store) DeleteProject(ctx context.Context, userID, id string) (bool, error) {
	return s.deleteByID(ctx, projectsCollection, userID, id)
}

func (s *Store) FindProject(ctx context.Context, userID, clientKey, title string) (store.ProjectRecord, bool, error) {
	var doc projectDoc
	found, err := s.findMatch(ctx, projectsCollection, userID, clientKey, bson.M{"title": title}, &doc)
	if err != nil || !found {
		return store.ProjectRecord{}, false, err
	}
	return doc.record(), true, nil
}

// Contacts

func (s *Store) ListContacts(ctx context.Context, userID string) ([]store.ContactRecord, error) {
	cur, err := s.db.Collection(contactsCollection).Find(ctx,
		bson.M{"userId": userID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	var docs []contactDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode contacts: %w", err)
	}
	items := make([]store.ContactRecord, 0, len(docs))
	for _, doc := range docs {
		items = append(items, doc.record())
	}
	return items, nil
}

func (s *Store) GetContact(ctx context.Context, userID, id string) (store.ContactRecord, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return store.ContactRecord{}, store.ErrNotFound
	}
	var doc contactDoc
	if err := s.db.Collection(contactsCollection).FindOne(ctx, bson.M{"_id": oid, "userId": userID}).Decode(&doc); err != nil {
		return store.ContactRecord{}, notFound(err, "get contact")
	}
	return doc.record(), nil
}

func (s *Store) InsertContact(ctx context.Context, userID string, m portfolio.ContactMessage) (store.ContactRecord, error) {
	now := s.now().UTC()
	doc := contactDoc{ID: primitive.NewObjectID(), UserID: userID, ContactMessage: m, CreatedAt: now, UpdatedAt: now}
	if _, err := s.db.Collection(contactsCollection).InsertOne(ctx, doc); err != nil {
		return store.ContactRecord{}, fmt.Errorf("insert contact: %w", err)
	}
	return doc.record(), nil
}

func (s *Store) UpdateContact(ctx context.Context, userID, id string, m portfolio.ContactMessage) (store.ContactRecord, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return store.ContactRecord{}, store.ErrNotFound
	}
	set := flatten(m)
	set["updatedAt"] = s.now().UTC()
	var doc contactDoc
	err = s.db.Collection(contactsCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "userId": userID},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return store.ContactRecord{}, notFound(err, "update contact")
	}
	return doc.record(), nil
}

func (s *Store) DeleteContact(ctx context.Context, userID, id string) (bool, error) {
	return s.deleteByID(ctx, contactsCollection, userID, id)
}

func (s *Store) FindContact(ctx context.Context, userID, clientKey, name, email, subject string) (store.ContactRecord, bool, error) {
	var doc contactDoc
	found, err := s.findMatch(ctx, contactsCollection, userID, clientKey,
		bson.M{"name": name, "email": email, "subject": subject}, &doc)
	if err != nil || !found {
		return store.ContactRecord{}, false, err
	}
	return doc.record(), true, nil
}

// Git settings

func (s *Store) GetOrCreateGitSettings(ctx context.Context, userID string) (store.GitSettingsRecord, error) {
	doc := gitSettingsDoc{GitSettings: portfolio.DefaultGitSettings()}
	err := s.db.Collection(gitSettingsCollection).FindOne(ctx, bson.M{"userId": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return s.SaveGitSettings(ctx, userID, portfolio.DefaultGitSettings())
	}
	if err != nil {
		return store.GitSettingsRecord{}, fmt.Errorf("get git settings: %w", err)
	}
	return doc.record(), nil
}

func (s *Store) SaveGitSettings(ctx context.Context, userID string, gs portfolio.GitSettings) (store.GitSettingsRecord, error) {
	now := s.now().UTC()
	set := flatten(gs)
	set["userId"] = userID
	set["updatedAt"] = now
	var doc gitSettingsDoc
	err := s.db.Collection(gitSettingsCollection).FindOneAndUpdate(ctx,
		bson.M{"userId": userID},
		bson.M{"$set": set, "$setOnInsert": bson.M{"createdAt": now}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return store.GitSettingsRecord{}, fmt.Errorf("save git settings: %w", err)
	}
	return doc.record(), nil
}

func (s *Store) Counts(ctx context.Context, userID string) (store.MirrorCounts, error) {
	filter := bson.M{"userId": userID}
	var c store.MirrorCounts
	profiles, err := s.db.Collection(profilesCollection).CountDocuments(ctx, filter)
	if err != nil {
		return c, fmt.Errorf("count profiles: %w", err)
	}
	projects, err := s.db.Collection(projectsCollection).CountDocuments(ctx, filter)
	if err != nil {
		return c, fmt.Errorf("count projects: %w", err)
	}
	contacts, err := s.db.Collection(contactsCollection).CountDocuments(ctx, filter)
	if err != nil {
		return c, fmt.Errorf("count contacts: %w", err)
	}
	git, err := s.db.Collection(gitSettingsCollection).CountDocuments(ctx, filter)
	if err != nil {
		return c, fmt.Errorf("count git settings: %w", err)
	}
	c.HasProfile = profiles > 0
	c.ProjectsCount = int(projects)
	c.ContactsCount = int(contacts)
	c.HasGitSettings = git > 0
	return c, nil
}

func (s *Store) deleteByID(ctx context.Context, collection, userID, id string) (bool, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	res, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": oid, "userId": userID})
	if err != nil {
		return false, fmt.Errorf("delete from %s: %w", collection, err)
	}
	return res.DeletedCount > 0, nil
}

// findMatch tries the client key first, then the heuristic fields among
// documents that carry no key.
func (s *Store) findMatch(ctx context.Context, collection, userID, clientKey string, heuristic bson.M, out any) (bool, error) {
	coll := s.db.Collection(collection)
	if clientKey != "" {
		err := coll.FindOne(ctx, bson.M{"userId": userID, "clientKey": clientKey}).Decode(out)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return false, fmt.Errorf("match %s by key: %w", collection, err)
		}
	}
	filter := bson.M{"userId": userID}
	for k, v := range heuristic {
		filter[k] = v
	}
	if clientKey != "" {
		filter["$or"] = bson.A{
			bson.M{"clientKey": bson.M{"$exists": false}},
			bson.M{"clientKey": ""},
		}
	}
	err := coll.FindOne(ctx, filter, options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: 1}})).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("match %s: %w", collection, err)
	}
	return true, nil
}

// flatten turns a record into the field map of a $set update.
func flatten(v any) bson.M {
	raw, err := bson.Marshal(v)
	if err != nil {
		return bson.M{}
	}
	out := bson.M{}
	if err := bson.Unmarshal(raw, &out); err != nil {
		return bson.M{}
	}
	return out
}

func notFound(err error, op string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (d profileDoc) record() store.ProfileRecord {
	return store.ProfileRecord{ID: d.ID.Hex(), UserID: d.UserID, Profile: d.Profile, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt}
}

func (d projectDoc) record() store.ProjectRecord {
	return store.ProjectRecord{ID: d.ID.Hex(), UserID: d.UserID, Project: d.Project, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt}
}

func (d contactDoc) record() store.ContactRecord {
	return store.ContactRecord{ID: d.ID.Hex(), UserID: d.UserID, ContactMessage: d.ContactMessage, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt}
}

func (d gitSettingsDoc) record() store.GitSettingsRecord {
	return store.GitSettingsRecord{ID: d.ID.Hex(), UserID: d.UserID, GitSettings: d.GitSettings, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt}
}
