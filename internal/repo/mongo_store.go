// This file implements Store on MongoDB. Users embed their thought and
// friend id lists; thoughts embed their reactions. Ids are ObjectIDs on the
// wire to the database and hex strings everywhere else.
package repo

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
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"github.com/tbourn/go-social-backend/internal/domain"
)

// DefaultMongoDatabase is used when neither the URI nor the config names one.
const DefaultMongoDatabase = "socialnetworkapi"

type userDoc struct {
	ID       primitive.ObjectID   `bson:"_id"`
	Username string               `bson:"username"`
	Email    string               `bson:"email"`
	Thoughts []primitive.ObjectID `bson:"thoughts"`
	Friends  []primitive.ObjectID `bson:"friends"`
}

type thoughtDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	ThoughtText string             `bson:"thoughtText"`
	Username    string             `bson:"username"`
	CreatedAt   time.Time          `bson:"createdAt"`
	Reactions   []reactionDoc      `bson:"reactions"`
}

type reactionDoc struct {
	ReactionID   primitive.ObjectID `bson:"reactionId"`
	ReactionBody string             `bson:"reactionBody"`
	Username     string             `bson:"username"`
	CreatedAt    time.Time          `bson:"createdAt"`
}

// MongoStore is the document Store.
type MongoStore struct {
	client   *mongo.Client
	users    *mongo.Collection
	thoughts *mongo.Collection
}

var _ Store = (*MongoStore)(nil)

// OpenMongo connects, pings and ensures the unique indexes on users.
// An empty database name falls back to the URI path, then DefaultMongoDatabase.
func OpenMongo(ctx context.Context, uri, database string, timeout time.Duration) (*MongoStore, error) {
	if database == "" {
		cs, err := connstring.ParseAndValidate(uri)
		if err != nil {
			return nil, fmt.Errorf("parse mongodb uri: %w", err)
		}
		database = cs.Database
	}
	if database == "" {
		database = DefaultMongoDatabase
	}

	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	opts := options.Client().ApplyURI(uri).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}

	s := NewMongoStore(client, database)
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := s.Ping(pingCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

// NewMongoStore wraps a connected client.
func NewMongoStore(client *mongo.Client, database string) *MongoStore {
	db := client.Database(database)
	return &MongoStore{
		client:   client,
		users:    db.Collection("users"),
		thoughts: db.Collection("thoughts"),
	}
}

// EnsureIndexes creates the unique username and email indexes.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	return err
}

// Drop removes both collections. Used by tests.
func (s *MongoStore) Drop(ctx context.Context) error {
	if err := s.users.Drop(ctx); err != nil {
		return err
	}
	return s.thoughts.Drop(ctx)
}

// ---- users ----

func (s *MongoStore) ListUsers(ctx context.Context) ([]domain.User, error) {
	cur, err := s.users.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return usersFromDocs(docs), nil
}

func (s *MongoStore) GetUser(ctx context.Context, id string) (*domain.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, ErrNotFound
	}
	var d userDoc
	if err := s.users.FindOne(ctx, bson.M{"_id": oid}).Decode(&d); err != nil {
		return nil, mapFindErr(err)
	}
	u := userFromDoc(d)
	return &u, nil
}

func (s *MongoStore) FindUsers(ctx context.Context, ids []string) ([]domain.User, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []domain.User{}, nil
	}
	cur, err := s.users.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return usersFromDocs(docs), nil
}

func (s *MongoStore) CreateUser(ctx context.Context, u *domain.User) error {
	oid := primitive.NewObjectID()
	if u.ID != "" {
		var ok bool
		if oid, ok = objectID(u.ID); !ok {
			return fmt.Errorf("invalid user id %q", u.ID)
		}
	}
	d := userDoc{
		ID:       oid,
		Username: u.Username,
		Email:    u.Email,
		Thoughts: []primitive.ObjectID{},
		Friends:  []primitive.ObjectID{},
	}
	if _, err := s.users.InsertOne(ctx, d); err != nil {
		return mapMongoWriteErr(err)
	}
	u.ID = oid.Hex()
	u.ThoughtIDs, u.FriendIDs = []string{}, []string{}
	return nil
}

func (s *MongoStore) UpdateUser(ctx context.Context, id string, p domain.UserPatch) (*domain.User, error) {
	set := bson.M{}
	if p.Username != nil {
		set["username"] = *p.Username
	}
	if p.Email != nil {
		set["email"] = *p.Email
	}
	if len(set) == 0 {
		return s.GetUser(ctx, id)
	}
	return s.updateUser(ctx, id, bson.M{"$set": set})
}

func (s *MongoStore) DeleteUser(ctx context.Context, id string) (*domain.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, ErrNotFound
	}
	var d userDoc
	if err := s.users.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&d); err != nil {
		return nil, mapFindErr(err)
	}
	u := userFromDoc(d)
	return &u, nil
}

func (s *MongoStore) AddFriend(ctx context.Context, userID, friendID string) (*domain.User, error) {
	fid, ok := objectID(friendID)
	if !ok {
		return nil, ErrNotFound
	}
	return s.updateUser(ctx, userID, bson.M{"$addToSet": bson.M{"friends": fid}})
}

func (s *MongoStore) RemoveFriend(ctx context.Context, userID, friendID string) (*domain.User, error) {
	fid, ok := objectID(friendID)
	if !ok {
		return s.GetUser(ctx, userID)
	}
	return s.updateUser(ctx, userID, bson.M{"$pull": bson.M{"friends": fid}})
}

func (s *MongoStore) LinkThought(ctx context.Context, userID, thoughtID string) error {
	uid, ok := objectID(userID)
	if !ok {
		return ErrNotFound
	}
	tid, ok := objectID(thoughtID)
	if !ok {
		return fmt.Errorf("invalid thought id %q", thoughtID)
	}
	res, err := s.users.UpdateOne(ctx, bson.M{"_id": uid}, bson.M{"$addToSet": bson.M{"thoughts": tid}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) updateUser(ctx context.Context, id string, update bson.M) (*domain.User, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, ErrNotFound
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var d userDoc
	if err := s.users.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&d); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, mapMongoWriteErr(err)
	}
	u := userFromDoc(d)
	return &u, nil
}

// ---- thoughts ----

func (s *MongoStore) ListThoughts(ctx context.Context) ([]domain.Thought, error) {
	cur, err := s.thoughts.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []thoughtDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return thoughtsFromDocs(docs), nil
}

func (s *MongoStore) GetThought(ctx context.Context, id string) (*domain.Thought, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, ErrNotFound
	}
	var d thoughtDoc
	if err := s.thoughts.FindOne(ctx, bson.M{"_id": oid}).Decode(&d); err != nil {
		return nil, mapFindErr(err)
	}
	t := thoughtFromDoc(d)
	return &t, nil
}

func (s *MongoStore) FindThoughts(ctx context.Context, ids []string) ([]domain.Thought, error) {
	oids := objectIDs(ids)
	if len(oids) == 0 {
		return []domain.Thought{}, nil
	}
	cur, err := s.thoughts.Find(ctx, bson.M{"_id": bson.M{"$in": oids}})
	if err != nil {
		return nil, err
	}
	var docs []thoughtDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	return thoughtsFromDocs(docs), nil
}

func (s *MongoStore) CreateThought(ctx context.Context, t *domain.Thought) error {
	oid := primitive.NewObjectID()
	if t.ID != "" {
		var ok bool
		if oid, ok = objectID(t.ID); !ok {
			return fmt.Errorf("invalid thought id %q", t.ID)
		}
	}
	d := thoughtDoc{
		ID:          oid,
		ThoughtText: t.ThoughtText,
		Username:    t.Username,
		CreatedAt:   t.CreatedAt,
		Reactions:   make([]reactionDoc, 0, len(t.Reactions)),
	}
	for _, r := range t.Reactions {
		rd, err := reactionToDoc(r)
		if err != nil {
			return err
		}
		d.Reactions = append(d.Reactions, rd)
	}
	if _, err := s.thoughts.InsertOne(ctx, d); err != nil {
		return err
	}
	t.ID = oid.Hex()
	for i := range t.Reactions {
		t.Reactions[i].ThoughtID = t.ID
	}
	return nil
}

func (s *MongoStore) UpdateThought(ctx context.Context, id string, p domain.ThoughtPatch) (*domain.Thought, error) {
	set := bson.M{}
	if p.ThoughtText != nil {
		set["thoughtText"] = *p.ThoughtText
	}
	if p.Username != nil {
		set["username"] = *p.Username
	}
	if len(set) == 0 {
		return s.GetThought(ctx, id)
	}
	return s.updateThought(ctx, id, bson.M{"$set": set})
}

func (s *MongoStore) DeleteThought(ctx context.Context, id string) (*domain.Thought, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, ErrNotFound
	}
	var d thoughtDoc
	if err := s.thoughts.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&d); err != nil {
		return nil, mapFindErr(err)
	}
	t := thoughtFromDoc(d)
	return &t, nil
}

func (s *MongoStore) AddReaction(ctx context.Context, thoughtID string, r domain.Reaction) (*domain.Thought, error) {
	rd, err := reactionToDoc(r)
	if err != nil {
		return nil, err
	}
	return s.updateThought(ctx, thoughtID, bson.M{"$push": bson.M{"reactions": rd}})
}

func (s *MongoStore) RemoveReaction(ctx context.Context, thoughtID, reactionID string) (*domain.Thought, error) {
	rid, ok := objectID(reactionID)
	if !ok {
		return s.GetThought(ctx, thoughtID)
	}
	return s.updateThought(ctx, thoughtID, bson.M{"$pull": bson.M{"reactions": bson.M{"reactionId": rid}}})
}

func (s *MongoStore) updateThought(ctx context.Context, id string, update bson.M) (*domain.Thought, error) {
	oid, ok := objectID(id)
	if !ok {
		return nil, ErrNotFound
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var d thoughtDoc
	if err := s.thoughts.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&d); err != nil {
		return nil, mapFindErr(err)
	}
	t := thoughtFromDoc(d)
	return &t, nil
}

// ---- lifecycle ----

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// ---- mapping ----

func objectID(s string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(s)
	return oid, err == nil
}

// objectIDs converts hex ids, dropping the malformed ones.
func objectIDs(ids []string) []primitive.ObjectID {
	out := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, ok := objectID(id); ok {
			out = append(out, oid)
		}
	}
	return out
}

func hexes(oids []primitive.ObjectID) []string {
	out := make([]string, len(oids))
	for i, oid := range oids {
		out[i] = oid.Hex()
	}
	return out
}

func userFromDoc(d userDoc) domain.User {
	return domain.User{
		ID:         d.ID.Hex(),
		Username:   d.Username,
		Email:      d.Email,
		ThoughtIDs: hexes(d.Thoughts),
		FriendIDs:  hexes(d.Friends),
	}
}

func usersFromDocs(docs []userDoc) []domain.User {
	out := make([]domain.User, len(docs))
	for i, d := range docs {
		out[i] = userFromDoc(d)
	}
	return out
}

func thoughtFromDoc(d thoughtDoc) domain.Thought {
	t := domain.Thought{
		ID:          d.ID.Hex(),
		ThoughtText: d.ThoughtText,
		Username:    d.Username,
		CreatedAt:   d.CreatedAt.UTC(),
		Reactions:   make([]domain.Reaction, len(d.Reactions)),
	}
	for i, r := range d.Reactions {
		t.Reactions[i] = domain.Reaction{
			ThoughtID:    t.ID,
			ReactionID:   r.ReactionID.Hex(),
			ReactionBody: r.ReactionBody,
			Username:     r.Username,
			CreatedAt:    r.CreatedAt.UTC(),
		}
	}
	return t
}

func thoughtsFromDocs(docs []thoughtDoc) []domain.Thought {
	out := make([]domain.Thought, len(docs))
	for i, d := range docs {
		out[i] = thoughtFromDoc(d)
	}
	return out
}

func reactionToDoc(r domain.Reaction) (reactionDoc, error) {
	rid, ok := objectID(r.ReactionID)
	if !ok {
		return reactionDoc{}, fmt.Errorf("invalid reaction id %q", r.ReactionID)
	}
	return reactionDoc{
		ReactionID:   rid,
		ReactionBody: r.ReactionBody,
		Username:     r.Username,
		CreatedAt:    r.CreatedAt,
	}, nil
}

func mapFindErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}

func mapMongoWriteErr(err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return &DuplicateError{Field: duplicateField(err.Error()), Err: err}
	}
	return err
}
