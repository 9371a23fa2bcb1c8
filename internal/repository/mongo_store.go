package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mansoorceksport/ironlog/internal/domain"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

const indexTimeout = 10 * time.Second

// MongoTxManager runs units of work inside a multi-document transaction.
// It requires a replica set or sharded cluster.
type MongoTxManager struct {
	client *mongo.Client
	opts   *options.TransactionOptions
}

func NewMongoTxManager(client *mongo.Client) *MongoTxManager {
	return &MongoTxManager{
		client: client,
		opts: options.Transaction().
			SetReadConcern(readconcern.Snapshot()).
			SetWriteConcern(writeconcern.Majority()),
	}
}

// WithinTx commits fn's writes atomically. A ctx that already carries a session
// joins it. Transient transaction errors are not retried here; they surface as
// a StoreError for the caller to retry.
func (m *MongoTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	ctx, span := otel.Tracer("mongo").Start(ctx, "mongo.transaction")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	sess, err := m.client.StartSession()
	if err != nil {
		return &domain.StoreError{Op: "start session", Err: err}
	}
	defer sess.EndSession(context.WithoutCancel(ctx))

	if err := sess.StartTransaction(m.opts); err != nil {
		return &domain.StoreError{Op: "start transaction", Err: err}
	}

	committed := false
	defer func() {
		if committed {
			return
		}
		if abortErr := sess.AbortTransaction(context.WithoutCancel(ctx)); abortErr != nil {
			slog.WarnContext(ctx, "abort transaction failed", "error", abortErr)
		}
	}()

	sc := mongo.NewSessionContext(ctx, sess)
	if err := fn(sc); err != nil {
		return domain.WrapStore("transaction", err)
	}
	if err := sess.CommitTransaction(sc); err != nil {
		return &domain.StoreError{Op: "commit transaction", Err: err}
	}
	committed = true
	return nil
}

// NewMongoStore wires every Mongo repository into a domain.Store.
func NewMongoStore(client *mongo.Client, db *mongo.Database) *domain.Store {
	return &domain.Store{
		Tx:               NewMongoTxManager(client),
		Sessions:         NewMongoWorkoutSessionRepository(db),
		Sets:             NewMongoSetLogRepository(db),
		Records:          NewMongoPersonalRecordRepository(db),
		Exercises:        NewMongoExerciseRepository(db),
		Plans:            NewMongoPlanRepository(db),
		Achievements:     NewMongoAchievementRepository(db),
		UserAchievements: NewMongoUserAchievementRepository(db),
		Challenges:       NewMongoChallengeRepository(db),
		Participants:     NewMongoChallengeParticipantRepository(db),
		Stats:            NewMongoUserStatsRepository(db),
	}
}

func ensureIndexes(coll *mongo.Collection, models ...mongo.IndexModel) {
	ctx, cancel := context.WithTimeout(context.Background(), indexTimeout)
	defer cancel()

	if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
		slog.Warn("failed to create indexes", "collection", coll.Name(), "error", err)
	}
}

// findErr maps a missing document to notFound and wraps everything else.
func findErr(op string, err error, notFound error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return notFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
