// Package sqlitestore stores documents in SQLite through bun. Each collection
// is a table holding the BSON document next to a JSON projection that
// pipelines are evaluated against with json_extract.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"

	"github.com/goliatone/go-records/pipeline"
	"github.com/goliatone/go-records/pkg/types"
	"github.com/goliatone/go-records/store"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"go.mongodb.org/mongo-driver/v2/bson"
)

// DriverName is the database/sql driver registered with the regexp function
// match stages rely on.
const DriverName = "sqlite3_records"

func init() {
	sql.Register(DriverName, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("regexp", regexpMatch, true)
		},
	})
}

// Open opens dsn with DriverName. In-memory databases are pinned to one
// connection so every query sees the same data.
func Open(dsn string) (*bun.DB, error) {
	sqldb, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, err
	}
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		sqldb.SetMaxOpenConns(1)
	}
	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// Config wires the SQLite driver.
type Config struct {
	DB     *bun.DB
	Logger types.Logger
}

// Driver implements store.Driver on top of bun.
type Driver struct {
	db      *bun.DB
	docs    repository.Repository[*documentRow]
	dbName  string
	logger  types.Logger
	ensured sync.Map
}

var _ store.Driver = (*Driver)(nil)

// New constructs a driver over cfg.DB.
func New(cfg Config) (*Driver, error) {
	if cfg.DB == nil {
		return nil, errors.New("sqlitestore: db required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = types.NopLogger{}
	}
	return &Driver{
		db:     cfg.DB,
		docs:   repository.NewRepository(cfg.DB, documentHandlers()),
		dbName: repository.DetectDriver(cfg.DB),
		logger: logger,
	}, nil
}

// DB returns the underlying bun handle.
func (d *Driver) DB() *bun.DB { return d.db }

// Close closes the underlying database.
func (d *Driver) Close() error { return d.db.Close() }

// EnsureCollection creates the backing table and its created_at index.
func (d *Driver) EnsureCollection(ctx context.Context, collection string) error {
	if _, ok := d.ensured.Load(collection); ok {
		return nil
	}
	if _, err := d.db.NewRaw(
		"CREATE TABLE IF NOT EXISTS ? (id TEXT PRIMARY KEY, doc BLOB NOT NULL, attrs TEXT NOT NULL)",
		bun.Ident(collection),
	).Exec(ctx); err != nil {
		return err
	}
	if _, err := d.db.NewRaw(
		"CREATE INDEX IF NOT EXISTS ? ON ? (json_extract(attrs, '$.\"created_at\"'))",
		bun.Ident(collection+"_created_at_idx"), bun.Ident(collection),
	).Exec(ctx); err != nil {
		return err
	}
	d.ensured.Store(collection, struct{}{})
	d.logger.Debug("sqlitestore: collection ready", "collection", collection)
	return nil
}

// InsertOne implements store.Driver.
func (d *Driver) InsertOne(ctx context.Context, collection string, doc store.Document) error {
	if err := d.EnsureCollection(ctx, collection); err != nil {
		return err
	}
	row, err := encode(doc)
	if err != nil {
		return err
	}
	if err := insertRow(ctx, d.db, collection, row); err != nil {
		if d.isDuplicate(err) {
			return store.DuplicateKeyError(err, collection)
		}
		return err
	}
	return nil
}

// InsertMany implements store.Driver. Rows that do not collide are committed
// even when another row of the batch does.
func (d *Driver) InsertMany(ctx context.Context, collection string, docs []store.Document) error {
	if len(docs) == 0 {
		return nil
	}
	if err := d.EnsureCollection(ctx, collection); err != nil {
		return err
	}
	rows := make([]documentRow, 0, len(docs))
	for _, doc := range docs {
		row, err := encode(doc)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	var duplicate error
	err := d.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		for _, row := range rows {
			err := insertRow(ctx, &tx, collection, row)
			if err == nil {
				continue
			}
			if !d.isDuplicate(err) {
				return err
			}
			if duplicate == nil {
				duplicate = err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if duplicate != nil {
		return store.DuplicateKeyError(duplicate, collection)
	}
	return nil
}

// ReplaceOne implements store.Driver.
func (d *Driver) ReplaceOne(ctx context.Context, collection string, doc store.Document) (store.WriteResult, error) {
	if err := d.EnsureCollection(ctx, collection); err != nil {
		return store.WriteResult{}, err
	}
	row, err := encode(doc)
	if err != nil {
		return store.WriteResult{}, err
	}
	res, err := d.db.NewUpdate().
		TableExpr("?", bun.Ident(collection)).
		Set("doc = ?", row.Doc).
		Set("attrs = ?", row.Attrs).
		Where("id = ?", row.ID).
		Exec(ctx)
	if err != nil {
		if d.isDuplicate(err) {
			return store.WriteResult{}, store.DuplicateKeyError(err, collection)
		}
		return store.WriteResult{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return store.WriteResult{}, err
	}
	return store.WriteResult{Matched: n, Modified: n}, nil
}

// DeleteOne implements store.Driver.
func (d *Driver) DeleteOne(ctx context.Context, collection, id string) (store.WriteResult, error) {
	if err := d.EnsureCollection(ctx, collection); err != nil {
		return store.WriteResult{}, err
	}
	res, err := d.db.NewDelete().
		TableExpr("?", bun.Ident(collection)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return store.WriteResult{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return store.WriteResult{}, err
	}
	return store.WriteResult{Matched: n, Deleted: n}, nil
}

// FindOne implements store.Driver.
func (d *Driver) FindOne(ctx context.Context, collection, id string) (bson.Raw, error) {
	if err := d.EnsureCollection(ctx, collection); err != nil {
		return nil, err
	}
	row, err := d.docs.Get(ctx, inCollection(collection), byDocumentID(id))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if repository.IsRecordNotFound(err) {
			return nil, store.NotFoundError(collection, id)
		}
		return nil, err
	}
	return bson.Raw(row.Doc), nil
}

// Aggregate implements store.Driver. AllowDiskUse has no SQLite counterpart.
func (d *Driver) Aggregate(ctx context.Context, collection string, p pipeline.Pipeline, _ store.AggregateOptions) ([]bson.Raw, error) {
	if err := d.EnsureCollection(ctx, collection); err != nil {
		return nil, err
	}
	plan, err := compile(d.db, collection, p)
	if err != nil {
		return nil, err
	}
	if plan.countField != "" {
		var n int64
		if err := plan.query.Scan(ctx, &n); err != nil {
			return nil, err
		}
		if n == 0 {
			return []bson.Raw{}, nil
		}
		doc, err := bson.Marshal(bson.D{{Key: plan.countField, Value: n}})
		if err != nil {
			return nil, err
		}
		return []bson.Raw{doc}, nil
	}

	var rows []documentRow
	if err := plan.query.Scan(ctx, &rows); err != nil {
		return nil, err
	}
	out := make([]bson.Raw, 0, len(rows))
	for _, row := range rows {
		out = append(out, bson.Raw(row.Doc))
	}
	return out, nil
}

func insertRow(ctx context.Context, db bun.IDB, collection string, row documentRow) error {
	_, err := db.NewRaw(
		"INSERT INTO ? (id, doc, attrs) VALUES (?, ?, ?)",
		bun.Ident(collection), row.ID, row.Doc, row.Attrs,
	).Exec(ctx)
	return err
}

func (d *Driver) isDuplicate(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return repository.IsDuplicatedKey(repository.MapDatabaseError(err, d.dbName))
}
