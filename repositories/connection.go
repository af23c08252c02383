package repositories

import (
	"artisan-link/domain"
	"artisan-link/errors"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

type IConnectionRepository interface {
	Create(conn domain.Connection) error
	Get(id uuid.UUID) (domain.Connection, error)
	Update(id uuid.UUID, mutate func(*domain.Connection) error) (domain.Connection, error)
	Delete(id uuid.UUID, guard func(domain.Connection) error) error
	ListByActor(role domain.Role, actorID string) ([]domain.Connection, error)
}

type ConnectionRepository struct {
	db  *badger.DB
	log *slog.Logger
}

func NewConnectionRepository(db *badger.DB, log *slog.Logger) *ConnectionRepository {
	return &ConnectionRepository{db: db, log: log}
}

func connectionKey(id uuid.UUID) []byte {
	return []byte("conn:" + id.String())
}

// idSegment writes an opaque actor id as "{len}:{id}" so ids holding ':' can
// neither collide with another pair nor spill into another actor's prefix.
func idSegment(id string) string {
	return fmt.Sprintf("%d:%s", len(id), id)
}

// pairKey enforces one connection per ordered (ngo, artisan) pair.
func pairKey(ngoID, artisanID string) []byte {
	return []byte("pair:" + idSegment(ngoID) + ":" + idSegment(artisanID))
}

func actorIndexPrefix(role domain.Role, actorID string) []byte {
	return []byte(fmt.Sprintf("idx:%s:%s:", role, idSegment(actorID)))
}

func actorIndexKeys(conn domain.Connection) [][]byte {
	return [][]byte{
		append(actorIndexPrefix(domain.RoleNGO, conn.NGOID), conn.ID.String()...),
		append(actorIndexPrefix(domain.RoleArtisan, conn.ArtisanID), conn.ID.String()...),
	}
}

// Create stores a pending connection together with its pair and actor index keys.
// The pair check and the writes share one transaction, so two concurrent requests
// for the same pair cannot both succeed.
func (r *ConnectionRepository) Create(conn domain.Connection) error {
	data, err := json.Marshal(conn)
	if err != nil {
		return err
	}
	return r.update(func(txn *badger.Txn) error {
		_, err := txn.Get(pairKey(conn.NGOID, conn.ArtisanID))
		switch {
		case err == nil:
			return fmt.Errorf("%w: a connection already exists between %s and %s",
				errors.ErrDuplicateRequest, conn.NGOID, conn.ArtisanID)
		case !stderrors.Is(err, badger.ErrKeyNotFound):
			return err
		}
		if err := txn.Set(pairKey(conn.NGOID, conn.ArtisanID), []byte(conn.ID.String())); err != nil {
			return err
		}
		for _, key := range actorIndexKeys(conn) {
			if err := txn.Set(key, nil); err != nil {
				return err
			}
		}
		return txn.Set(connectionKey(conn.ID), data)
	})
}

func (r *ConnectionRepository) Get(id uuid.UUID) (domain.Connection, error) {
	var conn domain.Connection
	err := r.db.View(func(txn *badger.Txn) error {
		var err error
		conn, err = getConnection(txn, id)
		return err
	})
	return conn, err
}

// Update applies mutate to the stored connection inside a read-write transaction.
// If mutate fails nothing is written.
func (r *ConnectionRepository) Update(id uuid.UUID, mutate func(*domain.Connection) error) (domain.Connection, error) {
	var conn domain.Connection
	err := r.update(func(txn *badger.Txn) error {
		var err error
		conn, err = getConnection(txn, id)
		if err != nil {
			return err
		}
		if err = mutate(&conn); err != nil {
			return err
		}
		data, err := json.Marshal(conn)
		if err != nil {
			return err
		}
		return txn.Set(connectionKey(id), data)
	})
	return conn, err
}

// Delete removes the connection and its index keys once guard accepts it.
// Removing the pair key lets the NGO send a new request after a cancellation.
func (r *ConnectionRepository) Delete(id uuid.UUID, guard func(domain.Connection) error) error {
	return r.update(func(txn *badger.Txn) error {
		conn, err := getConnection(txn, id)
		if err != nil {
			return err
		}
		if err = guard(conn); err != nil {
			return err
		}
		keys := append(actorIndexKeys(conn), pairKey(conn.NGOID, conn.ArtisanID), connectionKey(id))
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListByActor returns the connections where the actor stands on the given side,
// most recent first.
func (r *ConnectionRepository) ListByActor(role domain.Role, actorID string) ([]domain.Connection, error) {
	var connections []domain.Connection
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := actorIndexPrefix(role, actorID)
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			id, err := uuid.ParseBytes(it.Item().Key()[len(prefix):])
			if err != nil {
				return fmt.Errorf("corrupted index key %q: %w", it.Item().Key(), err)
			}
			conn, err := getConnection(txn, id)
			if stderrors.Is(err, errors.ErrNotFound) {
				r.log.Warn("Dangling connection index", "id", id, "actor", actorID)
				continue
			}
			if err != nil {
				return err
			}
			connections = append(connections, conn)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(connections, func(i, j int) bool {
		return connections[i].CreatedAt.After(connections[j].CreatedAt)
	})
	return connections, nil
}

// update runs fn in a read-write transaction and replays it when Badger
// reports a conflict with a concurrent transaction, so fn always decides on fresh data.
func (r *ConnectionRepository) update(fn func(txn *badger.Txn) error) error {
	return updateWithConflictReplay(r.db, r.log, fn)
}

func getConnection(txn *badger.Txn, id uuid.UUID) (domain.Connection, error) {
	var conn domain.Connection
	item, err := txn.Get(connectionKey(id))
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return conn, fmt.Errorf("%w: connection %s", errors.ErrNotFound, id)
	}
	if err != nil {
		return conn, err
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &conn)
	})
	return conn, err
}
