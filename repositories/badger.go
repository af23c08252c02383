package repositories

import (
	stderrors "errors"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

const maxConflictReplays = 5

func updateWithConflictReplay(db *badger.DB, log *slog.Logger, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxConflictReplays; attempt++ {
		err = db.Update(fn)
		if !stderrors.Is(err, badger.ErrConflict) {
			return err
		}
		log.Debug("Transaction conflict, replaying", "attempt", attempt+1)
	}
	return err
}
