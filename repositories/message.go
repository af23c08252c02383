package repositories

import (
	"artisan-link/domain"
	"artisan-link/errors"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

const sequenceBandwidth = 100

type IMessageRepository interface {
	StoreMessage(message domain.Message) (domain.Message, error)
	GetMessage(id uuid.UUID) (domain.Message, error)
	UpdateMessage(id uuid.UUID, mutate func(*domain.Message) error) (domain.Message, error)
	DeleteMessage(id uuid.UUID, guard func(domain.Message) error) (domain.Message, error)
	GetMessages(connectionID uuid.UUID) ([]domain.Message, error)
	MarkRead(connectionID uuid.UUID, readerID string) ([]uuid.UUID, error)
}

type MessageRepository struct {
	db       *badger.DB
	log      *slog.Logger
	sequence *badger.Sequence
}

func NewMessageRepository(db *badger.DB, log *slog.Logger) (*MessageRepository, error) {
	sequence, err := db.GetSequence([]byte("seq:msg"), sequenceBandwidth)
	if err != nil {
		return nil, fmt.Errorf("message sequence: %w", err)
	}
	return &MessageRepository{db: db, log: log, sequence: sequence}, nil
}

// Close hands the leased sequence range back to Badger.
func (m *MessageRepository) Close() error {
	return m.sequence.Release()
}

func messagePrefix(connectionID uuid.UUID) []byte {
	return []byte(fmt.Sprintf("msg:%s:", connectionID))
}

// messageKey is formatted as "msg:{connection_id}:{timestamp_padded}:{sequence_padded}" so that
// a prefix scan returns a conversation in (createdAt, sequence) order. Two messages
// created in the same nanosecond are kept apart by the sequence.
func messageKey(message domain.Message) []byte {
	return []byte(fmt.Sprintf("msg:%s:%019d:%020d",
		message.ConnectionID,
		message.CreatedAt.UnixNano(),
		message.Sequence,
	))
}

func messageIndexKey(id uuid.UUID) []byte {
	return []byte("idx:msg:" + id.String())
}

// StoreMessage assigns the next sequence number and persists the message with its id index.
func (m *MessageRepository) StoreMessage(message domain.Message) (domain.Message, error) {
	seq, err := m.sequence.Next()
	if err != nil {
		return domain.Message{}, fmt.Errorf("next message sequence: %w", err)
	}
	message.Sequence = seq
	if message.ReadBy == nil {
		message.ReadBy = []string{}
	}
	data, err := json.Marshal(message)
	if err != nil {
		return domain.Message{}, err
	}
	key := messageKey(message)
	err = m.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(messageIndexKey(message.ID), key); err != nil {
			return err
		}
		return txn.Set(key, data)
	})
	return message, err
}

func (m *MessageRepository) GetMessage(id uuid.UUID) (domain.Message, error) {
	var message domain.Message
	err := m.db.View(func(txn *badger.Txn) error {
		var err error
		message, _, err = getMessage(txn, id)
		return err
	})
	return message, err
}

// UpdateMessage applies mutate inside a read-write transaction. The primary key
// depends only on immutable fields, so it is rewritten in place.
func (m *MessageRepository) UpdateMessage(id uuid.UUID, mutate func(*domain.Message) error) (domain.Message, error) {
	var message domain.Message
	err := updateWithConflictReplay(m.db, m.log, func(txn *badger.Txn) error {
		var (
			key []byte
			err error
		)
		message, key, err = getMessage(txn, id)
		if err != nil {
			return err
		}
		if err = mutate(&message); err != nil {
			return err
		}
		data, err := json.Marshal(message)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
	return message, err
}

// DeleteMessage hard-removes the message and its index once guard accepts it.
// It returns the removed message.
func (m *MessageRepository) DeleteMessage(id uuid.UUID, guard func(domain.Message) error) (domain.Message, error) {
	var message domain.Message
	err := updateWithConflictReplay(m.db, m.log, func(txn *badger.Txn) error {
		var (
			key []byte
			err error
		)
		message, key, err = getMessage(txn, id)
		if err != nil {
			return err
		}
		if err = guard(message); err != nil {
			return err
		}
		if err = txn.Delete(messageIndexKey(id)); err != nil {
			return err
		}
		return txn.Delete(key)
	})
	return message, err
}

// GetMessages returns the whole conversation in ascending (createdAt, sequence) order.
func (m *MessageRepository) GetMessages(connectionID uuid.UUID) ([]domain.Message, error) {
	messages := make([]domain.Message, 0)
	err := m.db.View(func(txn *badger.Txn) error {
		prefix := messagePrefix(connectionID)
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var message domain.Message
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &message)
			})
			if err != nil {
				return err
			}
			messages = append(messages, message)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkRead adds the reader to readBy on every message of the conversation it did not author.
// It returns the ids of the messages that changed, so a repeated call returns none.
func (m *MessageRepository) MarkRead(connectionID uuid.UUID, readerID string) ([]uuid.UUID, error) {
	var changed []uuid.UUID
	err := updateWithConflictReplay(m.db, m.log, func(txn *badger.Txn) error {
		changed = nil
		writes, err := collectUnread(txn, connectionID, readerID)
		if err != nil {
			return err
		}
		for _, w := range writes {
			if err := txn.Set(w.key, w.data); err != nil {
				return err
			}
			changed = append(changed, w.id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return changed, nil
}

type readWrite struct {
	id   uuid.UUID
	key  []byte
	data []byte
}

// collectUnread closes its iterator before the caller writes in the same transaction.
func collectUnread(txn *badger.Txn, connectionID uuid.UUID, readerID string) ([]readWrite, error) {
	prefix := messagePrefix(connectionID)
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	var writes []readWrite
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		item := it.Item()
		var message domain.Message
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &message)
		}); err != nil {
			return nil, err
		}
		if !message.MarkReadBy(readerID) {
			continue
		}
		data, err := json.Marshal(message)
		if err != nil {
			return nil, err
		}
		writes = append(writes, readWrite{id: message.ID, key: item.KeyCopy(nil), data: data})
	}
	return writes, nil
}

func getMessage(txn *badger.Txn, id uuid.UUID) (domain.Message, []byte, error) {
	var message domain.Message
	index, err := txn.Get(messageIndexKey(id))
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return message, nil, fmt.Errorf("%w: message %s", errors.ErrNotFound, id)
	}
	if err != nil {
		return message, nil, err
	}
	key, err := index.ValueCopy(nil)
	if err != nil {
		return message, nil, err
	}
	item, err := txn.Get(key)
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return message, nil, fmt.Errorf("%w: message %s", errors.ErrNotFound, id)
	}
	if err != nil {
		return message, nil, err
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &message)
	})
	return message, key, err
}
