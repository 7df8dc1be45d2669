package storage

import (
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v3"
	"github.com/dyzdyz010/voxworld/internal/logging"
	"github.com/dyzdyz010/voxworld/internal/protocol"
	"github.com/dyzdyz010/voxworld/internal/vec"
	"github.com/dyzdyz010/voxworld/internal/world/domain"
)

// WorldStorage долговременное хранилище журналов изменений чанков
// поверх BadgerDB. Каждый flush чанка пишется отдельным пакетом под
// монотонным номером; загрузка проигрывает пакеты в порядке номеров.
//
// Ключи:
//
//	log:{x}:{y}:{z}:{seq%010d} — пакет журнала изменений
//	seq:{x}:{y}:{z}            — следующий номер пакета
type WorldStorage struct {
	db      *badger.DB
	mutex   sync.Mutex
	isReady bool
}

// NewWorldStorage открывает хранилище мира в указанном каталоге
func NewWorldStorage(dataPath string) (*WorldStorage, error) {
	opts := badger.DefaultOptions(dataPath)
	opts.Logger = nil // BadgerDB шумит в свой логгер, глушим

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	return &WorldStorage{db: db, isReady: true}, nil
}

// Close закрывает хранилище
func (ws *WorldStorage) Close() error {
	ws.mutex.Lock()
	defer ws.mutex.Unlock()

	if !ws.isReady {
		return nil
	}
	ws.isReady = false
	return ws.db.Close()
}

func logPrefix(coords vec.Vec3) []byte {
	return []byte(fmt.Sprintf("log:%d:%d:%d:", coords.X, coords.Y, coords.Z))
}

func logKey(coords vec.Vec3, seq uint64) []byte {
	return []byte(fmt.Sprintf("log:%d:%d:%d:%010d", coords.X, coords.Y, coords.Z, seq))
}

func seqKey(coords vec.Vec3) []byte {
	return []byte(fmt.Sprintf("seq:%d:%d:%d", coords.X, coords.Y, coords.Z))
}

// SaveChanges дописывает пакет журнала изменений чанка
func (ws *WorldStorage) SaveChanges(coords vec.Vec3, ops []domain.ChangeOp) error {
	ws.mutex.Lock()
	defer ws.mutex.Unlock()

	if !ws.isReady {
		return fmt.Errorf("хранилище не готово")
	}
	if len(ops) == 0 {
		return nil
	}

	data, err := protocol.EncodeBatch(coords, ops)
	if err != nil {
		return fmt.Errorf("сериализация журнала %v: %w", coords, err)
	}

	return ws.db.Update(func(txn *badger.Txn) error {
		seq, err := nextSeq(txn, coords)
		if err != nil {
			return err
		}
		if err := txn.Set(logKey(coords, seq), data); err != nil {
			return err
		}
		return txn.Set(seqKey(coords), []byte(fmt.Sprintf("%d", seq+1)))
	})
}

// nextSeq читает следующий номер пакета для чанка
func nextSeq(txn *badger.Txn, coords vec.Vec3) (uint64, error) {
	item, err := txn.Get(seqKey(coords))
	if err == badger.ErrKeyNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	var seq uint64
	err = item.Value(func(val []byte) error {
		_, scanErr := fmt.Sscanf(string(val), "%d", &seq)
		return scanErr
	})
	return seq, err
}

// LoadChanges возвращает полный журнал изменений чанка в порядке записи
func (ws *WorldStorage) LoadChanges(coords vec.Vec3) ([]domain.ChangeOp, error) {
	ws.mutex.Lock()
	defer ws.mutex.Unlock()

	if !ws.isReady {
		return nil, fmt.Errorf("хранилище не готово")
	}

	var all []domain.ChangeOp
	err := ws.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := logPrefix(coords)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				_, ops, decErr := protocol.DecodeBatch(val)
				if decErr != nil {
					return decErr
				}
				all = append(all, ops...)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("чтение журнала %v: %w", coords, err)
	}
	return all, nil
}

// Compact сливает все пакеты чанка в один. Журнал append-only
// растёт с каждым flush; уплотнение сохраняет семантику наката,
// но убирает промежуточные пакеты.
func (ws *WorldStorage) Compact(coords vec.Vec3) error {
	ws.mutex.Lock()
	defer ws.mutex.Unlock()

	if !ws.isReady {
		return fmt.Errorf("хранилище не готово")
	}

	var all []domain.ChangeOp
	var keys [][]byte

	err := ws.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := logPrefix(coords)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
			err := it.Item().Value(func(val []byte) error {
				_, ops, decErr := protocol.DecodeBatch(val)
				if decErr != nil {
					return decErr
				}
				all = append(all, ops...)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if len(keys) <= 1 {
		return nil
	}

	data, err := protocol.EncodeBatch(coords, all)
	if err != nil {
		return err
	}

	err = ws.db.Update(func(txn *badger.Txn) error {
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		if err := txn.Set(logKey(coords, 0), data); err != nil {
			return err
		}
		return txn.Set(seqKey(coords), []byte("1"))
	})
	if err != nil {
		return err
	}

	logging.Debug("Журнал чанка %v уплотнён: %d пакетов -> 1 (%d записей)", coords, len(keys), len(all))
	return nil
}

// Chunks перечисляет координаты чанков, имеющих сохранённый журнал
func (ws *WorldStorage) Chunks() ([]vec.Vec3, error) {
	ws.mutex.Lock()
	defer ws.mutex.Unlock()

	if !ws.isReady {
		return nil, fmt.Errorf("хранилище не готово")
	}

	seen := make(map[vec.Vec3]struct{})
	var out []vec.Vec3

	err := ws.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte("log:")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var c vec.Vec3
			var seq uint64
			if _, err := fmt.Sscanf(string(it.Item().Key()), "log:%d:%d:%d:%d", &c.X, &c.Y, &c.Z, &seq); err != nil {
				continue
			}
			if _, ok := seen[c]; !ok {
				seen[c] = struct{}{}
				out = append(out, c)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
