package sync

import (
	"time"

	"github.com/dyzdyz010/voxworld/internal/protocol"
	"github.com/dyzdyz010/voxworld/internal/vec"
	"github.com/dyzdyz010/voxworld/internal/world"
	"github.com/dyzdyz010/voxworld/internal/world/domain"
)

// Recorder перехватывает flush журналов мира и дублирует их
// в BatchManager для рассылки на другие узлы. Реализует
// world.Persister поверх настоящего хранилища.
type Recorder struct {
	inner world.Persister
	bm    *BatchManager
}

// NewRecorder оборачивает хранилище записью в шину синхронизации.
// inner может быть nil: тогда журналы только рассылаются.
func NewRecorder(inner world.Persister, bm *BatchManager) *Recorder {
	return &Recorder{inner: inner, bm: bm}
}

// SaveChanges пишет журнал в хранилище и ставит пакет в очередь отправки
func (r *Recorder) SaveChanges(coords vec.Vec3, ops []domain.ChangeOp) error {
	if r.inner != nil {
		if err := r.inner.SaveChanges(coords, ops); err != nil {
			return err
		}
	}

	data, err := protocol.EncodeBatch(coords, ops)
	if err != nil {
		return err
	}
	r.bm.AddChange(Change{
		Data:      data,
		Priority:  5,
		Timestamp: time.Now().UTC(),
	})
	return nil
}

// LoadChanges читает журнал из хранилища
func (r *Recorder) LoadChanges(coords vec.Vec3) ([]domain.ChangeOp, error) {
	if r.inner == nil {
		return nil, nil
	}
	return r.inner.LoadChanges(coords)
}
