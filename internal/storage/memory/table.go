package memory

import (
	"sort"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

// table — универсальный in-memory шлюз одиночных записей поверх Store.
// refs проверяет ссылки записи перед вставкой/обновлением, inUse —
// входящие ссылки перед удалением; обе необязательны.
type table[T any] struct {
	store *Store
	seq   string
	rows  func() map[int64]T
	setID func(e *T, id int64)
	refs  func(e T) error
	inUse func(id int64) bool
}

func (t *table[T]) Insert(entity T) (T, error) {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	var zero T
	if t.refs != nil {
		if err := t.refs(entity); err != nil {
			return zero, err
		}
	}

	id := t.store.issueID(t.seq)
	t.setID(&entity, id)
	t.rows()[id] = entity
	return entity, nil
}

func (t *table[T]) Get(id int64) (T, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	entity, ok := t.rows()[id]
	if !ok {
		var zero T
		return zero, domain.ErrEntityNotFound
	}
	return entity, nil
}

func (t *table[T]) List() ([]T, error) {
	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	rows := t.rows()
	ids := make([]int64, 0, len(rows))
	for id := range rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	result := make([]T, 0, len(ids))
	for _, id := range ids {
		result = append(result, rows[id])
	}
	return result, nil
}

func (t *table[T]) Update(id int64, entity T) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	if _, ok := t.rows()[id]; !ok {
		return domain.ErrEntityNotFound
	}
	if t.refs != nil {
		if err := t.refs(entity); err != nil {
			return err
		}
	}

	t.setID(&entity, id)
	t.rows()[id] = entity
	return nil
}

func (t *table[T]) Delete(id int64) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	if _, ok := t.rows()[id]; !ok {
		return domain.ErrEntityNotFound
	}
	if t.inUse != nil && t.inUse(id) {
		return domain.ErrEntityInUse
	}

	delete(t.rows(), id)
	return nil
}
