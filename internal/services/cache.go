package services

import (
	"encoding/json"
	"sync"
)

// referenceCache хранит редко меняющиеся справочники (типы, статусы)
// на время жизни процесса. Записи неизменяемы; при гонке двух первых
// выборок одного вида побеждает последняя запись.
type referenceCache struct {
	mu      sync.RWMutex
	entries map[string][]json.RawMessage
}

func newReferenceCache() *referenceCache {
	return &referenceCache{
		entries: make(map[string][]json.RawMessage),
	}
}

// get возвращает копию закэшированной записи.
func (c *referenceCache) get(kind string) ([]json.RawMessage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[kind]
	if !ok {
		return nil, false
	}

	out := make([]json.RawMessage, len(entry))
	copy(out, entry)
	return out, true
}

// put сохраняет запись, перезаписывая предыдущую.
func (c *referenceCache) put(kind string, elements []json.RawMessage) {
	entry := make([]json.RawMessage, len(elements))
	copy(entry, elements)

	c.mu.Lock()
	c.entries[kind] = entry
	c.mu.Unlock()
}

// invalidate сбрасывает запись указанного вида.
func (c *referenceCache) invalidate(kind string) {
	c.mu.Lock()
	delete(c.entries, kind)
	c.mu.Unlock()
}
