package orders

import (
	"sync"

	"github.com/readylabs/readyboard/internal/models"
)

// UndoBuffer holds the single most recently deleted order. Each delete
// overwrites the slot; an undo consumes it. There is no deeper history.
type UndoBuffer struct {
	mu   sync.Mutex
	snap models.DeletedOrderSnapshot
	full bool
}

// Remember stores a snapshot, replacing whatever was buffered before.
func (b *UndoBuffer) Remember(snap models.DeletedOrderSnapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snap = snap
	b.full = true
}

// Peek returns the buffered snapshot without consuming it.
func (b *UndoBuffer) Peek() (models.DeletedOrderSnapshot, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.snap, b.full
}

// Clear empties the buffer.
func (b *UndoBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.full = false
	b.snap = models.DeletedOrderSnapshot{}
}
