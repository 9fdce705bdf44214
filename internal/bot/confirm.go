package bot

import (
	"sync"

	"github.com/xhrome/foodbot/internal/models"
)

// pendingActions tracks destructive operations awaiting an explicit user
// confirmation, keyed by chat. All transitions go through one mutex so two
// concurrent confirmations can never both fire.
type pendingActions struct {
	mu      sync.Mutex
	replace map[int64]models.Document
	deletes map[int64]bool
}

func newPendingActions() *pendingActions {
	return &pendingActions{
		replace: make(map[int64]models.Document),
		deletes: make(map[int64]bool),
	}
}

// setReplace retains the document that triggered a replace prompt,
// superseding any earlier candidate for the chat.
func (p *pendingActions) setReplace(chatID int64, doc models.Document) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replace[chatID] = doc
}

// takeReplace returns the retained document and clears it. The second of two
// racing confirmations gets ok=false.
func (p *pendingActions) takeReplace(chatID int64) (models.Document, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	doc, ok := p.replace[chatID]
	if ok {
		delete(p.replace, chatID)
	}
	return doc, ok
}

// clearReplace discards the retained document.
func (p *pendingActions) clearReplace(chatID int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.replace, chatID)
}

// scheduleDelete arms the delete confirmation. Returns false while a prompt
// is already pending for the chat.
func (p *pendingActions) scheduleDelete(chatID int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.deletes[chatID] {
		return false
	}
	p.deletes[chatID] = true
	return true
}

// confirmDelete disarms the pending delete and reports whether one was
// actually pending.
func (p *pendingActions) confirmDelete(chatID int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.deletes[chatID] {
		return false
	}
	delete(p.deletes, chatID)
	return true
}
