package workspace

// Pane is a display region holding an ordered list of items, one of which
// is active. All reads go through the owning workspace lock.
type Pane struct {
	ws     *Workspace
	index  int
	items  []Item
	active int
}

// Index is the pane's left-to-right position.
func (p *Pane) Index() int {
	p.ws.mu.RLock()
	defer p.ws.mu.RUnlock()
	return p.index
}

// Items returns a copy of the pane's items.
func (p *Pane) Items() []Item {
	p.ws.mu.RLock()
	defer p.ws.mu.RUnlock()
	return append([]Item(nil), p.items...)
}

// ActiveItem returns the item shown in the pane, nil when empty.
func (p *Pane) ActiveItem() Item {
	p.ws.mu.RLock()
	defer p.ws.mu.RUnlock()
	return p.activeItemLocked()
}

func (p *Pane) activeItemLocked() Item {
	if len(p.items) == 0 {
		return nil
	}
	return p.items[p.active]
}

// IsActive reports whether this pane has workspace focus.
func (p *Pane) IsActive() bool {
	p.ws.mu.RLock()
	defer p.ws.mu.RUnlock()
	return p.ws.active == p
}

// Activate gives this pane workspace focus.
func (p *Pane) Activate() {
	p.ws.mu.Lock()
	p.ws.active = p
	p.ws.mu.Unlock()
}

// ActivateItem makes item the pane's active item. It reports whether the
// item belongs to this pane.
func (p *Pane) ActivateItem(item Item) bool {
	p.ws.mu.Lock()
	defer p.ws.mu.Unlock()
	i := p.indexOfLocked(item)
	if i < 0 {
		return false
	}
	p.active = i
	return true
}

// CycleItem moves the active item by delta, wrapping around.
func (p *Pane) CycleItem(delta int) {
	p.ws.mu.Lock()
	defer p.ws.mu.Unlock()
	n := len(p.items)
	if n == 0 {
		return
	}
	p.active = ((p.active+delta)%n + n) % n
}

func (p *Pane) indexOfLocked(item Item) int {
	for i, it := range p.items {
		if it == item {
			return i
		}
	}
	return -1
}

func (p *Pane) addLocked(item Item) {
	p.items = append(p.items, item)
	p.active = len(p.items) - 1
}

func (p *Pane) removeLocked(i int) {
	p.items = append(p.items[:i], p.items[i+1:]...)
	switch {
	case len(p.items) == 0:
		p.active = 0
	case p.active > i, p.active >= len(p.items):
		p.active--
	}
}
