package share

import (
	"fmt"
	"strings"
	"sync"

	"github.com/emirpasic/gods/maps/linkedhashmap"
)

// Registry lists the shares and queues of one program for diagnostics. The
// embedding program owns it and hands it to whatever reports on it.
type Registry struct {
	mu     sync.RWMutex
	items  *linkedhashmap.Map // name -> Item, in registration order
	serial map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		items:  linkedhashmap.New(),
		serial: make(map[string]int),
	}
}

// Add registers it. An unnamed item gets a default name such as "Queue0".
// A rejected item is left untouched.
func (r *Registry) Add(it Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name, kind := it.Name(), it.kind()
	generated := name == ""
	if generated {
		name = fmt.Sprintf("%s%d", kind, r.serial[kind])
	}
	if _, dup := r.items.Get(name); dup {
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	if generated {
		it.setName(name)
		r.serial[kind]++
	}
	r.items.Put(name, it)
	return nil
}

// Get looks an item up by name.
func (r *Registry) Get(name string) (Item, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.items.Get(name)
	if !ok {
		return nil, false
	}
	return v.(Item), true
}

// Items returns every item in registration order.
func (r *Registry) Items() []Item {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Item, 0, r.items.Size())
	it := r.items.Iterator()
	for it.Next() {
		out = append(out, it.Value().(Item))
	}
	return out
}

// Buffers returns the registered queues in registration order.
func (r *Registry) Buffers() []Buffer {
	var out []Buffer
	for _, it := range r.Items() {
		if b, ok := it.(Buffer); ok {
			out = append(out, b)
		}
	}
	return out
}

// Len returns the number of registered items.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.items.Size()
}

// String lists every item, one per line.
func (r *Registry) String() string {
	items := r.Items()
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = it.String()
	}
	return strings.Join(lines, "\n")
}
