package agent

import (
	"container/list"
	"sync"

	"github.com/basalt-os/shepherd/pkg/intent"
)

// postTracker records posted Intents to compare against inbound Intents, so
// the agent can ignore echoes of its own writes arriving back through the
// stream.
type postTracker struct {
	mu   sync.RWMutex
	list *list.List
}

func newPostTracker() *postTracker {
	return &postTracker{list: list.New()}
}

// recordPost retains a record of the posted Intent.
func (p *postTracker) recordPost(in *intent.Intent) {
	p.mu.Lock()
	p.list.PushBack(in.Clone())
	p.mu.Unlock()
}

// matchesPost checks for the presence of a matching tracked posted Intent.
func (p *postTracker) matchesPost(in *intent.Intent) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for elm := p.list.Front(); elm != nil; elm = elm.Next() {
		if intent.Equivalent(elm.Value.(*intent.Intent), in) {
			return true
		}
	}
	return false
}

// clear removes all tracked posted Intents.
func (p *postTracker) clear() {
	p.mu.Lock()
	p.list.Init()
	p.mu.Unlock()
}
