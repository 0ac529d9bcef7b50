package agent

import "github.com/basalt-os/shepherd/pkg/platform"

// progression tracks the update target carried across the prepare, perform,
// and reboot steps of a single update round.
type progression struct {
	target platform.Update
}

func (p *progression) SetTarget(t platform.Update) {
	p.target = t
}

func (p *progression) GetTarget() platform.Update {
	return p.target
}

func (p *progression) Reset() {
	p.target = nil
}

func (p *progression) Valid() bool {
	return p.target != nil
}
