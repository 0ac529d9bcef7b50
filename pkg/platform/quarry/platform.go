package quarry

import (
	"github.com/basalt-os/shepherd/pkg/logging"
	"github.com/basalt-os/shepherd/pkg/platform"
	"github.com/pkg/errors"
)

// Assert quarry as a platform implementor.
var _ platform.Platform = (*Platform)(nil)

type Platform struct {
	log  logging.Logger
	host Host
}

func New(log logging.Logger) (*Platform, error) {
	return &Platform{log: log, host: newQuarryHost(log)}, nil
}

// Status reports the underlying platform's health and metadata.
func (p *Platform) Status() (platform.Status, error) {
	p.log.Debug("querying status")
	return p.host.Status()
}

// ListAvailable provides the list of updates that the platform is offering
// for use.
func (p *Platform) ListAvailable() (platform.Available, error) {
	p.log.Debug("fetching list of available updates")
	return p.host.ListAvailable()
}

// Prepare causes the platform to take steps towards an update without
// committing to it.
func (p *Platform) Prepare(target platform.Update) error {
	p.log.Debug("preparing update")
	id, err := targetID(target)
	if err != nil {
		return err
	}
	_, err = p.host.PrepareUpdate(id)
	return err
}

// Update causes the platform to commit to an update - potentially taking
// irreversible steps to do so.
func (p *Platform) Update(target platform.Update) error {
	p.log.Debug("performing update")
	id, err := targetID(target)
	if err != nil {
		return err
	}
	_, err = p.host.ApplyUpdate(id)
	return err
}

// BootUpdate causes the platform to configure itself to use the update on
// next boot, optionally rebooting immediately.
func (p *Platform) BootUpdate(target platform.Update, rebootNow bool) error {
	if rebootNow {
		p.log.Debug("marking update and rebooting")
	} else {
		p.log.Debug("marking update for next boot")
	}
	id, err := targetID(target)
	if err != nil {
		return err
	}
	_, err = p.host.BootUpdate(id, rebootNow)
	return err
}

// Updates satisfies platform.Available for quarry's report.
func (l *listAvailableResponse) Updates() []platform.Update {
	ups := make([]platform.Update, 0, len(l.ReportedUpdates))
	for _, u := range l.ReportedUpdates {
		ups = append(ups, u)
	}
	return ups
}

func targetID(target platform.Update) (UpdateID, error) {
	id, ok := target.Identifier().(UpdateID)
	if !ok {
		return "", errors.Errorf("provided incompatible target identifier %v", target.Identifier())
	}
	return id, nil
}
