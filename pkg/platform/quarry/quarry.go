package quarry

import (
	"bufio"
	"bytes"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/basalt-os/shepherd/pkg/hostos"
	"github.com/basalt-os/shepherd/pkg/logging"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var quarryBin = filepath.Join(hostos.PlatformBin, "quarry")

// quarry binds the platform to the host's quarry client, which manipulates
// updates on its behalf.
type quarry struct {
	log logging.Logger
	bin command
}

type command interface {
	CheckUpdate() (bool, error)
	PrepareUpdate() error
	ApplyUpdate() error
	BootUpdate() error
	Reboot() error
	Status() (bool, error)
}

type executable struct {
	log logging.Logger
}

func (e *executable) runOk(cmd *exec.Cmd) (bool, error) {
	cmd.SysProcAttr = hostos.ProcessAttrs()

	var buf bytes.Buffer
	writer := bufio.NewWriter(&buf)
	cmd.Stdout = writer
	cmd.Stderr = writer

	if logging.Debuggable {
		e.log.WithField("cmd", cmd.Args).Debug("executing")
	}

	if err := cmd.Start(); err != nil {
		e.log.WithFields(logrus.Fields{
			"cmd":    cmd.Args,
			"output": buf.String(),
		}).WithError(err).Error("failed to start command")
		return false, err
	}
	if err := cmd.Wait(); err != nil {
		e.log.WithFields(logrus.Fields{
			"cmd":    cmd.Args,
			"output": buf.String(),
		}).WithError(err).Error("command errored during run")
		return false, err
	}
	writer.Flush()
	// The boolean is currently only consumed by CheckUpdate: output present
	// indicates an update is available.
	return buf.Len() > 0, nil
}

func (e *executable) CheckUpdate() (bool, error) {
	return e.runOk(exec.Command(quarryBin, "check-update"))
}

func (e *executable) PrepareUpdate() error {
	_, err := e.runOk(exec.Command(quarryBin, "prepare-update"))
	return err
}

func (e *executable) ApplyUpdate() error {
	_, err := e.runOk(exec.Command(quarryBin, "apply-update"))
	return err
}

func (e *executable) BootUpdate() error {
	_, err := e.runOk(exec.Command(quarryBin, "boot-update"))
	return err
}

func (e *executable) Reboot() error {
	if hostos.Usable() {
		if err := hostos.Reboot(); err == nil {
			return nil
		} else {
			e.log.WithError(err).Warn("logind reboot failed, falling back to exec")
		}
	}
	_, err := e.runOk(exec.Command("reboot"))
	return err
}

func (e *executable) Status() (bool, error) {
	if _, err := os.Stat(hostos.RootFS + quarryBin); err != nil {
		return false, errors.Wrap(err, "quarry not found in host mount "+hostos.RootFS)
	}
	if hostos.Usable() {
		return hostos.Healthy()
	}
	return true, nil
}

func newQuarryHost(log logging.Logger) Host {
	return &quarry{log: log, bin: &executable{log: log}}
}

func (q *quarry) Status() (*statusResponse, error) {
	healthy, err := q.bin.Status()
	if err != nil {
		return nil, err
	}
	return &statusResponse{HostHealthy: healthy}, nil
}

func (q *quarry) ListAvailable() (*listAvailableResponse, error) {
	avail, err := q.bin.CheckUpdate()
	if err != nil {
		return nil, err
	}
	if !avail {
		return &listAvailableResponse{}, nil
	}
	return &listAvailableResponse{
		// TODO: deserialize quarry's report and plumb real version IDs once
		// its output format is stabilized.
		ReportedUpdates: []*availableUpdate{{ID: "POSITIVE_STUB_INDICATOR"}},
	}, nil
}

func (q *quarry) PrepareUpdate(id UpdateID) (*prepareUpdateResponse, error) {
	if err := q.bin.PrepareUpdate(); err != nil {
		return nil, err
	}
	return &prepareUpdateResponse{ID: id}, nil
}

func (q *quarry) ApplyUpdate(id UpdateID) (*applyUpdateResponse, error) {
	if err := q.bin.ApplyUpdate(); err != nil {
		return nil, err
	}
	return &applyUpdateResponse{}, nil
}

func (q *quarry) BootUpdate(id UpdateID, rebootNow bool) (*bootUpdateResponse, error) {
	if err := q.bin.BootUpdate(); err != nil {
		return nil, err
	}
	if rebootNow {
		if err := q.bin.Reboot(); err != nil {
			return nil, err
		}
	}
	return &bootUpdateResponse{}, nil
}
