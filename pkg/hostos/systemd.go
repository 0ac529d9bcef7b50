package hostos

import (
	"os"
	"path/filepath"
	"strconv"

	systemd "github.com/coreos/go-systemd/v22/dbus"
	dbus "github.com/godbus/dbus/v5"
	"github.com/pkg/errors"
)

var (
	systemdSocket = filepath.Join(RootFS, "/run/systemd/private")
	systemBus     = filepath.Join(RootFS, "/run/dbus/system_bus_socket")
)

const healthySystemState = "running"

// Usable reports whether the host's systemd is reachable from this
// environment. Needs root and the host's systemd socket mounted in.
func Usable() bool {
	if os.Geteuid() != 0 {
		return false
	}
	stat, err := os.Stat(systemdSocket)
	if err != nil {
		return false
	}
	return stat.Mode()&os.ModeSocket == os.ModeSocket
}

// Healthy probes the host systemd's overall state. A degraded or
// transitioning host is not healthy; callers use this to settle the node
// before reporting it ready.
func Healthy() (bool, error) {
	conn, err := connectSystemd()
	if err != nil {
		return false, err
	}
	defer conn.Close()

	prop, err := conn.SystemState()
	if err != nil {
		return false, errors.Wrap(err, "unable to query host system state")
	}
	state, ok := prop.Value.Value().(string)
	if !ok {
		return false, errors.Errorf("unable to handle queried property: %q", prop)
	}
	return state == healthySystemState, nil
}

// Reboot asks the host's logind to reboot. The call is best-effort from the
// caller's perspective; a scheduled reboot terminates this process.
func Reboot() error {
	conn, err := dialHostBus(systemBus)
	if err != nil {
		return errors.WithMessage(err, "unable to reach host system bus")
	}
	defer conn.Close()
	// The message bus requires a Hello before method calls; systemd's
	// private socket does not.
	if err := conn.Hello(); err != nil {
		return errors.Wrap(err, "unable to register on host bus")
	}

	logind := conn.Object("org.freedesktop.login1", dbus.ObjectPath("/org/freedesktop/login1"))
	call := logind.Call("org.freedesktop.login1.Manager.Reboot", 0, false)
	return errors.Wrap(call.Err, "logind reboot call failed")
}

func connectSystemd() (*systemd.Conn, error) {
	return systemd.NewConnection(func() (*dbus.Conn, error) {
		return dialHostBus(systemdSocket)
	})
}

// dialHostBus connects and authenticates against a bus socket in the host's
// filesystem, from outside the host's mount namespace.
func dialHostBus(socket string) (*dbus.Conn, error) {
	conn, err := dbus.Dial("unix:path=" + socket)
	if err != nil {
		return nil, errors.Wrap(err, "unable to connect to host bus socket")
	}
	methods := []dbus.Auth{dbus.AuthExternal(strconv.Itoa(os.Getuid()))}
	if err := conn.Auth(methods); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "unable to authenticate with host bus")
	}
	return conn, nil
}
