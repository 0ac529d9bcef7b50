// Package hostos integrates with the Basalt host from inside the agent's
// container: platform binaries run chrooted into the host filesystem and
// host services are reached over the host's D-Bus socket.
package hostos

import "syscall"

// RootFS is where the Basalt host's root filesystem is mounted into the
// agent's container.
const RootFS = "/.basalt/rootfs"

// PlatformBin is where platform interfacing executables are located on the
// host.
const PlatformBin = "/usr/bin"

// ProcessAttrs may be used to exec a process from PlatformBin in the host's
// filesystem.
func ProcessAttrs() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		Chroot: RootFS,
	}
}
