package netio

import (
	"net"

	"golang.org/x/sys/unix"
)

// TuneBuffers raises the UDP socket's kernel receive/send buffer sizes via
// a raw SO_RCVBUF/SO_SNDBUF setsockopt call, the same syscall
// net.UDPConn.SetReadBuffer/SetWriteBuffer make. It returns the first
// setsockopt error; a request above the kernel's net.core.* maximum is
// capped by the kernel without an error, so the resulting size is not
// checked here.
func TuneBuffers(conn *net.UDPConn, readBytes, writeBytes int) error {
	raw, err := conn.SyscallConn()
	if err != nil {
		return err
	}

	var sockErr error
	err = raw.Control(func(fd uintptr) {
		if e := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF, readBytes); e != nil {
			sockErr = e
			return
		}
		sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_SNDBUF, writeBytes)
	})
	if err != nil {
		return err
	}
	return sockErr
}
