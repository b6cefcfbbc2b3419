package roboclaw

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// USBDEVFS_RESET ioctl, _IO('U', 20).
const usbdevfsReset = 0x5514

// ResetUSB performs a USB-level reset of the device behind the serial port.
// The cdc_acm driver has been seen to wedge the file descriptor when the
// controller sends a protocol error; re-enumerating the device is the only
// way to recover.  The port must be re-opened afterwards.
func (c *RoboClaw) ResetUSB() error {
	if c.port != nil {
		_ = c.port.Close()
		c.port = nil
	}

	devPath, err := usbDevicePath(c.portName)
	if err != nil {
		return err
	}
	fmt.Println("RoboClaw: resetting USB device", devPath)

	f, err := os.OpenFile(devPath, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", devPath, err)
	}
	defer f.Close()

	_, _, errno := unix.Syscall(unix.SYS_IOCTL, f.Fd(), usbdevfsReset, 0)
	if errno != 0 {
		return fmt.Errorf("USBDEVFS_RESET on %s: %w", devPath, errno)
	}
	return nil
}

// usbDevicePath maps a tty device node (e.g. /dev/ttyACM0) to its usbfs node
// (e.g. /dev/bus/usb/001/004) by walking sysfs.  The tty's sysfs device entry
// is the USB interface; its parent is the USB device carrying busnum/devnum.
func usbDevicePath(portName string) (string, error) {
	tty := filepath.Base(portName)
	usbDev := filepath.Join("/sys/class/tty", tty, "device", "..")
	busnum, err := readSysfsInt(filepath.Join(usbDev, "busnum"))
	if err != nil {
		return "", err
	}
	devnum, err := readSysfsInt(filepath.Join(usbDev, "devnum"))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("/dev/bus/usb/%03d/%03d", busnum, devnum), nil
}

func readSysfsInt(path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read %s: %w", path, err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0, fmt.Errorf("bad value in %s: %w", path, err)
	}
	return n, nil
}
