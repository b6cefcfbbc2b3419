package roboclaw

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

// DefaultAddr is the packet-serial address the controller ships with.
const DefaultAddr = 0x80

// Packet-serial command bytes.
const (
	cmdSetM1PID     = 28
	cmdSetM2PID     = 29
	cmdReadISpeedM1 = 30
	cmdReadISpeedM2 = 31
	cmdSpeedAccelM1 = 38
	cmdSpeedAccelM2 = 39
)

// ISpeedScale converts a ReadISpeed reading to pulses/second.  The firmware
// reports instantaneous speed in pulses per 1/125th of a second.
const ISpeedScale = 125

// Speed-reading status bytes the firmware is known to emit: 0 = forward,
// 1 = backward.  Anything else means the reading can't be trusted.
const (
	StatusForward  = 0
	StatusBackward = 1
)

const readTimeout = 100 * time.Millisecond

var ErrNotOpen = errors.New("serial link not open")

type Interface interface {
	Open() error
	Close() error
	ResetUSB() error

	SetM1Constants(d, p, i, qpps uint32) error
	SetM2Constants(d, p, i, qpps uint32) error
	SpeedAccelM1(accel uint32, speed int32) error
	SpeedAccelM2(accel uint32, speed int32) error
	ReadISpeedM1() (speed int32, status uint8, valid bool, err error)
	ReadISpeedM2() (speed int32, status uint8, valid bool, err error)
}

// RoboClaw drives a RoboClaw motor controller over its USB serial port using
// the checksummed packet-serial protocol.
type RoboClaw struct {
	portName string
	addr     byte
	port     io.ReadWriteCloser
}

var _ Interface = (*RoboClaw)(nil)

func New(portName string, addr byte) *RoboClaw {
	return &RoboClaw{
		portName: portName,
		addr:     addr,
	}
}

func Dummy() Interface {
	return &dummyClaw{}
}

func (c *RoboClaw) Open() error {
	if c.port != nil {
		_ = c.port.Close()
		c.port = nil
	}
	mode := &serial.Mode{
		BaudRate: 38400,
	}
	port, err := serial.Open(c.portName, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", c.portName, err)
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		_ = port.Close()
		return fmt.Errorf("failed to set read timeout on %s: %w", c.portName, err)
	}
	c.port = port
	return nil
}

func (c *RoboClaw) Close() error {
	if c.port == nil {
		return nil
	}
	err := c.port.Close()
	c.port = nil
	return err
}

// SetM1Constants sets the velocity PID constants and max pulse rate for motor
// channel 1.  Note the firmware takes D first.
func (c *RoboClaw) SetM1Constants(d, p, i, qpps uint32) error {
	return c.writeCommand(cmdSetM1PID, packUint32s(d, p, i, qpps))
}

func (c *RoboClaw) SetM2Constants(d, p, i, qpps uint32) error {
	return c.writeCommand(cmdSetM2PID, packUint32s(d, p, i, qpps))
}

// SpeedAccelM1 commands motor channel 1 to the given speed (pulses/s) using
// the given acceleration (pulses/s^2).
func (c *RoboClaw) SpeedAccelM1(accel uint32, speed int32) error {
	return c.writeCommand(cmdSpeedAccelM1, packUint32s(accel, uint32(speed)))
}

func (c *RoboClaw) SpeedAccelM2(accel uint32, speed int32) error {
	return c.writeCommand(cmdSpeedAccelM2, packUint32s(accel, uint32(speed)))
}

// ReadISpeedM1 reads the instantaneous speed of motor channel 1 in the
// firmware's native per-tick units (multiply by ISpeedScale for pulses/s).
// valid is false if the response checksum didn't match.
func (c *RoboClaw) ReadISpeedM1() (int32, uint8, bool, error) {
	return c.readSpeed(cmdReadISpeedM1)
}

func (c *RoboClaw) ReadISpeedM2() (int32, uint8, bool, error) {
	return c.readSpeed(cmdReadISpeedM2)
}

func (c *RoboClaw) writeCommand(cmd byte, data []byte) error {
	if c.port == nil {
		return ErrNotOpen
	}
	buf := make([]byte, 0, len(data)+3)
	buf = append(buf, c.addr, cmd)
	buf = append(buf, data...)
	buf = append(buf, checksum(buf))
	if _, err := c.port.Write(buf); err != nil {
		return fmt.Errorf("failed to send command %d: %w", cmd, err)
	}
	return nil
}

func (c *RoboClaw) readSpeed(cmd byte) (int32, uint8, bool, error) {
	if c.port == nil {
		return 0, 0, false, ErrNotOpen
	}
	req := []byte{c.addr, cmd}
	if _, err := c.port.Write(req); err != nil {
		return 0, 0, false, fmt.Errorf("failed to send command %d: %w", cmd, err)
	}

	// Response is 4 bytes of big-endian speed, a status byte and a
	// checksum covering address+command+data.
	var resp [6]byte
	if _, err := io.ReadFull(c.port, resp[:]); err != nil {
		return 0, 0, false, fmt.Errorf("failed to read response to command %d: %w", cmd, err)
	}

	sum := sumBytes(req) + sumBytes(resp[:5])
	valid := sum&0x7f == resp[5]
	speed := int32(binary.BigEndian.Uint32(resp[:4]))
	return speed, resp[4], valid, nil
}

// The scarab-era firmware uses a 7-bit additive checksum over every byte of
// the packet.
func checksum(buf []byte) byte {
	return sumBytes(buf) & 0x7f
}

func sumBytes(buf []byte) byte {
	var sum byte
	for _, b := range buf {
		sum += b
	}
	return sum
}

func packUint32s(vals ...uint32) []byte {
	buf := make([]byte, 0, 4*len(vals))
	for _, v := range vals {
		buf = binary.BigEndian.AppendUint32(buf, v)
	}
	return buf
}

type dummyClaw struct {
}

func (d *dummyClaw) Open() error     { return nil }
func (d *dummyClaw) Close() error    { return nil }
func (d *dummyClaw) ResetUSB() error { return nil }

func (d *dummyClaw) SetM1Constants(kd, kp, ki, qpps uint32) error {
	fmt.Printf("Dummy roboclaw M1 constants: P=%d I=%d D=%d QPPS=%d\n", kp, ki, kd, qpps)
	return nil
}

func (d *dummyClaw) SetM2Constants(kd, kp, ki, qpps uint32) error {
	fmt.Printf("Dummy roboclaw M2 constants: P=%d I=%d D=%d QPPS=%d\n", kp, ki, kd, qpps)
	return nil
}

func (d *dummyClaw) SpeedAccelM1(accel uint32, speed int32) error {
	fmt.Printf("Dummy roboclaw M1 speed=%d accel=%d\n", speed, accel)
	return nil
}

func (d *dummyClaw) SpeedAccelM2(accel uint32, speed int32) error {
	fmt.Printf("Dummy roboclaw M2 speed=%d accel=%d\n", speed, accel)
	return nil
}

func (d *dummyClaw) ReadISpeedM1() (int32, uint8, bool, error) {
	return 0, StatusForward, true, nil
}

func (d *dummyClaw) ReadISpeedM2() (int32, uint8, bool, error) {
	return 0, StatusForward, true, nil
}
