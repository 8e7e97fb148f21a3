package tv

import (
	"bytes"
	"fmt"
	"net"

	"git.home.luguber.info/inful/framecast/internal/errors"
)

// WakePacketCount is how many magic packets one wake attempt broadcasts.
// The TV's NIC sometimes drops the first packet coming out of standby.
const WakePacketCount = 3

// wolPort is the conventional discard port for Wake-on-LAN.
const wolPort = 9

// packetSender sends one UDP datagram; swapped out in tests.
type packetSender func(addr string, payload []byte) error

func sendUDPPacket(addr string, payload []byte) error {
	conn, err := net.Dial("udp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()
	_, err = conn.Write(payload)
	return err
}

// MagicPacket builds a Wake-on-LAN frame for the given hardware address:
// six 0xFF bytes followed by the address repeated sixteen times.
func MagicPacket(mac string) ([]byte, error) {
	hw, err := net.ParseMAC(mac)
	if err != nil {
		return nil, fmt.Errorf("parse hardware address %q: %w", mac, err)
	}
	if len(hw) != 6 {
		return nil, fmt.Errorf("hardware address %q is not 48-bit", mac)
	}

	packet := bytes.Repeat([]byte{0xFF}, 6)
	for i := 0; i < 16; i++ {
		packet = append(packet, hw...)
	}
	return packet, nil
}

// BroadcastAddr returns the .255 broadcast form of the host's /24 subnet,
// with the Wake-on-LAN port attached.
func BroadcastAddr(host string) (string, error) {
	ip := net.ParseIP(host)
	if ip == nil || ip.To4() == nil {
		return "", fmt.Errorf("not an IPv4 address: %q", host)
	}
	v4 := ip.To4()
	broadcast := net.IPv4(v4[0], v4[1], v4[2], 255)
	return fmt.Sprintf("%s:%d", broadcast.String(), wolPort), nil
}

// Wake broadcasts WakePacketCount magic packets to the TV's subnet so the
// network interface powers the set up from standby.
func (c *Client) Wake() error {
	if c.mac == "" {
		return errors.New(errors.CategoryConfig, errors.SeverityError, "no hardware address configured for Wake-on-LAN")
	}

	packet, err := MagicPacket(c.mac)
	if err != nil {
		return errors.Wrap(err, errors.CategoryConfig, errors.SeverityError, "build magic packet")
	}
	addr, err := BroadcastAddr(c.host)
	if err != nil {
		return errors.Wrap(err, errors.CategoryConfig, errors.SeverityError, "derive broadcast address")
	}

	for i := 0; i < WakePacketCount; i++ {
		if err := c.sendPacket(addr, packet); err != nil {
			return errors.Wrap(err, errors.CategoryNetwork, errors.SeverityError, "send wake packet")
		}
	}
	c.log.Info("Sent wake packets", "count", WakePacketCount, "broadcast", addr)
	return nil
}
