package timesource

import (
	"encoding/binary"
	"fmt"
	"net"
	"time"
)

// Seconds between the NTP epoch (1900-01-01) and the Unix epoch (1970-01-01).
const ntpEpochOffset = 2208988800

const packetSize = 48

// Client queries a remote SNTP server for the current UTC time. It performs
// no caching and no fallback; callers decide what to do when the network
// clock is unreachable.
type Client struct {
	addr string
}

// NewClient creates a Client for the given "host:port" UDP address
func NewClient(addr string) *Client {
	return &Client{addr: addr}
}

// NetworkTime opens a transient UDP connection, sends one SNTP request and
// parses the 64-bit fixed-point transmit timestamp of the reply into a UTC
// time. The connection is closed on every path. One outstanding request per
// call; there is no pooling.
func (c *Client) NetworkTime(timeout time.Duration) (time.Time, error) {
	conn, err := net.DialTimeout("udp", c.addr, timeout)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to reach time server %s: %w", c.addr, err)
	}
	defer conn.Close()

	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return time.Time{}, fmt.Errorf("failed to set deadline: %w", err)
	}

	// LI=0, VN=3, Mode=3 (client request); the rest of the packet is zero.
	req := make([]byte, packetSize)
	req[0] = 0x1B
	if _, err := conn.Write(req); err != nil {
		return time.Time{}, fmt.Errorf("failed to send time request: %w", err)
	}

	resp := make([]byte, packetSize)
	if _, err := conn.Read(resp); err != nil {
		return time.Time{}, fmt.Errorf("failed to read time response: %w", err)
	}

	return parseTransmitTimestamp(resp)
}

// parseTransmitTimestamp extracts the transmit timestamp (offset 40) from an
// SNTP reply. Seconds are a 32-bit count since 1900; the fraction is a
// 32-bit binary fraction of a second.
func parseTransmitTimestamp(resp []byte) (time.Time, error) {
	if len(resp) < packetSize {
		return time.Time{}, fmt.Errorf("short time response: %d bytes", len(resp))
	}

	secs := binary.BigEndian.Uint32(resp[40:44])
	frac := binary.BigEndian.Uint32(resp[44:48])
	if secs == 0 {
		return time.Time{}, fmt.Errorf("time server returned a zero timestamp")
	}

	nanos := (int64(frac) * int64(time.Second)) >> 32
	return time.Unix(int64(secs)-ntpEpochOffset, nanos).UTC(), nil
}
