package model

import (
	"encoding/binary"
	"fmt"
	"net"
	"strconv"
	"strings"
)

// FormatDPID renders a datapath id as eight colon-separated pairs of
// uppercase hex digits, e.g. 00:00:00:00:00:00:00:01.
func FormatDPID(id uint64) string {
	hex := fmt.Sprintf("%016X", id)
	var b strings.Builder
	b.Grow(23)
	for i := 0; i < 16; i += 2 {
		if i > 0 {
			b.WriteByte(':')
		}
		b.WriteString(hex[i : i+2])
	}
	return b.String()
}

// ParseDPID accepts the colon form produced by FormatDPID, a 0x-prefixed hex
// number, or a plain decimal number.
func ParseDPID(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty datapath id")
	}
	if strings.Contains(s, ":") {
		hex := strings.ReplaceAll(s, ":", "")
		if len(hex) > 16 {
			return 0, fmt.Errorf("datapath id %q is longer than 64 bits", s)
		}
		id, err := strconv.ParseUint(hex, 16, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid datapath id %q: %w", s, err)
		}
		return id, nil
	}
	id, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid datapath id %q: %w", s, err)
	}
	return id, nil
}

// FormatMAC renders the low 48 bits of raw as a MAC address.
func FormatMAC(raw uint64) string {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], raw)
	return net.HardwareAddr(buf[2:]).String()
}

// FormatIP renders raw as a dotted-quad IPv4 address, most significant
// byte first.
func FormatIP(raw uint32) string {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], raw)
	return net.IP(buf[:]).String()
}

// MACToUint64 is the inverse of FormatMAC for 6-byte addresses.
func MACToUint64(mac net.HardwareAddr) uint64 {
	var raw uint64
	for _, b := range mac {
		raw = raw<<8 | uint64(b)
	}
	return raw
}

// IPToUint32 returns the IPv4 address as a host integer. ok is false for
// non-IPv4 addresses.
func IPToUint32(ip net.IP) (uint32, bool) {
	v4 := ip.To4()
	if v4 == nil {
		return 0, false
	}
	return binary.BigEndian.Uint32(v4), true
}
