package model

import (
	"math"
	"net"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatDPID(t *testing.T) {
	cases := []struct {
		name   string
		id     uint64
		expect string
	}{
		{"zero", 0, "00:00:00:00:00:00:00:00"},
		{"one", 1, "00:00:00:00:00:00:00:01"},
		{"mixed", 0x0011223344556677, "00:11:22:33:44:55:66:77"},
		{"uppercase", 0xdeadbeefcafe, "00:00:DE:AD:BE:EF:CA:FE"},
		{"max", math.MaxUint64, "FF:FF:FF:FF:FF:FF:FF:FF"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.expect, FormatDPID(c.id))
		})
	}
}

func TestFormatDPIDShape(t *testing.T) {
	ids := []uint64{0, 1, 255, 256, 0x8000000000000000, 0x0123456789abcdef, math.MaxUint64 - 1, math.MaxUint64}
	for _, id := range ids {
		s := FormatDPID(id)
		require.Len(t, s, 23)
		for i := 2; i < 23; i += 3 {
			require.Equal(t, byte(':'), s[i], "separator at %d in %s", i, s)
		}
		hex := strings.ReplaceAll(s, ":", "")
		require.Equal(t, strings.ToUpper(hex), hex)
		back, err := strconv.ParseUint(hex, 16, 64)
		require.NoError(t, err)
		require.Equal(t, id, back)
	}
}

func TestParseDPID(t *testing.T) {
	cases := []struct {
		in     string
		expect uint64
		err    bool
	}{
		{"00:00:00:00:00:00:00:01", 1, false},
		{"00:11:22:33:44:55:66:77", 0x0011223344556677, false},
		{"0x1f", 0x1f, false},
		{"42", 42, false},
		{"", 0, true},
		{"zz:00", 0, true},
		{"00:00:00:00:00:00:00:00:01", 0, true},
	}
	for _, c := range cases {
		t.Run(c.in, func(t *testing.T) {
			id, err := ParseDPID(c.in)
			if c.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, c.expect, id)
			require.Equal(t, c.expect, mustParse(t, FormatDPID(id)))
		})
	}
}

func mustParse(t *testing.T, s string) uint64 {
	t.Helper()
	id, err := ParseDPID(s)
	require.NoError(t, err)
	return id
}

func TestFormatAddresses(t *testing.T) {
	require.Equal(t, "00:00:00:00:00:00", FormatMAC(0))
	require.Equal(t, "0.0.0.0", FormatIP(0))
	require.Equal(t, "aa:bb:cc:dd:ee:ff", FormatMAC(0xaabbccddeeff))
	require.Equal(t, "00:00:00:00:00:01", FormatMAC(0xffff000000000001), "bits above 48 are ignored")
	require.Equal(t, "10.0.0.1", FormatIP(0x0a000001))
	require.Equal(t, "255.255.255.255", FormatIP(math.MaxUint32))
}

func TestAddressConversions(t *testing.T) {
	mac, err := net.ParseMAC("02:42:ac:11:00:02")
	require.NoError(t, err)
	require.Equal(t, "02:42:ac:11:00:02", FormatMAC(MACToUint64(mac)))

	raw, ok := IPToUint32(net.ParseIP("192.168.1.20"))
	require.True(t, ok)
	require.Equal(t, "192.168.1.20", FormatIP(raw))

	_, ok = IPToUint32(net.ParseIP("fd00::1"))
	require.False(t, ok)
}

func TestActionTypeString(t *testing.T) {
	require.Equal(t, "OFPAT_OUTPUT", ActionOutput.String())
	require.Equal(t, "OFPAT_SET_TP_DST", ActionSetTpDst.String())
	require.Equal(t, "OFPAT_99", ActionType(99).String())
}
