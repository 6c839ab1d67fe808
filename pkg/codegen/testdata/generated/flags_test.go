package flags

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fwupd/fustruct-go/pkg/wire"
)

func TestDeviceFlagsText(t *testing.T) {
	tests := []struct {
		in   string
		want FwupdDeviceFlags
		bits string
	}{
		{"none", FwupdDeviceFlagsNone, "none"},
		{"updatable", FwupdDeviceFlagsUpdatable, "updatable"},
		{"updatable|needs-reboot", FwupdDeviceFlagsUpdatable | FwupdDeviceFlagsNeedsReboot, "updatable|needs-reboot"},
		{"Needs_Reboot, updatable", FwupdDeviceFlagsUpdatable | FwupdDeviceFlagsNeedsReboot, "updatable|needs-reboot"},
		{"updatable|needs-reboot|0x8000000000000000", 0x8000000000000102, "updatable|needs-reboot|0x8000000000000000"},
		{"unknown", FwupdDeviceFlagsUnknown, ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := FwupdDeviceFlagsFromString(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if tt.bits == "" {
				return
			}
			assert.Equal(t, tt.bits, got.BitString())
			back, err := FwupdDeviceFlagsFromString(got.BitString())
			require.NoError(t, err)
			assert.Equal(t, got, back)
		})
	}

	assert.Equal(t, "needs-reboot", FwupdDeviceFlagsNeedsReboot.String())
	assert.Equal(t, "unknown", FwupdDeviceFlags(0x3).String())

	for _, in := range []string{"bogus", "updatable||", ""} {
		_, err := FwupdDeviceFlagsFromString(in)
		assert.True(t, errors.Is(err, wire.ErrInvalidData), in)
	}
}

func TestStatusText(t *testing.T) {
	v, err := FwupdStatusFromString("device-restart")
	require.NoError(t, err)
	assert.Equal(t, FwupdStatusDeviceRestart, v)
	assert.Equal(t, "device-restart", v.String())
	assert.Equal(t, "", FwupdStatus(0x40).String())

	_, err = FwupdStatusFromString("rebooting")
	assert.ErrorContains(t, err, `FwupdStatus has no variant "rebooting"`)
}

func TestDeviceRecord(t *testing.T) {
	st := NewFuStructDeviceRecord()
	assert.Equal(t, FwupdDeviceFlagsUpdatable, st.Flags())
	assert.Equal(t, FwupdStatusIdle, st.Status())
	assert.Equal(t, []byte("FLGS"), st.Bytes()[:4])

	st.SetFlags(FwupdDeviceFlagsUpdatable | FwupdDeviceFlagsLocked)
	st.SetStatus(FwupdStatusDeviceWrite)
	got, rest, err := ParseFuStructDeviceRecordBytes(st.Bytes(), 0)
	require.NoError(t, err)
	assert.Empty(t, rest)
	assert.Equal(t, FwupdDeviceFlagsUpdatable|FwupdDeviceFlagsLocked, got.Flags())
	assert.Equal(t, FwupdStatusDeviceWrite, got.Status())
	assert.Contains(t, got.String(), "flags: 0x12 [updatable|locked]")
	assert.Contains(t, got.String(), "status: 0x5 [device-write]")

	buf := st.Bytes()
	buf[12] = 0x40
	_, err = ParseFuStructDeviceRecord(buf, 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, wire.ErrInvalidData))
	assert.ErrorContains(t, err, "FuStructDeviceRecord.status is invalid @0xc")
}
