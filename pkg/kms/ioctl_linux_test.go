//go:build linux

package kms

import "testing"

// These check the computed ioctl numbers against the fixed ABI values
// from the kernel's <drm/drm.h>/<drm/drm_mode.h> macro expansions, since
// a transposed nibble here fails silently at runtime as ENOTTY.
func TestIoctlNumbersMatchKernelABI(t *testing.T) {
	cases := []struct {
		name string
		got  uint32
		want uint32
	}{
		{"CREATE_DUMB", ioctlModeCreateDumb, 0xc02064b2},
		{"ADDFB", ioctlModeAddFb, 0xc01c64ae},
		{"DESTROY_DUMB", ioctlModeDestroyDumb, 0xc00464b4},
		{"RMFB", ioctlModeRmFb, 0xc00464af},
		{"GETCONNECTOR", ioctlModeGetConnector, 0xc05064a7},
		{"GETENCODER", ioctlModeGetEncoder, 0xc01464a6},
		{"ATOMIC", ioctlModeAtomic, 0xc03864bc},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Errorf("%s = 0x%08x, want 0x%08x", c.name, c.got, c.want)
		}
	}
}
