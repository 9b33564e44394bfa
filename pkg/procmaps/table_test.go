package procmaps

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTableFind(t *testing.T) {
	table := NewTable([]Mapping{
		{Start: 0x7f0000003000, End: 0x7f0000004000, Perms: "rw-p", Pathname: "/lib/libc.so.6"},
		{Start: 0x555555554000, End: 0x555555556000, Perms: "r--p", Pathname: "/usr/bin/cat"},
		{Start: 0x7f0000000000, End: 0x7f0000002000, Perms: "r-xp", Pathname: "/lib/libc.so.6"},
	})
	require.Equal(t, 3, table.Len())

	testcases := []struct {
		addr     uint64
		found    bool
		pathname string
		perms    string
	}{
		{0x555555554000, true, "/usr/bin/cat", "r--p"},
		{0x555555555fff, true, "/usr/bin/cat", "r--p"},
		{0x555555556000, false, "", ""},
		{0x7f0000001234, true, "/lib/libc.so.6", "r-xp"},
		{0x7f0000002800, false, "", ""},
		{0x7f0000003e00, true, "/lib/libc.so.6", "rw-p"},
		{0x1000, false, "", ""},
		{0xffffffffffff, false, "", ""},
	}
	for _, tc := range testcases {
		m, found := table.Find(tc.addr)
		require.Equal(t, tc.found, found, "%#x", tc.addr)
		require.Equal(t, tc.pathname, m.Pathname, "%#x", tc.addr)
		require.Equal(t, tc.perms, m.Perms, "%#x", tc.addr)
	}
}

func TestTableEmpty(t *testing.T) {
	_, found := NewTable(nil).Find(0x1000)
	require.False(t, found)
}
