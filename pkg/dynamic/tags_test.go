package dynamic

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTagName(t *testing.T) {
	expected := map[int64]string{
		0:  "DT_NULL",
		1:  "DT_NEEDED",
		2:  "DT_PLTRELSZ",
		3:  "DT_PLTGOT",
		4:  "DT_HASH",
		5:  "DT_STRTAB",
		6:  "DT_SYMTAB",
		7:  "DT_RELA",
		8:  "DT_RELASZ",
		9:  "DT_RELAENT",
		10: "DT_STRSZ",
		11: "DT_SYMENT",
		12: "DT_INIT",
		13: "DT_FINI",
		14: "DT_SONAME",
		15: "DT_RPATH",
		16: "DT_SYMBOLIC",
		17: "DT_REL",
		18: "DT_RELSZ",
		19: "DT_RELENT",
		20: "DT_PLTREL",
		21: "DT_DEBUG",
		22: "DT_TEXTREL",
		23: "DT_JMPREL",
		24: "DT_BIND_NOW",
		25: "DT_INIT_ARRAY",
		26: "DT_FINI_ARRAY",
		27: "DT_INIT_ARRAYSZ",
		28: "DT_FINI_ARRAYSZ",
		29: "DT_RUNPATH",
		30: "DT_FLAGS",
		32: "DT_PREINIT_ARRAY",
		33: "DT_PREINIT_ARRAYSZ",
		34: "DT_MAXPOSTAGS",
	}
	for tag, name := range expected {
		require.Equal(t, name, TagName(tag), "tag %d", tag)
	}
	require.Len(t, KnownTags(), len(expected))
}

func TestTagNameUnknown(t *testing.T) {
	for _, tag := range []int64{-1, -34, 31, 35, 36, 0x6ffffef5, 0x6ffffffb, 1 << 40} {
		require.Equal(t, UnknownTag, TagName(tag), "tag %d", tag)
	}
}

func TestTagNameIsStable(t *testing.T) {
	for _, tag := range []int64{0, 4, 31, 99} {
		first := TagName(tag)
		for i := 0; i < 3; i++ {
			require.Equal(t, first, TagName(tag))
		}
	}
}

func TestKnownTagsAscending(t *testing.T) {
	tags := KnownTags()
	require.Equal(t, int64(0), tags[0])
	require.Equal(t, int64(TagMaxPosTags), tags[len(tags)-1])
	require.NotContains(t, tags, int64(31))
	for i := 1; i < len(tags); i++ {
		require.Less(t, tags[i-1], tags[i])
	}
}
