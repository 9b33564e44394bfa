// Package dynamic decodes entries of an ELF dynamic section as they appear in
// the memory of a running process.
package dynamic

import "debug/elf"

// TagMaxPosTags is the first tag value past the standard positive tag range.
const TagMaxPosTags = 34

// UnknownTag is returned by TagName for tags outside the registry.
const UnknownTag = "Unknown"

var tagNames = map[int64]string{
	int64(elf.DT_NULL):            "DT_NULL",
	int64(elf.DT_NEEDED):          "DT_NEEDED",
	int64(elf.DT_PLTRELSZ):        "DT_PLTRELSZ",
	int64(elf.DT_PLTGOT):          "DT_PLTGOT",
	int64(elf.DT_HASH):            "DT_HASH",
	int64(elf.DT_STRTAB):          "DT_STRTAB",
	int64(elf.DT_SYMTAB):          "DT_SYMTAB",
	int64(elf.DT_RELA):            "DT_RELA",
	int64(elf.DT_RELASZ):          "DT_RELASZ",
	int64(elf.DT_RELAENT):         "DT_RELAENT",
	int64(elf.DT_STRSZ):           "DT_STRSZ",
	int64(elf.DT_SYMENT):          "DT_SYMENT",
	int64(elf.DT_INIT):            "DT_INIT",
	int64(elf.DT_FINI):            "DT_FINI",
	int64(elf.DT_SONAME):          "DT_SONAME",
	int64(elf.DT_RPATH):           "DT_RPATH",
	int64(elf.DT_SYMBOLIC):        "DT_SYMBOLIC",
	int64(elf.DT_REL):             "DT_REL",
	int64(elf.DT_RELSZ):           "DT_RELSZ",
	int64(elf.DT_RELENT):          "DT_RELENT",
	int64(elf.DT_PLTREL):          "DT_PLTREL",
	int64(elf.DT_DEBUG):           "DT_DEBUG",
	int64(elf.DT_TEXTREL):         "DT_TEXTREL",
	int64(elf.DT_JMPREL):          "DT_JMPREL",
	int64(elf.DT_BIND_NOW):        "DT_BIND_NOW",
	int64(elf.DT_INIT_ARRAY):      "DT_INIT_ARRAY",
	int64(elf.DT_FINI_ARRAY):      "DT_FINI_ARRAY",
	int64(elf.DT_INIT_ARRAYSZ):    "DT_INIT_ARRAYSZ",
	int64(elf.DT_FINI_ARRAYSZ):    "DT_FINI_ARRAYSZ",
	int64(elf.DT_RUNPATH):         "DT_RUNPATH",
	int64(elf.DT_FLAGS):           "DT_FLAGS",
	int64(elf.DT_PREINIT_ARRAY):   "DT_PREINIT_ARRAY",
	int64(elf.DT_PREINIT_ARRAYSZ): "DT_PREINIT_ARRAYSZ",
	TagMaxPosTags:                 "DT_MAXPOSTAGS",
}

// TagName returns the symbolic name of a dynamic entry tag, or UnknownTag.
func TagName(tag int64) string {
	if name, ok := tagNames[tag]; ok {
		return name
	}
	return UnknownTag
}

// KnownTags returns the registered tag values in ascending order.
func KnownTags() []int64 {
	tags := make([]int64, 0, len(tagNames))
	for tag := int64(0); tag <= TagMaxPosTags; tag++ {
		if _, ok := tagNames[tag]; ok {
			tags = append(tags, tag)
		}
	}
	return tags
}
