// Mach-O header data structures
// Originally at:
// http://developer.apple.com/mac/library/documentation/DeveloperTools/Conceptual/MachORuntime/Reference/reference.html (since deleted by Apple)
// Archived copy at:
// https://web.archive.org/web/20090819232456/http://developer.apple.com/documentation/DeveloperTools/Conceptual/MachORuntime/index.html

package macho

import "strconv"

const (
	Magic32    uint32 = 0xfeedface
	Magic64    uint32 = 0xfeedfacf
	MagicFat   uint32 = 0xcafebabe
	MagicFat64 uint32 = 0xcafebabf
)

const (
	fileHeaderSize32 = 7 * 4
	fileHeaderSize64 = 8 * 4

	fatHeaderSize  = 2 * 4
	fatArchSize    = 5 * 4
	fatArch64Size  = 8 * 4
	segment64Size  = 72
	section64Size  = 80
	symtabSize     = 24
	buildVerSize   = 24
	versionMinSize = 16
	linkeditSize   = 16
)

// A Cpu is a Mach-O cpu type.
type Cpu uint32

const cpuArch64 = 0x01000000 // 64 bit ABI

const (
	Cpu386   Cpu = 7
	CpuAmd64 Cpu = Cpu386 | cpuArch64
	CpuArm   Cpu = 12
	CpuArm64 Cpu = CpuArm | cpuArch64
)

var cpuStrings = []intName{
	{uint32(Cpu386), "Cpu386"},
	{uint32(CpuAmd64), "CpuAmd64"},
	{uint32(CpuArm), "CpuArm"},
	{uint32(CpuArm64), "CpuArm64"},
}

func (i Cpu) String() string   { return stringName(uint32(i), cpuStrings, false) }
func (i Cpu) GoString() string { return stringName(uint32(i), cpuStrings, true) }

// CpuSubtypeMask strips the capability bits, which are not part of the
// subtype value.
const CpuSubtypeMask uint32 = 0x0fffffff

const (
	CpuSubtypeX86_64H uint32 = 8 // 64-bit intel (haswell)
	CpuSubtypeArm64E  uint32 = 2
)

// A LoadCmd is a Mach-O load command.
type LoadCmd uint32

const (
	LoadCmdSymtab           LoadCmd = 0x2  // link-edit stab symbol table info
	LoadCmdSegment64        LoadCmd = 0x19 // 64-bit segment of this file to be mapped
	LoadCmdCodeSignature    LoadCmd = 0x1d // local of code signature
	LoadCmdVersionMinMacosx LoadCmd = 0x24 // build for MacOSX min OS version
	LoadCmdBuildVersion     LoadCmd = 0x32 // build for platform min OS version
)

var cmdStrings = []intName{
	{uint32(LoadCmdSymtab), "LoadCmdSymtab"},
	{uint32(LoadCmdSegment64), "LoadCmdSegment64"},
	{uint32(LoadCmdCodeSignature), "LoadCmdCodeSignature"},
	{uint32(LoadCmdVersionMinMacosx), "LoadCmdVersionMinMacosx"},
	{uint32(LoadCmdBuildVersion), "LoadCmdBuildVersion"},
}

func (i LoadCmd) String() string   { return stringName(uint32(i), cmdStrings, false) }
func (i LoadCmd) GoString() string { return stringName(uint32(i), cmdStrings, true) }

// SegLinkedit is the segment holding the structs created and maintained by
// the link editor (symbol table, string table, code signature).
const SegLinkedit = "__LINKEDIT"

type intName struct {
	i uint32
	s string
}

func stringName(i uint32, names []intName, goSyntax bool) string {
	for _, n := range names {
		if n.i == i {
			if goSyntax {
				return "macho." + n.s
			}
			return n.s
		}
	}
	return strconv.FormatUint(uint64(i), 10)
}
