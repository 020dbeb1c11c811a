package macho

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// Synthetic Mach-O layout shared by the tests. The load commands end well
// before linkeditOff; the string table is the last thing in the slice.
const (
	testLinkeditOff = 0x100
	testStroff      = 0x110
	testStrsize     = 16
	testSliceSize   = 0x120
	testFatOffset1  = 0x1000
	testFatOffset2  = 0x2000
)

type testSlice struct {
	cpu        Cpu
	subCpu     uint32
	versionMin bool   // use LC_VERSION_MIN_MACOSX instead of LC_BUILD_VERSION
	minos      uint32 // packed version
	sdk        uint32 // packed version
	signed     bool
	extraVer   bool // emit a second version command (invariant violation)
	noVer      bool // emit no version command (invariant violation)
}

func put32(w *bytes.Buffer, vs ...uint32) {
	for _, v := range vs {
		binary.Write(w, binary.LittleEndian, v)
	}
}

func put64(w *bytes.Buffer, vs ...uint64) {
	for _, v := range vs {
		binary.Write(w, binary.LittleEndian, v)
	}
}

// buildSlice serializes a minimal 64-bit little-endian Mach-O slice whose
// __LINKEDIT segment and string table end exactly at testSliceSize.
func buildSlice(t *testing.T, conf testSlice) []byte {
	t.Helper()

	var cmds bytes.Buffer

	// LC_SEGMENT_64 __LINKEDIT
	put32(&cmds, uint32(LoadCmdSegment64), segment64Size)
	var name [16]byte
	copy(name[:], SegLinkedit)
	cmds.Write(name[:])
	put64(&cmds, 0x100001000, 0x1000, testLinkeditOff, testSliceSize-testLinkeditOff)
	put32(&cmds, 1, 1, 0, 0) // maxprot, initprot, nsects, flags

	// LC_SYMTAB
	put32(&cmds, uint32(LoadCmdSymtab), symtabSize, testLinkeditOff, 0, testStroff, testStrsize)

	ncmds := uint32(2)
	if !conf.noVer {
		ncmds++
		if conf.versionMin {
			put32(&cmds, uint32(LoadCmdVersionMinMacosx), versionMinSize, conf.minos, conf.sdk)
		} else {
			put32(&cmds, uint32(LoadCmdBuildVersion), buildVerSize, 1, conf.minos, conf.sdk, 0)
		}
	}
	if conf.extraVer {
		ncmds++
		put32(&cmds, uint32(LoadCmdVersionMinMacosx), versionMinSize, conf.minos, conf.sdk)
	}
	if conf.signed {
		ncmds++
		put32(&cmds, uint32(LoadCmdCodeSignature), linkeditSize, testStroff+testStrsize, 8)
	}

	var b bytes.Buffer
	put32(&b, Magic64, uint32(conf.cpu), conf.subCpu, 2, ncmds, uint32(cmds.Len()), 0, 0)
	b.Write(cmds.Bytes())

	if b.Len() > testStroff {
		t.Fatalf("fixture load commands overrun the string table (%d bytes)", b.Len())
	}
	b.Write(make([]byte, testStroff-b.Len()))
	b.Write(bytes.Repeat([]byte{'s'}, testStrsize))

	return b.Bytes()
}

// buildFat serializes a 2-slice fat binary with a 32-bit fat header.
func buildFat(t *testing.T, first, second testSlice) []byte {
	t.Helper()

	s1 := buildSlice(t, first)
	s2 := buildSlice(t, second)

	var b bytes.Buffer
	binary.Write(&b, binary.BigEndian, MagicFat)
	binary.Write(&b, binary.BigEndian, uint32(2))
	for _, e := range []struct {
		conf   testSlice
		offset uint32
		size   uint32
	}{
		{first, testFatOffset1, uint32(len(s1))},
		{second, testFatOffset2, uint32(len(s2))},
	} {
		binary.Write(&b, binary.BigEndian, uint32(e.conf.cpu))
		binary.Write(&b, binary.BigEndian, e.conf.subCpu)
		binary.Write(&b, binary.BigEndian, e.offset)
		binary.Write(&b, binary.BigEndian, e.size)
		binary.Write(&b, binary.BigEndian, uint32(14))
	}

	b.Write(make([]byte, testFatOffset1-b.Len()))
	b.Write(s1)
	b.Write(make([]byte, testFatOffset2-b.Len()))
	b.Write(s2)

	return b.Bytes()
}

func writeFixture(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.bin")
	if err := os.WriteFile(path, data, 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func packVer(major, minor, revision uint32) uint32 {
	return major<<16 | minor<<8 | revision
}
