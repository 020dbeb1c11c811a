package macho

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// A FileHeader represents a Mach-O file header.
type FileHeader struct {
	Magic  uint32
	Cpu    Cpu
	SubCpu uint32
	Type   uint32
	Ncmd   uint32
	Cmdsz  uint32
	Flags  uint32
}

// A FatArch is one entry in the arch table of a fat binary. Offsets and
// sizes are widened to 64-bit so the same model covers FAT_MAGIC and
// FAT_MAGIC_64 containers.
type FatArch struct {
	Cpu    Cpu
	SubCpu uint32
	Offset uint64
	Size   uint64
	Align  uint32
}

// A File is the in-memory model of a thin or fat Mach-O binary. It is built
// fresh from the file bytes on every operation and discarded after the single
// write-back that concludes a mutating operation.
type File struct {
	Path      string
	Fat       bool
	FatMagic  uint32 // MagicFat or MagicFat64, zero for thin binaries
	FatArches []FatArch
	Slices    []*Slice
}

// A Slice is one architecture-specific Mach-O image within a container.
type Slice struct {
	FileHeader
	Offset uint64 // byte offset of this slice within the container
	Loads  []Load

	bo binary.ByteOrder
}

// A Load is a parsed Mach-O load command. Mutated commands are written back
// to their original on-disk offsets; kinds the model does not care about are
// carried as an opaque Other and passed through unmodified.
type Load interface {
	Command() LoadCmd
	// encode re-serializes any mutated fields over the command's raw bytes.
	encode(bo binary.ByteOrder)
	loc() (offset uint64, raw []byte)
}

type loadBytes struct {
	cmd    LoadCmd
	offset uint64 // from the start of the slice
	raw    []byte
}

func (l *loadBytes) Command() LoadCmd           { return l.cmd }
func (l *loadBytes) encode(bo binary.ByteOrder) {}
func (l *loadBytes) loc() (uint64, []byte)      { return l.offset, l.raw }

// Other is an opaque load command, passed through unmodified.
type Other struct {
	loadBytes
}

// A Section64 is a 64-bit Mach-O section header.
type Section64 struct {
	Name      string
	Seg       string
	Addr      uint64
	Size      uint64
	Offset    uint32
	Align     uint32
	Reloff    uint32
	Nreloc    uint32
	Flags     uint32
	Reserved1 uint32
	Reserved2 uint32
	Reserved3 uint32
}

// A Segment64 is a 64-bit Mach-O segment load command.
type Segment64 struct {
	loadBytes
	SegName  string
	Addr     uint64
	Memsz    uint64
	Offset   uint64
	Filesz   uint64
	Maxprot  uint32
	Prot     uint32
	Nsect    uint32
	Flag     uint32
	Sections []Section64
}

func (s *Segment64) encode(bo binary.ByteOrder) {
	bo.PutUint64(s.raw[24:], s.Addr)
	bo.PutUint64(s.raw[32:], s.Memsz)
	bo.PutUint64(s.raw[40:], s.Offset)
	bo.PutUint64(s.raw[48:], s.Filesz)
}

// A Symtab is a Mach-O symbol table load command.
type Symtab struct {
	loadBytes
	Symoff  uint32
	Nsyms   uint32
	Stroff  uint32
	Strsize uint32
}

func (s *Symtab) encode(bo binary.ByteOrder) {
	bo.PutUint32(s.raw[8:], s.Symoff)
	bo.PutUint32(s.raw[12:], s.Nsyms)
	bo.PutUint32(s.raw[16:], s.Stroff)
	bo.PutUint32(s.raw[20:], s.Strsize)
}

// A BuildVersion is an LC_BUILD_VERSION load command, carrying the platform
// and the packed min OS and SDK versions.
type BuildVersion struct {
	loadBytes
	Platform uint32
	Minos    uint32
	Sdk      uint32
	Ntools   uint32
}

func (b *BuildVersion) encode(bo binary.ByteOrder) {
	bo.PutUint32(b.raw[12:], b.Minos)
	bo.PutUint32(b.raw[16:], b.Sdk)
}

// A VersionMinMacOSX is the older LC_VERSION_MIN_MACOSX load command.
type VersionMinMacOSX struct {
	loadBytes
	Version uint32
	Sdk     uint32
}

func (v *VersionMinMacOSX) encode(bo binary.ByteOrder) {
	bo.PutUint32(v.raw[8:], v.Version)
	bo.PutUint32(v.raw[12:], v.Sdk)
}

// A CodeSignature is an LC_CODE_SIGNATURE load command. Only its presence
// matters here; the signature payload is never parsed.
type CodeSignature struct {
	loadBytes
	DataOff  uint32
	DataSize uint32
}

// Open parses the Mach-O binary at path into a File model. The file handle
// is held only for the duration of the call; Open never mutates the file.
func Open(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := parse(f)
	if err != nil {
		return nil, &InvalidBinaryError{Path: path, Err: err}
	}
	m.Path = path

	return m, nil
}

func parse(r io.ReaderAt) (*File, error) {
	var ident [4]byte
	if _, err := r.ReadAt(ident[:], 0); err != nil {
		return nil, fmt.Errorf("failed to read magic: %w", err)
	}

	switch binary.BigEndian.Uint32(ident[:]) {
	case MagicFat, MagicFat64:
		return parseFat(r, binary.BigEndian.Uint32(ident[:]))
	}

	s, err := parseSlice(r, 0)
	if err != nil {
		return nil, err
	}

	return &File{Slices: []*Slice{s}}, nil
}

func parseFat(r io.ReaderAt, magic uint32) (*File, error) {
	var narch [4]byte
	if _, err := r.ReadAt(narch[:], 4); err != nil {
		return nil, fmt.Errorf("failed to read fat header: %w", err)
	}
	n := binary.BigEndian.Uint32(narch[:])
	if n == 0 {
		return nil, fmt.Errorf("fat binary with no architecture slices")
	}

	f := &File{Fat: true, FatMagic: magic}

	entrySize := fatArchSize
	if magic == MagicFat64 {
		entrySize = fatArch64Size
	}
	table := make([]byte, int(n)*entrySize)
	if _, err := r.ReadAt(table, fatHeaderSize); err != nil {
		return nil, fmt.Errorf("failed to read fat arch table: %w", err)
	}

	for i := 0; i < int(n); i++ {
		e := table[i*entrySize:]
		var fa FatArch
		fa.Cpu = Cpu(binary.BigEndian.Uint32(e))
		fa.SubCpu = binary.BigEndian.Uint32(e[4:])
		if magic == MagicFat64 {
			fa.Offset = binary.BigEndian.Uint64(e[8:])
			fa.Size = binary.BigEndian.Uint64(e[16:])
			fa.Align = binary.BigEndian.Uint32(e[24:])
		} else {
			fa.Offset = uint64(binary.BigEndian.Uint32(e[8:]))
			fa.Size = uint64(binary.BigEndian.Uint32(e[12:]))
			fa.Align = binary.BigEndian.Uint32(e[16:])
		}
		f.FatArches = append(f.FatArches, fa)

		s, err := parseSlice(r, fa.Offset)
		if err != nil {
			return nil, fmt.Errorf("arch slice %d: %w", i, err)
		}
		f.Slices = append(f.Slices, s)
	}

	return f, nil
}

func parseSlice(r io.ReaderAt, offset uint64) (*Slice, error) {
	var ident [4]byte
	if _, err := r.ReadAt(ident[:], int64(offset)); err != nil {
		return nil, fmt.Errorf("failed to read magic: %w", err)
	}

	s := &Slice{Offset: offset}

	le := binary.LittleEndian.Uint32(ident[:])
	be := binary.BigEndian.Uint32(ident[:])
	switch {
	case le == Magic32 || le == Magic64:
		s.bo = binary.LittleEndian
		s.Magic = le
	case be == Magic32 || be == Magic64:
		s.bo = binary.BigEndian
		s.Magic = be
	default:
		return nil, fmt.Errorf("unrecognized magic number %#x", le)
	}

	hdrSize := fileHeaderSize32
	if s.Magic == Magic64 {
		hdrSize = fileHeaderSize64
	}
	hdr := make([]byte, hdrSize)
	if _, err := r.ReadAt(hdr, int64(offset)); err != nil {
		return nil, fmt.Errorf("failed to read mach header: %w", err)
	}
	s.Cpu = Cpu(s.bo.Uint32(hdr[4:]))
	s.SubCpu = s.bo.Uint32(hdr[8:])
	s.Type = s.bo.Uint32(hdr[12:])
	s.Ncmd = s.bo.Uint32(hdr[16:])
	s.Cmdsz = s.bo.Uint32(hdr[20:])
	s.Flags = s.bo.Uint32(hdr[24:])

	cmds := make([]byte, s.Cmdsz)
	if _, err := r.ReadAt(cmds, int64(offset)+int64(hdrSize)); err != nil {
		return nil, fmt.Errorf("failed to read load commands: %w", err)
	}

	pos := uint64(0)
	for i := uint32(0); i < s.Ncmd; i++ {
		if uint64(len(cmds))-pos < 8 {
			return nil, fmt.Errorf("load command %d extends past end of command region", i)
		}
		cmd := LoadCmd(s.bo.Uint32(cmds[pos:]))
		cmdsize := uint64(s.bo.Uint32(cmds[pos+4:]))
		if cmdsize < 8 || cmdsize > uint64(len(cmds))-pos {
			return nil, fmt.Errorf("load command %d (%s) has invalid size %d", i, cmd, cmdsize)
		}

		lb := loadBytes{
			cmd:    cmd,
			offset: uint64(hdrSize) + pos,
			raw:    cmds[pos : pos+cmdsize : pos+cmdsize],
		}
		l, err := parseLoad(lb, s.bo)
		if err != nil {
			return nil, fmt.Errorf("load command %d: %w", i, err)
		}
		s.Loads = append(s.Loads, l)

		pos += cmdsize
	}

	return s, nil
}

func parseLoad(lb loadBytes, bo binary.ByteOrder) (Load, error) {
	b := lb.raw
	switch lb.cmd {
	case LoadCmdSegment64:
		if len(b) < segment64Size {
			return nil, fmt.Errorf("LC_SEGMENT_64 command too short (%d bytes)", len(b))
		}
		seg := &Segment64{
			loadBytes: lb,
			SegName:   cstring(b[8:24]),
			Addr:      bo.Uint64(b[24:]),
			Memsz:     bo.Uint64(b[32:]),
			Offset:    bo.Uint64(b[40:]),
			Filesz:    bo.Uint64(b[48:]),
			Maxprot:   bo.Uint32(b[56:]),
			Prot:      bo.Uint32(b[60:]),
			Nsect:     bo.Uint32(b[64:]),
			Flag:      bo.Uint32(b[68:]),
		}
		if uint64(len(b)) != segment64Size+uint64(seg.Nsect)*section64Size {
			return nil, fmt.Errorf("LC_SEGMENT_64 %s size %d does not match %d sections", seg.SegName, len(b), seg.Nsect)
		}
		for i := uint32(0); i < seg.Nsect; i++ {
			sh := b[segment64Size+int(i)*section64Size:]
			seg.Sections = append(seg.Sections, Section64{
				Name:      cstring(sh[0:16]),
				Seg:       cstring(sh[16:32]),
				Addr:      bo.Uint64(sh[32:]),
				Size:      bo.Uint64(sh[40:]),
				Offset:    bo.Uint32(sh[48:]),
				Align:     bo.Uint32(sh[52:]),
				Reloff:    bo.Uint32(sh[56:]),
				Nreloc:    bo.Uint32(sh[60:]),
				Flags:     bo.Uint32(sh[64:]),
				Reserved1: bo.Uint32(sh[68:]),
				Reserved2: bo.Uint32(sh[72:]),
				Reserved3: bo.Uint32(sh[76:]),
			})
		}
		return seg, nil
	case LoadCmdSymtab:
		if len(b) != symtabSize {
			return nil, fmt.Errorf("LC_SYMTAB command has invalid size %d", len(b))
		}
		return &Symtab{
			loadBytes: lb,
			Symoff:    bo.Uint32(b[8:]),
			Nsyms:     bo.Uint32(b[12:]),
			Stroff:    bo.Uint32(b[16:]),
			Strsize:   bo.Uint32(b[20:]),
		}, nil
	case LoadCmdBuildVersion:
		if len(b) < buildVerSize {
			return nil, fmt.Errorf("LC_BUILD_VERSION command too short (%d bytes)", len(b))
		}
		return &BuildVersion{
			loadBytes: lb,
			Platform:  bo.Uint32(b[8:]),
			Minos:     bo.Uint32(b[12:]),
			Sdk:       bo.Uint32(b[16:]),
			Ntools:    bo.Uint32(b[20:]),
		}, nil
	case LoadCmdVersionMinMacosx:
		if len(b) != versionMinSize {
			return nil, fmt.Errorf("LC_VERSION_MIN_MACOSX command has invalid size %d", len(b))
		}
		return &VersionMinMacOSX{
			loadBytes: lb,
			Version:   bo.Uint32(b[8:]),
			Sdk:       bo.Uint32(b[12:]),
		}, nil
	case LoadCmdCodeSignature:
		if len(b) != linkeditSize {
			return nil, fmt.Errorf("LC_CODE_SIGNATURE command has invalid size %d", len(b))
		}
		return &CodeSignature{
			loadBytes: lb,
			DataOff:   bo.Uint32(b[8:]),
			DataSize:  bo.Uint32(b[12:]),
		}, nil
	}
	return &Other{loadBytes: lb}, nil
}

func cstring(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}

// Segment64 returns the single 64-bit segment load command named name, or an
// error if the slice carries none or more than one.
func (s *Slice) Segment64(name string) (*Segment64, error) {
	var found *Segment64
	for _, l := range s.Loads {
		seg, ok := l.(*Segment64)
		if !ok || seg.SegName != name {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("expected exactly one %s segment", name)
		}
		found = seg
	}
	if found == nil {
		return nil, fmt.Errorf("expected exactly one %s segment", name)
	}
	return found, nil
}

// Symtab returns the single LC_SYMTAB load command, or an error if the slice
// carries none or more than one.
func (s *Slice) Symtab() (*Symtab, error) {
	var found *Symtab
	for _, l := range s.Loads {
		st, ok := l.(*Symtab)
		if !ok {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("expected exactly one LC_SYMTAB command")
		}
		found = st
	}
	if found == nil {
		return nil, fmt.Errorf("expected exactly one LC_SYMTAB command")
	}
	return found, nil
}

// CodeSignature returns the LC_CODE_SIGNATURE load command, or nil if the
// slice is unsigned.
func (s *Slice) CodeSignature() *CodeSignature {
	for _, l := range s.Loads {
		if cs, ok := l.(*CodeSignature); ok {
			return cs
		}
	}
	return nil
}

// versionCommand returns the slice's single version-describing load command,
// either an LC_BUILD_VERSION or an LC_VERSION_MIN_MACOSX. Absence or
// duplication is fatal.
func (s *Slice) versionCommand() (Load, error) {
	var found Load
	for _, l := range s.Loads {
		switch l.(type) {
		case *BuildVersion, *VersionMinMacOSX:
			if found != nil {
				return nil, fmt.Errorf("expected exactly one LC_BUILD_VERSION or LC_VERSION_MIN_MACOSX command")
			}
			found = l
		}
	}
	if found == nil {
		return nil, fmt.Errorf("expected exactly one LC_BUILD_VERSION or LC_VERSION_MIN_MACOSX command")
	}
	return found, nil
}

// Save writes every load command of every slice back into the file at its
// original on-disk offset. The structural layout is never changed, only the
// field values the model mutated.
func (f *File) Save() error {
	out, err := os.OpenFile(f.Path, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer out.Close()

	for _, s := range f.Slices {
		for _, l := range s.Loads {
			l.encode(s.bo)
			offset, raw := l.loc()
			if _, err := out.WriteAt(raw, int64(s.Offset+offset)); err != nil {
				return fmt.Errorf("failed to write load commands of slice at %#x: %w", s.Offset, err)
			}
		}
	}

	return nil
}

// writeFatSize rewrites the size field of the i-th entry in the fat arch
// table, leaving every other entry untouched.
func (f *File) writeFatSize(i int, size uint64) error {
	out, err := os.OpenFile(f.Path, os.O_RDWR, 0)
	if err != nil {
		return err
	}
	defer out.Close()

	if f.FatMagic == MagicFat64 {
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], size)
		_, err = out.WriteAt(b[:], int64(fatHeaderSize+i*fatArch64Size+16))
	} else {
		if size > uint64(^uint32(0)) {
			return fmt.Errorf("slice size %#x overflows 32-bit fat arch table", size)
		}
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], uint32(size))
		_, err = out.WriteAt(b[:], int64(fatHeaderSize+i*fatArchSize+12))
	}
	return err
}
