// Package elfx indexes the sections of an in-memory ELF image so file
// offsets can be attributed to the section that holds them.
package elfx

import (
	"bytes"
	"debug/elf"
	"fmt"
	"sort"
)

// Image is the section layout of an ELF file, keyed by file offset.
type Image struct {
	Class    elf.Class
	Machine  elf.Machine
	Type     elf.Type
	Sections []Section // sorted by Off, only those occupying file bytes
	Loads    []Seg
}

type Seg struct {
	Vaddr, Off, Filesz uint64
	Flags              elf.ProgFlag
}

type Section struct {
	Name          string
	VA, Off, Size uint64
}

// Contains reports whether the file offset off lies within the section.
func (s Section) Contains(off uint64) bool {
	return off >= s.Off && off-s.Off < s.Size
}

// IsELF reports whether data starts with the ELF magic.
func IsELF(data []byte) bool {
	return bytes.HasPrefix(data, []byte(elf.ELFMAG))
}

// Parse reads the section and program headers of the ELF image in data.
func Parse(data []byte) (*Image, error) {
	f, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse elf: %w", err)
	}
	defer f.Close()

	im := &Image{Class: f.Class, Machine: f.Machine, Type: f.Type}
	for _, p := range f.Progs {
		if p.Type != elf.PT_LOAD {
			continue
		}
		im.Loads = append(im.Loads, Seg{
			Vaddr:  p.Vaddr,
			Off:    p.Off,
			Filesz: p.Filesz,
			Flags:  p.Flags,
		})
	}

	for _, s := range f.Sections {
		// SHT_NOBITS sections (.bss) have an offset but no file bytes.
		if s.Type == elf.SHT_NOBITS || s.Type == elf.SHT_NULL || s.Size == 0 {
			continue
		}
		im.Sections = append(im.Sections, Section{s.Name, s.Addr, s.Offset, s.Size})
	}
	sort.SliceStable(im.Sections, func(i, j int) bool {
		return im.Sections[i].Off < im.Sections[j].Off
	})

	return im, nil
}

// Locate returns the name of the section holding file offset off and the
// virtual address that offset is mapped at. Stripped images without section
// headers fall back to their PT_LOAD segments. addr is 0 for sections that
// are not mapped into memory.
func (im *Image) Locate(off int) (name string, addr uint64, ok bool) {
	if off < 0 {
		return "", 0, false
	}
	u := uint64(off)

	i := sort.Search(len(im.Sections), func(i int) bool { return im.Sections[i].Off > u }) - 1
	if i >= 0 && im.Sections[i].Contains(u) {
		s := im.Sections[i]
		if s.VA != 0 {
			addr = s.VA + (u - s.Off)
		}
		return s.Name, addr, true
	}

	if len(im.Sections) == 0 {
		for _, l := range im.Loads {
			if u >= l.Off && u-l.Off < l.Filesz {
				return "LOAD(" + l.Flags.String() + ")", l.Vaddr + (u - l.Off), true
			}
		}
	}
	return "", 0, false
}
