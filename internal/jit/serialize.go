package jit

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
)

// magic prefixes every serialized CompiledCode.
var magic = []byte("BASEJIT")

var crc = crc32.MakeTable(crc32.Castagnoli)

// SerializeCompiledCode encodes c so that DeserializeCompiledCode with the
// same version returns an equal CompiledCode. The layout is little-endian:
//
//	magic | version length (uvarint) | version | arch (1 byte)
//	code length (8) | code | crc32 of code (4)
//	relocations | frame | LIR | metadata | stack map
func SerializeCompiledCode(version string, c *CompiledCode) io.Reader {
	w := &encoder{}
	w.buf.Write(magic)
	w.buf.Write(binary.AppendUvarint(w.tmp[:0], uint64(len(version))))
	w.buf.WriteString(version)
	w.buf.WriteByte(byte(c.Arch))

	w.u64(uint64(len(c.Code)))
	w.buf.Write(c.Code)
	w.u32(crc32.Checksum(c.Code, crc))

	w.u32(uint32(len(c.Relocations)))
	for _, r := range c.Relocations {
		w.buf.WriteByte(byte(r.Kind))
		w.i64(r.Offset)
		w.u32(r.Symbol)
	}

	w.role(c.Frame.FrameRole)
	w.i64(c.Frame.FrameSize)
	w.i64(c.Frame.SlotCount)
	w.i64(c.Frame.ReturnAddressOffset)
	w.u32(uint32(len(c.Frame.SavedRegisters)))
	for _, s := range c.Frame.SavedRegisters {
		w.role(s.Role)
		w.buf.WriteByte(byte(len(s.Name)))
		w.buf.WriteString(s.Name)
		w.i64(s.Offset)
	}

	w.u32(uint32(len(c.LIR)))
	for _, in := range c.LIR {
		w.u16(uint16(in.Op))
		w.buf.WriteByte(byte(len(in.Operands)))
		for _, o := range in.Operands {
			w.buf.WriteByte(byte(o.Kind))
			w.role(o.Role)
			w.i64(o.Imm)
			w.i64(o.FrameScale)
		}
	}

	w.u64(uint64(c.Metadata.SpillCount))
	w.u64(uint64(c.Metadata.MaxStackDepth))
	w.u64(uint64(c.Metadata.InstructionCount))
	w.u64(uint64(c.Metadata.ScratchRegisterCount))

	entries := c.StackMap()
	w.u32(uint32(len(entries)))
	for _, e := range entries {
		w.i64(e.PC)
		w.i64(e.StackPointerOffset)
	}
	return bytes.NewReader(w.buf.Bytes())
}

// DeserializeCompiledCode decodes the output of SerializeCompiledCode. LIR
// opcodes are resolved against vocab, which must be the vocabulary of the
// architecture the code was compiled for.
//
// staleCache is true when the content was produced by another version of this
// module or for another architecture: the caller should delete it and
// compile from scratch.
func DeserializeCompiledCode(version string, vocab *Vocabulary, reader io.Reader) (c *CompiledCode, staleCache bool, err error) {
	header := make([]byte, len(magic)+1)
	if n, err := io.ReadFull(reader, header); err != nil {
		return nil, false, fmt.Errorf("compilationcache: invalid header length: %d", n)
	}
	if !bytes.Equal(header[:len(magic)], magic) {
		return nil, false, fmt.Errorf("compilationcache: invalid magic number: got %s but want %s",
			header[:len(magic)], magic)
	}
	// The last header byte starts the version length.
	versionLength, err := binary.ReadUvarint(&byteReader{first: header[len(magic)], r: reader})
	if err != nil {
		return nil, false, fmt.Errorf("compilationcache: could not read version: %v", err)
	}
	if versionLength > maxVersionLength {
		return nil, false, fmt.Errorf("compilationcache: version length %d exceeds %d", versionLength, maxVersionLength)
	}
	cachedVersion := make([]byte, versionLength)
	if _, err = io.ReadFull(reader, cachedVersion); err != nil {
		return nil, false, fmt.Errorf("compilationcache: could not read version: %v", err)
	}
	if string(cachedVersion) != version {
		return nil, true, nil
	}

	r := &decoder{r: reader}
	arch := Architecture(r.u8())
	if r.err == nil && arch != vocab.Arch() {
		return nil, true, nil
	}

	c = &CompiledCode{Arch: arch, vocabulary: vocab, stackMap: newStackMap()}
	c.Code = r.bytes(r.u64())
	if sum := r.u32(); r.err == nil && sum != crc32.Checksum(c.Code, crc) {
		return nil, false, errors.New("compilationcache: checksum mismatch")
	}

	if n := r.count(); n > 0 {
		c.Relocations = make([]Relocation, n)
		for i := range c.Relocations {
			c.Relocations[i] = Relocation{Kind: RelocationKind(r.u8()), Offset: r.i64(), Symbol: r.u32()}
		}
	}

	c.Frame.FrameRole = r.role()
	c.Frame.FrameSize = r.i64()
	c.Frame.SlotCount = r.i64()
	c.Frame.ReturnAddressOffset = r.i64()
	if n := r.count(); n > 0 {
		c.Frame.SavedRegisters = make([]SavedRegister, n)
		for i := range c.Frame.SavedRegisters {
			role := r.role()
			name := string(r.bytes(uint64(r.u8())))
			c.Frame.SavedRegisters[i] = SavedRegister{Role: role, Name: name, Offset: r.i64()}
		}
	}

	if n := r.count(); n > 0 {
		c.LIR = make([]Instruction, n)
		for i := range c.LIR {
			in := Instruction{Op: Opcode(r.u16())}
			if r.err != nil {
				break
			}
			if _, ok := vocab.Lookup(in.Op); !ok {
				return nil, false, fmt.Errorf("compilationcache: %s is not in the %s vocabulary", in.Op, vocab.Arch())
			}
			if count := r.u8(); count > 0 {
				in.Operands = make([]Operand, count)
				for j := range in.Operands {
					in.Operands[j] = Operand{Kind: OperandKind(r.u8()), Role: r.role(), Imm: r.i64(), FrameScale: r.i64()}
				}
			}
			c.LIR[i] = in
		}
	}

	c.Metadata.SpillCount = int(r.u64())
	c.Metadata.MaxStackDepth = int(r.u64())
	c.Metadata.InstructionCount = int(r.u64())
	c.Metadata.ScratchRegisterCount = int(r.u64())

	n := r.count()
	for i := 0; r.err == nil && i < n; i++ {
		c.stackMap.ReplaceOrInsert(StackMapEntry{PC: r.i64(), StackPointerOffset: r.i64()})
	}

	if r.err != nil {
		return nil, false, fmt.Errorf("compilationcache: %v", r.err)
	}
	return c, false, nil
}

type encoder struct {
	buf bytes.Buffer
	tmp [8]byte
}

func (w *encoder) u16(v uint16) {
	binary.LittleEndian.PutUint16(w.tmp[:2], v)
	w.buf.Write(w.tmp[:2])
}

func (w *encoder) u32(v uint32) {
	binary.LittleEndian.PutUint32(w.tmp[:4], v)
	w.buf.Write(w.tmp[:4])
}

func (w *encoder) u64(v uint64) {
	binary.LittleEndian.PutUint64(w.tmp[:8], v)
	w.buf.Write(w.tmp[:8])
}

func (w *encoder) i64(v int64) {
	w.u64(uint64(v))
}

func (w *encoder) role(r Role) {
	w.buf.WriteByte(byte(r.Kind))
	w.u32(uint32(r.Index))
}

// Bounds of the length prefixes a decoder accepts.
const (
	maxVersionLength    = 1 << 12
	maxSerializedLength = 1 << 30
	maxSerializedCount  = 1 << 20
)

// byteReader yields first, then the bytes of r.
type byteReader struct {
	first    byte
	consumed bool
	r        io.Reader
	tmp      [1]byte
}

func (b *byteReader) ReadByte() (byte, error) {
	if !b.consumed {
		b.consumed = true
		return b.first, nil
	}
	if _, err := io.ReadFull(b.r, b.tmp[:]); err != nil {
		return 0, err
	}
	return b.tmp[0], nil
}

// decoder reads little-endian values, remembering the first error. Every
// read after an error returns zero.
type decoder struct {
	r   io.Reader
	err error
	tmp [8]byte
}

func (d *decoder) read(n int) []byte {
	if d.err == nil {
		if _, d.err = io.ReadFull(d.r, d.tmp[:n]); d.err == nil {
			return d.tmp[:n]
		}
	}
	clear(d.tmp[:])
	return d.tmp[:n]
}

func (d *decoder) u8() byte {
	return d.read(1)[0]
}

func (d *decoder) u16() uint16 {
	return binary.LittleEndian.Uint16(d.read(2))
}

func (d *decoder) u32() uint32 {
	return binary.LittleEndian.Uint32(d.read(4))
}

func (d *decoder) u64() uint64 {
	return binary.LittleEndian.Uint64(d.read(8))
}

func (d *decoder) i64() int64 {
	return int64(d.u64())
}

// count reads the number of entries of a table.
func (d *decoder) count() int {
	n := d.u32()
	if n > maxSerializedCount {
		d.err = fmt.Errorf("%d entries exceed %d", n, maxSerializedCount)
		return 0
	}
	return int(n)
}

func (d *decoder) role() Role {
	kind := RoleKind(d.u8())
	return Role{Kind: kind, Index: int(d.u32())}
}

func (d *decoder) bytes(n uint64) []byte {
	if d.err != nil {
		return nil
	}
	if n > maxSerializedLength {
		d.err = fmt.Errorf("length %d exceeds %d", n, maxSerializedLength)
		return nil
	}
	ret := make([]byte, n)
	if _, err := io.ReadFull(d.r, ret); err != nil {
		d.err = err
		return nil
	}
	return ret
}
