package bptree

import (
	"encoding/binary"
	"math"
)

// BranchFactor is the tree's branching factor, fixed at compile time per the
// on-disk format: internal nodes route over at most BranchFactor keys,
// leaves hold at most BranchFactor items (BranchFactor+1 transiently, before
// a split resolves the overflow).
const BranchFactor = 4

var magicBytes = [4]byte{'B', 'T', 'D', 'B'}

// magic is the BTDB signature stored in the header, compared as a little
// endian uint32 the same way the rest of the header is decoded.
var magic = binary.LittleEndian.Uint32(magicBytes[:])

const (
	leafFlag = 0x80000000 // high bit of a node/leaf attribs word marks a leaf
	itemBin  = 0x00000001 // low bit of an item's attribs word: value is a bin offset
	nitemsMask = 0x0000003F
)

// headerSize is the fixed byte size of the file header at offset 0.
//
//	magic        uint32
//	bfactor      uint16
//	itemattrib   uint8
//	depth        uint8
//	dirty        uint8
//	_pad         [3]byte
//	nnodes       uint32
//	nleaves      uint32
//	nitems       uint32
//	usedsize     uint32
//	rootOffset   uint32
const headerSize = 4 + 2 + 1 + 1 + 1 + 3 + 4 + 4 + 4 + 4 + 4

// itemSize is the on-disk size of one KVPAIR: attribs + key + val, each 4
// bytes. The attribs word is always present (unlike the source's conditional
// BT_KVP_ATTRIBS) so every item uniformly carries its bin indirection bit.
const itemSize = 4 + 4 + 4

// nodeSize is the on-disk size of an internal node: attribs (doubling as the
// node's item count, LEAF bit clear) + BranchFactor keys + BranchFactor+1
// child offsets.
const nodeSize = 4 + 4*BranchFactor + 4*(BranchFactor+1)

// leafSize is the on-disk size of a leaf: attribs (LEAF bit set, low bits the
// item count) + BranchFactor+1 items + prev/next sibling offsets.
const leafSize = 4 + itemSize*(BranchFactor+1) + 4 + 4

// binHeaderSize is the fixed prefix of a bin block, before its value array.
const binHeaderSize = 4 + 4

const defaultBinCapacity = 4

type fileHeader struct {
	bfactor    uint16
	itemattrib uint8
	depth      uint8
	dirty      uint8
	nnodes     uint32
	nleaves    uint32
	nitems     uint32
	usedsize   uint32
	rootOffset uint32
}

func readHeader(b []byte) fileHeader {
	_ = b[headerSize-1]
	return fileHeader{
		bfactor:    binary.LittleEndian.Uint16(b[4:6]),
		itemattrib: b[6],
		depth:      b[7],
		dirty:      b[8],
		nnodes:     binary.LittleEndian.Uint32(b[12:16]),
		nleaves:    binary.LittleEndian.Uint32(b[16:20]),
		nitems:     binary.LittleEndian.Uint32(b[20:24]),
		usedsize:   binary.LittleEndian.Uint32(b[24:28]),
		rootOffset: binary.LittleEndian.Uint32(b[28:32]),
	}
}

func readMagic(b []byte) uint32 {
	return binary.LittleEndian.Uint32(b[0:4])
}

func writeHeader(b []byte, h fileHeader) {
	_ = b[headerSize-1]
	binary.LittleEndian.PutUint32(b[0:4], magic)
	binary.LittleEndian.PutUint16(b[4:6], h.bfactor)
	b[6] = h.itemattrib
	b[7] = h.depth
	b[8] = h.dirty
	b[9], b[10], b[11] = 0, 0, 0
	binary.LittleEndian.PutUint32(b[12:16], h.nnodes)
	binary.LittleEndian.PutUint32(b[16:20], h.nleaves)
	binary.LittleEndian.PutUint32(b[20:24], h.nitems)
	binary.LittleEndian.PutUint32(b[24:28], h.usedsize)
	binary.LittleEndian.PutUint32(b[28:32], h.rootOffset)
}

// item is the decoded form of one KVPAIR.
type item struct {
	isBin bool
	key   float32
	val   uint32 // value, or bin block offset when isBin
}

func readItem(b []byte, off uint32) item {
	attribs := binary.LittleEndian.Uint32(b[off : off+4])
	keyBits := binary.LittleEndian.Uint32(b[off+4 : off+8])
	val := binary.LittleEndian.Uint32(b[off+8 : off+12])
	return item{
		isBin: attribs&itemBin != 0,
		key:   float32FromBits(keyBits),
		val:   val,
	}
}

func writeItem(b []byte, off uint32, it item) {
	var attribs uint32
	if it.isBin {
		attribs = itemBin
	}
	binary.LittleEndian.PutUint32(b[off:off+4], attribs)
	binary.LittleEndian.PutUint32(b[off+4:off+8], float32Bits(it.key))
	binary.LittleEndian.PutUint32(b[off+8:off+12], it.val)
}

// nodeHeader holds the decoded attribs word shared by internal nodes and
// leaves: item count and the LEAF discriminant bit.
type nodeHeader struct {
	nitems int
	isLeaf bool
}

func readNodeHeader(b []byte, off uint32) nodeHeader {
	attribs := binary.LittleEndian.Uint32(b[off : off+4])
	return nodeHeader{
		nitems: int(attribs & nitemsMask),
		isLeaf: attribs&leafFlag != 0,
	}
}

func writeNodeAttribs(b []byte, off uint32, nitems int, isLeaf bool) {
	attribs := uint32(nitems) & nitemsMask
	if isLeaf {
		attribs |= leafFlag
	}
	binary.LittleEndian.PutUint32(b[off:off+4], attribs)
}

// internalNode is the decoded form of a BTNODE.
type internalNode struct {
	nitems   int
	keys     [BranchFactor]float32
	children [BranchFactor + 1]uint32
}

func readInternal(b []byte, off uint32) internalNode {
	h := readNodeHeader(b, off)
	var n internalNode
	n.nitems = h.nitems
	p := off + 4
	for i := 0; i < BranchFactor; i++ {
		n.keys[i] = float32FromBits(binary.LittleEndian.Uint32(b[p : p+4]))
		p += 4
	}
	for i := 0; i < BranchFactor+1; i++ {
		n.children[i] = binary.LittleEndian.Uint32(b[p : p+4])
		p += 4
	}
	return n
}

func writeInternal(b []byte, off uint32, n internalNode) {
	writeNodeAttribs(b, off, n.nitems, false)
	p := off + 4
	for i := 0; i < BranchFactor; i++ {
		binary.LittleEndian.PutUint32(b[p:p+4], float32Bits(n.keys[i]))
		p += 4
	}
	for i := 0; i < BranchFactor+1; i++ {
		binary.LittleEndian.PutUint32(b[p:p+4], n.children[i])
		p += 4
	}
}

// leafNode is the decoded form of a BTLEAF.
type leafNode struct {
	nitems int
	items  [BranchFactor + 1]item
	prev   uint32
	next   uint32
}

func readLeaf(b []byte, off uint32) leafNode {
	h := readNodeHeader(b, off)
	var l leafNode
	l.nitems = h.nitems
	p := off + 4
	for i := 0; i < BranchFactor+1; i++ {
		l.items[i] = readItem(b, p)
		p += itemSize
	}
	l.prev = binary.LittleEndian.Uint32(b[p : p+4])
	l.next = binary.LittleEndian.Uint32(b[p+4 : p+8])
	return l
}

func writeLeaf(b []byte, off uint32, l leafNode) {
	writeNodeAttribs(b, off, l.nitems, true)
	p := off + 4
	for i := 0; i < BranchFactor+1; i++ {
		writeItem(b, p, l.items[i])
		p += itemSize
	}
	binary.LittleEndian.PutUint32(b[p:p+4], l.prev)
	binary.LittleEndian.PutUint32(b[p+4:p+8], l.next)
}

// bin is the decoded form of a BTBIN value-overflow chain block.
type bin struct {
	nitems   int
	maxitems int
	next     uint32
	vals     []uint32
}

func binSize(capacity int) uint32 {
	return binHeaderSize + 4*uint32(capacity)
}

func readBin(b []byte, off uint32) bin {
	attribs := binary.LittleEndian.Uint32(b[off : off+4])
	nitems := int(attribs & 0x00FFFFFF)
	maxitems := int((attribs >> 24) & 0x1F)
	next := binary.LittleEndian.Uint32(b[off+4 : off+8])
	vals := make([]uint32, nitems)
	p := off + binHeaderSize
	for i := 0; i < nitems; i++ {
		vals[i] = binary.LittleEndian.Uint32(b[p : p+4])
		p += 4
	}
	return bin{nitems: nitems, maxitems: maxitems, next: next, vals: vals}
}

func writeBinHeader(b []byte, off uint32, nitems, maxitems int, next uint32) {
	attribs := uint32(nitems&0x00FFFFFF) | uint32(maxitems&0x1F)<<24
	binary.LittleEndian.PutUint32(b[off:off+4], attribs)
	binary.LittleEndian.PutUint32(b[off+4:off+8], next)
}

func writeBinValue(b []byte, off uint32, index int, val uint32) {
	p := off + binHeaderSize + 4*uint32(index)
	binary.LittleEndian.PutUint32(b[p:p+4], val)
}

func float32Bits(f float32) uint32 {
	return math.Float32bits(f)
}

func float32FromBits(u uint32) float32 {
	return math.Float32frombits(u)
}
