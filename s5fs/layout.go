// Package s5fs implements the on-disk S5-style filesystem: superblock,
// free-block and free-inode linked lists, inodes with direct and
// single-indirect block pointers, and fixed-record directory entries.
package s5fs

import (
	"encoding/binary"

	"github.com/s5kern/wfs/limits"
)

const Magic uint32 = 0x53354653 // "S5FS"
const Version uint32 = 1

/// BlockNone is the sparse-block sentinel: block number 0 means "no disk
/// block allocated here".
const BlockNone = 0

/// superblock mirrors the layout of block 0, read/written through a
/// fixed-offset accessor the way the teacher's Superblock_t wraps a
/// *mem.Bytepg_t, generalized here to encoding/binary since S5FS's own
/// layout (free list + free-inode list) differs from the teacher's
/// log/bitmap format.
type superblock struct {
	Magic        uint32
	Version      uint32
	RootIno      uint32
	TotalInodes  uint32
	FreeInoHead  int32 // -1 means empty
	FreeSlotCnt  uint32
	FreeArray    [limits.NSBFREE]uint32 // last conceptual slot is freeNodeNext below
	FreeNodeNext int32                  // -1 means no further free-list node
}

func readSuperblock(block []byte) *superblock {
	sb := &superblock{}
	sb.Magic = binary.LittleEndian.Uint32(block[0:4])
	sb.Version = binary.LittleEndian.Uint32(block[4:8])
	sb.RootIno = binary.LittleEndian.Uint32(block[8:12])
	sb.TotalInodes = binary.LittleEndian.Uint32(block[12:16])
	sb.FreeInoHead = int32(binary.LittleEndian.Uint32(block[16:20]))
	sb.FreeSlotCnt = binary.LittleEndian.Uint32(block[20:24])
	off := 24
	for i := 0; i < limits.NSBFREE; i++ {
		sb.FreeArray[i] = binary.LittleEndian.Uint32(block[off : off+4])
		off += 4
	}
	sb.FreeNodeNext = int32(binary.LittleEndian.Uint32(block[off : off+4]))
	return sb
}

func (sb *superblock) write(block []byte) {
	binary.LittleEndian.PutUint32(block[0:4], sb.Magic)
	binary.LittleEndian.PutUint32(block[4:8], sb.Version)
	binary.LittleEndian.PutUint32(block[8:12], sb.RootIno)
	binary.LittleEndian.PutUint32(block[12:16], sb.TotalInodes)
	binary.LittleEndian.PutUint32(block[16:20], uint32(sb.FreeInoHead))
	binary.LittleEndian.PutUint32(block[20:24], sb.FreeSlotCnt)
	off := 24
	for i := 0; i < limits.NSBFREE; i++ {
		binary.LittleEndian.PutUint32(block[off:off+4], sb.FreeArray[i])
		off += 4
	}
	binary.LittleEndian.PutUint32(block[off:off+4], uint32(sb.FreeNodeNext))
}

/// freelistNode is the layout of an ordinary (non-superblock) free-list
/// block: NNODEFREE block numbers plus a next-node pointer in the final
/// slot.
type freelistNode struct {
	Blocks [limits.NNODEFREE]uint32
	Next   int32
}

func readFreelistNode(block []byte) *freelistNode {
	n := &freelistNode{}
	off := 0
	for i := 0; i < limits.NNODEFREE; i++ {
		n.Blocks[i] = binary.LittleEndian.Uint32(block[off : off+4])
		off += 4
	}
	n.Next = int32(binary.LittleEndian.Uint32(block[off : off+4]))
	return n
}

func (n *freelistNode) write(block []byte) {
	off := 0
	for i := 0; i < limits.NNODEFREE; i++ {
		binary.LittleEndian.PutUint32(block[off:off+4], n.Blocks[i])
		off += 4
	}
	binary.LittleEndian.PutUint32(block[off:off+4], uint32(n.Next))
}

/// inode is the on-disk 128-byte inode record: type tag, link count,
/// size-or-next-free union, N_DIRECT direct block numbers, an indirect
/// block number, a device id for special files, and an mtime.
type inode struct {
	Type    uint32
	Nlink   uint32
	Size    uint32 // valid when Type != T_FREE
	NextFree int32  // valid when Type == T_FREE, -1 sentinel
	Direct  [limits.N_DIRECT]uint32
	Indirect uint32
	Devid   uint32
	Mtime   int64
}

// inodeDiskSize is the on-disk record size for one inode: 128 bytes, 32
// packed per 4KiB block. The struct's actual fields take fewer bytes;
// the remainder is reserved padding.
const inodeDiskSize = limits.INODESIZE

func readInode(buf []byte) *inode {
	ino := &inode{}
	off := 0
	ino.Type = binary.LittleEndian.Uint32(buf[off : off+4])
	off += 4
	ino.Nlink = binary.LittleEndian.Uint32(buf[off : off+4])
	off += 4
	// Size and NextFree share storage; stored as one uint32, interpreted
	// by Type.
	raw := binary.LittleEndian.Uint32(buf[off : off+4])
	ino.Size = raw
	ino.NextFree = int32(raw)
	off += 4
	for i := 0; i < limits.N_DIRECT; i++ {
		ino.Direct[i] = binary.LittleEndian.Uint32(buf[off : off+4])
		off += 4
	}
	ino.Indirect = binary.LittleEndian.Uint32(buf[off : off+4])
	off += 4
	ino.Devid = binary.LittleEndian.Uint32(buf[off : off+4])
	off += 4
	ino.Mtime = int64(binary.LittleEndian.Uint64(buf[off : off+8]))
	return ino
}

func (ino *inode) write(buf []byte) {
	off := 0
	binary.LittleEndian.PutUint32(buf[off:off+4], ino.Type)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:off+4], ino.Nlink)
	off += 4
	var raw uint32
	if ino.Type == uint32(typeFree) {
		raw = uint32(ino.NextFree)
	} else {
		raw = ino.Size
	}
	binary.LittleEndian.PutUint32(buf[off:off+4], raw)
	off += 4
	for i := 0; i < limits.N_DIRECT; i++ {
		binary.LittleEndian.PutUint32(buf[off:off+4], ino.Direct[i])
		off += 4
	}
	binary.LittleEndian.PutUint32(buf[off:off+4], ino.Indirect)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:off+4], ino.Devid)
	off += 4
	binary.LittleEndian.PutUint64(buf[off:off+8], uint64(ino.Mtime))
}

/// inodeOffset returns the (block, offset-within-block) of inode number
/// ino, given the first inode-table block number.
func inodeOffset(ino uint32, firstInodeBlock int) (block int, byteOff int) {
	perBlock := limits.BSIZE / inodeDiskSize
	block = firstInodeBlock + int(ino)/perBlock
	byteOff = (int(ino) % perBlock) * inodeDiskSize
	return
}

/// dirent is one fixed-size directory record: an inode number plus a
/// bounded, NUL-padded name. A zero-length name marks an empty/removed
/// slot.
type dirent struct {
	Ino  uint32
	Name [limits.DIRENT_NAME_LEN]byte
}

const direntDiskSize = 4 + limits.DIRENT_NAME_LEN

func readDirent(buf []byte) *dirent {
	d := &dirent{}
	d.Ino = binary.LittleEndian.Uint32(buf[0:4])
	copy(d.Name[:], buf[4:4+limits.DIRENT_NAME_LEN])
	return d
}

func (d *dirent) write(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], d.Ino)
	for i := range d.Name {
		buf[4+i] = 0
	}
	copy(buf[4:4+limits.DIRENT_NAME_LEN], d.Name[:])
}

func (d *dirent) nameLen() int {
	for i, b := range d.Name {
		if b == 0 {
			return i
		}
	}
	return len(d.Name)
}

func (d *dirent) nameStr() string {
	return string(d.Name[:d.nameLen()])
}

func (d *dirent) setName(name string) bool {
	if len(name) > limits.DIRENT_NAME_LEN-1 {
		return false
	}
	for i := range d.Name {
		d.Name[i] = 0
	}
	copy(d.Name[:], name)
	return true
}
