package defs

/// Open-flag bits accepted by namev_open / the VFS open syscall.
const (
	O_RDONLY int = 0x0
	O_WRONLY int = 0x1
	O_RDWR   int = 0x2
	O_CREAT  int = 0x40
	O_EXCL   int = 0x80
	O_TRUNC  int = 0x200
	O_APPEND int = 0x400
	O_DIRECT int = 0x4000
)

/// Seek whence values for lseek.
const (
	SEEK_SET int = 0
	SEEK_CUR int = 1
	SEEK_END int = 2
)

/// mmap protection bits.
const (
	PROT_NONE  int = 0x0
	PROT_READ  int = 0x1
	PROT_WRITE int = 0x2
	PROT_EXEC  int = 0x4
)

/// mmap flag bits.
const (
	MAP_SHARED  int = 0x1
	MAP_PRIVATE int = 0x2
	MAP_FIXED   int = 0x10
	MAP_ANON    int = 0x20
)

/// Vnode type tags, shared by the on-disk inode and the in-memory vnode.
type Type_t int

const (
	T_FREE Type_t = 0
	T_FILE Type_t = 1
	T_DIR  Type_t = 2
	T_CHAR Type_t = 3
	T_BLOCK Type_t = 4
)
