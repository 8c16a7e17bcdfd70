package s5fs

import "github.com/s5kern/wfs/defs"

// On-disk type tags, matching defs.Type_t's values so stat() can surface
// them without translation.
const (
	typeFree  = uint32(defs.T_FREE)
	typeFile  = uint32(defs.T_FILE)
	typeDir   = uint32(defs.T_DIR)
	typeChar  = uint32(defs.T_CHAR)
	typeBlock = uint32(defs.T_BLOCK)
)
