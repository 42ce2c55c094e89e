package dag

import "time"

// Unix file-type bits carried in Meta.Mode. The variant of a node is
// authoritative for its kind; these bits mirror it for stat output and
// host export.
const (
	ModeRegular uint32 = 0o100000
	ModeDir     uint32 = 0o040000
	ModeCharDev uint32 = 0o020000
)

// Permission bits (rwx for owner, group, other).
const (
	PermOwnerRead  uint32 = 0o400
	PermOwnerWrite uint32 = 0o200
	PermOwnerExec  uint32 = 0o100
	PermGroupRead  uint32 = 0o040
	PermGroupWrite uint32 = 0o020
	PermGroupExec  uint32 = 0o010
	PermOtherRead  uint32 = 0o004
	PermOtherWrite uint32 = 0o002
	PermOtherExec  uint32 = 0o001
)

// Default modes and ownership for newly created nodes.
const (
	DefaultFileMode   = ModeRegular | 0o644
	DefaultDirMode    = ModeDir | 0o755
	DefaultDeviceMode = ModeCharDev | 0o666

	DefaultUID uint32 = 1000
	DefaultGID uint32 = 1000

	// Devices are owned by root.
	DeviceUID uint32 = 0
	DeviceGID uint32 = 0
)

// Now returns the current time as float64 Unix seconds, the mtime
// representation nodes carry.
func Now() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}
