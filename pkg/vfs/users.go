package vfs

import (
	"sort"
	"strconv"
	"strings"

	"github.com/marmos91/dagfs/pkg/dag"
)

// User database queries backed by /etc/passwd and /etc/group inside the
// filesystem itself. Both files use the classic colon-separated layout;
// malformed lines are skipped.

// LookupUser returns the uid and gid for a user name. Without a
// readable /etc/passwd it falls back to (1000, 1000) for "user" and
// (0, 0) otherwise; an unknown name resolves to (1000, 1000).
func (fs *FileSystem) LookupUser(name string) (uint32, uint32) {
	content, ok := fs.Read("/etc/passwd")
	if !ok {
		if name == "user" {
			return dag.DefaultUID, dag.DefaultGID
		}
		return 0, 0
	}

	for _, line := range strings.Split(strings.TrimSpace(string(content)), "\n") {
		parts := strings.Split(line, ":")
		if len(parts) < 4 || parts[0] != name {
			continue
		}
		uid, err := strconv.ParseUint(parts[2], 10, 32)
		if err != nil {
			continue
		}
		gid, err := strconv.ParseUint(parts[3], 10, 32)
		if err != nil {
			continue
		}
		return uint32(uid), uint32(gid)
	}
	return dag.DefaultUID, dag.DefaultGID
}

// UserGroupIDs returns the sorted set of gids the user belongs to: the
// primary gid from /etc/passwd plus every group in /etc/group listing
// the user as a member.
func (fs *FileSystem) UserGroupIDs(name string) []uint32 {
	_, primary := fs.LookupUser(name)
	set := map[uint32]struct{}{primary: {}}

	if content, ok := fs.Read("/etc/group"); ok {
		for _, line := range strings.Split(strings.TrimSpace(string(content)), "\n") {
			parts := strings.Split(line, ":")
			if len(parts) < 4 {
				continue
			}
			gid, err := strconv.ParseUint(parts[2], 10, 32)
			if err != nil {
				continue
			}
			if groupHasMember(parts[3], name) {
				set[uint32(gid)] = struct{}{}
			}
		}
	}

	gids := make([]uint32, 0, len(set))
	for gid := range set {
		gids = append(gids, gid)
	}
	sort.Slice(gids, func(i, j int) bool { return gids[i] < gids[j] })
	return gids
}

// UserGroups returns the sorted names of the groups the user belongs
// to: the group whose gid matches the user's primary gid plus every
// group listing the user as a member.
func (fs *FileSystem) UserGroups(name string) []string {
	_, primary := fs.LookupUser(name)

	var names []string
	if content, ok := fs.Read("/etc/group"); ok {
		for _, line := range strings.Split(strings.TrimSpace(string(content)), "\n") {
			parts := strings.Split(line, ":")
			if len(parts) < 4 {
				continue
			}
			gid, err := strconv.ParseUint(parts[2], 10, 32)
			if err != nil {
				continue
			}
			if uint32(gid) == primary || groupHasMember(parts[3], name) {
				names = append(names, parts[0])
			}
		}
	}
	sort.Strings(names)
	return names
}

func groupHasMember(memberList, name string) bool {
	if memberList == "" {
		return false
	}
	for _, m := range strings.Split(memberList, ",") {
		if m == name {
			return true
		}
	}
	return false
}

// CheckPermission reports whether a caller with the given uid and gids
// holds perm on the entry at p. perm is a single permission bit from
// any class (owner, group, or other); the class checked is decided by
// the standard owner, then group, then other precedence, and the first
// matching class is definitive. Root passes every check. A missing path
// denies.
func (fs *FileSystem) CheckPermission(p string, uid uint32, gids []uint32, perm uint32) bool {
	info, ok := fs.Stat(p)
	if !ok {
		return false
	}
	if uid == 0 {
		return true
	}

	class := permClass(perm)
	if class == 0 {
		return false
	}

	if uid == info.UID {
		switch class {
		case 'r':
			return info.Mode&dag.PermOwnerRead != 0
		case 'w':
			return info.Mode&dag.PermOwnerWrite != 0
		case 'x':
			return info.Mode&dag.PermOwnerExec != 0
		}
	}
	for _, gid := range gids {
		if gid == info.GID {
			switch class {
			case 'r':
				return info.Mode&dag.PermGroupRead != 0
			case 'w':
				return info.Mode&dag.PermGroupWrite != 0
			case 'x':
				return info.Mode&dag.PermGroupExec != 0
			}
		}
	}
	switch class {
	case 'r':
		return info.Mode&dag.PermOtherRead != 0
	case 'w':
		return info.Mode&dag.PermOtherWrite != 0
	case 'x':
		return info.Mode&dag.PermOtherExec != 0
	}
	return false
}

// permClass collapses a permission bit to its class letter.
func permClass(perm uint32) byte {
	switch perm {
	case dag.PermOwnerRead, dag.PermGroupRead, dag.PermOtherRead:
		return 'r'
	case dag.PermOwnerWrite, dag.PermGroupWrite, dag.PermOtherWrite:
		return 'w'
	case dag.PermOwnerExec, dag.PermGroupExec, dag.PermOtherExec:
		return 'x'
	}
	return 0
}
