package vfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/dagfs/pkg/dag"
)

func seededFS(t *testing.T) *FileSystem {
	t.Helper()
	fs := New()
	require.NoError(t, fs.Seed())
	return fs
}

func TestLookupUser(t *testing.T) {
	t.Run("SeededUsers", func(t *testing.T) {
		fs := seededFS(t)

		for _, tc := range []struct {
			name string
			uid  uint32
			gid  uint32
		}{
			{"root", 0, 0},
			{"user", 1000, 1000},
			{"alice", 1001, 1001},
			{"bob", 1002, 1002},
		} {
			uid, gid := fs.LookupUser(tc.name)
			assert.Equal(t, tc.uid, uid, tc.name)
			assert.Equal(t, tc.gid, gid, tc.name)
		}
	})

	t.Run("UnknownUserDefaults", func(t *testing.T) {
		fs := seededFS(t)

		uid, gid := fs.LookupUser("mallory")
		assert.Equal(t, uint32(1000), uid)
		assert.Equal(t, uint32(1000), gid)
	})

	t.Run("WithoutPasswdFile", func(t *testing.T) {
		fs := New()

		uid, gid := fs.LookupUser("user")
		assert.Equal(t, uint32(1000), uid)
		assert.Equal(t, uint32(1000), gid)

		uid, gid = fs.LookupUser("alice")
		assert.Equal(t, uint32(0), uid)
		assert.Equal(t, uint32(0), gid)
	})

	t.Run("MalformedLinesSkipped", func(t *testing.T) {
		fs := New()
		require.True(t, fs.Mkdir("/etc"))
		require.True(t, fs.Write("/etc/passwd", []byte("garbage\ncarol:x:2001:2001:Carol:/home/carol:/bin/sh")))

		uid, gid := fs.LookupUser("carol")
		assert.Equal(t, uint32(2001), uid)
		assert.Equal(t, uint32(2001), gid)
	})
}

func TestUserGroups(t *testing.T) {
	t.Run("GroupIDs", func(t *testing.T) {
		fs := seededFS(t)

		assert.Equal(t, []uint32{1001, 2000}, fs.UserGroupIDs("alice"))
		assert.Equal(t, []uint32{1002, 2000}, fs.UserGroupIDs("bob"))
		assert.Equal(t, []uint32{0}, fs.UserGroupIDs("root"))
		assert.Equal(t, []uint32{1000}, fs.UserGroupIDs("user"))
	})

	t.Run("GroupNames", func(t *testing.T) {
		fs := seededFS(t)

		assert.Equal(t, []string{"alice", "developers"}, fs.UserGroups("alice"))
		assert.Equal(t, []string{"bob", "developers"}, fs.UserGroups("bob"))
		assert.Equal(t, []string{"root"}, fs.UserGroups("root"))
		assert.Equal(t, []string{"user"}, fs.UserGroups("user"))
	})

	t.Run("UnknownUserFallsToDefaultGroup", func(t *testing.T) {
		fs := seededFS(t)

		assert.Equal(t, []uint32{1000}, fs.UserGroupIDs("mallory"))
		assert.Equal(t, []string{"user"}, fs.UserGroups("mallory"))
	})

	t.Run("WithoutGroupFile", func(t *testing.T) {
		fs := New()
		assert.Empty(t, fs.UserGroups("alice"))
	})
}

func TestCheckPermission(t *testing.T) {
	fs := seededFS(t)
	// Seeded files are mode 0644, uid 1000, gid 1000.
	const target = "/etc/passwd"

	t.Run("RootAlwaysAllowed", func(t *testing.T) {
		assert.True(t, fs.CheckPermission(target, 0, nil, dag.PermOwnerRead))
		assert.True(t, fs.CheckPermission(target, 0, nil, dag.PermOwnerWrite))
		assert.True(t, fs.CheckPermission(target, 0, nil, dag.PermOwnerExec))
	})

	t.Run("Owner", func(t *testing.T) {
		assert.True(t, fs.CheckPermission(target, 1000, nil, dag.PermOwnerRead))
		assert.True(t, fs.CheckPermission(target, 1000, nil, dag.PermOwnerWrite))
		assert.False(t, fs.CheckPermission(target, 1000, nil, dag.PermOwnerExec))
	})

	t.Run("GroupMember", func(t *testing.T) {
		assert.True(t, fs.CheckPermission(target, 1001, []uint32{1000}, dag.PermGroupRead))
		assert.False(t, fs.CheckPermission(target, 1001, []uint32{1000}, dag.PermGroupWrite))
	})

	t.Run("Other", func(t *testing.T) {
		assert.True(t, fs.CheckPermission(target, 1001, nil, dag.PermOtherRead))
		assert.False(t, fs.CheckPermission(target, 1001, nil, dag.PermOtherWrite))
		assert.False(t, fs.CheckPermission(target, 1001, nil, dag.PermOtherExec))
	})

	t.Run("MissingPathDenies", func(t *testing.T) {
		assert.False(t, fs.CheckPermission("/ghost", 0, nil, dag.PermOwnerRead))
	})

	t.Run("UnknownPermissionBitDenies", func(t *testing.T) {
		assert.False(t, fs.CheckPermission(target, 1000, nil, 0))
		assert.False(t, fs.CheckPermission(target, 1000, nil, 0o4000))
	})
}
