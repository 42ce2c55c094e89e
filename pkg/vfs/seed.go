package vfs

import (
	"fmt"

	"github.com/marmos91/dagfs/internal/logger"
	"github.com/marmos91/dagfs/pkg/dag"
)

const seedPasswd = `root:x:0:0:root:/root:/bin/sh
user:x:1000:1000:Default User:/home/user:/bin/sh
alice:x:1001:1001:Alice:/home/alice:/bin/sh
bob:x:1002:1002:Bob:/home/bob:/bin/sh`

const seedGroup = `root:x:0:
user:x:1000:
alice:x:1001:
bob:x:1002:
developers:x:2000:alice,bob`

// Seed populates a fresh filesystem with the baseline structure: a user
// database under /etc and the null, zero, and random devices under
// /dev. Seeding an already populated filesystem fails on the first
// colliding path.
func (fs *FileSystem) Seed() error {
	steps := []struct {
		desc string
		ok   func() bool
	}{
		{"mkdir /etc", func() bool { return fs.Mkdir("/etc") }},
		{"write /etc/passwd", func() bool { return fs.Write("/etc/passwd", []byte(seedPasswd)) }},
		{"write /etc/group", func() bool { return fs.Write("/etc/group", []byte(seedGroup)) }},
		{"mkdir /dev", func() bool { return fs.Mkdir("/dev") }},
		{"mknod /dev/null", func() bool { return fs.Mknod("/dev/null", dag.DeviceNull) }},
		{"mknod /dev/zero", func() bool { return fs.Mknod("/dev/zero", dag.DeviceZero) }},
		{"mknod /dev/random", func() bool { return fs.Mknod("/dev/random", dag.DeviceRandom) }},
	}
	for _, step := range steps {
		if !step.ok() {
			return fmt.Errorf("seed: %s failed", step.desc)
		}
	}

	logger.Info("seeded filesystem: %d paths, %d nodes", fs.PathCount(), fs.NodeCount())
	return nil
}
