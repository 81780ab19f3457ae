package objwriter

import (
	"crypto/rand"
	"encoding/hex"
)

// genTmpName returns a short random name for a file under tmp/. Grounded on
// original_source/src/libostree/ostree-repo-commit.c's
// gsystem_fileutil_gen_tmp_name-backed retry loop in
// make_temporary_symlink_at: a short random name makes collisions plausible
// enough that the caller's retry loop is actually exercised, rather than
// a near-certainly-unique identifier like a ULID.
func genTmpName() string {
	var b [4]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand.Read on any supported platform only fails if the
		// system entropy source is broken, which nothing here can recover
		// from; panicking surfaces it immediately instead of silently
		// reusing a zero name.
		panic("objwriter: crypto/rand unavailable: " + err.Error())
	}
	return "tmp-" + hex.EncodeToString(b[:])
}
