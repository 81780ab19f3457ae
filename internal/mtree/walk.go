package mtree

import (
	"bytes"
	"io"
	"os"
	"path/filepath"

	"github.com/imgrepo/imgrepo/internal/devino"
	"github.com/imgrepo/imgrepo/internal/objects"
	"github.com/imgrepo/imgrepo/internal/objwriter"
	"github.com/imgrepo/imgrepo/internal/posixattr"
	"github.com/imgrepo/imgrepo/internal/repoerr"
	"github.com/imgrepo/imgrepo/internal/xattrs"
)

// CheckoutResolver lets a caller tell the walker that absPath is an
// unmodified checkout of a tree this repository already has objects for,
// so its stored checksums can be reused instead of re-hashing every file
// (spec.md §4.4 step 1, "fast subtree reuse"). Checkout itself is out of
// scope for this core (spec.md §1); a caller that implements it elsewhere
// can supply a Resolver, and a walker with none configured always takes
// the full-walk path.
type CheckoutResolver interface {
	Resolve(absPath string) (metaChecksum, contentsChecksum objects.Checksum, ok bool)
}

// Walker ingests source directories into mutable tree nodes, calling an
// object writer for new content and a devino cache for the hardlink fast
// path (spec.md §4.4, C4).
type Walker struct {
	Writer   *objwriter.Writer
	Devino   *devino.Cache
	Resolver CheckoutResolver
}

// IngestDirectory walks srcDir into node, applying modifier (nil means no
// filtering) and tracking the logical path in stack for filter callbacks.
func (w *Walker) IngestDirectory(srcDir string, node *Node, modifier *Modifier, stack *PathStack) error {
	// Step 1: fast subtree reuse.
	if modifier == nil && w.Resolver != nil {
		if meta, contents, ok := w.Resolver.Resolve(srcDir); ok {
			node.SetMeta(meta)
			if node.Empty() {
				node.SetContentsChecksum(contents)
			}
			return nil
		}
	}

	// Step 2: this directory's own metadata.
	dirInfo, err := posixattr.Lstat(srcDir)
	if err != nil {
		return &repoerr.IO{Context: "lstat " + srcDir, Err: err}
	}
	verdict, dirInfo := modifier.apply(stack.String(), dirInfo)
	if verdict == Skip {
		return nil
	}
	var dirXattrs []objects.Xattr
	if !modifier.skipXattrs() {
		dirXattrs, err = xattrs.Get(srcDir, false)
		if err != nil {
			return &repoerr.IO{Context: "xattrs " + srcDir, Err: err}
		}
	}
	metaCsum, err := w.writeDirMeta(dirInfo, dirXattrs)
	if err != nil {
		return err
	}
	node.SetMeta(metaCsum)

	// Step 3: enumerate children.
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return &repoerr.IO{Context: "readdir " + srcDir, Err: err}
	}
	for _, entry := range entries {
		name := entry.Name()
		childPath := filepath.Join(srcDir, name)
		stack.Push(name)

		childInfo, err := posixattr.Lstat(childPath)
		if err != nil {
			stack.Pop()
			return &repoerr.IO{Context: "lstat " + childPath, Err: err}
		}
		verdict, childInfo := modifier.apply(stack.String(), childInfo)
		if verdict == Skip {
			stack.Pop()
			continue
		}

		if childInfo.Kind == posixattr.KindDirectory {
			childNode, err := node.EnsureSubdir(name)
			if err != nil {
				stack.Pop()
				return err
			}
			if err := w.IngestDirectory(childPath, childNode, modifier, stack); err != nil {
				stack.Pop()
				return err
			}
			stack.Pop()
			continue
		}

		csum, err := w.ingestFile(childPath, childInfo, modifier)
		if err != nil {
			stack.Pop()
			return err
		}
		if err := node.SetFile(name, csum); err != nil {
			stack.Pop()
			return err
		}
		stack.Pop()
	}
	return nil
}

func (w *Walker) writeDirMeta(info posixattr.Info, xs []objects.Xattr) (objects.Checksum, error) {
	dm := objects.DirMeta{Uid: info.Uid, Gid: info.Gid, Mode: info.Mode, Xattrs: xs}
	encoded, err := dm.Encode()
	if err != nil {
		return objects.Checksum{}, &repoerr.IO{Context: "encode dirmeta", Err: err}
	}
	res, err := w.Writer.Write(objects.DirMetaKind, nil, bytes.NewReader(encoded), int64(len(encoded)), true)
	if err != nil {
		return objects.Checksum{}, err
	}
	return res.Checksum, nil
}

// ingestFile implements step 3.e: devino fast path first, else read the
// file (regular) or its target (symlink), build a canonical FILE stream,
// and call the object writer.
func (w *Walker) ingestFile(path string, info posixattr.Info, modifier *Modifier) (objects.Checksum, error) {
	if info.Kind != posixattr.KindRegular && info.Kind != posixattr.KindSymlink {
		return objects.Checksum{}, &repoerr.NotSupported{FileType: kindName(info.Kind)}
	}

	if w.Devino != nil {
		if csum, ok := w.Devino.Lookup(info); ok {
			return csum, nil
		}
	}

	var xs []objects.Xattr
	if !modifier.skipXattrs() {
		var err error
		xs, err = xattrs.Get(path, false)
		if err != nil {
			return objects.Checksum{}, &repoerr.IO{Context: "xattrs " + path, Err: err}
		}
	}

	attr := objects.FileAttr{
		Mode:   info.Mode,
		Uid:    info.Uid,
		Gid:    info.Gid,
		Xattrs: xs,
	}

	var payload io.Reader = bytes.NewReader(nil)
	switch info.Kind {
	case posixattr.KindRegular:
		attr.Type = objects.RegularFile
		attr.Size = uint64(info.Size)
		f, err := os.Open(path)
		if err != nil {
			return objects.Checksum{}, &repoerr.IO{Context: "open " + path, Err: err}
		}
		defer f.Close()
		payload = f
	case posixattr.KindSymlink:
		attr.Type = objects.SymlinkFile
		attr.SymlinkTarget = info.SymlinkTarget
	}

	header, err := objects.HeaderBytes(attr)
	if err != nil {
		return objects.Checksum{}, &repoerr.IO{Context: "encode file header", Err: err}
	}
	input := io.MultiReader(bytes.NewReader(header), payload)

	res, err := w.Writer.Write(objects.FileKind, nil, input, int64(len(header))+int64(attr.Size), true)
	if err != nil {
		return objects.Checksum{}, err
	}
	return res.Checksum, nil
}

func kindName(k posixattr.FileKind) string {
	switch k {
	case posixattr.KindOther:
		return "other"
	default:
		return "unknown"
	}
}
