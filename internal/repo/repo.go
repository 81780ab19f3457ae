package repo

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/imgrepo/imgrepo/internal/infra/fs/txn"
	"github.com/imgrepo/imgrepo/internal/mtree"
	"github.com/imgrepo/imgrepo/internal/objects"
	"github.com/imgrepo/imgrepo/internal/refupdater"
	"github.com/imgrepo/imgrepo/internal/storagemode"
)

// Repo is a single local repository: its on-disk layout, its transaction
// manager (C5), and a tree walker (C4) sharing that manager's object
// writer and devino cache. This is the facade spec.md §6 lists by
// operation name ("prepare_transaction", "write_directory_to_mtree", …);
// every exported method here forwards to exactly one core component.
type Repo struct {
	Root   string
	Mode   storagemode.Mode
	Txn    *txn.Manager
	Walker *mtree.Walker
}

// Init creates a new repository at root: the objects/, tmp/, and
// refs/{heads,remotes} directories, and a config.yaml recording mode
// (spec.md §3 "Storage modes ... chosen at repo creation, immutable
// thereafter"). parents, if given, are absolute paths to parent
// repositories' roots, outermost first, consulted by ScanHardlinks.
func Init(root string, mode storagemode.Mode, parents []string) (*Repo, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("repo: invalid storage mode")
	}
	for _, dir := range []string{"objects", "tmp", filepath.Join("refs", "heads"), filepath.Join("refs", "remotes")} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o777); err != nil {
			return nil, fmt.Errorf("repo: init %s: %w", dir, err)
		}
	}
	cfg := Config{Mode: mode.String(), Parents: parents}
	if err := saveConfig(root, cfg); err != nil {
		return nil, err
	}
	return open(root, cfg)
}

// Open loads an existing repository's config.yaml and wires up its
// transaction manager and tree walker.
func Open(root string) (*Repo, error) {
	cfg, err := loadConfig(root)
	if err != nil {
		return nil, err
	}
	return open(root, cfg)
}

func open(root string, cfg Config) (*Repo, error) {
	mode, err := cfg.mode()
	if err != nil {
		return nil, fmt.Errorf("repo: %w", err)
	}

	parentObjectsDirs := make([]string, 0, len(cfg.Parents))
	for _, p := range cfg.Parents {
		parentObjectsDirs = append(parentObjectsDirs, filepath.Join(p, "objects"))
	}

	updater := &refupdater.Local{RefsDir: filepath.Join(root, "refs")}
	mgr := txn.New(root, mode, updater)
	mgr.ParentObjectsDirs = parentObjectsDirs

	return &Repo{
		Root: root,
		Mode: mode,
		Txn:  mgr,
		Walker: &mtree.Walker{
			Writer: mgr.Writer,
			Devino: mgr.Devino,
		},
	}, nil
}

// Prepare opens a write transaction (spec.md §4.5 "Prepare").
func (r *Repo) Prepare() (resumed bool, err error) {
	return r.Txn.Prepare()
}

// Commit closes the open transaction, applying pending ref updates and
// returning accumulated statistics (spec.md §4.5 "Commit").
func (r *Repo) Commit() (txn.Stats, error) {
	return r.Txn.Commit()
}

// Abort discards the open transaction without touching the refs namespace
// (spec.md §4.5 "Abort").
func (r *Repo) Abort() error {
	return r.Txn.Abort()
}

// ScanHardlinks rebuilds the devino cache from this repository (and its
// parent chain) and re-points the walker at it (spec.md §4.3 "build").
func (r *Repo) ScanHardlinks() error {
	if err := r.Txn.ScanHardlinks(); err != nil {
		return err
	}
	r.Walker.Devino = r.Txn.Devino
	return nil
}

// IngestDirectory walks srcDir into a fresh mutable tree and returns its
// root node, ready for WriteMtree (spec.md §6 "write_directory_to_mtree").
func (r *Repo) IngestDirectory(srcDir string, modifier *mtree.Modifier) (*mtree.Node, error) {
	root := mtree.NewNode()
	stack := &mtree.PathStack{}
	if err := r.Walker.IngestDirectory(srcDir, root, modifier, stack); err != nil {
		return nil, err
	}
	return root, nil
}

// WriteMtree serializes node (and any not-yet-serialized subdirectories)
// into DIR_TREE objects, returning the root's contents checksum (spec.md
// §6 "write_mtree").
func (r *Repo) WriteMtree(node *mtree.Node) (objects.Checksum, error) {
	return mtree.WriteMtree(r.Txn.Writer, node)
}

// WriteCommit assembles and writes a COMMIT object (spec.md §6
// "write_commit"). The caller still binds it to branch with SetRef/
// SetRefspec in the same transaction.
func (r *Repo) WriteCommit(parent *objects.Checksum, subject, body string, rootTree, rootMeta objects.Checksum) (objects.Checksum, error) {
	return r.Txn.WriteCommit(parent, subject, body, rootTree, rootMeta)
}

// WriteContent writes an untrusted FILE object (spec.md §6 "write_content").
func (r *Repo) WriteContent(input io.Reader, declaredLength int64) (objects.Checksum, error) {
	return r.Txn.WriteContent(input, declaredLength)
}

// WriteContentVerified writes a FILE object, verifying the stream hashes to
// expected and failing with a Corrupt error if it doesn't (spec.md §6
// "write_content(expected?, ...)", scenario 3). Use this instead of
// WriteContentTrusted when expected comes from an untrusted source (e.g. a
// remote) and must be checked rather than assumed.
func (r *Repo) WriteContentVerified(expected objects.Checksum, input io.Reader, declaredLength int64) (objects.Checksum, error) {
	return r.Txn.WriteContentVerified(expected, input, declaredLength)
}

// WriteContentTrusted writes a FILE object whose checksum is already known
// (spec.md §6 "write_content_trusted").
func (r *Repo) WriteContentTrusted(expected objects.Checksum, input io.Reader, declaredLength int64) (objects.Checksum, error) {
	return r.Txn.WriteContentTrusted(expected, input, declaredLength)
}

// SetRef stages a ref update, applied on Commit (spec.md §6 "set_ref").
func (r *Repo) SetRef(remote *string, ref string, checksum *objects.Checksum) error {
	return r.Txn.SetRef(remote, ref, checksum)
}
