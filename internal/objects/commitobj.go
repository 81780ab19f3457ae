package objects

import (
	"bytes"
	"io"
)

// Signature is a (name, signature bytes) pair. The core never produces any
// (signature verification is out of scope, spec.md §1) but the wire format
// reserves the slot so a signing layer built on top can populate it.
type Signature struct {
	Name  string
	Bytes []byte
}

// Commit is the COMMIT object: parent pointer, subject, body, timestamp,
// and the two root checksums it binds a branch to.
type Commit struct {
	Parent         Checksum // zero value means no parent
	HasParent      bool
	Signatures     []Signature
	Subject        string
	Body           string
	EpochSeconds   uint64
	RootTreeCsum   Checksum
	RootMetaCsum   Checksum
}

// Encode renders the canonical COMMIT serialization per spec.md §6:
// (a{sv} meta, ay parent_csum_or_empty, a(say) signatures, s subject,
// s body, t epoch_seconds_be, ay root_tree_csum[32], ay root_meta_csum[32]).
func (c Commit) Encode() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeUint32BE(&buf, 0); err != nil { // empty meta dict
		return nil, err
	}
	if c.HasParent {
		if err := writeBytesLP(&buf, c.Parent[:]); err != nil {
			return nil, err
		}
	} else {
		if err := writeBytesLP(&buf, nil); err != nil {
			return nil, err
		}
	}
	if err := writeUint32BE(&buf, uint32(len(c.Signatures))); err != nil {
		return nil, err
	}
	for _, s := range c.Signatures {
		if err := writeBytesLP(&buf, []byte(s.Name)); err != nil {
			return nil, err
		}
		if err := writeBytesLP(&buf, s.Bytes); err != nil {
			return nil, err
		}
	}
	if err := writeBytesLP(&buf, []byte(c.Subject)); err != nil {
		return nil, err
	}
	if err := writeBytesLP(&buf, []byte(c.Body)); err != nil {
		return nil, err
	}
	if err := writeUint64BE(&buf, c.EpochSeconds); err != nil {
		return nil, err
	}
	if _, err := buf.Write(c.RootTreeCsum[:]); err != nil {
		return nil, err
	}
	if _, err := buf.Write(c.RootMetaCsum[:]); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeCommit parses bytes produced by Encode.
func DecodeCommit(b []byte) (Commit, error) {
	var c Commit
	r := bytes.NewReader(b)

	metaCount, err := readUint32BE(r)
	if err != nil {
		return c, err
	}
	for i := uint32(0); i < metaCount; i++ {
		if _, err := readBytesLP(r); err != nil {
			return c, err
		}
		if _, err := readBytesLP(r); err != nil {
			return c, err
		}
	}

	parent, err := readBytesLP(r)
	if err != nil {
		return c, err
	}
	if len(parent) > 0 {
		copy(c.Parent[:], parent)
		c.HasParent = true
	}

	sigCount, err := readUint32BE(r)
	if err != nil {
		return c, err
	}
	c.Signatures = make([]Signature, 0, sigCount)
	for i := uint32(0); i < sigCount; i++ {
		name, err := readBytesLP(r)
		if err != nil {
			return c, err
		}
		sigBytes, err := readBytesLP(r)
		if err != nil {
			return c, err
		}
		c.Signatures = append(c.Signatures, Signature{Name: string(name), Bytes: sigBytes})
	}

	subject, err := readBytesLP(r)
	if err != nil {
		return c, err
	}
	c.Subject = string(subject)

	body, err := readBytesLP(r)
	if err != nil {
		return c, err
	}
	c.Body = string(body)

	if c.EpochSeconds, err = readUint64BE(r); err != nil {
		return c, err
	}
	if _, err := io.ReadFull(r, c.RootTreeCsum[:]); err != nil {
		return c, err
	}
	if _, err := io.ReadFull(r, c.RootMetaCsum[:]); err != nil {
		return c, err
	}
	return c, nil
}
