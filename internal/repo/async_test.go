package repo

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/imgrepo/imgrepo/internal/storagemode"
)

func TestAsyncWriter_WriteContent(t *testing.T) {
	defer goleak.VerifyNone(t)

	r, err := Init(t.TempDir(), storagemode.Bare, nil)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := r.Prepare(); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	defer r.Abort()

	body := []byte("hello\n")
	encoded := encodeFile(t, body)

	aw := &AsyncWriter{Repo: r}
	future := aw.WriteContent(bytes.NewReader(encoded), int64(len(body)))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	csum, err := future.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if csum.IsZero() {
		t.Fatal("expected non-zero checksum")
	}
}

func TestAsyncWriter_WriteContentBatch(t *testing.T) {
	defer goleak.VerifyNone(t)

	r, err := Init(t.TempDir(), storagemode.Bare, nil)
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if _, err := r.Prepare(); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	defer r.Abort()

	aw := &AsyncWriter{Repo: r}
	bodies := []string{"one\n", "two\n", "three\n"}
	readers := make([]io.Reader, len(bodies))
	lengths := make([]int64, len(bodies))
	for i, b := range bodies {
		body := []byte(b)
		readers[i] = bytes.NewReader(encodeFile(t, body))
		lengths[i] = int64(len(body))
	}

	results, err := aw.WriteContentBatch(context.Background(), readers, lengths)
	if err != nil {
		t.Fatalf("WriteContentBatch: %v", err)
	}
	if len(results) != len(bodies) {
		t.Fatalf("expected %d results, got %d", len(bodies), len(results))
	}
	for _, c := range results {
		if c.IsZero() {
			t.Error("expected non-zero checksum in batch result")
		}
	}
}
