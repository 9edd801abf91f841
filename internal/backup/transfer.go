package backup

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	apperr "github.com/julianstephens/nextstep/internal/errors"
)

// Transferer hands an exported document to the user: a file in a chosen
// directory, stdout, or whatever the platform offers.
type Transferer interface {
	Transfer(ctx context.Context, name string, data []byte) (string, error)
}

// DirTransfer writes exports into Dir.
type DirTransfer struct {
	Dir string
}

func (d DirTransfer) Transfer(_ context.Context, name string, data []byte) (string, error) {
	if d.Dir == "" {
		return "", apperr.ErrTransferUnavailable
	}
	if err := os.MkdirAll(d.Dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create export directory: %w", err)
	}
	p := filepath.Join(d.Dir, name)
	if err := os.WriteFile(p, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write export: %w", err)
	}
	return p, nil
}

// WriterTransfer streams exports to W, e.g. os.Stdout.
type WriterTransfer struct {
	W io.Writer
}

func (w WriterTransfer) Transfer(_ context.Context, name string, data []byte) (string, error) {
	if w.W == nil {
		return "", apperr.ErrTransferUnavailable
	}
	if _, err := w.W.Write(data); err != nil {
		return "", fmt.Errorf("failed to write export %s: %w", name, err)
	}
	return name, nil
}
