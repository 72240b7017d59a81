package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/aretw0/mischief/pkg/core"
)

// Document file names inside the data directory.
const (
	PrincipalsFile = "principals.json"
	NotesFile      = "notes.json"
	SharesFile     = "shares.json"
)

// writeFile commits document bytes. Tests replace it to simulate a failing disk.
var writeFile = writeFileAtomic

// document is the set of fixed-schema types persisted one per file.
type document interface {
	core.PrincipalDocument | core.NoteDocument | core.ShareDocument
}

// readDocument loads a document. A missing file reads as the empty document.
func readDocument[T document](path string) (T, error) {
	var doc T
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return normalize(doc), nil
	}
	if err != nil {
		return doc, &core.StorageError{Op: "read", Path: path, Err: err}
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return doc, &core.StorageError{Op: "decode", Path: path, Err: err}
	}
	return normalize(doc), nil
}

// writeDocument replaces the document file with the encoded doc.
func writeDocument[T document](ctx context.Context, path string, doc T) error {
	data, err := encodeDocument(doc)
	if err != nil {
		return &core.StorageError{Op: "encode", Path: path, Err: err}
	}
	if err := writeFile(ctx, path, data, 0o600); err != nil {
		if ctx.Err() != nil {
			return err
		}
		return &core.StorageError{Op: "write", Path: path, Err: err}
	}
	return nil
}

func encodeDocument[T document](doc T) ([]byte, error) {
	data, err := json.MarshalIndent(normalize(doc), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode document: %w", err)
	}
	return append(data, '\n'), nil
}

// normalize replaces nil collections so documents always encode as [] and {}.
func normalize[T document](doc T) T {
	switch d := any(&doc).(type) {
	case *core.PrincipalDocument:
		if d.Principals == nil {
			d.Principals = []core.Principal{}
		}
	case *core.NoteDocument:
		if d.Notes == nil {
			d.Notes = []core.Note{}
		}
	case *core.ShareDocument:
		if d.Shares == nil {
			d.Shares = make(map[string][]string)
		}
		if d.Requests == nil {
			d.Requests = []core.AccessRequest{}
		}
	}
	return doc
}
