package fs

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aretw0/mischief/pkg/core"
)

// Config holds the configuration for the filesystem metadata store.
type Config struct {
	Path              string
	MustExist         bool
	ReadOnly          bool
	Logger            *slog.Logger
	DefaultPrincipals []core.Principal // seeded only when the principals document does not exist yet
	ErrorHandler      func(error)      // receives watcher errors
}

// MetaStore implements core.MetadataStore with one JSON file per document.
//
// All operations, reads included, run inside a single critical section that
// spans the three documents and every process sharing the directory. Mutations read the whole document, modify it in
// memory and replace the file atomically, so a failed or cancelled write leaves
// the previous snapshot on disk.
type MetaStore struct {
	Path   string
	config Config

	// lock is the in-process half of the critical section, LockFile the
	// cross-process half. A 1-slot channel rather than a sync.Mutex so that
	// waiting for it honours context cancellation.
	lock chan struct{}

	mu            sync.RWMutex
	commits       int64
	lastCommit    *time.Time
	watcherActive bool
}

// NewMetaStore creates a new filesystem-backed metadata store.
func NewMetaStore(config Config) *MetaStore {
	if config.Logger == nil {
		config.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &MetaStore{
		Path:   config.Path,
		config: config,
		lock:   make(chan struct{}, 1),
	}
}

func (s *MetaStore) acquire(ctx context.Context) (func(), error) {
	select {
	case s.lock <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	unlockDir, err := s.lockDir(ctx)
	if err != nil {
		<-s.lock
		return nil, err
	}
	return func() {
		unlockDir()
		<-s.lock
	}, nil
}

func (s *MetaStore) docPath(name string) string {
	return filepath.Join(s.Path, name)
}

// Initialize creates the data directory, removes temp files left by
// interrupted writes and seeds the documents that do not exist yet.
func (s *MetaStore) Initialize(ctx context.Context) error {
	if s.config.MustExist || s.config.ReadOnly {
		info, err := os.Stat(s.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("data path does not exist: %s", s.Path)
		}
		if err != nil {
			return &core.StorageError{Op: "stat", Path: s.Path, Err: err}
		}
		if !info.IsDir() {
			return fmt.Errorf("data path is not a directory: %s", s.Path)
		}
	}
	if s.config.ReadOnly {
		return nil
	}

	if err := os.MkdirAll(s.Path, 0o700); err != nil {
		return &core.StorageError{Op: "mkdir", Path: s.Path, Err: err}
	}

	unlock, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if n, err := sweepTempFiles(s.Path); err != nil {
		s.config.Logger.Warn("failed to sweep temp files", "path", s.Path, "error", err)
	} else if n > 0 {
		s.config.Logger.Info("removed leftover temp files", "count", n)
	}

	if err := seed(ctx, s, PrincipalsFile, core.PrincipalDocument{Principals: s.config.DefaultPrincipals}); err != nil {
		return err
	}
	if err := seed(ctx, s, NotesFile, core.NoteDocument{}); err != nil {
		return err
	}
	return seed(ctx, s, SharesFile, core.ShareDocument{})
}

func seed[T document](ctx context.Context, s *MetaStore, name string, doc T) error {
	path := s.docPath(name)
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	if err := writeDocument(ctx, path, doc); err != nil {
		return err
	}
	s.config.Logger.Info("document created", "doc", name)
	return nil
}

// update runs one read-modify-write cycle of a single document under the
// global lock. fn reports whether it changed doc; unchanged documents are not
// rewritten.
func update[T document](ctx context.Context, s *MetaStore, name string, fn func(doc *T) (bool, error)) error {
	if s.config.ReadOnly {
		return core.ErrReadOnly
	}

	unlock, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	path := s.docPath(name)
	doc, err := readDocument[T](path)
	if err != nil {
		return err
	}

	changed, err := fn(&doc)
	if err != nil || !changed {
		return err
	}

	if err := writeDocument(ctx, path, doc); err != nil {
		return err
	}
	s.recordCommit()
	s.config.Logger.Debug("document committed", "doc", name)
	return nil
}

// view reads a single document under the global lock.
func view[T document](ctx context.Context, s *MetaStore, name string) (T, error) {
	unlock, err := s.acquire(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	defer unlock()
	return readDocument[T](s.docPath(name))
}

// Principals returns the principal document.
func (s *MetaStore) Principals(ctx context.Context) (core.PrincipalDocument, error) {
	return view[core.PrincipalDocument](ctx, s, PrincipalsFile)
}

// Notes returns the note metadata document.
func (s *MetaStore) Notes(ctx context.Context) (core.NoteDocument, error) {
	return view[core.NoteDocument](ctx, s, NotesFile)
}

// Shares returns the share state document.
func (s *MetaStore) Shares(ctx context.Context) (core.ShareDocument, error) {
	return view[core.ShareDocument](ctx, s, SharesFile)
}

// Snapshot returns all three documents read under one lock acquisition.
func (s *MetaStore) Snapshot(ctx context.Context) (core.Snapshot, error) {
	unlock, err := s.acquire(ctx)
	if err != nil {
		return core.Snapshot{}, err
	}
	defer unlock()
	return s.readSnapshot()
}

func (s *MetaStore) readSnapshot() (core.Snapshot, error) {
	var snap core.Snapshot
	var err error
	if snap.Principals, err = readDocument[core.PrincipalDocument](s.docPath(PrincipalsFile)); err != nil {
		return core.Snapshot{}, err
	}
	if snap.Notes, err = readDocument[core.NoteDocument](s.docPath(NotesFile)); err != nil {
		return core.Snapshot{}, err
	}
	if snap.Shares, err = readDocument[core.ShareDocument](s.docPath(SharesFile)); err != nil {
		return core.Snapshot{}, err
	}
	return snap, nil
}

// AddPrincipal registers a principal. It fails with core.ErrAlreadyExists if
// the name or the credential is taken.
func (s *MetaStore) AddPrincipal(ctx context.Context, p core.Principal) error {
	return update(ctx, s, PrincipalsFile, func(doc *core.PrincipalDocument) (bool, error) {
		if _, ok := doc.Lookup(p.Name); ok {
			return false, fmt.Errorf("principal %q: %w", p.Name, core.ErrAlreadyExists)
		}
		if _, ok := doc.ByCredential(p.Credential); ok {
			return false, fmt.Errorf("credential of principal %q is already in use: %w", p.Name, core.ErrAlreadyExists)
		}
		doc.Principals = append(doc.Principals, p)
		return true, nil
	})
}

// AddNote stores note metadata. The owner must be a known principal and
// check, if set, must pass inside the critical section.
func (s *MetaStore) AddNote(ctx context.Context, n core.Note, check func(ctx context.Context) error) error {
	return update(ctx, s, NotesFile, func(doc *core.NoteDocument) (bool, error) {
		principals, err := readDocument[core.PrincipalDocument](s.docPath(PrincipalsFile))
		if err != nil {
			return false, err
		}
		if _, ok := principals.Lookup(n.Owner); !ok {
			return false, fmt.Errorf("owner %q: %w", n.Owner, core.ErrNotFound)
		}
		if _, ok := doc.Find(n.ID); ok {
			return false, fmt.Errorf("note %s: %w", n.ID, core.ErrAlreadyExists)
		}
		if check != nil {
			if err := check(ctx); err != nil {
				return false, err
			}
		}
		doc.Notes = append(doc.Notes, n)
		return true, nil
	})
}

// DeleteNote removes note metadata. Unknown IDs are a no-op.
func (s *MetaStore) DeleteNote(ctx context.Context, id string) error {
	return update(ctx, s, NotesFile, func(doc *core.NoteDocument) (bool, error) {
		for i, n := range doc.Notes {
			if n.ID == id {
				doc.Notes = append(doc.Notes[:i], doc.Notes[i+1:]...)
				return true, nil
			}
		}
		return false, nil
	})
}

// AddShare grants name read access to noteID.
func (s *MetaStore) AddShare(ctx context.Context, noteID, name string) error {
	return update(ctx, s, SharesFile, func(doc *core.ShareDocument) (bool, error) {
		return doc.Grant(noteID, name), nil
	})
}

// AddRequest appends an access request.
func (s *MetaStore) AddRequest(ctx context.Context, req core.AccessRequest) error {
	return update(ctx, s, SharesFile, func(doc *core.ShareDocument) (bool, error) {
		if doc.Request(req.ID) != nil {
			return false, fmt.Errorf("request %s: %w", req.ID, core.ErrAlreadyExists)
		}
		doc.Requests = append(doc.Requests, req)
		return true, nil
	})
}

// UpdateRequestStatus sets the status of a request. Unknown IDs are a no-op;
// a status can only move forward from pending to approved.
func (s *MetaStore) UpdateRequestStatus(ctx context.Context, id string, status core.RequestStatus) error {
	return update(ctx, s, SharesFile, func(doc *core.ShareDocument) (bool, error) {
		req := doc.Request(id)
		if req == nil || req.Status == status {
			return false, nil
		}
		if req.Status != core.StatusPending || status != core.StatusApproved {
			return false, fmt.Errorf("request %s cannot move from %s to %s: %w", id, req.Status, status, core.ErrInvalidState)
		}
		req.Status = status
		return true, nil
	})
}

// ClearAllShares removes every direct share.
func (s *MetaStore) ClearAllShares(ctx context.Context) error {
	return update(ctx, s, SharesFile, func(doc *core.ShareDocument) (bool, error) {
		doc.Shares = make(map[string][]string)
		return true, nil
	})
}

// GrantAllNotes shares every note owned by owner with recipient.
func (s *MetaStore) GrantAllNotes(ctx context.Context, owner, recipient string) error {
	return update(ctx, s, SharesFile, func(doc *core.ShareDocument) (bool, error) {
		notes, err := readDocument[core.NoteDocument](s.docPath(NotesFile))
		if err != nil {
			return false, err
		}
		changed := false
		for _, id := range notes.OwnedBy(owner) {
			if doc.Grant(id, recipient) {
				changed = true
			}
		}
		return changed, nil
	})
}

// WithNotes runs fn with the note document while holding the critical section.
func (s *MetaStore) WithNotes(ctx context.Context, fn func(notes core.NoteDocument) error) error {
	unlock, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	notes, err := readDocument[core.NoteDocument](s.docPath(NotesFile))
	if err != nil {
		return err
	}
	return fn(notes)
}

// UpdateShares runs fn against a full snapshot inside the critical section and
// persists the share document if fn succeeds.
func (s *MetaStore) UpdateShares(ctx context.Context, fn func(snap *core.Snapshot) error) error {
	if s.config.ReadOnly {
		return core.ErrReadOnly
	}

	unlock, err := s.acquire(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	snap, err := s.readSnapshot()
	if err != nil {
		return err
	}
	if err := fn(&snap); err != nil {
		return err
	}

	if err := writeDocument(ctx, s.docPath(SharesFile), snap.Shares); err != nil {
		return err
	}
	s.recordCommit()
	s.config.Logger.Debug("document committed", "doc", SharesFile)
	return nil
}

var _ core.MetadataStore = (*MetaStore)(nil)
