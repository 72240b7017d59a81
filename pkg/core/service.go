package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// DefaultAdministrator is the name of the administrator unless configured otherwise.
const DefaultAdministrator = "Dumbledore"

// Service exposes one call per use case of the note store. Callers resolve a
// principal with Authenticate first and pass its name to every other call.
type Service struct {
	meta    MetadataStore
	content ContentRepository
	cipher  Cipher
	access  *AccessControl

	admin  string
	logger *slog.Logger
	now    func() time.Time
	newID  func() string

	// blobs keeps ReapOrphans from racing creates of this process, which write
	// the blob before the metadata. Other processes are fenced by the check
	// AddNote runs inside the metadata critical section.
	blobs sync.RWMutex

	created         atomic.Int64
	decryptFailures atomic.Int64
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithAdministrator sets the name of the administrator principal. The name is
// kept in canonical form so it compares equal to stored principal names.
func WithAdministrator(name string) ServiceOption {
	return func(s *Service) {
		s.admin = canonicalName(name)
	}
}

// WithServiceLogger sets the logger for the service.
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source used for CreatedAt stamps.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDGenerator overrides the generator of note and request IDs.
func WithIDGenerator(fn func() string) ServiceOption {
	return func(s *Service) {
		s.newID = fn
	}
}

// NewService creates a new Service.
func NewService(meta MetadataStore, content ContentRepository, cipher Cipher, opts ...ServiceOption) *Service {
	s := &Service{
		meta:    meta,
		content: content,
		cipher:  cipher,
		access:  NewAccessControl(meta),
		admin:   DefaultAdministrator,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Access returns the access-control component backing the service.
func (s *Service) Access() *AccessControl {
	return s.access
}

// Authenticate resolves a presented credential to a principal name.
func (s *Service) Authenticate(ctx context.Context, credential string) (string, error) {
	if credential == "" {
		return "", fmt.Errorf("missing credential: %w", ErrUnauthenticated)
	}
	doc, err := s.meta.Principals(ctx)
	if err != nil {
		return "", err
	}
	if p, ok := doc.ByCredential(credential); ok {
		return p.Name, nil
	}
	return "", fmt.Errorf("invalid credential: %w", ErrUnauthenticated)
}

// IsAdmin reports whether principal is the administrator.
func (s *Service) IsAdmin(principal string) bool {
	return principal != "" && canonicalName(principal) == s.admin
}

func (s *Service) requireAdmin(principal string) error {
	if !s.IsAdmin(principal) {
		return fmt.Errorf("%q is not the administrator: %w", principal, ErrPermissionDenied)
	}
	return nil
}

// ListPrincipals returns principal names. Credentials are never exposed.
func (s *Service) ListPrincipals(ctx context.Context) ([]string, error) {
	doc, err := s.meta.Principals(ctx)
	if err != nil {
		return nil, err
	}
	return doc.Names(), nil
}

// CreateNote encrypts content and stores a new note owned by principal.
//
// The blob is written before the metadata: a crash in between leaves an
// orphan blob (reclaimed by ReapOrphans), never metadata without a body.
func (s *Service) CreateNote(ctx context.Context, principal, title, content string) (NoteView, error) {
	s.blobs.RLock()
	defer s.blobs.RUnlock()

	note := Note{
		ID:        s.newID(),
		Title:     title,
		Owner:     principal,
		CreatedAt: s.now().UTC(),
	}

	ciphertext, err := s.cipher.Encrypt([]byte(content))
	if err != nil {
		return NoteView{}, fmt.Errorf("failed to encrypt note: %w", err)
	}

	if err := s.content.Put(ctx, note.ID, ciphertext); err != nil {
		return NoteView{}, fmt.Errorf("failed to store note content: %w", err)
	}

	blobPresent := func(ctx context.Context) error {
		ok, err := s.content.Exists(ctx, note.ID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("content of note %s was removed before commit: %w", note.ID, ErrInvalidState)
		}
		return nil
	}
	if err := s.meta.AddNote(ctx, note, blobPresent); err != nil {
		// Compensate with a fresh context: the caller's may be the reason we failed.
		if derr := s.content.Delete(context.WithoutCancel(ctx), note.ID); derr != nil {
			s.logger.Warn("failed to remove blob of uncommitted note", "note", note.ID, "error", derr)
		}
		return NoteView{}, fmt.Errorf("failed to store note metadata: %w", err)
	}

	s.created.Add(1)
	s.logger.Debug("note created", "note", note.ID, "owner", principal)
	return NoteView{Note: note, SharedWith: []string{}}, nil
}

// ListNotes returns every note principal owns or that is shared with it.
func (s *Service) ListNotes(ctx context.Context, principal string) ([]NoteView, error) {
	snap, err := s.meta.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	views := []NoteView{}
	for _, n := range snap.Notes.Notes {
		if CanRead(snap.Notes, snap.Shares, n.ID, principal) {
			views = append(views, NoteView{Note: n, SharedWith: snap.Shares.SharedWith(n.ID)})
		}
	}
	return views, nil
}

// ReadNote returns the decrypted note. Notes principal cannot read, including
// unknown ones, fail with ErrPermissionDenied.
func (s *Service) ReadNote(ctx context.Context, principal, noteID string) (NoteContent, error) {
	snap, err := s.meta.Snapshot(ctx)
	if err != nil {
		return NoteContent{}, err
	}
	if !CanRead(snap.Notes, snap.Shares, noteID, principal) {
		return NoteContent{}, fmt.Errorf("note %s: %w", noteID, ErrPermissionDenied)
	}
	note, _ := snap.Notes.Find(noteID)

	ciphertext, err := s.content.Get(ctx, noteID)
	if err != nil {
		return NoteContent{}, err
	}

	plaintext, err := s.cipher.Decrypt(ciphertext)
	if err != nil {
		s.decryptFailures.Add(1)
		s.logger.Error("failed to decrypt note", "note", noteID, "error", err)
		return NoteContent{}, fmt.Errorf("note %s: %w", noteID, err)
	}

	return NoteContent{Note: note, Content: string(plaintext)}, nil
}

// DeleteNote removes a note owned by principal, metadata first and then its blob.
func (s *Service) DeleteNote(ctx context.Context, principal, noteID string) error {
	notes, err := s.meta.Notes(ctx)
	if err != nil {
		return err
	}
	note, ok := notes.Find(noteID)
	if !ok {
		return fmt.Errorf("note %s: %w", noteID, ErrNotFound)
	}
	if note.Owner != principal {
		return fmt.Errorf("only the owner can delete note %s: %w", noteID, ErrPermissionDenied)
	}
	return s.removeNote(ctx, noteID)
}

func (s *Service) removeNote(ctx context.Context, noteID string) error {
	if err := s.meta.DeleteNote(ctx, noteID); err != nil {
		return err
	}
	if err := s.content.Delete(ctx, noteID); err != nil {
		// Metadata is gone; what remains is an orphan blob.
		s.logger.Warn("note deleted but blob removal failed", "note", noteID, "error", err)
		return err
	}
	s.logger.Debug("note deleted", "note", noteID)
	return nil
}

// ShareNote grants recipient read access to a note owned by principal.
func (s *Service) ShareNote(ctx context.Context, principal, noteID, recipient string) error {
	return s.access.Share(ctx, noteID, principal, recipient)
}

// RequestAccess asks to for shares of all its notes on behalf of from.
func (s *Service) RequestAccess(ctx context.Context, from, to string) (AccessRequest, error) {
	req := AccessRequest{
		ID:        s.newID(),
		From:      from,
		To:        to,
		Status:    StatusPending,
		CreatedAt: s.now().UTC(),
	}
	req, err := s.access.Request(ctx, req)
	if err != nil {
		return AccessRequest{}, err
	}
	s.logger.Debug("access requested", "request", req.ID, "from", from, "to", req.To)
	return req, nil
}

// ListRequests returns the requests addressed to principal, oldest first.
func (s *Service) ListRequests(ctx context.Context, principal string) ([]AccessRequest, error) {
	doc, err := s.meta.Shares(ctx)
	if err != nil {
		return nil, err
	}
	incoming := []AccessRequest{}
	for _, r := range doc.Requests {
		if r.To == principal {
			incoming = append(incoming, r)
		}
	}
	return incoming, nil
}

// ApproveRequest approves a pending request addressed to principal, sharing
// every note principal owns right now with the requester.
func (s *Service) ApproveRequest(ctx context.Context, principal, requestID string) (AccessRequest, error) {
	req, err := s.access.Approve(ctx, requestID, principal)
	if err != nil {
		return AccessRequest{}, err
	}
	s.logger.Debug("access request approved", "request", requestID, "from", req.From, "to", req.To)
	return req, nil
}

// AdminListNotes returns every note with its shares.
func (s *Service) AdminListNotes(ctx context.Context, principal string) ([]NoteView, error) {
	if err := s.requireAdmin(principal); err != nil {
		return nil, err
	}
	snap, err := s.meta.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]NoteView, 0, len(snap.Notes.Notes))
	for _, n := range snap.Notes.Notes {
		views = append(views, NoteView{Note: n, SharedWith: snap.Shares.SharedWith(n.ID)})
	}
	return views, nil
}

// AdminReadCiphertext returns a note's metadata and its still-encrypted body.
func (s *Service) AdminReadCiphertext(ctx context.Context, principal, noteID string) (Note, []byte, error) {
	if err := s.requireAdmin(principal); err != nil {
		return Note{}, nil, err
	}
	notes, err := s.meta.Notes(ctx)
	if err != nil {
		return Note{}, nil, err
	}
	note, ok := notes.Find(noteID)
	if !ok {
		return Note{}, nil, fmt.Errorf("note %s: %w", noteID, ErrNotFound)
	}
	ciphertext, err := s.content.Get(ctx, noteID)
	if err != nil {
		return Note{}, nil, err
	}
	return note, ciphertext, nil
}

// AdminDeleteNote removes any note.
func (s *Service) AdminDeleteNote(ctx context.Context, principal, noteID string) error {
	if err := s.requireAdmin(principal); err != nil {
		return err
	}
	notes, err := s.meta.Notes(ctx)
	if err != nil {
		return err
	}
	if _, ok := notes.Find(noteID); !ok {
		return fmt.Errorf("note %s: %w", noteID, ErrNotFound)
	}
	return s.removeNote(ctx, noteID)
}

// AdminClearShares removes every direct share.
func (s *Service) AdminClearShares(ctx context.Context, principal string) error {
	if err := s.requireAdmin(principal); err != nil {
		return err
	}
	return s.meta.ClearAllShares(ctx)
}

// AdminCreatePrincipal registers a new principal and returns its name as
// stored. Taken names and credentials fail with ErrAlreadyExists.
func (s *Service) AdminCreatePrincipal(ctx context.Context, principal, name, credential string) (string, error) {
	if err := s.requireAdmin(principal); err != nil {
		return "", err
	}
	name, err := NormalizeName(name)
	if err != nil {
		return "", err
	}
	if credential == "" {
		return "", fmt.Errorf("credential cannot be empty: %w", ErrInvalidArgument)
	}
	if err := s.meta.AddPrincipal(ctx, Principal{Name: name, Credential: credential}); err != nil {
		return "", err
	}
	s.logger.Info("principal created", "principal", name)
	return name, nil
}

// ReapOrphans deletes blobs that have no note metadata and returns their IDs.
// Blobs are removed inside the metadata critical section, so a note created
// concurrently either commits first and keeps its blob or fails its commit.
func (s *Service) ReapOrphans(ctx context.Context) ([]string, error) {
	s.blobs.Lock()
	defer s.blobs.Unlock()

	ids, err := s.content.List(ctx)
	if err != nil {
		return nil, err
	}

	var reaped []string
	var errs []error
	err = s.meta.WithNotes(ctx, func(notes NoteDocument) error {
		for _, id := range ids {
			if _, ok := notes.Find(id); ok {
				continue
			}
			if err := s.content.Delete(ctx, id); err != nil {
				errs = append(errs, err)
				continue
			}
			reaped = append(reaped, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(reaped) > 0 {
		s.logger.Info("reaped orphan blobs", "count", len(reaped))
	}
	return reaped, errors.Join(errs...)
}

// Watch observes changes in the metadata store if supported.
func (s *Service) Watch(ctx context.Context, pattern string) (<-chan Event, error) {
	w, ok := s.meta.(Watchable)
	if !ok {
		return nil, errors.New("metadata store does not support watching")
	}
	return w.Watch(ctx, pattern)
}
