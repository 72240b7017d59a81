package core

import "context"

// MetadataStore owns the three persisted documents: principals, note metadata
// and share state. Every mutation is a read-modify-write of a whole document
// executed under one lock shared by all three documents, so mutations are
// totally ordered and no update is lost.
type MetadataStore interface {
	// Initialize ensures the underlying storage is ready and seeds missing documents.
	Initialize(ctx context.Context) error

	// Principals returns the principal document.
	Principals(ctx context.Context) (PrincipalDocument, error)

	// Notes returns the note metadata document.
	Notes(ctx context.Context) (NoteDocument, error)

	// Shares returns the share state document.
	Shares(ctx context.Context) (ShareDocument, error)

	// Snapshot returns all three documents read under a single lock acquisition.
	Snapshot(ctx context.Context) (Snapshot, error)

	// AddPrincipal fails with ErrAlreadyExists if the name or the credential
	// is already held by another principal.
	AddPrincipal(ctx context.Context, p Principal) error

	// AddNote fails with ErrNotFound if the owner is not a known principal.
	// check, when non-nil, runs inside the critical section right before the
	// commit; an error from it aborts the mutation.
	AddNote(ctx context.Context, n Note, check func(ctx context.Context) error) error

	// DeleteNote is a no-op if the note does not exist.
	DeleteNote(ctx context.Context, id string) error

	// AddShare grants name read access to noteID. Duplicate shares are ignored.
	AddShare(ctx context.Context, noteID, name string) error

	// AddRequest appends an access request.
	AddRequest(ctx context.Context, req AccessRequest) error

	// UpdateRequestStatus is a no-op for unknown request IDs.
	UpdateRequestStatus(ctx context.Context, id string, status RequestStatus) error

	// ClearAllShares removes every direct share. Requests are kept.
	ClearAllShares(ctx context.Context) error

	// GrantAllNotes shares every note currently owned by owner with recipient.
	GrantAllNotes(ctx context.Context, owner, recipient string) error

	// WithNotes runs fn with the note document inside the critical section.
	// Nothing is persisted; every metadata operation waits until fn returns.
	WithNotes(ctx context.Context, fn func(notes NoteDocument) error) error

	// UpdateShares runs fn against a snapshot of all three documents inside the
	// critical section and persists snap.Shares if fn returns nil. Changes fn
	// makes to the other documents are discarded.
	UpdateShares(ctx context.Context, fn func(snap *Snapshot) error) error
}

// ContentRepository stores one encrypted blob per note ID.
type ContentRepository interface {
	// Put stores the ciphertext for id.
	Put(ctx context.Context, id string, ciphertext []byte) error

	// Get fails with ErrNotFound if no blob exists for id.
	Get(ctx context.Context, id string) ([]byte, error)

	// Exists reports whether a blob is stored for id.
	Exists(ctx context.Context, id string) (bool, error)

	// Delete is a no-op if no blob exists for id.
	Delete(ctx context.Context, id string) error

	// List returns the IDs of every stored blob.
	List(ctx context.Context) ([]string, error)
}

// Cipher encrypts and decrypts note bodies with a single symmetric key.
// Decrypt fails with an error wrapping ErrDecryption on corrupt or foreign input.
type Cipher interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(ciphertext []byte) ([]byte, error)
}

// Watchable defines an interface for stores that can report external changes.
type Watchable interface {
	// Watch emits an Event for each change whose relative path matches pattern.
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}
