package core_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/aretw0/mischief/pkg/core"
)

// MockStore implements core.MetadataStore in memory.
type MockStore struct {
	mu   sync.Mutex
	snap core.Snapshot

	// failAddNote, when set, is returned by AddNote.
	failAddNote error
	// beforeAddNote, when set, runs inside AddNote before its check.
	beforeAddNote func(n core.Note)
}

func NewMockStore(names ...string) *MockStore {
	m := &MockStore{}
	for _, n := range names {
		m.snap.Principals.Principals = append(m.snap.Principals.Principals, core.Principal{Name: n, Credential: n + "-key"})
	}
	m.snap.Shares.Shares = make(map[string][]string)
	return m
}

func cloneSnapshot(s core.Snapshot) core.Snapshot {
	out := core.Snapshot{
		Principals: core.PrincipalDocument{Principals: append([]core.Principal(nil), s.Principals.Principals...)},
		Notes:      core.NoteDocument{Notes: append([]core.Note(nil), s.Notes.Notes...)},
		Shares: core.ShareDocument{
			Shares:   make(map[string][]string, len(s.Shares.Shares)),
			Requests: append([]core.AccessRequest(nil), s.Shares.Requests...),
		},
	}
	for k, v := range s.Shares.Shares {
		out.Shares.Shares[k] = append([]string(nil), v...)
	}
	return out
}

func (m *MockStore) Initialize(ctx context.Context) error { return nil }

func (m *MockStore) Principals(ctx context.Context) (core.PrincipalDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneSnapshot(m.snap).Principals, nil
}

func (m *MockStore) Notes(ctx context.Context) (core.NoteDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneSnapshot(m.snap).Notes, nil
}

func (m *MockStore) Shares(ctx context.Context) (core.ShareDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneSnapshot(m.snap).Shares, nil
}

func (m *MockStore) Snapshot(ctx context.Context) (core.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneSnapshot(m.snap), nil
}

func (m *MockStore) AddPrincipal(ctx context.Context, p core.Principal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.snap.Principals.Lookup(p.Name); ok {
		return fmt.Errorf("principal %q: %w", p.Name, core.ErrAlreadyExists)
	}
	if _, ok := m.snap.Principals.ByCredential(p.Credential); ok {
		return fmt.Errorf("credential of %q: %w", p.Name, core.ErrAlreadyExists)
	}
	m.snap.Principals.Principals = append(m.snap.Principals.Principals, p)
	return nil
}

func (m *MockStore) AddNote(ctx context.Context, n core.Note, check func(context.Context) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAddNote != nil {
		return m.failAddNote
	}
	if _, ok := m.snap.Principals.Lookup(n.Owner); !ok {
		return fmt.Errorf("owner %q: %w", n.Owner, core.ErrNotFound)
	}
	if m.beforeAddNote != nil {
		m.beforeAddNote(n)
	}
	if check != nil {
		if err := check(ctx); err != nil {
			return err
		}
	}
	m.snap.Notes.Notes = append(m.snap.Notes.Notes, n)
	return nil
}

func (m *MockStore) WithNotes(ctx context.Context, fn func(core.NoteDocument) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return fn(cloneSnapshot(m.snap).Notes)
}

func (m *MockStore) DeleteNote(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, n := range m.snap.Notes.Notes {
		if n.ID == id {
			m.snap.Notes.Notes = append(m.snap.Notes.Notes[:i], m.snap.Notes.Notes[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *MockStore) AddShare(ctx context.Context, noteID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.Shares.Grant(noteID, name)
	return nil
}

func (m *MockStore) AddRequest(ctx context.Context, req core.AccessRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.Shares.Requests = append(m.snap.Shares.Requests, req)
	return nil
}

func (m *MockStore) UpdateRequestStatus(ctx context.Context, id string, status core.RequestStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if req := m.snap.Shares.Request(id); req != nil {
		req.Status = status
	}
	return nil
}

func (m *MockStore) ClearAllShares(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snap.Shares.Shares = make(map[string][]string)
	return nil
}

func (m *MockStore) GrantAllNotes(ctx context.Context, owner, recipient string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range m.snap.Notes.OwnedBy(owner) {
		m.snap.Shares.Grant(id, recipient)
	}
	return nil
}

func (m *MockStore) UpdateShares(ctx context.Context, fn func(snap *core.Snapshot) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	work := cloneSnapshot(m.snap)
	if err := fn(&work); err != nil {
		return err
	}
	m.snap.Shares = work.Shares
	return nil
}

// MockContent implements core.ContentRepository in memory.
type MockContent struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func NewMockContent() *MockContent {
	return &MockContent{blobs: make(map[string][]byte)}
}

func (m *MockContent) Put(ctx context.Context, id string, ciphertext []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blobs[id] = append([]byte(nil), ciphertext...)
	return nil
}

func (m *MockContent) Get(ctx context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[id]
	if !ok {
		return nil, fmt.Errorf("blob %s: %w", id, core.ErrNotFound)
	}
	return b, nil
}

func (m *MockContent) Exists(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.blobs[id]
	return ok, nil
}

func (m *MockContent) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.blobs, id)
	return nil
}

func (m *MockContent) List(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids := make([]string, 0, len(m.blobs))
	for id := range m.blobs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// MockCipher reverses the bytes behind a fixed tag. It is not encryption.
type MockCipher struct{}

var mockTag = []byte("sealed:")

func (MockCipher) Encrypt(plaintext []byte) ([]byte, error) {
	out := append([]byte(nil), mockTag...)
	for i := len(plaintext) - 1; i >= 0; i-- {
		out = append(out, plaintext[i])
	}
	return out, nil
}

func (MockCipher) Decrypt(ciphertext []byte) ([]byte, error) {
	if !bytes.HasPrefix(ciphertext, mockTag) {
		return nil, errors.Join(errors.New("missing tag"), core.ErrDecryption)
	}
	body := ciphertext[len(mockTag):]
	out := make([]byte, 0, len(body))
	for i := len(body) - 1; i >= 0; i-- {
		out = append(out, body[i])
	}
	return out, nil
}
