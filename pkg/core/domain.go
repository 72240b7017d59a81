// Package core holds the domain of the note store: principals, notes, shares
// and access requests, the access-control rules over them and the Service that
// exposes one call per use case.
package core

import (
	"crypto/subtle"
	"time"
)

// Principal is an authenticated actor identified by name and a secret credential.
type Principal struct {
	Name       string `json:"name"`
	Credential string `json:"credential"`
}

// Note is the metadata of a stored note. The body lives in a separate
// content blob keyed by the same ID.
type Note struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
}

// NoteView is a note as listed to a principal, together with the names it is shared with.
type NoteView struct {
	Note
	SharedWith []string `json:"shared_with"`
}

// NoteContent is a note with its decrypted body.
type NoteContent struct {
	Note
	Content string `json:"content"`
}

// RequestStatus is the state of an AccessRequest.
type RequestStatus string

const (
	StatusPending  RequestStatus = "pending"
	StatusApproved RequestStatus = "approved"
)

// AccessRequest asks To for shares of every note it owns on behalf of From.
type AccessRequest struct {
	ID        string        `json:"request_id"`
	From      string        `json:"from"`
	To        string        `json:"to"`
	Status    RequestStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
}

// PrincipalDocument is the persisted set of principals.
type PrincipalDocument struct {
	Principals []Principal `json:"principals"`
}

// Lookup returns the principal with the given name, compared in canonical form.
func (d PrincipalDocument) Lookup(name string) (Principal, bool) {
	name = canonicalName(name)
	for _, p := range d.Principals {
		if canonicalName(p.Name) == name {
			return p, true
		}
	}
	return Principal{}, false
}

// ByCredential returns the principal holding credential. Comparisons run in
// constant time.
func (d PrincipalDocument) ByCredential(credential string) (Principal, bool) {
	for _, p := range d.Principals {
		if subtle.ConstantTimeCompare([]byte(p.Credential), []byte(credential)) == 1 {
			return p, true
		}
	}
	return Principal{}, false
}

// Names returns principal names in insertion order.
func (d PrincipalDocument) Names() []string {
	names := make([]string, 0, len(d.Principals))
	for _, p := range d.Principals {
		names = append(names, p.Name)
	}
	return names
}

// NoteDocument is the persisted note metadata.
type NoteDocument struct {
	Notes []Note `json:"notes"`
}

// Find returns the note with the given ID.
func (d NoteDocument) Find(id string) (Note, bool) {
	for _, n := range d.Notes {
		if n.ID == id {
			return n, true
		}
	}
	return Note{}, false
}

// OwnedBy returns the IDs of every note owned by owner.
func (d NoteDocument) OwnedBy(owner string) []string {
	var ids []string
	for _, n := range d.Notes {
		if n.Owner == owner {
			ids = append(ids, n.ID)
		}
	}
	return ids
}

// ShareDocument is the persisted sharing state: direct shares per note and
// the ordered log of access requests.
type ShareDocument struct {
	Shares   map[string][]string `json:"shares"`
	Requests []AccessRequest     `json:"requests"`
}

// SharedWith returns the principals a note is shared with. Never nil.
func (d ShareDocument) SharedWith(noteID string) []string {
	names := d.Shares[noteID]
	out := make([]string, len(names))
	copy(out, names)
	return out
}

// Grant adds name to the shares of noteID. It reports whether the share was new.
func (d *ShareDocument) Grant(noteID, name string) bool {
	if d.Shares == nil {
		d.Shares = make(map[string][]string)
	}
	for _, existing := range d.Shares[noteID] {
		if existing == name {
			return false
		}
	}
	d.Shares[noteID] = append(d.Shares[noteID], name)
	return true
}

// Request returns a pointer to the request with the given ID, or nil.
func (d *ShareDocument) Request(id string) *AccessRequest {
	for i := range d.Requests {
		if d.Requests[i].ID == id {
			return &d.Requests[i]
		}
	}
	return nil
}

// Snapshot is a consistent view of all three documents, read under a single
// acquisition of the store lock.
type Snapshot struct {
	Principals PrincipalDocument
	Notes      NoteDocument
	Shares     ShareDocument
}

// EventType represents the type of change observed on the data directory.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change to one of the persisted documents or blobs.
type Event struct {
	Type      EventType
	Name      string // relative path inside the data directory
	Timestamp int64  // Unix timestamp
}

func (e Event) String() string {
	return string(e.Type) + " " + e.Name
}
