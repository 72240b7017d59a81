package core

import (
	"context"
	"fmt"
	"slices"
)

// CanRead reports whether principal may read noteID: it owns the note or the
// note is shared with it. Unknown notes are never readable.
func CanRead(notes NoteDocument, shares ShareDocument, noteID, principal string) bool {
	note, ok := notes.Find(noteID)
	if !ok {
		return false
	}
	if note.Owner == principal {
		return true
	}
	return slices.Contains(shares.Shares[noteID], principal)
}

// CanShare reports whether principal may share noteID, which only its owner can.
func CanShare(notes NoteDocument, noteID, principal string) bool {
	note, ok := notes.Find(noteID)
	return ok && note.Owner == principal
}

// Approve moves a pending request addressed to approver to approved and
// shares every note approver owns with the requester. Both effects are
// applied to snap together; persisting them is up to the caller.
func Approve(snap *Snapshot, requestID, approver string) (AccessRequest, error) {
	req := snap.Shares.Request(requestID)
	if req == nil {
		return AccessRequest{}, fmt.Errorf("request %s: %w", requestID, ErrNotFound)
	}
	if req.To != approver {
		return AccessRequest{}, fmt.Errorf("request %s is addressed to %s: %w", requestID, req.To, ErrPermissionDenied)
	}
	if req.Status != StatusPending {
		return AccessRequest{}, fmt.Errorf("request %s already %s: %w", requestID, req.Status, ErrInvalidState)
	}

	for _, id := range snap.Notes.OwnedBy(approver) {
		snap.Shares.Grant(id, req.From)
	}
	req.Status = StatusApproved
	return *req, nil
}

// AccessControl answers permission questions against the current state of a
// MetadataStore and drives the access-request state machine.
type AccessControl struct {
	store MetadataStore
}

// NewAccessControl creates an AccessControl backed by store.
func NewAccessControl(store MetadataStore) *AccessControl {
	return &AccessControl{store: store}
}

// CanRead reports whether principal may read noteID.
func (a *AccessControl) CanRead(ctx context.Context, noteID, principal string) (bool, error) {
	snap, err := a.store.Snapshot(ctx)
	if err != nil {
		return false, err
	}
	return CanRead(snap.Notes, snap.Shares, noteID, principal), nil
}

// CanShare reports whether principal may share noteID.
func (a *AccessControl) CanShare(ctx context.Context, noteID, principal string) (bool, error) {
	notes, err := a.store.Notes(ctx)
	if err != nil {
		return false, err
	}
	return CanShare(notes, noteID, principal), nil
}

// Request records req as a new pending request and returns it as stored, with
// To in canonical form. Self-requests fail with ErrInvalidArgument and unknown
// recipients with ErrNotFound.
func (a *AccessControl) Request(ctx context.Context, req AccessRequest) (AccessRequest, error) {
	to, err := NormalizeName(req.To)
	if err != nil {
		return AccessRequest{}, err
	}
	if canonicalName(req.From) == to {
		return AccessRequest{}, fmt.Errorf("cannot request access from yourself: %w", ErrInvalidArgument)
	}
	req.Status = StatusPending

	err = a.store.UpdateShares(ctx, func(snap *Snapshot) error {
		p, ok := snap.Principals.Lookup(to)
		if !ok {
			return fmt.Errorf("principal %q: %w", to, ErrNotFound)
		}
		req.To = p.Name
		snap.Shares.Requests = append(snap.Shares.Requests, req)
		return nil
	})
	if err != nil {
		return AccessRequest{}, err
	}
	return req, nil
}

// Approve applies the pending -> approved transition as one store mutation.
func (a *AccessControl) Approve(ctx context.Context, requestID, approver string) (AccessRequest, error) {
	var approved AccessRequest
	err := a.store.UpdateShares(ctx, func(snap *Snapshot) error {
		req, err := Approve(snap, requestID, approver)
		if err != nil {
			return err
		}
		approved = req
		return nil
	})
	if err != nil {
		return AccessRequest{}, err
	}
	return approved, nil
}

// Share grants recipient read access to noteID on behalf of its owner.
func (a *AccessControl) Share(ctx context.Context, noteID, owner, recipient string) error {
	recipient, err := NormalizeName(recipient)
	if err != nil {
		return err
	}
	return a.store.UpdateShares(ctx, func(snap *Snapshot) error {
		if _, ok := snap.Notes.Find(noteID); !ok {
			return fmt.Errorf("note %s: %w", noteID, ErrNotFound)
		}
		if !CanShare(snap.Notes, noteID, owner) {
			return fmt.Errorf("only the owner can share note %s: %w", noteID, ErrPermissionDenied)
		}
		p, ok := snap.Principals.Lookup(recipient)
		if !ok {
			return fmt.Errorf("principal %q: %w", recipient, ErrNotFound)
		}
		snap.Shares.Grant(noteID, p.Name)
		return nil
	})
}
