// Package mischief is the Composition Root of a multi-tenant encrypted note store.
//
// It connects the core business logic (pkg/core) with the infrastructure
// adapters (pkg/adapters) using the Hexagonal Architecture pattern.
//
// Model:
//
// Principals own notes. A note is stored as metadata in a JSON document and
// as an encrypted blob next to it. Owners share notes with other principals
// one at a time, or grant all of their notes at once by approving an access
// request. A single administrator can list, inspect and delete any note.
//
// Features:
//
//   - **Serialized Metadata**: three JSON documents rewritten atomically under one lock.
//   - **Encryption at Rest**: NaCl secretbox with a key created on first start.
//   - **Access Control**: ownership, direct shares and a pending to approved request flow.
//   - **Observability**: every component exposes its state through introspection.
//
// Usage:
//
//	svc, err := mischief.New("./data",
//		mischief.WithLogger(logger),
//	)
//
//	note, err := svc.CreateNote(ctx, "Harry", "Map", "Marauder's Map")
package mischief
