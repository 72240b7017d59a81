package core

import (
	"github.com/aretw0/introspection"
)

// ServiceState exposes internal state for observability.
type ServiceState struct {
	Administrator     string `json:"administrator"`
	MetadataStoreType string `json:"metadata_store_type"`
	ContentStoreType  string `json:"content_store_type"`
	NotesCreated      int64  `json:"notes_created"`
	DecryptFailures   int64  `json:"decrypt_failures"`
}

// State implements introspection.Introspectable.
func (s *Service) State() any {
	return ServiceState{
		Administrator:     s.admin,
		MetadataStoreType: componentType(s.meta, "metadata_store"),
		ContentStoreType:  componentType(s.content, "content_store"),
		NotesCreated:      s.created.Load(),
		DecryptFailures:   s.decryptFailures.Load(),
	}
}

// ComponentType implements introspection.Component.
func (s *Service) ComponentType() string {
	return "service"
}

func componentType(v any, fallback string) string {
	if comp, ok := v.(introspection.Component); ok {
		return comp.ComponentType()
	}
	return fallback
}

var _ introspection.Introspectable = (*Service)(nil)
var _ introspection.Component = (*Service)(nil)
