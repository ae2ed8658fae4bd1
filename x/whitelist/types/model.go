package types

import (
	"fmt"
	"strings"
	"time"
)

// ApprovedModel is a model id cleared for use in sessions.
type ApprovedModel struct {
	ID         string    `json:"id"`
	Name       string    `json:"name,omitempty"`
	ContentRef string    `json:"content_ref,omitempty"`
	ApprovedBy string    `json:"approved_by"`
	ApprovedAt time.Time `json:"approved_at"`
}

// ValidateModelID checks the shape of a model identifier.
func ValidateModelID(id string) error {
	if id == "" {
		return ErrInvalidModelID.Wrap("model id cannot be empty")
	}
	if len(id) > MaxModelIDLength {
		return ErrInvalidModelID.Wrapf("model id exceeds %d bytes", MaxModelIDLength)
	}
	if strings.TrimSpace(id) != id || strings.ContainsAny(id, "\x00\n\t") {
		return ErrInvalidModelID.Wrapf("model id %q contains invalid characters", id)
	}
	return nil
}

// GenesisState holds the approved model set.
type GenesisState struct {
	Models []ApprovedModel `json:"models"`
}

// DefaultGenesis returns an empty whitelist.
func DefaultGenesis() *GenesisState {
	return &GenesisState{Models: []ApprovedModel{}}
}

// Validate checks ids are well formed and unique.
func (gs GenesisState) Validate() error {
	seen := make(map[string]bool, len(gs.Models))
	for i, m := range gs.Models {
		if err := ValidateModelID(m.ID); err != nil {
			return fmt.Errorf("model %d: %w", i, err)
		}
		if seen[m.ID] {
			return ErrInvalidGenesis.Wrapf("duplicate model %s", m.ID)
		}
		seen[m.ID] = true
	}
	return nil
}
