package entity

import "github.com/google/uuid"

// SelectionKind is the user's decision for one reviewed record.
type SelectionKind string

const (
	SelectionExact    SelectionKind = "exact"
	SelectionPossible SelectionKind = "possible"
	SelectionNew      SelectionKind = "new"
)

// Selection is one confirmed decision: link the record to an existing catalog
// entry (exact/possible) or create a new one (new), optionally adding the
// quantity to a humidor the user owns.
type Selection struct {
	Kind         SelectionKind `json:"kind"`
	Record       ImportRecord  `json:"record"`
	EntryID      *uuid.UUID    `json:"entry_id,omitempty"` // required for exact/possible
	AddToHumidor bool          `json:"add_to_humidor"`
	HumidorID    *uuid.UUID    `json:"humidor_id,omitempty"`
}

// SelectionError records a per-item failure without aborting the batch.
type SelectionError struct {
	Index   int    `json:"index"`
	Message string `json:"message"`
}

// ConfirmationResult summarizes a confirmed batch. Success is true only when
// every selection applied cleanly.
type ConfirmationResult struct {
	Success        bool             `json:"success"`
	Created        int              `json:"created"`
	Matched        int              `json:"matched"`
	AddedToHumidor int              `json:"added_to_humidor"`
	Errors         []SelectionError `json:"errors"`
}
