package leads

import (
	"strings"
	"time"
)

// Kanban pipeline stages, in board order.
const (
	StageNew         = "novo"
	StageContacted   = "contato"
	StageProposal    = "proposta"
	StageNegotiation = "negociacao"
	StageWon         = "ganho"
	StageLost        = "perdido"
)

// Stages lists the pipeline stages in board order.
var Stages = []string{StageNew, StageContacted, StageProposal, StageNegotiation, StageWon, StageLost}

// IsValidStage reports whether the stage is one of the pipeline columns.
func IsValidStage(stage string) bool {
	for _, s := range Stages {
		if s == stage {
			return true
		}
	}
	return false
}

// Lead represents a sales lead on the kanban board.
type Lead struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Company    string    `json:"company"`
	Source     string    `json:"source"`
	Stage      string    `json:"stage"`
	ValueCents int64     `json:"value_cents"`
	Notes      string    `json:"notes"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CreateLeadRequest represents the request body for creating a lead
type CreateLeadRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Company    string `json:"company"`
	Source     string `json:"source"`
	ValueCents int64  `json:"value_cents"`
	Notes      string `json:"notes"`
}

// Validate validates the create lead request
func (r *CreateLeadRequest) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return ErrInvalidName
	}
	if r.Email == "" && r.Phone == "" {
		return ErrMissingContact
	}
	return nil
}

// ListLeadsFilter narrows lead listings.
type ListLeadsFilter struct {
	Stage  string
	Limit  int
	Offset int
}
