package contracts

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ListFilter narrows contract listings.
type ListFilter struct {
	Status string
	Limit  int
	Offset int
}

// Repository defines the interface for contract storage.
type Repository interface {
	Create(ctx context.Context, req *CreateContractRequest) (*Contract, error)
	GetByID(ctx context.Context, id string) (*Contract, error)
	GetByToken(ctx context.Context, token string) (*Contract, error)
	List(ctx context.Context, filter ListFilter) ([]*Contract, error)
	// ListPositions returns placements ordered by ascending page number,
	// the order the mapper expects.
	ListPositions(ctx context.Context, contractID string) ([]SignaturePosition, error)
	InsertSignature(ctx context.Context, contractID string, sig CapturedSignature) error
	ListSignatures(ctx context.Context, contractID string) ([]CapturedSignature, error)
	UpdateStatus(ctx context.Context, id, status string, signedAt *time.Time) error
}

// InMemoryRepository is an in-memory Repository used in tests and local runs.
type InMemoryRepository struct {
	mu         sync.RWMutex
	contracts  map[string]*Contract
	positions  map[string][]SignaturePosition
	signatures map[string][]CapturedSignature
}

// NewInMemoryRepository creates a new in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		contracts:  make(map[string]*Contract),
		positions:  make(map[string][]SignaturePosition),
		signatures: make(map[string][]CapturedSignature),
	}
}

// Create stores a new contract with its placement records.
func (r *InMemoryRepository) Create(ctx context.Context, req *CreateContractRequest) (*Contract, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	contract := &Contract{
		ID:           uuid.NewString(),
		Number:       req.Number,
		LeadID:       req.LeadID,
		ClientName:   req.ClientName,
		ClientEmail:  req.ClientEmail,
		ClientPhone:  req.ClientPhone,
		Status:       StatusDraft,
		SigningToken: uuid.NewString(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	positions := make([]SignaturePosition, 0, len(req.Positions))
	for _, p := range req.Positions {
		p.ID = uuid.NewString()
		p.ContractID = contract.ID
		positions = append(positions, p)
	}
	sort.SliceStable(positions, func(i, j int) bool {
		return positions[i].PageNumber < positions[j].PageNumber
	})

	r.mu.Lock()
	r.contracts[contract.ID] = contract
	r.positions[contract.ID] = positions
	r.mu.Unlock()

	return contract, nil
}

// GetByID retrieves a contract by ID.
func (r *InMemoryRepository) GetByID(ctx context.Context, id string) (*Contract, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	contract, ok := r.contracts[id]
	if !ok {
		return nil, ErrContractNotFound
	}
	copied := *contract
	return &copied, nil
}

// GetByToken retrieves a contract by its public signing token.
func (r *InMemoryRepository) GetByToken(ctx context.Context, token string) (*Contract, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, contract := range r.contracts {
		if contract.SigningToken == token {
			copied := *contract
			return &copied, nil
		}
	}
	return nil, ErrContractNotFound
}

// List returns contracts matching the filter, newest first.
func (r *InMemoryRepository) List(ctx context.Context, filter ListFilter) ([]*Contract, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Contract
	for _, contract := range r.contracts {
		if filter.Status != "" && contract.Status != filter.Status {
			continue
		}
		copied := *contract
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// ListPositions returns placements ordered by ascending page number.
func (r *InMemoryRepository) ListPositions(ctx context.Context, contractID string) ([]SignaturePosition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]SignaturePosition(nil), r.positions[contractID]...), nil
}

// InsertSignature appends a captured signature.
func (r *InMemoryRepository) InsertSignature(ctx context.Context, contractID string, sig CapturedSignature) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.contracts[contractID]; !ok {
		return ErrContractNotFound
	}
	r.signatures[contractID] = append(r.signatures[contractID], sig)
	return nil
}

// ListSignatures returns captured signatures in capture order.
func (r *InMemoryRepository) ListSignatures(ctx context.Context, contractID string) ([]CapturedSignature, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]CapturedSignature(nil), r.signatures[contractID]...), nil
}

// UpdateStatus transitions the contract status.
func (r *InMemoryRepository) UpdateStatus(ctx context.Context, id, status string, signedAt *time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	contract, ok := r.contracts[id]
	if !ok {
		return ErrContractNotFound
	}
	contract.Status = status
	contract.SignedAt = signedAt
	contract.UpdatedAt = time.Now().UTC()
	return nil
}
