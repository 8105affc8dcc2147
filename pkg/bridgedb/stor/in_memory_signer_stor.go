package stor

import (
	"sync"

	"github.com/medcustody/ledgerbridge/pkg/bridgedb/model"
	"gorm.io/gorm"
)

// InMemorySignerStor is a test double for the signer registry.
type InMemorySignerStor struct {
	ErrToReturn error

	mu      sync.Mutex
	signers map[string]model.Signer
	lastID  int
}

func NewInMemorySignerStor(signers []model.Signer) *InMemorySignerStor {
	s := &InMemorySignerStor{
		signers: make(map[string]model.Signer),
		lastID:  10000,
	}

	for _, signer := range signers {
		s.signers[signer.SignerID] = signer
	}

	return s
}

func (s *InMemorySignerStor) CreateSigner(signer *model.Signer) (*model.Signer, error) {
	if s.ErrToReturn != nil {
		return nil, s.ErrToReturn
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastID = s.lastID + 1
	signer.ID = s.lastID
	s.signers[signer.SignerID] = *signer

	return signer, nil
}

func (s *InMemorySignerStor) GetSignerBySignerID(signerID string) (*model.Signer, error) {
	if s.ErrToReturn != nil {
		return nil, s.ErrToReturn
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	signer, ok := s.signers[signerID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}

	return &signer, nil
}
