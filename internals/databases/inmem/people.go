package inmem

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"schoolku_backend/internals/features/people/model"
	"schoolku_backend/internals/features/people/service"
	"schoolku_backend/internals/helpers/apperrors"
)

type PeopleStore struct {
	db *DB
}

var _ service.Store = (*PeopleStore)(nil)

func (s *PeopleStore) CreateBranch(_ context.Context, b *model.BranchModel) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, x := range s.db.branches {
		if x.BranchCode == b.BranchCode {
			return fmt.Errorf("branch %s: %w", b.BranchCode, apperrors.ErrUniqueViolation)
		}
	}
	if b.BranchID == uuid.Nil {
		b.BranchID = uuid.New()
	}
	now := s.db.now()
	b.BranchCreatedAt, b.BranchUpdatedAt = now, now
	c := *b
	s.db.branches[b.BranchID] = &c
	return nil
}

func (s *PeopleStore) GetBranch(_ context.Context, branchID uuid.UUID) (*model.BranchModel, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	b, ok := s.db.branches[branchID]
	if !ok {
		return nil, fmt.Errorf("branch: %w", apperrors.ErrNotFound)
	}
	c := *b
	return &c, nil
}

func (s *PeopleStore) ListBranches(_ context.Context) ([]model.BranchModel, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	out := make([]model.BranchModel, 0, len(s.db.branches))
	for _, b := range s.db.branches {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].BranchCode < out[j].BranchCode })
	return out, nil
}

func (s *PeopleStore) CreatePerson(_ context.Context, p *model.PersonModel) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, x := range s.db.persons {
		if x.PersonBranchID == p.PersonBranchID && x.PersonCode == p.PersonCode {
			return fmt.Errorf("person %s: %w", p.PersonCode, apperrors.ErrUniqueViolation)
		}
	}
	if p.PersonID == uuid.Nil {
		p.PersonID = uuid.New()
	}
	now := s.db.now()
	p.PersonCreatedAt, p.PersonUpdatedAt = now, now
	s.db.persons[p.PersonID] = clonePerson(p)
	return nil
}

func (s *PeopleStore) GetPerson(_ context.Context, branchID, personID uuid.UUID) (*model.PersonModel, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.persons[personID]
	if !ok || p.PersonBranchID != branchID {
		return nil, fmt.Errorf("person: %w", apperrors.ErrNotFound)
	}
	return clonePerson(p), nil
}

func (s *PeopleStore) GetPersonByCode(_ context.Context, branchID uuid.UUID, code string) (*model.PersonModel, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	for _, p := range s.db.persons {
		if p.PersonBranchID == branchID && p.PersonCode == code {
			return clonePerson(p), nil
		}
	}
	return nil, fmt.Errorf("person: %w", apperrors.ErrNotFound)
}

func (s *PeopleStore) SetPersonActive(_ context.Context, branchID, personID uuid.UUID, active bool) error {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	p, ok := s.db.persons[personID]
	if !ok || p.PersonBranchID != branchID {
		return fmt.Errorf("person: %w", apperrors.ErrNotFound)
	}
	p.PersonIsActive = active
	p.PersonUpdatedAt = s.db.now()
	return nil
}

func (s *PeopleStore) ListPersons(_ context.Context, branchID uuid.UUID, kind model.PersonKind, activeOnly bool) ([]model.PersonModel, error) {
	s.db.mu.Lock()
	defer s.db.mu.Unlock()
	return s.db.listPersonsLocked(branchID, kind, activeOnly, ""), nil
}

// listPersonsLocked: caller memegang mu. period "" = semua.
func (db *DB) listPersonsLocked(branchID uuid.UUID, kind model.PersonKind, activeOnly bool, period string) []model.PersonModel {
	out := make([]model.PersonModel, 0)
	for _, p := range db.persons {
		if p.PersonBranchID != branchID || p.PersonKind != kind {
			continue
		}
		if activeOnly && !p.PersonIsActive {
			continue
		}
		if period != "" && (p.PersonBatchPeriod == nil || *p.PersonBatchPeriod != period) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PersonCode < out[j].PersonCode })
	return out
}
