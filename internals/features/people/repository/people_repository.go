// file: internals/features/people/repository/people_repository.go
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"schoolku_backend/internals/features/people/model"
	"schoolku_backend/internals/features/people/service"
	"schoolku_backend/internals/helpers/apperrors"
)

type PeopleRepository struct {
	DB *gorm.DB
}

func NewPeopleRepository(db *gorm.DB) *PeopleRepository {
	return &PeopleRepository{DB: db}
}

var _ service.Store = (*PeopleRepository)(nil)

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, apperrors.ErrNotFound)
	}
	return err
}

/* ===================== Branch ===================== */

func (r *PeopleRepository) CreateBranch(ctx context.Context, b *model.BranchModel) error {
	return r.DB.WithContext(ctx).Create(b).Error
}

func (r *PeopleRepository) GetBranch(ctx context.Context, branchID uuid.UUID) (*model.BranchModel, error) {
	var b model.BranchModel
	if err := r.DB.WithContext(ctx).
		Where("branch_id = ?", branchID).
		First(&b).Error; err != nil {
		return nil, notFound(err, "branch")
	}
	return &b, nil
}

func (r *PeopleRepository) ListBranches(ctx context.Context) ([]model.BranchModel, error) {
	var rows []model.BranchModel
	err := r.DB.WithContext(ctx).Order("branch_code ASC").Find(&rows).Error
	return rows, err
}

/* ===================== Person ===================== */

func (r *PeopleRepository) CreatePerson(ctx context.Context, p *model.PersonModel) error {
	return r.DB.WithContext(ctx).Create(p).Error
}

func (r *PeopleRepository) GetPerson(ctx context.Context, branchID, personID uuid.UUID) (*model.PersonModel, error) {
	var p model.PersonModel
	if err := r.DB.WithContext(ctx).
		Where("person_branch_id = ? AND person_id = ?", branchID, personID).
		First(&p).Error; err != nil {
		return nil, notFound(err, "person")
	}
	return &p, nil
}

func (r *PeopleRepository) GetPersonByCode(ctx context.Context, branchID uuid.UUID, code string) (*model.PersonModel, error) {
	var p model.PersonModel
	if err := r.DB.WithContext(ctx).
		Where("person_branch_id = ? AND person_code = ?", branchID, code).
		First(&p).Error; err != nil {
		return nil, notFound(err, "person "+code)
	}
	return &p, nil
}

func (r *PeopleRepository) SetPersonActive(ctx context.Context, branchID, personID uuid.UUID, active bool) error {
	res := r.DB.WithContext(ctx).
		Model(&model.PersonModel{}).
		Where("person_branch_id = ? AND person_id = ?", branchID, personID).
		Update("person_is_active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("person: %w", apperrors.ErrNotFound)
	}
	return nil
}

// ListPersons dipakai juga sebagai roster (idx_persons_roster).
func (r *PeopleRepository) ListPersons(ctx context.Context, branchID uuid.UUID, kind model.PersonKind, activeOnly bool) ([]model.PersonModel, error) {
	q := r.DB.WithContext(ctx).
		Where("person_branch_id = ? AND person_kind = ?", branchID, kind)
	if activeOnly {
		q = q.Where("person_is_active = TRUE")
	}
	var rows []model.PersonModel
	err := q.Order("person_code ASC").Find(&rows).Error
	return rows, err
}
