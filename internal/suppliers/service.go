package suppliers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/restockhq/restock-backend/pkg/errors"
	"github.com/restockhq/restock-backend/pkg/logger"

	"github.com/restockhq/restock-backend/pkg/db/models"
)

// Service manages the supplier and category lookup tables that the
// catalog and count workflow filter on.
type Service interface {
	ListSuppliers(ctx context.Context, businessID uuid.UUID) ([]SupplierDTO, error)
	GetSupplier(ctx context.Context, businessID, supplierID uuid.UUID) (*SupplierDTO, error)
	CreateSupplier(ctx context.Context, businessID uuid.UUID, input SupplierInput) (*SupplierDTO, error)
	UpdateSupplier(ctx context.Context, businessID, supplierID uuid.UUID, input SupplierInput) (*SupplierDTO, error)
	DeleteSupplier(ctx context.Context, businessID, supplierID uuid.UUID) error

	ListCategories(ctx context.Context, businessID uuid.UUID) ([]CategoryDTO, error)
	CreateCategory(ctx context.Context, businessID uuid.UUID, name string) (*CategoryDTO, error)
	UpdateCategory(ctx context.Context, businessID, categoryID uuid.UUID, name string) (*CategoryDTO, error)
	DeleteCategory(ctx context.Context, businessID, categoryID uuid.UUID) error
}

// SupplierInput holds the validated payload to create or update a supplier.
type SupplierInput struct {
	Name     string
	Email    *string
	Phone    *string
	IsActive *bool
}

// LookupRepository is the persistence surface the service needs.
type LookupRepository interface {
	ListSuppliers(ctx context.Context, businessID uuid.UUID) ([]models.Supplier, error)
	FindSupplier(ctx context.Context, businessID, supplierID uuid.UUID) (*models.Supplier, error)
	CreateSupplier(ctx context.Context, supplier *models.Supplier) error
	SaveSupplier(ctx context.Context, supplier *models.Supplier) error
	CountSupplierProducts(ctx context.Context, businessID, supplierID uuid.UUID) (int64, error)
	DeleteSupplier(ctx context.Context, businessID, supplierID uuid.UUID) (bool, error)

	ListCategories(ctx context.Context, businessID uuid.UUID) ([]models.Category, error)
	FindCategory(ctx context.Context, businessID, categoryID uuid.UUID) (*models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	SaveCategory(ctx context.Context, category *models.Category) error
	CountCategoryProducts(ctx context.Context, businessID, categoryID uuid.UUID) (int64, error)
	DeleteCategory(ctx context.Context, businessID, categoryID uuid.UUID) (bool, error)
}

type service struct {
	repo LookupRepository
	logg *logger.Logger
}

// NewService constructs a lookup-table service instance.
func NewService(repo LookupRepository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("suppliers repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, logg: logg}, nil
}

func (s *service) ListSuppliers(ctx context.Context, businessID uuid.UUID) ([]SupplierDTO, error) {
	rows, err := s.repo.ListSuppliers(ctx, businessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing suppliers")
	}
	out := make([]SupplierDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewSupplierDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) GetSupplier(ctx context.Context, businessID, supplierID uuid.UUID) (*SupplierDTO, error) {
	supplier, err := s.repo.FindSupplier(ctx, businessID, supplierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading supplier")
	}
	return NewSupplierDTO(supplier), nil
}

func (s *service) CreateSupplier(ctx context.Context, businessID uuid.UUID, input SupplierInput) (*SupplierDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "supplier name is required")
	}
	supplier := &models.Supplier{
		ID:         uuid.New(),
		BusinessID: businessID,
		Name:       name,
		Email:      input.Email,
		Phone:      input.Phone,
		IsActive:   true,
	}
	if input.IsActive != nil {
		supplier.IsActive = *input.IsActive
	}
	if err := s.repo.CreateSupplier(ctx, supplier); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "a supplier with that name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating supplier")
	}
	s.logg.Info(s.logg.WithField(ctx, "supplier_id", supplier.ID.String()), "supplier created")
	return NewSupplierDTO(supplier), nil
}

func (s *service) UpdateSupplier(ctx context.Context, businessID, supplierID uuid.UUID, input SupplierInput) (*SupplierDTO, error) {
	supplier, err := s.repo.FindSupplier(ctx, businessID, supplierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading supplier")
	}
	if name := strings.TrimSpace(input.Name); name != "" {
		supplier.Name = name
	}
	if input.Email != nil {
		supplier.Email = input.Email
	}
	if input.Phone != nil {
		supplier.Phone = input.Phone
	}
	if input.IsActive != nil {
		supplier.IsActive = *input.IsActive
	}
	if err := s.repo.SaveSupplier(ctx, supplier); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "a supplier with that name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating supplier")
	}
	return NewSupplierDTO(supplier), nil
}

func (s *service) DeleteSupplier(ctx context.Context, businessID, supplierID uuid.UUID) error {
	inUse, err := s.repo.CountSupplierProducts(ctx, businessID, supplierID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking supplier usage")
	}
	if inUse > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "supplier is referenced by products")
	}
	deleted, err := s.repo.DeleteSupplier(ctx, businessID, supplierID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting supplier")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "supplier not found")
	}
	s.logg.Info(s.logg.WithField(ctx, "supplier_id", supplierID.String()), "supplier deleted")
	return nil
}

func (s *service) ListCategories(ctx context.Context, businessID uuid.UUID) ([]CategoryDTO, error) {
	rows, err := s.repo.ListCategories(ctx, businessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing categories")
	}
	out := make([]CategoryDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewCategoryDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) CreateCategory(ctx context.Context, businessID uuid.UUID, name string) (*CategoryDTO, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}
	category := &models.Category{
		ID:         uuid.New(),
		BusinessID: businessID,
		Name:       name,
	}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "a category with that name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating category")
	}
	return NewCategoryDTO(category), nil
}

func (s *service) UpdateCategory(ctx context.Context, businessID, categoryID uuid.UUID, name string) (*CategoryDTO, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}
	category, err := s.repo.FindCategory(ctx, businessID, categoryID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading category")
	}
	category.Name = name
	if err := s.repo.SaveCategory(ctx, category); err != nil {
		if pkgerrors.IsUniqueViolation(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "a category with that name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating category")
	}
	return NewCategoryDTO(category), nil
}

func (s *service) DeleteCategory(ctx context.Context, businessID, categoryID uuid.UUID) error {
	inUse, err := s.repo.CountCategoryProducts(ctx, businessID, categoryID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking category usage")
	}
	if inUse > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "category is referenced by products")
	}
	deleted, err := s.repo.DeleteCategory(ctx, businessID, categoryID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting category")
	}
	if !deleted {
		return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
	}
	return nil
}
