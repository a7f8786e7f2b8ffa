// Package documents fetches rendered artifacts (count sheets, order
// documents) from the external renderer. Failures here are notice-grade:
// callers report them to the operator without changing any workflow state.
package documents

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/restockhq/restock-backend/internal/catalog"
	pkgerrors "github.com/restockhq/restock-backend/pkg/errors"
	"github.com/restockhq/restock-backend/pkg/upstream"
)

// Artifact is an opaque rendered document.
type Artifact struct {
	ContentType string
	Filename    string
	Data        []byte
}

// Service exposes the renderer-backed document operations.
type Service interface {
	CountSheet(ctx context.Context, filters catalog.ListFilters) (*Artifact, error)
	OrderDocument(ctx context.Context, orderID uuid.UUID) (*Artifact, error)
}

type renderer interface {
	Do(ctx context.Context, operation string, req upstream.Request) (*upstream.Response, error)
}

type service struct {
	client renderer
}

// NewService constructs a document service over the upstream client.
func NewService(client renderer) (Service, error) {
	if client == nil {
		return nil, fmt.Errorf("upstream client required")
	}
	return &service{client: client}, nil
}

// CountSheet renders a blank count sheet for the filter scope.
func (s *service) CountSheet(ctx context.Context, filters catalog.ListFilters) (*Artifact, error) {
	query := url.Values{}
	if filters.SupplierID != nil {
		query.Set("supplier_id", filters.SupplierID.String())
	}
	if filters.CategoryID != nil {
		query.Set("category_id", filters.CategoryID.String())
	}

	resp, err := s.client.Do(ctx, "count_sheet", upstream.Request{
		Method: http.MethodGet,
		Path:   "/documents/count-sheet",
		Query:  query,
	})
	if err != nil {
		return nil, err
	}
	return &Artifact{
		ContentType: "application/pdf",
		Filename:    "count-sheet.pdf",
		Data:        resp.Body,
	}, nil
}

// OrderDocument renders the printable document for one order.
func (s *service) OrderDocument(ctx context.Context, orderID uuid.UUID) (*Artifact, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	resp, err := s.client.Do(ctx, "order_document", upstream.Request{
		Method: http.MethodGet,
		Path:   fmt.Sprintf("/documents/orders/%s", orderID),
	})
	if err != nil {
		return nil, err
	}
	return &Artifact{
		ContentType: "application/pdf",
		Filename:    fmt.Sprintf("purchase-order-%s.pdf", orderID),
		Data:        resp.Body,
	}, nil
}
