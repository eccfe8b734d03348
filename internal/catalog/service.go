package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	validatorv10 "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/storefrontd/storefront/internal/auth"
	"github.com/storefrontd/storefront/internal/httperr"
	"github.com/storefrontd/storefront/internal/metrics"
	"github.com/storefrontd/storefront/internal/validation"
)

// replaceRetries bounds the optimistic-concurrency loops on the
// version-guarded write paths (UpdateProduct, AddReview).
const replaceRetries = 5

// Repository is the persistence contract the service needs. *Store satisfies
// it; tests supply in-memory fakes.
type Repository interface {
	Put(ctx context.Context, p Product) error
	Get(ctx context.Context, productID string) (*Product, error)
	List(ctx context.Context) ([]Product, error)
	Replace(ctx context.Context, p Product, seenVersion int64) error
	Delete(ctx context.Context, productID string) error
}

// Filter narrows and orders product listings.
type Filter struct {
	Category string
	Search   string
	Sort     string
}

// Service implements catalog queries, admin CRUD and review aggregation.
type Service struct {
	repo     Repository
	validate *validatorv10.Validate
	metrics  *metrics.Publisher
	nowFunc  func() time.Time
}

// NewService wires a catalog service. metrics may be nil.
func NewService(repo Repository, validate *validatorv10.Validate, m *metrics.Publisher) *Service {
	return &Service{
		repo:     repo,
		validate: validate,
		metrics:  m,
		nowFunc:  time.Now,
	}
}

// ListProducts returns products matching the filter, ordered per Filter.Sort.
func (s *Service) ListProducts(ctx context.Context, f Filter) ([]Product, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}

	matched := make([]Product, 0, len(all))
	search := strings.ToLower(f.Search)
	for _, p := range all {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), search) {
			continue
		}
		matched = append(matched, p)
	}

	switch f.Sort {
	case "price-asc":
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].Price < matched[j].Price })
	case "price-desc":
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].Price > matched[j].Price })
	case "rating":
		sort.SliceStable(matched, func(i, j int) bool { return matched[i].Rating > matched[j].Rating })
	}

	return matched, nil
}

// GetProduct returns a single product by id.
func (s *Service) GetProduct(ctx context.Context, productID string) (*Product, error) {
	p, err := s.repo.Get(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if p == nil {
		return nil, httperr.ErrNotFound
	}
	return p, nil
}

// CreateProduct validates the fields and persists a new product with no
// reviews and zeroed derived fields.
func (s *Service) CreateProduct(ctx context.Context, req validation.CreateProductRequest) (*Product, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, httperr.NewValidation(validation.FieldErrors(err))
	}

	now := s.nowFunc().UTC()
	p := Product{
		ProductID:   uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Category:    req.Category,
		Stock:       req.Stock,
		Images:      req.Images,
		Reviews:     []Review{},
		Rating:      0,
		NumReviews:  0,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Put(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	log.WithFields(log.Fields{"product_id": p.ProductID, "category": p.Category}).Info("product created")
	return &p, nil
}

// UpdateProduct merges the provided fields into the stored product and writes
// it back conditioned on the version it read, retrying on conflict. Derived
// fields (rating, numReviews) and reviews are not client-settable.
func (s *Service) UpdateProduct(ctx context.Context, productID string, req validation.UpdateProductRequest) (*Product, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, httperr.NewValidation(validation.FieldErrors(err))
	}

	for attempt := 0; attempt < replaceRetries; attempt++ {
		cur, err := s.repo.Get(ctx, productID)
		if err != nil {
			return nil, fmt.Errorf("get product: %w", err)
		}
		if cur == nil {
			return nil, httperr.ErrNotFound
		}

		seen := cur.Version
		merged := *cur
		if req.Name != nil {
			merged.Name = *req.Name
		}
		if req.Description != nil {
			merged.Description = *req.Description
		}
		if req.Price != nil {
			merged.Price = *req.Price
		}
		if req.Category != nil {
			merged.Category = *req.Category
		}
		if req.Stock != nil {
			merged.Stock = *req.Stock
		}
		if req.Images != nil {
			merged.Images = *req.Images
		}

		err = s.repo.Replace(ctx, merged, seen)
		if errors.Is(err, ErrVersionConflict) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("update product: %w", err)
		}
		merged.Version = seen + 1
		return &merged, nil
	}

	return nil, fmt.Errorf("update product %s: %w", productID, ErrVersionConflict)
}

// DeleteProduct removes a product.
func (s *Service) DeleteProduct(ctx context.Context, productID string) error {
	err := s.repo.Delete(ctx, productID)
	if errors.Is(err, ErrMissing) {
		return httperr.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	log.WithField("product_id", productID).Info("product deleted")
	return nil
}

// AddReview appends a review and recomputes the derived rating fields in one
// version-guarded write. Conflicting writers retry from a fresh read, so
// concurrent submissions against the same product never lose an update.
func (s *Service) AddReview(ctx context.Context, productID string, caller auth.Context, req validation.AddReviewRequest) (*Product, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, httperr.NewValidation(validation.FieldErrors(err))
	}

	review := Review{
		ReviewID:  uuid.NewString(),
		UserID:    caller.UserID,
		UserName:  caller.Name,
		Rating:    req.Rating,
		Comment:   req.Comment,
		CreatedAt: s.nowFunc().UTC(),
	}

	for attempt := 0; attempt < replaceRetries; attempt++ {
		cur, err := s.repo.Get(ctx, productID)
		if err != nil {
			return nil, fmt.Errorf("get product: %w", err)
		}
		if cur == nil {
			return nil, httperr.ErrNotFound
		}

		seen := cur.Version
		updated := *cur
		updated.Reviews = append(append([]Review{}, cur.Reviews...), review)
		updated.Recompute()

		err = s.repo.Replace(ctx, updated, seen)
		if errors.Is(err, ErrVersionConflict) {
			s.metrics.Count(ctx, metrics.ReviewConflicts, 1)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("add review: %w", err)
		}

		updated.Version = seen + 1
		log.WithFields(log.Fields{
			"product_id": productID,
			"user_id":    caller.UserID,
			"rating":     req.Rating,
		}).Info("review added")
		return &updated, nil
	}

	return nil, fmt.Errorf("add review to %s: %w", productID, ErrVersionConflict)
}
