package sources

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"catalog-api/internal/models"
)

// ProductSource reads the flat product collection, its categories and
// single products by id.
type ProductSource struct {
	client *jsonClient
}

func NewProductSource(baseURL string, opts Options) (*ProductSource, error) {
	client, err := newJSONClient(baseURL, opts)
	if err != nil {
		return nil, err
	}
	return &ProductSource{client: client}, nil
}

func (s *ProductSource) FetchProducts(ctx context.Context) ([]models.Product, error) {
	var products []models.Product

	err := s.client.get(ctx, s.client.endpoint("products").String(), func(body []byte) error {
		if err := json.Unmarshal(body, &products); err != nil {
			return err
		}
		if products == nil {
			return errors.New("expected a product list")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.client.logger.Info("products fetched", slog.Int("count", len(products)))
	return products, nil
}

func (s *ProductSource) FetchCategories(ctx context.Context) ([]string, error) {
	var categories []string

	err := s.client.get(ctx, s.client.endpoint("products", "categories").String(), func(body []byte) error {
		if err := json.Unmarshal(body, &categories); err != nil {
			return err
		}
		if categories == nil {
			return errors.New("expected a category list")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return categories, nil
}

// FetchProduct returns ErrNotFound when the source has no product with that id.
// The source answers unknown ids with 200 and an empty body.
func (s *ProductSource) FetchProduct(ctx context.Context, id int) (*models.Product, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: product %d", ErrNotFound, id)
	}

	var (
		product models.Product
		missing bool
	)

	err := s.client.get(ctx, s.client.endpoint("products", strconv.Itoa(id)).String(), func(body []byte) error {
		body = bytes.TrimSpace(body)
		if len(body) == 0 || bytes.Equal(body, []byte("null")) {
			missing = true
			return nil
		}
		if err := json.Unmarshal(body, &product); err != nil {
			return err
		}
		if product.ID == 0 {
			return errors.New("missing id")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if missing {
		return nil, fmt.Errorf("%w: product %d", ErrNotFound, id)
	}

	return &product, nil
}
