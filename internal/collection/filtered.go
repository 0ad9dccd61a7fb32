package collection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"golang.org/x/text/cases"

	"catalog-api/internal/models"
)

// AllCategories is the sentinel category that matches every product.
const AllCategories = "All"

var ErrUnknownCategory = errors.New("unknown category")

// ProductLoader reads the flat, unpaginated product collection.
type ProductLoader interface {
	FetchProducts(ctx context.Context) ([]models.Product, error)
	FetchCategories(ctx context.Context) ([]string, error)
	FetchProduct(ctx context.Context, id int) (*models.Product, error)
}

// Filtered loads the product collection and category list once, then filters
// locally on every read.
type Filtered struct {
	loader ProductLoader
	logger *slog.Logger

	mu         sync.RWMutex
	all        []models.Product
	categories []string
	search     string
	category   string
	loaded     bool
	loadErr    error
}

func NewFiltered(loader ProductLoader, logger *slog.Logger) *Filtered {
	if logger == nil {
		logger = slog.Default()
	}
	return &Filtered{
		loader:     loader,
		logger:     logger,
		categories: []string{AllCategories},
		category:   AllCategories,
	}
}

// Load fetches products and categories concurrently. A failure on one side is
// logged and leaves that side's previous state in place; the other still loads.
func (f *Filtered) Load(ctx context.Context) error {
	var (
		wg          sync.WaitGroup
		products    []models.Product
		categories  []string
		productsErr error
		categoryErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		products, productsErr = f.loader.FetchProducts(ctx)
	}()
	go func() {
		defer wg.Done()
		categories, categoryErr = f.loader.FetchCategories(ctx)
	}()
	wg.Wait()

	f.mu.Lock()
	defer f.mu.Unlock()

	if productsErr != nil {
		f.logger.Error("load products failed", slog.Any("err", productsErr))
	} else {
		f.all = slices.Clone(products)
	}

	if categoryErr != nil {
		f.logger.Error("load categories failed", slog.Any("err", categoryErr))
	} else {
		f.categories = withSentinel(categories)
		if !slices.Contains(f.categories, f.category) {
			f.category = AllCategories
		}
	}

	f.loaded = true
	f.loadErr = errors.Join(productsErr, categoryErr)
	return f.loadErr
}

func (f *Filtered) Loaded() bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.loaded
}

// Err returns the joined error of the last Load, nil when both fetches succeeded.
func (f *Filtered) Err() error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.loadErr
}

func (f *Filtered) SetSearch(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.search = s
}

func (f *Filtered) SetCategory(c string) error {
	if c == "" {
		c = AllCategories
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if !slices.Contains(f.categories, c) {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, c)
	}
	f.category = c
	return nil
}

// Selection is one consistent read of the filter inputs and their result.
type Selection struct {
	Search   string
	Category string
	Visible  []models.Product
}

// Select validates category, then sets both inputs and computes the visible
// products under one lock. An unknown category changes nothing.
func (f *Filtered) Select(search, category string) (Selection, error) {
	if category == "" {
		category = AllCategories
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if !slices.Contains(f.categories, category) {
		return Selection{}, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	f.search = search
	f.category = category
	return Selection{
		Search:   search,
		Category: category,
		Visible:  FilterProducts(f.all, search, category),
	}, nil
}

func (f *Filtered) Search() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.search
}

func (f *Filtered) Category() string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.category
}

// Categories returns the category options, "All" first.
func (f *Filtered) Categories() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.categories)
}

func (f *Filtered) All() []models.Product {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.all)
}

// Visible is recomputed from the current inputs on every call.
func (f *Filtered) Visible() []models.Product {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return FilterProducts(f.all, f.search, f.category)
}

func (f *Filtered) Empty() bool {
	return len(f.Visible()) == 0
}

// Featured returns up to n products in collection order.
func (f *Filtered) Featured(n int) []models.Product {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if n > len(f.all) {
		n = len(f.all)
	}
	if n < 0 {
		n = 0
	}
	return slices.Clone(f.all[:n])
}

// Product looks up a single product through the loader.
func (f *Filtered) Product(ctx context.Context, id int) (*models.Product, error) {
	return f.loader.FetchProduct(ctx, id)
}

// FilterProducts keeps products whose title contains search (case-insensitive)
// and whose category equals category, unless category is "All".
func FilterProducts(products []models.Product, search, category string) []models.Product {
	needle := fold(search)
	matchAll := category == "" || category == AllCategories

	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if !matchAll && p.Category != category {
			continue
		}
		if needle != "" && !strings.Contains(fold(p.Title), needle) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func fold(s string) string {
	return cases.Fold().String(s)
}

func withSentinel(categories []string) []string {
	out := make([]string, 0, len(categories)+1)
	out = append(out, AllCategories)
	for _, c := range categories {
		if c == "" || slices.Contains(out, c) {
			continue
		}
		out = append(out, c)
	}
	return out
}
