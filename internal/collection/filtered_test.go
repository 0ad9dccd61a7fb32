package collection

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-api/internal/models"
)

type fakeLoader struct {
	products      []models.Product
	categories    []string
	productsErr   error
	categoriesErr error
}

func (f fakeLoader) FetchProducts(ctx context.Context) ([]models.Product, error) {
	return f.products, f.productsErr
}

func (f fakeLoader) FetchCategories(ctx context.Context) ([]string, error) {
	return f.categories, f.categoriesErr
}

func (f fakeLoader) FetchProduct(ctx context.Context, id int) (*models.Product, error) {
	for _, p := range f.products {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, errors.New("not found")
}

func catalogFixture() []models.Product {
	return []models.Product{
		{ID: 1, Title: "Fjallraven Backpack", Category: "men's clothing", Price: 109.95},
		{ID: 2, Title: "Smartphone Case", Category: "electronics", Price: 12},
		{ID: 3, Title: "Phone Charger", Category: "electronics", Price: 19.99},
		{ID: 4, Title: "Gold Ring", Category: "jewelery", Price: 168},
		{ID: 5, Title: "Wireless Headphones", Category: "electronics", Price: 59},
	}
}

func TestFilterProducts_IdentityFilter(t *testing.T) {
	t.Parallel()

	all := catalogFixture()
	assert.Equal(t, all, FilterProducts(all, "", AllCategories))
}

func TestFilterProducts_SearchAndCategoryAreANDed(t *testing.T) {
	t.Parallel()

	got := FilterProducts(catalogFixture(), "phone", "electronics")

	ids := make([]int, 0, len(got))
	for _, p := range got {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []int{2, 3, 5}, ids)

	got = FilterProducts(catalogFixture(), "phone", "jewelery")
	assert.Empty(t, got)
}

func TestFilterProducts_CaseInsensitive(t *testing.T) {
	t.Parallel()

	got := FilterProducts(catalogFixture(), "GOLD", AllCategories)
	require.Len(t, got, 1)
	assert.Equal(t, 4, got[0].ID)
}

func TestFilterProducts_CategoryExactMatch(t *testing.T) {
	t.Parallel()

	assert.Empty(t, FilterProducts(catalogFixture(), "", "Electronics"))
	assert.Len(t, FilterProducts(catalogFixture(), "", "electronics"), 3)
}

func TestFiltered_Load(t *testing.T) {
	t.Parallel()

	f := NewFiltered(fakeLoader{
		products:   catalogFixture(),
		categories: []string{"electronics", "jewelery", "men's clothing"},
	}, nil)

	assert.Equal(t, []string{AllCategories}, f.Categories())
	assert.True(t, f.Empty())

	require.NoError(t, f.Load(context.Background()))
	assert.True(t, f.Loaded())
	assert.Equal(t, []string{AllCategories, "electronics", "jewelery", "men's clothing"}, f.Categories())
	assert.Equal(t, catalogFixture(), f.Visible())

	require.NoError(t, f.SetCategory("electronics"))
	f.SetSearch("phone")
	assert.Len(t, f.Visible(), 3)

	f.SetSearch("charger")
	require.Len(t, f.Visible(), 1)
	assert.Equal(t, 3, f.Visible()[0].ID)

	f.SetSearch("nothing like this")
	assert.True(t, f.Empty())

	// The stored collection is untouched by filtering.
	assert.Len(t, f.All(), 5)
}

func TestFiltered_LoadPartialFailure(t *testing.T) {
	t.Parallel()

	catErr := errors.New("categories down")
	f := NewFiltered(fakeLoader{
		products:      catalogFixture(),
		categoriesErr: catErr,
	}, nil)

	err := f.Load(context.Background())
	require.ErrorIs(t, err, catErr)
	assert.Len(t, f.All(), 5)
	assert.Equal(t, []string{AllCategories}, f.Categories())
	assert.ErrorIs(t, f.Err(), catErr)

	prodErr := errors.New("products down")
	f = NewFiltered(fakeLoader{
		productsErr: prodErr,
		categories:  []string{"electronics"},
	}, nil)

	err = f.Load(context.Background())
	require.ErrorIs(t, err, prodErr)
	assert.Empty(t, f.All())
	assert.Equal(t, []string{AllCategories, "electronics"}, f.Categories())
}

func TestFiltered_SetCategoryUnknown(t *testing.T) {
	t.Parallel()

	f := NewFiltered(fakeLoader{categories: []string{"electronics"}}, nil)
	require.NoError(t, f.Load(context.Background()))

	err := f.SetCategory("garden")
	require.ErrorIs(t, err, ErrUnknownCategory)
	assert.Equal(t, AllCategories, f.Category())

	require.NoError(t, f.SetCategory(""))
	assert.Equal(t, AllCategories, f.Category())
}

func TestFiltered_Select(t *testing.T) {
	t.Parallel()

	f := NewFiltered(fakeLoader{products: catalogFixture(), categories: []string{"electronics", "jewelery"}}, nil)
	require.NoError(t, f.Load(context.Background()))

	sel, err := f.Select("PHONE", "electronics")
	require.NoError(t, err)
	assert.Equal(t, "PHONE", sel.Search)
	assert.Equal(t, "electronics", sel.Category)
	assert.Len(t, sel.Visible, 3)
	assert.Equal(t, sel.Visible, f.Visible())

	// An unknown category leaves both inputs as they were.
	_, err = f.Select("ring", "garden")
	require.ErrorIs(t, err, ErrUnknownCategory)
	assert.Equal(t, "PHONE", f.Search())
	assert.Equal(t, "electronics", f.Category())

	sel, err = f.Select("", "")
	require.NoError(t, err)
	assert.Equal(t, AllCategories, sel.Category)
	assert.Len(t, sel.Visible, 5)
}

func TestFiltered_Featured(t *testing.T) {
	t.Parallel()

	f := NewFiltered(fakeLoader{products: catalogFixture()}, nil)
	assert.Empty(t, f.Featured(4))

	require.NoError(t, f.Load(context.Background()))
	featured := f.Featured(4)
	require.Len(t, featured, 4)
	assert.Equal(t, 1, featured[0].ID)
	assert.Len(t, f.Featured(10), 5)
}

func TestFiltered_Product(t *testing.T) {
	t.Parallel()

	f := NewFiltered(fakeLoader{products: catalogFixture()}, nil)

	p, err := f.Product(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, "Gold Ring", p.Title)

	_, err = f.Product(context.Background(), 99)
	assert.Error(t, err)
}
