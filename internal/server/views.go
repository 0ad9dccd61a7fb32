package server

import (
	"catalog-api/internal/collection"
	"catalog-api/internal/models"
	"catalog-api/pkg/utils"
)

const (
	featuredCount  = 4
	excerptLength  = 120
	dateLayout     = "2 January 2006"
	welcomeMessage = "Welcome! Browse the latest ideas and our featured products."
)

type ArticleView struct {
	ID        int    `json:"id"`
	Title     string `json:"title"`
	Excerpt   string `json:"excerpt,omitempty"`
	Date      string `json:"date,omitempty"`
	Thumbnail string `json:"thumbnail,omitempty"`
}

type ArticlesView struct {
	Items     []ArticleView           `json:"items"`
	Label     string                  `json:"label"`
	Page      int                     `json:"page"`
	PageSize  int                     `json:"page_size"`
	PageSizes []int                   `json:"page_sizes"`
	Sort      models.SortKey          `json:"sort"`
	Total     int                     `json:"total"`
	PageCount int                     `json:"page_count"`
	Buttons   []collection.PageButton `json:"buttons"`
	HasPrev   bool                    `json:"has_prev"`
	HasNext   bool                    `json:"has_next"`
	Loading   bool                    `json:"loading"`
	Error     string                  `json:"error,omitempty"`
	Retry     bool                    `json:"retry"`
}

type ProductsView struct {
	Items      []models.ProductView `json:"items"`
	Count      int                  `json:"count"`
	Search     string               `json:"search"`
	Category   string               `json:"category"`
	Categories []string             `json:"categories"`
	Empty      bool                 `json:"empty"`
	Error      string               `json:"error,omitempty"`
	Retry      bool                 `json:"retry"`
}

type HomeView struct {
	Welcome  bool                 `json:"welcome"`
	Message  string               `json:"message,omitempty"`
	Featured []models.ProductView `json:"featured"`
	Empty    bool                 `json:"empty"`
	Error    string               `json:"error,omitempty"`
	Retry    bool                 `json:"retry"`
}

func newArticlesView(s collection.State, sizes []int) ArticlesView {
	meta := s.Meta()

	items := make([]ArticleView, 0, len(s.Items))
	for _, a := range s.Items {
		v := ArticleView{
			ID:        a.ID,
			Title:     a.Title,
			Excerpt:   utils.Truncate(a.Content, excerptLength),
			Thumbnail: a.Thumbnail(),
		}
		if !a.PublishedAt.IsZero() {
			v.Date = a.PublishedAt.Format(dateLayout)
		}
		items = append(items, v)
	}

	v := ArticlesView{
		Items:     items,
		Label:     meta.Label(),
		Page:      meta.Page,
		PageSize:  meta.PageSize,
		PageSizes: sizes,
		Sort:      s.Query.Sort,
		Total:     meta.Total,
		PageCount: meta.PageCount,
		Buttons:   meta.Buttons(),
		HasPrev:   meta.HasPrev(),
		HasNext:   meta.HasNext(),
		Loading:   s.Loading,
	}
	if s.Err != nil {
		v.Error = s.Err.Error()
		v.Retry = true
	}
	return v
}

func productViews(products []models.Product) []models.ProductView {
	out := make([]models.ProductView, 0, len(products))
	for _, p := range products {
		out = append(out, models.ProductView{Product: p, PriceLabel: utils.FormatPrice(p.Price)})
	}
	return out
}

func newProductsView(f *collection.Filtered, sel collection.Selection) ProductsView {
	v := ProductsView{
		Items:      productViews(sel.Visible),
		Count:      len(sel.Visible),
		Search:     sel.Search,
		Category:   sel.Category,
		Categories: f.Categories(),
		Empty:      len(sel.Visible) == 0,
	}
	if err := f.Err(); err != nil {
		v.Error = err.Error()
		v.Retry = true
	}
	return v
}
