package sources

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"catalog-api/internal/models"
)

// Related image variants requested with every article page.
var articleAppends = []string{"small_image", "medium_image"}

// ArticleSource reads the paginated, sortable article collection.
type ArticleSource struct {
	client *jsonClient
}

func NewArticleSource(baseURL string, opts Options) (*ArticleSource, error) {
	client, err := newJSONClient(baseURL, opts)
	if err != nil {
		return nil, err
	}
	return &ArticleSource{client: client}, nil
}

// URL builds the page request with literal brackets in the keys:
// ?page[number]=n&page[size]=s&append[]=small_image&append[]=medium_image&sort=-published_at
// Any query already on the base URL is kept in front.
func (s *ArticleSource) URL(q models.ArticleQuery) string {
	u := *s.client.base

	params := make([]string, 0, len(articleAppends)+4)
	if u.RawQuery != "" {
		params = append(params, u.RawQuery)
	}
	params = append(params,
		"page[number]="+strconv.Itoa(q.Page),
		"page[size]="+strconv.Itoa(q.PageSize),
	)
	for _, a := range articleAppends {
		params = append(params, "append[]="+url.QueryEscape(a))
	}
	params = append(params, "sort="+url.QueryEscape(q.Sort.Param()))

	u.RawQuery = strings.Join(params, "&")
	return u.String()
}

type articlesPayload struct {
	Data *[]models.Article `json:"data"`
	Meta *struct {
		Total *int `json:"total"`
	} `json:"meta"`
}

func (s *ArticleSource) FetchArticles(ctx context.Context, q models.ArticleQuery) (*models.ArticlePage, error) {
	var page models.ArticlePage

	err := s.client.get(ctx, s.URL(q), func(body []byte) error {
		var payload articlesPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			return err
		}
		switch {
		case payload.Data == nil:
			return errors.New("missing data")
		case payload.Meta == nil || payload.Meta.Total == nil:
			return errors.New("missing meta.total")
		case *payload.Meta.Total < 0:
			return errors.New("negative meta.total")
		}

		page.Articles = *payload.Data
		page.Total = *payload.Meta.Total
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.client.logger.Info("articles fetched",
		slog.String("query", q.String()),
		slog.Int("count", len(page.Articles)),
		slog.Int("total", page.Total),
	)
	return &page, nil
}
