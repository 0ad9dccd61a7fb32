package tui

import (
	"context"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"catalog-api/internal/collection"
	"catalog-api/internal/models"
)

type instantFetcher struct {
	total int
}

func (f instantFetcher) FetchArticles(_ context.Context, q models.ArticleQuery) (*models.ArticlePage, error) {
	page := &models.ArticlePage{Total: f.total}
	for i := (q.Page-1)*q.PageSize + 1; i <= min(q.Page*q.PageSize, f.total); i++ {
		page.Articles = append(page.Articles, models.Article{ID: i, Title: fmt.Sprintf("Idea %d", i)})
	}
	return page, nil
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func settle(t *testing.T, ctrl *collection.Paginated) StateMsg {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	s, err := ctrl.Wait(ctx)
	require.NoError(t, err)
	return StateMsg(s)
}

func newLoadedModel(t *testing.T, total int) (Model, *collection.Paginated) {
	t.Helper()

	ctrl := collection.NewPaginated(instantFetcher{total: total}, collection.PaginatedOptions{})
	t.Cleanup(ctrl.Close)

	m := New(ctrl)
	ctrl.Start()

	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 8})
	next, _ = next.Update(settle(t, ctrl))
	return next.(Model), ctrl
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	var next tea.Model = m
	for _, k := range keys {
		next, _ = next.Update(runes(k))
	}
	return next.(Model)
}

func TestModel_RendersLoadedPage(t *testing.T) {
	t.Parallel()

	m, _ := newLoadedModel(t, 25)
	view := m.View()

	assert.Contains(t, view, "Showing 1 - 10 of 25")
	assert.Contains(t, view, "Newest")
	assert.Contains(t, view, "Idea 1")
	assert.Contains(t, view, "[1]")
}

func TestModel_EmptyCollection(t *testing.T) {
	t.Parallel()

	m, _ := newLoadedModel(t, 0)
	view := m.View()

	assert.Contains(t, view, "Showing 1 - 0 of 0")
	assert.Contains(t, view, "No ideas to show.")
	assert.NotContains(t, view, "[1]")
}

func TestModel_DropsStaleSnapshots(t *testing.T) {
	t.Parallel()

	m, _ := newLoadedModel(t, 25)
	current := m.state

	stale := current
	stale.Version--
	stale.Total = 99

	next, _ := m.Update(StateMsg(stale))
	assert.Equal(t, 25, next.(Model).state.Total)
}

func TestModel_PagingKeys(t *testing.T) {
	t.Parallel()

	m, ctrl := newLoadedModel(t, 25)

	// Already on the first page.
	m = press(t, m, "p")
	assert.Equal(t, 1, ctrl.Query().Page)

	m = press(t, m, "n")
	assert.Equal(t, 2, ctrl.Query().Page)

	next, _ := m.Update(settle(t, ctrl))
	m = next.(Model)
	assert.Contains(t, m.View(), "Showing 11 - 20 of 25")

	m = press(t, m, "s")
	assert.Equal(t, models.SortAscending, ctrl.Query().Sort)

	m = press(t, m, "z")
	assert.Equal(t, 20, ctrl.Query().PageSize)

	next, _ = m.Update(settle(t, ctrl))
	m = next.(Model)
	assert.Contains(t, m.View(), "Oldest")
	assert.Contains(t, m.View(), "20 per page")

	press(t, m, "r")
	assert.Equal(t, 2, ctrl.Query().Page)
}

func TestModel_HeaderFollowsScrollDirection(t *testing.T) {
	t.Parallel()

	m, _ := newLoadedModel(t, 25)
	require.True(t, m.header.Visible())

	m = press(t, m, "j")
	assert.Equal(t, 1, m.vp.YOffset)
	assert.False(t, m.header.Visible())
	assert.NotContains(t, m.View(), "Showing")

	m = press(t, m, "j")
	assert.False(t, m.header.Visible())

	m = press(t, m, "k")
	assert.True(t, m.header.Visible())
	assert.Contains(t, m.View(), "Showing")
}

func TestModel_Quit(t *testing.T) {
	t.Parallel()

	m, _ := newLoadedModel(t, 25)
	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Zero(t, m.window.Listeners())
}
