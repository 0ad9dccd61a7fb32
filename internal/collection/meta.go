package collection

import "fmt"

// Meta is the pagination metadata shared by both controller modes.
type Meta struct {
	Page      int `json:"page"`
	PageSize  int `json:"page_size"`
	Total     int `json:"total"`
	PageCount int `json:"page_count"`
	First     int `json:"first"`
	Last      int `json:"last"`
}

// PageButton is one numbered pagination control.
type PageButton struct {
	Number  int  `json:"number"`
	Current bool `json:"current"`
}

func NewMeta(page, pageSize, total int) Meta {
	if pageSize <= 0 {
		pageSize = 1
	}
	if page <= 0 {
		page = 1
	}
	if total < 0 {
		total = 0
	}

	last := page * pageSize
	if last > total {
		last = total
	}

	return Meta{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		PageCount: PageCount(total, pageSize),
		First:     (page-1)*pageSize + 1,
		Last:      last,
	}
}

// PageCount is ceil(total/pageSize), zero when the collection is empty.
func PageCount(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// ClampPage keeps page inside [1, max(pageCount, 1)].
func ClampPage(page, total, pageSize int) int {
	upper := PageCount(total, pageSize)
	if upper < 1 {
		upper = 1
	}
	switch {
	case page < 1:
		return 1
	case page > upper:
		return upper
	}
	return page
}

// Range renders the "first - last of total" indicator, e.g. "11 - 20 of 25".
func (m Meta) Range() string {
	return fmt.Sprintf("%d - %d of %d", m.First, m.Last, m.Total)
}

func (m Meta) Label() string {
	return "Showing " + m.Range()
}

func (m Meta) Buttons() []PageButton {
	buttons := make([]PageButton, 0, m.PageCount)
	for n := 1; n <= m.PageCount; n++ {
		buttons = append(buttons, PageButton{Number: n, Current: n == m.Page})
	}
	return buttons
}

func (m Meta) HasPrev() bool { return m.Page > 1 }

func (m Meta) HasNext() bool { return m.Page < m.PageCount }
