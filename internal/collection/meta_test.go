package collection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeta_Range(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		page, size, total int
		want              string
		buttons           int
	}{
		"middle page": {page: 2, size: 10, total: 25, want: "11 - 20 of 25", buttons: 3},
		"last page":   {page: 3, size: 10, total: 25, want: "21 - 25 of 25", buttons: 3},
		"empty":       {page: 1, size: 10, total: 0, want: "1 - 0 of 0", buttons: 0},
		"exact fit":   {page: 2, size: 5, total: 10, want: "6 - 10 of 10", buttons: 2},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			m := NewMeta(tc.page, tc.size, tc.total)
			assert.Equal(t, tc.want, m.Range())
			assert.Len(t, m.Buttons(), tc.buttons)
		})
	}
}

func TestMeta_EmptyLabel(t *testing.T) {
	t.Parallel()

	m := NewMeta(1, 10, 0)
	assert.Equal(t, "Showing 1 - 0 of 0", m.Label())
	assert.Zero(t, m.PageCount)
	assert.Empty(t, m.Buttons())
	assert.False(t, m.HasNext())
	assert.False(t, m.HasPrev())
}

func TestPageCount_Properties(t *testing.T) {
	t.Parallel()

	for total := 0; total <= 120; total++ {
		for _, size := range []int{1, 3, 10, 20, 50} {
			count := PageCount(total, size)

			want := total / size
			if total%size != 0 {
				want++
			}
			require.Equal(t, want, count, "total=%d size=%d", total, size)
			require.Equal(t, total == 0, count == 0, "total=%d size=%d", total, size)

			for page := 1; page <= count; page++ {
				m := NewMeta(page, size, total)
				if page == count {
					require.Equal(t, total, m.Last)
					continue
				}
				require.Equal(t, size, m.Last-m.First+1)
			}
		}
	}
}

func TestMeta_Buttons(t *testing.T) {
	t.Parallel()

	buttons := NewMeta(2, 10, 25).Buttons()
	assert.Equal(t, []PageButton{
		{Number: 1},
		{Number: 2, Current: true},
		{Number: 3},
	}, buttons)
}

func TestClampPage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, ClampPage(0, 25, 10))
	assert.Equal(t, 3, ClampPage(5, 25, 10))
	assert.Equal(t, 2, ClampPage(2, 25, 10))
	assert.Equal(t, 1, ClampPage(4, 0, 10))
	assert.Equal(t, 1, ClampPage(3, 25, 50))
}
