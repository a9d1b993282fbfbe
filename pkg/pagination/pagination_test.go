package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, Params{Page: 0, Size: DefaultSize}, Params{Page: -3}.Normalize())
	assert.Equal(t, Params{Page: 2, Size: MaxSize}, Params{Page: 2, Size: 500}.Normalize())
	assert.Equal(t, Params{Page: 1, Size: 5}, Params{Page: 1, Size: 5}.Normalize())
}

func TestWindow(t *testing.T) {
	start, end := Params{Page: 0, Size: 5}.Window(12)
	assert.Equal(t, 0, start)
	assert.Equal(t, 5, end)

	start, end = Params{Page: 2, Size: 5}.Window(12)
	assert.Equal(t, 10, start)
	assert.Equal(t, 12, end)

	start, end = Params{Page: 9, Size: 5}.Window(12)
	assert.Equal(t, 12, start)
	assert.Equal(t, 12, end)
}

func TestNewPage(t *testing.T) {
	page := NewPage([]int{1, 2}, Params{Page: 0, Size: 2})
	assert.True(t, page.HasNext)

	page = NewPage[int](nil, Params{Page: 1, Size: 2})
	assert.False(t, page.HasNext)
	assert.NotNil(t, page.Items)
	assert.Equal(t, 1, page.Page)
}
