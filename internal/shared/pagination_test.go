package shared

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePageRequestDefaultsAndClamps(t *testing.T) {
	req := ParsePageRequest(url.Values{})
	assert.Equal(t, 1, req.Page)
	assert.Equal(t, DefaultPerPage, req.PerPage)
	assert.Equal(t, 0, req.Offset())
	assert.Nil(t, req.IsActive)

	req = ParsePageRequest(url.Values{"page": {"3"}, "limit": {"500"}, "dir": {"DESC"}, "is_active": {"false"}, "search": {"  bolt "}})
	assert.Equal(t, 3, req.Page)
	assert.Equal(t, MaxPerPage, req.PerPage)
	assert.Equal(t, 200, req.Offset())
	assert.True(t, req.SortDesc)
	assert.Equal(t, "bolt", req.Search)
	require.NotNil(t, req.IsActive)
	assert.False(t, *req.IsActive)

	req = ParsePageRequest(url.Values{"page": {"-2"}, "limit": {"abc"}})
	assert.Equal(t, 1, req.Page)
	assert.Equal(t, DefaultPerPage, req.PerPage)
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(1, 20, 45)
	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasMore)

	p = NewPagination(3, 20, 45)
	assert.False(t, p.HasMore)

	p = NewPagination(0, 0, 0)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPerPage, p.PerPage)
	assert.Equal(t, 0, p.TotalPages)
	assert.False(t, p.HasMore)
}

func TestNewPageNeverReturnsNilData(t *testing.T) {
	page := NewPage[int](nil, PageRequest{Page: 1, PerPage: 10}, 0)
	assert.NotNil(t, page.Data)
	assert.Empty(t, page.Data)
}

func TestParseIdempotencyKey(t *testing.T) {
	key, err := ParseIdempotencyKey("")
	require.NoError(t, err)
	assert.Empty(t, key)

	key, err = ParseIdempotencyKey("6F9619FF-8B86-D011-B42D-00C04FC964FF")
	require.NoError(t, err)
	assert.Equal(t, "6f9619ff-8b86-d011-b42d-00c04fc964ff", key)

	_, err = ParseIdempotencyKey("not-a-uuid")
	assert.ErrorIs(t, err, ErrValidation)
}
