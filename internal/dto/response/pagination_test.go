package response

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaginatedResponse_EmptyPageEncodesList(t *testing.T) {
	page := NewPaginatedResponse[BookingResponse](nil, 1, 10, 0)

	raw, err := json.Marshal(page)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"data":[]`)
	assert.Equal(t, 0, page.Pagination.TotalPages)
}

func TestNewPaginatedResponse_TotalPages(t *testing.T) {
	page := NewPaginatedResponse([]BookingResponse{{ID: "a"}}, 3, 10, 21)
	assert.Equal(t, 3, page.Pagination.TotalPages)
	assert.Equal(t, int64(21), page.Pagination.Total)
}
