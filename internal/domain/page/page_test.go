package page

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuery_Normalize(t *testing.T) {
	q := Query{Search: "acme"}.Normalize()
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, DefaultLimit, q.Limit)
	assert.Equal(t, "acme", q.Search)

	q = Query{Page: 3, Limit: 50}.Normalize()
	assert.Equal(t, 3, q.Page)
	assert.Equal(t, 50, q.Limit)
}

func TestResult_HasNext(t *testing.T) {
	r := Result[int]{Pagination: Pagination{Page: 1, TotalPages: 2}}
	assert.True(t, r.HasNext())
	r.Pagination.Page = 2
	assert.False(t, r.HasNext())
}
