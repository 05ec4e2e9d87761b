package feedwise

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedwise/feedwise/pkg/types"
)

func TestAssignCodesFollowsSubmissionOrder(t *testing.T) {
	products := []types.Product{
		{ID: "p1", Name: "First"},
		{ID: "p2", Name: "Second"},
		{ID: "p3", Name: "Third"},
	}

	mapping := AssignCodes(products)
	require.Len(t, mapping, 3)
	assert.Equal(t, "A", mapping["p1"])
	assert.Equal(t, "B", mapping["p2"])
	assert.Equal(t, "C", mapping["p3"])
}

func TestCodeForIndex(t *testing.T) {
	tests := []struct {
		index int
		want  string
	}{
		{0, "A"},
		{25, "Z"},
		{26, "AA"},
		{27, "AB"},
		{51, "AZ"},
		{52, "BA"},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("index %d", tt.index), func(t *testing.T) {
			assert.Equal(t, tt.want, codeForIndex(tt.index))
		})
	}
}

func TestAssignCodesPastAlphabet(t *testing.T) {
	products := make([]types.Product, 30)
	for i := range products {
		products[i] = types.Product{ID: fmt.Sprintf("p%d", i), Name: fmt.Sprintf("Product %d", i)}
	}

	mapping := AssignCodes(products)
	require.Len(t, mapping, 30)
	assert.Equal(t, "Z", mapping["p25"])
	assert.Equal(t, "AA", mapping["p26"])
	assert.Equal(t, "AD", mapping["p29"])
}
