package feedwise

import (
	"github.com/feedwise/feedwise/pkg/types"
)

// AssignCodes maps each product id to a display code based purely on
// submission order: A..Z for the first 26 products, then two-letter codes
// (AA, AB, ...). Codes are assigned once per run and never depend on scores,
// so a result page can show products blind until the caller reveals one.
//
// The two-letter arithmetic is kept exactly as downstream displays expect
// it, including its irregular step at index 26; do not regularize it to a
// clean base-26 sequence.
func AssignCodes(products []types.Product) map[string]string {
	mapping := make(map[string]string, len(products))
	for i, product := range products {
		mapping[product.ID] = codeForIndex(i)
	}
	return mapping
}

func codeForIndex(i int) string {
	if i < 26 {
		return string(rune('A' + i))
	}
	first := rune('A' + i/26 - 1)
	second := rune('A' + i%26)
	return string(first) + string(second)
}
