package checkout

import (
	"fmt"

	pkgerrors "github.com/flashmarket/storefront/pkg/errors"
	"github.com/flashmarket/storefront/pkg/types"
)

// StockValidationInput describes one line checked against remaining stock.
type StockValidationInput struct {
	ProductID   types.ID
	ProductName string
	Remaining   int
	Quantity    int
}

// StockViolationDetail is returned to callers when a line exceeds stock.
type StockViolationDetail struct {
	ProductID    types.ID `json:"productId"`
	ProductName  string   `json:"productName,omitempty"`
	Remaining    int      `json:"remaining"`
	RequestedQty int      `json:"requestedQty"`
}

// ValidateStock ensures every line asks for at least one unit and no more
// than the product has left.
func ValidateStock(items []StockValidationInput) error {
	var violations []StockViolationDetail
	for _, item := range items {
		if item.Quantity >= 1 && item.Quantity <= item.Remaining {
			continue
		}
		violations = append(violations, StockViolationDetail{
			ProductID:    item.ProductID,
			ProductName:  item.ProductName,
			Remaining:    item.Remaining,
			RequestedQty: item.Quantity,
		})
	}
	if len(violations) == 0 {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("not enough stock for %d item(s)", len(violations))).WithDetails(map[string]any{
		"violations": violations,
	})
}
