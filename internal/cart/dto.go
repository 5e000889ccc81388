package cart

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/cartsync-backend/pkg/catalog"
	"github.com/angelmondragon/cartsync-backend/pkg/db/models"
)

// LineDTO is one cart line. Name, Image and Price are the snapshot taken when
// the product was first added; Live carries the current catalog record when
// the caller asked for it.
type LineDTO struct {
	ProductID int              `json:"productId"`
	Quantity  int              `json:"quantity"`
	Name      string           `json:"name"`
	Image     string           `json:"image"`
	Price     decimal.Decimal  `json:"price"`
	LineTotal decimal.Decimal  `json:"lineTotal"`
	AddedAt   time.Time        `json:"addedAt"`
	Live      *catalog.Product `json:"live,omitempty"`
}

// CartDTO is the canonical cart returned by every mutation.
type CartDTO struct {
	Items     []LineDTO       `json:"items"`
	ItemCount int             `json:"itemCount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// Line returns the line for productID, if present.
func (c *CartDTO) Line(productID int) (LineDTO, bool) {
	if c == nil {
		return LineDTO{}, false
	}
	for _, line := range c.Items {
		if line.ProductID == productID {
			return line, true
		}
	}
	return LineDTO{}, false
}

func fromModels(rows []models.CartLine) *CartDTO {
	out := &CartDTO{Items: make([]LineDTO, 0, len(rows)), Subtotal: decimal.Zero}
	for _, row := range rows {
		lineTotal := row.ProductPrice.Mul(decimal.NewFromInt(int64(row.Quantity)))
		out.Items = append(out.Items, LineDTO{
			ProductID: row.ProductID,
			Quantity:  row.Quantity,
			Name:      row.ProductName,
			Image:     row.ProductImage,
			Price:     row.ProductPrice,
			LineTotal: lineTotal,
			AddedAt:   row.CreatedAt,
		})
		out.ItemCount += row.Quantity
		out.Subtotal = out.Subtotal.Add(lineTotal)
	}
	return out
}
