package handlers

import (
	"encoding/json"

	"storefront/internal/models"
	"storefront/internal/services"

	"github.com/shopspring/decimal"
)

// Prices go over the wire as JSON numbers with two decimals.
func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

type productView struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Price       json.Number `json:"price"`
	ImageURL    string      `json:"image_url"`
	InCart      bool        `json:"in_cart"`
}

func toProductViews(products []models.Product, cart *services.CartStore) []productView {
	views := make([]productView, 0, len(products))
	for _, p := range products {
		views = append(views, productView{
			ID:          p.ID,
			Title:       p.Title,
			Description: p.Description,
			Price:       money(p.Price),
			ImageURL:    p.ImageURL,
			InCart:      cart != nil && cart.Contains(p.ID),
		})
	}
	return views
}

type lineItemView struct {
	EntryID   string      `json:"entry_id"`
	ProductID string      `json:"product_id"`
	Title     string      `json:"title"`
	UnitPrice json.Number `json:"unit_price"`
	Quantity  int         `json:"quantity"`
}

func toLineItemView(item models.CartLineItem) lineItemView {
	return lineItemView{
		EntryID:   item.EntryID,
		ProductID: item.ProductID,
		Title:     item.Title,
		UnitPrice: money(item.UnitPrice),
		Quantity:  item.Quantity,
	}
}

type cartView struct {
	Items    []lineItemView         `json:"items"`
	Count    int                    `json:"count"`
	Total    json.Number            `json:"total"`
	Checkout models.CheckoutSession `json:"checkout"`
}

func toCartView(session *services.ShopSession) cartView {
	items, total := session.Cart.Summary()
	views := make([]lineItemView, 0, len(items))
	for _, item := range items {
		views = append(views, toLineItemView(item))
	}
	return cartView{
		Items:    views,
		Count:    len(views),
		Total:    money(total),
		Checkout: session.Checkout.State(),
	}
}
