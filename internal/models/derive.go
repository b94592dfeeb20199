package models

import "strings"

// IndexText returns the text representation embedded for this product.
func (p *Product) IndexText() string {
	return joinFields(p.Name, p.Description, p.Category, p.Brand, p.Material,
		strings.Join(p.Tags, " "))
}

// IndexMetadata returns the metadata stored alongside this product's vector.
// The embedded text rides along under "content".
func (p *Product) IndexMetadata() Metadata {
	return Metadata{
		"type":         SourceProducts.Singular(),
		"id":           p.ID,
		"name":         p.Name,
		"category":     p.Category,
		"brand":        p.Brand,
		"price":        p.Price,
		"gender":       p.Gender,
		"collections":  p.Collections,
		"sizes":        p.Sizes,
		"colors":       p.Colors,
		"is_featured":  p.IsFeatured,
		"is_published": p.IsPublished,
		"content":      p.IndexText(),
	}
}

// IndexText returns the text representation embedded for this order:
// the order number, status, shipping address, and item names with size
// and color.
func (o *Order) IndexText() string {
	itemParts := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		itemParts = append(itemParts, joinFields(item.Name, item.Size, item.Color))
	}
	return joinFields("Order", o.OrderNumber, o.Status, o.ShippingAddress,
		strings.Join(itemParts, " "))
}

// IndexMetadata returns the metadata stored alongside this order's vector.
func (o *Order) IndexMetadata() Metadata {
	return Metadata{
		"type":         SourceOrders.Singular(),
		"id":           o.ID,
		"order_number": o.OrderNumber,
		"status":       o.Status,
		"total_price":  o.TotalPrice,
		"user_id":      o.UserID,
		"items_count":  len(o.Items),
		"created_at":   o.CreatedAt,
		"content":      o.IndexText(),
	}
}

// IndexText returns the text representation embedded for this user.
func (u *User) IndexText() string {
	return joinFields(u.Name, u.Email, u.Role)
}

// IndexMetadata returns the metadata stored alongside this user's vector.
func (u *User) IndexMetadata() Metadata {
	return Metadata{
		"type":     SourceUsers.Singular(),
		"id":       u.ID,
		"name":     u.Name,
		"email":    u.Email,
		"role":     u.Role,
		"is_admin": u.Role == "admin",
		"content":  u.IndexText(),
	}
}

// joinFields concatenates non-empty fields with single spaces.
func joinFields(fields ...string) string {
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f != "" {
			parts = append(parts, f)
		}
	}
	return strings.Join(parts, " ")
}
