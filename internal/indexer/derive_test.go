package indexer

import (
	"testing"
	"time"

	"github.com/hyperjump/annai/internal/models"
)

func TestDeriveProduct(t *testing.T) {
	p := &models.Product{
		ID: "p1", Name: "Wool Coat", Description: "Warm winter coat",
		Category: "outerwear", Brand: "Aster", Material: "wool",
		Price: 240, Gender: "women", Tags: []string{"winter", "classic"},
		Sizes: []string{"S", "M"}, IsPublished: true,
	}
	d := deriveProduct(p)

	want := "Wool Coat Warm winter coat outerwear Aster wool winter classic"
	if d.Text != want {
		t.Errorf("text = %q, want %q", d.Text, want)
	}
	if d.Metadata["type"] != "product" || d.Metadata["id"] != "p1" {
		t.Errorf("metadata = %+v", d.Metadata)
	}
	if d.Metadata["content"] != d.Text {
		t.Error("metadata content must carry the embedded text")
	}
	if d.Metadata["price"] != 240.0 {
		t.Errorf("price = %v", d.Metadata["price"])
	}
	if d.empty() {
		t.Error("well-formed product must not be empty")
	}
}

func TestDeriveOrder(t *testing.T) {
	o := &models.Order{
		ID: "o1", OrderNumber: "ORD-1001", Status: "shipped",
		ShippingAddress: "12 Harbor St", TotalPrice: 320, UserID: "u1",
		Items: []models.OrderItem{
			{Name: "Wool Coat", Size: "M", Color: "navy"},
			{Name: "Linen Shirt", Size: "S", Color: "white"},
		},
		CreatedAt: time.Now(),
	}
	d := deriveOrder(o)

	want := "Order ORD-1001 shipped 12 Harbor St Wool Coat M navy Linen Shirt S white"
	if d.Text != want {
		t.Errorf("text = %q, want %q", d.Text, want)
	}
	if d.Metadata["order_number"] != "ORD-1001" || d.Metadata["items_count"] != 2 {
		t.Errorf("metadata = %+v", d.Metadata)
	}
}

func TestDeriveUser(t *testing.T) {
	u := &models.User{ID: "u1", Name: "Mika", Email: "mika@example.com", Role: "admin"}
	d := deriveUser(u)

	if d.Text != "Mika mika@example.com admin" {
		t.Errorf("text = %q", d.Text)
	}
	if d.Metadata["is_admin"] != true {
		t.Error("admin role must set is_admin")
	}

	d = deriveUser(&models.User{ID: "u2", Name: "Rin", Role: "user"})
	if d.Metadata["is_admin"] != false {
		t.Error("non-admin role must not set is_admin")
	}
}

func TestDerivedEmpty(t *testing.T) {
	tests := []struct {
		name string
		d    derived
		want bool
	}{
		{"no id", derived{ID: "", Text: "something"}, true},
		{"blank text", derived{ID: "x", Text: "   "}, true},
		{"order prefix only", deriveOrder(&models.Order{ID: "o1"}), true},
		{"ok", derived{ID: "x", Text: "content"}, false},
	}
	for _, tt := range tests {
		if got := tt.d.empty(); got != tt.want {
			t.Errorf("%s: empty() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestKeywordDoc(t *testing.T) {
	orderDoc := deriveOrder(&models.Order{ID: "o1", OrderNumber: "ORD-1001", Status: "shipped"})
	id, doc := orderDoc.keywordDoc()
	if id != "order_o1" {
		t.Errorf("id = %q", id)
	}
	if doc.Term != "ORD-1001" {
		t.Errorf("term = %q, want order number", doc.Term)
	}

	userDoc := deriveUser(&models.User{ID: "u1", Name: "Mika", Email: "mika@example.com"})
	id, doc = userDoc.keywordDoc()
	if id != "user_u1" || doc.Term != "mika@example.com" {
		t.Errorf("id = %q, term = %q", id, doc.Term)
	}

	productDoc := deriveProduct(&models.Product{ID: "p1", Name: "Wool Coat"})
	id, doc = productDoc.keywordDoc()
	if id != "product_p1" || doc.Term != "p1" || doc.Name != "Wool Coat" {
		t.Errorf("id = %q, term = %q, name = %q", id, doc.Term, doc.Name)
	}
}
