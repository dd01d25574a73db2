package dialog

import (
	"fmt"
	"strings"

	"github.com/habotlola-gif/poizon-bot/internal/extract"
	"github.com/habotlola-gif/poizon-bot/internal/models"
)

func greeting(username string) string {
	if username != "" {
		return fmt.Sprintf("👋 Welcome, @%s!\n\nPick an option:", username)
	}
	return "👋 Welcome!\n\nPick an option:"
}

func mainMenu() [][]Button {
	return [][]Button{
		{{Label: "📦 Order from catalog", Action: "catalog"}},
		{{Label: "🔗 Order by link", Action: "order_link"}},
		{{Label: "💬 Support", Action: "support"}},
	}
}

func adminMenu() [][]Button {
	return [][]Button{
		{{Label: "➕ Add product", Action: "admin_add"}},
		{{Label: "📋 Products", Action: "admin_products"}},
		{{Label: "📦 Orders", Action: "admin_orders"}},
		{{Label: "◀️ Back", Action: "main_menu"}},
	}
}

func cancelMenu() [][]Button {
	return [][]Button{{{Label: "❌ Cancel", Action: "cancel"}}}
}

func backMenu() [][]Button {
	return [][]Button{{{Label: "◀️ Back", Action: "main_menu"}}}
}

func renderPrice(price string) string {
	if price == models.PriceOnRequest {
		return "DM for price"
	}
	return price + " ₽"
}

func formatCatalog(products []models.Product) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📦 CATALOG (%d)\n\n", len(products)))
	for i, p := range products {
		sb.WriteString(fmt.Sprintf("%d. %s — %s\n", i+1, p.Name, renderPrice(p.Price)))
	}
	sb.WriteString("\nTap an item for details.")
	return sb.String()
}

func formatProductCard(p *models.Product) string {
	var sb strings.Builder
	sb.WriteString(p.Name + "\n\n")
	if p.Description != "" {
		sb.WriteString("📝 " + p.Description + "\n")
	}
	sb.WriteString("💰 " + renderPrice(p.Price))
	return sb.String()
}

func formatProductAdded(p *models.Product) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("✅ Product #%d added!\n\n", p.ID))
	sb.WriteString(p.Name + "\n")
	if p.Description != "" {
		sb.WriteString(p.Description + "\n")
	}
	sb.WriteString("Price: " + renderPrice(p.Price))
	return sb.String()
}

func formatAdminProducts(products []models.Product) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📋 PRODUCTS (%d)\n\n", len(products)))
	for i, p := range products {
		sb.WriteString(fmt.Sprintf("%d. %s — %s [%s]\n", i+1, p.Name, renderPrice(p.Price), p.Category))
	}
	sb.WriteString("\nTap an item to delete it.")
	return sb.String()
}

func formatAdminOrders(orders []models.Order, total int) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📦 ORDERS (%d total, last %d)\n\n", total, len(orders)))
	for _, o := range orders {
		sb.WriteString(fmt.Sprintf("━━━ #%d • %s • %s\n", o.ID, o.Username, o.Status))
		if o.Kind == models.OrderFromCatalog {
			sb.WriteString(fmt.Sprintf("%s (%s), size %s\n", o.Product, renderPrice(o.Price), o.Size))
		} else {
			sb.WriteString(fmt.Sprintf("link order, size %s\n%s\n", o.Size, o.Link))
		}
		if o.Comment != "" && o.Comment != "-" {
			sb.WriteString("💬 " + o.Comment + "\n")
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func formatOrderNotice(o models.Order) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🔔 NEW ORDER #%d\n\n", o.ID))
	sb.WriteString(fmt.Sprintf("From: %s (ID: %d)\n", o.Username, o.UserID))
	if o.Kind == models.OrderFromCatalog {
		sb.WriteString(fmt.Sprintf("Item: %s\nPrice: %s\n", o.Product, renderPrice(o.Price)))
	} else {
		sb.WriteString(fmt.Sprintf("Link: %s\n", o.Link))
	}
	sb.WriteString(fmt.Sprintf("Size: %s\n", o.Size))
	if o.Comment != "" && o.Comment != "-" {
		sb.WriteString(fmt.Sprintf("Comment: %s\n", o.Comment))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func categoryFor(name string) models.Category {
	return extract.Classify(name)
}
