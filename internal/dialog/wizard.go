package dialog

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/habotlola-gif/poizon-bot/internal/models"
)

// handleMessage consumes one free-text (or photo) message according to
// the session's current state. Each state stores at most one field and
// advances at most one step; input that doesn't fit re-prompts without
// advancing.
func (e *Engine) handleMessage(sess *session, ev Event) []Reply {
	switch sess.state {
	case stateIdle:
		return []Reply{{ChatID: ev.ChatID, Text: "Pick an option below:", Menu: mainMenu()}}

	case stateAwaitLink:
		sess.link.Link = strings.TrimSpace(ev.Text)
		sess.state = stateAwaitLinkSize
		return []Reply{{ChatID: ev.ChatID, Text: "📏 What size do you need?", Menu: cancelMenu()}}

	case stateAwaitLinkSize:
		sess.link.Size = strings.TrimSpace(ev.Text)
		sess.state = stateAwaitLinkComment
		return []Reply{{ChatID: ev.ChatID, Text: "💬 Add a comment (or just a dash):", Menu: cancelMenu()}}

	case stateAwaitLinkComment:
		return e.finishLinkOrder(sess, ev)

	case stateAwaitCatalogSize:
		sess.catalog.Size = strings.TrimSpace(ev.Text)
		sess.state = stateAwaitCatalogComment
		return []Reply{{ChatID: ev.ChatID, Text: "💬 Add a comment (or just a dash):", Menu: cancelMenu()}}

	case stateAwaitCatalogComment:
		return e.finishCatalogOrder(sess, ev)

	case stateAwaitAdminPhoto:
		return e.adminPhotoStep(sess, ev)

	case stateAwaitAdminName:
		sess.product.Name = strings.TrimSpace(ev.Text)
		sess.state = stateAwaitAdminPrice
		return []Reply{{ChatID: ev.ChatID, Text: "💰 Price (number only):", Menu: cancelMenu()}}

	case stateAwaitAdminPrice:
		return e.adminPriceStep(sess, ev)

	case stateAwaitAdminSizes:
		return e.finishAddProduct(sess, ev)

	case stateAwaitSupport:
		return e.forwardSupport(sess, ev)

	default:
		return nil
	}
}

func (e *Engine) finishLinkOrder(sess *session, ev Event) []Reply {
	order := models.Order{
		UserID:   ev.UserID,
		Username: displayName(ev),
		Kind:     models.OrderFromLink,
		Link:     sess.link.Link,
		Size:     sess.link.Size,
		Comment:  strings.TrimSpace(ev.Text),
		Status:   models.StatusNew,
	}

	id, err := e.orders.Append(order)
	if err != nil {
		e.log.Error().Err(err).Int64("user_id", ev.UserID).Msg("failed to store link order")
		sess.reset()
		return []Reply{{ChatID: ev.ChatID, Text: "Something went wrong, the order was not saved. Please try again.", Menu: mainMenu()}}
	}
	order.ID = id
	sess.reset()

	return []Reply{
		{ChatID: ev.ChatID, Text: "✅ Your order is in! The admin will contact you shortly.", Menu: mainMenu()},
		{ChatID: e.adminID, Text: formatOrderNotice(order)},
	}
}

func (e *Engine) finishCatalogOrder(sess *session, ev Event) []Reply {
	p := sess.catalog.Product
	order := models.Order{
		UserID:    ev.UserID,
		Username:  displayName(ev),
		Kind:      models.OrderFromCatalog,
		ProductID: p.ID,
		Product:   p.Name,
		Price:     p.Price,
		Size:      sess.catalog.Size,
		Comment:   strings.TrimSpace(ev.Text),
		Status:    models.StatusNew,
	}

	id, err := e.orders.Append(order)
	if err != nil {
		e.log.Error().Err(err).Int64("user_id", ev.UserID).Msg("failed to store catalog order")
		sess.reset()
		return []Reply{{ChatID: ev.ChatID, Text: "Something went wrong, the order was not saved. Please try again.", Menu: mainMenu()}}
	}
	order.ID = id
	sess.reset()

	return []Reply{
		{ChatID: ev.ChatID, Text: fmt.Sprintf("✅ Your order for %s is in! The admin will contact you shortly.", p.Name), Menu: mainMenu()},
		{ChatID: e.adminID, Text: formatOrderNotice(order)},
	}
}

func (e *Engine) adminPhotoStep(sess *session, ev Event) []Reply {
	switch {
	case ev.PhotoID != "":
		sess.product.PhotoID = ev.PhotoID
	case isSkip(ev.Text):
		sess.product.PhotoID = ""
	default:
		return []Reply{{ChatID: ev.ChatID, Text: "📸 Send a photo, or type 'skip':", Menu: cancelMenu()}}
	}

	sess.state = stateAwaitAdminName
	return []Reply{{ChatID: ev.ChatID, Text: "📝 Product name:", Menu: cancelMenu()}}
}

func (e *Engine) adminPriceStep(sess *session, ev Event) []Reply {
	price := strings.TrimSpace(ev.Text)
	if _, err := strconv.ParseFloat(price, 64); err != nil {
		return []Reply{{ChatID: ev.ChatID, Text: "❌ That's not a number. Price (number only):", Menu: cancelMenu()}}
	}
	sess.product.Price = price
	sess.state = stateAwaitAdminSizes
	return []Reply{{ChatID: ev.ChatID, Text: "📐 Available sizes / description:", Menu: cancelMenu()}}
}

func (e *Engine) finishAddProduct(sess *session, ev Event) []Reply {
	product := models.Product{
		Name:        sess.product.Name,
		Description: strings.TrimSpace(ev.Text),
		Price:       sess.product.Price,
		PhotoID:     sess.product.PhotoID,
		Category:    categoryFor(sess.product.Name),
	}

	id, err := e.catalog.Insert(product)
	if err != nil {
		e.log.Error().Err(err).Msg("failed to insert product")
		sess.reset()
		return []Reply{{ChatID: ev.ChatID, Text: "Could not save the product.", Menu: adminMenu()}}
	}
	product.ID = id
	sess.reset()

	return []Reply{{ChatID: ev.ChatID, Text: formatProductAdded(&product), Menu: adminMenu()}}
}

func (e *Engine) forwardSupport(sess *session, ev Event) []Reply {
	sess.reset()
	return []Reply{
		{ChatID: ev.ChatID, Text: "✅ Sent. The admin will get back to you.", Menu: mainMenu()},
		{ChatID: e.adminID, Text: fmt.Sprintf("💬 Support from %s (ID: %d):\n\n%s", displayName(ev), ev.UserID, ev.Text)},
	}
}

func isSkip(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	return t == "skip" || t == "пропустить" || t == "-"
}

func displayName(ev Event) string {
	if ev.Username != "" {
		return "@" + ev.Username
	}
	return fmt.Sprintf("id%d", ev.UserID)
}
