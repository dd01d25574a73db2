// Package dialog implements the per-user conversation state machine.
// It is transport-agnostic: the Telegram layer feeds it Events and
// renders the Replies it returns.
package dialog

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/habotlola-gif/poizon-bot/internal/models"
)

// Event is one inbound user interaction: a button press (Action set) or
// a plain message (Text and/or PhotoID set).
type Event struct {
	UserID   int64
	ChatID   int64
	Username string
	Text     string
	PhotoID  string
	Action   string
}

// Button is one labeled action in a reply menu.
type Button struct {
	Label  string
	Action string
}

// Reply is one outbound message, targeted at Reply.ChatID.
type Reply struct {
	ChatID  int64
	Text    string
	PhotoID string
	Menu    [][]Button
}

// Catalog is the slice of the catalog store the engine needs.
type Catalog interface {
	Insert(models.Product) (int64, error)
	List() ([]models.Product, error)
	Find(id int64) (*models.Product, error)
	Delete(id int64) error
}

// Orders is the slice of the order store the engine needs.
type Orders interface {
	Append(models.Order) (int64, error)
	ListRecent(n int) ([]models.Order, error)
	Count(status models.OrderStatus) (int, error)
}

type state int

const (
	stateIdle state = iota

	// order-by-link wizard
	stateAwaitLink
	stateAwaitLinkSize
	stateAwaitLinkComment

	// order-from-catalog wizard
	stateAwaitCatalogSize
	stateAwaitCatalogComment

	// admin add-product wizard
	stateAwaitAdminPhoto
	stateAwaitAdminName
	stateAwaitAdminPrice
	stateAwaitAdminSizes

	stateAwaitSupport
)

type linkDraft struct {
	Link string
	Size string
}

type catalogDraft struct {
	Product models.Product
	Size    string
}

type productDraft struct {
	PhotoID string
	Name    string
	Price   string
}

// session holds one user's wizard progress. Exactly one draft is non-nil
// outside stateIdle; each draft carries only the fields collected so far.
type session struct {
	state   state
	link    *linkDraft
	catalog *catalogDraft
	product *productDraft
}

type Engine struct {
	mu       sync.Mutex
	sessions map[int64]*session
	catalog  Catalog
	orders   Orders
	adminID  int64
	log      zerolog.Logger
}

func NewEngine(catalog Catalog, orders Orders, adminID int64, log zerolog.Logger) *Engine {
	return &Engine{
		sessions: make(map[int64]*session),
		catalog:  catalog,
		orders:   orders,
		adminID:  adminID,
		log:      log.With().Str("component", "dialog").Logger(),
	}
}

// Handle processes one event and returns the messages to send. Replies
// may target the admin chat (order notifications, support forwards).
func (e *Engine) Handle(ev Event) []Reply {
	e.mu.Lock()
	defer e.mu.Unlock()

	if ev.ChatID == 0 {
		ev.ChatID = ev.UserID
	}

	sess, ok := e.sessions[ev.UserID]
	if !ok {
		sess = &session{}
		e.sessions[ev.UserID] = sess
	}

	if ev.Action != "" {
		return e.handleAction(sess, ev)
	}
	return e.handleMessage(sess, ev)
}

func (e *Engine) isAdmin(userID int64) bool {
	return userID == e.adminID
}

func (sess *session) reset() {
	sess.state = stateIdle
	sess.link = nil
	sess.catalog = nil
	sess.product = nil
}

func (e *Engine) handleAction(sess *session, ev Event) []Reply {
	switch {
	case ev.Action == "start":
		sess.reset()
		return []Reply{{ChatID: ev.ChatID, Text: greeting(ev.Username), Menu: mainMenu()}}

	case ev.Action == "main_menu" || ev.Action == "cancel":
		sess.reset()
		return []Reply{{ChatID: ev.ChatID, Text: "Main menu:", Menu: mainMenu()}}

	case ev.Action == "catalog":
		return e.showCatalog(ev)

	case strings.HasPrefix(ev.Action, "product_"):
		return e.showProduct(ev)

	case strings.HasPrefix(ev.Action, "buy_"):
		return e.startCatalogOrder(sess, ev)

	case ev.Action == "order_link":
		sess.reset()
		sess.state = stateAwaitLink
		sess.link = &linkDraft{}
		return []Reply{{ChatID: ev.ChatID, Text: "🔗 Send the product link:", Menu: cancelMenu()}}

	case ev.Action == "support":
		sess.reset()
		sess.state = stateAwaitSupport
		return []Reply{{ChatID: ev.ChatID, Text: "💬 Describe your problem in one message:", Menu: cancelMenu()}}

	case ev.Action == "admin":
		if !e.isAdmin(ev.UserID) {
			e.log.Warn().Int64("user_id", ev.UserID).Str("action", ev.Action).Msg("admin action from non-admin dropped")
			return nil
		}
		sess.reset()
		return []Reply{{ChatID: ev.ChatID, Text: "🔐 Admin panel:", Menu: adminMenu()}}

	case ev.Action == "admin_add":
		if !e.isAdmin(ev.UserID) {
			e.log.Warn().Int64("user_id", ev.UserID).Str("action", ev.Action).Msg("admin action from non-admin dropped")
			return nil
		}
		sess.reset()
		sess.state = stateAwaitAdminPhoto
		sess.product = &productDraft{}
		return []Reply{{ChatID: ev.ChatID, Text: "📸 Send a product photo, or type 'skip':", Menu: cancelMenu()}}

	case ev.Action == "admin_products":
		if !e.isAdmin(ev.UserID) {
			e.log.Warn().Int64("user_id", ev.UserID).Str("action", ev.Action).Msg("admin action from non-admin dropped")
			return nil
		}
		return e.showAdminProducts(ev)

	case strings.HasPrefix(ev.Action, "del_"):
		if !e.isAdmin(ev.UserID) {
			e.log.Warn().Int64("user_id", ev.UserID).Str("action", ev.Action).Msg("admin action from non-admin dropped")
			return nil
		}
		return e.deleteProduct(ev)

	case ev.Action == "admin_orders":
		if !e.isAdmin(ev.UserID) {
			e.log.Warn().Int64("user_id", ev.UserID).Str("action", ev.Action).Msg("admin action from non-admin dropped")
			return nil
		}
		return e.showAdminOrders(ev)

	default:
		e.log.Debug().Str("action", ev.Action).Msg("unknown action ignored")
		return nil
	}
}

func (e *Engine) showCatalog(ev Event) []Reply {
	products, err := e.catalog.List()
	if err != nil {
		e.log.Error().Err(err).Msg("failed to list catalog")
		return []Reply{{ChatID: ev.ChatID, Text: "Could not load the catalog, try again later.", Menu: backMenu()}}
	}
	if len(products) == 0 {
		return []Reply{{ChatID: ev.ChatID, Text: "📦 The catalog is empty for now.", Menu: backMenu()}}
	}

	menu := make([][]Button, 0, len(products)+1)
	for _, p := range products {
		menu = append(menu, []Button{{Label: p.Name, Action: fmt.Sprintf("product_%d", p.ID)}})
	}
	menu = append(menu, []Button{{Label: "◀️ Back", Action: "main_menu"}})

	return []Reply{{ChatID: ev.ChatID, Text: formatCatalog(products), Menu: menu}}
}

func (e *Engine) showProduct(ev Event) []Reply {
	id, err := strconv.ParseInt(strings.TrimPrefix(ev.Action, "product_"), 10, 64)
	if err != nil {
		return nil
	}

	p, err := e.catalog.Find(id)
	if err != nil {
		return []Reply{{ChatID: ev.ChatID, Text: "That item is no longer available.", Menu: backMenu()}}
	}

	menu := [][]Button{
		{{Label: "✅ Order", Action: fmt.Sprintf("buy_%d", p.ID)}},
		{{Label: "◀️ Back to catalog", Action: "catalog"}},
	}
	return []Reply{{ChatID: ev.ChatID, Text: formatProductCard(p), PhotoID: p.PhotoID, Menu: menu}}
}

func (e *Engine) startCatalogOrder(sess *session, ev Event) []Reply {
	id, err := strconv.ParseInt(strings.TrimPrefix(ev.Action, "buy_"), 10, 64)
	if err != nil {
		return nil
	}

	p, err := e.catalog.Find(id)
	if err != nil {
		return []Reply{{ChatID: ev.ChatID, Text: "That item is no longer available.", Menu: backMenu()}}
	}

	sess.reset()
	sess.state = stateAwaitCatalogSize
	sess.catalog = &catalogDraft{Product: *p}
	return []Reply{{
		ChatID: ev.ChatID,
		Text:   fmt.Sprintf("📏 Ordering %s. What size do you need?", p.Name),
		Menu:   cancelMenu(),
	}}
}

func (e *Engine) deleteProduct(ev Event) []Reply {
	id, err := strconv.ParseInt(strings.TrimPrefix(ev.Action, "del_"), 10, 64)
	if err != nil {
		return nil
	}
	if err := e.catalog.Delete(id); err != nil {
		e.log.Error().Err(err).Int64("product_id", id).Msg("failed to delete product")
		return []Reply{{ChatID: ev.ChatID, Text: "Could not delete the item.", Menu: adminMenu()}}
	}
	return []Reply{{ChatID: ev.ChatID, Text: fmt.Sprintf("🗑 Item #%d deleted.", id), Menu: adminMenu()}}
}

func (e *Engine) showAdminProducts(ev Event) []Reply {
	products, err := e.catalog.List()
	if err != nil {
		e.log.Error().Err(err).Msg("failed to list catalog")
		return []Reply{{ChatID: ev.ChatID, Text: "Could not load the product list.", Menu: adminMenu()}}
	}
	if len(products) == 0 {
		return []Reply{{ChatID: ev.ChatID, Text: "📦 No products yet.", Menu: adminMenu()}}
	}

	menu := make([][]Button, 0, len(products)+1)
	for _, p := range products {
		menu = append(menu, []Button{{
			Label:  fmt.Sprintf("🗑 %s", p.Name),
			Action: fmt.Sprintf("del_%d", p.ID),
		}})
	}
	menu = append(menu, []Button{{Label: "◀️ Back", Action: "admin"}})

	return []Reply{{ChatID: ev.ChatID, Text: formatAdminProducts(products), Menu: menu}}
}

func (e *Engine) showAdminOrders(ev Event) []Reply {
	orders, err := e.orders.ListRecent(20)
	if err != nil {
		e.log.Error().Err(err).Msg("failed to list orders")
		return []Reply{{ChatID: ev.ChatID, Text: "Could not load orders.", Menu: adminMenu()}}
	}
	total, err := e.orders.Count("")
	if err != nil {
		e.log.Error().Err(err).Msg("failed to count orders")
		total = len(orders)
	}
	if len(orders) == 0 {
		return []Reply{{ChatID: ev.ChatID, Text: "📦 No orders yet.", Menu: adminMenu()}}
	}
	return []Reply{{ChatID: ev.ChatID, Text: formatAdminOrders(orders, total), Menu: adminMenu()}}
}
