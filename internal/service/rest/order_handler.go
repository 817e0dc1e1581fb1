package rest

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
	"github.com/vladislavdragonenkov/ecom/internal/service/order"
)

// OrderHandler отдаёт агрегат заказа по HTTP.
type OrderHandler struct {
	manager *order.Manager
	idem    domain.IdempotencyRepository
	logger  *log.Entry
}

// NewOrderHandler конструирует обработчик. idem необязателен: без него
// POST /api/order обрабатывается без поддержки Idempotency-Key.
func NewOrderHandler(manager *order.Manager, idem domain.IdempotencyRepository, logger *log.Entry) *OrderHandler {
	if logger == nil {
		logger = log.WithField("component", "order-handler")
	}
	return &OrderHandler{
		manager: manager,
		idem:    idem,
		logger:  logger,
	}
}

// Register вешает маршруты заказов на /api.
func (h *OrderHandler) Register(api *gin.RouterGroup) {
	api.GET("/order", h.list)
	api.POST("/order", h.create)
	api.GET("/order/:id", h.get)
	api.PUT("/order/:id", h.replace)
	api.DELETE("/order/:id", h.remove)
	api.GET("/order/:id/timeline", h.timeline)
}

// orderRequest — входной заказ. Идентификаторы заказа и позиций
// от клиента не принимаются.
type orderRequest struct {
	CustomerID int64              `json:"customerId"`
	OrderDate  time.Time          `json:"orderDate"`
	OrderItems []orderItemRequest `json:"orderItems"`
}

type orderItemRequest struct {
	ProductID int64           `json:"productId"`
	Quantity  int32           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

func (r orderRequest) toDomain() domain.Order {
	items := make([]domain.OrderItem, 0, len(r.OrderItems))
	for _, item := range r.OrderItems {
		items = append(items, domain.OrderItem{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return domain.Order{
		CustomerID: r.CustomerID,
		OrderDate:  r.OrderDate,
		Items:      items,
	}
}

func (h *OrderHandler) list(c *gin.Context) {
	graphs, err := h.manager.List()
	if err != nil {
		h.logger.WithError(err).Error("failed to list orders")
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, projectOrders(graphs))
}

func (h *OrderHandler) get(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondBadRequest(c, err)
		return
	}

	graph, err := h.manager.Get(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, projectOrder(graph))
}

func (h *OrderHandler) create(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		respondBadRequest(c, err)
		return
	}

	status, payload := h.withIdempotency(c, body, h.createInternal)
	if status == http.StatusCreated {
		if id, ok := createdOrderID(payload); ok {
			c.Header("Location", orderLocation(id))
		}
	}
	c.JSON(status, payload)
}

// orderLocation — путь созданного заказа для заголовка Location.
func orderLocation(id int64) string {
	return "/api/order/" + strconv.FormatInt(id, 10)
}

// createdOrderID достаёт идентификатор заказа из ответа на создание:
// либо из свежей проекции, либо из сохранённого тела idempotency-повтора.
func createdOrderID(payload any) (int64, bool) {
	switch v := payload.(type) {
	case OrderDTO:
		return v.ID, v.ID > 0
	case json.RawMessage:
		var dto struct {
			ID int64 `json:"id"`
		}
		if err := json.Unmarshal(v, &dto); err == nil && dto.ID > 0 {
			return dto.ID, true
		}
	}
	return 0, false
}

func (h *OrderHandler) createInternal(body []byte) (int, any) {
	var req orderRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return http.StatusBadRequest, newEnvelope("bad_request", err)
	}

	graph, err := h.manager.Create(req.toDomain())
	if err != nil {
		return errorResponse(err)
	}
	return http.StatusCreated, projectOrder(graph)
}

func (h *OrderHandler) replace(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondBadRequest(c, err)
		return
	}

	var req orderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	candidate := req.toDomain()
	candidate.ID = id
	if _, err := h.manager.Replace(candidate); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *OrderHandler) remove(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondBadRequest(c, err)
		return
	}

	if err := h.manager.Delete(id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *OrderHandler) timeline(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		respondBadRequest(c, err)
		return
	}

	events, err := h.manager.Timeline(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, projectTimeline(events))
}

func parseID(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}
