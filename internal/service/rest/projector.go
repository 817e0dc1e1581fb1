package rest

import (
	"encoding/base64"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

func init() {
	// Цены сериализуются как числа JSON, не как строки.
	decimal.MarshalJSONWithoutQuotes = true
}

// Проекция агрегата заказа наружу. Дерево связей фиксированной глубины:
// заказ → клиент, заказ → позиции → товары. Обратные связи
// (клиент → заказы, товар → позиции) не сериализуются, поэтому ответ
// конечен и не содержит циклов.

// OrderDTO — заказ с раскрытыми связями.
type OrderDTO struct {
	ID         int64          `json:"id"`
	CustomerID int64          `json:"customerId"`
	OrderDate  time.Time      `json:"orderDate"`
	Customer   CustomerDTO    `json:"customer"`
	OrderItems []OrderItemDTO `json:"orderItems"`
}

// OrderItemDTO — позиция заказа. Заказ-владелец представлен только
// идентификатором.
type OrderItemDTO struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"orderId"`
	ProductID int64           `json:"productId"`
	Quantity  int32           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Product   ProductRefDTO   `json:"product"`
}

// ProductRefDTO — товар внутри позиции заказа: без изображения и без
// обратных ссылок.
type ProductRefDTO struct {
	ID         int64           `json:"id"`
	Name       string          `json:"name"`
	SKU        string          `json:"sku"`
	Price      decimal.Decimal `json:"price"`
	CategoryID int64           `json:"categoryId"`
}

// CustomerDTO — покупатель наружу, без хэша пароля.
type CustomerDTO struct {
	ID       int64  `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

// TimelineEventDTO — событие истории заказа.
type TimelineEventDTO struct {
	OrderID  int64     `json:"orderId"`
	Type     string    `json:"type"`
	Reason   string    `json:"reason,omitempty"`
	Occurred time.Time `json:"occurred"`
}

// projectOrder строит DTO заказа из раскрытого графа.
// orderItems никогда не null: пустой заказ отдаётся с пустым списком.
func projectOrder(graph domain.OrderGraph) OrderDTO {
	items := make([]OrderItemDTO, 0, len(graph.Items))
	for _, ig := range graph.Items {
		items = append(items, OrderItemDTO{
			ID:        ig.Item.ID,
			OrderID:   ig.Item.OrderID,
			ProductID: ig.Item.ProductID,
			Quantity:  ig.Item.Quantity,
			UnitPrice: ig.Item.UnitPrice,
			Product:   projectProductRef(ig.Product),
		})
	}

	return OrderDTO{
		ID:         graph.Order.ID,
		CustomerID: graph.Order.CustomerID,
		OrderDate:  graph.Order.OrderDate.UTC(),
		Customer:   projectCustomer(graph.Customer),
		OrderItems: items,
	}
}

func projectOrders(graphs []domain.OrderGraph) []OrderDTO {
	result := make([]OrderDTO, 0, len(graphs))
	for _, graph := range graphs {
		result = append(result, projectOrder(graph))
	}
	return result
}

func projectProductRef(product domain.Product) ProductRefDTO {
	return ProductRefDTO{
		ID:         product.ID,
		Name:       product.Name,
		SKU:        product.SKU,
		Price:      product.Price,
		CategoryID: product.CategoryID,
	}
}

func projectCustomer(customer domain.Customer) CustomerDTO {
	return CustomerDTO{
		ID:       customer.ID,
		FullName: customer.FullName,
		Email:    customer.Email,
	}
}

func projectTimeline(events []domain.TimelineEvent) []TimelineEventDTO {
	result := make([]TimelineEventDTO, 0, len(events))
	for _, event := range events {
		result = append(result, TimelineEventDTO{
			OrderID:  event.OrderID,
			Type:     event.Type,
			Reason:   event.Reason,
			Occurred: event.Occurred,
		})
	}
	return result
}

// Проекции простых сущностей каталога.

// CategoryDTO — категория наружу.
type CategoryDTO struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ProductDTO — товар наружу; изображение кодируется в base64.
type ProductDTO struct {
	ID            int64           `json:"id"`
	Name          string          `json:"name"`
	SKU           string          `json:"sku"`
	Price         decimal.Decimal `json:"price"`
	CategoryID    int64           `json:"categoryId"`
	ImageData     string          `json:"imageData,omitempty"`
	ImageMimeType string          `json:"imageMimeType,omitempty"`
}

// InventoryDTO — складская запись наружу.
type InventoryDTO struct {
	ID        int64 `json:"id"`
	ProductID int64 `json:"productId"`
	Quantity  int32 `json:"quantity"`
}

// UserDTO — служебный пользователь наружу, без хэша пароля.
type UserDTO struct {
	ID       int64  `json:"id"`
	UserName string `json:"userName"`
	Email    string `json:"email"`
}

// RoleDTO — роль наружу.
type RoleDTO struct {
	ID       int64  `json:"id"`
	RoleName string `json:"roleName"`
}

// UserRoleDTO — связь пользователя и роли наружу.
type UserRoleDTO struct {
	ID     int64 `json:"id"`
	UserID int64 `json:"userId"`
	RoleID int64 `json:"roleId"`
}

func projectProduct(product domain.Product) ProductDTO {
	dto := ProductDTO{
		ID:            product.ID,
		Name:          product.Name,
		SKU:           product.SKU,
		Price:         product.Price,
		CategoryID:    product.CategoryID,
		ImageMimeType: product.ImageMimeType,
	}
	if len(product.ImageData) > 0 {
		dto.ImageData = base64.StdEncoding.EncodeToString(product.ImageData)
	}
	return dto
}
