package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderItem представляет одну позицию заказа.
// Позиция живёт только внутри своего заказа: при полной замене набора
// позиций идентификаторы выдаются заново.
type OrderItem struct {
	// ID позиции; суррогатный, выдаётся хранилищем при вставке.
	ID int64
	// OrderID — заказ-владелец. Проставляется внутри агрегата и
	// не принимается от клиента.
	OrderID int64
	// ProductID — ссылка на товар; должен существовать на момент коммита.
	ProductID int64
	// Quantity — количество единиц товара (>= 1).
	Quantity int32
	// UnitPrice — цена за единицу, зафиксированная на момент заказа.
	// Не пересчитывается из текущей цены товара.
	UnitPrice decimal.Decimal
}

// Order агрегирует заказ и его позиции. Создание, замена и удаление
// выполняются как одна атомарная единица вместе с позициями.
type Order struct {
	ID         int64
	CustomerID int64
	// OrderDate хранится и сравнивается в UTC.
	OrderDate time.Time
	Items     []OrderItem
}

// NormalizeDates приводит временные поля заказа к UTC перед сохранением.
func (o *Order) NormalizeDates() {
	o.OrderDate = o.OrderDate.UTC()
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
// Пустой набор позиций допустим.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.CustomerID <= 0 {
		errs = append(errs, ErrCustomerRequired)
	}
	if o.OrderDate.IsZero() {
		errs = append(errs, ErrOrderDateRequired)
	}

	for _, item := range o.Items {
		if item.ProductID <= 0 {
			errs = append(errs, ErrItemProductRequired)
		}
		if item.Quantity < 1 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.UnitPrice.IsNegative() {
			errs = append(errs, ErrItemPriceInvalid)
		}
	}

	return errs
}

// OrderItemGraph — позиция заказа вместе с раскрытым товаром (один переход).
type OrderItemGraph struct {
	Item    OrderItem
	Product Product
}

// OrderGraph — заказ с ограниченным деревом связей для отдачи наружу:
// клиент (один переход) и позиции с товарами (один переход).
// Обратные связи Customer→Orders и Product→OrderItems не раскрываются,
// поэтому граф конечен и не содержит циклов.
type OrderGraph struct {
	Order    Order
	Customer Customer
	Items    []OrderItemGraph
}
