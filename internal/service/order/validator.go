package order

import (
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

// Validator проверяет кандидат-заказ перед мутацией агрегата:
// сначала инварианты формы, затем существование ссылок на покупателя
// и товары. Только чтение, состояния не меняет.
type Validator struct {
	refs domain.ReferenceChecker
}

// NewValidator создаёт валидатор поверх проверки ссылок.
func NewValidator(refs domain.ReferenceChecker) *Validator {
	return &Validator{refs: refs}
}

// Validate возвращает nil, если заказ допустим к записи.
// Нарушения формы собираются в одну ошибку; проверка ссылок
// выполняется только для заказа корректной формы.
func (v *Validator) Validate(order domain.Order) error {
	if errs := order.ValidateInvariants(); len(errs) > 0 {
		return errors.Join(errs...)
	}

	ok, err := v.refs.CustomerExists(order.CustomerID)
	if err != nil {
		return fmt.Errorf("check customer %d: %w", order.CustomerID, err)
	}
	if !ok {
		return fmt.Errorf("customer %d: %w", order.CustomerID, domain.ErrCustomerNotFound)
	}

	checked := make(map[int64]struct{}, len(order.Items))
	for _, item := range order.Items {
		if _, done := checked[item.ProductID]; done {
			continue
		}
		checked[item.ProductID] = struct{}{}

		ok, err := v.refs.ProductExists(item.ProductID)
		if err != nil {
			return fmt.Errorf("check product %d: %w", item.ProductID, err)
		}
		if !ok {
			return fmt.Errorf("product %d: %w", item.ProductID, domain.ErrProductNotFound)
		}
	}

	return nil
}
