package domain

import "errors"

var (
	// Ошибка отсутствующего идентификатора клиента.
	ErrCustomerRequired = errors.New("customer_id is required")
	// Ошибка отсутствующей даты заказа.
	ErrOrderDateRequired = errors.New("order_date is required")
	// Ошибка позиции без идентификатора товара.
	ErrItemProductRequired = errors.New("item product_id is required")
	// Ошибка при некорректном количестве товара (< 1).
	ErrItemQtyInvalid = errors.New("item quantity must be greater than zero")
	// Ошибка, если цена позиции отрицательная.
	ErrItemPriceInvalid = errors.New("item unit_price must be non-negative")

	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrCustomerNotFound — заказ ссылается на несуществующего покупателя.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrProductNotFound — позиция ссылается на несуществующий товар.
	ErrProductNotFound = errors.New("product not found")
	// ErrEntityNotFound возвращается CRUD-шлюзом для отсутствующей записи.
	ErrEntityNotFound = errors.New("entity not found")
	// ErrReferenceMissing — запись ссылается на несуществующую запись
	// (например, товар на отсутствующую категорию).
	ErrReferenceMissing = errors.New("referenced entity not found")
	// ErrEntityInUse — запись нельзя удалить, пока на неё ссылаются другие
	// (например, покупатель с заказами или товар в позициях заказов).
	ErrEntityInUse = errors.New("entity is referenced by other records")
	// ErrDuplicateEntity — нарушение уникальности при вставке/обновлении.
	ErrDuplicateEntity = errors.New("entity already exists")

	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")

	// ErrIdempotencyKeyRequired — пустой idempotency-key.
	ErrIdempotencyKeyRequired = errors.New("idempotency key is required")
	// ErrIdempotencyRequestHashRequired — пустой хэш запроса.
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	// ErrIdempotencyKeyAlreadyExists — ключ уже зарегистрирован.
	ErrIdempotencyKeyAlreadyExists = errors.New("idempotency key already exists")
	// ErrIdempotencyHashMismatch — ключ переиспользован с другим телом запроса.
	ErrIdempotencyHashMismatch = errors.New("idempotency key is used with different request payload")
	// ErrIdempotencyKeyNotFound — запись по ключу отсутствует.
	ErrIdempotencyKeyNotFound = errors.New("idempotency key not found")
)

// IsInvalid проверяет, что ошибка вызвана нарушением инвариантов
// формы заказа (а не отсутствующими ссылками).
func IsInvalid(err error) bool {
	return errors.Is(err, ErrCustomerRequired) ||
		errors.Is(err, ErrOrderDateRequired) ||
		errors.Is(err, ErrItemProductRequired) ||
		errors.Is(err, ErrItemQtyInvalid) ||
		errors.Is(err, ErrItemPriceInvalid)
}

// IsNotFound проверяет, является ли ошибка любым из "не найдено".
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrEntityNotFound)
}

// IsReferential проверяет, что ошибка вызвана отсутствующей ссылкой
// заказа на покупателя или товар.
func IsReferential(err error) bool {
	return errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrReferenceMissing)
}
