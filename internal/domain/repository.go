package domain

// OrderRepository описывает требования к хранилищу агрегата заказа.
// Каждая мутация атомарна: либо заказ и все его позиции записаны целиком,
// либо хранилище остаётся в прежнем состоянии.
type OrderRepository interface {
	// Create сохраняет новый заказ вместе с позициями и возвращает агрегат
	// с выданными идентификаторами.
	Create(order Order) (Order, error)
	// Replace обновляет скалярные поля заказа и полностью заменяет набор
	// позиций (delete-all-then-insert, без слияния со старым набором).
	// Возвращает ErrOrderNotFound, если заказа нет.
	Replace(order Order) (Order, error)
	// Delete удаляет заказ и все его позиции; ErrOrderNotFound, если его нет.
	Delete(id int64) error
	// GetGraph возвращает заказ с клиентом и позициями-с-товарами.
	GetGraph(id int64) (OrderGraph, error)
	// ListGraphs возвращает все заказы с раскрытыми связями,
	// в стабильном порядке по идентификатору.
	ListGraphs() ([]OrderGraph, error)
}

// ReferenceChecker проверяет существование записей, на которые ссылается
// кандидат-заказ. Только чтение, без побочных эффектов.
type ReferenceChecker interface {
	CustomerExists(id int64) (bool, error)
	ProductExists(id int64) (bool, error)
}

// CrudRepository — универсальный шлюз одиночных записей для простых
// сущностей каталога (категории, товары, покупатели и т.д.).
type CrudRepository[T any] interface {
	// Insert сохраняет запись и возвращает её с выданным идентификатором.
	Insert(entity T) (T, error)
	// Get возвращает запись или ErrEntityNotFound.
	Get(id int64) (T, error)
	// List возвращает все записи в порядке идентификаторов.
	List() ([]T, error)
	// Update перезаписывает скалярные поля записи; ErrEntityNotFound, если её нет.
	Update(id int64, entity T) error
	// Delete удаляет запись; ErrEntityNotFound, если её нет,
	// ErrEntityInUse — если на неё ссылаются другие записи.
	Delete(id int64) error
}

// CatalogRepositories собирает шлюзы простых сущностей в одну зависимость.
type CatalogRepositories struct {
	Categories  CrudRepository[Category]
	Products    CrudRepository[Product]
	Inventories CrudRepository[Inventory]
	Customers   CrudRepository[Customer]
	Users       CrudRepository[User]
	Roles       CrudRepository[Role]
	UserRoles   CrudRepository[UserRole]
}
