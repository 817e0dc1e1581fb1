package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

// NewCatalogRepositories собирает PostgreSQL-шлюзы всех простых сущностей.
func NewCatalogRepositories(store *Store) domain.CatalogRepositories {
	return domain.CatalogRepositories{
		Categories:  NewCategoryRepository(store),
		Products:    NewProductRepository(store),
		Inventories: NewInventoryRepository(store),
		Customers:   NewCustomerRepository(store),
		Users:       NewUserRepository(store),
		Roles:       NewRoleRepository(store),
		UserRoles:   NewUserRoleRepository(store),
	}
}

// NewCategoryRepository создаёт шлюз категорий товаров.
func NewCategoryRepository(store *Store) domain.CrudRepository[domain.Category] {
	return &crudGateway[domain.Category]{
		db:    store.DB(),
		table: "categories",
		idCol: "category_id",
		cols:  []string{"name"},
		args: func(e domain.Category) []any {
			return []any{e.Name}
		},
		fields: func(e *domain.Category) []any {
			return []any{&e.ID, &e.Name}
		},
	}
}

// NewProductRepository создаёт шлюз товаров.
func NewProductRepository(store *Store) domain.CrudRepository[domain.Product] {
	return &crudGateway[domain.Product]{
		db:    store.DB(),
		table: "products",
		idCol: "product_id",
		cols:  []string{"name", "sku", "price", "category_id", "image_data", "image_mime_type"},
		args: func(e domain.Product) []any {
			return []any{e.Name, e.SKU, e.Price, e.CategoryID, e.ImageData, e.ImageMimeType}
		},
		fields: func(e *domain.Product) []any {
			return []any{&e.ID, &e.Name, &e.SKU, &e.Price, &e.CategoryID, &e.ImageData, &e.ImageMimeType}
		},
	}
}

// NewInventoryRepository создаёт шлюз складских записей.
func NewInventoryRepository(store *Store) domain.CrudRepository[domain.Inventory] {
	return &crudGateway[domain.Inventory]{
		db:    store.DB(),
		table: "inventories",
		idCol: "inventory_id",
		cols:  []string{"product_id", "quantity"},
		args: func(e domain.Inventory) []any {
			return []any{e.ProductID, e.Quantity}
		},
		fields: func(e *domain.Inventory) []any {
			return []any{&e.ID, &e.ProductID, &e.Quantity}
		},
	}
}

// NewCustomerRepository создаёт шлюз покупателей.
func NewCustomerRepository(store *Store) domain.CrudRepository[domain.Customer] {
	return &crudGateway[domain.Customer]{
		db:    store.DB(),
		table: "customers",
		idCol: "customer_id",
		cols:  []string{"full_name", "email", "password_hash"},
		args: func(e domain.Customer) []any {
			return []any{e.FullName, e.Email, e.PasswordHash}
		},
		fields: func(e *domain.Customer) []any {
			return []any{&e.ID, &e.FullName, &e.Email, &e.PasswordHash}
		},
	}
}

// NewUserRepository создаёт шлюз служебных пользователей.
func NewUserRepository(store *Store) domain.CrudRepository[domain.User] {
	return &crudGateway[domain.User]{
		db:    store.DB(),
		table: "users",
		idCol: "user_id",
		cols:  []string{"user_name", "password_hash", "email"},
		args: func(e domain.User) []any {
			return []any{e.UserName, e.PasswordHash, e.Email}
		},
		fields: func(e *domain.User) []any {
			return []any{&e.ID, &e.UserName, &e.PasswordHash, &e.Email}
		},
	}
}

// NewRoleRepository создаёт шлюз ролей.
func NewRoleRepository(store *Store) domain.CrudRepository[domain.Role] {
	return &crudGateway[domain.Role]{
		db:    store.DB(),
		table: "roles",
		idCol: "role_id",
		cols:  []string{"role_name"},
		args: func(e domain.Role) []any {
			return []any{e.RoleName}
		},
		fields: func(e *domain.Role) []any {
			return []any{&e.ID, &e.RoleName}
		},
	}
}

// NewUserRoleRepository создаёт шлюз связей пользователь-роль.
func NewUserRoleRepository(store *Store) domain.CrudRepository[domain.UserRole] {
	return &crudGateway[domain.UserRole]{
		db:    store.DB(),
		table: "user_roles",
		idCol: "user_role_id",
		cols:  []string{"user_id", "role_id"},
		args: func(e domain.UserRole) []any {
			return []any{e.UserID, e.RoleID}
		},
		fields: func(e *domain.UserRole) []any {
			return []any{&e.ID, &e.UserID, &e.RoleID}
		},
	}
}

type referenceChecker struct {
	db *sql.DB
}

// NewReferenceChecker создаёт проверку существования покупателей и товаров.
func NewReferenceChecker(store *Store) domain.ReferenceChecker {
	return &referenceChecker{db: store.DB()}
}

func (c *referenceChecker) CustomerExists(id int64) (bool, error) {
	return c.exists("customers", "customer_id", id)
}

func (c *referenceChecker) ProductExists(id int64) (bool, error) {
	return c.exists("products", "product_id", id)
}

func (c *referenceChecker) exists(table, idCol string, id int64) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = $1", idCol, table, idCol)
	var got int64
	err := c.db.QueryRowContext(ctx, query, id).Scan(&got)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check %s exists: %w", table, err)
}

var _ domain.ReferenceChecker = (*referenceChecker)(nil)
