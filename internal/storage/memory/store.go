package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

// Store — in-memory зеркало PostgreSQL-хранилища для локальной разработки
// и тестов. Один мьютекс на всё хранилище: атомарность мутаций агрегата
// и проверки ссылочной целостности получаются без дополнительных блокировок.
type Store struct {
	mu sync.RWMutex

	categories  map[int64]domain.Category
	products    map[int64]domain.Product
	inventories map[int64]domain.Inventory
	customers   map[int64]domain.Customer
	users       map[int64]domain.User
	roles       map[int64]domain.Role
	userRoles   map[int64]domain.UserRole
	orders      map[int64]domain.Order

	nextID map[string]int64
}

// NewStore создаёт пустое in-memory хранилище.
func NewStore() *Store {
	return &Store{
		categories:  make(map[int64]domain.Category),
		products:    make(map[int64]domain.Product),
		inventories: make(map[int64]domain.Inventory),
		customers:   make(map[int64]domain.Customer),
		users:       make(map[int64]domain.User),
		roles:       make(map[int64]domain.Role),
		userRoles:   make(map[int64]domain.UserRole),
		orders:      make(map[int64]domain.Order),
		nextID:      make(map[string]int64),
	}
}

// issueID выдаёт следующий идентификатор для именованной последовательности.
// Вызывается только под записывающей блокировкой.
func (s *Store) issueID(seq string) int64 {
	s.nextID[seq]++
	return s.nextID[seq]
}

// NewCatalogRepositories собирает in-memory шлюзы простых сущностей
// поверх общего хранилища.
func NewCatalogRepositories(s *Store) domain.CatalogRepositories {
	return domain.CatalogRepositories{
		Categories: &table[domain.Category]{
			store: s,
			seq:   "categories",
			rows:  func() map[int64]domain.Category { return s.categories },
			setID: func(e *domain.Category, id int64) { e.ID = id },
			inUse: func(id int64) bool {
				for _, p := range s.products {
					if p.CategoryID == id {
						return true
					}
				}
				return false
			},
		},
		Products: &table[domain.Product]{
			store: s,
			seq:   "products",
			rows:  func() map[int64]domain.Product { return s.products },
			setID: func(e *domain.Product, id int64) { e.ID = id },
			refs: func(e domain.Product) error {
				if _, ok := s.categories[e.CategoryID]; !ok {
					return domain.ErrReferenceMissing
				}
				return nil
			},
			inUse: func(id int64) bool {
				for _, inv := range s.inventories {
					if inv.ProductID == id {
						return true
					}
				}
				for _, order := range s.orders {
					for _, item := range order.Items {
						if item.ProductID == id {
							return true
						}
					}
				}
				return false
			},
		},
		Inventories: &table[domain.Inventory]{
			store: s,
			seq:   "inventories",
			rows:  func() map[int64]domain.Inventory { return s.inventories },
			setID: func(e *domain.Inventory, id int64) { e.ID = id },
			refs: func(e domain.Inventory) error {
				if _, ok := s.products[e.ProductID]; !ok {
					return domain.ErrReferenceMissing
				}
				return nil
			},
		},
		Customers: &table[domain.Customer]{
			store: s,
			seq:   "customers",
			rows:  func() map[int64]domain.Customer { return s.customers },
			setID: func(e *domain.Customer, id int64) { e.ID = id },
			inUse: func(id int64) bool {
				for _, order := range s.orders {
					if order.CustomerID == id {
						return true
					}
				}
				return false
			},
		},
		Users: &table[domain.User]{
			store: s,
			seq:   "users",
			rows:  func() map[int64]domain.User { return s.users },
			setID: func(e *domain.User, id int64) { e.ID = id },
			inUse: func(id int64) bool {
				for _, ur := range s.userRoles {
					if ur.UserID == id {
						return true
					}
				}
				return false
			},
		},
		Roles: &table[domain.Role]{
			store: s,
			seq:   "roles",
			rows:  func() map[int64]domain.Role { return s.roles },
			setID: func(e *domain.Role, id int64) { e.ID = id },
			inUse: func(id int64) bool {
				for _, ur := range s.userRoles {
					if ur.RoleID == id {
						return true
					}
				}
				return false
			},
		},
		UserRoles: &table[domain.UserRole]{
			store: s,
			seq:   "user_roles",
			rows:  func() map[int64]domain.UserRole { return s.userRoles },
			setID: func(e *domain.UserRole, id int64) { e.ID = id },
			refs: func(e domain.UserRole) error {
				if _, ok := s.users[e.UserID]; !ok {
					return domain.ErrReferenceMissing
				}
				if _, ok := s.roles[e.RoleID]; !ok {
					return domain.ErrReferenceMissing
				}
				return nil
			},
		},
	}
}
