package postgres

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

func TestIntegrationCatalogCrud(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repos := NewCatalogRepositories(store)

	category, err := repos.Categories.Insert(domain.Category{Name: "books"})
	if err != nil {
		t.Fatalf("insert category: %v", err)
	}
	if category.ID == 0 {
		t.Fatal("expected issued category id")
	}

	got, err := repos.Categories.Get(category.ID)
	if err != nil {
		t.Fatalf("get category: %v", err)
	}
	if got.Name != "books" {
		t.Fatalf("unexpected category: %+v", got)
	}

	if err := repos.Categories.Update(category.ID, domain.Category{Name: "ebooks"}); err != nil {
		t.Fatalf("update category: %v", err)
	}
	got, _ = repos.Categories.Get(category.ID)
	if got.Name != "ebooks" {
		t.Fatalf("expected updated name, got %q", got.Name)
	}

	if err := repos.Categories.Update(999, domain.Category{Name: "ghost"}); !errors.Is(err, domain.ErrEntityNotFound) {
		t.Fatalf("expected ErrEntityNotFound, got %v", err)
	}

	if err := repos.Categories.Delete(category.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}
	if _, err := repos.Categories.Get(category.ID); !errors.Is(err, domain.ErrEntityNotFound) {
		t.Fatalf("expected ErrEntityNotFound after delete, got %v", err)
	}
}

func TestIntegrationCatalogReferences(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repos := NewCatalogRepositories(store)

	// Вставка товара в несуществующую категорию нарушает FK.
	_, err := repos.Products.Insert(domain.Product{Name: "orphan", CategoryID: 999})
	if !errors.Is(err, domain.ErrReferenceMissing) {
		t.Fatalf("expected ErrReferenceMissing, got %v", err)
	}

	category, err := repos.Categories.Insert(domain.Category{Name: "peripherals"})
	if err != nil {
		t.Fatalf("insert category: %v", err)
	}
	product, err := repos.Products.Insert(domain.Product{
		Name:          "keyboard",
		SKU:           "KB-01",
		Price:         decimal.NewFromFloat(49.90),
		CategoryID:    category.ID,
		ImageData:     []byte("png-bytes"),
		ImageMimeType: "image/png",
	})
	if err != nil {
		t.Fatalf("insert product: %v", err)
	}

	got, err := repos.Products.Get(product.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	if string(got.ImageData) != "png-bytes" || got.ImageMimeType != "image/png" {
		t.Fatalf("image round trip failed: %+v", got)
	}

	// Категория с товарами защищена от удаления.
	if err := repos.Categories.Delete(category.ID); !errors.Is(err, domain.ErrEntityInUse) {
		t.Fatalf("expected ErrEntityInUse, got %v", err)
	}

	inventory, err := repos.Inventories.Insert(domain.Inventory{ProductID: product.ID, Quantity: 5})
	if err != nil {
		t.Fatalf("insert inventory: %v", err)
	}
	if err := repos.Products.Delete(product.ID); !errors.Is(err, domain.ErrEntityInUse) {
		t.Fatalf("expected ErrEntityInUse for product with inventory, got %v", err)
	}

	// inventories.product_id уникален: второй складской записи не будет.
	if _, err := repos.Inventories.Insert(domain.Inventory{ProductID: product.ID, Quantity: 7}); !errors.Is(err, domain.ErrDuplicateEntity) {
		t.Fatalf("expected ErrDuplicateEntity, got %v", err)
	}

	if err := repos.Inventories.Delete(inventory.ID); err != nil {
		t.Fatalf("delete inventory: %v", err)
	}
	if err := repos.Products.Delete(product.ID); err != nil {
		t.Fatalf("delete product: %v", err)
	}
	if err := repos.Categories.Delete(category.ID); err != nil {
		t.Fatalf("delete category: %v", err)
	}
}

func TestIntegrationUserRoles(t *testing.T) {
	store := openPostgresStoreForIntegrationTest(t)
	repos := NewCatalogRepositories(store)

	user, err := repos.Users.Insert(domain.User{UserName: "ops", Email: "ops@example.com", PasswordHash: "hash"})
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	role, err := repos.Roles.Insert(domain.Role{RoleName: "admin"})
	if err != nil {
		t.Fatalf("insert role: %v", err)
	}

	link, err := repos.UserRoles.Insert(domain.UserRole{UserID: user.ID, RoleID: role.ID})
	if err != nil {
		t.Fatalf("insert user role: %v", err)
	}

	// Дубль связи нарушает UNIQUE(user_id, role_id).
	if _, err := repos.UserRoles.Insert(domain.UserRole{UserID: user.ID, RoleID: role.ID}); !errors.Is(err, domain.ErrDuplicateEntity) {
		t.Fatalf("expected ErrDuplicateEntity, got %v", err)
	}

	if err := repos.Users.Delete(user.ID); !errors.Is(err, domain.ErrEntityInUse) {
		t.Fatalf("expected ErrEntityInUse for linked user, got %v", err)
	}

	if err := repos.UserRoles.Delete(link.ID); err != nil {
		t.Fatalf("delete user role: %v", err)
	}
	if err := repos.Users.Delete(user.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if err := repos.Roles.Delete(role.ID); err != nil {
		t.Fatalf("delete role: %v", err)
	}
}
