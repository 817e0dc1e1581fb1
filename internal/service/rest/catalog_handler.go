package rest

import (
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/ecom/internal/domain"
)

// CatalogHandler отдаёт простые сущности каталога по HTTP.
// Каждая сущность получает одинаковый набор маршрутов поверх своего шлюза.
type CatalogHandler struct {
	repos  domain.CatalogRepositories
	logger *log.Entry
}

// NewCatalogHandler конструирует обработчик каталога.
func NewCatalogHandler(repos domain.CatalogRepositories, logger *log.Entry) *CatalogHandler {
	if logger == nil {
		logger = log.WithField("component", "catalog-handler")
	}
	return &CatalogHandler{
		repos:  repos,
		logger: logger,
	}
}

// Register вешает CRUD-маршруты каталога на /api.
func (h *CatalogHandler) Register(api *gin.RouterGroup) {
	registerCrud(api, "/category", h.repos.Categories, decodeCategory, encodeCategory)
	registerCrud(api, "/product", h.repos.Products, decodeProduct, encodeProduct)
	registerCrud(api, "/inventory", h.repos.Inventories, decodeInventory, encodeInventory)
	registerCrud(api, "/customer", h.repos.Customers, decodeCustomer, encodeCustomer)
	registerCrud(api, "/user", h.repos.Users, decodeUser, encodeUser)
	registerCrud(api, "/role", h.repos.Roles, decodeRole, encodeRole)
	registerCrud(api, "/userrole", h.repos.UserRoles, decodeUserRole, encodeUserRole)
}

// registerCrud вешает единообразные маршруты одной сущности:
// список, чтение, создание, полная перезапись, удаление.
func registerCrud[T any](
	api *gin.RouterGroup,
	path string,
	repo domain.CrudRepository[T],
	decode func(*gin.Context) (T, error),
	encode func(T) any,
) {
	api.GET(path, func(c *gin.Context) {
		entities, err := repo.List()
		if err != nil {
			respondError(c, err)
			return
		}
		result := make([]any, 0, len(entities))
		for _, entity := range entities {
			result = append(result, encode(entity))
		}
		c.JSON(http.StatusOK, result)
	})

	api.POST(path, func(c *gin.Context) {
		entity, err := decode(c)
		if err != nil {
			respondBadRequest(c, err)
			return
		}
		created, err := repo.Insert(entity)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, encode(created))
	})

	api.GET(path+"/:id", func(c *gin.Context) {
		id, err := parseID(c)
		if err != nil {
			respondBadRequest(c, err)
			return
		}
		entity, err := repo.Get(id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, encode(entity))
	})

	api.PUT(path+"/:id", func(c *gin.Context) {
		id, err := parseID(c)
		if err != nil {
			respondBadRequest(c, err)
			return
		}
		entity, err := decode(c)
		if err != nil {
			respondBadRequest(c, err)
			return
		}
		if err := repo.Update(id, entity); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	api.DELETE(path+"/:id", func(c *gin.Context) {
		id, err := parseID(c)
		if err != nil {
			respondBadRequest(c, err)
			return
		}
		if err := repo.Delete(id); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})
}

// Входные DTO каталога. Идентификаторы от клиента не принимаются.

type categoryInput struct {
	Name string `json:"name"`
}

type productInput struct {
	Name          string          `json:"name"`
	SKU           string          `json:"sku"`
	Price         decimal.Decimal `json:"price"`
	CategoryID    int64           `json:"categoryId"`
	ImageData     string          `json:"imageData"`
	ImageMimeType string          `json:"imageMimeType"`
}

type inventoryInput struct {
	ProductID int64 `json:"productId"`
	Quantity  int32 `json:"quantity"`
}

type customerInput struct {
	FullName     string `json:"fullName"`
	Email        string `json:"email"`
	PasswordHash string `json:"passwordHash"`
}

type userInput struct {
	UserName     string `json:"userName"`
	PasswordHash string `json:"passwordHash"`
	Email        string `json:"email"`
}

type roleInput struct {
	RoleName string `json:"roleName"`
}

type userRoleInput struct {
	UserID int64 `json:"userId"`
	RoleID int64 `json:"roleId"`
}

func decodeCategory(c *gin.Context) (domain.Category, error) {
	var in categoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		return domain.Category{}, err
	}
	return domain.Category{Name: in.Name}, nil
}

func encodeCategory(e domain.Category) any {
	return CategoryDTO{ID: e.ID, Name: e.Name}
}

func decodeProduct(c *gin.Context) (domain.Product, error) {
	var in productInput
	if err := c.ShouldBindJSON(&in); err != nil {
		return domain.Product{}, err
	}

	var image []byte
	if in.ImageData != "" {
		decoded, err := base64.StdEncoding.DecodeString(in.ImageData)
		if err != nil {
			return domain.Product{}, fmt.Errorf("decode image data: %w", err)
		}
		image = decoded
	}

	return domain.Product{
		Name:          in.Name,
		SKU:           in.SKU,
		Price:         in.Price,
		CategoryID:    in.CategoryID,
		ImageData:     image,
		ImageMimeType: in.ImageMimeType,
	}, nil
}

func encodeProduct(e domain.Product) any {
	return projectProduct(e)
}

func decodeInventory(c *gin.Context) (domain.Inventory, error) {
	var in inventoryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		return domain.Inventory{}, err
	}
	return domain.Inventory{ProductID: in.ProductID, Quantity: in.Quantity}, nil
}

func encodeInventory(e domain.Inventory) any {
	return InventoryDTO{ID: e.ID, ProductID: e.ProductID, Quantity: e.Quantity}
}

func decodeCustomer(c *gin.Context) (domain.Customer, error) {
	var in customerInput
	if err := c.ShouldBindJSON(&in); err != nil {
		return domain.Customer{}, err
	}
	return domain.Customer{
		FullName:     in.FullName,
		Email:        in.Email,
		PasswordHash: in.PasswordHash,
	}, nil
}

func encodeCustomer(e domain.Customer) any {
	return projectCustomer(e)
}

func decodeUser(c *gin.Context) (domain.User, error) {
	var in userInput
	if err := c.ShouldBindJSON(&in); err != nil {
		return domain.User{}, err
	}
	return domain.User{
		UserName:     in.UserName,
		PasswordHash: in.PasswordHash,
		Email:        in.Email,
	}, nil
}

func encodeUser(e domain.User) any {
	return UserDTO{ID: e.ID, UserName: e.UserName, Email: e.Email}
}

func decodeRole(c *gin.Context) (domain.Role, error) {
	var in roleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		return domain.Role{}, err
	}
	return domain.Role{RoleName: in.RoleName}, nil
}

func encodeRole(e domain.Role) any {
	return RoleDTO{ID: e.ID, RoleName: e.RoleName}
}

func decodeUserRole(c *gin.Context) (domain.UserRole, error) {
	var in userRoleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		return domain.UserRole{}, err
	}
	return domain.UserRole{UserID: in.UserID, RoleID: in.RoleID}, nil
}

func encodeUserRole(e domain.UserRole) any {
	return UserRoleDTO{ID: e.ID, UserID: e.UserID, RoleID: e.RoleID}
}
