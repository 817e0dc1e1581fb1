package domain

import "github.com/shopspring/decimal"

// Category — категория товаров.
type Category struct {
	ID   int64
	Name string
}

// Product — товар каталога. Изображение хранится как непрозрачная
// последовательность байт вместе с MIME-типом.
type Product struct {
	ID            int64
	Name          string
	SKU           string
	Price         decimal.Decimal
	CategoryID    int64
	ImageData     []byte
	ImageMimeType string
}

// Inventory — складская запись товара (один к одному с Product).
type Inventory struct {
	ID        int64
	ProductID int64
	Quantity  int32
}

// Customer — покупатель. На него ссылаются заказы; удаление покупателя
// с существующими заказами запрещено (restrict).
type Customer struct {
	ID           int64
	FullName     string
	Email        string
	PasswordHash string
}

// User — служебный пользователь системы.
type User struct {
	ID           int64
	UserName     string
	PasswordHash string
	Email        string
}

// Role — роль пользователя. Используется только как данные,
// проверка прав не выполняется.
type Role struct {
	ID       int64
	RoleName string
}

// UserRole — связь пользователя и роли.
type UserRole struct {
	ID     int64
	UserID int64
	RoleID int64
}
