// internal/service/catalog/gorm_store.go
package catalog

import (
	"context"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductModel 对应 product 表。
type ProductModel struct {
	ProductID   string `gorm:"primaryKey;size:64"`
	Name        string `gorm:"size:128"`
	Price       int64  `gorm:"not null"`
	Discount    int64  `gorm:"not null;default:0"`
	Image       string `gorm:"size:256"`
	Description string `gorm:"type:text"`
}

func (ProductModel) TableName() string {
	return "product"
}

// GormStore 是 Store 的 MySQL 实现。
type GormStore struct {
	db *gorm.DB
}

// NewGormStore 创建商品仓储并迁移表结构。
func NewGormStore(db *gorm.DB) (*GormStore, error) {
	if err := db.AutoMigrate(&ProductModel{}); err != nil {
		return nil, pkgerrors.Wrap(err, "migrate product table")
	}
	return &GormStore{db: db}, nil
}

func (s *GormStore) Get(ctx context.Context, productID string) (Product, error) {
	var m ProductModel
	err := s.db.WithContext(ctx).Where("product_id = ?", productID).First(&m).Error
	if pkgerrors.Is(err, gorm.ErrRecordNotFound) {
		return Product{}, ErrProductNotFound
	}
	if err != nil {
		return Product{}, pkgerrors.Wrapf(err, "get product %s", productID)
	}
	return toProduct(&m), nil
}

func (s *GormStore) Save(ctx context.Context, p Product) error {
	m := ProductModel{
		ProductID:   p.ProductID,
		Name:        p.Name,
		Price:       p.Price,
		Discount:    p.Discount,
		Image:       p.Image,
		Description: p.Description,
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&m).Error
}

func (s *GormStore) List(ctx context.Context, offset, limit int) ([]Product, error) {
	var models []ProductModel
	err := s.db.WithContext(ctx).
		Order("product_id ASC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list products")
	}
	out := make([]Product, 0, len(models))
	for i := range models {
		out = append(out, toProduct(&models[i]))
	}
	return out, nil
}

func toProduct(m *ProductModel) Product {
	return Product{
		ProductID:   m.ProductID,
		Name:        m.Name,
		Price:       m.Price,
		Discount:    m.Discount,
		Image:       m.Image,
		Description: m.Description,
	}
}
