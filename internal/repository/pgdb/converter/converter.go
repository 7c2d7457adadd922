package converter

import (
	"github.com/itsManeka/gibipromo-sub001/internal/domain"
	"github.com/shopspring/decimal"
)

// ActionConverter преобразует сущности Action между domain и моделью PostgreSQL.
type ActionConverter interface {
	ToModel(entity *domain.Action) *ActionModel
	ToEntity(model *ActionModel) *domain.Action
	ToArrEntity(models []*ActionModel) []*domain.Action
}

// ProductConverter преобразует сущности Product между domain и моделью PostgreSQL.
type ProductConverter interface {
	ToModel(entity *domain.Product) *ProductModel
	ToEntity(model *ProductModel) *domain.Product
	ToArrEntity(models []*ProductModel) []*domain.Product
}

// ProductUserConverter преобразует сущности ProductUser между domain и моделью PostgreSQL.
type ProductUserConverter interface {
	ToEntity(model *ProductUserModel) *domain.ProductUser
	ToArrEntity(models []*ProductUserModel) []*domain.ProductUser
}

// ProductStatsConverter преобразует сущности ProductStats между domain и моделью PostgreSQL.
type ProductStatsConverter interface {
	ToModel(entity *domain.ProductStats) *ProductStatsModel
}

type ActionConverterImpl struct{}

func NewActionConverterImpl() *ActionConverterImpl {
	return &ActionConverterImpl{}
}

func (c *ActionConverterImpl) ToModel(entity *domain.Action) *ActionModel {
	return &ActionModel{
		ID:        entity.ID,
		Type:      string(entity.Type),
		Value:     entity.Value,
		UserID:    entity.UserID,
		Origin:    entity.Origin,
		CreatedAt: entity.CreatedAt,
		Processed: entity.Processed,
	}
}

func (c *ActionConverterImpl) ToEntity(model *ActionModel) *domain.Action {
	return &domain.Action{
		ID:        model.ID,
		Type:      domain.ActionType(model.Type),
		Value:     model.Value,
		UserID:    model.UserID,
		Origin:    model.Origin,
		CreatedAt: model.CreatedAt,
		Processed: model.Processed,
	}
}

func (c *ActionConverterImpl) ToArrEntity(models []*ActionModel) []*domain.Action {
	result := make([]*domain.Action, 0, len(models))
	for _, model := range models {
		result = append(result, c.ToEntity(model))
	}
	return result
}

type ProductConverterImpl struct{}

func NewProductConverterImpl() *ProductConverterImpl {
	return &ProductConverterImpl{}
}

func (c *ProductConverterImpl) ToModel(entity *domain.Product) *ProductModel {
	return &ProductModel{
		ID:           entity.ID,
		OfferID:      entity.OfferID,
		Title:        entity.Title,
		FullPrice:    entity.FullPrice,
		Price:        entity.Price,
		OldPrice:     toNullDecimal(entity.OldPrice),
		LowestPrice:  entity.LowestPrice,
		InStock:      entity.InStock,
		Preorder:     entity.Preorder,
		URL:          entity.URL,
		Image:        entity.Image,
		Category:     entity.Category,
		Format:       entity.Format,
		Genre:        entity.Genre,
		Publisher:    entity.Publisher,
		Contributors: entity.Contributors,
		CreatedAt:    entity.CreatedAt,
		UpdatedAt:    entity.UpdatedAt,
	}
}

func (c *ProductConverterImpl) ToEntity(model *ProductModel) *domain.Product {
	return &domain.Product{
		ID:           model.ID,
		OfferID:      model.OfferID,
		Title:        model.Title,
		FullPrice:    model.FullPrice,
		Price:        model.Price,
		OldPrice:     fromNullDecimal(model.OldPrice),
		LowestPrice:  model.LowestPrice,
		InStock:      model.InStock,
		Preorder:     model.Preorder,
		URL:          model.URL,
		Image:        model.Image,
		Category:     model.Category,
		Format:       model.Format,
		Genre:        model.Genre,
		Publisher:    model.Publisher,
		Contributors: model.Contributors,
		CreatedAt:    model.CreatedAt,
		UpdatedAt:    model.UpdatedAt,
	}
}

func (c *ProductConverterImpl) ToArrEntity(models []*ProductModel) []*domain.Product {
	result := make([]*domain.Product, 0, len(models))
	for _, model := range models {
		result = append(result, c.ToEntity(model))
	}
	return result
}

type ProductUserConverterImpl struct{}

func NewProductUserConverterImpl() *ProductUserConverterImpl {
	return &ProductUserConverterImpl{}
}

func (c *ProductUserConverterImpl) ToEntity(model *ProductUserModel) *domain.ProductUser {
	return &domain.ProductUser{
		UserID:       model.UserID,
		ProductID:    model.ProductID,
		DesiredPrice: fromNullDecimal(model.DesiredPrice),
		Enabled:      model.Enabled,
	}
}

func (c *ProductUserConverterImpl) ToArrEntity(models []*ProductUserModel) []*domain.ProductUser {
	result := make([]*domain.ProductUser, 0, len(models))
	for _, model := range models {
		result = append(result, c.ToEntity(model))
	}
	return result
}

type ProductStatsConverterImpl struct{}

func NewProductStatsConverterImpl() *ProductStatsConverterImpl {
	return &ProductStatsConverterImpl{}
}

func (c *ProductStatsConverterImpl) ToModel(entity *domain.ProductStats) *ProductStatsModel {
	return &ProductStatsModel{
		ID:               entity.ID,
		ProductID:        entity.ProductID,
		Price:            entity.Price,
		OldPrice:         entity.OldPrice,
		PercentageChange: entity.PercentageChange,
		CreatedAt:        entity.CreatedAt,
	}
}

func toNullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func fromNullDecimal(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}
