package converter

import (
	"github.com/itsManeka/gibipromo-sub001/internal/usecase"
	"github.com/shopspring/decimal"
)

// ProductInfoRedisModel — сериализуемое представление снимка товара в кэше.
// Цены хранятся строками: JSON-представление float искажает денежные значения.
type ProductInfoRedisModel struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	URL      string  `json:"url"`
	Image    string  `json:"image"`
	Price    string  `json:"price"`
	OldPrice *string `json:"old_price,omitempty"`
}

// ProductInfoConverter преобразует снимки товара между usecase и моделью Redis.
type ProductInfoConverter interface {
	ToRedisModel(info *usecase.ProductInfo) *ProductInfoRedisModel
	ToUseCase(model *ProductInfoRedisModel) (*usecase.ProductInfo, error)
}

type ProductInfoConverterImpl struct{}

func NewProductInfoConverterImpl() *ProductInfoConverterImpl {
	return &ProductInfoConverterImpl{}
}

func (c *ProductInfoConverterImpl) ToRedisModel(info *usecase.ProductInfo) *ProductInfoRedisModel {
	model := &ProductInfoRedisModel{
		ID:    info.ID,
		Title: info.Title,
		URL:   info.URL,
		Image: info.Image,
		Price: info.Price.String(),
	}

	if info.OldPrice != nil {
		s := info.OldPrice.String()
		model.OldPrice = &s
	}

	return model
}

func (c *ProductInfoConverterImpl) ToUseCase(model *ProductInfoRedisModel) (*usecase.ProductInfo, error) {
	price, err := decimal.NewFromString(model.Price)
	if err != nil {
		return nil, err
	}

	info := &usecase.ProductInfo{
		ID:    model.ID,
		Title: model.Title,
		URL:   model.URL,
		Image: model.Image,
		Price: price,
	}

	if model.OldPrice != nil {
		oldPrice, err := decimal.NewFromString(*model.OldPrice)
		if err != nil {
			return nil, err
		}
		info.OldPrice = &oldPrice
	}

	return info, nil
}
