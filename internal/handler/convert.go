package handler

import (
	"github.com/flicky/go-storefront/internal/dto"
	"github.com/flicky/go-storefront/internal/model"
)

func toCartItemResponse(it model.CartItem) dto.CartItemResponse {
	return dto.CartItemResponse{
		ID:    it.ProductID,
		Name:  it.Name,
		Price: it.Price,
		Qty:   it.Quantity,
		Image: it.Image,
	}
}

func toOrderResponse(o *model.Order) dto.OrderResponse {
	resp := dto.OrderResponse{
		OrderID:   o.OrderID,
		UserID:    o.UserID,
		Email:     o.Email,
		FirstName: o.FirstName,
		LastName:  o.LastName,
		Address:   o.Address,
		City:      o.City,
		State:     o.State,
		Postcode:  o.Postcode,
		Total:     o.Total,
		Status:    string(o.Status),
		CreatedAt: o.CreatedAt,
	}
	if o.Items != nil {
		resp.Items = make([]dto.OrderItemResponse, 0, len(o.Items))
		for _, it := range o.Items {
			resp.Items = append(resp.Items, dto.OrderItemResponse{
				ProductID:   it.ProductID,
				ProductName: it.Name,
				Price:       it.Price,
				Qty:         it.Quantity,
			})
		}
	}
	return resp
}

func toAddressResponse(a *model.Address) *dto.AddressResponse {
	if a == nil {
		return nil
	}
	return &dto.AddressResponse{
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Address:   a.Address,
		Address2:  a.Address2,
		City:      a.City,
		State:     a.State,
		Postcode:  a.Postcode,
		Phone:     a.Phone,
		Email:     a.Email,
	}
}

func toProductResponse(p model.Product) dto.ProductResponse {
	resp := dto.ProductResponse{
		ID:            p.ID,
		Slug:          p.Slug,
		Name:          p.Name,
		SKU:           p.SKU,
		Price:         p.Price,
		Stock:         p.Stock,
		Description:   p.Description,
		Img1:          p.Img1,
		Img2:          p.Img2,
		Images:        p.Images,
		AllCategories: p.Categories,
	}
	if resp.Images == nil {
		resp.Images = []string{}
	}
	if resp.AllCategories == nil {
		resp.AllCategories = []string{}
	}
	if len(p.Categories) > 0 {
		resp.Category = p.Categories[0]
	}
	return resp
}

func toProductResponses(ps []model.Product) []dto.ProductResponse {
	out := make([]dto.ProductResponse, 0, len(ps))
	for _, p := range ps {
		out = append(out, toProductResponse(p))
	}
	return out
}

func toCategoryResponses(cs []model.Category) []dto.CategoryResponse {
	out := make([]dto.CategoryResponse, 0, len(cs))
	for _, c := range cs {
		out = append(out, dto.CategoryResponse{
			ID:           c.ID,
			Slug:         c.Slug,
			Name:         c.Name,
			Image:        c.Image,
			ProductCount: c.ProductCount,
			ActualCount:  c.ActualCount,
		})
	}
	return out
}
