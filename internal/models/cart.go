package models

// CartLineItem 购物车行，同一商品只保留一行
type CartLineItem struct {
	ProductID      string `json:"product_id"`      // 商品ID
	Name           string `json:"name"`            // 商品名称快照
	UnitPrice      Money  `json:"unit_price"`      // 单价快照
	ImageURL       string `json:"image_url"`       // 图片快照
	AvailableStock int    `json:"available_stock"` // 加入时的库存快照
	Quantity       int    `json:"quantity"`        // 数量
}

// Subtotal 行小计
func (i CartLineItem) Subtotal() Money {
	return i.UnitPrice.Times(i.Quantity)
}

// Cart 购物车，按首次加入顺序排列
type Cart struct {
	Items []CartLineItem `json:"items"`
}

// ShippingInfo 收货信息，字段由前端表单决定
type ShippingInfo = JSON

// IndexOf 查找商品所在行，未找到返回 -1
func (c *Cart) IndexOf(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// Upsert 覆盖同商品行（数量替换而非累加），否则追加到末尾
func (c *Cart) Upsert(item CartLineItem) (replaced bool) {
	if idx := c.IndexOf(item.ProductID); idx >= 0 {
		c.Items[idx] = item
		return true
	}
	c.Items = append(c.Items, item)
	return false
}

// Remove 删除商品行，不存在时不做处理
func (c *Cart) Remove(productID string) bool {
	idx := c.IndexOf(productID)
	if idx < 0 {
		return false
	}
	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	return true
}

// Adjust 按增量调整数量，结果须落在 [1, 库存快照] 内，否则不修改
func (c *Cart) Adjust(productID string, delta int) bool {
	idx := c.IndexOf(productID)
	if idx < 0 || delta == 0 {
		return false
	}
	next := c.Items[idx].Quantity + delta
	if next < 1 || next > c.Items[idx].AvailableStock {
		return false
	}
	c.Items[idx].Quantity = next
	return true
}

// TotalUnits 商品总件数
func (c Cart) TotalUnits() int {
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}

// TotalPrice 商品总价
func (c Cart) TotalPrice() Money {
	total := Money{}
	for _, item := range c.Items {
		total = total.Plus(item.Subtotal())
	}
	return total
}

// IsEmpty 是否为空
func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}
