package model

// CartLine 商品快照加上數量
// 序列化時商品欄位攤平，格式與瀏覽器 localStorage 相同: {id, name, ..., quantity}
type CartLine struct {
	Product
	Quantity int `json:"quantity"`
}

func (l CartLine) LineTotal() int64 {
	return l.Price * int64(l.Quantity)
}

// Cart 依加入順序排列，每個商品最多一行
type Cart struct {
	Lines []CartLine
}

func (c *Cart) IndexOf(productID int) int {
	for i, l := range c.Lines {
		if l.ID == productID {
			return i
		}
	}
	return -1
}

func (c *Cart) Find(productID int) (CartLine, bool) {
	if i := c.IndexOf(productID); i >= 0 {
		return c.Lines[i], true
	}
	return CartLine{}, false
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Count 購物車商品總件數
func (c *Cart) Count() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// Clone 深拷貝，修改前先複製，持久化成功後才替換
func (c *Cart) Clone() *Cart {
	lines := make([]CartLine, len(c.Lines))
	copy(lines, c.Lines)
	return &Cart{Lines: lines}
}

func (c *Cart) Remove(productID int) {
	i := c.IndexOf(productID)
	if i < 0 {
		return
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
}
