package domain

// Префиксы ключей регистрации.
const (
	StoreKeyPrefix   = "store:"
	CourierKeyPrefix = "courier:"
)

// StoreAccount — зарегистрированный магазин (ключ store:<code>).
type StoreAccount struct {
	Name      string `json:"name"`
	Code      string `json:"code"`
	CreatedAt string `json:"createdAt"`
}

// Courier — зарегистрированный курьер (ключ courier:<code>).
type Courier struct {
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Code      string `json:"code"`
	CreatedAt string `json:"createdAt"`
}
