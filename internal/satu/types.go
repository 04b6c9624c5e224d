package satu

// Option is a named delivery or payment option attached to an order.
// A missing option arrives as JSON null.
type Option struct {
	Name string `json:"name"`
}

// Product is one ordered item.
type Product struct {
	Name string `json:"name"`
}

// Order is the raw record returned by the source order-management API.
// Price is text and may carry spacing and currency noise.
type Order struct {
	Price           string    `json:"price"`
	DeliveryAddress string    `json:"delivery_address"`
	DeliveryOption  *Option   `json:"delivery_option"`
	PaymentOption   *Option   `json:"payment_option"`
	Products        []Product `json:"products"`
	ClientFirstName string    `json:"client_first_name"`
	ClientLastName  string    `json:"client_last_name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone"`
}

type ordersResponse struct {
	Orders []Order `json:"orders"`
}
