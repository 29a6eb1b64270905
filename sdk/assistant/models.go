package assistant

import "time"

// TokenResponse is the shape returned by the login and refresh endpoints.
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	TokenType    string `json:"tokenType"`
	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int64 `json:"expiresIn"`
	User      *User `json:"user,omitempty"`
}

// User is the account profile as served by the backend.
type User struct {
	ID       int64   `json:"id"`
	Email    string  `json:"email"`
	Fullname string  `json:"fullname"`
	Phone    string  `json:"phone,omitempty"`
	Balance  float64 `json:"balance"`
	IsAdmin  bool    `json:"isAdmin"`
	Verified bool    `json:"verified"`
}

// Shop is one AI chat storefront owned by the account.
type Shop struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Currency    string    `json:"currency,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Product belongs to a shop and is offered through its chat storefront.
type Product struct {
	ID          int64   `json:"id"`
	ShopID      int64   `json:"shopId"`
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	ImageURL    string  `json:"imageUrl,omitempty"`
}

// Order statuses as the backend reports them.
const (
	OrderPending   = "PENDING"
	OrderConfirmed = "CONFIRMED"
	OrderShipping  = "SHIPPING"
	OrderDelivered = "DELIVERED"
	OrderCancelled = "CANCELLED"
)

// Order is a purchase placed through a shop's bot.
type Order struct {
	ID         int64     `json:"id"`
	ShopID     int64     `json:"shopId"`
	CustomerID int64     `json:"customerId"`
	Status     string    `json:"status"`
	Total      float64   `json:"total"`
	Note       string    `json:"note,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Customer is a chat user who interacted with one of the account's shops.
type Customer struct {
	ID        int64     `json:"id"`
	ShopID    int64     `json:"shopId"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	Platform  string    `json:"platform,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// BNBDeposit describes a pending crypto top-up.
type BNBDeposit struct {
	ID      int64   `json:"id"`
	Address string  `json:"address"`
	Amount  float64 `json:"amount"`
	Status  string  `json:"status"`
	TxHash  string  `json:"txHash,omitempty"`
}

// VNPayPayment is a VNPAY top-up in progress; PayURL is opened in the
// browser and the result arrives on the local return listener.
type VNPayPayment struct {
	Ref    string  `json:"ref"`
	Amount float64 `json:"amount"`
	PayURL string  `json:"payUrl"`
	Status string  `json:"status,omitempty"`
}

// VNPayResult is the outcome captured from the payment-return redirect.
type VNPayResult struct {
	Ref          string
	ResponseCode string
	Success      bool
}

// PaymentRecord is one entry of the account's top-up history.
type PaymentRecord struct {
	ID        int64     `json:"id"`
	Method    string    `json:"method"`
	Amount    float64   `json:"amount"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// IntegrationToken links a shop to an external messaging platform.
type IntegrationToken struct {
	ID       int64  `json:"id"`
	ShopID   int64  `json:"shopId"`
	Platform string `json:"platform"`
	Token    string `json:"token"`
	Active   bool   `json:"active"`
}

// TelegramBot is the state of a shop's Telegram bot process.
type TelegramBot struct {
	ShopID   int64  `json:"shopId"`
	Username string `json:"username,omitempty"`
	Running  bool   `json:"running"`
}
