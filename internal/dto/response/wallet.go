package response

type WalletResponse struct {
	UserID  string  `json:"user_id"`
	Balance float64 `json:"balance"`
}
