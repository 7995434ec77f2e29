package model

// Partner is the delivery-platform profile owned by a partner-role account.
type Partner struct {
	ID           int64   `json:"id"`
	PlatformName string  `json:"platform_name"`
	ContactEmail *string `json:"contact_email"`
	AccountID    int64   `json:"account_id"`
}
