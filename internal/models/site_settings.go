package models

// SiteSettings stores storefront contact details and social links managed via
// the admin panel. There should be only one row.
type SiteSettings struct {
	BaseModel
	StoreName    string `json:"store_name"`
	Address      string `json:"address"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	WhatsApp     string `json:"whatsapp"`
	Instagram    string `json:"instagram"`
	Facebook     string `json:"facebook"`
	Youtube      string `json:"youtube"`
	Telegram     string `json:"telegram"`
	Announcement string `json:"announcement"`
	Copyright    string `json:"copyright"`
}
