package models

// AlertType — тип уведомления для пользователя.
type AlertType string

const (
	AlertSuccess AlertType = "success"
	AlertError   AlertType = "error"
	AlertInfo    AlertType = "info"
)

// Alert — одно уведомление (баннер на странице входа, сообщение виджета лицензий).
type Alert struct {
	Type AlertType `json:"type"`
	Text string    `json:"text"`
}

// Outcome — результат действия над лицензией для адаптера:
// уведомление (если есть) и адрес редиректа (если нужен).
type Outcome struct {
	Alert    *Alert
	Redirect string
}
