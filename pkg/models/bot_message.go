package models

// BotMessage is an admin-editable text template, looked up by slug
type BotMessage struct {
	ID          int64  `json:"id" db:"id"`
	Slug        string `json:"slug" db:"slug"`
	Text        string `json:"text" db:"text"`
	Description string `json:"description" db:"description"`
}

// BotSetting is a runtime key/value setting (e.g. the support group chat id)
type BotSetting struct {
	Key   string `json:"key" db:"key"`
	Value string `json:"value" db:"value"`
}
