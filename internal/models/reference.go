package models

// Status представляет статус задачи, определённый на сервере.
type Status struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	IsClosed  bool   `json:"isClosed"`
	IsDefault bool   `json:"isDefault"`
	Position  int    `json:"position"`
}

// Type представляет тип задачи (Task, Bug и т.д.).
type Type struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color,omitempty"`
	IsMilestone bool   `json:"isMilestone"`
	IsDefault   bool   `json:"isDefault"`
	Position    int    `json:"position"`
}

// Project представляет проект в OpenProject.
type Project struct {
	ID          int          `json:"id"`
	Identifier  string       `json:"identifier"`
	Name        string       `json:"name"`
	Active      bool         `json:"active"`
	Public      bool         `json:"public"`
	Description *Formattable `json:"description"`
	CreatedAt   string       `json:"createdAt"`
	UpdatedAt   string       `json:"updatedAt"`
}

// User представляет пользователя OpenProject.
type User struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Login     string `json:"login"`
	Status    string `json:"status"`
	Admin     bool   `json:"admin"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// RelationLinks связанные задачи отношения.
type RelationLinks struct {
	From *Link `json:"from"`
	To   *Link `json:"to"`
}

// Relation представляет отношение между двумя задачами.
type Relation struct {
	ID          int           `json:"id"`
	Name        string        `json:"name"`
	Type        string        `json:"type"`
	ReverseType string        `json:"reverseType"`
	Lag         int           `json:"lag"`
	Links       RelationLinks `json:"_links"`
}
