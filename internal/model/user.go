package model

import "time"

const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleUser    = "user"
)

type User struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	Name       string    `json:"name"`
	Role       string    `json:"role"`
	Department string    `json:"department"`
	Position   string    `json:"position"`
	EmployeeID string    `json:"employee_id"`
	Timezone   string    `json:"timezone"`
	Phone      string    `json:"phone"`
	Address    string    `json:"address"`
	JoinDate   time.Time `json:"join_date"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
