package model

import "time"

type UserStatus string

const (
	UserActive   UserStatus = "active"
	UserInactive UserStatus = "inactive"
)

type User struct {
	ID            int64      `json:"id"`
	UserName      string     `json:"user_name"`
	Email         string     `json:"email"`
	FullName      string     `json:"full_name"`
	WalletBalance float64    `json:"wallet_balance"`
	Status        UserStatus `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
}
