package domain

import "time"

type User struct {
	UserID       string    `json:"id" dynamodbav:"user_id"`
	Username     string    `json:"usuario" dynamodbav:"username"`
	Email        string    `json:"email" dynamodbav:"email"`
	Phone        *string   `json:"phone,omitempty" dynamodbav:"phone"`
	PasswordHash string    `json:"-" dynamodbav:"password_hash"`
	Enable       int       `json:"enable" dynamodbav:"enable"`
	CreatedAt    time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated" dynamodbav:"updated_at"`
}

// RegisterRequest carries the public registration payload. Field names on the
// wire match the original front end (usuario/pass).
type RegisterRequest struct {
	Username string  `json:"usuario" validate:"required"`
	Email    string  `json:"email" validate:"required"`
	Password string  `json:"pass" validate:"required"`
	Phone    *string `json:"phone"`
}
