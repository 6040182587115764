// Package models содержит доменные структуры маркетплейса: пользователей,
// каталог услуг, тарифные планы, подписки, счета, заявки и обращения в поддержку.
// Структуры используются в бизнес‑логике, хранилище и HTTP-ответах.
package models

import "time"

// Роли пользователей.
const (
	RoleClient  = "client"
	RoleHustler = "hustler"
)

// DefaultLanguage язык профиля по умолчанию.
const DefaultLanguage = "English"

// Address почтовый адрес пользователя.
type Address struct {
	Street  string `json:"street,omitempty" form:"street"`
	City    string `json:"city,omitempty" form:"city"`
	State   string `json:"state,omitempty" form:"state"`
	Country string `json:"country,omitempty" form:"country"`
	Zip     string `json:"zip,omitempty" form:"zip"`
}

// User представляет зарегистрированного пользователя системы.
type User struct {
	ID                   string     `json:"id"`
	FullName             string     `json:"full_name"`
	Email                string     `json:"email"`
	Phone                string     `json:"phone,omitempty"`
	PasswordHash         string     `json:"-"`
	Role                 string     `json:"role"`
	ProfileImage         string     `json:"profile_image,omitempty"`
	Address              Address    `json:"address"`
	IsVerified           bool       `json:"is_verified"`
	Language             string     `json:"language"`
	ResetPasswordToken   string     `json:"-"`
	ResetPasswordExpire  *time.Time `json:"-"`
	ActiveSubscriptionID *string    `json:"active_subscription_id,omitempty"`
	IsDeleted            bool       `json:"-"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// UserSummary минимальные данные владельца для вложения в другие ответы.
type UserSummary struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// Hustler исполнитель вместе с его услугами.
type Hustler struct {
	User
	Services []*HustlerService `json:"services"`
}

// ProfileUpdate изменяемые поля профиля. Пустые поля не меняются.
type ProfileUpdate struct {
	FullName     string   `json:"full_name" validate:"omitempty,min=3" form:"full_name"`
	Phone        string   `json:"phone" validate:"omitempty,min=10" form:"phone"`
	Language     string   `json:"language" form:"language"`
	ProfileImage string   `json:"-" form:"-"`
	Address      *Address `json:"address" form:"address"`
}

// DummyUser входные данные регистрации клиента.
type DummyUser struct {
	FullName     string `json:"full_name" validate:"required,min=3" form:"full_name"`
	Email        string `json:"email" validate:"required,email" form:"email"`
	Password     string `json:"password" validate:"required,min=6" form:"password"`
	Role         string `json:"role" validate:"omitempty,oneof=client hustler" form:"role"`
	Language     string `json:"language" form:"language"`
	ProfileImage string `json:"-" form:"-"`
}

// DummyHustler входные данные регистрации исполнителя вместе с первой услугой.
type DummyHustler struct {
	FullName            string   `json:"full_name" validate:"required,min=3" form:"full_name"`
	Email               string   `json:"email" validate:"required,email" form:"email"`
	Password            string   `json:"password" validate:"required,min=6" form:"password"`
	Phone               string   `json:"phone" validate:"required,min=10" form:"phone"`
	Language            string   `json:"language" form:"language"`
	ServiceCategoryID   string   `json:"service_category_id" validate:"required,uuid" form:"service_category_id"`
	BusinessName        string   `json:"business_name" validate:"required,min=3" form:"business_name"`
	BusinessDescription string   `json:"business_description" form:"business_description"`
	StartingPrice       float64  `json:"starting_price" validate:"gte=0" form:"starting_price"`
	ProfileImage        string   `json:"-" form:"-"`
	BusinessImages      []string `json:"-" form:"-"`
}

// Credentials данные для входа.
type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ForgotPasswordRequest запрос ссылки на сброс пароля.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest новый пароль по токену сброса.
type ResetPasswordRequest struct {
	Password string `json:"password" validate:"required,min=6"`
}

// PasswordChange смена пароля авторизованным пользователем.
type PasswordChange struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
}

// PhoneChange смена номера телефона.
type PhoneChange struct {
	Phone string `json:"phone" validate:"required,min=10"`
}
