package models

import "time"

// ServiceCategory категория услуг маркетплейса.
type ServiceCategory struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsDeleted   bool      `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

// HustlerService услуга, которую предлагает исполнитель.
type HustlerService struct {
	ID                string           `json:"id"`
	UserID            string           `json:"user_id"`
	Name              string           `json:"name"`
	Description       string           `json:"description,omitempty"`
	Images            []string         `json:"images"`
	ServiceCategoryID string           `json:"service_category_id"`
	StartingPrice     float64          `json:"starting_price"`
	Category          *ServiceCategory `json:"service_category,omitempty"`
	Owner             *UserSummary     `json:"user,omitempty"`
	IsDeleted         bool             `json:"-"`
	CreatedAt         time.Time        `json:"created_at"`
}

// DummyHustlerService входные данные для добавления услуги.
type DummyHustlerService struct {
	Name              string  `json:"name" validate:"required,min=3" form:"name"`
	Description       string  `json:"description" validate:"required,min=10" form:"description"`
	ServiceCategoryID string  `json:"service_category_id" validate:"required,uuid" form:"service_category_id"`
	StartingPrice     float64 `json:"starting_price" validate:"gte=0" form:"starting_price"`
}

// Статусы заявки на поиск исполнителя.
const (
	JobPostOpen       = "open"
	JobPostClosed     = "closed"
	JobPostInProgress = "in-progress"
)

// JobPost заявка клиента на поиск исполнителя.
type JobPost struct {
	ID                string           `json:"id"`
	Title             string           `json:"title"`
	Description       string           `json:"description"`
	Budget            float64          `json:"budget"`
	ServiceCategoryID string           `json:"service_category_id"`
	Location          string           `json:"location"`
	Languages         []string         `json:"languages"`
	Images            []string         `json:"images"`
	CreatedBy         string           `json:"created_by"`
	Status            string           `json:"status"`
	Category          *ServiceCategory `json:"service_category,omitempty"`
	Author            *UserSummary     `json:"author,omitempty"`
	IsDeleted         bool             `json:"-"`
	CreatedAt         time.Time        `json:"created_at"`
	UpdatedAt         time.Time        `json:"updated_at"`
}

// DummyJobPost входные данные заявки. Languages приходит строкой: JSON-массив или список через запятую.
type DummyJobPost struct {
	Title             string  `json:"title" validate:"required,min=3" form:"title"`
	Description       string  `json:"description" validate:"required,min=10" form:"description"`
	Budget            float64 `json:"budget" validate:"gte=0" form:"budget"`
	ServiceCategoryID string  `json:"service_category_id" validate:"required,uuid" form:"service_category_id"`
	Location          string  `json:"location" validate:"required,min=3" form:"location"`
	Languages         string  `json:"languages" form:"languages"`
}

// Статусы обращения в поддержку.
const (
	SupportOpen     = "open"
	SupportResolved = "resolved"
)

// AdminReply ответ администратора на обращение.
type AdminReply struct {
	Text      string     `json:"text,omitempty"`
	RepliedAt *time.Time `json:"replied_at,omitempty"`
}

// SupportMessage обращение пользователя в поддержку.
type SupportMessage struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Subject    string     `json:"subject"`
	Message    string     `json:"message"`
	Image      string     `json:"image,omitempty"`
	AdminReply AdminReply `json:"admin_reply"`
	Status     string     `json:"status"`
	IsDeleted  bool       `json:"-"`
	CreatedAt  time.Time  `json:"created_at"`
}

// DummySupportMessage входные данные обращения в поддержку.
type DummySupportMessage struct {
	Subject string `json:"subject" validate:"required,min=3" form:"subject"`
	Message string `json:"message" validate:"required,min=10" form:"message"`
}
