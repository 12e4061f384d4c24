package model

import "time"

type Customer struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	ARRUSD      float64    `json:"arr_usd"`
	RenewalDate *time.Time `json:"renewal_date,omitempty"`
	IsSatisfied bool       `json:"is_satisfied"`
	IsAtRisk    bool       `json:"is_at_risk"`
	LogoURL     string     `json:"logo_url,omitempty"`
	Notes       string     `json:"notes,omitempty"`
	Contacts    []Contact  `json:"contacts,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type Contact struct {
	ID         string `json:"id"`
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
	Title      string `json:"title,omitempty"`
	Email      string `json:"email,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Notes      string `json:"notes,omitempty"`
	Position   int    `json:"position"`
}
