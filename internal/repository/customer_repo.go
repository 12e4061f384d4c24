package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"crmserver/internal/model"
)

type CustomerRepository struct {
	db *pgxpool.Pool
}

func NewCustomerRepository(db *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// Insert creates a customer row.
func (r *CustomerRepository) Insert(ctx context.Context, c *model.Customer) error {
	query := `
        INSERT INTO customers (id, name, arr_usd, renewal_date, is_satisfied, is_at_risk, logo_url, notes, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
        RETURNING created_at, updated_at
    `
	return r.db.QueryRow(ctx, query,
		c.ID,
		c.Name,
		c.ARRUSD,
		c.RenewalDate,
		c.IsSatisfied,
		c.IsAtRisk,
		c.LogoURL,
		c.Notes,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
}

// FindByID returns a customer with its contacts.
func (r *CustomerRepository) FindByID(ctx context.Context, id string) (*model.Customer, error) {
	query := `
        SELECT id, name, arr_usd, renewal_date, is_satisfied, is_at_risk, logo_url, notes, created_at, updated_at
        FROM customers
        WHERE id = $1
    `
	var c model.Customer
	err := r.db.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.Name,
		&c.ARRUSD,
		&c.RenewalDate,
		&c.IsSatisfied,
		&c.IsAtRisk,
		&c.LogoURL,
		&c.Notes,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	contacts, err := r.ListContacts(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Contacts = contacts
	return &c, nil
}

// List returns all customers without contacts.
func (r *CustomerRepository) List(ctx context.Context) ([]model.Customer, error) {
	query := `
        SELECT id, name, arr_usd, renewal_date, is_satisfied, is_at_risk, logo_url, notes, created_at, updated_at
        FROM customers
        ORDER BY name
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	customers := []model.Customer{}
	for rows.Next() {
		var c model.Customer
		if err := rows.Scan(
			&c.ID,
			&c.Name,
			&c.ARRUSD,
			&c.RenewalDate,
			&c.IsSatisfied,
			&c.IsAtRisk,
			&c.LogoURL,
			&c.Notes,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// Update overwrites all mutable customer fields.
func (r *CustomerRepository) Update(ctx context.Context, c *model.Customer) error {
	query := `
        UPDATE customers
        SET name = $2, arr_usd = $3, renewal_date = $4, is_satisfied = $5, is_at_risk = $6, logo_url = $7, notes = $8, updated_at = NOW()
        WHERE id = $1
        RETURNING updated_at
    `
	return r.db.QueryRow(ctx, query,
		c.ID,
		c.Name,
		c.ARRUSD,
		c.RenewalDate,
		c.IsSatisfied,
		c.IsAtRisk,
		c.LogoURL,
		c.Notes,
	).Scan(&c.UpdatedAt)
}

// Delete removes the customer. Contacts, tasks, meetings and summaries
// go with it via FK cascade.
func (r *CustomerRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	return err
}

// AddContact appends a contact at the end of the customer's list.
func (r *CustomerRepository) AddContact(ctx context.Context, ct *model.Contact) error {
	query := `
        INSERT INTO contacts (id, customer_id, name, title, email, phone, notes, position)
        VALUES ($1, $2, $3, $4, $5, $6, $7,
            COALESCE((SELECT MAX(position) + 1 FROM contacts WHERE customer_id = $2), 0))
        RETURNING position
    `
	return r.db.QueryRow(ctx, query,
		ct.ID,
		ct.CustomerID,
		ct.Name,
		ct.Title,
		ct.Email,
		ct.Phone,
		ct.Notes,
	).Scan(&ct.Position)
}

// ListContacts returns the customer's contacts in list order.
func (r *CustomerRepository) ListContacts(ctx context.Context, customerID string) ([]model.Contact, error) {
	query := `
        SELECT id, customer_id, name, title, email, phone, notes, position
        FROM contacts
        WHERE customer_id = $1
        ORDER BY position
    `
	rows, err := r.db.Query(ctx, query, customerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []model.Contact{}
	for rows.Next() {
		var ct model.Contact
		if err := rows.Scan(
			&ct.ID,
			&ct.CustomerID,
			&ct.Name,
			&ct.Title,
			&ct.Email,
			&ct.Phone,
			&ct.Notes,
			&ct.Position,
		); err != nil {
			return nil, err
		}
		contacts = append(contacts, ct)
	}
	return contacts, rows.Err()
}

// DeleteContact removes one contact from the customer.
func (r *CustomerRepository) DeleteContact(ctx context.Context, customerID, contactID string) error {
	_, err := r.db.Exec(ctx,
		`DELETE FROM contacts WHERE id = $1 AND customer_id = $2`,
		contactID, customerID,
	)
	return err
}
