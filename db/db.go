package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Сентинельные ошибки хранилища, обработчики переводят их в HTTP-статусы
var (
	ErrEmailTaken   = errors.New("email already registered")
	ErrDuplicateBid = errors.New("bid already exists for this gig and freelancer")
	ErrGigClosed    = errors.New("gig closed to bidding")
	ErrGigAssigned  = errors.New("gig already assigned")
)

type Storage struct {
	db *sqlx.DB
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

// isUniqueViolation проверяет код 23505 (unique_violation) от Postgres
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// User (Пользователь)
type User struct {
	ID           int       `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"-"`
}

func (s *Storage) CreateUser(ctx context.Context, u *User) error {
	query := `
        INSERT INTO users (name, email, password_hash)
        VALUES ($1, $2, $3)
        RETURNING id, created_at, updated_at`
	err := s.db.QueryRowContext(ctx, query, u.Name, u.Email, u.PasswordHash).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrEmailTaken
	}
	return err
}

func (s *Storage) GetUser(ctx context.Context, id int) (*User, error) {
	u := &User{}
	query := `SELECT * FROM users WHERE id=$1`
	err := s.db.GetContext(ctx, u, query, id)
	return u, err
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	u := &User{}
	query := `SELECT * FROM users WHERE email=$1`
	err := s.db.GetContext(ctx, u, query, email)
	return u, err
}

// Gig (Заказ)
type Gig struct {
	ID                int       `db:"id" json:"id"`
	Title             string    `db:"title" json:"title"`
	Description       string    `db:"description" json:"description"`
	Budget            int       `db:"budget" json:"budget"`
	Status            string    `db:"status" json:"status"`
	OwnerID           int       `db:"owner_id" json:"ownerId"`
	HiredFreelancerID *int      `db:"hired_freelancer_id" json:"hiredFreelancerId"`
	CreatedAt         time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time `db:"updated_at" json:"-"`
}

// GigDetails — заказ с присоединёнными данными владельца и нанятого фрилансера
type GigDetails struct {
	Gig
	OwnerName  string  `db:"owner_name" json:"ownerName"`
	OwnerEmail string  `db:"owner_email" json:"ownerEmail"`
	HiredName  *string `db:"hired_name" json:"hiredName"`
	HiredEmail *string `db:"hired_email" json:"hiredEmail"`
}

const gigDetailsSelect = `
    SELECT g.*,
           o.name AS owner_name, o.email AS owner_email,
           f.name AS hired_name, f.email AS hired_email
    FROM gig g
    JOIN users o ON g.owner_id = o.id
    LEFT JOIN users f ON g.hired_freelancer_id = f.id`

func (s *Storage) CreateGig(ctx context.Context, g *Gig) error {
	query := `
        INSERT INTO gig (title, description, budget, status, owner_id)
        VALUES ($1, $2, $3, 'open', $4)
        RETURNING id, status, created_at, updated_at`
	return s.db.QueryRowContext(ctx, query, g.Title, g.Description, g.Budget, g.OwnerID).
		Scan(&g.ID, &g.Status, &g.CreatedAt, &g.UpdatedAt)
}

func (s *Storage) GetGig(ctx context.Context, id int) (*Gig, error) {
	g := &Gig{}
	query := `SELECT * FROM gig WHERE id=$1`
	err := s.db.GetContext(ctx, g, query, id)
	return g, err
}

func (s *Storage) GetGigDetails(ctx context.Context, id int) (*GigDetails, error) {
	g := &GigDetails{}
	query := gigDetailsSelect + ` WHERE g.id=$1`
	err := s.db.GetContext(ctx, g, query, id)
	return g, err
}

// GetGigs возвращает заказы с фильтрами по статусу и подстроке заголовка
func (s *Storage) GetGigs(ctx context.Context, search, status string) ([]GigDetails, error) {
	query := gigDetailsSelect
	var args []interface{}
	var filters []string

	if status != "" {
		args = append(args, status)
		filters = append(filters, fmt.Sprintf("g.status = $%d", len(args)))
	}
	if search != "" {
		args = append(args, "%"+escapeLike(search)+"%")
		filters = append(filters, fmt.Sprintf("g.title ILIKE $%d", len(args)))
	}
	for i, f := range filters {
		if i == 0 {
			query += " WHERE " + f
		} else {
			query += " AND " + f
		}
	}
	query += " ORDER BY g.created_at DESC"

	gigs := []GigDetails{}
	err := s.db.SelectContext(ctx, &gigs, query, args...)
	return gigs, err
}

// escapeLike экранирует спецсимволы LIKE, чтобы поиск был по подстроке буквально
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (s *Storage) GetUserGigs(ctx context.Context, ownerID int) ([]GigDetails, error) {
	query := gigDetailsSelect + ` WHERE g.owner_id = $1 ORDER BY g.created_at DESC`
	gigs := []GigDetails{}
	err := s.db.SelectContext(ctx, &gigs, query, ownerID)
	return gigs, err
}

// UpdateGig меняет только редактируемые владельцем поля
func (s *Storage) UpdateGig(ctx context.Context, g *Gig) error {
	query := `
        UPDATE gig
        SET title=$1, description=$2, budget=$3, updated_at=NOW()
        WHERE id=$4`
	_, err := s.db.ExecContext(ctx, query, g.Title, g.Description, g.Budget, g.ID)
	return err
}

// DeleteGig удаляет заказ вместе со всеми его предложениями
func (s *Storage) DeleteGig(ctx context.Context, id int) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM bid WHERE gig_id=$1`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM gig WHERE id=$1`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// Bid (Предложение)
type Bid struct {
	ID           int       `db:"id" json:"id"`
	GigID        int       `db:"gig_id" json:"gigId"`
	FreelancerID int       `db:"freelancer_id" json:"freelancerId"`
	Message      string    `db:"message" json:"message"`
	Price        int       `db:"price" json:"price"`
	Status       string    `db:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"-"`
}

// BidDetails — предложение с данными фрилансера и контекстом заказа
type BidDetails struct {
	Bid
	FreelancerName  string `db:"freelancer_name" json:"freelancerName"`
	FreelancerEmail string `db:"freelancer_email" json:"freelancerEmail"`
	GigTitle        string `db:"gig_title" json:"gigTitle"`
	GigStatus       string `db:"gig_status" json:"gigStatus"`
	GigBudget       int    `db:"gig_budget" json:"gigBudget"`
	GigOwnerID      int    `db:"gig_owner_id" json:"gigOwnerId"`
}

const bidDetailsSelect = `
    SELECT b.*,
           u.name AS freelancer_name, u.email AS freelancer_email,
           g.title AS gig_title, g.status AS gig_status,
           g.budget AS gig_budget, g.owner_id AS gig_owner_id
    FROM bid b
    JOIN users u ON b.freelancer_id = u.id
    JOIN gig g ON b.gig_id = g.id`

// CreateBid вставляет предложение только пока заказ открыт: условный INSERT
// закрывает гонку с параллельным наймом, который забирает заказ между
// проверкой статуса в обработчике и самой вставкой
func (s *Storage) CreateBid(ctx context.Context, b *Bid) error {
	query := `
        INSERT INTO bid (gig_id, freelancer_id, message, price, status)
        SELECT $1, $2, $3, $4, 'pending'
        WHERE EXISTS (SELECT 1 FROM gig WHERE id = $1 AND status = 'open')
        RETURNING id, status, created_at, updated_at`
	err := s.db.QueryRowContext(ctx, query, b.GigID, b.FreelancerID, b.Message, b.Price).
		Scan(&b.ID, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if isUniqueViolation(err) {
		// Гонка двух одновременных предложений закрывается уникальным индексом
		return ErrDuplicateBid
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrGigClosed
	}
	return err
}

func (s *Storage) GetBid(ctx context.Context, id int) (*Bid, error) {
	b := &Bid{}
	query := `SELECT * FROM bid WHERE id=$1`
	err := s.db.GetContext(ctx, b, query, id)
	return b, err
}

func (s *Storage) GetBidDetails(ctx context.Context, id int) (*BidDetails, error) {
	b := &BidDetails{}
	query := bidDetailsSelect + ` WHERE b.id=$1`
	err := s.db.GetContext(ctx, b, query, id)
	return b, err
}

func (s *Storage) HasBid(ctx context.Context, gigID, freelancerID int) (bool, error) {
	var count int
	query := `SELECT COUNT(1) FROM bid WHERE gig_id=$1 AND freelancer_id=$2`
	err := s.db.GetContext(ctx, &count, query, gigID, freelancerID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Storage) GetBidsForGig(ctx context.Context, gigID int) ([]BidDetails, error) {
	query := bidDetailsSelect + ` WHERE b.gig_id = $1 ORDER BY b.created_at DESC`
	bids := []BidDetails{}
	err := s.db.SelectContext(ctx, &bids, query, gigID)
	return bids, err
}

func (s *Storage) GetUserBids(ctx context.Context, freelancerID int) ([]BidDetails, error) {
	query := bidDetailsSelect + ` WHERE b.freelancer_id = $1 ORDER BY b.created_at DESC`
	bids := []BidDetails{}
	err := s.db.SelectContext(ctx, &bids, query, freelancerID)
	return bids, err
}

// HireBid выполняет найм одной транзакцией: условный перевод заказа
// open -> assigned, статус hired выбранному предложению, rejected остальным.
// Условие status='open' в UPDATE защищает от параллельного найма: если заказ
// уже занят, обновится ноль строк и транзакция откатится с ErrGigAssigned.
func (s *Storage) HireBid(ctx context.Context, gigID, bidID, freelancerID int) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
        UPDATE gig
        SET status='assigned', hired_freelancer_id=$1, updated_at=NOW()
        WHERE id=$2 AND status='open'`,
		freelancerID, gigID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrGigAssigned
	}

	_, err = tx.ExecContext(ctx, `
        UPDATE bid SET status='hired', updated_at=NOW() WHERE id=$1`, bidID)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `
        UPDATE bid SET status='rejected', updated_at=NOW()
        WHERE gig_id=$1 AND id <> $2`, gigID, bidID)
	if err != nil {
		return err
	}

	return tx.Commit()
}
