package entities

import (
	"time"
)

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:100" json:"username"`
	Email        string    `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash string    `gorm:"size:100" json:"-"`
	IsAdmin      bool      `gorm:"default:false" json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Login throttling
	FailedLoginCount int        `gorm:"default:0" json:"-"`
	LockedUntil      *time.Time `json:"-"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`

	// API token auth. Only the hash is stored.
	TokenHash      string     `gorm:"size:64;index" json:"-"`
	TokenCreatedAt *time.Time `json:"-"`
}

type Section struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:100" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Book struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	SectionID   uint      `gorm:"index" json:"section_id"`
	Name        string    `gorm:"index;size:256" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Author      string    `gorm:"index;size:256" json:"author"`
	FileName    string    `gorm:"size:256" json:"file_name"` // name of the stored file, not a path
	Section     Section   `gorm:"foreignKey:SectionID" json:"section,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BookRequest is a pending borrow request. The composite unique index on
// (user_id, book_id) is what actually closes the check-then-act race on
// duplicate requests; the service-level check only produces a nicer error.
type BookRequest struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"uniqueIndex:idx_request_user_book" json:"user_id"`
	BookID      uint      `gorm:"uniqueIndex:idx_request_user_book" json:"book_id"`
	RequestDate time.Time `json:"request_date"`
	ReturnDate  time.Time `json:"return_date"`
	Status      bool      `gorm:"default:true" json:"status"`
	User        User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Book        Book      `gorm:"foreignKey:BookID" json:"book,omitempty"`
}

// IssuedBook is an active loan, created only by approving a BookRequest.
type IssuedBook struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"uniqueIndex:idx_issue_user_book" json:"user_id"`
	BookID     uint      `gorm:"uniqueIndex:idx_issue_user_book" json:"book_id"`
	IssueDate  time.Time `json:"issue_date"`
	ReturnDate time.Time `json:"return_date"`
	User       User      `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Book       Book      `gorm:"foreignKey:BookID" json:"book,omitempty"`
}

// Rating is a user's one-time review of a book. Immutable once created.
type Rating struct {
	ID       uint      `gorm:"primaryKey" json:"id"`
	UserID   uint      `gorm:"uniqueIndex:idx_rating_user_book" json:"user_id"`
	BookID   uint      `gorm:"uniqueIndex:idx_rating_user_book" json:"book_id"`
	Rating   int       `json:"rating"` // 1-5
	Feedback string    `gorm:"type:text" json:"feedback"`
	RatedAt  time.Time `json:"rated_at"`
	User     User      `gorm:"foreignKey:UserID" json:"-"`
	Book     Book      `gorm:"foreignKey:BookID" json:"-"`
}

func (User) TableName() string {
	return "users"
}

func (Section) TableName() string {
	return "sections"
}

func (Book) TableName() string {
	return "books"
}

func (BookRequest) TableName() string {
	return "book_requests"
}

func (IssuedBook) TableName() string {
	return "issued_books"
}

func (Rating) TableName() string {
	return "ratings"
}
