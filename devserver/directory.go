package devserver

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// RoleType is a hotel staff or guest role
type RoleType string

const (
	RoleGuest        RoleType = "GUEST"        // Books and views their own stays
	RoleEmployee     RoleType = "EMPLOYEE"     // Housekeeping, maintenance
	RoleReceptionist RoleType = "RECEPTIONIST" // Check-in, check-out, bookings for guests
	RoleManager      RoleType = "MANAGER"      // Everything, including staff management
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type User struct {
	ID           string    `json:"id,omitempty"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"` // never serialize
	FirstName    string    `json:"firstName,omitempty"`
	LastName     string    `json:"lastName,omitempty"`
	Role         RoleType  `json:"role,omitempty"`
	DateJoined   time.Time `json:"dateJoined,omitempty"`
	Blocked      bool      `json:"blocked,omitempty"`
}

// Directory is an in-memory user store keyed by ID and email.
type Directory struct {
	lock     sync.RWMutex
	users    map[string]*User
	emailIDs map[string]string
}

func NewDirectory() *Directory {
	return &Directory{
		users:    make(map[string]*User),
		emailIDs: make(map[string]string),
	}
}

// DemoUsers are seeded by SeedDemoUsers, one per role. They all share
// DemoPassword.
var DemoUsers = []User{
	{Email: "guest@hotel.test", FirstName: "Grace", LastName: "Guest", Role: RoleGuest},
	{Email: "employee@hotel.test", FirstName: "Evan", LastName: "Employee", Role: RoleEmployee},
	{Email: "reception@hotel.test", FirstName: "Rita", LastName: "Reception", Role: RoleReceptionist},
	{Email: "manager@hotel.test", FirstName: "Max", LastName: "Manager", Role: RoleManager},
}

const DemoPassword = "Hotel1234"

func (d *Directory) SeedDemoUsers() error {
	for _, u := range DemoUsers {
		if _, err := d.Add(&u, DemoPassword); err != nil {
			return fmt.Errorf("[Directory SeedDemoUsers] %s: %w", u.Email, err)
		}
	}
	return nil
}

// Add stores user with a bcrypt hash of password. An empty role becomes GUEST.
func (d *Directory) Add(user *User, password string) (*User, error) {
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("[Directory Add] %w", err)
	}

	d.lock.Lock()
	defer d.lock.Unlock()

	email := normaliseEmail(user.Email)
	if _, ok := d.emailIDs[email]; ok {
		return nil, ErrUserExists
	}

	u := *user
	u.Email = email
	u.PasswordHash = hash
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.Role == "" {
		u.Role = RoleGuest
	}
	if u.DateJoined.IsZero() {
		u.DateJoined = time.Now()
	}
	d.users[u.ID] = &u
	d.emailIDs[email] = u.ID
	return &u, nil
}

// Authenticate returns the user for email if password matches. Unknown
// emails and wrong passwords are indistinguishable to the caller.
func (d *Directory) Authenticate(email, password string) (*User, error) {
	d.lock.RLock()
	id, ok := d.emailIDs[normaliseEmail(email)]
	var u *User
	if ok {
		u = d.users[id]
	}
	d.lock.RUnlock()

	if u == nil || u.Blocked || !CheckPasswordHash(password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (d *Directory) GetByID(id string) (*User, error) {
	d.lock.RLock()
	defer d.lock.RUnlock()

	u, ok := d.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}

func (d *Directory) SetBlocked(email string, blocked bool) error {
	d.lock.Lock()
	defer d.lock.Unlock()

	id, ok := d.emailIDs[normaliseEmail(email)]
	if !ok {
		return ErrUserNotFound
	}
	d.users[id].Blocked = blocked
	return nil
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		}
	}

	if !hasUpper || !hasLower {
		return fmt.Errorf("password must contain upper and lower case letters")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}
	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
