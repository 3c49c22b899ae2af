package services

import (
	"database/sql"
	"errors"

	"borgo/internal/domain"
	"borgo/internal/form"
	"borgo/internal/repos"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrBadCreds     = errors.New("invalid email or password")
	ErrStaffAccount = errors.New("staff accounts cannot be removed")
)

type AuthService struct {
	Users *repos.UserRepo
}

func (s *AuthService) Login(sid, email, password string) (*domain.User, error) {
	u, err := s.Users.ByEmail(email)
	if err != nil {
		return nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return nil, ErrBadCreds
	}
	if err := s.Users.BindSession(sid, u.ID); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *AuthService) Logout(sid string) error {
	return s.Users.UnbindSession(sid)
}

func (s *AuthService) CurrentUser(sid string) (*domain.User, error) {
	return s.Users.SessionUser(sid)
}

func (s *AuthService) Customers() ([]domain.User, error) {
	out, err := s.Users.ListCustomers()
	if err != nil {
		return nil, domain.Persistence("user.list", err)
	}
	return out, nil
}

// DeleteCustomer removes a customer account and its sessions. Their orders
// stay on the board without the account link.
func (s *AuthService) DeleteCustomer(id string) error {
	u, err := s.Users.ByID(id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return domain.Persistence("user.get", err)
	}
	if u.IsAdmin() {
		return ErrStaffAccount
	}
	if err := s.Users.DeleteUserCascade(id); err != nil {
		return domain.Persistence("user.delete", err)
	}
	return nil
}

// Profile projects a customer account onto the order form identity.
func Profile(u *domain.User) form.Identity {
	return form.Identity{FirstName: u.FirstName, LastName: u.LastName, Phone: u.Phone, Email: u.Email}
}
