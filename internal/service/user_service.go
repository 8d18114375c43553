package service

import (
	"context"
	"strings"

	"inkwell/internal/middleware"
	"inkwell/internal/models"
	"inkwell/internal/repository"
	"inkwell/internal/validation"

	"golang.org/x/crypto/bcrypt"
)

const (
	usernameTakenMessage    = "A user with that username already exists."
	passwordMismatchMessage = "The two password fields didn't match."
	invalidLoginMessage     = "Please enter a correct username and password. Note that both fields may be case-sensitive."
)

// FormField is the key of errors that concern the whole form rather than one field.
const FormField = "form"

type UserService struct {
	userRepo repository.UserRepository
	hashCost int
}

type SignupInput struct {
	FirstName       string
	LastName        string
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo, hashCost: bcrypt.DefaultCost}
}

// Signup validates the registration form and creates the account.
func (s *UserService) Signup(ctx context.Context, in SignupInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.TrimSpace(in.Email)

	fields := map[string]string{}
	if err := validation.ValidateUsername(username); err != nil {
		fields["username"] = err.Error()
	} else {
		taken, err := s.userRepo.ExistsByUsername(ctx, username)
		if err != nil {
			return nil, err
		}
		if taken {
			fields["username"] = usernameTakenMessage
		}
	}
	if err := validation.ValidateEmail(email); err != nil {
		fields["email"] = err.Error()
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		fields["password"] = err.Error()
	}
	if in.Password != in.PasswordConfirm {
		fields["password_confirm"] = passwordMismatchMessage
	}
	if len(fields) > 0 {
		return nil, models.NewFieldErrors(fields)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	user := &models.User{
		Username:  username,
		FirstName: strings.TrimSpace(in.FirstName),
		LastName:  strings.TrimSpace(in.LastName),
		Email:     email,
		Password:  string(hashed),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "user signed up", "user_id", user.ID)
	return user, nil
}

// Authenticate checks credentials. Every failure yields the same form error.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	invalid := models.NewFieldErrors(map[string]string{FormField: invalidLoginMessage})
	if username == "" || password == "" {
		return nil, invalid
	}
	user, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if models.IsNotFound(err) {
			return nil, invalid
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, invalid
	}
	return user, nil
}

func (s *UserService) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}
