package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/habit-coach/internal/apperror"
	"github.com/sakif/habit-coach/internal/model"
	"github.com/sakif/habit-coach/internal/repository"
)

const MaxUserNameLength = 100

type UserService struct {
	repo   repository.UserRepository
	logger *slog.Logger
}

func NewUserService(repo repository.UserRepository, logger *slog.Logger) *UserService {
	return &UserService{repo: repo, logger: logger}
}

// Create registers a user. timezone is an IANA name such as "Europe/Vilnius";
// empty means "use the server default".
func (s *UserService) Create(ctx context.Context, name, timezone string) (*model.User, error) {
	name = strings.TrimSpace(name)
	timezone = strings.TrimSpace(timezone)

	if name == "" {
		return nil, apperror.ValidationFailed("name", "name is required")
	}
	if len(name) > MaxUserNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("name must be %d characters or less", MaxUserNameLength))
	}
	if timezone != "" {
		if _, err := time.LoadLocation(timezone); err != nil {
			return nil, apperror.ValidationFailed("timezone",
				fmt.Sprintf("unknown timezone %q", timezone))
		}
	}

	user := &model.User{Name: name, Timezone: timezone}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		s.logger.Error("failed to create user", slog.String("error", err.Error()))
		return nil, fmt.Errorf("creating user: %w", err)
	}

	s.logger.Info("user created", slog.String("id", user.ID))
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id string) (*model.User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "user ID is required")
	}
	return s.repo.GetUserByID(ctx, id)
}
