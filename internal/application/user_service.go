package application

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/mohini/user-service/internal/domain/entity"
	"github.com/mohini/user-service/internal/domain/errs"
	repo "github.com/mohini/user-service/internal/domain/repository"
	"github.com/mohini/user-service/pkg/helpers"
)

// Service implements the user business rules: uniqueness enforcement on
// create/update, existence checks on delete, and pass-through queries.
// Each operation is stateless given the persisted store.
type Service struct {
	Repo         repo.UserRepository
	Logger       *logrus.Logger
	ES           *elasticsearch.Client
	ESUsersIndex string
}

func NewService(r repo.UserRepository, logger *logrus.Logger, es *elasticsearch.Client, esUsersIndex string) *Service {
	return &Service{Repo: r, Logger: logger, ES: es, ESUsersIndex: esUsersIndex}
}

// CreateUserInput carries the fields accepted on creation. Password arrives
// in plain text and is hashed before it reaches the repository.
type CreateUserInput struct {
	Username  string
	Email     string
	Password  string
	FirstName string
	LastName  string
}

// UpdateUserInput carries the fields accepted on update. Password changes
// are deliberately excluded from this path.
type UpdateUserInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
}

// Create persists a new user after verifying email and username are unused.
func (s *Service) Create(ctx context.Context, in CreateUserInput) (*entity.User, error) {
	taken, err := s.Repo.ExistsByEmail(ctx, in.Email)
	if err != nil {
		return nil, err
	}
	if taken {
		s.warn("duplicate email on create", logrus.Fields{"email": in.Email})
		return nil, errs.DuplicateEmail(in.Email)
	}

	taken, err = s.Repo.ExistsByUsername(ctx, in.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		s.warn("duplicate username on create", logrus.Fields{"username": in.Username})
		return nil, errs.DuplicateUsername(in.Username)
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	u := &entity.User{
		Username:  in.Username,
		Email:     in.Email,
		Password:  hash,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		return nil, err
	}
	s.info("user created", logrus.Fields{"user_id": u.ID, "username": u.Username})

	_ = s.indexUser(ctx, u)
	return u, nil
}

// Update overwrites name/email/username of an existing user. The stored
// password is untouched regardless of input. The duplicate check only fires
// when the respective field actually changes, so updating a user to their
// own current email or username always succeeds.
func (s *Service) Update(ctx context.Context, id int64, in UpdateUserInput) (*entity.User, error) {
	u, err := s.Repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errs.UserNotFoundByID(id)
		}
		return nil, err
	}

	if u.Email != in.Email {
		taken, err := s.Repo.ExistsByEmail(ctx, in.Email)
		if err != nil {
			return nil, err
		}
		if taken {
			s.warn("duplicate email on update", logrus.Fields{"user_id": id, "email": in.Email})
			return nil, errs.DuplicateEmail(in.Email)
		}
	}
	if u.Username != in.Username {
		taken, err := s.Repo.ExistsByUsername(ctx, in.Username)
		if err != nil {
			return nil, err
		}
		if taken {
			s.warn("duplicate username on update", logrus.Fields{"user_id": id, "username": in.Username})
			return nil, errs.DuplicateUsername(in.Username)
		}
	}

	u.Username = in.Username
	u.Email = in.Email
	u.FirstName = in.FirstName
	u.LastName = in.LastName
	u.UpdatedAt = time.Now()

	if err := s.Repo.Update(ctx, u); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, errs.UserNotFoundByID(id)
		}
		return nil, err
	}
	s.info("user updated", logrus.Fields{"user_id": u.ID, "username": u.Username})

	_ = s.indexUser(ctx, u)
	return u, nil
}

// Delete removes a user; the user must exist.
func (s *Service) Delete(ctx context.Context, id int64) error {
	exists, err := s.Repo.ExistsByID(ctx, id)
	if err != nil {
		return err
	}
	if !exists {
		s.warn("delete of non-existent user", logrus.Fields{"user_id": id})
		return errs.UserNotFoundByID(id)
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return errs.UserNotFoundByID(id)
		}
		return err
	}
	s.info("user deleted", logrus.Fields{"user_id": id})

	_ = s.deleteIndexedUser(ctx, id)
	return nil
}

// Lookups return repo.ErrNotFound on absence; callers decide whether that
// is fatal.

func (s *Service) GetByID(ctx context.Context, id int64) (*entity.User, error) {
	return s.Repo.GetByID(ctx, id)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return s.Repo.GetByEmail(ctx, email)
}

func (s *Service) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	return s.Repo.GetByUsername(ctx, username)
}

func (s *Service) List(ctx context.Context) ([]entity.User, error) {
	return s.Repo.List(ctx)
}

func (s *Service) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return s.Repo.ExistsByEmail(ctx, email)
}

func (s *Service) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return s.Repo.ExistsByUsername(ctx, username)
}

func (s *Service) Count(ctx context.Context) (int64, error) {
	return s.Repo.Count(ctx)
}

func (s *Service) FindByFirstName(ctx context.Context, firstName string) ([]entity.User, error) {
	return s.Repo.FindByFirstName(ctx, firstName)
}

func (s *Service) FindByLastName(ctx context.Context, lastName string) ([]entity.User, error) {
	return s.Repo.FindByLastName(ctx, lastName)
}

func (s *Service) SearchByUsername(ctx context.Context, fragment string) ([]entity.User, error) {
	return s.Repo.SearchByUsername(ctx, fragment)
}

func (s *Service) ListCreatedBetween(ctx context.Context, from, to time.Time) ([]entity.User, error) {
	return s.Repo.ListCreatedBetween(ctx, from, to)
}

func (s *Service) indexUser(ctx context.Context, u *entity.User) error {
	if s.ES == nil || s.ESUsersIndex == "" {
		return nil
	}
	doc := map[string]any{
		"id":         u.ID,
		"username":   u.Username,
		"email":      u.Email,
		"first_name": u.FirstName,
		"last_name":  u.LastName,
		"created_at": u.CreatedAt.Format(time.RFC3339Nano),
		"updated_at": u.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESUsersIndex, DocumentID: formatID(u.ID), Body: strings.NewReader(string(b)), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		s.warnErr("es index failed", err, logrus.Fields{"user_id": u.ID})
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		s.warn("es index response error", logrus.Fields{"status": res.Status(), "user_id": u.ID})
	}
	return nil
}

func (s *Service) deleteIndexedUser(ctx context.Context, id int64) error {
	if s.ES == nil || s.ESUsersIndex == "" {
		return nil
	}
	req := esapi.DeleteRequest{Index: s.ESUsersIndex, DocumentID: formatID(id)}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		s.warnErr("es delete failed", err, logrus.Fields{"user_id": id})
		return err
	}
	defer func() { _ = res.Body.Close() }()
	return nil
}

// SearchUsers performs a simple multi_match search over username, email and
// names. Returns an empty slice when Elasticsearch is not configured.
func (s *Service) SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESUsersIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"username^2", "email^2", "first_name", "last_name"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(s.ES.Search.WithContext(c), s.ES.Search.WithIndex(s.ESUsersIndex), s.ES.Search.WithBody(strings.NewReader(string(b))))
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func (s *Service) info(msg string, fields logrus.Fields) {
	if s.Logger != nil {
		s.Logger.WithFields(fields).Info(msg)
	}
}

func (s *Service) warn(msg string, fields logrus.Fields) {
	if s.Logger != nil {
		s.Logger.WithFields(fields).Warn(msg)
	}
}

func (s *Service) warnErr(msg string, err error, fields logrus.Fields) {
	if s.Logger != nil {
		s.Logger.WithError(err).WithFields(fields).Warn(msg)
	}
}
