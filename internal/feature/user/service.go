package user

import (
	"context"

	"go.uber.org/zap"

	"go-user-service/pkg/utils"
)

// Service 薄编排层：出参剥密、查无转 ErrNotFound、分页元数据
type Service struct {
	repo *Repo
	log  *zap.Logger
}

func NewService(repo *Repo, log *zap.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) CreateUser(ctx context.Context, in CreateInput) (*UserDTO, error) {
	u, err := s.repo.Create(ctx, in.FirstName, in.LastName, in.Email, in.Password)
	if err != nil {
		return nil, err
	}
	return toDTO(u), nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*UserDTO, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return toDTO(u), nil
}

func (s *Service) GetUserByEmail(ctx context.Context, email string) (*UserDTO, error) {
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return toDTO(u), nil
}

func (s *Service) ListUsers(ctx context.Context, q ListQuery) (*UserPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 20
	}
	return s.listUsers(ctx, q, false)
}

// AdminListUsers 管理端列表，可带上软删行
func (s *Service) AdminListUsers(ctx context.Context, q ListQuery, withDeleted bool) (*UserPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 || q.Limit > 100 {
		q.Limit = 20
	}
	return s.listUsers(ctx, q, withDeleted)
}

func (s *Service) listUsers(ctx context.Context, q ListQuery, withDeleted bool) (*UserPage, error) {
	users, total, err := s.repo.FindMany(ctx, ListParams{
		Page:        q.Page,
		Limit:       q.Limit,
		SortBy:      q.SortBy,
		SortOrder:   q.SortOrder,
		Q:           q.Q,
		WithDeleted: withDeleted,
	})
	if err != nil {
		return nil, err
	}

	totalPages := int((total + int64(q.Limit) - 1) / int64(q.Limit))
	page := &UserPage{
		Users: make([]UserDTO, 0, len(users)),
		Pagination: Pagination{
			Page:       q.Page,
			Limit:      q.Limit,
			Total:      total,
			TotalPages: totalPages,
			HasNext:    q.Page < totalPages,
			HasPrev:    q.Page > 1,
		},
	}
	for i := range users {
		page.Users = append(page.Users, *toDTO(&users[i]))
	}
	return page, nil
}

func (s *Service) UpdateUser(ctx context.Context, id string, in UpdateInput) (*UserDTO, error) {
	u, err := s.repo.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	return toDTO(u), nil
}

func (s *Service) ActivateUser(ctx context.Context, id string) (*UserDTO, error) {
	on := true
	return s.UpdateUser(ctx, id, UpdateInput{IsActive: &on})
}

func (s *Service) DeactivateUser(ctx context.Context, id string) (*UserDTO, error) {
	off := false
	return s.UpdateUser(ctx, id, UpdateInput{IsActive: &off})
}

// DeleteUser 默认软删；permanent=true 走硬删，不可恢复
func (s *Service) DeleteUser(ctx context.Context, id string, permanent bool) error {
	if permanent {
		return s.repo.Delete(ctx, id)
	}
	return s.repo.SoftDelete(ctx, id)
}

// Authenticate 登录校验：密码错和查无统一返回 ErrInvalidCredentials，
// 停用账号单独报 ErrInactive
func (s *Service) Authenticate(ctx context.Context, email, password string) (*UserDTO, error) {
	u, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil || !utils.CheckPassword(password, u.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	if !u.IsActive {
		return nil, ErrInactive
	}
	return toDTO(u), nil
}

// CacheHealthy 给 /health 用
func (s *Service) CacheHealthy(ctx context.Context) error { return s.repo.CacheHealthy(ctx) }
