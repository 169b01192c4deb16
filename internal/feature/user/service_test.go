package user

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"go-user-service/internal/core/cache"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	repo := NewRepo(newTestDB(t), cache.NewMemory(), zap.NewNop(), "user", time.Hour)
	return NewService(repo, zap.NewNop())
}

func TestService_CreateStripsSecrets(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	dto, err := s.CreateUser(ctx, CreateInput{
		FirstName: "Ada", LastName: "Lovelace",
		Email: "ada@example.com", Password: "secret-password",
	})
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", dto.Email)

	// 出参序列化后不能出现密码相关字段
	b, err := json.Marshal(dto)
	require.NoError(t, err)
	require.NotContains(t, string(b), "password")
	require.NotContains(t, string(b), "deleted_at")
}

func TestService_GetUserNotFound(t *testing.T) {
	s := newTestService(t)
	_, err := s.GetUser(context.Background(), "no-such-id")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = s.GetUserByEmail(context.Background(), "nobody@example.com")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestService_ListPaginationMeta(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	for i := 1; i <= 12; i++ {
		_, err := s.CreateUser(ctx, CreateInput{
			FirstName: fmt.Sprintf("First%02d", i), LastName: "Last",
			Email: fmt.Sprintf("u%02d@example.com", i), Password: "secret-password",
		})
		require.NoError(t, err)
	}

	page, err := s.ListUsers(ctx, ListQuery{Page: 2, Limit: 5, SortBy: "email", SortOrder: "asc"})
	require.NoError(t, err)

	require.Len(t, page.Users, 5)
	require.Equal(t, "u06@example.com", page.Users[0].Email)
	require.Equal(t, "u10@example.com", page.Users[4].Email)

	p := page.Pagination
	require.EqualValues(t, 12, p.Total)
	require.Equal(t, 3, p.TotalPages)
	require.True(t, p.HasNext)
	require.True(t, p.HasPrev)

	// 末页
	page, err = s.ListUsers(ctx, ListQuery{Page: 3, Limit: 5, SortBy: "email", SortOrder: "asc"})
	require.NoError(t, err)
	require.Len(t, page.Users, 2)
	require.False(t, page.Pagination.HasNext)
	require.True(t, page.Pagination.HasPrev)
}

func TestService_ActivateDeactivate(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	dto, err := s.CreateUser(ctx, CreateInput{
		FirstName: "Ada", LastName: "Lovelace",
		Email: "ada@example.com", Password: "secret-password",
	})
	require.NoError(t, err)
	require.True(t, dto.IsActive)

	off, err := s.DeactivateUser(ctx, dto.ID)
	require.NoError(t, err)
	require.False(t, off.IsActive)
	require.False(t, off.UpdatedAt.Before(dto.UpdatedAt))

	// 幂等：再停用一次状态不变
	off2, err := s.DeactivateUser(ctx, dto.ID)
	require.NoError(t, err)
	require.False(t, off2.IsActive)

	on, err := s.ActivateUser(ctx, dto.ID)
	require.NoError(t, err)
	require.True(t, on.IsActive)
}

func TestService_DeleteDispatch(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	soft, err := s.CreateUser(ctx, CreateInput{
		FirstName: "Ada", LastName: "Lovelace",
		Email: "soft@example.com", Password: "secret-password",
	})
	require.NoError(t, err)
	hard, err := s.CreateUser(ctx, CreateInput{
		FirstName: "Grace", LastName: "Hopper",
		Email: "hard@example.com", Password: "secret-password",
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteUser(ctx, soft.ID, false))
	require.NoError(t, s.DeleteUser(ctx, hard.ID, true))

	_, err = s.GetUser(ctx, soft.ID)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.GetUser(ctx, hard.ID)
	require.ErrorIs(t, err, ErrNotFound)

	// 软删行管理端还能看到，硬删行彻底没了
	page, err := s.AdminListUsers(ctx, ListQuery{Page: 1, Limit: 10}, true)
	require.NoError(t, err)
	require.EqualValues(t, 1, page.Pagination.Total)
	require.Equal(t, "soft@example.com", page.Users[0].Email)
}

func TestService_Authenticate(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	dto, err := s.CreateUser(ctx, CreateInput{
		FirstName: "Ada", LastName: "Lovelace",
		Email: "ada@example.com", Password: "secret-password",
	})
	require.NoError(t, err)

	got, err := s.Authenticate(ctx, "ada@example.com", "secret-password")
	require.NoError(t, err)
	require.Equal(t, dto.ID, got.ID)

	_, err = s.Authenticate(ctx, "ada@example.com", "wrong-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.Authenticate(ctx, "nobody@example.com", "secret-password")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = s.DeactivateUser(ctx, dto.ID)
	require.NoError(t, err)
	_, err = s.Authenticate(ctx, "ada@example.com", "secret-password")
	require.ErrorIs(t, err, ErrInactive)
}
