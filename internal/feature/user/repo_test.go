package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"go-user-service/internal/core/cache"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// 每个测试一个独立的内存库
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&UserModel{}))
	return db
}

func newTestRepo(t *testing.T) (*Repo, *cache.MemoryStore, *gorm.DB) {
	t.Helper()
	store := cache.NewMemory()
	db := newTestDB(t)
	return NewRepo(db, store, zap.NewNop(), "user", time.Hour), store, db
}

// downStore 模拟缓存整体不可用
type downStore struct{}

func (downStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("cache: connection refused")
}
func (downStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("cache: connection refused")
}
func (downStore) Del(context.Context, ...string) error {
	return errors.New("cache: connection refused")
}
func (downStore) Healthy(context.Context) error {
	return errors.New("cache: connection refused")
}

func mustCreate(t *testing.T, r *Repo, first, last, email string) *UserModel {
	t.Helper()
	u, err := r.Create(context.Background(), first, last, email, "secret-password")
	require.NoError(t, err)
	return u
}

func TestRepo_CreateAndFind(t *testing.T) {
	r, store, _ := newTestRepo(t)
	ctx := context.Background()

	u := mustCreate(t, r, "Ada", "Lovelace", "Ada@Example.com")

	require.NotEmpty(t, u.ID)
	require.Equal(t, "ada@example.com", u.Email, "email 应落库为小写")
	require.True(t, u.IsActive)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("secret-password")))

	got, err := r.FindByEmail(ctx, "ADA@example.COM")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, u.ID, got.ID)

	got, err = r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	// 双 key 都应已回填
	_, err = store.Get(ctx, "user:id:"+u.ID)
	require.NoError(t, err)
	_, err = store.Get(ctx, "user:email:ada@example.com")
	require.NoError(t, err)
}

func TestRepo_CreateDuplicateEmail(t *testing.T) {
	r, _, db := newTestRepo(t)
	ctx := context.Background()

	mustCreate(t, r, "Ada", "Lovelace", "ada@example.com")

	_, err := r.Create(ctx, "Other", "Person", "ada@example.com", "another-password")
	require.ErrorIs(t, err, ErrEmailConflict)

	var n int64
	require.NoError(t, db.Model(&UserModel{}).Count(&n).Error)
	require.EqualValues(t, 1, n, "冲突时不应写入第二行")
}

func TestRepo_DupKeyFallback(t *testing.T) {
	// 软删行对预查不可见，但唯一索引仍占着 email：
	// 预查放行、插入撞索引，也必须转成 ErrEmailConflict
	r, _, _ := newTestRepo(t)
	ctx := context.Background()

	u := mustCreate(t, r, "Ada", "Lovelace", "ada@example.com")
	require.NoError(t, r.SoftDelete(ctx, u.ID))

	got, err := r.FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	require.Nil(t, got, "预查应当看不到软删行")

	_, err = r.Create(ctx, "Third", "Person", "ada@example.com", "pw-long-enough")
	require.ErrorIs(t, err, ErrEmailConflict)
}

func TestRepo_FindByID_ServesFromCache(t *testing.T) {
	r, _, db := newTestRepo(t)
	ctx := context.Background()

	u := mustCreate(t, r, "Ada", "Lovelace", "ada@example.com")

	// 行从库里消失，但缓存还在 → 点查仍命中
	require.NoError(t, db.Unscoped().Delete(&UserModel{}, "id = ?", u.ID).Error)

	got, err := r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, u.Email, got.Email)
}

func TestRepo_FindMissing(t *testing.T) {
	r, _, _ := newTestRepo(t)
	ctx := context.Background()

	got, err := r.FindByID(ctx, "no-such-id")
	require.NoError(t, err)
	require.Nil(t, got, "查无不是错误")

	got, err = r.FindByEmail(ctx, "nobody@example.com")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestRepo_UpdateEmailInvalidatesOldKey(t *testing.T) {
	r, store, _ := newTestRepo(t)
	ctx := context.Background()

	u := mustCreate(t, r, "Ada", "Lovelace", "old@example.com")

	newEmail := "new@example.com"
	updated, err := r.Update(ctx, u.ID, UpdateInput{Email: &newEmail})
	require.NoError(t, err)
	require.Equal(t, "new@example.com", updated.Email)
	require.False(t, updated.UpdatedAt.Before(u.UpdatedAt))

	// 旧 email key 必须已失效
	_, err = store.Get(ctx, "user:email:old@example.com")
	require.ErrorIs(t, err, cache.ErrMiss)

	got, err := r.FindByEmail(ctx, "old@example.com")
	require.NoError(t, err)
	require.Nil(t, got)

	got, err = r.FindByEmail(ctx, "new@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, u.ID, got.ID)
}

func TestRepo_UpdateEmailConflict(t *testing.T) {
	r, _, _ := newTestRepo(t)
	ctx := context.Background()

	mustCreate(t, r, "Ada", "Lovelace", "taken@example.com")
	u := mustCreate(t, r, "Grace", "Hopper", "grace@example.com")

	taken := "taken@example.com"
	_, err := r.Update(ctx, u.ID, UpdateInput{Email: &taken})
	require.ErrorIs(t, err, ErrEmailConflict)

	// 改回自己的 email 不算冲突
	same := "grace@example.com"
	_, err = r.Update(ctx, u.ID, UpdateInput{Email: &same})
	require.NoError(t, err)
}

func TestRepo_UpdateMissing(t *testing.T) {
	r, _, _ := newTestRepo(t)
	name := "X"
	_, err := r.Update(context.Background(), "no-such-id", UpdateInput{FirstName: &name})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRepo_SoftDelete(t *testing.T) {
	r, store, db := newTestRepo(t)
	ctx := context.Background()

	u := mustCreate(t, r, "Ada", "Lovelace", "ada@example.com")
	require.NoError(t, r.SoftDelete(ctx, u.ID))

	// 对正常读不可见
	got, err := r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.Nil(t, got)
	got, err = r.FindByEmail(ctx, u.Email)
	require.NoError(t, err)
	require.Nil(t, got)

	// 缓存双 key 已清
	_, err = store.Get(ctx, "user:id:"+u.ID)
	require.ErrorIs(t, err, cache.ErrMiss)
	_, err = store.Get(ctx, "user:email:"+u.Email)
	require.ErrorIs(t, err, cache.ErrMiss)

	// 行还在，deleted_at 已打标
	var raw UserModel
	require.NoError(t, db.Unscoped().First(&raw, "id = ?", u.ID).Error)
	require.True(t, raw.DeletedAt.Valid)

	require.ErrorIs(t, r.SoftDelete(ctx, u.ID), ErrNotFound, "二次软删按查无处理")
}

func TestRepo_HardDelete(t *testing.T) {
	r, _, db := newTestRepo(t)
	ctx := context.Background()

	u := mustCreate(t, r, "Ada", "Lovelace", "ada@example.com")
	require.NoError(t, r.Delete(ctx, u.ID))

	got, err := r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.Nil(t, got)

	var n int64
	require.NoError(t, db.Unscoped().Model(&UserModel{}).Where("id = ?", u.ID).Count(&n).Error)
	require.EqualValues(t, 0, n, "硬删后行彻底消失")

	require.ErrorIs(t, r.Delete(ctx, u.ID), ErrNotFound)
}

func TestRepo_FindMany(t *testing.T) {
	r, _, _ := newTestRepo(t)
	ctx := context.Background()

	for i := 1; i <= 12; i++ {
		mustCreate(t, r, fmt.Sprintf("First%02d", i), "Last", fmt.Sprintf("u%02d@example.com", i))
	}

	users, total, err := r.FindMany(ctx, ListParams{Page: 2, Limit: 5, SortBy: "email", SortOrder: "asc"})
	require.NoError(t, err)
	require.EqualValues(t, 12, total)
	require.Len(t, users, 5)
	require.Equal(t, "u06@example.com", users[0].Email)
	require.Equal(t, "u10@example.com", users[4].Email)

	// 搜索：姓名/email 任一匹配，大小写不敏感
	users, total, err = r.FindMany(ctx, ListParams{Page: 1, Limit: 20, Q: "FIRST03"})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, "u03@example.com", users[0].Email)

	// 非法排序列回退到 created_at
	_, _, err = r.FindMany(ctx, ListParams{Page: 1, Limit: 5, SortBy: "password_hash; drop table users"})
	require.NoError(t, err)
}

func TestRepo_FindManyExcludesSoftDeleted(t *testing.T) {
	r, _, _ := newTestRepo(t)
	ctx := context.Background()

	a := mustCreate(t, r, "Ada", "Lovelace", "a@example.com")
	mustCreate(t, r, "Grace", "Hopper", "b@example.com")
	mustCreate(t, r, "Edsger", "Dijkstra", "c@example.com")
	require.NoError(t, r.SoftDelete(ctx, a.ID))

	_, total, err := r.FindMany(ctx, ListParams{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)

	_, total, err = r.FindMany(ctx, ListParams{Page: 1, Limit: 10, WithDeleted: true})
	require.NoError(t, err)
	require.EqualValues(t, 3, total)
}

func TestRepo_CacheDownIsInvisible(t *testing.T) {
	// 缓存整体故障时所有操作结果不变，只是少了快路径
	db := newTestDB(t)
	r := NewRepo(db, downStore{}, zap.NewNop(), "user", time.Hour)
	ctx := context.Background()

	u := mustCreate(t, r, "Ada", "Lovelace", "ada@example.com")

	got, err := r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	got, err = r.FindByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	require.NotNil(t, got)

	_, err = r.Create(ctx, "Other", "Person", "ada@example.com", "pw-long-enough")
	require.ErrorIs(t, err, ErrEmailConflict)

	newEmail := "new@example.com"
	_, err = r.Update(ctx, u.ID, UpdateInput{Email: &newEmail})
	require.NoError(t, err)

	require.NoError(t, r.SoftDelete(ctx, u.ID))
	got, err = r.FindByID(ctx, u.ID)
	require.NoError(t, err)
	require.Nil(t, got)
}
