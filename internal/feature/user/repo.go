package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"go-user-service/internal/core/cache"
	"go-user-service/pkg/utils"
)

// Repo 用户唯一数据入口：gorm 主存 + 旁路缓存。
// 缓存按 id / email 双 key 各存一份完整行，TTL 相同；
// 缓存任何故障都只降级为 miss，绝不影响主流程。
type Repo struct {
	db     *gorm.DB
	cache  cache.Store
	log    *zap.Logger
	prefix string
	ttl    time.Duration
	sf     singleflight.Group
}

func NewRepo(db *gorm.DB, store cache.Store, log *zap.Logger, prefix string, ttl time.Duration) *Repo {
	if prefix == "" {
		prefix = "user"
	}
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Repo{db: db, cache: store, log: log, prefix: prefix, ttl: ttl}
}

// NormalizeEmail 统一小写 + 去空白，保证唯一索引和 email key 判的是同一个值
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r *Repo) keyID(id string) string       { return r.prefix + ":id:" + id }
func (r *Repo) keyEmail(email string) string { return r.prefix + ":email:" + email }

// sortColumns 列白名单，挡注入
var sortColumns = map[string]string{
	"first_name": "first_name",
	"last_name":  "last_name",
	"email":      "email",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

type ListParams struct {
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
	Q         string
	// WithDeleted 仅管理端用；正常列表永远排除软删行
	WithDeleted bool
}

// Create 先按 email 预查（走缓存），真正的唯一性由库里的唯一索引兜底：
// 并发窗口里撞上唯一索引时同样转成 ErrEmailConflict
func (r *Repo) Create(ctx context.Context, firstName, lastName, email, password string) (*UserModel, error) {
	email = NormalizeEmail(email)

	existing, err := r.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailConflict
	}

	u := &UserModel{
		ID:           utils.NewID(),
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: utils.HashPassword(password),
		Role:         "user",
		IsActive:     true,
	}
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if isDupKey(err) {
			return nil, ErrEmailConflict
		}
		return nil, dbErr("create", err)
	}
	r.populate(ctx, u)
	return u, nil
}

// FindByID 缓存命中直接返回；miss 用 singleflight 合并回源。
// 查无返回 (nil, nil)，交给 Service 层转 ErrNotFound
func (r *Repo) FindByID(ctx context.Context, id string) (*UserModel, error) {
	if hit := r.cacheGet(ctx, r.keyID(id)); hit != nil {
		return hit, nil
	}
	v, err, _ := r.sf.Do("id:"+id, func() (any, error) {
		return r.loadAndPopulate(ctx, "id = ?", id)
	})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return v.(*UserModel), nil
}

func (r *Repo) FindByEmail(ctx context.Context, email string) (*UserModel, error) {
	email = NormalizeEmail(email)
	if hit := r.cacheGet(ctx, r.keyEmail(email)); hit != nil {
		return hit, nil
	}
	v, err, _ := r.sf.Do("email:"+email, func() (any, error) {
		return r.loadAndPopulate(ctx, "email = ?", email)
	})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return v.(*UserModel), nil
}

// loadAndPopulate 回源查一行（默认 scope 已排除软删），命中则双 key 回填。
// 注意返回 any(nil) 而非 (*UserModel)(nil)，singleflight 那边好判断
func (r *Repo) loadAndPopulate(ctx context.Context, cond string, arg any) (any, error) {
	var u UserModel
	err := r.db.WithContext(ctx).First(&u, cond, arg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dbErr("find", err)
	}
	r.populate(ctx, &u)
	return &u, nil
}

// FindMany 列表/搜索。不走缓存，只有点查才缓存
func (r *Repo) FindMany(ctx context.Context, p ListParams) ([]UserModel, int64, error) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 || p.Limit > 100 {
		p.Limit = 20
	}
	col, ok := sortColumns[p.SortBy]
	if !ok {
		col = "created_at"
	}
	order := col + " desc"
	if strings.EqualFold(p.SortOrder, "asc") {
		order = col + " asc"
	}

	q := r.db.WithContext(ctx).Model(&UserModel{})
	if p.WithDeleted {
		q = q.Unscoped()
	}
	if s := strings.TrimSpace(p.Q); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where(
			"LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ?",
			like, like, like,
		)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, dbErr("count", err)
	}

	var users []UserModel
	offset := (p.Page - 1) * p.Limit
	if err := q.Order(order).Limit(p.Limit).Offset(offset).Find(&users).Error; err != nil {
		return nil, 0, dbErr("list", err)
	}
	return users, total, nil
}

// Update 部分更新。顺序固定：先删旧双 key（含旧 email key），再写库，再按新值回填。
// 改 email 时先排除掉自己再查重；并发窗口仍由唯一索引兜底
func (r *Repo) Update(ctx context.Context, id string, patch UpdateInput) (*UserModel, error) {
	var cur UserModel
	err := r.db.WithContext(ctx).First(&cur, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, dbErr("update:load", err)
	}

	vals := map[string]any{}
	if patch.FirstName != nil {
		vals["first_name"] = *patch.FirstName
	}
	if patch.LastName != nil {
		vals["last_name"] = *patch.LastName
	}
	if patch.Email != nil {
		newEmail := NormalizeEmail(*patch.Email)
		if newEmail != cur.Email {
			var n int64
			if err := r.db.WithContext(ctx).Model(&UserModel{}).
				Where("email = ? AND id <> ?", newEmail, id).
				Count(&n).Error; err != nil {
				return nil, dbErr("update:check", err)
			}
			if n > 0 {
				return nil, ErrEmailConflict
			}
			vals["email"] = newEmail
		}
	}
	if patch.IsActive != nil {
		vals["is_active"] = *patch.IsActive
	}
	if len(vals) == 0 {
		return &cur, nil
	}

	r.invalidate(ctx, &cur)

	res := r.db.WithContext(ctx).Model(&UserModel{}).Where("id = ?", id).Updates(vals)
	if res.Error != nil {
		if isDupKey(res.Error) {
			return nil, ErrEmailConflict
		}
		return nil, dbErr("update", res.Error)
	}

	var fresh UserModel
	if err := r.db.WithContext(ctx).First(&fresh, "id = ?", id).Error; err != nil {
		return nil, dbErr("update:reload", err)
	}
	r.populate(ctx, &fresh)
	return &fresh, nil
}

// Delete 硬删，行彻底移除
func (r *Repo) Delete(ctx context.Context, id string) error {
	var cur UserModel
	err := r.db.WithContext(ctx).Unscoped().First(&cur, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return dbErr("delete:load", err)
	}
	r.invalidate(ctx, &cur)
	if err := r.db.WithContext(ctx).Unscoped().Delete(&UserModel{}, "id = ?", id).Error; err != nil {
		return dbErr("delete", err)
	}
	return nil
}

// SoftDelete 打 deleted_at 标记，行保留但对所有正常读不可见
func (r *Repo) SoftDelete(ctx context.Context, id string) error {
	var cur UserModel
	err := r.db.WithContext(ctx).First(&cur, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return dbErr("softdelete:load", err)
	}
	r.invalidate(ctx, &cur)
	if err := r.db.WithContext(ctx).Delete(&UserModel{}, "id = ?", id).Error; err != nil {
		return dbErr("softdelete", err)
	}
	return nil
}

// CacheHealthy 健康检查透传
func (r *Repo) CacheHealthy(ctx context.Context) error {
	return r.cache.Healthy(ctx)
}

/* ---------- 缓存旁路，全部 best-effort ---------- */

func (r *Repo) cacheGet(ctx context.Context, key string) *UserModel {
	u, err := cache.GetJSON[UserModel](ctx, r.cache, key)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			r.log.Warn("cache get degraded to miss", zap.String("key", key), zap.Error(err))
		}
		return nil
	}
	return u
}

func (r *Repo) populate(ctx context.Context, u *UserModel) {
	for _, key := range []string{r.keyID(u.ID), r.keyEmail(u.Email)} {
		if err := cache.SetJSON(ctx, r.cache, key, u, r.ttl); err != nil {
			r.log.Warn("cache populate skipped", zap.String("key", key), zap.Error(err))
		}
	}
}

func (r *Repo) invalidate(ctx context.Context, u *UserModel) {
	if err := r.cache.Del(ctx, r.keyID(u.ID), r.keyEmail(u.Email)); err != nil {
		r.log.Warn("cache invalidate skipped", zap.String("id", u.ID), zap.Error(err))
	}
}
