package user

import "time"

type CreateInput struct {
	FirstName string `json:"first_name" binding:"required,max=64"`
	LastName  string `json:"last_name"  binding:"required,max=64"`
	Email     string `json:"email"      binding:"required,email,max=255"`
	Password  string `json:"password"   binding:"required,min=8,max=72"`
}

// UpdateInput 部分更新：nil 字段不动
type UpdateInput struct {
	FirstName *string `json:"first_name" binding:"omitempty,max=64"`
	LastName  *string `json:"last_name"  binding:"omitempty,max=64"`
	Email     *string `json:"email"      binding:"omitempty,email,max=255"`
	IsActive  *bool   `json:"is_active"`
}

type ListQuery struct {
	Page      int    `form:"page,default=1"       binding:"omitempty,min=1"`
	Limit     int    `form:"limit,default=20"     binding:"omitempty,min=1,max=100"`
	SortBy    string `form:"sort_by,default=created_at"`
	SortOrder string `form:"sort_order,default=desc" binding:"omitempty,oneof=asc desc"`
	Q         string `form:"q" binding:"omitempty,max=255"`
}

// UserDTO 对外表示。没有 password_hash / deleted_at
type UserDTO struct {
	ID        string    `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

type UserPage struct {
	Users      []UserDTO  `json:"users"`
	Pagination Pagination `json:"pagination"`
}

func toDTO(u *UserModel) *UserDTO {
	return &UserDTO{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
