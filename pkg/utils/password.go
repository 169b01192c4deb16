package utils

import "golang.org/x/crypto/bcrypt"

// PasswordCost bcrypt 工作因子（高于 DefaultCost，登录接口已有限流兜底）
const PasswordCost = 12

func HashPassword(pw string) string {
	b, _ := bcrypt.GenerateFromPassword([]byte(pw), PasswordCost)
	return string(b)
}
func CheckPassword(pw, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(pw)) == nil
}
