package model

// Viewer 当前请求的访问者身份，由认证中间件从 JWT 声明解析后显式传入，
// 业务层不读取任何全局状态
type Viewer struct {
	UserID       uint `json:"userId"`
	IsPrivileged bool `json:"isPrivileged"`
}
