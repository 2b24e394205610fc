//go:build mobile

package utils

// IsMobile 移动端构建（-tags mobile）始终使用触控交互
func IsMobile() bool {
	return true
}
