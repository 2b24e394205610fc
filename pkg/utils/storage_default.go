//go:build !android

package utils

// gdata 在非 Android 平台上会自动创建存储目录
func ensureStorageDir() error {
	return nil
}

// StoragePath 返回平台存储根目录，非 Android 平台由 gdata 决定，返回空字符串
func StoragePath() string {
	return ""
}
