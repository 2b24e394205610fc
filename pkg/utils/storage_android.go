//go:build android

package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// ensureStorageDir 确保 Android 应用私有目录可写
//
// gdata 在 Android 上写入 /data/data/{package}/，但不会预先创建子目录，
// 因此需要在 gdata.Open 之前创建。
func ensureStorageDir() error {
	root := StoragePath()
	if root == "" {
		return fmt.Errorf("failed to detect Android package name")
	}

	dir := filepath.Join(root, "settings")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	probe := filepath.Join(dir, ".write_test")
	if err := os.WriteFile(probe, []byte("ok"), 0644); err != nil {
		return fmt.Errorf("%s is not writable: %w", dir, err)
	}
	return os.Remove(probe)
}

// StoragePath 返回 Android 应用私有目录 /data/data/{package}
func StoragePath() string {
	data, err := os.ReadFile("/proc/self/cmdline")
	if err != nil {
		return ""
	}

	// cmdline 以 NUL 分隔，第一个字段是包名
	name := make([]byte, 0, len(data))
	for _, ch := range data {
		if ch == 0 || ch == '\n' {
			break
		}
		name = append(name, ch)
	}
	if len(name) == 0 {
		return ""
	}
	return filepath.Join("/data/data", string(name))
}
