package utils

import (
	"fmt"

	"github.com/quasilyte/gdata/v2"
)

// OpenStorage 打开跨平台持久化存储（桌面端为用户数据目录，移动端为应用私有目录）
//
// 参数：
//   - appName: 应用名称，决定存储子目录
func OpenStorage(appName string) (*gdata.Manager, error) {
	if err := ensureStorageDir(); err != nil {
		return nil, fmt.Errorf("storage directory unavailable: %w", err)
	}

	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	return m, nil
}
