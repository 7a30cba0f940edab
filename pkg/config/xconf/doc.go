// Package xconf 基于 koanf 的配置加载。
//
// 支持 YAML 与 JSON，可从文件或字节加载。Overlay 写入的键值优先级高于文件，
// 并在 Reload 后重新生效，用于叠加环境变量与命令行参数。
//
//	cfg, err := xconf.New("/etc/xsnow/xsnow.yaml")
//	_ = cfg.Overlay(map[string]any{"worker-id": 7})
//	var s Settings
//	err = cfg.Unmarshal("", &s)
//
// [Watch] 基于 fsnotify 监视文件所在目录，变更经防抖后自动 Reload 并回调。
package xconf
