// Package config 提供基于 viper 的泛型配置加载：默认值、.env 文件、环境变量、
// 配置文件，优先级依次升高。加载了配置文件时会监控其变更并热加载。
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// reloadDelay 合并编辑器保存时产生的连续写事件
const reloadDelay = 100 * time.Millisecond

// Config 持有类型为 T 的当前配置，并发安全
type Config[T any] struct {
	v        *viper.Viper
	path     string
	logger   *slog.Logger
	validate func(T) error

	reloadMu sync.Mutex // viper 读取不是并发安全的

	mu       sync.RWMutex
	value    T
	watchers []func(old, new T)
}

// Option 在读取配置前作用于 Config
type Option[T any] func(*Config[T]) error

// WithDefaults 设置默认值，键使用点分路径，如 "retry.max_attempts"
func WithDefaults[T any](defaults map[string]any) Option[T] {
	return func(c *Config[T]) error {
		for k, v := range defaults {
			c.v.SetDefault(k, v)
		}
		return nil
	}
}

// WithEnv 绑定带前缀的环境变量，"retry.max_attempts" 对应 PREFIX_RETRY_MAX_ATTEMPTS。
// 只有出现在默认值或配置文件中的键会被绑定。
func WithEnv[T any](prefix string) Option[T] {
	return func(c *Config[T]) error {
		c.v.SetEnvPrefix(prefix)
		c.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		c.v.AutomaticEnv()
		return nil
	}
}

// WithDotEnv 把 .env 文件载入进程环境，已存在的变量不会被覆盖。
// files 为空时读取当前目录的 .env，不存在的文件会被忽略。
func WithDotEnv[T any](files ...string) Option[T] {
	return func(c *Config[T]) error {
		if len(files) == 0 {
			files = []string{".env"}
		}
		var errs []error
		for _, f := range files {
			if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, fmt.Errorf("config: load %s: %w", f, err))
			}
		}
		return errors.Join(errs...)
	}
}

// WithValidate 在加载和每次热加载后校验配置。热加载得到的非法配置会被丢弃。
func WithValidate[T any](fn func(T) error) Option[T] {
	return func(c *Config[T]) error {
		c.validate = fn
		return nil
	}
}

// WithLogger 设置热加载失败时使用的 logger，默认 slog.Default()
func WithLogger[T any](l *slog.Logger) Option[T] {
	return func(c *Config[T]) error {
		c.logger = l
		return nil
	}
}

// Load 加载配置。path 为空时只使用默认值和环境变量，也不会监控文件。
func Load[T any](path string, opts ...Option[T]) (*Config[T], error) {
	c := &Config[T]{v: viper.New(), path: path, logger: slog.Default()}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if path != "" {
		c.v.SetConfigFile(path)
	}

	val, err := c.read()
	if err != nil {
		return nil, err
	}
	c.value = val

	if path != "" {
		c.watch()
	}
	return c, nil
}

// read 重新读取文件（如有）并解码、校验
func (c *Config[T]) read() (T, error) {
	var val T
	if c.path != "" {
		if err := c.v.ReadInConfig(); err != nil {
			return val, fmt.Errorf("config: read %s: %w", c.path, err)
		}
	}
	if err := c.v.Unmarshal(&val); err != nil {
		return val, fmt.Errorf("config: decode: %w", err)
	}
	if c.validate != nil {
		if err := c.validate(val); err != nil {
			return val, fmt.Errorf("config: %w", err)
		}
	}
	return val, nil
}

// Path 返回配置文件路径，未使用文件时为空
func (c *Config[T]) Path() string { return c.path }

// Get 返回当前配置的深拷贝
func (c *Config[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return deepCopy(c.value)
}

// OnChange 注册变更回调，只有内容确实变化时才会调用
func (c *Config[T]) OnChange(callback func(old, new T)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.watchers = append(c.watchers, callback)
}

// Reload 立即重新加载。失败时保留原配置并返回错误。
func (c *Config[T]) Reload() error {
	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	val, err := c.read()
	if err != nil {
		return err
	}

	c.mu.Lock()
	old := c.value
	c.value = val
	watchers := slices.Clone(c.watchers)
	c.mu.Unlock()

	if !Changed(old, val) {
		return nil
	}
	for _, cb := range watchers {
		c.notify(cb, deepCopy(old), deepCopy(val))
	}
	return nil
}

// notify 隔离回调中的 panic，避免中断监控协程
func (c *Config[T]) notify(cb func(old, new T), old, new T) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("config change callback panicked", "path", c.path, "panic", r)
		}
	}()
	cb(old, new)
}

// Changed 比较两个值是否不同
func Changed[T any](old, new T) bool {
	return !reflect.DeepEqual(old, new)
}

// deepCopy 通过 JSON 序列化实现深拷贝
func deepCopy[T any](src T) T {
	var dst T
	data, _ := json.Marshal(src)
	_ = json.Unmarshal(data, &dst)
	return dst
}

func (c *Config[T]) watch() {
	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	c.v.OnConfigChange(func(_ fsnotify.Event) {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(reloadDelay, func() {
			if err := c.Reload(); err != nil {
				c.logger.Warn("config reload failed, keeping previous values", "path", c.path, "err", err)
			}
		})
	})
	c.v.WatchConfig()
}
