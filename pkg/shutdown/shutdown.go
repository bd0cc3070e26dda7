package shutdown

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

// Handler 关闭处理函数
type Handler func(ctx context.Context) error

type namedHandler struct {
	name string
	fn   Handler
}

// Manager 优雅关闭管理器
// 回调按注册的逆序依次执行：先注册的资源（存储、客户端）最后关闭
type Manager struct {
	callbacks []namedHandler
	log       logrus.FieldLogger
	mu        sync.Mutex
	once      sync.Once
	err       error
}

// NewManager 创建新的关闭管理器
func NewManager(log logrus.FieldLogger) *Manager {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Manager{log: log}
}

// OnShutdown 注册关闭回调
func (m *Manager) OnShutdown(name string, handler Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, namedHandler{name: name, fn: handler})
}

// Shutdown 执行所有关闭回调（阻塞调用，只执行一次）
// ctx 应该是一个带超时的 context；超时后剩余回调仍会执行，但会拿到已取消的 ctx
func (m *Manager) Shutdown(ctx context.Context) error {
	m.once.Do(func() {
		m.mu.Lock()
		callbacks := m.callbacks
		m.mu.Unlock()

		m.log.Infof("开始优雅关闭，共 %d 个回调", len(callbacks))

		var errs []error
		for i := len(callbacks) - 1; i >= 0; i-- {
			cb := callbacks[i]
			if err := cb.fn(ctx); err != nil {
				m.log.WithError(err).Errorf("关闭 %s 失败", cb.name)
				errs = append(errs, err)
				continue
			}
			m.log.Debugf("已关闭 %s", cb.name)
		}
		if ctx.Err() != nil {
			m.log.Warnf("关闭超时: %v", ctx.Err())
		}
		m.err = errors.Join(errs...)
	})
	return m.err
}
