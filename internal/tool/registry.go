package tool

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	xerrors "PersonaChain/internal/errors"
	"PersonaChain/internal/llm"
	"PersonaChain/internal/persona"
)

// Registry 保存按名称索引的工具表。注册发生在启动阶段，
// 之后只读，因此读路径不加锁返回副本即可。
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry 创建空的工具注册表。
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register 注册一个工具，名称冲突时返回错误。
func (r *Registry) Register(handler Handler) error {
	if handler == nil {
		return xerrors.New(xerrors.CodeInvalidArgument, "工具实现不能为空")
	}
	name := strings.ToLower(strings.TrimSpace(handler.Name()))
	if name == "" {
		return xerrors.New(xerrors.CodeInvalidArgument, "工具名称不能为空")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[name]; exists {
		return xerrors.New(xerrors.CodeConflict, fmt.Sprintf("工具重复注册: %s", name))
	}
	r.handlers[name] = handler
	return nil
}

// MustRegister 与 Register 相同，失败时 panic。仅用于启动装配。
func (r *Registry) MustRegister(handlers ...Handler) {
	for _, handler := range handlers {
		if err := r.Register(handler); err != nil {
			panic(err)
		}
	}
}

// Get 按名称查找工具，名称不区分大小写。
func (r *Registry) Get(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	handler, ok := r.handlers[strings.ToLower(strings.TrimSpace(name))]
	return handler, ok
}

// Names 返回全部已注册工具名，按字典序。
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// SpecsFor 返回某个人格可见的工具描述，用于构造模型请求。
func (r *Registry) SpecsFor(p persona.Persona) []llm.ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	specs := make([]llm.ToolSpec, 0, len(p.Tools))
	for _, name := range p.Tools {
		if handler, ok := r.handlers[strings.ToLower(name)]; ok {
			specs = append(specs, handler.Spec())
		}
	}
	return specs
}
