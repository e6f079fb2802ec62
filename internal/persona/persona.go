package persona

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	xerrors "PersonaChain/internal/errors"
)

// Persona 描述一个可被路由选中的对话人格。
type Persona struct {
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	Instructions string   `yaml:"instructions"`
	Model        string   `yaml:"model"`
	Tools        []string `yaml:"tools"`
	Default      bool     `yaml:"default"`
}

// HasTool 判断该人格是否被允许调用指定工具。
func (p Persona) HasTool(name string) bool {
	for _, tool := range p.Tools {
		if strings.EqualFold(tool, name) {
			return true
		}
	}
	return false
}

// Registry 保存启动时加载的人格注册表。注册表在进程生命周期内只读。
type Registry struct {
	byName map[string]Persona
	names  []string
	def    string
}

type registryFile struct {
	Personas []Persona `yaml:"personas"`
}

// Load 从 YAML 文件加载人格注册表。
func Load(path string) (*Registry, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeInvalidArgument, err, "读取人格注册表失败")
	}
	var file registryFile
	if err := yaml.Unmarshal(content, &file); err != nil {
		return nil, xerrors.Wrap(xerrors.CodeInvalidArgument, err, "解析人格注册表失败")
	}
	return NewRegistry(file.Personas)
}

// NewRegistry 校验人格表并构造注册表。必须恰好存在一个默认人格。
func NewRegistry(personas []Persona) (*Registry, error) {
	if len(personas) == 0 {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "人格注册表为空")
	}
	reg := &Registry{byName: make(map[string]Persona, len(personas))}
	for _, p := range personas {
		name := strings.TrimSpace(p.Name)
		if name == "" {
			return nil, xerrors.New(xerrors.CodeInvalidArgument, "人格名称不能为空")
		}
		key := strings.ToLower(name)
		if _, exists := reg.byName[key]; exists {
			return nil, xerrors.New(xerrors.CodeConflict,
				fmt.Sprintf("人格名称重复: %s", name))
		}
		p.Name = name
		reg.byName[key] = p
		reg.names = append(reg.names, name)
		if p.Default {
			if reg.def != "" {
				return nil, xerrors.New(xerrors.CodeInvalidArgument,
					fmt.Sprintf("默认人格重复: %s 与 %s", reg.def, name))
			}
			reg.def = name
		}
	}
	if reg.def == "" {
		return nil, xerrors.New(xerrors.CodeInvalidArgument, "必须指定恰好一个默认人格")
	}
	sort.Strings(reg.names)
	return reg, nil
}

// Get 按名称查找人格，名称不区分大小写。
func (r *Registry) Get(name string) (Persona, bool) {
	p, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// Default 返回默认人格。
func (r *Registry) Default() Persona {
	p, _ := r.Get(r.def)
	return p
}

// Names 返回全部人格名称，按字典序排列。
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// All 返回全部人格。
func (r *Registry) All() []Persona {
	out := make([]Persona, 0, len(r.names))
	for _, name := range r.names {
		p, _ := r.Get(name)
		out = append(out, p)
	}
	return out
}
