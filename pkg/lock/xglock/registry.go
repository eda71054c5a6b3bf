package xglock

import (
	"fmt"
	"sort"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// registryShardCount 是注册表分片数，2 的幂。
const registryShardCount = 16

// Registry 是组的命名注册表，供调试服务等诊断面按名检索组。
// 所有方法并发安全。注册表不影响锁协议本身，未注册的组照常工作。
type Registry struct {
	shards [registryShardCount]registryShard
}

type registryShard struct {
	mu     sync.RWMutex
	groups map[string]*Group
}

// NewRegistry 创建一个空注册表。
func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i].groups = make(map[string]*Group)
	}
	return r
}

// defaultRegistry 是进程内共享的默认注册表。
var defaultRegistry = NewRegistry()

// DefaultRegistry 返回进程内共享的默认注册表。
// 适用于单体进程的零配置接线；需要隔离时用 [NewRegistry] 自建。
func DefaultRegistry() *Registry {
	return defaultRegistry
}

func (r *Registry) shard(name string) *registryShard {
	return &r.shards[xxhash.Sum64String(name)&(registryShardCount-1)]
}

// Register 以组名登记 g。
// 未命名的组返回 [ErrUnnamedGroup]，同名组已存在时返回
// [ErrDuplicateGroup]。g 为 nil 时 panic。
func (r *Registry) Register(g *Group) error {
	if g == nil {
		panic("xglock: nil Group")
	}
	name := g.Name()
	if name == "" {
		return ErrUnnamedGroup
	}
	s := r.shard(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateGroup, name)
	}
	s.groups[name] = g
	return nil
}

// Deregister 移除名为 name 的组，返回该组此前是否已登记。
func (r *Registry) Deregister(name string) bool {
	s := r.shard(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[name]; !ok {
		return false
	}
	delete(s.groups, name)
	return true
}

// Get 返回名为 name 的组。
func (r *Registry) Get(name string) (*Group, bool) {
	s := r.shard(name)
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.groups[name]
	return g, ok
}

// Len 返回已登记的组数。
func (r *Registry) Len() int {
	n := 0
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.RLock()
		n += len(s.groups)
		s.mu.RUnlock()
	}
	return n
}

// Names 返回全部已登记的组名，按字典序排序。
func (r *Registry) Names() []string {
	names := make([]string, 0, r.Len())
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.RLock()
		for name := range s.groups {
			names = append(names, name)
		}
		s.mu.RUnlock()
	}
	sort.Strings(names)
	return names
}

// Info 返回名为 name 的组的诊断快照。
func (r *Registry) Info(name string) (GroupInfo, bool) {
	g, ok := r.Get(name)
	if !ok {
		return GroupInfo{}, false
	}
	return g.Info(), true
}

// Snapshot 返回全部已登记组的诊断快照，按组名排序。
// 跨组之间不保证时点一致。
func (r *Registry) Snapshot() []GroupInfo {
	groups := make([]*Group, 0, r.Len())
	for i := range r.shards {
		s := &r.shards[i]
		s.mu.RLock()
		for _, g := range s.groups {
			groups = append(groups, g)
		}
		s.mu.RUnlock()
	}
	infos := make([]GroupInfo, 0, len(groups))
	for _, g := range groups {
		infos = append(infos, g.Info())
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos
}
