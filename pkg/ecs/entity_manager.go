package ecs

import "reflect"

// EntityID 是实体的唯一标识符，0 保留为无效ID
type EntityID uint64

// componentSet 单个实体的组件集合：组件类型 -> 组件实例
type componentSet map[reflect.Type]any

// EntityManager 管理所有实体和组件
//
// 销毁是延迟的：DestroyEntity 只做标记，RemoveMarkedEntities 统一清理，
// 因此遍历查询结果时可以安全地销毁实体。
// 查询结果按实体创建顺序返回，保证相同随机种子下模拟结果可复现。
type EntityManager struct {
	nextID   EntityID
	entities map[EntityID]componentSet
	// 按创建顺序排列的存活实体
	order []EntityID
	// 待删除的实体（重复标记只记录一次）
	pending map[EntityID]struct{}
}

// NewEntityManager 创建一个新的 EntityManager 实例
func NewEntityManager() *EntityManager {
	return &EntityManager{
		nextID:   1,
		entities: make(map[EntityID]componentSet),
		pending:  make(map[EntityID]struct{}),
	}
}

// CreateEntity 创建新实体并返回唯一ID
func (em *EntityManager) CreateEntity() EntityID {
	id := em.nextID
	em.nextID++
	em.entities[id] = make(componentSet)
	em.order = append(em.order, id)
	return id
}

// DestroyEntity 标记实体待删除(不立即删除)，未知实体被忽略
func (em *EntityManager) DestroyEntity(id EntityID) {
	if _, ok := em.entities[id]; ok {
		em.pending[id] = struct{}{}
	}
}

// IsMarkedForDestroy 返回实体是否已标记待删除
func (em *EntityManager) IsMarkedForDestroy(id EntityID) bool {
	_, ok := em.pending[id]
	return ok
}

// AddComponent 为实体添加组件，同类型组件会被替换；实体不存在时忽略
func (em *EntityManager) AddComponent(id EntityID, component any) {
	if set, ok := em.entities[id]; ok {
		set[reflect.TypeOf(component)] = component
	}
}

// GetComponent 获取实体的特定类型组件
func (em *EntityManager) GetComponent(id EntityID, componentType reflect.Type) (any, bool) {
	comp, ok := em.entities[id][componentType]
	return comp, ok
}

// HasComponent 检查实体是否拥有特定类型组件
func (em *EntityManager) HasComponent(id EntityID, componentType reflect.Type) bool {
	_, ok := em.entities[id][componentType]
	return ok
}

// RemoveMarkedEntities 清理所有标记删除的实体
func (em *EntityManager) RemoveMarkedEntities() {
	if len(em.pending) == 0 {
		return
	}

	alive := em.order[:0]
	for _, id := range em.order {
		if _, dead := em.pending[id]; dead {
			delete(em.entities, id)
			continue
		}
		alive = append(alive, id)
	}
	em.order = alive
	clear(em.pending)
}

// EntityCount 返回当前存活（未被清理）的实体数量
func (em *EntityManager) EntityCount() int {
	return len(em.order)
}

// GetEntitiesWith 查询拥有全部指定组件类型的实体（按创建顺序）
func (em *EntityManager) GetEntitiesWith(componentTypes ...reflect.Type) []EntityID {
	var result []EntityID
	for _, id := range em.order {
		if em.hasAll(em.entities[id], componentTypes) {
			result = append(result, id)
		}
	}
	return result
}

func (em *EntityManager) hasAll(set componentSet, componentTypes []reflect.Type) bool {
	for _, ct := range componentTypes {
		if _, ok := set[ct]; !ok {
			return false
		}
	}
	return true
}
