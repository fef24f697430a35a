package service

import (
	"context"
	"sync"

	"github.com/storefront-next/internal/models"
)

// AuthEvent 登录状态变更事件
// SignedIn 为 false 表示用户退出登录
type AuthEvent struct {
	UserID   uint
	SignedIn bool
}

// AuthBroker 登录事件广播器
// 订阅通道随 ctx 取消自动移除并关闭
type AuthBroker struct {
	mu   sync.Mutex
	subs map[int]chan AuthEvent
	next int
}

// NewAuthBroker 创建登录事件广播器
func NewAuthBroker() *AuthBroker {
	return &AuthBroker{subs: make(map[int]chan AuthEvent)}
}

// Subscribe 订阅登录事件
func (b *AuthBroker) Subscribe(ctx context.Context) <-chan AuthEvent {
	ch := make(chan AuthEvent, 16)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	go func() {
		<-ctx.Done()
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
		close(ch)
	}()

	return ch
}

// Publish 广播登录事件（订阅方缓冲满时丢弃）
func (b *AuthBroker) Publish(event AuthEvent) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- event:
		default:
		}
	}
}

// CartSession 单个用户的购物车会话
// items 是当前未提交订单的内存镜像；orderID 为 0 表示尚无当前订单。
// 所有读写都必须持有会话锁，同一用户的并发操作串行执行。
type CartSession struct {
	mu       sync.Mutex
	userID   uint
	orderID  uint
	hydrated bool
	items    []models.OrderItem
}

// snapshot 复制镜像内容（调用方须持锁）
func (s *CartSession) snapshot() []models.OrderItem {
	items := make([]models.OrderItem, len(s.items))
	copy(items, s.items)
	return items
}

// reset 清空内存镜像（调用方须持锁），不触达持久层
func (s *CartSession) reset() {
	s.orderID = 0
	s.hydrated = false
	s.items = nil
}

// SessionManager 购物车会话管理器
type SessionManager struct {
	mu       sync.RWMutex
	sessions map[uint]*CartSession
}

// NewSessionManager 创建会话管理器
func NewSessionManager() *SessionManager {
	return &SessionManager{sessions: make(map[uint]*CartSession)}
}

// Session 获取（或创建）用户会话
func (m *SessionManager) Session(userID uint) *CartSession {
	m.mu.RLock()
	session, ok := m.sessions[userID]
	m.mu.RUnlock()
	if ok {
		return session
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if session, ok = m.sessions[userID]; ok {
		return session
	}
	session = &CartSession{userID: userID}
	m.sessions[userID] = session
	return session
}

// Reset 清空用户会话（仅内存）
func (m *SessionManager) Reset(userID uint) {
	m.mu.RLock()
	session, ok := m.sessions[userID]
	m.mu.RUnlock()
	if !ok {
		return
	}
	session.mu.Lock()
	session.reset()
	session.mu.Unlock()
}

// Drop 移除用户会话
func (m *SessionManager) Drop(userID uint) {
	m.mu.Lock()
	delete(m.sessions, userID)
	m.mu.Unlock()
}
