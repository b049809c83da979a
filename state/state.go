package state

import (
	"errors"
	"sync"
)

// 状态机接口
type StateMachine interface {
	ChangeState(state State) error
	GetCurrentState() State
	AddTransition(from State, to State, condition func() bool) error
}

// State 会话生命周期中的一个状态。入站事件逐个派发给当前状态，
// 任何事件都不允许将错误抛出状态机边界：要么变更状态并广播，
// 要么静默忽略。
type State interface {
	OnEnter()
	OnExit()
	GetID() string
	HandleJoin(playerID, name string)
	HandleMove(playerID string, dx, dy float64)
	HandleLeave(playerID string)
}

// ErrTransitionNotAllowed is returned when a state transition is not allowed.
var ErrTransitionNotAllowed = errors.New("state transition not allowed")

// 基础状态机实现
type BaseStateMachine struct {
	currentState State
	transitions  map[string]map[string]func() bool // fromState -> toState -> condition
	mutex        sync.RWMutex
}

func NewBaseStateMachine(initialState State) *BaseStateMachine {
	machine := &BaseStateMachine{
		currentState: initialState,
		transitions:  make(map[string]map[string]func() bool),
	}
	initialState.OnEnter()
	return machine
}

func (sm *BaseStateMachine) ChangeState(newState State) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	currentID := sm.currentState.GetID()
	newID := newState.GetID()

	// 注册过的转换需要条件放行，未注册的转换默认允许
	if conditions, exists := sm.transitions[currentID]; exists {
		if condition, exists := conditions[newID]; exists {
			if condition != nil && !condition() {
				return ErrTransitionNotAllowed
			}
		}
	}

	sm.currentState.OnExit()
	sm.currentState = newState
	sm.currentState.OnEnter()

	return nil
}

func (sm *BaseStateMachine) GetCurrentState() State {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return sm.currentState
}

func (sm *BaseStateMachine) AddTransition(from State, to State, condition func() bool) error {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	fromID := from.GetID()
	toID := to.GetID()

	if _, exists := sm.transitions[fromID]; !exists {
		sm.transitions[fromID] = make(map[string]func() bool)
	}

	sm.transitions[fromID][toID] = condition
	return nil
}

// SessionStateBase 各会话状态的公共部分
type SessionStateBase struct {
	ID      string
	Session SessionContext
	Stats   Stats
}

func (s *SessionStateBase) GetID() string {
	return s.ID
}

func (s *SessionStateBase) OnEnter() {
	// 默认实现
}

func (s *SessionStateBase) OnExit() {
	// 默认实现
}

func (s *SessionStateBase) HandleJoin(playerID, name string) {
	// 默认实现，具体状态覆盖
}

func (s *SessionStateBase) HandleMove(playerID string, dx, dy float64) {
	// 默认实现：非运行状态下移动被整体忽略
}

func (s *SessionStateBase) HandleLeave(playerID string) {
	// 默认实现，具体状态覆盖
}
