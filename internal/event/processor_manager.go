package event

import (
	"sort"
	"sync"

	"github.com/Joshua-Coded/rootrise-ledger/internal/logger"
	"github.com/Joshua-Coded/rootrise-ledger/internal/model"
	"gorm.io/gorm"
)

// EventProcessor 事件处理器接口，tx 为本事件所在的数据库事务
type EventProcessor interface {
	Process(tx *gorm.DB, event model.Event) error
	GetName() string
	GetEventTypes() []model.EventType
}

// ProcessorManager 事件处理器管理器，同一事件类型的处理器按注册顺序执行
type ProcessorManager struct {
	mu         sync.RWMutex
	processors map[model.EventType][]EventProcessor
}

// NewProcessorManager 创建处理器管理器并注册所有读模型处理器
func NewProcessorManager() *ProcessorManager {
	manager := &ProcessorManager{
		processors: make(map[model.EventType][]EventProcessor),
	}

	manager.RegisterProcessor(NewProjectProcessor())
	manager.RegisterProcessor(NewContributeProcessor())
	manager.RegisterProcessor(NewRefundProcessor())
	manager.RegisterProcessor(NewSettlementProcessor())
	manager.RegisterProcessor(NewFarmerProcessor())

	logger.Info("ProcessorManager initialized for %d event types", len(manager.processors))
	return manager
}

// RegisterProcessor 注册事件处理器
func (pm *ProcessorManager) RegisterProcessor(processor EventProcessor) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	for _, eventType := range processor.GetEventTypes() {
		pm.processors[eventType] = append(pm.processors[eventType], processor)
	}
	logger.Debug("Registered processor %s for %v", processor.GetName(), processor.GetEventTypes())
}

// GetProcessors 获取指定事件类型的处理器
func (pm *ProcessorManager) GetProcessors(eventType model.EventType) []EventProcessor {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return append([]EventProcessor(nil), pm.processors[eventType]...)
}

// ProcessEvent 在 tx 中依次执行该事件类型的所有处理器
func (pm *ProcessorManager) ProcessEvent(tx *gorm.DB, event model.Event) error {
	for _, processor := range pm.GetProcessors(event.Type) {
		if err := processor.Process(tx, event); err != nil {
			return err
		}
	}
	return nil
}

// GetSupportedEventTypes 获取支持的事件类型列表
func (pm *ProcessorManager) GetSupportedEventTypes() []model.EventType {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	eventTypes := make([]model.EventType, 0, len(pm.processors))
	for eventType := range pm.processors {
		eventTypes = append(eventTypes, eventType)
	}
	sort.Slice(eventTypes, func(i, j int) bool { return eventTypes[i] < eventTypes[j] })
	return eventTypes
}
