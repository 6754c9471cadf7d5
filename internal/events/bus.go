package events

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/akimenko/graphflow/internal/telemetry"
)

// DefaultHistoryCapacity — ёмкость истории событий по умолчанию.
const DefaultHistoryCapacity = 1000

// SubscriptionID — идентификатор подписки.
type SubscriptionID int64

// Handler — обработчик события.
type Handler func(Event)

// Filter — предикат подписки; события, не прошедшие фильтр,
// не доходят до обработчика.
type Filter func(Event) bool

// SubscribeOptions — параметры подписки.
type SubscribeOptions struct {
	// Priority — приоритет: обработчики с большим приоритетом
	// вызываются раньше. При равенстве сохраняется порядок регистрации.
	Priority int

	// Filter — необязательный предикат.
	Filter Filter

	// Once — подписка снимается после первого вызова
	// (успешного или упавшего).
	Once bool
}

// subscription — внутренняя запись подписки.
type subscription struct {
	id       SubscriptionID
	types    []Type
	priority int
	filter   Filter
	once     bool
	handler  Handler
}

// Bus — типизированная шина событий.
//
// Излучение полностью синхронно: Emit возвращается после того,
// как все подходящие подписчики отработали. Порядок вызова задаётся
// только приоритетом, никогда временем.
//
// Шина безопасна для конкурентного использования; обработчики
// вызываются без удержания внутренних блокировок.
type Bus struct {
	mu     sync.RWMutex
	subs   map[Type][]*subscription
	byID   map[SubscriptionID]*subscription
	nextID SubscriptionID

	histMu   sync.Mutex
	history  []Event
	histHead int
	histLen  int

	logger *slog.Logger
}

// NewBus создаёт шину с ёмкостью истории по умолчанию.
func NewBus(logger *slog.Logger) *Bus {
	return NewBusWithCapacity(logger, DefaultHistoryCapacity)
}

// NewBusWithCapacity создаёт шину с заданной ёмкостью истории.
func NewBusWithCapacity(logger *slog.Logger, capacity int) *Bus {
	if logger == nil {
		logger = slog.Default()
	}
	if capacity < 1 {
		capacity = 1
	}
	return &Bus{
		subs:    make(map[Type][]*subscription),
		byID:    make(map[SubscriptionID]*subscription),
		nextID:  1,
		history: make([]Event, capacity),
		logger:  logger,
	}
}

// Subscribe регистрирует обработчик на один тип события.
func (b *Bus) Subscribe(t Type, h Handler) SubscriptionID {
	return b.SubscribeWith([]Type{t}, h, SubscribeOptions{})
}

// Once регистрирует одноразовый обработчик.
func (b *Bus) Once(t Type, h Handler) SubscriptionID {
	return b.SubscribeWith([]Type{t}, h, SubscribeOptions{Once: true})
}

// SubscribeWith регистрирует обработчик на несколько типов
// с параметрами подписки. Возвращает один id на всю подписку.
func (b *Bus) SubscribeWith(types []Type, h Handler, opts SubscribeOptions) SubscriptionID {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &subscription{
		id:       b.nextID,
		types:    append([]Type(nil), types...),
		priority: opts.Priority,
		filter:   opts.Filter,
		once:     opts.Once,
		handler:  h,
	}
	b.nextID++

	b.byID[sub.id] = sub
	for _, t := range sub.types {
		b.subs[t] = b.insertByPriority(b.subs[t], sub)
	}

	return sub.id
}

// insertByPriority вставляет подписку в список, отсортированный
// по убыванию приоритета; равные приоритеты идут в порядке регистрации.
func (b *Bus) insertByPriority(list []*subscription, sub *subscription) []*subscription {
	pos := len(list)
	for i, s := range list {
		if s.priority < sub.priority {
			pos = i
			break
		}
	}
	list = append(list, nil)
	copy(list[pos+1:], list[pos:])
	list[pos] = sub
	return list
}

// Unsubscribe снимает подписку. Возвращает false, если подписки нет.
func (b *Bus) Unsubscribe(id SubscriptionID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.removeLocked(id)
}

func (b *Bus) removeLocked(id SubscriptionID) bool {
	sub, ok := b.byID[id]
	if !ok {
		return false
	}
	delete(b.byID, id)

	for _, t := range sub.types {
		list := b.subs[t]
		for i, s := range list {
			if s.id == id {
				b.subs[t] = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(b.subs[t]) == 0 {
			delete(b.subs, t)
		}
	}
	return true
}

// SubscriberCount возвращает количество подписок на тип.
func (b *Bus) SubscriberCount(t Type) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[t])
}

// Emit излучает событие: записывает его в историю и синхронно
// вызывает подходящих подписчиков в порядке убывания приоритета.
func (b *Bus) Emit(t Type, payload any) {
	b.emit(Event{Type: t, Payload: payload, Timestamp: time.Now()})
}

// EmitEvent излучает уже сконструированное событие (для scoped-фасада).
// Пустой Timestamp заполняется текущим временем.
func (b *Bus) EmitEvent(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	b.emit(ev)
}

func (b *Bus) emit(ev Event) {
	telemetry.EventsEmitted.WithLabelValues(string(ev.Type)).Inc()
	b.appendHistory(ev)

	// Снимок списка: обработчики работают без блокировки шины
	// и могут подписываться/отписываться изнутри.
	b.mu.RLock()
	matched := make([]*subscription, len(b.subs[ev.Type]))
	copy(matched, b.subs[ev.Type])
	b.mu.RUnlock()

	for _, sub := range matched {
		if sub.filter != nil && !sub.filter(ev) {
			continue
		}

		// Одноразовая подписка снимается до вызова: упавший
		// обработчик тоже считается отработавшим.
		if sub.once {
			b.mu.Lock()
			removed := b.removeLocked(sub.id)
			b.mu.Unlock()
			if !removed {
				continue
			}
		}

		b.invoke(ev, sub)
	}
}

// invoke вызывает обработчик, изолируя панику от остальных
// подписчиков и от излучателя.
func (b *Bus) invoke(ev Event, sub *subscription) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}

		b.logger.Error("event handler panicked",
			"event_type", string(ev.Type),
			"subscription", int64(sub.id),
			"panic", fmt.Sprint(r))

		// Рекурсивная защита: падение на событии ошибки
		// не переизлучается.
		if ev.Type == HandlerError {
			return
		}
		b.Emit(HandlerError, HandlerErrorPayload{
			EventType:    ev.Type,
			Subscription: sub.id,
			Panic:        fmt.Sprint(r),
		})
	}()

	sub.handler(ev)
}

// appendHistory дописывает событие в кольцевую историю,
// вытесняя самое старое при переполнении.
func (b *Bus) appendHistory(ev Event) {
	b.histMu.Lock()
	defer b.histMu.Unlock()

	size := len(b.history)
	b.history[(b.histHead+b.histLen)%size] = ev
	if b.histLen < size {
		b.histLen++
	} else {
		b.histHead = (b.histHead + 1) % size
	}
}

// History возвращает копию истории от старых событий к новым.
func (b *Bus) History() []Event {
	b.histMu.Lock()
	defer b.histMu.Unlock()

	out := make([]Event, b.histLen)
	for i := 0; i < b.histLen; i++ {
		out[i] = b.history[(b.histHead+i)%len(b.history)]
	}
	return out
}

// HistoryByType возвращает события указанного типа от старых к новым.
func (b *Bus) HistoryByType(t Type) []Event {
	var out []Event
	for _, ev := range b.History() {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}

// ClearHistory очищает историю.
func (b *Bus) ClearHistory() {
	b.histMu.Lock()
	defer b.histMu.Unlock()
	b.histHead = 0
	b.histLen = 0
}
