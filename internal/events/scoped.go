package events

import "sync"

// Scoped — фасад шины для одного компонента.
//
// Все события, излучённые через фасад, помечаются меткой источника;
// все созданные им подписки запоминаются и снимаются одним вызовом
// Destroy при демонтаже компонента.
type Scoped struct {
	bus    *Bus
	source string

	mu        sync.Mutex
	ids       []SubscriptionID
	destroyed bool
}

// NewScoped создаёт фасад шины с меткой источника.
func NewScoped(bus *Bus, source string) *Scoped {
	return &Scoped{bus: bus, source: source}
}

// Subscribe регистрирует обработчик; подписка снимется при Destroy.
func (s *Scoped) Subscribe(t Type, h Handler) SubscriptionID {
	return s.SubscribeWith([]Type{t}, h, SubscribeOptions{})
}

// Once регистрирует одноразовый обработчик; подписка снимется при Destroy,
// если не успеет сработать раньше.
func (s *Scoped) Once(t Type, h Handler) SubscriptionID {
	return s.SubscribeWith([]Type{t}, h, SubscribeOptions{Once: true})
}

// SubscribeWith регистрирует обработчик с параметрами подписки.
func (s *Scoped) SubscribeWith(types []Type, h Handler, opts SubscribeOptions) SubscriptionID {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.destroyed {
		return 0
	}

	id := s.bus.SubscribeWith(types, h, opts)
	s.ids = append(s.ids, id)
	return id
}

// Unsubscribe снимает одну подписку фасада.
func (s *Scoped) Unsubscribe(id SubscriptionID) bool {
	s.mu.Lock()
	for i, sid := range s.ids {
		if sid == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			break
		}
	}
	s.mu.Unlock()

	return s.bus.Unsubscribe(id)
}

// Emit излучает событие с меткой источника фасада.
func (s *Scoped) Emit(t Type, payload any) {
	s.bus.EmitEvent(Event{Type: t, Payload: payload, Source: s.source})
}

// Destroy снимает все подписки фасада. Повторный вызов — no-op.
// После Destroy новые подписки не регистрируются.
func (s *Scoped) Destroy() {
	s.mu.Lock()
	ids := s.ids
	s.ids = nil
	s.destroyed = true
	s.mu.Unlock()

	for _, id := range ids {
		s.bus.Unsubscribe(id)
	}
}
