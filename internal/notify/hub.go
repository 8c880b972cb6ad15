package notify

import "sync"

// размер буфера подписчика; медленный клиент теряет события, а не блокирует найм
const subscriberBuffer = 16

// Hub раздаёт события подключённым клиентам по id пользователя.
// Заменяет глобальный реестр сокетов: внедряется как Publisher,
// ядро ничего не знает о транспорте.
type Hub struct {
	mu   sync.RWMutex
	subs map[int]map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[int]map[chan Event]struct{})}
}

// Subscribe регистрирует клиента пользователя userID.
// Возвращённый cancel обязан быть вызван при отключении клиента.
func (h *Hub) Subscribe(userID int) (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	if h.subs[userID] == nil {
		h.subs[userID] = make(map[chan Event]struct{})
	}
	h.subs[userID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		delete(h.subs[userID], ch)
		if len(h.subs[userID]) == 0 {
			delete(h.subs, userID)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish отправляет событие получателю или всем при Broadcast.
// Отправка неблокирующая: переполненный канал пропускает событие.
func (h *Hub) Publish(e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if e.Recipient == Broadcast {
		for _, chans := range h.subs {
			for ch := range chans {
				select {
				case ch <- e:
				default:
				}
			}
		}
		return
	}

	for ch := range h.subs[e.Recipient] {
		select {
		case ch <- e:
		default:
		}
	}
}
