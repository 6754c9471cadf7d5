// Package events реализует типизированную шину событий движка.
//
// Шина синхронная: Emit вызывает подписчиков в стеке вызова,
// в порядке убывания приоритета. Ошибки подписчиков изолируются
// и превращаются в синтетическое событие ошибки. Последние события
// хранятся в ограниченной истории.
package events
