// Package tracker отслеживает жизненный цикл исполнения: состояние
// всего прогона, статусы отдельных узлов, скользящие метрики по типам
// узлов и линейную оценку оставшегося времени.
//
// Все переходы публикуются в шину событий; снимки состояния
// потокобезопасны.
package tracker
